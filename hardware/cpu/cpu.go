// This file is part of Mal-80.
//
// Mal-80 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Mal-80 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Mal-80.  If not, see <https://www.gnu.org/licenses/>.

package cpu

import (
	"github.com/harrowm/mal-80/logger"
)

// the pending prefix values are the prefix opcodes themselves.
const (
	prefixNone uint8 = 0x00
	prefixCB   uint8 = 0xcb
	prefixED   uint8 = 0xed
	prefixDD   uint8 = 0xdd
	prefixFD   uint8 = 0xfd
)

// CPU implements the Z80 found in the TRS-80 Model I. Register state is
// directly accessible through the Reg field; the frame driver and the ROM
// trap layer both rely on this.
type CPU struct {
	Reg Registers

	bus Bus

	// the prefix latched by the previous call to Step(). the next opcode is
	// decoded from the corresponding table
	prefix uint8

	// count of unimplemented-opcode diagnostics already issued. logging
	// stops when the limit is reached
	unimplWarnings int
}

// number of unimplemented-opcode diagnostics before the log falls silent.
const maxUnimplWarnings = 50

// NewCPU is the preferred method of initialisation for the CPU type.
func NewCPU(bus Bus) *CPU {
	z := &CPU{bus: bus}
	z.Reset()
	return z
}

// Reset puts the CPU into its power-on state.
func (z *CPU) Reset() {
	z.Reg = Registers{}
	z.Reg.SP = 0xffff
	z.prefix = prefixNone
}

// Step executes a single instruction, or a single prefix fetch, and returns
// the number of T-states consumed.
//
// A prefix opcode (CB, ED, DD, FD) latches the prefix and consumes the four
// T-states of its fetch; the following call decodes from the prefixed
// table. This means a prefixed instruction completes over two calls, with
// the documented T-state total split between them. Consecutive DD/FD
// prefixes simply re-latch, so the last one wins.
func (z *CPU) Step() int {
	if z.prefix != prefixNone {
		p := z.prefix
		z.prefix = prefixNone
		op := z.fetchM1()
		switch p {
		case prefixCB:
			return z.executeCB(op)
		case prefixED:
			return z.executeED(op)
		case prefixDD:
			return z.executeIndex(op, &z.Reg.IX)
		default:
			return z.executeIndex(op, &z.Reg.IY)
		}
	}

	if z.Reg.Halted {
		// the halted CPU fetches NOPs. PC does not advance but the fetches
		// are still M1 cycles so the refresh register keeps counting
		z.refresh()
		return 4
	}

	op := z.fetchM1()
	return z.executeMain(op)
}

// MidInstruction returns true when a prefix byte has been latched but the
// prefixed opcode has not yet executed. The trap layer and the debugger use
// this to avoid acting between the two halves of a prefixed instruction.
func (z *CPU) MidInstruction() bool {
	return z.prefix != prefixNone
}

// refresh increments the low seven bits of the R register, preserving bit 7.
func (z *CPU) refresh() {
	z.Reg.R = z.Reg.R&0x80 | (z.Reg.R+1)&0x7f
}

// fetchM1 reads the byte at PC as an opcode fetch, advancing PC and the
// refresh register.
func (z *CPU) fetchM1() uint8 {
	v := z.bus.Read(z.Reg.PC, true)
	z.Reg.PC++
	z.refresh()
	return v
}

// fetch8 reads an operand byte at PC.
func (z *CPU) fetch8() uint8 {
	v := z.bus.Read(z.Reg.PC, false)
	z.Reg.PC++
	return v
}

// fetch16 reads a little-endian operand word at PC.
func (z *CPU) fetch16() uint16 {
	lo := z.fetch8()
	hi := z.fetch8()
	return uint16(hi)<<8 | uint16(lo)
}

func (z *CPU) read16(addr uint16) uint16 {
	lo := z.bus.Read(addr, false)
	hi := z.bus.Read(addr+1, false)
	return uint16(hi)<<8 | uint16(lo)
}

func (z *CPU) write16(addr uint16, v uint16) {
	z.bus.Write(addr, uint8(v))
	z.bus.Write(addr+1, uint8(v>>8))
}

// push a word onto the stack.
func (z *CPU) push(v uint16) {
	z.Reg.SP -= 2
	z.bus.Write(z.Reg.SP, uint8(v))
	z.bus.Write(z.Reg.SP+1, uint8(v>>8))
}

// pop a word off the stack.
func (z *CPU) pop() uint16 {
	v := z.read16(z.Reg.SP)
	z.Reg.SP += 2
	return v
}

// loadR returns the value of the 8-bit operand encoded in the low three
// bits of many opcodes, along with the extra T-states of the (HL) memory
// form.
func (z *CPU) loadR(code uint8) (uint8, int) {
	switch code {
	case 0:
		return z.Reg.B(), 0
	case 1:
		return z.Reg.C(), 0
	case 2:
		return z.Reg.D(), 0
	case 3:
		return z.Reg.E(), 0
	case 4:
		return z.Reg.H(), 0
	case 5:
		return z.Reg.L(), 0
	case 6:
		return z.bus.Read(z.Reg.HL, false), 3
	}
	return z.Reg.A, 0
}

// storeR writes to the 8-bit operand encoded in an opcode's destination
// field, returning the extra T-states of the (HL) memory form.
func (z *CPU) storeR(code uint8, v uint8) int {
	switch code {
	case 0:
		z.Reg.SetB(v)
	case 1:
		z.Reg.SetC(v)
	case 2:
		z.Reg.SetD(v)
	case 3:
		z.Reg.SetE(v)
	case 4:
		z.Reg.SetH(v)
	case 5:
		z.Reg.SetL(v)
	case 6:
		z.bus.Write(z.Reg.HL, v)
		return 3
	case 7:
		z.Reg.A = v
	}
	return 0
}

// rr16 returns a pointer to the 16-bit register pair encoded in bits 4-5 of
// many opcodes (BC, DE, HL, SP).
func (z *CPU) rr16(code uint8) *uint16 {
	switch code & 0x03 {
	case 0:
		return &z.Reg.BC
	case 1:
		return &z.Reg.DE
	case 2:
		return &z.Reg.HL
	}
	return &z.Reg.SP
}

// unimplemented logs a throttled diagnostic for an opcode with no
// implementation. The instruction behaves as a NOP.
func (z *CPU) unimplemented(table string, op uint8) {
	if z.unimplWarnings >= maxUnimplWarnings {
		return
	}
	z.unimplWarnings++
	logger.Logf("cpu", "unimplemented opcode %s %02x at pc=%04x", table, op, z.Reg.PC-1)
}
