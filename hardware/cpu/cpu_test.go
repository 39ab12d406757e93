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

package cpu_test

import (
	"testing"

	"github.com/harrowm/mal-80/hardware/cpu"
	"github.com/harrowm/mal-80/test"
)

// testBus is a flat 64KiB RAM with 256 IO ports. no contention, no mapping.
type testBus struct {
	mem   [0x10000]uint8
	ports [0x100]uint8
}

func (b *testBus) Read(addr uint16, m1 bool) uint8 {
	return b.mem[addr]
}

func (b *testBus) Write(addr uint16, v uint8) {
	b.mem[addr] = v
}

func (b *testBus) ReadPort(port uint8) uint8 {
	return b.ports[port]
}

func (b *testBus) WritePort(port uint8, v uint8) {
	b.ports[port] = v
}

// run loads program at origin 0 and executes Step() until PC reaches the end
// of the program, returning the accumulated T-states. prefixed instructions
// complete over two calls to Step() so the loop is on PC, not count.
func run(z *cpu.CPU, b *testBus, program []uint8) int {
	copy(b.mem[:], program)
	z.Reg.PC = 0

	ticks := 0
	end := uint16(len(program))
	for z.Reg.PC < end && !z.Reg.Halted {
		ticks += z.Step()
	}
	return ticks
}

func newTestCPU() (*cpu.CPU, *testBus) {
	b := &testBus{}
	return cpu.NewCPU(b), b
}

func TestLoads(t *testing.T) {
	z, b := newTestCPU()

	// ld a,0x99 / ld b,a / ld hl,0x8000 / ld (hl),b / ld c,(hl)
	run(z, b, []uint8{0x3e, 0x99, 0x47, 0x21, 0x00, 0x80, 0x70, 0x4e})
	test.ExpectEquality(t, z.Reg.A, uint8(0x99))
	test.ExpectEquality(t, z.Reg.B(), uint8(0x99))
	test.ExpectEquality(t, b.mem[0x8000], uint8(0x99))
	test.ExpectEquality(t, z.Reg.C(), uint8(0x99))
}

func TestSixteenBitLoads(t *testing.T) {
	z, b := newTestCPU()

	// ld hl,0x1234 / ld (0x9000),hl / ld bc,(0x9000)
	run(z, b, []uint8{
		0x21, 0x34, 0x12,
		0x22, 0x00, 0x90,
		0xed, 0x4b, 0x00, 0x90,
	})
	test.ExpectEquality(t, b.mem[0x9000], uint8(0x34))
	test.ExpectEquality(t, b.mem[0x9001], uint8(0x12))
	test.ExpectEquality(t, z.Reg.BC, uint16(0x1234))
}

func TestStack(t *testing.T) {
	z, b := newTestCPU()

	// ld sp,0xf000 / ld bc,0xbeef / push bc / pop de
	run(z, b, []uint8{0x31, 0x00, 0xf0, 0x01, 0xef, 0xbe, 0xc5, 0xd1})
	test.ExpectEquality(t, z.Reg.DE, uint16(0xbeef))
	test.ExpectEquality(t, z.Reg.SP, uint16(0xf000))
	test.ExpectEquality(t, b.mem[0xefff], uint8(0xbe))
	test.ExpectEquality(t, b.mem[0xeffe], uint8(0xef))
}

func TestExchange(t *testing.T) {
	z, b := newTestCPU()

	// ld hl,0x1111 / ld de,0x2222 / ex de,hl / exx / ld hl,0x3333 / exx
	run(z, b, []uint8{
		0x21, 0x11, 0x11,
		0x11, 0x22, 0x22,
		0xeb,
		0xd9,
		0x21, 0x33, 0x33,
		0xd9,
	})
	test.ExpectEquality(t, z.Reg.HL, uint16(0x2222))
	test.ExpectEquality(t, z.Reg.DE, uint16(0x1111))
	test.ExpectEquality(t, z.Reg.HLalt, uint16(0x3333))
}

func TestJumpAndCall(t *testing.T) {
	z, b := newTestCPU()
	copy(b.mem[:], []uint8{
		0x31, 0x00, 0xf0, // ld sp,0xf000
		0xcd, 0x00, 0x10, // call 0x1000
		0x76, // halt
	})
	b.mem[0x1000] = 0x3e // ld a,0x55
	b.mem[0x1001] = 0x55
	b.mem[0x1002] = 0xc9 // ret

	z.Reg.PC = 0
	for i := 0; i < 10 && !z.Reg.Halted; i++ {
		z.Step()
	}
	test.ExpectEquality(t, z.Reg.Halted, true)
	test.ExpectEquality(t, z.Reg.A, uint8(0x55))

	// halt leaves PC pointing at the halt instruction
	test.ExpectEquality(t, z.Reg.PC, uint16(0x0006))
}

func TestRelativeJumps(t *testing.T) {
	z, b := newTestCPU()

	// xor a / jr z,+2 / ld a,0xff (skipped) ... landing on inc a
	run(z, b, []uint8{
		0xaf,       // xor a
		0x28, 0x02, // jr z,+2
		0x3e, 0xff, // ld a,0xff (skipped)
		0x3c, // inc a
	})
	test.ExpectEquality(t, z.Reg.A, uint8(0x01))
}

func TestDJNZ(t *testing.T) {
	z, b := newTestCPU()

	// ld b,3 / xor a / inc a / djnz -3
	run(z, b, []uint8{0x06, 0x03, 0xaf, 0x3c, 0x10, 0xfd})
	test.ExpectEquality(t, z.Reg.A, uint8(0x03))
	test.ExpectEquality(t, z.Reg.B(), uint8(0x00))
}

func TestIndexRegisters(t *testing.T) {
	z, b := newTestCPU()

	// ld ix,0x8000 / ld (ix+5),0xaa / ld a,(ix+5) / inc (ix+5)
	run(z, b, []uint8{
		0xdd, 0x21, 0x00, 0x80,
		0xdd, 0x36, 0x05, 0xaa,
		0xdd, 0x7e, 0x05,
		0xdd, 0x34, 0x05,
	})
	test.ExpectEquality(t, z.Reg.A, uint8(0xaa))
	test.ExpectEquality(t, b.mem[0x8005], uint8(0xab))
}

func TestIndexHalves(t *testing.T) {
	z, b := newTestCPU()

	// the undocumented IXH/IXL forms: ld ixh,0x12 / ld ixl,0x34 / ld a,ixh /
	// add a,ixl
	run(z, b, []uint8{
		0xdd, 0x26, 0x12,
		0xdd, 0x2e, 0x34,
		0xdd, 0x7c,
		0xdd, 0x85,
	})
	test.ExpectEquality(t, z.Reg.IX, uint16(0x1234))
	test.ExpectEquality(t, z.Reg.A, uint8(0x46))
}

func TestIndexCBWriteback(t *testing.T) {
	z, b := newTestCPU()

	// the documented-undocumented DDCB side effect: the shift result is also
	// copied into the register encoded in the sub-opcode
	b.mem[0x8002] = 0x81

	// ld ix,0x8000 / rlc (ix+2),b
	run(z, b, []uint8{
		0xdd, 0x21, 0x00, 0x80,
		0xdd, 0xcb, 0x02, 0x00,
	})
	test.ExpectEquality(t, b.mem[0x8002], uint8(0x03))
	test.ExpectEquality(t, z.Reg.B(), uint8(0x03))
	test.ExpectEquality(t, z.Reg.F&cpu.FlagC, cpu.FlagC)
}

func TestNegatedPrefix(t *testing.T) {
	z, b := newTestCPU()

	// consecutive DD/FD prefixes cancel: DD FD 21 is ld iy,nn
	run(z, b, []uint8{0xdd, 0xfd, 0x21, 0x34, 0x12})
	test.ExpectEquality(t, z.Reg.IY, uint16(0x1234))
	test.ExpectEquality(t, z.Reg.IX, uint16(0x0000))
}

func TestBlockTransfer(t *testing.T) {
	z, b := newTestCPU()

	b.mem[0x8000] = 0x01
	b.mem[0x8001] = 0x02
	b.mem[0x8002] = 0x03

	// ld hl,0x8000 / ld de,0x9000 / ld bc,3 / ldir
	run(z, b, []uint8{
		0x21, 0x00, 0x80,
		0x11, 0x00, 0x90,
		0x01, 0x03, 0x00,
		0xed, 0xb0,
	})
	test.ExpectEquality(t, b.mem[0x9000], uint8(0x01))
	test.ExpectEquality(t, b.mem[0x9001], uint8(0x02))
	test.ExpectEquality(t, b.mem[0x9002], uint8(0x03))
	test.ExpectEquality(t, z.Reg.BC, uint16(0x0000))
	test.ExpectEquality(t, z.Reg.HL, uint16(0x8003))
	test.ExpectEquality(t, z.Reg.DE, uint16(0x9003))
	test.ExpectEquality(t, z.Reg.F&cpu.FlagP, uint8(0))
}

func TestBlockCompare(t *testing.T) {
	z, b := newTestCPU()

	copy(b.mem[0x8000:], []uint8{0x10, 0x20, 0x30, 0x40})

	// ld a,0x30 / ld hl,0x8000 / ld bc,4 / cpir
	run(z, b, []uint8{
		0x3e, 0x30,
		0x21, 0x00, 0x80,
		0x01, 0x04, 0x00,
		0xed, 0xb1,
	})

	// terminated on match, not on count
	test.ExpectEquality(t, z.Reg.HL, uint16(0x8003))
	test.ExpectEquality(t, z.Reg.BC, uint16(0x0001))
	test.ExpectEquality(t, z.Reg.F&cpu.FlagZ, cpu.FlagZ)
}

func TestRefreshRegister(t *testing.T) {
	z, b := newTestCPU()

	// R increments once per M1 fetch with bit 7 preserved
	z.Reg.R = 0xfe
	prog := make([]uint8, 10) // ten NOPs
	run(z, b, prog)
	test.ExpectEquality(t, z.Reg.R, uint8(0x80|((0xfe+10)&0x7f)))

	// a prefixed instruction is two M1 fetches
	z.Reg.R = 0
	run(z, b, []uint8{0xdd, 0x21, 0x00, 0x80})
	test.ExpectEquality(t, z.Reg.R, uint8(2))
}

func TestHaltedStep(t *testing.T) {
	z, b := newTestCPU()
	b.mem[0] = 0x76

	z.Step()
	test.ExpectEquality(t, z.Reg.Halted, true)
	pc := z.Reg.PC

	// while halted the cpu consumes 4 T-states per step, PC stays put and R
	// keeps counting
	r := z.Reg.R
	test.ExpectEquality(t, z.Step(), 4)
	test.ExpectEquality(t, z.Step(), 4)
	test.ExpectEquality(t, z.Reg.PC, pc)
	test.ExpectEquality(t, z.Reg.R, uint8(r+2))
}

func TestRETIRestoresIFF1(t *testing.T) {
	z, b := newTestCPU()

	z.Reg.SP = 0xf000
	z.Reg.IFF1 = false
	z.Reg.IFF2 = true
	b.mem[0xf000] = 0x34
	b.mem[0xf001] = 0x12

	// reti
	run(z, b, []uint8{0xed, 0x4d})
	test.ExpectEquality(t, z.Reg.IFF1, true)
	test.ExpectEquality(t, z.Reg.PC, uint16(0x1234))
}

func TestPortIO(t *testing.T) {
	z, b := newTestCPU()
	b.ports[0xfe] = 0x5a

	// in a,(0xfe) / out (0x12),a
	run(z, b, []uint8{0xdb, 0xfe, 0xd3, 0x12})
	test.ExpectEquality(t, z.Reg.A, uint8(0x5a))
	test.ExpectEquality(t, b.ports[0x12], uint8(0x5a))
}

func TestRotateDigit(t *testing.T) {
	z, b := newTestCPU()

	b.mem[0x8000] = 0x31
	z.Reg.A = 0x7a

	// ld hl,0x8000 / rld
	run(z, b, []uint8{0x21, 0x00, 0x80, 0xed, 0x6f})
	test.ExpectEquality(t, z.Reg.A, uint8(0x73))
	test.ExpectEquality(t, b.mem[0x8000], uint8(0x1a))
}
