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

// executeMain decodes and executes an opcode from the unprefixed table. The
// return value is the T-state count of the whole instruction, including the
// four T-states of the opcode fetch.
func (z *CPU) executeMain(op uint8) int {
	// prefix opcodes latch the table for the next call to Step()
	switch op {
	case 0xcb, 0xdd, 0xed, 0xfd:
		z.prefix = op
		return 4
	}

	// the 8-bit load block, with HALT in the (HL),(HL) slot
	if op >= 0x40 && op <= 0x7f {
		if op == 0x76 { // halt
			z.Reg.Halted = true
			z.Reg.PC--
			return 4
		}
		v, st := z.loadR(op & 0x07)
		dt := z.storeR((op>>3)&0x07, v)
		return 4 + st + dt
	}

	// the ALU block
	if op >= 0x80 && op <= 0xbf {
		v, t := z.loadR(op & 0x07)
		z.alu((op>>3)&0x07, v)
		return 4 + t
	}

	switch op {
	case 0x00: // nop
		return 4

	case 0x01, 0x11, 0x21, 0x31: // ld rr,nn
		*z.rr16(op >> 4) = z.fetch16()
		return 10

	case 0x02: // ld (bc),a
		z.bus.Write(z.Reg.BC, z.Reg.A)
		return 7

	case 0x12: // ld (de),a
		z.bus.Write(z.Reg.DE, z.Reg.A)
		return 7

	case 0x0a: // ld a,(bc)
		z.Reg.A = z.bus.Read(z.Reg.BC, false)
		return 7

	case 0x1a: // ld a,(de)
		z.Reg.A = z.bus.Read(z.Reg.DE, false)
		return 7

	case 0x03, 0x13, 0x23, 0x33: // inc rr
		*z.rr16(op >> 4)++
		return 6

	case 0x0b, 0x1b, 0x2b, 0x3b: // dec rr
		*z.rr16(op >> 4)--
		return 6

	case 0x09, 0x19, 0x29, 0x39: // add hl,rr
		z.addHL(&z.Reg.HL, *z.rr16(op >> 4))
		return 11

	case 0x04, 0x0c, 0x14, 0x1c, 0x24, 0x2c, 0x3c: // inc r
		code := (op >> 3) & 0x07
		v, _ := z.loadR(code)
		z.storeR(code, z.inc8(v))
		return 4

	case 0x34: // inc (hl)
		z.bus.Write(z.Reg.HL, z.inc8(z.bus.Read(z.Reg.HL, false)))
		return 11

	case 0x05, 0x0d, 0x15, 0x1d, 0x25, 0x2d, 0x3d: // dec r
		code := (op >> 3) & 0x07
		v, _ := z.loadR(code)
		z.storeR(code, z.dec8(v))
		return 4

	case 0x35: // dec (hl)
		z.bus.Write(z.Reg.HL, z.dec8(z.bus.Read(z.Reg.HL, false)))
		return 11

	case 0x06, 0x0e, 0x16, 0x1e, 0x26, 0x2e, 0x3e: // ld r,n
		z.storeR((op>>3)&0x07, z.fetch8())
		return 7

	case 0x36: // ld (hl),n
		z.bus.Write(z.Reg.HL, z.fetch8())
		return 10

	case 0x07: // rlca
		z.rlca()
		return 4

	case 0x0f: // rrca
		z.rrca()
		return 4

	case 0x17: // rla
		z.rla()
		return 4

	case 0x1f: // rra
		z.rra()
		return 4

	case 0x08: // ex af,af'
		af := z.Reg.AF()
		z.Reg.SetAF(z.Reg.AFalt)
		z.Reg.AFalt = af
		return 4

	case 0x10: // djnz d
		d := int8(z.fetch8())
		b := z.Reg.B() - 1
		z.Reg.SetB(b)
		if b != 0 {
			z.Reg.PC += uint16(int16(d))
			return 13
		}
		return 8

	case 0x18: // jr d
		d := int8(z.fetch8())
		z.Reg.PC += uint16(int16(d))
		return 12

	case 0x20, 0x28, 0x30, 0x38: // jr cc,d
		d := int8(z.fetch8())
		if z.flagCond((op >> 3) & 0x03) {
			z.Reg.PC += uint16(int16(d))
			return 12
		}
		return 7

	case 0x22: // ld (nn),hl
		z.write16(z.fetch16(), z.Reg.HL)
		return 16

	case 0x2a: // ld hl,(nn)
		z.Reg.HL = z.read16(z.fetch16())
		return 16

	case 0x32: // ld (nn),a
		z.bus.Write(z.fetch16(), z.Reg.A)
		return 13

	case 0x3a: // ld a,(nn)
		z.Reg.A = z.bus.Read(z.fetch16(), false)
		return 13

	case 0x27: // daa
		z.daa()
		return 4

	case 0x2f: // cpl
		z.Reg.A = ^z.Reg.A
		z.Reg.F = z.Reg.F&(FlagS|FlagZ|FlagP|FlagC) | FlagH | FlagN | z.Reg.A&flag35
		return 4

	case 0x37: // scf
		z.Reg.F = z.Reg.F&(FlagS|FlagZ|FlagP) | z.Reg.A&flag35 | FlagC
		return 4

	case 0x3f: // ccf
		f := z.Reg.F&(FlagS|FlagZ|FlagP) | z.Reg.A&flag35
		if z.Reg.F&FlagC != 0 {
			f |= FlagH
		} else {
			f |= FlagC
		}
		z.Reg.F = f
		return 4

	case 0xc0, 0xc8, 0xd0, 0xd8, 0xe0, 0xe8, 0xf0, 0xf8: // ret cc
		if z.flagCond((op >> 3) & 0x07) {
			z.Reg.PC = z.pop()
			return 11
		}
		return 5

	case 0xc9: // ret
		z.Reg.PC = z.pop()
		return 10

	case 0xc1, 0xd1, 0xe1: // pop rr
		switch op >> 4 & 0x03 {
		case 0:
			z.Reg.BC = z.pop()
		case 1:
			z.Reg.DE = z.pop()
		case 2:
			z.Reg.HL = z.pop()
		}
		return 10

	case 0xf1: // pop af
		z.Reg.SetAF(z.pop())
		return 10

	case 0xc5, 0xd5, 0xe5: // push rr
		switch op >> 4 & 0x03 {
		case 0:
			z.push(z.Reg.BC)
		case 1:
			z.push(z.Reg.DE)
		case 2:
			z.push(z.Reg.HL)
		}
		return 11

	case 0xf5: // push af
		z.push(z.Reg.AF())
		return 11

	case 0xc3: // jp nn
		z.Reg.PC = z.fetch16()
		return 10

	case 0xc2, 0xca, 0xd2, 0xda, 0xe2, 0xea, 0xf2, 0xfa: // jp cc,nn
		nn := z.fetch16()
		if z.flagCond((op >> 3) & 0x07) {
			z.Reg.PC = nn
		}
		return 10

	case 0xcd: // call nn
		nn := z.fetch16()
		z.push(z.Reg.PC)
		z.Reg.PC = nn
		return 17

	case 0xc4, 0xcc, 0xd4, 0xdc, 0xe4, 0xec, 0xf4, 0xfc: // call cc,nn
		nn := z.fetch16()
		if z.flagCond((op >> 3) & 0x07) {
			z.push(z.Reg.PC)
			z.Reg.PC = nn
			return 17
		}
		return 10

	case 0xc6, 0xce, 0xd6, 0xde, 0xe6, 0xee, 0xf6, 0xfe: // alu a,n
		z.alu((op>>3)&0x07, z.fetch8())
		return 7

	case 0xc7, 0xcf, 0xd7, 0xdf, 0xe7, 0xef, 0xf7, 0xff: // rst
		z.push(z.Reg.PC)
		z.Reg.PC = uint16(op & 0x38)
		return 11

	case 0xd3: // out (n),a
		z.bus.WritePort(z.fetch8(), z.Reg.A)
		return 11

	case 0xdb: // in a,(n)
		z.Reg.A = z.bus.ReadPort(z.fetch8())
		return 11

	case 0xd9: // exx
		z.Reg.BC, z.Reg.BCalt = z.Reg.BCalt, z.Reg.BC
		z.Reg.DE, z.Reg.DEalt = z.Reg.DEalt, z.Reg.DE
		z.Reg.HL, z.Reg.HLalt = z.Reg.HLalt, z.Reg.HL
		return 4

	case 0xe3: // ex (sp),hl
		v := z.read16(z.Reg.SP)
		z.write16(z.Reg.SP, z.Reg.HL)
		z.Reg.HL = v
		return 19

	case 0xe9: // jp (hl)
		z.Reg.PC = z.Reg.HL
		return 4

	case 0xeb: // ex de,hl
		z.Reg.DE, z.Reg.HL = z.Reg.HL, z.Reg.DE
		return 4

	case 0xf3: // di
		z.Reg.IFF1 = false
		z.Reg.IFF2 = false
		return 4

	case 0xfb: // ei
		z.Reg.IFF1 = true
		z.Reg.IFF2 = true
		return 4

	case 0xf9: // ld sp,hl
		z.Reg.SP = z.Reg.HL
		return 6
	}

	// the main table is fully populated so this is unreachable with a
	// correct decoder. behave per the failure policy regardless
	z.unimplemented("main", op)
	return 4
}
