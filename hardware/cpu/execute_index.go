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

// executeIndex decodes and executes an opcode from the DD (IX) or FD (IY)
// table. The (HL) operand is rewritten to (IX+d)/(IY+d) and the H and L
// half-registers to the undocumented index halves, except where the
// displacement form is in play. Opcodes not affected by the prefix fall
// through to the main table, which also takes care of a further prefix
// byte: the last DD/FD wins.
//
// The return value excludes the four T-states already consumed by the
// prefix fetch.
func (z *CPU) executeIndex(op uint8, ixy *uint16) int {
	// the 8-bit load block with index substitution
	if op >= 0x40 && op <= 0x7f && op != 0x76 {
		dst := (op >> 3) & 0x07
		src := op & 0x07

		// when the memory operand is in play the other operand is the real
		// H or L, not the index half
		if dst == 6 {
			addr := z.indexedAddr(ixy)
			v, _ := z.loadR(src)
			z.bus.Write(addr, v)
			return 15
		}
		if src == 6 {
			addr := z.indexedAddr(ixy)
			z.storeR(dst, z.bus.Read(addr, false))
			return 15
		}

		z.storeIndexR(dst, z.loadIndexR(src, ixy), ixy)
		return 4
	}

	// the ALU block with index substitution
	if op >= 0x80 && op <= 0xbf {
		code := (op >> 3) & 0x07
		if op&0x07 == 6 {
			addr := z.indexedAddr(ixy)
			z.alu(code, z.bus.Read(addr, false))
			return 15
		}
		z.alu(code, z.loadIndexR(op&0x07, ixy))
		return 4
	}

	switch op {
	case 0x09, 0x19, 0x29, 0x39: // add ix,rr
		v := *z.rr16(op >> 4)
		if op == 0x29 {
			v = *ixy
		}
		z.addHL(ixy, v)
		return 11

	case 0x21: // ld ix,nn
		*ixy = z.fetch16()
		return 10

	case 0x22: // ld (nn),ix
		z.write16(z.fetch16(), *ixy)
		return 16

	case 0x2a: // ld ix,(nn)
		*ixy = z.read16(z.fetch16())
		return 16

	case 0x23: // inc ix
		*ixy++
		return 6

	case 0x2b: // dec ix
		*ixy--
		return 6

	case 0x24: // inc ixh
		setHi(ixy, z.inc8(hi(ixy)))
		return 4

	case 0x25: // dec ixh
		setHi(ixy, z.dec8(hi(ixy)))
		return 4

	case 0x26: // ld ixh,n
		setHi(ixy, z.fetch8())
		return 7

	case 0x2c: // inc ixl
		setLo(ixy, z.inc8(lo(ixy)))
		return 4

	case 0x2d: // dec ixl
		setLo(ixy, z.dec8(lo(ixy)))
		return 4

	case 0x2e: // ld ixl,n
		setLo(ixy, z.fetch8())
		return 7

	case 0x34: // inc (ix+d)
		addr := z.indexedAddr(ixy)
		z.bus.Write(addr, z.inc8(z.bus.Read(addr, false)))
		return 19

	case 0x35: // dec (ix+d)
		addr := z.indexedAddr(ixy)
		z.bus.Write(addr, z.dec8(z.bus.Read(addr, false)))
		return 19

	case 0x36: // ld (ix+d),n
		addr := z.indexedAddr(ixy)
		z.bus.Write(addr, z.fetch8())
		return 15

	case 0xcb: // the DDCB/FDCB sub-prefix
		addr := z.indexedAddr(ixy)
		sub := z.fetch8()
		return z.executeIndexCB(sub, addr)

	case 0xe1: // pop ix
		*ixy = z.pop()
		return 10

	case 0xe3: // ex (sp),ix
		v := z.read16(z.Reg.SP)
		z.write16(z.Reg.SP, *ixy)
		*ixy = v
		return 19

	case 0xe5: // push ix
		z.push(*ixy)
		return 11

	case 0xe9: // jp (ix)
		z.Reg.PC = *ixy
		return 4

	case 0xf9: // ld sp,ix
		z.Reg.SP = *ixy
		return 6
	}

	// the prefix has no effect on this opcode. execute it from the main
	// table; a further prefix byte is latched there
	return z.executeMain(op)
}

// indexedAddr fetches the signed displacement byte and applies it to the
// index register.
func (z *CPU) indexedAddr(ixy *uint16) uint16 {
	d := int8(z.fetch8())
	return *ixy + uint16(int16(d))
}

// loadIndexR is loadR with the H and L codes rewritten to the halves of the
// index register.
func (z *CPU) loadIndexR(code uint8, ixy *uint16) uint8 {
	switch code {
	case 4:
		return hi(ixy)
	case 5:
		return lo(ixy)
	}
	v, _ := z.loadR(code)
	return v
}

// storeIndexR is storeR with the H and L codes rewritten to the halves of
// the index register.
func (z *CPU) storeIndexR(code uint8, v uint8, ixy *uint16) {
	switch code {
	case 4:
		setHi(ixy, v)
	case 5:
		setLo(ixy, v)
	default:
		z.storeR(code, v)
	}
}
