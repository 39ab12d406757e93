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

	"github.com/harrowm/mal-80/test"
)

// the documented T-state counts. a prefixed instruction completes over two
// calls to Step() but the sum must equal the documented total.
func TestInstructionTiming(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		ticks   int
	}{
		{"nop", []uint8{0x00}, 4},
		{"ld r,r'", []uint8{0x41}, 4},
		{"ld r,n", []uint8{0x06, 0x12}, 7},
		{"ld r,(hl)", []uint8{0x46}, 7},
		{"ld (hl),r", []uint8{0x70}, 7},
		{"ld (hl),n", []uint8{0x36, 0x12}, 10},
		{"ld rr,nn", []uint8{0x01, 0x34, 0x12}, 10},
		{"ld a,(nn)", []uint8{0x3a, 0x00, 0x80}, 13},
		{"ld (nn),a", []uint8{0x32, 0x00, 0x80}, 13},
		{"ld hl,(nn)", []uint8{0x2a, 0x00, 0x80}, 16},
		{"ld (nn),hl", []uint8{0x22, 0x00, 0x80}, 16},
		{"ld sp,hl", []uint8{0xf9}, 6},
		{"inc rr", []uint8{0x03}, 6},
		{"dec rr", []uint8{0x0b}, 6},
		{"inc r", []uint8{0x3c}, 4},
		{"inc (hl)", []uint8{0x34}, 11},
		{"add hl,rr", []uint8{0x09}, 11},
		{"alu a,r", []uint8{0x80}, 4},
		{"alu a,(hl)", []uint8{0x86}, 7},
		{"alu a,n", []uint8{0xc6, 0x01}, 7},
		{"daa", []uint8{0x27}, 4},
		{"exx", []uint8{0xd9}, 4},
		{"ex (sp),hl", []uint8{0xe3}, 19},
		{"push rr", []uint8{0xc5}, 11},
		{"pop rr", []uint8{0xc1}, 10},
		{"rst", []uint8{0xff}, 11},
		{"jp nn", []uint8{0xc3, 0x03, 0x00}, 10},
		{"jp cc,nn not taken", []uint8{0xca, 0x00, 0x00}, 10},
		{"jr taken", []uint8{0x18, 0x00}, 12},
		{"jr cc not taken", []uint8{0x28, 0x10}, 7},
		{"djnz taken", []uint8{0x06, 0x02, 0x10, 0x00}, 7 + 13},
		{"djnz not taken", []uint8{0x06, 0x01, 0x10, 0x00}, 7 + 8},
		{"call nn", []uint8{0xcd, 0x03, 0x00}, 17},
		{"call cc,nn not taken", []uint8{0xcc, 0x03, 0x00}, 10},
		{"ret", []uint8{0xc9}, 10},
		{"ret cc not taken", []uint8{0xc8}, 5},
		{"in a,(n)", []uint8{0xdb, 0xff}, 11},
		{"out (n),a", []uint8{0xd3, 0xff}, 11},
		{"halt", []uint8{0x76}, 4},

		{"cb rotate r", []uint8{0xcb, 0x00}, 8},
		{"cb rotate (hl)", []uint8{0xcb, 0x06}, 15},
		{"cb bit r", []uint8{0xcb, 0x40}, 8},
		{"cb bit (hl)", []uint8{0xcb, 0x46}, 12},
		{"cb set (hl)", []uint8{0xcb, 0xc6}, 15},

		{"ed in r,(c)", []uint8{0xed, 0x40}, 12},
		{"ed out (c),r", []uint8{0xed, 0x41}, 12},
		{"ed sbc hl,rr", []uint8{0xed, 0x42}, 15},
		{"ed adc hl,rr", []uint8{0xed, 0x4a}, 15},
		{"ed ld (nn),rr", []uint8{0xed, 0x43, 0x00, 0x80}, 20},
		{"ed ld rr,(nn)", []uint8{0xed, 0x4b, 0x00, 0x80}, 20},
		{"ed neg", []uint8{0xed, 0x44}, 8},
		{"ed im 1", []uint8{0xed, 0x56}, 8},
		{"ed ld i,a", []uint8{0xed, 0x47}, 9},
		{"ed ld a,r", []uint8{0xed, 0x5f}, 9},
		{"ed rld", []uint8{0xed, 0x6f}, 18},
		{"ed ldi", []uint8{0xed, 0xa0}, 16},
		{"ed cpi", []uint8{0xed, 0xa1}, 16},

		{"dd ld ix,nn", []uint8{0xdd, 0x21, 0x34, 0x12}, 14},
		{"dd add ix,rr", []uint8{0xdd, 0x09}, 15},
		{"dd inc ix", []uint8{0xdd, 0x23}, 10},
		{"dd inc ixh", []uint8{0xdd, 0x24}, 8},
		{"dd ld ixh,n", []uint8{0xdd, 0x26, 0x12}, 11},
		{"dd ld r,(ix+d)", []uint8{0xdd, 0x46, 0x05}, 19},
		{"dd ld (ix+d),r", []uint8{0xdd, 0x70, 0x05}, 19},
		{"dd ld (ix+d),n", []uint8{0xdd, 0x36, 0x05, 0x12}, 19},
		{"dd inc (ix+d)", []uint8{0xdd, 0x34, 0x05}, 23},
		{"dd alu a,(ix+d)", []uint8{0xdd, 0x86, 0x05}, 19},
		{"dd push ix", []uint8{0xdd, 0xe5}, 15},
		{"dd pop ix", []uint8{0xdd, 0xe1}, 14},
		{"dd jp (ix)", []uint8{0xdd, 0xe9}, 8},
		{"ddcb rlc (ix+d)", []uint8{0xdd, 0xcb, 0x05, 0x06}, 23},
		{"ddcb bit (ix+d)", []uint8{0xdd, 0xcb, 0x05, 0x46}, 20},
		{"ddcb set (ix+d),b", []uint8{0xdd, 0xcb, 0x05, 0xc0}, 23},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			z, b := newTestCPU()
			z.Reg.SP = 0xf000

			// ret lands on the end of the program (the word at 0xf000);
			// jp (ix) lands at 0xf000, beyond it
			z.Reg.IX = 0xf000
			b.mem[0xf000] = uint8(len(tc.program))
			b.mem[0xf001] = 0x00

			copy(b.mem[:], tc.program)
			z.Reg.PC = 0

			// run to the end of the program. a prefixed instruction
			// completes over two calls to Step(); the jump targets in the
			// test programs land on or beyond the end of the program (rst
			// 0xff lands at 0x0038)
			ticks := 0
			end := uint16(len(tc.program))
			for i := 0; i < 100; i++ {
				ticks += z.Step()
				if z.MidInstruction() {
					continue
				}
				if z.Reg.PC >= end || z.Reg.Halted {
					break
				}
			}

			test.ExpectEquality(t, ticks, tc.ticks)
		})
	}
}

// the repeating block instructions cost 21 T-states per repeat and 16 on the
// terminating pass.
func TestBlockTiming(t *testing.T) {
	z, b := newTestCPU()

	// ld hl,0x8000 / ld de,0x9000 / ld bc,2 / ldir
	copy(b.mem[:], []uint8{
		0x21, 0x00, 0x80,
		0x11, 0x00, 0x90,
		0x01, 0x02, 0x00,
		0xed, 0xb0,
	})
	z.Reg.PC = 0
	z.Step()
	z.Step()
	z.Step()

	// first pass: BC becomes 1, PC rewinds; 21 T-states in total
	test.ExpectEquality(t, z.Step(), 4)
	test.ExpectEquality(t, z.Step(), 17)
	test.ExpectEquality(t, z.Reg.PC, uint16(0x0009))

	// terminating pass: 16 T-states
	test.ExpectEquality(t, z.Step(), 4)
	test.ExpectEquality(t, z.Step(), 12)
	test.ExpectEquality(t, z.Reg.BC, uint16(0))
	test.ExpectEquality(t, z.Reg.PC, uint16(0x000b))
}
