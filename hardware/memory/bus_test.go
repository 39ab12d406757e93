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

package memory_test

import (
	"testing"

	"github.com/harrowm/mal-80/hardware/fdc"
	"github.com/harrowm/mal-80/hardware/memory"
	"github.com/harrowm/mal-80/test"
)

func TestROMShadow(t *testing.T) {
	b := memory.NewBus()
	test.DemandSuccess(t, b.SetROM([]uint8{0x11, 0x22, 0x33}))

	test.ExpectEquality(t, b.Read(0x0001, false), uint8(0x22))

	// a write in the ROM range lands in the shadow and wins every read
	// after it
	b.Write(0x0001, 0xaa)
	test.ExpectEquality(t, b.Read(0x0001, false), uint8(0xaa))
	b.Write(0x0001, 0xbb)
	test.ExpectEquality(t, b.Read(0x0001, false), uint8(0xbb))

	// neighbouring bytes still read from ROM
	test.ExpectEquality(t, b.Read(0x0000, false), uint8(0x11))
	test.ExpectEquality(t, b.Read(0x0002, false), uint8(0x33))

	// reset forgets the shadow but keeps the ROM
	b.Reset()
	test.ExpectEquality(t, b.Read(0x0001, false), uint8(0x22))
}

func TestAddressDecode(t *testing.T) {
	b := memory.NewBus()

	// user RAM
	b.Write(0x4000, 0x12)
	test.ExpectEquality(t, b.Read(0x4000, false), uint8(0x12))
	b.Write(0xffff, 0x34)
	test.ExpectEquality(t, b.Read(0xffff, false), uint8(0x34))

	// video RAM powers up filled with spaces
	test.ExpectEquality(t, b.Read(0x3c00, false), uint8(0x20))
	b.Write(0x3c00, 0x41)
	test.ExpectEquality(t, b.Read(0x3c00, false), uint8(0x41))
	test.ExpectEquality(t, b.VRAMByte(0), uint8(0x41))

	// the unmapped gap reads open bus
	test.ExpectEquality(t, b.Read(0x3000, false), uint8(0xff))
	test.ExpectEquality(t, b.Read(0x37d0, false), uint8(0xff))
}

func TestKeyboardMatrix(t *testing.T) {
	b := memory.NewBus()

	var matrix [8]uint8
	b.SetKeyboardMatrix(&matrix)

	// nothing pressed
	test.ExpectEquality(t, b.Read(0x3801, false), uint8(0x00))

	// 'A' is row 0 bit 1
	matrix[0] = 0x02
	test.ExpectEquality(t, b.Read(0x3801, false), uint8(0x02))

	// rows OR together when several row bits are selected
	matrix[1] = 0x10
	test.ExpectEquality(t, b.Read(0x3803, false), uint8(0x12))

	// a row whose select bit is clear does not contribute
	test.ExpectEquality(t, b.Read(0x3802, false), uint8(0x10))
}

func TestFrameInterrupt(t *testing.T) {
	b := memory.NewBus()

	// just short of a frame
	b.AddTicks(memory.ScanlinesPerFrame*memory.TStatesPerScanline - 1)
	test.ExpectEquality(t, b.InterruptPending(), false)
	test.ExpectEquality(t, b.Frame(), 0)

	b.AddTicks(1)
	test.ExpectEquality(t, b.InterruptPending(), true)
	test.ExpectEquality(t, b.Frame(), 1)

	// delivery clears the transient flag but the 0x37e0 latch survives
	b.ClearInterrupt()
	test.ExpectEquality(t, b.InterruptPending(), false)
	test.ExpectEquality(t, b.Read(0x37e0, false)&0x80, uint8(0x80))

	// reading the latch cleared it
	test.ExpectEquality(t, b.Read(0x37e0, false)&0x80, uint8(0x00))
}

func TestIRQLatchRead(t *testing.T) {
	b := memory.NewBus()

	// run a whole frame: both the transient flag and the latch are set.
	// reading 0x37e0 clears both
	b.AddTicks(memory.ScanlinesPerFrame * memory.TStatesPerScanline)
	test.ExpectEquality(t, b.Read(0x37e0, false), uint8(0x80))
	test.ExpectEquality(t, b.InterruptPending(), false)
}

func TestFDCInterruptRouting(t *testing.T) {
	b := memory.NewBus()
	b.FDC.SetDisk(0, make([]uint8, fdc.SectorsPerTrack*fdc.BytesPerSector))
	b.Write(0x37e0, 0x01) // select drive 0

	// a restore command completes with INTRQ raised
	b.Write(0x37ec, 0x00)
	test.ExpectEquality(t, b.InterruptPending(), true)
	test.ExpectEquality(t, b.Read(0x37e0, false)&0x40, uint8(0x40))

	// the FDC bit clears on a status read, not on the latch read
	test.ExpectEquality(t, b.Read(0x37ec, false), fdc.StatusTrack0)
	test.ExpectEquality(t, b.InterruptPending(), false)
	test.ExpectEquality(t, b.Read(0x37e0, false)&0x40, uint8(0x00))
}

func TestExpansionWindow(t *testing.T) {
	b := memory.NewBus()

	// open bus at 0x37e4-0x37e7
	test.ExpectEquality(t, b.Read(0x37e4, false), uint8(0xff))

	// the simulated printer is always ready
	test.ExpectEquality(t, b.Read(0x37e8, false), uint8(0x30))
}

func TestVideoContention(t *testing.T) {
	b := memory.NewBus()

	// move the beam into a visible scanline. line 48 is the first visible
	// one
	b.AddTicks(memory.VisibleStart * memory.TStatesPerScanline)

	// position within the contention window
	b.AddTicks(40)
	before := b.TStates()

	// an M1 fetch from VRAM is contended: the bus self-charges two
	// T-states
	b.Read(0x3c00, true)
	test.ExpectEquality(t, b.TStates(), before+2)

	// a data read from VRAM at the same spot is not
	before = b.TStates()
	b.Read(0x3c00, false)
	test.ExpectEquality(t, b.TStates(), before)

	// an M1 fetch from ROM or user RAM is never contended
	before = b.TStates()
	b.Read(0x0000, true)
	b.Read(0x4000, true)
	test.ExpectEquality(t, b.TStates(), before)
}

func TestNoContentionInBlanking(t *testing.T) {
	b := memory.NewBus()

	// scanline 0 is inside vertical blanking
	b.AddTicks(40)
	before := b.TStates()
	b.Read(0x3c00, true)
	test.ExpectEquality(t, b.TStates(), before)
}

func TestFlatMode(t *testing.T) {
	b := memory.NewFlatBus()

	// the whole 64KiB is plain RAM: no ROM, no keyboard, no open bus
	b.Write(0x0000, 0x11)
	b.Write(0x3805, 0x22)
	b.Write(0x37e0, 0x33)
	test.ExpectEquality(t, b.Read(0x0000, false), uint8(0x11))
	test.ExpectEquality(t, b.Read(0x3805, false), uint8(0x22))
	test.ExpectEquality(t, b.Read(0x37e0, false), uint8(0x33))

	// no frame interrupt either
	b.AddTicks(memory.TStatesPerFrame * 2)
	test.ExpectEquality(t, b.InterruptPending(), false)
}

func TestPortFF(t *testing.T) {
	b := memory.NewBus()

	b.WritePort(0xff, 0x02)
	test.ExpectEquality(t, b.SoundBit(), true)
	test.ExpectEquality(t, b.MotorOn(), false)

	b.WritePort(0xff, 0x01)
	test.ExpectEquality(t, b.SoundBit(), false)
	test.ExpectEquality(t, b.MotorOn(), true)

	// reads return the low seven bits of the last write; bit 7 is the
	// cassette line
	test.ExpectEquality(t, b.ReadPort(0xff)&0x7f, uint8(0x01))

	// other ports are unmapped
	test.ExpectEquality(t, b.ReadPort(0x00), uint8(0xff))
}
