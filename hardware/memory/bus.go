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

// Package memory implements the TRS-80 Model I address space and the
// machine's timing heart: the scanline counter that raises the 60Hz frame
// interrupt and charges video contention.
//
// The memory map:
//
//	0x0000-0x2fff  12KiB ROM, with RAM shadowing for expansion interface DOS
//	0x3000-0x37ff  open bus, except the expansion register window
//	0x37e0-0x37ef  expansion registers (IRQ latch, printer, FDC)
//	0x3800-0x3bff  keyboard matrix, row-selected by the low address bits
//	0x3c00-0x3fff  1KiB video RAM
//	0x4000-0xffff  48KiB user RAM
//
// A separate flat mode reinterprets the whole 64KiB as plain RAM for
// CP/M-style test programs such as ZEXALL.
package memory

import (
	"os"

	"github.com/harrowm/mal-80/curated"
	"github.com/harrowm/mal-80/hardware/cassette"
	"github.com/harrowm/mal-80/hardware/fdc"
)

// Memory map boundaries.
const (
	ROMSize = 0x3000

	keyboardStart = 0x3800
	keyboardEnd   = 0x3bff

	VRAMStart = 0x3c00
	VRAMEnd   = 0x3fff
	VRAMSize  = 0x0400

	RAMStart = 0x4000
	RAMSize  = 0xc000

	expansionStart = 0x37e0
	expansionEnd   = 0x37ef
)

// Video timing. The machine generates 262 scanlines of 114 T-states at
// 60Hz. The contention window within a scanline is the uncalibrated
// heuristic from the original hardware measurements: roughly the 30th to
// 90th T-state of the line.
const (
	ScanlinesPerFrame  = 262
	TStatesPerScanline = 114
	VisibleStart       = 48
	VisibleLines       = 192
	TStatesPerFrame    = 29498
	contentionWindowLo = 30
	contentionWindowHi = 90
)

// sentinel errors.
const (
	ROMTooLarge = "memory: rom too large for %04x-%04x"
	ROMError    = "memory: %v"
)

// Bus is the memory and IO fabric connecting the CPU to everything else.
type Bus struct {
	rom  [ROMSize]uint8
	vram [VRAMSize]uint8
	ram  [RAMSize]uint8

	// writes into the ROM range land in the shadow buffer; reads prefer it
	// per byte. this is how the expansion interface lets a DOS hook the
	// interrupt vector at 0x0038
	shadow       [ROMSize]uint8
	shadowActive [ROMSize]bool

	// 8-byte keyboard matrix, written by the presentation layer between
	// frames. active high
	keyboard *[8]uint8

	// T-state accounting
	tstates     uint64
	scanline    int
	lineTStates int
	frame       int

	// the transient interrupt-pending flag is cleared on delivery; the
	// latched flag survives until software reads 0x37e0
	intPending bool
	intLatched bool

	// last value written to port 0xff
	lastPort uint8

	Deck *cassette.Deck
	FDC  *fdc.FDC

	// flat mode: 64KiB of plain RAM for CP/M test harnesses
	flat []uint8
}

// NewBus is the preferred method of initialisation for the Bus type.
func NewBus() *Bus {
	b := &Bus{
		Deck: cassette.NewDeck(),
		FDC:  fdc.NewFDC(),
	}
	b.Reset()
	return b
}

// NewFlatBus creates a bus in flat mode: 64KiB of RAM, no address decode,
// no contention, no frame interrupt.
func NewFlatBus() *Bus {
	b := NewBus()
	b.flat = make([]uint8, 0x10000)
	return b
}

// Reset returns the bus to its power-on state. The ROM image survives.
func (b *Bus) Reset() {
	// the video RAM powers up showing spaces
	for i := range b.vram {
		b.vram[i] = 0x20
	}
	for i := range b.ram {
		b.ram[i] = 0x00
	}
	for i := range b.shadowActive {
		b.shadowActive[i] = false
	}
	b.tstates = 0
	b.scanline = 0
	b.lineTStates = 0
	b.frame = 0
	b.intPending = false
	b.intLatched = false
	b.lastPort = 0
}

// LoadROM loads a ROM image file at the bottom of the address space.
func (b *Bus) LoadROM(path string) error {
	image, err := os.ReadFile(path)
	if err != nil {
		return curated.Errorf(ROMError, err)
	}
	return b.SetROM(image)
}

// SetROM installs a ROM image directly.
func (b *Bus) SetROM(image []uint8) error {
	if len(image) > ROMSize {
		return curated.Errorf(ROMTooLarge, 0, ROMSize-1)
	}
	copy(b.rom[:], image)
	return nil
}

// SetKeyboardMatrix attaches the 8-byte keyboard matrix. The presentation
// layer owns and writes it; the bus only reads. Both run on the same
// thread.
func (b *Bus) SetKeyboardMatrix(m *[8]uint8) {
	b.keyboard = m
}

// IsFlatMode reports whether the bus was created with NewFlatBus().
func (b *Bus) IsFlatMode() bool {
	return b.flat != nil
}

// Read a byte from the bus. m1 is true for opcode fetches, which is when
// video contention can apply.
func (b *Bus) Read(addr uint16, m1 bool) uint8 {
	if b.flat != nil {
		return b.flat[addr]
	}

	// an M1 fetch from video RAM during the visible portion of a scanline
	// contends with the display hardware. the bus self-charges the wait
	// states; they are invisible to the CPU's own count
	if m1 && addr >= VRAMStart && addr <= VRAMEnd && b.contended() {
		b.tick(2)
	}

	switch {
	case addr < ROMSize:
		if b.shadowActive[addr] {
			return b.shadow[addr]
		}
		return b.rom[addr]

	case addr >= keyboardStart && addr <= keyboardEnd:
		return b.readKeyboard(addr)

	case addr >= VRAMStart && addr <= VRAMEnd:
		return b.vram[addr-VRAMStart]

	case addr >= expansionStart && addr <= expansionEnd:
		return b.readExpansion(addr)

	case addr >= RAMStart:
		return b.ram[addr-RAMStart]
	}

	// open bus
	return 0xff
}

// Write a byte to the bus.
func (b *Bus) Write(addr uint16, v uint8) {
	if b.flat != nil {
		b.flat[addr] = v
		return
	}

	switch {
	case addr < ROMSize:
		b.shadow[addr] = v
		b.shadowActive[addr] = true

	case addr >= VRAMStart && addr <= VRAMEnd:
		b.vram[addr-VRAMStart] = v

	case addr >= expansionStart && addr <= expansionEnd:
		b.writeExpansion(addr, v)

	case addr >= RAMStart:
		b.ram[addr-RAMStart] = v
	}
}

// Peek reads a byte without side effects: no contention, no register
// latches. The trap layer and the debugger use it.
func (b *Bus) Peek(addr uint16) uint8 {
	if b.flat != nil {
		return b.flat[addr]
	}

	switch {
	case addr < ROMSize:
		if b.shadowActive[addr] {
			return b.shadow[addr]
		}
		return b.rom[addr]

	case addr >= keyboardStart && addr <= keyboardEnd:
		return b.readKeyboard(addr)

	case addr >= VRAMStart && addr <= VRAMEnd:
		return b.vram[addr-VRAMStart]

	case addr >= expansionStart && addr <= 0x37e3:
		return b.peekIRQLatch()

	case addr >= 0x37ec && addr <= 0x37ef:
		return b.FDC.Peek(addr)

	case addr >= RAMStart:
		return b.ram[addr-RAMStart]
	}

	return 0xff
}

// readKeyboard ORs together the matrix rows selected by the low eight
// address bits. The matrix is active high: 0 means not pressed.
func (b *Bus) readKeyboard(addr uint16) uint8 {
	if b.keyboard == nil {
		return 0x00
	}
	rowSelect := uint8(addr)
	var v uint8
	for row := 0; row < 8; row++ {
		if rowSelect&(1<<row) != 0 {
			v |= b.keyboard[row]
		}
	}
	return v
}

// readExpansion handles reads in the 0x37e0-0x37ef register window.
func (b *Bus) readExpansion(addr uint16) uint8 {
	switch {
	case addr <= 0x37e3:
		// IRQ source latch. reading clears the timer bit and the pending
		// delivery flag
		v := b.peekIRQLatch()
		b.intLatched = false
		b.intPending = false
		return v

	case addr <= 0x37e7:
		return 0xff

	case addr <= 0x37eb:
		// printer status: selected, ready, with paper, not busy
		return 0x30
	}

	return b.FDC.Read(addr)
}

func (b *Bus) peekIRQLatch() uint8 {
	var v uint8
	if b.intLatched {
		v |= 0x80
	}
	if b.FDC.IntrqPending() {
		v |= 0x40
	}
	return v
}

// writeExpansion handles writes in the 0x37e0-0x37ef register window.
func (b *Bus) writeExpansion(addr uint16, v uint8) {
	switch {
	case addr <= 0x37e3:
		b.FDC.SelectDrive(v)

	case addr <= 0x37eb:
		// open bus and printer: ignored

	default:
		b.FDC.Write(addr, v)
	}
}

// AddTicks advances the bus clock. The frame driver calls this with the
// T-states of every CPU step.
func (b *Bus) AddTicks(n int) {
	b.tick(n)
}

// tick advances the T-state accumulator and the video beam, raising the
// frame interrupt on wrap.
func (b *Bus) tick(n int) {
	b.tstates += uint64(n)
	if b.flat != nil {
		return
	}

	b.lineTStates += n
	for b.lineTStates >= TStatesPerScanline {
		b.lineTStates -= TStatesPerScanline
		b.scanline++
		if b.scanline >= ScanlinesPerFrame {
			b.scanline = 0
			b.frame++
			b.intPending = true
			b.intLatched = true
		}
	}
}

// contended reports whether the video beam is inside the contention window
// of a visible scanline.
func (b *Bus) contended() bool {
	if b.scanline < VisibleStart || b.scanline >= VisibleStart+VisibleLines {
		return false
	}
	return b.lineTStates >= contentionWindowLo && b.lineTStates <= contentionWindowHi
}

// TStates is the bus clock: the total T-states since reset, including
// contention wait states.
func (b *Bus) TStates() uint64 {
	return b.tstates
}

// Frame is the count of completed video frames.
func (b *Bus) Frame() int {
	return b.frame
}

// Scanline is the current video scanline.
func (b *Bus) Scanline() int {
	return b.scanline
}

// InterruptPending reports whether an interrupt should be delivered: the
// transient timer flag or the FDC INTRQ line.
func (b *Bus) InterruptPending() bool {
	return b.intPending || b.FDC.IntrqPending()
}

// ClearInterrupt clears the transient timer flag only. The latched bit at
// 0x37e0 survives until software reads it; the FDC INTRQ clears on a
// status read.
func (b *Bus) ClearInterrupt() {
	b.intPending = false
}

// VRAMByte returns a byte of video RAM by offset. The presentation layer
// renders from this.
func (b *Bus) VRAMByte(offset uint16) uint8 {
	if offset < VRAMSize {
		return b.vram[offset]
	}
	return 0x20
}

// ReadPort handles the IN instruction. Only port 0xff is defined: the low
// seven bits of the last value written come back, with the sampled
// cassette playback signal in bit 7.
func (b *Bus) ReadPort(port uint8) uint8 {
	if b.flat != nil || port != 0xff {
		return 0xff
	}

	v := b.lastPort & 0x7f
	if b.Deck.Signal(b.tstates) {
		v |= 0x80
	}
	return v
}

// WritePort handles the OUT instruction. Port 0xff drives the cassette
// motor (bit 0) and the cassette/sound output line (bit 1). During
// recording every write is fed to the cassette edge detector.
func (b *Bus) WritePort(port uint8, v uint8) {
	if b.flat != nil || port != 0xff {
		return
	}

	b.lastPort = v
	if b.Deck.State() == cassette.Recording {
		b.Deck.Edge(v, b.tstates)
	}
}

// SoundBit is the current state of the cassette/sound output line (bit 1
// of port 0xff). Games toggle it at audio frequencies.
func (b *Bus) SoundBit() bool {
	return b.lastPort&0x02 != 0
}

// MotorOn is the current state of the cassette motor bit.
func (b *Bus) MotorOn() bool {
	return b.lastPort&0x01 != 0
}
