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

// Package cassette converts between cassette image byte streams and the
// 1-bit signal on port 0xFF, in both directions.
//
// The encoding is 500 baud FSK at the 1.77408 MHz system clock. Each data
// byte is eight bit-cells, MSB first. A zero bit is one full square-wave
// cycle per cell, a one bit is two. Playback is a pure function of the bus
// T-state clock, which makes the signal immune to emulation jitter;
// recording measures the interval between rising edges of the port output
// and classifies each cycle as long (a zero) or short (half of a one).
package cassette

import (
	"os"
	"path/filepath"

	"github.com/harrowm/mal-80/curated"
	"github.com/harrowm/mal-80/logger"
	"github.com/harrowm/mal-80/resources"
)

// timing constants, in T-states.
const (
	// one bit cell at 500 baud
	BitPeriod = 3548

	// a rising-edge interval longer than this is a one-cycle (zero bit)
	// pattern
	CycleThreshold = 2600

	// recording activity timeout. ~113ms of silence means the ROM has
	// finished writing
	IdleTimeout = 200000

	// when idle the output toggles slowly so a stuck wait-for-high loop in
	// the ROM still terminates
	idleTogglePeriod = 2000

	// zero padding emitted after the end of the image so the ROM can
	// terminate its final edge detection cleanly
	tailBytes = 500
)

// State of the cassette deck.
type State int

// List of valid State values.
const (
	Idle State = iota
	Playing
	Recording
)

func (s State) String() string {
	switch s {
	case Playing:
		return "PLAY"
	case Recording:
		return "REC"
	}
	return ""
}

// sentinel error for a cassette image that cannot be read.
const NoImage = "cassette: %v"

// Deck is the single cassette deck attached to the machine. All timing
// arguments are the bus T-state clock.
type Deck struct {
	state    State
	filename string

	// playback
	data      []uint8
	playStart uint64

	// recording
	rec          []uint8
	lastEdge     uint64
	haveEdge     bool
	shortCycles  int
	curByte      uint8
	bitCount     int
	prevPort     uint8
	lastActivity uint64

	// where recordings are saved. the conventional software directory
	// unless overridden
	SaveDir string
}

// NewDeck is the preferred method of initialisation for the Deck type.
func NewDeck() *Deck {
	return &Deck{SaveDir: resources.SoftwareDir()}
}

// State the deck is currently in.
func (d *Deck) State() State {
	return d.state
}

// Filename tag for the mounted or recorded image.
func (d *Deck) Filename() string {
	return d.filename
}

// SetFilename tags the deck with a name. Recordings are saved under this
// name on Stop().
func (d *Deck) SetFilename(name string) {
	d.filename = name
}

// Data returns the mounted playback image. Used by the trap layer for the
// byte-by-byte load diagnostics.
func (d *Deck) Data() []uint8 {
	return d.data
}

// LoadImage mounts a cassette image file for playback.
func (d *Deck) LoadImage(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return curated.Errorf(NoImage, err)
	}
	d.data = data
	return nil
}

// SetImage mounts a cassette image directly.
func (d *Deck) SetImage(data []uint8) {
	d.data = data
}

// Play begins FSK playback of the mounted image at the current T-state
// clock.
func (d *Deck) Play(now uint64) {
	d.state = Playing
	d.playStart = now
	logger.Logf("cassette", "playing %s (%d bytes)", d.filename, len(d.data))
}

// Record puts the deck into recording mode. Subsequent port writes are fed
// to the edge detector with Edge().
func (d *Deck) Record(now uint64) {
	d.state = Recording
	d.rec = d.rec[:0]
	d.haveEdge = false
	d.shortCycles = 0
	d.curByte = 0
	d.bitCount = 0
	d.lastActivity = now
	logger.Logf("cassette", "recording %q", d.filename)
}

// Stop playback or recording. A recording is flushed and, if a filename is
// set, written to the save directory.
func (d *Deck) Stop() {
	if d.state == Recording {
		d.flush()
		if err := d.save(); err != nil {
			logger.Logf("cassette", "%v", err)
		}
	}
	d.state = Idle
}

// Signal is the current level of the playback line, returned as bit 7 of
// port 0xFF.
func (d *Deck) Signal(now uint64) bool {
	if d.state != Playing {
		// a slow toggle lets a stuck wait-for-high loop terminate by
		// timeout
		return (now/(idleTogglePeriod/2))%2 == 0
	}

	elapsed := now - d.playStart

	// lead-in: half a bit period of silence prevents a false edge-lock the
	// instant the motor starts
	const leadIn = BitPeriod / 2
	if elapsed < leadIn {
		return false
	}
	t := elapsed - leadIn

	byteIdx := t / (BitPeriod * 8)
	bitIdx := (t % (BitPeriod * 8)) / BitPeriod
	bitOffset := t % BitPeriod

	// beyond the end of the image the signal continues with zero bits
	var v uint8
	if byteIdx < uint64(len(d.data)) {
		v = d.data[byteIdx]
	}

	bit := v >> (7 - bitIdx) & 0x01

	// a zero bit is one full cycle per cell, a one bit is two
	half := uint64(BitPeriod / 2)
	if bit == 1 {
		half = BitPeriod / 4
	}

	// high on even half-phases, low on odd
	return (bitOffset/half)%2 == 0
}

// PlaybackDone reports whether playback has run past the end of the image,
// including the zero-padding tail.
func (d *Deck) PlaybackDone(now uint64) bool {
	if d.state != Playing {
		return false
	}
	elapsed := now - d.playStart
	return elapsed/(BitPeriod*8) > uint64(len(d.data)+tailBytes)
}

// Realign snaps the playback clock so that the current moment sits at the
// start of the byte cell it is inside. The trap layer calls this once, when
// the ROM first enters its per-byte reader, soaking up the T-states the ROM
// spent hunting for the sync byte.
func (d *Deck) Realign(now uint64) {
	if d.state != Playing {
		return
	}
	const leadIn = BitPeriod / 2
	elapsed := now - d.playStart
	if elapsed < leadIn {
		return
	}
	d.playStart += (elapsed - leadIn) % (BitPeriod * 8)
}

// Position returns the byte and bit index the playback signal is currently
// inside. Used for load diagnostics.
func (d *Deck) Position(now uint64) (byteIdx int, bitIdx int) {
	const leadIn = BitPeriod / 2
	elapsed := now - d.playStart
	if elapsed < leadIn {
		return 0, 0
	}
	t := elapsed - leadIn
	return int(t / (BitPeriod * 8)), int((t % (BitPeriod * 8)) / BitPeriod)
}

// Edge feeds a port 0xFF write to the recording edge detector. Bits are
// recovered from the interval between rising edges of bit 0.
func (d *Deck) Edge(port uint8, now uint64) {
	if d.state != Recording {
		return
	}

	rising := d.prevPort&0x01 == 0 && port&0x01 == 1
	d.prevPort = port
	if !rising {
		return
	}
	d.lastActivity = now

	if !d.haveEdge {
		d.haveEdge = true
		d.lastEdge = now
		return
	}

	interval := now - d.lastEdge
	d.lastEdge = now

	switch {
	case interval > IdleTimeout:
		// a new block. the next edge starts a fresh cycle measurement
		d.shortCycles = 0

	case interval > CycleThreshold:
		// a long cycle: the cell held one full cycle, so the bit was zero
		d.recordBit(0)
		d.shortCycles = 0

	default:
		// a short cycle: two of them make a one bit
		d.shortCycles++
		if d.shortCycles == 2 {
			d.recordBit(1)
			d.shortCycles = 0
		}
	}
}

// RecordingIdle reports whether the ROM has stopped driving the recording
// for longer than the idle timeout.
func (d *Deck) RecordingIdle(now uint64) bool {
	return d.state == Recording && now-d.lastActivity > IdleTimeout
}

// Recorded returns the bytes decoded so far, including any saved on Stop().
func (d *Deck) Recorded() []uint8 {
	return d.rec
}

func (d *Deck) recordBit(bit uint8) {
	d.curByte = d.curByte<<1 | bit
	d.bitCount++
	if d.bitCount == 8 {
		d.rec = append(d.rec, d.curByte)
		d.curByte = 0
		d.bitCount = 0
	}
}

// flush pads any half-assembled byte up to the high bits and pushes it.
func (d *Deck) flush() {
	if d.bitCount > 0 {
		d.rec = append(d.rec, d.curByte<<(8-d.bitCount))
		d.curByte = 0
		d.bitCount = 0
	}
}

// save writes the recording under the conventional name in the save
// directory.
func (d *Deck) save() error {
	if d.filename == "" || len(d.rec) == 0 {
		return nil
	}
	path := filepath.Join(d.SaveDir, d.filename+".cas")
	if err := os.WriteFile(path, d.rec, 0644); err != nil {
		return curated.Errorf("cassette: %v", err)
	}
	logger.Logf("cassette", "saved %d bytes to %s", len(d.rec), path)
	return nil
}

// Status is a short human-readable summary for the window title.
func (d *Deck) Status() string {
	switch d.state {
	case Playing:
		return "PLAY " + d.filename
	case Recording:
		return "REC " + d.filename
	}
	return ""
}
