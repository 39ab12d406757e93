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

// Package fdc emulates the FD1771 floppy disk controller in the TRS-80
// expansion interface.
//
// The registers are memory mapped, not IO ports:
//
//	0x37e0-0x37e3  drive select latch (write; reads handled by the bus)
//	0x37ec         command (write) / status (read, clears INTRQ)
//	0x37ed         track register
//	0x37ee         sector register
//	0x37ef         data register
//
// Disk images are JV1: a flat array of 256-byte sectors in track-major
// order, single sided, single density, conventionally 35 tracks of 10
// sectors. There is no /WAIT hardware; DRQ is polled by software and INTRQ
// is routed to the same IM1 interrupt line as the 60Hz timer.
package fdc

import (
	"os"

	"github.com/harrowm/mal-80/curated"
	"github.com/harrowm/mal-80/logger"
)

// Disk geometry.
const (
	NumDrives       = 4
	SectorsPerTrack = 10
	BytesPerSector  = 256
	MaxTracks       = 35
)

// Status register bits as seen by software.
const (
	StatusBusy     uint8 = 0x01 // command in progress
	StatusDRQ      uint8 = 0x02 // data request
	StatusTrack0   uint8 = 0x04 // head on track 0 (type I)
	StatusRNF      uint8 = 0x10 // record not found (type II/III)
	StatusRecType  uint8 = 0x20 // deleted data mark (type II/III)
	StatusNotReady uint8 = 0x80 // no disk in drive
)

// sentinel errors.
const (
	BadDrive = "fdc: no such drive (%d)"
	NoDisk   = "fdc: %v"
)

// drive is one of the four drive slots.
type drive struct {
	image     []uint8
	headTrack int
	loaded    bool
}

func (d *drive) readSector(track int, sector int) []uint8 {
	out := make([]uint8, BytesPerSector)
	offset := (track*SectorsPerTrack + sector) * BytesPerSector
	if offset+BytesPerSector <= len(d.image) {
		copy(out, d.image[offset:offset+BytesPerSector])
	}
	return out
}

func (d *drive) writeSector(track int, sector int, data []uint8) {
	offset := (track*SectorsPerTrack + sector) * BytesPerSector
	if offset+BytesPerSector > len(d.image) {
		// extend the image, eg. when formatting a larger disk
		grown := make([]uint8, offset+BytesPerSector)
		copy(grown, d.image)
		d.image = grown
	}
	copy(d.image[offset:], data[:BytesPerSector])
}

// FDC is the controller and its four drive slots.
type FDC struct {
	drives [NumDrives]drive

	status uint8
	track  uint8
	sector uint8
	data   uint8

	// drive select latch and the sticky last explicitly-selected drive.
	// commands arriving between a motor-off deselect and the next select
	// must still address the intended drive
	driveSel  uint8
	lastDrive int

	// sector transfer buffer, shared by read sector, write sector and read
	// address
	buf    [BytesPerSector]uint8
	bufPos int
	bufLen int

	// write sector commit target
	writePending bool
	writeTrack   int
	writeSector  int

	intrq bool

	// last step direction: +1 towards the hub, -1 towards track 0
	lastDir int
}

// NewFDC is the preferred method of initialisation for the FDC type.
func NewFDC() *FDC {
	return &FDC{lastDir: 1}
}

// LoadDisk mounts a JV1 disk image file into a drive slot.
func (f *FDC) LoadDisk(num int, path string) error {
	if num < 0 || num >= NumDrives {
		return curated.Errorf(BadDrive, num)
	}
	image, err := os.ReadFile(path)
	if err != nil {
		return curated.Errorf(NoDisk, err)
	}
	f.SetDisk(num, image)
	logger.Logf("fdc", "drive %d: %s (%d bytes, %d tracks)",
		num, path, len(image), len(image)/(SectorsPerTrack*BytesPerSector))
	return nil
}

// SetDisk mounts a disk image directly into a drive slot.
func (f *FDC) SetDisk(num int, image []uint8) {
	f.drives[num].image = image
	f.drives[num].loaded = true
	f.drives[num].headTrack = 0

	// power-on state: head on track 0, drive ready. the Level II ROM
	// treats status 0x00 the same as open bus so TRACK0 must show
	f.status = StatusTrack0
}

// Disk returns the image mounted in a drive slot, or nil.
func (f *FDC) Disk(num int) []uint8 {
	if num < 0 || num >= NumDrives || !f.drives[num].loaded {
		return nil
	}
	return f.drives[num].image
}

// IsPresent returns true if any drive has a disk loaded. The bus uses this
// for expansion interface detection.
func (f *FDC) IsPresent() bool {
	for i := range f.drives {
		if f.drives[i].loaded {
			return true
		}
	}
	return false
}

// IntrqPending is the state of the INTRQ line. It is combined with the
// timer interrupt by the bus and cleared by reading the status register.
func (f *FDC) IntrqPending() bool {
	return f.intrq
}

// SelectDrive latches a drive-select write (0x37e0-0x37e3). Bits 0-2
// select drives 0-2; bit 3 is side select and is ignored for single-sided
// JV1 images. A write with no drive bits does not lose the current
// selection: the motor keeps spinning after a deselect and the controller
// stays responsive.
func (f *FDC) SelectDrive(v uint8) {
	f.driveSel = v
	for i := 0; i < 3; i++ {
		if v&(1<<i) != 0 {
			f.lastDrive = i
			break
		}
	}
}

func (f *FDC) currentDrive() int {
	for i := 0; i < 3; i++ {
		if f.driveSel&(1<<i) != 0 {
			return i
		}
	}
	return f.lastDrive
}

func (f *FDC) activeDrive() *drive {
	d := &f.drives[f.currentDrive()]
	if !d.loaded {
		return nil
	}
	return d
}

// Read a memory-mapped controller register (0x37ec-0x37ef).
func (f *FDC) Read(addr uint16) uint8 {
	switch addr {
	case 0x37ec:
		// reading status clears INTRQ
		f.intrq = false
		return f.status

	case 0x37ed:
		return f.track

	case 0x37ee:
		return f.sector

	case 0x37ef:
		// the data register drives the byte-by-byte read transfer
		if f.bufLen > 0 && !f.writePending {
			f.data = f.buf[f.bufPos]
			f.bufPos++
			if f.bufPos >= f.bufLen {
				// all bytes delivered: command complete
				f.bufLen = 0
				f.status &^= StatusBusy | StatusDRQ
				f.intrq = true
			}
		}
		return f.data
	}
	return 0xff
}

// Peek a controller register without side effects.
func (f *FDC) Peek(addr uint16) uint8 {
	switch addr {
	case 0x37ec:
		return f.status
	case 0x37ed:
		return f.track
	case 0x37ee:
		return f.sector
	case 0x37ef:
		return f.data
	}
	return 0xff
}

// Write a memory-mapped controller register (0x37ec-0x37ef).
func (f *FDC) Write(addr uint16, v uint8) {
	switch addr {
	case 0x37ec:
		f.executeCommand(v)

	case 0x37ed:
		f.track = v

	case 0x37ee:
		f.sector = v

	case 0x37ef:
		f.data = v
		// the data register drives the byte-by-byte write transfer
		if f.writePending && f.bufLen > 0 {
			f.buf[f.bufPos] = v
			f.bufPos++
			if f.bufPos >= f.bufLen {
				// all bytes received: commit the sector to the image
				if d := f.activeDrive(); d != nil {
					d.writeSector(f.writeTrack, f.writeSector, f.buf[:])
				}
				f.bufLen = 0
				f.writePending = false
				f.status &^= StatusBusy | StatusDRQ
				f.intrq = true
			}
		}
	}
}

// executeCommand dispatches on the high nibble of the command byte.
func (f *FDC) executeCommand(cmd uint8) {
	// a new command cancels any in-progress transfer
	f.bufLen = 0
	f.bufPos = 0
	f.writePending = false
	f.intrq = false

	switch cmd >> 4 {
	case 0x0:
		f.cmdRestore()
	case 0x1:
		f.cmdSeek()
	case 0x2:
		f.cmdStep(f.lastDir, false)
	case 0x3:
		f.cmdStep(f.lastDir, true)
	case 0x4:
		f.cmdStep(1, false)
	case 0x5:
		f.cmdStep(1, true)
	case 0x6:
		f.cmdStep(-1, false)
	case 0x7:
		f.cmdStep(-1, true)
	case 0x8, 0x9:
		f.cmdReadSector()
	case 0xa, 0xb:
		f.cmdWriteSector()
	case 0xc:
		f.cmdReadAddress()
	case 0xd:
		f.cmdForceInterrupt(cmd)
	default:
		// read track / write track are not needed to boot or run TRSDOS
		logger.Logf("fdc", "unsupported command %02x", cmd)
		f.cmdForceInterrupt(0xd0)
	}
}

// notReady is the shared failure path for commands addressed to an empty
// drive slot.
func (f *FDC) notReady() {
	f.status = StatusNotReady
	f.intrq = true
}

func (f *FDC) cmdRestore() {
	d := f.activeDrive()
	if d == nil {
		f.notReady()
		return
	}

	d.headTrack = 0
	f.track = 0
	f.status = StatusTrack0
	f.intrq = true
}

func (f *FDC) cmdSeek() {
	d := f.activeDrive()
	if d == nil {
		f.notReady()
		return
	}

	target := int(f.data)
	if target >= MaxTracks {
		target = MaxTracks - 1
	}

	if target > d.headTrack {
		f.lastDir = 1
	} else {
		f.lastDir = -1
	}
	d.headTrack = target
	f.track = uint8(target)

	f.status = 0x00
	if target == 0 {
		f.status = StatusTrack0
	}
	f.intrq = true
}

func (f *FDC) cmdStep(dir int, updateTrack bool) {
	d := f.activeDrive()
	if d == nil {
		f.notReady()
		return
	}

	f.lastDir = dir
	next := d.headTrack + dir
	if next < 0 {
		next = 0
	}
	if next >= MaxTracks {
		next = MaxTracks - 1
	}

	d.headTrack = next
	if updateTrack {
		f.track = uint8(next)
	}

	f.status = 0x00
	if next == 0 {
		f.status = StatusTrack0
	}
	f.intrq = true
}

func (f *FDC) cmdReadSector() {
	d := f.activeDrive()
	if d == nil {
		f.notReady()
		return
	}

	t := d.headTrack
	s := int(f.sector)
	if s >= SectorsPerTrack || t >= MaxTracks {
		f.status = StatusRNF
		f.intrq = true
		return
	}

	copy(f.buf[:], d.readSector(t, s))
	f.bufPos = 0
	f.bufLen = BytesPerSector

	f.status = StatusBusy | StatusDRQ
	if t == 17 {
		// track 17 holds the TRSDOS directory, written with the deleted
		// data address mark. the FD1771 reports it in bit 5
		f.status |= StatusRecType
	}
}

func (f *FDC) cmdWriteSector() {
	d := f.activeDrive()
	if d == nil {
		f.notReady()
		return
	}

	t := d.headTrack
	s := int(f.sector)
	if s >= SectorsPerTrack || t >= MaxTracks {
		f.status = StatusRNF
		f.intrq = true
		return
	}

	f.writePending = true
	f.writeTrack = t
	f.writeSector = s
	f.bufPos = 0
	f.bufLen = BytesPerSector
	f.status = StatusBusy | StatusDRQ
}

// cmdReadAddress synthesises the 6-byte ID field for the sector under the
// head. The track register is loaded with the track field of the ID, which
// is how LDOS verifies head position after a seek.
func (f *FDC) cmdReadAddress() {
	d := f.activeDrive()
	if d == nil {
		f.notReady()
		return
	}

	trk := uint8(d.headTrack)
	f.buf[0] = trk      // track
	f.buf[1] = 0x00     // side 0
	f.buf[2] = f.sector // sector
	f.buf[3] = 0x01     // length code 1 = 256 bytes
	f.buf[4] = 0x00     // crc (not modelled)
	f.buf[5] = 0x00
	f.bufPos = 0
	f.bufLen = 6

	f.track = trk
	f.status = StatusBusy | StatusDRQ
}

func (f *FDC) cmdForceInterrupt(cmd uint8) {
	// any in-progress transfer has already been cancelled by
	// executeCommand()
	f.status &^= StatusBusy | StatusDRQ

	// bit 3: raise INTRQ immediately. bits 0-2 relate to index pulses and
	// ready transitions, which are not modelled
	if cmd&0x08 != 0 {
		f.intrq = true
	}
}
