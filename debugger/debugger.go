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

// Package debugger records a rolling window of CPU state and watches for
// the machine freezing in a tight loop.
//
// Record() snapshots the CPU before every instruction into a fixed-size
// ring. CheckFreeze() watches for two shapes of freeze: the same PC
// repeating (a HALT with interrupts off, or a JR -2), and a rolling window
// of PCs that stays within a 64-byte range for a long stretch of T-states
// (a multi-instruction spin). Both only fire for code running in user RAM:
// the ROM's own keyboard wait loop spins legitimately.
//
// On the first trigger the ring is dumped to trace.log, one line per
// snapshot, and the detector latches so a run produces at most one dump.
package debugger

import (
	"fmt"
	"os"
	"strings"

	"github.com/harrowm/mal-80/curated"
	"github.com/harrowm/mal-80/hardware/cpu"
	"github.com/harrowm/mal-80/hardware/memory"
	"github.com/harrowm/mal-80/logger"
	"github.com/harrowm/mal-80/resources"
)

// Tuning of the freeze detector.
const (
	// ring capacity
	TraceDepth = 500

	// the same-PC streak that counts as a freeze
	samePCStreak = 100000

	// size of the rolling PC window and the address range it must stay
	// inside
	freezeWindow = 64

	// T-states accumulated inside the window before the slow path fires.
	// roughly 1.7 seconds of machine time
	freezeTStates = 3000000

	// tight loops are only suspicious in user RAM
	ramStart = 0x4000
)

// sentinel error.
const DumpError = "debugger: %v"

// entry is one snapshot in the trace ring.
type entry struct {
	pc, sp     uint16
	a, f       uint8
	bc, de, hl uint16
	ix, iy     uint16
	i, im      uint8
	iff1, iff2 bool
	halted     bool
	tstates    uint64
}

// Debugger is the trace ring and freeze detector.
type Debugger struct {
	buf   [TraceDepth]entry
	head  int
	count int

	// freeze detector state
	window  [freezeWindow]uint16
	winPos  int
	winFull bool
	acc     uint64
	lastPC  uint16
	streak  uint64
	dumped  bool

	// where Dump() writes. the conventional trace.log unless overridden
	DumpPath string
}

// NewDebugger is the preferred method of initialisation for the Debugger
// type.
func NewDebugger() *Debugger {
	return &Debugger{
		lastPC:   0xffff,
		DumpPath: resources.TraceLog,
	}
}

// Record snapshots the CPU into the ring. Call before every instruction.
func (dbg *Debugger) Record(z *cpu.CPU, tstates uint64) {
	e := &dbg.buf[dbg.head]
	e.pc = z.Reg.PC
	e.sp = z.Reg.SP
	e.a = z.Reg.A
	e.f = z.Reg.F
	e.bc = z.Reg.BC
	e.de = z.Reg.DE
	e.hl = z.Reg.HL
	e.ix = z.Reg.IX
	e.iy = z.Reg.IY
	e.i = z.Reg.I
	e.im = z.Reg.IM
	e.iff1 = z.Reg.IFF1
	e.iff2 = z.Reg.IFF2
	e.halted = z.Reg.Halted
	e.tstates = tstates

	dbg.head = (dbg.head + 1) % TraceDepth
	if dbg.count < TraceDepth {
		dbg.count++
	}
}

// HasEntries reports whether anything has been recorded.
func (dbg *Debugger) HasEntries() bool {
	return dbg.count > 0
}

// CheckFreeze updates the freeze detector with the current PC. It returns
// true exactly once, the first time a freeze is detected; the caller
// should Dump().
func (dbg *Debugger) CheckFreeze(pc uint16) bool {
	if dbg.dumped {
		return false
	}

	// fast path: the same PC repeating
	if pc == dbg.lastPC {
		dbg.streak++
	} else {
		dbg.lastPC = pc
		dbg.streak = 0
	}

	// slow path: all PCs in the rolling window within a 64-byte range
	dbg.window[dbg.winPos] = pc
	dbg.winPos = (dbg.winPos + 1) % freezeWindow
	if !dbg.winFull && dbg.winPos == 0 {
		dbg.winFull = true
	}

	tight := dbg.streak > samePCStreak && pc >= ramStart
	if !tight && dbg.winFull {
		l := dbg.window[0]
		h := dbg.window[0]
		for _, p := range dbg.window {
			if p < l {
				l = p
			}
			if p > h {
				h = p
			}
		}
		if l >= ramStart && h-l < freezeWindow {
			dbg.acc += 4
		} else {
			dbg.acc = 0
		}
		tight = dbg.acc >= freezeTStates
	}

	if tight {
		logger.Logf("debugger", "freeze detected at pc=%04x streak=%d", pc, dbg.streak)
		dbg.dumped = true
		return true
	}
	return false
}

// Dump writes the ring to the dump path, oldest snapshot first.
func (dbg *Debugger) Dump(bus *memory.Bus) error {
	if dbg.count == 0 {
		return nil
	}

	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("# Mal-80 freeze trace - last %d instructions\n", dbg.count))
	s.WriteString("# TSTATES     PC   SP   AF   BC   DE   HL   IX   IY  I IM IFF OP\n")

	start := 0
	if dbg.count == TraceDepth {
		start = dbg.head
	}
	for n := 0; n < dbg.count; n++ {
		e := &dbg.buf[(start+n)%TraceDepth]

		flags := ""
		if e.halted {
			flags += " HALT"
		}
		if !e.iff1 {
			flags += " DI"
		}

		s.WriteString(fmt.Sprintf("%12d  %04X %04X  %02X%02X %04X %04X %04X  %04X %04X  %02X %d %d%d  %02X %02X%s\n",
			e.tstates,
			e.pc, e.sp,
			e.a, e.f, e.bc, e.de, e.hl,
			e.ix, e.iy,
			e.i, e.im, b2i(e.iff1), b2i(e.iff2),
			bus.Peek(e.pc), bus.Peek(e.pc+1),
			flags))
	}

	if err := os.WriteFile(dbg.DumpPath, []byte(s.String()), 0644); err != nil {
		return curated.Errorf(DumpError, err)
	}

	logger.Logf("debugger", "dumped %d instructions to %s", dbg.count, dbg.DumpPath)
	return nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
