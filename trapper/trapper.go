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

// Package trapper watches the program counter for known Level II ROM entry
// points and shortcuts them: SYSTEM files load instantly instead of
// through FSK playback, CLOAD resolves a host file and starts the cassette
// deck, CSAVE starts a recording, and the wait-for-keypress routine drains
// the key-injection queue.
//
// The trap layer is a passive observer polled by the frame driver before
// every CPU step; the CPU core itself knows nothing about it.
package trapper

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/harrowm/mal-80/hardware/cassette"
	"github.com/harrowm/mal-80/hardware/cpu"
	"github.com/harrowm/mal-80/hardware/memory"
	"github.com/harrowm/mal-80/logger"
	"github.com/harrowm/mal-80/resources"
)

// The Level II ROM entry points the trapper watches.
const (
	// LOPHD: SYSTEM loader preamble, before the cassette motor turns on
	romSystemEntry = 0x02ce

	// CSRDON: CLOAD cassette sync search
	romCloadEntry = 0x0293

	// first call into the per-byte cassette reader; the moment to realign
	// the playback clock
	romCasinFirst = 0x0235

	// RET from the per-byte cassette reader: one full byte is in A
	romCasinReturn = 0x0240

	// CSAVE write-leader entry
	romCsaveEntry = 0x0284

	// $KEY: wait-for-keypress, returning the ASCII code in A
	romKeyEntry = 0x0049

	// BASIC warm restart: prints READY and waits
	romBasicReady = 0x1a19
)

// Trapper owns the ROM entry-point watchers and the key-injection queue.
type Trapper struct {
	cpu  *cpu.CPU
	bus  *memory.Bus
	Keys *KeyInjector

	// the directory searched for software. the conventional one unless
	// overridden by tests
	SoftwareDir string

	// a SYSTEM intercept is in flight; suppresses the CLOAD intercept for
	// the same file
	systemActive bool

	// CLOAD progress tracking
	cloadActive    bool
	cloadRealigned bool
	cloadBytes     int
	cloadSyncPos   int

	// --load autoload state
	autoloadPath string
	autorun      bool
}

// NewTrapper is the preferred method of initialisation for the Trapper
// type.
func NewTrapper(z *cpu.CPU, bus *memory.Bus) *Trapper {
	return &Trapper{
		cpu:         z,
		bus:         bus,
		Keys:        &KeyInjector{},
		SoftwareDir: resources.SoftwareDir(),
	}
}

// SetupFromCLI translates a --load argument into queued keystrokes and
// autoload state. SYSTEM images are typed in through the interactive
// SYSTEM command; BASIC cassettes arm a one-shot autoload path for the
// CLOAD trap; source files are typed in and run.
func (tr *Trapper) SetupFromCLI(name string) {
	path := findSoftware(tr.SoftwareDir, name, "load")
	if path == "" {
		logger.Logf("load", "no file matching %q", name)
		return
	}

	ext := strings.ToLower(filepath.Ext(path))
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	switch ext {
	case ".cas":
		if image, err := os.ReadFile(path); err == nil && IsSystemImage(image) {
			// the SYSTEM command is interactive: it prints *? and reads
			// the filename through $KEY. the leading newline answers the
			// cold-boot MEMORY SIZE? prompt
			tr.Keys.Enqueue("\nSYSTEM\n" + stem + "\n")
		} else {
			tr.autoloadPath = path
			tr.autorun = true
			tr.Keys.Enqueue("CLOAD\n")
		}
	case ".bas":
		if err := tr.Keys.LoadSourceFile(path); err != nil {
			logger.Logf("load", "%v", err)
			return
		}
		tr.Keys.Enqueue("RUN\n")
	}
}

// Probe offers the current program counter to every watcher. It returns
// the T-states consumed by a fired trap and whether the CPU step should be
// skipped this cycle.
func (tr *Trapper) Probe() (int, bool) {
	if tr.cpu.MidInstruction() {
		return 0, false
	}

	pc := tr.cpu.Reg.PC

	tr.onSystemEntry(pc)
	tr.onCloadEntry(pc)
	tr.onCloadTracking(pc)
	tr.onCsaveEntry(pc)

	if pc == romKeyEntry && tr.Keys.handleIntercept(tr.cpu, tr.bus) {
		return keyTrapTStates, true
	}

	return 0, false
}

// onSystemEntry intercepts the SYSTEM loader before the cassette motor
// turns on, so the CLOAD intercept never fires for the same file.
func (tr *Trapper) onSystemEntry(pc uint16) {
	if pc != romSystemEntry {
		return
	}

	tr.systemActive = true

	name := extractFilename(tr.bus)
	path := findSoftware(tr.SoftwareDir, name, "system")
	if path == "" {
		return
	}

	image, err := os.ReadFile(path)
	if err != nil {
		logger.Logf("system", "%v", err)
		return
	}

	exec, err := ParseSystemImage(image, tr.bus.Write)
	if err != nil {
		// leave systemActive set so the upcoming CSRDON intercept is
		// suppressed rather than trying to play a SYSTEM file as BASIC
		logger.Logf("system", "%v", err)
		return
	}

	tr.cpu.Reg.PC = exec
	tr.systemActive = false
}

// onCloadEntry intercepts the cassette sync search: resolve a host file
// and either start FSK playback or, for a source file, inject it as
// keystrokes.
func (tr *Trapper) onCloadEntry(pc uint16) {
	if pc != romCloadEntry || tr.bus.Deck.State() != cassette.Idle {
		return
	}

	if tr.systemActive {
		// reached from a failed SYSTEM fast-load. skip the CLOAD setup
		tr.systemActive = false
		return
	}

	var name string
	var path string
	if tr.autoloadPath != "" {
		path = tr.autoloadPath
		tr.autoloadPath = ""
		logger.Logf("cload", "using autoload path %s", path)
	} else {
		name = extractFilename(tr.bus)
		path = findSoftware(tr.SoftwareDir, name, "cload")
	}

	if path == "" {
		return
	}

	if strings.ToLower(filepath.Ext(path)) == ".bas" {
		// a source file: type it in and return to the READY prompt
		if err := tr.Keys.LoadSourceFile(path); err != nil {
			logger.Logf("cload", "%v", err)
			return
		}
		tr.cpu.Reg.PC = romBasicReady
		return
	}

	if err := tr.bus.Deck.LoadImage(path); err != nil {
		logger.Logf("cload", "%v", err)
		return
	}

	if name == "" {
		name = "(auto)"
	}
	tr.bus.Deck.SetFilename(name)
	tr.bus.Deck.Play(tr.bus.TStates())

	tr.cloadActive = true
	tr.cloadRealigned = false
	tr.cloadBytes = 0
	tr.cloadSyncPos = 0
	for i, v := range tr.bus.Deck.Data() {
		if v == 0xa5 {
			tr.cloadSyncPos = i
			break
		}
	}
}

// onCloadTracking follows an in-progress CLOAD byte by byte: it realigns
// the playback clock on the first entry to the per-byte reader, and
// compares every delivered byte against the image for diagnostics. It also
// notices the deck going idle.
func (tr *Trapper) onCloadTracking(pc uint16) {
	if !tr.cloadActive {
		return
	}

	if tr.bus.Deck.State() == cassette.Playing {
		if pc == romCasinFirst && !tr.cloadRealigned {
			tr.bus.Deck.Realign(tr.bus.TStates())
			tr.cloadRealigned = true
		}

		if pc == romCasinReturn {
			data := tr.bus.Deck.Data()
			total := len(data) - tr.cloadSyncPos - 1

			actual := tr.cpu.Reg.A
			expIdx := tr.cloadSyncPos + 1 + tr.cloadBytes
			expected := uint8(0xff)
			if expIdx < len(data) {
				expected = data[expIdx]
			}

			if actual != expected {
				logger.Logf("cload", "mismatch at byte %d/%d: got %02x expected %02x",
					tr.cloadBytes, total, actual, expected)
			}
			if tr.cloadBytes%512 == 0 {
				logger.Logf("cload", "progress %d/%d bytes", tr.cloadBytes, total)
			}
			tr.cloadBytes++
		}
		return
	}

	if tr.bus.Deck.State() == cassette.Idle {
		logger.Logf("cload", "complete, %d bytes read", tr.cloadBytes)
		tr.cloadActive = false
		if tr.autorun {
			tr.Keys.Enqueue("RUN\n")
			tr.autorun = false
		}
	}
}

// onCsaveEntry intercepts the CSAVE write-leader entry and starts a
// recording tagged with the filename from RAM.
func (tr *Trapper) onCsaveEntry(pc uint16) {
	if pc != romCsaveEntry || tr.bus.Deck.State() != cassette.Idle {
		return
	}

	tr.bus.Deck.SetFilename(extractFilename(tr.bus))
	tr.bus.Deck.Record(tr.bus.TStates())
}
