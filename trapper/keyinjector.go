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

package trapper

import (
	"bufio"
	"os"

	"github.com/harrowm/mal-80/curated"
	"github.com/harrowm/mal-80/hardware/cpu"
	"github.com/harrowm/mal-80/hardware/memory"
	"github.com/harrowm/mal-80/logger"
)

// T-states charged for a keystroke delivered through the $KEY trap,
// approximating the cost of the intercepted call.
const keyTrapTStates = 10

// sentinel error.
const SourceError = "keyinjector: %v"

// KeyInjector queues synthetic keystrokes which are drained one at a time
// through the $KEY ROM trap. It is how BASIC source files are typed into
// the machine and how the autoloader issues commands.
type KeyInjector struct {
	queue []uint8
}

// Enqueue appends text to the queue. Lower case letters are uppercased (the
// machine has no lower case keys), LF becomes the Enter key, CR is dropped
// (so CRLF files work), and control characters are dropped.
func (ki *KeyInjector) Enqueue(text string) {
	for _, c := range []uint8(text) {
		switch {
		case c >= 'a' && c <= 'z':
			ki.queue = append(ki.queue, c-0x20)
		case c == '\n':
			ki.queue = append(ki.queue, 0x0d)
		case c == '\r':
			// strip
		case c >= 0x20 && c < 0x7f:
			ki.queue = append(ki.queue, c)
		}
	}
}

// LoadSourceFile queues the lines of a plain-text BASIC file, prepending
// NEW to clear any program already in memory. Empty lines are skipped.
func (ki *KeyInjector) LoadSourceFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return curated.Errorf(SourceError, err)
	}
	defer f.Close()

	ki.Enqueue("NEW\n")

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		if line != "" {
			ki.Enqueue(line + "\n")
			lines++
		}
	}
	if err := scanner.Err(); err != nil {
		return curated.Errorf(SourceError, err)
	}

	logger.Logf("keyinjector", "queued %d lines (%d chars) from %s", lines, len(ki.queue), path)
	return nil
}

// Active reports whether keystrokes are waiting. The frame driver promotes
// to turbo speed while the queue drains.
func (ki *KeyInjector) Active() bool {
	return len(ki.queue) > 0
}

// handleIntercept fires when the ROM's wait-for-keypress routine is entered
// with keystrokes queued: it pops one byte into A, fakes the RET and
// reports that the CPU step should be skipped.
//
// $KEY is used by BASIC command and line input but not by INKEY$, which
// polls the matrix directly, so games remain playable from the real
// keyboard.
func (ki *KeyInjector) handleIntercept(z *cpu.CPU, bus *memory.Bus) bool {
	if len(ki.queue) == 0 {
		return false
	}

	ch := ki.queue[0]
	ki.queue = ki.queue[1:]

	// pop the caller's return address and jump there with the key in A
	sp := z.Reg.SP
	ret := uint16(bus.Peek(sp)) | uint16(bus.Peek(sp+1))<<8
	z.Reg.SP = sp + 2
	z.Reg.PC = ret
	z.Reg.A = ch
	return true
}
