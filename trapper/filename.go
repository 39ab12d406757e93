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
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harrowm/mal-80/hardware/memory"
	"github.com/harrowm/mal-80/logger"
)

// the Level II workspace keeps a two-byte pointer to the six-character
// filename argument of CLOAD/CSAVE/SYSTEM here.
const romFilenamePtr = 0x40a7

// extractFilename reads the BASIC filename out of RAM: follow the pointer,
// skip a leading quote, take up to six printable characters and trim
// trailing spaces.
func extractFilename(bus *memory.Bus) string {
	ptr := uint16(bus.Peek(romFilenamePtr)) | uint16(bus.Peek(romFilenamePtr+1))<<8

	if bus.Peek(ptr) == '"' {
		ptr++
	}

	s := strings.Builder{}
	for i := uint16(0); i < 6; i++ {
		ch := bus.Peek(ptr + i)
		if ch == 0x00 || ch == '"' || ch < 0x20 || ch > 0x7e {
			break
		}
		s.WriteByte(ch)
	}

	return strings.TrimRight(s.String(), " ")
}

// findSoftware looks for a file in the software directory whose stem has
// the given case-insensitive prefix and a cassette-image or BASIC-source
// extension. An empty name matches everything. Ties resolve to the
// lexicographically first path.
func findSoftware(dir string, name string, tag string) string {
	logger.Logf(tag, "searching for %q", name)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	prefix := strings.ToLower(name)

	var matches []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".cas" && ext != ".bas" {
			continue
		}
		stem := strings.ToLower(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		if prefix == "" || strings.HasPrefix(stem, prefix) {
			matches = append(matches, filepath.Join(dir, e.Name()))
		}
	}

	if len(matches) == 0 {
		logger.Logf(tag, "no match for %q", name)
		return ""
	}

	sort.Strings(matches)
	logger.Logf(tag, "picking %q", matches[0])
	return matches[0]
}
