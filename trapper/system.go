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
	"github.com/harrowm/mal-80/curated"
	"github.com/harrowm/mal-80/logger"
)

// The SYSTEM cassette format:
//
//	[any number of 0x00 leader bytes] [0xa5 sync] [0x55 type] [6-byte name]
//	repeated data blocks: [0x3c] [count, 0 meaning 256] [load_lo] [load_hi]
//	                      [data...] [checksum]
//	end: [0x78] [exec_lo] [exec_hi]
//
// where checksum = (load_lo + load_hi + sum of data) mod 256.

// sentinel errors raised while parsing a SYSTEM image.
const (
	NotSystemImage = "system: not a system cassette image"
	TruncatedImage = "system: truncated image"
	BadBlockMarker = "system: unknown block marker %02x at offset %d"
	NoExecAddress  = "system: no exec address block"
)

// IsSystemImage peeks at a cassette image's type byte: 0x55 after the
// leader and sync marks a SYSTEM (machine language) file.
func IsSystemImage(data []uint8) bool {
	i := 0
	for i < len(data) && data[i] == 0x00 {
		i++
	}
	if i >= len(data) || data[i] != 0xa5 {
		return false
	}
	i++
	return i < len(data) && data[i] == 0x55
}

// ParseSystemImage walks a SYSTEM cassette image, calling write for every
// loaded byte, and returns the execution address. Checksum mismatches are
// logged but not fatal, which is what the real ROM loader does.
func ParseSystemImage(data []uint8, write func(addr uint16, v uint8)) (uint16, error) {
	i := 0
	for i < len(data) && data[i] == 0x00 {
		i++
	}
	if i >= len(data) || data[i] != 0xa5 {
		return 0, curated.Errorf(NotSystemImage)
	}
	i++

	if i >= len(data) || data[i] != 0x55 {
		return 0, curated.Errorf(NotSystemImage)
	}
	i++

	if i+6 > len(data) {
		return 0, curated.Errorf(TruncatedImage)
	}
	name := string(data[i : i+6])
	i += 6

	blocks := 0
	for i < len(data) {
		marker := data[i]
		i++

		switch marker {
		case 0x3c:
			if i+3 > len(data) {
				return 0, curated.Errorf(TruncatedImage)
			}
			count := int(data[i])
			if count == 0 {
				count = 256
			}
			loadLo := data[i+1]
			loadHi := data[i+2]
			loadAddr := uint16(loadLo) | uint16(loadHi)<<8
			i += 3

			if i+count+1 > len(data) {
				return 0, curated.Errorf(TruncatedImage)
			}

			cksum := loadLo + loadHi
			for j := 0; j < count; j++ {
				cksum += data[i+j]
			}
			if cksum != data[i+count] {
				logger.Logf("system", "checksum error in block at %04x", loadAddr)
			}

			for j := 0; j < count; j++ {
				write(loadAddr+uint16(j), data[i+j])
			}
			i += count + 1
			blocks++

		case 0x78:
			if i+2 > len(data) {
				return 0, curated.Errorf(TruncatedImage)
			}
			exec := uint16(data[i]) | uint16(data[i+1])<<8
			logger.Logf("system", "loaded %q (%d blocks), exec %04x", name, blocks, exec)
			return exec, nil

		default:
			return 0, curated.Errorf(BadBlockMarker, marker, i-1)
		}
	}

	return 0, curated.Errorf(NoExecAddress)
}
