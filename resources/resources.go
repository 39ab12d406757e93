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

// Package resources resolves the fixed file tree the emulator works in.
// Everything is relative to the current working directory:
//
//	roms/        system ROM images (roms/level2.rom)
//	software/    cassette images (.cas) and BASIC source files (.bas)
//	trace.log    debugger output
//
// The directory used for the software search can be overridden, which the
// test suites use to point the trap layer at temporary directories.
package resources

import (
	"path/filepath"
)

// the conventional directory names.
const (
	romDir      = "roms"
	softwareDir = "software"
)

// TraceLog is the conventional name for the debugger's dump file.
const TraceLog = "trace.log"

// ROMLevel2 is the BASIC ROM expected at startup.
const ROMLevel2 = "level2.rom"

// ROMPath returns the path of the named file in the ROM directory.
func ROMPath(name string) string {
	return filepath.Join(romDir, name)
}

// SoftwarePath returns the path of the named file in the software directory.
func SoftwarePath(name string) string {
	return filepath.Join(softwareDir, name)
}

// SoftwareDir returns the conventional software directory.
func SoftwareDir() string {
	return softwareDir
}
