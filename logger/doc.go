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

// Package logger is the central log for the emulator. Entries are tagged
// with the originating subsystem and stored in a bounded list. Repeated
// entries are folded into a repeat counter rather than appended, so
// per-instruction diagnostics from the emulation core cannot flood the log.
//
// The log can be echoed to an io.Writer as it happens (SetEcho) or drained
// at the end of the session (Write, Tail).
package logger
