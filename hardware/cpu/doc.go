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

// Package cpu emulates the Zilog Z80 as fitted to the TRS-80 Model I.
//
// The complete official instruction set is implemented, along with the
// undocumented instructions and undocumented flag behaviour (SLL, the
// IXH/IXL/IYH/IYL half-registers, the DDCB/FDCB register copy side-effect,
// bits 3 and 5 of the flag register) required to pass the ZEXALL test
// program.
//
// Step() executes one instruction and returns the number of T-states it
// consumed, per the documented Z80 timing tables. Prefix bytes (CB, ED, DD,
// FD) are modelled as instructions in their own right: encountering one
// latches the prefix and consumes the four T-states of the fetch; the next
// call to Step() decodes from the corresponding table. The refresh register
// R is incremented on every M1 fetch, including prefix fetches and the NOP
// fetches of the halted state.
//
// The CPU is passive. It knows nothing about interrupts arriving from the
// outside world beyond the state of its IFF flip-flops; interrupt
// acceptance is performed by the frame driver in the hardware package using
// the register accessors.
package cpu
