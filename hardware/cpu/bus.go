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

package cpu

// Bus is the memory and IO interface the CPU requires. The m1 argument to
// Read() is true for opcode fetches only; the bus uses it to apply video
// contention.
type Bus interface {
	Read(addr uint16, m1 bool) uint8
	Write(addr uint16, v uint8)
	ReadPort(port uint8) uint8
	WritePort(port uint8, v uint8)
}
