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

// Package hardware assembles the TRS-80 Model I from its parts and drives
// it a frame at a time.
//
// Everything is single threaded and cooperative: the frame driver in
// StepFrame() is the sole scheduler, and the CPU, bus, cassette deck, disk
// controller, trap layer and debugger only advance when it calls them. The
// per-step order of effects is fixed: trap probe, debugger record and
// freeze check, CPU step, bus tick accounting, audio sample, interrupt
// acceptance, cassette polling. Interrupt acceptance always lands after
// the instruction during which the frame boundary was crossed, never in
// the middle of one.
package hardware
