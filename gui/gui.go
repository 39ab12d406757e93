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

// Package gui defines the contract between the emulation core and the
// presentation layer. The core knows nothing about windows or host
// keyboards: it exposes video RAM and consumes an 8-byte keyboard matrix,
// and a GUI implementation bridges both to the host.
package gui

// VideoSource is what a GUI renders from: the 1KiB character-cell video
// RAM. The memory bus implements it.
type VideoSource interface {
	VRAMByte(offset uint16) uint8
}

// GUI is the presentation layer driven once per frame by the outer loop.
// All methods must be called from the main thread.
type GUI interface {
	// process pending host events, updating the keyboard matrix in place.
	// returns false when the user has closed the window
	HandleEvents(matrix *[8]uint8) bool

	// draw the character screen
	Render(src VideoSource)

	// update the window title
	SetTitle(title string)

	// release host resources
	Destroy()
}
