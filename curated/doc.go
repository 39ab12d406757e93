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

// Package curated is a helper package for the plain Go language error type.
//
// Curated errors are created with the Errorf() function. It takes a
// formatting pattern and placeholder values, like fmt.Errorf(), but the
// pattern string also serves as the identity of the error:
//
//	e := curated.Errorf("fdc: drive %d: not ready", drive)
//
//	if curated.Is(e, "fdc: drive %d: not ready") {
//		...
//	}
//
// The Has() function is similar to Is() but checks whether the pattern
// occurs anywhere in the error chain rather than only at the head. IsAny()
// reports whether the error was created by this package at all; an
// 'uncurated' error can be treated as unexpected by the caller.
//
// The Error() function normalises the message chain so that adjacent
// duplicate parts are removed, which means errors can be wrapped freely at
// every level of the call stack without producing stuttering messages.
//
// Sentinel patterns should be stored as const strings, suitably named, next
// to the package that raises them.
package curated
