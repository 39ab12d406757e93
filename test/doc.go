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

// Package test contains helper functions for the testing of Mal-80.
//
// The ExpectEquality() and ExpectFailure()/ExpectSuccess() functions record
// a test error on mismatch; the Demand...() equivalents are fatal and should
// be used when further testing is meaningless after a mismatch (for example,
// testing the length of two slices before iterating over them in unison).
//
// CompareWriter is an implementation of io.Writer that buffers output so it
// can be compared with an expected string.
package test
