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

package test

import "testing"

// ExpectEquality is used to test equality between one value and another. If
// the test fails it is a test error but testing continues.
func ExpectEquality[T comparable](t *testing.T, v T, expectedValue T) {
	t.Helper()
	if v != expectedValue {
		t.Errorf("equality test of type %T failed: '%v' does not equal '%v'", v, v, expectedValue)
	}
}

// DemandEquality is used to test equality between one value and another. If
// the test fails it is a test fatality.
func DemandEquality[T comparable](t *testing.T, v T, expectedValue T) {
	t.Helper()
	if v != expectedValue {
		t.Fatalf("equality test of type %T failed: '%v' does not equal '%v'", v, v, expectedValue)
	}
}

// success values for the ExpectSuccess(), ExpectFailure() and
// DemandSuccess() functions:
//
//	bool           true is success
//	error          nil is success
//	nil            success
func expect(v interface{}) (bool, bool) {
	switch v := v.(type) {
	case bool:
		return v, true
	case error:
		return v == nil, true
	case nil:
		return true, true
	}
	return false, false
}

// ExpectSuccess tests argument v for a success value appropriate to its
// type. Unsupported types always record a test error.
func ExpectSuccess(t *testing.T, v interface{}) bool {
	t.Helper()
	ok, supported := expect(v)
	if !supported {
		t.Errorf("unsupported type for ExpectSuccess(): %T", v)
		return false
	}
	if !ok {
		t.Errorf("expected success of type %T: %v", v, v)
	}
	return ok
}

// ExpectFailure tests argument v for a failure value appropriate to its
// type. Unsupported types always record a test error.
func ExpectFailure(t *testing.T, v interface{}) bool {
	t.Helper()
	ok, supported := expect(v)
	if !supported {
		t.Errorf("unsupported type for ExpectFailure(): %T", v)
		return false
	}
	if ok {
		t.Errorf("expected failure of type %T: %v", v, v)
	}
	return !ok
}

// DemandSuccess is the fatal equivalent of ExpectSuccess.
func DemandSuccess(t *testing.T, v interface{}) {
	t.Helper()
	ok, supported := expect(v)
	if !supported {
		t.Fatalf("unsupported type for DemandSuccess(): %T", v)
	}
	if !ok {
		t.Fatalf("demanded success of type %T: %v", v, v)
	}
}
