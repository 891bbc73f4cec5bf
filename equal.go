// texpdf - a library for reading and writing PDF files
// Copyright (C) 2026  The texpdf Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pdf

import "bytes"

// Equal reports whether two objects are structurally equal.
//
// Dictionaries are compared without regard to the order of their entries,
// and entries with null values are ignored.  The /Length entry of stream
// dictionaries is ignored, since it is determined by the stream data.
// References are compared by value, the referenced objects are not
// considered.
func Equal(a, b Object) bool {
	switch a := a.(type) {
	case nil:
		return b == nil
	case Dict:
		b, ok := b.(Dict)
		return ok && dictEqual(a, b, "")
	case Array:
		b, ok := b.(Array)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !Equal(a[i], b[i]) {
				return false
			}
		}
		return true
	case *Stream:
		b, ok := b.(*Stream)
		if !ok || (a == nil) != (b == nil) {
			return false
		}
		if a == nil {
			return true
		}
		return bytes.Equal(a.Data, b.Data) && dictEqual(a.Dict, b.Dict, "Length")
	case String:
		b, ok := b.(String)
		return ok && bytes.Equal(a, b)
	default:
		return a == b
	}
}

func dictEqual(a, b Dict, ignore Name) bool {
	n := 0
	for _, e := range a {
		if e.Value == nil || e.Key == ignore {
			continue
		}
		n++
		if !Equal(e.Value, b.Get(e.Key)) {
			return false
		}
	}
	for _, e := range b {
		if e.Value != nil && e.Key != ignore {
			n--
		}
	}
	return n == 0
}
