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

package runlength

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRoundTrip(t *testing.T) {
	testCases := [][]byte{
		{},
		{0},
		{0, 0},
		{0, 0, 0},
		{1, 2, 3, 4, 5},
		{1, 1, 1, 1, 1},
		{0, 1, 2, 3, 0, 0, 0, 0, 4, 5, 6},
		bytes.Repeat([]byte{7}, 128),
		bytes.Repeat([]byte{8}, 129),
		bytes.Repeat([]byte{9}, 2),
		bytes.Repeat([]byte{1, 2}, 200),
	}
	for _, in := range testCases {
		enc := Encode(in)
		if enc[len(enc)-1] != eod {
			t.Errorf("missing end-of-data marker")
		}
		out, err := Decode(enc)
		if err != nil {
			t.Fatal(err)
		}
		if len(in) == 0 && len(out) == 0 {
			continue
		}
		if d := cmp.Diff(in, out); d != "" {
			t.Errorf("round trip failed (-want +got):\n%s", d)
		}
	}
}

func TestEncodeRuns(t *testing.T) {
	got := Encode([]byte{5, 5, 5, 5, 1, 2})
	want := []byte{253, 5, 1, 1, 2, eod}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("unexpected encoding (-want +got):\n%s", d)
	}
}

func TestTruncated(t *testing.T) {
	for _, in := range [][]byte{{3, 1, 2}, {200}} {
		_, err := Decode(in)
		if err == nil {
			t.Errorf("%v: truncated data not detected", in)
		}
	}
}
