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

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSubsections(t *testing.T) {
	cases := []struct {
		in   []uint32
		want [][2]uint32
	}{
		{nil, nil},
		{[]uint32{0}, [][2]uint32{{0, 1}}},
		{[]uint32{0, 1, 2, 3}, [][2]uint32{{0, 4}}},
		{[]uint32{2, 7, 8}, [][2]uint32{{2, 1}, {7, 2}}},
		{[]uint32{0, 2, 4}, [][2]uint32{{0, 1}, {2, 1}, {4, 1}}},
	}
	for _, c := range cases {
		got := subsections(c.in)
		if d := cmp.Diff(c.want, got); d != "" {
			t.Errorf("%v (-want +got):\n%s", c.in, d)
		}
	}
}

func TestXRefStreamFormat(t *testing.T) {
	entries := map[uint32]xrefEntry{
		3:  {Kind: EntryFree, Generation: 2},
		4:  {Kind: EntryInUse, Pos: 70000},
		5:  {Kind: EntryCompressed, Container: 4, Index: 7},
		10: {Kind: EntryInUse, Pos: 70100},
	}
	stm, err := makeXRefStream(entries, Dict{{"Size", Integer(11)}})
	if err != nil {
		t.Fatal(err)
	}

	// offsets up to 70100 need three bytes
	if d := cmp.Diff(Array{Integer(1), Integer(3), Integer(1)}, stm.Dict.Get("W")); d != "" {
		t.Errorf("/W (-want +got):\n%s", d)
	}
	if d := cmp.Diff(Array{Integer(3), Integer(3), Integer(10), Integer(1)}, stm.Dict.Get("Index")); d != "" {
		t.Errorf("/Index (-want +got):\n%s", d)
	}

	data, err := DecodeStream(nil, stm)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0, 0, 0, 0, 2, // free, end of the list
		1, 1, 0x11, 0x70, 0,
		2, 0, 0, 4, 7,
		1, 1, 0x11, 0xd4, 0,
	}
	if !bytes.Equal(data, want) {
		t.Errorf("wrong xref stream data:\n%v\n%v", data, want)
	}
}

func TestXRefStreamRead(t *testing.T) {
	data, d := writeTestFile(t, &WriterOptions{XRefStream: true})
	r := openTestFile(t, data)

	if !r.HasXRefStream() {
		t.Fatal("no xref stream found")
	}
	if r.Trailer().Get("Type") != Name("XRef") {
		t.Errorf("trailer %s", Format(r.Trailer()))
	}
	for ref := range d.objects {
		info, ok := r.Entry(ref.Number())
		if !ok || info.Kind != EntryInUse || info.Offset <= 0 {
			t.Errorf("%s: %+v", ref, info)
		}
	}
}
