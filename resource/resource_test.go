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

package resource

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/texpdf/pdf"
)

func TestResourcesAdd(t *testing.T) {
	res := &Resources{}
	if !res.IsEmpty() {
		t.Error("new resource dictionary is not empty")
	}

	f1 := Ref{Category: Font, Name: "F1", Value: pdf.NewReference(5, 0)}
	im := Ref{Category: XObject, Name: "Im1", Value: pdf.NewReference(7, 0)}
	for _, ref := range []Ref{f1, im, f1} {
		err := res.Add(ref)
		if err != nil {
			t.Fatal(err)
		}
	}

	err := res.Add(Ref{Category: Font, Name: "F1", Value: pdf.NewReference(6, 0)})
	if err == nil {
		t.Error("name clash not detected")
	}
	err = res.Add(Ref{Category: "Fonts", Name: "F2", Value: pdf.NewReference(6, 0)})
	if err == nil {
		t.Error("invalid category not detected")
	}

	got := res.AsDict()
	want := pdf.Dict{
		{"XObject", pdf.Dict{{"Im1", pdf.NewReference(7, 0)}}},
		{"Font", pdf.Dict{{"F1", pdf.NewReference(5, 0)}}},
		{"ProcSet", pdf.Array{pdf.Name("Text"), pdf.Name("ImageB"), pdf.Name("ImageC")}},
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("resource dict (-want +got):\n%s", d)
	}
}

func TestResourcesDecode(t *testing.T) {
	dict := pdf.Dict{
		{"Font", pdf.Dict{
			{"F1", pdf.NewReference(5, 0)},
			{"F2", nil},
		}},
		{"ColorSpace", pdf.Dict{
			{"CS0", pdf.Array{pdf.Name("ICCBased"), pdf.NewReference(9, 0)}},
		}},
		{"Unknown", pdf.Dict{{"X", pdf.Integer(1)}}},
		{"ProcSet", pdf.Array{pdf.Name("PDF"), pdf.Integer(3)}},
	}

	res, err := Decode(nil, dict)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]pdf.Name{"F1"}, res.Names(Font)); d != "" {
		t.Errorf("font names (-want +got):\n%s", d)
	}
	if res.Lookup(ColorSpace, "CS0") == nil {
		t.Error("colour space missing")
	}
	if !res.ProcSet.PDF || res.ProcSet.ImageB {
		t.Errorf("wrong ProcSet %v", res.ProcSet)
	}
}

// newTestWriter returns a writer for an in-memory PDF file.
func newTestWriter(t *testing.T, version pdf.Version) (*pdf.Writer, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	w, err := pdf.NewWriter(buf, &pdf.WriterOptions{Version: version})
	if err != nil {
		t.Fatal(err)
	}
	return w, buf
}

// finish writes a minimal catalog, closes w and opens the result.
func finish(t *testing.T, w *pdf.Writer, buf *bytes.Buffer) *pdf.Reader {
	t.Helper()

	pagesRef := w.Alloc()
	catRef := w.Alloc()
	err := w.Put(pagesRef, pdf.Dict{
		{"Type", pdf.Name("Pages")},
		{"Kids", pdf.Array{}},
		{"Count", pdf.Integer(0)},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = w.Put(catRef, pdf.Dict{{"Type", pdf.Name("Catalog")}, {"Pages", pagesRef}})
	if err != nil {
		t.Fatal(err)
	}
	err = w.SetRoot(catRef)
	if err != nil {
		t.Fatal(err)
	}
	err = w.Close()
	if err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}
