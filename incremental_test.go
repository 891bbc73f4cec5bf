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
	"os"
	"path/filepath"
	"testing"
)

func appendUpdate(t *testing.T, base []byte, opt *WriterOptions, edit func(w *Writer)) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	w, err := NewIncrementalWriter(bytes.NewReader(base), int64(len(base)), buf, opt)
	if err != nil {
		t.Fatal(err)
	}
	edit(w)
	err = w.Close()
	if err != nil {
		t.Fatal(err)
	}
	return append(bytes.Clone(base), buf.Bytes()...)
}

func TestIncrementalUpdate(t *testing.T) {
	for _, v := range writerVariants {
		t.Run(v.name, func(t *testing.T) {
			base, d := writeTestFile(t, v.opt)
			r0 := openTestFile(t, base)

			newFont := Dict{
				{"Type", Name("Font")},
				{"Subtype", Name("Type1")},
				{"BaseFont", Name("Courier")},
			}
			var extra Reference
			full := appendUpdate(t, base, nil, func(w *Writer) {
				// objects of the base file are visible
				old, err := GetDict(w, d.font)
				if err != nil || old.Get("BaseFont") != Name("Helvetica") {
					t.Errorf("old font: %v, %v", old, err)
				}
				w.Put(d.font, newFont)
				extra = w.Alloc()
				w.Put(extra, String("appended"))
				cat := d.objects[d.catalog].(Dict).Clone()
				cat.Set("Extra", extra)
				w.Put(d.catalog, cat)
			})

			if !bytes.Equal(full[:len(base)], base) {
				t.Fatal("incremental update modified the existing bytes")
			}
			if extra.Number() <= d.info.Number() {
				t.Errorf("new object %s reuses an old number", extra)
			}

			r := openTestFile(t, full)
			font, err := GetDict(r, d.font)
			if err != nil {
				t.Fatal(err)
			}
			if !Equal(font, newFont) {
				t.Errorf("old version of the font returned: %s", Format(font))
			}
			obj, err := r.Get(extra)
			if err != nil || !Equal(obj, String("appended")) {
				t.Errorf("new object: %v, %v", obj, err)
			}
			for _, ref := range []Reference{d.pages, d.page, d.info} {
				obj, err := r.Get(ref)
				if err != nil || !Equal(obj, d.objects[ref]) {
					t.Errorf("%s changed: %v, %v", ref, obj, err)
				}
			}

			chain := r.XRefChain()
			if len(chain) != 2 || chain[1] != r0.StartXRef() {
				t.Errorf("xref chain %v, base index at %d", chain, r0.StartXRef())
			}
			if prev, _ := r.Trailer().Get("Prev").(Integer); int64(prev) != r0.StartXRef() {
				t.Errorf("/Prev = %d", prev)
			}
			if !bytes.Equal(r.ID()[0], r0.ID()[0]) {
				t.Error("first part of the file identifier changed")
			}
			if bytes.Equal(r.ID()[1], r0.ID()[1]) {
				t.Error("second part of the file identifier not updated")
			}
			if r.HasXRefStream() != r0.HasXRefStream() {
				t.Error("index format changed")
			}

			layout, err := ScanLayout(bytes.NewReader(full), int64(len(full)))
			if err != nil {
				t.Fatal(err)
			}
			if len(layout.Sections) != 2 {
				t.Errorf("%d sections", len(layout.Sections))
			}
		})
	}
}

func TestIncrementalTwice(t *testing.T) {
	base, d := writeTestFile(t, nil)
	v1 := appendUpdate(t, base, nil, func(w *Writer) {
		w.Put(d.info, Dict{{"Title", TextString("Version 1")}})
	})
	v2 := appendUpdate(t, v1, nil, func(w *Writer) {
		w.Put(d.info, Dict{{"Title", TextString("Version 2")}})
	})

	r := openTestFile(t, v2)
	info, err := r.DocumentInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.Title != "Version 2" {
		t.Errorf("title %q", info.Title)
	}
	if n := len(r.XRefChain()); n != 3 {
		t.Errorf("chain of length %d", n)
	}
}

func TestIncrementalFree(t *testing.T) {
	base, d := writeTestFile(t, nil)
	full := appendUpdate(t, base, nil, func(w *Writer) {
		page := d.objects[d.page].(Dict).Clone()
		page.Delete("Contents")
		w.Put(d.page, page)
		err := w.Free(d.content)
		if err != nil {
			t.Fatal(err)
		}
	})

	r := openTestFile(t, full)
	obj, err := r.Get(d.content)
	if obj != nil || err != nil {
		t.Errorf("freed object: %v, %v", obj, err)
	}
	info, _ := r.Entry(d.content.Number())
	if info.Kind != EntryFree {
		t.Errorf("entry %+v", info)
	}
}

func TestIncrementalUnresolved(t *testing.T) {
	base, d := writeTestFile(t, nil)
	buf := &bytes.Buffer{}
	w, err := NewIncrementalWriter(bytes.NewReader(base), int64(len(base)), buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	missing := w.Alloc()
	w.Put(d.catalog, Dict{{"Type", Name("Catalog")}, {"Pages", d.pages}, {"X", missing}})
	err = w.Flush()
	if err == nil {
		t.Error("dangling reference not detected")
	}
	if buf.Len() != 0 {
		t.Error("data written by failed flush")
	}
}

func TestAppendFile(t *testing.T) {
	base, d := writeTestFile(t, nil)
	fname := filepath.Join(t.TempDir(), "doc.pdf")
	err := os.WriteFile(fname, base, 0o644)
	if err != nil {
		t.Fatal(err)
	}

	w, err := AppendFile(fname, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Put(d.info, Dict{{"Title", TextString("Appended")}})
	err = w.Close()
	if err != nil {
		t.Fatal(err)
	}

	full, err := os.ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	if len(full) <= len(base) || !bytes.Equal(full[:len(base)], base) {
		t.Fatal("existing bytes were modified")
	}

	r, err := Open(fname, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	info, err := r.DocumentInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.Title != "Appended" {
		t.Errorf("title %q", info.Title)
	}
}
