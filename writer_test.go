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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testDoc is a small document used by the tests in this package.
type testDoc struct {
	catalog, pages, page, content, font, info Reference
	objects                                   map[Reference]Object
}

func writeTestDoc(t *testing.T, w *Writer) *testDoc {
	t.Helper()

	d := &testDoc{
		catalog: w.Alloc(),
		pages:   w.Alloc(),
		page:    w.Alloc(),
		content: w.Alloc(),
		font:    w.Alloc(),
		info:    w.Alloc(),
	}
	d.objects = map[Reference]Object{
		d.catalog: Dict{{"Type", Name("Catalog")}, {"Pages", d.pages}},
		d.pages: Dict{
			{"Type", Name("Pages")},
			{"Kids", Array{d.page}},
			{"Count", Integer(1)},
		},
		d.page: Dict{
			{"Type", Name("Page")},
			{"Parent", d.pages},
			{"MediaBox", Array{Integer(0), Integer(0), Integer(595), Integer(842)}},
			{"Resources", Dict{{"Font", Dict{{"F1", d.font}}}}},
			{"Contents", d.content},
		},
		d.font: Dict{
			{"Type", Name("Font")},
			{"Subtype", Name("Type1")},
			{"BaseFont", Name("Helvetica")},
		},
		d.info: Dict{
			{"Title", TextString("Test Document")},
			{"Producer", String("texpdf")},
		},
	}
	stm, err := NewStream(nil, []byte("BT /F1 12 Tf 72 720 Td (Hello) Tj ET\n"), FilterFlate{})
	if err != nil {
		t.Fatal(err)
	}
	d.objects[d.content] = stm

	for ref, obj := range d.objects {
		err := w.Put(ref, obj)
		if err != nil {
			t.Fatal(err)
		}
	}
	w.SetRoot(d.catalog)
	w.SetInfo(d.info)
	return d
}

func writeTestFile(t *testing.T, opt *WriterOptions) ([]byte, *testDoc) {
	t.Helper()
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, opt)
	if err != nil {
		t.Fatal(err)
	}
	d := writeTestDoc(t, w)
	err = w.Close()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes(), d
}

func openTestFile(t *testing.T, data []byte) *Reader {
	t.Helper()
	r, err := NewReader(bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

var writerVariants = []struct {
	name string
	opt  *WriterOptions
}{
	{"table", nil},
	{"table-1.4", &WriterOptions{Version: V1_4}},
	{"xref-stream", &WriterOptions{XRefStream: true}},
	{"object-streams", &WriterOptions{ObjectStreams: true}},
}

func TestRoundTrip(t *testing.T) {
	for _, v := range writerVariants {
		t.Run(v.name, func(t *testing.T) {
			data, d := writeTestFile(t, v.opt)
			r := openTestFile(t, data)

			if r.Root() != d.catalog {
				t.Errorf("root = %s, want %s", r.Root(), d.catalog)
			}
			if r.Info() != d.info {
				t.Errorf("info = %s, want %s", r.Info(), d.info)
			}
			for ref, want := range d.objects {
				got, err := r.Get(ref)
				if err != nil {
					t.Errorf("%s: %v", ref, err)
					continue
				}
				if !Equal(got, want) {
					t.Errorf("%s: got %s, want %s", ref, Format(got), Format(want))
				}
			}

			info, err := r.DocumentInfo()
			if err != nil {
				t.Fatal(err)
			}
			if info.Title != "Test Document" {
				t.Errorf("title = %q", info.Title)
			}
			if len(r.ID()) != 2 || len(r.ID()[0]) != 16 {
				t.Errorf("ID = %x", r.ID())
			}
		})
	}
}

func TestUniqueness(t *testing.T) {
	for _, v := range writerVariants {
		t.Run(v.name, func(t *testing.T) {
			data, _ := writeTestFile(t, v.opt)
			r := openTestFile(t, data)

			var maxNum uint32
			for _, ref := range r.Objects() {
				maxNum = max(maxNum, ref.Number())
			}
			size, _ := r.Trailer().Get("Size").(Integer)
			if int64(size) != int64(maxNum)+1 {
				t.Errorf("/Size %d, largest object number %d", size, maxNum)
			}

			layout, err := ScanLayout(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				t.Fatal(err)
			}
			if len(layout.Sections) != 1 {
				t.Fatalf("%d sections", len(layout.Sections))
			}
			seen := make(map[uint32]bool)
			var prev int64 = -1
			for _, obj := range layout.Sections[0].Objects {
				if seen[obj.Number] {
					t.Errorf("object %d written twice", obj.Number)
				}
				seen[obj.Number] = true
				if obj.Broken {
					t.Errorf("object %d is broken", obj.Number)
				}
				if int64(obj.Number) <= prev {
					t.Errorf("object %d written after %d", obj.Number, prev)
				}
				prev = int64(obj.Number)
			}
		})
	}
}

func TestXRefTableFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, &WriterOptions{ID: [][]byte{[]byte("a"), []byte("b")}})
	if err != nil {
		t.Fatal(err)
	}
	root := w.Alloc()
	unused := w.Alloc()
	w.Put(root, Dict{{"Type", Name("Catalog")}})
	w.SetRoot(root)
	err = w.Flush()
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "%PDF-1.7\n") {
		t.Errorf("wrong header %q", out[:10])
	}
	objPos := strings.Index(out, "1 0 obj\n")
	xrefPos := strings.Index(out, "xref\n")
	wantXRef := fmt.Sprintf("xref\n0 3\n0000000002 65535 f\r\n%010d 00000 n\r\n0000000000 00000 f\r\n",
		objPos)
	if !strings.HasPrefix(out[xrefPos:], wantXRef) {
		t.Errorf("unexpected xref table:\n%q", out[xrefPos:])
	}
	wantTail := "trailer\n<<\n/Size 3\n/Root 1 0 R\n/ID [(a) (b)]\n>>\n" +
		fmt.Sprintf("startxref\n%d\n%%%%EOF\n", xrefPos)
	if !strings.HasSuffix(out, wantTail) {
		t.Errorf("unexpected tail:\n%q", out[xrefPos:])
	}
	if w.Status(unused) != StatusUndefined {
		t.Errorf("status of unused object: %s", w.Status(unused))
	}
}

func TestUnresolvedReference(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	root := w.Alloc()
	pages := w.Alloc()
	missing := w.Alloc()
	w.Put(root, Dict{{"Type", Name("Catalog")}, {"Pages", pages}})
	w.Put(pages, Dict{{"Kids", Array{missing}}})
	w.SetRoot(root)

	err = w.Flush()
	if !errors.Is(err, ErrUnresolvedReference) {
		t.Fatalf("expected ErrUnresolvedReference, got %v", err)
	}
	var unres *UnresolvedReferenceError
	if !errors.As(err, &unres) || unres.From != pages || unres.To != missing {
		t.Errorf("wrong error: %v", err)
	}
	if buf.Len() != 0 {
		t.Error("data written by failed flush")
	}
	if w.State() != StateBuilding {
		t.Errorf("state after failed flush: %s", w.State())
	}

	// references to numbers which were never allocated are caught as well
	w.Put(missing, NewReference(100, 0))
	err = w.Flush()
	if !errors.Is(err, ErrUnresolvedReference) {
		t.Fatalf("expected ErrUnresolvedReference, got %v", err)
	}

	w.Put(missing, Dict{{"Type", Name("Page")}})
	err = w.Flush()
	if err != nil {
		t.Fatal(err)
	}
	if w.State() != StateClosed {
		t.Errorf("state after flush: %s", w.State())
	}
}

func TestWriterClosed(t *testing.T) {
	w, err := NewWriter(&bytes.Buffer{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	root := w.Alloc()
	w.Put(root, Dict{{"Type", Name("Catalog")}})
	w.SetRoot(root)
	err = w.Flush()
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Put(root, Dict{}); !errors.Is(err, ErrWriterClosed) {
		t.Errorf("Put: %v", err)
	}
	if err := w.Free(root); !errors.Is(err, ErrWriterClosed) {
		t.Errorf("Free: %v", err)
	}
	if _, err := w.OpenStream(root, nil); !errors.Is(err, ErrWriterClosed) {
		t.Errorf("OpenStream: %v", err)
	}
	if err := w.SetRoot(root); !errors.Is(err, ErrWriterClosed) {
		t.Errorf("SetRoot: %v", err)
	}
	if err := w.Flush(); !errors.Is(err, ErrWriterClosed) {
		t.Errorf("Flush: %v", err)
	}
	if ref := w.Alloc(); ref != 0 {
		t.Errorf("Alloc after flush gave %s", ref)
	}

	// the written objects can still be read
	obj, err := w.Get(root)
	if err != nil || obj == nil {
		t.Errorf("Get after flush: %v, %v", obj, err)
	}
}

func TestMissingRoot(t *testing.T) {
	w, err := NewWriter(&bytes.Buffer{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = w.Flush()
	if err == nil {
		t.Error("file without catalog written")
	}
}

func TestWriterOptions(t *testing.T) {
	_, err := NewWriter(&bytes.Buffer{}, &WriterOptions{Version: V1_4, XRefStream: true})
	if err == nil {
		t.Error("xref stream accepted for PDF 1.4")
	}
	_, err = NewWriter(&bytes.Buffer{}, &WriterOptions{ID: [][]byte{[]byte("x")}})
	if err == nil {
		t.Error("invalid ID accepted")
	}
}

func TestOpenStream(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, &WriterOptions{Compress: true})
	if err != nil {
		t.Fatal(err)
	}
	root := w.Alloc()
	ref := w.Alloc()
	stm, err := w.OpenStream(ref, Dict{{"Type", Name("Metadata")}})
	if err != nil {
		t.Fatal(err)
	}
	payload := strings.Repeat("compressible text ", 1000)
	_, err = stm.Write([]byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	err = stm.Close()
	if err != nil {
		t.Fatal(err)
	}
	w.Put(root, Dict{{"Type", Name("Catalog")}, {"Metadata", ref}})
	w.SetRoot(root)
	err = w.Close()
	if err != nil {
		t.Fatal(err)
	}
	if buf.Len() > len(payload)/2 {
		t.Errorf("stream was not compressed, %d bytes", buf.Len())
	}

	r := openTestFile(t, buf.Bytes())
	data, err := r.ReadStream(ref)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != payload {
		t.Error("wrong stream data")
	}
}

func TestFreeObject(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	root := w.Alloc()
	tmp := w.Alloc()
	last := w.Alloc()
	w.Put(tmp, Integer(1))
	w.Put(last, Integer(2))
	w.Put(root, Dict{{"Type", Name("Catalog")}, {"X", tmp}, {"Y", last}})
	w.SetRoot(root)
	err = w.Free(tmp)
	if err != nil {
		t.Fatal(err)
	}

	// The catalog still refers to the freed object.
	err = w.Flush()
	if !errors.Is(err, ErrUnresolvedReference) {
		t.Fatalf("flush with reference to freed object: %v", err)
	}
	if w.State() != StateBuilding || buf.Len() != 0 {
		t.Fatalf("failed flush changed the writer: %s, %d bytes", w.State(), buf.Len())
	}

	w.Put(root, Dict{{"Type", Name("Catalog")}, {"Y", last}})
	err = w.Close()
	if err != nil {
		t.Fatal(err)
	}

	r := openTestFile(t, buf.Bytes())
	obj, err := r.Get(tmp)
	if err != nil || obj != nil {
		t.Errorf("freed object: %v, %v", obj, err)
	}
	obj, _ = r.Get(last)
	if obj != Integer(2) {
		t.Errorf("object after free slot: %v", obj)
	}
	info, _ := r.Entry(tmp.Number())
	if info.Kind != EntryFree || info.Generation != 1 {
		t.Errorf("free entry %+v", info)
	}
}

func TestCreateFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "test.pdf")
	w, err := Create(fname, nil)
	if err != nil {
		t.Fatal(err)
	}
	d := writeTestDoc(t, w)
	err = w.Close()
	if err != nil {
		t.Fatal(err)
	}

	r, err := Open(fname, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	catalog, err := r.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	if catalog.Pages != d.pages {
		t.Errorf("pages = %s", catalog.Pages)
	}

	_, err = Open(filepath.Join(t.TempDir(), "missing.pdf"), nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestFontScenario(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	catalog := w.Alloc()
	pages := w.Alloc()
	page := w.Alloc()
	content := w.Alloc()
	font := w.Alloc()
	image := w.Alloc()
	if font.Number() != 5 {
		t.Fatalf("font allocated as %s", font)
	}

	fontDict := Dict{
		{"Type", Name("Font")},
		{"Subtype", Name("Type1")},
		{"BaseFont", Name("Times-Roman")},
		{"Encoding", Name("WinAnsiEncoding")},
	}
	w.Put(font, fontDict)

	pixels := make([]byte, 200)
	for i := range pixels {
		pixels[i] = byte(i * 3)
	}
	img, err := NewStream(Dict{
		{"Type", Name("XObject")},
		{"Subtype", Name("Image")},
		{"Width", Integer(10)},
		{"Height", Integer(20)},
		{"ColorSpace", Name("DeviceGray")},
		{"BitsPerComponent", Integer(8)},
	}, pixels, FilterFlate{})
	if err != nil {
		t.Fatal(err)
	}
	w.Put(image, img)

	cs, err := w.OpenStream(content, nil, FilterFlate{})
	if err != nil {
		t.Fatal(err)
	}
	fmt.Fprint(cs, "q 10 0 0 20 100 100 cm /Im1 Do Q BT /F1 12 Tf (x) Tj ET")
	cs.Close()

	w.Put(page, Dict{
		{"Type", Name("Page")},
		{"Parent", pages},
		{"MediaBox", Array{Integer(0), Integer(0), Integer(200), Integer(200)}},
		{"Resources", Dict{
			{"Font", Dict{{"F1", font}}},
			{"XObject", Dict{{"Im1", image}}},
		}},
		{"Contents", content},
	})
	w.Put(pages, Dict{{"Type", Name("Pages")}, {"Kids", Array{page}}, {"Count", Integer(1)}})
	w.Put(catalog, Dict{{"Type", Name("Catalog")}, {"Pages", pages}})
	w.SetRoot(catalog)
	err = w.Close()
	if err != nil {
		t.Fatal(err)
	}

	r := openTestFile(t, buf.Bytes())
	obj, err := r.ExtractTree(NewReference(5, 0))
	if err != nil {
		t.Fatal(err)
	}
	got, ok := obj.(Dict)
	if !ok {
		t.Fatalf("object 5 is %T", obj)
	}
	if d := cmp.Diff(fontDict, got); d != "" {
		t.Errorf("font dictionary (-want +got):\n%s", d)
	}

	data, err := r.ReadStream(image)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, pixels) {
		t.Error("wrong image data")
	}
}

func TestNestedStream(t *testing.T) {
	for _, objStm := range []bool{false, true} {
		buf := &bytes.Buffer{}
		w, err := NewWriter(buf, &WriterOptions{ObjectStreams: objStm})
		if err != nil {
			t.Fatal(err)
		}
		root := w.Alloc()
		inline := &Stream{Dict: Dict{{"Type", Name("Metadata")}}, Data: []byte("abc")}

		bad := []Object{
			Dict{{"Type", Name("Catalog")}, {"Embedded", inline}},
			Dict{{"Type", Name("Catalog")}, {"A", Array{Integer(1), Dict{{"S", inline}}}}},
			Array{inline},
			&Stream{Dict: Dict{{"Sub", inline}}, Data: []byte("x")},
		}
		for i, obj := range bad {
			err = w.Put(root, obj)
			if !errors.Is(err, errDirectStream) {
				t.Errorf("object streams %t, case %d: Put gave %v", objStm, i, err)
			}
			if w.Status(root) != StatusUndefined {
				t.Errorf("object streams %t, case %d: rejected value was stored", objStm, i)
			}
		}

		// The stream itself is fine as an indirect object.
		stmRef := w.Alloc()
		err = w.Put(stmRef, inline)
		if err != nil {
			t.Fatal(err)
		}
		err = w.Put(root, Dict{{"Type", Name("Catalog")}, {"Embedded", stmRef}})
		if err != nil {
			t.Fatal(err)
		}
		w.SetRoot(root)
		err = w.Close()
		if err != nil {
			t.Fatal(err)
		}

		r := openTestFile(t, buf.Bytes())
		cat, err := GetDict(r, root)
		if err != nil {
			t.Fatal(err)
		}
		data, err := r.ReadStream(cat.Get("Embedded"))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "abc" {
			t.Errorf("object streams %t: stream data %q", objStm, data)
		}
	}
}

func TestWrongGeneration(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	root := w.Alloc()
	x := w.Alloc()
	w.Put(x, Integer(1))
	stale := NewReference(x.Number(), 7)
	w.Put(root, Dict{{"Type", Name("Catalog")}, {"X", stale}})
	w.SetRoot(root)

	err = w.Flush()
	var unresolved *UnresolvedReferenceError
	if !errors.As(err, &unresolved) {
		t.Fatalf("flush gave %v", err)
	}
	if unresolved.To != stale {
		t.Errorf("unresolved reference %s, want %s", unresolved.To, stale)
	}
	if !errors.Is(err, ErrUnresolvedReference) {
		t.Errorf("error %v does not match ErrUnresolvedReference", err)
	}
	if buf.Len() != 0 {
		t.Errorf("%d bytes written by failed flush", buf.Len())
	}
}
