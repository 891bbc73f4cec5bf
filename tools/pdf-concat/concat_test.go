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

package main

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/rect"

	"github.com/texpdf/pdf"
	"github.com/texpdf/pdf/document"
)

// writeGenerated writes a file with n pages, using the document package.
func writeGenerated(t *testing.T, fname string, n int) {
	t.Helper()
	doc, err := document.Create(fname, &document.Options{
		PDF: &pdf.WriterOptions{Version: pdf.V1_4},
	})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		p := doc.BeginPage(rect.Rect{})
		err = p.AppendContent([]byte("% generated\n"))
		if err != nil {
			t.Fatal(err)
		}
		err = p.Close()
		if err != nil {
			t.Fatal(err)
		}
	}
	err = doc.Close()
	if err != nil {
		t.Fatal(err)
	}
}

// writeInherited writes a one-page file where the page inherits its
// /MediaBox and /Resources from the page tree root, and where an
// annotation refers back to the page.
func writeInherited(t *testing.T, fname string) {
	t.Helper()
	w, err := pdf.Create(fname, &pdf.WriterOptions{Version: pdf.V1_6, XRefStream: true})
	if err != nil {
		t.Fatal(err)
	}
	pagesRef := w.Alloc()
	pageRef := w.Alloc()
	annotRef := w.Alloc()
	contentRef := w.Alloc()
	catRef := w.Alloc()

	font := pdf.Dict{
		{"Type", pdf.Name("Font")},
		{"Subtype", pdf.Name("Type1")},
		{"BaseFont", pdf.Name("Helvetica")},
	}
	must(t, w.Put(pagesRef, pdf.Dict{
		{"Type", pdf.Name("Pages")},
		{"Kids", pdf.Array{pageRef}},
		{"Count", pdf.Integer(1)},
		{"MediaBox", pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(300), pdf.Integer(400)}},
		{"Resources", pdf.Dict{{"Font", pdf.Dict{{"F1", font}}}}},
	}))
	must(t, w.Put(pageRef, pdf.Dict{
		{"Type", pdf.Name("Page")},
		{"Parent", pagesRef},
		{"Contents", contentRef},
		{"Annots", pdf.Array{annotRef}},
	}))
	must(t, w.Put(annotRef, pdf.Dict{
		{"Type", pdf.Name("Annot")},
		{"Subtype", pdf.Name("Text")},
		{"Rect", pdf.Array{pdf.Integer(10), pdf.Integer(10), pdf.Integer(30), pdf.Integer(30)}},
		{"P", pageRef},
	}))
	stm, err := w.OpenStream(contentRef, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = stm.Write([]byte("BT /F1 12 Tf (inherited) Tj ET\n"))
	must(t, err)
	must(t, stm.Close())
	must(t, w.Put(catRef, pdf.Dict{{"Type", pdf.Name("Catalog")}, {"Pages", pagesRef}}))
	must(t, w.SetRoot(catRef))
	must(t, w.Close())
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func TestConcat(t *testing.T) {
	dir := t.TempDir()
	in1 := filepath.Join(dir, "in1.pdf")
	in2 := filepath.Join(dir, "in2.pdf")
	out := filepath.Join(dir, "out.pdf")
	writeGenerated(t, in1, 3)
	writeInherited(t, in2)

	opt := &concatOptions{
		Info:   &pdf.Info{Title: "Concatenated"},
		Logger: slog.New(slog.DiscardHandler),
	}
	err := concatFiles(out, []string{in1, in2, in1}, opt)
	if err != nil {
		t.Fatal(err)
	}

	r, err := pdf.Open(out, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if r.Version() != pdf.V1_6 {
		t.Errorf("version %s, want 1.6", r.Version())
	}
	info, err := r.DocumentInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.Title != "Concatenated" {
		t.Errorf("title %q", info.Title)
	}

	cat, err := r.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	var refs []pdf.Reference
	var pages []pdf.Dict
	err = walkPageTree(r, cat.Pages, nil, func(ref pdf.Reference, page pdf.Dict) {
		refs = append(refs, ref)
		pages = append(pages, page)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 7 {
		t.Fatalf("found %d pages, want 7", len(pages))
	}

	page := pages[3]
	box := pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(300), pdf.Integer(400)}
	if d := cmp.Diff(box, page.Get("MediaBox")); d != "" {
		t.Errorf("MediaBox: %s", d)
	}
	res, err := pdf.GetDict(r, page.Get("Resources"))
	if err != nil {
		t.Fatal(err)
	}
	fonts, _ := pdf.GetDict(r, res.Get("Font"))
	if !fonts.Has("F1") {
		t.Error("inherited font resource is missing")
	}
	body, err := r.ReadStream(page.Get("Contents"))
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "BT /F1 12 Tf (inherited) Tj ET\n" {
		t.Errorf("content %q", body)
	}

	annots, _ := pdf.GetArray(r, page.Get("Annots"))
	if len(annots) != 1 {
		t.Fatalf("found %d annotations", len(annots))
	}
	annot, err := pdf.GetDict(r, annots[0])
	if err != nil {
		t.Fatal(err)
	}
	if annot.Get("P") != refs[3] {
		t.Errorf("annotation /P = %v, want %s", annot.Get("P"), refs[3])
	}
}

func TestConcatMissingInput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.pdf")
	opt := &concatOptions{Logger: slog.New(slog.DiscardHandler)}
	err := concatFiles(out, []string{filepath.Join(dir, "missing.pdf")}, opt)
	if err == nil {
		t.Error("missing input file accepted")
	}
}
