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
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"seehuhn.de/go/geom/rect"

	"github.com/texpdf/pdf"
	"github.com/texpdf/pdf/document"
)

func writeTestFile(t *testing.T) string {
	t.Helper()
	fname := filepath.Join(t.TempDir(), "test.pdf")
	doc, err := document.Create(fname, &document.Options{
		Info: &pdf.Info{Title: "Inspect Me"},
	})
	if err != nil {
		t.Fatal(err)
	}
	p := doc.BeginPage(rect.Rect{})
	err = p.AppendContent([]byte("0 0 m 100 100 l S\n"))
	if err != nil {
		t.Fatal(err)
	}
	err = p.Close()
	if err != nil {
		t.Fatal(err)
	}
	err = doc.Close()
	if err != nil {
		t.Fatal(err)
	}
	return fname
}

func TestSummary(t *testing.T) {
	fname := writeTestFile(t)
	buf := &bytes.Buffer{}
	err := run(buf, fname, nil, false, false)
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"version: 1.7", "trailer:", "/Root"} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
}

func TestLocate(t *testing.T) {
	fname := writeTestFile(t)

	buf := &bytes.Buffer{}
	err := run(buf, fname, []string{"Pages", "Kids", "0", "Contents"}, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "0 0 m 100 100 l S") {
		t.Errorf("content stream not shown:\n%s", buf.String())
	}

	buf.Reset()
	err = run(buf, fname, []string{"@info", "Title"}, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Inspect Me") {
		t.Errorf("title not shown:\n%s", buf.String())
	}

	for _, bad := range [][]string{
		{"NoSuchKey"},
		{"Pages", "Kids", "7"},
		{"@x"},
		{"Pages", "Count", "0"},
	} {
		err = run(&bytes.Buffer{}, fname, bad, false, false)
		if err == nil {
			t.Errorf("%q: no error", bad)
		}
	}
}

func TestLayoutAndObjects(t *testing.T) {
	fname := writeTestFile(t)

	buf := &bytes.Buffer{}
	err := run(buf, fname, nil, true, false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "header: %PDF-1.7") {
		t.Errorf("unexpected layout output:\n%s", buf.String())
	}

	buf.Reset()
	err = run(buf, fname, nil, false, true)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Catalog dict") && !strings.Contains(buf.String(), "/Catalog") {
		t.Errorf("catalog not listed:\n%s", buf.String())
	}
}

func TestMostlyBinary(t *testing.T) {
	if mostlyBinary([]byte("BT /F1 12 Tf ET\n")) {
		t.Error("text classified as binary")
	}
	if !mostlyBinary(bytes.Repeat([]byte{0, 1, 2, 200}, 10)) {
		t.Error("binary data classified as text")
	}
}
