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
	"io"
	"regexp"
	"strconv"
)

// FileLayout describes the physical structure of a PDF file.
type FileLayout struct {
	HeaderPos     int64
	HeaderVersion string
	Size          int64

	// Sections lists the parts of the file, each ending with "%%EOF".
	// Every incremental update adds a section.
	Sections []*FileSection
}

// FileSection is one part of a PDF file, consisting of indirect objects
// followed by a cross-reference index and a trailer.  Positions are -1 if
// the corresponding keyword was not found.
type FileSection struct {
	Objects      []*FileObject
	XRefPos      int64
	TrailerPos   int64
	StartXRefPos int64
	EOFPos       int64
}

// FileObject records the location of an indirect object in a file.
type FileObject struct {
	Pos        int64
	End        int64
	Number     uint32
	Generation uint16
	Broken     bool
	Type       string
	SubType    Name
}

// ScanLayout reads a PDF file sequentially and records where the indirect
// objects and the index structures are located.  The cross-reference index
// is not used, so this also works for damaged files.  The whole file is
// read into memory.
func ScanLayout(r io.ReaderAt, size int64) (*FileLayout, error) {
	data := make([]byte, size)
	n, err := r.ReadAt(data, 0)
	if err != nil && err != io.EOF {
		return nil, err
	}
	data = data[:n]

	m := startRegexp.FindSubmatchIndex(data)
	if m == nil {
		return nil, &MalformedFileError{Err: ErrBadSignature}
	}
	layout := &FileLayout{
		HeaderPos:     int64(m[0]),
		HeaderVersion: string(data[m[2]:m[3]]),
		Size:          int64(n),
	}

	newSection := func() *FileSection {
		return &FileSection{XRefPos: -1, TrailerPos: -1, StartXRefPos: -1, EOFPos: -1}
	}
	section := newSection()
	used := false
	inTrailer := false
	finish := func() {
		if used {
			layout.Sections = append(layout.Sections, section)
		}
		section = newSection()
		used = false
		inTrailer = false
	}

	for _, m := range markerRegexp.FindAllSubmatchIndex(data, -1) {
		pos := int64(m[2])
		switch {
		case m[4] >= 0:
			num, err := strconv.ParseUint(string(data[m[4]:m[5]]), 10, 32)
			if err != nil {
				continue
			}
			gen, err := strconv.ParseUint(string(data[m[6]:m[7]]), 10, 16)
			if err != nil {
				continue
			}
			if inTrailer {
				finish()
			}
			section.Objects = append(section.Objects, &FileObject{
				Pos:        pos,
				Number:     uint32(num),
				Generation: uint16(gen),
			})
			used = true
		default:
			switch string(data[m[2]:m[3]]) {
			case "xref":
				section.XRefPos = pos
			case "trailer":
				section.TrailerPos = pos
			case "startxref":
				section.StartXRefPos = pos
			case "%%EOF":
				section.EOFPos = pos
				used = true
				finish()
				continue
			}
			inTrailer = true
			used = true
		}
	}
	finish()

	for _, section := range layout.Sections {
		for _, obj := range section.Objects {
			checkObject(r, int64(n), obj)
		}
	}
	return layout, nil
}

func checkObject(r io.ReaderAt, size int64, obj *FileObject) {
	s := newScannerAt(r, size, obj.Pos, nil)
	x, ref, err := s.ReadIndirectObject()
	if err != nil || ref != NewReference(obj.Number, obj.Generation) {
		obj.Broken = true
		return
	}
	obj.End = s.filePos()

	switch x := x.(type) {
	case nil:
		obj.Type = "Null"
	case Array:
		obj.Type = "Array"
	case Bool:
		obj.Type = "Bool"
	case Dict:
		obj.Type = "Dict"
		obj.SubType, _ = x.Get("Type").(Name)
	case Integer:
		obj.Type = "Integer"
	case Name:
		obj.Type = "Name"
	case Real:
		obj.Type = "Real"
	case Reference:
		obj.Type = "Reference"
	case *Stream:
		obj.Type = "Stream"
		obj.SubType, _ = x.Dict.Get("Type").(Name)
	case String:
		obj.Type = "String"
	}
}

var (
	startRegexp = regexp.MustCompile(`%PDF-([12]\.[0-9])`)

	whiteSpacePat = `[\000\011\014 ]+`
	objectPat     = `([0-9]+)` + whiteSpacePat + `([0-9]+)` + whiteSpacePat + `obj`
	markerPat     = `(?:^|[\r\n])(` + objectPat + `|xref|trailer|startxref|%%EOF)`
	markerRegexp  = regexp.MustCompile(markerPat)
)
