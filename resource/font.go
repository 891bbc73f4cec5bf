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
	"errors"
	"fmt"
	"math"

	pstype1 "seehuhn.de/go/postscript/type1"
	"seehuhn.de/go/sfnt"

	"github.com/texpdf/pdf"
)

// Flags represents PDF font descriptor flags.
// See section 9.8.2 of ISO 32000-2:2020.
type Flags uint32

// Possible values for PDF font descriptor flags.
const (
	FlagFixedPitch  Flags = 1 << 0  // All glyphs have the same width.
	FlagSerif       Flags = 1 << 1  // Glyphs have serifs.
	FlagSymbolic    Flags = 1 << 2  // Font contains glyphs outside the standard Latin character set.
	FlagScript      Flags = 1 << 3  // Glyphs resemble cursive handwriting.
	FlagNonsymbolic Flags = 1 << 5  // Font uses the standard Latin character set or a subset of it.
	FlagItalic      Flags = 1 << 6  // Glyphs have dominant vertical strokes that are slanted.
	FlagForceBold   Flags = 1 << 18 // Bold glyphs are painted with extra pixels at small sizes.
)

// The range of character codes for which widths are recorded.
const (
	firstChar = 32
	lastChar  = 126
)

var errUnknownFontFormat = errors.New("unknown font file format")

// EmbedFont embeds a font program as a simple font.  TrueType and OpenType
// fonts (glyf or CFF outlines) are detected by their header, everything
// starting with "%!" or a PFB segment marker is read as a Type 1 font.
//
// Widths are recorded for the printable ASCII range.  TrueType and OpenType
// fonts use WinAnsiEncoding, Type 1 fonts use their built-in encoding.
func EmbedFont(w *pdf.Writer, data []byte, name pdf.Name) (Ref, error) {
	switch {
	case isSfnt(data):
		f, err := sfnt.Read(bytes.NewReader(data))
		if err != nil {
			return Ref{}, fmt.Errorf("font %q: %w", name, err)
		}
		return embedSfnt(w, f, data, name)
	case isType1(data):
		f, err := pstype1.Read(bytes.NewReader(data))
		if err != nil {
			return Ref{}, fmt.Errorf("font %q: %w", name, err)
		}
		return EmbedType1(w, f, name)
	default:
		return Ref{}, fmt.Errorf("font %q: %w", name, errUnknownFontFormat)
	}
}

func isSfnt(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	switch string(data[:4]) {
	case "\x00\x01\x00\x00", "true", "OTTO":
		return true
	}
	return false
}

func isType1(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%!")) ||
		len(data) >= 2 && data[0] == 0x80 && data[1] == 0x01
}

func embedSfnt(w *pdf.Writer, f *sfnt.Font, data []byte, name pdf.Name) (Ref, error) {
	isCFF := f.IsCFF()
	if isCFF && pdf.V1_6 > w.Version() {
		return Ref{}, fmt.Errorf("font %q: OpenType font files require PDF 1.6", name)
	}
	if !isCFF && !f.IsGlyf() {
		return Ref{}, fmt.Errorf("font %q: %w", name, errUnknownFontFormat)
	}

	q := 1000 / float64(f.UnitsPerEm)
	fontName := pdf.Name(f.PostScriptName())

	var widths pdf.Array
	if cmap, err := f.CMapTable.GetBest(); err == nil {
		for c := rune(firstChar); c <= lastChar; c++ {
			gid := cmap.Lookup(c)
			widths = append(widths, number(float64(f.GlyphWidth(gid))*q))
		}
	} else {
		for c := firstChar; c <= lastChar; c++ {
			widths = append(widths, pdf.Integer(0))
		}
	}

	var flags Flags
	if f.IsFixedPitch() {
		flags |= FlagFixedPitch
	}
	if f.IsSerif {
		flags |= FlagSerif
	}
	if f.IsScript {
		flags |= FlagScript
	}
	if f.IsItalic {
		flags |= FlagItalic
	}
	flags |= FlagNonsymbolic

	bbox := f.BBox()
	fontBBox := &rectangle{
		LLx: bbox.LLx.AsFloat(q),
		LLy: bbox.LLy.AsFloat(q),
		URx: bbox.URx.AsFloat(q),
		URy: bbox.URy.AsFloat(q),
	}

	fontRef := w.Alloc()
	fdRef := w.Alloc()
	fileRef := w.Alloc()

	subtype := pdf.Name("TrueType")
	fileKey := pdf.Name("FontFile2")
	var fileStream *pdf.Stream
	var err error
	if isCFF {
		subtype = "Type1"
		fileKey = "FontFile3"
		fileStream, err = pdf.NewStream(pdf.Dict{{"Subtype", pdf.Name("OpenType")}},
			data, pdf.FilterFlate{})
	} else {
		buf := &bytes.Buffer{}
		var length1 int
		length1, err = f.WriteTrueTypePDF(buf)
		if err == nil {
			fileStream, err = pdf.NewStream(pdf.Dict{{"Length1", pdf.Integer(length1)}},
				buf.Bytes(), pdf.FilterFlate{})
		}
	}
	if err != nil {
		return Ref{}, fmt.Errorf("font %q: %w", name, err)
	}

	fontDict := pdf.Dict{
		{"Type", pdf.Name("Font")},
		{"Subtype", subtype},
		{"BaseFont", fontName},
		{"FirstChar", pdf.Integer(firstChar)},
		{"LastChar", pdf.Integer(lastChar)},
		{"Widths", widths},
		{"FontDescriptor", fdRef},
		{"Encoding", pdf.Name("WinAnsiEncoding")},
	}
	fd := pdf.Dict{
		{"Type", pdf.Name("FontDescriptor")},
		{"FontName", fontName},
		{"Flags", pdf.Integer(flags)},
		{"FontBBox", fontBBox.array()},
		{"ItalicAngle", number(f.ItalicAngle)},
		{"Ascent", number(f.Ascent.AsFloat(q))},
		{"Descent", number(f.Descent.AsFloat(q))},
		{"CapHeight", number(f.CapHeight.AsFloat(q))},
		{"StemV", pdf.Integer(0)},
		{fileKey, fileRef},
	}

	err = putAll(w, []pdf.Reference{fontRef, fdRef, fileRef},
		fontDict, fd, fileStream)
	if err != nil {
		return Ref{}, fmt.Errorf("font %q: %w", name, err)
	}
	return Ref{Category: Font, Name: name, Value: fontRef}, nil
}

// EmbedType1 embeds a Type 1 font program, using the built-in encoding
// of the font.
func EmbedType1(w *pdf.Writer, f *pstype1.Font, name pdf.Name) (Ref, error) {
	q := 1000 * f.FontInfo.FontMatrix[0]
	fontName := pdf.Name(f.FontInfo.FontName)

	var widths pdf.Array
	for c := firstChar; c <= lastChar; c++ {
		var wd float64
		if c < len(f.Encoding) {
			if glyphName := f.Encoding[c]; glyphName != "" && glyphName != ".notdef" {
				wd = f.GlyphWidthPDF(glyphName)
			}
		}
		widths = append(widths, number(wd))
	}

	// Fonts without an /Encoding entry use their built-in encoding, and
	// are declared symbolic.
	flags := FlagSymbolic
	if f.FontInfo.IsFixedPitch {
		flags |= FlagFixedPitch
	}
	if f.FontInfo.ItalicAngle != 0 {
		flags |= FlagItalic
	}
	if f.Private != nil && f.Private.ForceBold {
		flags |= FlagForceBold
	}
	var stemV float64
	if f.Private != nil {
		stemV = f.Private.StdVW * q
	}

	bbox := f.BBox()
	fontBBox := &rectangle{
		LLx: bbox.LLx.AsFloat(q),
		LLy: bbox.LLy.AsFloat(q),
		URx: bbox.URx.AsFloat(q),
		URy: bbox.URy.AsFloat(q),
	}

	buf := &bytes.Buffer{}
	l1, l2, err := f.WritePDF(buf)
	if err != nil {
		return Ref{}, fmt.Errorf("font %q: %w", name, err)
	}
	// See section 9.9 of ISO 32000-2:2020.
	fileDict := pdf.Dict{
		{"Length1", pdf.Integer(l1)},
		{"Length2", pdf.Integer(l2)},
		{"Length3", pdf.Integer(0)},
	}
	fileStream, err := pdf.NewStream(fileDict, buf.Bytes(), pdf.FilterFlate{})
	if err != nil {
		return Ref{}, fmt.Errorf("font %q: %w", name, err)
	}

	fontRef := w.Alloc()
	fdRef := w.Alloc()
	fileRef := w.Alloc()

	fontDict := pdf.Dict{
		{"Type", pdf.Name("Font")},
		{"Subtype", pdf.Name("Type1")},
		{"BaseFont", fontName},
		{"FirstChar", pdf.Integer(firstChar)},
		{"LastChar", pdf.Integer(lastChar)},
		{"Widths", widths},
		{"FontDescriptor", fdRef},
	}
	fd := pdf.Dict{
		{"Type", pdf.Name("FontDescriptor")},
		{"FontName", fontName},
		{"Flags", pdf.Integer(flags)},
		{"FontBBox", fontBBox.array()},
		{"ItalicAngle", number(f.FontInfo.ItalicAngle)},
		{"StemV", number(stemV)},
		{"FontFile", fileRef},
	}

	err = putAll(w, []pdf.Reference{fontRef, fdRef, fileRef},
		fontDict, fd, fileStream)
	if err != nil {
		return Ref{}, fmt.Errorf("font %q: %w", name, err)
	}
	return Ref{Category: Font, Name: name, Value: fontRef}, nil
}

type rectangle struct {
	LLx, LLy, URx, URy float64
}

func (r *rectangle) array() pdf.Array {
	return pdf.Array{
		number(r.LLx), number(r.LLy), number(r.URx), number(r.URy),
	}
}

// number returns an Integer if x is integral, and a Real rounded to
// three decimal places otherwise.
func number(x float64) pdf.Object {
	if r := math.Round(x); math.Abs(x-r) < 1e-6 && math.Abs(r) < 1<<53 {
		return pdf.Integer(r)
	}
	return pdf.Real(math.Round(x*1000) / 1000)
}

// putAll stores objs[i] as the value of refs[i].
func putAll(w *pdf.Writer, refs []pdf.Reference, objs ...pdf.Object) error {
	for i, ref := range refs {
		err := w.Put(ref, objs[i])
		if err != nil {
			return err
		}
	}
	return nil
}
