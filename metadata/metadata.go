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

// Package metadata reads and writes XMP metadata streams, and keeps them
// consistent with the document information dictionary.
package metadata

import (
	"bytes"
	"errors"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"seehuhn.de/go/xmp"

	"github.com/texpdf/pdf"
)

// Stream represents an XMP metadata stream.
//
// The metadata may either refer to a PDF document as a whole, or to
// individual objects within the document.
type Stream struct {
	Data *xmp.Packet
}

// xmpBasic is the XMP basic namespace.
type xmpBasic struct {
	_           xmp.Namespace `xmp:"http://ns.adobe.com/xap/1.0/"`
	_           xmp.Prefix    `xmp:"xmp"`
	CreateDate  xmp.Date
	ModifyDate  xmp.Date
	CreatorTool xmp.AgentName
}

// xmpPDF is the XMP namespace for PDF metadata.
// See https://developer.adobe.com/xmp/docs/XMPNamespaces/pdf/
type xmpPDF struct {
	_          xmp.Namespace `xmp:"http://ns.adobe.com/pdf/1.3/"`
	_          xmp.Prefix    `xmp:"pdf"`
	Keywords   xmp.Text
	PDFVersion xmp.Text
	Producer   xmp.AgentName
}

var errVersion = errors.New("XMP metadata requires PDF 1.4 or newer")

// FromInfo creates an XMP packet with the same content as a document
// information dictionary.
func FromInfo(info *pdf.Info, version pdf.Version) (*Stream, error) {
	dc := &xmp.DublinCore{}
	if info.Title != "" {
		dc.Title.Set(language.Und, info.Title)
	}
	if info.Author != "" {
		for _, name := range strings.Split(info.Author, ";") {
			if name = strings.TrimSpace(name); name != "" {
				dc.Creator.Append(xmp.NewProperName(name))
			}
		}
	}
	if info.Subject != "" {
		dc.Description.Set(language.Und, info.Subject)
	}

	basic := &xmpBasic{}
	if !info.CreationDate.IsZero() {
		basic.CreateDate = xmp.NewDate(info.CreationDate)
	}
	if !info.ModDate.IsZero() {
		basic.ModifyDate = xmp.NewDate(info.ModDate)
	}
	if info.Creator != "" {
		basic.CreatorTool = xmp.NewAgentName(info.Creator)
	}

	pdfNS := &xmpPDF{}
	if info.Keywords != "" {
		pdfNS.Keywords = xmp.NewText(info.Keywords)
	}
	if info.Producer != "" {
		pdfNS.Producer = xmp.NewAgentName(info.Producer)
	}
	if v, err := version.ToString(); err == nil {
		pdfNS.PDFVersion = xmp.NewText(v)
	}

	packet := xmp.NewPacket()
	err := packet.Set(dc, basic, pdfNS)
	if err != nil {
		return nil, err
	}
	return &Stream{Data: packet}, nil
}

// Info returns the fields of the packet which correspond to entries in the
// document information dictionary.  The Creator and Producer fields are
// not recovered.
func (s *Stream) Info() *pdf.Info {
	dc := &xmp.DublinCore{}
	s.Data.Get(dc)
	basic := &xmpBasic{}
	s.Data.Get(basic)
	pdfNS := &xmpPDF{}
	s.Data.Get(pdfNS)

	return &pdf.Info{
		Title:        localized(dc.Title),
		Subject:      localized(dc.Description),
		Keywords:     pdfNS.Keywords.V,
		CreationDate: basic.CreateDate.V,
		ModDate:      basic.ModifyDate.V,
	}
}

// localized returns the default value of a language alternative, or the
// value for the alphabetically first language.
func localized(l xmp.Localized) string {
	if l.Default.V != "" {
		return l.Default.V
	}
	var keys []string
	vals := make(map[string]string)
	for tag, text := range l.V {
		keys = append(keys, tag.String())
		vals[tag.String()] = text.V
	}
	if len(keys) == 0 {
		return ""
	}
	slices.Sort(keys)
	return vals[keys[0]]
}

// Extract reads an XMP metadata stream from a PDF file.
// If ref is null, nil is returned.
func Extract(r pdf.Getter, ref pdf.Object) (*Stream, error) {
	stm, err := pdf.GetStream(r, ref)
	if err != nil {
		return nil, err
	}
	if stm == nil {
		return nil, nil
	}
	body, err := pdf.DecodeStream(r, stm)
	if err != nil {
		return nil, err
	}

	packet, err := xmp.Read(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return &Stream{Data: packet}, nil
}

// Embed writes the metadata stream to w and returns its reference.
func (s *Stream) Embed(w *pdf.Writer) (pdf.Reference, error) {
	if w.Version() < pdf.V1_4 {
		return 0, errVersion
	}
	ref := w.Alloc()

	dict := pdf.Dict{
		{"Type", pdf.Name("Metadata")},
		{"Subtype", pdf.Name("XML")},
	}
	// Metadata is stored without compression.
	buf := &bytes.Buffer{}
	err := s.Data.Write(buf, &xmp.PacketOptions{Pretty: true})
	if err != nil {
		return 0, err
	}
	stm, err := pdf.NewStream(dict, buf.Bytes())
	if err != nil {
		return 0, err
	}
	err = w.Put(ref, stm)
	if err != nil {
		return 0, err
	}
	return ref, nil
}

// Equal reports whether s and other represent the same XMP metadata.
func (s *Stream) Equal(other *Stream) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Data.Equal(other.Data)
}

// WriteDocumentInfo writes the document information dictionary together
// with a matching XMP metadata stream, and records both in w.  For files
// older than PDF 1.4 only the information dictionary is written.  The
// reference to the metadata stream is returned, or 0 if none was written.
func WriteDocumentInfo(w *pdf.Writer, info *pdf.Info) (pdf.Reference, error) {
	infoRef := w.Alloc()
	err := w.Put(infoRef, info.AsDict())
	if err != nil {
		return 0, err
	}
	err = w.SetInfo(infoRef)
	if err != nil {
		return 0, err
	}

	if w.Version() < pdf.V1_4 {
		return 0, nil
	}
	s, err := FromInfo(info, w.Version())
	if err != nil {
		return 0, err
	}
	return s.Embed(w)
}
