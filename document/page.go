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

package document

import (
	"bytes"
	"errors"

	"seehuhn.de/go/geom/rect"

	"github.com/texpdf/pdf"
	"github.com/texpdf/pdf/resource"
)

var errPageClosed = errors.New("page already closed")

// Page represents a page in a PDF document.
// Content is collected in memory and written when the page is closed.
type Page struct {
	// Out is the PDF file which contains this page.
	// This can be used to embed fonts, images, etc.
	Out *pdf.Writer

	// Ref is the reference of the page dictionary.
	Ref pdf.Reference

	// MediaBox is the page size.
	MediaBox rect.Rect

	content   *bytes.Buffer
	resources resource.Resources
	doc       *Document
	closeFn   func(p *Page) error
}

// AppendContent appends content stream operators to the page.
// The operators are stored as given.
func (p *Page) AppendContent(ops []byte) error {
	if p.content == nil {
		return errPageClosed
	}
	p.content.Write(ops)
	return nil
}

// Write implements the [io.Writer] interface, as an alternative to
// [Page.AppendContent].
func (p *Page) Write(buf []byte) (int, error) {
	if p.content == nil {
		return 0, errPageClosed
	}
	return p.content.Write(buf)
}

// PlaceResource adds a resource to the /Resources dictionary of the page.
func (p *Page) PlaceResource(ref resource.Ref) error {
	if p.content == nil {
		return errPageClosed
	}
	return p.resources.Add(ref)
}

// Close writes the page contents to the PDF file and adds the page to the
// page tree.  The page can no longer be modified after this call.
func (p *Page) Close() error {
	if p.content == nil {
		return errPageClosed
	}
	if p.MediaBox.IsZero() {
		return errors.New("page size not set")
	}

	w := p.Out
	contentRef := w.Alloc()
	stm, err := w.OpenStream(contentRef, nil)
	if err != nil {
		return err
	}
	_, err = stm.Write(p.content.Bytes())
	if err != nil {
		return err
	}
	err = stm.Close()
	if err != nil {
		return err
	}

	p.resources.ProcSet.PDF = true
	dict := pdf.Dict{
		{"Type", pdf.Name("Page")},
		{"MediaBox", boxArray(p.MediaBox)},
		{"Resources", p.resources.AsDict()},
		{"Contents", contentRef},
	}
	err = p.doc.tree.appendPage(p.Ref, dict)
	if err != nil {
		return err
	}

	p.content = nil
	p.doc.numOpen--
	p.doc.numPages++
	if p.closeFn != nil {
		return p.closeFn(p)
	}
	return nil
}

func boxArray(r rect.Rect) pdf.Array {
	return pdf.Array{
		coord(r.LLx), coord(r.LLy), coord(r.URx), coord(r.URy),
	}
}

func coord(x float64) pdf.Object {
	if x == float64(int64(x)) {
		return pdf.Integer(x)
	}
	return pdf.Real(x)
}
