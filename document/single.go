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
	"io"

	"seehuhn.de/go/geom/rect"
)

// CreateSinglePage creates a new PDF document consisting of a single page.
// The document is written to the file with the given name when the page
// is closed.
func CreateSinglePage(fileName string, pageSize rect.Rect, opt *Options) (*Page, error) {
	doc, err := Create(fileName, opt)
	if err != nil {
		return nil, err
	}
	return singlePage(doc, pageSize), nil
}

// WriteSinglePage creates a new PDF document consisting of a single page.
// The document is written to w when the page is closed.
func WriteSinglePage(w io.Writer, pageSize rect.Rect, opt *Options) (*Page, error) {
	doc, err := New(w, opt)
	if err != nil {
		return nil, err
	}
	return singlePage(doc, pageSize), nil
}

func singlePage(doc *Document, pageSize rect.Rect) *Page {
	p := doc.BeginPage(pageSize)
	p.closeFn = closeSinglePage
	return p
}

func closeSinglePage(p *Page) error {
	return p.doc.Close()
}
