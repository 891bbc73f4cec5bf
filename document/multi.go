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

// Package document implements the interface between a typesetting front
// end and the PDF writer.  Pages are built one at a time from content
// stream operators and resource references, and are collected into a page
// tree when the document is closed.
package document

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/text/language"
	"seehuhn.de/go/geom/rect"

	"github.com/texpdf/pdf"
	"github.com/texpdf/pdf/internal/memfile"
	"github.com/texpdf/pdf/metadata"
)

// Options control the creation of a document.
// The zero value and nil are both valid.
type Options struct {
	// PDF are the options for the underlying writer.  If this is nil,
	// PDF 1.7 with compressed content streams is written.
	PDF *pdf.WriterOptions

	// PageSize is used by [Document.BeginPage] when no page size is given.
	// The default is A4.
	PageSize rect.Rect

	// Info, if set, is written as the document information dictionary.
	// For PDF 1.4 and newer, an XMP metadata stream with the same
	// content is added to the catalog.
	Info *pdf.Info

	// Lang is the natural language of the document text.
	Lang language.Tag

	// Logger receives debug information.
	Logger *slog.Logger
}

// Document is a PDF document which is written page by page.
type Document struct {
	Out *pdf.Writer

	tree     *pageTree
	opt      Options
	numOpen  int
	numPages int
	log      *slog.Logger

	buf    *memfile.MemFile
	closer io.Closer
	closed bool
}

// Create creates a new PDF file with the given name.
func Create(name string, opt *Options) (*Document, error) {
	fd, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	doc, err := New(fd, opt)
	if err != nil {
		fd.Close()
		os.Remove(name)
		return nil, err
	}
	doc.closer = fd
	return doc, nil
}

// New creates a new document, which is written to w when the document
// is closed.
func New(w io.Writer, opt *Options) (*Document, error) {
	if opt == nil {
		opt = &Options{}
	}
	wOpt := opt.PDF
	if wOpt == nil {
		wOpt = &pdf.WriterOptions{Compress: true}
	}
	if wOpt.Logger == nil && opt.Logger != nil {
		o := *wOpt
		o.Logger = opt.Logger
		wOpt = &o
	}
	out, err := pdf.NewWriter(w, wOpt)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Out:  out,
		tree: newPageTree(out),
		opt:  *opt,
		log:  opt.Logger,
	}
	if doc.opt.PageSize.IsZero() {
		doc.opt.PageSize = A4
	}
	if doc.log == nil {
		doc.log = slog.New(slog.DiscardHandler)
	}
	return doc, nil
}

// NewBuffer creates a new document which is kept in memory.
// Use [Document.End] to obtain the file contents.
func NewBuffer(opt *Options) (*Document, error) {
	buf := memfile.New()
	doc, err := New(buf, opt)
	if err != nil {
		return nil, err
	}
	doc.buf = buf
	return doc, nil
}

// BeginPage starts a new page.  If box is the zero rectangle, the default
// page size of the document is used.
//
// Pages appear in the document in the order in which they are closed.
func (doc *Document) BeginPage(box rect.Rect) *Page {
	if box.IsZero() {
		box = doc.opt.PageSize
	}
	doc.numOpen++
	return &Page{
		Out:      doc.Out,
		Ref:      doc.Out.Alloc(),
		MediaBox: box,
		content:  &bytes.Buffer{},
		doc:      doc,
	}
}

// AppendPage adds a complete page dictionary to the document, for example
// a page copied from another file.  The /Type and /Parent entries are set
// by the document, any other inherited attributes must already be present
// in dict.
//
// If ref is non-zero, it must have been allocated from doc.Out and is used
// for the page.  Otherwise a new reference is allocated.
func (doc *Document) AppendPage(ref pdf.Reference, dict pdf.Dict) (pdf.Reference, error) {
	if doc.closed {
		return 0, pdf.ErrWriterClosed
	}
	dict = dict.Clone()
	dict.Set("Type", pdf.Name("Page"))
	if !dict.Has("MediaBox") {
		dict.Set("MediaBox", boxArray(doc.opt.PageSize))
	}
	if ref == 0 {
		ref = doc.Out.Alloc()
	}
	err := doc.tree.appendPage(ref, dict)
	if err != nil {
		return 0, err
	}
	doc.numPages++
	return ref, nil
}

// NumPages returns the number of pages closed so far.
func (doc *Document) NumPages() int {
	return doc.numPages
}

// Close writes the page tree, the catalog and the document metadata,
// and then writes the PDF file.
func (doc *Document) Close() error {
	if doc.closed {
		return pdf.ErrWriterClosed
	}
	if doc.numOpen != 0 {
		return fmt.Errorf("%d pages still open", doc.numOpen)
	}
	doc.closed = true

	w := doc.Out
	pagesRef, err := doc.tree.close()
	if err != nil {
		return err
	}

	catalog := &pdf.Catalog{
		Pages: pagesRef,
		Lang:  doc.opt.Lang,
	}
	if doc.opt.Info != nil {
		metaRef, err := metadata.WriteDocumentInfo(w, doc.opt.Info)
		if err != nil {
			return fmt.Errorf("document info: %w", err)
		}
		catalog.Metadata = metaRef
	}

	catRef := w.Alloc()
	err = w.Put(catRef, catalog.AsDict())
	if err != nil {
		return err
	}
	err = w.SetRoot(catRef)
	if err != nil {
		return err
	}

	doc.log.Debug("closing document",
		slog.Int("pages", doc.numPages),
		slog.String("root", catRef.String()))
	err = w.Close()
	if doc.closer != nil {
		closeErr := doc.closer.Close()
		if err == nil {
			err = closeErr
		}
	}
	return err
}

// End closes a document created by [NewBuffer] and returns the contents
// of the PDF file.  For other documents, End is equivalent to
// [Document.Close] and returns nil data.
func (doc *Document) End() ([]byte, error) {
	err := doc.Close()
	if err != nil {
		return nil, err
	}
	if doc.buf == nil {
		return nil, nil
	}
	return doc.buf.Data, nil
}
