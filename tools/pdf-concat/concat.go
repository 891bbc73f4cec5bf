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
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/texpdf/pdf"
	"github.com/texpdf/pdf/document"
)

type concatOptions struct {
	Info   *pdf.Info
	Logger *slog.Logger
}

// inheritable lists the page attributes which can be inherited from
// the ancestors of a page in the page tree.
var inheritable = []pdf.Name{"Resources", "MediaBox", "CropBox", "Rotate"}

// concatFiles writes the pages of all input files into a new file.
// The output uses the highest PDF version of the inputs.
func concatFiles(out string, in []string, opt *concatOptions) error {
	readers := make([]*pdf.Reader, 0, len(in))
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()

	version := pdf.V1_1
	for _, fname := range in {
		r, err := pdf.Open(fname, &pdf.ReaderOptions{Logger: opt.Logger})
		if err != nil {
			return err
		}
		readers = append(readers, r)
		version = max(version, r.Version())
	}

	doc, err := document.Create(out, &document.Options{
		PDF: &pdf.WriterOptions{
			Version:       version,
			Compress:      true,
			XRefStream:    version >= pdf.V1_5,
			ObjectStreams: version >= pdf.V1_5,
		},
		Info:   opt.Info,
		Logger: opt.Logger,
	})
	if err != nil {
		return err
	}

	for i, r := range readers {
		n, err := appendPages(doc, r)
		if err != nil {
			doc.Close()
			os.Remove(out)
			return fmt.Errorf("%s: %w", in[i], err)
		}
		opt.Logger.Debug("copied pages", "file", in[i], "pages", n)
	}
	return doc.Close()
}

// appendPages copies all pages of r into doc and returns the number of
// pages copied.
func appendPages(doc *document.Document, r *pdf.Reader) (int, error) {
	cat, err := r.Catalog()
	if err != nil {
		return 0, err
	}

	var pages []pdf.Reference
	var dicts []pdf.Dict
	err = walkPageTree(r, cat.Pages, nil, func(ref pdf.Reference, page pdf.Dict) {
		pages = append(pages, ref)
		dicts = append(dicts, page)
	})
	if err != nil {
		return 0, err
	}

	// Pages may be referenced from inside other pages, for example by
	// the /P entry of annotations.  All page references are translated
	// before any page is copied, so that the source page tree is never
	// imported.
	imp := pdf.NewImporter(doc.Out, r)
	newRefs := make([]pdf.Reference, len(pages))
	for i, ref := range pages {
		newRefs[i] = doc.Out.Alloc()
		imp.Redirect(ref, newRefs[i])
	}

	for i, page := range dicts {
		page = page.Clone()
		page.Delete("Parent")
		page.Delete("B")
		page.Delete("StructParents")
		copied, err := imp.Copy(page)
		if err != nil {
			return i, err
		}
		_, err = doc.AppendPage(newRefs[i], copied.(pdf.Dict))
		if err != nil {
			return i, err
		}
	}
	return len(pages), nil
}

// walkPageTree calls fn for every page below node, in document order.
// Inherited attributes are copied into the page dictionaries passed to fn.
func walkPageTree(r *pdf.Reader, node pdf.Reference, inherited pdf.Dict, fn func(pdf.Reference, pdf.Dict)) error {
	type frame struct {
		ref       pdf.Reference
		inherited pdf.Dict
	}
	seen := make(map[pdf.Reference]bool)
	stack := []frame{{node, inherited}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[f.ref] {
			return errors.New("cycle in page tree")
		}
		seen[f.ref] = true

		dict, err := pdf.GetDict(r, f.ref)
		if err != nil {
			return err
		}
		if dict == nil {
			continue
		}

		attr := f.inherited.Clone()
		for _, key := range inheritable {
			if val := dict.Get(key); val != nil {
				attr.Set(key, val)
			}
		}

		tp, _ := pdf.GetName(r, dict.Get("Type"))
		kids, _ := pdf.GetArray(r, dict.Get("Kids"))
		if tp == "Pages" || tp == "" && kids != nil {
			for i := len(kids) - 1; i >= 0; i-- {
				if kid, ok := kids[i].(pdf.Reference); ok {
					stack = append(stack, frame{kid, attr})
				}
			}
			continue
		}

		page := dict.Clone()
		for _, e := range attr {
			if !page.Has(e.Key) {
				page.Set(e.Key, e.Value)
			}
		}
		fn(f.ref, page)
	}
	return nil
}
