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

// Package pdf provides support for reading and writing PDF files.
//
// The package treats PDF files as containers for a graph of objects.
// Objects are identified by a [Reference] and can be read in any order.
//
// A [Reader] reads objects from an existing file.  Objects are parsed
// lazily, the first time they are used:
//
//	r, err := pdf.Open("in.pdf", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//	font, err := r.ExtractTree(fontRef)
//
// A [Writer] collects objects in memory and writes the complete file when
// [Writer.Close] is called:
//
//	w, err := pdf.Create("out.pdf", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	catalog := w.Alloc()
//	... define objects using w.Put and w.OpenStream ...
//	w.SetRoot(catalog)
//	err = w.Close()
//
// Objects can be copied from a Reader to a Writer using [Import] or an
// [Importer].  New object numbers are allocated in the target file.
//
// The following types implement the native PDF object types.
// All of these implement the [Object] interface:
//
//	Array
//	Bool
//	Dict
//	Integer
//	Name
//	Real
//	Reference
//	*Stream
//	String
//
// The PDF null object is represented by nil.
package pdf
