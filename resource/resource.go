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

// Package resource builds the objects which content streams refer to by
// name: fonts, images and colour spaces.  Each builder writes the objects
// to a [pdf.Writer] and returns a [Ref], which pages use to list the
// resource in their /Resources dictionary.
package resource

import (
	"fmt"

	"github.com/texpdf/pdf"
)

// PDF 2.0 sections: 14.2 7.8

// Category is the name of a subdictionary of a resource dictionary.
type Category pdf.Name

// These are the resource categories supported by this package.
const (
	Font       Category = "Font"
	XObject    Category = "XObject"
	ColorSpace Category = "ColorSpace"
	ExtGState  Category = "ExtGState"
	Pattern    Category = "Pattern"
	Shading    Category = "Shading"
	Properties Category = "Properties"
)

var categories = []Category{ExtGState, ColorSpace, Pattern, Shading, XObject, Font, Properties}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	for _, cat := range categories {
		if c == cat {
			return true
		}
	}
	return false
}

// Ref identifies a resource in a PDF file, together with the name used
// for it in content streams.
type Ref struct {
	Category Category
	Name     pdf.Name

	// Value is the entry for the resource dictionary.  This is usually
	// a reference, but colour spaces are given as arrays.
	Value pdf.Object
}

// Resources collects the resources used by a content stream.
// The zero value is an empty resource dictionary.
type Resources struct {
	entries map[Category]pdf.Dict
	ProcSet ProcSet
}

// ProcSet lists the procedure sets, for compatibility with PDF 1.3 and
// older viewers.
type ProcSet struct {
	PDF    bool
	Text   bool
	ImageB bool
	ImageC bool
	ImageI bool
}

// Add adds a resource.  Adding the same resource twice is allowed, but
// using one name for different values within a category is an error.
func (r *Resources) Add(ref Ref) error {
	if !ref.Category.IsValid() {
		return fmt.Errorf("invalid resource category %q", ref.Category)
	}
	if ref.Name == "" || ref.Value == nil {
		return fmt.Errorf("incomplete %s resource %q", ref.Category, ref.Name)
	}
	if r.entries == nil {
		r.entries = make(map[Category]pdf.Dict)
	}
	sub := r.entries[ref.Category]
	if old := sub.Get(ref.Name); old != nil {
		if !pdf.Equal(old, ref.Value) {
			return fmt.Errorf("%s resource %q already used for a different object",
				ref.Category, ref.Name)
		}
		return nil
	}
	sub.Set(ref.Name, ref.Value)
	r.entries[ref.Category] = sub

	switch ref.Category {
	case Font:
		r.ProcSet.Text = true
	case XObject:
		r.ProcSet.ImageB = true
		r.ProcSet.ImageC = true
	}
	return nil
}

// Lookup returns the value for the named resource, or nil.
func (r *Resources) Lookup(cat Category, name pdf.Name) pdf.Object {
	return r.entries[cat].Get(name)
}

// Names returns the names of all resources in a category, in the order
// they were added.
func (r *Resources) Names(cat Category) []pdf.Name {
	return r.entries[cat].Keys()
}

// IsEmpty reports whether no resources have been added.
func (r *Resources) IsEmpty() bool {
	for _, sub := range r.entries {
		if sub.Len() > 0 {
			return false
		}
	}
	return true
}

// AsDict returns the resource dictionary.
func (r *Resources) AsDict() pdf.Dict {
	res := pdf.Dict{}
	for _, cat := range categories {
		if sub := r.entries[cat]; sub.Len() > 0 {
			res.Set(pdf.Name(cat), sub.Clone())
		}
	}

	var procSet pdf.Array
	if r.ProcSet.PDF {
		procSet = append(procSet, pdf.Name("PDF"))
	}
	if r.ProcSet.Text {
		procSet = append(procSet, pdf.Name("Text"))
	}
	if r.ProcSet.ImageB {
		procSet = append(procSet, pdf.Name("ImageB"))
	}
	if r.ProcSet.ImageC {
		procSet = append(procSet, pdf.Name("ImageC"))
	}
	if r.ProcSet.ImageI {
		procSet = append(procSet, pdf.Name("ImageI"))
	}
	if procSet != nil {
		res.Set("ProcSet", procSet)
	}
	return res
}

// Decode reads a resource dictionary.  Subdictionaries of unknown
// categories and malformed entries are skipped.
func Decode(r pdf.Getter, obj pdf.Object) (*Resources, error) {
	dict, err := pdf.GetDict(r, obj)
	if err != nil {
		return nil, err
	}

	res := &Resources{}
	for _, cat := range categories {
		sub, err := pdf.GetDict(r, dict.Get(pdf.Name(cat)))
		if err != nil {
			continue // permissive
		}
		for _, e := range sub {
			if e.Value == nil {
				continue
			}
			res.Add(Ref{Category: cat, Name: e.Key, Value: e.Value})
		}
	}

	procSet, _ := pdf.GetArray(r, dict.Get("ProcSet"))
	for _, obj := range procSet {
		name, ok := obj.(pdf.Name)
		if !ok {
			continue // permissive
		}
		switch name {
		case "PDF":
			res.ProcSet.PDF = true
		case "Text":
			res.ProcSet.Text = true
		case "ImageB":
			res.ProcSet.ImageB = true
		case "ImageC":
			res.ProcSet.ImageC = true
		case "ImageI":
			res.ProcSet.ImageI = true
		}
	}
	return res, nil
}
