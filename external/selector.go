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

package external

import (
	"errors"
	"fmt"
	"strings"

	"github.com/texpdf/pdf"
	"github.com/texpdf/pdf/resource"
)

// ErrNotFound is returned when a selector does not match any object.
var ErrNotFound = errors.New("no matching object")

// A Selector locates an object inside a PDF file.
type Selector interface {
	// Select returns the selected object.  This is normally a reference,
	// but resources given as direct objects in a resource dictionary are
	// returned as they are.
	Select(r *pdf.Reader) (pdf.Object, error)

	// String describes the selector.  Selectors which select the same
	// object in every file must have the same description, since the
	// description is used as part of the cache key.
	String() string
}

// Object selects an object by its reference.
func Object(ref pdf.Reference) Selector {
	return objectSelector(ref)
}

type objectSelector pdf.Reference

func (s objectSelector) Select(r *pdf.Reader) (pdf.Object, error) {
	ref := pdf.Reference(s)
	obj, err := r.Get(ref)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("object %s: %w", ref, ErrNotFound)
	}
	return ref, nil
}

func (s objectSelector) String() string {
	return "object:" + pdf.Format(pdf.Reference(s))
}

// FirstImage selects the first image XObject used on the pages of the
// file, in page order.  Images used inside form XObjects are not
// considered.
func FirstImage() Selector {
	return firstImage{}
}

type firstImage struct{}

func (firstImage) Select(r *pdf.Reader) (pdf.Object, error) {
	var found pdf.Reference
	err := walkPages(r, func(_ int, page pdf.Dict, res *resource.Resources) bool {
		for _, name := range res.Names(resource.XObject) {
			ref, ok := res.Lookup(resource.XObject, name).(pdf.Reference)
			if !ok {
				continue
			}
			stm, err := pdf.GetStream(r, ref)
			if err != nil || stm == nil {
				continue
			}
			if subtype, _ := pdf.GetName(r, stm.Dict.Get("Subtype")); subtype == "Image" {
				found = ref
				return false
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == 0 {
		return nil, fmt.Errorf("image: %w", ErrNotFound)
	}
	return found, nil
}

func (firstImage) String() string {
	return "image:first"
}

// FontProgram selects the font dictionary with the given PostScript name.
// Subset fonts, whose names carry a six-letter tag like "ABCDEF+", also
// match.  The objects of the file are searched in increasing order.
func FontProgram(name string) Selector {
	return fontSelector(name)
}

type fontSelector string

func (s fontSelector) Select(r *pdf.Reader) (pdf.Object, error) {
	for _, ref := range r.Objects() {
		dict, err := pdf.GetDict(r, ref)
		if err != nil || dict == nil {
			continue // only dictionaries can be fonts
		}
		if tp, _ := dict.Get("Type").(pdf.Name); tp != "Font" {
			continue
		}
		baseFont, _ := pdf.GetName(r, dict.Get("BaseFont"))
		if stripSubsetTag(string(baseFont)) == string(s) {
			return ref, nil
		}
	}
	return nil, fmt.Errorf("font %q: %w", string(s), ErrNotFound)
}

func (s fontSelector) String() string {
	return "font:" + string(s)
}

func stripSubsetTag(name string) string {
	tag, rest, ok := strings.Cut(name, "+")
	if !ok || len(tag) != 6 {
		return name
	}
	for _, c := range tag {
		if c < 'A' || c > 'Z' {
			return name
		}
	}
	return rest
}

// PageResource selects a named resource of a page.  Pages are numbered
// from 0.  Resources inherited from the page tree are taken into account.
func PageResource(page int, category resource.Category, name pdf.Name) Selector {
	return pageResource{page: page, category: category, name: name}
}

type pageResource struct {
	page     int
	category resource.Category
	name     pdf.Name
}

func (s pageResource) Select(r *pdf.Reader) (pdf.Object, error) {
	var found pdf.Object
	pageFound := false
	err := walkPages(r, func(i int, _ pdf.Dict, res *resource.Resources) bool {
		if i != s.page {
			return true
		}
		pageFound = true
		found = res.Lookup(s.category, s.name)
		return false
	})
	if err != nil {
		return nil, err
	}
	if !pageFound {
		return nil, fmt.Errorf("page %d: %w", s.page, ErrNotFound)
	}
	if found == nil {
		return nil, fmt.Errorf("page %d: %s resource %q: %w",
			s.page, s.category, s.name, ErrNotFound)
	}
	return found, nil
}

func (s pageResource) String() string {
	return fmt.Sprintf("page:%d/%s/%s", s.page, s.category, pdf.Format(s.name))
}

// walkPages calls fn for every page in the page tree, in order, until fn
// returns false.  The resource dictionary passed to fn includes inherited
// resources.
func walkPages(r *pdf.Reader, fn func(i int, page pdf.Dict, res *resource.Resources) bool) error {
	cat, err := r.Catalog()
	if err != nil {
		return err
	}

	type frame struct {
		ref pdf.Object
		res pdf.Object // inherited /Resources
	}
	stack := []frame{{ref: cat.Pages}}
	seen := make(map[pdf.Reference]bool)
	pageNo := 0
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if ref, ok := top.ref.(pdf.Reference); ok {
			if seen[ref] {
				return fmt.Errorf("page tree: %w", pdf.ErrCycleDetected)
			}
			seen[ref] = true
		}
		node, err := pdf.GetDict(r, top.ref)
		if err != nil {
			return err
		}
		if node == nil {
			continue
		}

		resObj := top.res
		if node.Has("Resources") {
			resObj = node.Get("Resources")
		}

		tp, _ := pdf.GetName(r, node.Get("Type"))
		if tp == "Pages" || tp == "" && node.Has("Kids") {
			kids, err := pdf.GetArray(r, node.Get("Kids"))
			if err != nil {
				return err
			}
			for i := len(kids) - 1; i >= 0; i-- {
				stack = append(stack, frame{ref: kids[i], res: resObj})
			}
			continue
		}

		res := &resource.Resources{}
		if resObj != nil {
			res, err = resource.Decode(r, resObj)
			if err != nil {
				return err
			}
		}
		if !fn(pageNo, node, res) {
			return nil
		}
		pageNo++
	}
	return nil
}
