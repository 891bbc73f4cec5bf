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
	"bytes"
	"errors"
)

// An Importer copies objects from one PDF file into a [Writer].  The
// Importer keeps track of the objects which have already been copied and
// makes sure that each object is copied only once.
//
// Indirect objects are allocated in the target file as needed, and
// references are translated accordingly.  Reference cycles in the source
// are reproduced in the target.
type Importer struct {
	trans map[Reference]Reference
	src   Getter
	w     *Writer
}

// NewImporter creates a new Importer which reads from src and writes
// to w.
func NewImporter(w *Writer, src Getter) *Importer {
	return &Importer{
		trans: make(map[Reference]Reference),
		src:   src,
		w:     w,
	}
}

// Copy copies obj into the target file, recursively.  Objects which cannot
// be read from the source are replaced by null.
func (c *Importer) Copy(obj Object) (Object, error) {
	if c.w.State() != StateBuilding {
		return nil, ErrWriterClosed
	}
	return c.copy(obj)
}

func (c *Importer) copy(obj Object) (Object, error) {
	switch x := obj.(type) {
	case Reference:
		return c.copyReference(x)
	case Array:
		res := make(Array, len(x))
		for i, elem := range x {
			repl, err := c.copy(elem)
			if err != nil {
				return nil, err
			}
			res[i] = repl
		}
		return res, nil
	case Dict:
		return c.copyDict(x)
	case *Stream:
		if x == nil {
			return nil, nil
		}
		dict, err := c.copyDict(x.Dict)
		if err != nil {
			return nil, err
		}
		return &Stream{Dict: dict, Data: bytes.Clone(x.Data)}, nil
	case String:
		return String(bytes.Clone(x)), nil
	default:
		return obj, nil
	}
}

func (c *Importer) copyDict(x Dict) (Dict, error) {
	if x == nil {
		return nil, nil
	}
	res := make(Dict, 0, len(x))
	for _, e := range x {
		repl, err := c.copy(e.Value)
		if err != nil {
			return nil, err
		}
		if repl != nil {
			res = append(res, DictEntry{Key: e.Key, Value: repl})
		}
	}
	return res, nil
}

func (c *Importer) copyReference(ref Reference) (Object, error) {
	if newRef, ok := c.trans[ref]; ok {
		return newRef, nil
	}

	val, err := c.src.Get(ref)
	var objErr *ObjectError
	if errors.As(err, &objErr) {
		c.w.log.Warn("object not imported", "obj", ref.String(), "err", err)
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, nil
	}

	// The new reference is recorded before recursing, so that cycles
	// terminate.
	newRef := c.w.Alloc()
	c.trans[ref] = newRef
	trans, err := c.copy(val)
	if err != nil {
		return nil, err
	}
	err = c.w.Put(newRef, trans)
	if err != nil {
		return nil, err
	}
	return newRef, nil
}

// CopyReference copies the object ref into the target file and returns its
// new reference.  If the object is free or cannot be read, 0 is returned.
func (c *Importer) CopyReference(ref Reference) (Reference, error) {
	obj, err := c.Copy(ref)
	if err != nil {
		return 0, err
	}
	newRef, _ := obj.(Reference)
	return newRef, nil
}

// Redirect makes references to origRef in the source file point to newRef
// in the target file.
func (c *Importer) Redirect(origRef, newRef Reference) {
	c.trans[origRef] = newRef
}

// Import copies the object ref of r, together with all objects reachable
// from it, into w.  The reference of the copy is returned.
func Import(r *Reader, ref Reference, w *Writer) (Reference, error) {
	g, err := r.Extract(ref)
	if err != nil {
		return 0, err
	}
	for _, bad := range g.Unreadable {
		w.log.Warn("object not imported", "obj", bad.String())
	}
	return ImportSubgraph(w, g)
}

// ImportSubgraph copies the objects of g into w, allocating new object
// numbers.  The new reference of g.Root is returned.
func ImportSubgraph(w *Writer, g *Subgraph) (Reference, error) {
	if w.State() != StateBuilding {
		return 0, ErrWriterClosed
	}

	trans := make(map[Reference]Reference, len(g.Order))
	for _, ref := range g.Order {
		trans[ref] = w.Alloc()
	}
	for _, ref := range g.Order {
		val := cloneObject(g.Objects[ref], func(old Reference) Object {
			if newRef, ok := trans[old]; ok {
				return newRef
			}
			return nil
		})
		err := w.Put(trans[ref], val)
		if err != nil {
			return 0, err
		}
	}
	return trans[g.Root], nil
}
