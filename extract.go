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
	"fmt"
)

// Subgraph is a self-contained set of objects extracted from a PDF file.
// All references inside the objects point to other objects of the
// subgraph.  References to objects which could not be read have been
// replaced by null.
type Subgraph struct {
	// Root is the reference the extraction started from.
	Root Reference

	// Objects maps the references of the source file to the object values.
	Objects map[Reference]Object

	// Order lists the references in the order they were discovered,
	// starting with Root.
	Order []Reference

	// Unreadable lists the objects which were reachable from Root but
	// could not be read.
	Unreadable []Reference
}

// Extract collects the object ref together with all objects reachable
// from it.  Objects which cannot be read are left out, and references to
// them are replaced by null.  The returned objects share no memory with
// the values cached by the reader.
//
// Streams are validated by decoding them.  Streams which use filters this
// library cannot decode are kept in their encoded form.
func (r *Reader) Extract(ref Reference) (*Subgraph, error) {
	obj, err := r.Get(ref)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, &ObjectError{Ref: ref, Err: ErrUnknownObject}
	}

	g := &Subgraph{
		Root:    ref,
		Objects: make(map[Reference]Object),
	}
	bad := make(map[Reference]bool)
	queued := map[Reference]bool{ref: true}
	todo := []Reference{ref}
	for len(todo) > 0 {
		cur := todo[0]
		todo = todo[1:]

		val, err := r.Get(cur)
		if err == nil {
			if _, isStream := val.(*Stream); isStream {
				_, err = r.ReadStream(cur)
				if errors.Is(err, ErrUnsupportedFilter) {
					err = nil
				}
			}
		}
		if err != nil {
			if cur == ref {
				return nil, err
			}
			bad[cur] = true
			g.Unreadable = append(g.Unreadable, cur)
			continue
		}
		if val == nil {
			// free objects behave like null
			bad[cur] = true
			continue
		}

		g.Objects[cur] = val
		g.Order = append(g.Order, cur)
		forEachReference(val, func(next Reference) {
			if !queued[next] {
				queued[next] = true
				todo = append(todo, next)
			}
		})
	}

	for key, val := range g.Objects {
		g.Objects[key] = cloneObject(val, func(ref Reference) Object {
			if bad[ref] {
				return nil
			}
			return ref
		})
	}
	return g, nil
}

// ExtractTree extracts the object ref and returns it with all references
// replaced by the objects they point to.  If the objects form a cycle,
// [ErrCycleDetected] is returned.
func (r *Reader) ExtractTree(ref Reference) (Object, error) {
	g, err := r.Extract(ref)
	if err != nil {
		return nil, err
	}
	return g.Tree()
}

// Tree returns the root object of the subgraph with all references
// replaced by the objects they point to.  Objects which are referenced
// several times are duplicated.  If the subgraph contains a cycle,
// [ErrCycleDetected] is returned.
func (g *Subgraph) Tree() (Object, error) {
	onPath := make(map[Reference]bool)
	var inline func(Object) (Object, error)
	inline = func(obj Object) (Object, error) {
		var err error
		res := cloneObject(obj, func(ref Reference) Object {
			if err != nil {
				return nil
			}
			if onPath[ref] {
				err = &MalformedFileError{
					Loc: []string{"object " + ref.String()},
					Err: fmt.Errorf("object refers to itself: %w", ErrCycleDetected),
				}
				return nil
			}
			onPath[ref] = true
			var val Object
			val, err = inline(g.Objects[ref])
			delete(onPath, ref)
			return val
		})
		if err != nil {
			return nil, err
		}
		return res, nil
	}

	onPath[g.Root] = true
	return inline(g.Objects[g.Root])
}

// Len returns the number of objects in the subgraph.
func (g *Subgraph) Len() int {
	return len(g.Objects)
}

// forEachReference calls fn for every reference contained in obj.
// Referenced objects are not visited.
func forEachReference(obj Object, fn func(Reference)) {
	switch x := obj.(type) {
	case Reference:
		fn(x)
	case Array:
		for _, elem := range x {
			forEachReference(elem, fn)
		}
	case Dict:
		for _, e := range x {
			forEachReference(e.Value, fn)
		}
	case *Stream:
		if x != nil {
			forEachReference(x.Dict, fn)
		}
	}
}

// cloneObject returns a deep copy of obj, where every reference is
// replaced by the value returned by repl.
func cloneObject(obj Object, repl func(Reference) Object) Object {
	switch x := obj.(type) {
	case Reference:
		return repl(x)
	case Array:
		if x == nil {
			return x
		}
		res := make(Array, len(x))
		for i, elem := range x {
			res[i] = cloneObject(elem, repl)
		}
		return res
	case Dict:
		return cloneDict(x, repl)
	case *Stream:
		if x == nil {
			return x
		}
		return &Stream{
			Dict: cloneDict(x.Dict, repl),
			Data: bytes.Clone(x.Data),
		}
	case String:
		return String(append([]byte(nil), x...))
	default:
		return obj
	}
}

func cloneDict(x Dict, repl func(Reference) Object) Dict {
	if x == nil {
		return nil
	}
	res := make(Dict, 0, len(x))
	for _, e := range x {
		val := cloneObject(e.Value, repl)
		if val == nil {
			continue
		}
		res = append(res, DictEntry{Key: e.Key, Value: val})
	}
	return res
}
