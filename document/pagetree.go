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
	"errors"

	"github.com/texpdf/pdf"
)

const maxDegree = 16

// pageTree collects pages into a balanced page tree.
//
// Page dictionaries are kept in memory until their parent node is known,
// since the /Parent entry must be set before an object is stored.
type pageTree struct {
	out *pdf.Writer

	// tail contains completed subtrees, in page order.  The depth of the
	// subtrees is weakly decreasing, and for every depth there are at most
	// maxDegree-1 subtrees of this depth.
	tail []*treeNode

	isClosed bool
}

type treeNode struct {
	ref       pdf.Reference
	dict      pdf.Dict
	pageCount int
	depth     int
}

func newPageTree(w *pdf.Writer) *pageTree {
	return &pageTree{out: w}
}

// appendPage adds a page to the tree.  The tree takes ownership of dict
// and sets /Parent before storing it.
func (t *pageTree) appendPage(ref pdf.Reference, dict pdf.Dict) error {
	if t.isClosed {
		return errors.New("page tree is closed")
	}

	t.tail = append(t.tail, &treeNode{
		ref:       ref,
		dict:      dict,
		pageCount: 1,
	})

	for {
		n := len(t.tail)
		if n < maxDegree || t.tail[n-1].depth != t.tail[n-maxDegree].depth {
			break
		}
		err := t.mergeNodes(n-maxDegree, n)
		if err != nil {
			return err
		}
	}
	return nil
}

// close stores all remaining nodes and returns the reference of the
// root node.  A document without pages gets an empty /Pages node.
func (t *pageTree) close() (pdf.Reference, error) {
	if t.isClosed {
		return 0, errors.New("page tree is closed")
	}
	t.isClosed = true

	for len(t.tail) > 1 {
		start := max(len(t.tail)-maxDegree, 0)
		for start > 0 && t.tail[start-1].depth == t.tail[start].depth {
			start++
		}
		err := t.mergeNodes(start, len(t.tail))
		if err != nil {
			return 0, err
		}
	}

	// the root node cannot be a leaf
	if len(t.tail) == 0 || t.tail[0].depth == 0 {
		err := t.mergeNodes(0, len(t.tail))
		if err != nil {
			return 0, err
		}
	}

	root := t.tail[0]
	t.tail = nil
	err := t.out.Put(root.ref, root.dict)
	if err != nil {
		return 0, err
	}
	return root.ref, nil
}

// mergeNodes replaces tail[start:end] with a new /Pages node.  The
// children are stored in the file, now that their parent is known.
func (t *pageTree) mergeNodes(start, end int) error {
	parentRef := t.out.Alloc()

	kids := make(pdf.Array, 0, end-start)
	count := 0
	depth := 0
	for _, node := range t.tail[start:end] {
		node.dict.Set("Parent", parentRef)
		err := t.out.Put(node.ref, node.dict)
		if err != nil {
			return err
		}
		kids = append(kids, node.ref)
		count += node.pageCount
		depth = max(depth, node.depth)
	}

	parent := &treeNode{
		ref: parentRef,
		dict: pdf.Dict{
			{"Type", pdf.Name("Pages")},
			{"Kids", kids},
			{"Count", pdf.Integer(count)},
		},
		pageCount: count,
		depth:     depth + 1,
	}
	t.tail = append(t.tail[:start], parent)
	return nil
}
