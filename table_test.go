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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTableAllocate(t *testing.T) {
	tab := NewTable()
	a := tab.Allocate()
	b := tab.Allocate()
	if a.Number() != 1 || b.Number() != 2 {
		t.Errorf("got %s and %s", a, b)
	}
	if tab.Status(a) != StatusUndefined {
		t.Errorf("status = %s", tab.Status(a))
	}

	err := tab.Define(a, Integer(7))
	if err != nil {
		t.Fatal(err)
	}
	val, err := tab.Resolve(a)
	if err != nil || val != Integer(7) {
		t.Errorf("Resolve = %v, %v", val, err)
	}

	err = tab.Define(NewReference(99, 0), Integer(1))
	if !errors.Is(err, ErrUnknownObject) {
		t.Errorf("Define on unknown number: %v", err)
	}
	_, err = tab.Resolve(NewReference(99, 0))
	if !errors.Is(err, ErrUnknownObject) {
		t.Errorf("Resolve on unknown number: %v", err)
	}

	if tab.Size() != 3 {
		t.Errorf("Size = %d, want 3", tab.Size())
	}
	if d := cmp.Diff([]uint32{1, 2}, tab.Numbers()); d != "" {
		t.Error(d)
	}
}

func TestTableFreeReuse(t *testing.T) {
	tab := NewTable()
	a := tab.Allocate()
	tab.Define(a, Name("x"))

	err := tab.Free(a)
	if err != nil {
		t.Fatal(err)
	}
	if tab.Status(a) != StatusFree {
		t.Errorf("status = %s", tab.Status(a))
	}
	val, err := tab.Resolve(a)
	if err != nil || val != nil {
		t.Errorf("freed object resolves to %v, %v", val, err)
	}

	b, err := tab.Reuse(a.Number())
	if err != nil {
		t.Fatal(err)
	}
	if b.Number() != a.Number() || b.Generation() != 1 {
		t.Errorf("Reuse gave %s", b)
	}
	tab.Define(b, Name("y"))

	// the stale reference still resolves to null
	val, _ = tab.Resolve(a)
	if val != nil {
		t.Errorf("stale reference resolves to %v", val)
	}
	val, _ = tab.Resolve(b)
	if val != Name("y") {
		t.Errorf("new generation resolves to %v", val)
	}
	if c := tab.Allocate(); c.Number() != 2 {
		t.Errorf("object number reused: %s", c)
	}
}

func TestTableLazy(t *testing.T) {
	tab := NewTable()
	calls := 0
	tab.load = func(ref Reference, info *EntryInfo) (Object, error) {
		calls++
		if ref.Number() == 2 {
			return nil, errors.New("broken")
		}
		return Integer(info.Offset), nil
	}
	tab.addFromIndex(1, EntryInfo{Kind: EntryInUse, Offset: 100})
	tab.addFromIndex(2, EntryInfo{Kind: EntryInUse, Offset: 200})
	tab.addFromIndex(1, EntryInfo{Kind: EntryInUse, Offset: 300}) // older, ignored

	ref1 := NewReference(1, 0)
	if tab.Status(ref1) != StatusUnread {
		t.Errorf("status = %s", tab.Status(ref1))
	}
	for range 2 {
		val, err := tab.Resolve(ref1)
		if err != nil || val != Integer(100) {
			t.Errorf("Resolve = %v, %v", val, err)
		}
	}
	if calls != 1 {
		t.Errorf("loader called %d times", calls)
	}

	ref2 := NewReference(2, 0)
	_, err := tab.Resolve(ref2)
	var objErr *ObjectError
	if !errors.As(err, &objErr) || objErr.Ref != ref2 {
		t.Errorf("expected ObjectError, got %v", err)
	}
	if tab.Status(ref2) != StatusUnreadable {
		t.Errorf("status = %s", tab.Status(ref2))
	}
	_, _ = tab.Resolve(ref2)
	if calls != 2 {
		t.Errorf("failed load was retried without Retry")
	}
	tab.Retry(ref2)
	_, _ = tab.Resolve(ref2)
	if calls != 3 {
		t.Errorf("Retry did not trigger a new load")
	}

	if next := tab.Allocate(); next.Number() != 3 {
		t.Errorf("allocated %s after loading an index", next)
	}
}

func TestTableLoadCycle(t *testing.T) {
	tab := NewTable()
	tab.load = func(ref Reference, info *EntryInfo) (Object, error) {
		return tab.Resolve(ref)
	}
	tab.addFromIndex(1, EntryInfo{Kind: EntryInUse, Offset: 10})
	_, err := tab.Resolve(NewReference(1, 0))
	if !errors.Is(err, ErrCycleDetected) {
		t.Errorf("expected ErrCycleDetected, got %v", err)
	}
}

func TestTableSiblings(t *testing.T) {
	tab := NewTable()
	tab.addFromIndex(5, EntryInfo{Kind: EntryCompressed, Container: 9, Index: 0})
	tab.addFromIndex(6, EntryInfo{Kind: EntryCompressed, Container: 8, Index: 1})
	tab.storeSibling(5, 9, Integer(1))
	tab.storeSibling(6, 9, Integer(2)) // wrong container

	if tab.Status(NewReference(5, 0)) != StatusResolved {
		t.Error("sibling was not stored")
	}
	if tab.Status(NewReference(6, 0)) != StatusUnread {
		t.Error("object from another container was stored")
	}
}
