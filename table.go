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
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// EntryKind describes where the value of an object can be found.
type EntryKind uint8

// These are the possible kinds of object table entries.
const (
	EntryFree       EntryKind = iota // the object number is not in use
	EntryInUse                       // a top-level object, at a byte offset if read from a file
	EntryCompressed                  // an object inside an object stream
)

func (k EntryKind) String() string {
	switch k {
	case EntryFree:
		return "free"
	case EntryInUse:
		return "in-use"
	case EntryCompressed:
		return "compressed"
	default:
		return "invalid"
	}
}

// Status describes the materialization state of an object.
type Status uint8

// These are the possible values for [Status].
const (
	StatusUnknown    Status = iota // the object number was never allocated
	StatusFree                     // the object number is free
	StatusUndefined                // allocated, but no value has been stored yet
	StatusUnread                   // known from the index, not yet parsed
	StatusResolved                 // the value is in memory
	StatusUnreadable               // loading the object failed
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusFree:
		return "free"
	case StatusUndefined:
		return "undefined"
	case StatusUnread:
		return "unread"
	case StatusResolved:
		return "resolved"
	case StatusUnreadable:
		return "unreadable"
	default:
		return "invalid"
	}
}

// EntryInfo describes an object table entry.
type EntryInfo struct {
	Kind       EntryKind
	Generation uint16
	Offset     int64  // byte offset of "N G obj", for in-use entries read from a file
	Container  uint32 // object number of the object stream, for compressed entries
	Index      int    // index inside the object stream, for compressed entries
	Status     Status
}

type tableEntry struct {
	EntryInfo
	val   Object
	err   error
	dirty bool
}

// loaderFunc materializes the value of an object which is known from the
// cross-reference index but has not yet been read.
type loaderFunc func(ref Reference, info *EntryInfo) (Object, error)

// Table assigns and tracks object numbers for one document.
//
// Every entry is either free, in use at a byte offset, or compressed inside
// an object stream.  Entries which were discovered by reading the
// cross-reference index of a file are materialized lazily, on the first call
// to [Table.Resolve].
//
// A Table is not safe for concurrent use.
type Table struct {
	entries map[uint32]*tableEntry
	next    uint32
	load    loaderFunc
}

// NewTable returns an empty object table.  The first allocated object
// number is 1.
func NewTable() *Table {
	return &Table{
		entries: make(map[uint32]*tableEntry),
		next:    1,
	}
}

// Allocate returns a fresh reference.  Object numbers increase monotonically
// and are never reused; see [Table.Reuse] for the exception.
func (t *Table) Allocate() Reference {
	num := t.next
	t.next++
	t.entries[num] = &tableEntry{
		EntryInfo: EntryInfo{Kind: EntryInUse, Status: StatusUndefined},
		dirty:     true,
	}
	return NewReference(num, 0)
}

// Define stores val as the value of ref, replacing any previous value.
// Define fails with [ErrUnknownObject] if ref was never allocated, has been
// freed, or has a different generation number.
func (t *Table) Define(ref Reference, val Object) error {
	e := t.lookup(ref)
	if e == nil {
		return &ObjectError{Ref: ref, Err: ErrUnknownObject}
	}
	e.Kind = EntryInUse
	e.Container = 0
	e.Index = 0
	e.Status = StatusResolved
	e.val = val
	e.err = nil
	e.dirty = true
	return nil
}

// Resolve returns the value of ref.  Objects which have not been read yet
// are loaded, and the outcome (value or error) is remembered.
//
// A reference to a free object resolves to null.  Resolving an object
// number which is not in the table fails with [ErrUnknownObject].
func (t *Table) Resolve(ref Reference) (Object, error) {
	e, ok := t.entries[ref.Number()]
	if !ok {
		return nil, &ObjectError{Ref: ref, Err: ErrUnknownObject}
	}
	if e.Kind == EntryFree || e.Generation != ref.Generation() {
		return nil, nil
	}

	switch e.Status {
	case StatusResolved:
		return e.val, nil
	case StatusUnreadable:
		return nil, e.err
	case StatusUnread:
		if t.load == nil {
			return nil, &ObjectError{Ref: ref, Err: ErrUnknownObject}
		}
		// Mark the entry before loading, so that a reference cycle
		// through /Length entries cannot recurse forever.
		e.Status = StatusUnreadable
		e.err = &ObjectError{Ref: ref, Err: ErrCycleDetected}
		val, err := t.load(ref, &e.EntryInfo)
		if err != nil {
			if _, isObjErr := err.(*ObjectError); !isObjErr {
				err = &ObjectError{Ref: ref, Err: err}
			}
			e.err = err
			return nil, err
		}
		e.Status = StatusResolved
		e.val = val
		e.err = nil
		return val, nil
	}
	return nil, nil
}

// Retry resets an unreadable object, so that the next call to
// [Table.Resolve] tries to load it again.
func (t *Table) Retry(ref Reference) {
	if e := t.lookup(ref); e != nil && e.Status == StatusUnreadable {
		e.Status = StatusUnread
		e.err = nil
	}
}

// Free marks ref as deleted.  The generation number of the slot is
// incremented, so that stale references to the object resolve to null.
func (t *Table) Free(ref Reference) error {
	e := t.lookup(ref)
	if e == nil {
		return &ObjectError{Ref: ref, Err: ErrUnknownObject}
	}
	gen := e.Generation
	if gen < 65535 {
		gen++
	}
	*e = tableEntry{
		EntryInfo: EntryInfo{Kind: EntryFree, Generation: gen, Status: StatusFree},
		dirty:     true,
	}
	return nil
}

// Reuse makes a freed object number available again, and returns the
// reference for the new generation.  The new object has no value until
// [Table.Define] is called.
func (t *Table) Reuse(number uint32) (Reference, error) {
	e, ok := t.entries[number]
	if !ok || e.Kind != EntryFree || e.Generation == 65535 {
		return 0, &ObjectError{Ref: NewReference(number, 0), Err: ErrUnknownObject}
	}
	e.Kind = EntryInUse
	e.Status = StatusUndefined
	e.dirty = true
	return NewReference(number, e.Generation), nil
}

// Status reports the state of the object ref.
func (t *Table) Status(ref Reference) Status {
	e, ok := t.entries[ref.Number()]
	if !ok {
		return StatusUnknown
	}
	if e.Kind == EntryFree || e.Generation != ref.Generation() {
		return StatusFree
	}
	return e.Status
}

// Entry returns information about the entry for the given object number.
func (t *Table) Entry(number uint32) (EntryInfo, bool) {
	e, ok := t.entries[number]
	if !ok {
		return EntryInfo{}, false
	}
	return e.EntryInfo, true
}

// Numbers returns the object numbers of all entries which are not free,
// in increasing order.
func (t *Table) Numbers() []uint32 {
	var res []uint32
	for num, e := range t.entries {
		if e.Kind != EntryFree {
			res = append(res, num)
		}
	}
	slices.Sort(res)
	return res
}

// MaxNumber returns the largest object number in the table, free entries
// included.
func (t *Table) MaxNumber() uint32 {
	keys := maps.Keys(t.entries)
	if len(keys) == 0 {
		return 0
	}
	return slices.Max(keys)
}

// Size returns the value for the /Size entry of the trailer, i.e. one plus
// the largest object number.
func (t *Table) Size() int64 {
	return int64(t.MaxNumber()) + 1
}

func (t *Table) lookup(ref Reference) *tableEntry {
	e, ok := t.entries[ref.Number()]
	if !ok || e.Kind == EntryFree || e.Generation != ref.Generation() {
		return nil
	}
	return e
}

// dirtyNumbers returns the numbers of all entries changed since the table
// was populated from a file, in increasing order.
func (t *Table) dirtyNumbers() []uint32 {
	var res []uint32
	for num, e := range t.entries {
		if e.dirty {
			res = append(res, num)
		}
	}
	slices.Sort(res)
	return res
}

// addFromIndex records an entry discovered in a cross-reference index.
// Entries which are already present are kept, since indices are read from
// the newest to the oldest.  The return value reports whether the entry
// was added.
func (t *Table) addFromIndex(number uint32, info EntryInfo) bool {
	if _, seen := t.entries[number]; seen {
		return false
	}
	t.replaceFromIndex(number, info)
	return true
}

// replaceFromIndex records an entry discovered in a cross-reference index,
// replacing any previous entry for the same number.
func (t *Table) replaceFromIndex(number uint32, info EntryInfo) {
	if info.Kind == EntryFree {
		info.Status = StatusFree
	} else {
		info.Status = StatusUnread
	}
	t.entries[number] = &tableEntry{EntryInfo: info}
	if number >= t.next {
		t.next = number + 1
	}
}

// storeSibling records the value of an object which was found while
// decoding the object stream container.
func (t *Table) storeSibling(number uint32, container uint32, val Object) {
	e, ok := t.entries[number]
	if !ok || e.Kind != EntryCompressed || e.Container != container {
		return
	}
	if e.Status != StatusUnread {
		return
	}
	e.Status = StatusResolved
	e.val = val
}

// markClean clears the dirty flags, after a table has been populated from
// a file.
func (t *Table) markClean() {
	for _, e := range t.entries {
		e.dirty = false
	}
}
