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
	"strconv"
)

// maxObjStmSize is the largest number of objects placed into one object
// stream by the writer.
const maxObjStmSize = 100

// objStmEntry is one object inside an object stream.
type objStmEntry struct {
	Number uint32
	Offset int
}

// parseObjStm decodes an object stream and returns the index at the start
// of the decoded data, together with the decoded data.  Offsets in the
// returned index are relative to the start of the decoded data.
func parseObjStm(r Getter, stm *Stream) ([]objStmEntry, []byte, error) {
	if tp, _ := stm.Dict.Get("Type").(Name); tp != "ObjStm" {
		return nil, nil, fmt.Errorf("object stream has /Type %q", tp)
	}
	n, err := GetInt(r, stm.Dict.Get("N"))
	if err != nil {
		return nil, nil, err
	}
	first, err := GetInt(r, stm.Dict.Get("First"))
	if err != nil {
		return nil, nil, err
	}
	if n < 0 || n > 1_000_000 || first < 0 {
		return nil, nil, errors.New("invalid object stream header")
	}

	data, err := DecodeStream(r, stm)
	if err != nil {
		return nil, nil, err
	}
	if int64(first) > int64(len(data)) {
		return nil, nil, fmt.Errorf("object stream /First %d beyond end of data", first)
	}

	s := newScanner(bytes.NewReader(data[:first]), nil)
	idx := make([]objStmEntry, n)
	for i := range idx {
		err = s.SkipWhiteSpace()
		if err != nil {
			return nil, nil, err
		}
		num, err := s.ReadInteger()
		if err != nil {
			return nil, nil, err
		}
		err = s.SkipWhiteSpace()
		if err != nil {
			return nil, nil, err
		}
		offs, err := s.ReadInteger()
		if err != nil {
			return nil, nil, err
		}
		if num < 0 || num > 0xFFFFFFFF || offs < 0 || int64(first)+int64(offs) > int64(len(data)) {
			return nil, nil, errors.New("invalid object stream index")
		}
		idx[i] = objStmEntry{Number: uint32(num), Offset: int(first) + int(offs)}
	}
	return idx, data, nil
}

// readObjStmObject reads the object starting at offset of the decoded
// object stream data.  Streams are not allowed inside object streams.
func readObjStmObject(data []byte, offset int) (Object, error) {
	s := newScanner(bytes.NewReader(data[offset:]), nil)
	err := s.SkipWhiteSpace()
	if err != nil {
		return nil, err
	}
	return s.ReadObject()
}

// loadCompressed reads object ref from its object stream.  All other
// objects of the same container are stored in the table as well, so that
// the container needs to be decoded only once.
func (r *Reader) loadCompressed(ref Reference, info *EntryInfo) (Object, error) {
	container := NewReference(info.Container, 0)
	obj, err := r.table.Resolve(container)
	if err != nil {
		return nil, fmt.Errorf("object stream %s: %w", container, err)
	}
	stm, ok := obj.(*Stream)
	if !ok {
		return nil, fmt.Errorf("object stream %s: %w", container,
			&MalformedFileError{Err: fmt.Errorf("expected stream but got %T", obj)})
	}

	idx, data, err := parseObjStm(r, stm)
	if err != nil {
		return nil, fmt.Errorf("object stream %s: %w", container, err)
	}

	var res Object
	found := false
	for i, e := range idx {
		val, err := readObjStmObject(data, e.Offset)
		if i == info.Index {
			if e.Number != ref.Number() {
				return nil, &MalformedFileError{
					Loc: []string{"object stream " + container.String()},
					Err: fmt.Errorf("expected object %d at index %d, found %d: %w",
						ref.Number(), i, e.Number, ErrMalformedIndex),
				}
			}
			if err != nil {
				return nil, err
			}
			res = val
			found = true
			continue
		}
		if err != nil {
			r.log.Warn("unreadable object in object stream",
				"obj", NewReference(e.Number, 0).String(),
				"container", container.String(),
				"err", err)
			continue
		}
		if sib, ok := r.table.Entry(e.Number); ok && sib.Index == i {
			r.table.storeSibling(e.Number, info.Container, val)
		}
	}
	if !found {
		return nil, &MalformedFileError{
			Loc: []string{"object stream " + container.String()},
			Err: fmt.Errorf("index %d out of range: %w", info.Index, ErrMalformedIndex),
		}
	}
	return res, nil
}

// makeObjStm packs the given objects into an object stream.  The objects
// must not be streams.
func makeObjStm(nums []uint32, objs []Object) (*Stream, error) {
	head := &bytes.Buffer{}
	body := &bytes.Buffer{}
	for i, num := range nums {
		if i > 0 {
			head.WriteByte(' ')
			body.WriteByte('\n')
		}
		head.WriteString(strconv.FormatUint(uint64(num), 10))
		head.WriteByte(' ')
		head.WriteString(strconv.Itoa(body.Len()))
		err := writeObject(body, objs[i])
		if err != nil {
			return nil, err
		}
	}
	head.WriteByte('\n')

	dict := Dict{
		{"Type", Name("ObjStm")},
		{"N", Integer(len(nums))},
		{"First", Integer(head.Len())},
	}
	payload := append(head.Bytes(), body.Bytes()...)
	return NewStream(dict, payload, FilterFlate{})
}
