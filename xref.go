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
	"io"
	"log/slog"
	"math/bits"
	"strconv"

	"golang.org/x/exp/slices"
)

const (
	// maxTrailerSearch bounds the backward scan for the end of the file.
	maxTrailerSearch = 1 << 20

	trailerChunkSize = 1024
)

// findXRef locates the final "%%EOF" marker and returns the offset given
// after the last "startxref" keyword before it.
func (r *Reader) findXRef() (int64, error) {
	eof, err := r.lastOccurrence("%%EOF", r.size)
	if err != nil {
		return 0, err
	}
	if eof < 0 {
		return 0, &MalformedFileError{
			Pos: r.size,
			Err: fmt.Errorf("%%%%EOF marker not found: %w", ErrTruncated),
		}
	}
	if r.hasContentAfter(eof + 5) {
		return 0, &MalformedFileError{
			Pos: eof,
			Err: fmt.Errorf("data after final %%%%EOF: %w", ErrTruncated),
		}
	}

	pos, err := r.lastOccurrence("startxref", eof)
	if err != nil {
		return 0, err
	}
	if pos < 0 {
		return 0, &MalformedFileError{
			Pos: eof,
			Err: fmt.Errorf("startxref not found: %w", ErrMalformedIndex),
		}
	}

	s := newScannerAt(r.r, r.size, pos+9, nil)
	err = s.SkipWhiteSpace()
	if err != nil {
		return 0, err
	}
	xRefPos, err := s.ReadInteger()
	if err != nil {
		return 0, &MalformedFileError{
			Pos: s.filePos(),
			Err: fmt.Errorf("invalid startxref value: %w", ErrMalformedIndex),
		}
	}
	if xRefPos < 0 {
		return 0, &MalformedFileError{
			Pos: s.filePos(),
			Err: fmt.Errorf("negative xref position: %w", ErrMalformedIndex),
		}
	}
	if int64(xRefPos) >= r.size {
		return 0, &MalformedFileError{
			Pos: s.filePos(),
			Err: fmt.Errorf("xref position %d after end of file: %w", xRefPos, ErrTruncated),
		}
	}
	return int64(xRefPos), nil
}

// lastOccurrence finds the last occurrence of pat which ends before end.
// At most maxTrailerSearch bytes before end are examined.  If pat is not
// found, -1 is returned.
func (r *Reader) lastOccurrence(pat string, end int64) (int64, error) {
	buf := make([]byte, trailerChunkSize)
	k := int64(len(pat))
	limit := max(end-maxTrailerSearch, 0)
	pos := end
	for pos-limit >= k {
		start := max(pos-trailerChunkSize, limit)
		n, err := r.r.ReadAt(buf[:pos-start], start)
		if err != nil && err != io.EOF {
			return 0, err
		}

		idx := bytes.LastIndex(buf[:n], []byte(pat))
		if idx >= 0 {
			return start + int64(idx), nil
		}
		if start == limit {
			break
		}
		pos = start + k - 1
	}
	return -1, nil
}

// hasContentAfter reports whether the file contains more PDF syntax after
// pos.  Arbitrary trailing garbage is tolerated, but objects or cross
// reference sections indicate that the last update was cut off.
func (r *Reader) hasContentAfter(pos int64) bool {
	n := min(r.size-pos, maxTrailerSearch)
	if n <= 0 {
		return false
	}
	buf := make([]byte, n)
	n2, _ := r.r.ReadAt(buf, pos)
	buf = buf[:n2]
	for _, kw := range []string{" obj", "endobj", "xref", "trailer", "startxref"} {
		if bytes.Contains(buf, []byte(kw)) {
			return true
		}
	}
	return false
}

// readXRef reads the chain of cross-reference sections, starting with the
// most recent one at start.  Entries from more recent sections take
// precedence.  The trailer dictionary of the most recent section is
// returned.
func (r *Reader) readXRef(start int64) (Dict, error) {
	var trailer Dict
	seen := make(map[int64]bool)
	pos := start
	for {
		if seen[pos] {
			return nil, &MalformedFileError{
				Pos: pos,
				Err: fmt.Errorf("loop in /Prev chain: %w", ErrCycleDetected),
			}
		}
		seen[pos] = true
		if pos < 0 || pos >= r.size {
			return nil, &MalformedFileError{
				Pos: pos,
				Err: fmt.Errorf("xref offset outside file: %w", ErrMalformedIndex),
			}
		}
		r.xrefChain = append(r.xrefChain, pos)

		s := newScannerAt(r.r, r.size, pos, nil)
		err := s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}
		buf, err := s.Peek(4)
		if err != nil {
			return nil, err
		}

		var dict Dict
		if bytes.Equal(buf, []byte("xref")) {
			r.sectionFree = make(map[uint32]bool)
			dict, err = r.readXRefTable(s)
			if err != nil {
				return nil, err
			}

			// hybrid-reference file
			if xRefStm, ok := dict.Get("XRefStm").(Integer); ok {
				if seen[int64(xRefStm)] {
					return nil, &MalformedFileError{
						Pos: int64(xRefStm),
						Err: fmt.Errorf("loop in /XRefStm: %w", ErrCycleDetected),
					}
				}
				seen[int64(xRefStm)] = true
				if xRefStm < 0 || int64(xRefStm) >= r.size {
					return nil, &MalformedFileError{
						Pos: int64(xRefStm),
						Err: fmt.Errorf("/XRefStm outside file: %w", ErrMalformedIndex),
					}
				}
				_, err = r.readXRefStream(newScannerAt(r.r, r.size, int64(xRefStm), nil))
				if err != nil {
					return nil, err
				}
			}
			r.sectionFree = nil
		} else {
			dict, err = r.readXRefStream(s)
			if err != nil {
				return nil, err
			}
		}

		if trailer == nil {
			trailer = dict
		}

		prev := dict.Get("Prev")
		if prev == nil {
			break
		}
		prevPos, ok := prev.(Integer)
		if !ok {
			return nil, &MalformedFileError{
				Pos: pos,
				Err: fmt.Errorf("invalid /Prev entry: %w", ErrMalformedIndex),
			}
		}
		pos = int64(prevPos)
	}

	err := r.checkContainers()
	if err != nil {
		return nil, err
	}
	return trailer, nil
}

// checkContainers verifies that all compressed objects refer to object
// streams which are top-level objects.
func (r *Reader) checkContainers() error {
	for _, num := range r.table.Numbers() {
		info, _ := r.table.Entry(num)
		if info.Kind != EntryCompressed {
			continue
		}
		c, ok := r.table.Entry(info.Container)
		if !ok || c.Kind != EntryInUse || c.Generation != 0 {
			return &MalformedFileError{
				Err: fmt.Errorf("object %d in invalid object stream %d: %w",
					num, info.Container, ErrMalformedIndex),
			}
		}
	}
	return nil
}

// readXRefTable reads a classic cross-reference table, starting at the
// "xref" keyword, and the following trailer dictionary.
func (r *Reader) readXRefTable(s *scanner) (Dict, error) {
	err := s.SkipString("xref")
	if err != nil {
		return nil, err
	}

	firstSection := true
	for {
		err = s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}
		buf, err := s.Peek(7)
		if err != nil {
			return nil, err
		}
		if bytes.Equal(buf, []byte("trailer")) {
			break
		}
		if len(buf) == 0 {
			return nil, &MalformedFileError{
				Pos: s.filePos(),
				Err: fmt.Errorf("xref table without trailer: %w", ErrTruncated),
			}
		}

		start, err := s.ReadInteger()
		if err != nil {
			return nil, markIndex(err)
		}
		err = s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}
		count, err := s.ReadInteger()
		if err != nil {
			return nil, markIndex(err)
		}
		if start < 0 || count < 0 || start+count > 1<<32 || int64(count) > r.size/18 {
			return nil, &MalformedFileError{
				Pos: s.filePos(),
				Err: fmt.Errorf("invalid xref subsection %d %d: %w", start, count, ErrMalformedIndex),
			}
		}

		err = r.decodeXRefSection(s, uint32(start), int(count), firstSection)
		if err != nil {
			return nil, err
		}
		firstSection = false
	}

	err = s.SkipString("trailer")
	if err != nil {
		return nil, err
	}
	err = s.SkipWhiteSpace()
	if err != nil {
		return nil, err
	}
	return s.ReadDict()
}

func (r *Reader) decodeXRefSection(s *scanner, start uint32, count int, firstSection bool) error {
	for i := 0; i < count; i++ {
		err := s.SkipWhiteSpace()
		if err != nil {
			return err
		}
		pos, err := s.ReadInteger()
		if err != nil {
			return markIndex(err)
		}
		err = s.SkipWhiteSpace()
		if err != nil {
			return err
		}
		gen, err := s.ReadInteger()
		if err != nil {
			return markIndex(err)
		}
		err = s.SkipWhiteSpace()
		if err != nil {
			return err
		}
		tp, err := s.ReadKeyword()
		if err != nil {
			return err
		}

		// Some writers start the table at object 1 instead of 0.
		if i == 0 && firstSection && start == 1 && tp == "f" && gen >= 65535 {
			start = 0
		}
		// "0000000000 65536 f" is a common mistake for the head of the free list.
		gen = min(max(gen, 0), 65535)

		num := start + uint32(i)
		switch tp {
		case "n":
			if pos == 0 {
				r.log.Warn("xref entry with offset 0, treated as free",
					slog.Int("obj", int(num)))
				r.addEntry(num, EntryInfo{Kind: EntryFree, Generation: uint16(gen)})
				continue
			}
			if pos < 0 || int64(pos) >= r.size {
				return &MalformedFileError{
					Pos: s.filePos(),
					Err: fmt.Errorf("object %d at offset %d outside file: %w", num, pos, ErrMalformedIndex),
				}
			}
			r.addEntry(num, EntryInfo{
				Kind:       EntryInUse,
				Generation: uint16(gen),
				Offset:     int64(pos),
			})
		case "f":
			r.addEntry(num, EntryInfo{Kind: EntryFree, Generation: uint16(gen)})
		default:
			return &MalformedFileError{
				Pos: s.filePos(),
				Err: fmt.Errorf("invalid xref entry type %q: %w", tp, ErrMalformedIndex),
			}
		}
	}
	return nil
}

// addEntry records an entry of the cross-reference section being read.
//
// In hybrid files, objects stored in object streams are often listed as
// free in the classic table, and the /XRefStm stream of the same section
// gives their real location.  Such free entries are replaced.
func (r *Reader) addEntry(num uint32, info EntryInfo) {
	if info.Kind != EntryFree && r.sectionFree[num] {
		delete(r.sectionFree, num)
		r.table.replaceFromIndex(num, info)
		return
	}
	added := r.table.addFromIndex(num, info)
	if added && info.Kind == EntryFree && r.sectionFree != nil {
		r.sectionFree[num] = true
	}
}

// readXRefStream reads a cross-reference stream and returns its dictionary.
func (r *Reader) readXRefStream(s *scanner) (Dict, error) {
	obj, ref, err := s.ReadIndirectObject()
	if err != nil {
		return nil, markIndex(err)
	}
	stm, ok := obj.(*Stream)
	if !ok {
		return nil, &MalformedFileError{
			Loc: []string{"object " + ref.String()},
			Err: fmt.Errorf("xref stream is not a stream: %w", ErrMalformedIndex),
		}
	}
	if tp, _ := stm.Dict.Get("Type").(Name); tp != "XRef" {
		return nil, &MalformedFileError{
			Loc: []string{"object " + ref.String()},
			Err: fmt.Errorf("xref stream has /Type %q: %w", tp, ErrMalformedIndex),
		}
	}

	size, w, index, err := checkXRefStreamDict(stm.Dict)
	if err != nil {
		return nil, Wrap(err, "object "+ref.String())
	}

	data, err := DecodeStream(nil, stm)
	if err != nil {
		return nil, &MalformedFileError{
			Loc: []string{"object " + ref.String()},
			Err: fmt.Errorf("cannot decode xref stream: %w: %w", ErrMalformedIndex, err),
		}
	}

	err = r.decodeXRefStream(data, size, w, index)
	if err != nil {
		return nil, Wrap(err, "object "+ref.String())
	}

	// The xref stream is an object in its own right.  Older sections
	// may list its number as free, the entry here takes precedence.
	return stm.Dict, nil
}

func checkXRefStreamDict(dict Dict) (int64, []int, []int64, error) {
	size, ok := dict.Get("Size").(Integer)
	if !ok || size < 0 || size > 1<<32 {
		return 0, nil, nil, &MalformedFileError{
			Err: fmt.Errorf("invalid /Size in xref stream: %w", ErrMalformedIndex),
		}
	}

	wObj, _ := dict.Get("W").(Array)
	if len(wObj) < 3 {
		return 0, nil, nil, &MalformedFileError{
			Err: fmt.Errorf("invalid /W in xref stream: %w", ErrMalformedIndex),
		}
	}
	w := make([]int, len(wObj))
	for i, x := range wObj {
		xi, ok := x.(Integer)
		if !ok || xi < 0 || xi > 8 {
			return 0, nil, nil, &MalformedFileError{
				Err: fmt.Errorf("invalid /W entry in xref stream: %w", ErrMalformedIndex),
			}
		}
		w[i] = int(xi)
	}

	var index []int64
	switch ind := dict.Get("Index").(type) {
	case nil:
		index = []int64{0, int64(size)}
	case Array:
		if len(ind)%2 != 0 {
			return 0, nil, nil, &MalformedFileError{
				Err: fmt.Errorf("odd length of /Index in xref stream: %w", ErrMalformedIndex),
			}
		}
		for _, x := range ind {
			xi, ok := x.(Integer)
			if !ok || xi < 0 || xi > 1<<32 {
				return 0, nil, nil, &MalformedFileError{
					Err: fmt.Errorf("invalid /Index entry in xref stream: %w", ErrMalformedIndex),
				}
			}
			index = append(index, int64(xi))
		}
	default:
		return 0, nil, nil, &MalformedFileError{
			Err: fmt.Errorf("invalid /Index in xref stream: %w", ErrMalformedIndex),
		}
	}

	return int64(size), w, index, nil
}

func (r *Reader) decodeXRefStream(data []byte, size int64, w []int, index []int64) error {
	rowLen := 0
	for _, wi := range w {
		rowLen += wi
	}
	if rowLen == 0 {
		return &MalformedFileError{Err: fmt.Errorf("empty xref rows: %w", ErrMalformedIndex)}
	}

	field := func(row []byte, k int) (uint64, bool) {
		start := 0
		for i := 0; i < k; i++ {
			start += w[i]
		}
		if w[k] == 0 {
			return 0, false
		}
		var x uint64
		for _, b := range row[start : start+w[k]] {
			x = x<<8 | uint64(b)
		}
		return x, true
	}

	for i := 0; i < len(index); i += 2 {
		start, count := index[i], index[i+1]
		if start+count > 1<<32 {
			return &MalformedFileError{Err: fmt.Errorf("/Index out of range: %w", ErrMalformedIndex)}
		}
		for j := int64(0); j < count; j++ {
			if len(data) < rowLen {
				return &MalformedFileError{
					Err: fmt.Errorf("xref stream data too short: %w", ErrMalformedIndex),
				}
			}
			row := data[:rowLen]
			data = data[rowLen:]
			num := uint32(start + j)

			tp, ok := field(row, 0)
			if !ok {
				tp = 1
			}
			f2, _ := field(row, 1)
			f3, _ := field(row, 2)

			switch tp {
			case 0:
				r.addEntry(num, EntryInfo{Kind: EntryFree, Generation: uint16(min(f3, 65535))})
			case 1:
				if f2 >= uint64(r.size) {
					return &MalformedFileError{
						Err: fmt.Errorf("object %d at offset %d outside file: %w", num, f2, ErrMalformedIndex),
					}
				}
				r.addEntry(num, EntryInfo{
					Kind:       EntryInUse,
					Generation: uint16(min(f3, 65535)),
					Offset:     int64(f2),
				})
			case 2:
				if f2 > 0xFFFFFFFF {
					return &MalformedFileError{
						Err: fmt.Errorf("invalid object stream number: %w", ErrMalformedIndex),
					}
				}
				r.addEntry(num, EntryInfo{
					Kind:      EntryCompressed,
					Container: uint32(f2),
					Index:     int(f3),
				})
			default:
				// Entries of unknown type are treated as references to
				// the null object.
			}
		}
	}
	return nil
}

// markIndex attaches [ErrMalformedIndex] to syntax errors found while
// reading an index.  Truncation errors are passed through unchanged.
func markIndex(err error) error {
	if errors.Is(err, ErrTruncated) || errors.Is(err, ErrMalformedIndex) {
		return err
	}
	var e *MalformedFileError
	if errors.As(err, &e) {
		return &MalformedFileError{Pos: e.Pos, Loc: e.Loc, Err: fmt.Errorf("%w: %w", ErrMalformedIndex, e.Err)}
	}
	return err
}

// xrefEntry is the location of one object, as written to an index.
type xrefEntry struct {
	Kind       EntryKind
	Generation uint16
	Pos        int64  // offset for in-use objects
	Container  uint32 // object stream for compressed objects
	Index      int
}

// subsections splits a sorted list of object numbers into runs of
// consecutive numbers.  The result holds pairs of (first, count).
func subsections(nums []uint32) [][2]uint32 {
	var res [][2]uint32
	for i := 0; i < len(nums); {
		j := i + 1
		for j < len(nums) && nums[j] == nums[j-1]+1 {
			j++
		}
		res = append(res, [2]uint32{nums[i], uint32(j - i)})
		i = j
	}
	return res
}

// writeXRefTable writes a classic cross-reference table and the trailer
// dictionary.  Free entries are linked into a list, in increasing order.
func writeXRefTable(w io.Writer, entries map[uint32]xrefEntry, trailer Dict) error {
	nums := make([]uint32, 0, len(entries))
	for num := range entries {
		nums = append(nums, num)
	}
	slices.Sort(nums)

	nextFree := make(map[uint32]uint32)
	var free []uint32
	for _, num := range nums {
		if entries[num].Kind == EntryFree {
			free = append(free, num)
		}
	}
	for i, num := range free {
		if i+1 < len(free) {
			nextFree[num] = free[i+1]
		} else {
			nextFree[num] = 0
		}
	}

	_, err := io.WriteString(w, "xref\n")
	if err != nil {
		return err
	}
	for _, sub := range subsections(nums) {
		_, err = fmt.Fprintf(w, "%d %d\n", sub[0], sub[1])
		if err != nil {
			return err
		}
		for num := sub[0]; num < sub[0]+sub[1]; num++ {
			e := entries[num]
			if e.Kind == EntryFree {
				_, err = fmt.Fprintf(w, "%010d %05d f\r\n", nextFree[num], e.Generation)
			} else {
				_, err = fmt.Fprintf(w, "%010d %05d n\r\n", e.Pos, e.Generation)
			}
			if err != nil {
				return err
			}
		}
	}

	_, err = io.WriteString(w, "trailer\n")
	if err != nil {
		return err
	}
	err = trailer.PDF(w)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// makeXRefStream builds a cross-reference stream for the given entries.
// The caller must include the entry for the stream itself.
func makeXRefStream(entries map[uint32]xrefEntry, trailer Dict) (*Stream, error) {
	nums := make([]uint32, 0, len(entries))
	for num := range entries {
		nums = append(nums, num)
	}
	slices.Sort(nums)

	var max2, max3 uint64
	for _, e := range entries {
		switch e.Kind {
		case EntryInUse:
			max2 = max(max2, uint64(e.Pos))
			max3 = max(max3, uint64(e.Generation))
		case EntryCompressed:
			max2 = max(max2, uint64(e.Container))
			max3 = max(max3, uint64(e.Index))
		case EntryFree:
			max3 = max(max3, uint64(e.Generation))
		}
	}
	w2 := max((bits.Len64(max2)+7)/8, 1)
	w3 := max((bits.Len64(max3)+7)/8, 1)
	rowLen := 1 + w2 + w3

	nextFree := make(map[uint32]uint32)
	var prevFree uint32
	hasPrev := false
	for _, num := range nums {
		if entries[num].Kind == EntryFree {
			if hasPrev {
				nextFree[prevFree] = num
			}
			prevFree = num
			hasPrev = true
		}
	}

	data := make([]byte, 0, rowLen*len(nums))
	for _, num := range nums {
		e := entries[num]
		switch e.Kind {
		case EntryFree:
			data = append(data, 0)
			data = appendUint(data, uint64(nextFree[num]), w2)
			data = appendUint(data, uint64(e.Generation), w3)
		case EntryInUse:
			data = append(data, 1)
			data = appendUint(data, uint64(e.Pos), w2)
			data = appendUint(data, uint64(e.Generation), w3)
		case EntryCompressed:
			data = append(data, 2)
			data = appendUint(data, uint64(e.Container), w2)
			data = appendUint(data, uint64(e.Index), w3)
		}
	}

	dict := Dict{
		{"Type", Name("XRef")},
		{"W", Array{Integer(1), Integer(w2), Integer(w3)}},
	}
	subs := subsections(nums)
	if len(subs) != 1 || subs[0][0] != 0 {
		var index Array
		for _, sub := range subs {
			index = append(index, Integer(sub[0]), Integer(sub[1]))
		}
		dict.Set("Index", index)
	}
	for _, e := range trailer {
		dict.Set(e.Key, e.Value)
	}

	return NewStream(dict, data, FilterFlate{Predictor: 12, Columns: rowLen})
}

func appendUint(buf []byte, x uint64, width int) []byte {
	for i := width - 1; i >= 0; i-- {
		buf = append(buf, byte(x>>(8*i)))
	}
	return buf
}

// formatStartXRef returns the file tail pointing at the index at pos.
func formatStartXRef(pos int64) string {
	return "startxref\n" + strconv.FormatInt(pos, 10) + "\n%%EOF\n"
}
