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
	"strconv"
)

const (
	scannerBufSize = 4096
	maxNesting     = 256
)

// scanner reads PDF objects from a byte stream.
//
// If the scanner has access to an [io.ReaderAt] for the underlying data,
// stream objects can be read as well.  In this case the scanner can also
// jump to a different position in the data.
type scanner struct {
	r    io.Reader
	buf  []byte
	pos  int // read position in buf
	used int // number of valid bytes in buf

	base  int64 // file offset of the first byte read from r
	total int64 // number of bytes discarded from buf since reading from base

	ra     io.ReaderAt
	raSize int64

	// getInt is used to resolve indirect /Length entries of streams.
	// It may be nil.
	getInt func(Object) (Integer, error)

	depth int
}

func newScanner(r io.Reader, getInt func(Object) (Integer, error)) *scanner {
	return &scanner{
		r:      r,
		buf:    make([]byte, scannerBufSize),
		getInt: getInt,
	}
}

// newScannerAt returns a scanner which starts reading at byte offset pos
// of ra.
func newScannerAt(ra io.ReaderAt, size, pos int64, getInt func(Object) (Integer, error)) *scanner {
	s := newScanner(nil, getInt)
	s.ra = ra
	s.raSize = size
	s.seek(pos)
	return s
}

// ParseObject parses a single PDF object from buf.  References are
// returned as [Reference] values and are not resolved.
func ParseObject(buf []byte) (Object, error) {
	s := newScannerAt(bytes.NewReader(buf), int64(len(buf)), 0, nil)
	err := s.SkipWhiteSpace()
	if err != nil {
		return nil, err
	}
	obj, err := s.ReadObject()
	if err != nil {
		return nil, err
	}
	err = s.SkipWhiteSpace()
	if err != nil {
		return nil, err
	}
	if rest, _ := s.Peek(1); len(rest) > 0 {
		return nil, errorf(s.filePos(), errors.New("unexpected data after object"))
	}
	return obj, nil
}

func (s *scanner) filePos() int64 {
	return s.base + s.total + int64(s.pos)
}

// seek moves the scanner to byte offset pos of the underlying
// [io.ReaderAt].
func (s *scanner) seek(pos int64) {
	pos = min(max(pos, 0), s.raSize)
	s.r = io.NewSectionReader(s.ra, pos, s.raSize-pos)
	s.base = pos
	s.total = 0
	s.pos = 0
	s.used = 0
}

// ReadIndirectObject reads an object of the form "N G obj ... endobj".
func (s *scanner) ReadIndirectObject() (Object, Reference, error) {
	// Some files point the xref entries at the end of the previous line.
	// Try to fix this up by skipping any leading white space.
	err := s.SkipWhiteSpace()
	if err != nil {
		return nil, 0, err
	}

	start := s.filePos()
	number, err := s.ReadInteger()
	if err != nil {
		return nil, 0, err
	}
	err = s.SkipWhiteSpace()
	if err != nil {
		return nil, 0, err
	}
	generation, err := s.ReadInteger()
	if err != nil {
		return nil, 0, err
	}
	if number < 0 || number > 0xFFFFFFFF || generation < 0 || generation > 65535 {
		return nil, 0, errorf(start, errors.New("invalid object identifier"))
	}
	err = s.SkipWhiteSpace()
	if err != nil {
		return nil, 0, err
	}
	err = s.SkipString("obj")
	if err != nil {
		return nil, 0, err
	}
	err = s.SkipWhiteSpace()
	if err != nil {
		return nil, 0, err
	}

	ref := NewReference(uint32(number), uint16(generation))

	buf, err := s.Peek(6)
	if err != nil {
		return nil, 0, err
	}
	var obj Object
	if !bytes.HasPrefix(buf, []byte("endobj")) {
		obj, err = s.ReadObject()
		if err != nil {
			return nil, 0, err
		}
		err = s.SkipWhiteSpace()
		if err != nil {
			return nil, 0, err
		}
	}

	// A missing "endobj" is tolerated.
	buf, _ = s.Peek(6)
	if bytes.Equal(buf, []byte("endobj")) {
		s.pos += 6
	}

	return obj, ref, nil
}

// ReadObject reads one object, including the "N G R" form of references.
func (s *scanner) ReadObject() (Object, error) {
	buf, err := s.Peek(5) // len("false") == 5
	if err != nil {
		return nil, err
	}

	switch {
	case len(buf) == 0:
		// Test this first, so that we can use buf[0] in the following cases.
		return nil, errorf(s.filePos(), ErrTruncated)
	case bytes.HasPrefix(buf, []byte("null")):
		s.pos += 4
		return nil, nil
	case bytes.HasPrefix(buf, []byte("true")):
		s.pos += 4
		return Bool(true), nil
	case bytes.HasPrefix(buf, []byte("false")):
		s.pos += 5
		return Bool(false), nil
	case buf[0] == '/':
		return s.ReadName()
	case buf[0] >= '0' && buf[0] <= '9', buf[0] == '+', buf[0] == '-', buf[0] == '.':
		obj, err := s.ReadNumber()
		if err != nil {
			return nil, err
		}
		if x, isInt := obj.(Integer); isInt && x >= 0 && x <= 0xFFFFFFFF {
			if gen, ok := s.peekReference(); ok {
				return NewReference(uint32(x), gen), nil
			}
		}
		return obj, nil
	case bytes.HasPrefix(buf, []byte("<<")):
		if err := s.enter(); err != nil {
			return nil, err
		}
		defer s.leave()

		dict, err := s.ReadDict()
		if err != nil {
			return nil, err
		}

		// check whether this is the start of a stream
		err = s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}
		buf, _ = s.Peek(6) // len("stream") == 6
		if !bytes.Equal(buf, []byte("stream")) {
			return dict, nil
		}
		return s.ReadStreamData(dict)
	case buf[0] == '(':
		s.pos++
		return s.ReadQuotedString()
	case buf[0] == '<':
		s.pos++
		return s.ReadHexString()
	case buf[0] == '[':
		if err := s.enter(); err != nil {
			return nil, err
		}
		defer s.leave()
		s.pos++
		return s.ReadArray()
	}
	return nil, errorf(s.filePos(), fmt.Errorf("unexpected character %q", buf[0]))
}

func (s *scanner) enter() error {
	s.depth++
	if s.depth > maxNesting {
		return errorf(s.filePos(), errors.New("objects nested too deeply"))
	}
	return nil
}

func (s *scanner) leave() {
	s.depth--
}

// peekReference checks whether the input continues with "G R", where G
// is a generation number.  If so, this part of the input is consumed.
func (s *scanner) peekReference() (uint16, bool) {
	buf, _ := s.Peek(16)
	i := 0
	skip := func() {
		for i < len(buf) && isSpace[buf[i]] {
			i++
		}
	}
	skip()
	if i == 0 {
		return 0, false
	}
	j := i
	for i < len(buf) && buf[i] >= '0' && buf[i] <= '9' {
		i++
	}
	if i == j {
		return 0, false
	}
	gen, err := strconv.ParseUint(string(buf[j:i]), 10, 16)
	if err != nil {
		return 0, false
	}
	skip()
	if i >= len(buf) || buf[i] != 'R' {
		return 0, false
	}
	i++
	if i < len(buf) && !isSpace[buf[i]] && !isDelimiter[buf[i]] {
		return 0, false
	}
	s.pos += i
	return uint16(gen), true
}

// ReadInteger reads an integer.
func (s *scanner) ReadInteger() (Integer, error) {
	first := true
	var res []byte
	err := s.ScanBytes(func(c byte) bool {
		if first && (c == '+' || c == '-') {
			res = append(res, c)
		} else if c >= '0' && c <= '9' {
			res = append(res, c)
		} else {
			return false
		}
		first = false
		return true
	})
	if err != nil {
		return 0, err
	}

	x, err := strconv.ParseInt(string(res), 10, 64)
	if err != nil {
		return 0, errorf(s.filePos(), err)
	}
	return Integer(x), nil
}

// ReadNumber reads an integer or real number.
func (s *scanner) ReadNumber() (Object, error) {
	hasDot := false
	first := true
	var res []byte
	err := s.ScanBytes(func(c byte) bool {
		if !hasDot && c == '.' {
			hasDot = true
			res = append(res, c)
		} else if first && (c == '+' || c == '-') {
			res = append(res, c)
		} else if c >= '0' && c <= '9' {
			res = append(res, c)
		} else {
			return false
		}
		first = false
		return true
	})
	if err != nil {
		return nil, err
	}

	if hasDot {
		if string(res) == "." || string(res) == "-." || string(res) == "+." {
			return Real(0), nil
		}
		x, err := strconv.ParseFloat(string(res), 64)
		if err != nil {
			return nil, errorf(s.filePos(), err)
		}
		return Real(x), nil
	}

	x, err := strconv.ParseInt(string(res), 10, 64)
	if err != nil {
		// integers which overflow are read as reals
		y, err2 := strconv.ParseFloat(string(res), 64)
		if err2 != nil {
			return nil, errorf(s.filePos(), err)
		}
		return Real(y), nil
	}
	return Integer(x), nil
}

// ReadQuotedString reads a ()-delimited string, starting after the opening
// bracket.
func (s *scanner) ReadQuotedString() (String, error) {
	res := []byte{}
	parentCount := 0
	escape := false
	ignoreLF := false
	isOctal := 0
	octalVal := byte(0)
	err := s.ScanBytes(func(c byte) bool {
		if ignoreLF {
			ignoreLF = false
			if c == '\n' {
				return true
			}
		}
		if isOctal > 0 {
			if c >= '0' && c <= '7' {
				octalVal = octalVal*8 + (c - '0')
				isOctal--
				if isOctal == 0 {
					res = append(res, octalVal)
				}
				return true
			}
			// short octal escape
			res = append(res, octalVal)
			isOctal = 0
		}
		if escape {
			escape = false
			switch c {
			case '\n':
				return true
			case '\r':
				ignoreLF = true
				return true
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case 'b':
				c = '\b'
			case 'f':
				c = '\f'
			}
			if c >= '0' && c <= '7' {
				isOctal = 2
				octalVal = c - '0'
				return true
			}
		} else if c == '\\' {
			escape = true
			return true
		} else if c == '(' {
			parentCount++
		} else if c == ')' {
			if parentCount > 0 {
				parentCount--
			} else {
				return false
			}
		} else if c == '\r' {
			c = '\n'
			ignoreLF = true
		}
		res = append(res, c)
		return true
	})
	if err != nil {
		return nil, err
	}
	if isOctal > 0 {
		res = append(res, octalVal)
	}

	buf, _ := s.Peek(1)
	if len(buf) == 0 {
		return nil, errorf(s.filePos(), ErrTruncated)
	}
	s.pos++ // we have already seen the closing ")".
	return String(res), nil
}

// ReadHexString reads a <>-delimited string, starting after the opening
// angled bracket.
func (s *scanner) ReadHexString() (String, error) {
	res := []byte{}
	var hexVal byte
	first := true
	var bad error
	err := s.ScanBytes(func(c byte) bool {
		var d byte
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c == '>':
			return false
		case isSpace[c]:
			return true
		default:
			bad = errorf(s.filePos(), fmt.Errorf("invalid character %q in hex string", c))
			return false
		}
		if first {
			hexVal = d
		} else {
			res = append(res, 16*hexVal+d)
		}
		first = !first
		return true
	})
	if err != nil {
		return nil, err
	}
	if bad != nil {
		return nil, bad
	}
	if !first {
		res = append(res, 16*hexVal)
	}

	err = s.SkipString(">")
	if err != nil {
		return nil, err
	}
	return String(res), nil
}

// ReadName reads a PDF name object.
func (s *scanner) ReadName() (Name, error) {
	err := s.SkipString("/")
	if err != nil {
		return "", err
	}

	hex := 0
	var hexByte byte
	var res []byte
	err = s.ScanBytes(func(c byte) bool {
		if hex > 0 {
			var val byte
			switch {
			case c >= '0' && c <= '9':
				val = c - '0'
			case c >= 'A' && c <= 'F':
				val = c - 'A' + 10
			case c >= 'a' && c <= 'f':
				val = c - 'a' + 10
			}
			hexByte = 16*hexByte + val
			hex--
			if hex == 0 {
				res = append(res, hexByte)
			}
		} else if c == '#' {
			hexByte = 0
			hex = 2
		} else if isSpace[c] || isDelimiter[c] {
			return false
		} else {
			res = append(res, c)
		}
		return true
	})
	if err != nil && err != io.EOF {
		return "", err
	}

	return Name(res), nil
}

// ReadArray reads an array, starting after the opening "[".
func (s *scanner) ReadArray() (Array, error) {
	array := Array{}
	for {
		err := s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}

		buf, err := s.Peek(1)
		if err != nil {
			return nil, err
		}
		if len(buf) == 0 {
			return nil, errorf(s.filePos(), ErrTruncated)
		}
		if buf[0] == ']' {
			break
		}

		obj, err := s.ReadObject()
		if err != nil {
			return nil, err
		}
		array = append(array, obj)
	}
	s.pos++ // we have already seen the closing "]"

	return array, nil
}

// ReadDict reads a PDF dictionary.  The order of the entries is preserved.
// If a key occurs more than once, the last value wins.
func (s *scanner) ReadDict() (Dict, error) {
	err := s.SkipString("<<")
	if err != nil {
		return nil, err
	}

	dict := Dict{}
	for {
		err = s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}
		buf, err := s.Peek(2)
		if err != nil {
			return nil, err
		}
		if len(buf) == 0 {
			return nil, errorf(s.filePos(), ErrTruncated)
		}
		if bytes.Equal(buf, []byte(">>")) {
			break
		}
		if buf[0] != '/' {
			return nil, errorf(s.filePos(), fmt.Errorf("expected name but found %q", buf))
		}

		key, err := s.ReadName()
		if err != nil {
			return nil, err
		}
		err = s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}
		val, err := s.ReadObject()
		if err != nil {
			return nil, err
		}

		dict.Set(key, val)
	}
	s.pos += 2

	return dict, nil
}

// ReadStreamData reads the data of a PDF Stream, starting at the keyword
// "stream" after the dictionary.
//
// The /Length entry of the dictionary is only used as a hint: if the data
// is not followed by "endstream", the scanner searches for the keyword
// instead.
func (s *scanner) ReadStreamData(dict Dict) (*Stream, error) {
	if s.ra == nil {
		return nil, errorf(s.filePos(), errors.New("unexpected stream"))
	}

	err := s.SkipString("stream")
	if err != nil {
		return nil, err
	}
	buf, err := s.Peek(2)
	if err != nil {
		return nil, err
	}
	if len(buf) >= 2 && buf[0] == '\r' && buf[1] == '\n' {
		s.pos += 2
	} else if len(buf) >= 1 && (buf[0] == '\n' || buf[0] == '\r') {
		s.pos++
	}
	start := s.filePos()

	length := int64(-1)
	if lenObj := dict.Get("Length"); lenObj != nil {
		var l Integer
		var err error
		if x, ok := lenObj.(Integer); ok {
			l = x
		} else if s.getInt != nil {
			l, err = s.getInt(lenObj)
		} else {
			err = errors.New("indirect /Length")
		}
		if err == nil && l >= 0 && start+int64(l) <= s.raSize {
			length = int64(l)
		}
	}

	var end, next int64
	ok := false
	if length >= 0 {
		end = start + length
		next, ok = s.checkEndStream(end)
	}
	if !ok {
		end, next, err = s.findEndStream(start)
		if err != nil {
			return nil, err
		}
	}

	data := make([]byte, end-start)
	_, err = s.ra.ReadAt(data, start)
	if err != nil && !(err == io.EOF && end == s.raSize) {
		return nil, errorf(start, err)
	}
	s.seek(next)

	dict.Delete("Length")
	return &Stream{
		Dict: dict,
		Data: data,
	}, nil
}

var endstream = []byte("endstream")

// checkEndStream checks whether the stream data ending at end is followed
// by the "endstream" keyword, and returns the position after the keyword.
func (s *scanner) checkEndStream(end int64) (int64, bool) {
	buf := make([]byte, 32)
	n, _ := s.ra.ReadAt(buf, end)
	buf = buf[:n]
	i := 0
	for i < len(buf) && isSpace[buf[i]] {
		i++
	}
	if !bytes.HasPrefix(buf[i:], endstream) {
		return 0, false
	}
	return end + int64(i+len(endstream)), true
}

// findEndStream searches for the first "endstream" after start.  The
// end-of-line marker before the keyword is not part of the data.
func (s *scanner) findEndStream(start int64) (end, next int64, err error) {
	const chunk = 64 * 1024
	buf := make([]byte, chunk+len(endstream))
	for pos := start; pos < s.raSize; pos += chunk {
		n, err := s.ra.ReadAt(buf, pos)
		if err != nil && err != io.EOF {
			return 0, 0, errorf(pos, err)
		}
		idx := bytes.Index(buf[:n], endstream)
		if idx < 0 {
			continue
		}
		end = pos + int64(idx)
		next = end + int64(len(endstream))
		// strip the end-of-line marker before "endstream"
		if idx >= 1 && buf[idx-1] == '\n' {
			end--
			if idx >= 2 && buf[idx-2] == '\r' {
				end--
			}
		} else if idx >= 1 && buf[idx-1] == '\r' {
			end--
		}
		return max(end, start), next, nil
	}
	return 0, 0, errorf(start, fmt.Errorf("stream without endstream: %w", ErrTruncated))
}

// ReadKeyword reads a sequence of regular characters.
func (s *scanner) ReadKeyword() (string, error) {
	var res []byte
	err := s.ScanBytes(func(c byte) bool {
		if isSpace[c] || isDelimiter[c] {
			return false
		}
		res = append(res, c)
		return true
	})
	if err != nil && err != io.EOF {
		return "", err
	}
	return string(res), nil
}

// refill discards the read part of the buffer and reads as much new data as
// possible.  Once the end of file is reached, s.used will be smaller than the
// buffer size, but no error will be returned.
func (s *scanner) refill() error {
	s.total += int64(s.pos)
	copy(s.buf, s.buf[s.pos:s.used])
	s.used -= s.pos
	s.pos = 0

	n, err := io.ReadFull(s.r, s.buf[s.used:])
	s.used += n

	if err == io.ErrUnexpectedEOF || err == io.EOF {
		err = nil
	}
	return err
}

// Peek returns a view of the next n bytes of input.  The function panics, if n
// is larger than scannerBufSize.  On EOF, short buffers without an error code
// will be returned.
func (s *scanner) Peek(n int) ([]byte, error) {
	if n > scannerBufSize {
		panic("peek window too large")
	}

	var err error
	if s.pos+n > s.used {
		err = s.refill()
	}

	if s.pos+n > s.used {
		return s.buf[s.pos:s.used], err
	}

	return s.buf[s.pos : s.pos+n], nil
}

// ScanBytes calls accept for each byte of input, until accept returns
// false or the input is exhausted.  The byte for which accept returns false
// is not consumed.
func (s *scanner) ScanBytes(accept func(c byte) bool) error {
	for {
		for s.pos < s.used {
			if !accept(s.buf[s.pos]) {
				return nil
			}
			s.pos++
		}
		err := s.refill()
		if err != nil {
			return err
		}
		if s.used == 0 {
			return nil
		}
	}
}

// SkipWhiteSpace skips white space and comments.
func (s *scanner) SkipWhiteSpace() error {
	isComment := false
	return s.ScanBytes(func(c byte) bool {
		if isComment {
			if c == '\r' || c == '\n' {
				isComment = false
			}
		} else if c == '%' {
			isComment = true
		} else {
			return isSpace[c]
		}
		return true
	})
}

// SkipString consumes pat, or returns an error if the input does not
// continue with pat.
func (s *scanner) SkipString(pat string) error {
	patBytes := []byte(pat)
	n := len(patBytes)
	buf, err := s.Peek(n)
	if err != nil {
		return err
	}
	if len(buf) < n && bytes.HasPrefix(patBytes, buf) {
		return errorf(s.filePos(), ErrTruncated)
	}
	if !bytes.Equal(buf, patBytes) {
		return errorf(s.filePos(), fmt.Errorf("expected %q but found %q", pat, string(buf)))
	}
	s.pos += n
	return nil
}
