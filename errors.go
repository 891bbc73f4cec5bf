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
	"strconv"
	"strings"
)

// The following errors can be tested for using [errors.Is].
var (
	// ErrMalformedIndex indicates a cross-reference index which cannot be
	// used, for example because an entry points outside the file.
	ErrMalformedIndex = errors.New("malformed cross-reference index")

	// ErrCycleDetected indicates that a chain of references loops back on
	// itself where this is not allowed.
	ErrCycleDetected = errors.New("reference cycle detected")

	// ErrTruncated indicates that the file ends before a structure which
	// is required to read it.
	ErrTruncated = errors.New("truncated PDF file")

	// ErrBadSignature indicates that the data does not start with a PDF
	// header.
	ErrBadSignature = errors.New("PDF header not found")

	// ErrCorruptStream indicates that stream data could not be decoded.
	ErrCorruptStream = errors.New("corrupt stream data")

	// ErrUnsupportedFilter indicates a stream filter which cannot be
	// applied.
	ErrUnsupportedFilter = errors.New("unsupported filter")

	// ErrUnknownObject indicates an object number which was never
	// allocated.
	ErrUnknownObject = errors.New("unknown object")

	// ErrUnresolvedReference indicates a reference to an object which was
	// allocated but never given a value.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrWriterClosed is returned when a writer is modified after it has
	// been flushed.
	ErrWriterClosed = errors.New("PDF writer is closed")
)

// MalformedFileError indicates that a PDF file could not be parsed.
// Loc lists the objects being read when the problem was found, outermost
// first.
type MalformedFileError struct {
	Pos int64
	Loc []string
	Err error
}

func (err *MalformedFileError) Error() string {
	middle := ""
	if err.Err != nil {
		middle = ": " + err.Err.Error()
	}
	tail := ""
	if err.Pos > 0 {
		tail = " (at byte " + strconv.FormatInt(err.Pos, 10) + ")"
	}
	loc := ""
	if len(err.Loc) > 0 {
		loc = " in " + strings.Join(err.Loc, ", ")
	}
	return "not a valid PDF file" + loc + middle + tail
}

func (err *MalformedFileError) Unwrap() error {
	return err.Err
}

// ObjectError reports a problem with a single object.  The rest of the file
// can still be read.
type ObjectError struct {
	Ref Reference
	Err error
}

func (err *ObjectError) Error() string {
	return "object " + err.Ref.String() + ": " + err.Err.Error()
}

func (err *ObjectError) Unwrap() error {
	return err.Err
}

// UnsupportedFilterError is returned when a stream uses a filter which
// cannot be decoded.
type UnsupportedFilterError struct {
	Name Name
}

func (err *UnsupportedFilterError) Error() string {
	return "unsupported filter " + string(err.Name)
}

func (err *UnsupportedFilterError) Is(target error) bool {
	return target == ErrUnsupportedFilter
}

// UnresolvedReferenceError is returned by [Writer.Flush] when a reachable
// object refers to an object which has no value.
type UnresolvedReferenceError struct {
	From Reference // 0 if the dangling reference is in the trailer
	To   Reference
}

func (err *UnresolvedReferenceError) Error() string {
	from := "trailer"
	if err.From != 0 {
		from = err.From.String()
	}
	return "unresolved reference from " + from + " to " + err.To.String()
}

func (err *UnresolvedReferenceError) Is(target error) bool {
	return target == ErrUnresolvedReference
}

func errorf(pos int64, err error) error {
	return &MalformedFileError{Pos: pos, Err: err}
}

// Wrap adds location information to a [MalformedFileError].
// Other errors are returned unchanged.
func Wrap(err error, loc string) error {
	var e *MalformedFileError
	if !errors.As(err, &e) {
		return err
	}
	return &MalformedFileError{
		Pos: e.Pos,
		Loc: append([]string{loc}, e.Loc...),
		Err: e.Err,
	}
}
