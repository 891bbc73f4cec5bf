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

// Package memfile provides an in-memory file which can be used both for
// writing PDF files and for reading them back.  This is used for buffered
// documents and for tests of incremental updates.
package memfile

import (
	"errors"
	"io"
)

// MemFile is an in-memory file.
//
// This type implements the [io.ReadWriteSeeker], [io.ReaderAt] and
// [io.WriterAt] interfaces.
type MemFile struct {
	// Data are the file contents.
	Data []byte

	// Offset is the current file offset.
	Offset int64
}

// New creates a new, empty MemFile.
func New() *MemFile {
	return &MemFile{}
}

// FromBytes creates a MemFile with the given contents.  The file offset is
// positioned at the end of the data, so that writes append.
func FromBytes(data []byte) *MemFile {
	return &MemFile{Data: data, Offset: int64(len(data))}
}

// Size returns the current length of the file.
func (f *MemFile) Size() int64 {
	return int64(len(f.Data))
}

// Write writes data at the current offset.
func (f *MemFile) Write(p []byte) (int, error) {
	n, err := f.WriteAt(p, f.Offset)
	f.Offset += int64(n)
	return n, err
}

// WriteAt writes data at the given offset.  Gaps are filled with zeros.
func (f *MemFile) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errInvalidOffset
	}
	if off > int64(len(f.Data)) {
		f.Data = append(f.Data, make([]byte, off-int64(len(f.Data)))...)
	}
	n := copy(f.Data[off:], p)
	if n < len(p) {
		f.Data = append(f.Data, p[n:]...)
	}
	return len(p), nil
}

// Read reads data from the current offset.
func (f *MemFile) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, f.Offset)
	f.Offset += int64(n)
	return n, err
}

// ReadAt reads data from the given offset.
func (f *MemFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errInvalidOffset
	}
	if off >= int64(len(f.Data)) {
		return 0, io.EOF
	}
	n := copy(p, f.Data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek sets the offset for the next Read or Write.
func (f *MemFile) Seek(offset int64, whence int) (int64, error) {
	var newOffset int64
	switch whence {
	case io.SeekStart:
		newOffset = offset
	case io.SeekCurrent:
		newOffset = f.Offset + offset
	case io.SeekEnd:
		newOffset = int64(len(f.Data)) + offset
	default:
		return 0, errInvalidWhence
	}
	if newOffset < 0 {
		return 0, errInvalidOffset
	}
	f.Offset = newOffset
	return newOffset, nil
}

var (
	errInvalidWhence = errors.New("invalid whence")
	errInvalidOffset = errors.New("invalid offset")
)
