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
	"os"

	"golang.org/x/exp/slices"
)

// ReaderOptions control how a PDF file is read.
// The zero value and nil are both valid and select the defaults.
type ReaderOptions struct {
	// Logger receives messages about problems which were repaired or
	// which only affect individual objects.  If nil, nothing is logged.
	Logger *slog.Logger

	// StreamCacheSize is the number of bytes of decoded stream data kept
	// in memory.  The default is 16 MiB.  Use a negative value to disable
	// the cache.
	StreamCacheSize int
}

const defaultStreamCacheSize = 16 << 20

var errEncrypted = errors.New("encrypted PDF files are not supported")

// Reader represents a PDF file opened for reading.
//
// Objects are read lazily, the first time they are accessed.
// A Reader is not safe for concurrent use.  Different goroutines can use
// separate Readers for the same file.
type Reader struct {
	r      io.ReaderAt
	size   int64
	closer io.Closer
	log    *slog.Logger

	version   Version
	table     *Table
	trailer   Dict
	startXRef int64
	xrefChain []int64
	isStream  bool
	id        [][]byte

	// sectionFree holds the numbers listed as free by the classic table
	// of the section being read, while the section is read.
	sectionFree map[uint32]bool

	streams *streamCache
}

// Open opens the named PDF file for reading.  After use, [Reader.Close]
// must be called to close the underlying file.
func Open(fname string, opt *ReaderOptions) (*Reader, error) {
	fd, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	fi, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, err
	}
	r, err := NewReader(fd, fi.Size(), opt)
	if err != nil {
		fd.Close()
		return nil, err
	}
	r.closer = fd
	return r, nil
}

// NewReader reads the header and the cross-reference index of a PDF file.
// Objects are only read when they are needed.
func NewReader(data io.ReaderAt, size int64, opt *ReaderOptions) (*Reader, error) {
	if opt == nil {
		opt = &ReaderOptions{}
	}
	cacheSize := opt.StreamCacheSize
	if cacheSize == 0 {
		cacheSize = defaultStreamCacheSize
	}

	r := &Reader{
		r:       data,
		size:    size,
		log:     logger(opt.Logger),
		streams: newStreamCache(cacheSize),
	}
	if c, ok := data.(io.Closer); ok {
		r.closer = c
	}

	version, err := r.readHeader()
	if err != nil {
		return nil, err
	}
	r.version = version

	r.startXRef, err = r.findXRef()
	if err != nil {
		return nil, err
	}

	r.table = NewTable()
	r.table.load = r.loadObject
	trailer, err := r.readXRef(r.startXRef)
	if err != nil {
		return nil, err
	}
	r.table.markClean()
	r.trailer = trailer
	r.isStream = trailer.Get("Type") == Name("XRef")

	if trailer.Has("Encrypt") {
		return nil, errEncrypted
	}

	if _, ok := trailer.Get("Root").(Reference); !ok {
		return nil, &MalformedFileError{
			Pos: r.startXRef,
			Err: fmt.Errorf("missing /Root in trailer: %w", ErrMalformedIndex),
		}
	}

	if ids, ok := trailer.Get("ID").(Array); ok && len(ids) == 2 {
		for _, x := range ids {
			s, ok := x.(String)
			if !ok {
				break
			}
			r.id = append(r.id, []byte(s))
		}
		if len(r.id) != 2 {
			r.id = nil
		}
	}

	// The catalog can override the version from the file header.
	root, err := GetDict(r, trailer.Get("Root"))
	if err != nil {
		r.log.Warn("unreadable document catalog", "err", err)
	} else if name, ok := root.Get("Version").(Name); ok {
		if v, err := ParseVersion(string(name)); err == nil && v > r.version {
			r.version = v
		}
	}

	return r, nil
}

// readHeader finds the "%PDF-x.y" header in the first kilobyte of the file.
func (r *Reader) readHeader() (Version, error) {
	buf := make([]byte, min(r.size, 1024))
	n, err := r.r.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return 0, err
	}
	buf = buf[:n]

	idx := bytes.Index(buf, []byte("%PDF-"))
	if idx < 0 {
		return 0, &MalformedFileError{Err: ErrBadSignature}
	}
	if idx > 0 {
		r.log.Warn("garbage before PDF header", "bytes", idx)
	}
	tail := buf[idx+5:]
	if len(tail) < 3 {
		return 0, &MalformedFileError{Pos: int64(idx), Err: ErrBadSignature}
	}
	version, err := ParseVersion(string(tail[:3]))
	if err != nil {
		return 0, &MalformedFileError{
			Pos: int64(idx),
			Err: fmt.Errorf("%w: invalid version %q", ErrBadSignature, tail[:3]),
		}
	}
	return version, nil
}

func (r *Reader) loadObject(ref Reference, info *EntryInfo) (Object, error) {
	if info.Kind == EntryCompressed {
		return r.loadCompressed(ref, info)
	}

	s := newScannerAt(r.r, r.size, info.Offset, r.getLength)
	obj, fileRef, err := s.ReadIndirectObject()
	if err != nil {
		return nil, Wrap(err, "object "+ref.String())
	}
	if fileRef != ref {
		return nil, &MalformedFileError{
			Pos: info.Offset,
			Err: fmt.Errorf("expected %s but found %s: %w", ref, fileRef, ErrMalformedIndex),
		}
	}
	return obj, nil
}

// getLength resolves indirect /Length entries while reading streams.
func (r *Reader) getLength(obj Object) (Integer, error) {
	return GetInt(r, obj)
}

// Close closes the file underlying the reader.  This only has an effect if
// the reader was created using [Open], or if the [io.ReaderAt] passed to
// [NewReader] has a Close method.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Get returns the value of the indirect object ref.  References to free or
// unknown object numbers resolve to null.  If the object cannot be read, an
// [*ObjectError] is returned and the object is marked unreadable.
//
// This implements the [Getter] interface.
func (r *Reader) Get(ref Reference) (Object, error) {
	if _, ok := r.table.Entry(ref.Number()); !ok {
		return nil, nil
	}
	obj, err := r.table.Resolve(ref)
	if err != nil {
		r.log.Warn("unreadable object", "obj", ref.String(), "err", err)
		return nil, err
	}
	return obj, nil
}

// Resolve follows references until a direct object is found.
func (r *Reader) Resolve(obj Object) (Object, error) {
	return Resolve(r, obj)
}

// ReadStream returns the decoded payload of a stream.  The argument can be
// either a [*Stream] or a [Reference] to a stream.  The payload of streams
// given by reference is cached.  The returned slice belongs to the caller.
func (r *Reader) ReadStream(obj Object) ([]byte, error) {
	ref, isRef := obj.(Reference)
	if isRef {
		if data, ok := r.streams.Get(ref); ok {
			return bytes.Clone(data), nil
		}
	}

	stm, err := GetStream(r, obj)
	if err != nil {
		return nil, err
	}
	if stm == nil {
		return nil, &MalformedFileError{Err: errors.New("missing stream")}
	}
	data, err := DecodeStream(r, stm)
	if err != nil {
		if isRef {
			return nil, &ObjectError{Ref: ref, Err: err}
		}
		return nil, err
	}
	if isRef {
		// Without filters, data is the payload of the stored object.
		r.streams.Put(ref, data)
		return bytes.Clone(data), nil
	}
	return data, nil
}

// Trailer returns a copy of the trailer dictionary of the most recent
// update.  For files with a cross-reference stream, this is the stream
// dictionary.
func (r *Reader) Trailer() Dict {
	return r.trailer.Clone()
}

// Root returns the reference to the document catalog.
func (r *Reader) Root() Reference {
	ref, _ := r.trailer.Get("Root").(Reference)
	return ref
}

// Info returns the reference to the document information dictionary,
// or 0 if the file has none.
func (r *Reader) Info() Reference {
	ref, _ := r.trailer.Get("Info").(Reference)
	return ref
}

// Catalog decodes the document catalog.
func (r *Reader) Catalog() (*Catalog, error) {
	return DecodeCatalog(r, r.trailer.Get("Root"))
}

// DocumentInfo decodes the document information dictionary.
// If the file has no information dictionary, nil is returned.
func (r *Reader) DocumentInfo() (*Info, error) {
	obj := r.trailer.Get("Info")
	if obj == nil {
		return nil, nil
	}
	return DecodeInfo(r, obj)
}

// ID returns the file identifier, or nil if the file has none.
func (r *Reader) ID() [][]byte {
	return r.id
}

// Version returns the PDF version of the file.  The version in the file
// header can be overridden by the /Version entry of the catalog.
func (r *Reader) Version() Version {
	return r.version
}

// Size returns the length of the file in bytes.
func (r *Reader) Size() int64 {
	return r.size
}

// StartXRef returns the byte offset of the most recent cross-reference
// section.
func (r *Reader) StartXRef() int64 {
	return r.startXRef
}

// XRefChain returns the byte offsets of all cross-reference sections, most
// recent first, in the order in which they were followed.
func (r *Reader) XRefChain() []int64 {
	return slices.Clone(r.xrefChain)
}

// HasXRefStream reports whether the most recent update uses a
// cross-reference stream instead of a cross-reference table.
func (r *Reader) HasXRefStream() bool {
	return r.isStream
}

// Objects returns references to all objects which are not free, in order
// of increasing object number.
func (r *Reader) Objects() []Reference {
	nums := r.table.Numbers()
	res := make([]Reference, len(nums))
	for i, num := range nums {
		info, _ := r.table.Entry(num)
		res[i] = NewReference(num, info.Generation)
	}
	return res
}

// Status reports whether the object ref has been read, and whether it
// could be read.
func (r *Reader) Status(ref Reference) Status {
	return r.table.Status(ref)
}

// Entry returns the cross-reference information for an object number.
func (r *Reader) Entry(number uint32) (EntryInfo, bool) {
	return r.table.Entry(number)
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
