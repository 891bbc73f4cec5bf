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
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
)

// WriterOptions control how a PDF file is written.
// The zero value and nil are both valid and select the defaults.
type WriterOptions struct {
	// Version is the PDF version written to the file header.
	// The default is PDF 1.7.
	Version Version

	// Compress enables FlateDecode compression for streams written
	// using [Writer.OpenStream] without explicit filters.
	Compress bool

	// XRefStream selects a cross-reference stream instead of a
	// cross-reference table.  This requires PDF 1.5 or newer.
	XRefStream bool

	// ObjectStreams packs objects other than streams into object streams.
	// This implies XRefStream.
	ObjectStreams bool

	// ID is the file identifier.  If set, this must consist of two byte
	// strings.  If nil, an identifier is derived from the file contents.
	ID [][]byte

	// Logger receives debug information about the writing process.
	Logger *slog.Logger
}

// WriterState describes the life cycle of a [Writer].
type WriterState int

// These are the states of a [Writer].
const (
	StateBuilding WriterState = iota // objects can be added
	StateFlushing                    // the file is being written
	StateClosed                      // the file has been written
)

func (s WriterState) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateFlushing:
		return "flushing"
	case StateClosed:
		return "closed"
	default:
		return "WriterState(" + strconv.Itoa(int(s)) + ")"
	}
}

var (
	errNoRoot     = errors.New("document catalog not set")
	errIDFormat   = errors.New("file identifier must consist of two strings")
	errXRefStream = errors.New("cross-reference streams require PDF 1.5")
)

// Writer assembles a PDF document in memory.  Objects are allocated and
// defined while the writer is in the [StateBuilding] state.  [Writer.Flush]
// serializes all objects, the cross-reference index and the trailer with a
// single write to the underlying [io.Writer].
//
// A Writer is not safe for concurrent use.
type Writer struct {
	out    io.Writer
	closer io.Closer
	log    *slog.Logger

	version    Version
	compress   bool
	xrefStream bool
	objStreams bool
	id         [][]byte

	table      *Table
	root, info Reference
	state      WriterState

	// fields for incremental updates
	base     *Reader
	baseSize int64
}

// NewWriter prepares a new PDF file, to be written to w.
func NewWriter(w io.Writer, opt *WriterOptions) (*Writer, error) {
	pdf, err := newWriter(w, opt)
	if err != nil {
		return nil, err
	}
	pdf.table = NewTable()
	return pdf, nil
}

func newWriter(w io.Writer, opt *WriterOptions) (*Writer, error) {
	if opt == nil {
		opt = &WriterOptions{}
	}
	version := opt.Version
	if version == 0 {
		version = V1_7
	}
	if _, err := version.ToString(); err != nil {
		return nil, err
	}
	if opt.ID != nil && len(opt.ID) != 2 {
		return nil, errIDFormat
	}

	pdf := &Writer{
		out:        w,
		log:        logger(opt.Logger),
		version:    version,
		compress:   opt.Compress,
		xrefStream: opt.XRefStream || opt.ObjectStreams,
		objStreams: opt.ObjectStreams,
		id:         opt.ID,
	}
	if pdf.xrefStream && version < V1_5 {
		return nil, errXRefStream
	}
	return pdf, nil
}

// Create creates the named PDF file and opens it for output.  If a previous
// file with the same name exists, it is overwritten.  After writing is
// complete, [Writer.Close] must be called to write the file and to close
// it.
func Create(name string, opt *WriterOptions) (*Writer, error) {
	fd, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(fd, opt)
	if err != nil {
		fd.Close()
		return nil, err
	}
	w.closer = fd
	return w, nil
}

// NewIncrementalWriter prepares an incremental update of an existing PDF
// file.  The existing file, of length size, is read from base.  Only the
// appended bytes are written to out; the caller is responsible for placing
// them directly after the existing data.
//
// The objects of the existing file can be read using [Writer.Get] and
// replaced using [Writer.Put].  Only new and changed objects are written.
func NewIncrementalWriter(base io.ReaderAt, size int64, out io.Writer, opt *WriterOptions) (*Writer, error) {
	if opt == nil {
		opt = &WriterOptions{}
	}
	r, err := NewReader(base, size, &ReaderOptions{Logger: opt.Logger})
	if err != nil {
		return nil, err
	}

	opt2 := *opt
	if opt2.Version < r.Version() {
		opt2.Version = r.Version()
	}
	if opt2.ID == nil && r.ID() != nil {
		opt2.ID = [][]byte{r.ID()[0], nil}
	}
	opt2.XRefStream = opt.XRefStream || r.HasXRefStream()
	pdf, err := newWriter(out, &opt2)
	if err != nil {
		return nil, err
	}

	pdf.table = r.table
	if n, ok := r.trailer.Get("Size").(Integer); ok && n > 0 && n < 1<<32 && uint32(n) > pdf.table.next {
		pdf.table.next = uint32(n)
	}
	pdf.root = r.Root()
	pdf.info = r.Info()
	pdf.base = r
	pdf.baseSize = size
	return pdf, nil
}

// AppendFile opens the named PDF file for an incremental update.
// The update is appended to the file when [Writer.Close] is called.
func AppendFile(name string, opt *WriterOptions) (*Writer, error) {
	fd, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	fi, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, err
	}
	w, err := NewIncrementalWriter(fd, fi.Size(), io.NewOffsetWriter(fd, fi.Size()), opt)
	if err != nil {
		fd.Close()
		return nil, err
	}
	w.closer = fd
	return w, nil
}

// State returns the current state of the writer.
func (pdf *Writer) State() WriterState {
	return pdf.state
}

// Version returns the PDF version of the file being written.
func (pdf *Writer) Version() Version {
	return pdf.version
}

// Alloc allocates an object number for an indirect object.
// Once the writer has been flushed, Alloc returns 0.
func (pdf *Writer) Alloc() Reference {
	if pdf.state != StateBuilding {
		return 0
	}
	return pdf.table.Allocate()
}

// Put stores obj as the value of the indirect object ref.
// A previously stored value is replaced.
//
// Streams can only be stored as indirect objects.  If obj contains a
// [*Stream] inside a dictionary or array, Put fails.
func (pdf *Writer) Put(ref Reference, obj Object) error {
	if pdf.state != StateBuilding {
		return ErrWriterClosed
	}
	inner := obj
	if stm, isStream := obj.(*Stream); isStream && stm != nil {
		inner = stm.Dict
	}
	if containsStream(inner) {
		return &ObjectError{Ref: ref, Err: errDirectStream}
	}
	return pdf.table.Define(ref, obj)
}

var errDirectStream = errors.New("stream must be an indirect object")

// containsStream reports whether obj is a stream or has a stream among
// its direct elements, at any depth.
func containsStream(obj Object) bool {
	switch x := obj.(type) {
	case *Stream:
		return true
	case Dict:
		for _, e := range x {
			if containsStream(e.Value) {
				return true
			}
		}
	case Array:
		for _, elem := range x {
			if containsStream(elem) {
				return true
			}
		}
	}
	return false
}

// Free deletes the object ref.  The object must no longer be reachable
// from the document catalog or the information dictionary when the file
// is flushed.
func (pdf *Writer) Free(ref Reference) error {
	if pdf.state != StateBuilding {
		return ErrWriterClosed
	}
	return pdf.table.Free(ref)
}

// Get returns the value of the object ref.  For incremental updates, this
// includes objects of the existing file.
//
// This implements the [Getter] interface.
func (pdf *Writer) Get(ref Reference) (Object, error) {
	return pdf.table.Resolve(ref)
}

// Status reports the state of the object ref.
func (pdf *Writer) Status(ref Reference) Status {
	return pdf.table.Status(ref)
}

// SetRoot sets the document catalog.
func (pdf *Writer) SetRoot(ref Reference) error {
	if pdf.state != StateBuilding {
		return ErrWriterClosed
	}
	pdf.root = ref
	return nil
}

// SetInfo sets the document information dictionary.
func (pdf *Writer) SetInfo(ref Reference) error {
	if pdf.state != StateBuilding {
		return ErrWriterClosed
	}
	pdf.info = ref
	return nil
}

// Root returns the reference to the document catalog.
func (pdf *Writer) Root() Reference {
	return pdf.root
}

// OpenStream returns an io.WriteCloser which can be used to write the
// payload of the stream object ref.  The stream is stored when the
// returned writer is closed.
//
// The payload is encoded using the given filters.  If no filters are given
// and compression is enabled for the writer, FlateDecode is used.
func (pdf *Writer) OpenStream(ref Reference, dict Dict, filters ...Filter) (io.WriteCloser, error) {
	if pdf.state != StateBuilding {
		return nil, ErrWriterClosed
	}
	if pdf.table.Status(ref) == StatusUnknown {
		return nil, &ObjectError{Ref: ref, Err: ErrUnknownObject}
	}
	if len(filters) == 0 && pdf.compress {
		filters = []Filter{FilterFlate{}}
	}
	return &streamWriter{
		w:       pdf,
		ref:     ref,
		dict:    dict,
		filters: filters,
	}, nil
}

type streamWriter struct {
	w       *Writer
	ref     Reference
	dict    Dict
	filters []Filter
	buf     bytes.Buffer
	closed  bool
}

func (s *streamWriter) Write(p []byte) (int, error) {
	if s.closed {
		return 0, errors.New("write to closed stream")
	}
	return s.buf.Write(p)
}

func (s *streamWriter) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	stm, err := NewStream(s.dict, s.buf.Bytes(), s.filters...)
	if err != nil {
		return err
	}
	return s.w.Put(s.ref, stm)
}

// Close writes the file, if this has not happened yet, and closes the
// underlying file if the writer was created by [Create] or [AppendFile].
func (pdf *Writer) Close() error {
	if pdf.state == StateBuilding {
		err := pdf.Flush()
		if err != nil {
			return err
		}
	}
	if pdf.closer != nil {
		err := pdf.closer.Close()
		pdf.closer = nil
		return err
	}
	return nil
}

// Flush writes the complete file, or the incremental update, to the
// underlying writer.
//
// Before anything is written, all objects reachable from the document
// catalog and the information dictionary are checked.  If a reference
// points to an object which was allocated but never defined, an
// [*UnresolvedReferenceError] is returned.  In case of an error the writer
// stays in the [StateBuilding] state.
func (pdf *Writer) Flush() error {
	if pdf.state != StateBuilding {
		return ErrWriterClosed
	}
	if pdf.root == 0 {
		return errNoRoot
	}

	pdf.state = StateFlushing
	err := pdf.checkReferences()
	if err != nil {
		pdf.state = StateBuilding
		return err
	}

	out, stats, err := pdf.serialize()
	if err != nil {
		pdf.state = StateBuilding
		return err
	}

	_, err = pdf.out.Write(out)
	if err != nil {
		pdf.state = StateBuilding
		return err
	}
	pdf.state = StateClosed

	pdf.log.LogAttrs(context.Background(), slog.LevelDebug, "PDF written",
		slog.Int("objects", stats.objects),
		slog.Int("compressed", stats.compressed),
		slog.Int("free", stats.free),
		slog.Int("bytes", len(out)),
		slog.Bool("incremental", pdf.base != nil))
	return nil
}

// checkReferences verifies that every object reachable from the trailer
// has a value.
func (pdf *Writer) checkReferences() error {
	type item struct {
		from Reference
		obj  Object
	}
	var todo []item
	if pdf.root != 0 {
		todo = append(todo, item{0, pdf.root})
	}
	if pdf.info != 0 {
		todo = append(todo, item{0, pdf.info})
	}

	seen := make(map[Reference]bool)
	for len(todo) > 0 {
		it := todo[len(todo)-1]
		todo = todo[:len(todo)-1]

		switch x := it.obj.(type) {
		case Reference:
			if seen[x] {
				continue
			}
			seen[x] = true
			// A reference with a generation other than the current one
			// names an object which was never defined, or which has
			// been freed.
			if e, ok := pdf.table.Entry(x.Number()); !ok || e.Generation != x.Generation() {
				return &UnresolvedReferenceError{From: it.from, To: x}
			}
			switch pdf.table.Status(x) {
			case StatusUnknown, StatusUndefined:
				return &UnresolvedReferenceError{From: it.from, To: x}
			case StatusResolved:
				val, _ := pdf.table.Resolve(x)
				todo = append(todo, item{x, val})
			}
		case Dict:
			for _, e := range x {
				todo = append(todo, item{it.from, e.Value})
			}
		case Array:
			for _, val := range x {
				todo = append(todo, item{it.from, val})
			}
		case *Stream:
			if x != nil {
				todo = append(todo, item{it.from, x.Dict})
			}
		}
	}
	return nil
}

type flushStats struct {
	objects, compressed, free int
}

// serialize renders the file into memory.  The table is not modified.
func (pdf *Writer) serialize() ([]byte, *flushStats, error) {
	buf := &bytes.Buffer{}
	stats := &flushStats{}
	var startPos int64

	var nums []uint32
	if pdf.base == nil {
		versionString, _ := pdf.version.ToString()
		fmt.Fprintf(buf, "%%PDF-%s\n%%\x80\x80\x80\x80\n", versionString)
		for num := uint32(1); num <= pdf.table.MaxNumber(); num++ {
			nums = append(nums, num)
		}
	} else {
		startPos = pdf.baseSize
		if !pdf.baseEndsWithEOL() {
			buf.WriteByte('\n')
		}
		nums = pdf.table.dirtyNumbers()
	}
	pos := func() int64 { return startPos + int64(buf.Len()) }

	entries := make(map[uint32]xrefEntry)
	if pdf.base == nil {
		entries[0] = xrefEntry{Kind: EntryFree, Generation: 65535}
	}

	var packNums []uint32
	var packObjs []Object
	for _, num := range nums {
		e, ok := pdf.table.entries[num]
		if !ok || e.Kind == EntryFree || e.Status != StatusResolved {
			// Allocated but never defined objects are only detected by
			// checkReferences if they are reachable.
			gen := uint16(0)
			if ok {
				gen = e.Generation
				if e.Kind != EntryFree && e.Status == StatusUndefined {
					pdf.log.Debug("unused object number", "obj", NewReference(num, gen).String())
				}
			}
			entries[num] = xrefEntry{Kind: EntryFree, Generation: gen}
			stats.free++
			continue
		}

		ref := NewReference(num, e.Generation)
		if _, isStream := e.val.(*Stream); pdf.objStreams && !isStream && e.Generation == 0 {
			packNums = append(packNums, num)
			packObjs = append(packObjs, e.val)
			continue
		}

		entries[num] = xrefEntry{Kind: EntryInUse, Generation: e.Generation, Pos: pos()}
		err := writeIndirect(buf, ref, e.val)
		if err != nil {
			return nil, nil, err
		}
		stats.objects++
	}

	// Numbers for containers and the xref stream are assigned here without
	// touching the table, so that a failed flush can be retried.
	next := pdf.table.MaxNumber() + 1
	if pdf.base != nil {
		if n, ok := pdf.base.trailer.Get("Size").(Integer); ok && n > 0 && uint32(n) > next {
			next = uint32(n)
		}
	}
	for start := 0; start < len(packNums); start += maxObjStmSize {
		end := min(start+maxObjStmSize, len(packNums))
		stm, err := makeObjStm(packNums[start:end], packObjs[start:end])
		if err != nil {
			return nil, nil, err
		}
		container := next
		next++
		entries[container] = xrefEntry{Kind: EntryInUse, Pos: pos()}
		err = writeIndirect(buf, NewReference(container, 0), stm)
		if err != nil {
			return nil, nil, err
		}
		for i, num := range packNums[start:end] {
			entries[num] = xrefEntry{Kind: EntryCompressed, Container: container, Index: i}
			stats.compressed++
		}
		stats.objects++
	}

	trailer := Dict{}
	if pdf.root != 0 {
		trailer.Set("Root", pdf.root)
	}
	if pdf.info != 0 {
		trailer.Set("Info", pdf.info)
	}
	trailer.Set("ID", pdf.fileID(buf.Bytes()))
	if pdf.base != nil {
		trailer.Set("Prev", Integer(pdf.base.startXRef))
		// link newly freed objects from the head of the free list
		for _, e := range entries {
			if e.Kind == EntryFree {
				entries[0] = xrefEntry{Kind: EntryFree, Generation: 65535}
				break
			}
		}
	}

	xrefPos := pos()
	if pdf.xrefStream {
		self := next
		next++
		entries[self] = xrefEntry{Kind: EntryInUse, Pos: xrefPos}
		trailer = append(Dict{{"Size", Integer(next)}}, trailer...)
		stm, err := makeXRefStream(entries, trailer)
		if err != nil {
			return nil, nil, err
		}
		err = writeIndirect(buf, NewReference(self, 0), stm)
		if err != nil {
			return nil, nil, err
		}
	} else {
		trailer = append(Dict{{"Size", Integer(next)}}, trailer...)
		err := writeXRefTable(buf, entries, trailer)
		if err != nil {
			return nil, nil, err
		}
	}
	buf.WriteString(formatStartXRef(xrefPos))

	return buf.Bytes(), stats, nil
}

func writeIndirect(buf *bytes.Buffer, ref Reference, obj Object) error {
	fmt.Fprintf(buf, "%d %d obj\n", ref.Number(), ref.Generation())
	err := writeObject(buf, obj)
	if err != nil {
		return err
	}
	buf.WriteString("\nendobj\n")
	return nil
}

// fileID returns the /ID entry for the trailer.  Missing parts are derived
// from a digest of the file contents.
func (pdf *Writer) fileID(body []byte) Array {
	var id [2][]byte
	if pdf.id != nil {
		id[0], id[1] = pdf.id[0], pdf.id[1]
	}
	if id[0] == nil || id[1] == nil {
		h := md5.New()
		h.Write(body)
		fmt.Fprintf(h, "%d %d", pdf.baseSize, len(body))
		sum := h.Sum(nil)
		if id[0] == nil {
			id[0] = sum
		}
		if id[1] == nil {
			id[1] = sum
		}
	}
	return Array{String(id[0]), String(id[1])}
}

func (pdf *Writer) baseEndsWithEOL() bool {
	if pdf.baseSize == 0 {
		return true
	}
	var last [1]byte
	_, err := pdf.base.r.ReadAt(last[:], pdf.baseSize-1)
	return err == nil && (last[0] == '\n' || last[0] == '\r')
}
