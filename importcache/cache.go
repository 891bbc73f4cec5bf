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

// Package importcache stores object subgraphs extracted from external PDF
// files, so that repeated imports of the same resource do not need to
// parse the source file again.
//
// The cache is a bbolt database.  Keys combine a digest of the source file
// with a description of the selected resource, values are msgpack-encoded
// subgraphs.
package importcache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	"github.com/texpdf/pdf"
)

// Options control how a cache is opened.
// The zero value and nil are both valid.
type Options struct {
	// Bucket is the name of the bbolt bucket used for the cache.
	// The default is "subgraphs".
	Bucket string

	// Timeout is how long Open waits for the file lock.
	// The default is 10 seconds.
	Timeout time.Duration

	// NoSync disables fsync after each write.  This is useful for tests.
	NoSync bool

	// Logger receives information about corrupt cache entries.
	Logger *slog.Logger
}

// Cache is a persistent store of subgraphs.
// A Cache is safe for concurrent use.
type Cache struct {
	db     *bbolt.DB
	bucket []byte
	log    *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats summarizes the use of a cache.
type Stats struct {
	Entries int   // number of stored subgraphs
	Hits    int64 // successful lookups since the cache was opened
	Misses  int64 // failed lookups since the cache was opened
}

// ErrCorruptEntry is returned by [Cache.Get] when a stored value cannot
// be decoded.
var ErrCorruptEntry = errors.New("corrupt cache entry")

// Open opens the cache database at path, creating it if needed.
func Open(path string, opt *Options) (*Cache, error) {
	if opt == nil {
		opt = &Options{}
	}
	bucket := opt.Bucket
	if bucket == "" {
		bucket = "subgraphs"
	}

	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = opt.Timeout
	if bopt.Timeout == 0 {
		bopt.Timeout = 10 * time.Second
	}
	if opt.NoSync {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
	}

	db, err := bbolt.Open(path, 0o666, bopt)
	if err != nil {
		return nil, fmt.Errorf("importcache: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("importcache: %w", err)
	}

	log := opt.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		db:     db,
		bucket: []byte(bucket),
		log:    log,
	}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Digest returns the digest of a source file, for use in [Key].
func Digest(source []byte) uint64 {
	return xxhash.Sum64(source)
}

// Key returns the cache key for the resource described by selector in the
// source file with the given digest.
func Key(digest uint64, selector string) []byte {
	key := make([]byte, 8, 8+len(selector))
	binary.BigEndian.PutUint64(key, digest)
	return append(key, selector...)
}

// Get returns the subgraph stored under key.  The second return value
// reports whether the key was found.
func (c *Cache) Get(key []byte) (*pdf.Subgraph, bool, error) {
	var buf []byte
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(c.bucket)
		if v := b.Get(key); v != nil {
			// bbolt values are only valid during the transaction
			buf = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("importcache: %w", err)
	}
	if buf == nil {
		c.misses.Add(1)
		return nil, false, nil
	}

	g, err := decodeSubgraph(buf)
	if err != nil {
		c.misses.Add(1)
		c.log.Warn("corrupt cache entry", slog.String("key", fmt.Sprintf("%x", key)), slog.Any("err", err))
		return nil, false, fmt.Errorf("importcache: %w: %w", ErrCorruptEntry, err)
	}
	c.hits.Add(1)
	return g, true, nil
}

// Put stores g under key, replacing any previous value.
func (c *Cache) Put(key []byte, g *pdf.Subgraph) error {
	buf, err := encodeSubgraph(g)
	if err != nil {
		return fmt.Errorf("importcache: %w", err)
	}
	err = c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(c.bucket).Put(key, buf)
	})
	if err != nil {
		return fmt.Errorf("importcache: %w", err)
	}
	return nil
}

// Delete removes the entry for key, if any.
func (c *Cache) Delete(key []byte) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(c.bucket).Delete(key)
	})
}

// Stats returns usage statistics for the cache.
func (c *Cache) Stats() Stats {
	s := Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
	c.db.View(func(tx *bbolt.Tx) error {
		s.Entries = tx.Bucket(c.bucket).Stats().KeyN
		return nil
	})
	return s
}

// record is the msgpack representation of a subgraph.
type record struct {
	Root       uint64         `msgpack:"root"`
	Objects    []recordObject `msgpack:"objects"`
	Unreadable []uint64       `msgpack:"unreadable,omitempty"`
}

// recordObject holds one object in its PDF syntax.  For streams, Body is
// the stream dictionary and Data the encoded payload.
type recordObject struct {
	Ref      uint64 `msgpack:"ref"`
	Body     []byte `msgpack:"body"`
	IsStream bool   `msgpack:"stream,omitempty"`
	Data     []byte `msgpack:"data,omitempty"`
}

func encodeSubgraph(g *pdf.Subgraph) ([]byte, error) {
	rec := &record{
		Root:    uint64(g.Root),
		Objects: make([]recordObject, 0, len(g.Order)),
	}
	for _, ref := range g.Order {
		obj := recordObject{Ref: uint64(ref)}
		switch x := g.Objects[ref].(type) {
		case *pdf.Stream:
			obj.Body = []byte(pdf.Format(x.Dict))
			obj.IsStream = true
			obj.Data = x.Data
		default:
			obj.Body = []byte(pdf.Format(x))
		}
		rec.Objects = append(rec.Objects, obj)
	}
	for _, ref := range g.Unreadable {
		rec.Unreadable = append(rec.Unreadable, uint64(ref))
	}
	return msgpack.Marshal(rec)
}

func decodeSubgraph(buf []byte) (*pdf.Subgraph, error) {
	rec := &record{}
	err := msgpack.Unmarshal(buf, rec)
	if err != nil {
		return nil, err
	}

	g := &pdf.Subgraph{
		Root:    pdf.Reference(rec.Root),
		Objects: make(map[pdf.Reference]pdf.Object, len(rec.Objects)),
		Order:   make([]pdf.Reference, 0, len(rec.Objects)),
	}
	for _, obj := range rec.Objects {
		ref := pdf.Reference(obj.Ref)
		val, err := pdf.ParseObject(obj.Body)
		if err != nil {
			return nil, fmt.Errorf("object %s: %w", ref, err)
		}
		if obj.IsStream {
			dict, ok := val.(pdf.Dict)
			if !ok {
				return nil, fmt.Errorf("object %s: stream without dictionary", ref)
			}
			val = &pdf.Stream{Dict: dict, Data: obj.Data}
		}
		g.Objects[ref] = val
		g.Order = append(g.Order, ref)
	}
	if _, ok := g.Objects[g.Root]; !ok {
		return nil, errors.New("root object missing")
	}
	for _, ref := range rec.Unreadable {
		g.Unreadable = append(g.Unreadable, pdf.Reference(ref))
	}
	return g, nil
}
