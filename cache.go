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

// streamCache keeps the decoded payload of recently used streams.  The
// capacity is measured in bytes of decoded data.  Payloads larger than the
// capacity are never cached.
type streamCache struct {
	capacity    int
	used        int
	entries     map[Reference]*cacheEntry
	first, last *cacheEntry
}

type cacheEntry struct {
	prev, next *cacheEntry
	key        Reference
	data       []byte
}

func newStreamCache(capacity int) *streamCache {
	return &streamCache{
		capacity: capacity,
		entries:  make(map[Reference]*cacheEntry),
	}
}

// Put adds decoded stream data to the cache.
func (c *streamCache) Put(key Reference, data []byte) {
	if len(data) > c.capacity {
		return
	}

	if ent, ok := c.entries[key]; ok {
		c.used += len(data) - len(ent.data)
		ent.data = data
		c.moveToFront(ent)
	} else {
		ent := &cacheEntry{key: key, data: data}
		c.entries[key] = ent
		c.used += len(data)
		c.moveToFront(ent)
	}

	for c.used > c.capacity {
		c.removeLast()
	}
}

// Get returns the decoded data for key and marks it as recently used.
func (c *streamCache) Get(key Reference) ([]byte, bool) {
	ent, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(ent)
	return ent.data, true
}

// Len returns the number of cached streams.
func (c *streamCache) Len() int {
	return len(c.entries)
}

func (c *streamCache) moveToFront(ent *cacheEntry) {
	if ent == c.first {
		return
	}

	if ent.prev != nil {
		ent.prev.next = ent.next
	}
	if ent.next != nil {
		ent.next.prev = ent.prev
	}
	if ent == c.last {
		c.last = ent.prev
	}

	ent.prev = nil
	ent.next = c.first
	if c.first != nil {
		c.first.prev = ent
	}
	c.first = ent
	if c.last == nil {
		c.last = ent
	}
}

func (c *streamCache) removeLast() {
	ent := c.last
	if ent == nil {
		return
	}

	delete(c.entries, ent.key)
	c.used -= len(ent.data)
	c.last = ent.prev
	if c.last != nil {
		c.last.next = nil
	} else {
		c.first = nil
	}
}
