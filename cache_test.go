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
	"testing"
)

func TestStreamCache(t *testing.T) {
	cache := newStreamCache(12)
	cache.Put(NewReference(100, 0), []byte("aaa"))
	cache.Put(NewReference(101, 0), []byte("bbb"))
	cache.Put(NewReference(102, 0), []byte("ccc"))
	data, ok := cache.Get(NewReference(100, 0))
	if !ok {
		t.Error("cache miss")
	}
	if !bytes.Equal(data, []byte("aaa")) {
		t.Error("wrong data")
	}
	// now 101 is the oldest entry

	_, ok = cache.Get(NewReference(0, 0))
	if ok {
		t.Error("cache hit")
	}

	cache.Put(NewReference(103, 0), []byte("dddddd"))
	if _, ok := cache.Get(NewReference(101, 0)); ok {
		t.Error("101 should have been evicted")
	}
	if _, ok := cache.Get(NewReference(102, 0)); ok {
		t.Error("102 should have been evicted")
	}
	if _, ok := cache.Get(NewReference(100, 0)); !ok {
		t.Error("100 should still be cached")
	}
	if cache.used > cache.capacity {
		t.Errorf("used %d > capacity %d", cache.used, cache.capacity)
	}
}

func TestStreamCacheTooLarge(t *testing.T) {
	cache := newStreamCache(4)
	cache.Put(NewReference(1, 0), []byte("12345"))
	if cache.Len() != 0 {
		t.Error("oversized payload was cached")
	}

	cache.Put(NewReference(2, 0), []byte("1234"))
	cache.Put(NewReference(2, 0), []byte("12"))
	if cache.used != 2 {
		t.Errorf("used = %d, want 2", cache.used)
	}
}
