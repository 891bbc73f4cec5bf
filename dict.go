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
	"io"
	"strconv"
)

// DictEntry is a single key/value pair of a [Dict].
type DictEntry struct {
	Key   Name
	Value Object
}

// Dict represent a Dictionary object in a PDF file.
//
// The entries are kept in insertion order, and the dictionary is written in
// this order.  Keys are unique: [Dict.Set] replaces an existing value in
// place.  Entries with a nil value are equivalent to missing entries and are
// omitted on output.
//
// Dictionaries can be written as composite literals:
//
//	pdf.Dict{{"Type", pdf.Name("Page")}, {"Parent", parentRef}}
type Dict []DictEntry

// NewDict builds a dictionary from alternating keys and values.
// The function panics if the number of arguments is odd, or if
// a key is not a [Name].
func NewDict(kv ...Object) Dict {
	if len(kv)%2 != 0 {
		panic("odd number of arguments for NewDict")
	}
	d := make(Dict, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		d.Set(kv[i].(Name), kv[i+1])
	}
	return d
}

func (x Dict) index(key Name) int {
	for i := range x {
		if x[i].Key == key {
			return i
		}
	}
	return -1
}

// Get returns the value stored under key, or nil if there is no such entry.
func (x Dict) Get(key Name) Object {
	if i := x.index(key); i >= 0 {
		return x[i].Value
	}
	return nil
}

// Has reports whether the dictionary has a non-null entry for key.
func (x Dict) Has(key Name) bool {
	return x.Get(key) != nil
}

// Set stores val under key.  An existing entry keeps its position.
func (x *Dict) Set(key Name, val Object) {
	if i := x.index(key); i >= 0 {
		(*x)[i].Value = val
		return
	}
	*x = append(*x, DictEntry{Key: key, Value: val})
}

// Delete removes the entry for key, if any.
func (x *Dict) Delete(key Name) {
	i := x.index(key)
	if i < 0 {
		return
	}
	*x = append((*x)[:i], (*x)[i+1:]...)
}

// Keys returns the keys of all non-null entries, in order.
func (x Dict) Keys() []Name {
	keys := make([]Name, 0, len(x))
	for _, e := range x {
		if e.Value != nil {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// Len returns the number of non-null entries.
func (x Dict) Len() int {
	n := 0
	for _, e := range x {
		if e.Value != nil {
			n++
		}
	}
	return n
}

// Clone returns a shallow copy of the dictionary.
func (x Dict) Clone() Dict {
	if x == nil {
		return nil
	}
	res := make(Dict, len(x))
	copy(res, x)
	return res
}

func (x Dict) String() string {
	res := "<"
	if tp, ok := x.Get("Type").(Name); ok {
		res += string(tp) + " "
	}
	res += "Dict, "
	if n := x.Len(); n != 1 {
		res += strconv.Itoa(n) + " entries>"
	} else {
		res += "1 entry>"
	}
	return res
}

// PDF implements the [Object] interface.
func (x Dict) PDF(w io.Writer) error {
	if x == nil {
		_, err := io.WriteString(w, "null")
		return err
	}

	_, err := io.WriteString(w, "<<")
	if err != nil {
		return err
	}
	for _, e := range x {
		if e.Value == nil {
			continue
		}
		_, err = io.WriteString(w, "\n")
		if err != nil {
			return err
		}
		err = e.Key.PDF(w)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, " ")
		if err != nil {
			return err
		}
		err = e.Value.PDF(w)
		if err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, "\n>>")
	return err
}
