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

// Package external imports resources, such as fonts and images, from
// existing PDF files into a document which is being written.
package external

import (
	"os"
)

// Source is a PDF file from which resources are imported.
// Sources are either files on disk, see [File], or in-memory data, see
// [Bytes].
type Source struct {
	path string
	data []byte
}

// File returns a source which reads the named file.
func File(path string) Source {
	return Source{path: path}
}

// Bytes returns a source which reads a PDF file from memory.
// The data must not be modified while the source is in use.
func Bytes(data []byte) Source {
	return Source{data: data}
}

func (s Source) String() string {
	if s.path != "" {
		return s.path
	}
	return "<memory>"
}

// load returns the file contents.
func (s Source) load() ([]byte, error) {
	if s.data != nil || s.path == "" {
		return s.data, nil
	}
	return os.ReadFile(s.path)
}
