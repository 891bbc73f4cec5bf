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

// Package ascii85 implements the ASCII85Decode filter.
//
// The base-85 arithmetic is provided by encoding/ascii85.  This package adds
// the "~>" end-of-data marker and line breaking used in PDF files.
package ascii85

import (
	"bytes"
	"encoding/ascii85"
	"fmt"
)

// Encode converts data to ASCII base-85 form, terminated by "~>".
// If width is positive, the output is broken into lines of at most width
// characters.
func Encode(data []byte, width int) []byte {
	enc := make([]byte, ascii85.MaxEncodedLen(len(data)))
	n := ascii85.Encode(enc, data)
	enc = enc[:n]

	res := make([]byte, 0, n+n/max(width, 1)+3)
	if width > 0 {
		for len(enc) > width {
			res = append(res, enc[:width]...)
			res = append(res, '\n')
			enc = enc[width:]
		}
	}
	res = append(res, enc...)
	return append(res, '~', '>')
}

// Decode reverses [Encode].  White space is ignored, an optional "<~"
// prefix is skipped, and decoding stops at "~>".
func Decode(data []byte) ([]byte, error) {
	data = bytes.TrimLeft(data, " \t\r\n\f\x00")
	data = bytes.TrimPrefix(data, []byte("<~"))
	if idx := bytes.IndexByte(data, '~'); idx >= 0 {
		data = data[:idx]
	}

	res := make([]byte, 4*len(data)/5+4*bytes.Count(data, []byte{'z'})+4)
	n, _, err := ascii85.Decode(res, data, true)
	if err != nil {
		return nil, fmt.Errorf("ascii85: %w", err)
	}
	return res[:n], nil
}
