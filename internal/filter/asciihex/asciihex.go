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

// Package asciihex implements the ASCIIHexDecode filter.
package asciihex

import (
	"errors"
)

var errInvalidChar = errors.New("asciihex: invalid character")

// Encode converts data to hexadecimal form, terminated by ">".
// If width is positive, a newline is inserted after every width output
// characters.
func Encode(data []byte, width int) []byte {
	const digits = "0123456789abcdef"
	res := make([]byte, 0, 2*len(data)+len(data)/max(width, 1)+2)
	col := 0
	for _, b := range data {
		if width > 0 && col+2 > width {
			res = append(res, '\n')
			col = 0
		}
		res = append(res, digits[b>>4], digits[b&15])
		col += 2
	}
	return append(res, '>')
}

// Decode reverses [Encode].  White space is ignored, and decoding stops at
// the first ">".  A missing final digit is taken to be 0.
func Decode(data []byte) ([]byte, error) {
	res := make([]byte, 0, len(data)/2)
	var hi byte
	half := false
	for _, c := range data {
		var d byte
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c == '>':
			if half {
				res = append(res, hi<<4)
			}
			return res, nil
		case c == ' ', c == '\t', c == '\n', c == '\r', c == '\f', c == 0:
			continue
		default:
			return nil, errInvalidChar
		}
		if half {
			res = append(res, hi<<4|d)
		} else {
			hi = d
		}
		half = !half
	}
	if half {
		res = append(res, hi<<4)
	}
	return res, nil
}
