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

// Package runlength implements the RunLengthDecode filter.
//
// The encoded data consists of runs.  A length byte 0..127 is followed by
// that many plus one literal bytes, a length byte 129..255 is followed by a
// single byte which is repeated 257 minus length times.  The byte 128 marks
// the end of the data.
package runlength

import "errors"

const eod = 128

var errTruncated = errors.New("runlength: unexpected end of data")

// Encode compresses data.  Runs of three or more equal bytes are encoded as
// repeats, everything else as literal runs.
func Encode(data []byte) []byte {
	res := make([]byte, 0, len(data)+len(data)/128+2)
	litStart := 0
	flushLit := func(end int) {
		for litStart < end {
			n := min(end-litStart, 128)
			res = append(res, byte(n-1))
			res = append(res, data[litStart:litStart+n]...)
			litStart += n
		}
	}

	i := 0
	for i < len(data) {
		j := i + 1
		for j < len(data) && j-i < 128 && data[j] == data[i] {
			j++
		}
		if j-i >= 3 {
			flushLit(i)
			res = append(res, byte(257-(j-i)), data[i])
			litStart = j
		}
		i = j
	}
	flushLit(len(data))

	return append(res, eod)
}

// Decode reverses [Encode].  Decoding stops at the end-of-data marker.
// A missing end-of-data marker is tolerated.
func Decode(data []byte) ([]byte, error) {
	var res []byte
	for i := 0; i < len(data); {
		l := int(data[i])
		i++
		switch {
		case l < 128:
			n := l + 1
			if i+n > len(data) {
				return nil, errTruncated
			}
			res = append(res, data[i:i+n]...)
			i += n
		case l == eod:
			return res, nil
		default:
			if i >= len(data) {
				return nil, errTruncated
			}
			for k := 0; k < 257-l; k++ {
				res = append(res, data[i])
			}
			i++
		}
	}
	return res, nil
}
