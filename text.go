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
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	utf16BOM = []byte{0xFE, 0xFF}
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}

	utf16Enc = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
)

// pdfDocHigh lists the PDFDocEncoding characters in the range 0x80..0xA0,
// where the encoding differs from ISO 8859-1.  0x9F is undefined.
var pdfDocHigh = [33]rune{
	'•', '†', '‡', '…', '—', '–', 'ƒ', '⁄', '‹', '›', '−', '‰', '„', '“', '”', '‘',
	'’', '‚', '™', 'ﬁ', 'ﬂ', 'Ł', 'Œ', 'Š', 'Ÿ', 'Ž', 'ı', 'ł', 'œ', 'š', 'ž', utf8.RuneError,
	'€',
}

// pdfDocLow lists the PDFDocEncoding characters in the range 0x18..0x1F.
var pdfDocLow = [8]rune{'˘', 'ˇ', 'ˆ', '˙', '˝', '˛', '˚', '˜'}

// AsTextString interprets x as a PDF "text string" and returns
// the corresponding utf-8 encoded string.
func (x String) AsTextString() string {
	switch {
	case bytes.HasPrefix(x, utf16BOM):
		res, err := utf16Enc.NewDecoder().Bytes(x)
		if err != nil {
			return string(x)
		}
		return string(res)
	case bytes.HasPrefix(x, utf8BOM):
		return string(x[len(utf8BOM):])
	}
	return pdfDocDecode(x)
}

func pdfDocDecode(x []byte) string {
	dec := charmap.ISO8859_1.NewDecoder()
	var b strings.Builder
	for _, c := range x {
		switch {
		case c >= 0x18 && c <= 0x1F:
			b.WriteRune(pdfDocLow[c-0x18])
		case c >= 0x80 && c <= 0xA0:
			b.WriteRune(pdfDocHigh[c-0x80])
		default:
			s, err := dec.Bytes([]byte{c})
			if err != nil {
				b.WriteRune(utf8.RuneError)
			} else {
				b.Write(s)
			}
		}
	}
	return b.String()
}

// TextString creates a String object using the "text string" encoding,
// i.e. using either PDFDocEncoding or, if this is not possible, UTF-16BE
// with a byte order mark.
func TextString(s string) String {
	if buf, ok := pdfDocEncode(s); ok {
		return buf
	}
	res, err := utf16Enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return String(s)
	}
	return String(res)
}

func pdfDocEncode(s string) (String, bool) {
	enc := charmap.ISO8859_1.NewEncoder()
	res := make([]byte, 0, len(s))
	for _, r := range s {
		if r == '\t' || r == '\n' || r == '\r' || r >= 0x20 && r < 0x7F {
			res = append(res, byte(r))
			continue
		}
		found := false
		for i, x := range pdfDocHigh {
			if x == r && r != utf8.RuneError {
				res = append(res, byte(0x80+i))
				found = true
				break
			}
		}
		if !found {
			for i, x := range pdfDocLow {
				if x == r {
					res = append(res, byte(0x18+i))
					found = true
					break
				}
			}
		}
		if found {
			continue
		}
		if r > 0xA0 && r <= 0xFF && r != 0xAD {
			b, err := enc.Bytes([]byte(string(r)))
			if err == nil && len(b) == 1 {
				res = append(res, b[0])
				continue
			}
		}
		return nil, false
	}
	return res, true
}

var errNoDate = errors.New("not a valid date string")

// AsDate converts a PDF date string to a time.Time object.
// If the string does not have the correct format, an error is returned.
func (x String) AsDate() (time.Time, error) {
	s := x.AsTextString()
	if s == "D:" || s == "" {
		return time.Time{}, nil
	}
	s = strings.ReplaceAll(s, "'", "")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "19") || strings.HasPrefix(s, "20") {
		s = "D:" + s
	}

	formats := []string{
		"D:20060102150405-0700",
		"D:20060102150405-07",
		"D:20060102150405Z0000",
		"D:20060102150405Z00",
		"D:20060102150405Z",
		"D:20060102150405",
		"D:200601021504",
		"D:2006010215",
		"D:20060102",
		"D:200601",
		"D:2006",
	}
	for _, format := range formats {
		t, err := time.Parse(format, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, errNoDate
}

// Date creates a PDF String object encoding the given date and time.
func Date(t time.Time) String {
	s := t.Format("D:20060102150405-0700")
	k := len(s) - 2
	s = s[:k] + "'" + s[k:]
	return String(s)
}
