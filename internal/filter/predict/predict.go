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

// Package predict implements the TIFF and PNG predictor functions which can
// be used together with the FlateDecode and LZWDecode filters.
package predict

import (
	"errors"
	"fmt"
)

const maxColumns = 1 << 20

// Params holds the /DecodeParms entries which control a predictor.
type Params struct {
	// Predictor selects the algorithm:
	//   1: no prediction
	//   2: TIFF horizontal differencing
	//  10..14: PNG None, Sub, Up, Average, Paeth (same for all rows)
	//  15: PNG, the filter type is chosen per row
	Predictor int

	// Colors is the number of components per pixel.
	Colors int

	// BitsPerComponent is one of 1, 2, 4, 8 or 16.
	BitsPerComponent int

	// Columns is the number of pixels per row.
	Columns int
}

// Validate checks whether the parameters can be used.
func (p *Params) Validate() error {
	switch {
	case p.Predictor == 1:
		return nil
	case p.Predictor == 2, p.Predictor >= 10 && p.Predictor <= 15:
		// pass
	default:
		return fmt.Errorf("invalid predictor %d", p.Predictor)
	}
	if p.Colors < 1 || p.Colors > 256 {
		return fmt.Errorf("invalid number of colors %d", p.Colors)
	}
	switch p.BitsPerComponent {
	case 1, 2, 4, 8, 16:
		// pass
	default:
		return fmt.Errorf("invalid BitsPerComponent %d", p.BitsPerComponent)
	}
	if p.Columns < 1 || p.Columns > maxColumns {
		return fmt.Errorf("invalid number of columns %d", p.Columns)
	}
	return nil
}

func (p *Params) bytesPerRow() int {
	return (p.Colors*p.BitsPerComponent*p.Columns + 7) / 8
}

func (p *Params) bytesPerPixel() int {
	return max(1, (p.Colors*p.BitsPerComponent+7)/8)
}

// Decode reverses the predictor on data, which must already be
// decompressed.  A short final row is decoded as far as it goes.
func Decode(data []byte, p *Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	switch {
	case p.Predictor == 1:
		return data, nil
	case p.Predictor == 2:
		return decodeTIFF(data, p), nil
	default:
		return decodePNG(data, p)
	}
}

// Encode applies the predictor to data.  The result is meant to be
// compressed afterwards.
func Encode(data []byte, p *Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	switch {
	case p.Predictor == 1:
		return data, nil
	case p.Predictor == 2:
		return encodeTIFF(data, p), nil
	default:
		return encodePNG(data, p), nil
	}
}

var errFilterType = errors.New("invalid PNG filter type")

func decodePNG(data []byte, p *Params) ([]byte, error) {
	n := p.bytesPerRow()
	bpp := p.bytesPerPixel()

	res := make([]byte, 0, len(data)/(n+1)*n+n)
	prev := make([]byte, n)
	for len(data) > 0 {
		tag := data[0]
		k := min(n, len(data)-1)
		cur := make([]byte, n)
		copy(cur, data[1:1+k])
		data = data[1+k:]

		switch tag {
		case 0:
			// None
		case 1:
			for i := bpp; i < n; i++ {
				cur[i] += cur[i-bpp]
			}
		case 2:
			for i := range cur {
				cur[i] += prev[i]
			}
		case 3:
			for i := range cur {
				var left int
				if i >= bpp {
					left = int(cur[i-bpp])
				}
				cur[i] += byte((left + int(prev[i])) / 2)
			}
		case 4:
			for i := range cur {
				var left, upLeft byte
				if i >= bpp {
					left = cur[i-bpp]
					upLeft = prev[i-bpp]
				}
				cur[i] += paeth(left, prev[i], upLeft)
			}
		default:
			return nil, errFilterType
		}

		res = append(res, cur[:k]...)
		prev = cur
	}
	return res, nil
}

func encodePNG(data []byte, p *Params) []byte {
	n := p.bytesPerRow()
	bpp := p.bytesPerPixel()

	res := make([]byte, 0, len(data)+len(data)/n+1)
	prev := make([]byte, n)
	cand := make([][]byte, 5)
	for i := range cand {
		cand[i] = make([]byte, n)
	}
	for len(data) > 0 {
		k := min(n, len(data))
		cur := make([]byte, n)
		copy(cur, data[:k])
		data = data[k:]

		for i := 0; i < n; i++ {
			var left, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]
			cand[0][i] = cur[i]
			cand[1][i] = cur[i] - left
			cand[2][i] = cur[i] - up
			cand[3][i] = cur[i] - byte((int(left)+int(up))/2)
			cand[4][i] = cur[i] - paeth(left, up, upLeft)
		}

		tag := p.Predictor - 10
		if p.Predictor == 15 {
			tag = 0
			best := -1
			for t, row := range cand {
				score := 0
				for _, b := range row[:k] {
					score += abs(int(int8(b)))
				}
				if best < 0 || score < best {
					best = score
					tag = t
				}
			}
		}

		res = append(res, byte(tag))
		res = append(res, cand[tag][:k]...)
		prev = cur
	}
	return res
}

func decodeTIFF(data []byte, p *Params) []byte {
	res := make([]byte, len(data))
	copy(res, data)
	n := p.bytesPerRow()
	for start := 0; start < len(res); start += n {
		row := res[start:min(start+n, len(res))]
		forEachComponent(row, p, func(get func(int) uint32, set func(int, uint32), i int) {
			if i >= p.Colors {
				set(i, get(i)+get(i-p.Colors))
			}
		})
	}
	return res
}

func encodeTIFF(data []byte, p *Params) []byte {
	res := make([]byte, len(data))
	copy(res, data)
	n := p.bytesPerRow()
	for start := 0; start < len(res); start += n {
		row := res[start:min(start+n, len(res))]
		orig := make([]byte, len(row))
		copy(orig, row)
		getOrig := componentGetter(orig, p.BitsPerComponent)
		forEachComponent(row, p, func(get func(int) uint32, set func(int, uint32), i int) {
			if i >= p.Colors {
				set(i, getOrig(i)-getOrig(i-p.Colors))
			}
		})
	}
	return res
}

// forEachComponent calls fn for every complete component in row, in order.
func forEachComponent(row []byte, p *Params, fn func(get func(int) uint32, set func(int, uint32), i int)) {
	bpc := p.BitsPerComponent
	count := len(row) * 8 / bpc
	count = min(count, p.Colors*p.Columns)
	get := componentGetter(row, bpc)
	mask := uint32(1)<<bpc - 1
	set := func(i int, v uint32) {
		v &= mask
		switch bpc {
		case 8:
			row[i] = byte(v)
		case 16:
			row[2*i] = byte(v >> 8)
			row[2*i+1] = byte(v)
		default:
			bit := i * bpc
			shift := 8 - bpc - bit%8
			row[bit/8] = row[bit/8]&^byte(mask<<shift) | byte(v<<shift)
		}
	}
	for i := 0; i < count; i++ {
		fn(get, set, i)
	}
}

func componentGetter(row []byte, bpc int) func(int) uint32 {
	mask := uint32(1)<<bpc - 1
	return func(i int) uint32 {
		switch bpc {
		case 8:
			return uint32(row[i])
		case 16:
			return uint32(row[2*i])<<8 | uint32(row[2*i+1])
		default:
			bit := i * bpc
			shift := 8 - bpc - bit%8
			return uint32(row[bit/8]>>shift) & mask
		}
	}
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
