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
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	"github.com/texpdf/pdf/internal/filter/ascii85"
	"github.com/texpdf/pdf/internal/filter/asciihex"
	"github.com/texpdf/pdf/internal/filter/predict"
	"github.com/texpdf/pdf/internal/filter/runlength"
)

// Filter represents a PDF stream filter together with its parameters.
type Filter interface {
	// Info returns the name of the filter and the value for the
	// /DecodeParms entry.  The parameters are nil if the defaults are used.
	Info() (Name, Dict)

	// Encode applies the filter to data.
	Encode(data []byte) ([]byte, error)

	// Decode reverses the filter.  Errors in the data are reported as
	// [ErrCorruptStream].
	Decode(data []byte) ([]byte, error)
}

// FilterFlate is the FlateDecode filter (zlib/deflate compression),
// optionally combined with a TIFF or PNG predictor.
type FilterFlate struct {
	// Predictor is 1 (or 0) for no prediction, 2 for the TIFF predictor,
	// and 10 to 15 for PNG predictors.
	Predictor        int
	Colors           int // default 1
	BitsPerComponent int // default 8
	Columns          int // default 1
}

// Info implements the [Filter] interface.
func (f FilterFlate) Info() (Name, Dict) {
	if f.Predictor <= 1 {
		return "FlateDecode", nil
	}
	p := f.params()
	parms := Dict{{"Predictor", Integer(p.Predictor)}}
	if p.Colors != 1 {
		parms.Set("Colors", Integer(p.Colors))
	}
	if p.BitsPerComponent != 8 {
		parms.Set("BitsPerComponent", Integer(p.BitsPerComponent))
	}
	if p.Columns != 1 {
		parms.Set("Columns", Integer(p.Columns))
	}
	return "FlateDecode", parms
}

func (f FilterFlate) params() *predict.Params {
	p := &predict.Params{
		Predictor:        max(f.Predictor, 1),
		Colors:           f.Colors,
		BitsPerComponent: f.BitsPerComponent,
		Columns:          f.Columns,
	}
	if p.Colors == 0 {
		p.Colors = 1
	}
	if p.BitsPerComponent == 0 {
		p.BitsPerComponent = 8
	}
	if p.Columns == 0 {
		p.Columns = 1
	}
	return p
}

// Encode implements the [Filter] interface.
func (f FilterFlate) Encode(data []byte) ([]byte, error) {
	data, err := predict.Encode(data, f.params())
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	zw, err := zlib.NewWriterLevel(buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	_, err = zw.Write(data)
	if err != nil {
		return nil, err
	}
	err = zw.Close()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode implements the [Filter] interface.
func (f FilterFlate) Decode(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, corrupt("FlateDecode", err)
	}
	res, err := io.ReadAll(zr)
	if err != nil {
		return nil, corrupt("FlateDecode", err)
	}
	err = zr.Close()
	if err != nil {
		return nil, corrupt("FlateDecode", err)
	}

	res, err = predict.Decode(res, f.params())
	if err != nil {
		return nil, corrupt("FlateDecode", err)
	}
	return res, nil
}

// FilterASCIIHex is the ASCIIHexDecode filter.
type FilterASCIIHex struct{}

// Info implements the [Filter] interface.
func (FilterASCIIHex) Info() (Name, Dict) {
	return "ASCIIHexDecode", nil
}

// Encode implements the [Filter] interface.
func (FilterASCIIHex) Encode(data []byte) ([]byte, error) {
	return asciihex.Encode(data, 79), nil
}

// Decode implements the [Filter] interface.
func (FilterASCIIHex) Decode(data []byte) ([]byte, error) {
	res, err := asciihex.Decode(data)
	if err != nil {
		return nil, corrupt("ASCIIHexDecode", err)
	}
	return res, nil
}

// FilterASCII85 is the ASCII85Decode filter.
type FilterASCII85 struct{}

// Info implements the [Filter] interface.
func (FilterASCII85) Info() (Name, Dict) {
	return "ASCII85Decode", nil
}

// Encode implements the [Filter] interface.
func (FilterASCII85) Encode(data []byte) ([]byte, error) {
	return ascii85.Encode(data, 79), nil
}

// Decode implements the [Filter] interface.
func (FilterASCII85) Decode(data []byte) ([]byte, error) {
	res, err := ascii85.Decode(data)
	if err != nil {
		return nil, corrupt("ASCII85Decode", err)
	}
	return res, nil
}

// FilterRunLength is the RunLengthDecode filter.
type FilterRunLength struct{}

// Info implements the [Filter] interface.
func (FilterRunLength) Info() (Name, Dict) {
	return "RunLengthDecode", nil
}

// Encode implements the [Filter] interface.
func (FilterRunLength) Encode(data []byte) ([]byte, error) {
	return runlength.Encode(data), nil
}

// Decode implements the [Filter] interface.
func (FilterRunLength) Decode(data []byte) ([]byte, error) {
	res, err := runlength.Decode(data)
	if err != nil {
		return nil, corrupt("RunLengthDecode", err)
	}
	return res, nil
}

func corrupt(filter Name, err error) error {
	return fmt.Errorf("%s: %w: %w", filter, ErrCorruptStream, err)
}

// Encode applies the filters to payload.  The payload passes through
// filters[0] first.
func Encode(payload []byte, filters ...Filter) ([]byte, error) {
	data := payload
	for _, f := range filters {
		var err error
		data, err = f.Encode(data)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

// Decode reverses [Encode], for the same list of filters.
func Decode(data []byte, filters ...Filter) ([]byte, error) {
	for i := len(filters) - 1; i >= 0; i-- {
		var err error
		data, err = filters[i].Decode(data)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

// NewStream encodes payload using the given filters and returns the
// resulting stream object.  The /Filter and /DecodeParms entries of dict
// are updated to describe the filters.  If dict already lists filters
// (for example because payload is JPEG data), the new filters are applied
// on top of these.
func NewStream(dict Dict, payload []byte, filters ...Filter) (*Stream, error) {
	data, err := Encode(payload, filters...)
	if err != nil {
		return nil, err
	}
	dict = dict.Clone()
	addFilters(&dict, filters)
	dict.Delete("Length")
	return &Stream{Dict: dict, Data: data}, nil
}

// addFilters records filters, given in encoding order, in the
// /Filter and /DecodeParms entries of dict.
func addFilters(dict *Dict, filters []Filter) {
	if len(filters) == 0 {
		return
	}

	var names, parms Array
	for i := len(filters) - 1; i >= 0; i-- {
		name, p := filters[i].Info()
		names = append(names, name)
		if p != nil {
			parms = append(parms, p)
		} else {
			parms = append(parms, nil)
		}
	}

	switch old := dict.Get("Filter").(type) {
	case Name:
		names = append(names, old)
		parms = append(parms, dict.Get("DecodeParms"))
	case Array:
		names = append(names, old...)
		oldParms, _ := dict.Get("DecodeParms").(Array)
		for i := range old {
			if i < len(oldParms) {
				parms = append(parms, oldParms[i])
			} else {
				parms = append(parms, nil)
			}
		}
	}

	hasParms := false
	for _, p := range parms {
		if p != nil {
			hasParms = true
			break
		}
	}

	if len(names) == 1 {
		dict.Set("Filter", names[0])
		if hasParms {
			dict.Set("DecodeParms", parms[0])
		} else {
			dict.Delete("DecodeParms")
		}
	} else {
		dict.Set("Filter", names)
		if hasParms {
			dict.Set("DecodeParms", parms)
		} else {
			dict.Delete("DecodeParms")
		}
	}
}

// StreamFilters returns the filters listed in a stream dictionary, in
// encoding order, so that [Decode] can be used on the stream data.
// Filters which cannot be decoded give an [*UnsupportedFilterError].
func StreamFilters(r Getter, dict Dict) ([]Filter, error) {
	filterObj, err := Resolve(r, dict.Get("Filter"))
	if err != nil {
		return nil, err
	}
	parmsObj, err := Resolve(r, dict.Get("DecodeParms"))
	if err != nil {
		return nil, err
	}

	var names []Name
	var parms []Object
	switch f := filterObj.(type) {
	case nil:
		return nil, nil
	case Name:
		names = []Name{f}
		parms = []Object{parmsObj}
	case Array:
		pa, _ := parmsObj.(Array)
		for i, x := range f {
			name, err := GetName(r, x)
			if err != nil {
				return nil, err
			}
			names = append(names, name)
			if i < len(pa) {
				parms = append(parms, pa[i])
			} else {
				parms = append(parms, nil)
			}
		}
	default:
		return nil, &MalformedFileError{
			Err: fmt.Errorf("invalid /Filter entry of type %T", filterObj),
		}
	}

	res := make([]Filter, len(names))
	for i, name := range names {
		pd, err := GetDict(r, parms[i])
		if err != nil {
			return nil, err
		}
		f, err := makeFilter(r, name, pd)
		if err != nil {
			return nil, err
		}
		res[len(names)-1-i] = f
	}
	return res, nil
}

func makeFilter(r Getter, name Name, parms Dict) (Filter, error) {
	switch name {
	case "FlateDecode", "Fl":
		f := FilterFlate{}
		for _, key := range []Name{"Predictor", "Colors", "BitsPerComponent", "Columns"} {
			val, err := GetInt(r, parms.Get(key))
			if err != nil {
				return nil, err
			}
			switch key {
			case "Predictor":
				f.Predictor = int(val)
			case "Colors":
				f.Colors = int(val)
			case "BitsPerComponent":
				f.BitsPerComponent = int(val)
			case "Columns":
				f.Columns = int(val)
			}
		}
		return f, nil
	case "ASCIIHexDecode", "AHx":
		return FilterASCIIHex{}, nil
	case "ASCII85Decode", "A85":
		return FilterASCII85{}, nil
	case "RunLengthDecode", "RL":
		return FilterRunLength{}, nil
	default:
		return nil, &UnsupportedFilterError{Name: name}
	}
}

// DecodeStream returns the decoded payload of a stream.
// The getter r is used to resolve indirect /Filter and /DecodeParms
// entries, it may be nil.
func DecodeStream(r Getter, s *Stream) ([]byte, error) {
	if s == nil {
		return nil, errors.New("missing stream")
	}
	filters, err := StreamFilters(r, s.Dict)
	if err != nil {
		return nil, err
	}
	return Decode(s.Data, filters...)
}
