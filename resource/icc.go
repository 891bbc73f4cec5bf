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

package resource

import (
	"errors"
	"fmt"

	"seehuhn.de/go/icc"

	"github.com/texpdf/pdf"
	"github.com/texpdf/pdf/metadata"
)

var errMissingProfile = errors.New("missing ICC profile")

// EmbedICC writes an ICC-based colour space.  The number of components and
// the component ranges are taken from the profile header.  If meta is not
// nil, it is attached to the profile stream.
//
// The returned resource value is the colour space array, which can be used
// directly in a /ColorSpace resource dictionary or in an image dictionary.
func EmbedICC(w *pdf.Writer, profile []byte, name pdf.Name, meta *metadata.Stream) (Ref, error) {
	if pdf.V1_3 > w.Version() {
		return Ref{}, fmt.Errorf("colour space %q: ICC-based colour spaces require PDF 1.3", name)
	}
	if len(profile) == 0 {
		return Ref{}, fmt.Errorf("colour space %q: %w", name, errMissingProfile)
	}

	p, err := icc.Decode(profile)
	if err != nil {
		return Ref{}, fmt.Errorf("colour space %q: %w", name, err)
	}

	n := p.ColorSpace.NumComponents()
	var ranges []float64
	var alternate pdf.Name
	switch p.ColorSpace {
	case icc.GraySpace:
		alternate = "DeviceGray"
	case icc.RGBSpace:
		alternate = "DeviceRGB"
	case icc.CMYKSpace:
		alternate = "DeviceCMYK"
	case icc.CIELabSpace:
		ranges = []float64{0, 100, -128, 127, -128, 127}
	default:
		return Ref{}, fmt.Errorf("colour space %q: unsupported ICC colour space %v",
			name, p.ColorSpace)
	}

	// see Table 66 of ISO 32000-2:2020
	dict := pdf.Dict{
		{"N", pdf.Integer(n)},
	}
	if alternate != "" {
		dict.Set("Alternate", alternate)
	}
	if ranges != nil {
		rangeArray := make(pdf.Array, len(ranges))
		for i, x := range ranges {
			rangeArray[i] = number(x)
		}
		dict.Set("Range", rangeArray)
	}
	if meta != nil && w.Version() >= pdf.V1_4 {
		metaRef, err := meta.Embed(w)
		if err != nil {
			return Ref{}, fmt.Errorf("colour space %q: %w", name, err)
		}
		dict.Set("Metadata", metaRef)
	}

	ref := w.Alloc()
	err = writeStream(w, ref, dict, profile, pdf.FilterFlate{})
	if err != nil {
		return Ref{}, fmt.Errorf("colour space %q: %w", name, err)
	}

	cs := pdf.Array{pdf.Name("ICCBased"), ref}
	return Ref{Category: ColorSpace, Name: name, Value: cs}, nil
}

// ProfileComponents returns the number of colour components of an
// embedded ICC-based colour space.
func ProfileComponents(r pdf.Getter, cs pdf.Object) (int, error) {
	a, err := pdf.GetArray(r, cs)
	if err != nil {
		return 0, err
	}
	if len(a) != 2 {
		return 0, errors.New("malformed ICCBased colour space")
	}
	if family, _ := pdf.GetName(r, a[0]); family != "ICCBased" {
		return 0, fmt.Errorf("unexpected colour space family %q", family)
	}
	stm, err := pdf.GetStream(r, a[1])
	if err != nil {
		return 0, err
	}
	if stm == nil {
		return 0, errMissingProfile
	}
	data, err := pdf.DecodeStream(r, stm)
	if err != nil {
		return 0, err
	}
	p, err := icc.Decode(data)
	if err != nil {
		return 0, err
	}
	return p.ColorSpace.NumComponents(), nil
}
