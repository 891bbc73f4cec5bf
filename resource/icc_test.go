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
	"testing"

	"seehuhn.de/go/icc"

	"github.com/texpdf/pdf"
	"github.com/texpdf/pdf/metadata"
)

func TestEmbedICC(t *testing.T) {
	for _, profile := range [][]byte{icc.SRGBv2Profile, icc.SRGBv4Profile} {
		w, buf := newTestWriter(t, pdf.V1_7)
		meta, err := metadata.FromInfo(&pdf.Info{Title: "sRGB"}, pdf.V1_7)
		if err != nil {
			t.Fatal(err)
		}
		ref, err := EmbedICC(w, profile, "CS0", meta)
		if err != nil {
			t.Fatal(err)
		}
		r := finish(t, w, buf)

		n, err := ProfileComponents(r, ref.Value)
		if err != nil {
			t.Fatal(err)
		}
		if n != 3 {
			t.Errorf("got %d components, want 3", n)
		}

		a := ref.Value.(pdf.Array)
		dict, err := pdf.GetStream(r, a[1])
		if err != nil {
			t.Fatal(err)
		}
		if alt, _ := dict.Dict.Get("Alternate").(pdf.Name); alt != "DeviceRGB" {
			t.Errorf("wrong alternate %q", alt)
		}
		if dict.Dict.Has("Range") {
			t.Error("unexpected /Range for RGB profile")
		}
		m, err := metadata.Extract(r, dict.Dict.Get("Metadata"))
		if err != nil {
			t.Fatal(err)
		}
		if m == nil || m.Info().Title != "sRGB" {
			t.Error("metadata not attached to the profile")
		}
	}
}

func TestEmbedICCErrors(t *testing.T) {
	w, _ := newTestWriter(t, pdf.V1_2)
	_, err := EmbedICC(w, icc.SRGBv2Profile, "CS0", nil)
	if err == nil {
		t.Error("ICC profile accepted for PDF 1.2")
	}

	w, _ = newTestWriter(t, pdf.V1_7)
	_, err = EmbedICC(w, nil, "CS0", nil)
	if err == nil {
		t.Error("missing profile accepted")
	}
	_, err = EmbedICC(w, []byte("garbage"), "CS0", nil)
	if err == nil {
		t.Error("invalid profile accepted")
	}
}
