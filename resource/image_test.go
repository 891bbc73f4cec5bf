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
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/texpdf/pdf"
)

func TestEmbedImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 10, 13, 12))
	for y := 10; y < 12; y++ {
		for x := 10; x < 13; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	img.Set(12, 11, color.NRGBA{R: 1, G: 2, B: 3, A: 128})

	w, buf := newTestWriter(t, pdf.V1_7)
	ref, err := EmbedImage(w, img, "Im1")
	if err != nil {
		t.Fatal(err)
	}
	if ref.Category != XObject {
		t.Errorf("wrong category %q", ref.Category)
	}
	r := finish(t, w, buf)

	stm, err := pdf.GetStream(r, ref.Value)
	if err != nil {
		t.Fatal(err)
	}
	width, _ := pdf.GetInt(r, stm.Dict.Get("Width"))
	height, _ := pdf.GetInt(r, stm.Dict.Get("Height"))
	if width != 3 || height != 2 {
		t.Errorf("size %dx%d, want 3x2", width, height)
	}
	pixels, err := pdf.DecodeStream(r, stm)
	if err != nil {
		t.Fatal(err)
	}
	wantPixels := []byte{
		10, 10, 200, 11, 10, 200, 12, 10, 200,
		10, 11, 200, 11, 11, 200, 1, 2, 3,
	}
	if d := cmp.Diff(wantPixels, pixels); d != "" {
		t.Errorf("pixels (-want +got):\n%s", d)
	}

	mask, err := pdf.GetStream(r, stm.Dict.Get("SMask"))
	if err != nil {
		t.Fatal(err)
	}
	if mask == nil {
		t.Fatal("missing soft mask")
	}
	alpha, err := pdf.DecodeStream(r, mask)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]byte{255, 255, 255, 255, 255, 128}, alpha); d != "" {
		t.Errorf("alpha (-want +got):\n%s", d)
	}
}

func TestEmbedGrayImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 1))
	copy(img.Pix, []byte{0, 85, 170, 255})

	w, _ := newTestWriter(t, pdf.V1_7)
	ref, err := EmbedImage(w, img, "Im1")
	if err != nil {
		t.Fatal(err)
	}
	stm, err := pdf.GetStream(w, ref.Value)
	if err != nil {
		t.Fatal(err)
	}
	if cs, _ := stm.Dict.Get("ColorSpace").(pdf.Name); cs != "DeviceGray" {
		t.Errorf("wrong colour space %q", cs)
	}
	if stm.Dict.Has("SMask") {
		t.Error("unexpected soft mask")
	}
	pixels, err := pdf.DecodeStream(w, stm)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(img.Pix, pixels); d != "" {
		t.Errorf("pixels (-want +got):\n%s", d)
	}
}

func TestEmbedEmptyImage(t *testing.T) {
	w, _ := newTestWriter(t, pdf.V1_7)
	_, err := EmbedImage(w, image.NewRGBA(image.Rect(0, 0, 0, 5)), "Im1")
	if err == nil {
		t.Error("empty image accepted")
	}
}

func TestDecodeImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 5, 4))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	type encoder func(*bytes.Buffer) error
	cases := map[string]encoder{
		"tiff": func(buf *bytes.Buffer) error { return tiff.Encode(buf, img, nil) },
		"bmp":  func(buf *bytes.Buffer) error { return bmp.Encode(buf, img) },
		"jpeg": func(buf *bytes.Buffer) error { return jpeg.Encode(buf, img, nil) },
	}
	for format, encode := range cases {
		t.Run(format, func(t *testing.T) {
			buf := &bytes.Buffer{}
			err := encode(buf)
			if err != nil {
				t.Fatal(err)
			}
			decoded, got, err := DecodeImage(buf.Bytes())
			if err != nil {
				t.Fatal(err)
			}
			if got != format {
				t.Errorf("format %q, want %q", got, format)
			}
			if decoded.Bounds() != img.Bounds() {
				t.Errorf("bounds %v, want %v", decoded.Bounds(), img.Bounds())
			}
		})
	}
}

func TestEmbedJPEG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	buf := &bytes.Buffer{}
	err := jpeg.Encode(buf, img, nil)
	if err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	w, _ := newTestWriter(t, pdf.V1_7)
	ref, err := EmbedJPEG(w, data, "Im1")
	if err != nil {
		t.Fatal(err)
	}
	stm, err := pdf.GetStream(w, ref.Value)
	if err != nil {
		t.Fatal(err)
	}
	if f, _ := stm.Dict.Get("Filter").(pdf.Name); f != "DCTDecode" {
		t.Errorf("wrong filter %q", f)
	}
	if cs, _ := stm.Dict.Get("ColorSpace").(pdf.Name); cs != "DeviceGray" {
		t.Errorf("wrong colour space %q", cs)
	}
	if !bytes.Equal(stm.Data, data) {
		t.Error("JPEG data was modified")
	}

	_, err = EmbedJPEG(w, []byte("GIF89a"), "Im2")
	if err == nil {
		t.Error("invalid JPEG accepted")
	}
}
