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
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/texpdf/pdf"
)

var errEmptyImage = errors.New("empty image")

// DecodeImage decodes an image file.  PNG, JPEG, GIF, TIFF, BMP and WebP
// files are supported.  The second return value is the name of the format.
func DecodeImage(data []byte) (image.Image, string, error) {
	return image.Decode(bytes.NewReader(data))
}

// EmbedImage writes img as an image XObject, using lossless compression.
// Gray scale images are stored as DeviceGray, all other images as
// DeviceRGB.  If the image has transparent pixels, the alpha channel is
// stored as a soft mask.
func EmbedImage(w *pdf.Writer, img image.Image, name pdf.Name) (Ref, error) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 {
		return Ref{}, fmt.Errorf("image %q: %w", name, errEmptyImage)
	}

	var pixels []byte
	var colors int
	var colorSpace pdf.Name
	var alpha []byte
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		gray := image.NewGray(image.Rect(0, 0, width, height))
		draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
		pixels = gray.Pix
		colors = 1
		colorSpace = "DeviceGray"
	default:
		rgba := image.NewNRGBA(image.Rect(0, 0, width, height))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
		pixels = make([]byte, 0, 3*width*height)
		for i := 0; i < len(rgba.Pix); i += 4 {
			pixels = append(pixels, rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2])
		}
		if needsAlphaChannel(img) {
			alpha = make([]byte, 0, width*height)
			for i := 3; i < len(rgba.Pix); i += 4 {
				alpha = append(alpha, rgba.Pix[i])
			}
		}
		colors = 3
		colorSpace = "DeviceRGB"
	}

	ref := w.Alloc()

	// see Table 87 of ISO 32000-2:2020
	imDict := pdf.Dict{
		{"Type", pdf.Name("XObject")},
		{"Subtype", pdf.Name("Image")},
		{"Width", pdf.Integer(width)},
		{"Height", pdf.Integer(height)},
		{"ColorSpace", colorSpace},
		{"BitsPerComponent", pdf.Integer(8)},
	}
	if alpha != nil {
		maskRef := w.Alloc()
		imDict.Set("SMask", maskRef)

		maskDict := pdf.Dict{
			{"Type", pdf.Name("XObject")},
			{"Subtype", pdf.Name("Image")},
			{"Width", pdf.Integer(width)},
			{"Height", pdf.Integer(height)},
			{"ColorSpace", pdf.Name("DeviceGray")},
			{"BitsPerComponent", pdf.Integer(8)},
		}
		err := writeStream(w, maskRef, maskDict, alpha,
			pdf.FilterFlate{Predictor: 15, Columns: width})
		if err != nil {
			return Ref{}, fmt.Errorf("image %q: soft mask: %w", name, err)
		}
	}

	err := writeStream(w, ref, imDict, pixels,
		pdf.FilterFlate{Predictor: 15, Colors: colors, Columns: width})
	if err != nil {
		return Ref{}, fmt.Errorf("image %q: %w", name, err)
	}
	return Ref{Category: XObject, Name: name, Value: ref}, nil
}

// EmbedJPEG writes a JPEG file as an image XObject.  The compressed data
// is copied to the PDF file unchanged.
func EmbedJPEG(w *pdf.Writer, data []byte, name pdf.Name) (Ref, error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Ref{}, fmt.Errorf("image %q: %w", name, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Ref{}, fmt.Errorf("image %q: %w", name, errEmptyImage)
	}

	imDict := pdf.Dict{
		{"Type", pdf.Name("XObject")},
		{"Subtype", pdf.Name("Image")},
		{"Width", pdf.Integer(cfg.Width)},
		{"Height", pdf.Integer(cfg.Height)},
		{"BitsPerComponent", pdf.Integer(8)},
		{"Filter", pdf.Name("DCTDecode")},
	}
	switch cfg.ColorModel {
	case color.GrayModel:
		imDict.Set("ColorSpace", pdf.Name("DeviceGray"))
	case color.CMYKModel:
		imDict.Set("ColorSpace", pdf.Name("DeviceCMYK"))
		// Adobe applications write inverted CMYK data.
		imDict.Set("Decode", pdf.Array{
			pdf.Integer(1), pdf.Integer(0), pdf.Integer(1), pdf.Integer(0),
			pdf.Integer(1), pdf.Integer(0), pdf.Integer(1), pdf.Integer(0),
		})
	default:
		imDict.Set("ColorSpace", pdf.Name("DeviceRGB"))
	}

	stm, err := pdf.NewStream(imDict, data)
	if err != nil {
		return Ref{}, fmt.Errorf("image %q: %w", name, err)
	}
	ref := w.Alloc()
	err = w.Put(ref, stm)
	if err != nil {
		return Ref{}, fmt.Errorf("image %q: %w", name, err)
	}
	return Ref{Category: XObject, Name: name, Value: ref}, nil
}

func writeStream(w *pdf.Writer, ref pdf.Reference, dict pdf.Dict, data []byte, filters ...pdf.Filter) error {
	stm, err := w.OpenStream(ref, dict, filters...)
	if err != nil {
		return err
	}
	_, err = stm.Write(data)
	if err != nil {
		return err
	}
	return stm.Close()
}

func needsAlphaChannel(img image.Image) bool {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model, color.CMYKModel, color.YCbCrModel:
		return false

	case color.AlphaModel, color.Alpha16Model:
		return true

	default:
		// check all pixels to see whether the alpha channel is actually used
		bounds := img.Bounds()
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				_, _, _, a := img.At(x, y).RGBA()
				if a != 0xffff {
					return true
				}
			}
		}
		return false
	}
}
