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

// Pdf-inspect shows the structure of a PDF file.
//
// Without further arguments, the trailer and the chain of cross-reference
// sections are printed.  Additional arguments select an object: "@N" or
// "@N.G" selects an indirect object, "@trailer" and "@info" select the
// trailer and the information dictionary, and further arguments are
// dictionary keys or array indices.  The path starts at the document
// catalog.
//
//	pdf-inspect file.pdf Pages Kids 0 Contents
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/texpdf/pdf"
	"github.com/texpdf/pdf/tools/internal/buildinfo"
)

func main() {
	layout := flag.Bool("layout", false, "show the physical layout of the file")
	objects := flag.Bool("objects", false, "list all objects of the file")
	version := flag.Bool("version", false, "show version information and exit")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: pdf-inspect [options] file.pdf [selector...]")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *version {
		fmt.Println(buildinfo.Short("pdf-inspect"))
		return
	}
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	err := run(os.Stdout, flag.Arg(0), flag.Args()[1:], *layout, *objects)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pdf-inspect:", err)
		os.Exit(1)
	}
}

func run(out io.Writer, fname string, path []string, layout, objects bool) error {
	if layout {
		return showLayout(out, fname)
	}

	r, err := pdf.Open(fname, nil)
	if err != nil {
		return err
	}
	defer r.Close()

	e := &explainer{
		r:     r,
		out:   out,
		width: lineWidth(),
	}
	switch {
	case objects:
		return e.listObjects()
	case len(path) == 0:
		return e.summary()
	}

	obj, err := e.locate(path...)
	if err != nil {
		return err
	}
	return e.show(obj)
}

// lineWidth returns the width of the terminal, or 0 if standard output is
// not a terminal.
func lineWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}

func showLayout(out io.Writer, fname string) error {
	fd, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer fd.Close()
	fi, err := fd.Stat()
	if err != nil {
		return err
	}

	l, err := pdf.ScanLayout(fd, fi.Size())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "header: %%PDF-%s at %d\n", l.HeaderVersion, l.HeaderPos)
	fmt.Fprintf(out, "size: %d bytes\n", l.Size)
	for i, sec := range l.Sections {
		fmt.Fprintf(out, "\nsection %d:\n", i+1)
		for _, obj := range sec.Objects {
			desc := obj.Type
			if obj.SubType != "" {
				desc += " " + pdf.Format(obj.SubType)
			}
			if obj.Broken {
				desc += " (broken)"
			}
			fmt.Fprintf(out, "  %8d-%-8d %d %d obj %s\n",
				obj.Pos, obj.End, obj.Number, obj.Generation, desc)
		}
		fmt.Fprintf(out, "  xref at %d, trailer at %d, startxref at %d, %%%%EOF at %d\n",
			sec.XRefPos, sec.TrailerPos, sec.StartXRefPos, sec.EOFPos)
	}
	return nil
}

type explainer struct {
	r     *pdf.Reader
	out   io.Writer
	width int
}

func (e *explainer) println(s string) {
	if e.width > 4 && utf8.RuneCountInString(s) > e.width {
		runes := []rune(s)
		s = string(runes[:e.width-3]) + "..."
	}
	fmt.Fprintln(e.out, s)
}

func (e *explainer) summary() error {
	e.println("version: " + e.r.Version().String())
	e.println("objects: " + strconv.FormatInt(e.r.Size(), 10))
	kind := "table"
	if e.r.HasXRefStream() {
		kind = "stream"
	}
	e.println("cross-reference " + kind + " at " + strconv.FormatInt(e.r.StartXRef(), 10))
	chain := e.r.XRefChain()
	if len(chain) > 1 {
		var parts []string
		for _, pos := range chain {
			parts = append(parts, strconv.FormatInt(pos, 10))
		}
		e.println("update chain: " + strings.Join(parts, " -> "))
	}
	e.println("")
	e.println("trailer:")
	return e.show(e.r.Trailer())
}

func (e *explainer) listObjects() error {
	for _, ref := range e.r.Objects() {
		info, _ := e.r.Entry(ref.Number())
		var loc string
		switch info.Kind {
		case pdf.EntryCompressed:
			loc = fmt.Sprintf("in object stream %d, index %d", info.Container, info.Index)
		default:
			loc = fmt.Sprintf("at offset %d", info.Offset)
		}

		obj, err := e.r.Get(ref)
		var desc string
		if err != nil {
			desc = "unreadable: " + err.Error()
		} else {
			desc, err = e.explainSingleLine(obj)
			if err != nil {
				return err
			}
		}
		e.println(fmt.Sprintf("%d %d  %s  %s", ref.Number(), ref.Generation(), loc, desc))
	}
	return nil
}

func (e *explainer) locate(desc ...string) (pdf.Object, error) {
	var obj pdf.Object = e.r.Root()

	for _, key := range desc {
		keyInt, err := strconv.ParseInt(key, 10, 64)
		isInt := err == nil

		switch {
		case key == "":
			return nil, errors.New("empty selector")
		case key == "@trailer":
			obj = e.r.Trailer()
			continue
		case key == "@info":
			obj = e.r.Info()
		case key[0] == '@':
			numStr, genStr, hasGen := strings.Cut(key[1:], ".")
			number, err := strconv.ParseUint(numStr, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid selector %q", key)
			}
			var generation uint64
			if hasGen {
				generation, err = strconv.ParseUint(genStr, 10, 16)
				if err != nil {
					return nil, fmt.Errorf("invalid selector %q", key)
				}
			}
			obj = pdf.NewReference(uint32(number), uint16(generation))
		default:
			obj, err = e.r.Resolve(obj)
			if err != nil {
				return nil, err
			}
			if stm, isStream := obj.(*pdf.Stream); isStream {
				obj = stm.Dict
			}
			switch x := obj.(type) {
			case pdf.Dict:
				if !x.Has(pdf.Name(key)) {
					return nil, fmt.Errorf("key %q not present in dict", key)
				}
				obj = x.Get(pdf.Name(key))
			case pdf.Array:
				if !isInt {
					return nil, fmt.Errorf("key %q not valid for type Array", key)
				}
				idx := keyInt
				if idx < 0 {
					idx += int64(len(x))
				}
				if idx < 0 || idx >= int64(len(x)) {
					return nil, fmt.Errorf("index %d out of range 0...%d", keyInt, len(x)-1)
				}
				obj = x[idx]
			default:
				return nil, fmt.Errorf("key %q not valid for type %T", key, obj)
			}
		}
	}
	return e.r.Resolve(obj)
}

func (e *explainer) explainShort(obj pdf.Object) string {
	switch obj.(type) {
	case nil:
		return "null"
	case *pdf.Stream:
		return "stream"
	case pdf.Dict:
		return "<<...>>"
	case pdf.Array:
		return "[...]"
	default:
		return pdf.Format(obj)
	}
}

func (e *explainer) explainSingleLine(obj pdf.Object) (string, error) {
	switch obj := obj.(type) {
	case nil:
		return "null", nil
	case *pdf.Stream:
		var parts []string
		if tp, err := pdf.GetName(e.r, obj.Dict.Get("Type")); err == nil && tp != "" {
			parts = append(parts, string(tp)+" stream")
		} else {
			parts = append(parts, "stream")
		}
		parts = append(parts, fmt.Sprintf("%d bytes", len(obj.Data)))
		filters, err := pdf.StreamFilters(e.r, obj.Dict)
		var unsupported *pdf.UnsupportedFilterError
		switch {
		case errors.As(err, &unsupported):
			parts = append(parts, string(unsupported.Name))
		case err != nil:
			parts = append(parts, "??!")
		default:
			for i := len(filters) - 1; i >= 0; i-- {
				name, _ := filters[i].Info()
				parts = append(parts, string(name))
			}
		}
		return "<" + strings.Join(parts, ", ") + ">", nil
	case pdf.Dict:
		if obj.Len() <= 4 {
			var parts []string
			for _, key := range obj.Keys() {
				parts = append(parts, pdf.Format(key), e.explainShort(obj.Get(key)))
			}
			return "<<" + strings.Join(parts, " ") + ">>", nil
		}
		var parts []string
		if tp, err := pdf.GetName(e.r, obj.Get("Type")); err == nil && tp != "" {
			parts = append(parts, string(tp)+" dict")
		} else {
			parts = append(parts, "dict")
		}
		parts = append(parts, fmt.Sprintf("%d entries", obj.Len()))
		return "<" + strings.Join(parts, ", ") + ">", nil
	case pdf.Array:
		if len(obj) <= 8 {
			var parts []string
			for _, elem := range obj {
				parts = append(parts, e.explainShort(elem))
			}
			return "[" + strings.Join(parts, " ") + "]", nil
		}
		return fmt.Sprintf("<array, %d elements>", len(obj)), nil
	case pdf.String:
		if s := obj.AsTextString(); utf8.ValidString(s) && !mostlyBinary([]byte(s)) {
			return pdf.Format(obj) + "  % " + strconv.Quote(s), nil
		}
		return pdf.Format(obj), nil
	default:
		return pdf.Format(obj), nil
	}
}

func (e *explainer) show(obj pdf.Object) error {
	switch obj := obj.(type) {
	case nil:
		e.println("null")
	case *pdf.Stream:
		err := e.show(obj.Dict)
		if err != nil {
			return err
		}
		e.println("")

		data, err := pdf.DecodeStream(e.r, obj)
		if errors.Is(err, pdf.ErrUnsupportedFilter) {
			e.println(fmt.Sprintf("... encoded stream data (%d bytes) ...", len(obj.Data)))
			return nil
		} else if err != nil {
			return err
		}
		switch {
		case len(data) == 0:
			e.println("empty stream")
		case mostlyBinary(data[:min(len(data), 128)]):
			e.println(fmt.Sprintf("... binary stream data (%d bytes) ...", len(data)))
		default:
			fmt.Fprintln(e.out, "decoded stream contents:")
			e.out.Write(data)
			fmt.Fprintln(e.out)
		}
	case pdf.Dict:
		e.println("<<")
		for _, key := range obj.Keys() {
			valString, err := e.explainSingleLine(obj.Get(key))
			if err != nil {
				return err
			}
			e.println("  " + pdf.Format(key) + " " + valString)
		}
		e.println(">>")
	case pdf.Array:
		e.println("[")
		for i, elem := range obj {
			valString, err := e.explainSingleLine(elem)
			if err != nil {
				return err
			}
			e.println(fmt.Sprintf("  %d: %s", i, valString))
		}
		e.println("]")
	default:
		s, err := e.explainSingleLine(obj)
		if err != nil {
			return err
		}
		e.println(s)
	}
	return nil
}

func mostlyBinary(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	bad := 0
	for _, c := range buf {
		if c < 32 && c != '\n' && c != '\r' && c != '\t' || c == 127 {
			bad++
		}
	}
	return bad > len(buf)/10
}
