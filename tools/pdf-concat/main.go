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

// Pdf-concat concatenates PDF files.
//
// The pages of all input files are copied, in order, into a new file.
// Page contents, resources and annotations are preserved.  Document level
// structure like outlines and forms is not copied.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/texpdf/pdf"
	"github.com/texpdf/pdf/tools/internal/buildinfo"
	"github.com/texpdf/pdf/tools/internal/profile"
)

func main() {
	out := flag.String("o", "out.pdf", "output file name")
	force := flag.Bool("f", false, "overwrite output file if it exists")
	title := flag.String("title", "", "document title for the output file")
	verbose := flag.Bool("v", false, "log progress information")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to `file`")
	memprofile := flag.String("memprofile", "", "write memory profile to `file`")
	version := flag.Bool("version", false, "show version information and exit")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: pdf-concat [options] in1.pdf in2.pdf ...")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *version {
		fmt.Println(buildinfo.Short("pdf-concat"))
		return
	}
	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "pdf-concat: no input files given")
		flag.Usage()
		os.Exit(2)
	}

	if !*force {
		_, err := os.Stat(*out)
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "pdf-concat: output file %q already exists\n", *out)
			os.Exit(1)
		}
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	prof, err := profile.Start(*cpuprofile, *memprofile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pdf-concat:", err)
		os.Exit(1)
	}

	opt := &concatOptions{Logger: logger}
	if *title != "" {
		opt.Info = &pdf.Info{Title: *title, Producer: buildinfo.Short("pdf-concat")}
	}
	err = concatFiles(*out, flag.Args(), opt)
	err = errors.Join(err, prof.Stop())
	if err != nil {
		fmt.Fprintln(os.Stderr, "pdf-concat:", err)
		os.Exit(1)
	}
}
