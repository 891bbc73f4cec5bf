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

package external

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/texpdf/pdf"
	"github.com/texpdf/pdf/importcache"
)

// Options control the import of external resources.
// The zero value and nil are both valid.
type Options struct {
	// Cache, if set, is used to store and look up extracted subgraphs.
	Cache *importcache.Cache

	// Logger receives information about cache use and about objects which
	// could not be read.
	Logger *slog.Logger
}

func (opt *Options) logger() *slog.Logger {
	if opt == nil || opt.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return opt.Logger
}

func (opt *Options) cache() *importcache.Cache {
	if opt == nil {
		return nil
	}
	return opt.Cache
}

// ImportExternal copies the object selected by sel from src into w,
// together with all objects reachable from it.  The reference of the
// copy in w is returned.
func ImportExternal(w *pdf.Writer, src Source, sel Selector, opt *Options) (pdf.Reference, error) {
	g, err := extract(src, sel, opt)
	if err != nil {
		return 0, err
	}
	return pdf.ImportSubgraph(w, g)
}

// Job describes one resource for [ImportAll].
type Job struct {
	Source   Source
	Selector Selector
}

// ImportAll imports several resources.  The source files are read
// concurrently, each by its own reader, and the extracted objects are
// then added to w sequentially, in the order of jobs.
//
// The returned slice has one entry per job.  If some jobs fail, the
// references of the failed jobs are 0 and the returned error combines
// the individual errors.
func ImportAll(w *pdf.Writer, jobs []Job, opt *Options) ([]pdf.Reference, error) {
	graphs := make([]*pdf.Subgraph, len(jobs))
	errs := make([]error, len(jobs))

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			graphs[i], errs[i] = extract(job.Source, job.Selector, opt)
		}()
	}
	wg.Wait()

	refs := make([]pdf.Reference, len(jobs))
	for i, g := range graphs {
		if errs[i] != nil {
			errs[i] = fmt.Errorf("%s: %s: %w", jobs[i].Source, jobs[i].Selector, errs[i])
			continue
		}
		ref, err := pdf.ImportSubgraph(w, g)
		if err != nil {
			errs[i] = err
			continue
		}
		refs[i] = ref
	}
	return refs, errors.Join(errs...)
}

// extract returns the subgraph of src selected by sel, using the cache
// if possible.
func extract(src Source, sel Selector, opt *Options) (*pdf.Subgraph, error) {
	log := opt.logger()
	cache := opt.cache()

	data, err := src.load()
	if err != nil {
		return nil, err
	}

	var key []byte
	if cache != nil {
		key = importcache.Key(importcache.Digest(data), sel.String())
		g, ok, err := cache.Get(key)
		if err != nil {
			log.Warn("import cache lookup failed", slog.Any("err", err))
		} else if ok {
			log.Debug("import cache hit",
				slog.String("source", src.String()),
				slog.String("selector", sel.String()))
			return g, nil
		}
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)),
		&pdf.ReaderOptions{Logger: log})
	if err != nil {
		return nil, err
	}
	defer r.Close()

	obj, err := sel.Select(r)
	if err != nil {
		return nil, err
	}

	var g *pdf.Subgraph
	if ref, isRef := obj.(pdf.Reference); isRef {
		g, err = r.Extract(ref)
	} else {
		g, err = extractDirect(r, obj)
	}
	if err != nil {
		return nil, err
	}
	for _, bad := range g.Unreadable {
		log.Warn("object not imported",
			slog.String("source", src.String()),
			slog.String("obj", bad.String()))
	}

	if cache != nil {
		err = cache.Put(key, g)
		if err != nil {
			log.Warn("import cache update failed", slog.Any("err", err))
		}
	}
	return g, nil
}

// extractDirect builds a subgraph for a direct object.  The object
// becomes the root of the subgraph, under the reference 0 which no real
// object can use.
func extractDirect(r *pdf.Reader, obj pdf.Object) (*pdf.Subgraph, error) {
	g := &pdf.Subgraph{
		Objects: map[pdf.Reference]pdf.Object{0: obj},
		Order:   []pdf.Reference{0},
	}
	for _, ref := range references(obj) {
		if _, seen := g.Objects[ref]; seen {
			continue
		}
		sub, err := r.Extract(ref)
		if err != nil {
			g.Unreadable = append(g.Unreadable, ref)
			continue
		}
		for _, x := range sub.Order {
			if _, seen := g.Objects[x]; !seen {
				g.Objects[x] = sub.Objects[x]
				g.Order = append(g.Order, x)
			}
		}
		g.Unreadable = append(g.Unreadable, sub.Unreadable...)
	}
	return g, nil
}

// references lists the references contained in a direct object.
func references(obj pdf.Object) []pdf.Reference {
	var res []pdf.Reference
	var walk func(pdf.Object)
	walk = func(obj pdf.Object) {
		switch x := obj.(type) {
		case pdf.Reference:
			res = append(res, x)
		case pdf.Array:
			for _, elem := range x {
				walk(elem)
			}
		case pdf.Dict:
			for _, e := range x {
				walk(e.Value)
			}
		case *pdf.Stream:
			walk(x.Dict)
		}
	}
	walk(obj)
	return res
}
