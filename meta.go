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
	"errors"
	"strconv"
	"time"

	"golang.org/x/text/language"
)

// Version represents a version of PDF standard.
type Version int

// PDF versions supported by this library.
const (
	_ Version = iota
	V1_0
	V1_1
	V1_2
	V1_3
	V1_4
	V1_5
	V1_6
	V1_7
	V2_0
)

var errVersion = errors.New("unsupported PDF version")

// ParseVersion parses a PDF version string.
func ParseVersion(verString string) (Version, error) {
	switch verString {
	case "1.0":
		return V1_0, nil
	case "1.1":
		return V1_1, nil
	case "1.2":
		return V1_2, nil
	case "1.3":
		return V1_3, nil
	case "1.4":
		return V1_4, nil
	case "1.5":
		return V1_5, nil
	case "1.6":
		return V1_6, nil
	case "1.7":
		return V1_7, nil
	case "2.0":
		return V2_0, nil
	}
	return 0, errVersion
}

// ToString returns the string representation of ver, e.g. "1.7".
// If ver does not correspond to a supported PDF version, an error is
// returned.
func (ver Version) ToString() (string, error) {
	if ver >= V1_0 && ver <= V1_7 {
		return "1." + strconv.Itoa(int(ver-V1_0)), nil
	}
	if ver == V2_0 {
		return "2.0", nil
	}
	return "", errVersion
}

func (ver Version) String() string {
	versionString, err := ver.ToString()
	if err != nil {
		versionString = "pdf.Version(" + strconv.Itoa(int(ver)) + ")"
	}
	return versionString
}

// Catalog represents the entries of the document catalog which this
// library interprets.  All other entries are kept in Extra.
type Catalog struct {
	Pages    Reference
	Metadata Reference
	Lang     language.Tag

	// PageLayout and PageMode are optional viewer hints.
	PageLayout Name
	PageMode   Name

	// Extra holds all other entries of the catalog dictionary.
	Extra Dict
}

// AsDict returns the catalog dictionary.
func (c *Catalog) AsDict() Dict {
	d := Dict{{"Type", Name("Catalog")}, {"Pages", c.Pages}}
	if c.PageLayout != "" {
		d.Set("PageLayout", c.PageLayout)
	}
	if c.PageMode != "" {
		d.Set("PageMode", c.PageMode)
	}
	if c.Lang != language.Und {
		d.Set("Lang", TextString(c.Lang.String()))
	}
	if c.Metadata != 0 {
		d.Set("Metadata", c.Metadata)
	}
	for _, e := range c.Extra {
		if !d.Has(e.Key) {
			d.Set(e.Key, e.Value)
		}
	}
	return d
}

// DecodeCatalog reads the document catalog of a file.
func DecodeCatalog(r Getter, obj Object) (*Catalog, error) {
	d, err := GetDict(r, obj)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, &MalformedFileError{Err: errors.New("missing document catalog")}
	}

	c := &Catalog{}
	for _, e := range d {
		switch e.Key {
		case "Type":
			// pass
		case "Pages":
			c.Pages, _ = e.Value.(Reference)
		case "Metadata":
			c.Metadata, _ = e.Value.(Reference)
		case "PageLayout":
			c.PageLayout, _ = e.Value.(Name)
		case "PageMode":
			c.PageMode, _ = e.Value.(Name)
		case "Lang":
			s, err := GetString(r, e.Value)
			if err != nil {
				return nil, err
			}
			// malformed language tags are ignored
			c.Lang, _ = language.Parse(s.AsTextString())
		default:
			c.Extra.Set(e.Key, e.Value)
		}
	}
	if c.Pages == 0 {
		return nil, &MalformedFileError{Err: errors.New("catalog without /Pages")}
	}
	return c, nil
}

// Info represents a PDF Document Information Dictionary.
// All fields in this structure are optional.
type Info struct {
	Title    string
	Author   string
	Subject  string
	Keywords string

	// Creator gives the name of the application that created the original
	// document, if the document was converted to PDF from another format.
	Creator string

	// Producer gives the name of the application that converted the document
	// to PDF.
	Producer string

	CreationDate time.Time
	ModDate      time.Time

	// Trapped is one of "True", "False" or "Unknown".
	Trapped Name

	// Custom contains all non-standard fields in the Info dictionary.
	Custom map[string]string
}

// AsDict returns the document information dictionary.
func (info *Info) AsDict() Dict {
	var d Dict
	text := func(key Name, val string) {
		if val != "" {
			d.Set(key, TextString(val))
		}
	}
	text("Title", info.Title)
	text("Author", info.Author)
	text("Subject", info.Subject)
	text("Keywords", info.Keywords)
	text("Creator", info.Creator)
	text("Producer", info.Producer)
	if !info.CreationDate.IsZero() {
		d.Set("CreationDate", Date(info.CreationDate))
	}
	if !info.ModDate.IsZero() {
		d.Set("ModDate", Date(info.ModDate))
	}
	if info.Trapped != "" {
		d.Set("Trapped", info.Trapped)
	}
	for key, val := range info.Custom {
		text(Name(key), val)
	}
	return d
}

// DecodeInfo reads a document information dictionary.  Entries with
// unexpected types are ignored.
func DecodeInfo(r Getter, obj Object) (*Info, error) {
	d, err := GetDict(r, obj)
	if err != nil {
		return nil, err
	}

	info := &Info{}
	for _, e := range d {
		val, err := Resolve(r, e.Value)
		if err != nil {
			return nil, err
		}
		s, isString := val.(String)
		switch e.Key {
		case "Title":
			info.Title = s.AsTextString()
		case "Author":
			info.Author = s.AsTextString()
		case "Subject":
			info.Subject = s.AsTextString()
		case "Keywords":
			info.Keywords = s.AsTextString()
		case "Creator":
			info.Creator = s.AsTextString()
		case "Producer":
			info.Producer = s.AsTextString()
		case "CreationDate":
			info.CreationDate, _ = s.AsDate()
		case "ModDate":
			info.ModDate, _ = s.AsDate()
		case "Trapped":
			switch x := val.(type) {
			case Name:
				info.Trapped = x
			case Bool:
				info.Trapped = "False"
				if x {
					info.Trapped = "True"
				}
			}
		default:
			if isString {
				if info.Custom == nil {
					info.Custom = make(map[string]string)
				}
				info.Custom[string(e.Key)] = s.AsTextString()
			}
		}
	}
	return info, nil
}
