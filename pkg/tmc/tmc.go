// Package tmc is the entry point for decoding TMC model files. It selects a
// dialect decoder and returns its document behind a common interface.
package tmc

import (
	"errors"
	"fmt"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/tmc/ngs1"
	"github.com/samcharles93/tmckit/pkg/tmc/ngs2"
	"github.com/samcharles93/tmckit/pkg/tmc/section"
	"github.com/samcharles93/tmckit/pkg/tmc/tmc11"
)

type (
	Dialect      = section.Dialect
	Options      = section.Options
	Logger       = section.Logger
	Document     = section.Document
	SectionInfo  = section.Info
	SectionError = section.Error
)

const (
	DialectUnknown = section.DialectUnknown
	NGS1           = section.NGS1
	NGS2           = section.NGS2
	TMC11          = section.TMC11
)

var ErrUnknownDialect = section.ErrUnknownDialect

// Dialects lists the supported dialects in generation order.
var Dialects = []Dialect{NGS1, NGS2, TMC11}

func ParseDialect(s string) (Dialect, error) { return section.ParseDialect(s) }

// Parse decodes primary with the decoder for d. linked is the companion
// buffer and may be empty.
func Parse(d Dialect, primary, linked container.Span, opts Options) (Document, error) {
	var (
		doc Document
		err error
	)
	switch d {
	case NGS1:
		doc, err = ngs1.Parse(primary, linked, opts)
	case NGS2:
		doc, err = ngs2.Parse(primary, linked, opts)
	case TMC11:
		doc, err = tmc11.Parse(primary, linked, opts)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownDialect, uint8(d))
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// RequireSections reports the first of codes whose section is absent or
// failed to decode.
func RequireSections(doc Document, codes ...uint32) error {
	failed := make(map[uint32]bool, len(doc.Failures()))
	for _, f := range doc.Failures() {
		failed[f.Code] = true
	}
	present := make(map[uint32]SectionInfo)
	for _, s := range doc.Sections() {
		if s.Present {
			present[s.Code] = s
		}
	}
	for _, code := range codes {
		if _, ok := present[code]; ok && !failed[code] {
			continue
		}
		name := fmt.Sprintf("0x%08X", code)
		for _, s := range doc.Sections() {
			if s.Code == code {
				name = s.Name
				break
			}
		}
		return &container.MissingRequiredSectionError{Code: code, Name: name}
	}
	return nil
}

// File is a document decoded from files on disk. The mappings stay open
// until Close because the document's spans point into them.
type File struct {
	Document
	primary *container.Mapping
	linked  *container.Mapping
}

// Open maps the TMC file at path and, when linkedPath is not empty, its
// companion, then decodes them.
func Open(d Dialect, path, linkedPath string, opts Options) (*File, error) {
	primary, err := container.OpenMapping(path)
	if err != nil {
		return nil, err
	}
	f := &File{primary: primary}
	var linked container.Span
	if linkedPath != "" {
		if f.linked, err = container.OpenMapping(linkedPath); err != nil {
			_ = primary.Close()
			return nil, err
		}
		linked = f.linked.Span()
	}
	if f.Document, err = Parse(d, primary.Span(), linked, opts); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// Close releases the mappings. The document must not be used afterwards.
func (f *File) Close() error {
	var errs []error
	if f.primary != nil {
		errs = append(errs, f.primary.Close())
		f.primary = nil
	}
	if f.linked != nil {
		errs = append(errs, f.linked.Close())
		f.linked = nil
	}
	return errors.Join(errs...)
}
