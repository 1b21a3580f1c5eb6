// Package report renders parsed documents as JSON for the dump command and
// the HTTP API.
package report

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/tmc"
	"github.com/samcharles93/tmckit/pkg/tmc/ngs1"
	"github.com/samcharles93/tmckit/pkg/tmc/ngs2"
	"github.com/samcharles93/tmckit/pkg/tmc/tmc11"
)

// Range locates bytes within the buffer they were read from.
type Range struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

func rangeOf(s container.Span) Range { return Range{Offset: s.Offset(), Length: s.Len()} }

type Failure struct {
	Name  string `json:"name"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type Summary struct {
	Dialect  tmc.Dialect       `json:"dialect"`
	Name     string            `json:"name"`
	Size     int               `json:"size"`
	Linked   bool              `json:"linked"`
	Sections []tmc.SectionInfo `json:"sections"`
	Failures []Failure         `json:"failures,omitempty"`
}

// Chunk is one outer chunk of the TMC container.
type Chunk struct {
	Index int    `json:"index"`
	Code  string `json:"code"`
	Name  string `json:"name,omitempty"`
	Range
}

// Tree is the full dump of a document: the summary, the outer chunk layout
// and every decoded record.
type Tree struct {
	Summary  Summary      `json:"summary"`
	Chunks   []Chunk      `json:"chunks"`
	Document tmc.Document `json:"document"`
}

func hexCode(code uint32) string { return fmt.Sprintf("0x%08X", code) }

func outer(doc tmc.Document) (*container.Container, []uint32) {
	switch d := doc.(type) {
	case *ngs1.TMC:
		return d.Container, d.TypeCodes
	case *ngs2.TMC:
		return d.Container, d.TypeCodes
	case *tmc11.TMC:
		return d.Container, d.TypeCodes
	}
	return nil, nil
}

func Summarize(doc tmc.Document) Summary {
	s := Summary{
		Dialect:  doc.Dialect(),
		Name:     doc.Name(),
		Sections: doc.Sections(),
	}
	if c, _ := outer(doc); c != nil {
		s.Size = int(c.Size)
	}
	switch d := doc.(type) {
	case *ngs1.TMC:
		s.Linked = d.VtxLay != nil || d.IdxLay != nil
	case *ngs2.TMC:
		s.Linked = d.LHeader != nil
	case *tmc11.TMC:
		s.Linked = d.LHeader != nil
	}
	for _, f := range doc.Failures() {
		s.Failures = append(s.Failures, Failure{Name: f.Name, Code: hexCode(f.Code), Error: f.Err.Error()})
	}
	return s
}

func Build(doc tmc.Document) Tree {
	t := Tree{Summary: Summarize(doc), Document: doc}
	names := make(map[uint32]string, len(t.Summary.Sections))
	for _, s := range t.Summary.Sections {
		names[s.Code] = s.Name
	}
	c, codes := outer(doc)
	if c == nil {
		return t
	}
	t.Chunks = make([]Chunk, 0, len(c.Chunks))
	for i, ch := range c.Chunks {
		if ch.Empty() {
			continue
		}
		var code uint32
		if i < len(codes) {
			code = codes[i]
		}
		t.Chunks = append(t.Chunks, Chunk{Index: i, Code: hexCode(code), Name: names[code], Range: rangeOf(ch)})
	}
	return t
}

// WriteJSON encodes v followed by a newline. A non-empty indent pretty-prints.
func WriteJSON(w io.Writer, v any, indent string) error {
	enc := json.NewEncoder(w)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(v)
}

// WriteZstdJSON writes v as compact JSON inside a zstd frame.
func WriteZstdJSON(w io.Writer, v any) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return err
	}
	if err := WriteJSON(zw, v, ""); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}
