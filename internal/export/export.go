// Package export extracts texture payloads from parsed documents.
package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/g1tg"
	"github.com/samcharles93/tmckit/pkg/tmc"
	"github.com/samcharles93/tmckit/pkg/tmc/ngs1"
	"github.com/samcharles93/tmckit/pkg/tmc/ngs2"
	"github.com/samcharles93/tmckit/pkg/tmc/tmc11"
)

// Entry is one exported texture. Data is a complete file: DDS for atlas
// textures, the stored payload otherwise.
type Entry struct {
	Index  int    `json:"index"`
	Ext    string `json:"ext"`
	Format string `json:"format,omitempty"`
	Width  uint32 `json:"width,omitempty"`
	Height uint32 `json:"height,omitempty"`
	Data   []byte `json:"-"`

	// Atlas is set for G1TG textures.
	Atlas *g1tg.Texture `json:"-"`
}

// FileName is the name WriteAll uses for e.
func (e Entry) FileName(prefix string) string {
	return fmt.Sprintf("%s_%03d%s", prefix, e.Index, e.Ext)
}

type directory interface {
	Len() int
	Texture(i int) (container.Span, error)
}

// Textures lists the textures of doc. First-generation files carry a G1TG
// atlas in the TTG section; later ones resolve each TTDH entry against the
// TTDM chunks or the linked TTDL chunks. A document without textures
// yields no entries.
func Textures(doc tmc.Document) ([]Entry, error) {
	switch d := doc.(type) {
	case *ngs1.TMC:
		if d.TTG.Empty() {
			return nil, nil
		}
		return Atlas(d.TTG)
	case *ngs2.TMC:
		if d.TTDM == nil {
			return nil, nil
		}
		return fromDirectory(d.TTDM)
	case *tmc11.TMC:
		if d.TTDM == nil {
			return nil, nil
		}
		return fromDirectory(d.TTDM)
	}
	return nil, fmt.Errorf("%w: %T", tmc.ErrUnknownDialect, doc)
}

// Atlas converts every texture of a G1TG atlas into a DDS file.
func Atlas(data container.Span) ([]Entry, error) {
	a, err := g1tg.Parse(data)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(a.Textures))
	for i := range a.Textures {
		tex := &a.Textures[i]
		dds, err := tex.DDS()
		if err != nil {
			return nil, fmt.Errorf("texture %d: %w", i, err)
		}
		out[i] = Entry{
			Index:  i,
			Ext:    ".dds",
			Format: tex.Format.String(),
			Width:  tex.Width,
			Height: tex.Height,
			Data:   dds,
			Atlas:  tex,
		}
	}
	return out, nil
}

func fromDirectory(dir directory) ([]Entry, error) {
	out := make([]Entry, 0, dir.Len())
	for i := range dir.Len() {
		payload, err := dir.Texture(i)
		if err != nil {
			return nil, err
		}
		if payload.Empty() {
			continue
		}
		out = append(out, Entry{Index: i, Ext: sniff(payload.Bytes()), Data: payload.Bytes()})
	}
	return out, nil
}

var signatures = []struct {
	magic []byte
	ext   string
}{
	{[]byte("DDS "), ".dds"},
	{[]byte("G1TG"), ".g1t"},
	{[]byte("GT1G"), ".g1t"},
}

func sniff(b []byte) string {
	for _, s := range signatures {
		if bytes.HasPrefix(b, s.magic) {
			return s.ext
		}
	}
	return ".bin"
}

// WriteAll writes every entry into dir as <prefix>_NNN<ext> and returns the
// paths written.
func WriteAll(dir, prefix string, entries []Entry) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		path := filepath.Join(dir, e.FileName(prefix))
		if err := os.WriteFile(path, e.Data, 0o644); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
