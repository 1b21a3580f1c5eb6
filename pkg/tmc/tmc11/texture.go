package tmc11

import (
	"fmt"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/tmc/section"
)

// TTDM is the texture directory: TTDH entries in the metadata, a TTDL
// sub-container backed by linked data, and inline textures as chunks.
type TTDM struct {
	Container *container.Container `json:"-"`
	Entries   []*TTDHEntry         `json:"entries"`
	TTDL      *section.Layout      `json:"-"`
}

type TTDHEntry struct {
	InTTDL bool  `json:"in_ttdl"`
	Index  int32 `json:"index"`
}

func parseTTDM(data, linked container.Span) (*TTDM, error) {
	c, err := container.Parse("TTDM", data, container.Span{})
	if err != nil {
		return nil, err
	}
	ttdh, err := container.Parse("TTDH", c.Metadata, container.Span{})
	if err != nil {
		return nil, err
	}
	t := &TTDM{Container: c}
	t.Entries, err = section.Records(ttdh, func(s container.Span) (*TTDHEntry, error) {
		f := container.FieldsOf(s)
		e := &TTDHEntry{InTTDL: f.Bool(0x0), Index: f.I32(0x4)}
		return e, f.Err()
	})
	if err != nil {
		return nil, err
	}
	if !c.SubContainer.Empty() {
		if t.TTDL, err = section.ParseLayout("TTDL", c.SubContainer, linked); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Texture returns the payload of texture entry i.
func (t *TTDM) Texture(i int) (container.Span, error) {
	if i < 0 || i >= len(t.Entries) || t.Entries[i] == nil {
		return container.Span{}, fmt.Errorf("texture entry %d: %w", i,
			&container.OutOfBoundsError{Start: i, End: i + 1, Len: len(t.Entries)})
	}
	e := t.Entries[i]
	if e.InTTDL {
		return t.TTDL.Buffer(int(e.Index))
	}
	return (&section.Layout{Container: t.Container}).Buffer(int(e.Index))
}

func (t *TTDM) Len() int { return len(t.Entries) }
