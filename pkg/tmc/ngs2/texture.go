package ngs2

import (
	"fmt"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/tmc/section"
)

// TTDM is the texture directory. Its metadata is a TTDH container of
// entries, its sub-container a TTDL container whose chunks live in linked
// data, and its own chunks hold textures stored inline.
type TTDM struct {
	Container *container.Container `json:"-"`
	Entries   []*TTDHEntry         `json:"entries"`
	TTDL      *section.Layout      `json:"-"`
}

// TTDHEntry locates one texture: chunk Index of TTDL when InTTDL is set,
// otherwise chunk Index of the TTDM itself.
type TTDHEntry struct {
	InTTDL bool  `json:"in_ttdl"`
	Index  int32 `json:"index"`
}

func parseTTDM(data, ttdl container.Span) (*TTDM, error) {
	c, err := container.Parse("TTDM", data, container.Span{})
	if err != nil {
		return nil, err
	}
	t := &TTDM{Container: c}
	ttdh, err := container.Parse("TTDH", c.Metadata, container.Span{})
	if err != nil {
		return nil, err
	}
	if t.Entries, err = section.Records(ttdh, func(s container.Span) (*TTDHEntry, error) {
		f := container.FieldsOf(s)
		e := &TTDHEntry{InTTDL: f.Bool(0x0), Index: f.I32(0x4)}
		return e, f.Err()
	}); err != nil {
		return nil, err
	}
	if !c.SubContainer.Empty() {
		if t.TTDL, err = section.ParseLayout("TTDL", c.SubContainer, ttdl); err != nil {
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

// Len returns the number of texture entries.
func (t *TTDM) Len() int { return len(t.Entries) }
