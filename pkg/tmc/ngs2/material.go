package ngs2

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/schema"
	"github.com/samcharles93/tmckit/pkg/tmc/section"
)

// colorBlockSize is the colour part of a MtrCol chunk, before the index.
const colorBlockSize = 0xd0

type MtrCol struct {
	Container *container.Container `json:"-"`
	Chunks    []*MtrColChunk       `json:"chunks"`
}

type MtrColChunk struct {
	Emission          mgl32.Vec4    `json:"emission"`
	Specular          mgl32.Vec4    `json:"specular"`
	SpecularPower     mgl32.Vec4    `json:"specular_power"`
	Unknown30         mgl32.Vec4    `json:"unknown_30"`
	Unknown40         mgl32.Vec4    `json:"unknown_40"`
	Unknown50         mgl32.Vec4    `json:"unknown_50"`
	SpecularGlowPower float32       `json:"specular_glow_power"`
	DiffuseGlowPower  float32       `json:"diffuse_glow_power"`
	Unknown70         mgl32.Vec4    `json:"unknown_70"`
	Coat              mgl32.Vec4    `json:"coat"`
	Sheen             mgl32.Vec4    `json:"sheen"`
	UnknownA0         mgl32.Vec4    `json:"unknown_a0"`
	UnknownB0         mgl32.Vec4    `json:"unknown_b0"`
	UnknownC0         mgl32.Vec4    `json:"unknown_c0"`
	Index             int32         `json:"index"`
	XRefs             []schema.XRef `json:"xrefs,omitempty"`
}

func parseMtrCol(data container.Span) (*MtrCol, error) {
	c, err := container.Parse("MtrCol", data, container.Span{})
	if err != nil {
		return nil, err
	}
	chunks, err := section.Records(c, parseMtrColChunk)
	if err != nil {
		return nil, err
	}
	return &MtrCol{Container: c, Chunks: chunks}, nil
}

func readColors(r schema.Reader) *MtrColChunk {
	return &MtrColChunk{
		Emission:          r.Vec4(0x0),
		Specular:          r.Vec4(0x10),
		SpecularPower:     r.Vec4(0x20),
		Unknown30:         r.Vec4(0x30),
		Unknown40:         r.Vec4(0x40),
		Unknown50:         r.Vec4(0x50),
		SpecularGlowPower: r.F32(0x68),
		DiffuseGlowPower:  r.F32(0x6c),
		Unknown70:         r.Vec4(0x70),
		Coat:              r.Vec4(0x80),
		Sheen:             r.Vec4(0x90),
		UnknownA0:         r.Vec4(0xa0),
		UnknownB0:         r.Vec4(0xb0),
		UnknownC0:         r.Vec4(0xc0),
	}
}

func parseMtrColChunk(s container.Span) (*MtrColChunk, error) {
	r := schema.NewReader(s)
	m := readColors(r)
	m.Index = r.I32(0xd0)
	m.XRefs = r.XRefs(0xd4, 0xd8)
	if err := r.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

type MtrlChngMeta struct {
	Unknown00    uint16 `json:"unknown_00"`
	Unknown02    uint16 `json:"unknown_02"`
	Unknown04    uint32 `json:"unknown_04"`
	VariantCount uint32 `json:"variant_count"`
	ElementCount uint32 `json:"element_count"`
}

// MtrlChng holds material colour variants. The colour blocks are packed in
// chunk 2 without index or cross-references.
type MtrlChng struct {
	Container *container.Container `json:"-"`
	Meta      MtrlChngMeta         `json:"meta"`
	Colors    []*MtrColChunk       `json:"colors"`
	Variants  [][]*MtrColChunk     `json:"-"`
}

const mtrlChngColorChunk = 2

func parseMtrlChng(data container.Span) (*MtrlChng, error) {
	c, err := container.Parse("MTRLCHNG", data, container.Span{})
	if err != nil {
		return nil, err
	}
	f := container.FieldsOf(c.Metadata)
	m := &MtrlChng{Container: c}
	m.Meta = MtrlChngMeta{
		Unknown00:    f.U16(0x0),
		Unknown02:    f.U16(0x2),
		Unknown04:    f.U32(0x4),
		VariantCount: f.U32(0x8),
		ElementCount: f.U32(0xc),
	}
	if err := f.Err(); err != nil {
		return nil, fmt.Errorf("MTRLCHNG metadata: %w", err)
	}

	total := int(m.Meta.VariantCount) * int(m.Meta.ElementCount)
	colors := c.Chunk(mtrlChngColorChunk)
	if total > 0 && colors.Empty() {
		return nil, fmt.Errorf("MTRLCHNG: colour chunk %d is absent: %w", mtrlChngColorChunk, container.ErrMisalignedOrTruncated)
	}
	if _, err := colors.Window(0, total*colorBlockSize); err != nil {
		return nil, fmt.Errorf("MTRLCHNG colours: %w", err)
	}
	m.Colors = make([]*MtrColChunk, total)
	for i := range m.Colors {
		block, err := colors.Window(i*colorBlockSize, colorBlockSize)
		if err != nil {
			return nil, err
		}
		r := schema.NewReader(block)
		m.Colors[i] = readColors(r)
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("MTRLCHNG colour %d: %w", i, err)
		}
	}
	if m.Variants, err = schema.GroupVariants(m.Colors, int(m.Meta.VariantCount), int(m.Meta.ElementCount)); err != nil {
		return nil, fmt.Errorf("MTRLCHNG: %w", err)
	}
	return m, nil
}
