package ngs1

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/schema"
	"github.com/samcharles93/tmckit/pkg/tmc/section"
)

// MtrCol holds the material colour blocks.
type MtrCol struct {
	Container *container.Container `json:"-"`
	Chunks    []*MtrColChunk       `json:"chunks"`
}

// MtrColChunk is one colour block. EXTMCOL variants share the layout but
// carry no cross-references.
type MtrColChunk struct {
	Emission          mgl32.Vec4    `json:"emission"`
	Specular          mgl32.Vec4    `json:"specular"`
	SpecularPower     mgl32.Vec4    `json:"specular_power"`
	Unknown30         mgl32.Vec4    `json:"unknown_30"`
	IOR               float32       `json:"ior"`
	SpecularGlowPower float32       `json:"specular_glow_power"`
	DiffuseGlowPower  float32       `json:"diffuse_glow_power"`
	Unknown4C         float32       `json:"unknown_4c"`
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
		Unknown30:         r.Vec4(0x30),
		IOR:               r.F32(0x40),
		SpecularGlowPower: r.F32(0x44),
		DiffuseGlowPower:  r.F32(0x48),
		Unknown4C:         r.F32(0x4c),
		Index:             r.I32(0x50),
	}
}

func parseMtrColChunk(s container.Span) (*MtrColChunk, error) {
	r := schema.NewReader(s)
	m := readColors(r)
	// The power's fourth component is stored apart from the other three.
	m.SpecularPower = r.Vec3(0x20).Vec4(r.F32(0x40))
	m.XRefs = r.XRefs(0x54, 0x58)
	if err := r.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// ExtMCol holds colour variants: VariantCount rows of ElementCount blocks.
type ExtMCol struct {
	Container    *container.Container `json:"-"`
	VariantCount uint32               `json:"variant_count"`
	ElementCount uint32               `json:"element_count"`
	Chunks       []*MtrColChunk       `json:"chunks"`
	Variants     [][]*MtrColChunk     `json:"-"`
}

func parseExtMCol(data container.Span) (*ExtMCol, error) {
	c, err := container.Parse("EXTMCOL", data, container.Span{})
	if err != nil {
		return nil, err
	}
	f := container.FieldsOf(c.Metadata)
	e := &ExtMCol{Container: c, VariantCount: f.U32(0x0), ElementCount: f.U32(0x4)}
	if err := f.Err(); err != nil {
		return nil, fmt.Errorf("EXTMCOL metadata: %w", err)
	}
	if e.Chunks, err = section.Records(c, parseExtMColChunk); err != nil {
		return nil, err
	}
	if e.Variants, err = schema.GroupVariants(e.Chunks, int(e.VariantCount), int(e.ElementCount)); err != nil {
		return nil, fmt.Errorf("EXTMCOL: %w", err)
	}
	return e, nil
}

func parseExtMColChunk(s container.Span) (*MtrColChunk, error) {
	r := schema.NewReader(s)
	m := readColors(r)
	m.SpecularPower = r.Vec4(0x20)
	if err := r.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
