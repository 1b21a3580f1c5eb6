package tmc11

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/schema"
	"github.com/samcharles93/tmckit/pkg/tmc/section"
)

const colorCount = 13

type MtrCol struct {
	Container *container.Container `json:"-"`
	Chunks    []*MtrColChunk       `json:"chunks"`
}

// MtrColChunk keeps the colour block whole; the meaning of most of its
// thirteen entries is not known.
type MtrColChunk struct {
	Colors [colorCount]mgl32.Vec4 `json:"colors"`
	Index  int32                  `json:"index"`
	XRefs  []schema.XRef          `json:"xrefs,omitempty"`
}

func parseMtrCol(data container.Span) (*MtrCol, error) {
	c, err := container.Parse("MtrCol", data, container.Span{})
	if err != nil {
		return nil, err
	}
	chunks, err := section.Records(c, func(s container.Span) (*MtrColChunk, error) {
		r := schema.NewReader(s)
		m := &MtrColChunk{}
		for i := range m.Colors {
			m.Colors[i] = r.Vec4(0x10 * i)
		}
		m.Index = r.I32(0xd0)
		m.XRefs = r.XRefs(0xd4, 0xd8)
		if err := r.Err(); err != nil {
			return nil, err
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return &MtrCol{Container: c, Chunks: chunks}, nil
}

type MdlInfo struct {
	Container *container.Container `json:"-"`
	Objects   []*ObjInfo           `json:"objects"`
}

type ObjInfo struct {
	Container *container.Container `json:"-"`
	Index     int32                `json:"index"`
	Type      uint32               `json:"type"`
}

func parseMdlInfo(data container.Span) (*MdlInfo, error) {
	c, err := container.Parse("MdlInfo", data, container.Span{})
	if err != nil {
		return nil, err
	}
	objs, err := section.Records(c, func(s container.Span) (*ObjInfo, error) {
		oc, err := container.Parse("ObjInfo", s, container.Span{})
		if err != nil {
			return nil, err
		}
		f := container.FieldsOf(oc.Metadata)
		o := &ObjInfo{Container: oc, Index: f.I32(0x4), Type: f.U32(0xc)}
		return o, f.Err()
	})
	if err != nil {
		return nil, err
	}
	return &MdlInfo{Container: c, Objects: objs}, nil
}
