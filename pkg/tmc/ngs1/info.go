package ngs1

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/schema"
	"github.com/samcharles93/tmckit/pkg/tmc/section"
)

type MdlInfo struct {
	Container *container.Container `json:"-"`
	Objects   []*ObjInfo           `json:"objects"`
}

func parseMdlInfo(data container.Span) (*MdlInfo, error) {
	c, err := container.Parse("MdlInfo", data, container.Span{})
	if err != nil {
		return nil, err
	}
	objs, err := section.Records(c, parseObjInfo)
	if err != nil {
		return nil, err
	}
	return &MdlInfo{Container: c, Objects: objs}, nil
}

type ObjInfoMeta struct {
	Unknown00         uint16       `json:"unknown_00"`
	Unknown02         uint16       `json:"unknown_02"`
	ObjIndex          uint32       `json:"obj_index"`
	Unknown08         uint32       `json:"unknown_08"`
	WeightedNodeCount uint32       `json:"weighted_node_count"`
	Chunk             ObjInfoChunk `json:"chunk"`
}

type ObjInfoChunk struct {
	Index     uint32     `json:"index"`
	Unknown04 [7]uint32  `json:"unknown_04"`
	Unknown20 mgl32.Vec4 `json:"unknown_20"`
	Unknown30 mgl32.Vec4 `json:"unknown_30"`
	Unknown40 mgl32.Vec3 `json:"unknown_40"`
}

type ObjInfo struct {
	Container *container.Container `json:"-"`
	Meta      ObjInfoMeta          `json:"meta"`
	Chunks    []*ObjInfoChunk      `json:"chunks"`
}

func readObjInfoChunk(r schema.Reader, base int) ObjInfoChunk {
	ch := ObjInfoChunk{
		Index:     r.U32(base),
		Unknown20: r.Vec4(base + 0x20),
		Unknown30: r.Vec4(base + 0x30),
		Unknown40: r.Vec3(base + 0x40),
	}
	r.Words(base+0x4, ch.Unknown04[:])
	return ch
}

func parseObjInfo(data container.Span) (*ObjInfo, error) {
	c, err := container.Parse("ObjInfo", data, container.Span{})
	if err != nil {
		return nil, err
	}
	r := schema.NewReader(c.Metadata)
	o := &ObjInfo{Container: c}
	o.Meta = ObjInfoMeta{
		Unknown00:         r.U16(0x0),
		Unknown02:         r.U16(0x2),
		ObjIndex:          r.U32(0x4),
		Unknown08:         r.U32(0x8),
		WeightedNodeCount: r.U32(0xc),
		Chunk:             readObjInfoChunk(r, 0x10),
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("ObjInfo metadata: %w", err)
	}
	o.Chunks, err = section.Records(c, func(s container.Span) (*ObjInfoChunk, error) {
		r := schema.NewReader(s)
		ch := readObjInfoChunk(r, 0)
		return &ch, r.Err()
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}
