package ngs2

import (
	"fmt"

	"github.com/samcharles93/tmckit/pkg/container"
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

// ObjInfo carries everything in its metadata. Its chunks are not decoded.
type ObjInfo struct {
	Container         *container.Container `json:"-"`
	Unknown00         uint16               `json:"unknown_00"`
	Unknown02         uint16               `json:"unknown_02"`
	ObjIndex          uint32               `json:"obj_index"`
	Unknown08         uint32               `json:"unknown_08"`
	WeightedNodeCount uint32               `json:"weighted_node_count"`
	Unknown10         [20]uint32           `json:"unknown_10"`
	Unknown60         [4]float32           `json:"unknown_60"`
}

func parseObjInfo(data container.Span) (*ObjInfo, error) {
	c, err := container.Parse("ObjInfo", data, container.Span{})
	if err != nil {
		return nil, err
	}
	f := container.FieldsOf(c.Metadata)
	o := &ObjInfo{
		Container:         c,
		Unknown00:         f.U16(0x0),
		Unknown02:         f.U16(0x2),
		ObjIndex:          f.U32(0x4),
		Unknown08:         f.U32(0x8),
		WeightedNodeCount: f.U32(0xc),
	}
	f.Words(0x10, o.Unknown10[:])
	for i := range o.Unknown60 {
		o.Unknown60[i] = f.F32(0x60 + 4*i)
	}
	if err := f.Err(); err != nil {
		return nil, fmt.Errorf("ObjInfo metadata: %w", err)
	}
	return o, nil
}
