package tmc11

import (
	"fmt"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/schema"
	"github.com/samcharles93/tmckit/pkg/tmc/section"
)

const textureMapSize = 0x7c

type MdlGeo struct {
	Container *container.Container `json:"-"`
	Objects   []*ObjGeo            `json:"objects"`
}

func parseMdlGeo(data container.Span) (*MdlGeo, error) {
	c, err := container.Parse("MdlGeo", data, container.Span{})
	if err != nil {
		return nil, err
	}
	objs, err := section.Records(c, parseObjGeo)
	if err != nil {
		return nil, err
	}
	return &MdlGeo{Container: c, Objects: objs}, nil
}

type ObjGeo struct {
	Container *container.Container `json:"-"`
	Index     int32                `json:"index"`
	Name      string               `json:"name"`
	GeoDecl   *GeoDecl             `json:"geodecl,omitempty"`
	Chunks    []*ObjGeoChunk       `json:"chunks"`
}

func parseObjGeo(data container.Span) (*ObjGeo, error) {
	c, err := container.Parse("ObjGeo", data, container.Span{})
	if err != nil {
		return nil, err
	}
	f := container.FieldsOf(c.Metadata)
	o := &ObjGeo{Container: c, Index: f.I32(0x4), Name: f.CStringRest(0x20)}
	if err := f.Err(); err != nil {
		return nil, fmt.Errorf("ObjGeo metadata: %w", err)
	}
	if !c.SubContainer.Empty() {
		if o.GeoDecl, err = parseGeoDecl(c.SubContainer); err != nil {
			return nil, err
		}
	}
	if o.Chunks, err = section.Records(c, parseObjGeoChunk); err != nil {
		return nil, err
	}
	return o, nil
}

// ObjGeoChunk is one draw group. 0x20..0x40 and 0x50..0x60 are filled in by
// the game at load time.
type ObjGeoChunk struct {
	Index        int32        `json:"index"`
	MtrColIndex  int32        `json:"mtrcol_index"`
	GeoDeclIndex uint32       `json:"geodecl_index"`
	Transparent1 uint32       `json:"transparent1"`
	Unknown44    uint32       `json:"unknown_44"`
	Transparent2 uint32       `json:"transparent2"`
	Unknown4C    uint32       `json:"unknown_4c"`
	Unknown60    [5]uint32    `json:"unknown_60"`
	TwoSided     bool         `json:"two_sided"`
	FirstIndex   uint32       `json:"first_index"`
	IndexCount   uint32       `json:"index_count"`
	FirstVertex  uint32       `json:"first_vertex"`
	VertexCount  uint32       `json:"vertex_count"`
	TextureMaps  []TextureMap `json:"texture_maps"`
}

func parseObjGeoChunk(s container.Span) (*ObjGeoChunk, error) {
	f := container.FieldsOf(s)
	ch := &ObjGeoChunk{
		Index:        f.I32(0x0),
		MtrColIndex:  f.I32(0x4),
		GeoDeclIndex: f.U32(0x38),
		Transparent1: f.U32(0x40),
		Unknown44:    f.U32(0x44),
		Transparent2: f.U32(0x48),
		Unknown4C:    f.U32(0x4c),
		TwoSided:     f.Bool(0x74),
		FirstIndex:   f.U32(0x78),
		IndexCount:   f.U32(0x7c),
		FirstVertex:  f.U32(0x80),
		VertexCount:  f.U32(0x84),
	}
	f.Words(0x60, ch.Unknown60[:])
	offsets := f.U32s(0x10, int(f.U32(0xc)))
	if err := f.Err(); err != nil {
		return nil, err
	}
	ch.TextureMaps = make([]TextureMap, len(offsets))
	for i, off := range offsets {
		m, err := parseTextureMap(s, int(off))
		if err != nil {
			return nil, fmt.Errorf("texture map %d: %w", i, err)
		}
		ch.TextureMaps[i] = m
	}
	return ch, nil
}

type TextureMapUsage uint32

const (
	MapAlbedo TextureMapUsage = iota
	MapNormal
	MapSpecular
	MapEmission
)

var textureMapUsageNames = [...]string{"Albedo", "Normal", "Specular", "Emission"}

func (u TextureMapUsage) String() string {
	if int(u) < len(textureMapUsageNames) {
		return textureMapUsageNames[u]
	}
	return fmt.Sprintf("TextureMapUsage(%d)", uint32(u))
}

func (u TextureMapUsage) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

type TextureMap struct {
	Index              uint32          `json:"index"`
	Usage              TextureMapUsage `json:"usage"`
	TextureBufferIndex uint32          `json:"texture_buffer_index"`
	Tag1               uint32          `json:"tag1"`
	Unknown14          uint32          `json:"unknown_14"`
	Unknown78          uint32          `json:"unknown_78"`
}

func parseTextureMap(s container.Span, off int) (TextureMap, error) {
	rec, err := s.Window(off, textureMapSize)
	if err != nil {
		return TextureMap{}, err
	}
	f := container.FieldsOf(rec)
	m := TextureMap{
		Index:              f.U32(0x0),
		Usage:              TextureMapUsage(f.U32(0x4)),
		TextureBufferIndex: f.U32(0x8),
		Tag1:               f.U32(0x10),
		Unknown14:          f.U32(0x14),
		Unknown78:          f.U32(0x78),
	}
	if err := f.Err(); err != nil {
		return TextureMap{}, err
	}
	if int(m.Usage) >= len(textureMapUsageNames) {
		return TextureMap{}, &container.UnsupportedEnumError{Enum: "TextureMapUsage", Value: uint32(m.Usage)}
	}
	return m, nil
}

type GeoDecl struct {
	Container *container.Container `json:"-"`
	Chunks    []*GeoDeclChunk      `json:"chunks"`
}

func parseGeoDecl(data container.Span) (*GeoDecl, error) {
	c, err := container.Parse("GeoDecl", data, container.Span{})
	if err != nil {
		return nil, err
	}
	chunks, err := section.Records(c, parseGeoDeclChunk)
	if err != nil {
		return nil, err
	}
	return &GeoDecl{Container: c, Chunks: chunks}, nil
}

// GeoDeclChunk buffer indices are signed; a negative index resolves to no
// buffer.
type GeoDeclChunk struct {
	IndexBufferIndex  int32                  `json:"index_buffer_index"`
	IndexCount        uint32                 `json:"index_count"`
	VertexCount       uint32                 `json:"vertex_count"`
	VertexBufferIndex int32                  `json:"vertex_buffer_index"`
	VertexSize        int32                  `json:"vertex_size"`
	Elements          []schema.VertexElement `json:"elements"`
}

func parseGeoDeclChunk(s container.Span) (*GeoDeclChunk, error) {
	f := container.FieldsOf(s)
	vio := int(f.U32(0x4))
	d := &GeoDeclChunk{
		IndexBufferIndex: f.I32(0xc),
		IndexCount:       f.U32(0x10),
		VertexCount:      f.U32(0x14),
	}
	d.VertexBufferIndex = f.I32(vio)
	d.VertexSize = f.I32(vio + 0x4)
	count := int(f.U32(vio + 0x8))
	if err := f.Err(); err != nil {
		return nil, err
	}
	elems, err := schema.ParseVertexElements(s, vio+0x18, count)
	if err != nil {
		return nil, err
	}
	d.Elements = elems
	return d, nil
}
