package ngs1

import (
	"fmt"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/schema"
	"github.com/samcharles93/tmckit/pkg/tmc/section"
)

const maxTextures = 4

// MdlGeo holds one ObjGeo per geometry object.
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

type ObjGeoMeta struct {
	Unknown00 uint16 `json:"unknown_00"`
	Unknown02 uint16 `json:"unknown_02"`
	ObjIndex  int32  `json:"obj_index"`
	Unknown08 uint32 `json:"unknown_08"`
	Unknown0C uint32 `json:"unknown_0c"`
	Name      string `json:"name"`
}

// ObjGeo is one geometry object. Its sub-container is the GeoDecl table
// that the chunks refer to by index.
type ObjGeo struct {
	Container *container.Container `json:"-"`
	Meta      ObjGeoMeta           `json:"meta"`
	GeoDecl   *GeoDecl             `json:"geodecl,omitempty"`
	Chunks    []*ObjGeoChunk       `json:"chunks"`
}

func parseObjGeo(data container.Span) (*ObjGeo, error) {
	c, err := container.Parse("ObjGeo", data, container.Span{})
	if err != nil {
		return nil, err
	}
	f := container.FieldsOf(c.Metadata)
	o := &ObjGeo{Container: c}
	o.Meta = ObjGeoMeta{
		Unknown00: f.U16(0x0),
		Unknown02: f.U16(0x2),
		ObjIndex:  f.I32(0x4),
		Unknown08: f.U32(0x8),
		Unknown0C: f.U32(0xc),
		Name:      f.CString(0x10, 0x10),
	}
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

// ObjGeoChunk is one draw group of an object.
type ObjGeoChunk struct {
	Index        int32         `json:"index"`
	MtrColIndex  int32         `json:"mtrcol_index"`
	GeoDeclIndex int32         `json:"geodecl_index"`
	Unknown0C    uint32        `json:"unknown_0c"`
	FirstIndex   uint32        `json:"first_index"`
	IndexCount   uint32        `json:"index_count"`
	Unknown1C    uint32        `json:"unknown_1c"`
	FirstVertex  uint32        `json:"first_vertex"`
	VertexCount  uint32        `json:"vertex_count"`
	Flags        [4]uint8      `json:"flags"`
	Unknown4C    uint32        `json:"unknown_4c"`
	Unknown60    [8]uint32     `json:"unknown_60"`
	Textures     []TextureInfo `json:"textures"`
}

func parseObjGeoChunk(s container.Span) (*ObjGeoChunk, error) {
	f := container.FieldsOf(s)
	ch := &ObjGeoChunk{
		Index:        f.I32(0x0),
		MtrColIndex:  f.I32(0x4),
		GeoDeclIndex: f.I32(0x8),
		Unknown0C:    f.U32(0xc),
		FirstIndex:   f.U32(0x10),
		IndexCount:   f.U32(0x14),
		Unknown1C:    f.U32(0x1c),
		FirstVertex:  f.U32(0x40),
		VertexCount:  f.U32(0x44),
		Flags:        [4]uint8{f.U8(0x48), f.U8(0x49), f.U8(0x4a), f.U8(0x4b)},
		Unknown4C:    f.U32(0x4c),
	}
	f.Words(0x60, ch.Unknown60[:])
	texCount := f.U32(0x18)
	if err := f.Err(); err != nil {
		return nil, err
	}
	if texCount > maxTextures {
		return nil, fmt.Errorf("texture count %d exceeds %d: %w", texCount, maxTextures, container.ErrOutOfBounds)
	}
	offsets := f.U32s(0x20, int(texCount))
	if err := f.Err(); err != nil {
		return nil, err
	}
	ch.Textures = make([]TextureInfo, len(offsets))
	for i, off := range offsets {
		ti, err := parseTextureInfo(s, int(off))
		if err != nil {
			return nil, fmt.Errorf("texture info %d: %w", i, err)
		}
		ch.Textures[i] = ti
	}
	return ch, nil
}

// TextureUsage says what a texture slot feeds.
type TextureUsage uint32

const (
	UsageAlbedo TextureUsage = iota
	UsageNormal
	UsageSmoothness
	UsageAlphaBlend
)

var textureUsageNames = [...]string{"Albedo", "Normal", "Smoothness", "AlphaBlend"}

func (u TextureUsage) String() string {
	if int(u) < len(textureUsageNames) {
		return textureUsageNames[u]
	}
	return fmt.Sprintf("TextureUsage(%d)", uint32(u))
}

func (u TextureUsage) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

const textureInfoSize = 0x70

type TextureInfo struct {
	InfoIndex    uint32       `json:"info_index"`
	Usage        TextureUsage `json:"usage"`
	TextureIndex int32        `json:"texture_index"`
	Unknown0C    uint32       `json:"unknown_0c"`
	ColorUsage   uint32       `json:"color_usage"`
	Unknown14    [20]uint32   `json:"unknown_14"`
	Unknown64    float32      `json:"unknown_64"`
	Unknown68    uint32       `json:"unknown_68"`
	Unknown6C    uint32       `json:"unknown_6c"`
}

func parseTextureInfo(s container.Span, off int) (TextureInfo, error) {
	rec, err := s.Window(off, textureInfoSize)
	if err != nil {
		return TextureInfo{}, err
	}
	f := container.FieldsOf(rec)
	ti := TextureInfo{
		InfoIndex:    f.U32(0x0),
		Usage:        TextureUsage(f.U32(0x4)),
		TextureIndex: f.I32(0x8),
		Unknown0C:    f.U32(0xc),
		ColorUsage:   f.U32(0x10),
		Unknown64:    f.F32(0x64),
		Unknown68:    f.U32(0x68),
		Unknown6C:    f.U32(0x6c),
	}
	f.Words(0x14, ti.Unknown14[:])
	if err := f.Err(); err != nil {
		return TextureInfo{}, err
	}
	if int(ti.Usage) >= len(textureUsageNames) {
		return TextureInfo{}, &container.UnsupportedEnumError{Enum: "TextureUsage", Value: uint32(ti.Usage)}
	}
	return ti, nil
}

// GeoDecl holds the vertex declarations of one object.
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

type GeoDeclChunk struct {
	Unknown04         uint32                 `json:"unknown_04"`
	IndexBufferIndex  uint32                 `json:"index_buffer_index"`
	IndexCount        uint32                 `json:"index_count"`
	VertexCount       uint32                 `json:"vertex_count"`
	Unknown14         uint32                 `json:"unknown_14"`
	VertexBufferIndex uint32                 `json:"vertex_buffer_index"`
	VertexSize        uint32                 `json:"vertex_size"`
	Elements          []schema.VertexElement `json:"elements"`
}

func parseGeoDeclChunk(s container.Span) (*GeoDeclChunk, error) {
	f := container.FieldsOf(s)
	vio := int(f.U32(0x0))
	d := &GeoDeclChunk{
		Unknown04:        f.U32(0x4),
		IndexBufferIndex: f.U32(0x8),
		IndexCount:       f.U32(0xc),
		VertexCount:      f.U32(0x10),
		Unknown14:        f.U32(0x14),
	}
	d.VertexBufferIndex = f.U32(vio)
	d.VertexSize = f.U32(vio + 0x4)
	count := int(f.U32(vio + 0x8))
	if err := f.Err(); err != nil {
		return nil, err
	}
	// The element table follows a per-element block of 0x10 bytes.
	base := vio + 0x20 + count*0x10 + 0x10
	elems, err := schema.ParseVertexElements(s, base, count)
	if err != nil {
		return nil, err
	}
	d.Elements = elems
	return d, nil
}
