package ngs2

import (
	"fmt"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/schema"
	"github.com/samcharles93/tmckit/pkg/tmc/section"
)

const maxTextures = 4

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
		Name:      f.CString(0x20, 0x10),
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

// ObjGeoChunk is one draw group. Words the game overwrites with pointers at
// load time (0x28, 0x58, 0x60) are not kept.
type ObjGeoChunk struct {
	Index        int32         `json:"index"`
	MtrColIndex  int32         `json:"mtrcol_index"`
	Unknown08    uint32        `json:"unknown_08"`
	Unknown20    uint32        `json:"unknown_20"`
	Unknown24    uint32        `json:"unknown_24"`
	Unknown30    uint32        `json:"unknown_30"`
	Unknown34    uint32        `json:"unknown_34"`
	GeoDeclIndex uint32        `json:"geodecl_index"`
	Unknown40    [4]uint32     `json:"unknown_40"`
	Unknown50    uint32        `json:"unknown_50"`
	Unknown54    uint32        `json:"unknown_54"`
	Unknown68    uint32        `json:"unknown_68"`
	Unknown6C    uint32        `json:"unknown_6c"`
	Unknown70    uint32        `json:"unknown_70"`
	ShowBackface bool          `json:"show_backface"`
	FirstIndex   uint32        `json:"first_index"`
	IndexCount   uint32        `json:"index_count"`
	FirstVertex  uint32        `json:"first_vertex"`
	VertexCount  uint32        `json:"vertex_count"`
	Unknown88    [6]uint32     `json:"unknown_88"`
	UnknownA0    [4]float32    `json:"unknown_a0"`
	UnknownB0    [12]uint32    `json:"unknown_b0"`
	Textures     []TextureInfo `json:"textures"`
}

func parseObjGeoChunk(s container.Span) (*ObjGeoChunk, error) {
	f := container.FieldsOf(s)
	ch := &ObjGeoChunk{
		Index:        f.I32(0x0),
		MtrColIndex:  f.I32(0x4),
		Unknown08:    f.U32(0x8),
		Unknown20:    f.U32(0x20),
		Unknown24:    f.U32(0x24),
		Unknown30:    f.U32(0x30),
		Unknown34:    f.U32(0x34),
		GeoDeclIndex: f.U32(0x38),
		Unknown50:    f.U32(0x50),
		Unknown54:    f.U32(0x54),
		Unknown68:    f.U32(0x68),
		Unknown6C:    f.U32(0x6c),
		Unknown70:    f.U32(0x70),
		ShowBackface: f.Bool(0x74),
		FirstIndex:   f.U32(0x78),
		IndexCount:   f.U32(0x7c),
		FirstVertex:  f.U32(0x80),
		VertexCount:  f.U32(0x84),
	}
	f.Words(0x40, ch.Unknown40[:])
	f.Words(0x88, ch.Unknown88[:])
	f.Words(0xb0, ch.UnknownB0[:])
	for i := range ch.UnknownA0 {
		ch.UnknownA0[i] = f.F32(0xa0 + 4*i)
	}
	texCount := f.U32(0xc)
	if err := f.Err(); err != nil {
		return nil, err
	}
	if texCount > maxTextures {
		return nil, fmt.Errorf("texture count %d exceeds %d: %w", texCount, maxTextures, container.ErrOutOfBounds)
	}
	offsets := f.U32s(0x10, int(texCount))
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

type TextureUsage uint32

const (
	UsageAlbedo TextureUsage = iota
	UsageNormal
	UsageSmoothness
	UsageAdd
)

var textureUsageNames = [...]string{"Albedo", "Normal", "Smoothness", "Add"}

func (u TextureUsage) String() string {
	if int(u) < len(textureUsageNames) {
		return textureUsageNames[u]
	}
	return fmt.Sprintf("TextureUsage(%d)", uint32(u))
}

func (u TextureUsage) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

// TextureInfo is a texture slot. The trailing block moves up by one word
// when the word at 0x30 is set.
type TextureInfo struct {
	InfoIndex    uint32       `json:"info_index"`
	Usage        TextureUsage `json:"usage"`
	TextureIndex int32        `json:"texture_index"`
	Unknown0C    uint32       `json:"unknown_0c"`
	ColorUsage   uint32       `json:"color_usage"`
	Unknown14    [5]uint32    `json:"unknown_14"`
	Unknown28    int32        `json:"unknown_28"`
	Unknown2C    int32        `json:"unknown_2c"`
	Unknown30    uint32       `json:"unknown_30"`
	TailOffset   int          `json:"tail_offset"`
	Tail         [12]uint32   `json:"tail"`
	TailFloats   [4]float32   `json:"tail_floats"`
	TailLast     uint32       `json:"tail_last"`
}

func parseTextureInfo(s container.Span, off int) (TextureInfo, error) {
	rec, err := s.From(off)
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
		Unknown28:    f.I32(0x28),
		Unknown2C:    f.I32(0x2c),
		Unknown30:    f.U32(0x30),
	}
	f.Words(0x14, ti.Unknown14[:])
	ti.TailOffset = 0x38
	if ti.Unknown30 != 0 {
		ti.TailOffset = 0x34
	}
	f.Words(ti.TailOffset, ti.Tail[:])
	for i := range ti.TailFloats {
		ti.TailFloats[i] = f.F32(ti.TailOffset + 0x30 + 4*i)
	}
	ti.TailLast = f.U32(ti.TailOffset + 0x40)
	if err := f.Err(); err != nil {
		return TextureInfo{}, err
	}
	if int(ti.Usage) >= len(textureUsageNames) {
		return TextureInfo{}, &container.UnsupportedEnumError{Enum: "TextureUsage", Value: uint32(ti.Usage)}
	}
	return ti, nil
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

type GeoDeclChunk struct {
	Unknown00         uint32                 `json:"unknown_00"`
	Unknown08         uint32                 `json:"unknown_08"`
	IndexBufferIndex  uint32                 `json:"index_buffer_index"`
	IndexCount        uint32                 `json:"index_count"`
	VertexCount       uint32                 `json:"vertex_count"`
	Unknown18         uint32                 `json:"unknown_18"`
	Unknown1C         uint32                 `json:"unknown_1c"`
	VertexBufferIndex uint32                 `json:"vertex_buffer_index"`
	VertexSize        uint32                 `json:"vertex_size"`
	VertexInfo0C      uint32                 `json:"vertex_info_0c"`
	VertexInfo10      uint32                 `json:"vertex_info_10"`
	Elements          []schema.VertexElement `json:"elements"`
}

func parseGeoDeclChunk(s container.Span) (*GeoDeclChunk, error) {
	f := container.FieldsOf(s)
	vio := int(f.U32(0x4))
	d := &GeoDeclChunk{
		Unknown00:        f.U32(0x0),
		Unknown08:        f.U32(0x8),
		IndexBufferIndex: f.U32(0xc),
		IndexCount:       f.U32(0x10),
		VertexCount:      f.U32(0x14),
		Unknown18:        f.U32(0x18),
		Unknown1C:        f.U32(0x1c),
	}
	d.VertexBufferIndex = f.U32(vio)
	d.VertexSize = f.U32(vio + 0x4)
	count := int(f.U32(vio + 0x8))
	d.VertexInfo0C = f.U32(vio + 0xc)
	d.VertexInfo10 = f.U32(vio + 0x10)
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
