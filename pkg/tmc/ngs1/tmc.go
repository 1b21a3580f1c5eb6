// Package ngs1 decodes first-generation TMC files.
//
// The chunk type table sits at 0x60 in the outer metadata. Vertex and index
// buffers do not live in the TMC file at all: the companion file starts with
// a VtxLay container, immediately followed by an IdxLay container. Textures
// come from a separate G1TG atlas (see package g1tg).
package ngs1

import (
	"fmt"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/schema"
	"github.com/samcharles93/tmckit/pkg/tmc/section"
)

// Outer chunk type codes.
const (
	CodeMdlGeo      uint32 = 0x8000_0001
	CodeTTG         uint32 = 0x8000_0002
	CodeMtrCol      uint32 = 0x8000_0005
	CodeMdlInfo     uint32 = 0x8000_0006
	CodeHieLay      uint32 = 0x8000_0010
	CodeObjTypeInfo uint32 = 0x0000_0001
	CodeExtMCol     uint32 = 0x0000_0015
)

const typeTableOffset = 0x60

type Meta struct {
	Unknown00 uint16 `json:"unknown_00"`
	Unknown02 uint16 `json:"unknown_02"`
	Name      string `json:"name"`
}

// TMC is a decoded first-generation model. Absent sections are nil.
type TMC struct {
	Container *container.Container `json:"-"`
	Meta      Meta                 `json:"meta"`
	TypeCodes []uint32             `json:"type_codes"`

	MdlGeo      *MdlGeo         `json:"mdlgeo,omitempty"`
	TTG         container.Span  `json:"-"`
	MtrCol      *MtrCol         `json:"mtrcol,omitempty"`
	MdlInfo     *MdlInfo        `json:"mdlinfo,omitempty"`
	HieLay      *HieLay         `json:"hielay,omitempty"`
	ObjTypeInfo *ObjTypeInfo    `json:"obj_type_info,omitempty"`
	ExtMCol     *ExtMCol        `json:"extmcol,omitempty"`
	VtxLay      *section.Layout `json:"-"`
	IdxLay      *section.Layout `json:"-"`

	failures []*section.Error
}

// Parse decodes the TMC container in primary. linked is the companion file
// holding the vertex and index buffers; it may be empty.
func Parse(primary, linked container.Span, opts section.Options) (*TMC, error) {
	c, err := container.Parse("TMC", primary, container.Span{})
	if err != nil {
		return nil, err
	}
	f := container.FieldsOf(c.Metadata)
	t := &TMC{
		Container: c,
		Meta:      Meta{Unknown00: f.U16(0x0), Unknown02: f.U16(0x2), Name: f.CString(0x20, 0x10)},
	}
	if err := f.Err(); err != nil {
		return nil, fmt.Errorf("TMC metadata: %w", err)
	}
	if t.TypeCodes, err = section.TypeCodes(c.Metadata, typeTableOffset, len(c.Chunks)); err != nil {
		return nil, fmt.Errorf("TMC: %w", err)
	}

	rec := section.NewRecorder(opts)
	if !linked.Empty() {
		if err := t.parseLinked(rec, linked); err != nil {
			return nil, err
		}
	}

	for i, code := range t.TypeCodes {
		chunk := c.Chunks[i]
		if chunk.Empty() {
			continue
		}
		if err := t.dispatch(rec, i, code, chunk); err != nil {
			return nil, err
		}
	}
	t.failures = rec.Failures()
	return t, nil
}

func (t *TMC) parseLinked(rec *section.Recorder, linked container.Span) error {
	err := rec.Do(0, "VtxLay", func() (err error) {
		t.VtxLay, err = section.ParseLayout("VtxLay", linked, container.Span{})
		return err
	})
	if err != nil || t.VtxLay == nil {
		return err
	}
	return rec.Do(0, "IdxLay", func() error {
		rest, err := linked.From(int(t.VtxLay.Size))
		if err != nil {
			return err
		}
		t.IdxLay, err = section.ParseLayout("IdxLay", rest, container.Span{})
		return err
	})
}

func (t *TMC) dispatch(rec *section.Recorder, i int, code uint32, chunk container.Span) error {
	var err error
	switch code {
	case CodeMdlGeo:
		return rec.Do(code, "MdlGeo", func() error { t.MdlGeo, err = parseMdlGeo(chunk); return err })
	case CodeTTG:
		t.TTG = chunk
	case CodeMtrCol:
		return rec.Do(code, "MtrCol", func() error { t.MtrCol, err = parseMtrCol(chunk); return err })
	case CodeMdlInfo:
		return rec.Do(code, "MdlInfo", func() error { t.MdlInfo, err = parseMdlInfo(chunk); return err })
	case CodeHieLay:
		return rec.Do(code, "HieLay", func() error { t.HieLay, err = parseHieLay(chunk); return err })
	case CodeObjTypeInfo:
		return rec.Do(code, "OBJ_TYPE_INFO", func() error { t.ObjTypeInfo, err = parseObjTypeInfo(chunk); return err })
	case CodeExtMCol:
		return rec.Do(code, "EXTMCOL", func() error { t.ExtMCol, err = parseExtMCol(chunk); return err })
	default:
		rec.Skip(code, i)
	}
	return nil
}

func (t *TMC) Dialect() section.Dialect { return section.NGS1 }

func (t *TMC) Name() string { return t.Meta.Name }

func (t *TMC) Failures() []*section.Error { return t.failures }

func (t *TMC) Sections() []section.Info {
	layoutLen := func(l *section.Layout) int {
		if l == nil {
			return 0
		}
		return len(l.Chunks)
	}
	out := []section.Info{
		{Name: "MdlGeo", Code: CodeMdlGeo, Present: t.MdlGeo != nil},
		{Name: "TTG", Code: CodeTTG, Present: !t.TTG.Empty()},
		{Name: "MtrCol", Code: CodeMtrCol, Present: t.MtrCol != nil},
		{Name: "MdlInfo", Code: CodeMdlInfo, Present: t.MdlInfo != nil},
		{Name: "HieLay", Code: CodeHieLay, Present: t.HieLay != nil},
		{Name: "OBJ_TYPE_INFO", Code: CodeObjTypeInfo, Present: t.ObjTypeInfo != nil},
		{Name: "EXTMCOL", Code: CodeExtMCol, Present: t.ExtMCol != nil},
		{Name: "VtxLay", Present: t.VtxLay != nil, Records: layoutLen(t.VtxLay)},
		{Name: "IdxLay", Present: t.IdxLay != nil, Records: layoutLen(t.IdxLay)},
	}
	if t.MdlGeo != nil {
		out[0].Records = section.Count(t.MdlGeo.Objects)
	}
	if t.MtrCol != nil {
		out[2].Records = section.Count(t.MtrCol.Chunks)
	}
	if t.MdlInfo != nil {
		out[3].Records = section.Count(t.MdlInfo.Objects)
	}
	if t.HieLay != nil {
		out[4].Records = section.Count(t.HieLay.Nodes)
	}
	if t.ObjTypeInfo != nil {
		out[5].Records = len(t.ObjTypeInfo.Types)
	}
	if t.ExtMCol != nil {
		out[6].Records = section.Count(t.ExtMCol.Chunks)
	}
	return out
}

// Buffers resolves the vertex and index buffers a declaration refers to.
func (t *TMC) Buffers(d *GeoDeclChunk) (container.Span, schema.IndexBuffer, error) {
	vb, err := t.VtxLay.Buffer(int(d.VertexBufferIndex))
	if err != nil {
		return container.Span{}, schema.IndexBuffer{}, fmt.Errorf("vertex buffer: %w", err)
	}
	ib, err := t.IdxLay.IndexBuffer(int(d.IndexBufferIndex), d.VertexCount)
	if err != nil {
		return container.Span{}, schema.IndexBuffer{}, err
	}
	return vb, ib, nil
}
