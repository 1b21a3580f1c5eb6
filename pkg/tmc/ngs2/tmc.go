// Package ngs2 decodes second-generation TMC files.
//
// The chunk type table sits at 0xc0 in the outer metadata. A mandatory
// LHeader section maps the companion linked-data file into the per-section
// spans that TTDL, VtxLay and IdxLay read their chunks from.
package ngs2

import (
	"fmt"
	"slices"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/schema"
	"github.com/samcharles93/tmckit/pkg/tmc/section"
)

// Outer chunk type codes.
const (
	CodeMdlGeo          uint32 = 0x8000_0001
	CodeTTDM            uint32 = 0x8000_0002
	CodeVtxLay          uint32 = 0x8000_0003
	CodeIdxLay          uint32 = 0x8000_0004
	CodeMtrCol          uint32 = 0x8000_0005
	CodeMdlInfo         uint32 = 0x8000_0006
	CodeHieLay          uint32 = 0x8000_0010
	CodeLHeader         uint32 = 0x8000_0020
	CodeNodeLay         uint32 = 0x8000_0030
	CodeGlblMtx         uint32 = 0x8000_0040
	CodeBnOfsMtx        uint32 = 0x8000_0050
	CodeObjTypeInfoHead uint32 = 0x0000_0000
	CodeObjTypeInfo     uint32 = 0x0000_0001
	CodeMtrlChng        uint32 = 0x0000_0005
)

// LHeader chunk type codes.
const (
	LinkedTTDL   uint32 = 0xC000_0002
	LinkedVtxLay uint32 = 0xC000_0003
	LinkedIdxLay uint32 = 0xC000_0004
)

const (
	typeTableOffset       = 0xc0
	linkedTypeTableOffset = 0x20
)

type Meta struct {
	Unknown00         uint16 `json:"unknown_00"`
	Unknown02         uint16 `json:"unknown_02"`
	Unknown08         uint32 `json:"unknown_08"`
	GeneralChunkCount uint32 `json:"general_chunk_count"`
	Name              string `json:"name"`
}

// LHeader splits the linked data into per-section spans.
type LHeader struct {
	Container *container.Container `json:"-"`
	TypeCodes []uint32             `json:"type_codes"`
	TTDL      container.Span       `json:"-"`
	VtxLay    container.Span       `json:"-"`
	IdxLay    container.Span       `json:"-"`
}

func parseLHeader(data, linked container.Span) (*LHeader, error) {
	c, err := container.Parse("LHeader", data, linked)
	if err != nil {
		return nil, err
	}
	l := &LHeader{Container: c}
	if l.TypeCodes, err = section.TypeCodes(c.Metadata, linkedTypeTableOffset, len(c.Chunks)); err != nil {
		return nil, fmt.Errorf("LHeader: %w", err)
	}
	for i, code := range l.TypeCodes {
		switch code {
		case LinkedTTDL:
			l.TTDL = c.Chunks[i]
		case LinkedVtxLay:
			l.VtxLay = c.Chunks[i]
		case LinkedIdxLay:
			l.IdxLay = c.Chunks[i]
		}
	}
	return l, nil
}

// TMC is a decoded second-generation model. Absent sections are nil.
type TMC struct {
	Container *container.Container `json:"-"`
	Meta      Meta                 `json:"meta"`
	TypeCodes []uint32             `json:"type_codes"`
	LHeader   *LHeader             `json:"lheader,omitempty"`

	MdlGeo      *MdlGeo         `json:"mdlgeo,omitempty"`
	TTDM        *TTDM           `json:"ttdm,omitempty"`
	VtxLay      *section.Layout `json:"-"`
	IdxLay      *section.Layout `json:"-"`
	MtrCol      *MtrCol         `json:"mtrcol,omitempty"`
	MdlInfo     *MdlInfo        `json:"mdlinfo,omitempty"`
	HieLay      *HieLay         `json:"hielay,omitempty"`
	NodeLay     *NodeLay        `json:"nodelay,omitempty"`
	GlblMtx     *Matrices       `json:"glblmtx,omitempty"`
	BnOfsMtx    *Matrices       `json:"bnofsmtx,omitempty"`
	ObjTypeInfo *ObjTypeInfo    `json:"obj_type_info,omitempty"`
	MtrlChng    *MtrlChng       `json:"mtrlchng,omitempty"`

	failures []*section.Error
}

// Parse decodes the TMC container in primary. linked is the companion file
// the LHeader section describes; without it the linked sections fail.
func Parse(primary, linked container.Span, opts section.Options) (*TMC, error) {
	c, err := container.Parse("TMC", primary, container.Span{})
	if err != nil {
		return nil, err
	}
	f := container.FieldsOf(c.Metadata)
	t := &TMC{
		Container: c,
		Meta: Meta{
			Unknown00:         f.U16(0x0),
			Unknown02:         f.U16(0x2),
			Unknown08:         f.U32(0x8),
			GeneralChunkCount: f.U32(0x10),
			Name:              f.CString(0x20, 0x10),
		},
	}
	if err := f.Err(); err != nil {
		return nil, fmt.Errorf("TMC metadata: %w", err)
	}
	if t.TypeCodes, err = section.TypeCodes(c.Metadata, typeTableOffset, len(c.Chunks)); err != nil {
		return nil, fmt.Errorf("TMC: %w", err)
	}

	li := slices.Index(t.TypeCodes, CodeLHeader)
	if li < 0 || c.Chunks[li].Empty() {
		return nil, &container.MissingRequiredSectionError{Code: CodeLHeader, Name: "LHeader"}
	}

	rec := section.NewRecorder(opts)
	if err := rec.Do(CodeLHeader, "LHeader", func() error {
		t.LHeader, err = parseLHeader(c.Chunks[li], linked)
		return err
	}); err != nil {
		return nil, err
	}
	var spans LHeader
	if t.LHeader != nil {
		spans = *t.LHeader
	}

	var objTypeHead, objTypeTable container.Span
	for i, code := range t.TypeCodes {
		chunk := c.Chunks[i]
		if chunk.Empty() || code == CodeLHeader {
			continue
		}
		switch code {
		case CodeObjTypeInfoHead:
			objTypeHead = chunk
			continue
		case CodeObjTypeInfo:
			objTypeTable = chunk
			continue
		}
		if err := t.dispatch(rec, i, code, chunk, &spans); err != nil {
			return nil, err
		}
	}
	if !objTypeHead.Empty() && !objTypeTable.Empty() {
		if err := rec.Do(CodeObjTypeInfo, "OBJ_TYPE_INFO", func() error {
			t.ObjTypeInfo, err = parseObjTypeInfo(objTypeHead, objTypeTable)
			return err
		}); err != nil {
			return nil, err
		}
	}
	t.failures = rec.Failures()
	return t, nil
}

func (t *TMC) dispatch(rec *section.Recorder, i int, code uint32, chunk container.Span, l *LHeader) error {
	var err error
	switch code {
	case CodeMdlGeo:
		return rec.Do(code, "MdlGeo", func() error { t.MdlGeo, err = parseMdlGeo(chunk); return err })
	case CodeTTDM:
		return rec.Do(code, "TTDM", func() error { t.TTDM, err = parseTTDM(chunk, l.TTDL); return err })
	case CodeVtxLay:
		return rec.Do(code, "VtxLay", func() error { t.VtxLay, err = section.ParseLayout("VtxLay", chunk, l.VtxLay); return err })
	case CodeIdxLay:
		return rec.Do(code, "IdxLay", func() error { t.IdxLay, err = section.ParseLayout("IdxLay", chunk, l.IdxLay); return err })
	case CodeMtrCol:
		return rec.Do(code, "MtrCol", func() error { t.MtrCol, err = parseMtrCol(chunk); return err })
	case CodeMdlInfo:
		return rec.Do(code, "MdlInfo", func() error { t.MdlInfo, err = parseMdlInfo(chunk); return err })
	case CodeHieLay:
		return rec.Do(code, "HieLay", func() error { t.HieLay, err = parseHieLay(chunk); return err })
	case CodeNodeLay:
		return rec.Do(code, "NodeLay", func() error { t.NodeLay, err = parseNodeLay(chunk); return err })
	case CodeGlblMtx:
		return rec.Do(code, "GlblMtx", func() error { t.GlblMtx, err = parseMatrices("GlblMtx", chunk); return err })
	case CodeBnOfsMtx:
		return rec.Do(code, "BnOfsMtx", func() error { t.BnOfsMtx, err = parseMatrices("BnOfsMtx", chunk); return err })
	case CodeMtrlChng:
		return rec.Do(code, "MTRLCHNG", func() error { t.MtrlChng, err = parseMtrlChng(chunk); return err })
	default:
		rec.Skip(code, i)
	}
	return nil
}

func (t *TMC) Dialect() section.Dialect { return section.NGS2 }

func (t *TMC) Name() string { return t.Meta.Name }

func (t *TMC) Failures() []*section.Error { return t.failures }

func (t *TMC) Sections() []section.Info {
	info := func(name string, code uint32, present bool, records int) section.Info {
		return section.Info{Name: name, Code: code, Present: present, Records: records}
	}
	layoutLen := func(l *section.Layout) int {
		if l == nil {
			return 0
		}
		return len(l.Chunks)
	}
	out := []section.Info{
		info("LHeader", CodeLHeader, t.LHeader != nil, 0),
		info("MdlGeo", CodeMdlGeo, t.MdlGeo != nil, 0),
		info("TTDM", CodeTTDM, t.TTDM != nil, 0),
		info("VtxLay", CodeVtxLay, t.VtxLay != nil, layoutLen(t.VtxLay)),
		info("IdxLay", CodeIdxLay, t.IdxLay != nil, layoutLen(t.IdxLay)),
		info("MtrCol", CodeMtrCol, t.MtrCol != nil, 0),
		info("MdlInfo", CodeMdlInfo, t.MdlInfo != nil, 0),
		info("HieLay", CodeHieLay, t.HieLay != nil, 0),
		info("NodeLay", CodeNodeLay, t.NodeLay != nil, 0),
		info("GlblMtx", CodeGlblMtx, t.GlblMtx != nil, 0),
		info("BnOfsMtx", CodeBnOfsMtx, t.BnOfsMtx != nil, 0),
		info("OBJ_TYPE_INFO", CodeObjTypeInfo, t.ObjTypeInfo != nil, 0),
		info("MTRLCHNG", CodeMtrlChng, t.MtrlChng != nil, 0),
	}
	if t.LHeader != nil {
		out[0].Records = len(t.LHeader.TypeCodes)
	}
	if t.MdlGeo != nil {
		out[1].Records = section.Count(t.MdlGeo.Objects)
	}
	if t.TTDM != nil {
		out[2].Records = section.Count(t.TTDM.Entries)
	}
	if t.MtrCol != nil {
		out[5].Records = section.Count(t.MtrCol.Chunks)
	}
	if t.MdlInfo != nil {
		out[6].Records = section.Count(t.MdlInfo.Objects)
	}
	if t.HieLay != nil {
		out[7].Records = section.Count(t.HieLay.Nodes)
	}
	if t.NodeLay != nil {
		out[8].Records = section.Count(t.NodeLay.Nodes)
	}
	if t.GlblMtx != nil {
		out[9].Records = section.Count(t.GlblMtx.Matrices)
	}
	if t.BnOfsMtx != nil {
		out[10].Records = section.Count(t.BnOfsMtx.Matrices)
	}
	if t.ObjTypeInfo != nil {
		out[11].Records = len(t.ObjTypeInfo.Entries)
	}
	if t.MtrlChng != nil {
		out[12].Records = len(t.MtrlChng.Colors)
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
