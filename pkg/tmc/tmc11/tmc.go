// Package tmc11 decodes third-generation TMC files and their TMCL
// companions.
//
// The outer layout matches the second generation: a type table at 0xc0 and a
// mandatory LHeader section. The LHeader code table is wider and a number of
// sections are carried through undecoded.
package tmc11

import (
	"fmt"
	"slices"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/schema"
	"github.com/samcharles93/tmckit/pkg/tmc/section"
)

// Outer chunk type codes.
const (
	CodeCollide  uint32 = 0x0000_0004
	CodeMtrlChng uint32 = 0x0000_0005
	CodeEffCnf   uint32 = 0x0000_0006
	CodeAcsCls   uint32 = 0x0000_0009
	CodeEPM1     uint32 = 0x4550_4d31
	CodeMdlGeo   uint32 = 0x8000_0001
	CodeTTDM     uint32 = 0x8000_0002
	CodeVtxLay   uint32 = 0x8000_0003
	CodeIdxLay   uint32 = 0x8000_0004
	CodeMtrCol   uint32 = 0x8000_0005
	CodeMdlInfo  uint32 = 0x8000_0006
	CodeHieLay   uint32 = 0x8000_0010
	CodeLHeader  uint32 = 0x8000_0020
	CodeNodeLay  uint32 = 0x8000_0030
	CodeGlblMtx  uint32 = 0x8000_0040
	CodeBnOfsMtx uint32 = 0x8000_0050
	CodeCPF      uint32 = 0x8000_0060
	CodeMCAPack  uint32 = 0x8000_0070
	CodeRENPack  uint32 = 0x8000_0080
)

// linkedBit turns an outer code into its LHeader counterpart.
const linkedBit uint32 = 0x4000_0000

// LinkedCode returns the LHeader code for the outer section code.
func LinkedCode(code uint32) uint32 { return code | linkedBit }

const (
	typeTableOffset       = 0xc0
	linkedTypeTableOffset = 0x20
)

// Meta is the outer metadata. Only the name is known.
type Meta struct {
	Name string `json:"name"`
}

// LHeader maps LHeader codes to spans of the linked data.
type LHeader struct {
	Container *container.Container `json:"-"`
	TypeCodes []uint32             `json:"type_codes"`
	spans     map[uint32]container.Span
}

func parseLHeader(data, linked container.Span) (*LHeader, error) {
	c, err := container.Parse("LHeader", data, linked)
	if err != nil {
		return nil, err
	}
	l := &LHeader{Container: c, spans: make(map[uint32]container.Span)}
	if l.TypeCodes, err = section.TypeCodes(c.Metadata, linkedTypeTableOffset, len(c.Chunks)); err != nil {
		return nil, fmt.Errorf("LHeader: %w", err)
	}
	for i, code := range l.TypeCodes {
		if code >= LinkedCode(CodeMdlGeo) && code <= LinkedCode(CodeRENPack) {
			l.spans[code] = c.Chunks[i]
		}
	}
	return l, nil
}

// Linked returns the linked-data span for an outer section code. It is empty
// when the LHeader has no entry for it.
func (l *LHeader) Linked(code uint32) container.Span {
	if l == nil {
		return container.Span{}
	}
	return l.spans[LinkedCode(code)]
}

// TMC is a decoded third-generation model. Absent sections are nil and
// absent raw sections are empty spans.
type TMC struct {
	Container *container.Container `json:"-"`
	Meta      Meta                 `json:"meta"`
	TypeCodes []uint32             `json:"type_codes"`
	LHeader   *LHeader             `json:"lheader,omitempty"`

	MdlGeo   *MdlGeo         `json:"mdlgeo,omitempty"`
	TTDM     *TTDM           `json:"ttdm,omitempty"`
	VtxLay   *section.Layout `json:"-"`
	IdxLay   *section.Layout `json:"-"`
	MtrCol   *MtrCol         `json:"mtrcol,omitempty"`
	MdlInfo  *MdlInfo        `json:"mdlinfo,omitempty"`
	HieLay   *HieLay         `json:"hielay,omitempty"`
	NodeLay  *NodeLay        `json:"nodelay,omitempty"`
	GlblMtx  *Matrices       `json:"glblmtx,omitempty"`
	BnOfsMtx *Matrices       `json:"bnofsmtx,omitempty"`

	Collide  container.Span `json:"-"`
	MtrlChng container.Span `json:"-"`
	EffCnf   container.Span `json:"-"`
	AcsCls   container.Span `json:"-"`
	CPF      container.Span `json:"-"`
	MCAPack  container.Span `json:"-"`
	RENPack  container.Span `json:"-"`

	failures []*section.Error
}

// Parse decodes a TMC container and its TMCL companion.
func Parse(primary, linked container.Span, opts section.Options) (*TMC, error) {
	c, err := container.Parse("TMC", primary, container.Span{})
	if err != nil {
		return nil, err
	}
	t := &TMC{Container: c}
	if t.Meta.Name, err = c.Metadata.CString(0x20, 0x10); err != nil {
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

	for i, code := range t.TypeCodes {
		chunk := c.Chunks[i]
		if chunk.Empty() || code == CodeLHeader {
			continue
		}
		if err := t.dispatch(rec, i, code, chunk); err != nil {
			return nil, err
		}
	}
	t.failures = rec.Failures()
	return t, nil
}

func (t *TMC) dispatch(rec *section.Recorder, i int, code uint32, chunk container.Span) error {
	var err error
	l := t.LHeader
	switch code {
	case CodeMdlGeo:
		return rec.Do(code, "MdlGeo", func() error { t.MdlGeo, err = parseMdlGeo(chunk); return err })
	case CodeTTDM:
		return rec.Do(code, "TTDM", func() error { t.TTDM, err = parseTTDM(chunk, l.Linked(code)); return err })
	case CodeVtxLay:
		return rec.Do(code, "VtxLay", func() error { t.VtxLay, err = section.ParseLayout("VtxLay", chunk, l.Linked(code)); return err })
	case CodeIdxLay:
		return rec.Do(code, "IdxLay", func() error { t.IdxLay, err = section.ParseLayout("IdxLay", chunk, l.Linked(code)); return err })
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
	case CodeCollide:
		t.Collide = chunk
	case CodeMtrlChng:
		t.MtrlChng = chunk
	case CodeEffCnf:
		t.EffCnf = chunk
	case CodeAcsCls:
		t.AcsCls = chunk
	case CodeCPF:
		t.CPF = chunk
	case CodeMCAPack:
		t.MCAPack = chunk
	case CodeRENPack:
		t.RENPack = chunk
	default:
		// EPM1 lands here too.
		rec.Skip(code, i)
	}
	return nil
}

func (t *TMC) Dialect() section.Dialect { return section.TMC11 }

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
		{Name: "LHeader", Code: CodeLHeader, Present: t.LHeader != nil},
		{Name: "MdlGeo", Code: CodeMdlGeo, Present: t.MdlGeo != nil},
		{Name: "TTDM", Code: CodeTTDM, Present: t.TTDM != nil},
		{Name: "VtxLay", Code: CodeVtxLay, Present: t.VtxLay != nil, Records: layoutLen(t.VtxLay)},
		{Name: "IdxLay", Code: CodeIdxLay, Present: t.IdxLay != nil, Records: layoutLen(t.IdxLay)},
		{Name: "MtrCol", Code: CodeMtrCol, Present: t.MtrCol != nil},
		{Name: "MdlInfo", Code: CodeMdlInfo, Present: t.MdlInfo != nil},
		{Name: "HieLay", Code: CodeHieLay, Present: t.HieLay != nil},
		{Name: "NodeLay", Code: CodeNodeLay, Present: t.NodeLay != nil},
		{Name: "GlblMtx", Code: CodeGlblMtx, Present: t.GlblMtx != nil},
		{Name: "BnOfsMtx", Code: CodeBnOfsMtx, Present: t.BnOfsMtx != nil},
		{Name: "collide", Code: CodeCollide, Present: !t.Collide.Empty()},
		{Name: "MTRLCHNG", Code: CodeMtrlChng, Present: !t.MtrlChng.Empty()},
		{Name: "effcnf", Code: CodeEffCnf, Present: !t.EffCnf.Empty()},
		{Name: "acscls", Code: CodeAcsCls, Present: !t.AcsCls.Empty()},
		{Name: "cpf", Code: CodeCPF, Present: !t.CPF.Empty()},
		{Name: "MCAPACK", Code: CodeMCAPack, Present: !t.MCAPack.Empty()},
		{Name: "RENPACK", Code: CodeRENPack, Present: !t.RENPack.Empty()},
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
