package ngs2

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/samcharles93/tmckit/internal/tmctest"
	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/schema"
	"github.com/samcharles93/tmckit/pkg/tmc/section"
)

const textureInfoStride = 0x80

var ttdlTexture = []byte("DDS linked texture")

func geoDeclChunk() []byte {
	const vio = 0x20
	b := tmctest.NewBuf(vio)
	b.PutU32(0x4, vio).PutU32(0x8, 1).PutU32(0xc, 0).PutU32(0x10, 3).PutU32(0x14, 3)
	b.PutU32(vio, 0).PutU32(vio+0x4, 12).PutU32(vio+0x8, 1)
	el := vio + 0x18
	b.PutU16(el, 0).PutU16(el+2, 0).PutU8(el+4, uint8(schema.DeclFloat3)).PutU8(el+6, uint8(schema.UsagePosition)).PutU8(el+7, 0)
	return b.Bytes()
}

func objGeoChunk(usages ...uint32) []byte {
	b := tmctest.NewBuf(0xe0)
	b.PutI32(0x0, 0).PutI32(0x4, 0).PutU32(0xc, uint32(len(usages)))
	b.PutU32(0x38, 0).PutU8(0x74, 1)
	b.PutU32(0x78, 0).PutU32(0x7c, 3).PutU32(0x80, 0).PutU32(0x84, 3)
	b.PutF32s(0xa0, 1, 0, 1, 1)
	for i, usage := range usages {
		off := 0xe0 + i*textureInfoStride
		b.PutU32(0x10+4*i, uint32(off))
		b.PutU32(off, uint32(i)).PutU32(off+0x4, usage).PutI32(off+0x8, int32(i))
		b.PutI32(off+0x28, -1)
		// A set word at 0x30 pulls the trailing block up to 0x34.
		if i%2 == 1 {
			b.PutU32(off+0x30, 1)
			b.PutF32(off+0x34+0x38, 12)
		} else {
			b.PutF32(off+0x38+0x38, 12)
		}
		b.Pad(off + textureInfoStride - b.Len())
	}
	return b.Bytes()
}

func objGeo(name string, chunk []byte) []byte {
	meta := tmctest.NewBuf(0x30).PutU16(0x0, 3).PutU16(0x2, 1).PutI32(0x4, 0).PutString(0x20, name)
	geodecl := tmctest.Container{Magic: "GeoDecl", Chunks: [][]byte{geoDeclChunk()}}.Primary()
	return tmctest.Container{
		Magic:        "ObjGeo",
		Metadata:     meta.Bytes(),
		SubContainer: geodecl,
		Chunks:       [][]byte{chunk},
	}.Primary()
}

func mtrColChunk(index int32, xrefs ...schema.XRef) []byte {
	b := tmctest.NewBuf(0xd8)
	b.PutF32s(0x00, 1, 0.5, 0.25, 1)
	b.PutF32s(0x20, 2, 3, 4, 5)
	b.PutF32s(0x68, 7, 8)
	b.PutF32s(0x80, 0.9, 0.8, 0.7, 1)
	b.PutI32(0xd0, index)
	b.PutU32(0xd4, uint32(len(xrefs)))
	for i, x := range xrefs {
		b.PutI32(0xd8+8*i, x.ObjectIndex).PutU32(0xdc+8*i, x.UseCount)
	}
	return b.Bytes()
}

func hieLayNode(parent int32, level uint32, tx float32, children ...int32) []byte {
	b := tmctest.NewBuf(0x50)
	b.PutF32s(0, tmctest.Identity(tx, 0, 0)...)
	b.PutI32(0x40, parent).PutU32(0x44, uint32(len(children))).PutU32(0x48, level)
	for i, c := range children {
		b.PutI32(0x50+4*i, c)
	}
	return b.Bytes()
}

func nodeObj(name string, group ...int32) []byte {
	meta := tmctest.NewBuf(0x20).PutU32(0x0, 1).PutI32(0x4, -1).PutI32(0x8, 0).PutString(0x10, name)
	ch := tmctest.NewBuf(0x50)
	ch.PutI32(0x0, 2).PutU32(0x4, uint32(len(group))).PutI32(0x8, 0)
	ch.PutF32s(0x10, tmctest.Identity(0, 5, 0)...)
	for i, g := range group {
		ch.PutI32(0x50+4*i, g)
	}
	return tmctest.Container{Magic: "NodeObj", Metadata: meta.Bytes(), Chunks: [][]byte{ch.Bytes()}}.Primary()
}

func matrices(magic string, n int) []byte {
	chunks := make([][]byte, n)
	for i := range chunks {
		chunks[i] = tmctest.NewBuf(0x40).PutF32s(0, tmctest.Identity(float32(i), 0, 0)...).Bytes()
	}
	return tmctest.Container{Magic: magic, Chunks: chunks}.Primary()
}

// objTypeHead lists run 0 after run 1 so the decoder has to sort them.
func objTypeHead() []byte {
	return tmctest.NewBuf(0x20).PutU16(0x0, 1).PutU16(0x2, 1).PutU16(0x4, 0).PutU16(0x6, 1).Bytes()
}

func objTypeTable() []byte {
	b := tmctest.NewBuf(0x10)
	b.PutU32s(0x0, 0x10, 0x1c)
	b.PutU32s(0x10, uint32(schema.ObjMOT), 7, 8)
	b.PutU32s(0x1c, uint32(schema.ObjSUP), 9, 10)
	return b.Bytes()
}

func mtrlChng(variants, elements int) []byte {
	meta := tmctest.NewBuf(0x10).PutU32(0x8, uint32(variants)).PutU32(0xc, uint32(elements))
	colors := tmctest.NewBuf(variants * elements * colorBlockSize)
	for i := range variants * elements {
		colors.PutF32s(i*colorBlockSize+0x80, float32(i), 0, 0, 1)
	}
	return tmctest.Container{
		Magic:    "MTRLCHNG",
		Metadata: meta.Bytes(),
		Chunks:   [][]byte{{1, 0, 0, 0}, {2, 0, 0, 0}, colors.Bytes()},
	}.Primary()
}

// linkedFile builds the linked-data file together with the primary
// LHeader, TTDL, VtxLay and IdxLay containers that describe it.
type linkedFile struct {
	lheader, ttdl, vtxlay, idxlay []byte
	data                          []byte
}

func buildLinked() linkedFile {
	var f linkedFile
	var ttdlL, vtxL, idxL []byte
	f.ttdl, ttdlL = tmctest.Container{Magic: "TTDL", Linked: true, CheckDigits: 0x11, SizeTable: true, Chunks: [][]byte{ttdlTexture}}.Build()
	f.vtxlay, vtxL = tmctest.Container{Magic: "VtxLay", Linked: true, CheckDigits: 0x22, SizeTable: true, Chunks: [][]byte{make([]byte, 36)}}.Build()
	idx := tmctest.NewBuf(6).PutU16(0, 0).PutU16(2, 1).PutU16(4, 2)
	f.idxlay, idxL = tmctest.Container{Magic: "IdxLay", Linked: true, CheckDigits: 0x33, SizeTable: true, Chunks: [][]byte{idx.Bytes()}}.Build()

	meta := tmctest.NewBuf(linkedTypeTableOffset).PutU32s(linkedTypeTableOffset, LinkedTTDL, LinkedVtxLay, LinkedIdxLay)
	f.lheader, f.data = tmctest.Container{
		Magic:       "LHeader",
		Linked:      true,
		CheckDigits: 0x44,
		SizeTable:   true,
		Metadata:    meta.Bytes(),
		Chunks:      [][]byte{ttdlL, vtxL, idxL},
	}.Build()
	return f
}

func ttdm(ttdl []byte) []byte {
	ttdh := tmctest.Container{
		Magic:  "TTDH",
		Chunks: [][]byte{{1, 0, 0, 0, 0, 0, 0, 0}, {0, 0, 0, 0, 0, 0, 0, 0}},
	}.Primary()
	return tmctest.Container{
		Magic:        "TTDM",
		Metadata:     ttdh,
		SubContainer: ttdl,
		Chunks:       [][]byte{[]byte("inline")},
	}.Primary()
}

func sampleSections(l linkedFile) []tmctest.Section {
	return []tmctest.Section{
		{Code: CodeMdlGeo, Data: tmctest.Container{Magic: "MdlGeo", Chunks: [][]byte{objGeo("torso", objGeoChunk(0, 3))}}.Primary()},
		{Code: CodeTTDM, Data: ttdm(l.ttdl)},
		{Code: CodeVtxLay, Data: l.vtxlay},
		{Code: CodeIdxLay, Data: l.idxlay},
		{Code: CodeMtrCol, Data: tmctest.Container{Magic: "MtrCol", Chunks: [][]byte{mtrColChunk(0, schema.XRef{ObjectIndex: 0, UseCount: 1})}}.Primary()},
		{Code: CodeHieLay, Data: tmctest.Container{Magic: "HieLay", Chunks: [][]byte{hieLayNode(-1, 0, 1, 1), hieLayNode(0, 1, 2)}}.Primary()},
		{Code: CodeNodeLay, Data: tmctest.Container{Magic: "NodeLay", Chunks: [][]byte{nodeObj("MOT00_Hips", 0, 1)}}.Primary()},
		{Code: CodeGlblMtx, Data: matrices("GlblMtx", 2)},
		{Code: CodeBnOfsMtx, Data: matrices("BnOfsMtx", 1)},
		{Code: CodeObjTypeInfoHead, Data: objTypeHead()},
		{Code: CodeObjTypeInfo, Data: objTypeTable()},
		{Code: CodeMtrlChng, Data: mtrlChng(2, 1)},
		// LHeader is resolved before the other sections wherever it sits.
		{Code: CodeLHeader, Data: l.lheader},
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	l := buildLinked()
	raw := tmctest.TMC("ryu", typeTableOffset, sampleSections(l)...)
	doc, err := Parse(container.NewSpan(raw), container.NewSpan(l.data), section.Options{Strict: true})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Name() != "ryu" || doc.Dialect() != section.NGS2 {
		t.Fatalf("document: %q %s", doc.Name(), doc.Dialect())
	}
	if got := doc.LHeader.TypeCodes; len(got) != 3 || got[1] != LinkedVtxLay {
		t.Fatalf("LHeader codes: %x", got)
	}

	obj := doc.MdlGeo.Objects[0]
	if obj.Meta.Name != "torso" || obj.Meta.Unknown00 != 3 {
		t.Fatalf("ObjGeo meta: %+v", obj.Meta)
	}
	ch := obj.Chunks[0]
	if !ch.ShowBackface || ch.IndexCount != 3 || ch.UnknownA0[2] != 1 || len(ch.Textures) != 2 {
		t.Fatalf("ObjGeo chunk: %+v", ch)
	}
	if tex := ch.Textures[0]; tex.Usage != UsageAlbedo || tex.TailOffset != 0x38 || tex.TailFloats[2] != 12 || tex.Unknown28 != -1 {
		t.Fatalf("texture 0: %+v", tex)
	}
	if tex := ch.Textures[1]; tex.Usage != UsageAdd || tex.TailOffset != 0x34 || tex.TailFloats[2] != 12 {
		t.Fatalf("texture 1: %+v", tex)
	}

	decl := obj.GeoDecl.Chunks[0]
	if decl.VertexSize != 12 || decl.VertexCount != 3 || len(decl.Elements) != 1 {
		t.Fatalf("GeoDecl: %+v", decl)
	}
	vb, ib, err := doc.Buffers(decl)
	if err != nil {
		t.Fatalf("buffers: %v", err)
	}
	if vb.Len() != 36 || ib.Width != 2 || ib.At(1) != 1 {
		t.Fatalf("buffers: vb %d bytes, ib width %d", vb.Len(), ib.Width)
	}

	tex, err := doc.TTDM.Texture(0)
	if err != nil || !bytes.Equal(tex.Bytes(), ttdlTexture) {
		t.Fatalf("linked texture: %q %v", tex.Bytes(), err)
	}
	inline, err := doc.TTDM.Texture(1)
	if err != nil || !bytes.HasPrefix(inline.Bytes(), []byte("inline")) {
		t.Fatalf("inline texture: %q %v", inline.Bytes(), err)
	}

	m := doc.MtrCol.Chunks[0]
	if m.SpecularPower != (mgl32.Vec4{2, 3, 4, 5}) || m.SpecularGlowPower != 7 || m.DiffuseGlowPower != 8 || m.Coat[0] != 0.9 {
		t.Fatalf("MtrCol: %+v", m)
	}
	if len(m.XRefs) != 1 || m.XRefs[0].UseCount != 1 {
		t.Fatalf("xrefs: %v", m.XRefs)
	}

	if n := doc.HieLay.Nodes[1]; n.Level != 1 || n.Parent != 0 {
		t.Fatalf("HieLay node: %+v", n)
	}
	world, err := schema.WorldTransform(doc.HieLay.Transforms(), 1)
	if err != nil || !world.ApproxEqual(mgl32.Translate3D(3, 0, 0)) {
		t.Fatalf("world transform: %v %v", world, err)
	}

	node := doc.NodeLay.Nodes[0]
	if node.Name != "MOT00_Hips" || node.Master != -1 || node.Chunk == nil {
		t.Fatalf("NodeObj: %+v", node)
	}
	if node.Chunk.ObjIndex != 2 || len(node.Chunk.NodeGroup) != 2 || !node.Chunk.Matrix.ApproxEqual(mgl32.Translate3D(0, 5, 0)) {
		t.Fatalf("NodeObj chunk: %+v", node.Chunk)
	}

	if len(doc.GlblMtx.Matrices) != 2 || !doc.GlblMtx.Matrices[1].ApproxEqual(mgl32.Translate3D(1, 0, 0)) {
		t.Fatalf("GlblMtx: %v", doc.GlblMtx.Matrices)
	}
	if len(doc.BnOfsMtx.Matrices) != 1 {
		t.Fatalf("BnOfsMtx: %v", doc.BnOfsMtx.Matrices)
	}

	oti := doc.ObjTypeInfo
	if oti.Groups[0].Ordinal != 1 || len(oti.Entries) != 2 {
		t.Fatalf("OBJ_TYPE_INFO: %+v", oti)
	}
	if e := oti.Entries[0]; e.Type != schema.ObjMOT || e.Group != 1 || e.Unknown04 != 7 {
		t.Fatalf("entry 0: %+v", e)
	}
	if e := oti.Entries[1]; e.Type != schema.ObjSUP || e.Group != 0 {
		t.Fatalf("entry 1: %+v", e)
	}

	mc := doc.MtrlChng
	if len(mc.Colors) != 2 || len(mc.Variants) != 2 || mc.Variants[1][0].Coat[0] != 1 || mc.Colors[0].XRefs != nil {
		t.Fatalf("MTRLCHNG: %+v", mc)
	}
	if len(doc.Failures()) != 0 {
		t.Fatalf("unexpected failures: %v", doc.Failures())
	}
}

func TestParseRequiresLHeader(t *testing.T) {
	t.Parallel()

	sections := sampleSections(buildLinked())
	raw := tmctest.TMC("noheader", typeTableOffset, sections[:len(sections)-1]...)
	_, err := Parse(container.NewSpan(raw), container.Span{}, section.Options{})
	var missing *container.MissingRequiredSectionError
	if !errors.As(err, &missing) || missing.Code != CodeLHeader {
		t.Fatalf("expected missing LHeader, got %v", err)
	}
	if !errors.Is(err, container.ErrMissingRequiredSection) {
		t.Fatalf("expected ErrMissingRequiredSection in chain")
	}
}

func TestParseWithoutLinkedData(t *testing.T) {
	t.Parallel()

	raw := tmctest.TMC("nolinked", typeTableOffset, sampleSections(buildLinked())...)

	doc, err := Parse(container.NewSpan(raw), container.Span{}, section.Options{})
	if err != nil {
		t.Fatalf("lenient parse: %v", err)
	}
	failed := map[string]bool{}
	for _, f := range doc.Failures() {
		failed[f.Name] = true
	}
	for _, name := range []string{"LHeader", "TTDM", "VtxLay", "IdxLay"} {
		if !failed[name] {
			t.Errorf("expected %s to fail, failures: %v", name, doc.Failures())
		}
	}
	if doc.MdlGeo == nil || doc.MtrCol == nil || doc.HieLay == nil {
		t.Fatalf("sections outside linked data should still decode")
	}

	_, err = Parse(container.NewSpan(raw), container.Span{}, section.Options{Strict: true})
	var se *section.Error
	if !errors.As(err, &se) || se.Name != "LHeader" || !errors.Is(err, container.ErrMissingLinkedData) {
		t.Fatalf("strict parse: %v", err)
	}
}

func TestParseIsIdempotent(t *testing.T) {
	t.Parallel()

	l := buildLinked()
	raw := container.NewSpan(tmctest.TMC("twice", typeTableOffset, sampleSections(l)...))
	linked := container.NewSpan(l.data)
	a, err := Parse(raw, linked, section.Options{})
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}
	b, err := Parse(raw, linked, section.Options{})
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("parses differ")
	}
}

func TestTTDMTextureOutOfRange(t *testing.T) {
	t.Parallel()

	l := buildLinked()
	raw := tmctest.TMC("tex", typeTableOffset, sampleSections(l)...)
	doc, err := Parse(container.NewSpan(raw), container.NewSpan(l.data), section.Options{Strict: true})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, i := range []int{-1, 2} {
		if _, err := doc.TTDM.Texture(i); !errors.Is(err, container.ErrOutOfBounds) {
			t.Fatalf("texture %d: %v", i, err)
		}
	}
}

func TestObjTypeInfoRunOutOfRange(t *testing.T) {
	t.Parallel()

	head := tmctest.NewBuf(0x20).PutU16(0x0, 5).PutU16(0x2, 1).Bytes()
	table := tmctest.NewBuf(0x10).PutU32(0, 0x4).Bytes()
	if _, err := parseObjTypeInfo(container.NewSpan(head), container.NewSpan(table)); !errors.Is(err, container.ErrOutOfBounds) {
		t.Fatalf("expected out of bounds, got %v", err)
	}
}

func TestMtrlChngNeedsColourChunk(t *testing.T) {
	t.Parallel()

	meta := tmctest.NewBuf(0x10).PutU32(0x8, 1).PutU32(0xc, 1)
	raw := tmctest.Container{Magic: "MTRLCHNG", Metadata: meta.Bytes(), Chunks: [][]byte{{1, 0, 0, 0}}}.Primary()
	if _, err := parseMtrlChng(container.NewSpan(raw)); !errors.Is(err, container.ErrMisalignedOrTruncated) {
		t.Fatalf("expected truncated, got %v", err)
	}
}

func TestObjGeoRejectsUnknownTextureUsage(t *testing.T) {
	t.Parallel()

	_, err := parseObjGeoChunk(container.NewSpan(objGeoChunk(9)))
	var enumErr *container.UnsupportedEnumError
	if !errors.As(err, &enumErr) || enumErr.Enum != "TextureUsage" {
		t.Fatalf("expected unsupported usage, got %v", err)
	}
}
