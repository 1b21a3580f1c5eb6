package tmc11

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/samcharles93/tmckit/internal/tmctest"
	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/schema"
	"github.com/samcharles93/tmckit/pkg/tmc/section"
)

var ttdlTexture = []byte("linked DDS payload")

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.add("DEBUG", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.add("WARN", msg, args) }

func (l *recordingLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprint(level, " ", msg, " ", args))
}

func geoDeclChunk(ib, vb int32) []byte {
	const vio = 0x20
	b := tmctest.NewBuf(vio)
	b.PutU32(0x4, vio).PutI32(0xc, ib).PutU32(0x10, 3).PutU32(0x14, 3)
	b.PutI32(vio, vb).PutI32(vio+0x4, 16).PutU32(vio+0x8, 2)
	el := vio + 0x18
	b.PutU16(el+2, 0).PutU8(el+4, uint8(schema.DeclFloat3)).PutU8(el+6, uint8(schema.UsagePosition))
	b.PutU16(el+8+2, 12).PutU8(el+8+4, uint8(schema.DeclD3DColor)).PutU8(el+8+6, uint8(schema.UsageColor)).PutU8(el+8+7, 0)
	return b.Bytes()
}

func objGeoChunk(usages ...uint32) []byte {
	b := tmctest.NewBuf(0x90)
	b.PutI32(0x0, 0).PutI32(0x4, 0).PutU32(0xc, uint32(len(usages)))
	b.PutU32(0x40, 1).PutU32(0x48, 2).PutU8(0x74, 1)
	b.PutU32(0x7c, 3).PutU32(0x84, 3)
	for i, usage := range usages {
		off := 0x90 + i*0x80
		b.PutU32(0x10+4*i, uint32(off))
		b.PutU32(off, uint32(i)).PutU32(off+0x4, usage).PutU32(off+0x8, uint32(i)).PutU32(off+0x78, 0xfeed)
		b.Pad(off + 0x80 - b.Len())
	}
	return b.Bytes()
}

func objGeo(name string) []byte {
	meta := tmctest.NewBuf(0x30).PutI32(0x4, 7).PutString(0x20, name)
	geodecl := tmctest.Container{Magic: "GeoDecl", Chunks: [][]byte{geoDeclChunk(0, 0)}}.Primary()
	return tmctest.Container{
		Magic:        "ObjGeo",
		Metadata:     meta.Bytes(),
		SubContainer: geodecl,
		Chunks:       [][]byte{objGeoChunk(uint32(MapAlbedo), uint32(MapEmission))},
	}.Primary()
}

func mtrColChunk() []byte {
	b := tmctest.NewBuf(0xd8)
	for i := range colorCount {
		b.PutF32s(0x10*i, float32(i), 0, 0, 1)
	}
	b.PutI32(0xd0, 0).PutU32(0xd4, 1).PutI32(0xd8, 0).PutU32(0xdc, 4)
	return b.Bytes()
}

func objInfo(index int32, typ uint32) []byte {
	meta := tmctest.NewBuf(0x10).PutI32(0x4, index).PutU32(0xc, typ)
	return tmctest.Container{Magic: "ObjInfo", Metadata: meta.Bytes()}.Primary()
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

func nodeObj(name string, groupSize int32, group ...int32) []byte {
	meta := tmctest.NewBuf(0x20).PutI32(0x4, 3).PutU32(0x8, 1).PutString(0x10, name)
	ch := tmctest.NewBuf(0x50).PutI32(0x0, 0).PutI32(0x4, groupSize).PutI32(0x8, 1)
	ch.PutF32s(0x10, tmctest.Identity(0, 0, 2)...)
	for i, g := range group {
		ch.PutI32(0x50+4*i, g)
	}
	return tmctest.Container{Magic: "NodeObj", Metadata: meta.Bytes(), Chunks: [][]byte{ch.Bytes()}}.Primary()
}

func matrices(magic string, n int) []byte {
	chunks := make([][]byte, n)
	for i := range chunks {
		chunks[i] = tmctest.NewBuf(0x40).PutF32s(0, tmctest.Identity(0, float32(i), 0)...).Bytes()
	}
	return tmctest.Container{Magic: magic, Chunks: chunks}.Primary()
}

type linkedFile struct {
	lheader, ttdl, vtxlay, idxlay []byte
	data                          []byte
}

func buildLinked() linkedFile {
	var f linkedFile
	var ttdlL, vtxL, idxL []byte
	f.ttdl, ttdlL = tmctest.Container{Magic: "TTDL", Linked: true, CheckDigits: 1, SizeTable: true, Chunks: [][]byte{ttdlTexture}}.Build()
	f.vtxlay, vtxL = tmctest.Container{Magic: "VtxLay", Linked: true, CheckDigits: 2, SizeTable: true, Chunks: [][]byte{make([]byte, 48)}}.Build()
	idx := tmctest.NewBuf(6).PutU16(0, 2).PutU16(2, 1).PutU16(4, 0)
	f.idxlay, idxL = tmctest.Container{Magic: "IdxLay", Linked: true, CheckDigits: 3, SizeTable: true, Chunks: [][]byte{idx.Bytes()}}.Build()

	codes := []uint32{LinkedCode(CodeMdlGeo), LinkedCode(CodeTTDM), LinkedCode(CodeVtxLay), LinkedCode(CodeIdxLay)}
	meta := tmctest.NewBuf(linkedTypeTableOffset).PutU32s(linkedTypeTableOffset, codes...)
	f.lheader, f.data = tmctest.Container{
		Magic:       "LHeader",
		Linked:      true,
		CheckDigits: 0x5eed,
		SizeTable:   true,
		Metadata:    meta.Bytes(),
		// MdlGeo has an entry but no linked payload.
		Chunks: [][]byte{nil, ttdlL, vtxL, idxL},
	}.Build()
	return f
}

func ttdm(ttdl []byte) []byte {
	ttdh := tmctest.Container{Magic: "TTDH", Chunks: [][]byte{{1, 0, 0, 0, 0, 0, 0, 0}}}.Primary()
	return tmctest.Container{Magic: "TTDM", Metadata: ttdh, SubContainer: ttdl}.Primary()
}

func sampleSections(l linkedFile) []tmctest.Section {
	return []tmctest.Section{
		{Code: CodeLHeader, Data: l.lheader},
		{Code: CodeMdlGeo, Data: tmctest.Container{Magic: "MdlGeo", Chunks: [][]byte{objGeo("WGT_face")}}.Primary()},
		{Code: CodeTTDM, Data: ttdm(l.ttdl)},
		{Code: CodeVtxLay, Data: l.vtxlay},
		{Code: CodeIdxLay, Data: l.idxlay},
		{Code: CodeMtrCol, Data: tmctest.Container{Magic: "MtrCol", Chunks: [][]byte{mtrColChunk()}}.Primary()},
		{Code: CodeMdlInfo, Data: tmctest.Container{Magic: "MdlInfo", Chunks: [][]byte{objInfo(0, 3)}}.Primary()},
		{Code: CodeHieLay, Data: tmctest.Container{Magic: "HieLay", Chunks: [][]byte{hieLayNode(-1, 0, 0, 1), hieLayNode(0, 1, 4)}}.Primary()},
		{Code: CodeNodeLay, Data: tmctest.Container{Magic: "NodeLay", Chunks: [][]byte{nodeObj("OPT_hair", 1, 0)}}.Primary()},
		{Code: CodeGlblMtx, Data: matrices("GlblMtx", 2)},
		{Code: CodeBnOfsMtx, Data: matrices("BnOfsMtx", 2)},
		{Code: CodeCollide, Data: []byte("collide!")},
		{Code: CodeCPF, Data: []byte("cpf-data")},
		{Code: CodeEPM1, Data: []byte("EPM1")},
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	l := buildLinked()
	raw := tmctest.TMC("kasumi", typeTableOffset, sampleSections(l)...)
	log := &recordingLogger{}
	doc, err := Parse(container.NewSpan(raw), container.NewSpan(l.data), section.Options{Strict: true, Logger: log})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Name() != "kasumi" || doc.Dialect() != section.TMC11 {
		t.Fatalf("document: %q %s", doc.Name(), doc.Dialect())
	}
	if !doc.LHeader.Linked(CodeMdlGeo).Empty() || doc.LHeader.Linked(CodeVtxLay).Empty() {
		t.Fatalf("LHeader spans not mapped by code")
	}

	obj := doc.MdlGeo.Objects[0]
	if obj.Index != 7 || obj.Name != "WGT_face" {
		t.Fatalf("ObjGeo: index %d name %q", obj.Index, obj.Name)
	}
	ch := obj.Chunks[0]
	if !ch.TwoSided || ch.Transparent1 != 1 || ch.Transparent2 != 2 || len(ch.TextureMaps) != 2 {
		t.Fatalf("ObjGeo chunk: %+v", ch)
	}
	if m := ch.TextureMaps[1]; m.Usage != MapEmission || m.TextureBufferIndex != 1 || m.Unknown78 != 0xfeed {
		t.Fatalf("texture map: %+v", m)
	}

	decl := obj.GeoDecl.Chunks[0]
	if decl.VertexSize != 16 || len(decl.Elements) != 2 || decl.Elements[1].Usage != schema.UsageColor {
		t.Fatalf("GeoDecl: %+v", decl)
	}
	vb, ib, err := doc.Buffers(decl)
	if err != nil {
		t.Fatalf("buffers: %v", err)
	}
	if vb.Len() != 48 || ib.Width != 2 || ib.At(0) != 2 {
		t.Fatalf("buffers: vb %d bytes, ib width %d first %d", vb.Len(), ib.Width, ib.At(0))
	}

	tex, err := doc.TTDM.Texture(0)
	if err != nil || !bytes.Equal(tex.Bytes(), ttdlTexture) {
		t.Fatalf("texture: %q %v", tex.Bytes(), err)
	}

	m := doc.MtrCol.Chunks[0]
	if m.Colors[12] != (mgl32.Vec4{12, 0, 0, 1}) || len(m.XRefs) != 1 || m.XRefs[0].UseCount != 4 {
		t.Fatalf("MtrCol: %+v", m)
	}
	if info := doc.MdlInfo.Objects[0]; info.Index != 0 || info.Type != 3 {
		t.Fatalf("ObjInfo: %+v", info)
	}

	world, err := schema.WorldTransform(doc.HieLay.Transforms(), 1)
	if err != nil || !world.ApproxEqual(mgl32.Translate3D(4, 0, 0)) || doc.HieLay.Nodes[1].Level != 1 {
		t.Fatalf("HieLay: %v %v", world, err)
	}
	node := doc.NodeLay.Nodes[0]
	if node.Name != "OPT_hair" || node.Master != 3 || node.Chunk.NodeIndex != 1 || len(node.Chunk.NodeGroup) != 1 {
		t.Fatalf("NodeObj: %+v", node)
	}
	if !doc.BnOfsMtx.Matrices[1].ApproxEqual(mgl32.Translate3D(0, 1, 0)) {
		t.Fatalf("BnOfsMtx: %v", doc.BnOfsMtx.Matrices[1])
	}

	if !bytes.HasPrefix(doc.Collide.Bytes(), []byte("collide!")) || !bytes.HasPrefix(doc.CPF.Bytes(), []byte("cpf-data")) {
		t.Fatalf("raw sections not carried through")
	}
	if !doc.MCAPack.Empty() || !doc.RENPack.Empty() {
		t.Fatalf("absent raw sections should be empty")
	}
	if len(doc.Failures()) != 0 {
		t.Fatalf("unexpected failures: %v", doc.Failures())
	}

	log.mu.Lock()
	defer log.mu.Unlock()
	if len(log.lines) != 1 || !bytes.Contains([]byte(log.lines[0]), []byte("0x45504D31")) {
		t.Fatalf("expected one skip for EPM1, got %q", log.lines)
	}
}

func TestParseSections(t *testing.T) {
	t.Parallel()

	l := buildLinked()
	raw := tmctest.TMC("summary", typeTableOffset, sampleSections(l)...)
	doc, err := Parse(container.NewSpan(raw), container.NewSpan(l.data), section.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := map[string]section.Info{}
	for _, s := range doc.Sections() {
		got[s.Name] = s
	}
	tests := []struct {
		name    string
		present bool
		records int
	}{
		{"LHeader", true, 4},
		{"MdlGeo", true, 1},
		{"VtxLay", true, 1},
		{"HieLay", true, 2},
		{"cpf", true, 0},
		{"RENPACK", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := got[tt.name]
			if !ok {
				t.Fatalf("section %s missing from summary", tt.name)
			}
			if s.Present != tt.present || s.Records != tt.records {
				t.Fatalf("got present=%v records=%d", s.Present, s.Records)
			}
		})
	}
}

func TestParseRequiresLHeader(t *testing.T) {
	t.Parallel()

	raw := tmctest.TMC("noheader", typeTableOffset, sampleSections(buildLinked())[1:]...)
	if _, err := Parse(container.NewSpan(raw), container.Span{}, section.Options{}); !errors.Is(err, container.ErrMissingRequiredSection) {
		t.Fatalf("expected missing LHeader, got %v", err)
	}
}

func TestParseWithoutLinkedData(t *testing.T) {
	t.Parallel()

	raw := tmctest.TMC("nolinked", typeTableOffset, sampleSections(buildLinked())...)
	doc, err := Parse(container.NewSpan(raw), container.Span{}, section.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.LHeader != nil || doc.VtxLay != nil || doc.TTDM != nil {
		t.Fatalf("linked sections should be absent")
	}
	if len(doc.Failures()) != 4 {
		t.Fatalf("expected LHeader, TTDM, VtxLay and IdxLay failures, got %v", doc.Failures())
	}
	if doc.MdlGeo == nil || doc.MtrCol == nil {
		t.Fatalf("primary-only sections should decode")
	}
}

func TestParseIsIdempotent(t *testing.T) {
	t.Parallel()

	l := buildLinked()
	raw := container.NewSpan(tmctest.TMC("twice", typeTableOffset, sampleSections(l)...))
	a, err := Parse(raw, container.NewSpan(l.data), section.Options{})
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}
	b, err := Parse(raw, container.NewSpan(l.data), section.Options{})
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("parses differ")
	}
}

func TestRecordErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		parse func() error
		want  error
	}{
		{
			name: "unknown texture map usage",
			parse: func() error {
				_, err := parseObjGeoChunk(container.NewSpan(objGeoChunk(4)))
				return err
			},
			want: container.ErrUnsupportedEnumValue,
		},
		{
			name: "texture map past chunk end",
			parse: func() error {
				b := objGeoChunk(0)
				_, err := parseObjGeoChunk(container.NewSpan(b[:0x90+0x40]))
				return err
			},
			want: container.ErrOutOfBounds,
		},
		{
			name: "negative node group size",
			parse: func() error {
				_, err := parseNodeObj(container.NewSpan(nodeObj("bad", -1)))
				return err
			},
			want: container.ErrOutOfBounds,
		},
		{
			name: "vertex elements past chunk end",
			parse: func() error {
				b := geoDeclChunk(0, 0)
				_, err := parseGeoDeclChunk(container.NewSpan(b[:len(b)-4]))
				return err
			},
			want: container.ErrOutOfBounds,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.parse(); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuffersNegativeIndex(t *testing.T) {
	t.Parallel()

	l := buildLinked()
	raw := tmctest.TMC("neg", typeTableOffset, sampleSections(l)...)
	doc, err := Parse(container.NewSpan(raw), container.NewSpan(l.data), section.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	d := &GeoDeclChunk{IndexBufferIndex: -1, VertexBufferIndex: 0, VertexCount: 3}
	if _, _, err := doc.Buffers(d); !errors.Is(err, container.ErrOutOfBounds) {
		t.Fatalf("expected out of bounds, got %v", err)
	}
}
