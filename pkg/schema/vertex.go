// Package schema holds the record vocabulary shared by every TMC dialect:
// vertex declarations, object types, cross-references, matrices and colours,
// index buffers, colour-variant grouping and hierarchy helpers.
package schema

import (
	"fmt"

	"github.com/samcharles93/tmckit/pkg/container"
)

// DeclType is a D3DDECLTYPE value. Keep these stable; the set is closed.
type DeclType uint8

const (
	DeclFloat1 DeclType = iota
	DeclFloat2
	DeclFloat3
	DeclFloat4
	DeclD3DColor
	DeclUByte4
	DeclShort2
	DeclShort4
	DeclUByte4N
	DeclShort2N
	DeclShort4N
	DeclUShort2N
	DeclUShort4N
	DeclUDec3
	DeclDec3N
	DeclFloat16x2
	DeclFloat16x4
	DeclUnused
)

var declTypeNames = [...]string{
	"FLOAT1", "FLOAT2", "FLOAT3", "FLOAT4", "D3DCOLOR", "UBYTE4",
	"SHORT2", "SHORT4", "UBYTE4N", "SHORT2N", "SHORT4N", "USHORT2N",
	"USHORT4N", "UDEC3", "DEC3N", "FLOAT16_2", "FLOAT16_4", "UNUSED",
}

// declTypeSizes is the byte size of one attribute of each type.
var declTypeSizes = [...]int{4, 8, 12, 16, 4, 4, 4, 8, 4, 4, 8, 4, 8, 4, 4, 4, 8, 0}

func (t DeclType) Valid() bool { return int(t) < len(declTypeNames) }

func (t DeclType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("DeclType(%d)", uint8(t))
	}
	return declTypeNames[t]
}

// Size returns the encoded size of the attribute in bytes.
func (t DeclType) Size() int {
	if !t.Valid() {
		return 0
	}
	return declTypeSizes[t]
}

func (t DeclType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// DeclUsage is a D3DDECLUSAGE value.
type DeclUsage uint8

const (
	UsagePosition DeclUsage = iota
	UsageBlendWeight
	UsageBlendIndices
	UsageNormal
	UsagePSize
	UsageTexCoord
	UsageTangent
	UsageBinormal
	UsageTessFactor
	UsagePositionT
	UsageColor
	UsageFog
	UsageDepth
	UsageSample
)

var declUsageNames = [...]string{
	"POSITION", "BLENDWEIGHT", "BLENDINDICES", "NORMAL", "PSIZE", "TEXCOORD",
	"TANGENT", "BINORMAL", "TESSFACTOR", "POSITIONT", "COLOR", "FOG",
	"DEPTH", "SAMPLE",
}

func (u DeclUsage) Valid() bool { return int(u) < len(declUsageNames) }

func (u DeclUsage) String() string {
	if !u.Valid() {
		return fmt.Sprintf("DeclUsage(%d)", uint8(u))
	}
	return declUsageNames[u]
}

func (u DeclUsage) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

// VertexElementSize is the encoded size of one D3DVERTEXELEMENT9 descriptor.
const VertexElementSize = 8

// VertexElement describes one attribute of an interleaved vertex buffer.
type VertexElement struct {
	Stream     int16
	Offset     int16
	Type       DeclType
	Method     uint8
	Usage      DeclUsage
	UsageIndex uint8
}

// ParseVertexElement decodes the descriptor at off.
func ParseVertexElement(s container.Span, off int) (VertexElement, error) {
	b, err := s.Window(off, VertexElementSize)
	if err != nil {
		return VertexElement{}, err
	}
	raw := b.Bytes()
	stream, _ := b.U16(0)
	offset, _ := b.U16(2)
	e := VertexElement{
		Stream:     int16(stream),
		Offset:     int16(offset),
		Type:       DeclType(raw[4]),
		Method:     raw[5],
		Usage:      DeclUsage(raw[6]),
		UsageIndex: raw[7],
	}
	if !e.Type.Valid() {
		return VertexElement{}, &container.UnsupportedEnumError{Enum: "D3DDECLTYPE", Value: uint32(raw[4])}
	}
	if !e.Usage.Valid() {
		return VertexElement{}, &container.UnsupportedEnumError{Enum: "D3DDECLUSAGE", Value: uint32(raw[6])}
	}
	return e, nil
}

// ParseVertexElements decodes count packed descriptors starting at base.
func ParseVertexElements(s container.Span, base, count int) ([]VertexElement, error) {
	if count < 0 {
		return nil, &container.OutOfBoundsError{Start: base, End: base, Len: s.Len()}
	}
	if _, err := s.Window(base, count*VertexElementSize); err != nil {
		return nil, fmt.Errorf("vertex element table of %d entries: %w", count, err)
	}
	out := make([]VertexElement, count)
	for i := range out {
		e, err := ParseVertexElement(s, base+i*VertexElementSize)
		if err != nil {
			return nil, fmt.Errorf("vertex element %d: %w", i, err)
		}
		out[i] = e
	}
	return out, nil
}
