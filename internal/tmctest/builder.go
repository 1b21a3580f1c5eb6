// Package tmctest builds synthetic TMC containers for tests.
//
// The layout mirrors what the reader expects: a 0x30-byte header (0x50 when
// the chunks live in linked data), the metadata block, the chunk offset and
// size tables, the sub-container and finally the chunk payloads.
package tmctest

import (
	"encoding/binary"
	"math"

	"github.com/samcharles93/tmckit/pkg/container"
)

const (
	defaultHeadSize = 0x30
	linkedHeaderLen = 0x10
	payloadAlign    = 4
	sectionAlign    = 0x10
)

// Container describes one container to build.
type Container struct {
	Magic        string
	HeadSize     uint32 // 0 selects 0x30, or 0x50 when Linked is set
	Version      uint32 // 0 selects container.FormatVersion
	Metadata     []byte
	SubContainer []byte
	Chunks       [][]byte

	// SizeTable emits a chunk size table next to the offset table.
	SizeTable bool
	// Linked places the chunk payloads in a companion buffer.
	Linked      bool
	CheckDigits uint32
}

// Build returns the primary container bytes and, when Linked is set, the
// companion linked-data bytes.
func (c Container) Build() (primary, linked []byte) {
	head := c.HeadSize
	if head == 0 {
		head = defaultHeadSize
		if c.Linked {
			head = container.LinkedHeadSize
		}
	}

	p := NewBuf(int(head))
	p.PutString(0, c.Magic)
	version := c.Version
	if version == 0 {
		version = container.FormatVersion
	}
	p.PutU32(0x08, version)
	p.PutU32(0x0c, head)

	p.Append(c.Metadata)
	p.Align(payloadAlign)

	n := len(c.Chunks)
	var offTable, sizeTable int
	if n > 0 {
		offTable = p.Len()
		p.Pad(4 * n)
		if c.SizeTable {
			sizeTable = p.Len()
			p.Pad(4 * n)
		}
	}
	p.Align(sectionAlign)

	var subOfs int
	if c.SubContainer != nil {
		subOfs = p.Len()
		p.Append(c.SubContainer)
		p.Align(sectionAlign)
	}

	dst := p
	var l *Buf
	if c.Linked {
		l = NewBuf(linkedHeaderLen)
		dst = l
	}

	valid := 0
	for i, chunk := range c.Chunks {
		if len(chunk) == 0 && !c.SizeTable {
			continue
		}
		if len(chunk) > 0 {
			valid++
		}
		off := dst.Len()
		dst.Append(chunk)
		dst.Align(payloadAlign)
		p.PutU32(offTable+4*i, uint32(off))
		if c.SizeTable {
			p.PutU32(sizeTable+4*i, uint32(len(chunk)))
		}
	}

	if c.Linked {
		l.PutU32(0x0, uint32(n))
		l.PutU32(0x4, uint32(l.Len()))
		l.PutU32(0x8, c.CheckDigits)
		p.PutU32(0x40, uint32(n))
		p.PutU32(0x44, uint32(l.Len()))
		p.PutU32(0x48, c.CheckDigits)
		linked = l.Bytes()
	}

	p.PutU32(0x10, uint32(p.Len()))
	p.PutU32(0x14, uint32(n))
	p.PutU32(0x18, uint32(valid))
	p.PutU32(0x20, uint32(offTable))
	p.PutU32(0x24, uint32(sizeTable))
	p.PutU32(0x28, uint32(subOfs))
	return p.Bytes(), linked
}

// Primary builds a container that does not use linked data.
func (c Container) Primary() []byte {
	b, _ := c.Build()
	return b
}

// Buf is a growable little-endian byte buffer for laying out records.
type Buf struct {
	b []byte
}

func NewBuf(n int) *Buf { return &Buf{b: make([]byte, n)} }

func (w *Buf) Len() int      { return len(w.b) }
func (w *Buf) Bytes() []byte { return w.b }

func (w *Buf) grow(end int) {
	if end > len(w.b) {
		w.b = append(w.b, make([]byte, end-len(w.b))...)
	}
}

func (w *Buf) Append(p []byte) { w.b = append(w.b, p...) }

func (w *Buf) Pad(n int) { w.grow(len(w.b) + n) }

func (w *Buf) Align(n int) {
	if r := len(w.b) % n; r != 0 {
		w.Pad(n - r)
	}
}

func (w *Buf) PutU8(off int, v uint8) *Buf {
	w.grow(off + 1)
	w.b[off] = v
	return w
}

func (w *Buf) PutU16(off int, v uint16) *Buf {
	w.grow(off + 2)
	binary.LittleEndian.PutUint16(w.b[off:], v)
	return w
}

func (w *Buf) PutU32(off int, v uint32) *Buf {
	w.grow(off + 4)
	binary.LittleEndian.PutUint32(w.b[off:], v)
	return w
}

func (w *Buf) PutI32(off int, v int32) *Buf { return w.PutU32(off, uint32(v)) }

func (w *Buf) PutF32(off int, v float32) *Buf { return w.PutU32(off, math.Float32bits(v)) }

func (w *Buf) PutF32s(off int, vs ...float32) *Buf {
	for i, v := range vs {
		w.PutF32(off+4*i, v)
	}
	return w
}

func (w *Buf) PutU32s(off int, vs ...uint32) *Buf {
	for i, v := range vs {
		w.PutU32(off+4*i, v)
	}
	return w
}

func (w *Buf) PutString(off int, s string) *Buf {
	w.grow(off + len(s))
	copy(w.b[off:], s)
	return w
}

// Identity returns the 16 floats of a 4x4 identity matrix with a translation.
func Identity(tx, ty, tz float32) []float32 {
	return []float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		tx, ty, tz, 1,
	}
}

// TypeTable encodes chunk type codes as consecutive words.
func TypeTable(codes ...uint32) []byte {
	b := NewBuf(0)
	b.PutU32s(0, codes...)
	return b.Bytes()
}

// Section is one outer chunk and its type code.
type Section struct {
	Code uint32
	Data []byte
}

// TMC builds an outer TMC container. The name is stored at 0x20 of the
// metadata and the type code table at tableOffset.
func TMC(name string, tableOffset int, sections ...Section) []byte {
	meta := NewBuf(tableOffset)
	meta.PutString(0x20, name)
	chunks := make([][]byte, len(sections))
	for i, s := range sections {
		meta.PutU32(tableOffset+4*i, s.Code)
		chunks[i] = s.Data
	}
	return Container{Magic: "TMC", Metadata: meta.Bytes(), Chunks: chunks}.Primary()
}
