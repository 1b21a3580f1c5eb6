package schema

import (
	"fmt"

	"github.com/samcharles93/tmckit/pkg/container"
)

// IndexWidthFor returns the index element width in bytes implied by the
// vertex count of the paired vertex buffer. The width is not stored anywhere
// in the file.
func IndexWidthFor(vertexCount uint32) int {
	if vertexCount < 1<<16 {
		return 2
	}
	return 4
}

// IndexBuffer is a raw index buffer interpreted with the width implied by its
// vertex count.
type IndexBuffer struct {
	Raw         container.Span
	VertexCount uint32
	Width       int

	u16 container.View[uint16]
	u32 container.View[uint32]
}

// NewIndexBuffer applies IndexWidthFor to raw and checks its alignment.
func NewIndexBuffer(raw container.Span, vertexCount uint32) (IndexBuffer, error) {
	ib := IndexBuffer{Raw: raw, VertexCount: vertexCount, Width: IndexWidthFor(vertexCount)}
	var err error
	if ib.Width == 2 {
		ib.u16, err = container.Cast[uint16](raw)
	} else {
		ib.u32, err = container.Cast[uint32](raw)
	}
	if err != nil {
		return IndexBuffer{}, fmt.Errorf("index buffer for %d vertices: %w", vertexCount, err)
	}
	return ib, nil
}

func (ib IndexBuffer) Len() int {
	if ib.Width == 2 {
		return ib.u16.Len()
	}
	return ib.u32.Len()
}

// At returns index i widened to uint32.
func (ib IndexBuffer) At(i int) uint32 {
	if ib.Width == 2 {
		return uint32(ib.u16.At(i))
	}
	return ib.u32.At(i)
}

// Range copies count indices starting at first, as referenced by a geometry
// chunk's first_index/index_count pair.
func (ib IndexBuffer) Range(first, count int) ([]uint32, error) {
	if first < 0 || count < 0 || first > ib.Len()-count {
		return nil, &container.OutOfBoundsError{Start: first, End: first + count, Len: ib.Len()}
	}
	out := make([]uint32, count)
	for i := range out {
		out[i] = ib.At(first + i)
	}
	return out, nil
}
