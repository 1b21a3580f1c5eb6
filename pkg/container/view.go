package container

import (
	"encoding/binary"
	"math"
)

// Word is the set of fixed-width element types a Span can be cast to.
type Word interface {
	uint16 | int16 | uint32 | int32 | float32
}

// View is a zero-copy typed view over a span of little-endian elements.
type View[T Word] struct {
	s    Span
	size int
}

// Cast returns a typed view over s. The span length must be a whole number
// of elements.
func Cast[T Word](s Span) (View[T], error) {
	size := wordSize[T]()
	if s.Len()%size != 0 {
		return View[T]{}, &MisalignedError{Len: s.Len(), ElemSize: size}
	}
	return View[T]{s: s, size: size}, nil
}

func wordSize[T Word]() int {
	var zero T
	switch any(zero).(type) {
	case uint16, int16:
		return 2
	default:
		return 4
	}
}

func (v View[T]) Len() int {
	if v.size == 0 {
		return 0
	}
	return v.s.Len() / v.size
}

// Span returns the bytes backing the view.
func (v View[T]) Span() Span { return v.s }

// At returns element i. It panics when i is out of range, like a slice index.
func (v View[T]) At(i int) T {
	b := v.s.b[i*v.size : (i+1)*v.size]
	var out T
	switch p := any(&out).(type) {
	case *uint16:
		*p = binary.LittleEndian.Uint16(b)
	case *int16:
		*p = int16(binary.LittleEndian.Uint16(b))
	case *uint32:
		*p = binary.LittleEndian.Uint32(b)
	case *int32:
		*p = int32(binary.LittleEndian.Uint32(b))
	case *float32:
		*p = math.Float32frombits(binary.LittleEndian.Uint32(b))
	}
	return out
}

// Values copies the whole view into a new slice.
func (v View[T]) Values() []T {
	out := make([]T, v.Len())
	for i := range out {
		out[i] = v.At(i)
	}
	return out
}
