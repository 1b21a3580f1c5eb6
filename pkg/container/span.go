package container

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Span is a read-only, bounds-checked view over a byte buffer.
// Slicing never copies; every sub-span borrows the buffer of its parent.
// Multi-byte reads are always little-endian.
type Span struct {
	b   []byte
	off int // offset of b[0] within the root buffer
}

// NewSpan wraps b. The caller must not modify b while the span is in use.
func NewSpan(b []byte) Span {
	return Span{b: b[:len(b):len(b)]}
}

func (s Span) Len() int { return len(s.b) }

func (s Span) Empty() bool { return len(s.b) == 0 }

// Offset returns the position of the span within the buffer it was created from.
func (s Span) Offset() int { return s.off }

// Bytes returns the underlying bytes. The result aliases the backing buffer and
// must be treated as read-only.
func (s Span) Bytes() []byte { return s.b }

// Slice returns the sub-span [start, end).
func (s Span) Slice(start, end int) (Span, error) {
	if start < 0 || end < start || end > len(s.b) {
		return Span{}, &OutOfBoundsError{Start: start, End: end, Len: len(s.b)}
	}
	return Span{b: s.b[start:end:end], off: s.off + start}, nil
}

// From returns the sub-span [start, Len()).
func (s Span) From(start int) (Span, error) {
	return s.Slice(start, len(s.b))
}

// Window returns the sub-span [off, off+n).
func (s Span) Window(off, n int) (Span, error) {
	if n < 0 || off > math.MaxInt-n {
		return Span{}, &OutOfBoundsError{Start: off, End: off + n, Len: len(s.b)}
	}
	return s.Slice(off, off+n)
}

func (s Span) field(off, n int) ([]byte, error) {
	if off < 0 || off > len(s.b)-n {
		return nil, &OutOfBoundsError{Start: off, End: off + n, Len: len(s.b)}
	}
	return s.b[off : off+n], nil
}

func (s Span) U8(off int) (uint8, error) {
	b, err := s.field(off, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s Span) Bool(off int) (bool, error) {
	v, err := s.U8(off)
	return v != 0, err
}

func (s Span) U16(off int) (uint16, error) {
	b, err := s.field(off, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (s Span) U32(off int) (uint32, error) {
	b, err := s.field(off, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (s Span) I32(off int) (int32, error) {
	v, err := s.U32(off)
	return int32(v), err
}

func (s Span) U64(off int) (uint64, error) {
	b, err := s.field(off, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (s Span) F32(off int) (float32, error) {
	v, err := s.U32(off)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// CString reads a NUL-terminated string stored in a fixed field of n bytes.
func (s Span) CString(off, n int) (string, error) {
	b, err := s.field(off, n)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b), nil
}

// CStringRest reads a NUL-terminated string that runs to the end of the span.
func (s Span) CStringRest(off int) (string, error) {
	if off < 0 || off > len(s.b) {
		return "", &OutOfBoundsError{Start: off, End: len(s.b), Len: len(s.b)}
	}
	return s.CString(off, len(s.b)-off)
}

// U32s reads count consecutive words starting at off.
func (s Span) U32s(off, count int) ([]uint32, error) {
	if count < 0 || count > (math.MaxInt-off)/4 {
		return nil, &OutOfBoundsError{Start: off, End: len(s.b) + 1, Len: len(s.b)}
	}
	b, err := s.field(off, 4*count)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return out, nil
}

// I32s is U32s for signed words.
func (s Span) I32s(off, count int) ([]int32, error) {
	u, err := s.U32s(off, count)
	if err != nil {
		return nil, err
	}
	out := make([]int32, len(u))
	for i, v := range u {
		out[i] = int32(v)
	}
	return out, nil
}
