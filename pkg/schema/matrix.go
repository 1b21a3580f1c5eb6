package schema

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/samcharles93/tmckit/pkg/container"
)

// ReadMat4 reads 16 consecutive floats at off.
//
// Files store row-major matrices that transform row vectors. Reading them in
// order into mgl32's column-major storage yields the transposed matrix, which
// is the same transform for column vectors, so no shuffle is needed.
func ReadMat4(s container.Span, off int) (mgl32.Mat4, error) {
	var m mgl32.Mat4
	if err := readFloats(s, off, m[:]); err != nil {
		return mgl32.Mat4{}, err
	}
	return m, nil
}

func ReadVec4(s container.Span, off int) (mgl32.Vec4, error) {
	var v mgl32.Vec4
	err := readFloats(s, off, v[:])
	return v, err
}

func ReadVec3(s container.Span, off int) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	err := readFloats(s, off, v[:])
	return v, err
}

// ReadVec4s reads n consecutive Vec4 values at off.
func ReadVec4s(s container.Span, off, n int) ([]mgl32.Vec4, error) {
	out := make([]mgl32.Vec4, n)
	for i := range out {
		v, err := ReadVec4(s, off+16*i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ReadMat4s reads every whole matrix in s.
func ReadMat4s(s container.Span) ([]mgl32.Mat4, error) {
	out := make([]mgl32.Mat4, s.Len()/64)
	for i := range out {
		m, err := ReadMat4(s, 64*i)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func readFloats(s container.Span, off int, dst []float32) error {
	if _, err := s.Window(off, 4*len(dst)); err != nil {
		return err
	}
	for i := range dst {
		dst[i], _ = s.F32(off + 4*i)
	}
	return nil
}
