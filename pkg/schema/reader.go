package schema

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/samcharles93/tmckit/pkg/container"
)

// Reader extends container.Fields with the vector and matrix types records use.
type Reader struct {
	*container.Fields
}

func NewReader(s container.Span) Reader { return Reader{container.FieldsOf(s)} }

func (r Reader) Vec3(off int) mgl32.Vec3 {
	if r.Err() != nil {
		return mgl32.Vec3{}
	}
	v, err := ReadVec3(r.Span(), off)
	r.Fail(err)
	return v
}

func (r Reader) Vec4(off int) mgl32.Vec4 {
	if r.Err() != nil {
		return mgl32.Vec4{}
	}
	v, err := ReadVec4(r.Span(), off)
	r.Fail(err)
	return v
}

func (r Reader) Mat4(off int) mgl32.Mat4 {
	if r.Err() != nil {
		return mgl32.Mat4{}
	}
	m, err := ReadMat4(r.Span(), off)
	r.Fail(err)
	return m
}

func (r Reader) XRefs(countOff, tableOff int) []XRef {
	if r.Err() != nil {
		return nil
	}
	v, err := ParseXRefs(r.Span(), countOff, tableOff)
	r.Fail(err)
	return v
}
