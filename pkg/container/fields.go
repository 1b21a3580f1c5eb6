package container

// Fields reads fixed-offset fields from a span and keeps the first error, so
// a record decoder can read every field and check once.
type Fields struct {
	s   Span
	err error
}

func FieldsOf(s Span) *Fields { return &Fields{s: s} }

func (f *Fields) Span() Span { return f.s }

// Err returns the first failed read, if any.
func (f *Fields) Err() error { return f.err }

// Fail records err unless an earlier error is already held.
func (f *Fields) Fail(err error) {
	if f.err == nil {
		f.err = err
	}
}

func (f *Fields) U8(off int) uint8 {
	if f.err != nil {
		return 0
	}
	v, err := f.s.U8(off)
	f.err = err
	return v
}

func (f *Fields) Bool(off int) bool { return f.U8(off) != 0 }

func (f *Fields) U16(off int) uint16 {
	if f.err != nil {
		return 0
	}
	v, err := f.s.U16(off)
	f.err = err
	return v
}

func (f *Fields) U32(off int) uint32 {
	if f.err != nil {
		return 0
	}
	v, err := f.s.U32(off)
	f.err = err
	return v
}

func (f *Fields) I32(off int) int32 { return int32(f.U32(off)) }

func (f *Fields) F32(off int) float32 {
	if f.err != nil {
		return 0
	}
	v, err := f.s.F32(off)
	f.err = err
	return v
}

func (f *Fields) CString(off, n int) string {
	if f.err != nil {
		return ""
	}
	v, err := f.s.CString(off, n)
	f.err = err
	return v
}

func (f *Fields) CStringRest(off int) string {
	if f.err != nil {
		return ""
	}
	v, err := f.s.CStringRest(off)
	f.err = err
	return v
}

func (f *Fields) U32s(off, count int) []uint32 {
	if f.err != nil {
		return nil
	}
	v, err := f.s.U32s(off, count)
	f.err = err
	return v
}

func (f *Fields) I32s(off, count int) []int32 {
	if f.err != nil {
		return nil
	}
	v, err := f.s.I32s(off, count)
	f.err = err
	return v
}

// Words reads n consecutive words into a fixed array destination.
func (f *Fields) Words(off int, dst []uint32) {
	vs := f.U32s(off, len(dst))
	copy(dst, vs)
}
