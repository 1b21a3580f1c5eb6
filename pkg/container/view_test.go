package container

import (
	"errors"
	"testing"
)

func TestCastMisaligned(t *testing.T) {
	t.Parallel()

	_, err := Cast[uint32](NewSpan(make([]byte, 6)))
	var mis *MisalignedError
	if !errors.As(err, &mis) {
		t.Fatalf("expected MisalignedError, got %v", err)
	}
	if mis.Len != 6 || mis.ElemSize != 4 {
		t.Fatalf("unexpected error: %+v", mis)
	}
	if !errors.Is(err, ErrMisalignedOrTruncated) {
		t.Fatalf("expected ErrMisalignedOrTruncated in chain")
	}
}

func TestCastValues(t *testing.T) {
	t.Parallel()

	raw := []byte{0x01, 0x00, 0xfe, 0xff, 0x00, 0x00, 0x80, 0xbf}

	u16, err := Cast[uint16](NewSpan(raw))
	if err != nil {
		t.Fatalf("cast u16: %v", err)
	}
	if u16.Len() != 4 || u16.At(0) != 1 || u16.At(1) != 0xfffe {
		t.Fatalf("u16 view: %v", u16.Values())
	}

	i16, _ := Cast[int16](NewSpan(raw))
	if i16.At(1) != -2 {
		t.Fatalf("i16 view: %v", i16.Values())
	}

	f32, err := Cast[float32](NewSpan(raw))
	if err != nil {
		t.Fatalf("cast f32: %v", err)
	}
	if f32.Len() != 2 || f32.At(1) != -1 {
		t.Fatalf("f32 view: %v", f32.Values())
	}

	var empty View[uint32]
	if empty.Len() != 0 {
		t.Fatalf("zero view length: %d", empty.Len())
	}
}
