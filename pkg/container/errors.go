package container

import (
	"errors"
	"fmt"
)

var (
	ErrBadMagic                 = errors.New("bad magic")
	ErrUnsupportedVersion       = errors.New("unsupported container version")
	ErrOutOfBounds              = errors.New("out of bounds")
	ErrMisalignedOrTruncated    = errors.New("misaligned or truncated")
	ErrMissingLinkedData        = errors.New("missing linked data")
	ErrLinkedDataMismatch       = errors.New("linked data mismatch")
	ErrUnsupportedEnumValue     = errors.New("unsupported enum value")
	ErrUnsupportedTextureFormat = errors.New("unsupported texture format")
	ErrMissingRequiredSection   = errors.New("missing required section")
)

// BadMagicError reports the tag found at the start of a container.
type BadMagicError struct {
	Found    string
	Expected string
}

func (e *BadMagicError) Error() string {
	return fmt.Sprintf("bad magic: got %q, expected %q", e.Found, e.Expected)
}

func (e *BadMagicError) Unwrap() error { return ErrBadMagic }

type UnsupportedVersionError struct {
	Magic string
	Found uint32
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("%s: unsupported version 0x%08X (want 0x%08X)", e.Magic, e.Found, FormatVersion)
}

func (e *UnsupportedVersionError) Unwrap() error { return ErrUnsupportedVersion }

// OutOfBoundsError describes a read or slice of [Start, End) against a span of Len bytes.
type OutOfBoundsError struct {
	Start int
	End   int
	Len   int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("range [0x%x, 0x%x) out of bounds (len 0x%x)", e.Start, e.End, e.Len)
}

func (e *OutOfBoundsError) Unwrap() error { return ErrOutOfBounds }

type MisalignedError struct {
	Len      int
	ElemSize int
}

func (e *MisalignedError) Error() string {
	return fmt.Sprintf("length %d is not a multiple of element size %d", e.Len, e.ElemSize)
}

func (e *MisalignedError) Unwrap() error { return ErrMisalignedOrTruncated }

type MissingLinkedDataError struct {
	Magic string
}

func (e *MissingLinkedDataError) Error() string {
	return fmt.Sprintf("%s: chunks are stored in linked data, but no linked data was given", e.Magic)
}

func (e *MissingLinkedDataError) Unwrap() error { return ErrMissingLinkedData }

// LinkedDataMismatchError names the cross-check field that disagreed between the
// primary container and the companion buffer.
type LinkedDataMismatchError struct {
	Magic   string
	Field   string
	Primary uint32
	Linked  uint32
}

func (e *LinkedDataMismatchError) Error() string {
	return fmt.Sprintf("%s: linked data %s mismatch (0x%08X != 0x%08X)", e.Magic, e.Field, e.Primary, e.Linked)
}

func (e *LinkedDataMismatchError) Unwrap() error { return ErrLinkedDataMismatch }

// UnsupportedEnumError is returned when a closed-set field holds a value outside its set.
type UnsupportedEnumError struct {
	Enum  string
	Value uint32
}

func (e *UnsupportedEnumError) Error() string {
	return fmt.Sprintf("unsupported %s value %d", e.Enum, e.Value)
}

func (e *UnsupportedEnumError) Unwrap() error { return ErrUnsupportedEnumValue }

type UnsupportedTextureFormatError struct {
	Code uint8
}

func (e *UnsupportedTextureFormatError) Error() string {
	return fmt.Sprintf("unsupported texture format 0x%02X", e.Code)
}

func (e *UnsupportedTextureFormatError) Unwrap() error { return ErrUnsupportedTextureFormat }

type MissingRequiredSectionError struct {
	Code uint32
	Name string
}

func (e *MissingRequiredSectionError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("missing required section 0x%08X", e.Code)
	}
	return fmt.Sprintf("missing required section %s (0x%08X)", e.Name, e.Code)
}

func (e *MissingRequiredSectionError) Unwrap() error { return ErrMissingRequiredSection }
