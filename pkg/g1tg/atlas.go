// Package g1tg reads the legacy G1TG texture atlas and synthesises a DDS
// header for each texture it holds.
package g1tg

import (
	"errors"
	"fmt"
	"math"

	"github.com/samcharles93/tmckit/pkg/container"
)

// ErrTooLarge reports a texture whose top mip size does not fit a DDS header.
var ErrTooLarge = errors.New("texture too large for dds")

// Format is the pixel format code stored in a texture descriptor.
type Format uint8

const (
	FormatGRGB Format = 0x01
	FormatDXT1 Format = 0x59
	FormatDXT5 Format = 0x5b
)

func (f Format) Valid() bool {
	switch f {
	case FormatGRGB, FormatDXT1, FormatDXT5:
		return true
	}
	return false
}

func (f Format) FourCC() [4]byte {
	switch f {
	case FormatGRGB:
		return [4]byte{'G', 'R', 'G', 'B'}
	case FormatDXT1:
		return [4]byte{'D', 'X', 'T', '1'}
	case FormatDXT5:
		return [4]byte{'D', 'X', 'T', '5'}
	}
	return [4]byte{}
}

func (f Format) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Format(0x%02X)", uint8(f))
	}
	cc := f.FourCC()
	return string(cc[:])
}

func (f Format) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// Compressed reports whether the format is block compressed.
func (f Format) Compressed() bool { return f == FormatDXT1 || f == FormatDXT5 }

const descriptorSize = 8

// Descriptor is the packed per-texture header: mip count in the high nibble
// of byte 0, the format in byte 1 and log2 height/width in byte 2.
type Descriptor struct {
	MipCount uint8
	Format   Format
	Height   uint32
	Width    uint32
}

// ParseDescriptor decodes the first three bytes of a texture header.
func ParseDescriptor(b [3]byte) (Descriptor, error) {
	d := Descriptor{
		MipCount: b[0] >> 4,
		Format:   Format(b[1]),
		Height:   1 << (b[2] >> 4),
		Width:    1 << (b[2] & 0xf),
	}
	if !d.Format.Valid() {
		return Descriptor{}, &container.UnsupportedTextureFormatError{Code: b[1]}
	}
	return d, nil
}

// LinearSize is the byte size of the top mip level. A 32768x32768 GRGB
// texture needs 4 GiB, so the result does not fit the DDS header field for
// every descriptor.
func (d Descriptor) LinearSize() uint64 {
	w, h := uint64(d.Width), uint64(d.Height)
	blocks := ((w + 3) / 4) * ((h + 3) / 4)
	switch d.Format {
	case FormatGRGB:
		return w * h * 4
	case FormatDXT1:
		return blocks * 8
	case FormatDXT5:
		return blocks * 16
	}
	return 0
}

// Texture is one atlas entry. Data borrows the atlas buffer.
type Texture struct {
	Descriptor
	Header DDSHeader
	Data   container.Span
}

// DDS returns a standalone DDS file for the texture.
func (t Texture) DDS() ([]byte, error) {
	if size := t.LinearSize(); size > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %s %dx%d needs %d bytes", ErrTooLarge, t.Format, t.Width, t.Height, size)
	}
	head, err := t.Header.MarshalBinary()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(head)+t.Data.Len())
	out = append(out, head...)
	return append(out, t.Data.Bytes()...), nil
}

type Atlas struct {
	HeadSize uint32
	Textures []Texture
}

// Parse reads the atlas header and the texture offset table. Offsets are
// relative to the end of the header; each texture runs up to the next one.
func Parse(data container.Span) (*Atlas, error) {
	head, err := data.U32(0xc)
	if err != nil {
		return nil, fmt.Errorf("g1tg head size: %w", err)
	}
	count, err := data.U32(0x10)
	if err != nil {
		return nil, fmt.Errorf("g1tg texture count: %w", err)
	}
	offsets, err := data.U32s(int(head), int(count))
	if err != nil {
		return nil, fmt.Errorf("g1tg offset table: %w", err)
	}
	body, err := data.From(int(head))
	if err != nil {
		return nil, fmt.Errorf("g1tg body: %w", err)
	}

	a := &Atlas{HeadSize: head, Textures: make([]Texture, count)}
	for i, off := range offsets {
		end := body.Len()
		if i+1 < len(offsets) {
			end = int(offsets[i+1])
		}
		tex, err := parseTexture(body, int(off), end)
		if err != nil {
			return nil, fmt.Errorf("g1tg texture %d: %w", i, err)
		}
		a.Textures[i] = tex
	}
	return a, nil
}

func parseTexture(body container.Span, off, end int) (Texture, error) {
	hdr, err := body.Window(off, descriptorSize)
	if err != nil {
		return Texture{}, err
	}
	raw := hdr.Bytes()
	d, err := ParseDescriptor([3]byte{raw[0], raw[1], raw[2]})
	if err != nil {
		return Texture{}, err
	}
	payload, err := body.Slice(off+descriptorSize, end)
	if err != nil {
		return Texture{}, err
	}
	return Texture{Descriptor: d, Header: newDDSHeader(d), Data: payload}, nil
}
