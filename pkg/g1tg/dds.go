package g1tg

import (
	"bytes"
	"encoding/binary"
	"math"
)

var DDSMagic = [4]byte{'D', 'D', 'S', ' '}

const (
	ddsHeaderSize      = 124
	ddsPixelFormatSize = 32

	// DDSD_CAPS | DDSD_HEIGHT | DDSD_WIDTH | DDSD_PIXELFORMAT | DDSD_MIPMAPCOUNT | DDSD_LINEARSIZE
	ddsFlags uint32 = 0xA1007
	// DDSCAPS_COMPLEX | DDSCAPS_TEXTURE | DDSCAPS_MIPMAP
	ddsCaps uint32 = 0x401008

	pfFourCC uint32 = 0x4
	pfRGB    uint32 = 0x40
)

// DDSHeader is the 124-byte header that follows the "DDS " magic.
type DDSHeader struct {
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PixelFormat       DDSPixelFormat
	Caps              uint32
	Caps2             uint32
	Caps3             uint32
	Caps4             uint32
	Reserved2         uint32
}

type DDSPixelFormat struct {
	Size        uint32
	Flags       uint32
	FourCC      [4]byte
	RGBBitCount uint32
	RBitMask    uint32
	GBitMask    uint32
	BBitMask    uint32
	ABitMask    uint32
}

func newDDSHeader(d Descriptor) DDSHeader {
	h := DDSHeader{
		Size:        ddsHeaderSize,
		Flags:       ddsFlags,
		Height:      d.Height,
		Width:       d.Width,
		MipMapCount: uint32(d.MipCount),
		PixelFormat: DDSPixelFormat{
			Size:   ddsPixelFormatSize,
			Flags:  pfFourCC,
			FourCC: d.Format.FourCC(),
		},
		Caps: ddsCaps,
	}
	if size := d.LinearSize(); size <= math.MaxUint32 {
		h.PitchOrLinearSize = uint32(size)
	}
	if d.Format == FormatGRGB {
		h.PixelFormat.Flags = pfRGB
		h.PixelFormat.RGBBitCount = 32
		h.PixelFormat.RBitMask = 0x00ff0000
		h.PixelFormat.GBitMask = 0xff00ff00
		h.PixelFormat.BBitMask = 0x000000ff
	}
	return h
}

// MarshalBinary encodes the magic and header.
func (h DDSHeader) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(4 + ddsHeaderSize)
	buf.Write(DDSMagic[:])
	if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
