// Package container implements the chunked container format shared by every
// section of a TMC model file.
//
// A container starts with a fixed header (magic, version, sizes and table
// offsets), followed by a metadata block, optional chunk offset and size
// tables, an optional nested sub-container and the chunk payloads. Chunk
// payloads may instead live in a companion "linked data" buffer, in which case
// the header carries a three-field cross-check against that buffer.
package container

import (
	"fmt"
	"strings"
)

// Container format constants must never change.
const (
	// FormatVersion is the only supported version word (bytes 00 00 01 01).
	FormatVersion uint32 = 0x0101_0000

	// LinkedHeadSize is the head size that marks chunks as stored in linked data.
	LinkedHeadSize uint32 = 0x50

	MagicSize = 8

	offVersion          = 0x08
	offHeadSize         = 0x0c
	offContainerSize    = 0x10
	offChunkCount       = 0x14
	offValidChunkCount  = 0x18
	offChunkOffsetTable = 0x20
	offChunkSizeTable   = 0x24
	offSubContainer     = 0x28

	offLinkedChunkCount  = 0x40
	offLinkedTotalSize   = 0x44
	offLinkedCheckDigits = 0x48
)

// LinkedHeader is the cross-check block shared by a container and its linked data.
type LinkedHeader struct {
	ChunkCount  uint32
	TotalSize   uint32
	CheckDigits uint32
}

// Container is a parsed container header with its derived spans.
// It is never modified after Parse returns.
type Container struct {
	Magic           string
	Version         uint32
	HeadSize        uint32
	Size            uint32
	ChunkCount      uint32
	ValidChunkCount uint32

	ChunkOffsetTable   uint32
	ChunkSizeTable     uint32
	SubContainerOffset uint32

	// Linked is set when the chunk payloads live in linked data.
	Linked *LinkedHeader

	// Data is the primary buffer truncated to Size.
	Data Span
	// LinkedData is the companion buffer truncated to Linked.TotalSize.
	LinkedData Span

	Metadata     Span
	SubContainer Span
	Chunks       []Span
}

// InLinkedData reports whether chunk payloads were taken from linked data.
func (c *Container) InLinkedData() bool { return c.Linked != nil }

// Chunk returns chunk i, or an empty span when i is out of range.
func (c *Container) Chunk(i int) Span {
	if i < 0 || i >= len(c.Chunks) {
		return Span{}
	}
	return c.Chunks[i]
}

// Parse decodes the container header in data and materialises its chunks.
// linked may be empty; it is only consulted when the head size marks the
// chunks as stored in linked data.
func Parse(magic string, data, linked Span) (*Container, error) {
	raw, err := data.CString(0, MagicSize)
	if err != nil {
		return nil, fmt.Errorf("%s: read magic: %w", magic, err)
	}
	if len(magic) > MagicSize || !magicMatches(data.b[:MagicSize], magic) {
		return nil, &BadMagicError{Found: printable(raw), Expected: magic}
	}

	c := &Container{Magic: magic}
	if c.Version, err = data.U32(offVersion); err != nil {
		return nil, fmt.Errorf("%s: read version: %w", magic, err)
	}
	if c.Version != FormatVersion {
		return nil, &UnsupportedVersionError{Magic: magic, Found: c.Version}
	}

	if c.HeadSize, err = data.U32(offHeadSize); err != nil {
		return nil, fmt.Errorf("%s: read head size: %w", magic, err)
	}
	if c.Size, err = data.U32(offContainerSize); err != nil {
		return nil, fmt.Errorf("%s: read container size: %w", magic, err)
	}
	if c.Data, err = data.Slice(0, int(c.Size)); err != nil {
		return nil, fmt.Errorf("%s: container size: %w", magic, err)
	}
	d := c.Data

	fields := []struct {
		dst  *uint32
		off  int
		name string
	}{
		{&c.ChunkCount, offChunkCount, "chunk count"},
		{&c.ValidChunkCount, offValidChunkCount, "valid chunk count"},
		{&c.ChunkOffsetTable, offChunkOffsetTable, "chunk offset table offset"},
		{&c.ChunkSizeTable, offChunkSizeTable, "chunk size table offset"},
		{&c.SubContainerOffset, offSubContainer, "sub-container offset"},
	}
	for _, f := range fields {
		if *f.dst, err = d.U32(f.off); err != nil {
			return nil, fmt.Errorf("%s: read %s: %w", magic, f.name, err)
		}
	}

	if c.HeadSize == LinkedHeadSize {
		if err := c.bindLinked(linked); err != nil {
			return nil, err
		}
	}

	metaEnd := firstNonZero(c.ChunkOffsetTable, c.ChunkSizeTable, c.SubContainerOffset, c.Size)
	if c.Metadata, err = d.Slice(int(c.HeadSize), int(metaEnd)); err != nil {
		return nil, fmt.Errorf("%s: metadata: %w", magic, err)
	}

	offsets, err := readTable(d, c.ChunkOffsetTable, c.ChunkCount)
	if err != nil {
		return nil, fmt.Errorf("%s: chunk offset table: %w", magic, err)
	}
	sizes, err := readTable(d, c.ChunkSizeTable, c.ChunkCount)
	if err != nil {
		return nil, fmt.Errorf("%s: chunk size table: %w", magic, err)
	}

	if c.SubContainerOffset != 0 {
		end := c.Size
		// Offsets of linked chunks do not address the primary buffer. A first
		// chunk that starts before the sub-container leaves it empty.
		if len(offsets) > 0 && offsets[0] != 0 && !c.InLinkedData() {
			end = max(offsets[0], c.SubContainerOffset)
		}
		if c.SubContainer, err = d.Slice(int(c.SubContainerOffset), int(end)); err != nil {
			return nil, fmt.Errorf("%s: sub-container: %w", magic, err)
		}
	}

	src := d
	if c.InLinkedData() {
		src = c.LinkedData
	}
	if c.Chunks, err = materialise(src, c.ChunkCount, offsets, sizes); err != nil {
		return nil, fmt.Errorf("%s: %w", magic, err)
	}
	return c, nil
}

func (c *Container) bindLinked(linked Span) error {
	if linked.Empty() {
		return &MissingLinkedDataError{Magic: c.Magic}
	}
	checks := []struct {
		name    string
		primary int
		linked  int
	}{
		{"chunk_count", offLinkedChunkCount, 0x0},
		{"total_size", offLinkedTotalSize, 0x4},
		{"check_digits", offLinkedCheckDigits, 0x8},
	}
	var values [3]uint32
	for i, chk := range checks {
		a, err := c.Data.U32(chk.primary)
		if err != nil {
			return fmt.Errorf("%s: read %s: %w", c.Magic, chk.name, err)
		}
		b, err := linked.U32(chk.linked)
		if err != nil {
			return fmt.Errorf("%s: read linked %s: %w", c.Magic, chk.name, err)
		}
		if a != b {
			return &LinkedDataMismatchError{Magic: c.Magic, Field: chk.name, Primary: a, Linked: b}
		}
		values[i] = a
	}
	c.Linked = &LinkedHeader{ChunkCount: values[0], TotalSize: values[1], CheckDigits: values[2]}

	var err error
	if c.LinkedData, err = linked.Slice(0, int(c.Linked.TotalSize)); err != nil {
		return fmt.Errorf("%s: linked data size: %w", c.Magic, err)
	}
	return nil
}

func readTable(d Span, off, count uint32) ([]uint32, error) {
	if off == 0 {
		return nil, nil
	}
	return d.U32s(int(off), int(count))
}

// materialise builds the chunk spans. With a size table every chunk is
// [offset, offset+size), or empty when its size is zero. Without one, a chunk
// runs from its offset to the next non-zero offset or the end of src, and a
// zero offset marks an empty chunk.
func materialise(src Span, count uint32, offsets, sizes []uint32) ([]Span, error) {
	if offsets == nil && sizes == nil && int64(count) > int64(src.Len()) {
		return nil, fmt.Errorf("chunk count %d without chunk tables: %w", count, ErrOutOfBounds)
	}
	chunks := make([]Span, count)
	if offsets == nil {
		// Nothing locates the payloads; every declared chunk is absent.
		return chunks, nil
	}

	if sizes != nil {
		for i := range chunks {
			if sizes[i] == 0 {
				continue
			}
			s, err := src.Window(int(offsets[i]), int(sizes[i]))
			if err != nil {
				return nil, fmt.Errorf("chunk %d: %w", i, err)
			}
			chunks[i] = s
		}
		return chunks, nil
	}

	for i, start := range offsets {
		if start == 0 {
			continue
		}
		end := uint32(src.Len())
		for _, next := range offsets[i+1:] {
			if next != 0 {
				end = next
				break
			}
		}
		s, err := src.Slice(int(start), int(end))
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		chunks[i] = s
	}
	return chunks, nil
}

func magicMatches(raw []byte, magic string) bool {
	for i := range MagicSize {
		var want byte
		if i < len(magic) {
			want = magic[i]
		}
		if raw[i] != want {
			return false
		}
	}
	return true
}

func firstNonZero(vals ...uint32) uint32 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return '.'
		}
		return r
	}, s)
}
