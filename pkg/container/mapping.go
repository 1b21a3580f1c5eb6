package container

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

var ErrMappingClosed = errors.New("mapping closed")

// Mapping is a read-only input buffer, memory-mapped where possible.
// Every span derived from a Mapping must be dropped before Close is called.
type Mapping struct {
	data    []byte
	mmapped bool
	closed  bool
}

// OpenMapping maps path read-only. If mmap is unavailable, it falls back to
// ReadAt-based loading. An empty file yields an empty mapping.
func OpenMapping(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size64 := stat.Size()
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		// cannot index this file safely as []byte on this architecture.
		return nil, &OutOfBoundsError{Start: 0, End: -1, Len: -1}
	}
	size := int(size64)
	if size == 0 {
		return &Mapping{data: []byte{}}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		return &Mapping{data: data, mmapped: true}, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return &Mapping{data: data}, nil
}

// LoadReaderAt reads size bytes from r into an owned buffer.
func LoadReaderAt(r io.ReaderAt, size int64) (*Mapping, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, &OutOfBoundsError{Start: 0, End: -1, Len: -1}
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return &Mapping{data: data}, nil
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

// Span returns the whole buffer. It returns an empty span after Close.
func (m *Mapping) Span() Span {
	if m == nil || m.closed {
		return Span{}
	}
	return NewSpan(m.data)
}

func (m *Mapping) Mapped() bool { return m != nil && m.mmapped }

func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.data)
}

// Close releases the mapping. Spans taken from it become invalid.
func (m *Mapping) Close() error {
	if m == nil {
		return nil
	}
	if m.closed {
		return ErrMappingClosed
	}
	var err error
	if m.mmapped {
		err = unix.Munmap(m.data)
	}
	m.data = nil
	m.mmapped = false
	m.closed = true
	return err
}
