// Package section holds what the dialect decoders share: decode options,
// per-section failure records, the dialect enum and helpers that turn
// container chunks into typed records.
package section

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/schema"
)

// Dialect is one of the supported schema generations.
type Dialect uint8

const (
	DialectUnknown Dialect = iota
	NGS1
	NGS2
	TMC11
)

var dialectNames = map[Dialect]string{
	NGS1:  "ngs1",
	NGS2:  "ngs2",
	TMC11: "tmc11",
}

func (d Dialect) String() string {
	if name, ok := dialectNames[d]; ok {
		return name
	}
	return "unknown"
}

func (d Dialect) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Dialect) UnmarshalText(b []byte) error {
	v, err := ParseDialect(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

var ErrUnknownDialect = errors.New("unknown dialect")

// ParseDialect accepts the package names and the generation letters a, b, c.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ngs1", "a", "gen-a":
		return NGS1, nil
	case "ngs2", "b", "gen-b":
		return NGS2, nil
	case "tmc11", "c", "gen-c":
		return TMC11, nil
	}
	return DialectUnknown, fmt.Errorf("%w: %q", ErrUnknownDialect, s)
}

// Logger is the part of a structured logger the decoders use.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type Options struct {
	// Strict aborts the parse on the first section that fails to decode.
	Strict bool
	// Logger receives skipped type codes and section failures. May be nil.
	Logger Logger
}

// Error records a top-level section that failed to decode.
type Error struct {
	Code uint32
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("section %s (0x%08X): %v", e.Name, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Info summarises one known section of a document.
type Info struct {
	Name    string `json:"name"`
	Code    uint32 `json:"code"`
	Present bool   `json:"present"`
	Records int    `json:"records,omitempty"`
}

// Document is implemented by every dialect's parsed TMC file.
type Document interface {
	Dialect() Dialect
	Name() string
	Sections() []Info
	Failures() []*Error
}

// Recorder runs section decoders and collects their failures.
type Recorder struct {
	opts     Options
	failures []*Error
}

func NewRecorder(opts Options) *Recorder { return &Recorder{opts: opts} }

// Do runs fn for one section. A failure is recorded and only returned when
// the options are strict.
func (r *Recorder) Do(code uint32, name string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	se := &Error{Code: code, Name: name, Err: err}
	if r.opts.Logger != nil {
		r.opts.Logger.Warn("section decode failed", "section", name, "code", fmt.Sprintf("0x%08X", code), "error", err)
	}
	if r.opts.Strict {
		return se
	}
	r.failures = append(r.failures, se)
	return nil
}

// Skip notes a chunk whose type code no decoder claims.
func (r *Recorder) Skip(code uint32, chunk int) {
	if r.opts.Logger != nil {
		r.opts.Logger.Debug("skipping unknown section", "code", fmt.Sprintf("0x%08X", code), "chunk", chunk)
	}
}

func (r *Recorder) Failures() []*Error { return r.failures }

// TypeCodes reads one type code per outer chunk from the table at off.
func TypeCodes(meta container.Span, off, count int) ([]uint32, error) {
	codes, err := meta.U32s(off, count)
	if err != nil {
		return nil, fmt.Errorf("chunk type table: %w", err)
	}
	return codes, nil
}

// Records decodes every non-empty chunk of c. Empty chunks stay nil.
func Records[T any](c *container.Container, decode func(container.Span) (*T, error)) ([]*T, error) {
	out := make([]*T, len(c.Chunks))
	for i, ch := range c.Chunks {
		if ch.Empty() {
			continue
		}
		rec, err := decode(ch)
		if err != nil {
			return nil, fmt.Errorf("%s chunk %d: %w", c.Magic, i, err)
		}
		out[i] = rec
	}
	return out, nil
}

// Count returns the number of non-nil records.
func Count[T any](recs []*T) int {
	n := 0
	for _, r := range recs {
		if r != nil {
			n++
		}
	}
	return n
}

// Layout is a container whose chunks are opaque buffers: vertex buffers,
// index buffers or texture payloads.
type Layout struct {
	*container.Container
}

// ParseLayout parses an opaque-buffer container.
func ParseLayout(magic string, data, linked container.Span) (*Layout, error) {
	c, err := container.Parse(magic, data, linked)
	if err != nil {
		return nil, err
	}
	return &Layout{Container: c}, nil
}

// Buffer returns chunk i. Geometry refers to buffers by index, so an index
// outside the table is an error rather than an empty buffer.
func (l *Layout) Buffer(i int) (container.Span, error) {
	if l == nil || i < 0 || i >= len(l.Chunks) {
		n := 0
		if l != nil {
			n = len(l.Chunks)
		}
		return container.Span{}, &container.OutOfBoundsError{Start: i, End: i + 1, Len: n}
	}
	return l.Chunks[i], nil
}

// IndexBuffer interprets index buffer i with the width implied by the vertex
// count of the buffer it indexes.
func (l *Layout) IndexBuffer(i int, vertexCount uint32) (schema.IndexBuffer, error) {
	raw, err := l.Buffer(i)
	if err != nil {
		return schema.IndexBuffer{}, fmt.Errorf("index buffer %d: %w", i, err)
	}
	return schema.NewIndexBuffer(raw, vertexCount)
}
