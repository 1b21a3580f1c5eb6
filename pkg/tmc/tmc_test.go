package tmc_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/samcharles93/tmckit/internal/tmctest"
	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/tmc"
	"github.com/samcharles93/tmckit/pkg/tmc/ngs1"
	"github.com/samcharles93/tmckit/pkg/tmc/ngs2"
	"github.com/samcharles93/tmckit/pkg/tmc/tmc11"
)

func mtrCol() []byte {
	return tmctest.Container{Magic: "MtrCol", Chunks: [][]byte{make([]byte, 0x58)}}.Primary()
}

// lheader builds an LHeader whose chunks live in linked data that the tests
// never supply.
func lheader() []byte {
	meta := tmctest.NewBuf(0x20).PutU32(0x20, 0xC000_0003)
	primary, _ := tmctest.Container{Magic: "LHeader", Linked: true, Metadata: meta.Bytes(), Chunks: [][]byte{{0, 0, 0, 0}}}.Build()
	return primary
}

func sample(d tmc.Dialect) []byte {
	switch d {
	case tmc.NGS1:
		return tmctest.TMC("gen-a", 0x60, tmctest.Section{Code: ngs1.CodeMtrCol, Data: mtrCol()})
	case tmc.NGS2:
		return tmctest.TMC("gen-b", 0xc0, tmctest.Section{Code: ngs2.CodeLHeader, Data: lheader()})
	default:
		return tmctest.TMC("gen-c", 0xc0, tmctest.Section{Code: tmc11.CodeLHeader, Data: lheader()})
	}
}

func TestParseDispatchesByDialect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dialect tmc.Dialect
		name    string
	}{
		{tmc.NGS1, "gen-a"},
		{tmc.NGS2, "gen-b"},
		{tmc.TMC11, "gen-c"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect.String(), func(t *testing.T) {
			t.Parallel()
			doc, err := tmc.Parse(tt.dialect, container.NewSpan(sample(tt.dialect)), container.Span{}, tmc.Options{})
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if doc.Dialect() != tt.dialect || doc.Name() != tt.name {
				t.Fatalf("got %s %q", doc.Dialect(), doc.Name())
			}
		})
	}
}

func TestParseUnknownDialect(t *testing.T) {
	t.Parallel()

	if _, err := tmc.Parse(tmc.DialectUnknown, container.Span{}, container.Span{}, tmc.Options{}); !errors.Is(err, tmc.ErrUnknownDialect) {
		t.Fatalf("expected unknown dialect, got %v", err)
	}
}

func TestParseFailureReturnsNilDocument(t *testing.T) {
	t.Parallel()

	raw := tmctest.Container{Magic: "NOTTMC"}.Primary()
	for _, d := range tmc.Dialects {
		doc, err := tmc.Parse(d, container.NewSpan(raw), container.Span{}, tmc.Options{})
		if !errors.Is(err, container.ErrBadMagic) {
			t.Fatalf("%s: expected bad magic, got %v", d, err)
		}
		if doc != nil {
			t.Fatalf("%s: document should be nil on failure", d)
		}
	}
}

func TestParseDialect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want tmc.Dialect
	}{
		{"ngs1", tmc.NGS1},
		{"B", tmc.NGS2},
		{" gen-c ", tmc.TMC11},
	}
	for _, tt := range tests {
		got, err := tmc.ParseDialect(tt.in)
		if err != nil || got != tt.want {
			t.Fatalf("ParseDialect(%q) = %s, %v", tt.in, got, err)
		}
	}
	if _, err := tmc.ParseDialect("gen-d"); !errors.Is(err, tmc.ErrUnknownDialect) {
		t.Fatalf("expected unknown dialect, got %v", err)
	}
}

func TestRequireSections(t *testing.T) {
	t.Parallel()

	doc, err := tmc.Parse(tmc.NGS1, container.NewSpan(sample(tmc.NGS1)), container.Span{}, tmc.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := tmc.RequireSections(doc, ngs1.CodeMtrCol); err != nil {
		t.Fatalf("MtrCol is present: %v", err)
	}
	err = tmc.RequireSections(doc, ngs1.CodeMtrCol, ngs1.CodeMdlGeo)
	var missing *container.MissingRequiredSectionError
	if !errors.As(err, &missing) || missing.Name != "MdlGeo" {
		t.Fatalf("expected MdlGeo missing, got %v", err)
	}
}

func TestRequireSectionsCountsFailures(t *testing.T) {
	t.Parallel()

	// LHeader is present but cannot decode without linked data.
	doc, err := tmc.Parse(tmc.NGS2, container.NewSpan(sample(tmc.NGS2)), container.Span{}, tmc.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := tmc.RequireSections(doc, ngs2.CodeLHeader); !errors.Is(err, container.ErrMissingRequiredSection) {
		t.Fatalf("expected failed LHeader to count as missing, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "model.tmc")
	if err := os.WriteFile(path, sample(tmc.TMC11), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := tmc.Open(tmc.TMC11, path, "", tmc.Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if f.Name() != "gen-c" {
		t.Fatalf("name: %q", f.Name())
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := tmc.Open(tmc.TMC11, path, filepath.Join(dir, "missing.tmcl"), tmc.Options{}); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected missing linked file, got %v", err)
	}
}
