package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tmckit/internal/config"
	"github.com/samcharles93/tmckit/internal/report"
	"github.com/samcharles93/tmckit/internal/tmctest"
	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/tmc"
	"github.com/samcharles93/tmckit/pkg/tmc/ngs1"
)

func TestMain(m *testing.M) {
	// cli.Exit errors would otherwise terminate the test binary.
	cli.OsExiter = func(int) {}
	os.Exit(m.Run())
}

func atlas(textures ...[]byte) []byte {
	const head = 0x20
	b := tmctest.NewBuf(head)
	b.PutString(0, "G1TG0050")
	b.PutU32(0xc, head)
	b.PutU32(0x10, uint32(len(textures)))
	b.Pad(4 * len(textures))
	for i, tex := range textures {
		b.PutU32(head+4*i, uint32(b.Len()-head))
		b.Append(tex)
	}
	return b.Bytes()
}

func writeSample(t *testing.T) string {
	t.Helper()
	grgb := append([]byte{0x10, 0x01, 0x11, 0, 0, 0, 0, 0}, bytes.Repeat([]byte{1, 2, 3, 4}, 4)...)
	dxt1 := append([]byte{0x10, 0x59, 0x43, 0, 0, 0, 0, 0}, bytes.Repeat([]byte{0x11}, 64)...)
	mtrCol := tmctest.Container{Magic: "MtrCol", Chunks: [][]byte{make([]byte, 0x58)}}.Primary()
	raw := tmctest.TMC("pl0200", 0x60,
		tmctest.Section{Code: ngs1.CodeMtrCol, Data: mtrCol},
		tmctest.Section{Code: ngs1.CodeTTG, Data: atlas(grgb, dxt1)},
	)
	path := filepath.Join(t.TempDir(), "pl0200.tmc")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "absent.yaml")
	base := []string{"tmc", "--config", cfgPath, "--log-format", "text", "--log-level", "error"}
	return newApp().Run(context.Background(), append(base, args...))
}

func TestResolveLinked(t *testing.T) {
	dir := t.TempDir()
	lower := filepath.Join(dir, "a.tmc")
	upper := filepath.Join(dir, "B.TMC")
	for _, p := range []string{lower, lower + "l", upper, upper + "L"} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}

	tests := []struct {
		name     string
		path     string
		explicit string
		want     string
	}{
		{"explicit wins", lower, "/tmp/other.tmcl", "/tmp/other.tmcl"},
		{"sibling", lower, "", lower + "l"},
		{"upper-case sibling", upper, "", upper + "L"},
		{"no sibling", filepath.Join(dir, "c.tmc"), "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveLinked(tc.path, tc.explicit); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestResolveDialect(t *testing.T) {
	prev := dialectName
	defer func() { dialectName = prev }()

	dialectName = ""
	if _, err := resolveDialect(); !errors.Is(err, errNoDialect) {
		t.Fatalf("expected errNoDialect, got %v", err)
	}
	dialectName = "gen-c"
	if d, err := resolveDialect(); err != nil || d != tmc.TMC11 {
		t.Fatalf("got %v %v", d, err)
	}
}

func TestConfigFillsUnsetFlags(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("dialect: ngs1\noutput_dir: "+filepath.Join(t.TempDir(), "tex")+"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	sample := writeSample(t)
	err := newApp().Run(context.Background(), []string{"tmc", "--config", cfgPath, "--log-level", "error", "textures", sample})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if dialectName != "ngs1" {
		t.Fatalf("dialect should come from config, got %q", dialectName)
	}
	loaded, _ := config.Load(cfgPath)
	if _, err := os.Stat(filepath.Join(loaded.OutputDir, "pl0200_000.dds")); err != nil {
		t.Fatalf("texture should be written to the configured dir: %v", err)
	}
}

func TestDumpZstd(t *testing.T) {
	sample := writeSample(t)
	out := filepath.Join(t.TempDir(), "dump", "pl0200.json.zst")
	if err := run(t, "--dialect", "ngs1", "dump", "--zstd", "-o", out, sample); err != nil {
		t.Fatalf("dump: %v", err)
	}
	packed, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()
	plain, err := dec.DecodeAll(packed, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Contains(plain, []byte(`"name":"pl0200"`)) || !bytes.Contains(plain, []byte(`"mtrcol"`)) {
		t.Fatalf("unexpected dump: %s", plain)
	}
}

func TestTexturesWithPreviews(t *testing.T) {
	sample := writeSample(t)
	dir := t.TempDir()
	if err := run(t, "--dialect", "ngs1", "textures", "-o", dir, "--preview", "--preview-format", "tga", sample); err != nil {
		t.Fatalf("textures: %v", err)
	}
	for _, name := range []string{"pl0200_000.dds", "pl0200_001.dds", "pl0200_000_preview.tga"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "pl0200_001_preview.tga")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("compressed texture should not get a preview: %v", err)
	}
}

func TestTexturesFromStandaloneAtlas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pl0200.g1t")
	dxt1 := append([]byte{0x10, 0x59, 0x43, 0, 0, 0, 0, 0}, bytes.Repeat([]byte{0x11}, 64)...)
	if err := os.WriteFile(path, atlas(dxt1), 0o644); err != nil {
		t.Fatalf("write atlas: %v", err)
	}
	dir := t.TempDir()
	if err := run(t, "textures", "--atlas", path, "--prefix", "atlas", "-o", dir); err != nil {
		t.Fatalf("textures: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "atlas_000.dds")); err != nil {
		t.Fatalf("missing atlas texture: %v", err)
	}
}

func TestInspectRequiresDialect(t *testing.T) {
	sample := writeSample(t)
	err := run(t, "--dialect", "", "inspect", sample)
	if err == nil || !strings.Contains(err.Error(), "--dialect is required") {
		t.Fatalf("expected dialect error, got %v", err)
	}
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	raw, err := os.ReadFile(writeSample(t))
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	doc, err := tmc.Parse(tmc.NGS1, container.NewSpan(raw), container.Span{}, tmc.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var buf bytes.Buffer
	printSummary(&buf, report.Build(doc), true, false)
	out := buf.String()
	for _, want := range []string{"name:     pl0200", "dialect:  ngs1", "MtrCol", "TTG", "chunks:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "MdlGeo") {
		t.Fatalf("absent sections should be hidden:\n%s", out)
	}
}
