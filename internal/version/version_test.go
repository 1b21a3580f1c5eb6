package version

import (
	"runtime/debug"
	"testing"
)

func TestResolveFromBuildInfo(t *testing.T) {
	t.Parallel()

	read := func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			Main: debug.Module{Version: "v0.3.1"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef0123"},
				{Key: "vcs.time", Value: "2026-10-01T00:00:00Z"},
			},
		}, true
	}
	info := resolve(read)
	if info.Version != "v0.3.1" || info.Commit != "0123456789abcdef0123" || info.BuildTime != "2026-10-01T00:00:00Z" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if got := info.String(); got != "v0.3.1 (0123456789ab)" {
		t.Fatalf("String: got %q", got)
	}
}

func TestResolveDevelBuild(t *testing.T) {
	t.Parallel()

	info := resolve(func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true
	})
	if info.Version != "dev" || info.String() != "dev" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.GoVersion == "" {
		t.Fatal("go version should always be set")
	}
}

func TestShortCommit(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                 "",
		"abc":              "abc",
		"0123456789ab":     "0123456789ab",
		"0123456789abcdef": "0123456789ab",
	}
	for in, want := range tests {
		if got := shortCommit(in); got != want {
			t.Errorf("shortCommit(%q): got %q want %q", in, got, want)
		}
	}
}
