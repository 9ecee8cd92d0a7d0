package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"singalong/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckPtraceScope(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		content  string
		passed   bool
		optional bool
	}{
		{"0\n", true, false},
		{"1\n", false, true},
		{"2\n", false, false},
		{"3\n", false, false},
		{"garbage", false, true},
	}
	for _, tc := range cases {
		path := filepath.Join(dir, "ptrace_scope")
		if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
			t.Fatal(err)
		}
		result := checkPtraceScope(path)
		if result.Passed != tc.passed || result.Optional != tc.optional {
			t.Errorf("content %q: got passed=%v optional=%v (%s)", tc.content, result.Passed, result.Optional, result.Detail)
		}
	}

	missing := checkPtraceScope(filepath.Join(dir, "absent"))
	if !missing.Passed {
		t.Fatalf("expected pass without Yama, got %s", missing.Detail)
	}
}

func TestCheckLyricsLibrary(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LyricsDir = t.TempDir()

	empty := CheckLyricsLibrary(&cfg)
	if empty.Passed || !empty.Optional {
		t.Fatalf("expected optional failure for empty library, got %+v", empty)
	}

	for _, name := range []string{"112.lrc", "305.lrc", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(cfg.Paths.LyricsDir, name), []byte("[00:01.00]x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	result := CheckLyricsLibrary(&cfg)
	if !result.Passed || !strings.Contains(result.Detail, "2 lyric files") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckHostMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Host.ProcessName = "singalong-preflight-no-such-host"
	result := CheckHost(&cfg)
	if result.Passed || !result.Optional {
		t.Fatalf("expected optional failure, got %+v", result)
	}
	if !strings.Contains(result.Detail, "not running") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.LyricsDir = t.TempDir()
	cfg.Host.ProcessName = "singalong-preflight-no-such-host"

	results := RunAll(context.Background(), &cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if !results[0].Passed {
		t.Fatalf("log directory check failed: %s", results[0].Detail)
	}
	failed := Failed(results)
	for _, result := range failed {
		if result.Name == "Log directory" {
			t.Fatalf("unexpected failure %+v", result)
		}
	}
}
