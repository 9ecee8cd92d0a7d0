package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	_, configPath := newTestConfig(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, "", configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, configPath)
	requireContains(t, out, "streaming detection is disabled")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "", configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", configPath); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, "", configPath); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, "", target)
	if err != nil {
		t.Fatalf("validate sample: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestConfigInitSkipsBrokenConfig(t *testing.T) {
	broken := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(broken, []byte("[sync\n"), 0o644); err != nil {
		t.Fatalf("write broken config: %v", err)
	}
	target := filepath.Join(t.TempDir(), "config.toml")
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", broken); err != nil {
		t.Fatalf("config init should not load config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, "", broken); err == nil {
		t.Fatal("expected validate to reject broken config")
	}
}

func TestConfigShowAndPath(t *testing.T) {
	cfg, configPath := newTestConfig(t)

	out, _, err := runCLI(t, []string{"config", "show"}, "", configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "offset_ms = 650")
	requireContains(t, out, cfg.Paths.LyricsDir)

	out, _, err = runCLI(t, []string{"config", "path"}, "", configPath)
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if strings.TrimSpace(out) != configPath {
		t.Fatalf("config path = %q, want %q", strings.TrimSpace(out), configPath)
	}
}
