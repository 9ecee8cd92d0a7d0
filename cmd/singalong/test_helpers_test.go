package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"singalong/internal/config"
	"singalong/internal/daemon"
	"singalong/internal/history"
	"singalong/internal/ipc"
	"singalong/internal/logging"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *history.Store
	daemon     *daemon.Daemon
	socketPath string
	configPath string
	logPath    string
}

// newTestConfig writes a config rooted under a temp HOME and returns it
// along with its path. The host name never matches a running process.
func newTestConfig(t *testing.T) (*config.Config, string) {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := config.Default()
	cfg.Paths.LyricsDir = filepath.Join(base, "lyrics")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.HistoryDB = filepath.Join(base, "history.db")
	cfg.Host.ProcessName = "singalong-cli-test-no-such-host"
	cfg.Host.ModuleName = ""
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	configPath := filepath.Join(homeDir, ".config", "singalong", "config.toml")
	writeTestConfig(t, configPath, &cfg)
	return &cfg, configPath
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg, configPath := newTestConfig(t)
	logPath := filepath.Join(cfg.Paths.LogDir, "singalong-test.log")
	if err := os.WriteFile(logPath, nil, 0o644); err != nil {
		t.Fatalf("create log file: %v", err)
	}

	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}

	logger := logging.NewNop()
	d, err := daemon.New(cfg, store, logger, daemon.Options{SessionID: "cli-session", LogPath: logPath})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon Start: %v", err)
	}
	socketPath := filepath.Join(cfg.Paths.LogDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		cancel()
		_ = d.Close()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI socket test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	t.Cleanup(func() {
		cancel()
		srv.Close()
		_ = d.Close()
	})

	return &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		socketPath: socketPath,
		configPath: configPath,
		logPath:    logPath,
	}
}

// runCLI executes the root command in-process, adding --socket and --config
// when given, and returns captured stdout and stderr.
func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	var global []string
	if socket != "" {
		global = append(global, "--socket", socket)
	}
	if configPath != "" {
		global = append(global, "--config", configPath)
	}

	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(global, args...))
	err := root.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

func appendLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	for _, line := range lines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			t.Fatalf("append to %s: %v", path, err)
		}
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeLyrics(t *testing.T, cfg *config.Config, name, content string) string {
	t.Helper()
	path := filepath.Join(cfg.Paths.LyricsDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write lyrics: %v", err)
	}
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
