package ipc_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"singalong/internal/config"
	"singalong/internal/daemon"
	"singalong/internal/history"
	"singalong/internal/ipc"
	"singalong/internal/logging"
)

type harness struct {
	cfg     *config.Config
	store   *history.Store
	logPath string
	client  *ipc.Client
}

func newHarness(t *testing.T) harness {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.LyricsDir = filepath.Join(base, "lyrics")
	cfg.Paths.HistoryDB = filepath.Join(base, "history.db")
	cfg.Host.ProcessName = "singalong-ipc-test-no-such-host"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	logPath := filepath.Join(cfg.Paths.LogDir, "ipc-test.log")
	logger := logging.NewNop()
	d, err := daemon.New(&cfg, store, logger, daemon.Options{SessionID: "ipc-session", LogPath: logPath})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon Start: %v", err)
	}

	socket := cfg.SocketPath()
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return harness{cfg: &cfg, store: store, logPath: logPath, client: client}
}

func TestStatusStopStart(t *testing.T) {
	h := newHarness(t)

	status, err := h.client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected daemon to be running")
	}
	if status.TrackID != 0 || status.HostAttached || status.LyricsLoaded {
		t.Fatalf("expected silence without host, got %+v", status)
	}
	if status.SessionID != "ipc-session" || status.PID != os.Getpid() {
		t.Fatalf("unexpected identity %+v", status)
	}
	if status.SyncOffsetMs != 650 || status.PollIntervalMs != 100 {
		t.Fatalf("unexpected timings: offset=%d poll=%d", status.SyncOffsetMs, status.PollIntervalMs)
	}
	if status.LockPath != h.cfg.LockPath() || status.LogPath != h.logPath {
		t.Fatalf("unexpected paths %+v", status)
	}

	stopResp, err := h.client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatal("expected Stopped=true")
	}
	status, err = h.client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestHistoryEndpoints(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	events := []history.Event{
		{SessionID: "s", OldTrackID: 0, NewTrackID: 112, ObservedAt: base, LyricsStatus: history.LyricsLoaded, LineCount: 12, Title: "Answers"},
		{SessionID: "s", OldTrackID: 112, NewTrackID: 0, ObservedAt: base.Add(time.Minute), LyricsStatus: history.LyricsCleared},
		{SessionID: "s", OldTrackID: 0, NewTrackID: 112, ObservedAt: base.Add(2 * time.Minute), LyricsStatus: history.LyricsLoaded, LineCount: 12, Title: "Answers"},
	}
	for _, event := range events {
		if _, err := h.store.Record(ctx, event); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	resp, err := h.client.History(2)
	if err != nil {
		t.Fatalf("History RPC failed: %v", err)
	}
	if len(resp.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(resp.Events))
	}
	if resp.Events[0].NewTrackID != 112 || !resp.Events[0].ObservedAt.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("expected newest event first, got %+v", resp.Events[0])
	}
	if resp.Events[0].LyricsStatus != string(history.LyricsLoaded) {
		t.Fatalf("unexpected status %q", resp.Events[0].LyricsStatus)
	}

	stats, err := h.client.HistoryStats()
	if err != nil {
		t.Fatalf("HistoryStats RPC failed: %v", err)
	}
	if len(stats.Tracks) == 0 || stats.Tracks[0].TrackID != 112 || stats.Tracks[0].Plays != 2 {
		t.Fatalf("unexpected stats %+v", stats.Tracks)
	}

	cleared, err := h.client.HistoryClear()
	if err != nil {
		t.Fatalf("HistoryClear RPC failed: %v", err)
	}
	if cleared.Removed != 3 {
		t.Fatalf("expected 3 removed, got %d", cleared.Removed)
	}
	resp, err = h.client.History(10)
	if err != nil {
		t.Fatalf("History RPC failed: %v", err)
	}
	if len(resp.Events) != 0 {
		t.Fatalf("expected empty history, got %d", len(resp.Events))
	}
}

func TestReloadWithoutTrack(t *testing.T) {
	h := newHarness(t)

	resp, err := h.client.Reload()
	if err != nil {
		t.Fatalf("Reload RPC failed: %v", err)
	}
	if resp.TrackID != 0 || resp.Loaded {
		t.Fatalf("expected nothing loaded during silence, got %+v", resp)
	}
}

func TestLogTail(t *testing.T) {
	h := newHarness(t)
	if err := os.WriteFile(h.logPath, []byte("first\n[engine] second\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	resp, err := h.client.LogTail(ipc.LogTailRequest{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("LogTail RPC failed: %v", err)
	}
	if len(resp.Lines) != 2 || resp.Lines[1] != "third" {
		t.Fatalf("unexpected lines %#v", resp.Lines)
	}

	filtered, err := h.client.LogTail(ipc.LogTailRequest{Offset: -1, Limit: 5, Contains: "[engine]"})
	if err != nil {
		t.Fatalf("LogTail RPC failed: %v", err)
	}
	if len(filtered.Lines) != 1 || filtered.Lines[0] != "[engine] second" {
		t.Fatalf("unexpected filtered lines %#v", filtered.Lines)
	}

	next, err := h.client.LogTail(ipc.LogTailRequest{Offset: resp.Offset, Follow: true, WaitMillis: 50})
	if err != nil {
		t.Fatalf("LogTail follow failed: %v", err)
	}
	if len(next.Lines) != 0 || next.Offset != resp.Offset {
		t.Fatalf("expected no new lines, got %+v", next)
	}
}
