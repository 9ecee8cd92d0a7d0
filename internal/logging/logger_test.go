package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"singalong/internal/logging"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleLoggerRendersComponentAndTrack(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "info",
		Outputs: []string{logPath, logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "poller")
	logger.Info("track changed", logging.TrackID(112), logging.Int("old_track", 0))

	content := readFile(t, logPath)
	if strings.Count(content, "\n") != 1 {
		t.Fatalf("expected duplicate outputs to be written once, got %q", content)
	}
	if !strings.Contains(content, "[poller] track=112 track changed") {
		t.Fatalf("expected component and track prefix, got %q", content)
	}
	if !strings.Contains(content, "old_track=0") {
		t.Fatalf("expected trailing attrs, got %q", content)
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "debug",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("message with caller")

	if content := readFile(t, logPath); !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{
		Format:    "json",
		Level:     "info",
		Outputs:   []string{logPath},
		SessionID: "run-1",
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("lyrics loaded", logging.Int("lines", 12))

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readFile(t, logPath))), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	for _, key := range []string{"ts", "level", "msg", "lines", logging.FieldSessionID} {
		if _, ok := record[key]; !ok {
			t.Fatalf("expected key %q in %v", key, record)
		}
	}
	if record["level"] != "info" {
		t.Fatalf("expected lower-case level, got %v", record["level"])
	}
	if record[logging.FieldSessionID] != "run-1" {
		t.Fatalf("unexpected session id %v", record[logging.FieldSessionID])
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "lyrics missing", "lyrics_missing", logging.String(logging.FieldImpact, "no lyrics shown"))

	content := readFile(t, logPath)
	for _, want := range []string{`"event_type":"lyrics_missing"`, `"error_hint":"check logs for details"`, `"impact":"no lyrics shown"`} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %s in %s", want, content)
		}
	}
}

func TestWithContextAddsTrackID(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "ctx.log")
	base, err := logging.New(logging.Options{Format: "json", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := logging.WithTrackID(context.Background(), 77)
	logging.WithContext(ctx, base).Info("tick")

	if content := readFile(t, logPath); !strings.Contains(content, `"track_id":77`) {
		t.Fatalf("expected track id in %s", content)
	}
	if _, ok := logging.TrackIDFromContext(context.Background()); ok {
		t.Fatal("expected no track id on bare context")
	}
}

func TestCleanupOldLogsRemovesExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "singalong-old.log")
	newPath := filepath.Join(dir, "singalong-new.log")
	keepPath := filepath.Join(dir, "singalong-keep.log")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{oldPath, newPath, keepPath, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	stale := time.Now().AddDate(0, 0, -10)
	for _, path := range []string{oldPath, keepPath, other} {
		if err := os.Chtimes(path, stale, stale); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 5, logging.RetentionTarget{
		Dir:     dir,
		Pattern: "singalong-*.log",
		Exclude: []string{keepPath},
	})
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed", oldPath)
	}
	for _, path := range []string{newPath, keepPath, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	if removed := logging.CleanupOldLogs(nil, 0, logging.RetentionTarget{Dir: t.TempDir()}); removed != 0 {
		t.Fatalf("expected no removals, got %d", removed)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}
