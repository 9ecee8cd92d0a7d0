package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestRunHandlerStampsSessionAndTrack(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newRunHandler(slog.NewJSONHandler(&buf, nil), "run-7")).With("component", "engine")

	logger.InfoContext(WithTrackID(context.Background(), 42), "lyrics loaded")
	logger.Info("idle")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %d: %q", len(lines), buf.String())
	}
	for _, want := range []string{`"session_id":"run-7"`, `"track_id":42`, `"component":"engine"`} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("expected %s in %s", want, lines[0])
		}
	}
	if strings.Contains(lines[1], "track_id") {
		t.Errorf("record without track context should not carry track_id: %s", lines[1])
	}
}

func TestRunHandlerNilBase(t *testing.T) {
	if _, ok := newRunHandler(nil, "x").(nopHandler); !ok {
		t.Fatal("expected nop handler for nil base")
	}
}

func TestTeeLoggerRespectsLevels(t *testing.T) {
	var info, debug bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}))
	debugHandler := slog.NewJSONHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := TeeLogger(base, nil, debugHandler).With("component", "poller")
	logger.Debug("tick")
	logger.Info("track changed")

	if strings.Contains(info.String(), "tick") {
		t.Errorf("info handler received debug record: %s", info.String())
	}
	if !strings.Contains(info.String(), "track changed") {
		t.Errorf("info handler missed info record: %s", info.String())
	}
	for _, want := range []string{"tick", "track changed", `"component":"poller"`} {
		if !strings.Contains(debug.String(), want) {
			t.Errorf("debug handler missing %s: %s", want, debug.String())
		}
	}
}

func TestTeeLoggerCollapses(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if got := TeeLogger(nil, nil, inner).Handler(); got != inner {
		t.Fatalf("expected single handler unwrapped, got %T", got)
	}
	if TeeLogger(nil).Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected empty tee to discard records")
	}
}

func TestWarnWithContextKeepsCallerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	WarnWithContext(logger, "read failed", "track_read_failed",
		String(FieldErrorHint, "run sigscan"),
	)
	out := buf.String()
	if strings.Count(out, "error_hint") != 1 || !strings.Contains(out, `"error_hint":"run sigscan"`) {
		t.Fatalf("expected caller hint to replace default: %s", out)
	}
	if !strings.Contains(out, `"impact":"operation completed with warnings"`) {
		t.Fatalf("expected default impact: %s", out)
	}
	WarnWithContext(nil, "ignored", "noop")
}
