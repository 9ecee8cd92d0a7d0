package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"singalong/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "singalong.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "b" || result.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset != 6 {
		t.Fatalf("expected offset at end of file, got %d", result.Offset)
	}
}

func TestTailFilter(t *testing.T) {
	path := writeLog(t, "[engine] track_changed 1\n[observer] tick\n[engine] TRACK_CHANGED 2\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 10, Contains: "track_changed"})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("expected two matching lines, got %#v", result.Lines)
	}
}

func TestTailFromOffset(t *testing.T) {
	path := writeLog(t, "first\nsecond\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: 6})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "second" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}

	past, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: 1 << 20})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(past.Lines) != 0 || past.Offset != 13 {
		t.Fatalf("expected clamp to end, got %+v", past)
	}
}

func TestTailMissingFile(t *testing.T) {
	result, err := logs.Tail(context.Background(), filepath.Join(t.TempDir(), "none.log"), logs.TailOptions{Offset: 5})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if result.Offset != 0 || len(result.Lines) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestTailFollowWaits(t *testing.T) {
	path := writeLog(t, "start\n")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}
	if len(result.Lines) != 1 {
		t.Fatalf("expected initial line, got %#v", result.Lines)
	}

	done := make(chan struct{})
	go func(offset int64) {
		defer close(done)
		res, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
		if err != nil {
			t.Errorf("follow tail error: %v", err)
		}
		if len(res.Lines) != 1 || res.Lines[0] != "later" {
			t.Errorf("unexpected follow lines: %#v", res.Lines)
		}
	}(result.Offset)

	time.Sleep(200 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("tail follow did not return")
	}
}
