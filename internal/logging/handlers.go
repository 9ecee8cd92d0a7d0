package logging

import (
	"context"
	"log/slog"
)

// FieldSessionID keys the daemon run identifier. History rows carry the same
// value so log lines and track changes can be joined.
const FieldSessionID = "session_id"

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (nopHandler) Handle(context.Context, slog.Record) error { return nil }

func (nopHandler) WithAttrs([]slog.Attr) slog.Handler { return nopHandler{} }

func (nopHandler) WithGroup(string) slog.Handler { return nopHandler{} }

// runHandler stamps records with the session id and, for records logged with
// a context from WithTrackID, the track being played.
type runHandler struct {
	base      slog.Handler
	sessionID string
}

func newRunHandler(base slog.Handler, sessionID string) slog.Handler {
	if base == nil {
		return nopHandler{}
	}
	return &runHandler{base: base, sessionID: sessionID}
}

func (h *runHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *runHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.sessionID != "" {
		record.AddAttrs(slog.String(FieldSessionID, h.sessionID))
	}
	if id, ok := TrackIDFromContext(ctx); ok {
		record.AddAttrs(TrackID(id))
	}
	return h.base.Handle(ctx, record)
}

func (h *runHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &runHandler{base: h.base.WithAttrs(attrs), sessionID: h.sessionID}
}

func (h *runHandler) WithGroup(name string) slog.Handler {
	return &runHandler{base: h.base.WithGroup(name), sessionID: h.sessionID}
}

// teeHandler writes each record to every handler that accepts its level.
// Diagnostic mode uses it to mirror the daemon log into a debug JSON file.
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range t {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		// Handlers may add attrs; each needs its own copy.
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(teeHandler, len(t))
	for i, h := range t {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	next := make(teeHandler, len(t))
	for i, h := range t {
		next[i] = h.WithGroup(name)
	}
	return next
}

// TeeLogger returns a logger writing to base and every extra handler.
// Nil handlers are skipped.
func TeeLogger(base *slog.Logger, extra ...slog.Handler) *slog.Logger {
	var handlers teeHandler
	if base != nil {
		handlers = append(handlers, base.Handler())
	}
	for _, h := range extra {
		if h != nil {
			handlers = append(handlers, h)
		}
	}
	switch len(handlers) {
	case 0:
		return NewNop()
	case 1:
		return slog.New(handlers[0])
	default:
		return slog.New(handlers)
	}
}
