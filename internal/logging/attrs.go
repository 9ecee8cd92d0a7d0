package logging

import (
	"context"
	"log/slog"
	"time"
)

// Attr aliases slog.Attr so call sites only import this package.
type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func Uint64(key string, value uint64) Attr { return slog.Uint64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// TrackID tags a record with the observed track.
func TrackID(id uint32) Attr { return slog.Uint64(FieldTrackID, uint64(id)) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Args converts attrs for the variadic slog methods.
func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(nopHandler{})
}

// NewComponentLogger tags logger with a component name. A nil logger yields
// a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact. Attrs supplied by the caller win over the defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logWithDefaults(logger, slog.LevelWarn, msg, attrs,
		String(FieldEventType, eventType),
		String(FieldErrorHint, "check logs for details"),
		String(FieldImpact, "operation completed with warnings"),
	)
}

// ErrorWithContext logs an error that always carries event_type and error_hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logWithDefaults(logger, slog.LevelError, msg, attrs,
		String(FieldEventType, eventType),
		String(FieldErrorHint, "check logs for details"),
	)
}

func logWithDefaults(logger *slog.Logger, level slog.Level, msg string, attrs []Attr, defaults ...Attr) {
	if logger == nil {
		return
	}
	for _, def := range defaults {
		if !hasKey(attrs, def.Key) {
			attrs = append(attrs, def)
		}
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}

func hasKey(attrs []Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}
