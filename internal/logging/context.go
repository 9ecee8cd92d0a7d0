package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldTrackID is the standardized structured logging key for observed track identifiers.
	FieldTrackID = "track_id"
	// FieldEventType classifies a record for filtering (track_changed, lyrics_missing, ...).
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step for a warning or error.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

type trackIDKey struct{}

// WithTrackID stores the active track on the context.
func WithTrackID(ctx context.Context, id uint32) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackIDKey{}, id)
}

// TrackIDFromContext returns the track stored by WithTrackID.
func TrackIDFromContext(ctx context.Context) (uint32, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(trackIDKey{}).(uint32)
	return id, ok
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if id, ok := TrackIDFromContext(ctx); ok {
		fields = append(fields, TrackID(id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
