package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// prettyHandler renders one line per record:
//
//	2026-01-02T15:04:05Z INFO  [poller] track=112 track changed old_track=0
//
// The component and track attributes are lifted into the prefix; the rest
// trail the message as key=value pairs.
type prettyHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	addSource bool
	prefix    string
	fields    []field
}

type field struct {
	key   string
	value slog.Value
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{mu: new(sync.Mutex), w: w, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	fields := append([]field(nil), h.fields...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendField(fields, h.prefix, attr)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	b.WriteString(ts.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, " %-5s ", levelLabel(record.Level))

	component, track, rest := splitPrefix(fields)
	if component != "" {
		b.WriteString("[" + component + "] ")
	}
	if track != "" {
		b.WriteString("track=" + track + " ")
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)

	if h.addSource && record.PC != 0 {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	for _, f := range rest {
		b.WriteString(" " + f.key + "=" + formatValue(f.value))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = append([]field(nil), h.fields...)
	for _, attr := range attrs {
		next.fields = appendField(next.fields, h.prefix, attr)
	}
	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// appendField flattens groups into dotted keys.
func appendField(dst []field, prefix string, attr slog.Attr) []field {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			prefix += attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			dst = appendField(dst, prefix, member)
		}
		return dst
	}
	return append(dst, field{key: prefix + attr.Key, value: attr.Value})
}

// splitPrefix pulls the first component and the last track id out of fields.
func splitPrefix(fields []field) (component, track string, rest []field) {
	rest = fields[:0:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			if component == "" {
				component = f.value.String()
			}
		case FieldTrackID:
			track = f.value.String()
		default:
			rest = append(rest, f)
		}
	}
	return component, track, rest
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		s = v.Time().UTC().Format(time.RFC3339)
	case slog.KindFloat64:
		s = strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
