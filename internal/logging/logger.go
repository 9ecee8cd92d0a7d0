package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Outputs lists sinks: "stdout", "stderr", or file paths opened for
	// append. Empty means stdout.
	Outputs     []string
	Development bool
	// SessionID, when set, is attached to every record.
	SessionID string
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(opts.Level))

	w, err := openSinks(opts.Outputs)
	if err != nil {
		return nil, err
	}
	addSource := opts.Development || levelVar.Level() <= slog.LevelDebug

	var handler slog.Handler
	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "json":
		handler = newJSONHandler(w, levelVar, addSource)
	case "", "console":
		handler = newPrettyHandler(w, levelVar, addSource)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
	return slog.New(newRunHandler(handler, strings.TrimSpace(opts.SessionID))), nil
}

func parseLevel(level string) slog.Level {
	var parsed slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "warning":
		return slog.LevelWarn
	case "":
		return slog.LevelInfo
	default:
		if err := parsed.UnmarshalText([]byte(level)); err != nil {
			return slog.LevelInfo
		}
		return parsed
	}
}

// openSinks resolves output names to a single writer. Duplicate names are
// written once.
func openSinks(outputs []string) (io.Writer, error) {
	seen := make(map[string]bool, len(outputs))
	var writers []io.Writer
	for _, name := range outputs {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		switch name {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			file, err := openLogFile(name)
			if err != nil {
				return nil, err
			}
			writers = append(writers, file)
		}
	}
	switch len(writers) {
	case 0:
		return os.Stdout, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}

// newJSONHandler emits short keys (ts, level, msg) with lower-case levels and
// file:line sources.
func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	rename := map[string]string{slog.TimeKey: "ts", slog.LevelKey: "level", slog.MessageKey: "msg"}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			if key, ok := rename[attr.Key]; ok {
				attr.Key = key
			}
			switch attr.Key {
			case "ts":
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
				}
			case "level":
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return attr
		},
	})
}
