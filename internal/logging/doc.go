// Package logging assembles structured slog loggers and formatting helpers used
// across singalong.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so the poller and engine can tag
// log lines with the current track ID. The package also provides a no-op logger
// for tests and wiring code that cannot fail.
package logging
