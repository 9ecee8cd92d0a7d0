// Package config loads, normalizes, and validates singalong configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SINGALONG_LYRICS_DIR and SINGALONG_HOST_PID. The Config type centralizes the
// knobs the engine, daemon, and CLI need: where lyric files live, which host
// process to observe, the byte signatures used to locate its audio state, and
// the polling and synchronization timings.
//
// The engine treats every value here as an immutable input for the lifetime of
// a run; reload by restarting the daemon.
package config
