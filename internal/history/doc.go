// Package history persists observed track changes in SQLite.
//
// Each row records one transition reported by the poller together with the
// outcome of the lyric lookup that followed it, so `singalong history` can
// show what played, when, and whether lyrics were available. The store uses
// WAL mode with a busy timeout and retries SQLITE_BUSY with backoff because
// the CLI may read while the daemon writes.
package history
