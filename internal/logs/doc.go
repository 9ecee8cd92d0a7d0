// Package logs tails the daemon's run log for `singalong logs`.
//
// Reads are bounded: a negative offset returns the last N lines, a positive
// offset returns everything appended since. Follow mode polls until a line
// arrives or the wait expires, and the returned offset is handed back on the
// next call.
package logs
