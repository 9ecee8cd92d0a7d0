// Package ipc exposes the daemon over JSON-RPC on a Unix domain socket and
// ships the matching client used by the CLI.
//
// It owns socket lifecycle management, the request/response DTOs, and the
// conversion from daemon and engine state into flat wire structs. Durations
// travel as milliseconds so non-Go clients can read them without parsing.
//
// Add new endpoints here rather than widening the daemon API so commands
// keep a stable protocol.
package ipc
