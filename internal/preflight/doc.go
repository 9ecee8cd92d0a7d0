// Package preflight provides readiness checks for the host process, memory
// read permissions, and the filesystem paths singalong depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs each failure with a hint,
//     so a silent lyric display can be traced to its cause.
//   - The CLI "singalong status" command shows them when the daemon is offline.
package preflight
