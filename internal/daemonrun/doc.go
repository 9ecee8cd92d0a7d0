// Package daemonrun hosts the foreground daemon process: it owns signal
// handling, the per-run log file, the pid file, and the wiring between the
// history store, the daemon, and the IPC server.
package daemonrun
