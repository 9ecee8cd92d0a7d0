// Package daemonctl launches, stops, and inspects the background daemon on
// behalf of the CLI.
//
// The daemon runs as a detached `singalong daemon` child. Stop asks it over
// IPC first, then signals the pid it recorded, and kills it only when the
// socket is still open once the caller's context ends.
package daemonctl
