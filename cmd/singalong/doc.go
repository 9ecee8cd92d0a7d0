// Package main hosts the singalong CLI entrypoint and command graph.
//
// The Cobra command tree runs the daemon, translates terminal invocations
// into IPC calls against it, and offers offline tools that work without a
// daemon: lyric file inspection and signature scans against a live host.
//
// Keep this package thin: behavior lives in internal packages, commands here
// only parse flags and render results.
package main
