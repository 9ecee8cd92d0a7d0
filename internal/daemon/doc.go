// Package daemon coordinates the long-running singalong process.
//
// It wires configuration, the lyric engine, and the history store into a
// single lifecycle with flock-based locking to prevent multiple instances.
// A host monitor attaches to the game process, resolves the scene table
// addresses, and reattaches when the game restarts; until then the engine
// observes silence rather than failing.
//
// Keep orchestration logic here: memory decoding lives in bgm and hostproc,
// lyric timing in lrc and engine.
package daemon
