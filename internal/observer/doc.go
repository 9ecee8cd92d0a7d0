// Package observer polls the host's active track on a fixed cadence and turns
// the raw readings into a track ID, a wall-clock elapsed time, and change
// notifications.
//
// Elapsed time is measured from the instant the poller first saw the current
// track, never from the host's own timers, which pause and reset in ways that
// do not match what the player hears. Point queries are lock-free atomic
// reads so render loops may call them at any rate.
package observer
