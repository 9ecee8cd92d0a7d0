// Package engine ties the track poller to the lyrics library and answers the
// queries a renderer needs: which track is playing, how far into it, and which
// lyric line belongs to a given position.
//
// A loader goroutine consumes the poller's change notifications and swaps the
// current lyric document with a single atomic pointer store, so queries never
// block and never observe a half-loaded document.
package engine
