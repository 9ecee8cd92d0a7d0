// Package lrc parses timed lyric files and maps a playback position to the
// line being sung.
//
// The accepted format is the common "[mm:ss.xx]text" LRC dialect with
// optional [ti:], [ar:], [al:], [by:] and [offset:] header tags. Documents
// are immutable once parsed, so a Synchronizer can be queried from any
// goroutine at render rate; lookups are a binary search over the sorted
// lines.
package lrc
