package engine

import (
	"time"

	"singalong/internal/history"
	"singalong/internal/lrc"
	"singalong/internal/observer"
)

// current returns the lyric state if it belongs to the playing track. While
// the loader catches up with a change the previous song's lyrics are hidden.
func (e *Engine) current() *loaded {
	state := e.state.Load()
	if state == nil || state.trackID != e.poller.CurrentTrackID() {
		return nil
	}
	return state
}

// Document returns the lyric document for the playing track, or nil.
func (e *Engine) Document() *lrc.Document {
	if state := e.current(); state != nil {
		return state.doc
	}
	return nil
}

// CurrentTrackID returns the playing track, 0 for silence.
func (e *Engine) CurrentTrackID() uint32 { return e.poller.CurrentTrackID() }

// CurrentElapsedMs returns milliseconds since the playing track was first seen.
func (e *Engine) CurrentElapsedMs() uint32 { return e.poller.CurrentElapsedMs() }

// CurrentElapsed returns time since the playing track was first seen.
func (e *Engine) CurrentElapsed() time.Duration { return e.poller.CurrentElapsed() }

// IsLoaded reports whether lyrics are available for the playing track.
func (e *Engine) IsLoaded() bool { return e.Document().IsLoaded() }

// CurrentLyric returns the line at elapsed.
func (e *Engine) CurrentLyric(elapsed time.Duration) string {
	return e.sync.CurrentLyric(e.Document(), elapsed)
}

// NextLyric returns the line after the one at elapsed.
func (e *Engine) NextLyric(elapsed time.Duration) string {
	return e.sync.NextLyric(e.Document(), elapsed)
}

// NextTimestamp returns when the next line starts, or 0.
func (e *Engine) NextTimestamp(elapsed time.Duration) time.Duration {
	return e.sync.NextTimestamp(e.Document(), elapsed)
}

// Snapshot is a consistent view of the engine at one instant.
type Snapshot struct {
	TrackID      uint32
	Elapsed      time.Duration
	Streaming    bool
	Loaded       bool
	LyricsPath   string
	LyricsStatus history.LyricsStatus
	LineCount    int
	Metadata     lrc.Metadata
	Cue          lrc.Cue
	Since        time.Time
	Loads        uint64
	Poller       observer.Stats
}

// Snapshot reads the poller once and resolves lyrics at that elapsed time.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		TrackID:   e.poller.CurrentTrackID(),
		Elapsed:   e.poller.CurrentElapsed(),
		Streaming: e.poller.Streaming(),
		Loads:     e.loads.Load(),
		Poller:    e.poller.Stats(),
	}
	state := e.state.Load()
	if state == nil || state.trackID != snap.TrackID {
		snap.Cue = e.sync.Window(nil, snap.Elapsed)
		return snap
	}
	snap.LyricsPath = state.path
	snap.LyricsStatus = state.status
	snap.Since = state.at
	if state.doc != nil {
		snap.Loaded = state.doc.IsLoaded()
		snap.LineCount = len(state.doc.Lines)
		snap.Metadata = state.doc.Metadata
	}
	snap.Cue = e.sync.Window(state.doc, snap.Elapsed)
	return snap
}
