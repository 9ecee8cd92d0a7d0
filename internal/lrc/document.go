package lrc

import (
	"time"
)

// Metadata holds the header tags of a lyric file.
type Metadata struct {
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
	Author string `json:"author,omitempty"`
	// Offset is the [offset:] tag in milliseconds, added to every line that
	// follows the tag.
	Offset int32 `json:"offset_ms,omitempty"`
}

// Line is one timed lyric.
type Line struct {
	Timestamp time.Duration `json:"timestamp"`
	Text      string        `json:"text"`
}

// Document is a parsed lyric file. Lines are sorted by Timestamp.
type Document struct {
	Metadata Metadata `json:"metadata"`
	Lines    []Line   `json:"lines"`
}

// IsLoaded reports whether the document has any timed lines.
func (d *Document) IsLoaded() bool {
	return d != nil && len(d.Lines) > 0
}

// Duration returns the timestamp of the last line.
func (d *Document) Duration() time.Duration {
	if !d.IsLoaded() {
		return 0
	}
	return d.Lines[len(d.Lines)-1].Timestamp
}
