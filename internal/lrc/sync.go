package lrc

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultSyncOffset compensates for the delay between the host starting a
// track and the audio becoming audible.
const DefaultSyncOffset = 650 * time.Millisecond

// Synchronizer maps elapsed playback time to lyric lines. The zero value
// applies no offset.
type Synchronizer struct {
	Offset time.Duration
}

// NewSynchronizer returns a Synchronizer with DefaultSyncOffset.
func NewSynchronizer() Synchronizer {
	return Synchronizer{Offset: DefaultSyncOffset}
}

// Index returns the position of the last line at or before elapsed minus the
// offset, or -1 when playback is before the first line or doc is empty.
func (s Synchronizer) Index(doc *Document, elapsed time.Duration) int {
	if !doc.IsLoaded() {
		return -1
	}
	target := elapsed - s.Offset
	return sort.Search(len(doc.Lines), func(i int) bool {
		return doc.Lines[i].Timestamp > target
	}) - 1
}

// CurrentLyric returns the text being sung, or "".
func (s Synchronizer) CurrentLyric(doc *Document, elapsed time.Duration) string {
	idx := s.Index(doc, elapsed)
	if idx < 0 {
		return ""
	}
	return doc.Lines[idx].Text
}

// NextLyric returns the upcoming line. Before the first line that is the
// first line itself.
func (s Synchronizer) NextLyric(doc *Document, elapsed time.Duration) string {
	if line, ok := s.next(doc, s.Index(doc, elapsed)); ok {
		return line.Text
	}
	return ""
}

// NextTimestamp returns when the upcoming line starts, or 0 when there is
// none.
func (s Synchronizer) NextTimestamp(doc *Document, elapsed time.Duration) time.Duration {
	if line, ok := s.next(doc, s.Index(doc, elapsed)); ok {
		return line.Timestamp
	}
	return 0
}

func (s Synchronizer) next(doc *Document, idx int) (Line, bool) {
	if !doc.IsLoaded() || idx+1 >= len(doc.Lines) {
		return Line{}, false
	}
	return doc.Lines[idx+1], true
}

// Cue is the result of one lookup.
type Cue struct {
	Index   int           `json:"index"`
	Current string        `json:"current"`
	Next    string        `json:"next"`
	NextAt  time.Duration `json:"next_at"`
	HasNext bool          `json:"has_next"`
}

// Window resolves current and next lines with a single search.
func (s Synchronizer) Window(doc *Document, elapsed time.Duration) Cue {
	idx := s.Index(doc, elapsed)
	cue := Cue{Index: idx}
	if idx >= 0 {
		cue.Current = doc.Lines[idx].Text
	}
	if line, ok := s.next(doc, idx); ok {
		cue.Next = line.Text
		cue.NextAt = line.Timestamp
		cue.HasNext = true
	}
	return cue
}

// FormatTimestamp renders d as mm:ss.mmm. Minutes are not wrapped.
func FormatTimestamp(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%s%02d:%02d.%03d", sign, ms/60000, (ms/1000)%60, ms%1000)
}

var errBadTimestamp = errors.New("expected mm:ss or mm:ss.fff")

// ParseTimestamp accepts mm:ss, mm:ss.ff (centiseconds) or mm:ss.fff, and
// plain millisecond counts.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms >= 0 {
		return time.Duration(ms) * time.Millisecond, nil
	}
	minutes, rest, ok := strings.Cut(value, ":")
	if !ok {
		return 0, fmt.Errorf("timestamp %q: %w", value, errBadTimestamp)
	}
	seconds, fraction, _ := strings.Cut(rest, ".")
	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 {
		return 0, fmt.Errorf("timestamp %q: %w", value, errBadTimestamp)
	}
	s, err := strconv.Atoi(seconds)
	if err != nil || s < 0 || s > 59 {
		return 0, fmt.Errorf("timestamp %q: %w", value, errBadTimestamp)
	}
	ms := 0
	if fraction != "" {
		if len(fraction) > 3 {
			return 0, fmt.Errorf("timestamp %q: %w", value, errBadTimestamp)
		}
		if ms, err = strconv.Atoi(fraction); err != nil || ms < 0 {
			return 0, fmt.Errorf("timestamp %q: %w", value, errBadTimestamp)
		}
		for i := len(fraction); i < 3; i++ {
			ms *= 10
		}
	}
	return time.Duration(m)*time.Minute + time.Duration(s)*time.Second + time.Duration(ms)*time.Millisecond, nil
}
