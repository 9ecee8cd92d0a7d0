package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// LyricsStatus describes the outcome of the lyric lookup after a change.
type LyricsStatus string

const (
	LyricsLoaded  LyricsStatus = "loaded"
	LyricsMissing LyricsStatus = "missing"
	LyricsEmpty   LyricsStatus = "empty"
	// LyricsCleared records a change to silence.
	LyricsCleared LyricsStatus = "cleared"
	LyricsError   LyricsStatus = "error"
)

// Event is one observed track change.
type Event struct {
	ID           int64        `json:"id"`
	SessionID    string       `json:"session_id"`
	OldTrackID   uint32       `json:"old_track_id"`
	NewTrackID   uint32       `json:"new_track_id"`
	ObservedAt   time.Time    `json:"observed_at"`
	LyricsPath   string       `json:"lyrics_path,omitempty"`
	LyricsStatus LyricsStatus `json:"lyrics_status"`
	LineCount    int          `json:"line_count"`
	Title        string       `json:"title,omitempty"`
	Artist       string       `json:"artist,omitempty"`
	Detail       string       `json:"detail,omitempty"`
}

// TrackStat aggregates events for one track.
type TrackStat struct {
	TrackID   uint32    `json:"track_id"`
	Plays     int       `json:"plays"`
	LastSeen  time.Time `json:"last_seen"`
	Title     string    `json:"title,omitempty"`
	HasLyrics bool      `json:"has_lyrics"`
}

// timeLayout is fixed width so observed_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Record inserts an event and returns its row id.
func (s *Store) Record(ctx context.Context, event Event) (int64, error) {
	if event.ObservedAt.IsZero() {
		event.ObservedAt = time.Now()
	}
	if event.LyricsStatus == "" {
		event.LyricsStatus = LyricsCleared
	}
	res, err := s.exec(ctx,
		`INSERT INTO track_events (
			session_id, old_track_id, new_track_id, observed_at,
			lyrics_path, lyrics_status, line_count, title, artist, detail
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.SessionID,
		int64(event.OldTrackID),
		int64(event.NewTrackID),
		event.ObservedAt.UTC().Format(timeLayout),
		event.LyricsPath,
		string(event.LyricsStatus),
		event.LineCount,
		event.Title,
		event.Artist,
		event.Detail,
	)
	if err != nil {
		return 0, fmt.Errorf("insert track event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("track event id: %w", err)
	}
	return id, nil
}

// Recent returns up to limit events, newest first. limit <= 0 returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	query := `SELECT id, session_id, old_track_id, new_track_id, observed_at,
		lyrics_path, lyrics_status, line_count, title, artist, detail
		FROM track_events ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query track events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate track events: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (Event, error) {
	var (
		event      Event
		oldID      int64
		newID      int64
		observedAt string
		status     string
	)
	if err := rows.Scan(
		&event.ID, &event.SessionID, &oldID, &newID, &observedAt,
		&event.LyricsPath, &status, &event.LineCount, &event.Title, &event.Artist, &event.Detail,
	); err != nil {
		return Event{}, fmt.Errorf("scan track event: %w", err)
	}
	event.OldTrackID = uint32(oldID)
	event.NewTrackID = uint32(newID)
	event.LyricsStatus = LyricsStatus(status)
	if ts, err := time.Parse(timeLayout, observedAt); err == nil {
		event.ObservedAt = ts
	}
	return event, nil
}

// Stats returns per-track play counts for non-silent tracks, most played first.
func (s *Store) Stats(ctx context.Context) ([]TrackStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT new_track_id,
			COUNT(1),
			MAX(observed_at),
			COALESCE(MAX(NULLIF(title, '')), ''),
			MAX(CASE WHEN lyrics_status = 'loaded' THEN 1 ELSE 0 END)
		FROM track_events
		WHERE new_track_id != 0
		GROUP BY new_track_id
		ORDER BY COUNT(1) DESC, new_track_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query track stats: %w", err)
	}
	defer rows.Close()

	var stats []TrackStat
	for rows.Next() {
		var (
			stat      TrackStat
			trackID   int64
			lastSeen  string
			hasLyrics int
		)
		if err := rows.Scan(&trackID, &stat.Plays, &lastSeen, &stat.Title, &hasLyrics); err != nil {
			return nil, fmt.Errorf("scan track stats: %w", err)
		}
		stat.TrackID = uint32(trackID)
		stat.HasLyrics = hasLyrics == 1
		if ts, err := time.Parse(timeLayout, lastSeen); err == nil {
			stat.LastSeen = ts
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate track stats: %w", err)
	}
	return stats, nil
}

// Clear removes all events and returns the number deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, "DELETE FROM track_events")
	if err != nil {
		return 0, fmt.Errorf("clear track events: %w", err)
	}
	return res.RowsAffected()
}
