package ipc

import "time"

// StartRequest asks a stopped daemon to resume observation.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops observation without ending the process.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// Addresses are the resolved host structure locations, rendered in hex.
type Addresses struct {
	SceneManager string `json:"scene_manager"`
	MusicManager string `json:"music_manager"`
}

// Lyric is the lyric window at the moment the status was taken.
type Lyric struct {
	Current    string `json:"current"`
	Next       string `json:"next"`
	NextAtMs   int64  `json:"next_at_ms"`
	HasNext    bool   `json:"has_next"`
	LineIndex  int    `json:"line_index"`
	LineCount  int    `json:"line_count"`
	Title      string `json:"title,omitempty"`
	Artist     string `json:"artist,omitempty"`
	Album      string `json:"album,omitempty"`
	Author     string `json:"author,omitempty"`
	OffsetMs   int32  `json:"offset_ms,omitempty"`
	LyricsPath string `json:"lyrics_path,omitempty"`
	Status     string `json:"status,omitempty"`
}

// PollerStats mirrors the observer counters.
type PollerStats struct {
	Ticks        uint64 `json:"ticks"`
	ReadFailures uint64 `json:"read_failures"`
	Panics       uint64 `json:"panics"`
	Changes      uint64 `json:"changes"`
	Dropped      uint64 `json:"dropped"`
}

// StatusResponse combines daemon, host, and engine state.
type StatusResponse struct {
	Running        bool        `json:"running"`
	PID            int         `json:"pid"`
	SessionID      string      `json:"session_id"`
	StartedAt      time.Time   `json:"started_at"`
	HostAttached   bool        `json:"host_attached"`
	HostPID        int         `json:"host_pid"`
	Addresses      Addresses   `json:"addresses"`
	TrackID        uint32      `json:"track_id"`
	ElapsedMs      int64       `json:"elapsed_ms"`
	Streaming      bool        `json:"streaming"`
	LyricsLoaded   bool        `json:"lyrics_loaded"`
	Lyric          Lyric       `json:"lyric"`
	Loads          uint64      `json:"loads"`
	Poller         PollerStats `json:"poller"`
	SyncOffsetMs   int64       `json:"sync_offset_ms"`
	PollIntervalMs int64       `json:"poll_interval_ms"`
	LyricsDir      string      `json:"lyrics_dir"`
	LockPath       string      `json:"lock_path"`
	HistoryDBPath  string      `json:"history_db_path"`
	LogPath        string      `json:"log_path"`
}

// HistoryRequest lists the most recent track changes.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// HistoryEvent is one recorded track change.
type HistoryEvent struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"session_id"`
	OldTrackID   uint32    `json:"old_track_id"`
	NewTrackID   uint32    `json:"new_track_id"`
	ObservedAt   time.Time `json:"observed_at"`
	LyricsPath   string    `json:"lyrics_path,omitempty"`
	LyricsStatus string    `json:"lyrics_status"`
	LineCount    int       `json:"line_count"`
	Title        string    `json:"title,omitempty"`
	Artist       string    `json:"artist,omitempty"`
	Detail       string    `json:"detail,omitempty"`
}

// HistoryResponse contains recorded events, newest first.
type HistoryResponse struct {
	Events []HistoryEvent `json:"events"`
}

// HistoryStatsRequest fetches per-track aggregates.
type HistoryStatsRequest struct{}

// TrackStat aggregates plays of one track.
type TrackStat struct {
	TrackID   uint32    `json:"track_id"`
	Plays     int       `json:"plays"`
	LastSeen  time.Time `json:"last_seen"`
	Title     string    `json:"title,omitempty"`
	HasLyrics bool      `json:"has_lyrics"`
}

// HistoryStatsResponse lists tracks ordered by play count.
type HistoryStatsResponse struct {
	Tracks []TrackStat `json:"tracks"`
}

// HistoryClearRequest removes all recorded events.
type HistoryClearRequest struct{}

// HistoryClearResponse reports number of removed events.
type HistoryClearResponse struct {
	Removed int64 `json:"removed"`
}

// ReloadRequest re-reads the playing track's lyric file.
type ReloadRequest struct{}

// ReloadResponse reports the lyric state after the reload.
type ReloadResponse struct {
	TrackID uint32 `json:"track_id"`
	Loaded  bool   `json:"loaded"`
	Lyric   Lyric  `json:"lyric"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64  `json:"offset"`
	Limit      int    `json:"limit"`
	Follow     bool   `json:"follow"`
	WaitMillis int    `json:"wait_millis"`
	Contains   string `json:"contains"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}
