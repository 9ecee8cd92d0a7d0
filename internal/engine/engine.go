package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"singalong/internal/history"
	"singalong/internal/logging"
	"singalong/internal/lrc"
	"singalong/internal/lyrics"
	"singalong/internal/observer"
)

const recordTimeout = 2 * time.Second

// Recorder persists track changes. *history.Store implements it.
type Recorder interface {
	Record(ctx context.Context, event history.Event) (int64, error)
}

// Options configures an Engine.
type Options struct {
	Reader    observer.TrackReader
	Library   lyrics.Library
	Sync      lrc.Synchronizer
	Poll      observer.Options
	Buffer    int
	Recorder  Recorder
	SessionID string
	Logger    *slog.Logger
}

// loaded is the lyric state for one track, swapped as a unit.
type loaded struct {
	trackID uint32
	path    string
	status  history.LyricsStatus
	doc     *lrc.Document
	at      time.Time
}

// Engine observes the host and serves lyric queries.
type Engine struct {
	poller    *observer.Poller
	library   lyrics.Library
	sync      lrc.Synchronizer
	buffer    int
	recorder  Recorder
	sessionID string
	logger    *slog.Logger

	state atomic.Pointer[loaded]
	loads atomic.Uint64

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New builds an Engine. Nothing runs until Start.
func New(opts Options) *Engine {
	logger := logging.NewComponentLogger(opts.Logger, "engine")
	if opts.Poll.Logger == nil {
		opts.Poll.Logger = opts.Logger
	}
	e := &Engine{
		poller:    observer.New(opts.Reader, opts.Poll),
		library:   opts.Library,
		sync:      opts.Sync,
		buffer:    opts.Buffer,
		recorder:  opts.Recorder,
		sessionID: opts.SessionID,
		logger:    logger,
	}
	e.state.Store(&loaded{status: history.LyricsCleared})
	return e
}

// Poller exposes the underlying poller.
func (e *Engine) Poller() *observer.Poller { return e.poller }

// Library returns the lyrics library in use.
func (e *Engine) Library() lyrics.Library { return e.library }

// Synchronizer returns the lyric synchronizer in use.
func (e *Engine) Synchronizer() lrc.Synchronizer { return e.sync }

// Start launches the poller and the lyric loader.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return errors.New("engine already running")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	changes, unsubscribe := e.poller.Subscribe(e.buffer)
	runCtx, cancel := context.WithCancel(ctx)
	if err := e.poller.Start(runCtx); err != nil {
		cancel()
		unsubscribe()
		return fmt.Errorf("start poller: %w", err)
	}
	e.cancel = cancel
	e.done = make(chan struct{})
	e.running = true
	go e.loadLoop(runCtx, changes, unsubscribe, e.done)

	e.logger.Info("engine started",
		logging.String("lyrics_dir", e.library.Dir),
		logging.Duration("poll_interval", e.poller.Interval()),
		logging.Duration("sync_offset", e.sync.Offset),
		logging.String(logging.FieldEventType, "engine_started"),
	)
	return nil
}

// Close stops polling and waits for the loader. It is safe to call twice.
func (e *Engine) Close() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	cancel, done := e.cancel, e.done
	e.running = false
	e.mu.Unlock()

	stopErr := e.poller.Stop()
	cancel()

	timer := time.NewTimer(observer.DefaultShutdownTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		return errors.Join(stopErr, errors.New("lyric loader did not stop in time"))
	}
	e.logger.Info("engine stopped", logging.String(logging.FieldEventType, "engine_stopped"))
	return stopErr
}

func (e *Engine) loadLoop(ctx context.Context, changes <-chan observer.TrackChange, unsubscribe func(), done chan struct{}) {
	defer close(done)
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			e.apply(ctx, change)
		}
	}
}

// apply loads lyrics for change.New and records the outcome.
func (e *Engine) apply(ctx context.Context, change observer.TrackChange) {
	next, err := e.load(change.New, change.At)
	e.state.Store(next)
	e.loads.Add(1)

	logger := logging.WithContext(logging.WithTrackID(ctx, change.New), e.logger)
	switch next.status {
	case history.LyricsLoaded:
		logger.Info("lyrics loaded",
			logging.String("path", next.path),
			logging.Int("lines", len(next.doc.Lines)),
			logging.String("title", next.doc.Metadata.Title),
			logging.String(logging.FieldEventType, "lyrics_loaded"),
		)
	case history.LyricsMissing:
		logger.Info("no lyrics for track",
			logging.String("path", next.path),
			logging.String(logging.FieldEventType, "lyrics_missing"),
		)
	case history.LyricsEmpty:
		logging.WarnWithContext(logger, "lyrics file has no timed lines", "lyrics_empty",
			logging.String("path", next.path),
			logging.String(logging.FieldErrorHint, "lines must look like [mm:ss.xx]text"),
			logging.String(logging.FieldImpact, "no lyrics shown for this track"),
		)
	case history.LyricsError:
		logging.WarnWithContext(logger, "lyrics load failed", "lyrics_load_failed",
			logging.String("path", next.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check file permissions and encoding"),
			logging.String(logging.FieldImpact, "no lyrics shown for this track"),
		)
	}

	e.record(ctx, change, next, err)
}

func (e *Engine) load(trackID uint32, at time.Time) (*loaded, error) {
	if trackID == 0 {
		return &loaded{status: history.LyricsCleared, at: at}, nil
	}
	doc, path, err := e.library.Load(trackID)
	next := &loaded{trackID: trackID, path: path, at: at}
	switch {
	case err == nil:
		next.status = history.LyricsLoaded
		next.doc = doc
	case errors.Is(err, lrc.ErrNotFound):
		next.status = history.LyricsMissing
	case errors.Is(err, lrc.ErrNoLyrics):
		next.status = history.LyricsEmpty
	default:
		next.status = history.LyricsError
	}
	return next, err
}

func (e *Engine) record(ctx context.Context, change observer.TrackChange, next *loaded, loadErr error) {
	if e.recorder == nil {
		return
	}
	event := history.Event{
		SessionID:    e.sessionID,
		OldTrackID:   change.Old,
		NewTrackID:   change.New,
		ObservedAt:   change.At,
		LyricsPath:   next.path,
		LyricsStatus: next.status,
	}
	if next.doc != nil {
		event.LineCount = len(next.doc.Lines)
		event.Title = next.doc.Metadata.Title
		event.Artist = next.doc.Metadata.Artist
	}
	if loadErr != nil && next.status == history.LyricsError {
		event.Detail = loadErr.Error()
	}
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if _, err := e.recorder.Record(recordCtx, event); err != nil {
		logging.WarnWithContext(e.logger, "history record failed", "history_record_failed",
			logging.Error(err),
			logging.TrackID(change.New),
			logging.String(logging.FieldErrorHint, "check paths.history_db is writable"),
			logging.String(logging.FieldImpact, "track change missing from history"),
		)
	}
}

// Reload re-reads the lyrics for the current track, picking up edits made
// while it plays. A track change applied while the file is being read wins;
// the reloaded result is then discarded.
func (e *Engine) Reload(ctx context.Context) (Snapshot, error) {
	prev := e.state.Load()
	trackID := e.poller.CurrentTrackID()
	next, err := e.load(trackID, time.Now())
	if prev != nil && !prev.at.IsZero() && prev.trackID == trackID {
		next.at = prev.at
	}
	if e.poller.CurrentTrackID() != trackID || !e.state.CompareAndSwap(prev, next) {
		e.logger.Debug("reload superseded by track change", logging.TrackID(trackID))
		return e.Snapshot(), nil
	}
	e.loads.Add(1)
	if err != nil && next.status == history.LyricsError {
		return e.Snapshot(), err
	}
	return e.Snapshot(), nil
}
