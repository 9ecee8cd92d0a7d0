package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"singalong/internal/config"
	"singalong/internal/engine"
	"singalong/internal/history"
	"singalong/internal/logging"
	"singalong/internal/lrc"
	"singalong/internal/lyrics"
	"singalong/internal/observer"
)

// Daemon runs the lyric engine against the host and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *history.Store
	sessionID string
	logPath   string

	monitor *hostMonitor
	engine  *engine.Engine

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt atomic.Pointer[time.Time]
	mu        sync.Mutex
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	SessionID     string
	StartedAt     time.Time
	HostAttached  bool
	HostPID       int
	Addresses     AddressStatus
	Engine        engine.Snapshot
	SyncOffset    time.Duration
	PollInterval  time.Duration
	LyricsDir     string
	LockFilePath  string
	HistoryDBPath string
}

// AddressStatus renders resolved addresses for display.
type AddressStatus struct {
	SceneManager string
	MusicManager string
}

// Options carries per-run identity into the daemon.
type Options struct {
	SessionID string
	LogPath   string
}

// New constructs a daemon. store may be nil when history is disabled.
func New(cfg *config.Config, store *history.Store, logger *slog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}

	lockPath := cfg.LockPath()
	monitor := newHostMonitor(cfg, logger)
	d := &Daemon{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		sessionID: opts.SessionID,
		logPath:   opts.LogPath,
		monitor:   monitor,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}
	d.engine = engine.New(engine.Options{
		Reader:  monitor,
		Library: lyrics.New(cfg.Paths.LyricsDir, cfg.Sync.LyricsExtension),
		Sync:    lrc.Synchronizer{Offset: cfg.SyncOffset()},
		Poll: observer.Options{
			Interval:        cfg.PollInterval(),
			ShutdownTimeout: cfg.ShutdownTimeout(),
			Logger:          logger,
		},
		Buffer:    cfg.Sync.NotificationBuffer,
		Recorder:  d.recorder(),
		SessionID: opts.SessionID,
		Logger:    logger,
	})
	return d, nil
}

// recorder returns nil (not a typed nil) when history is off.
func (d *Daemon) recorder() engine.Recorder {
	if d.store == nil {
		return nil
	}
	return d.store
}

// LogPath returns the current run's log file, if any.
func (d *Daemon) LogPath() string { return d.logPath }

// Engine exposes the lyric engine.
func (d *Daemon) Engine() *engine.Engine { return d.engine }

// Start acquires the daemon lock, attaches to the host, and starts the engine.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another singalong daemon instance is already running")
	}

	if err := d.monitor.Start(ctx); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("start host monitor: %w", err)
	}
	if err := d.engine.Start(ctx); err != nil {
		d.monitor.Stop()
		_ = d.lock.Unlock()
		return fmt.Errorf("start engine: %w", err)
	}

	now := time.Now()
	d.startedAt.Store(&now)
	d.running.Store(true)
	d.logger.Info("singalong daemon started",
		logging.String("lock", d.lockPath),
		logging.String("lyrics_dir", d.cfg.Paths.LyricsDir),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

// Stop stops observation and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	if err := d.engine.Close(); err != nil {
		logging.WarnWithContext(d.logger, "engine shutdown incomplete", "engine_stop_timeout",
			logging.Error(err),
			logging.String(logging.FieldImpact, "a poll goroutine may outlive shutdown"),
		)
	}
	d.monitor.Stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if the next start fails"),
		)
	}
	d.running.Store(false)
	d.logger.Info("singalong daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports runtime information.
func (d *Daemon) Status(context.Context) Status {
	status := Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		SessionID:     d.sessionID,
		Engine:        d.engine.Snapshot(),
		SyncOffset:    d.engine.Synchronizer().Offset,
		PollInterval:  d.engine.Poller().Interval(),
		LyricsDir:     d.engine.Library().Dir,
		LockFilePath:  d.lockPath,
		HistoryDBPath: d.historyPath(),
	}
	if started := d.startedAt.Load(); started != nil {
		status.StartedAt = *started
	}
	if handle := d.monitor.Attached(); handle != nil {
		status.HostAttached = true
		status.HostPID = handle.pid
		status.Addresses = AddressStatus{
			SceneManager: handle.addresses.SceneManager.String(),
			MusicManager: handle.addresses.MusicManager.String(),
		}
	}
	return status
}

func (d *Daemon) historyPath() string {
	if d.store == nil {
		return ""
	}
	return d.store.Path()
}

var errHistoryDisabled = errors.New("history is disabled")

// History returns recent track changes.
func (d *Daemon) History(ctx context.Context, limit int) ([]history.Event, error) {
	if d.store == nil {
		return nil, errHistoryDisabled
	}
	return d.store.Recent(ctx, limit)
}

// HistoryStats returns per-track play counts.
func (d *Daemon) HistoryStats(ctx context.Context) ([]history.TrackStat, error) {
	if d.store == nil {
		return nil, errHistoryDisabled
	}
	return d.store.Stats(ctx)
}

// ClearHistory removes all recorded track changes.
func (d *Daemon) ClearHistory(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errHistoryDisabled
	}
	return d.store.Clear(ctx)
}

// ReloadLyrics re-reads the playing track's lyrics.
func (d *Daemon) ReloadLyrics(ctx context.Context) (engine.Snapshot, error) {
	return d.engine.Reload(ctx)
}
