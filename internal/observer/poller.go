package observer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"singalong/internal/bgm"
	"singalong/internal/logging"
)

const (
	// DefaultInterval is the poll cadence.
	DefaultInterval = 100 * time.Millisecond
	// DefaultShutdownTimeout bounds Stop.
	DefaultShutdownTimeout = 2 * time.Second
)

var (
	// ErrStopTimeout is returned when the poll loop does not exit in time.
	ErrStopTimeout = errors.New("poller did not stop within shutdown timeout")
	// ErrAlreadyRunning is returned by a second Start.
	ErrAlreadyRunning = errors.New("poller already running")
	// ErrStillStopping is returned by Start while a loop abandoned by a
	// timed-out Stop has not exited yet.
	ErrStillStopping = errors.New("previous poll loop has not exited")
)

// TrackReader reports the host's active track.
type TrackReader interface {
	ReadActiveTrack() (bgm.Reading, error)
}

// TrackChange is published when the observed track differs from the last one.
type TrackChange struct {
	Old uint32
	New uint32
	At  time.Time
}

// Options configures a Poller. Zero values select defaults.
type Options struct {
	Interval        time.Duration
	ShutdownTimeout time.Duration
	Clock           func() time.Time
	Logger          *slog.Logger
}

// Stats counts poll loop activity.
type Stats struct {
	Ticks        uint64
	ReadFailures uint64
	Panics       uint64
	Changes      uint64
	Dropped      uint64
}

// Poller samples a TrackReader and tracks the current song.
type Poller struct {
	reader          TrackReader
	interval        time.Duration
	shutdownTimeout time.Duration
	now             func() time.Time
	logger          *slog.Logger

	trackID   atomic.Uint32
	elapsed   atomic.Int64
	streaming atomic.Bool
	failing   atomic.Bool

	// started is only touched by the tick goroutine.
	started time.Time

	ticks        atomic.Uint64
	readFailures atomic.Uint64
	panics       atomic.Uint64
	changes      atomic.Uint64
	dropped      atomic.Uint64

	subMu sync.Mutex
	subs  []*subscription

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New returns a Poller reading from reader.
func New(reader TrackReader, opts Options) *Poller {
	if reader == nil {
		reader = bgm.Unavailable{}
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Poller{
		reader:          reader,
		interval:        opts.Interval,
		shutdownTimeout: opts.ShutdownTimeout,
		now:             opts.Clock,
		logger:          logging.NewComponentLogger(opts.Logger, "poller"),
	}
}

// CurrentTrackID returns the last observed track, 0 for silence.
func (p *Poller) CurrentTrackID() uint32 { return p.trackID.Load() }

// CurrentElapsed returns time since the current track was first observed,
// as of the last tick.
func (p *Poller) CurrentElapsed() time.Duration { return time.Duration(p.elapsed.Load()) }

// CurrentElapsedMs returns CurrentElapsed in whole milliseconds.
func (p *Poller) CurrentElapsedMs() uint32 {
	return uint32(p.CurrentElapsed() / time.Millisecond)
}

// Streaming reports the host's streaming flag from the last reading.
func (p *Poller) Streaming() bool { return p.streaming.Load() }

// Interval returns the poll cadence.
func (p *Poller) Interval() time.Duration { return p.interval }

// Stats returns loop counters.
func (p *Poller) Stats() Stats {
	return Stats{
		Ticks:        p.ticks.Load(),
		ReadFailures: p.readFailures.Load(),
		Panics:       p.panics.Load(),
		Changes:      p.changes.Load(),
		Dropped:      p.dropped.Load(),
	}
}

// Tick performs one poll. It must not be called concurrently with itself;
// Start's loop is the only caller in production.
func (p *Poller) Tick() {
	p.ticks.Add(1)
	reading, err := p.reader.ReadActiveTrack()
	if err != nil {
		p.readFailures.Add(1)
		if !p.failing.Swap(true) {
			logging.WarnWithContext(p.logger, "track read failed; skipping ticks until it recovers", "track_read_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "host may be loading or exiting; run `singalong sigscan` if this persists"),
				logging.String(logging.FieldImpact, "track and elapsed time frozen at last value"),
			)
		} else {
			p.logger.Debug("track read failed", logging.Error(err))
		}
		return
	}
	if p.failing.Swap(false) {
		p.logger.Info("track read recovered", logging.String(logging.FieldEventType, "track_read_recovered"))
	}

	now := p.now()
	p.streaming.Store(reading.Streaming)
	current := p.trackID.Load()
	switch {
	case reading.TrackID != current:
		p.started = now
		p.elapsed.Store(0)
		p.trackID.Store(reading.TrackID)
		p.changes.Add(1)
		p.logger.Info("track changed",
			logging.TrackID(reading.TrackID),
			logging.Uint64("old_track_id", uint64(current)),
			logging.Bool("streaming", reading.Streaming),
			logging.String(logging.FieldEventType, "track_changed"),
		)
		p.publish(TrackChange{Old: current, New: reading.TrackID, At: now})
	case current != 0:
		elapsed := now.Sub(p.started)
		if elapsed < 0 {
			elapsed = 0
		}
		p.elapsed.Store(int64(elapsed))
	default:
		p.elapsed.Store(0)
	}
}

// safeTick runs Tick and converts a panic into a logged, counted failure.
func (p *Poller) safeTick() {
	defer func() {
		if r := recover(); r != nil {
			p.panics.Add(1)
			logging.ErrorWithContext(p.logger, "track poll panicked; continuing", "poll_panic",
				logging.String("panic", fmt.Sprint(r)),
				logging.String(logging.FieldErrorHint, "report this with the daemon log attached"),
			)
		}
	}()
	p.Tick()
}

// Start launches the poll loop. The first tick runs immediately.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrAlreadyRunning
	}
	if p.done != nil {
		select {
		case <-p.done:
		default:
			return ErrStillStopping
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	go p.loop(runCtx, p.done)
	return nil
}

// Stop cancels the loop and waits up to the shutdown timeout for it to exit.
// Subscriber channels are closed once the loop has exited. After a timeout
// Start refuses to launch a new loop until the old one returns.
func (p *Poller) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	cancel, done := p.cancel, p.done
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	timer := time.NewTimer(p.shutdownTimeout)
	defer timer.Stop()
	select {
	case <-done:
		p.closeSubscribers()
		return nil
	case <-timer.C:
		logging.WarnWithContext(p.logger, "poll loop did not exit in time; abandoning it", "poll_stop_timeout",
			logging.Duration("timeout", p.shutdownTimeout),
			logging.String(logging.FieldErrorHint, "a foreign memory read may be hung"),
			logging.String(logging.FieldImpact, "poll goroutine leaked until process exit"),
		)
		return ErrStopTimeout
	}
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	p.safeTick()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.safeTick()
		}
	}
}
