package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"singalong/internal/bgm"
	"singalong/internal/config"
	"singalong/internal/logging"
	"singalong/internal/observer"
)

const defaultAttachInterval = 5 * time.Second

type attachFunc func() (*hostHandle, error)

// hostHandle is the monitor's view of an attachment.
type hostHandle struct {
	pid       int
	addresses bgm.Addresses
	warnings  []error
	reader    observer.TrackReader
	alive     func() bool
}

// hostMonitor keeps the engine pointed at a live host. It is itself the
// engine's TrackReader and delegates to the current attachment.
type hostMonitor struct {
	logger   *slog.Logger
	attach   attachFunc
	interval time.Duration

	current  atomic.Pointer[hostHandle]
	failing  atomic.Bool
	attaches atomic.Uint64

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func newHostMonitor(cfg *config.Config, logger *slog.Logger) *hostMonitor {
	attach := func() (*hostHandle, error) {
		a, err := AttachHost(cfg)
		if err != nil {
			return nil, err
		}
		return &hostHandle{
			pid:       a.Process.PID(),
			addresses: a.Addresses,
			warnings:  a.Warnings,
			reader:    a.Reader,
			alive:     a.Process.Alive,
		}, nil
	}
	return &hostMonitor{
		logger:   logging.NewComponentLogger(logger, "host-monitor"),
		attach:   attach,
		interval: defaultAttachInterval,
	}
}

// ReadActiveTrack implements observer.TrackReader.
func (m *hostMonitor) ReadActiveTrack() (bgm.Reading, error) {
	handle := m.current.Load()
	if handle == nil {
		return bgm.Unavailable{}.ReadActiveTrack()
	}
	return handle.reader.ReadActiveTrack()
}

// Attached returns the current attachment, or nil.
func (m *hostMonitor) Attached() *hostHandle { return m.current.Load() }

func (m *hostMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("host monitor already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	m.poll()

	m.wg.Add(1)
	go m.loop(runCtx)
	return nil
}

func (m *hostMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *hostMonitor) loop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll()
		}
	}
}

// poll drops a dead attachment and tries to attach when detached.
func (m *hostMonitor) poll() {
	if handle := m.current.Load(); handle != nil {
		if handle.alive == nil || handle.alive() {
			return
		}
		m.current.Store(nil)
		logging.WarnWithContext(m.logger, "host process exited; waiting for it to return", "host_detached",
			logging.Int("host_pid", handle.pid),
			logging.String(logging.FieldErrorHint, "start the game; singalong reattaches automatically"),
			logging.String(logging.FieldImpact, "track reported as silence until reattached"),
		)
	}

	handle, err := m.attach()
	if err != nil {
		if !m.failing.Swap(true) {
			logging.WarnWithContext(m.logger, "host attach failed; will retry", "host_attach_failed",
				logging.Error(err),
				logging.Duration("retry_interval", m.interval),
				logging.String(logging.FieldErrorHint, "check host.process_name or host.pid; run `singalong sigscan` to test signatures"),
				logging.String(logging.FieldImpact, "track reported as silence until attached"),
			)
		} else {
			m.logger.Debug("host attach failed", logging.Error(err))
		}
		return
	}
	m.failing.Store(false)
	m.current.Store(handle)
	m.attaches.Add(1)

	m.logger.Info("host attached",
		logging.Int("host_pid", handle.pid),
		logging.String("scene_manager", handle.addresses.SceneManager.String()),
		logging.String("music_manager", handle.addresses.MusicManager.String()),
		logging.String(logging.FieldEventType, "host_attached"),
	)
	for _, warning := range handle.warnings {
		if bgm.IsOptional(warning) {
			m.logger.Debug("streaming detection disabled", logging.Error(warning))
			continue
		}
		logging.WarnWithContext(m.logger, "optional address unresolved", "host_resolve_partial",
			logging.Error(warning),
			logging.String(logging.FieldErrorHint, "signatures may be outdated after a game patch"),
			logging.String(logging.FieldImpact, "streaming flag reported as false"),
		)
	}
}
