package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"singalong/internal/daemon"
	"singalong/internal/engine"
	"singalong/internal/history"
	"singalong/internal/logging"
	"singalong/internal/logs"
)

// ServiceName is the RPC receiver name clients address.
const ServiceName = "Singalong"

// Server answers JSON-RPC requests from the CLI on a unix socket.
type Server struct {
	path     string
	logger   *slog.Logger
	listener net.Listener
	rpc      *rpc.Server
	ctx      context.Context
	cancel   context.CancelFunc

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// NewServer replaces any stale socket at path and registers the daemon's
// RPC methods. Requests stop being served once ctx ends or Close is called.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc: nil daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("ipc: remove stale socket: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("ipc: listen on %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("ipc: restrict socket permissions: %w", err)
	}

	srvCtx, cancel := context.WithCancel(ctx)
	server := rpc.NewServer()
	if err := server.RegisterName(ServiceName, &service{daemon: d, logger: logger, ctx: srvCtx}); err != nil {
		cancel()
		_ = listener.Close()
		return nil, fmt.Errorf("ipc: register service: %w", err)
	}
	s := &Server{
		path:     path,
		logger:   logger,
		listener: listener,
		rpc:      server,
		ctx:      srvCtx,
		cancel:   cancel,
		conns:    make(map[net.Conn]struct{}),
	}
	context.AfterFunc(srvCtx, func() { _ = listener.Close() })
	return s, nil
}

// Serve accepts connections in the background.
func (s *Server) Serve() {
	s.logger.Debug("listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go s.acceptLoop()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		switch {
		case err == nil:
		case s.ctx.Err() != nil || errors.Is(err, net.ErrClosed):
			return
		default:
			logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check socket permissions"),
			)
			continue
		}
		if !s.track(conn, true) {
			_ = conn.Close()
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.track(conn, false)
			s.rpc.ServeCodec(jsonrpc.NewServerCodec(conn))
		}()
	}
}

// track registers or forgets conn. It refuses new connections after Close.
func (s *Server) track(conn net.Conn, add bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !add {
		delete(s.conns, conn)
		return true
	}
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

// Close stops accepting, drops open client connections, and removes the
// socket file.
func (s *Server) Close() {
	s.cancel()
	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = nil
	s.mu.Unlock()
	s.wg.Wait()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(s.logger, "socket cleanup failed", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the socket file by hand"),
		)
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.logger.Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.logger.Info("daemon started via IPC", logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.logger.Info("daemon stopped via IPC", logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	*resp = StatusResponse{
		Running:      status.Running,
		PID:          status.PID,
		SessionID:    status.SessionID,
		StartedAt:    status.StartedAt,
		HostAttached: status.HostAttached,
		HostPID:      status.HostPID,

		TrackID:        status.Engine.TrackID,
		ElapsedMs:      status.Engine.Elapsed.Milliseconds(),
		Streaming:      status.Engine.Streaming,
		LyricsLoaded:   status.Engine.Loaded,
		Lyric:          lyricFromSnapshot(status.Engine),
		Loads:          status.Engine.Loads,
		Poller:         PollerStats(status.Engine.Poller),
		SyncOffsetMs:   status.SyncOffset.Milliseconds(),
		PollIntervalMs: status.PollInterval.Milliseconds(),
		LyricsDir:      status.LyricsDir,
		LockPath:       status.LockFilePath,
		HistoryDBPath:  status.HistoryDBPath,
		LogPath:        s.daemon.LogPath(),
	}
	resp.Addresses = Addresses(status.Addresses)
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	events, err := s.daemon.History(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Events = make([]HistoryEvent, 0, len(events))
	for _, event := range events {
		resp.Events = append(resp.Events, historyEvent(event))
	}
	return nil
}

func (s *service) HistoryStats(_ HistoryStatsRequest, resp *HistoryStatsResponse) error {
	stats, err := s.daemon.HistoryStats(s.ctx)
	if err != nil {
		return err
	}
	resp.Tracks = make([]TrackStat, 0, len(stats))
	for _, stat := range stats {
		resp.Tracks = append(resp.Tracks, TrackStat(stat))
	}
	return nil
}

func (s *service) HistoryClear(_ HistoryClearRequest, resp *HistoryClearResponse) error {
	s.logger.Debug("history clear requested")
	removed, err := s.daemon.ClearHistory(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.logger.Info("history cleared",
		logging.String(logging.FieldEventType, "history_clear"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) Reload(_ ReloadRequest, resp *ReloadResponse) error {
	snap, err := s.daemon.ReloadLyrics(s.ctx)
	resp.TrackID = snap.TrackID
	resp.Loaded = snap.Loaded
	resp.Lyric = lyricFromSnapshot(snap)
	return err
}

// LogTail reads the daemon's current log file. Follow requests wait up to
// WaitMillis (one second when unset) and always answer with the offset to
// resume from, even when nothing new arrived.
func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	path := s.daemon.LogPath()
	if path == "" {
		return nil
	}
	opts := logs.TailOptions{
		Offset:   req.Offset,
		Limit:    req.Limit,
		Follow:   req.Follow,
		Wait:     time.Duration(req.WaitMillis) * time.Millisecond,
		Contains: req.Contains,
	}
	ctx := s.ctx
	if opts.Follow {
		if opts.Wait <= 0 {
			opts.Wait = time.Second
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Wait+500*time.Millisecond)
		defer cancel()
	}

	result, err := logs.Tail(ctx, path, opts)
	resp.Offset = result.Offset
	if err != nil && ctx.Err() == nil {
		return err
	}
	resp.Lines = result.Lines
	return nil
}

func lyricFromSnapshot(snap engine.Snapshot) Lyric {
	return Lyric{
		Current:    snap.Cue.Current,
		Next:       snap.Cue.Next,
		NextAtMs:   snap.Cue.NextAt.Milliseconds(),
		HasNext:    snap.Cue.HasNext,
		LineIndex:  snap.Cue.Index,
		LineCount:  snap.LineCount,
		Title:      snap.Metadata.Title,
		Artist:     snap.Metadata.Artist,
		Album:      snap.Metadata.Album,
		Author:     snap.Metadata.Author,
		OffsetMs:   snap.Metadata.Offset,
		LyricsPath: snap.LyricsPath,
		Status:     string(snap.LyricsStatus),
	}
}

func historyEvent(event history.Event) HistoryEvent {
	return HistoryEvent{
		ID:           event.ID,
		SessionID:    event.SessionID,
		OldTrackID:   event.OldTrackID,
		NewTrackID:   event.NewTrackID,
		ObservedAt:   event.ObservedAt,
		LyricsPath:   event.LyricsPath,
		LyricsStatus: string(event.LyricsStatus),
		LineCount:    event.LineCount,
		Title:        event.Title,
		Artist:       event.Artist,
		Detail:       event.Detail,
	}
}
