package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"singalong/internal/config"
	"singalong/internal/daemon"
	"singalong/internal/history"
	"singalong/internal/ipc"
	"singalong/internal/logging"
	"singalong/internal/lyrics"
	"singalong/internal/preflight"
)

const (
	logPrefix   = "singalong-"
	currentLog  = "singalong.log"
	pidFileName = "singalong.pid"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Diagnostic tees a debug-level JSON log next to the run log.
	Diagnostic bool
}

// Run starts the singalong daemon and blocks until ctx ends or a signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, logPrefix+runID+".log")
	sessionID := uuid.NewString()

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		Outputs:     []string{"stdout", logPath},
		Development: opts.Development,
		SessionID:   sessionID,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if opts.Diagnostic {
		debugDir := filepath.Join(cfg.Paths.LogDir, "debug")
		if err := os.MkdirAll(debugDir, 0o755); err != nil {
			return fmt.Errorf("create debug log directory: %w", err)
		}
		debugLogPath := filepath.Join(debugDir, logPrefix+runID+".log")
		debugLogger, debugErr := logging.New(logging.Options{
			Level:       "debug",
			Format:      "json",
			Outputs:     []string{debugLogPath},
			Development: true,
			SessionID:   sessionID,
		})
		if debugErr != nil {
			fmt.Fprintf(os.Stderr, "warn: unable to initialize debug logger: %v\n", debugErr)
		} else {
			logger = logging.TeeLogger(logger, debugLogger.Handler())
			if err := ensureCurrentLogPointer(debugDir, debugLogPath); err != nil {
				fmt.Fprintf(os.Stderr, "warn: unable to update debug/%s link: %v\n", currentLog, err)
			}
		}
		logger.Info("diagnostic mode enabled",
			logging.String(logging.FieldEventType, "diagnostic_mode_enabled"),
			logging.String("debug_log_path", debugLogPath),
		)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s link: %v\n", currentLog, err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: logPrefix + "*.log", Exclude: []string{logPath}},
		logging.RetentionTarget{Dir: filepath.Join(cfg.Paths.LogDir, "debug"), Pattern: logPrefix + "*.log"},
	)
	logConfigSnapshot(logger, cfg)
	logPreflight(signalCtx, logger, cfg)

	pidPath := PIDFilePath(cfg.Paths.LogDir)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.Paths.HistoryDB)
		if err != nil {
			logging.ErrorWithContext(logger, "open history store", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "set history.enabled = false or remove the database"),
			)
			return err
		}
	}

	d, err := daemon.New(cfg, store, logger, daemon.Options{SessionID: sessionID, LogPath: logPath})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		// Lock contention means another daemon owns the socket.
		return err
	}

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	<-signalCtx.Done()
	logger.Info("singalong daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, currentLog)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

// PIDFilePath returns where a daemon using logDir records its pid.
func PIDFilePath(logDir string) string {
	return filepath.Join(logDir, pidFileName)
}

// ReadPIDFile returns the pid recorded by a daemon using logDir.
func ReadPIDFile(logDir string) (int, error) {
	data, err := os.ReadFile(PIDFilePath(logDir))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("parse pid file %s: invalid pid %q", PIDFilePath(logDir), strings.TrimSpace(string(data)))
	}
	return pid, nil
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	library := lyrics.New(cfg.Paths.LyricsDir, cfg.Sync.LyricsExtension)
	entries, err := library.List()
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("lyrics_dir", cfg.Paths.LyricsDir),
		logging.Int("lyric_files", len(entries)),
		logging.String("process_name", cfg.Host.ProcessName),
		logging.Int("host_pid", cfg.Host.PID),
		logging.Duration("poll_interval", cfg.PollInterval()),
		logging.Duration("sync_offset", cfg.SyncOffset()),
		logging.Bool("history_enabled", cfg.History.Enabled),
	}
	if err != nil {
		attrs = append(attrs, logging.String("lyrics_dir_error", err.Error()))
	}
	logger.Info("configuration snapshot", logging.Args(attrs...)...)
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.Failed(preflight.RunAll(ctx, cfg)) {
		impact := "lyrics cannot be shown"
		if result.Optional {
			impact = "singalong keeps running and retries"
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, impact),
			logging.String(logging.FieldErrorHint, "run `singalong status` for a full readiness report"),
		)
	}
}
