package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"singalong/internal/daemonrun"
)

// StopResult reports how the daemon went away.
type StopResult struct {
	Acknowledged bool
	ForcedKill   bool
	PID          int
}

// RestartResult combines the stop and start halves of Restart.
type RestartResult struct {
	WasRunning bool
	Stop       StopResult
	Start      StartResult
}

// Stop asks the daemon to stop observing, sends SIGTERM to its process, and
// waits until ctx ends for the socket to close. A daemon still answering
// after that is killed and its socket and pid file removed.
func (c *Controller) Stop(ctx context.Context) (StopResult, error) {
	client, err := c.dial()
	if err != nil {
		return StopResult{}, err
	}
	var reportedDir string
	var result StopResult
	if status, err := client.Status(); err == nil {
		result.PID = status.PID
		if status.LockPath != "" {
			reportedDir = filepath.Dir(status.LockPath)
		}
	}
	resp, err := client.Stop()
	_ = client.Close()
	if err != nil {
		return result, fmt.Errorf("stop daemon: %w", err)
	}
	result.Acknowledged = resp.Stopped

	logDir := c.logDir(reportedDir)
	pid, pidErr := daemonPID(logDir, result.PID)
	if pidErr == nil {
		result.PID = pid
		_ = unix.Kill(pid, unix.SIGTERM)
	}

	if c.WaitForShutdown(ctx) == nil {
		return result, nil
	}
	if pidErr != nil {
		return result, fmt.Errorf("daemon still running: %w", pidErr)
	}
	if err := unix.Kill(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return result, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	result.ForcedKill = true
	_ = os.Remove(daemonrun.PIDFilePath(logDir))
	_ = os.Remove(c.Socket)
	return result, nil
}

// Restart stops a running daemon within grace, then starts a new one.
func (c *Controller) Restart(ctx context.Context, opts LaunchOptions, grace time.Duration) (RestartResult, error) {
	stopCtx, cancel := context.WithTimeout(ctx, grace)
	stopped, err := c.Stop(stopCtx)
	cancel()
	if err != nil && !errors.Is(err, ErrDaemonNotRunning) {
		return RestartResult{}, err
	}
	started, startErr := c.Start(ctx, opts)
	if startErr != nil {
		return RestartResult{}, startErr
	}
	return RestartResult{WasRunning: err == nil, Stop: stopped, Start: started}, nil
}

// daemonPID prefers the pid file over the pid the daemon reported and never
// returns the calling process.
func daemonPID(logDir string, reported int) (int, error) {
	pid, err := daemonrun.ReadPIDFile(logDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return 0, err
		}
		pid = reported
	}
	switch {
	case pid <= 0:
		return 0, fmt.Errorf("unknown daemon pid (no %s)", daemonrun.PIDFilePath(logDir))
	case pid == os.Getpid():
		return 0, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	return pid, nil
}
