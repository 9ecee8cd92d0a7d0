package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"

	"singalong/internal/ipc"
)

// LaunchOptions describe the `singalong daemon` child.
type LaunchOptions struct {
	Executable string
	ConfigPath string
	Diagnostic bool
}

func (o LaunchOptions) args(socket string) []string {
	args := []string{"daemon"}
	if socket != "" {
		args = append(args, "--socket", socket)
	}
	if path := strings.TrimSpace(o.ConfigPath); path != "" {
		args = append(args, "--config", path)
	}
	if o.Diagnostic {
		args = append(args, "--diagnostic")
	}
	return args
}

// StartState summarizes what Start did.
type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
	StartStateRequested      StartState = "start_requested"
)

// StartResult reports the outcome of Start.
type StartResult struct {
	State    StartState
	Launched bool
	Message  string
}

// Launch starts a detached daemon child in its own session so it outlives
// the terminal.
func (c *Controller) Launch(opts LaunchOptions) error {
	if strings.TrimSpace(opts.Executable) == "" {
		return errors.New("launch daemon: executable path is empty")
	}
	cmd := exec.Command(opts.Executable, opts.args(c.Socket)...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return cmd.Process.Release()
}

// Start makes sure a daemon is running and observing. When none answers it
// launches one and waits until ctx ends for its socket to appear.
func (c *Controller) Start(ctx context.Context, opts LaunchOptions) (StartResult, error) {
	var result StartResult
	client, err := c.dial()
	if errors.Is(err, ErrDaemonNotRunning) {
		if err := c.Launch(opts); err != nil {
			return result, err
		}
		result.Launched = true
		client, err = c.waitForClient(ctx)
	}
	if err != nil {
		return result, err
	}
	defer client.Close()

	if status, err := client.Status(); err == nil && status.Running {
		result.State = StartStateAlreadyRunning
		if result.Launched {
			result.State = StartStateStarted
		}
		return result, nil
	}

	resp, err := client.Start()
	if err != nil {
		return result, fmt.Errorf("start daemon: %w", err)
	}
	result.Message = strings.TrimSpace(resp.Message)
	if resp.Started {
		result.State = StartStateStarted
		return result, nil
	}
	result.State = StartStateRequested
	if result.Message == "" {
		result.Message = "Start request sent"
	}
	return result, nil
}

func (c *Controller) waitForClient(ctx context.Context) (*ipc.Client, error) {
	var (
		client  *ipc.Client
		lastErr error
	)
	err := poll(ctx, func() bool {
		client, lastErr = c.dial()
		return lastErr == nil
	})
	if err != nil {
		return nil, fmt.Errorf("daemon did not open %s: %w", c.Socket, errors.Join(err, lastErr))
	}
	return client, nil
}
