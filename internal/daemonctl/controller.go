package daemonctl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"singalong/internal/config"
	"singalong/internal/ipc"
)

const pollInterval = 100 * time.Millisecond

// ErrDaemonNotRunning reports that nothing answers on the socket.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Controller manages the daemon listening on Socket.
type Controller struct {
	Socket string
	// Config locates the pid file when the daemon cannot report it. May be nil.
	Config *config.Config
}

// New returns a Controller for socket.
func New(socket string, cfg *config.Config) *Controller {
	return &Controller{Socket: socket, Config: cfg}
}

// dial returns ErrDaemonNotRunning when the socket is missing or refuses.
func (c *Controller) dial() (*ipc.Client, error) {
	client, err := ipc.Dial(c.Socket)
	if err != nil {
		if isUnavailable(err) {
			return nil, ErrDaemonNotRunning
		}
		return nil, err
	}
	return client, nil
}

// WaitForShutdown returns once the socket stops accepting connections.
func (c *Controller) WaitForShutdown(ctx context.Context) error {
	return poll(ctx, func() bool {
		client, err := c.dial()
		if err != nil {
			return errors.Is(err, ErrDaemonNotRunning)
		}
		_ = client.Close()
		return false
	})
}

// logDir prefers the directory the daemon reported, then the config, then
// the socket's own directory.
func (c *Controller) logDir(reported string) string {
	switch {
	case reported != "":
		return reported
	case c.Config != nil && c.Config.Paths.LogDir != "":
		return c.Config.Paths.LogDir
	default:
		return filepath.Dir(c.Socket)
	}
}

// poll runs done every pollInterval until it reports true or ctx ends.
func poll(ctx context.Context, done func() bool) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if done() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func isUnavailable(err error) bool {
	return errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
