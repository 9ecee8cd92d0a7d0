package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"singalong/internal/config"
	"singalong/internal/daemonctl"
	"singalong/internal/ipc"
)

// skipConfigAnnotation marks commands that must run without a loadable
// config file.
const skipConfigAnnotation = "skipConfigLoad"

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	socket     string
	configPath string
	logLevel   string
	diagnostic bool
}

// commandContext lazily loads the configuration once per invocation and
// hands out daemon clients.
type commandContext struct {
	flags *globalFlags

	loadOnce     sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.loadOnce.Do(func() {
		cfg, resolved, exists, err := config.Load(strings.TrimSpace(c.flags.configPath))
		if err == nil {
			err = cfg.EnsureDirectories()
		}
		if err != nil {
			c.configErr = err
			return
		}
		c.config, c.configPath, c.configExists = cfg, resolved, exists
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// logLevel prefers --log-level over logging.level.
func (c *commandContext) logLevel(cfg *config.Config) string {
	if level := strings.TrimSpace(c.flags.logLevel); level != "" {
		return level
	}
	if cfg != nil {
		return cfg.Logging.Level
	}
	return "info"
}

// socketPath resolves --socket, then the configured log directory, then the
// default log directory.
func (c *commandContext) socketPath() string {
	if socket := strings.TrimSpace(c.flags.socket); socket != "" {
		return socket
	}
	if cfg, err := c.ensureConfig(); err == nil {
		return cfg.SocketPath()
	}
	if logDir, err := config.ExpandPath("~/.local/share/singalong/logs"); err == nil {
		return filepath.Join(logDir, "singalong.sock")
	}
	return filepath.Join(os.TempDir(), "singalong.sock")
}

func (c *commandContext) controller() *daemonctl.Controller {
	return daemonctl.New(c.socketPath(), c.configValue())
}

// withClient runs fn against a fresh connection to the daemon.
func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		return dialError(err, socket)
	}
	defer client.Close()
	return fn(client)
}

func dialError(err error, socket string) error {
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOENT) {
		return fmt.Errorf("no daemon socket at %s; run `singalong start` first", socket)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("daemon socket %s refused the connection; is the daemon still running?", socket)
	}
	return fmt.Errorf("connect to daemon: %w", err)
}

func skipsConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations[skipConfigAnnotation] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
