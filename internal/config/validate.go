package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateHost(); err != nil {
		return err
	}
	if err := c.validateSignatures(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateHost() error {
	if c.Host.PID < 0 {
		return errors.New("host.pid must not be negative")
	}
	if c.Host.PID == 0 && c.Host.ProcessName == "" {
		return errors.New("host.process_name is required when host.pid is not set")
	}
	return nil
}

func (c *Config) validateSignatures() error {
	if strings.TrimSpace(c.Signatures.SceneManager) == "" {
		return errors.New("signatures.scene_manager must be set")
	}
	for name, pattern := range map[string]string{
		"signatures.scene_manager": c.Signatures.SceneManager,
		"signatures.music_manager": c.Signatures.MusicManager,
		"signatures.framework":     c.Signatures.Framework,
	} {
		if err := validatePattern(pattern); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// validatePattern checks token shape only; pattern semantics belong to memscan.
func validatePattern(pattern string) error {
	for _, token := range strings.Fields(pattern) {
		if token == "?" || token == "??" {
			continue
		}
		if len(token) != 2 || !isHex(token[0]) || !isHex(token[1]) {
			return fmt.Errorf("invalid byte %q", token)
		}
	}
	return nil
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'F') || (b >= 'a' && b <= 'f')
}

func (c *Config) validateSync() error {
	if c.Sync.PollIntervalMs < 10 {
		return errors.New("sync.poll_interval_ms must be at least 10")
	}
	if c.Sync.OffsetMs < 0 {
		return errors.New("sync.offset_ms must not be negative")
	}
	if c.Sync.ShutdownTimeoutMs < c.Sync.PollIntervalMs {
		return errors.New("sync.shutdown_timeout_ms must be at least sync.poll_interval_ms")
	}
	return nil
}
