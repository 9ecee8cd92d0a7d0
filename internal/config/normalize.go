package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeHost(); err != nil {
		return err
	}
	c.normalizeSignatures()
	c.normalizeSync()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if value, ok := os.LookupEnv("SINGALONG_LYRICS_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.LyricsDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.LyricsDir) == "" {
		c.Paths.LyricsDir = defaultLyricsDir
	}
	if c.Paths.LyricsDir, err = ExpandPath(c.Paths.LyricsDir); err != nil {
		return fmt.Errorf("paths.lyrics_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if c.Paths.HistoryDB, err = ExpandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeHost() error {
	c.Host.ProcessName = strings.TrimSpace(c.Host.ProcessName)
	c.Host.ModuleName = strings.TrimSpace(c.Host.ModuleName)
	if c.Host.ModuleName == "" {
		c.Host.ModuleName = c.Host.ProcessName
	}
	if value, ok := os.LookupEnv("SINGALONG_HOST_PID"); ok && strings.TrimSpace(value) != "" {
		pid, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("SINGALONG_HOST_PID: %w", err)
		}
		c.Host.PID = pid
	}
	return nil
}

func (c *Config) normalizeSignatures() {
	c.Signatures.SceneManager = normalizePattern(c.Signatures.SceneManager)
	c.Signatures.MusicManager = normalizePattern(c.Signatures.MusicManager)
	c.Signatures.Framework = normalizePattern(c.Signatures.Framework)
	if c.Signatures.SceneListOffset <= 0 {
		c.Signatures.SceneListOffset = defaultSceneListOffset
	}
	if c.Signatures.StreamingFlagOffset <= 0 {
		c.Signatures.StreamingFlagOffset = defaultStreamingFlagOffset
	}
}

// normalizePattern collapses whitespace and upper-cases hex digits so
// patterns copied from different tools compare equal.
func normalizePattern(value string) string {
	return strings.ToUpper(strings.Join(strings.Fields(value), " "))
}

func (c *Config) normalizeSync() {
	if c.Sync.PollIntervalMs <= 0 {
		c.Sync.PollIntervalMs = defaultPollIntervalMs
	}
	c.Sync.LyricsExtension = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Sync.LyricsExtension)), ".")
	if c.Sync.LyricsExtension == "" {
		c.Sync.LyricsExtension = defaultLyricsExtension
	}
	if c.Sync.NotificationBuffer <= 0 {
		c.Sync.NotificationBuffer = defaultNotificationBuffer
	}
	if c.Sync.ShutdownTimeoutMs <= 0 {
		c.Sync.ShutdownTimeoutMs = defaultShutdownTimeoutMs
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
