package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database locations.
type Paths struct {
	LyricsDir string `toml:"lyrics_dir"`
	LogDir    string `toml:"log_dir"`
	HistoryDB string `toml:"history_db"`
}

// Host identifies the process whose memory is observed.
type Host struct {
	ProcessName string `toml:"process_name"`
	ModuleName  string `toml:"module_name"`
	PID         int    `toml:"pid"`
}

// Signatures holds the byte patterns and fixed offsets used to locate the
// host's audio scene data. Patterns use space separated hex bytes with ?? as
// wildcard.
type Signatures struct {
	SceneManager        string `toml:"scene_manager"`
	SceneListOffset     int    `toml:"scene_list_offset"`
	MusicManager        string `toml:"music_manager"`
	Framework           string `toml:"framework"`
	StreamingFlagOffset int    `toml:"streaming_flag_offset"`
}

// Sync contains polling and lyric timing parameters.
type Sync struct {
	PollIntervalMs     int    `toml:"poll_interval_ms"`
	OffsetMs           int    `toml:"offset_ms"`
	LyricsExtension    string `toml:"lyrics_extension"`
	NotificationBuffer int    `toml:"notification_buffer"`
	ShutdownTimeoutMs  int    `toml:"shutdown_timeout_ms"`
}

// History controls the track history database.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for singalong.
//
// Configuration sections by subsystem:
//   - Paths: lyrics directory, logs/socket/lock directory, history database
//   - Host: process and module to attach to
//   - Signatures: byte patterns locating the audio scene structures
//   - Sync: poll cadence, lyric offset, notification buffering
//   - History: track history persistence
//   - Logging: log format, level, and retention
type Config struct {
	Paths      Paths      `toml:"paths"`
	Host       Host       `toml:"host"`
	Signatures Signatures `toml:"signatures"`
	Sync       Sync       `toml:"sync"`
	History    History    `toml:"history"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath is ~/.config/singalong/config.toml, expanded.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/singalong/config.toml")
}

// Load reads the configuration at path, or searches the default locations
// when path is empty. Defaults fill anything the file leaves out; a missing
// file yields pure defaults. It returns the normalized config, the path it
// resolved, and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}
	cfg := Default()
	if exists {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// locate picks the config file. An explicit path is used whether or not it
// exists; otherwise the user config wins over ./singalong.toml.
func locate(path string) (string, bool, error) {
	if strings.TrimSpace(path) != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(expanded)
		return expanded, exists, err
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	localPath, err := filepath.Abs("singalong.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, localPath} {
		if ok, _ := isFile(candidate); ok {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	}
	return !info.IsDir(), nil
}

// EnsureDirectories creates required directories for daemon operation.
// The lyrics directory is created on a best-effort basis; an empty lyrics
// directory only means no lyrics are ever shown.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	if dir := filepath.Dir(c.Paths.HistoryDB); c.History.Enabled && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.LyricsDir) != "" {
		_ = os.MkdirAll(c.Paths.LyricsDir, 0o755)
	}
	return nil
}

// PollInterval returns the track poll cadence.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Sync.PollIntervalMs) * time.Millisecond
}

// SyncOffset returns the fixed lyric compensation subtracted from elapsed time.
func (c *Config) SyncOffset() time.Duration {
	return time.Duration(c.Sync.OffsetMs) * time.Millisecond
}

// ShutdownTimeout bounds how long shutdown waits for the poll loop.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Sync.ShutdownTimeoutMs) * time.Millisecond
}

// SocketPath returns the daemon IPC socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "singalong.sock")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "singalongd.lock")
}

// ExpandPath resolves a leading ~ to the home directory and returns the
// cleaned absolute path. Empty stays empty.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", path, err)
	}
	return abs, nil
}

// ErrConfigExists is returned by WriteSample when path is already present.
var ErrConfigExists = errors.New("config file already exists")

// WriteSample writes the commented sample configuration to path. An
// existing file is replaced only when overwrite is set.
func WriteSample(path string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	if _, err := file.WriteString(sampleConfig); err != nil {
		_ = file.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return file.Close()
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
