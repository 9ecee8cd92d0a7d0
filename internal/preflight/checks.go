package preflight

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"singalong/internal/config"
	"singalong/internal/hostproc"
	"singalong/internal/lyrics"
)

const ptraceScopePath = "/proc/sys/kernel/yama/ptrace_scope"

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckLyricsLibrary counts lyric files named after track ids.
func CheckLyricsLibrary(cfg *config.Config) Result {
	const name = "Lyrics directory"
	library := lyrics.New(cfg.Paths.LyricsDir, cfg.Sync.LyricsExtension)
	entries, err := library.List()
	if err != nil {
		return Result{Name: name, Detail: err.Error(), Optional: true}
	}
	if len(entries) == 0 {
		return Result{
			Name:     name,
			Detail:   fmt.Sprintf("%s (no <track id>.%s files)", library.Dir, library.Extension),
			Optional: true,
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d lyric files)", library.Dir, len(entries))}
}

// CheckPtraceScope reports whether Yama allows reading another process's memory.
func CheckPtraceScope() Result {
	return checkPtraceScope(ptraceScopePath)
}

func checkPtraceScope(path string) Result {
	const name = "Memory access"
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{Name: name, Passed: true, Detail: "Yama not present"}
		}
		return Result{Name: name, Detail: fmt.Sprintf("read %s: %v", path, err), Optional: true}
	}
	scope, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unexpected ptrace_scope %q", strings.TrimSpace(string(data))), Optional: true}
	}
	switch scope {
	case 0:
		return Result{Name: name, Passed: true, Detail: "ptrace_scope 0"}
	case 1:
		return Result{Name: name, Detail: "ptrace_scope 1 (grant CAP_SYS_PTRACE or run as the host's parent)", Optional: true}
	case 2:
		return Result{Name: name, Detail: "ptrace_scope 2 (requires CAP_SYS_PTRACE)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("ptrace_scope %d (memory reads disabled)", scope)}
	}
}

// CheckHost reports whether the configured host process is running.
func CheckHost(cfg *config.Config) Result {
	const name = "Host process"
	var (
		proc *hostproc.Process
		err  error
	)
	if cfg.Host.PID > 0 {
		proc, err = hostproc.Attach(cfg.Host.PID)
	} else {
		proc, err = hostproc.FindByName(cfg.Host.ProcessName)
	}
	if err != nil {
		if errors.Is(err, hostproc.ErrProcessNotFound) {
			return Result{Name: name, Detail: hostLabel(cfg) + " not running", Optional: true}
		}
		return Result{Name: name, Detail: err.Error(), Optional: true}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (pid %d)", proc.Name(), proc.PID())}
}

func hostLabel(cfg *config.Config) string {
	if cfg.Host.PID > 0 {
		return "pid " + strconv.Itoa(cfg.Host.PID)
	}
	return strings.TrimSpace(cfg.Host.ProcessName)
}
