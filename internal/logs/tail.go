package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	maxLineBytes = 1024 * 1024
	pollInterval = 250 * time.Millisecond
)

// TailOptions selects which part of the log to return.
type TailOptions struct {
	// Offset < 0 means the last Limit lines; otherwise read from Offset.
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
	// Contains keeps only lines holding this substring, case-insensitively.
	Contains string
}

// TailResult holds lines and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads lines from path. A missing file yields no lines and offset 0.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return TailResult{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}
	if opts.Wait < 0 {
		opts.Wait = 0
	}
	match := matcher(opts.Contains)

	var result TailResult
	if opts.Offset < 0 {
		result, err = readLast(path, opts.Limit, match)
	} else {
		offset := opts.Offset
		if offset > info.Size() {
			// The file was truncated or replaced; start over at its end.
			offset = info.Size()
		}
		result, err = readFrom(path, offset, match)
	}
	if err != nil {
		return result, err
	}
	if opts.Follow && opts.Wait > 0 && len(result.Lines) == 0 {
		return follow(ctx, path, result.Offset, opts.Wait, match)
	}
	return result, nil
}

func matcher(needle string) func(string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return func(string) bool { return true }
	}
	return func(line string) bool {
		return strings.Contains(strings.ToLower(line), needle)
	}
}

func scan(r io.Reader, each func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		each(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read log file: %w", err)
	}
	return nil
}

// readLast keeps a ring of the last limit matching lines.
func readLast(path string, limit int, match func(string) bool) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return TailResult{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return TailResult{}, fmt.Errorf("seek log file: %w", err)
		}
		return TailResult{Offset: end}, nil
	}

	ring := make([]string, 0, limit)
	start := 0
	err = scan(file, func(line string) {
		if !match(line) {
			return
		}
		if len(ring) < limit {
			ring = append(ring, line)
			return
		}
		ring[start] = line
		start = (start + 1) % limit
	})
	if err != nil {
		return TailResult{}, err
	}
	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return TailResult{}, fmt.Errorf("determine log offset: %w", err)
	}

	lines := make([]string, 0, len(ring))
	lines = append(lines, ring[start:]...)
	lines = append(lines, ring[:start]...)
	return TailResult{Lines: lines, Offset: end}, nil
}

func readFrom(path string, offset int64, match func(string) bool) (TailResult, error) {
	result := TailResult{Offset: offset}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return result, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return result, fmt.Errorf("seek log file: %w", err)
	}
	err = scan(file, func(line string) {
		if match(line) {
			result.Lines = append(result.Lines, line)
		}
	})
	if err != nil {
		return result, err
	}
	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return result, fmt.Errorf("determine log offset: %w", err)
	}
	result.Offset = end
	return result, nil
}

func follow(ctx context.Context, path string, offset int64, wait time.Duration, match func(string) bool) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	result := TailResult{Offset: offset}
	for {
		next, err := readFrom(path, result.Offset, match)
		if err != nil {
			return result, err
		}
		result.Offset = next.Offset
		if len(next.Lines) > 0 {
			result.Lines = next.Lines
			return result, nil
		}
		if !time.Now().Before(deadline) {
			return result, nil
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}
