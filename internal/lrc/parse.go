package lrc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrNotFound is returned when a lyric file does not exist.
	ErrNotFound = fmt.Errorf("lyrics file not found: %w", fs.ErrNotExist)
	// ErrNoLyrics is returned when a file parses to zero timed lines.
	ErrNoLyrics = errors.New("no timed lyric lines")
)

var (
	metadataPattern = regexp.MustCompile(`\[([a-zA-Z]+):([^\]]*)\]`)
	timedPattern    = regexp.MustCompile(`\[(\d{2}):(\d{2})\.(\d{2,3})\](.*)`)
)

// Parse reads a lyric file. A leading UTF-8 BOM is dropped and UTF-16 input
// with a BOM is transcoded.
func Parse(r io.Reader) (*Document, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(transform.Nop))
	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read lyrics: %w", err)
	}
	return ParseLines(lines), nil
}

// ParseLines parses already split lines in a single pass. An [offset:] tag
// applies to timed lines that come after it.
func ParseLines(lines []string) *Document {
	doc := &Document{}
	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := metadataPattern.FindStringSubmatch(line); m != nil {
			applyTag(&doc.Metadata, m[1], m[2])
			continue
		}
		if m := timedPattern.FindStringSubmatch(line); m != nil {
			doc.Lines = append(doc.Lines, Line{
				Timestamp: lineTimestamp(m[1], m[2], m[3], doc.Metadata.Offset),
				Text:      strings.TrimSpace(m[4]),
			})
		}
	}
	sort.SliceStable(doc.Lines, func(i, j int) bool {
		return doc.Lines[i].Timestamp < doc.Lines[j].Timestamp
	})
	return doc
}

func applyTag(meta *Metadata, tag, value string) {
	switch strings.ToLower(tag) {
	case "ti":
		meta.Title = value
	case "ar":
		meta.Artist = value
	case "al":
		meta.Album = value
	case "by":
		meta.Author = value
	case "offset":
		if offset, err := strconv.ParseInt(strings.TrimSpace(value), 10, 32); err == nil {
			meta.Offset = int32(offset)
		}
	}
}

// lineTimestamp converts the captured groups. The regex guarantees digits.
func lineTimestamp(minutes, seconds, fraction string, offsetMs int32) time.Duration {
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)
	ms, _ := strconv.Atoi(fraction)
	if len(fraction) == 2 {
		ms *= 10
	}
	ts := time.Duration(m)*time.Minute + time.Duration(s)*time.Second + time.Duration(ms)*time.Millisecond
	return ts + time.Duration(offsetMs)*time.Millisecond
}

// LoadFile parses the lyric file at path. A file without timed lines returns
// the parsed document together with ErrNoLyrics.
func LoadFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("open lyrics: %w", err)
	}
	defer file.Close()

	doc, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !doc.IsLoaded() {
		return doc, fmt.Errorf("%s: %w", path, ErrNoLyrics)
	}
	return doc, nil
}
