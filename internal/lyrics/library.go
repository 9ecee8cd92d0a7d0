// Package lyrics maps track IDs to lyric files on disk.
package lyrics

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"singalong/internal/lrc"
)

// DefaultExtension is the lyric file suffix.
const DefaultExtension = "lrc"

// Library resolves <Dir>/<track id>.<Extension>.
type Library struct {
	Dir       string
	Extension string
}

// Entry describes one lyric file found by List.
type Entry struct {
	TrackID uint32
	Path    string
	Size    int64
}

// New returns a Library rooted at dir.
func New(dir, extension string) Library {
	extension = strings.TrimPrefix(strings.TrimSpace(extension), ".")
	if extension == "" {
		extension = DefaultExtension
	}
	return Library{Dir: dir, Extension: extension}
}

func (l Library) extension() string {
	if l.Extension == "" {
		return DefaultExtension
	}
	return l.Extension
}

// PathFor returns where the lyrics for trackID would live.
func (l Library) PathFor(trackID uint32) string {
	return filepath.Join(l.Dir, strconv.FormatUint(uint64(trackID), 10)+"."+l.extension())
}

// Load parses the lyrics for trackID. The returned path is set even on error.
func (l Library) Load(trackID uint32) (*lrc.Document, string, error) {
	path := l.PathFor(trackID)
	doc, err := lrc.LoadFile(path)
	return doc, path, err
}

// Resolve interprets ref as either a path to an existing file or a numeric
// track ID inside the library.
func (l Library) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("empty lyrics reference")
	}
	if id, err := strconv.ParseUint(ref, 10, 32); err == nil {
		if _, statErr := os.Stat(ref); statErr != nil {
			return l.PathFor(uint32(id)), nil
		}
	}
	return ref, nil
}

// List returns lyric files whose base name is a track ID, sorted by ID.
// A missing directory yields no entries.
func (l Library) List() ([]Entry, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list lyrics dir: %w", err)
	}
	suffix := "." + strings.ToLower(l.extension())
	var out []Entry
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(strings.ToLower(name), suffix) {
			continue
		}
		id, err := strconv.ParseUint(name[:len(name)-len(suffix)], 10, 32)
		if err != nil {
			continue
		}
		item := Entry{TrackID: uint32(id), Path: filepath.Join(l.Dir, name)}
		if info, err := entry.Info(); err == nil {
			item.Size = info.Size()
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrackID < out[j].TrackID })
	return out, nil
}
