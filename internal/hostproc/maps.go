package hostproc

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// Mapping is one line of /proc/<pid>/maps.
type Mapping struct {
	Start  uint64
	End    uint64
	Perms  string
	Offset uint64
	Path   string
}

// Executable reports whether the mapping has the x permission.
func (m Mapping) Executable() bool { return strings.Contains(m.Perms, "x") }

// Readable reports whether the mapping has the r permission.
func (m Mapping) Readable() bool { return strings.HasPrefix(m.Perms, "r") }

// Size returns the mapping length in bytes.
func (m Mapping) Size() uint64 { return m.End - m.Start }

// ParseMaps decodes the /proc/<pid>/maps format.
func ParseMaps(r io.Reader) ([]Mapping, error) {
	var mappings []Mapping
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 5 {
			return nil, fmt.Errorf("maps line %d: expected at least 5 fields", line)
		}
		bounds := strings.SplitN(fields[0], "-", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("maps line %d: bad range %q", line, fields[0])
		}
		start, err := strconv.ParseUint(bounds[0], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("maps line %d: %w", line, err)
		}
		end, err := strconv.ParseUint(bounds[1], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("maps line %d: %w", line, err)
		}
		offset, err := strconv.ParseUint(fields[2], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("maps line %d: %w", line, err)
		}
		m := Mapping{Start: start, End: end, Perms: fields[1], Offset: offset}
		if len(fields) >= 6 {
			m.Path = strings.Join(fields[5:], " ")
		}
		mappings = append(mappings, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read maps: %w", err)
	}
	return mappings, nil
}

// ModuleMappings returns the mappings whose backing file name equals name,
// compared case-insensitively because Windows images run under Wine keep
// their original casing.
func ModuleMappings(mappings []Mapping, name string) []Mapping {
	var out []Mapping
	for _, m := range mappings {
		if m.Path == "" {
			continue
		}
		if strings.EqualFold(filepath.Base(m.Path), name) {
			out = append(out, m)
		}
	}
	return out
}
