package hostproc

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"singalong/internal/memscan"
)

const defaultProcRoot = "/proc"

// textChunk bounds a single foreign read when copying an image.
const textChunk = 1 << 20

// Process is a live host process observed through the proc filesystem.
type Process struct {
	pid      int
	name     string
	procRoot string
}

// Attach returns a Process for pid after checking it exists.
func Attach(pid int) (*Process, error) {
	return attach(defaultProcRoot, pid)
}

// FindByName returns the lowest-pid process whose comm or argv[0] base name
// equals name (case-insensitive).
func FindByName(name string) (*Process, error) {
	return findByName(defaultProcRoot, name)
}

func attach(root string, pid int) (*Process, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("pid %d: %w", pid, ErrProcessNotFound)
	}
	if _, err := os.Stat(filepath.Join(root, strconv.Itoa(pid))); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("pid %d: %w", pid, ErrProcessNotFound)
		}
		return nil, fmt.Errorf("stat pid %d: %w", pid, err)
	}
	p := &Process{pid: pid, procRoot: root}
	p.name = p.readComm()
	return p, nil
}

func findByName(root, name string) (*Process, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("empty process name: %w", ErrProcessNotFound)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", root, err)
	}
	var pids []int
	for _, entry := range entries {
		if pid, err := strconv.Atoi(entry.Name()); err == nil && entry.IsDir() {
			pids = append(pids, pid)
		}
	}
	sort.Ints(pids)
	for _, pid := range pids {
		p := &Process{pid: pid, procRoot: root}
		if p.matches(name) {
			p.name = name
			return p, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrProcessNotFound)
}

// PID returns the process id.
func (p *Process) PID() int { return p.pid }

// Name returns the process name used to locate it.
func (p *Process) Name() string { return p.name }

// Alive reports whether the process still exists.
func (p *Process) Alive() bool {
	_, err := os.Stat(p.path())
	return err == nil
}

func (p *Process) path(parts ...string) string {
	return filepath.Join(append([]string{p.procRoot, strconv.Itoa(p.pid)}, parts...)...)
}

func (p *Process) readComm() string {
	raw, err := os.ReadFile(p.path("comm"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func (p *Process) matches(name string) bool {
	// comm is truncated to 15 bytes by the kernel.
	comm := p.readComm()
	if comm != "" && (strings.EqualFold(comm, name) || (len(comm) == 15 && strings.HasPrefix(strings.ToLower(name), strings.ToLower(comm)))) {
		return true
	}
	raw, err := os.ReadFile(p.path("cmdline"))
	if err != nil || len(raw) == 0 {
		return false
	}
	argv0 := string(bytes.SplitN(raw, []byte{0}, 2)[0])
	// Wine reports Windows paths in argv[0].
	argv0 = argv0[strings.LastIndexAny(argv0, `/\`)+1:]
	return strings.EqualFold(argv0, name)
}

// Mappings reads the current memory map.
func (p *Process) Mappings() ([]Mapping, error) {
	file, err := os.Open(p.path("maps"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("pid %d: %w", p.pid, ErrProcessNotFound)
		}
		return nil, fmt.Errorf("open maps: %w", err)
	}
	defer file.Close()
	return ParseMaps(file)
}

// Module returns the address range covered by the named image.
func (p *Process) Module(name string) (Mapping, error) {
	mappings, err := p.Mappings()
	if err != nil {
		return Mapping{}, err
	}
	module := ModuleMappings(mappings, name)
	if len(module) == 0 {
		return Mapping{}, fmt.Errorf("%q in pid %d: %w", name, p.pid, ErrModuleNotFound)
	}
	span := Mapping{Start: module[0].Start, End: module[0].End, Path: module[0].Path}
	for _, m := range module[1:] {
		span.Start = min(span.Start, m.Start)
		span.End = max(span.End, m.End)
	}
	return span, nil
}

// TextImage copies the readable mappings of the named image into one
// contiguous Image based at the image's lowest address. Gaps are zero-filled
// so RIP-relative arithmetic over the copy matches the live layout.
func (p *Process) TextImage(name string) (*memscan.Image, error) {
	mappings, err := p.Mappings()
	if err != nil {
		return nil, err
	}
	return CopyImage(p, ModuleMappings(mappings, name))
}

// CopyImage builds an Image from module mappings using r.
func CopyImage(r MemoryReader, module []Mapping) (*memscan.Image, error) {
	if len(module) == 0 {
		return nil, ErrModuleNotFound
	}
	start, end := module[0].Start, module[0].End
	for _, m := range module[1:] {
		start = min(start, m.Start)
		end = max(end, m.End)
	}
	data := make([]byte, end-start)
	copied := 0
	for _, m := range module {
		if !m.Readable() {
			continue
		}
		for addr := m.Start; addr < m.End; addr += textChunk {
			size := min(uint64(textChunk), m.End-addr)
			dst := data[addr-start : addr-start+size]
			if err := r.ReadAt(dst, addr); err != nil {
				if m.Executable() {
					return nil, fmt.Errorf("copy text 0x%X: %w", addr, err)
				}
				break
			}
			copied++
		}
	}
	if copied == 0 {
		return nil, fmt.Errorf("no readable mappings: %w", ErrModuleNotFound)
	}
	return &memscan.Image{Base: memscan.Address(start), Data: data}, nil
}
