package hostproc

import (
	"fmt"
	"sort"
)

// Region is a captured span of foreign memory.
type Region struct {
	Addr uint64
	Data []byte
}

// Snapshot is an in-memory MemoryReader. Reads must fall entirely within one
// region.
type Snapshot struct {
	regions []Region
}

// NewSnapshot copies regions into a new Snapshot.
func NewSnapshot(regions ...Region) *Snapshot {
	s := &Snapshot{}
	for _, region := range regions {
		s.Put(region.Addr, region.Data)
	}
	return s
}

// Put stores a copy of data at addr, replacing any region that starts there.
func (s *Snapshot) Put(addr uint64, data []byte) {
	cp := append([]byte(nil), data...)
	for i := range s.regions {
		if s.regions[i].Addr == addr {
			s.regions[i].Data = cp
			return
		}
	}
	s.regions = append(s.regions, Region{Addr: addr, Data: cp})
	sort.Slice(s.regions, func(i, j int) bool { return s.regions[i].Addr < s.regions[j].Addr })
}

// ReadAt implements MemoryReader.
func (s *Snapshot) ReadAt(p []byte, addr uint64) error {
	idx := sort.Search(len(s.regions), func(i int) bool { return s.regions[i].Addr > addr }) - 1
	if idx < 0 {
		return fmt.Errorf("0x%X: unmapped", addr)
	}
	region := s.regions[idx]
	start := addr - region.Addr
	if start >= uint64(len(region.Data)) {
		return fmt.Errorf("0x%X: unmapped", addr)
	}
	n := copy(p, region.Data[start:])
	if n < len(p) {
		return fmt.Errorf("0x%X: %w (%d of %d bytes)", addr, ErrShortRead, n, len(p))
	}
	return nil
}
