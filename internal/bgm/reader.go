package bgm

import (
	"fmt"

	"singalong/internal/hostproc"
	"singalong/internal/memscan"
)

// Reading is one observation of the scene table.
type Reading struct {
	TrackID   uint32
	Streaming bool
	// Scenes is nil when the table could not be reached.
	Scenes []Scene
}

// Reader decodes the scene table of a live host.
type Reader struct {
	mem   hostproc.MemoryReader
	addrs Addresses
}

// NewReader returns a Reader over mem using resolved addrs.
func NewReader(mem hostproc.MemoryReader, addrs Addresses) *Reader {
	return &Reader{mem: mem, addrs: addrs}
}

// Addresses returns the addresses the reader was built with.
func (r *Reader) Addresses() Addresses { return r.addrs }

// ReadActiveTrack reads the scene table. Null pointers along the chain are
// routine (the host is loading or on its title screen) and yield track 0
// without error. A failed read is returned so the caller can skip the tick.
func (r *Reader) ReadActiveTrack() (Reading, error) {
	if !r.addrs.Resolved() {
		return Reading{}, nil
	}
	streaming := r.readStreaming()

	manager, err := hostproc.ReadPointer(r.mem, uint64(r.addrs.SceneManager))
	if err != nil {
		return Reading{}, fmt.Errorf("read scene manager: %w", err)
	}
	if manager == 0 {
		return Reading{Streaming: streaming}, nil
	}
	listSlot, err := hostproc.Offset(manager, int64(r.addrs.SceneListOffset))
	if err != nil {
		return Reading{}, err
	}
	list, err := hostproc.ReadPointer(r.mem, listSlot)
	if err != nil {
		return Reading{}, fmt.Errorf("read scene list: %w", err)
	}
	if list == 0 {
		return Reading{Streaming: streaming}, nil
	}
	raw, err := hostproc.Read(r.mem, list, SceneCount*SceneSize)
	if err != nil {
		return Reading{}, fmt.Errorf("read scenes: %w", err)
	}
	scenes, err := DecodeScenes(raw)
	if err != nil {
		return Reading{}, err
	}
	return Reading{
		TrackID:   uint32(SelectActive(scenes)),
		Streaming: streaming,
		Scenes:    scenes,
	}, nil
}

func (r *Reader) readStreaming() bool {
	if r.addrs.MusicManager == memscan.Unresolved {
		return false
	}
	flag, err := hostproc.ReadByte(r.mem, uint64(r.addrs.MusicManager)+uint64(r.addrs.StreamingFlagOffset))
	return err == nil && flag == 1
}

// Unavailable reports silence. It stands in when the host cannot be attached.
type Unavailable struct{}

// ReadActiveTrack always returns track 0.
func (Unavailable) ReadActiveTrack() (Reading, error) { return Reading{}, nil }
