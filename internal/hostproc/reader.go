package hostproc

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrNullPointer is returned when asked to read through address zero.
	ErrNullPointer = errors.New("null pointer")
	// ErrShortRead is returned when fewer bytes than requested were read.
	ErrShortRead = errors.New("short read")
	// ErrProcessNotFound is returned when no process matches the requested name or pid.
	ErrProcessNotFound = errors.New("process not found")
	// ErrModuleNotFound is returned when the named image is not mapped.
	ErrModuleNotFound = errors.New("module not mapped")
)

// MemoryReader copies bytes out of a foreign address space.
type MemoryReader interface {
	// ReadAt fills p with the bytes at addr. A partial read is an error.
	ReadAt(p []byte, addr uint64) error
}

// Read copies size bytes at addr.
func Read(r MemoryReader, addr uint64, size int) ([]byte, error) {
	if addr == 0 {
		return nil, ErrNullPointer
	}
	if size < 0 {
		return nil, fmt.Errorf("read 0x%X: negative size %d", addr, size)
	}
	if addr+uint64(size) < addr {
		return nil, fmt.Errorf("read 0x%X+%d: address overflow", addr, size)
	}
	buf := make([]byte, size)
	if err := r.ReadAt(buf, addr); err != nil {
		return nil, fmt.Errorf("read 0x%X+%d: %w", addr, size, err)
	}
	return buf, nil
}

// ReadPointer reads a 64-bit pointer stored at addr. A stored value of zero
// is returned as-is; callers decide whether that is routine or an error.
func ReadPointer(r MemoryReader, addr uint64) (uint64, error) {
	buf, err := Read(r, addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// ReadByte reads a single byte at addr.
func ReadByte(r MemoryReader, addr uint64) (byte, error) {
	buf, err := Read(r, addr, 1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Offset adds a signed displacement to a base address, rejecting null bases.
func Offset(base uint64, delta int64) (uint64, error) {
	if base == 0 {
		return 0, ErrNullPointer
	}
	return uint64(int64(base) + delta), nil
}
