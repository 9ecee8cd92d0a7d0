package memscan

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Address is a virtual address in the host process.
type Address uint64

// Unresolved marks an address that could not be located.
const Unresolved Address = 0

func (a Address) String() string {
	if a == Unresolved {
		return "unresolved"
	}
	return fmt.Sprintf("0x%X", uint64(a))
}

// Image is an immutable copy of a module's executable region.
type Image struct {
	// Base is the virtual address of Data[0].
	Base Address
	Data []byte
}

// Find returns the offset of the first match of p, scanning left to right.
func (img *Image) Find(p Pattern) (int, bool) {
	if img == nil || p.Len() == 0 || len(img.Data) < p.Len() {
		return 0, false
	}
	anchorIdx, anchorByte := p.anchor()
	last := len(img.Data) - p.Len()
	start := 0
	for start <= last {
		hit := bytes.IndexByte(img.Data[start+anchorIdx:last+anchorIdx+1], anchorByte)
		if hit < 0 {
			return 0, false
		}
		offset := start + hit
		if p.matchAt(img.Data, offset) {
			return offset, true
		}
		start = offset + 1
	}
	return 0, false
}

func (img *Image) int32At(offset int) int32 {
	return int32(binary.LittleEndian.Uint32(img.Data[offset : offset+4]))
}
