package memscan

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a signature has no match in the image.
var ErrNotFound = errors.New("signature not found")

const (
	opCallRel32 = 0xE8
	opJmpRel32  = 0xE9
)

// Resolver turns signatures into addresses within one Image.
type Resolver struct {
	image *Image
}

// NewResolver returns a Resolver over img.
func NewResolver(img *Image) *Resolver {
	return &Resolver{image: img}
}

// Image exposes the scanned image.
func (r *Resolver) Image() *Image { return r.image }

// ScanText returns the address of the first match of sig. When the match
// starts with a rel32 call or jmp, the branch target is returned instead.
func (r *Resolver) ScanText(sig string) (Address, error) {
	_, offset, err := r.find(sig)
	if err != nil {
		return Unresolved, err
	}
	if op := r.image.Data[offset]; (op == opCallRel32 || op == opJmpRel32) && offset+5 <= len(r.image.Data) {
		return r.relativeTarget(offset+1, offset+5), nil
	}
	return r.image.Base + Address(offset), nil
}

// StaticAddress resolves the RIP-relative operand of the matched instruction.
// The operand is the first run of four wildcard bytes in sig; the result is
// the address of the byte following the operand plus its signed displacement.
func (r *Resolver) StaticAddress(sig string) (Address, error) {
	p, offset, err := r.find(sig)
	if err != nil {
		return Unresolved, err
	}
	idx, ok := p.DisplacementIndex()
	if !ok {
		return Unresolved, fmt.Errorf("signature %q: no rel32 wildcard run", p)
	}
	return r.relativeTarget(offset+idx, offset+idx+4), nil
}

// FieldOffset returns the int32 immediate found at the first four-wildcard
// run of sig, typically a struct field displacement such as the 0x1A0 in
// "mov rcx, [rdi+0x1A0]".
func (r *Resolver) FieldOffset(sig string) (int32, error) {
	p, offset, err := r.find(sig)
	if err != nil {
		return 0, err
	}
	idx, ok := p.DisplacementIndex()
	if !ok {
		return 0, fmt.Errorf("signature %q: no int32 wildcard run", p)
	}
	return r.image.int32At(offset + idx), nil
}

func (r *Resolver) find(sig string) (Pattern, int, error) {
	p, err := ParsePattern(sig)
	if err != nil {
		return Pattern{}, 0, err
	}
	if r == nil || r.image == nil {
		return p, 0, fmt.Errorf("signature %q: %w", p, ErrNotFound)
	}
	offset, ok := r.image.Find(p)
	if !ok {
		return p, 0, fmt.Errorf("signature %q: %w", p, ErrNotFound)
	}
	return p, offset, nil
}

// relativeTarget computes next + int32 at dispOffset, where next is the
// image offset of the following instruction.
func (r *Resolver) relativeTarget(dispOffset, next int) Address {
	disp := r.image.int32At(dispOffset)
	return Address(int64(r.image.Base) + int64(next) + int64(disp))
}
