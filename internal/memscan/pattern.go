package memscan

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPattern reports a malformed signature string.
var ErrInvalidPattern = errors.New("invalid signature")

// Pattern is a parsed signature. Mask[i] is false for wildcard positions.
type Pattern struct {
	text  string
	Bytes []byte
	Mask  []bool
}

// ParsePattern parses space separated hex bytes with ?? (or ?) wildcards.
func ParsePattern(sig string) (Pattern, error) {
	fields := strings.Fields(sig)
	if len(fields) == 0 {
		return Pattern{}, fmt.Errorf("%w: empty", ErrInvalidPattern)
	}
	p := Pattern{
		text:  strings.Join(fields, " "),
		Bytes: make([]byte, len(fields)),
		Mask:  make([]bool, len(fields)),
	}
	for i, field := range fields {
		if field == "?" || field == "??" {
			continue
		}
		if len(field) != 2 {
			return Pattern{}, fmt.Errorf("%w: token %d %q", ErrInvalidPattern, i, field)
		}
		value, err := strconv.ParseUint(field, 16, 8)
		if err != nil {
			return Pattern{}, fmt.Errorf("%w: token %d %q", ErrInvalidPattern, i, field)
		}
		p.Bytes[i] = byte(value)
		p.Mask[i] = true
	}
	if p.wildcardOnly() {
		return Pattern{}, fmt.Errorf("%w: no fixed bytes", ErrInvalidPattern)
	}
	return p, nil
}

// MustParsePattern is ParsePattern for compile-time constants.
func MustParsePattern(sig string) Pattern {
	p, err := ParsePattern(sig)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the pattern length in bytes.
func (p Pattern) Len() int { return len(p.Bytes) }

func (p Pattern) String() string { return p.text }

// DisplacementIndex returns the index of the first run of four consecutive
// wildcards, the conventional placeholder for a rel32 operand.
func (p Pattern) DisplacementIndex() (int, bool) {
	run := 0
	for i, fixed := range p.Mask {
		if fixed {
			run = 0
			continue
		}
		run++
		if run == 4 {
			return i - 3, true
		}
	}
	return 0, false
}

func (p Pattern) wildcardOnly() bool {
	for _, fixed := range p.Mask {
		if fixed {
			return false
		}
	}
	return true
}

// matchAt reports whether p matches data starting at offset.
func (p Pattern) matchAt(data []byte, offset int) bool {
	for i, b := range p.Bytes {
		if p.Mask[i] && data[offset+i] != b {
			return false
		}
	}
	return true
}

// anchor returns the first fixed byte and its index, used to skip ahead with
// bytes.IndexByte.
func (p Pattern) anchor() (int, byte) {
	for i, fixed := range p.Mask {
		if fixed {
			return i, p.Bytes[i]
		}
	}
	return 0, 0
}
