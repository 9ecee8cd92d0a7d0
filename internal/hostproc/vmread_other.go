//go:build !linux

package hostproc

import (
	"errors"
)

var errUnsupported = errors.New("foreign memory reads are only supported on linux")

// ReadAt is unavailable on this platform.
func (p *Process) ReadAt([]byte, uint64) error {
	return errUnsupported
}
