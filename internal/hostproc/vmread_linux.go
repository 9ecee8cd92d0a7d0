//go:build linux

package hostproc

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ReadAt implements MemoryReader with process_vm_readv.
func (p *Process) ReadAt(buf []byte, addr uint64) error {
	if len(buf) == 0 {
		return nil
	}
	if addr == 0 {
		return ErrNullPointer
	}
	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(len(buf))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(buf)}}

	n, err := unix.ProcessVMReadv(p.pid, local, remote, 0)
	if err != nil {
		if errors.Is(err, unix.ESRCH) {
			return fmt.Errorf("pid %d: %w", p.pid, ErrProcessNotFound)
		}
		return fmt.Errorf("process_vm_readv pid %d: %w", p.pid, err)
	}
	if n < len(buf) {
		return fmt.Errorf("pid %d 0x%X: %w (%d of %d bytes)", p.pid, addr, ErrShortRead, n, len(buf))
	}
	return nil
}
