//go:build linux

package hostproc

import (
	"os"
	"path/filepath"
	"testing"
	"unsafe"
)

func TestProcessReadsOwnMemory(t *testing.T) {
	p, err := Attach(os.Getpid())
	if err != nil {
		t.Fatalf("Attach returned error: %v", err)
	}
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03, 0x04}
	addr := uint64(uintptr(unsafe.Pointer(&data[0])))

	v, err := ReadPointer(p, addr)
	if err != nil {
		t.Skipf("process_vm_readv unavailable: %v", err)
	}
	if v != 0x04030201EFBEADDE {
		t.Fatalf("unexpected value 0x%X", v)
	}
}

func TestProcessModuleOwnExecutable(t *testing.T) {
	exe, err := os.Executable()
	if err != nil {
		t.Skipf("executable path unavailable: %v", err)
	}
	p, err := Attach(os.Getpid())
	if err != nil {
		t.Fatalf("Attach returned error: %v", err)
	}
	span, err := p.Module(filepath.Base(exe))
	if err != nil {
		t.Fatalf("Module returned error: %v", err)
	}
	if span.Size() == 0 {
		t.Fatalf("expected non-empty module span %+v", span)
	}
}
