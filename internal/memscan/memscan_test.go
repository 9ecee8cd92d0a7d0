package memscan_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"singalong/internal/memscan"
)

func TestParsePattern(t *testing.T) {
	tests := []struct {
		name    string
		sig     string
		wantLen int
		wantErr bool
	}{
		{name: "plain", sig: "48 8B 05", wantLen: 3},
		{name: "wildcards", sig: "48 ?? ? C0", wantLen: 4},
		{name: "extra spaces", sig: "  48   8b\t05 ", wantLen: 3},
		{name: "empty", sig: "   ", wantErr: true},
		{name: "bad hex", sig: "48 GG", wantErr: true},
		{name: "long token", sig: "488B", wantErr: true},
		{name: "all wildcards", sig: "?? ??", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := memscan.ParsePattern(tt.sig)
			if tt.wantErr {
				if !errors.Is(err, memscan.ErrInvalidPattern) {
					t.Fatalf("expected ErrInvalidPattern, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePattern returned error: %v", err)
			}
			if p.Len() != tt.wantLen {
				t.Fatalf("expected len %d, got %d", tt.wantLen, p.Len())
			}
		})
	}
}

func TestDisplacementIndex(t *testing.T) {
	p := memscan.MustParsePattern("48 ?? 8B 05 ?? ?? ?? ?? 48")
	idx, ok := p.DisplacementIndex()
	if !ok || idx != 4 {
		t.Fatalf("expected index 4, got %d ok=%v", idx, ok)
	}
	if _, ok := memscan.MustParsePattern("48 ?? ?? ?? 48").DisplacementIndex(); ok {
		t.Fatal("expected no four-wildcard run")
	}
}

func TestFindFirstMatchLeftToRight(t *testing.T) {
	img := &memscan.Image{Base: 0x1000, Data: []byte{0x00, 0x48, 0x8B, 0x01, 0x48, 0x8B, 0x02, 0x48, 0x8B, 0x05}}
	off, ok := img.Find(memscan.MustParsePattern("48 8B ??"))
	if !ok || off != 1 {
		t.Fatalf("expected first match at 1, got %d ok=%v", off, ok)
	}
	off, ok = img.Find(memscan.MustParsePattern("48 8B 05"))
	if !ok || off != 7 {
		t.Fatalf("expected match at tail offset 7, got %d ok=%v", off, ok)
	}
	if _, ok := img.Find(memscan.MustParsePattern("8B 05 00")); ok {
		t.Fatal("expected no match running past the end")
	}
}

func TestFindLeadingWildcard(t *testing.T) {
	img := &memscan.Image{Data: []byte{0xAA, 0xBB, 0xCC}}
	off, ok := img.Find(memscan.MustParsePattern("?? BB CC"))
	if !ok || off != 0 {
		t.Fatalf("expected match at 0, got %d ok=%v", off, ok)
	}
	if _, ok := img.Find(memscan.MustParsePattern("?? AA")); ok {
		t.Fatal("expected no match")
	}
}

// buildImage places code at offset 0x10 of a zeroed 0x100 byte image.
func buildImage(base memscan.Address, code []byte) *memscan.Image {
	data := make([]byte, 0x100)
	copy(data[0x10:], code)
	return &memscan.Image{Base: base, Data: data}
}

func rel32(v int32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, uint32(v))
	return out
}

func TestStaticAddressResolvesRIPRelative(t *testing.T) {
	// mov rax, [rip+0x40]; test rax, rax
	code := append([]byte{0x48, 0x8B, 0x05}, rel32(0x40)...)
	code = append(code, 0x48, 0x85, 0xC0)
	img := buildImage(0x140000000, code)

	addr, err := memscan.NewResolver(img).StaticAddress("48 8B 05 ?? ?? ?? ?? 48 85 C0")
	if err != nil {
		t.Fatalf("StaticAddress returned error: %v", err)
	}
	want := memscan.Address(0x140000000 + 0x10 + 7 + 0x40)
	if addr != want {
		t.Fatalf("expected %s, got %s", want, addr)
	}
}

func TestStaticAddressNegativeDisplacement(t *testing.T) {
	code := append([]byte{0x48, 0x8B, 0x05}, rel32(-0x10)...)
	img := buildImage(0x2000, code)
	addr, err := memscan.NewResolver(img).StaticAddress("48 8B 05 ?? ?? ?? ??")
	if err != nil {
		t.Fatalf("StaticAddress returned error: %v", err)
	}
	if want := memscan.Address(0x2000 + 0x17 - 0x10); addr != want {
		t.Fatalf("expected %s, got %s", want, addr)
	}
}

func TestScanTextFollowsCall(t *testing.T) {
	code := append([]byte{0xE8}, rel32(0x20)...)
	code = append(code, 0x90, 0xC3)
	img := buildImage(0x1000, code)
	r := memscan.NewResolver(img)

	addr, err := r.ScanText("E8 ?? ?? ?? ?? 90 C3")
	if err != nil {
		t.Fatalf("ScanText returned error: %v", err)
	}
	if want := memscan.Address(0x1000 + 0x10 + 5 + 0x20); addr != want {
		t.Fatalf("expected call target %s, got %s", want, addr)
	}

	addr, err = r.ScanText("90 C3")
	if err != nil {
		t.Fatalf("ScanText returned error: %v", err)
	}
	if want := memscan.Address(0x1000 + 0x15); addr != want {
		t.Fatalf("expected match address %s, got %s", want, addr)
	}
}

func TestFieldOffset(t *testing.T) {
	code := append([]byte{0x48, 0x8B, 0x8F}, rel32(0x1A0)...)
	code = append(code, 0x85, 0xC0)
	img := buildImage(0, code)
	off, err := memscan.NewResolver(img).FieldOffset("48 8B 8F ?? ?? ?? ?? 85 C0")
	if err != nil {
		t.Fatalf("FieldOffset returned error: %v", err)
	}
	if off != 0x1A0 {
		t.Fatalf("expected 0x1A0, got 0x%X", off)
	}
}

func TestResolverNotFound(t *testing.T) {
	r := memscan.NewResolver(buildImage(0, nil))
	if _, err := r.ScanText("DE AD BE EF"); !errors.Is(err, memscan.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.StaticAddress("DE AD ?? ?? ?? ??"); !errors.Is(err, memscan.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := memscan.NewResolver(nil).ScanText("DE AD"); !errors.Is(err, memscan.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for nil image, got %v", err)
	}
}

func TestAddressString(t *testing.T) {
	if memscan.Unresolved.String() != "unresolved" {
		t.Fatalf("unexpected %q", memscan.Unresolved.String())
	}
	if memscan.Address(0x1A).String() != "0x1A" {
		t.Fatalf("unexpected %q", memscan.Address(0x1A).String())
	}
}
