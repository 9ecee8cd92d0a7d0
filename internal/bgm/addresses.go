package bgm

import (
	"errors"
	"fmt"

	"singalong/internal/hostproc"
	"singalong/internal/memscan"
)

// Signatures describes how to locate the scene table and music manager.
type Signatures struct {
	// SceneManager matches an instruction loading the scene manager pointer
	// through a RIP-relative operand.
	SceneManager    string
	SceneListOffset int
	// MusicManager matches "mov rcx, [rdi+disp32]" where disp32 is the music
	// manager field offset inside the framework object.
	MusicManager string
	// Framework matches an instruction loading the framework instance pointer.
	// Empty disables streaming detection.
	Framework           string
	StreamingFlagOffset int
}

const (
	defaultSceneListOffset     = 0xC0
	defaultStreamingFlagOffset = 50
)

// Addresses holds the values resolved once at startup.
type Addresses struct {
	// SceneManager is the static slot holding the scene manager pointer.
	SceneManager    memscan.Address
	SceneListOffset int
	// MusicManager is the music manager object, read once through the framework.
	MusicManager        memscan.Address
	StreamingFlagOffset int
}

// Resolved reports whether the scene table can be located.
func (a Addresses) Resolved() bool { return a.SceneManager != memscan.Unresolved }

// Resolve locates every address it can. Each failure is returned and leaves
// its address Unresolved; no failure is fatal.
func Resolve(resolver *memscan.Resolver, reader hostproc.MemoryReader, sigs Signatures) (Addresses, []error) {
	addrs := Addresses{
		SceneListOffset:     sigs.SceneListOffset,
		StreamingFlagOffset: sigs.StreamingFlagOffset,
	}
	if addrs.SceneListOffset <= 0 {
		addrs.SceneListOffset = defaultSceneListOffset
	}
	if addrs.StreamingFlagOffset <= 0 {
		addrs.StreamingFlagOffset = defaultStreamingFlagOffset
	}

	var errs []error
	base, err := resolver.StaticAddress(sigs.SceneManager)
	if err != nil {
		errs = append(errs, fmt.Errorf("scene manager: %w", err))
	} else {
		addrs.SceneManager = base
	}

	music, err := resolveMusicManager(resolver, reader, sigs)
	if err != nil {
		errs = append(errs, fmt.Errorf("music manager: %w", err))
	} else {
		addrs.MusicManager = music
	}
	return addrs, errs
}

var errFrameworkUnset = errors.New("framework signature not configured")

func resolveMusicManager(resolver *memscan.Resolver, reader hostproc.MemoryReader, sigs Signatures) (memscan.Address, error) {
	if sigs.MusicManager == "" {
		return memscan.Unresolved, errors.New("signature not configured")
	}
	if sigs.Framework == "" {
		return memscan.Unresolved, errFrameworkUnset
	}
	fieldOffset, err := resolver.FieldOffset(sigs.MusicManager)
	if err != nil {
		return memscan.Unresolved, err
	}
	slot, err := resolver.StaticAddress(sigs.Framework)
	if err != nil {
		return memscan.Unresolved, fmt.Errorf("framework: %w", err)
	}
	framework, err := hostproc.ReadPointer(reader, uint64(slot))
	if err != nil {
		return memscan.Unresolved, fmt.Errorf("framework instance: %w", err)
	}
	fieldAddr, err := hostproc.Offset(framework, int64(fieldOffset))
	if err != nil {
		return memscan.Unresolved, fmt.Errorf("framework instance: %w", err)
	}
	music, err := hostproc.ReadPointer(reader, fieldAddr)
	if err != nil {
		return memscan.Unresolved, err
	}
	if music == 0 {
		return memscan.Unresolved, hostproc.ErrNullPointer
	}
	return memscan.Address(music), nil
}

// IsOptional reports whether err only concerns streaming detection.
func IsOptional(err error) bool {
	return errors.Is(err, errFrameworkUnset)
}
