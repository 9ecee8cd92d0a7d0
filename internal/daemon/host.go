package daemon

import (
	"errors"
	"fmt"

	"singalong/internal/bgm"
	"singalong/internal/config"
	"singalong/internal/hostproc"
	"singalong/internal/memscan"
)

// Attachment is a host process with resolved scene table addresses.
type Attachment struct {
	Process   *hostproc.Process
	Image     *memscan.Image
	Addresses bgm.Addresses
	// Warnings are resolution failures that did not prevent attaching.
	Warnings []error
	Reader   *bgm.Reader
}

// SignaturesFromConfig converts configured signatures.
func SignaturesFromConfig(cfg *config.Config) bgm.Signatures {
	return bgm.Signatures{
		SceneManager:        cfg.Signatures.SceneManager,
		SceneListOffset:     cfg.Signatures.SceneListOffset,
		MusicManager:        cfg.Signatures.MusicManager,
		Framework:           cfg.Signatures.Framework,
		StreamingFlagOffset: cfg.Signatures.StreamingFlagOffset,
	}
}

// AttachHost finds the configured host process, copies its image, and
// resolves addresses. It fails only when the scene table cannot be located.
func AttachHost(cfg *config.Config) (*Attachment, error) {
	var (
		proc *hostproc.Process
		err  error
	)
	if cfg.Host.PID > 0 {
		proc, err = hostproc.Attach(cfg.Host.PID)
	} else {
		proc, err = hostproc.FindByName(cfg.Host.ProcessName)
	}
	if err != nil {
		return nil, err
	}

	module := cfg.Host.ModuleName
	if module == "" {
		module = proc.Name()
	}
	img, err := proc.TextImage(module)
	if err != nil {
		return nil, fmt.Errorf("copy %s image: %w", module, err)
	}

	addrs, errs := bgm.Resolve(memscan.NewResolver(img), proc, SignaturesFromConfig(cfg))
	if !addrs.Resolved() {
		return nil, fmt.Errorf("resolve scene table in pid %d: %w", proc.PID(), errors.Join(errs...))
	}
	return &Attachment{
		Process:   proc,
		Image:     img,
		Addresses: addrs,
		Warnings:  errs,
		Reader:    bgm.NewReader(proc, addrs),
	}, nil
}
