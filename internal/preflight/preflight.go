package preflight

import (
	"context"

	"singalong/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
	// Optional failures degrade output instead of blocking it.
	Optional bool `json:"optional,omitempty"`
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	lyricsDir := CheckDirectoryAccess("Lyrics directory", cfg.Paths.LyricsDir)
	if lyricsDir.Passed {
		lyricsDir = CheckLyricsLibrary(cfg)
	}
	results = append(results, lyricsDir)
	results = append(results, CheckPtraceScope())
	if ctx.Err() != nil {
		return results
	}
	results = append(results, CheckHost(cfg))
	return results
}

// Failed filters results down to failed checks.
func Failed(results []Result) []Result {
	var out []Result
	for _, result := range results {
		if !result.Passed {
			out = append(out, result)
		}
	}
	return out
}
