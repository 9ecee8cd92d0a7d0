package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"singalong/internal/config"
	"singalong/internal/lrc"
	"singalong/internal/lyrics"
)

func newLyricsCommand(ctx *commandContext) *cobra.Command {
	lyricsCmd := &cobra.Command{
		Use:   "lyrics",
		Short: "Inspect lyric files without the daemon",
	}
	lyricsCmd.AddCommand(newLyricsListCommand(ctx))
	lyricsCmd.AddCommand(newLyricsShowCommand(ctx))
	lyricsCmd.AddCommand(newLyricsAtCommand(ctx))
	return lyricsCmd
}

func libraryFor(cfg *config.Config) lyrics.Library {
	return lyrics.New(cfg.Paths.LyricsDir, cfg.Sync.LyricsExtension)
}

// loadLyrics resolves ref as a path or track id. Empty documents are
// returned with their error so callers can still show metadata.
func loadLyrics(ctx *commandContext, ref string) (*lrc.Document, string, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, "", err
	}
	path, err := libraryFor(cfg).Resolve(ref)
	if err != nil {
		return nil, "", err
	}
	path, err = config.ExpandPath(path)
	if err != nil {
		return nil, "", err
	}
	doc, err := lrc.LoadFile(path)
	return doc, path, err
}

func newLyricsListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List lyric files in the lyrics directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			library := libraryFor(cfg)
			entries, err := library.List()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No lyric files in %s\n", library.Dir)
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				title := ""
				if doc, err := lrc.LoadFile(entry.Path); doc != nil {
					title = doc.Metadata.Title
					if err != nil {
						title = strings.TrimSpace(title + " (no timed lines)")
					}
				}
				rows = append(rows, []string{
					strconv.FormatUint(uint64(entry.TrackID), 10),
					humanize.IBytes(uint64(entry.Size)),
					title,
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Track", "Size", "Title"},
				rows,
				1, 2,
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newLyricsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <track-id|path>",
		Short: "Show a parsed lyric file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, path, err := loadLyrics(ctx, args[0])
			if doc == nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, doc)
			}
			out := cmd.OutOrStdout()
			pairs := [][2]string{{"File", path}}
			for _, field := range []struct{ label, value string }{
				{"Title", doc.Metadata.Title},
				{"Artist", doc.Metadata.Artist},
				{"Album", doc.Metadata.Album},
				{"Author", doc.Metadata.Author},
			} {
				if field.value != "" {
					pairs = append(pairs, [2]string{field.label, field.value})
				}
			}
			if doc.Metadata.Offset != 0 {
				pairs = append(pairs, [2]string{"Offset", fmt.Sprintf("%dms", doc.Metadata.Offset)})
			}
			pairs = append(pairs, [2]string{"Lines", strconv.Itoa(len(doc.Lines))})
			if doc.IsLoaded() {
				pairs = append(pairs, [2]string{"Length", lrc.FormatTimestamp(doc.Duration())})
			}
			fmt.Fprint(out, renderPairs(pairs))
			if errors.Is(err, lrc.ErrNoLyrics) {
				fmt.Fprintln(out, "No timed lines found")
				return nil
			}

			rows := make([][]string, 0, len(doc.Lines))
			for _, line := range doc.Lines {
				rows = append(rows, []string{lrc.FormatTimestamp(line.Timestamp), line.Text})
			}
			fmt.Fprint(out, renderTable([]string{"Time", "Text"}, rows, 1))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newLyricsAtCommand(ctx *commandContext) *cobra.Command {
	var offsetMs int
	cmd := &cobra.Command{
		Use:   "at <track-id|path> <elapsed>",
		Short: "Show the line sung at an elapsed time (mm:ss.fff or milliseconds)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			elapsed, err := lrc.ParseTimestamp(args[1])
			if err != nil {
				return err
			}
			doc, path, err := loadLyrics(ctx, args[0])
			if err != nil {
				return err
			}

			sync := lrc.Synchronizer{Offset: ctx.configValue().SyncOffset()}
			if cmd.Flags().Changed("offset") {
				sync.Offset = time.Duration(offsetMs) * time.Millisecond
			}
			cue := sync.Window(doc, elapsed)

			pairs := [][2]string{
				{"File", path},
				{"Elapsed", lrc.FormatTimestamp(elapsed)},
				{"Sync offset", fmt.Sprintf("%dms", sync.Offset.Milliseconds())},
			}
			current := cue.Current
			if cue.Index < 0 {
				current = "(before first line)"
			}
			pairs = append(pairs, [2]string{"Current", current})
			if cue.HasNext {
				pairs = append(pairs, [2]string{"Next", fmt.Sprintf("%s  @ %s", cue.Next, lrc.FormatTimestamp(cue.NextAt))})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderPairs(pairs))
			return nil
		},
	}
	cmd.Flags().IntVar(&offsetMs, "offset", 0, "Override sync.offset_ms")
	return cmd
}
