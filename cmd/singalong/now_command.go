package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"singalong/internal/ipc"
	"singalong/internal/lrc"
)

const minFollowInterval = 50 * time.Millisecond

func newNowCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "now",
		Short: "Print the lyric line for the playing track",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				if !follow {
					if asJSON {
						return writeJSON(cmd, status)
					}
					printNow(cmd.OutOrStdout(), status)
					return nil
				}
				runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer cancel()
				return followLyrics(runCtx, cmd.OutOrStdout(), client, status)
			})
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines as the song plays")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printNow(out io.Writer, status *ipc.StatusResponse) {
	switch {
	case status.TrackID == 0:
		fmt.Fprintln(out, "(silence)")
	case !status.LyricsLoaded:
		fmt.Fprintf(out, "track %d: no lyrics\n", status.TrackID)
	default:
		fmt.Fprintf(out, "[%s] %s\n", lrc.FormatTimestamp(time.Duration(status.ElapsedMs)*time.Millisecond), status.Lyric.Current)
	}
}

type lyricKey struct {
	trackID uint32
	index   int
	loaded  bool
}

func keyOf(status *ipc.StatusResponse) lyricKey {
	return lyricKey{trackID: status.TrackID, index: status.Lyric.LineIndex, loaded: status.LyricsLoaded}
}

// followLyrics prints each new line or track as the daemon reports it.
func followLyrics(ctx context.Context, out io.Writer, client *ipc.Client, first *ipc.StatusResponse) error {
	interval := time.Duration(first.PollIntervalMs) * time.Millisecond
	if interval < minFollowInterval {
		interval = minFollowInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := keyOf(first)
	if last.trackID != 0 {
		fmt.Fprintf(out, "== track %d ==\n", last.trackID)
	}
	printNow(out, first)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		status, err := client.Status()
		if err != nil {
			return fmt.Errorf("poll daemon: %w", err)
		}
		key := keyOf(status)
		if key == last {
			continue
		}
		if key.trackID != last.trackID && key.trackID != 0 {
			fmt.Fprintf(out, "== track %d ==\n", key.trackID)
		}
		last = key
		printNow(out, status)
	}
}
