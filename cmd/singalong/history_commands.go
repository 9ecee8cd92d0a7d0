package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"singalong/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent track changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Events)
				}
				out := cmd.OutOrStdout()
				if len(resp.Events) == 0 {
					fmt.Fprintln(out, "No track changes recorded")
					return nil
				}
				fmt.Fprint(out, renderTable(
					[]string{"When", "From", "To", "Lyrics", "Lines", "Title"},
					historyRows(resp.Events, time.Now()),
					2, 3, 5,
				))
				return nil
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of events to show")
	historyCmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	historyCmd.AddCommand(newHistoryStatsCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func newHistoryStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show play counts per track",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.HistoryStats()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Tracks)
				}
				out := cmd.OutOrStdout()
				if len(resp.Tracks) == 0 {
					fmt.Fprintln(out, "No tracks recorded")
					return nil
				}
				now := time.Now()
				rows := make([][]string, 0, len(resp.Tracks))
				for _, track := range resp.Tracks {
					rows = append(rows, []string{
						strconv.FormatUint(uint64(track.TrackID), 10),
						strconv.Itoa(track.Plays),
						humanize.RelTime(track.LastSeen, now, "ago", "from now"),
						yesNo(track.HasLyrics),
						track.Title,
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"Track", "Plays", "Last Seen", "Lyrics", "Title"},
					rows,
					1, 2,
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded track changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.HistoryClear()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d events\n", resp.Removed)
				return nil
			})
		},
	}
}

func historyRows(events []ipc.HistoryEvent, now time.Time) [][]string {
	rows := make([][]string, 0, len(events))
	for _, event := range events {
		lines := ""
		if event.LineCount > 0 {
			lines = strconv.Itoa(event.LineCount)
		}
		rows = append(rows, []string{
			humanize.RelTime(event.ObservedAt, now, "ago", "from now"),
			trackLabel(event.OldTrackID),
			trackLabel(event.NewTrackID),
			event.LyricsStatus,
			lines,
			event.Title,
		})
	}
	return rows
}

func trackLabel(id uint32) string {
	if id == 0 {
		return "-"
	}
	return strconv.FormatUint(uint64(id), 10)
}
