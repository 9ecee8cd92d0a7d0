package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"singalong/internal/ipc"
)

// followWait is how long the daemon holds a follow request open when no
// new lines have arrived.
const followWait = 1000

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		follow bool
		lines  int
		grep   string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the daemon log, optionally following it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := ipc.LogTailRequest{
				Offset:     -1,
				Limit:      max(lines, 0),
				Follow:     follow,
				WaitMillis: followWait,
				Contains:   grep,
			}
			if req.Limit == 0 {
				req.Offset = 0
			}
			return ctx.withClient(func(client *ipc.Client) error {
				return tailLog(cmd.Context(), client, req, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Lines of history to print first (0 for the whole file)")
	cmd.Flags().StringVar(&grep, "grep", "", "Only print lines containing this text")
	return cmd
}

// tailLog prints the requested lines and, when following, keeps polling
// from the returned offset until ctx ends.
func tailLog(ctx context.Context, client *ipc.Client, req ipc.LogTailRequest, out io.Writer) error {
	printed := 0
	for {
		resp, err := client.LogTail(req)
		if err != nil {
			return fmt.Errorf("tail logs: %w", err)
		}
		for _, line := range resp.Lines {
			fmt.Fprintln(out, line)
		}
		printed += len(resp.Lines)
		if !req.Follow {
			if printed == 0 {
				fmt.Fprintln(out, "No log entries available")
			}
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		req.Offset, req.Limit = resp.Offset, 0
	}
}
