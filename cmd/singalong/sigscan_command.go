package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"singalong/internal/bgm"
	"singalong/internal/daemon"
	"singalong/internal/memscan"
)

func newSigscanCommand(ctx *commandContext) *cobra.Command {
	var pid int
	cmd := &cobra.Command{
		Use:   "sigscan",
		Short: "Attach to the host once and report resolved addresses",
		Long: "Attach to the host process, resolve the configured signatures, and read the\n" +
			"scene table once. Useful after a host update to check whether the signatures\n" +
			"still match. Requires ptrace permission over the host.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("pid") {
				cfg.Host.PID = pid
			}
			attachment, err := daemon.AttachHost(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			addrs := attachment.Addresses
			fmt.Fprint(out, renderPairs([][2]string{
				{"Process", fmt.Sprintf("%s (pid %d)", attachment.Process.Name(), attachment.Process.PID())},
				{"Image", fmt.Sprintf("%s, %d bytes", attachment.Image.Base, len(attachment.Image.Data))},
				{"Scene manager", addrs.SceneManager.String()},
				{"Scene list offset", fmt.Sprintf("%#x", addrs.SceneListOffset)},
				{"Music manager", addrs.MusicManager.String()},
				{"Streaming flag", streamingFlagLabel(addrs)},
			}))
			for _, warning := range attachment.Warnings {
				label := "Warning"
				if !bgm.IsOptional(warning) {
					label = "Error"
				}
				fmt.Fprintf(out, "%s: %v\n", label, warning)
			}

			reading, err := attachment.Reader.ReadActiveTrack()
			if err != nil {
				return fmt.Errorf("read scene table: %w", err)
			}
			fmt.Fprintf(out, "\nActive track: %d (streaming %s)\n", reading.TrackID, yesNo(reading.Streaming))
			if len(reading.Scenes) == 0 {
				fmt.Fprintln(out, "Scene table not reachable yet")
				return nil
			}
			rows := make([][]string, 0, len(reading.Scenes))
			for _, scene := range reading.Scenes {
				rows = append(rows, []string{
					strconv.Itoa(scene.Index),
					strconv.Itoa(int(scene.SceneIndex)),
					strconv.FormatUint(uint64(scene.Reference), 10),
					strconv.FormatUint(uint64(scene.TrackID), 10),
					strconv.FormatUint(uint64(scene.PreviousTrackID), 10),
					yesNo(scene.Active()),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Slot", "Scene", "Ref", "Track", "Previous", "Active"},
				rows,
				1, 2, 3, 4, 5,
			))
			return nil
		},
	}
	cmd.Flags().IntVar(&pid, "pid", 0, "Attach to this pid instead of searching by process name")
	return cmd
}

func streamingFlagLabel(addrs bgm.Addresses) string {
	if addrs.MusicManager == memscan.Unresolved {
		return "disabled"
	}
	return fmt.Sprintf("%s+%d", addrs.MusicManager, addrs.StreamingFlagOffset)
}
