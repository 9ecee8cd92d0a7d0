package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"singalong/internal/daemonctl"
	"singalong/internal/ipc"
	"singalong/internal/lrc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startDiagnostic bool
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the singalong daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := daemonLaunchOptions(ctx, startDiagnostic)
			if err != nil {
				return err
			}
			waitCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			result, err := ctx.controller().Start(waitCtx, opts)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}
			printStartState(stdout, result, false)
			return nil
		},
	}
	startCmd.Flags().BoolVar(&startDiagnostic, "diagnostic", false, "Enable diagnostic mode with separate DEBUG logs")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the singalong daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			waitCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			result, err := ctx.controller().Stop(waitCtx)

			stdout := cmd.OutOrStdout()
			switch {
			case errors.Is(err, daemonctl.ErrDaemonNotRunning):
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			case err != nil:
				return err
			case result.ForcedKill:
				fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var restartDiagnostic bool
	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the singalong daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := daemonLaunchOptions(ctx, restartDiagnostic)
			if err != nil {
				return err
			}
			waitCtx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			result, err := ctx.controller().Restart(waitCtx, opts, 5*time.Second)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			if result.WasRunning {
				fmt.Fprintln(stdout, "Daemon stopped")
			}
			printStartState(stdout, result.Start, true)
			return nil
		},
	}
	restartCmd.Flags().BoolVar(&restartDiagnostic, "diagnostic", false, "Enable diagnostic mode with separate DEBUG logs")

	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, host, and lyric status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snapshot, err := daemonctl.New(ctx.socketPath(), cfg).Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if statusJSON {
				return writeJSON(cmd, snapshot)
			}
			renderStatus(cmd.OutOrStdout(), snapshot, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")

	reloadCmd := &cobra.Command{
		Use:   "reload",
		Short: "Re-read the playing track's lyric file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Reload()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch {
				case resp.TrackID == 0:
					fmt.Fprintln(out, "No track playing")
				case resp.Loaded:
					fmt.Fprintf(out, "Reloaded %s (%d lines)\n", resp.Lyric.LyricsPath, resp.Lyric.LineCount)
				default:
					fmt.Fprintf(out, "Track %d has no lyrics (%s)\n", resp.TrackID, resp.Lyric.Status)
				}
				return nil
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd, reloadCmd}
}

func renderStatus(out io.Writer, snapshot *daemonctl.StatusSnapshot, colorize bool) {
	w := statusWriter{out: out, color: colorize}
	status := snapshot.Daemon

	w.section("Daemon")
	switch {
	case !snapshot.Reachable:
		w.line("Singalong", levelWarn, "Not running (run `singalong start`)")
	case status.Running:
		detail := fmt.Sprintf("Running (pid %d)", status.PID)
		if !status.StartedAt.IsZero() {
			detail += " since " + status.StartedAt.Local().Format(time.DateTime)
		}
		w.line("Singalong", levelOK, detail)
	default:
		w.line("Singalong", levelWarn, fmt.Sprintf("Idle (pid %d)", status.PID))
	}
	switch {
	case !snapshot.Reachable:
	case status.HostAttached:
		w.line("Host", levelOK, fmt.Sprintf("Attached (pid %d)", status.HostPID))
		w.line("Scene table", levelInfo, status.Addresses.SceneManager)
		music := levelOK
		if status.Addresses.MusicManager == "unresolved" {
			music = levelWarn
		}
		w.line("Music manager", music, status.Addresses.MusicManager)
	default:
		w.line("Host", levelWarn, "Not attached")
	}
	w.blank()

	w.section("Readiness")
	for _, check := range snapshot.Checks {
		w.line(check.Name, checkLevel(check), check.Detail)
	}
	if !snapshot.Reachable {
		return
	}
	w.blank()
	w.section("Now Playing")
	fmt.Fprint(out, renderPairs(nowPlayingPairs(&status)))
}

func nowPlayingPairs(status *ipc.StatusResponse) [][2]string {
	if status.TrackID == 0 {
		return [][2]string{{"Track", "silence"}}
	}
	elapsed := time.Duration(status.ElapsedMs) * time.Millisecond
	pairs := [][2]string{
		{"Track", fmt.Sprintf("%d", status.TrackID)},
		{"Elapsed", lrc.FormatTimestamp(elapsed)},
		{"Streaming", yesNo(status.Streaming)},
	}
	if !status.LyricsLoaded {
		reason := status.Lyric.Status
		if reason == "" {
			reason = "loading"
		}
		return append(pairs, [2]string{"Lyrics", reason})
	}
	if title := songTitle(status.Lyric); title != "" {
		pairs = append(pairs, [2]string{"Song", title})
	}
	pairs = append(pairs,
		[2]string{"Lyrics", fmt.Sprintf("%s (%d lines)", status.Lyric.LyricsPath, status.Lyric.LineCount)},
		[2]string{"Current", status.Lyric.Current},
	)
	if status.Lyric.HasNext {
		next := time.Duration(status.Lyric.NextAtMs) * time.Millisecond
		pairs = append(pairs, [2]string{"Next", fmt.Sprintf("%s  @ %s", status.Lyric.Next, lrc.FormatTimestamp(next))})
	}
	return pairs
}

func songTitle(lyric ipc.Lyric) string {
	title := strings.TrimSpace(lyric.Title)
	artist := strings.TrimSpace(lyric.Artist)
	if title != "" && artist != "" {
		return title + " - " + artist
	}
	return title + artist
}

func printStartState(out io.Writer, result daemonctl.StartResult, restarted bool) {
	switch {
	case result.State == daemonctl.StartStateRequested:
		fmt.Fprintln(out, result.Message)
	case restarted:
		fmt.Fprintln(out, "Daemon restarted")
	case result.State == daemonctl.StartStateAlreadyRunning:
		fmt.Fprintln(out, "Daemon already running")
	default:
		fmt.Fprintln(out, "Daemon started")
	}
}

func daemonLaunchOptions(ctx *commandContext, diagnostic bool) (daemonctl.LaunchOptions, error) {
	exe, err := os.Executable()
	if err != nil {
		return daemonctl.LaunchOptions{}, fmt.Errorf("resolve executable: %w", err)
	}
	opts := daemonctl.LaunchOptions{Executable: exe, Diagnostic: diagnostic}
	opts.ConfigPath = strings.TrimSpace(ctx.flags.configPath)
	return opts, nil
}
