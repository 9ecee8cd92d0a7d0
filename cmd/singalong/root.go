package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := &commandContext{flags: &globalFlags{}}

	root := &cobra.Command{
		Use:           "singalong",
		Short:         "Synchronized lyrics for in-game music",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipsConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&ctx.flags.socket, "socket", "", "Daemon socket path (default: <log_dir>/singalong.sock)")
	flags.StringVarP(&ctx.flags.configPath, "config", "c", "", "Configuration file path")
	flags.StringVar(&ctx.flags.logLevel, "log-level", "", "Override logging.level for this run")

	root.AddCommand(newDaemonCommands(ctx)...)
	root.AddCommand(
		newDaemonRunCommand(ctx),
		newNowCommand(ctx),
		newHistoryCommand(ctx),
		newLyricsCommand(ctx),
		newSigscanCommand(ctx),
		newLogsCommand(ctx),
		newConfigCommand(ctx),
	)
	return root
}
