package main

import (
	"github.com/spf13/cobra"

	"singalong/internal/daemonrun"
)

// newDaemonRunCommand runs the daemon in the foreground. `singalong start`
// launches this subcommand detached.
func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var development bool
	cmd := &cobra.Command{
		Use:    "daemon",
		Short:  "Run the singalong daemon in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    ctx.logLevel(cfg),
				Development: development,
				Diagnostic:  ctx.flags.diagnostic,
			})
		},
	}
	cmd.Flags().BoolVar(&ctx.flags.diagnostic, "diagnostic", false, "Also write DEBUG records to a separate log")
	cmd.Flags().BoolVar(&development, "dev", false, "Include source locations in log records")
	return cmd
}
