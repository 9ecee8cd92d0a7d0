package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"singalong/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	var (
		initPath  string
		overwrite bool
	)
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample configuration",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := initTarget(initPath)
			if err != nil {
				return err
			}
			if err := config.WriteSample(target, overwrite); err != nil {
				if errors.Is(err, config.ErrConfigExists) {
					return fmt.Errorf("%w (pass --overwrite to replace it)", err)
				}
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set host.process_name and the signature patterns for your game before starting the daemon.")
			return nil
		},
	}
	initCmd.Flags().StringVarP(&initPath, "path", "p", "", "Destination for the configuration file")
	initCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and check the configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			pairs := [][2]string{
				{"Host process", cfg.Host.ProcessName},
				{"Lyrics directory", cfg.Paths.LyricsDir},
				{"Sync offset", strconv.Itoa(cfg.Sync.OffsetMs) + " ms"},
			}
			fmt.Fprint(out, renderPairs(pairs))
			if !ctx.configExists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			if cfg.Signatures.Framework == "" {
				fmt.Fprintln(out, "signatures.framework is empty; streaming detection is disabled")
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			data, err := cfg.Encode()
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the resolved configuration file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ctx.configPath)
			return nil
		},
	}

	configCmd := &cobra.Command{Use: "config", Short: "Configuration utilities"}
	configCmd.AddCommand(initCmd, validateCmd, showCmd, pathCmd)
	return configCmd
}

// initTarget expands an explicit --path or falls back to the default
// location under the user's config directory.
func initTarget(flagValue string) (string, error) {
	if path := strings.TrimSpace(flagValue); path != "" {
		return config.ExpandPath(path)
	}
	return config.DefaultConfigPath()
}
