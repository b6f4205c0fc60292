package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"photodistributor/internal/config"
	"photodistributor/internal/preflight"
	"photodistributor/internal/services"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set paths.sources and paths.destination, then run `photodistributor plan`.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the config file (defaults to ~/.config/photodistributor/config.toml)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate the configuration and check the configured paths",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, resolved, exists, err := config.Load(path)
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "config", "load", "", err)
			}

			out := cmd.OutOrStdout()
			colorize := isTerminal(out)
			fmt.Fprintln(out, renderSectionHeader("Configuration", colorize))
			fmt.Fprintln(out, renderStatusLine("Config path", statusInfo, resolved, colorize))
			if !exists {
				fmt.Fprintln(out, renderStatusLine("Config file", statusWarn, "not found; defaults used", colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Threshold", statusInfo, fmt.Sprintf("%d (directories hold up to %d files)", cfg.Organize.Threshold, 2*cfg.Organize.Threshold), colorize))
			fmt.Fprintln(out, renderStatusLine("Quarantine", statusInfo, filepath.Join(cfg.Paths.Destination, cfg.Organize.QuarantineDir), colorize))
			fmt.Fprintln(out, renderStatusLine("Formats", statusInfo, fmt.Sprintf("%d extensions", len(cfg.ExtensionSet())), colorize))

			if err := cfg.ValidateRun(); err != nil {
				fmt.Fprintln(out, renderStatusLine("Run settings", statusError, err.Error(), colorize))
				return services.Wrap(services.ErrConfiguration, "config", "validate", "", err)
			}
			fmt.Fprintln(out, renderStatusLine("Run settings", statusOK, "", colorize))

			results := preflight.RunAll(cmd.Context(), cfg)
			fmt.Fprintln(out, renderSectionHeader("Paths", colorize))
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			if err := preflight.Err(results); err != nil {
				return services.Wrap(services.ErrConfiguration, "config", "validate", "", err)
			}
			fmt.Fprintln(out, "Configuration valid ("+preflight.Summary(results)+")")
			return nil
		},
	}
}
