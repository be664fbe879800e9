package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/0xmhha/launcher-core/pkg/config"
	"github.com/0xmhha/launcher-core/pkg/display"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management"}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration (YAML, or JSON with --format json)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, loader, err := opts.loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.format == string(display.FormatJSON) {
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal config: %w", err)
				}
				printf(out, "%s\n", data)
				return nil
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			printf(out, "# Current Configuration\n")
			printf(out, "# Source: %s\n\n", configSource(loader))
			printf(out, "%s", data)
			return nil
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, loader, err := opts.loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printf(out, "Configuration file search paths (in order of precedence):\n\n")
			for i, p := range searchPaths(opts.configPath) {
				exists := "not found"
				if _, err := os.Stat(p); err == nil {
					exists = "found"
				}
				printf(out, "  %d. %s [%s]\n", i+1, p, exists)
			}
			printf(out, "\nActive configuration: %s\n", configSource(loader))
			return nil
		},
	}

	var force bool
	var output string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := output
			if path == "" {
				path = config.DefaultConfigPath()
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
			}

			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Default configuration written to: %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	initCmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: ~/.config/launcher/config.yaml)")

	cmd.AddCommand(showCmd, pathCmd, initCmd)
	return cmd
}

// searchPaths lists the configuration files Load considers.
func searchPaths(explicit string) []string {
	var paths []string
	if explicit != "" {
		paths = append(paths, explicit)
	}
	if env := os.Getenv(config.EnvPrefix + "_CONFIG"); env != "" && env != explicit {
		paths = append(paths, env)
	}
	return append(paths, "./launcher.yaml", config.DefaultConfigPath())
}

func configSource(loader config.Loader) string {
	if p := loader.Path(); p != "" {
		return p
	}
	return "defaults (no config file found)"
}
