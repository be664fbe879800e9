// Package main provides launcherctl, a maintenance tool for the launcher
// core.
//
// It opens the same settings database, icon cache and icon packs the
// launcher uses, so sessions can be inspected or driven from a shell and
// the icon cache can be warmed or examined.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/0xmhha/launcher-core/pkg/config"
	"github.com/0xmhha/launcher-core/pkg/display"
	"github.com/0xmhha/launcher-core/pkg/launcher"
	"github.com/0xmhha/launcher-core/pkg/logger"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	format     string
	compact    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "launcherctl",
		Short:         "Inspect and drive the launcher core",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to configuration file")
	root.PersistentFlags().StringVar(&opts.format, "format", "table", "output format (table, json, simple)")
	root.PersistentFlags().BoolVar(&opts.compact, "compact", false, "compact output")

	root.AddCommand(newFocusCmd(opts))
	root.AddCommand(newIconsCmd(opts))
	root.AddCommand(newPrefsCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	return root
}

// loadConfig loads the configuration named by --config, falling back to
// the standard search path.
func (o *globalOptions) loadConfig() (*config.Config, config.Loader, error) {
	loader := config.NewLoader(o.configPath)
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, loader, nil
}

// formatter returns the display formatter selected by --format.
func (o *globalOptions) formatter() (display.Formatter, error) {
	format, err := display.ParseFormat(o.format)
	if err != nil {
		return nil, err
	}
	return display.New(display.Config{
		Format:  format,
		Compact: o.compact,
	}), nil
}

// withCore opens the launcher core, runs fn and closes the core again.
func (o *globalOptions) withCore(ctx context.Context, fn func(*launcher.Launcher) error) error {
	cfg, _, err := o.loadConfig()
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	core, err := launcher.Open(ctx, cfg, log)
	if err != nil {
		return err
	}

	runErr := fn(core)
	if err := core.Close(); err != nil {
		log.Error("failed to close launcher core", "error", err)
	}
	return runErr
}

// printf writes to the command output, ignoring write errors the way the
// standard fmt.Printf callers do.
func printf(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}
