package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/0xmhha/launcher-core/pkg/display"
	"github.com/0xmhha/launcher-core/pkg/focus"
	"github.com/0xmhha/launcher-core/pkg/launcher"
)

func newFocusCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "focus", Short: "Manage the focus session"}

	var sessionType, sound string
	startCmd := &cobra.Command{
		Use:   "start <duration>",
		Short: "Start a focus session (e.g. 25m, 90s or 1500)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sec, err := parseSessionLength(args[0])
			if err != nil {
				return err
			}
			var startOpts []focus.StartOption
			if sound != "" {
				startOpts = append(startOpts, focus.WithBackgroundSound(sound))
			}
			return opts.focusAction(cmd, func(ctx context.Context, e *focus.Engine) error {
				return e.Start(ctx, sec, sessionType, startOpts...)
			})
		},
	}
	startCmd.Flags().StringVar(&sessionType, "type", "focus", "session type label")
	startCmd.Flags().StringVar(&sound, "sound", "", "background sound asset")

	pauseCmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause the running session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.focusAction(cmd, func(ctx context.Context, e *focus.Engine) error {
				e.Pause(ctx)
				return nil
			})
		},
	}

	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume the paused session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.focusAction(cmd, func(ctx context.Context, e *focus.Engine) error {
				e.Resume(ctx)
				return nil
			})
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the session and forget it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.focusAction(cmd, func(ctx context.Context, e *focus.Engine) error {
				e.Stop(ctx)
				return nil
			})
		},
	}

	var follow bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the focus session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if follow {
				return opts.followFocus(cmd)
			}
			return opts.focusAction(cmd, nil)
		},
	}
	statusCmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing the countdown until the session ends")

	cmd.AddCommand(startCmd, pauseCmd, resumeCmd, stopCmd, statusCmd)
	return cmd
}

// focusAction runs fn against the focus engine and prints the resulting
// session.
func (o *globalOptions) focusAction(cmd *cobra.Command, fn func(context.Context, *focus.Engine) error) error {
	f, err := o.formatter()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	return o.withCore(ctx, func(core *launcher.Launcher) error {
		if fn != nil {
			if err := fn(ctx, core.Focus); err != nil {
				return err
			}
		}
		return f.FormatFocus(cmd.OutOrStdout(), core.Focus.Snapshot())
	})
}

// followFocus prints every countdown update until the session ends or the
// process is interrupted.
func (o *globalOptions) followFocus(cmd *cobra.Command) error {
	f, err := o.formatter()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	redraw := isTerminal(out) && o.format != string(display.FormatJSON)

	return o.withCore(ctx, func(core *launcher.Launcher) error {
		if redraw {
			printf(out, "\033[2J\033[H")
			printf(out, "Focus session - Press Ctrl+C to stop\n")
			printf(out, "%s\n\n", strings.Repeat("─", 40))
		}

		for snap := range core.Focus.Subscribe(ctx) {
			if redraw {
				// Move to line 4 (after the header) and clear to the end.
				printf(out, "\033[4;1H\033[J")
			}
			if err := f.FormatFocus(out, snap); err != nil {
				return err
			}
			if snap.State == focus.Idle {
				return nil
			}
		}
		return nil
	})
}

// parseSessionLength accepts a Go duration or a plain number of seconds.
func parseSessionLength(s string) (int, error) {
	if sec, err := strconv.Atoi(s); err == nil {
		if sec <= 0 {
			return 0, fmt.Errorf("%w: got %d", focus.ErrInvalidDuration, sec)
		}
		return sec, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid session length %q: %w", s, err)
	}
	sec := int(d / time.Second)
	if sec <= 0 {
		return 0, fmt.Errorf("%w: got %s", focus.ErrInvalidDuration, d)
	}
	return sec, nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
