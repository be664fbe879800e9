package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/0xmhha/launcher-core/pkg/display"
	"github.com/0xmhha/launcher-core/pkg/font"
	"github.com/0xmhha/launcher-core/pkg/launcher"
	"github.com/0xmhha/launcher-core/pkg/prefs"
)

func newPrefsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "prefs", Short: "Read and edit launcher settings"}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show every stored setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := opts.formatter()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			return opts.withCore(ctx, func(core *launcher.Launcher) error {
				r, err := core.Store.Data(ctx)
				if err != nil {
					return err
				}

				settings := make([]display.Setting, 0, r.Len())
				for _, key := range r.Keys() {
					v, _ := r.Value(key)
					settings = append(settings, display.Setting{
						Key:   key,
						Kind:  string(v.Kind()),
						Value: v.String(),
					})
				}
				return f.FormatSettings(cmd.OutOrStdout(), settings)
			})
		},
	}

	whitelist := listCmd{
		use:   "whitelist",
		short: "Apps allowed during a focus session",
		title: "Focus Whitelist",
		get:   (*prefs.Prefs).Whitelist,
		add:   (*prefs.Prefs).AddToWhitelist,
		rm:    (*prefs.Prefs).RemoveFromWhitelist,
		set:   (*prefs.Prefs).SetWhitelist,
	}
	home := listCmd{
		use:   "home",
		short: "Apps on the home screen, in order",
		title: "Home Apps",
		get:   (*prefs.Prefs).HomeApps,
		add:   (*prefs.Prefs).AddHomeApp,
		rm:    (*prefs.Prefs).RemoveHomeApp,
		set:   (*prefs.Prefs).SetHomeApps,
	}

	cmd.AddCommand(
		showCmd,
		whitelist.build(opts),
		home.build(opts),
		newIconPackCmd(opts),
		newShakeCmd(opts),
		newFontCmd(opts),
	)
	return cmd
}

// listCmd describes an ordered package list setting.
type listCmd struct {
	use   string
	short string
	title string
	get   func(*prefs.Prefs, context.Context) ([]string, error)
	add   func(*prefs.Prefs, context.Context, string) error
	rm    func(*prefs.Prefs, context.Context, string) error
	set   func(*prefs.Prefs, context.Context, []string) error
}

// build returns the command with list, add, remove and set subcommands.
// Every subcommand prints the resulting list.
func (l listCmd) build(opts *globalOptions) *cobra.Command {
	run := func(edit func(context.Context, *prefs.Prefs) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			f, err := opts.formatter()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			return opts.withCore(ctx, func(core *launcher.Launcher) error {
				if edit != nil {
					if err := edit(ctx, core.Prefs); err != nil {
						return err
					}
				}
				items, err := l.get(core.Prefs, ctx)
				if err != nil {
					return err
				}
				return f.FormatList(cmd.OutOrStdout(), l.title, items)
			})
		}
	}

	cmd := &cobra.Command{
		Use:   l.use,
		Short: l.short,
		Args:  cobra.NoArgs,
		RunE:  run(nil),
	}

	listSub := &cobra.Command{
		Use:   "list",
		Short: "Show the list",
		Args:  cobra.NoArgs,
		RunE:  run(nil),
	}

	addSub := &cobra.Command{
		Use:   "add <package>",
		Short: "Append a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, p *prefs.Prefs) error {
				return l.add(p, ctx, args[0])
			})(cmd, args)
		},
	}

	removeSub := &cobra.Command{
		Use:     "remove <package>",
		Aliases: []string{"rm"},
		Short:   "Remove a package",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, p *prefs.Prefs) error {
				return l.rm(p, ctx, args[0])
			})(cmd, args)
		},
	}

	setSub := &cobra.Command{
		Use:   "set [package...]",
		Short: "Replace the list (no packages clears it)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, p *prefs.Prefs) error {
				return l.set(p, ctx, args)
			})(cmd, args)
		},
	}

	cmd.AddCommand(listSub, addSub, removeSub, setSub)
	return cmd
}

func newIconPackCmd(opts *globalOptions) *cobra.Command {
	show := func(cmd *cobra.Command, core *launcher.Launcher) error {
		pack, err := core.Prefs.SelectedIconPack(cmd.Context())
		if err != nil {
			return err
		}
		if pack == "" {
			printf(cmd.OutOrStdout(), "icon pack: none (system icons)\n")
			return nil
		}
		printf(cmd.OutOrStdout(), "icon pack: %s\n", pack)
		return nil
	}

	cmd := &cobra.Command{
		Use:   "iconpack [package]",
		Short: "Show or select the icon pack",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withCore(cmd.Context(), func(core *launcher.Launcher) error {
				if len(args) == 1 {
					if err := core.Prefs.SetSelectedIconPack(cmd.Context(), args[0]); err != nil {
						return err
					}
				}
				return show(cmd, core)
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Go back to the system icons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withCore(cmd.Context(), func(core *launcher.Launcher) error {
				if err := core.Prefs.SetSelectedIconPack(cmd.Context(), ""); err != nil {
					return err
				}
				return show(cmd, core)
			})
		},
	}

	cmd.AddCommand(clearCmd)
	return cmd
}

func newShakeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "shake [on|off]",
		Short:     "Show or change shake-to-toggle-flashlight",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withCore(ctx, func(core *launcher.Launcher) error {
				if len(args) == 1 {
					if err := core.Prefs.SetShakeEnabled(ctx, args[0] == "on"); err != nil {
						return err
					}
				}

				enabled, err := core.Prefs.ShakeEnabled(ctx)
				if err != nil {
					return err
				}
				state := "off"
				if enabled {
					state = "on"
				}
				printf(cmd.OutOrStdout(), "shake flashlight: %s\n", state)
				return nil
			})
		},
	}
}

func newFontCmd(opts *globalOptions) *cobra.Command {
	show := func(cmd *cobra.Command, core *launcher.Launcher) error {
		ctx := cmd.Context()
		size, err := core.Fonts.Size(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if f := core.Fonts.Current(); f != nil {
			printf(out, "font: %s (%s), %dpt\n", f.Name, f.Selection, size)
			return nil
		}
		if sel, ok, err := core.Fonts.Persisted(ctx); err == nil && ok {
			printf(out, "font: %s (not loadable, using system font), %dpt\n", sel, size)
			return nil
		}
		printf(out, "font: system, %dpt\n", size)
		return nil
	}

	cmd := &cobra.Command{
		Use:   "font",
		Short: "Show or change the launcher font",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withCore(cmd.Context(), func(core *launcher.Launcher) error {
				return show(cmd, core)
			})
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <res|uri|pkg> <value>",
		Short: "Apply a font (e.g. res gomono, uri /path/font.ttf, pkg com.fonts:inter)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel := font.Selection{Type: font.Type(args[0]), Value: args[1]}
			return opts.withCore(cmd.Context(), func(core *launcher.Launcher) error {
				if _, err := core.Fonts.Apply(cmd.Context(), sel); err != nil {
					return err
				}
				return show(cmd, core)
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Go back to the system font",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withCore(cmd.Context(), func(core *launcher.Launcher) error {
				if err := core.Fonts.Clear(cmd.Context()); err != nil {
					return err
				}
				return show(cmd, core)
			})
		},
	}

	sizeCmd := &cobra.Command{
		Use:   "size <points>",
		Short: fmt.Sprintf("Set the font size (%d-%d)", font.MinSize, font.MaxSize),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid font size %q: %w", args[0], err)
			}
			return opts.withCore(cmd.Context(), func(core *launcher.Launcher) error {
				if err := core.Fonts.SetSize(cmd.Context(), points); err != nil {
					return err
				}
				return show(cmd, core)
			})
		},
	}

	bundledCmd := &cobra.Command{
		Use:   "bundled",
		Short: "List the bundled fonts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := opts.formatter()
			if err != nil {
				return err
			}
			return f.FormatList(cmd.OutOrStdout(), "Bundled Fonts", font.Bundled())
		},
	}

	cmd.AddCommand(setCmd, clearCmd, sizeCmd, bundledCmd)
	return cmd
}
