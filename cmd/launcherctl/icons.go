package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/0xmhha/launcher-core/pkg/icon"
	"github.com/0xmhha/launcher-core/pkg/launcher"
)

func newIconsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "icons", Short: "Resolve and cache app icons"}

	var (
		pack    string
		sizePx  int
		outPath string
		tint    string
	)

	resolveCmd := &cobra.Command{
		Use:   "resolve <package>",
		Short: "Resolve one app icon through the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tintColor color.Color
			if tint != "" {
				c, err := parseHexColor(tint)
				if err != nil {
					return err
				}
				tintColor = c
			}

			ctx := cmd.Context()
			return opts.withCore(ctx, func(core *launcher.Launcher) error {
				packID, err := packOrSelected(cmd, core, pack)
				if err != nil {
					return err
				}

				img := core.Icons.Resolve(ctx, packID, args[0], sizePx)
				if img == nil {
					return fmt.Errorf("%w: %s", icon.ErrNotFound, args[0])
				}
				if tintColor != nil {
					img = core.Icons.Tint(img, tintColor, img.Bounds().Dx())
				}

				if outPath != "" {
					if err := writePNG(outPath, img); err != nil {
						return err
					}
				}

				source := packID
				if source == "" {
					source = icon.SystemPack
				}
				b := img.Bounds()
				printf(cmd.OutOrStdout(), "%s: %dx%d (%s)\n", args[0], b.Dx(), b.Dy(), source)
				return nil
			})
		},
	}
	resolveCmd.Flags().StringVar(&pack, "pack", "", "icon pack (default: the selected pack)")
	resolveCmd.Flags().IntVar(&sizePx, "size", 0, "icon edge length in pixels (default from config)")
	resolveCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the icon to this PNG file")
	resolveCmd.Flags().StringVar(&tint, "tint", "", "tint the icon with a #rrggbb color")

	var concurrency int
	prewarmCmd := &cobra.Command{
		Use:   "prewarm [package...]",
		Short: "Render icons into the cache (default: the home screen apps)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withCore(ctx, func(core *launcher.Launcher) error {
				var (
					n   int
					err error
				)
				if len(args) == 0 && !cmd.Flags().Changed("pack") {
					n, err = core.PrewarmHome(ctx, sizePx)
				} else {
					packID, perr := packOrSelected(cmd, core, pack)
					if perr != nil {
						return perr
					}
					pkgs := args
					if len(pkgs) == 0 {
						if pkgs, perr = core.Prefs.HomeApps(ctx); perr != nil {
							return perr
						}
					}
					n, err = core.Icons.Prewarm(ctx, packID, pkgs, sizePx, concurrency)
				}
				if err != nil {
					return err
				}

				printf(cmd.OutOrStdout(), "prewarmed %d icons\n", n)
				return nil
			})
		},
	}
	prewarmCmd.Flags().StringVar(&pack, "pack", "", "icon pack (default: the selected pack)")
	prewarmCmd.Flags().IntVar(&sizePx, "size", 0, "icon edge length in pixels (default from config)")
	prewarmCmd.Flags().IntVar(&concurrency, "concurrency", 0, "icons rendered at once (default from config)")

	statsCmd := &cobra.Command{
		Use:   "stats [package...]",
		Short: "Show icon cache statistics, optionally after resolving packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.formatter()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			return opts.withCore(ctx, func(core *launcher.Launcher) error {
				for _, pkg := range args {
					if _, err := core.SelectedIcon(ctx, pkg, sizePx); err != nil {
						return err
					}
				}
				return f.FormatIconStats(cmd.OutOrStdout(), core.Icons.Stats())
			})
		},
	}
	statsCmd.Flags().IntVar(&sizePx, "size", 0, "icon edge length in pixels (default from config)")

	packsCmd := &cobra.Command{
		Use:   "packs",
		Short: "List installed icon packs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := opts.formatter()
			if err != nil {
				return err
			}

			return opts.withCore(cmd.Context(), func(core *launcher.Launcher) error {
				packs, err := core.IconPacks.Packs()
				if err != nil {
					return err
				}
				return f.FormatList(cmd.OutOrStdout(), "Icon Packs", packs)
			})
		},
	}

	cmd.AddCommand(resolveCmd, prewarmCmd, statsCmd, packsCmd)
	return cmd
}

// packOrSelected returns the --pack flag when set, otherwise the pack
// selected in the settings.
func packOrSelected(cmd *cobra.Command, core *launcher.Launcher, pack string) (string, error) {
	if cmd.Flags().Changed("pack") {
		return pack, nil
	}
	return core.Prefs.SelectedIconPack(cmd.Context())
}

// writePNG encodes img to path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path) // nolint:gosec
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// parseHexColor parses #rrggbb or #rrggbbaa.
func parseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: want #rrggbb or #rrggbbaa", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}

	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}
