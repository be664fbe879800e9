// Package launcher wires the launcher core together: settings store,
// preferences, focus engine, icon cache, font manager and the shake
// flashlight.
//
// One Launcher is meant to live for the whole process. Tests build fresh
// instances against temporary directories.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/0xmhha/launcher-core/pkg/config"
	"github.com/0xmhha/launcher-core/pkg/focus"
	"github.com/0xmhha/launcher-core/pkg/font"
	"github.com/0xmhha/launcher-core/pkg/icon"
	"github.com/0xmhha/launcher-core/pkg/logger"
	"github.com/0xmhha/launcher-core/pkg/metrics"
	"github.com/0xmhha/launcher-core/pkg/prefs"
	"github.com/0xmhha/launcher-core/pkg/shake"
	"github.com/0xmhha/launcher-core/pkg/store"
)

// Launcher holds every core component.
type Launcher struct {
	Config    *config.Config
	Metrics   *metrics.Metrics
	Store     *store.Store
	Prefs     *prefs.Prefs
	Focus     *focus.Engine
	IconPacks *icon.DirProvider
	Icons     *icon.Cache
	Fonts     *font.Manager

	// Shake is nil unless a torch was supplied with WithTorch.
	Shake *shake.Manager

	logger  logger.Logger
	closers []closer
}

type closer struct {
	name string
	fn   func() error
}

// Option customizes Open.
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
	clock      focus.Clock
	torch      shake.Torch
}

// WithRegisterer registers the core's metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithClock replaces the focus engine's clock.
func WithClock(c focus.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithTorch enables the shake flashlight manager.
func WithTorch(t shake.Torch) Option {
	return func(o *options) {
		o.torch = t
	}
}

// Open builds the core from cfg. On error every component created so far
// is closed again.
//
// Parameters:
//   - ctx: Context for the startup reads (focus recovery, font reapply)
//   - cfg: Launcher configuration (nil uses config.Default())
//   - log: Logger instance (nil uses the default logger)
//   - opts: Optional metrics registerer, clock and torch
//
// Returns:
//   - Launcher with every component open
//   - Error if the configuration is invalid or a component fails to open
func Open(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Launcher, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if log == nil {
		log = logger.Default()
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	l := &Launcher{
		Config:  cfg,
		Metrics: metrics.New(o.registerer),
		logger:  log.Named("launcher"),
	}

	if err := l.open(ctx, log, o); err != nil {
		if closeErr := l.Close(); closeErr != nil {
			l.logger.Warn("cleanup after failed open", "error", closeErr)
		}
		return nil, err
	}

	l.logger.Info("launcher core ready",
		"db", cfg.Storage.DBPath,
		"focus_state", l.Focus.State().String())

	return l, nil
}

func (l *Launcher) open(ctx context.Context, log logger.Logger, o options) error {
	cfg := l.Config

	// Open settings store.
	s, err := store.Open(store.Config{
		Path:             cfg.Storage.DBPath,
		DebounceInterval: cfg.Watch.DebounceInterval,
		DisableWatch:     cfg.Watch.Disabled,
		Metrics:          l.Metrics,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to open settings: %w", err)
	}
	l.Store = s
	l.onClose("store", s.Close)

	l.Prefs = prefs.New(s, log)

	// Create focus engine; this recovers a persisted session.
	engine, err := focus.New(ctx, s, focus.Config{
		TickInterval:      cfg.Focus.TickInterval,
		HeartbeatInterval: cfg.Focus.HeartbeatInterval,
		Clock:             o.clock,
		Metrics:           l.Metrics,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create focus engine: %w", err)
	}
	l.Focus = engine
	l.onClose("focus", engine.Close)

	// Create icon provider and cache.
	provider, err := icon.NewDirProvider(icon.DirProviderConfig{
		DefaultDir:       cfg.Storage.DefaultIconsDir,
		PacksDir:         cfg.Storage.IconPacksDir,
		Watch:            !cfg.Watch.Disabled,
		DebounceInterval: cfg.Watch.DebounceInterval,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create icon provider: %w", err)
	}
	l.IconPacks = provider
	l.onClose("icon packs", provider.Close)

	icons, err := icon.New(icon.Config{
		CacheDir:             cfg.Storage.IconCacheDir,
		MemoryBudgetBytes:    cfg.Icons.MemoryBudgetBytes,
		DefaultSizePx:        cfg.Icons.DefaultSizePx,
		PrewarmConcurrency:   cfg.Icons.PrewarmConcurrency,
		TintUniformThreshold: cfg.Icons.TintUniformThreshold,
		Metrics:              l.Metrics,
	}, provider, log)
	if err != nil {
		return fmt.Errorf("failed to create icon cache: %w", err)
	}
	l.Icons = icons
	l.onClose("icons", icons.Close)

	// Create font manager.
	fonts, err := font.New(s, font.Config{FontsDir: cfg.Storage.FontsDir}, log)
	if err != nil {
		return fmt.Errorf("failed to create font manager: %w", err)
	}
	l.Fonts = fonts
	l.onClose("fonts", fonts.Close)

	// A font that no longer loads leaves the system font in place.
	if _, err := fonts.Reapply(ctx); err != nil {
		l.logger.Warn("persisted font not applied", "error", err)
	}

	if o.torch != nil {
		l.Shake = shake.NewManager(l.Prefs, o.torch, log)
	}

	return nil
}

func (l *Launcher) onClose(name string, fn func() error) {
	l.closers = append(l.closers, closer{name: name, fn: fn})
}

// Close shuts the components down in reverse order of creation. It is
// safe to call more than once.
func (l *Launcher) Close() error {
	var errs []error
	for i := len(l.closers) - 1; i >= 0; i-- {
		c := l.closers[i]
		if err := c.fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	l.closers = nil

	return errors.Join(errs...)
}

// SelectedIcon resolves pkg through the icon pack currently selected in
// the settings.
// A nil image means no icon could be found.
func (l *Launcher) SelectedIcon(ctx context.Context, pkg string, sizePx int) (*image.NRGBA, error) {
	pack, err := l.Prefs.SelectedIconPack(ctx)
	if err != nil {
		return nil, err
	}
	return l.Icons.Resolve(ctx, pack, pkg, sizePx), nil
}

// PrewarmHome resolves the home screen apps through the selected icon pack.
func (l *Launcher) PrewarmHome(ctx context.Context, sizePx int) (int, error) {
	pack, err := l.Prefs.SelectedIconPack(ctx)
	if err != nil {
		return 0, err
	}
	apps, err := l.Prefs.HomeApps(ctx)
	if err != nil {
		return 0, err
	}
	return l.Icons.Prewarm(ctx, pack, apps, sizePx, 0)
}
