package prefs

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/0xmhha/launcher-core/pkg/logger"
	"github.com/0xmhha/launcher-core/pkg/store"
)

// Prefs reads and edits launcher settings.
type Prefs struct {
	store  *store.Store
	logger logger.Logger
}

// New creates a facade over s.
func New(s *store.Store, log logger.Logger) *Prefs {
	return &Prefs{
		store:  s,
		logger: log.Named("prefs"),
	}
}

// Store returns the underlying store.
func (p *Prefs) Store() *store.Store {
	return p.store
}

func whitelistOf(r store.Record) []string {
	return store.NormalizeSet(r.Collection(FocusWhitelist))
}

func homeAppsOf(r store.Record) []string {
	return r.Collection(HomeAppsOrdered)
}

// Whitelist returns the focus whitelist, sorted.
func (p *Prefs) Whitelist(ctx context.Context) ([]string, error) {
	r, err := p.store.Data(ctx)
	if err != nil {
		return nil, err
	}
	return whitelistOf(r), nil
}

// WatchWhitelist streams the focus whitelist.
func (p *Prefs) WatchWhitelist(ctx context.Context) <-chan []string {
	return store.WatchFunc(ctx, p.store, whitelistOf, slices.Equal[[]string, string])
}

// AddToWhitelist adds pkg to the focus whitelist.
func (p *Prefs) AddToWhitelist(ctx context.Context, pkg string) error {
	pkg = strings.TrimSpace(pkg)
	if pkg == "" {
		return ErrEmptyPackage
	}

	return p.editWhitelist(ctx, func(current []string) []string {
		return append(current, pkg)
	})
}

// RemoveFromWhitelist removes pkg from the focus whitelist.
func (p *Prefs) RemoveFromWhitelist(ctx context.Context, pkg string) error {
	return p.editWhitelist(ctx, func(current []string) []string {
		return slices.DeleteFunc(current, func(s string) bool { return s == pkg })
	})
}

// SetWhitelist replaces the focus whitelist. An empty set removes the key.
func (p *Prefs) SetWhitelist(ctx context.Context, pkgs []string) error {
	return p.editWhitelist(ctx, func([]string) []string {
		return slices.Clone(pkgs)
	})
}

func (p *Prefs) editWhitelist(ctx context.Context, fn func([]string) []string) error {
	var result []string
	err := p.store.Edit(ctx, func(e *store.Editor) error {
		result = store.NormalizeSet(fn(whitelistOf(e.Record())))
		putCollection(e, FocusWhitelist, result)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update whitelist: %w", err)
	}

	p.logger.Debug("whitelist updated", "packages", result)
	return nil
}

// HomeApps returns the ordered home screen apps.
func (p *Prefs) HomeApps(ctx context.Context) ([]string, error) {
	r, err := p.store.Data(ctx)
	if err != nil {
		return nil, err
	}
	return homeAppsOf(r), nil
}

// WatchHomeApps streams the ordered home screen apps.
func (p *Prefs) WatchHomeApps(ctx context.Context) <-chan []string {
	return store.WatchFunc(ctx, p.store, homeAppsOf, slices.Equal[[]string, string])
}

// SetHomeApps replaces the home screen apps, keeping the first occurrence
// of each package.
func (p *Prefs) SetHomeApps(ctx context.Context, pkgs []string) error {
	ordered := dedupOrdered(pkgs)
	if len(ordered) > MaxHomeApps {
		return fmt.Errorf("%w: %d apps, at most %d", ErrHomeAppsFull, len(ordered), MaxHomeApps)
	}

	return p.editHomeApps(ctx, func([]string) ([]string, error) {
		return ordered, nil
	})
}

// AddHomeApp appends pkg to the home screen. Adding a package that is
// already present is a no-op.
func (p *Prefs) AddHomeApp(ctx context.Context, pkg string) error {
	pkg = strings.TrimSpace(pkg)
	if pkg == "" {
		return ErrEmptyPackage
	}

	return p.editHomeApps(ctx, func(current []string) ([]string, error) {
		if slices.Contains(current, pkg) {
			return current, nil
		}
		if len(current) >= MaxHomeApps {
			return nil, ErrHomeAppsFull
		}
		return append(current, pkg), nil
	})
}

// RemoveHomeApp removes pkg from the home screen.
func (p *Prefs) RemoveHomeApp(ctx context.Context, pkg string) error {
	return p.editHomeApps(ctx, func(current []string) ([]string, error) {
		return slices.DeleteFunc(current, func(s string) bool { return s == pkg }), nil
	})
}

func (p *Prefs) editHomeApps(ctx context.Context, fn func([]string) ([]string, error)) error {
	var result []string
	err := p.store.Edit(ctx, func(e *store.Editor) error {
		next, err := fn(homeAppsOf(e.Record()))
		if err != nil {
			return err
		}
		result = dedupOrdered(next)
		putCollection(e, HomeAppsOrdered, result)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update home apps: %w", err)
	}

	p.logger.Debug("home apps updated", "packages", result)
	return nil
}

// SelectedIconPack returns the selected icon pack, or "" for system icons.
func (p *Prefs) SelectedIconPack(ctx context.Context) (string, error) {
	return store.Get(ctx, p.store, IconPackPackage, "")
}

// WatchSelectedIconPack streams the selected icon pack.
func (p *Prefs) WatchSelectedIconPack(ctx context.Context) <-chan string {
	return store.Watch(ctx, p.store, IconPackPackage, "")
}

// SetSelectedIconPack selects an icon pack. An empty name selects the
// system icons.
func (p *Prefs) SetSelectedIconPack(ctx context.Context, pkg string) error {
	pkg = strings.TrimSpace(pkg)

	err := p.store.Edit(ctx, func(e *store.Editor) error {
		if pkg == "" {
			e.Remove(IconPackPackage)
			return nil
		}
		store.Put(e, IconPackPackage, pkg)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to select icon pack: %w", err)
	}

	if pkg == "" {
		p.logger.Info("icon pack cleared, using system icons")
	} else {
		p.logger.Info("icon pack selected", "package", pkg)
	}
	return nil
}

// ShakeEnabled reports whether shake-to-toggle-flashlight is on.
func (p *Prefs) ShakeEnabled(ctx context.Context) (bool, error) {
	return store.Get(ctx, p.store, ShakeFlashlightEnabled, false)
}

// WatchShakeEnabled streams the shake-to-toggle-flashlight setting.
func (p *Prefs) WatchShakeEnabled(ctx context.Context) <-chan bool {
	return store.Watch(ctx, p.store, ShakeFlashlightEnabled, false)
}

// SetShakeEnabled turns shake-to-toggle-flashlight on or off.
func (p *Prefs) SetShakeEnabled(ctx context.Context, enabled bool) error {
	if err := store.Set(ctx, p.store, ShakeFlashlightEnabled, enabled); err != nil {
		return fmt.Errorf("failed to update shake setting: %w", err)
	}
	return nil
}

// putCollection stores items as a pipe-delimited string, removing the key
// when there are none.
func putCollection(e *store.Editor, k store.Key[string], items []string) {
	if len(items) == 0 {
		e.Remove(k)
		return
	}
	store.Put(e, k, store.JoinCollection(items))
}

func dedupOrdered(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
