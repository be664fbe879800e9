package icon

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // decoder registration
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/webp" // decoder registration
	"golang.org/x/sync/singleflight"

	"github.com/0xmhha/launcher-core/pkg/logger"
	"github.com/0xmhha/launcher-core/pkg/watcher"
)

// imageExts are tried in order when looking for an icon file.
var imageExts = []string{".png", ".webp", ".jpg"}

// DirProviderConfig configures a DirProvider.
type DirProviderConfig struct {
	// DefaultDir holds app icons as <package>.png.
	DefaultDir string

	// PacksDir holds one directory per installed icon pack.
	PacksDir string

	// Watch invalidates cached mapping tables when PacksDir changes.
	Watch bool

	// DebounceInterval coalesces change events.
	// Default: 100ms.
	DebounceInterval time.Duration
}

// DirProvider is a Provider backed by plain directories:
//
//	<DefaultDir>/<package>.png
//	<PacksDir>/<pack>/appfilter.xml
//	<PacksDir>/<pack>/drawable/<name>.png
//	<PacksDir>/<pack>/mipmap/<name>.png
type DirProvider struct {
	cfg    DirProviderConfig
	logger logger.Logger

	mu     sync.Mutex
	tables map[string]map[string]string
	gen    map[string]uint64
	group  singleflight.Group

	watcher watcher.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closed  bool
}

// NewDirProvider creates a DirProvider. Watching starts only when
// cfg.Watch is set and PacksDir exists.
//
// Parameters:
//   - cfg: Directory layout and watch settings
//   - log: Logger instance (nil uses the default logger)
//
// Returns:
//   - Configured DirProvider
//   - Error if the packs directory cannot be watched
func NewDirProvider(cfg DirProviderConfig, log logger.Logger) (*DirProvider, error) {
	if log == nil {
		log = logger.Default()
	}

	cfg.DefaultDir = watcher.ExpandHome(cfg.DefaultDir)
	cfg.PacksDir = watcher.ExpandHome(cfg.PacksDir)

	p := &DirProvider{
		cfg:    cfg,
		logger: log.Named("iconpacks"),
		tables: make(map[string]map[string]string),
		gen:    make(map[string]uint64),
	}

	if cfg.Watch && cfg.PacksDir != "" {
		if info, err := os.Stat(cfg.PacksDir); err == nil && info.IsDir() {
			if err := p.startWatch(); err != nil {
				return nil, err
			}
		} else {
			p.logger.Debug("icon packs directory missing, not watching", "dir", cfg.PacksDir)
		}
	}

	return p, nil
}

// DefaultIcon implements Provider.
func (p *DirProvider) DefaultIcon(ctx context.Context, pkg string) (Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validName(pkg) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, pkg)
	}
	if p.cfg.DefaultDir == "" {
		return nil, ErrNotFound
	}

	return loadImage(filepath.Join(p.cfg.DefaultDir, pkg))
}

// PackIcon implements Provider.
func (p *DirProvider) PackIcon(ctx context.Context, packID, pkg string) (Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validName(packID) || !validName(pkg) {
		return nil, fmt.Errorf("%w: %q/%q", ErrInvalidName, packID, pkg)
	}

	table, err := p.mapping(packID)
	if err != nil {
		return nil, err
	}

	name, ok := table[pkg]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotInPack, pkg, packID)
	}
	if !validName(name) {
		return nil, fmt.Errorf("%w: drawable %q", ErrInvalidName, name)
	}

	root := filepath.Join(p.cfg.PacksDir, packID)
	var errs []error
	for _, kind := range []string{"drawable", "mipmap"} {
		src, err := loadImage(filepath.Join(root, kind, name))
		if err == nil {
			return src, nil
		}
		errs = append(errs, err)
	}

	return nil, errors.Join(errs...)
}

// Packs lists installed icon packs, i.e. subdirectories of PacksDir that
// carry an appfilter.
func (p *DirProvider) Packs() ([]string, error) {
	if p.cfg.PacksDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(p.cfg.PacksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list icon packs: %w", err)
	}

	var packs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if findAppFilter(filepath.Join(p.cfg.PacksDir, e.Name())) != "" {
			packs = append(packs, e.Name())
		}
	}
	sort.Strings(packs)

	return packs, nil
}

// Invalidate drops the cached mapping table of packID, or of every pack
// when packID is empty.
func (p *DirProvider) Invalidate(packID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if packID == "" {
		for id := range p.tables {
			p.gen[id]++
		}
		clear(p.tables)
		return
	}

	p.gen[packID]++
	delete(p.tables, packID)
}

// Close stops watching. It is safe to call more than once.
func (p *DirProvider) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}

	var err error
	if p.watcher != nil {
		err = p.watcher.Close()
	}
	p.wg.Wait()

	return err
}

// mapping returns the parsed appfilter of packID, parsing it at most once
// per invalidation.
func (p *DirProvider) mapping(packID string) (map[string]string, error) {
	p.mu.Lock()
	if table, ok := p.tables[packID]; ok {
		p.mu.Unlock()
		return table, nil
	}
	gen := p.gen[packID]
	p.mu.Unlock()

	v, err, _ := p.group.Do(packID, func() (interface{}, error) {
		table, err := p.parsePack(packID)
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		// A change arrived while parsing; keep the result for this call
		// only and parse again next time.
		if p.gen[packID] == gen {
			p.tables[packID] = table
		}
		p.mu.Unlock()

		p.logger.Debug("icon pack mapping loaded",
			"pack", packID,
			"entries", len(table))
		return table, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(map[string]string), nil
}

func (p *DirProvider) parsePack(packID string) (map[string]string, error) {
	root := filepath.Join(p.cfg.PacksDir, packID)
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrPackNotFound, packID)
	}

	path := findAppFilter(root)
	if path == "" {
		return map[string]string{}, nil
	}

	f, err := os.Open(path) // nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return parseAppFilter(f)
}

func (p *DirProvider) startWatch() error {
	w, err := watcher.New(watcher.Config{
		DebounceInterval: p.cfg.DebounceInterval,
		Recursive:        true,
	}, p.logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx, []string{p.cfg.PacksDir}); err != nil {
		cancel()
		if closeErr := w.Close(); closeErr != nil {
			p.logger.Error("failed to close watcher", "error", closeErr)
		}
		return fmt.Errorf("failed to watch %s: %w", p.cfg.PacksDir, err)
	}

	p.watcher = w
	p.cancel = cancel

	p.wg.Add(1)
	go p.watchLoop(ctx, w)

	return nil
}

func (p *DirProvider) watchLoop(ctx context.Context, w watcher.Watcher) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events():
			if !ok {
				return
			}
			pack := p.packOf(ev.Path)
			p.Invalidate(pack)
			p.logger.Debug("icon pack changed",
				"pack", pack,
				"path", ev.Path,
				"op", ev.Op.String())

		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			p.logger.Warn("icon pack watch error", "error", err)
		}
	}
}

// packOf maps a path under PacksDir to its pack id ("" when unknown).
func (p *DirProvider) packOf(path string) string {
	rel, err := filepath.Rel(p.cfg.PacksDir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return first
}

func findAppFilter(root string) string {
	for _, name := range appFilterNames {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadImage decodes the first of base+ext that exists.
func loadImage(base string) (Source, error) {
	for _, ext := range imageExts {
		f, err := os.Open(base + ext) // nolint:gosec
		if err != nil {
			continue
		}

		img, _, err := image.Decode(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s%s: %w", base, ext, err)
		}
		return BitmapSource{Image: img}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(base))
}

// validName reports whether s can be used as a single path element.
func validName(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
