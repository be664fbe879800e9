package icon

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/0xmhha/launcher-core/pkg/logger"
	"github.com/0xmhha/launcher-core/pkg/metrics"
	"github.com/0xmhha/launcher-core/pkg/watcher"
)

// Cache resolves icons through a Provider and keeps rendered bitmaps in
// memory and on disk.
//
// Thread-safety: all methods are safe for concurrent use. Bitmaps returned
// by Resolve are shared and must not be modified.
type Cache struct {
	cfg      Config
	provider Provider
	logger   logger.Logger
	metrics  *metrics.Metrics

	memory *memoryCache
	disk   *diskCache
	group  singleflight.Group

	memoryHits    atomic.Uint64
	diskHits      atomic.Uint64
	misses        atomic.Uint64
	diskFailures  atomic.Uint64
	providerLoads atomic.Uint64

	mu      sync.RWMutex
	closed  bool
	pending sync.WaitGroup
}

// strategy is one step of the fallback chain.
type strategy struct {
	name   string
	lookup func(ctx context.Context) (Source, error)
}

// New creates a Cache. The disk directory is created on first write.
//
// Parameters:
//   - cfg: Cache configuration (zero values select the defaults)
//   - provider: Source of raw icons
//   - log: Logger instance (nil uses the default logger)
//
// Returns:
//   - Cache ready for Resolve
//   - ErrNoProvider if provider is nil, or an error for a negative budget
func New(cfg Config, provider Provider, log logger.Logger) (*Cache, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	if log == nil {
		log = logger.Default()
	}

	if cfg.MemoryBudgetBytes < 0 {
		return nil, fmt.Errorf("invalid memory budget: %d", cfg.MemoryBudgetBytes)
	}
	// Set defaults.
	if cfg.MemoryBudgetBytes == 0 {
		cfg.MemoryBudgetBytes = DefaultMemoryBudget()
	}
	if cfg.DefaultSizePx <= 0 {
		cfg.DefaultSizePx = 128
	}
	if cfg.PrewarmConcurrency <= 0 {
		cfg.PrewarmConcurrency = 4
	}
	if cfg.TintUniformThreshold <= 0 || cfg.TintUniformThreshold > 1 {
		cfg.TintUniformThreshold = DefaultTintThreshold
	}

	c := &Cache{
		cfg:      cfg,
		provider: provider,
		logger:   log.Named("icons"),
		metrics:  cfg.Metrics,
	}
	// Create memory and disk tiers.
	c.memory = newMemoryCache(cfg.MemoryBudgetBytes, c.metrics.IconEvicted)
	if cfg.CacheDir != "" {
		c.disk = &diskCache{dir: watcher.ExpandHome(cfg.CacheDir)}
	}

	c.logger.Debug("icon cache ready",
		"dir", cfg.CacheDir,
		"budget_bytes", cfg.MemoryBudgetBytes)

	return c, nil
}

// Resolve returns the icon of pkg rendered at sizePx×sizePx, themed by
// packID when one is given. A sizePx <= 0 selects the configured default.
//
// Lookup order is memory, disk, then the provider fallback chain (icon
// pack, then the app's own icon). Concurrent calls for the same icon share
// one load. Resolve returns nil when no source was found or every source
// failed to render; it never returns an error.
func (c *Cache) Resolve(ctx context.Context, packID, pkg string, sizePx int) *image.NRGBA {
	if sizePx <= 0 {
		sizePx = c.cfg.DefaultSizePx
	}
	if c.isClosed() {
		return nil
	}

	key := CacheKey(packID, pkg, sizePx)
	if img, ok := c.memory.get(key); ok {
		c.memoryHits.Add(1)
		c.metrics.IconLookup(metrics.TierMemory, true)
		return img
	}
	c.metrics.IconLookup(metrics.TierMemory, false)

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if img, ok := c.memory.get(key); ok {
			return img, nil
		}

		if img := c.loadDisk(key); img != nil {
			c.remember(key, img)
			return img, nil
		}

		img, err := c.load(ctx, packID, pkg, sizePx)
		if err != nil {
			return nil, err
		}

		c.remember(key, img)
		c.persist(key, img)
		return img, nil
	})
	if err != nil {
		c.misses.Add(1)
		c.logger.Debug("icon unavailable",
			"pack", packID,
			"package", pkg,
			"size", sizePx,
			"error", err)
		return nil
	}

	return v.(*image.NRGBA)
}

// Tint recolors img with col using the configured uniformity threshold.
// See the package-level Tint.
func (c *Cache) Tint(img image.Image, col color.Color, sizePx int) *image.NRGBA {
	if sizePx <= 0 {
		sizePx = c.cfg.DefaultSizePx
	}
	return tint(img, col, sizePx, c.cfg.TintUniformThreshold)
}

// Prewarm resolves packages in chunks of concurrency icons, each chunk
// concurrently. Individual failures are ignored. Cancellation is checked
// between chunks. It returns the number of icons that resolved.
func (c *Cache) Prewarm(ctx context.Context, packID string, packages []string, sizePx, concurrency int) (int, error) {
	if c.isClosed() {
		return 0, ErrCacheClosed
	}
	if concurrency <= 0 {
		concurrency = c.cfg.PrewarmConcurrency
	}

	var warmed atomic.Int64
	for start := 0; start < len(packages); start += concurrency {
		if err := ctx.Err(); err != nil {
			return int(warmed.Load()), err
		}

		chunk := packages[start:min(start+concurrency, len(packages))]

		var g errgroup.Group
		for _, pkg := range chunk {
			g.Go(func() error {
				defer func() {
					if r := recover(); r != nil {
						c.logger.Warn("prewarm panicked",
							"package", pkg,
							"panic", r)
					}
				}()

				if c.Resolve(ctx, packID, pkg, sizePx) != nil {
					warmed.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	c.logger.Debug("prewarm complete",
		"pack", packID,
		"requested", len(packages),
		"warmed", warmed.Load())

	return int(warmed.Load()), nil
}

// Purge empties the memory tier. Files on disk are kept.
func (c *Cache) Purge() {
	c.memory.purge()
	c.metrics.SetIconMemoryBytes(0)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	entries, bytes, budget, evictions := c.memory.stats()

	return Stats{
		Entries:           entries,
		Bytes:             bytes,
		Budget:            budget,
		MemoryHits:        c.memoryHits.Load(),
		DiskHits:          c.diskHits.Load(),
		Misses:            c.misses.Load(),
		Evictions:         evictions,
		DiskWriteFailures: c.diskFailures.Load(),
		ProviderLoads:     c.providerLoads.Load(),
	}
}

// Close waits for pending disk writes. Further resolves return nil.
// It is safe to call more than once.
func (c *Cache) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.pending.Wait()
	return nil
}

func (c *Cache) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// load walks the fallback chain. A strategy whose source is missing or
// fails to render falls through to the next one.
func (c *Cache) load(ctx context.Context, packID, pkg string, sizePx int) (*image.NRGBA, error) {
	var chain []strategy
	if packID != "" {
		chain = append(chain, strategy{
			name: "pack",
			lookup: func(ctx context.Context) (Source, error) {
				return c.provider.PackIcon(ctx, packID, pkg)
			},
		})
	}
	chain = append(chain, strategy{
		name: "default",
		lookup: func(ctx context.Context) (Source, error) {
			return c.provider.DefaultIcon(ctx, pkg)
		},
	})

	var errs []error
	for _, s := range chain {
		c.providerLoads.Add(1)

		src, err := safeLookup(ctx, s)
		if err != nil {
			c.metrics.IconLookup(metrics.TierProvider, false)
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}

		started := time.Now()
		img, err := Render(src, sizePx)
		c.metrics.ObserveIconRender(time.Since(started).Seconds())
		if err != nil {
			c.metrics.IconLookup(metrics.TierProvider, false)
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}

		c.metrics.IconLookup(metrics.TierProvider, true)
		return img, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrNotFound, errors.Join(errs...))
}

// safeLookup runs one strategy, turning a panic into an error.
func safeLookup(ctx context.Context, s strategy) (src Source, err error) {
	defer func() {
		if r := recover(); r != nil {
			src = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	src, err = s.lookup(ctx)
	if err == nil && src == nil {
		err = ErrNotFound
	}
	return src, err
}

func (c *Cache) loadDisk(key string) *image.NRGBA {
	if c.disk == nil {
		return nil
	}

	img, err := c.disk.load(key)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("discarding unreadable cached icon",
				"key", key,
				"error", err)
			// The entry is written again once the icon is reloaded.
			if rmErr := c.disk.remove(key); rmErr != nil {
				c.logger.Warn("failed to remove cached icon",
					"key", key,
					"error", rmErr)
			}
		}
		c.metrics.IconLookup(metrics.TierDisk, false)
		return nil
	}

	c.diskHits.Add(1)
	c.metrics.IconLookup(metrics.TierDisk, true)
	return img
}

func (c *Cache) remember(key string, img *image.NRGBA) {
	c.memory.add(key, img)
	c.metrics.SetIconMemoryBytes(c.memory.usage())
}

// persist writes img to the disk tier in the background. Failures are
// logged and counted only.
func (c *Cache) persist(key string, img *image.NRGBA) {
	if c.disk == nil {
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()

		if err := c.disk.store(key, img); err != nil {
			c.diskFailures.Add(1)
			c.metrics.IconDiskWriteFailed()
			c.logger.Warn("failed to persist icon",
				"key", key,
				"error", err)
		}
	}()
}
