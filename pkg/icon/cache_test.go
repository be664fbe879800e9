package icon

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/launcher-core/pkg/logger"
	"github.com/0xmhha/launcher-core/pkg/metrics"
)

// fakeProvider serves solid-color icons and counts calls.
type fakeProvider struct {
	defaults map[string]Source
	packs    map[string]map[string]Source

	defaultCalls atomic.Int32
	packCalls    atomic.Int32

	// gate, when set, blocks DefaultIcon until closed.
	gate chan struct{}
}

func (p *fakeProvider) DefaultIcon(ctx context.Context, pkg string) (Source, error) {
	p.defaultCalls.Add(1)
	if p.gate != nil {
		<-p.gate
	}
	if src, ok := p.defaults[pkg]; ok {
		return src, nil
	}
	return nil, ErrNotFound
}

func (p *fakeProvider) PackIcon(ctx context.Context, packID, pkg string) (Source, error) {
	p.packCalls.Add(1)
	if src, ok := p.packs[packID][pkg]; ok {
		return src, nil
	}
	return nil, ErrNotInPack
}

func solid(c color.Color, size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

var (
	red   = color.NRGBA{R: 0xff, A: 0xff}
	green = color.NRGBA{G: 0xff, A: 0xff}
	blue  = color.NRGBA{B: 0xff, A: 0xff}
	white = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

func newTestCache(t *testing.T, cfg Config, p Provider) *Cache {
	t.Helper()

	if cfg.MemoryBudgetBytes == 0 {
		cfg.MemoryBudgetBytes = MinMemoryBudget
	}

	c, err := New(cfg, p, logger.Noop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if closeErr := c.Close(); closeErr != nil {
			t.Logf("Close() error = %v", closeErr)
		}
	})
	return c
}

func TestNewRequiresProvider(t *testing.T) {
	_, err := New(Config{}, nil, logger.Noop())
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestResolveServedFromMemory(t *testing.T) {
	p := &fakeProvider{defaults: map[string]Source{
		"com.example": BitmapSource{Image: solid(red, 32)},
	}}
	c := newTestCache(t, Config{CacheDir: t.TempDir()}, p)
	ctx := context.Background()

	first := c.Resolve(ctx, "", "com.example", 64)
	require.NotNil(t, first)
	assert.Equal(t, image.Rect(0, 0, 64, 64), first.Bounds())

	second := c.Resolve(ctx, "", "com.example", 64)
	require.NotNil(t, second)

	assert.Same(t, first, second)
	assert.Equal(t, first.Pix, second.Pix)
	assert.Equal(t, int32(1), p.defaultCalls.Load(), "second resolve must not reach the provider")

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.MemoryHits)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(4*64*64), stats.Bytes)
}

func TestResolveServedFromDisk(t *testing.T) {
	dir := t.TempDir()
	p := &fakeProvider{defaults: map[string]Source{
		"com.example": BitmapSource{Image: solid(color.NRGBA{R: 10, G: 20, B: 30, A: 200}, 16)},
	}}
	ctx := context.Background()

	c1, err := New(Config{CacheDir: dir, MemoryBudgetBytes: MinMemoryBudget}, p, logger.Noop())
	require.NoError(t, err)
	first := c1.Resolve(ctx, "", "com.example", 16)
	require.NotNil(t, first)
	require.NoError(t, c1.Close())

	_, err = os.Stat(filepath.Join(dir, CacheKey("", "com.example", 16)+".png"))
	require.NoError(t, err)

	c2 := newTestCache(t, Config{CacheDir: dir}, p)
	second := c2.Resolve(ctx, "", "com.example", 16)
	require.NotNil(t, second)

	assert.Equal(t, first.Pix, second.Pix)
	assert.Equal(t, int32(1), p.defaultCalls.Load())
	assert.Equal(t, uint64(1), c2.Stats().DiskHits)
}

func TestResolveReplacesCorruptDiskEntry(t *testing.T) {
	dir := t.TempDir()
	key := CacheKey("", "com.example", 8)
	require.NoError(t, os.WriteFile(filepath.Join(dir, key+".png"), []byte("not a png"), 0600))

	p := &fakeProvider{defaults: map[string]Source{
		"com.example": ColorSource{Color: blue},
	}}
	ctx := context.Background()

	c1 := newTestCache(t, Config{CacheDir: dir}, p)
	img := c1.Resolve(ctx, "", "com.example", 8)
	require.NotNil(t, img)
	assert.Equal(t, blue, img.NRGBAAt(4, 4))
	assert.Equal(t, int32(1), p.defaultCalls.Load())
	assert.Equal(t, uint64(0), c1.Stats().DiskHits)
	require.NoError(t, c1.Close())

	// The corrupt entry was replaced, so a new cache reads it from disk.
	c2 := newTestCache(t, Config{CacheDir: dir}, p)
	again := c2.Resolve(ctx, "", "com.example", 8)
	require.NotNil(t, again)
	assert.Equal(t, img.Pix, again.Pix)
	assert.Equal(t, uint64(1), c2.Stats().DiskHits)
	assert.Equal(t, int32(1), p.defaultCalls.Load())
}

func TestResolveFallbackChain(t *testing.T) {
	ctx := context.Background()

	t.Run("pack wins", func(t *testing.T) {
		p := &fakeProvider{
			defaults: map[string]Source{"app": ColorSource{Color: red}},
			packs:    map[string]map[string]Source{"pack": {"app": ColorSource{Color: green}}},
		}
		c := newTestCache(t, Config{}, p)

		img := c.Resolve(ctx, "pack", "app", 4)
		require.NotNil(t, img)
		assert.Equal(t, green, img.NRGBAAt(0, 0))
		assert.Equal(t, int32(0), p.defaultCalls.Load())
	})

	t.Run("unmapped falls back to default", func(t *testing.T) {
		p := &fakeProvider{
			defaults: map[string]Source{"app": ColorSource{Color: red}},
			packs:    map[string]map[string]Source{"pack": {}},
		}
		c := newTestCache(t, Config{}, p)

		img := c.Resolve(ctx, "pack", "app", 4)
		require.NotNil(t, img)
		assert.Equal(t, red, img.NRGBAAt(0, 0))
	})

	t.Run("render failure falls back", func(t *testing.T) {
		p := &fakeProvider{
			defaults: map[string]Source{"app": ColorSource{Color: red}},
			packs: map[string]map[string]Source{"pack": {
				"app": DrawableFunc(func(draw.Image, image.Rectangle) error {
					return errors.New("broken asset")
				}),
			}},
		}
		c := newTestCache(t, Config{}, p)

		img := c.Resolve(ctx, "pack", "app", 4)
		require.NotNil(t, img)
		assert.Equal(t, red, img.NRGBAAt(0, 0))
	})

	t.Run("panic falls back", func(t *testing.T) {
		p := &fakeProvider{
			defaults: map[string]Source{"app": ColorSource{Color: red}},
			packs: map[string]map[string]Source{"pack": {
				"app": DrawableFunc(func(draw.Image, image.Rectangle) error {
					panic("bad drawable")
				}),
			}},
		}
		c := newTestCache(t, Config{}, p)

		img := c.Resolve(ctx, "pack", "app", 4)
		require.NotNil(t, img)
		assert.Equal(t, red, img.NRGBAAt(0, 0))
	})

	t.Run("nothing found", func(t *testing.T) {
		p := &fakeProvider{}
		c := newTestCache(t, Config{}, p)

		assert.Nil(t, c.Resolve(ctx, "pack", "missing", 4))
		assert.Equal(t, uint64(1), c.Stats().Misses)
		assert.Equal(t, 0, c.Stats().Entries)
	})
}

func TestResolveKeysBySizeAndPack(t *testing.T) {
	p := &fakeProvider{
		defaults: map[string]Source{"app": ColorSource{Color: red}},
		packs:    map[string]map[string]Source{"pack": {"app": ColorSource{Color: green}}},
	}
	c := newTestCache(t, Config{}, p)
	ctx := context.Background()

	small := c.Resolve(ctx, "", "app", 8)
	large := c.Resolve(ctx, "", "app", 16)
	themed := c.Resolve(ctx, "pack", "app", 8)

	assert.Equal(t, 8, small.Bounds().Dx())
	assert.Equal(t, 16, large.Bounds().Dx())
	assert.Equal(t, green, themed.NRGBAAt(0, 0))
	assert.Equal(t, 3, c.Stats().Entries)
}

func TestResolveDefaultSize(t *testing.T) {
	p := &fakeProvider{defaults: map[string]Source{"app": ColorSource{Color: red}}}
	c := newTestCache(t, Config{DefaultSizePx: 24}, p)

	img := c.Resolve(context.Background(), "", "app", 0)
	require.NotNil(t, img)
	assert.Equal(t, 24, img.Bounds().Dx())
}

func TestResolveDeduplicatesConcurrentLoads(t *testing.T) {
	p := &fakeProvider{
		defaults: map[string]Source{"app": ColorSource{Color: red}},
		gate:     make(chan struct{}),
	}
	c := newTestCache(t, Config{}, p)

	const callers = 8
	results := make([]*image.NRGBA, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Resolve(context.Background(), "", "app", 8)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(p.gate)
	wg.Wait()

	assert.Equal(t, int32(1), p.defaultCalls.Load())
	for _, img := range results {
		assert.Same(t, results[0], img)
	}
}

func TestPrewarm(t *testing.T) {
	defaults := map[string]Source{}
	var packages []string
	for _, pkg := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		defaults[pkg] = ColorSource{Color: red}
		packages = append(packages, pkg)
	}
	packages = append(packages, "missing")

	p := &fakeProvider{defaults: defaults}
	c := newTestCache(t, Config{}, p)

	warmed, err := c.Prewarm(context.Background(), "", packages, 8, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, warmed)
	assert.Equal(t, 7, c.Stats().Entries)

	calls := p.defaultCalls.Load()
	require.NotNil(t, c.Resolve(context.Background(), "", "d", 8))
	assert.Equal(t, calls, p.defaultCalls.Load(), "prewarmed icons are served from memory")
}

func TestPrewarmSurvivesPanics(t *testing.T) {
	p := &fakeProvider{defaults: map[string]Source{
		"ok": ColorSource{Color: red},
		"bad": DrawableFunc(func(draw.Image, image.Rectangle) error {
			panic("boom")
		}),
	}}
	c := newTestCache(t, Config{}, p)

	warmed, err := c.Prewarm(context.Background(), "", []string{"bad", "ok"}, 8, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, warmed)
}

func TestPrewarmCanceled(t *testing.T) {
	p := &fakeProvider{defaults: map[string]Source{"a": ColorSource{Color: red}}}
	c := newTestCache(t, Config{}, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	warmed, err := c.Prewarm(ctx, "", []string{"a"}, 8, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, warmed)
	assert.Zero(t, p.defaultCalls.Load())
}

func TestClosedCache(t *testing.T) {
	p := &fakeProvider{defaults: map[string]Source{"a": ColorSource{Color: red}}}
	c, err := New(Config{MemoryBudgetBytes: MinMemoryBudget}, p, logger.Noop())
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.Nil(t, c.Resolve(context.Background(), "", "a", 8))
	_, err = c.Prewarm(context.Background(), "", []string{"a"}, 8, 1)
	assert.ErrorIs(t, err, ErrCacheClosed)
}

func TestPurge(t *testing.T) {
	p := &fakeProvider{defaults: map[string]Source{"a": ColorSource{Color: red}}}
	c := newTestCache(t, Config{}, p)

	require.NotNil(t, c.Resolve(context.Background(), "", "a", 8))
	c.Purge()

	stats := c.Stats()
	assert.Zero(t, stats.Entries)
	assert.Zero(t, stats.Bytes)
}

func TestCacheTintUsesThreshold(t *testing.T) {
	p := &fakeProvider{}
	c := newTestCache(t, Config{TintUniformThreshold: 1}, p)

	// 63 of 64 pixels opaque: below a threshold of 1, so the tint is kept.
	src := solid(red, 8)
	src.SetNRGBA(0, 0, color.NRGBA{})

	out := c.Tint(src, white, 8)
	require.NotNil(t, out)
	assert.NotSame(t, src, out)
	assert.Equal(t, white, out.NRGBAAt(4, 4))
}

func TestCacheMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	p := &fakeProvider{defaults: map[string]Source{"a": ColorSource{Color: red}}}
	c := newTestCache(t, Config{Metrics: m}, p)

	ctx := context.Background()
	require.NotNil(t, c.Resolve(ctx, "", "a", 8))
	require.NotNil(t, c.Resolve(ctx, "", "a", 8))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.IconLookups.WithLabelValues(metrics.TierMemory, metrics.ResultHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IconLookups.WithLabelValues(metrics.TierProvider, metrics.ResultHit)))
	assert.Equal(t, float64(4*8*8), testutil.ToFloat64(m.IconMemoryBytes))
}
