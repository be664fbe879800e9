// Package icon resolves, renders and caches launcher icons.
//
// Icons are looked up through a Provider (an installed icon pack first,
// then the app's default icon), rendered into square NRGBA bitmaps and
// kept in two tiers: a byte-bounded in-memory LRU and a write-once PNG
// directory keyed by a content hash of (pack, package, size).
//
// Example usage:
//
//	p, _ := icon.NewDirProvider(icon.DirProviderConfig{DefaultDir: dir}, log)
//	c, _ := icon.New(icon.Config{CacheDir: cacheDir}, p, log)
//	defer c.Close()
//	img := c.Resolve(ctx, "", "com.example.mail", 128)
package icon

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/0xmhha/launcher-core/pkg/metrics"
)

// Source is a raw icon as supplied by a Provider. The renderer hands it a
// transparent square target and the source draws itself into r.
type Source interface {
	Draw(dst draw.Image, r image.Rectangle) error
}

// DrawableFunc adapts an ordinary function to a Source.
type DrawableFunc func(dst draw.Image, r image.Rectangle) error

// Draw implements Source.
func (f DrawableFunc) Draw(dst draw.Image, r image.Rectangle) error {
	return f(dst, r)
}

// BitmapSource is a decoded raster icon, scaled to the target size.
type BitmapSource struct {
	Image image.Image
}

// Draw implements Source.
func (b BitmapSource) Draw(dst draw.Image, r image.Rectangle) error {
	if b.Image == nil {
		return ErrRenderFailed
	}

	sb := b.Image.Bounds()
	if sb.Empty() {
		return ErrRenderFailed
	}

	if sb.Size() == r.Size() {
		draw.Draw(dst, r, b.Image, sb.Min, draw.Over)
		return nil
	}

	xdraw.CatmullRom.Scale(dst, r, b.Image, sb, xdraw.Over, nil)
	return nil
}

// ColorSource is a solid fill.
type ColorSource struct {
	Color color.Color
}

// Draw implements Source.
func (c ColorSource) Draw(dst draw.Image, r image.Rectangle) error {
	if c.Color == nil {
		return ErrRenderFailed
	}
	draw.Draw(dst, r, image.NewUniform(c.Color), image.Point{}, draw.Over)
	return nil
}

// LayeredSource is an adaptive icon: the background is drawn first and the
// foreground composited over it, both at full size. Either layer may be nil.
type LayeredSource struct {
	Background Source
	Foreground Source
}

// Draw implements Source.
func (l LayeredSource) Draw(dst draw.Image, r image.Rectangle) error {
	if l.Background == nil && l.Foreground == nil {
		return ErrRenderFailed
	}

	for _, layer := range []Source{l.Background, l.Foreground} {
		if layer == nil {
			continue
		}
		if err := layer.Draw(dst, r); err != nil {
			return err
		}
	}
	return nil
}

// Provider supplies raw icon sources.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// DefaultIcon returns the icon the app itself ships.
	DefaultIcon(ctx context.Context, pkg string) (Source, error)

	// PackIcon returns the icon that an installed icon pack maps pkg to.
	PackIcon(ctx context.Context, packID, pkg string) (Source, error)
}

// Config contains cache configuration.
type Config struct {
	// CacheDir holds rendered icons as <key>.png. Empty disables the disk tier.
	CacheDir string

	// MemoryBudgetBytes bounds the decoded bytes kept in memory.
	// Default: DefaultMemoryBudget().
	MemoryBudgetBytes int64

	// DefaultSizePx is used when callers pass a size <= 0.
	// Default: 128.
	DefaultSizePx int

	// PrewarmConcurrency is used when Prewarm is called with concurrency <= 0.
	// Default: 4.
	PrewarmConcurrency int

	// TintUniformThreshold is the fraction of identical pixels at which a
	// tint result is discarded.
	// Default: 0.98.
	TintUniformThreshold float64

	// Metrics receives cache instrumentation. Optional.
	Metrics *metrics.Metrics
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	Entries           int    `json:"entries"`
	Bytes             int64  `json:"bytes"`
	Budget            int64  `json:"budget"`
	MemoryHits        uint64 `json:"memory_hits"`
	DiskHits          uint64 `json:"disk_hits"`
	Misses            uint64 `json:"misses"`
	Evictions         uint64 `json:"evictions"`
	DiskWriteFailures uint64 `json:"disk_write_failures"`
	ProviderLoads     uint64 `json:"provider_loads"`
}
