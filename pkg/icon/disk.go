package icon

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
)

// diskCache is a write-once directory of rendered icons. Files are never
// rewritten or evicted; a stale directory can simply be removed.
type diskCache struct {
	dir string
}

func (d *diskCache) path(key string) string {
	return filepath.Join(d.dir, key+".png")
}

// load decodes <dir>/<key>.png. A missing file returns os.ErrNotExist.
func (d *diskCache) load(key string) (*image.NRGBA, error) {
	f, err := os.Open(d.path(key))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", f.Name(), err)
	}

	return toNRGBA(img), nil
}

// store writes img through a temporary file and renames it into place, so
// readers never observe a partial PNG. An existing entry is left alone.
func (d *diskCache) store(key string, img *image.NRGBA) error {
	target := d.path(key)
	if _, err := os.Stat(target); err == nil {
		return nil
	}

	if err := os.MkdirAll(d.dir, 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(d.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	encErr := png.Encode(tmp, img)
	closeErr := tmp.Close()
	if err := errors.Join(encErr, closeErr); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to rename %s: %w", tmpName, err)
	}

	return nil
}

// remove deletes the entry for key. A missing file is not an error.
func (d *diskCache) remove(key string) error {
	if err := os.Remove(d.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", d.path(key), err)
	}
	return nil
}

// toNRGBA returns img as an *image.NRGBA anchored at the origin, copying
// only when necessary.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}

	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
