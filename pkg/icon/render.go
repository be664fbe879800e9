package icon

import (
	"fmt"
	"image"
)

// Render draws src into a new transparent sizePx×sizePx bitmap. Errors and
// panics raised by the source are returned as ErrRenderFailed.
func Render(src Source, sizePx int) (img *image.NRGBA, err error) {
	if sizePx <= 0 {
		return nil, ErrInvalidSize
	}
	if src == nil {
		return nil, ErrRenderFailed
	}

	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = fmt.Errorf("%w: panic: %v", ErrRenderFailed, r)
		}
	}()

	dst := image.NewNRGBA(image.Rect(0, 0, sizePx, sizePx))
	if err := src.Draw(dst, dst.Bounds()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	return dst, nil
}
