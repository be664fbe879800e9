package icon

import (
	"image"
	"image/color"
)

// DefaultTintThreshold is the share of identical pixels at which a tint
// result is considered a blank swatch.
const DefaultTintThreshold = 0.98

// Tint recolors img with c, keeping the source alpha as a mask: every pixel
// takes c's RGB and an alpha of src.a*c.a. img is first scaled to
// sizePx×sizePx when its size differs.
//
// Icons without real transparency tint into a solid square. When at least
// DefaultTintThreshold of the tinted pixels share one opaque color the
// untinted bitmap is returned instead.
func Tint(img image.Image, c color.Color, sizePx int) *image.NRGBA {
	return tint(img, c, sizePx, DefaultTintThreshold)
}

func tint(img image.Image, c color.Color, sizePx int, threshold float64) *image.NRGBA {
	if img == nil || c == nil {
		return nil
	}

	src := toNRGBA(img)
	if b := src.Bounds(); sizePx > 0 && (b.Dx() != sizePx || b.Dy() != sizePx) {
		scaled, err := Render(BitmapSource{Image: src}, sizePx)
		if err != nil {
			return nil
		}
		src = scaled
	}

	tc := color.NRGBAModel.Convert(c).(color.NRGBA)
	b := src.Bounds()
	out := image.NewNRGBA(b)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := src.NRGBAAt(x, y).A
			out.SetNRGBA(x, y, color.NRGBA{
				R: tc.R,
				G: tc.G,
				B: tc.B,
				A: uint8(uint32(a) * uint32(tc.A) / 0xff),
			})
		}
	}

	if mostlyUniform(out, threshold) {
		return src
	}
	return out
}

// mostlyUniform reports whether one opaque color covers at least threshold
// of img. A mostly transparent canvas is never uniform.
func mostlyUniform(img *image.NRGBA, threshold float64) bool {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return false
	}

	counts := make(map[color.NRGBA]int)
	var top color.NRGBA
	topCount := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px := img.NRGBAAt(x, y)
			if px.A == 0 {
				px = color.NRGBA{}
			}
			counts[px]++
			if counts[px] > topCount {
				top, topCount = px, counts[px]
			}
		}
	}

	return top.A == 0xff && float64(topCount) >= threshold*float64(total)
}
