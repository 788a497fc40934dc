package gpu

import (
	"image"
	"math"

	"github.com/gogpu/gputypes"
)

// Color is a straight alpha RGBA color in [0,1].
type Color = [4]float32

func loadColor(img *image.RGBA, x, y int) Color {
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	return Color{float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255, float32(p[3]) / 255}
}

func storeColor(img *image.RGBA, x, y int, c Color) {
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	for ch := range 4 {
		p[ch] = uint8(min(max(c[ch], 0), 1)*255 + 0.5)
	}
}

// wrap maps texel coordinate i into [0, n) for the address mode. ok is false
// when a border sampler falls outside.
func wrap(i, n int, mode gputypes.AddressMode, border bool) (int, bool) {
	if i >= 0 && i < n {
		return i, true
	}
	if border {
		return 0, false
	}
	switch mode {
	case gputypes.AddressModeRepeat:
		i %= n
		if i < 0 {
			i += n
		}
		return i, true
	case gputypes.AddressModeMirrorRepeat:
		period := 2 * n
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - 1 - i
		}
		return i, true
	}
	return min(max(i, 0), n-1), true
}

func texel(img *image.RGBA, x, y int, s Sampler) Color {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	x, okx := wrap(x, w, s.AddressU, s.Border)
	y, oky := wrap(y, h, s.AddressV, s.Border)
	if !okx || !oky {
		return Color{}
	}
	return loadColor(img, img.Rect.Min.X+x, img.Rect.Min.Y+y)
}

// sample2D reads img at normalized (u, v), v pointing down.
func sample2D(img *image.RGBA, u, v float32, s Sampler) Color {
	if img == nil || img.Rect.Empty() {
		return Color{}
	}
	w, h := float64(img.Rect.Dx()), float64(img.Rect.Dy())
	fx, fy := float64(u)*w-0.5, float64(v)*h-0.5
	if s.Filter == gputypes.FilterModeNearest {
		return texel(img, int(math.Floor(fx+0.5)), int(math.Floor(fy+0.5)), s)
	}
	x0, y0 := math.Floor(fx), math.Floor(fy)
	tx, ty := float32(fx-x0), float32(fy-y0)
	ix, iy := int(x0), int(y0)
	c00 := texel(img, ix, iy, s)
	c10 := texel(img, ix+1, iy, s)
	c01 := texel(img, ix, iy+1, s)
	c11 := texel(img, ix+1, iy+1, s)
	var out Color
	for ch := range out {
		top := c00[ch] + (c10[ch]-c00[ch])*tx
		bottom := c01[ch] + (c11[ch]-c01[ch])*tx
		out[ch] = top + (bottom-top)*ty
	}
	return out
}
