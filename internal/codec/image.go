package codec

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
)

// ErrUnsupportedFormat is returned for file formats the codec cannot read or
// write.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// CubeFaces is the number of faces of a cube map.
const CubeFaces = 6

// Image is a decoded picture. Levels is indexed by face then mip; a 2D image
// has a single face.
type Image struct {
	Width    int
	Height   int
	Cube     bool
	MipCount int
	Levels   [][]*image.RGBA
}

// NewImage allocates a 2D image with one mip level.
func NewImage(width, height int) Image {
	return Image{
		Width:    width,
		Height:   height,
		MipCount: 1,
		Levels:   [][]*image.RGBA{{image.NewRGBA(image.Rect(0, 0, width, height))}},
	}
}

// FromImage wraps any image.Image as a 2D Image, converting to RGBA if needed.
func FromImage(src image.Image) Image {
	rgba, ok := src.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		b := src.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Rect, src, b.Min, draw.Src)
	}
	return Image{
		Width:    rgba.Rect.Dx(),
		Height:   rgba.Rect.Dy(),
		MipCount: 1,
		Levels:   [][]*image.RGBA{{rgba}},
	}
}

// Faces returns 6 for cube maps, 1 otherwise.
func (img Image) Faces() int {
	if img.Cube {
		return CubeFaces
	}
	return 1
}

// Level returns the RGBA data of a face and mip, nil when absent.
func (img Image) Level(face, mip int) *image.RGBA {
	if face < 0 || face >= len(img.Levels) || mip < 0 || mip >= len(img.Levels[face]) {
		return nil
	}
	return img.Levels[face][mip]
}

// Empty reports whether the image holds no pixels.
func (img Image) Empty() bool {
	return img.Width == 0 || img.Height == 0 || img.Level(0, 0) == nil
}

// Validate checks that every face and mip has the expected size.
func (img Image) Validate() error {
	if len(img.Levels) != img.Faces() {
		return fmt.Errorf("image has %d faces, want %d", len(img.Levels), img.Faces())
	}
	for f, mips := range img.Levels {
		if len(mips) != max(img.MipCount, 1) {
			return fmt.Errorf("face %d has %d mips, want %d", f, len(mips), img.MipCount)
		}
		for m, level := range mips {
			w, h := MipSize(img.Width, img.Height, m)
			if level == nil || level.Rect.Dx() != w || level.Rect.Dy() != h {
				return fmt.Errorf("face %d mip %d is not %dx%d", f, m, w, h)
			}
		}
	}
	return nil
}

// MipSize returns the size of mip level m of a width x height image.
func MipSize(width, height, m int) (int, int) {
	return max(width>>m, 1), max(height>>m, 1)
}
