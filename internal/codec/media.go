package codec

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"os"
	"sync"
)

// Decoder reads the frames of an animated file.
type Decoder interface {
	Frames() int
	Size() (int, int)
	// Frame returns frame i, clamped to the available range.
	Frame(i int) (*image.RGBA, error)
	Close() error
}

// Encoder appends frames to an animated file. Nothing is written until
// Finish.
type Encoder interface {
	AddFrame(img *image.RGBA) error
	Frames() int
	Finish() error
}

// OpenDecoder opens an animated gif. Frames are composited once up front so
// random access is cheap.
func (f *Files) OpenDecoder(path string) (Decoder, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open media: %w", err)
	}
	defer file.Close()

	anim, err := gif.DecodeAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return newGIFDecoder(anim), nil
}

type gifDecoder struct {
	frames []*image.RGBA
	width  int
	height int
}

func newGIFDecoder(anim *gif.GIF) *gifDecoder {
	d := &gifDecoder{width: anim.Config.Width, height: anim.Config.Height}
	if d.width == 0 || d.height == 0 {
		if len(anim.Image) > 0 {
			b := anim.Image[0].Bounds()
			d.width, d.height = b.Max.X, b.Max.Y
		}
	}
	canvas := image.NewRGBA(image.Rect(0, 0, d.width, d.height))
	for i, frame := range anim.Image {
		var restore *image.RGBA
		if i < len(anim.Disposal) && anim.Disposal[i] == gif.DisposalPrevious {
			restore = cloneRGBA(canvas)
		}
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		d.frames = append(d.frames, cloneRGBA(canvas))

		if i < len(anim.Disposal) {
			switch anim.Disposal[i] {
			case gif.DisposalBackground:
				draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
			case gif.DisposalPrevious:
				canvas = restore
			}
		}
	}
	return d
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}

func (d *gifDecoder) Frames() int      { return len(d.frames) }
func (d *gifDecoder) Size() (int, int) { return d.width, d.height }

func (d *gifDecoder) Close() error {
	d.frames = nil
	return nil
}

func (d *gifDecoder) Frame(i int) (*image.RGBA, error) {
	if len(d.frames) == 0 {
		return nil, fmt.Errorf("decoder has no frames")
	}
	return d.frames[min(max(i, 0), len(d.frames)-1)], nil
}

// CreateEncoder starts an animated file. Only gif supports animation.
func (f *Files) CreateEncoder(path string, format Format) (Encoder, error) {
	if format != FormatGIF {
		return nil, fmt.Errorf("%w: %s cannot hold frames", ErrUnsupportedFormat, format)
	}
	return &gifEncoder{path: path}, nil
}

type gifEncoder struct {
	mu   sync.Mutex
	path string
	anim gif.GIF
}

// frameDelay is the delay between frames in hundredths of a second.
const frameDelay = 4

func (e *gifEncoder) AddFrame(img *image.RGBA) error {
	if img == nil {
		return fmt.Errorf("cannot add a nil frame")
	}
	paletted := image.NewPaletted(img.Rect, palette.Plan9)
	draw.FloydSteinberg.Draw(paletted, img.Rect, img, img.Rect.Min)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.anim.Image = append(e.anim.Image, paletted)
	e.anim.Delay = append(e.anim.Delay, frameDelay)
	return nil
}

func (e *gifEncoder) Frames() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.anim.Image)
}

func (e *gifEncoder) Finish() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.anim.Image) == 0 {
		return nil
	}
	file, err := os.Create(e.path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", e.path, err)
	}
	if err := gif.EncodeAll(file, &e.anim); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", e.path, err)
	}
	return file.Close()
}
