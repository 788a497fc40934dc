package codec

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Format selects the file format WriteImage produces.
type Format int

const (
	FormatJPEG Format = iota
	FormatPNG
	FormatBMP
	FormatTIFF
	FormatGIF
)

var formatNames = []string{"jpeg", "png", "bmp", "tiff", "gif"}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("format(%d)", int(f))
	}
	return formatNames[f]
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".png":
		return FormatPNG, nil
	case ".bmp":
		return FormatBMP, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	case ".gif":
		return FormatGIF, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// ThumbnailSize bounds both dimensions of an encoded thumbnail.
const ThumbnailSize = 256

// Service is the image I/O the evaluation engine depends on.
type Service interface {
	ReadImage(ctx context.Context, path string) (Image, error)
	WriteImage(ctx context.Context, path string, img Image, format Format, quality int) error
	EncodeThumbnail(img Image) ([]byte, error)
	OpenDecoder(path string) (Decoder, error)
	CreateEncoder(path string, format Format) (Encoder, error)
}

// Files reads and writes images on the local file system.
type Files struct{}

// NewFiles returns the file system codec.
func NewFiles() *Files {
	return &Files{}
}

// ReadImage decodes any registered format: png, jpeg, gif, bmp, tiff, webp.
func (f *Files) ReadImage(ctx context.Context, path string) (Image, error) {
	logger := ctxlog.FromContext(ctx)
	file, err := os.Open(path)
	if err != nil {
		return Image{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	src, name, err := image.Decode(file)
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	img := FromImage(src)
	logger.Debug("Image decoded.", "path", path, "format", name, "width", img.Width, "height", img.Height)
	return img, nil
}

// WriteImage encodes the first face and mip of img. quality only applies to
// jpeg and defaults to 90 when out of range.
func (f *Files) WriteImage(ctx context.Context, path string, img Image, format Format, quality int) error {
	if img.Empty() {
		return fmt.Errorf("nothing to write to %s: image is empty", path)
	}
	var buf bytes.Buffer
	if err := encode(&buf, img.Level(0, 0), format, quality); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Image written.", "path", path, "format", format, "bytes", buf.Len())
	return nil
}

func encode(w io.Writer, src *image.RGBA, format Format, quality int) error {
	switch format {
	case FormatJPEG:
		if quality <= 0 || quality > 100 {
			quality = 90
		}
		return jpeg.Encode(w, src, &jpeg.Options{Quality: quality})
	case FormatPNG:
		return png.Encode(w, src)
	case FormatBMP:
		return bmp.Encode(w, src)
	case FormatTIFF:
		return tiff.Encode(w, src, &tiff.Options{Compression: tiff.Deflate})
	case FormatGIF:
		return gif.Encode(w, src, nil)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// EncodeThumbnail scales img to fit ThumbnailSize and encodes it as png.
func (f *Files) EncodeThumbnail(img Image) ([]byte, error) {
	if img.Empty() {
		return nil, fmt.Errorf("cannot thumbnail an empty image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, Fit(img.Level(0, 0), ThumbnailSize)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// Fit scales src so that its largest side is at most size, keeping the
// aspect ratio. Images that already fit are returned as is.
func Fit(src *image.RGBA, size int) *image.RGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w <= size && h <= size {
		return src
	}
	if w >= h {
		h, w = max(h*size/w, 1), size
	} else {
		w, h = max(w*size/h, 1), size
	}
	return Resize(src, w, h)
}

// Resize resamples src to width x height.
func Resize(src *image.RGBA, width, height int) *image.RGBA {
	if src.Rect.Dx() == width && src.Rect.Dy() == height {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Rect, src, src.Rect, xdraw.Src, nil)
	return dst
}

var _ Service = (*Files)(nil)
