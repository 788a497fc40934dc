package imagewrite

import (
	"context"
	"math"

	"github.com/specialistvlad/texgridgo/internal/codec"
	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/specialistvlad/texgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Size modes, in manifest enum order.
const (
	ModeSource = iota
	ModeWidth
	ModeHeight
	ModeSize
)

// Params defines the parameters of the ImageWrite node.
type Params struct {
	File    string   `param:"file"`
	Format  int      `param:"format"`
	Quality int      `param:"quality"`
	Mode    int      `param:"mode"`
	Size    [2]int32 `param:"size"`
}

// OutputSize returns the size written for a source of srcW x srcH.
func OutputSize(mode int, size [2]int32, srcW, srcH int) (int, int) {
	w, h := int(size[0]), int(size[1])
	switch mode {
	case ModeWidth:
		h = int(math.Round(float64(srcH) * float64(w) / float64(max(srcW, 1))))
	case ModeHeight:
		w = int(math.Round(float64(srcW) * float64(h) / float64(max(srcH, 1))))
	case ModeSize:
	default:
		w, h = srcW, srcH
	}
	return max(w, 1), max(h, 1)
}

// EvaluateImageWrite renders its input at the requested size and writes it
// out. It only does so on forced evaluations; the rendered image is also
// kept as the node's own output. Gif output appends a frame to an encoder
// that is finished when the evaluation context closes.
func EvaluateImageWrite(ctx context.Context, p *params.Block, info *registry.EvaluationInfo, host registry.Host) registry.Result {
	if !info.ForcedDirty {
		return registry.OK
	}
	logger := ctxlog.FromContext(ctx)

	var in Params
	if err := registry.Decode(p, &in); err != nil {
		logger.Error("Failed to decode parameters.", "error", err)
		return registry.Error
	}
	src := info.Input(0)
	if src == registry.NoInput {
		logger.Warn("Nothing to write, input is not connected.")
		return registry.Error
	}
	if in.File == "" {
		logger.Warn("Nothing to write, no file set.")
		return registry.Error
	}

	srcW, srcH, err := host.GetEvaluationSize(src)
	if err != nil {
		logger.Error("Failed to read input size.", "error", err)
		return registry.Error
	}
	w, h := OutputSize(in.Mode, in.Size, srcW, srcH)
	img, err := host.Evaluate(ctx, src, w, h)
	if err != nil {
		logger.Error("Failed to render input.", "error", err)
		return registry.Error
	}
	if err := host.SetEvaluationImage(info.TargetIndex, img); err != nil {
		logger.Error("Failed to store output.", "error", err)
		return registry.Error
	}

	format := codec.Format(in.Format)
	if format == codec.FormatGIF {
		enc, err := host.GetEncoder(in.File, format)
		if err != nil {
			logger.Error("Failed to open encoder.", "file", in.File, "error", err)
			return registry.Error
		}
		if err := enc.AddFrame(img.Level(0, 0)); err != nil {
			logger.Error("Failed to add frame.", "file", in.File, "error", err)
			return registry.Error
		}
		logger.Debug("Frame added.", "file", in.File, "frames", enc.Frames())
		return registry.OK
	}

	if err := host.WriteImage(ctx, info.TargetIndex, in.File, format, in.Quality); err != nil {
		logger.Error("Failed to write image.", "file", in.File, "error", err)
		return registry.Error
	}
	logger.Info("Image written.", "file", in.File, "width", w, "height", h, "format", format)
	return registry.OK
}

// Register registers the native evaluator.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNative("ImageWrite", &registry.RegisteredNative{
		NewParams: func() any { return new(Params) },
		Fn:        EvaluateImageWrite,
	})
}
