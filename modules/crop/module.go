package crop

import (
	"context"
	"math"

	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/specialistvlad/texgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Params defines the parameters of the Crop node.
type Params struct {
	Quad [4]float32 `param:"quad"`
}

// Size returns the size of the quad cut out of a width x height input.
func Size(quad [4]float32, width, height int) (int, int) {
	w := math.Floor(float64(width) * math.Abs(float64(quad[2]-quad[0])))
	h := math.Floor(float64(height) * math.Abs(float64(quad[3]-quad[1])))
	return int(w), int(h)
}

// EvaluateCrop sizes the target to the cropped area. The UI pass keeps the
// input size so the whole image can be shown with the quad on top.
func EvaluateCrop(ctx context.Context, p *params.Block, info *registry.EvaluationInfo, host registry.Host) registry.Result {
	logger := ctxlog.FromContext(ctx)

	var in Params
	if err := registry.Decode(p, &in); err != nil {
		logger.Error("Failed to decode parameters.", "error", err)
		return registry.Error
	}
	src := info.Input(0)
	if src == registry.NoInput {
		return registry.OK
	}
	w, h, err := host.GetEvaluationSize(src)
	if err != nil {
		logger.Error("Failed to read input size.", "error", err)
		return registry.Error
	}
	if !info.UIPass {
		w, h = Size(in.Quad, w, h)
	}
	if w < 1 || h < 1 {
		logger.Warn("Crop area is empty.", "quad", in.Quad)
		return registry.Error
	}
	if err := host.SetEvaluationSize(info.TargetIndex, w, h); err != nil {
		logger.Error("Failed to size target.", "error", err)
		return registry.Error
	}
	return registry.OK
}

// Kernel maps the target onto the quad of input 0. In the UI pass it shows
// the full input and darkens what lies outside the quad.
func Kernel(f *gpu.Fragment) gpu.Color {
	x0, y0, x1, y1 := f.Float(0), f.Float(4), f.Float(8), f.Float(12)
	u, v := f.UV[0], f.UV[1]
	if f.InfoInt(registry.InfoUIPassOffset) == 0 {
		return f.Sample(0, x0+(x1-x0)*u, y0+(y1-y0)*v)
	}
	c := f.Sample(0, u, v)
	if u < min(x0, x1) || u > max(x0, x1) || v < min(y0, y1) || v > max(y0, y1) {
		c[0], c[1], c[2] = c[0]*0.3, c[1]*0.3, c[2]*0.3
	}
	return c
}

// Register registers the native evaluator and the program kernel.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNative("Crop", &registry.RegisteredNative{
		NewParams: func() any { return new(Params) },
		Fn:        EvaluateCrop,
	})
	r.RegisterKernel("Crop", Kernel)
}
