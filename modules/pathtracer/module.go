package pathtracer

import (
	"context"

	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/specialistvlad/texgridgo/internal/registry"
	"github.com/specialistvlad/texgridgo/internal/scene"
	"github.com/specialistvlad/texgridgo/internal/stage"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// DefaultSize is used when the size parameter is not positive.
const DefaultSize = 256

// Params defines the parameters of the PathTracer node.
type Params struct {
	Size int                `param:"size"`
	View params.CameraValue `param:"view"`
}

// EvaluatePathTracer adds one sample per pixel of the input scene and asks
// to be evaluated again until the scene's sample count is reached. Without
// a scene (not connected or still loading) there is nothing to do.
func EvaluatePathTracer(ctx context.Context, p *params.Block, info *registry.EvaluationInfo, host registry.Host) registry.Result {
	logger := ctxlog.FromContext(ctx)

	var in Params
	if err := registry.Decode(p, &in); err != nil {
		logger.Error("Failed to decode parameters.", "error", err)
		return registry.Error
	}
	var s *scene.Scene
	if src := info.Input(0); src != registry.NoInput {
		s = host.GetScene(src)
	}
	if s == nil {
		host.SetProcessing(info.TargetIndex, stage.Idle)
		return registry.OK
	}
	host.SetScene(info.TargetIndex, s)

	size := in.Size
	if size <= 0 {
		size = DefaultSize
	}
	if err := host.SetEvaluationSize(info.TargetIndex, size, size); err != nil {
		logger.Error("Failed to size target.", "error", err)
		return registry.Error
	}

	done, err := host.RenderScene(info.TargetIndex, in.View)
	if err != nil {
		logger.Error("Failed to render scene.", "error", err)
		host.SetProcessing(info.TargetIndex, stage.Idle)
		return registry.Error
	}
	if !done {
		host.SetProcessing(info.TargetIndex, stage.Rendering)
		return registry.Dirty
	}
	host.SetProcessing(info.TargetIndex, stage.Idle)
	host.SetProgress(info.TargetIndex, 1)
	logger.Debug("Scene converged.")
	return registry.OK
}

// Register registers the native evaluator.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNative("PathTracer", &registry.RegisteredNative{
		NewParams: func() any { return new(Params) },
		Fn:        EvaluatePathTracer,
	})
}
