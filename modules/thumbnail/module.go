package thumbnail

import (
	"context"

	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/specialistvlad/texgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// EvaluateThumbnail stores its input as the project thumbnail on forced
// evaluations.
func EvaluateThumbnail(ctx context.Context, _ *params.Block, info *registry.EvaluationInfo, host registry.Host) registry.Result {
	if !info.ForcedDirty {
		return registry.OK
	}
	logger := ctxlog.FromContext(ctx)
	src := info.Input(0)
	if src == registry.NoInput {
		logger.Warn("No thumbnail source, input is not connected.")
		return registry.Error
	}
	img, err := host.Evaluate(ctx, src, 0, 0)
	if err != nil {
		logger.Error("Failed to render thumbnail source.", "error", err)
		return registry.Error
	}
	if err := host.SetThumbnailImage(ctx, img); err != nil {
		logger.Error("Failed to store thumbnail.", "error", err)
		return registry.Error
	}
	return registry.OK
}

// Register registers the native evaluator.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNative("Thumbnail", &registry.RegisteredNative{Fn: EvaluateThumbnail})
}
