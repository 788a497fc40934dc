package sceneloader

import (
	"context"

	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/graph"
	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/specialistvlad/texgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Params defines the parameters of the SceneLoader node.
type Params struct {
	File string `param:"file"`
}

// EvaluateSceneLoader parses the scene file in a job and attaches the scene
// to the node's stage, where consumers pick it up with GetScene.
func EvaluateSceneLoader(ctx context.Context, p *params.Block, info *registry.EvaluationInfo, host registry.Host) registry.Result {
	logger := ctxlog.FromContext(ctx)

	var in Params
	if err := registry.Decode(p, &in); err != nil {
		logger.Error("Failed to decode parameters.", "error", err)
		return registry.Error
	}
	if in.File == "" {
		host.SetScene(info.TargetIndex, nil)
		return registry.OK
	}
	if info.DirtyMask&(graph.DirtyParameter|graph.DirtyAddedNode) == 0 && !info.ForcedDirty {
		return registry.OK
	}

	host.Job(info.TargetIndex, "load scene "+in.File, func(ctx context.Context) error {
		s, err := host.LoadScene(ctx, in.File)
		if err != nil {
			return err
		}
		host.JobMain(ctx, info.TargetIndex, func(target int) {
			host.SetScene(target, s)
		})
		return nil
	})
	return registry.OK
}

// Register registers the native evaluator.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNative("SceneLoader", &registry.RegisteredNative{
		NewParams: func() any { return new(Params) },
		Fn:        EvaluateSceneLoader,
	})
}
