package imageread

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/texgridgo/internal/codec"
	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/specialistvlad/texgridgo/internal/graph"
	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/specialistvlad/texgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Params defines the parameters of the ImageRead node.
type Params struct {
	File    string `param:"file"`
	Cubemap bool   `param:"cubemap"`
}

// FacePlaceholder is replaced by the face names when reading a cubemap.
const FacePlaceholder = "{face}"

// FaceNames are the file name parts of the cube faces, in face order.
var FaceNames = [gpu.CubeFaces]string{"px", "nx", "py", "ny", "pz", "nz"}

// reload is the set of dirty kinds that require reading the file again.
const reload = graph.DirtyParameter | graph.DirtyAddedNode

// EvaluateImageRead loads the file into the target. Still images are read
// in a job and uploaded once decoded; animated gif files are decoded once
// and the frame at the node's local time is uploaded on every evaluation.
func EvaluateImageRead(ctx context.Context, p *params.Block, info *registry.EvaluationInfo, host registry.Host) registry.Result {
	logger := ctxlog.FromContext(ctx)

	var in Params
	if err := registry.Decode(p, &in); err != nil {
		logger.Error("Failed to decode parameters.", "error", err)
		return registry.Error
	}
	if in.File == "" {
		return registry.OK
	}

	if strings.EqualFold(filepath.Ext(in.File), ".gif") && !in.Cubemap {
		return readFrame(ctx, in.File, info, host)
	}
	if info.DirtyMask&reload == 0 && !info.ForcedDirty {
		return registry.OK
	}
	if in.Cubemap {
		readCubemap(in.File, info.TargetIndex, host)
		return registry.OK
	}
	if err := host.ReadImageAsync(ctx, info.TargetIndex, in.File); err != nil {
		logger.Error("Failed to start image read.", "file", in.File, "error", err)
		return registry.Error
	}
	return registry.OK
}

func readFrame(ctx context.Context, path string, info *registry.EvaluationInfo, host registry.Host) registry.Result {
	logger := ctxlog.FromContext(ctx)
	dec, err := host.GetDecoder(info.TargetIndex, path)
	if err != nil {
		logger.Error("Failed to open animation.", "file", path, "error", err)
		return registry.Error
	}
	frame, err := dec.Frame(max(info.LocalFrame, 0))
	if err != nil {
		logger.Error("Failed to decode frame.", "file", path, "frame", info.LocalFrame, "error", err)
		return registry.Error
	}
	if err := host.SetEvaluationImage(info.TargetIndex, codec.FromImage(frame)); err != nil {
		logger.Error("Failed to upload frame.", "error", err)
		return registry.Error
	}
	return registry.OK
}

func readCubemap(pattern string, target int, host registry.Host) {
	host.Job(target, "read cubemap "+pattern, func(ctx context.Context) error {
		var faces [gpu.CubeFaces]codec.Image
		for i, name := range FaceNames {
			img, err := host.ReadImage(ctx, strings.ReplaceAll(pattern, FacePlaceholder, name))
			if err != nil {
				return fmt.Errorf("cube face %s: %w", name, err)
			}
			faces[i] = img
		}
		host.JobMain(ctx, target, func(target int) {
			for i, img := range faces {
				if err := host.SetEvaluationImageCube(target, img, i); err != nil {
					ctxlog.FromContext(ctx).Error("Failed to upload cube face.", "face", FaceNames[i], "error", err)
					return
				}
			}
		})
		return nil
	})
}

// Register registers the native evaluator.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNative("ImageRead", &registry.RegisteredNative{
		NewParams: func() any { return new(Params) },
		Fn:        EvaluateImageRead,
	})
}
