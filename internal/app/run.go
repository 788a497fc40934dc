package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/specialistvlad/texgridgo/internal/cache"
	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/evalctx"
	"github.com/specialistvlad/texgridgo/internal/graph"
	"github.com/specialistvlad/texgridgo/internal/job"
	"github.com/specialistvlad/texgridgo/internal/metanode"
	"github.com/specialistvlad/texgridgo/internal/params"
)

// ErrNotSettled is returned when a frame still has work after the pass
// limit, or when it waits on processing no job will ever finish.
var ErrNotSettled = errors.New("evaluation did not settle")

// RenderResult summarises a render.
type RenderResult struct {
	Frames    int
	Passes    int
	Status    evalctx.Status
	Thumbnail []byte
}

// Render loads the configured project and renders its frames.
func (a *App) Render(ctx context.Context) (*RenderResult, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	if a.config.ProjectPath == "" {
		return nil, errors.New("no project to render")
	}
	model := graph.New(a.library.Table)
	if err := a.loader.LoadProject(ctx, a.config.ProjectPath, model); err != nil {
		return nil, err
	}
	name, err := filepath.Abs(a.config.ProjectPath)
	if err != nil {
		name = a.config.ProjectPath
	}
	return a.RenderModel(ctx, model, name)
}

// RenderModel renders every frame of model. Each frame runs passes until the
// context settles, then forces the writer nodes and settles again. name keys
// the project thumbnail in the cache.
func (a *App) RenderModel(ctx context.Context, model *graph.Model, name string) (res *RenderResult, err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	if a.httpServer == nil {
		a.startHealthCheckServer(ctx)
	}

	jobs := job.New(ctx, job.Options{Workers: a.config.WorkerCount, Synchronous: a.config.Synchronous})
	defer func() { err = errors.Join(err, jobs.Close()) }()

	ttl, _ := cache.ParseTTL(a.config.Cache.TTL)
	ec, err := evalctx.New(evalctx.Options{
		Model:         model,
		Bindings:      a.bindings,
		Backend:       a.backend,
		Jobs:          jobs,
		Thumbnails:    a.thumbs,
		ThumbnailName: name,
		ThumbnailTTL:  ttl,
		DefaultSize:   a.config.DefaultSize,
	})
	if err != nil {
		return nil, err
	}
	defer func() { err = errors.Join(err, ec.Close(ctx)) }()

	writers := writerTypes(a.library.Table)
	start, end := a.frames(model)
	a.logger.Info("🚀 Starting render...", "nodes", model.NodeCount(), "frameStart", start, "frameEnd", end)

	res = &RenderResult{}
	for frame := start; frame <= end; frame++ {
		ec.SetCurrentFrame(ctx, frame)
		passes, err := a.renderFrame(ctx, ec, jobs, writers)
		res.Passes += passes
		if err != nil {
			return res, fmt.Errorf("frame %d: %w", frame, err)
		}
		res.Frames++
		a.logger.Info("Frame rendered.", "frame", frame, "passes", passes)
	}
	res.Status = ec.Status()
	res.Thumbnail = ec.Thumbnail()
	a.logger.Info("🏁 Render finished.", "frames", res.Frames, "passes", res.Passes)
	return res, nil
}

func (a *App) renderFrame(ctx context.Context, ec *evalctx.Context, jobs *job.Runner, writers []int) (int, error) {
	logger := ctxlog.FromContext(ctx)
	forced := false
	for passes := 0; passes < a.config.MaxPasses; {
		if err := ctx.Err(); err != nil {
			return passes, err
		}
		stats, err := ec.RunPass(ctx)
		passes++
		status := ec.Status()
		a.status.Store(&status)
		if err != nil {
			return passes, err
		}
		if stats.Failed > 0 {
			logger.Warn("Some nodes failed to evaluate.", "failed", stats.Failed)
		}

		if ec.Settled() {
			if forced {
				return passes, nil
			}
			for _, typ := range writers {
				ec.ForceEvaluateType(typ)
			}
			forced = true
			continue
		}
		if stats.Evaluated > 0 || stats.Continuations > 0 {
			continue
		}
		if jobs.Pending() == 0 {
			return passes, fmt.Errorf("%w: stages are processing with no job running", ErrNotSettled)
		}
		if err := jobs.WaitIdle(ctx); err != nil {
			return passes, err
		}
	}
	return a.config.MaxPasses, fmt.Errorf("%w after %d passes", ErrNotSettled, a.config.MaxPasses)
}

// frames returns the configured frame range, or the project's.
func (a *App) frames(model *graph.Model) (int, int) {
	if a.config.FrameEnd >= a.config.FrameStart {
		return a.config.FrameStart, a.config.FrameEnd
	}
	return model.FrameRange()
}

// writerTypes lists the node types with a force_evaluate parameter. They
// only produce their artifact when forced.
func writerTypes(table *metanode.Table) []int {
	var types []int
	for typ := range table.Len() {
		for _, p := range table.Node(typ).Params {
			if p.Type == params.ForceEvaluate {
				types = append(types, typ)
				break
			}
		}
	}
	return types
}
