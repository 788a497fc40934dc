package evalctx

import (
	"context"
	"time"

	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/dag"
	"github.com/specialistvlad/texgridgo/internal/graph"
	"github.com/specialistvlad/texgridgo/internal/registry"
	"github.com/specialistvlad/texgridgo/internal/stage"
)

// PassStats summarises one pass.
type PassStats struct {
	Continuations int
	DirtyEntries  int
	Evaluated     int
	Failed        int
	Progressive   int
	Duration      time.Duration
}

// RunPass applies the model's dirty list, runs queued continuations and
// evaluates every stage that needs it, in order. A cycle fails the pass.
func (c *Context) RunPass(ctx context.Context) (PassStats, error) {
	return c.run(ctx, func(order []int) []int { return order }, false)
}

// RunAll evaluates every stage, dirty or not.
func (c *Context) RunAll(ctx context.Context) (PassStats, error) {
	return c.run(ctx, func(order []int) []int { return order }, true)
}

// RunForward evaluates node and all its transitive consumers.
func (c *Context) RunForward(ctx context.Context, node int) (PassStats, error) {
	return c.run(ctx, func(order []int) []int { return dag.Forward(c.graph, order, node) }, true)
}

// RunBackward evaluates the transitive producers of node, then node.
func (c *Context) RunBackward(ctx context.Context, node int) (PassStats, error) {
	return c.run(ctx, func(order []int) []int { return dag.Backward(c.graph, order, node) }, true)
}

// RunSingle evaluates node alone. With uiPass the evaluators produce an
// interactive preview; the stage keeps its dirty state and is marked Mouse
// dirty so that the next regular pass renders it for real.
func (c *Context) RunSingle(ctx context.Context, node int, uiPass bool) (registry.Result, error) {
	if _, err := c.prepare(ctx); err != nil {
		return registry.Error, err
	}
	st, err := c.stage(node)
	if err != nil {
		return registry.Error, err
	}
	if !uiPass {
		return c.evaluate(ctx, node, false), nil
	}
	mask := st.DirtyMask
	res := c.evaluate(ctx, node, true)
	st.DirtyMask = mask | graph.DirtyMouse
	return res, nil
}

// prepare applies the dirty list, then drains continuations. Stages are
// reconciled first so a continuation resolves its stage against the current
// nodes. It returns how many of each were handled.
func (c *Context) prepare(ctx context.Context) (PassStats, error) {
	var stats PassStats
	entries := c.model.TakeDirtyList()
	stats.DirtyEntries = len(entries)
	c.ApplyDirtyList(ctx, entries)
	stats.Continuations = c.jobs.DrainMain()
	return stats, c.orderErr
}

func (c *Context) run(ctx context.Context, pick func(order []int) []int, all bool) (PassStats, error) {
	start := time.Now()
	logger := ctxlog.FromContext(ctx)

	stats, err := c.prepare(ctx)
	if err != nil {
		logger.Error("Evaluation pass failed.", "error", err)
		return stats, err
	}
	c.passes++

	for _, i := range pick(c.order) {
		st := c.stages.At(i)
		if st == nil || (!all && !st.NeedsEvaluation()) {
			continue
		}
		switch c.evaluate(ctx, i, false) {
		case registry.Error:
			stats.Failed++
		case registry.Dirty:
			stats.Progressive++
		}
		stats.Evaluated++
	}

	stats.Duration = time.Since(start)
	if stats.Evaluated > 0 {
		logger.Debug("Evaluation pass finished.", "pass", c.passes, "evaluated", stats.Evaluated,
			"failed", stats.Failed, "progressive", stats.Progressive, "duration", stats.Duration)
	}
	return stats, nil
}

// evaluate runs every evaluator bound to node i's type and settles the
// stage's dirty state. All variants run even if an earlier one failed; the
// result is Error if any failed, else Dirty if any asked for it.
func (c *Context) evaluate(ctx context.Context, i int, uiPass bool) registry.Result {
	st := c.stages.At(i)
	node := c.model.Node(i)
	binding := c.bindings.For(st.Type)
	logger := ctxlog.FromContext(ctx).With("nodeIndex", i, "nodeType", binding.Name)

	if !st.Target.Valid() {
		if err := c.ensureTarget(st, c.defaultSize, c.defaultSize, false, 1); err != nil {
			logger.Error("Failed to allocate render target.", "error", err)
			st.Failed = true
			return registry.Error
		}
	}

	info := c.info(i, st, node, uiPass)
	logger.Debug("Evaluating node.", "dirty", st.DirtyMask, "forced", st.Forced, "uiPass", uiPass)

	res := registry.OK
	for _, e := range binding.Evaluators {
		switch e.Evaluate(ctxlog.WithLogger(ctx, logger), node.Params, info, c) {
		case registry.Error:
			logger.Warn("Evaluator failed.", "kind", e.Kind())
			res = registry.Error
		case registry.Dirty:
			if res == registry.OK {
				res = registry.Dirty
			}
		}
	}

	st.Evaluations++
	st.Failed = res == registry.Error
	st.Progressive = res == registry.Dirty
	if uiPass {
		return res
	}
	st.DirtyMask = 0
	st.Forced = false
	if st.Progressive {
		// Consumers must see every progressive update. They come later in
		// the order so they still run in this pass.
		c.markDirty(i, graph.DirtyInput, true)
	}
	return res
}

func (c *Context) info(i int, st *stage.Stage, node graph.Node, uiPass bool) *registry.EvaluationInfo {
	info := &registry.EvaluationInfo{
		TargetIndex: i,
		DirtyMask:   st.DirtyMask,
		ForcedDirty: st.Forced,
		UIPass:      uiPass,
		Frame:       c.frame,
		LocalFrame:  c.frame - node.StartFrame,
		MipCount:    st.Target.Desc.Mips(),
		VertexSpace: st.VertexSpace,
	}
	info.InputIndices = c.model.InputNodes(i)
	info.Mouse = [4]float32{st.Input.X, st.Input.Y, boolf(st.Input.LeftDown), boolf(st.Input.RightDown)}
	info.ViewRot = identity
	return info
}

var identity = [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

func boolf(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
