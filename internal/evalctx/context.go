// Package evalctx is the evaluation scheduler. It keeps one stage per graph
// node, turns the graph's dirty list into the set of stages to run, runs
// them in topological order through their bound evaluators and serves the
// host functions those evaluators call.
//
// A Context belongs to the goroutine that created its job runner. Jobs
// started by evaluators run on the worker pool and reach back into the
// context only through JobMain continuations, which are drained at the start
// of every pass.
package evalctx

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/specialistvlad/texgridgo/internal/cache"
	"github.com/specialistvlad/texgridgo/internal/codec"
	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/dag"
	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/specialistvlad/texgridgo/internal/graph"
	"github.com/specialistvlad/texgridgo/internal/job"
	"github.com/specialistvlad/texgridgo/internal/registry"
	"github.com/specialistvlad/texgridgo/internal/scene"
	"github.com/specialistvlad/texgridgo/internal/stage"
)

// ErrCycle is returned by a pass when the graph is not acyclic. The graph
// model refuses cycle forming links, but multiplex overrides bypass that
// check.
var ErrCycle = errors.New("evaluation graph contains a cycle")

// DefaultSize is the edge of a target no evaluator has sized.
const DefaultSize = 256

// ThumbnailKey is the cache key prefix of project thumbnails.
const ThumbnailKey = "thumb"

// Options configures New. Model, Bindings, Backend and Jobs are required.
type Options struct {
	Model    *graph.Model
	Bindings *registry.Bindings
	Backend  gpu.Backend
	Jobs     *job.Runner

	// Codec defaults to the file system codec.
	Codec codec.Service
	// Scenes defaults to the path tracer.
	Scenes scene.Service
	// Thumbnails stores encoded thumbnails under ThumbnailName. Defaults to
	// a NullCache.
	Thumbnails    cache.Cache
	ThumbnailName string
	ThumbnailTTL  time.Duration

	// DefaultSize overrides the size of unsized targets.
	DefaultSize int
}

// Context is the evaluation context of one graph.
type Context struct {
	model    *graph.Model
	bindings *registry.Bindings
	backend  gpu.Backend
	jobs     *job.Runner
	codec    codec.Service
	scenes   scene.Service
	thumbs   cache.Cache

	thumbName string
	thumbTTL  time.Duration
	thumbnail []byte

	defaultSize int
	stages      *stage.Stages
	graph       *dag.Graph
	order       []int
	orderErr    error

	frame    int
	passes   int
	jobCount map[uint64]int
	jobFail  map[uint64]bool
	renders  map[uint64]*image.RGBA
	encoders map[string]codec.Encoder
}

// New creates a context and a stage for every node of the model.
func New(opts Options) (*Context, error) {
	if opts.Model == nil || opts.Bindings == nil || opts.Backend == nil || opts.Jobs == nil {
		return nil, fmt.Errorf("evaluation context needs a model, bindings, a backend and a job runner")
	}
	c := &Context{
		model:       opts.Model,
		bindings:    opts.Bindings,
		backend:     opts.Backend,
		jobs:        opts.Jobs,
		codec:       opts.Codec,
		scenes:      opts.Scenes,
		thumbs:      opts.Thumbnails,
		thumbName:   opts.ThumbnailName,
		thumbTTL:    opts.ThumbnailTTL,
		defaultSize: opts.DefaultSize,
		stages:      stage.NewStages(opts.Backend),
		jobCount:    make(map[uint64]int),
		jobFail:     make(map[uint64]bool),
		renders:     make(map[uint64]*image.RGBA),
		encoders:    make(map[string]codec.Encoder),
	}
	if c.codec == nil {
		c.codec = codec.NewFiles()
	}
	if c.scenes == nil {
		c.scenes = scene.NewTracer()
	}
	if c.thumbs == nil {
		c.thumbs = cache.NewNullCache()
	}
	if c.defaultSize <= 0 {
		c.defaultSize = DefaultSize
	}
	c.reconcile()
	c.rebuildOrder()
	return c, nil
}

// Stage returns the stage of node i, nil when out of range.
func (c *Context) Stage(i int) *stage.Stage { return c.stages.At(i) }

// Order returns the current evaluation order.
func (c *Context) Order() []int { return c.order }

// Frame returns the current frame.
func (c *Context) Frame() int { return c.frame }

// Thumbnail returns the last encoded thumbnail, nil if none was produced.
func (c *Context) Thumbnail() []byte { return c.thumbnail }

// Settled reports whether nothing is left to do: no pending graph change,
// no stage to run, no stage processing and no job in flight.
func (c *Context) Settled() bool {
	if c.model.PendingDirty() > 0 || c.jobs.Pending() > 0 {
		return false
	}
	for _, st := range c.stages.All() {
		if st.NeedsEvaluation() || st.Processing != stage.Idle {
			return false
		}
	}
	return true
}

// Close finishes every open encoder and releases the stages. Programs are
// owned by the bindings and left alone.
func (c *Context) Close(ctx context.Context) error {
	var errs []error
	for path, enc := range c.encoders {
		if err := enc.Finish(); err != nil {
			errs = append(errs, fmt.Errorf("failed to finish %s: %w", path, err))
			continue
		}
		ctxlog.FromContext(ctx).Info("Encoder finished.", "path", path, "frames", enc.Frames())
	}
	clear(c.encoders)
	for gen, img := range c.renders {
		c.scenes.Forget(img)
		delete(c.renders, gen)
	}
	c.stages.Release()
	return errors.Join(errs...)
}

// StageStatus is a snapshot of one stage.
type StageStatus struct {
	Index       int     `json:"index"`
	Type        string  `json:"type"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Cube        bool    `json:"cube"`
	Processing  int     `json:"processing"`
	Progress    float32 `json:"progress"`
	Dirty       string  `json:"dirty"`
	Progressive bool    `json:"progressive"`
	Failed      bool    `json:"failed"`
	Evaluations int     `json:"evaluations"`
}

// Status is a snapshot of the context, served by the status endpoint.
type Status struct {
	Frame   int           `json:"frame"`
	Passes  int           `json:"passes"`
	Settled bool          `json:"settled"`
	Stages  []StageStatus `json:"stages"`
}

// Status returns a snapshot of every stage.
func (c *Context) Status() Status {
	s := Status{Frame: c.frame, Passes: c.passes, Settled: c.Settled()}
	for i, st := range c.stages.All() {
		s.Stages = append(s.Stages, StageStatus{
			Index:       i,
			Type:        c.model.Table().Node(st.Type).Name,
			Width:       st.Target.Desc.Width,
			Height:      st.Target.Desc.Height,
			Cube:        st.Target.Desc.Cube,
			Processing:  st.Processing,
			Progress:    st.Progress,
			Dirty:       st.DirtyMask.String(),
			Progressive: st.Progressive,
			Failed:      st.Failed,
			Evaluations: st.Evaluations,
		})
	}
	return s
}

func (c *Context) stage(target int) (*stage.Stage, error) {
	st := c.stages.At(target)
	if st == nil {
		return nil, fmt.Errorf("no stage at index %d", target)
	}
	return st, nil
}

// reconcile matches stages to the model's nodes and drops what belonged to
// removed stages.
func (c *Context) reconcile() {
	_, removed := c.stages.Reconcile(c.model.Nodes())
	for _, st := range removed {
		if img, ok := c.renders[st.Generation]; ok {
			c.scenes.Forget(img)
			delete(c.renders, st.Generation)
		}
		delete(c.jobCount, st.Generation)
		delete(c.jobFail, st.Generation)
	}
}

// rebuildOrder recomputes the dependency graph and the evaluation order.
func (c *Context) rebuildOrder() {
	c.graph, c.order, c.orderErr = Order(c.model)
}

// Order builds the dependency graph of m and its evaluation order.
// Multiplex overrides count as edges. A cycle returns the graph with an
// error wrapping ErrCycle.
func Order(m *graph.Model) (*dag.Graph, []int, error) {
	n := m.NodeCount()
	g := dag.New(n)
	var err error
	for i := range n {
		for _, src := range m.InputNodes(i) {
			if src < 0 || src >= n {
				continue
			}
			if src == i {
				err = fmt.Errorf("node %d reads its own output", i)
				continue
			}
			// Edges are in range, AddEdge cannot fail here.
			_ = g.AddEdge(src, i)
		}
	}
	if err != nil {
		return g, nil, fmt.Errorf("%w: %w", ErrCycle, err)
	}
	order, err := g.Order()
	if err != nil {
		return g, nil, fmt.Errorf("%w: %w", ErrCycle, err)
	}
	return g, order, nil
}
