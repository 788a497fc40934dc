// Package job runs background work for node evaluators and hands results
// back to the goroutine that owns the graph.
//
// Go submits a job to a fixed worker pool. Workers never touch evaluation
// state; a job that needs to, queues a continuation with Main. The owner
// goroutine (the one that called New) runs queued continuations with
// DrainMain, once per evaluation pass. In synchronous mode both Go and Main
// run inline, which makes an evaluation pass deterministic.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/petermattis/goid"
	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// Func is the body of a job. The context is cancelled on Close.
type Func func(ctx context.Context) error

type task struct {
	name string
	fn   Func
}

// Options configures a Runner.
type Options struct {
	Workers     int
	Synchronous bool
}

// Runner is the job subsystem.
type Runner struct {
	ctx    context.Context
	cancel context.CancelFunc
	owner  int64
	sync   bool

	queue chan task
	group *errgroup.Group

	mu      sync.Mutex
	main    []func()
	running int
	idle    chan struct{}
	closed  bool
}

// New starts the worker pool. The calling goroutine becomes the owner.
func New(ctx context.Context, opts Options) *Runner {
	ctx, cancel := context.WithCancel(ctx)
	r := &Runner{
		ctx:    ctx,
		cancel: cancel,
		owner:  goid.Get(),
		sync:   opts.Synchronous,
		queue:  make(chan task, 256),
		idle:   make(chan struct{}),
	}
	close(r.idle)
	if r.sync {
		return r
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	r.group, _ = errgroup.WithContext(ctx)
	for id := range workers {
		r.group.Go(func() error {
			r.worker(id)
			return nil
		})
	}
	ctxlog.FromContext(ctx).Debug("Job runner started.", "workers", workers)
	return r
}

// Synchronous reports whether jobs run inline.
func (r *Runner) Synchronous() bool { return r.sync }

func (r *Runner) worker(id int) {
	logger := ctxlog.FromContext(r.ctx).With("workerID", id)
	for {
		select {
		case <-r.ctx.Done():
			return
		case t := <-r.queue:
			r.run(logger, t)
		}
	}
}

func (r *Runner) run(logger *slog.Logger, t task) {
	defer r.done()
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Job panicked.", "job", t.name, "panic", fmt.Sprint(p))
		}
	}()
	logger.Debug("Job started.", "job", t.name)
	if err := t.fn(r.ctx); err != nil {
		logger.Error("Job failed.", "job", t.name, "error", err)
	}
}

func (r *Runner) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	if r.running == 0 {
		r.idle = make(chan struct{})
	}
	r.running++
	return true
}

func (r *Runner) done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running--
	if r.running == 0 {
		close(r.idle)
	}
}

// Go submits a job. Errors and panics are logged, they never affect other
// jobs. Go after Close is a no-op.
func (r *Runner) Go(name string, fn Func) {
	if !r.begin() {
		return
	}
	t := task{name: name, fn: fn}
	if r.sync {
		r.run(ctxlog.FromContext(r.ctx), t)
		return
	}
	select {
	case r.queue <- t:
	default:
		// Queue full; do not block the submitter, which may be a worker.
		go func() {
			select {
			case r.queue <- t:
			case <-r.ctx.Done():
				r.done()
			}
		}()
	}
}

// Main queues fn to run on the owner goroutine at the next DrainMain. It may
// be called from any goroutine. In synchronous mode fn runs immediately.
func (r *Runner) Main(fn func()) {
	if r.sync {
		r.runMain(ctxlog.FromContext(r.ctx), fn)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.main = append(r.main, fn)
}

// DrainMain runs every queued continuation and returns how many ran.
// Continuations queued while draining wait for the next call. A panicking
// continuation is logged and the rest still run. DrainMain itself panics
// when called from any goroutine but the owner.
func (r *Runner) DrainMain() int {
	if id := goid.Get(); id != r.owner {
		panic(fmt.Sprintf("job: DrainMain called from goroutine %d, owner is %d", id, r.owner))
	}
	r.mu.Lock()
	queued := r.main
	r.main = nil
	r.mu.Unlock()

	logger := ctxlog.FromContext(r.ctx)
	for _, fn := range queued {
		r.runMain(logger, fn)
	}
	return len(queued)
}

func (r *Runner) runMain(logger *slog.Logger, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Continuation panicked.", "panic", fmt.Sprint(p))
		}
	}()
	fn()
}

// Pending returns the number of running jobs plus queued continuations.
func (r *Runner) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running + len(r.main)
}

// WaitIdle blocks until no job is running or ctx is done. Queued
// continuations are not drained.
func (r *Runner) WaitIdle(ctx context.Context) error {
	r.mu.Lock()
	idle := r.idle
	r.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels running jobs, stops the workers and drops queued
// continuations.
func (r *Runner) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.main = nil
	r.mu.Unlock()

	r.cancel()
	if r.group != nil {
		return r.group.Wait()
	}
	return nil
}
