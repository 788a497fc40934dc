// Package stage holds the per-node evaluation state: the render target and
// everything an evaluator may attach to its node between passes.
package stage

import (
	"errors"

	"github.com/google/uuid"
	"github.com/specialistvlad/texgridgo/internal/codec"
	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/specialistvlad/texgridgo/internal/graph"
	"github.com/specialistvlad/texgridgo/internal/scene"
)

// ErrNoTarget is returned when a stage has no render target yet.
var ErrNoTarget = errors.New("stage has no render target")

// Processing states.
const (
	Idle = iota
	Loading
	Rendering
)

// RenderTarget is the backend target owned by a stage. The zero value has
// no target.
type RenderTarget struct {
	ID   gpu.TargetID
	Desc gpu.TargetDescriptor
}

// Valid reports whether a target is allocated.
func (t *RenderTarget) Valid() bool { return t.ID != 0 }

// Ensure makes the target match desc. An identical descriptor is a no-op;
// anything else destroys the old target and creates a new one. changed is
// true when a new target was created.
func (t *RenderTarget) Ensure(b gpu.Backend, desc gpu.TargetDescriptor) (bool, error) {
	desc = desc.Normalized()
	if t.Valid() && t.Desc == desc && b.HasTarget(t.ID) {
		return false, nil
	}
	t.Release(b)
	id, err := b.CreateTarget(desc)
	if err != nil {
		return false, err
	}
	t.ID, t.Desc = id, desc
	return true, nil
}

// Release destroys the target.
func (t *RenderTarget) Release(b gpu.Backend) {
	if t.Valid() {
		b.DestroyTarget(t.ID)
	}
	*t = RenderTarget{}
}

// UIInput is the mouse state routed to a node's stage.
type UIInput struct {
	X, Y      float32
	LeftDown  bool
	RightDown bool
	Keys      []rune
}

// Stage is the evaluation state of one node.
type Stage struct {
	Type      int
	RuntimeID uuid.UUID
	// Generation is unique per stage and never reused; async continuations
	// use it to find out whether their stage still exists.
	Generation uint64

	Target      RenderTarget
	Blend       gpu.BlendState
	DepthBuffer bool
	ClearBuffer bool
	VertexSpace gpu.VertexSpace

	Processing int
	Progress   float32

	LocalTime     int
	Scene         *scene.Scene
	Decoder       codec.Decoder
	DecoderPath   string
	ComputeBuffer []byte
	Input         UIInput

	DirtyMask   graph.DirtyKind
	Forced      bool
	Progressive bool
	Failed      bool
	Evaluations int
}

// NeedsEvaluation reports whether the stage must run in the next pass.
func (s *Stage) NeedsEvaluation() bool {
	return s.DirtyMask.Evaluates() || s.Forced || s.Progressive
}

// AllocateComputeBuffer replaces the compute buffer with count zeroed
// elements of size bytes. An unchanged size keeps the contents.
func (s *Stage) AllocateComputeBuffer(count, size int) []byte {
	n := max(count, 0) * max(size, 0)
	if len(s.ComputeBuffer) != n {
		s.ComputeBuffer = make([]byte, n)
	}
	return s.ComputeBuffer
}

func (s *Stage) release(b gpu.Backend) {
	s.Target.Release(b)
	if s.Decoder != nil {
		_ = s.Decoder.Close()
		s.Decoder = nil
	}
	s.Scene = nil
	s.ComputeBuffer = nil
}
