package graph

import (
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/specialistvlad/texgridgo/internal/params"
)

// ErrCycle is returned by AddLink when the link would close a loop.
var ErrCycle = errors.New("link would create a cycle")

// NoMultiplex marks an input slot that reads from its link.
const NoMultiplex = -1

// Vec2 is a position or size on the graph canvas.
type Vec2 struct {
	X, Y float32
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// WrapMode is a sampler addressing mode.
type WrapMode int

const (
	WrapRepeat WrapMode = iota
	WrapClampToEdge
	WrapClampToBorder
	WrapMirroredRepeat
)

// FilterMode is a sampler filter.
type FilterMode int

const (
	FilterLinear FilterMode = iota
	FilterNearest
)

// InputSampler is the sampling state of one input slot.
type InputSampler struct {
	WrapU     WrapMode
	WrapV     WrapMode
	FilterMin FilterMode
	FilterMag FilterMode
}

// Node is one instance of a node type.
type Node struct {
	Type      int
	RuntimeID uuid.UUID
	Params    *params.Block
	Pos       Vec2
	Selected  bool

	StartFrame int
	EndFrame   int

	// PinnedIO holds output pins in bits 0-7 and input pins in bits 8-15.
	PinnedIO     uint32
	PinnedParams uint32

	Samplers  []InputSampler
	Multiplex [8]int
}

func cloneNode(n Node) Node {
	n.Params = n.Params.Clone()
	n.Samplers = slices.Clone(n.Samplers)
	return n
}

// Link feeds the InputSlot output of InputNode into the OutputSlot input of
// OutputNode.
type Link struct {
	InputNode  int
	InputSlot  int
	OutputNode int
	OutputSlot int
}

// Rug is a comment box on the canvas. It has no evaluation effect.
type Rug struct {
	Pos   Vec2
	Size  Vec2
	Color uint32
	Text  string
}

// DirtyKind says what changed. Kinds are bit flags so that a stage can keep
// the union of everything that happened to it since its last evaluation.
type DirtyKind uint32

const (
	DirtyInput DirtyKind = 1 << iota
	DirtyParameter
	DirtyVisualGraph
	DirtyAddedNode
	DirtyDeletedNode
	DirtySampler
	DirtyStartEndTime
	DirtyRugChanged
	DirtyMouse
	DirtyCamera
	DirtyTime

	DirtyAll = DirtyInput | DirtyParameter | DirtySampler | DirtyStartEndTime | DirtyMouse | DirtyCamera | DirtyTime
)

var dirtyNames = []string{
	"input", "parameter", "visual_graph", "added_node", "deleted_node", "sampler",
	"start_end_time", "rug_changed", "mouse", "camera", "time",
}

func (k DirtyKind) String() string {
	var names []string
	for i, n := range dirtyNames {
		if k&(1<<i) != 0 {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Structural reports whether the kind changes the node list.
func (k DirtyKind) Structural() bool {
	return k&(DirtyAddedNode|DirtyDeletedNode) != 0
}

// Evaluates reports whether the kind requires re-evaluation.
func (k DirtyKind) Evaluates() bool {
	return k&DirtyAll != 0
}

// DirtyEntry tells the evaluation driver what changed. Slot is -1 when the
// change is not tied to a slot.
type DirtyEntry struct {
	Node int
	Slot int
	Kind DirtyKind
}
