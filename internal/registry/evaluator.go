package registry

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/specialistvlad/texgridgo/internal/graph"
	"github.com/specialistvlad/texgridgo/internal/params"
)

// Result is what an evaluator reports for one pass.
type Result int

const (
	// OK means the output is final for the current inputs.
	OK Result = iota
	// Error means the evaluation failed; the node's output is left as is.
	Error
	// Dirty asks for another evaluation on the next pass, used by
	// progressive work such as path tracing.
	Dirty
)

func (r Result) String() string {
	switch r {
	case OK:
		return "ok"
	case Error:
		return "error"
	case Dirty:
		return "dirty"
	}
	return fmt.Sprintf("result(%d)", int(r))
}

// NoInput marks an unbound input slot in EvaluationInfo.InputIndices.
const NoInput = -1

// EvaluationInfo is the per evaluation record handed to every variant.
type EvaluationInfo struct {
	TargetIndex  int
	InputIndices [gpu.MaxInputs]int
	DirtyMask    graph.DirtyKind
	ForcedDirty  bool
	UIPass       bool
	Mouse        [4]float32
	ViewRot      [16]float32
	Frame        int
	LocalFrame   int
	MipCount     int
	Face         int
	VertexSpace  gpu.VertexSpace
}

// Input returns the stage index bound to slot, NoInput when unbound.
func (e *EvaluationInfo) Input(slot int) int {
	if slot < 0 || slot >= len(e.InputIndices) {
		return NoInput
	}
	return e.InputIndices[slot]
}

// Byte offsets into the encoded EvaluationInfo, for kernels reading
// DrawCall.Info.
const (
	InfoMouseOffset      = 64
	InfoTargetOffset     = 112
	InfoUIPassOffset     = 120
	InfoFrameOffset      = 124
	InfoLocalFrameOffset = 128
)

// wireInfo is the little endian layout programs read EvaluationInfo from.
type wireInfo struct {
	ViewRot      [16]float32
	Mouse        [4]float32
	InputIndices [gpu.MaxInputs]int32
	TargetIndex  int32
	ForcedDirty  int32
	UIPass       int32
	Frame        int32
	LocalFrame   int32
	VertexSpace  int32
	DirtyMask    uint32
	MipCount     int32
	Face         int32
	_            [3]int32
}

// Bytes encodes the record for DrawCall.Info.
func (e *EvaluationInfo) Bytes() []byte {
	w := wireInfo{
		ViewRot:     e.ViewRot,
		Mouse:       e.Mouse,
		TargetIndex: int32(e.TargetIndex),
		Frame:       int32(e.Frame),
		LocalFrame:  int32(e.LocalFrame),
		VertexSpace: int32(e.VertexSpace),
		DirtyMask:   uint32(e.DirtyMask),
		MipCount:    int32(e.MipCount),
		Face:        int32(e.Face),
	}
	for i, in := range e.InputIndices {
		w.InputIndices[i] = int32(in)
	}
	if e.ForcedDirty {
		w.ForcedDirty = 1
	}
	if e.UIPass {
		w.UIPass = 1
	}
	var buf bytes.Buffer
	// Writes into a bytes.Buffer of a fixed size struct cannot fail.
	_ = binary.Write(&buf, binary.LittleEndian, &w)
	return buf.Bytes()
}

// Kind is a bit set of evaluator variants.
type Kind uint8

const (
	KindNative Kind = 1 << iota
	KindScript
	KindGPU
)

func (k Kind) String() string {
	if k == 0 {
		return "none"
	}
	var out []byte
	for _, v := range []struct {
		k    Kind
		name string
	}{{KindNative, "native"}, {KindScript, "script"}, {KindGPU, "gpu"}} {
		if k&v.k == 0 {
			continue
		}
		if len(out) > 0 {
			out = append(out, '|')
		}
		out = append(out, v.name...)
	}
	return string(out)
}

// Evaluator is one variant of a node type's evaluation code.
type Evaluator interface {
	Kind() Kind
	Evaluate(ctx context.Context, p *params.Block, info *EvaluationInfo, host Host) Result
}

// NativeFunc is the signature of Go evaluators.
type NativeFunc func(ctx context.Context, p *params.Block, info *EvaluationInfo, host Host) Result

// NativeFunction runs a registered NativeFunc. A panic is reported as Error.
type NativeFunction struct {
	Name string
	Fn   NativeFunc
}

func (n *NativeFunction) Kind() Kind { return KindNative }

func (n *NativeFunction) Evaluate(ctx context.Context, p *params.Block, info *EvaluationInfo, host Host) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("Native evaluator panicked.", "nodeType", n.Name, "target", info.TargetIndex, "panic", r)
			res = Error
		}
	}()
	return n.Fn(ctx, p, info, host)
}

// GPUProgram draws the node's compiled program into its target.
type GPUProgram struct {
	Name    string
	Program gpu.ProgramID
}

func (g *GPUProgram) Kind() Kind { return KindGPU }

func (g *GPUProgram) Evaluate(ctx context.Context, p *params.Block, info *EvaluationInfo, host Host) Result {
	if err := host.DrawProgram(ctx, info, g.Program, p.Bytes()); err != nil {
		ctxlog.FromContext(ctx).Error("Program draw failed.", "nodeType", g.Name, "target", info.TargetIndex, "error", err)
		return Error
	}
	return OK
}

var (
	_ Evaluator = (*NativeFunction)(nil)
	_ Evaluator = (*GPUProgram)(nil)
	_ Evaluator = (*ScriptedFunction)(nil)
)
