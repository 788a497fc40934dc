package registry

import (
	"context"

	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/specialistvlad/texgridgo/internal/scripthost"
	"github.com/zclconf/go-cty/cty"
)

// ScriptedFunction runs a node script on the script host and replays the
// host calls it made.
type ScriptedFunction struct {
	Name   string
	File   string
	Source string
	Client scripthost.Client
	Funcs  HostFunctions
}

func (s *ScriptedFunction) Kind() Kind { return KindScript }

func (s *ScriptedFunction) Evaluate(ctx context.Context, p *params.Block, info *EvaluationInfo, host Host) Result {
	logger := ctxlog.FromContext(ctx).With("nodeType", s.Name, "target", info.TargetIndex)

	paramValues, err := scripthost.ToInterface(ParamsValue(p))
	if err != nil {
		logger.Error("Failed to convert parameters for script.", "error", err)
		return Error
	}
	req := scripthost.Request{
		Name:       s.Name,
		Source:     s.Source,
		Params:     asMap(paramValues),
		Evaluation: infoMap(info),
		InputSizes: make([][2]int, len(info.InputIndices)),
	}
	for slot, in := range info.InputIndices {
		if in == NoInput {
			continue
		}
		if w, h, err := host.GetEvaluationSize(in); err == nil {
			req.InputSizes[slot] = [2]int{w, h}
		}
	}

	resp, err := s.Client.Evaluate(ctx, req)
	if err != nil {
		logger.Error("Script evaluation failed.", "error", err)
		return Error
	}

	funcs := s.Funcs
	if funcs == nil {
		funcs = DefaultHostFunctions()
	}
	for _, call := range resp.Calls {
		if err := funcs.Call(ctx, host, info, call); err != nil {
			logger.Error("Script host call failed.", "error", err)
			return Error
		}
	}

	switch res := Result(resp.Result); res {
	case OK, Error, Dirty:
		return res
	default:
		logger.Warn("Script returned an unknown result.", "result", resp.Result)
		return Error
	}
}

// ParamsValue converts a parameter block to a cty object keyed by field
// name. Filenames become strings, bools become bools, single components
// become numbers and the rest become tuples of numbers.
func ParamsValue(p *params.Block) cty.Value {
	l := p.Layout()
	attrs := make(map[string]cty.Value, l.Len())
	for i := range l.Len() {
		f := l.Field(i)
		switch {
		case f.Type.IsFilename():
			attrs[f.Name] = cty.StringVal(p.String(f.Name))
		case f.Type == params.Bool:
			attrs[f.Name] = cty.BoolVal(p.Bool(f.Name, false))
		case f.Type.Components() == 0:
			continue
		case f.Type.IsFloat():
			attrs[f.Name] = numbers(p.Floats(f.Name))
		default:
			ints := p.Ints(f.Name)
			if len(ints) == 1 {
				attrs[f.Name] = cty.NumberIntVal(int64(ints[0]))
				continue
			}
			elems := make([]cty.Value, len(ints))
			for c, v := range ints {
				elems[c] = cty.NumberIntVal(int64(v))
			}
			attrs[f.Name] = cty.TupleVal(elems)
		}
	}
	return cty.ObjectVal(attrs)
}

func numbers(v []float32) cty.Value {
	if len(v) == 1 {
		return cty.NumberFloatVal(float64(v[0]))
	}
	elems := make([]cty.Value, len(v))
	for i, f := range v {
		elems[i] = cty.NumberFloatVal(float64(f))
	}
	return cty.TupleVal(elems)
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return m
}

func infoMap(info *EvaluationInfo) map[string]any {
	inputs := make([]int, len(info.InputIndices))
	copy(inputs, info.InputIndices[:])
	return map[string]any{
		"targetIndex":  info.TargetIndex,
		"inputIndices": inputs,
		"dirtyMask":    uint32(info.DirtyMask),
		"forcedDirty":  info.ForcedDirty,
		"uiPass":       info.UIPass,
		"mouse":        info.Mouse[:],
		"frame":        info.Frame,
		"localFrame":   info.LocalFrame,
		"mipCount":     info.MipCount,
	}
}
