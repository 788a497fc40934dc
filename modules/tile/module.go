package tile

import (
	"context"
	"fmt"

	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/specialistvlad/texgridgo/internal/registry"
	"github.com/specialistvlad/texgridgo/internal/scripthost"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// MaxRepeat bounds the repeat count per axis.
const MaxRepeat = 16

// Kernel repeats input 0 by the repeat parameter. The target is sized by
// the Tile script.
func Kernel(f *gpu.Fragment) gpu.Color {
	rx, ry := max(f.Int(0), 1), max(f.Int(4), 1)
	u := f.UV[0] * float32(rx)
	v := f.UV[1] * float32(ry)
	return f.Sample(0, u-float32(int(u)), v-float32(int(v)))
}

// Script sizes the target to the input size times the repeat count, like
// Tile.js does on the script host.
func Script(_ context.Context, req scripthost.Request) (scripthost.Response, error) {
	inputs, _ := req.Evaluation["inputIndices"].([]int)
	if len(inputs) == 0 || inputs[0] < 0 || len(req.InputSizes) == 0 {
		return scripthost.Response{Result: int(registry.OK)}, nil
	}
	target, _ := req.Evaluation["targetIndex"].(int)
	uiPass, _ := req.Evaluation["uiPass"].(bool)
	w, h := req.InputSizes[0][0], req.InputSizes[0][1]

	rx, ry := 1, 1
	if rep, ok := req.Params["repeat"].([]any); ok && len(rep) == 2 {
		rx, ry = clampRepeat(rep[0]), clampRepeat(rep[1])
	}
	if uiPass {
		rx, ry = 1, 1
	}
	calls := []scripthost.Call{{Name: "SetEvaluationSize", Args: []any{target, w * rx, h * ry}}}
	if !uiPass {
		calls = append([]scripthost.Call{{Name: "Log", Args: []any{fmt.Sprintf("tile %dx%d of %dx%d", rx, ry, w, h)}}}, calls...)
	}
	return scripthost.Response{Result: int(registry.OK), Calls: calls}, nil
}

func clampRepeat(v any) int {
	f, _ := v.(float64)
	return min(max(int(f), 1), MaxRepeat)
}

// Register registers the program kernel and the in process script.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKernel("Tile", Kernel)
	r.RegisterScriptHandler("Tile", Script)
}
