package pathtracer

import (
	"context"
	"testing"

	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/specialistvlad/texgridgo/internal/registry"
	"github.com/specialistvlad/texgridgo/internal/scene"
	"github.com/specialistvlad/texgridgo/internal/stage"
	"github.com/stretchr/testify/assert"
)

type fakeHost struct {
	registry.Host
	scenes     map[int]*scene.Scene
	sizes      map[int][2]int
	processing []int
	renders    int
	samples    int
}

func (h *fakeHost) GetScene(target int) *scene.Scene    { return h.scenes[target] }
func (h *fakeHost) SetScene(target int, s *scene.Scene) { h.scenes[target] = s }
func (h *fakeHost) SetProcessing(_ int, state int)      { h.processing = append(h.processing, state) }
func (h *fakeHost) SetProgress(int, float32)            {}

func (h *fakeHost) SetEvaluationSize(target, w, hh int) error {
	h.sizes[target] = [2]int{w, hh}
	return nil
}

func (h *fakeHost) RenderScene(int, params.CameraValue) (bool, error) {
	h.renders++
	return h.renders >= h.samples, nil
}

func newBlock() *params.Block {
	return params.NewBlock(params.NewLayout([]params.Field{
		{Name: "size", Type: params.Int},
		{Name: "view", Type: params.Camera},
	}))
}

func newInfo(target int, inputs ...int) *registry.EvaluationInfo {
	info := &registry.EvaluationInfo{TargetIndex: target}
	for i := range info.InputIndices {
		info.InputIndices[i] = registry.NoInput
	}
	copy(info.InputIndices[:], inputs)
	return info
}

func TestEvaluatePathTracer(t *testing.T) {
	ctx := context.Background()

	t.Run("renders progressively until converged", func(t *testing.T) {
		s := &scene.Scene{}
		host := &fakeHost{scenes: map[int]*scene.Scene{0: s}, sizes: map[int][2]int{}, samples: 3}
		info := newInfo(1, 0)

		assert.Equal(t, registry.Dirty, EvaluatePathTracer(ctx, newBlock(), info, host))
		assert.Equal(t, registry.Dirty, EvaluatePathTracer(ctx, newBlock(), info, host))
		assert.Equal(t, registry.OK, EvaluatePathTracer(ctx, newBlock(), info, host))

		assert.Equal(t, []int{stage.Rendering, stage.Rendering, stage.Idle}, host.processing)
		assert.Equal(t, [2]int{DefaultSize, DefaultSize}, host.sizes[1])
		assert.Same(t, s, host.scenes[1])
	})

	t.Run("without a scene there is nothing to render", func(t *testing.T) {
		host := &fakeHost{scenes: map[int]*scene.Scene{}, sizes: map[int][2]int{}, samples: 1}
		assert.Equal(t, registry.OK, EvaluatePathTracer(ctx, newBlock(), newInfo(1, 0), host))
		assert.Equal(t, 0, host.renders)
		assert.Equal(t, []int{stage.Idle}, host.processing)
	})
}
