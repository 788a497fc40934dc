package crop

import (
	"context"
	"testing"

	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/specialistvlad/texgridgo/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	registry.Host
	sizes map[int][2]int
}

func (h *fakeHost) GetEvaluationSize(target int) (int, int, error) {
	s := h.sizes[target]
	return s[0], s[1], nil
}

func (h *fakeHost) SetEvaluationSize(target, w, hh int) error {
	h.sizes[target] = [2]int{w, hh}
	return nil
}

func newBlock(t *testing.T, quad string) *params.Block {
	t.Helper()
	b := params.NewBlock(params.NewLayout([]params.Field{{Name: "quad", Type: params.Float4}}))
	require.True(t, b.SetParameter("quad", quad))
	return b
}

func newInfo(target int, inputs ...int) *registry.EvaluationInfo {
	info := &registry.EvaluationInfo{TargetIndex: target}
	for i := range info.InputIndices {
		info.InputIndices[i] = registry.NoInput
	}
	copy(info.InputIndices[:], inputs)
	return info
}

func TestSize(t *testing.T) {
	testCases := []struct {
		name  string
		quad  [4]float32
		w, h  int
		wantW int
		wantH int
	}{
		{"full", [4]float32{0, 0, 1, 1}, 640, 480, 640, 480},
		{"quarter", [4]float32{0, 0, 0.5, 0.5}, 641, 481, 320, 240},
		{"reversed", [4]float32{1, 1, 0.75, 0.5}, 400, 400, 100, 200},
		{"empty", [4]float32{0.5, 0, 0.5, 1}, 400, 400, 0, 400},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := Size(tc.quad, tc.w, tc.h)
			assert.Equal(t, tc.wantW, w)
			assert.Equal(t, tc.wantH, h)
		})
	}
}

func TestEvaluateCrop(t *testing.T) {
	ctx := context.Background()

	t.Run("sizes the target to the quad", func(t *testing.T) {
		host := &fakeHost{sizes: map[int][2]int{0: {200, 100}}}
		res := EvaluateCrop(ctx, newBlock(t, "0,0,0.5,0.5"), newInfo(1, 0), host)
		assert.Equal(t, registry.OK, res)
		assert.Equal(t, [2]int{100, 50}, host.sizes[1])
	})

	t.Run("ui pass keeps the input size", func(t *testing.T) {
		host := &fakeHost{sizes: map[int][2]int{0: {200, 100}}}
		info := newInfo(1, 0)
		info.UIPass = true
		assert.Equal(t, registry.OK, EvaluateCrop(ctx, newBlock(t, "0,0,0.5,0.5"), info, host))
		assert.Equal(t, [2]int{200, 100}, host.sizes[1])
	})

	t.Run("empty area fails", func(t *testing.T) {
		host := &fakeHost{sizes: map[int][2]int{0: {200, 100}}}
		assert.Equal(t, registry.Error, EvaluateCrop(ctx, newBlock(t, "0.2,0,0.2,1"), newInfo(1, 0), host))
		assert.NotContains(t, host.sizes, 1)
	})

	t.Run("unconnected input does nothing", func(t *testing.T) {
		host := &fakeHost{sizes: map[int][2]int{}}
		assert.Equal(t, registry.OK, EvaluateCrop(ctx, newBlock(t, "0,0,1,1"), newInfo(1), host))
		assert.Empty(t, host.sizes)
	})
}

func TestKernelWithoutInput(t *testing.T) {
	f := &gpu.Fragment{UV: [2]float32{0.5, 0.5}}
	assert.Equal(t, gpu.Color{}, Kernel(f))
}
