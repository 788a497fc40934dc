package blend

import (
	"testing"

	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	a := gpu.Color{0.5, 0.25, 1, 1}
	b := gpu.Color{1, 0.5, 0, 0.5}

	testCases := []struct {
		name string
		op   int
		t    float32
		want gpu.Color
	}{
		{"mix none", Mix, 0, gpu.Color{0.5, 0.25, 1, 1}},
		{"mix full", Mix, 1, gpu.Color{1, 0.5, 0, 1}},
		{"mix half", Mix, 0.5, gpu.Color{0.75, 0.375, 0.5, 1}},
		{"add clamps", Add, 1, gpu.Color{1, 0.75, 1, 1}},
		{"multiply", Multiply, 1, gpu.Color{0.5, 0.125, 0, 1}},
		{"screen", Screen, 1, gpu.Color{1, 0.625, 1, 1}},
		{"difference", Difference, 1, gpu.Color{0.5, 0.25, 1, 1}},
		{"unknown falls back to mix", 42, 1, gpu.Color{1, 0.5, 0, 1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Combine(tc.op, tc.t, a, b)
			for i := range got {
				assert.InDelta(t, tc.want[i], got[i], 1e-6, "component %d", i)
			}
		})
	}
}

func TestKernelWithoutInputs(t *testing.T) {
	f := &gpu.Fragment{Uniforms: make([]byte, 8)}
	assert.Equal(t, gpu.Color{}, Kernel(f))
}
