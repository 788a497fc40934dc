package blend

import (
	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/specialistvlad/texgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Operations, in manifest enum order.
const (
	Mix = iota
	Add
	Multiply
	Screen
	Difference
)

// Parameter offsets in the Blend block.
const (
	operationOffset = 0
	amountOffset    = 4
)

// Combine blends b over a with op at amount t.
func Combine(op int, t float32, a, b gpu.Color) gpu.Color {
	var c gpu.Color
	for i := range 3 {
		var v float32
		switch op {
		case Add:
			v = a[i] + b[i]*t
		case Multiply:
			v = lerp(a[i], a[i]*b[i], t)
		case Screen:
			v = lerp(a[i], 1-(1-a[i])*(1-b[i]), t)
		case Difference:
			d := a[i] - b[i]
			if d < 0 {
				d = -d
			}
			v = lerp(a[i], d, t)
		default:
			v = lerp(a[i], b[i], t)
		}
		c[i] = min(max(v, 0), 1)
	}
	c[3] = max(a[3], b[3])
	return c
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

// Kernel blends input 1 over input 0.
func Kernel(f *gpu.Fragment) gpu.Color {
	a := f.Sample(0, f.UV[0], f.UV[1])
	b := f.Sample(1, f.UV[0], f.UV[1])
	return Combine(f.Int(operationOffset), f.Float(amountOffset), a, b)
}

// Register registers the program kernel.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKernel("Blend", Kernel)
}
