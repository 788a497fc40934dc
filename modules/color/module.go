package color

import (
	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/specialistvlad/texgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Kernel fills the target with the color parameter.
func Kernel(f *gpu.Fragment) gpu.Color {
	return gpu.Color{f.Float(0), f.Float(4), f.Float(8), f.Float(12)}
}

// Register registers the program kernel. Color has no native evaluator.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKernel("Color", Kernel)
}
