package registry

import (
	"context"
	"slices"

	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/specialistvlad/texgridgo/internal/metanode"
	"github.com/specialistvlad/texgridgo/internal/scripthost"
)

// Binding is the evaluator set of one node type, in run order.
type Binding struct {
	Type       int
	Name       string
	Evaluators []Evaluator
	Mask       Kind
}

// Bindings holds the evaluators of every node type of a table.
type Bindings struct {
	types []Binding
}

// Bind resolves the variants of every node type in table: a native function
// registered under the type name, a script "<name>.js" and a program
// "<name>.wgsl" with its kernel. Variants run in that order. A variant that
// fails to build is logged and left out; the type keeps the others. scripts
// may be nil, in which case scripted variants are skipped.
func (r *Registry) Bind(ctx context.Context, table *metanode.Table, backend gpu.Backend, scripts scripthost.Client) *Bindings {
	logger := ctxlog.FromContext(ctx)
	b := &Bindings{types: make([]Binding, table.Len())}

	for typ := range table.Len() {
		name := table.Node(typ).Name
		binding := Binding{Type: typ, Name: name}

		if native, ok := r.Natives[name]; ok {
			binding.add(&NativeFunction{Name: name, Fn: native.Fn})
		}

		if file, src, ok := lookup(r.Scripts, name, ScriptSuffix); ok {
			if scripts == nil {
				logger.Warn("No script host configured, skipping scripted evaluator.", "nodeType", name, "file", file)
			} else {
				binding.add(&ScriptedFunction{Name: name, File: file, Source: src, Client: scripts})
			}
		}

		if file, wgsl, ok := lookup(r.Programs, name, ProgramSuffix); ok {
			if prog, err := r.compile(backend, name, wgsl); err != nil {
				logger.Error("Failed to compile program, node type keeps its other evaluators.", "nodeType", name, "file", file, "error", err)
			} else {
				binding.add(&GPUProgram{Name: name, Program: prog})
			}
		}

		if binding.Mask == 0 {
			logger.Debug("Node type has no evaluator.", "nodeType", name)
		}
		b.types[typ] = binding
	}

	for name := range r.Natives {
		if table.Index(name) < 0 {
			logger.Warn("Native evaluator registered for an unknown node type.", "nodeType", name)
		}
	}
	return b
}

func (r *Registry) compile(backend gpu.Backend, name, wgsl string) (gpu.ProgramID, error) {
	return backend.CompileProgram(gpu.ProgramSource{Name: name, WGSL: wgsl, Kernel: r.Kernels[name]})
}

func (b *Binding) add(e Evaluator) {
	b.Evaluators = append(b.Evaluators, e)
	b.Mask |= e.Kind()
}

// For returns the binding of a node type. Unknown types yield an empty
// binding.
func (b *Bindings) For(typ int) *Binding {
	if typ < 0 || typ >= len(b.types) {
		return &Binding{Type: typ}
	}
	return &b.types[typ]
}

// Remove drops the variants of kind from a node type, releasing programs.
func (b *Bindings) Remove(backend gpu.Backend, typ int, kind Kind) {
	binding := b.For(typ)
	binding.Evaluators = slices.DeleteFunc(binding.Evaluators, func(e Evaluator) bool {
		if e.Kind()&kind == 0 {
			return false
		}
		if g, ok := e.(*GPUProgram); ok && backend != nil {
			backend.DestroyProgram(g.Program)
		}
		return true
	})
	binding.Mask = 0
	for _, e := range binding.Evaluators {
		binding.Mask |= e.Kind()
	}
}

// Release destroys every compiled program.
func (b *Bindings) Release(backend gpu.Backend) {
	for typ := range b.types {
		b.Remove(backend, typ, KindGPU)
	}
}
