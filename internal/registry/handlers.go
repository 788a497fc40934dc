package registry

import (
	"fmt"
	"log/slog"
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/specialistvlad/texgridgo/internal/scripthost"
)

// Source file suffixes matched by Bind.
const (
	ProgramSuffix = ".wgsl"
	ScriptSuffix  = ".js"
)

// RegisteredNative holds the Go parts of a native evaluator. NewParams, when
// set, returns a pointer to the struct the parameter block decodes into; it
// is checked against the manifest by ValidateRegistry.
type RegisteredNative struct {
	NewParams func() any
	Fn        NativeFunc
}

// RegisterNative registers a native evaluator for the node type name.
func (r *Registry) RegisterNative(name string, native *RegisteredNative) {
	if _, exists := r.Natives[name]; exists {
		panic(fmt.Sprintf("native evaluator with name '%s' already registered", name))
	}
	slog.Debug("Registering native evaluator.", "name", name)
	r.Natives[name] = native
}

// RegisterProgramSource registers WGSL source under a file name such as
// "Crop.wgsl" or "programs/Crop.wgsl".
func (r *Registry) RegisterProgramSource(file, wgsl string) {
	if _, exists := r.Programs[file]; exists {
		panic(fmt.Sprintf("program source with name '%s' already registered", file))
	}
	slog.Debug("Registering program source.", "file", file)
	r.Programs[file] = wgsl
}

// RegisterKernel registers the CPU kernel run for the program of a node
// type on the software backend.
func (r *Registry) RegisterKernel(name string, kernel gpu.Kernel) {
	if _, exists := r.Kernels[name]; exists {
		panic(fmt.Sprintf("kernel with name '%s' already registered", name))
	}
	slog.Debug("Registering kernel.", "name", name)
	r.Kernels[name] = kernel
}

// RegisterProgram registers "<name>.wgsl" and its kernel together.
func (r *Registry) RegisterProgram(name, wgsl string, kernel gpu.Kernel) {
	r.RegisterProgramSource(name+ProgramSuffix, wgsl)
	r.RegisterKernel(name, kernel)
}

// RegisterScript registers script source under a file name such as
// "Crop.js".
func (r *Registry) RegisterScript(file, source string) {
	if _, exists := r.Scripts[file]; exists {
		panic(fmt.Sprintf("script with name '%s' already registered", file))
	}
	slog.Debug("Registering script.", "file", file)
	r.Scripts[file] = source
}

// RegisterScriptHandler registers the in process counterpart of the script
// of node type name.
func (r *Registry) RegisterScriptHandler(name string, h scripthost.Handler) {
	if _, exists := r.ScriptHandlers[name]; exists {
		panic(fmt.Sprintf("script handler with name '%s' already registered", name))
	}
	slog.Debug("Registering script handler.", "name", name)
	r.ScriptHandlers[name] = h
}

// lookup finds the source registered for type name under suffix. A file
// matches when its base name is exactly name+suffix.
func lookup(sources map[string]string, name, suffix string) (string, string, bool) {
	if src, ok := sources[name+suffix]; ok {
		return name + suffix, src, true
	}
	for _, file := range slices.Sorted(maps.Keys(sources)) {
		if strings.HasSuffix(file, "/"+name+suffix) && path.Base(file) == name+suffix {
			return file, sources[file], true
		}
	}
	return "", "", false
}
