package registry

import (
	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/specialistvlad/texgridgo/internal/scripthost"
)

// Module is the interface that all node modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the evaluator code registered by modules.
type Registry struct {
	Natives  map[string]*RegisteredNative
	Programs map[string]string
	Kernels  map[string]gpu.Kernel
	Scripts  map[string]string
	// ScriptHandlers are in process stand-ins for scripts, served by
	// LocalScriptHost when no remote script host is configured.
	ScriptHandlers map[string]scripthost.Handler
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		Natives:  make(map[string]*RegisteredNative),
		Programs: make(map[string]string),
		Kernels:  make(map[string]gpu.Kernel),
		Scripts:  make(map[string]string),

		ScriptHandlers: make(map[string]scripthost.Handler),
	}
}

// NewWithModules creates a registry and registers every module into it.
func NewWithModules(modules ...Module) *Registry {
	r := New()
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// LocalScriptHost returns a script client serving every registered script
// handler.
func (r *Registry) LocalScriptHost() *scripthost.Local {
	l := scripthost.NewLocal()
	for name, h := range r.ScriptHandlers {
		l.Handle(name, h)
	}
	return l
}
