package library_test

import (
	"context"
	"io/fs"
	"testing"

	"github.com/specialistvlad/texgridgo/internal/app"
	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/specialistvlad/texgridgo/internal/hcl_adapter"
	"github.com/specialistvlad/texgridgo/internal/registry"
	"github.com/specialistvlad/texgridgo/modules/library"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinLibraryMatchesModules(t *testing.T) {
	ctx := context.Background()
	lib, err := hcl_adapter.NewLoader().LoadLibrary(ctx, library.Source())
	require.NoError(t, err)

	reg := registry.NewWithModules(app.CoreModules()...)
	lib.Register(reg)
	require.NoError(t, reg.ValidateRegistry(ctx, lib.Table))

	backend := gpu.NewSoftware()
	bindings := reg.Bind(ctx, lib.Table, backend, reg.LocalScriptHost())
	defer bindings.Release(backend)

	want := map[string]registry.Kind{
		"Crop":              registry.KindNative | registry.KindGPU,
		"Tile":              registry.KindScript | registry.KindGPU,
		"Blend":             registry.KindGPU,
		"Color":             registry.KindGPU,
		"ImageRead":         registry.KindNative,
		"ImageWrite":        registry.KindNative,
		"Thumbnail":         registry.KindNative,
		"SceneLoader":       registry.KindNative,
		"PathTracer":        registry.KindNative,
		"ReactionDiffusion": registry.KindNative,
	}
	assert.Len(t, lib.Table.Names(), len(want))
	for name, kind := range want {
		typ := lib.Table.Index(name)
		require.GreaterOrEqual(t, typ, 0, name)
		assert.Equal(t, kind, bindings.For(typ).Mask, name)
	}
}

func TestEmbeddedFiles(t *testing.T) {
	src := library.Source()
	assert.Equal(t, library.Name, src.Name)

	manifests, err := fs.Glob(src.FS, "nodes/*.hcl")
	require.NoError(t, err)
	assert.NotEmpty(t, manifests)

	for _, dir := range []string{"programs", "scripts"} {
		entries, err := fs.ReadDir(src.FS, dir)
		require.NoError(t, err, dir)
		assert.NotEmpty(t, entries, dir)
	}
}
