package hcl_adapter

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/specialistvlad/texgridgo/internal/metanode"
	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifest = `
node "Crop" {
  category = "Filter"
  has_ui   = true

  input "in" {}
  output "out" {}

  param "quad" {
    type        = float4
    default     = [0, 0, 1, 1]
    quad_select = true
  }
  param "amount" {
    type    = "float"
    default = 0.5
    control = "slider"
    min     = [0]
    max     = [2]
  }
}

node "ImageRead" {
  output "out" {}

  param "file" {
    type = filename_read
  }
  param "view" {
    type = camera
  }
}
`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"nodes/filter.hcl":   {Data: []byte(testManifest)},
		"programs/Crop.wgsl": {Data: []byte("// crop")},
		"scripts/Crop.js":    {Data: []byte("// crop")},
		"README.md":          {Data: []byte("ignored")},
	}
}

func TestLoadLibrary(t *testing.T) {
	ctx := context.Background()
	lib, err := NewLoader().LoadLibrary(ctx, Source{Name: "lib", FS: testFS()})
	require.NoError(t, err)

	require.Equal(t, 2, lib.Table.Len())
	crop := lib.Table.Node(lib.Table.Index("Crop"))
	require.NotNil(t, crop)
	assert.Equal(t, "Filter", crop.Category)
	assert.True(t, crop.HasUI)
	assert.Equal(t, []metanode.Slot{{Name: "in"}}, crop.Inputs)

	quad := crop.Params[crop.ParamIndex("quad")]
	assert.Equal(t, params.Float4, quad.Type)
	assert.True(t, quad.QuadSelect)
	assert.Equal(t, "0,0,1,1", params.FormatText(quad.Type, quad.Default))

	amount := crop.Params[crop.ParamIndex("amount")]
	assert.Equal(t, metanode.ControlSlider, amount.Control)
	assert.Equal(t, [2]float32{2, 0}, amount.RangeMax)

	read := lib.Table.Node(lib.Table.Index("ImageRead"))
	view := read.Params[read.ParamIndex("view")]
	assert.Equal(t, params.DefaultCamera(), mustCamera(t, view.Type, view.Default))

	assert.Equal(t, map[string]string{"lib/programs/Crop.wgsl": "// crop"}, lib.Programs)
	assert.Equal(t, map[string]string{"lib/scripts/Crop.js": "// crop"}, lib.Scripts)
}

func mustCamera(t *testing.T, typ params.Type, raw []byte) params.CameraValue {
	t.Helper()
	b := params.NewBlock(params.NewLayout([]params.Field{{Name: "view", Type: typ, Default: raw}}))
	c, ok := b.Camera()
	require.True(t, ok)
	return c
}

func TestLoadLibrarySkipsMissingDirectories(t *testing.T) {
	ctx := context.Background()
	missing := DirSource(filepath.Join(t.TempDir(), "does-not-exist"))

	lib, err := NewLoader().LoadLibrary(ctx, missing, Source{Name: "lib", FS: testFS()})

	require.NoError(t, err)
	assert.Equal(t, 2, lib.Table.Len())
}

// paramManifest wraps the attributes of one parameter into a node type.
func paramManifest(attrs string) string {
	return "node \"A\" {\n  param \"p\" {\n" + attrs + "\n  }\n}\n"
}

func TestLoadLibraryErrors(t *testing.T) {
	testCases := []struct {
		name     string
		manifest string
		wantErr  string
	}{
		{
			name:     "syntax error",
			manifest: `node "A" {`,
			wantErr:  "failed to parse HCL file",
		},
		{
			name:     "missing type",
			manifest: "node \"A\" {\n  param \"p\" {}\n}",
			wantErr:  "failed to decode HCL file",
		},
		{
			name:     "unknown type",
			manifest: paramManifest("type = float9"),
			wantErr:  "in node 'A', param 'p'",
		},
		{
			name:     "type constructor",
			manifest: paramManifest("type = list(float)"),
			wantErr:  "type constructor \"list\" is not supported",
		},
		{
			name:     "unknown control",
			manifest: paramManifest("type = float\ncontrol = \"knob\""),
			wantErr:  "unknown control \"knob\"",
		},
		{
			name:     "bad default",
			manifest: paramManifest("type = float2\ndefault = \"x\""),
			wantErr:  "invalid default value",
		},
		{
			name:     "duplicate type",
			manifest: "node \"A\" {}\nnode \"A\" {}",
			wantErr:  "invalid node library",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fsys := fstest.MapFS{"nodes.hcl": {Data: []byte(tc.manifest)}}
			_, err := NewLoader().LoadLibrary(context.Background(), Source{Name: "lib", FS: fsys})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
