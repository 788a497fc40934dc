package hcl_adapter

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/texgridgo/internal/graph"
	"github.com/specialistvlad/texgridgo/internal/metanode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable(t *testing.T) *metanode.Table {
	t.Helper()
	lib, err := NewLoader().LoadLibrary(context.Background(), Source{Name: "lib", FS: testFS()})
	require.NoError(t, err)
	return lib.Table
}

// buildProject creates ImageRead -> Crop with a sampler, a rug and a track.
func buildProject(t *testing.T, table *metanode.Table) *graph.Model {
	t.Helper()
	m := graph.New(table)
	m.BeginTransaction(true)
	defer m.EndTransaction()

	m.SetFrameRange(0, 24)
	read := m.AddNode(table.Index("ImageRead"), graph.Vec2{X: 10, Y: 20})
	crop := m.AddNode(table.Index("Crop"), graph.Vec2{X: 200, Y: 20})
	m.SetParameter(read, "file", "textures/brick.png")
	m.SetParameter(crop, "quad", "0.25,0.25,0.75,0.75")
	m.SetStartEndFrame(crop, 2, 12)
	require.NoError(t, m.AddLink(read, 0, crop, 0))
	m.SetSamplers(crop, []graph.InputSampler{{WrapU: graph.WrapClampToEdge, FilterMag: graph.FilterNearest}})
	m.SetIOPin(crop, 0, true, true)
	m.AddRug(graph.Rug{Pos: graph.Vec2{X: 0, Y: 0}, Size: graph.Vec2{X: 400, Y: 100}, Color: 0xff00ff, Text: "inputs"})

	m.MakeKey(0, crop, m.Meta(crop).ParamIndex("amount"))
	m.SetParameter(crop, "amount", "1.5")
	m.MakeKey(10, crop, m.Meta(crop).ParamIndex("amount"))
	return m
}

func TestProjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	table := testTable(t)
	loader := NewLoader()
	src := buildProject(t, table)

	out := graph.New(table)
	require.NoError(t, loader.ParseProject(ctx, loader.FormatProject(src), "project.hcl", out))

	start, end := out.FrameRange()
	assert.Equal(t, 0, start)
	assert.Equal(t, 24, end)

	require.Equal(t, src.NodeCount(), out.NodeCount())
	for i, want := range src.Nodes() {
		got := out.Node(i)
		assert.Equal(t, want.Type, got.Type)
		assert.Equal(t, want.Pos, got.Pos)
		assert.Equal(t, want.StartFrame, got.StartFrame)
		assert.Equal(t, want.EndFrame, got.EndFrame)
		assert.Equal(t, want.PinnedIO, got.PinnedIO)
		assert.Equal(t, want.Samplers, got.Samplers)
		assert.Equal(t, want.Multiplex, got.Multiplex)
		assert.True(t, want.Params.Equal(got.Params), "params of node %d", i)
	}
	assert.Equal(t, src.Links(), out.Links())
	assert.Equal(t, src.Rugs(), out.Rugs())
	assert.Equal(t, src.AnimTracks(), out.AnimTracks())
	assert.False(t, out.CanUndo(), "loading is not undoable")
}

func TestSaveAndLoadProject(t *testing.T) {
	ctx := context.Background()
	table := testTable(t)
	loader := NewLoader()
	path := filepath.Join(t.TempDir(), "project.hcl")

	require.NoError(t, loader.SaveProject(ctx, path, buildProject(t, table)))

	out := graph.New(table)
	require.NoError(t, loader.LoadProject(ctx, path, out))
	assert.Equal(t, 2, out.NodeCount())
	assert.Len(t, out.Links(), 1)
}

func TestParseProjectErrors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "unknown node type",
			src:     "node \"Nope\" \"a\" {}\n",
			wantErr: "unknown node type 'Nope'",
		},
		{
			name:    "duplicate name",
			src:     "node \"Crop\" \"a\" {}\nnode \"Crop\" \"a\" {}\n",
			wantErr: "node 'a' declared twice",
		},
		{
			name: "link to unknown node",
			src: "node \"Crop\" \"a\" {}\n" +
				"link {\n  from = \"a\"\n  from_slot = 0\n  to = \"b\"\n  to_slot = 0\n}\n",
			wantErr: "link refers to unknown node 'b'",
		},
		{
			name: "link slot out of range",
			src: "node \"ImageRead\" \"r\" {}\nnode \"Crop\" \"c\" {}\n" +
				"link {\n  from = \"r\"\n  from_slot = 0\n  to = \"c\"\n  to_slot = 3\n}\n",
			wantErr: "node 'c' has no input 3",
		},
		{
			name: "cycle",
			src: "node \"Crop\" \"a\" {}\nnode \"Crop\" \"b\" {}\n" +
				"link {\n  from = \"a\"\n  from_slot = 0\n  to = \"b\"\n  to_slot = 0\n}\n" +
				"link {\n  from = \"b\"\n  from_slot = 0\n  to = \"a\"\n  to_slot = 0\n}\n",
			wantErr: graph.ErrCycle.Error(),
		},
		{
			name: "unknown wrap mode",
			src: "node \"Crop\" \"a\" {\n  sampler {\n    slot = 0\n    wrap_u = \"spiral\"\n  }\n}\n",
			wantErr: "unknown wrap mode \"spiral\"",
		},
		{
			name: "track on a filename",
			src: "node \"ImageRead\" \"r\" {}\n" +
				"track {\n  node = \"r\"\n  param = \"file\"\n}\n",
			wantErr: "cannot be animated",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := graph.New(testTable(t))
			err := NewLoader().ParseProject(context.Background(), []byte(tc.src), "project.hcl", m)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestParseProjectIgnoresUnknownParameters(t *testing.T) {
	src := "node \"Crop\" \"a\" {\n  params {\n    quad = [0, 0, 0.5, 0.5]\n    gone = 3\n  }\n}\n"
	m := graph.New(testTable(t))

	require.NoError(t, NewLoader().ParseProject(context.Background(), []byte(src), "project.hcl", m))

	crop := m.Node(0)
	assert.Equal(t, "0,0,0.5,0.5", crop.Params.Text(m.Meta(0).ParamIndex("quad")))
}
