package dot

import (
	"testing"

	"github.com/specialistvlad/texgridgo/internal/graph"
	"github.com/specialistvlad/texgridgo/internal/metanode"
	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModel(t *testing.T) *graph.Model {
	t.Helper()
	table, err := metanode.NewTable([]metanode.MetaNode{
		{Name: "Color", Outputs: []metanode.Slot{{Name: "out"}}, Params: []metanode.MetaParam{{Name: "color", Type: params.Color4}}},
		{Name: "Blend", Inputs: []metanode.Slot{{Name: "a"}, {Name: "b"}}, Outputs: []metanode.Slot{{Name: "out"}}, Experimental: true},
	})
	require.NoError(t, err)

	m := graph.New(table)
	m.BeginTransaction(true)
	defer m.EndTransaction()
	c := m.AddNode(0, graph.Vec2{X: 0, Y: 10})
	b := m.AddNode(1, graph.Vec2{X: 100, Y: 10})
	require.NoError(t, m.AddLink(c, 0, b, 1))
	return m
}

func TestToDOT(t *testing.T) {
	m := testModel(t)

	out := ToDOT(m, Options{Order: []int{0, 1}})

	assert.Contains(t, out, "digraph G {")
	assert.Contains(t, out, `n0 [label="Color #0\norder: 0"];`)
	assert.Contains(t, out, `n1 [label="Blend #1\norder: 1", fillcolor=lightyellow];`)
	assert.Contains(t, out, `n0 -> n1 [label="out -> b"];`)
	assert.NotContains(t, out, "pos=")
}

func TestToDOTPositions(t *testing.T) {
	out := ToDOT(testModel(t), Options{Positions: true})
	assert.Contains(t, out, `pos="100,-10!"`)
}
