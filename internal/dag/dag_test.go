package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	g := New(3)
	require.NotNil(t, g)
	assert.Equal(t, 3, g.Len())
	assert.Empty(t, g.Dependencies(0))
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New(2)
		require.NoError(t, g.AddEdge(0, 1))
		require.NoError(t, g.AddEdge(0, 1)) // duplicates collapse

		assert.Equal(t, []int{1}, g.Dependents(0))
		assert.Equal(t, []int{0}, g.Dependencies(1))
	})

	t.Run("error cases", func(t *testing.T) {
		g := New(2)

		err := g.AddEdge(5, 0)
		assert.ErrorContains(t, err, "source node not found")

		err = g.AddEdge(0, 5)
		assert.ErrorContains(t, err, "destination node not found")

		err = g.AddEdge(1, 1)
		assert.ErrorContains(t, err, "self-referential edge")
	})
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		assert.NoError(t, New(0).DetectCycles())
	})

	t.Run("valid dag has no cycles", func(t *testing.T) {
		g, err := FromEdges(4, []Edge{{0, 1}, {1, 2}, {0, 2}, {2, 3}})
		require.NoError(t, err)
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("longer cycle is detected", func(t *testing.T) {
		g, err := FromEdges(4, []Edge{{0, 1}, {1, 2}, {2, 3}, {3, 0}})
		require.NoError(t, err)
		assert.ErrorContains(t, g.DetectCycles(), "cycle detected")
	})

	t.Run("cycle in a disjoint component is detected", func(t *testing.T) {
		g, err := FromEdges(5, []Edge{{0, 1}, {2, 3}, {3, 4}, {4, 3}})
		require.NoError(t, err)
		assert.ErrorContains(t, g.DetectCycles(), "cycle detected")
	})
}

func TestOrder(t *testing.T) {
	t.Run("ties break by index", func(t *testing.T) {
		// 3 -> 1, 2 -> 0; independent chains interleave by lowest ready index.
		g, err := FromEdges(4, []Edge{{3, 1}, {2, 0}})
		require.NoError(t, err)

		order, err := g.Order()
		require.NoError(t, err)
		assert.Equal(t, []int{2, 0, 3, 1}, order)
	})

	t.Run("producers come first", func(t *testing.T) {
		g, err := FromEdges(4, []Edge{{3, 2}, {2, 1}, {1, 0}})
		require.NoError(t, err)

		order, err := g.Order()
		require.NoError(t, err)
		assert.Equal(t, []int{3, 2, 1, 0}, order)
	})

	t.Run("cycle fails", func(t *testing.T) {
		g, err := FromEdges(3, []Edge{{0, 1}, {1, 0}})
		require.NoError(t, err)

		_, err = g.Order()
		assert.ErrorIs(t, err, ErrCycle)
		assert.ErrorContains(t, err, "cycle detected")
	})
}

func TestForwardBackward(t *testing.T) {
	// 0 -> 1 -> 3, 2 -> 3, 4 isolated
	g, err := FromEdges(5, []Edge{{0, 1}, {1, 3}, {2, 3}})
	require.NoError(t, err)
	order, err := g.Order()
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3}, Forward(g, order, 1))
	assert.Equal(t, []int{0, 1, 2, 3}, Backward(g, order, 3))
	assert.Equal(t, []int{4}, Forward(g, order, 4))
}
