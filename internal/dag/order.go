package dag

import (
	"container/heap"
	"errors"
	"fmt"
)

// ErrCycle is returned by Order when the graph is not acyclic.
var ErrCycle = errors.New("graph contains a cycle")

// indexHeap is a min-heap of vertex indices.
type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	v := old[len(old)-1]
	*h = old[:len(old)-1]
	return v
}

// Order returns a topological order, producers before consumers. Among the
// vertices ready at the same time the lowest index goes first, so the order
// is stable for a given graph.
func (g *Graph) Order() ([]int, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	pending := make([]int, len(g.deps))
	ready := &indexHeap{}
	for i, d := range g.deps {
		pending[i] = len(d)
		if pending[i] == 0 {
			*ready = append(*ready, i)
		}
	}
	heap.Init(ready)

	order := make([]int, 0, len(g.deps))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		order = append(order, n)
		for _, dependent := range g.dependents[n] {
			pending[dependent]--
			if pending[dependent] == 0 {
				heap.Push(ready, dependent)
			}
		}
	}

	if len(order) != len(g.deps) {
		if err := g.detectCycles(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCycle, err)
		}
		return nil, ErrCycle
	}
	return order, nil
}

// Downstream returns every vertex reachable from i, i excluded.
func (g *Graph) Downstream(i int) map[int]struct{} {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.reach(i, g.dependents)
}

// Upstream returns every vertex i transitively depends on, i excluded.
func (g *Graph) Upstream(i int) map[int]struct{} {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.reach(i, g.deps)
}

func (g *Graph) reach(start int, adj [][]int) map[int]struct{} {
	seen := make(map[int]struct{})
	stack := append([]int(nil), adj[start]...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		stack = append(stack, adj[n]...)
	}
	return seen
}

// Forward filters order down to i followed by its transitive consumers.
func Forward(g *Graph, order []int, i int) []int {
	keep := g.Downstream(i)
	keep[i] = struct{}{}
	return filter(order, keep)
}

// Backward filters order down to the transitive producers of i followed by i.
func Backward(g *Graph, order []int, i int) []int {
	keep := g.Upstream(i)
	keep[i] = struct{}{}
	return filter(order, keep)
}

func filter(order []int, keep map[int]struct{}) []int {
	out := make([]int, 0, len(keep))
	for _, n := range order {
		if _, ok := keep[n]; ok {
			out = append(out, n)
		}
	}
	return out
}
