package dag

import (
	"fmt"
	"slices"
)

// New creates a graph with n vertices and no edges.
func New(n int) *Graph {
	return &Graph{
		deps:       make([][]int, n),
		dependents: make([][]int, n),
	}
}

// FromEdges builds a graph of n vertices. Duplicate edges collapse into one.
func FromEdges(n int, edges []Edge) (*Graph, error) {
	g := New(n)
	for _, e := range edges {
		if err := g.AddEdge(e.From, e.To); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Len returns the number of vertices.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.deps)
}

// AddEdge creates a directed edge from `from` to `to`: `to` depends on `from`.
// An error is returned if either vertex does not exist or if the edge would
// be a self-reference.
func (g *Graph) AddEdge(from, to int) error {
	if from == to {
		return fmt.Errorf("self-referential edge not allowed: %d -> %d", from, from)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	if from < 0 || from >= len(g.deps) {
		return fmt.Errorf("source node not found: %d", from)
	}
	if to < 0 || to >= len(g.deps) {
		return fmt.Errorf("destination node not found: %d", to)
	}

	g.deps[to] = insertSorted(g.deps[to], from)
	g.dependents[from] = insertSorted(g.dependents[from], to)
	return nil
}

func insertSorted(s []int, v int) []int {
	i, found := slices.BinarySearch(s, v)
	if found {
		return s
	}
	return slices.Insert(s, i, v)
}

// Dependencies returns the producers of a vertex.
func (g *Graph) Dependencies(i int) []int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return slices.Clone(g.deps[i])
}

// Dependents returns the consumers of a vertex.
func (g *Graph) Dependents(i int) []int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return slices.Clone(g.dependents[i])
}

// DetectCycles checks the graph for cycles. It returns a non-nil error naming
// the first vertex found on a cycle.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.detectCycles()
}

func (g *Graph) detectCycles() error {
	// permanent: fully visited and not part of a cycle.
	// temporary: on the current recursion stack.
	permanent := make([]bool, len(g.deps))
	temporary := make([]bool, len(g.deps))

	var visit func(n int) error
	visit = func(n int) error {
		if permanent[n] {
			return nil
		}
		if temporary[n] {
			return fmt.Errorf("cycle detected involving node %d", n)
		}
		temporary[n] = true
		for _, dependent := range g.dependents[n] {
			if err := visit(dependent); err != nil {
				return err
			}
		}
		temporary[n] = false
		permanent[n] = true
		return nil
	}

	for n := range g.deps {
		if err := visit(n); err != nil {
			return err
		}
	}
	return nil
}
