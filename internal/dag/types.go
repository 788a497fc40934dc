package dag

import "sync"

// Graph is an index-addressed directed graph: vertices are 0..n-1 and an edge
// from -> to means `to` consumes the output of `from`.
// All operations on the graph are concurrency-safe.
type Graph struct {
	mutex sync.RWMutex
	// deps[i] are the producers node i reads from, sorted ascending.
	deps [][]int
	// dependents[i] are the consumers of node i, sorted ascending.
	dependents [][]int
}

// Edge is a producer/consumer pair.
type Edge struct {
	From, To int
}
