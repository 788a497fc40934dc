// Package dag computes evaluation orders over node graphs. Vertices are the
// node indices of a graph model; edges point from the producing node to the
// consuming node.
//
// Order is Kahn's algorithm with a min-heap so that independent nodes keep
// their relative index order, and DetectCycles is a depth-first search used
// to name the offending node when no complete order exists.
package dag
