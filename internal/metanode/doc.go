// Package metanode holds the static node type descriptions: parameters,
// input and output slots, and the derived parameter block layout.
//
// A Table is built once at startup (usually from the library manifests) and
// is never mutated afterwards, so it can be shared by the graph model, the
// evaluator registry and the evaluation context without locking.
package metanode
