// Package params implements the fixed-layout parameter storage of graph
// nodes. A Layout is derived once per node type from its metadata; a Block is
// a flat little-endian byte buffer laid out by it, so copying a block (undo
// snapshots, clipboard) is a byte copy.
package params
