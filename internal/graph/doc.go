// Package graph provides the GraphModel: the node, link, rug and animation
// store of a document, with transactional mutation, undo/redo and dirty-list
// emission.
//
// # Why Transactions
//
// Every mutation goes through a transaction so that one user gesture (drag a
// link, paste a selection, load a project) becomes exactly one undo step and
// the evaluation context sees one consistent set of dirty entries:
//
//	m.BeginTransaction(true)
//	a := m.AddNode(readType, graph.Vec2{})
//	b := m.AddNode(cropType, graph.Vec2{X: 200})
//	_ = m.AddLink(a, 0, b, 0)
//	m.EndTransaction()
//
// Calling a mutating method outside BeginTransaction/EndTransaction, or Undo
// and Redo inside one, is a programming error and panics. Non-undoable
// transactions (continuous drags, animation playback) mutate without
// registering an undo step.
//
// # Indices and Links
//
// Nodes are addressed by index. A Link connects the output slot of its input
// node (the producer) to the input slot of its output node (the consumer):
//
//	Link{InputNode: a, InputSlot: 0, OutputNode: b, OutputSlot: 0} // a -> b
//
// Deleting node i removes every link touching i and decrements every stored
// reference above i (links, animation tracks, multiplex overrides, pending
// dirty entries). Node.RuntimeID is stable across these shifts and across
// undo/redo, and is what the evaluation stages are keyed by.
//
// # Dirty List
//
// Mutations append DirtyEntry values. The evaluation driver drains them once
// per pass with TakeDirtyList; an entry is never delivered twice.
//
// # Thread-Safety
//
// A Model is owned by the main goroutine. It performs no locking.
package graph
