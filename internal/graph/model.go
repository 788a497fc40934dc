package graph

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/specialistvlad/texgridgo/internal/metanode"
	"github.com/specialistvlad/texgridgo/internal/undo"
)

// Model is the document: nodes, links, rugs and animation tracks.
type Model struct {
	table *metanode.Table

	nodes  []Node
	links  []Link
	rugs   []Rug
	tracks []AnimTrack

	frameStart int
	frameEnd   int

	inTransaction bool
	current       *undo.Composite
	history       *undo.Handler

	dirty     []DirtyEntry
	clipboard clipboard

	newID func() uuid.UUID
}

// Option configures a Model.
type Option func(*Model)

// WithIDGenerator replaces uuid.New, mostly for deterministic tests.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(m *Model) { m.newID = fn }
}

// New creates an empty model over a node type table.
func New(table *metanode.Table, opts ...Option) *Model {
	m := &Model{
		table:    table,
		history:  undo.NewHandler(),
		newID:    uuid.New,
		frameEnd: 1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Table returns the node type table the model was built with.
func (m *Model) Table() *metanode.Table { return m.table }

// Clear drops the whole document and the undo history.
func (m *Model) Clear() {
	if m.inTransaction {
		panic("graph: Clear called inside a transaction")
	}
	for i := len(m.nodes) - 1; i >= 0; i-- {
		m.pushDirty(i, -1, DirtyDeletedNode)
	}
	m.nodes = nil
	m.links = nil
	m.rugs = nil
	m.tracks = nil
	m.frameStart, m.frameEnd = 0, 1
	m.history.Clear()
}

// BeginTransaction opens a transaction. Undoable transactions record one undo
// step when they end.
func (m *Model) BeginTransaction(undoable bool) {
	if m.inTransaction {
		panic("graph: BeginTransaction called inside a transaction")
	}
	m.inTransaction = true
	if undoable {
		m.current = &undo.Composite{}
	}
}

// InTransaction reports whether a transaction is open.
func (m *Model) InTransaction() bool { return m.inTransaction }

// EndTransaction commits the open transaction.
func (m *Model) EndTransaction() {
	if !m.inTransaction {
		panic("graph: EndTransaction called without a transaction")
	}
	m.inTransaction = false
	if m.current != nil {
		m.history.Push(m.current)
		m.current = nil
	}
}

// Undo reverts the last undoable transaction.
func (m *Model) Undo() bool {
	if m.inTransaction {
		panic("graph: Undo called inside a transaction")
	}
	return m.history.Undo()
}

// Redo replays the last undone transaction.
func (m *Model) Redo() bool {
	if m.inTransaction {
		panic("graph: Redo called inside a transaction")
	}
	return m.history.Redo()
}

func (m *Model) CanUndo() bool { return m.history.CanUndo() }
func (m *Model) CanRedo() bool { return m.history.CanRedo() }

// TakeDirtyList returns the pending entries and clears them.
func (m *Model) TakeDirtyList() []DirtyEntry {
	out := m.dirty
	m.dirty = nil
	return out
}

// PendingDirty returns how many entries are waiting to be drained.
func (m *Model) PendingDirty() int { return len(m.dirty) }

func (m *Model) pushDirty(node, slot int, kind DirtyKind) {
	m.dirty = append(m.dirty, DirtyEntry{Node: node, Slot: slot, Kind: kind})
}

func (m *Model) record(cmd undo.Command) {
	if m.current != nil {
		m.current.Add(cmd)
	}
}

func (m *Model) mustTransaction(op string) {
	if !m.inTransaction {
		panic(fmt.Sprintf("graph: %s called outside a transaction", op))
	}
}

func (m *Model) mustNode(op string, i int) {
	if i < 0 || i >= len(m.nodes) {
		panic(fmt.Sprintf("graph: %s: node index %d out of range [0,%d)", op, i, len(m.nodes)))
	}
}

// Getters. The returned slices must not be modified.

func (m *Model) Nodes() []Node           { return m.nodes }
func (m *Model) Links() []Link           { return m.links }
func (m *Model) Rugs() []Rug             { return m.rugs }
func (m *Model) AnimTracks() []AnimTrack { return m.tracks }
func (m *Model) NodeCount() int          { return len(m.nodes) }

// Node returns a copy of the node at i.
func (m *Model) Node(i int) Node {
	m.mustNode("Node", i)
	return m.nodes[i]
}

// NodeIndex finds a node by runtime id, -1 when absent.
func (m *Model) NodeIndex(id uuid.UUID) int {
	for i := range m.nodes {
		if m.nodes[i].RuntimeID == id {
			return i
		}
	}
	return -1
}

// Meta returns the metadata of node i.
func (m *Model) Meta(i int) *metanode.MetaNode {
	m.mustNode("Meta", i)
	return m.table.Node(m.nodes[i].Type)
}

// NodeHasUI reports whether node i's type takes mouse input.
func (m *Model) NodeHasUI(i int) bool {
	if i < 0 || i >= len(m.nodes) {
		return false
	}
	return m.table.Node(m.nodes[i].Type).HasUI
}

// FrameRange returns the document start and end frames.
func (m *Model) FrameRange() (int, int) { return m.frameStart, m.frameEnd }

// SetFrameRange sets the document start and end frames.
func (m *Model) SetFrameRange(start, end int) {
	m.mustTransaction("SetFrameRange")
	prevStart, prevEnd := m.frameStart, m.frameEnd
	m.record(undo.Func{
		UndoFn: func() { m.frameStart, m.frameEnd = prevStart, prevEnd },
		RedoFn: func() { m.frameStart, m.frameEnd = start, end },
	})
	m.frameStart, m.frameEnd = start, end
}

// Selection returns the indices of selected nodes.
func (m *Model) Selection() []int {
	var out []int
	for i := range m.nodes {
		if m.nodes[i].Selected {
			out = append(out, i)
		}
	}
	return out
}
