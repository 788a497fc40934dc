package graph

import "math"

type clipboard struct {
	nodes []Node
	links []Link // indices relative to nodes
}

// CopySelectedNodes copies the selected nodes and the links between them.
func (m *Model) CopySelectedNodes() int {
	sel := m.Selection()
	remap := make(map[int]int, len(sel))
	cb := clipboard{}
	for _, i := range sel {
		remap[i] = len(cb.nodes)
		cb.nodes = append(cb.nodes, cloneNode(m.nodes[i]))
	}
	for _, l := range m.links {
		src, okSrc := remap[l.InputNode]
		dst, okDst := remap[l.OutputNode]
		if okSrc && okDst {
			cb.links = append(cb.links, Link{InputNode: src, InputSlot: l.InputSlot, OutputNode: dst, OutputSlot: l.OutputSlot})
		}
	}
	m.clipboard = cb
	return len(cb.nodes)
}

// CutSelectedNodes copies then deletes the selection.
func (m *Model) CutSelectedNodes() int {
	m.mustTransaction("CutSelectedNodes")
	n := m.CopySelectedNodes()
	m.DeleteSelectedNodes()
	return n
}

// IsClipboardEmpty reports whether PasteNodes would add anything.
func (m *Model) IsClipboardEmpty() bool { return len(m.clipboard.nodes) == 0 }

// PasteNodes adds the clipboard content with its top-left corner at origin.
// Pasted nodes get fresh runtime ids and become the selection. It returns the
// new node indices.
func (m *Model) PasteNodes(origin Vec2) []int {
	m.mustTransaction("PasteNodes")
	if m.IsClipboardEmpty() {
		return nil
	}
	m.SelectAll(false)

	corner := Vec2{X: math.MaxFloat32, Y: math.MaxFloat32}
	for _, n := range m.clipboard.nodes {
		corner.X = min(corner.X, n.Pos.X)
		corner.Y = min(corner.Y, n.Pos.Y)
	}

	added := make([]int, len(m.clipboard.nodes))
	for c, src := range m.clipboard.nodes {
		n := cloneNode(src)
		n.RuntimeID = m.newID()
		n.Pos = n.Pos.Sub(corner).Add(origin)
		n.Selected = true
		for s := range n.Multiplex {
			n.Multiplex[s] = NoMultiplex
		}
		added[c] = m.insertNode(n)
	}
	for _, l := range m.clipboard.links {
		// Pasted nodes are fresh sinks, so these links cannot close a cycle.
		_ = m.AddLink(added[l.InputNode], l.InputSlot, added[l.OutputNode], l.OutputSlot)
	}
	return added
}
