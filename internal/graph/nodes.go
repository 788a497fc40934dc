package graph

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/texgridgo/internal/metanode"
	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/specialistvlad/texgridgo/internal/undo"
)

func (m *Model) nodesRef() *[]Node { return &m.nodes }

func (m *Model) nodeHooks() undo.Hooks {
	return undo.Hooks{OnDelete: m.nodeRemoved, OnNew: m.nodeInserted}
}

// nodeRemoved shifts every stored node reference above i down by one. Links
// and tracks of node i must already be gone.
func (m *Model) nodeRemoved(i int) {
	for l := range m.links {
		if m.links[l].InputNode > i {
			m.links[l].InputNode--
		}
		if m.links[l].OutputNode > i {
			m.links[l].OutputNode--
		}
	}
	for t := range m.tracks {
		if m.tracks[t].NodeIndex > i {
			m.tracks[t].NodeIndex--
		}
	}
	for n := range m.nodes {
		for s, src := range m.nodes[n].Multiplex {
			if src > i {
				m.nodes[n].Multiplex[s]--
			}
		}
	}
	kept := m.dirty[:0]
	for _, e := range m.dirty {
		if !e.Kind.Structural() {
			if e.Node == i {
				continue
			}
			if e.Node > i {
				e.Node--
			}
		}
		kept = append(kept, e)
	}
	m.dirty = kept
	m.pushDirty(i, -1, DirtyDeletedNode)
}

// nodeInserted shifts every stored node reference at or above i up by one.
func (m *Model) nodeInserted(i int) {
	for l := range m.links {
		if m.links[l].InputNode >= i {
			m.links[l].InputNode++
		}
		if m.links[l].OutputNode >= i {
			m.links[l].OutputNode++
		}
	}
	for t := range m.tracks {
		if m.tracks[t].NodeIndex >= i {
			m.tracks[t].NodeIndex++
		}
	}
	for n := range m.nodes {
		if n == i {
			continue
		}
		for s, src := range m.nodes[n].Multiplex {
			if src >= i {
				m.nodes[n].Multiplex[s]++
			}
		}
	}
	for d := range m.dirty {
		if !m.dirty[d].Kind.Structural() && m.dirty[d].Node >= i {
			m.dirty[d].Node++
		}
	}
	m.pushDirty(i, -1, DirtyAddedNode)
}

// AddNode appends a node of the given type with default parameters and
// returns its index.
func (m *Model) AddNode(typ int, pos Vec2) int {
	m.mustTransaction("AddNode")
	meta := m.table.Node(typ)

	n := Node{
		Type:      typ,
		RuntimeID: m.newID(),
		Params:    params.NewBlock(meta.Layout()),
		Pos:       pos,
		Samplers:  make([]InputSampler, len(meta.Inputs)),
		EndFrame:  1,
	}
	for s := range n.Multiplex {
		n.Multiplex[s] = NoMultiplex
	}
	return m.insertNode(n)
}

func (m *Model) insertNode(n Node) int {
	m.nodes = append(m.nodes, n)
	i := len(m.nodes) - 1
	m.nodeInserted(i)
	m.record(undo.NewInsert(m.nodesRef, i, cloneNode, m.nodeHooks()))
	return i
}

// DeleteNode removes node i with its links, animation tracks and the
// multiplex overrides pointing at it.
func (m *Model) DeleteNode(i int) {
	m.mustTransaction("DeleteNode")
	m.mustNode("DeleteNode", i)

	for l := 0; l < len(m.links); {
		if m.links[l].InputNode == i || m.links[l].OutputNode == i {
			m.eraseLink(l)
			continue
		}
		l++
	}
	for t := len(m.tracks) - 1; t >= 0; t-- {
		if m.tracks[t].NodeIndex == i {
			m.eraseTrack(t)
		}
	}
	for n := range m.nodes {
		if n == i || !slices.Contains(m.nodes[n].Multiplex[:], i) {
			continue
		}
		m.editMultiplex(n, func(mux *[8]int) {
			for s := range mux {
				if mux[s] == i {
					mux[s] = NoMultiplex
				}
			}
		})
	}

	cmd := undo.NewRemove(m.nodesRef, i, cloneNode, m.nodeHooks())
	m.record(cmd)
	cmd.Redo()
}

// DeleteSelectedNodes deletes every selected node, highest index first.
func (m *Model) DeleteSelectedNodes() {
	m.mustTransaction("DeleteSelectedNodes")
	for i := len(m.nodes) - 1; i >= 0; i-- {
		if m.nodes[i].Selected {
			m.DeleteNode(i)
		}
	}
}

// change records an undoable edit of a field of node i reached through get.
func change[T any](m *Model, i int, get func(n *Node) *T, clone undo.CloneFunc[T], kind DirtyKind, slot int, edit func(v *T)) {
	notify := func() { m.pushDirty(i, slot, kind) }
	cmd := undo.NewChange(func() *T { return get(&m.nodes[i]) }, clone, notify)
	edit(get(&m.nodes[i]))
	m.record(cmd.Commit())
	notify()
}

func (m *Model) editMultiplex(i int, edit func(mux *[8]int)) {
	change(m, i, func(n *Node) *[8]int { return &n.Multiplex }, nil, DirtyInput, -1, edit)
}

// SelectNode sets the selection flag of node i.
func (m *Model) SelectNode(i int, selected bool) {
	m.mustTransaction("SelectNode")
	m.mustNode("SelectNode", i)
	change(m, i, func(n *Node) *bool { return &n.Selected }, nil, DirtyVisualGraph, -1,
		func(v *bool) { *v = selected })
}

// SelectAll sets the selection flag of every node.
func (m *Model) SelectAll(selected bool) {
	m.mustTransaction("SelectAll")
	for i := range m.nodes {
		if m.nodes[i].Selected != selected {
			m.SelectNode(i, selected)
		}
	}
}

// MoveSelectedNodes offsets every selected node.
func (m *Model) MoveSelectedNodes(delta Vec2) {
	m.mustTransaction("MoveSelectedNodes")
	for i := range m.nodes {
		if m.nodes[i].Selected {
			m.SetNodePosition(i, m.nodes[i].Pos.Add(delta))
		}
	}
}

// SetNodePosition moves node i.
func (m *Model) SetNodePosition(i int, pos Vec2) {
	m.mustTransaction("SetNodePosition")
	m.mustNode("SetNodePosition", i)
	change(m, i, func(n *Node) *Vec2 { return &n.Pos }, nil, DirtyVisualGraph, -1,
		func(v *Vec2) { *v = pos })
}

func cloneBlock(b *params.Block) *params.Block { return b.Clone() }

func cloneSamplers(s []InputSampler) []InputSampler { return slices.Clone(s) }

// SetParameter parses value into the named parameter of node i. Unknown
// nodes, unknown names and unparseable values are ignored and return false.
func (m *Model) SetParameter(i int, name, value string) bool {
	m.mustTransaction("SetParameter")
	if i < 0 || i >= len(m.nodes) {
		return false
	}
	p := m.nodes[i].Params.Layout().Index(name)
	if p < 0 {
		return false
	}
	next := m.nodes[i].Params.Clone()
	if !next.SetParameterAt(p, value) {
		return false
	}
	kind := DirtyParameter
	if m.Meta(i).Params[p].Type == params.Camera {
		kind = DirtyCamera
	}
	change(m, i, func(n *Node) **params.Block { return &n.Params }, cloneBlock, kind, -1,
		func(b **params.Block) { *b = next })
	return true
}

// SetParameterBlock replaces the whole parameter block of node i.
func (m *Model) SetParameterBlock(i int, b *params.Block) {
	m.mustTransaction("SetParameterBlock")
	m.mustNode("SetParameterBlock", i)
	if b.Layout() != m.nodes[i].Params.Layout() {
		panic(fmt.Sprintf("graph: SetParameterBlock: layout mismatch for node %d", i))
	}
	change(m, i, func(n *Node) **params.Block { return &n.Params }, cloneBlock, DirtyParameter, -1,
		func(v **params.Block) { *v = b.Clone() })
}

// SetSamplers replaces the input samplers of node i.
func (m *Model) SetSamplers(i int, samplers []InputSampler) {
	m.mustTransaction("SetSamplers")
	m.mustNode("SetSamplers", i)
	change(m, i, func(n *Node) *[]InputSampler { return &n.Samplers }, cloneSamplers, DirtySampler, -1,
		func(v *[]InputSampler) { *v = slices.Clone(samplers) })
}

func ioMask(io int, forOutput bool) uint32 {
	if io < 0 || io >= metanode.MaxInputs {
		panic(fmt.Sprintf("graph: io slot %d out of range [0,%d)", io, metanode.MaxInputs))
	}
	if forOutput {
		return 1 << io
	}
	return 1 << (8 + io)
}

// SetIOPin pins or unpins an input or output slot of node i.
func (m *Model) SetIOPin(i, io int, forOutput, pinned bool) {
	m.mustTransaction("SetIOPin")
	m.mustNode("SetIOPin", i)
	mask := ioMask(io, forOutput)
	change(m, i, func(n *Node) *uint32 { return &n.PinnedIO }, nil, DirtyVisualGraph, io,
		func(v *uint32) { *v = setBit(*v, mask, pinned) })
}

// IsIOPinned reports the pin state of a slot.
func (m *Model) IsIOPinned(i, io int, forOutput bool) bool {
	if i < 0 || i >= len(m.nodes) {
		return false
	}
	return m.nodes[i].PinnedIO&ioMask(io, forOutput) != 0
}

// SetParameterPin pins or unpins a parameter of node i.
func (m *Model) SetParameterPin(i, param int, pinned bool) {
	m.mustTransaction("SetParameterPin")
	m.mustNode("SetParameterPin", i)
	if param < 0 || param >= metanode.MaxParams {
		panic(fmt.Sprintf("graph: parameter %d out of range [0,%d)", param, metanode.MaxParams))
	}
	change(m, i, func(n *Node) *uint32 { return &n.PinnedParams }, nil, DirtyVisualGraph, -1,
		func(v *uint32) { *v = setBit(*v, 1<<param, pinned) })
}

// IsParameterPinned reports the pin state of a parameter.
func (m *Model) IsParameterPinned(i, param int) bool {
	if i < 0 || i >= len(m.nodes) || param < 0 || param >= metanode.MaxParams {
		return false
	}
	return m.nodes[i].PinnedParams&(1<<param) != 0
}

func setBit(v, mask uint32, on bool) uint32 {
	v &^= mask
	if on {
		v |= mask
	}
	return v
}

// SetMultiplexed overrides input slot of node i with the output of source,
// or restores the linked input when source is NoMultiplex.
func (m *Model) SetMultiplexed(i, slot, source int) {
	m.mustTransaction("SetMultiplexed")
	m.mustNode("SetMultiplexed", i)
	if slot < 0 || slot >= metanode.MaxInputs {
		panic(fmt.Sprintf("graph: SetMultiplexed: slot %d out of range [0,%d)", slot, metanode.MaxInputs))
	}
	if source != NoMultiplex {
		m.mustNode("SetMultiplexed", source)
	}
	change(m, i, func(n *Node) *[8]int { return &n.Multiplex }, nil, DirtyInput, slot,
		func(v *[8]int) { v[slot] = source })
}

// MultiplexCandidates lists the nodes whose output may be substituted into
// the inputs of node i: its direct producers, looking through producers whose
// type carries a Multiplexer parameter.
func (m *Model) MultiplexCandidates(i int) []int {
	m.mustNode("MultiplexCandidates", i)
	var out []int
	seen := map[int]bool{}
	var walk func(n int)
	walk = func(n int) {
		for _, l := range m.links {
			if l.OutputNode != n || seen[l.InputNode] {
				continue
			}
			seen[l.InputNode] = true
			if m.hasMultiplexer(l.InputNode) {
				walk(l.InputNode)
				continue
			}
			out = append(out, l.InputNode)
		}
	}
	walk(i)
	slices.Sort(out)
	return out
}

func (m *Model) hasMultiplexer(i int) bool {
	for _, p := range m.Meta(i).Params {
		if p.Type == params.Multiplexer {
			return true
		}
	}
	return false
}

// SetStartEndFrame sets the active frame range of node i.
func (m *Model) SetStartEndFrame(i, start, end int) {
	m.mustTransaction("SetStartEndFrame")
	m.mustNode("SetStartEndFrame", i)
	apply := func(start, end int) {
		m.nodes[i].StartFrame, m.nodes[i].EndFrame = start, end
		m.pushDirty(i, -1, DirtyStartEndTime)
	}
	prevStart, prevEnd := m.nodes[i].StartFrame, m.nodes[i].EndFrame
	m.record(undo.Func{
		UndoFn: func() { apply(prevStart, prevEnd) },
		RedoFn: func() { apply(start, end) },
	})
	apply(start, end)
}
