package graph

import "math"

// Layout spacing on the canvas.
const (
	LayerSpacing = 180
	StackSpacing = 140
	nodeExtent   = 100
)

// LayoutPosition is the (layer, stack) cell of a node. Layer 0 holds the
// sinks, producers sit in higher layers.
type LayoutPosition struct {
	Layer int
	Stack int
}

// Layout assigns cells walking backward along links from each node of order,
// last to first. order is a topological evaluation order. Revisiting a node
// from a deeper layer moves it there and compacts the stack it left. A node
// reached again at its own layer or a shallower one is not walked again:
// its producers already sit deeper than that walk would put them.
func (m *Model) Layout(order []int) []LayoutPosition {
	pos := make([]LayoutPosition, len(m.nodes))
	for i := range pos {
		pos[i] = LayoutPosition{Layer: -1, Stack: -1}
	}
	stacks := map[int]int{}
	place := func(n, layer int) {
		pos[n].Layer = layer
		if _, ok := stacks[layer]; ok {
			stacks[layer]++
		} else {
			stacks[layer] = 0
		}
		pos[n].Stack = stacks[layer]
	}

	var walk func(n, layer int)
	walk = func(n, layer int) {
		switch {
		case pos[n].Layer == -1:
			place(n, layer)
		case layer > pos[n].Layer:
			old := pos[n]
			for i := range pos {
				if pos[i].Layer == old.Layer && pos[i].Stack > old.Stack {
					pos[i].Stack--
				}
			}
			stacks[old.Layer]--
			place(n, layer)
		default:
			return
		}
		for _, src := range m.linkedInputs(n) {
			walk(src, layer+1)
		}
	}

	for i := len(order) - 1; i >= 0; i-- {
		walk(order[i], 0)
	}
	return pos
}

func (m *Model) linkedInputs(n int) []int {
	inputs := make([]int, len(m.Meta(n).Inputs))
	for s := range inputs {
		inputs[s] = -1
	}
	for _, l := range m.links {
		if l.OutputNode == n && l.OutputSlot < len(inputs) {
			inputs[l.OutputSlot] = l.InputNode
		}
	}
	out := inputs[:0]
	for _, src := range inputs {
		if src >= 0 {
			out = append(out, src)
		}
	}
	return out
}

// ApplyLayout moves every node to its layout cell, keeping the centre of the
// node bounds where it was. It runs as one undoable transaction.
func (m *Model) ApplyLayout(order []int) {
	if len(m.nodes) == 0 {
		return
	}
	cells := m.Layout(order)

	before := bounds(len(m.nodes), func(i int) Vec2 { return m.nodes[i].Pos })
	target := make([]Vec2, len(m.nodes))
	for i, c := range cells {
		target[i] = Vec2{X: -float32(c.Layer) * LayerSpacing, Y: float32(c.Stack) * StackSpacing}
	}
	after := bounds(len(target), func(i int) Vec2 { return target[i] })
	offset := before.center().Sub(after.center())

	m.BeginTransaction(true)
	for i := range target {
		m.SetNodePosition(i, target[i].Add(offset))
	}
	m.EndTransaction()
}

type rect struct{ min, max Vec2 }

func (r rect) center() Vec2 {
	return Vec2{X: (r.min.X + r.max.X) / 2, Y: (r.min.Y + r.max.Y) / 2}
}

func bounds(n int, at func(int) Vec2) rect {
	r := rect{
		min: Vec2{X: math.MaxFloat32, Y: math.MaxFloat32},
		max: Vec2{X: -math.MaxFloat32, Y: -math.MaxFloat32},
	}
	for i := 0; i < n; i++ {
		p := at(i)
		r.min.X, r.min.Y = min(r.min.X, p.X), min(r.min.Y, p.Y)
		r.max.X, r.max.Y = max(r.max.X, p.X+nodeExtent), max(r.max.Y, p.Y+nodeExtent)
	}
	return r
}
