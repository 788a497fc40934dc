package graph

import "fmt"

// GetParameterPins returns the parameter pin mask of every node.
func (m *Model) GetParameterPins() []uint32 {
	out := make([]uint32, len(m.nodes))
	for i := range m.nodes {
		out[i] = m.nodes[i].PinnedParams
	}
	return out
}

// SetParameterPins restores parameter pin masks, one per node.
func (m *Model) SetParameterPins(pins []uint32) {
	m.mustTransaction("SetParameterPins")
	m.mustPerNode("SetParameterPins", len(pins))
	for i, v := range pins {
		change(m, i, func(n *Node) *uint32 { return &n.PinnedParams }, nil, DirtyVisualGraph, -1,
			func(p *uint32) { *p = v })
	}
}

// GetIOPins returns the slot pin mask of every node.
func (m *Model) GetIOPins() []uint32 {
	out := make([]uint32, len(m.nodes))
	for i := range m.nodes {
		out[i] = m.nodes[i].PinnedIO
	}
	return out
}

// SetIOPins restores slot pin masks, one per node.
func (m *Model) SetIOPins(pins []uint32) {
	m.mustTransaction("SetIOPins")
	m.mustPerNode("SetIOPins", len(pins))
	for i, v := range pins {
		change(m, i, func(n *Node) *uint32 { return &n.PinnedIO }, nil, DirtyVisualGraph, -1,
			func(p *uint32) { *p = v })
	}
}

// GetMultiplexInputs returns the multiplex override table of every node.
func (m *Model) GetMultiplexInputs() [][8]int {
	out := make([][8]int, len(m.nodes))
	for i := range m.nodes {
		out[i] = m.nodes[i].Multiplex
	}
	return out
}

// SetMultiplexInputs restores multiplex override tables, one per node.
func (m *Model) SetMultiplexInputs(mux [][8]int) {
	m.mustTransaction("SetMultiplexInputs")
	m.mustPerNode("SetMultiplexInputs", len(mux))
	for i, v := range mux {
		for _, src := range v {
			if src != NoMultiplex {
				m.mustNode("SetMultiplexInputs", src)
			}
		}
		m.editMultiplex(i, func(p *[8]int) { *p = v })
	}
}

func (m *Model) mustPerNode(op string, n int) {
	if n != len(m.nodes) {
		panic(fmt.Sprintf("graph: %s: got %d entries for %d nodes", op, n, len(m.nodes)))
	}
}
