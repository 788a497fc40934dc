package graph

import (
	"fmt"

	"github.com/specialistvlad/texgridgo/internal/undo"
)

func (m *Model) linksRef() *[]Link { return &m.links }

func (m *Model) linkHooks() undo.Hooks {
	touched := func(l int) {
		link := m.links[l]
		m.pushDirty(link.OutputNode, link.OutputSlot, DirtyInput)
	}
	return undo.Hooks{OnDelete: touched, OnNew: touched}
}

func (m *Model) eraseLink(l int) {
	cmd := undo.NewRemove(m.linksRef, l, nil, m.linkHooks())
	m.record(cmd)
	cmd.Redo()
}

// AddLink connects output slot srcSlot of src to input slot dstSlot of dst.
// An existing link into (dst, dstSlot) is replaced. ErrCycle is returned when
// src == dst or dst already reaches src. Out of range nodes or slots panic.
func (m *Model) AddLink(src, srcSlot, dst, dstSlot int) error {
	m.mustTransaction("AddLink")
	m.mustNode("AddLink", src)
	m.mustNode("AddLink", dst)
	if outs := len(m.Meta(src).Outputs); srcSlot < 0 || srcSlot >= outs {
		panic(fmt.Sprintf("graph: AddLink: output slot %d out of range [0,%d) on node %d", srcSlot, outs, src))
	}
	if ins := len(m.Meta(dst).Inputs); dstSlot < 0 || dstSlot >= ins {
		panic(fmt.Sprintf("graph: AddLink: input slot %d out of range [0,%d) on node %d", dstSlot, ins, dst))
	}
	if src == dst || m.RecurseIsLinked(dst, src) {
		return fmt.Errorf("%w: %d -> %d", ErrCycle, src, dst)
	}

	if l := m.driver(dst, dstSlot); l >= 0 {
		if m.links[l].InputNode == src && m.links[l].InputSlot == srcSlot {
			return nil
		}
		m.eraseLink(l)
	}

	m.links = append(m.links, Link{InputNode: src, InputSlot: srcSlot, OutputNode: dst, OutputSlot: dstSlot})
	l := len(m.links) - 1
	m.record(undo.NewInsert(m.linksRef, l, nil, m.linkHooks()))
	m.linkHooks().OnNew(l)
	return nil
}

// DelLink removes the link driving input slot of node. It reports whether a
// link was removed.
func (m *Model) DelLink(node, slot int) bool {
	m.mustTransaction("DelLink")
	l := m.driver(node, slot)
	if l < 0 {
		return false
	}
	m.eraseLink(l)
	return true
}

// DelLinkAt removes the link at index l of Links().
func (m *Model) DelLinkAt(l int) {
	m.mustTransaction("DelLinkAt")
	if l < 0 || l >= len(m.links) {
		panic(fmt.Sprintf("graph: DelLinkAt: link index %d out of range [0,%d)", l, len(m.links)))
	}
	m.eraseLink(l)
}

// driver returns the index of the link feeding (node, slot), -1 if none.
func (m *Model) driver(node, slot int) int {
	for l, link := range m.links {
		if link.OutputNode == node && link.OutputSlot == slot {
			return l
		}
	}
	return -1
}

// InputNodes returns, per input slot of node i, the producing node or -1.
// Multiplex overrides take precedence over links.
func (m *Model) InputNodes(i int) [8]int {
	m.mustNode("InputNodes", i)
	var out [8]int
	for s := range out {
		out[s] = -1
	}
	for _, link := range m.links {
		if link.OutputNode == i && link.OutputSlot < len(out) {
			out[link.OutputSlot] = link.InputNode
		}
	}
	for s, src := range m.nodes[i].Multiplex {
		if src != NoMultiplex {
			out[s] = src
		}
	}
	return out
}

// RecurseIsLinked reports whether following links from `from` (as producer)
// reaches `to`.
func (m *Model) RecurseIsLinked(from, to int) bool {
	seen := make(map[int]bool)
	var walk func(n int) bool
	walk = func(n int) bool {
		if seen[n] {
			return false
		}
		seen[n] = true
		for _, link := range m.links {
			if link.InputNode != n {
				continue
			}
			if link.OutputNode == to || walk(link.OutputNode) {
				return true
			}
		}
		return false
	}
	return walk(from)
}

// IsIOUsed reports whether a link is attached to the slot.
func (m *Model) IsIOUsed(node, slot int, forOutput bool) bool {
	for _, link := range m.links {
		if forOutput && link.InputNode == node && link.InputSlot == slot {
			return true
		}
		if !forOutput && link.OutputNode == node && link.OutputSlot == slot {
			return true
		}
	}
	return false
}
