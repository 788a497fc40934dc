package graph

import (
	"fmt"

	"github.com/specialistvlad/texgridgo/internal/undo"
)

func (m *Model) rugsRef() *[]Rug { return &m.rugs }

func (m *Model) rugHooks() undo.Hooks {
	touched := func(r int) { m.pushDirty(-1, r, DirtyRugChanged) }
	return undo.Hooks{OnDelete: touched, OnNew: touched}
}

func (m *Model) mustRug(op string, r int) {
	if r < 0 || r >= len(m.rugs) {
		panic(fmt.Sprintf("graph: %s: rug index %d out of range [0,%d)", op, r, len(m.rugs)))
	}
}

// AddRug appends a comment box and returns its index.
func (m *Model) AddRug(rug Rug) int {
	m.mustTransaction("AddRug")
	m.rugs = append(m.rugs, rug)
	r := len(m.rugs) - 1
	m.record(undo.NewInsert(m.rugsRef, r, nil, m.rugHooks()))
	m.rugHooks().OnNew(r)
	return r
}

// DelRug removes comment box r.
func (m *Model) DelRug(r int) {
	m.mustTransaction("DelRug")
	m.mustRug("DelRug", r)
	cmd := undo.NewRemove(m.rugsRef, r, nil, m.rugHooks())
	m.record(cmd)
	cmd.Redo()
}

// SetRug replaces comment box r.
func (m *Model) SetRug(r int, rug Rug) {
	m.mustTransaction("SetRug")
	m.mustRug("SetRug", r)
	notify := func() { m.pushDirty(-1, r, DirtyRugChanged) }
	cmd := undo.NewChange(func() *Rug { return &m.rugs[r] }, nil, notify)
	m.rugs[r] = rug
	m.record(cmd.Commit())
	notify()
}
