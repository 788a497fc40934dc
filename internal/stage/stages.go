package stage

import (
	"github.com/google/uuid"
	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/specialistvlad/texgridgo/internal/graph"
)

// Stages is the stage list, parallel to the model's node list.
type Stages struct {
	backend gpu.Backend
	list    []*Stage
	nextGen uint64
}

// NewStages creates an empty list whose targets live on b.
func NewStages(b gpu.Backend) *Stages {
	return &Stages{backend: b}
}

func (s *Stages) Len() int { return len(s.list) }

// At returns stage i, nil when out of range.
func (s *Stages) At(i int) *Stage {
	if i < 0 || i >= len(s.list) {
		return nil
	}
	return s.list[i]
}

// All returns the live stages in node order.
func (s *Stages) All() []*Stage { return s.list }

// Find returns the index of the stage with generation gen, or -1.
func (s *Stages) Find(gen uint64) (int, *Stage) {
	for i, st := range s.list {
		if st.Generation == gen {
			return i, st
		}
	}
	return -1, nil
}

// Reconcile rebuilds the list so that stage i belongs to nodes[i]. Stages
// are matched by runtime id; unmatched nodes get a fresh stage, dirty on
// everything. Stages whose node is gone are released and returned.
func (s *Stages) Reconcile(nodes []graph.Node) (added []int, removed []*Stage) {
	byID := make(map[uuid.UUID]*Stage, len(s.list))
	for _, st := range s.list {
		byID[st.RuntimeID] = st
	}

	list := make([]*Stage, len(nodes))
	for i, n := range nodes {
		if st, ok := byID[n.RuntimeID]; ok && st.Type == n.Type {
			list[i] = st
			delete(byID, n.RuntimeID)
			continue
		}
		s.nextGen++
		list[i] = &Stage{
			Type:       n.Type,
			RuntimeID:  n.RuntimeID,
			Generation: s.nextGen,
			Blend:      gpu.ReplaceBlend,
			DirtyMask:  graph.DirtyAll | graph.DirtyAddedNode,
		}
		added = append(added, i)
	}
	for _, st := range s.list {
		if _, gone := byID[st.RuntimeID]; gone {
			st.release(s.backend)
			removed = append(removed, st)
		}
	}
	s.list = list
	return added, removed
}

// Release frees every stage.
func (s *Stages) Release() {
	for _, st := range s.list {
		st.release(s.backend)
	}
	s.list = nil
}
