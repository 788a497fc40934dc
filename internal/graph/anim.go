package graph

import (
	"bytes"
	"encoding/binary"
	"math"
	"slices"
	"sort"

	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/specialistvlad/texgridgo/internal/undo"
)

// Key is one keyframe: the raw parameter bytes at a frame.
type Key struct {
	Frame int
	Value []byte
}

// AnimTrack animates one parameter of one node. Keys are sorted by frame.
type AnimTrack struct {
	NodeIndex  int
	ParamIndex int
	Type       params.Type
	Keys       []Key
}

func cloneTrack(t AnimTrack) AnimTrack {
	keys := make([]Key, len(t.Keys))
	for i, k := range t.Keys {
		keys[i] = Key{Frame: k.Frame, Value: slices.Clone(k.Value)}
	}
	t.Keys = keys
	return t
}

// Animatable reports whether values of type t can be keyed.
func Animatable(t params.Type) bool {
	return !t.IsFilename() && t.Size() > 0
}

// SetValue inserts or replaces the key at frame.
func (t *AnimTrack) SetValue(frame int, value []byte) {
	i := sort.Search(len(t.Keys), func(i int) bool { return t.Keys[i].Frame >= frame })
	if i < len(t.Keys) && t.Keys[i].Frame == frame {
		t.Keys[i].Value = slices.Clone(value)
		return
	}
	t.Keys = slices.Insert(t.Keys, i, Key{Frame: frame, Value: slices.Clone(value)})
}

// ValueAt writes the value at frame into dst. Float components are linearly
// interpolated between the surrounding keys, other types hold the previous
// key. Frames outside the keyed range clamp to the first or last key. It
// reports false when the track has no keys.
func (t *AnimTrack) ValueAt(frame int, dst []byte) bool {
	if len(t.Keys) == 0 {
		return false
	}
	first, last := t.Keys[0], t.Keys[len(t.Keys)-1]
	switch {
	case frame <= first.Frame:
		copy(dst, first.Value)
		return true
	case frame >= last.Frame:
		copy(dst, last.Value)
		return true
	}
	next := sort.Search(len(t.Keys), func(i int) bool { return t.Keys[i].Frame > frame })
	a, b := t.Keys[next-1], t.Keys[next]
	if !t.Type.IsFloat() {
		copy(dst, a.Value)
		return true
	}
	ratio := float32(frame-a.Frame) / float32(b.Frame-a.Frame)
	for off := 0; off+4 <= len(a.Value) && off+4 <= len(dst); off += 4 {
		va := math.Float32frombits(binary.LittleEndian.Uint32(a.Value[off:]))
		vb := math.Float32frombits(binary.LittleEndian.Uint32(b.Value[off:]))
		binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(va+(vb-va)*ratio))
	}
	return true
}

func (m *Model) tracksRef() *[]AnimTrack { return &m.tracks }

func (m *Model) eraseTrack(t int) {
	cmd := undo.NewRemove(m.tracksRef, t, cloneTrack, undo.Hooks{})
	m.record(cmd)
	cmd.Redo()
}

// AnimTrack returns the track index of (node, param), -1 when none exists.
func (m *Model) AnimTrack(node, param int) int {
	for t := range m.tracks {
		if m.tracks[t].NodeIndex == node && m.tracks[t].ParamIndex == param {
			return t
		}
	}
	return -1
}

// MakeKey stores the current value of a parameter as a key at frame,
// creating the track on first use. Parameters that cannot be animated are
// ignored.
func (m *Model) MakeKey(frame, node, param int) {
	m.mustTransaction("MakeKey")
	if node < 0 || node >= len(m.nodes) {
		return
	}
	meta := m.Meta(node)
	if param < 0 || param >= len(meta.Params) || !Animatable(meta.Params[param].Type) {
		return
	}

	t := m.AnimTrack(node, param)
	if t < 0 {
		m.tracks = append(m.tracks, AnimTrack{NodeIndex: node, ParamIndex: param, Type: meta.Params[param].Type})
		t = len(m.tracks) - 1
		m.record(undo.NewInsert(m.tracksRef, t, cloneTrack, undo.Hooks{}))
	}

	value := m.nodes[node].Params.FieldBytes(param)
	cmd := undo.NewChange(func() *[]Key { return &m.tracks[t].Keys }, cloneKeys, nil)
	m.tracks[t].SetValue(frame, value)
	m.record(cmd.Commit())
}

func cloneKeys(keys []Key) []Key {
	return cloneTrack(AnimTrack{Keys: keys}).Keys
}

// SetAnimTracks replaces every track, as done by project loading.
func (m *Model) SetAnimTracks(tracks []AnimTrack) {
	m.mustTransaction("SetAnimTracks")
	for t := len(m.tracks) - 1; t >= 0; t-- {
		m.eraseTrack(t)
	}
	for _, track := range tracks {
		m.mustNode("SetAnimTracks", track.NodeIndex)
		m.tracks = append(m.tracks, cloneTrack(track))
		m.record(undo.NewInsert(m.tracksRef, len(m.tracks)-1, cloneTrack, undo.Hooks{}))
	}
}

// ApplyAnimation writes the animated value of every track at frame into the
// parameter blocks and returns the nodes whose parameters changed. Changed
// nodes get a Time dirty entry. Call it inside a non-undoable transaction.
func (m *Model) ApplyAnimation(frame int) []int {
	m.mustTransaction("ApplyAnimation")
	var changed []int
	for _, track := range m.tracks {
		block := m.nodes[track.NodeIndex].Params
		field := block.FieldBytes(track.ParamIndex)
		if field == nil {
			continue
		}
		before := slices.Clone(field)
		if !track.ValueAt(frame, field) || bytes.Equal(before, field) {
			continue
		}
		if !slices.Contains(changed, track.NodeIndex) {
			changed = append(changed, track.NodeIndex)
			m.pushDirty(track.NodeIndex, -1, DirtyTime)
		}
	}
	slices.Sort(changed)
	return changed
}
