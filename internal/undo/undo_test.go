package undo

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	values := []string{"a", "b"}
	get := func() *[]string { return &values }

	h := NewHandler()
	tx := &Composite{}

	values = append(values, "c")
	tx.Add(NewInsert(get, 2, nil, Hooks{}))

	rm := NewRemove(get, 0, nil, Hooks{})
	values = slices.Delete(values, 0, 1)
	tx.Add(rm)

	ch := NewChange(func() *string { return &values[0] }, nil, nil)
	values[0] = "B"
	tx.Add(ch.Commit())

	h.Push(tx)
	require.Equal(t, []string{"B", "c"}, values)
	require.True(t, h.CanUndo())

	require.True(t, h.Undo())
	assert.Equal(t, []string{"a", "b"}, values)
	assert.True(t, h.CanRedo())

	require.True(t, h.Redo())
	assert.Equal(t, []string{"B", "c"}, values)

	assert.False(t, h.Redo())
}

func TestPushClearsRedo(t *testing.T) {
	n := 0
	inc := Func{UndoFn: func() { n-- }, RedoFn: func() { n++ }}

	h := NewHandler()
	n++
	h.Push(inc)
	h.Undo()
	require.True(t, h.CanRedo())

	h.Push(&Composite{})
	assert.True(t, h.CanRedo(), "empty composites are not recorded")

	n++
	h.Push(inc)
	assert.False(t, h.CanRedo())
	assert.Equal(t, 1, n)
}

func TestHooksAndClone(t *testing.T) {
	type item struct{ data []int }
	items := []item{{data: []int{1}}}
	refs := []int{0}
	get := func() *[]item { return &items }
	clone := func(v item) item { return item{data: slices.Clone(v.data)} }
	hooks := Hooks{
		OnDelete: func(i int) {
			for r := range refs {
				if refs[r] > i {
					refs[r]--
				}
			}
		},
		OnNew: func(i int) {
			for r := range refs {
				if refs[r] >= i {
					refs[r]++
				}
			}
		},
	}

	items = slices.Insert(items, 0, item{data: []int{7}})
	hooks.OnNew(0)
	cmd := NewInsert(get, 0, clone, hooks)
	require.Equal(t, []int{1}, refs)

	items[0].data[0] = 99 // must not leak into the snapshot
	cmd.Undo()
	assert.Equal(t, []int{0}, refs)
	assert.Len(t, items, 1)

	cmd.Redo()
	assert.Equal(t, []int{1}, refs)
	assert.Equal(t, []int{7}, items[0].data)
}

func TestProcessingFlag(t *testing.T) {
	h := NewHandler()
	var seen bool
	h.Push(Func{UndoFn: func() { seen = h.Processing() }, RedoFn: func() {}})
	h.Undo()
	assert.True(t, seen)
	assert.False(t, h.Processing())
}
