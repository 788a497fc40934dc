package undo

import "slices"

// CloneFunc deep-copies a value. Nil means plain assignment is enough.
type CloneFunc[T any] func(T) T

func cloneWith[T any](fn CloneFunc[T], v T) T {
	if fn == nil {
		return v
	}
	return fn(v)
}

// Change records a value before and after an in-place edit.
type Change[T any] struct {
	get     func() *T
	clone   CloneFunc[T]
	changed func()
	before  T
	after   T
}

// NewChange snapshots the current value. Call Commit once the edit is done.
func NewChange[T any](get func() *T, clone CloneFunc[T], changed func()) *Change[T] {
	return &Change[T]{
		get:     get,
		clone:   clone,
		changed: changed,
		before:  cloneWith(clone, *get()),
	}
}

// Commit captures the edited value and returns the command.
func (c *Change[T]) Commit() *Change[T] {
	c.after = cloneWith(c.clone, *c.get())
	return c
}

func (c *Change[T]) Undo() {
	*c.get() = cloneWith(c.clone, c.before)
	if c.changed != nil {
		c.changed()
	}
}

func (c *Change[T]) Redo() {
	*c.get() = cloneWith(c.clone, c.after)
	if c.changed != nil {
		c.changed()
	}
}

// Hooks run around structural edits of a slice, for reindexing the
// references other collections hold into it.
type Hooks struct {
	// OnDelete runs before the element at index is erased.
	OnDelete func(index int)
	// OnNew runs after an element was inserted at index.
	OnNew func(index int)
}

func (h Hooks) deleted(i int) {
	if h.OnDelete != nil {
		h.OnDelete(i)
	}
}

func (h Hooks) inserted(i int) {
	if h.OnNew != nil {
		h.OnNew(i)
	}
}

// Insert records an element that was inserted at Index.
type Insert[T any] struct {
	elems func() *[]T
	index int
	elem  T
	clone CloneFunc[T]
	hooks Hooks
}

// NewInsert records the element currently stored at index.
func NewInsert[T any](elems func() *[]T, index int, clone CloneFunc[T], hooks Hooks) *Insert[T] {
	return &Insert[T]{
		elems: elems,
		index: index,
		elem:  cloneWith(clone, (*elems())[index]),
		clone: clone,
		hooks: hooks,
	}
}

func (c *Insert[T]) Undo() {
	c.hooks.deleted(c.index)
	s := c.elems()
	*s = slices.Delete(*s, c.index, c.index+1)
}

func (c *Insert[T]) Redo() {
	s := c.elems()
	*s = slices.Insert(*s, c.index, cloneWith(c.clone, c.elem))
	c.hooks.inserted(c.index)
}

// Remove records an element that is about to be erased from index. Create it
// before erasing.
type Remove[T any] struct {
	elems func() *[]T
	index int
	elem  T
	clone CloneFunc[T]
	hooks Hooks
}

// NewRemove snapshots the element at index.
func NewRemove[T any](elems func() *[]T, index int, clone CloneFunc[T], hooks Hooks) *Remove[T] {
	return &Remove[T]{
		elems: elems,
		index: index,
		elem:  cloneWith(clone, (*elems())[index]),
		clone: clone,
		hooks: hooks,
	}
}

func (c *Remove[T]) Undo() {
	s := c.elems()
	*s = slices.Insert(*s, c.index, cloneWith(c.clone, c.elem))
	c.hooks.inserted(c.index)
}

func (c *Remove[T]) Redo() {
	c.hooks.deleted(c.index)
	s := c.elems()
	*s = slices.Delete(*s, c.index, c.index+1)
}

// Func adapts a pair of closures to Command.
type Func struct {
	UndoFn func()
	RedoFn func()
}

func (f Func) Undo() { f.UndoFn() }
func (f Func) Redo() { f.RedoFn() }
