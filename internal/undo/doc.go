// Package undo implements a command-pattern undo/redo stack.
//
// A transaction collects commands into a Composite which is pushed onto the
// Handler when the transaction ends. Element commands (Change, Insert, Remove)
// operate on slices reached through an accessor so that they keep working
// after the owning slice has been reallocated.
package undo
