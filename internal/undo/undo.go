package undo

// Command is one reversible step.
type Command interface {
	Undo()
	Redo()
}

// Composite groups the commands recorded by one transaction. Undo runs them
// in reverse order, Redo in recording order.
type Composite struct {
	cmds []Command
}

// Add appends a command. Nested composites are flattened.
func (c *Composite) Add(cmd Command) {
	if nested, ok := cmd.(*Composite); ok {
		c.cmds = append(c.cmds, nested.cmds...)
		return
	}
	c.cmds = append(c.cmds, cmd)
}

// Len returns the number of recorded commands.
func (c *Composite) Len() int { return len(c.cmds) }

func (c *Composite) Undo() {
	for i := len(c.cmds) - 1; i >= 0; i-- {
		c.cmds[i].Undo()
	}
}

func (c *Composite) Redo() {
	for _, cmd := range c.cmds {
		cmd.Redo()
	}
}

// Handler keeps the undo and redo stacks.
type Handler struct {
	undos      []Command
	redos      []Command
	processing bool
}

// NewHandler returns an empty handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Push records a command as the most recent undoable step and clears the
// redo stack. Empty composites are ignored.
func (h *Handler) Push(cmd Command) {
	if c, ok := cmd.(*Composite); ok && c.Len() == 0 {
		return
	}
	h.undos = append(h.undos, cmd)
	h.redos = nil
}

// Undo reverts the most recent step. It reports false when there is nothing to undo.
func (h *Handler) Undo() bool {
	if len(h.undos) == 0 {
		return false
	}
	cmd := h.undos[len(h.undos)-1]
	h.undos = h.undos[:len(h.undos)-1]
	h.processing = true
	cmd.Undo()
	h.processing = false
	h.redos = append(h.redos, cmd)
	return true
}

// Redo replays the most recently undone step.
func (h *Handler) Redo() bool {
	if len(h.redos) == 0 {
		return false
	}
	cmd := h.redos[len(h.redos)-1]
	h.redos = h.redos[:len(h.redos)-1]
	h.processing = true
	cmd.Redo()
	h.processing = false
	h.undos = append(h.undos, cmd)
	return true
}

// Clear drops both stacks.
func (h *Handler) Clear() {
	h.undos = nil
	h.redos = nil
}

func (h *Handler) CanUndo() bool { return len(h.undos) > 0 }
func (h *Handler) CanRedo() bool { return len(h.redos) > 0 }

// Processing is true while a command is being undone or redone.
func (h *Handler) Processing() bool { return h.processing }
