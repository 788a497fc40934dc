package evalctx

import (
	"context"

	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/graph"
	"github.com/specialistvlad/texgridgo/internal/stage"
)

// ApplyDirtyList folds graph changes into the stages. Node list changes
// reconcile the stages; node list and link changes recompute the order.
// Every evaluating kind marks its node and, as Input, all transitive
// consumers. VisualGraph and RugChanged entries have no effect.
func (c *Context) ApplyDirtyList(ctx context.Context, entries []graph.DirtyEntry) {
	if len(entries) == 0 {
		return
	}
	structural, topology := false, false
	for _, e := range entries {
		if e.Kind.Structural() {
			structural = true
		}
		if e.Kind&(graph.DirtyAddedNode|graph.DirtyDeletedNode|graph.DirtyInput) != 0 {
			topology = true
		}
	}
	if structural || c.stages.Len() != c.model.NodeCount() {
		c.reconcile()
	}
	if topology {
		c.rebuildOrder()
	}

	logger := ctxlog.FromContext(ctx)
	for _, e := range entries {
		if !e.Kind.Evaluates() {
			continue
		}
		if c.stages.At(e.Node) == nil {
			logger.Debug("Dirty entry for a node that no longer exists.", "nodeIndex", e.Node, "kind", e.Kind)
			continue
		}
		c.markDirty(e.Node, e.Kind&graph.DirtyAll, false)
	}
}

// markDirty ORs kind into node i, unless onlyChildren, and Input plus the
// propagating part of kind into every transitive consumer.
func (c *Context) markDirty(i int, kind graph.DirtyKind, onlyChildren bool) {
	if st := c.stages.At(i); st != nil && !onlyChildren {
		st.DirtyMask |= kind
	}
	if c.graph == nil || i < 0 || i >= c.graph.Len() {
		return
	}
	for d := range c.graph.Downstream(i) {
		if st := c.stages.At(d); st != nil {
			st.DirtyMask |= graph.DirtyInput | kind&(graph.DirtyTime|graph.DirtyCamera)
		}
	}
}

// SetTargetDirty marks node and its consumers, or only the consumers.
func (c *Context) SetTargetDirty(node int, kind graph.DirtyKind, onlyChildren bool) {
	c.markDirty(node, kind, onlyChildren)
}

// ForceEvaluate makes the next pass run node with forcedDirty set. Writer
// and thumbnail nodes only produce their artifact on forced evaluations.
func (c *Context) ForceEvaluate(node int) {
	if st := c.stages.At(node); st != nil {
		st.Forced = true
	}
}

// ForceEvaluateType forces every node of a node type and returns how many.
func (c *Context) ForceEvaluateType(typ int) int {
	n := 0
	for i, st := range c.stages.All() {
		if st.Type == typ {
			c.ForceEvaluate(i)
			n++
		}
	}
	return n
}

// SetKeyboardMouse routes UI input to node and marks it Mouse dirty.
func (c *Context) SetKeyboardMouse(node int, in stage.UIInput) {
	st := c.stages.At(node)
	if st == nil {
		return
	}
	st.Input = in
	c.markDirty(node, graph.DirtyMouse, false)
}

// SetCurrentFrame moves the context to frame: animation tracks are applied
// to the parameter blocks and every node reading animated media is marked
// Time dirty. The model must not be in a transaction.
func (c *Context) SetCurrentFrame(ctx context.Context, frame int) {
	c.frame = frame
	c.ApplyDirtyList(ctx, c.model.TakeDirtyList())

	c.model.BeginTransaction(false)
	changed := c.model.ApplyAnimation(frame)
	c.model.EndTransaction()

	for i, st := range c.stages.All() {
		n := c.model.Node(i)
		st.LocalTime = frame - n.StartFrame
		if st.Decoder != nil {
			c.markDirty(i, graph.DirtyTime, false)
		}
	}
	ctxlog.FromContext(ctx).Debug("Frame changed.", "frame", frame, "animatedNodes", len(changed))
}
