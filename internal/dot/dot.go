// Package dot exports a node graph to Graphviz DOT and renders it to SVG.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/specialistvlad/texgridgo/internal/graph"
	"github.com/specialistvlad/texgridgo/internal/metanode"
)

// Options configures ToDOT.
type Options struct {
	// Positions pins nodes at their canvas position instead of letting dot
	// lay them out.
	Positions bool
	// Order, when set, labels every node with its rank in the evaluation
	// order.
	Order []int
}

// ToDOT converts the model's nodes, links and multiplex overrides to DOT.
// Multiplex edges are dashed.
func ToDOT(m *graph.Model, opts Options) string {
	rank := make(map[int]int, len(opts.Order))
	for r, i := range opts.Order {
		rank[i] = r
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	for i, n := range m.Nodes() {
		meta := m.Meta(i)
		label := fmt.Sprintf("%s #%d", meta.Name, i)
		if r, ok := rank[i]; ok {
			label += fmt.Sprintf("\norder: %d", r)
		}
		attrs := []string{fmt.Sprintf("label=%q", label)}
		if opts.Positions {
			// Canvas y grows downwards, dot y grows upwards.
			attrs = append(attrs, fmt.Sprintf("pos=\"%g,%g!\"", n.Pos.X, -n.Pos.Y))
		}
		if meta.Experimental {
			attrs = append(attrs, "fillcolor=lightyellow")
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", nodeID(i), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, l := range m.Links() {
		label := fmt.Sprintf("%s -> %s",
			slotName(m.Meta(l.InputNode).Outputs, l.InputSlot),
			slotName(m.Meta(l.OutputNode).Inputs, l.OutputSlot))
		fmt.Fprintf(&buf, "  %s -> %s [label=%q];\n", nodeID(l.InputNode), nodeID(l.OutputNode), label)
	}
	for i, n := range m.Nodes() {
		for slot, src := range n.Multiplex {
			if src == graph.NoMultiplex {
				continue
			}
			fmt.Fprintf(&buf, "  %s -> %s [style=dashed, label=%q];\n", nodeID(src), nodeID(i),
				slotName(m.Meta(i).Inputs, slot))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(i int) string { return fmt.Sprintf("n%d", i) }

func slotName(slots []metanode.Slot, i int) string {
	if i >= 0 && i < len(slots) && slots[i].Name != "" {
		return slots[i].Name
	}
	return fmt.Sprintf("#%d", i)
}

// RenderSVG renders DOT source to SVG with Graphviz. With pinned positions
// the neato engine is used so that they are honoured.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	if strings.Contains(dot, "!\"") {
		gv.SetLayout(graphviz.NEATO)
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
