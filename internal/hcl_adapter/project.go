package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/graph"
	"github.com/specialistvlad/texgridgo/internal/metanode"
	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/specialistvlad/texgridgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

var wrapNames = []string{"repeat", "clamp_to_edge", "clamp_to_border", "mirrored_repeat"}

var filterNames = []string{"linear", "nearest"}

func parseName(names []string, s, what string) (int, error) {
	if s == "" {
		return 0, nil
	}
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q, want one of %s", what, s, strings.Join(names, ", "))
}

// LoadProject reads a project file into m, replacing its content. The load
// is not undoable.
func (l *Loader) LoadProject(ctx context.Context, path string, m *graph.Model) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read project: %w", err)
	}
	return l.ParseProject(ctx, src, path, m)
}

// ParseProject decodes project source into m, replacing its content. On
// error m keeps whatever was loaded up to the failing block.
func (l *Loader) ParseProject(ctx context.Context, src []byte, filename string, m *graph.Model) error {
	logger := ctxlog.FromContext(ctx).With("project", filename)

	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse project %s: %w", filename, diags)
	}
	var root schema.ProjectFile
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
		return fmt.Errorf("failed to decode project %s: %w", filename, diags)
	}

	table := m.Table()
	names := make(map[string]int, len(root.Nodes))
	for _, n := range root.Nodes {
		if table.Index(n.Type) < 0 {
			return fmt.Errorf("node '%s': unknown node type '%s'", n.Name, n.Type)
		}
		if _, dup := names[n.Name]; dup {
			return fmt.Errorf("node '%s' declared twice", n.Name)
		}
		names[n.Name] = len(names)
	}
	resolve := func(name, what string) (int, error) {
		i, ok := names[name]
		if !ok {
			return 0, fmt.Errorf("%s refers to unknown node '%s'", what, name)
		}
		return i, nil
	}

	m.Clear()
	m.BeginTransaction(false)
	defer m.EndTransaction()

	if root.Frames != nil {
		m.SetFrameRange(root.Frames.Start, root.Frames.End)
	}

	ioPins := make([]uint32, len(root.Nodes))
	paramPins := make([]uint32, len(root.Nodes))
	for i, n := range root.Nodes {
		var pos graph.Vec2
		if len(n.Position) == 2 {
			pos = graph.Vec2{X: float32(n.Position[0]), Y: float32(n.Position[1])}
		}
		idx := m.AddNode(table.Index(n.Type), pos)
		ioPins[i], paramPins[i] = uint32(n.PinnedIO), uint32(n.PinnedParams)

		node := m.Node(idx)
		if n.StartFrame != nil || n.EndFrame != nil {
			start, end := node.StartFrame, node.EndFrame
			if n.StartFrame != nil {
				start = *n.StartFrame
			}
			if n.EndFrame != nil {
				end = *n.EndFrame
			}
			m.SetStartEndFrame(idx, start, end)
		}

		if n.Params != nil {
			attrs, diags := n.Params.Body.JustAttributes()
			if diags.HasErrors() {
				return fmt.Errorf("node '%s': invalid params: %w", n.Name, diags)
			}
			for name, attr := range attrs {
				text, err := exprText(attr.Expr)
				if err != nil {
					return fmt.Errorf("node '%s', param '%s': %w", n.Name, name, err)
				}
				if node.Params.Layout().Index(name) < 0 {
					logger.Warn("Ignoring unknown parameter.", "node", n.Name, "param", name)
					continue
				}
				m.SetParameter(idx, name, text)
			}
		}

		if len(n.Samplers) > 0 {
			samplers := append([]graph.InputSampler(nil), node.Samplers...)
			for _, s := range n.Samplers {
				if s.Slot < 0 || s.Slot >= len(samplers) {
					return fmt.Errorf("node '%s': sampler slot %d out of range", n.Name, s.Slot)
				}
				smp, err := decodeSampler(s)
				if err != nil {
					return fmt.Errorf("node '%s', sampler %d: %w", n.Name, s.Slot, err)
				}
				samplers[s.Slot] = smp
			}
			m.SetSamplers(idx, samplers)
		}
	}

	for _, lk := range root.Links {
		from, err := resolve(lk.From, "link")
		if err != nil {
			return err
		}
		to, err := resolve(lk.To, "link")
		if err != nil {
			return err
		}
		if lk.FromSlot < 0 || lk.FromSlot >= len(m.Meta(from).Outputs) {
			return fmt.Errorf("link %s -> %s: node '%s' has no output %d", lk.From, lk.To, lk.From, lk.FromSlot)
		}
		if lk.ToSlot < 0 || lk.ToSlot >= len(m.Meta(to).Inputs) {
			return fmt.Errorf("link %s -> %s: node '%s' has no input %d", lk.From, lk.To, lk.To, lk.ToSlot)
		}
		if err := m.AddLink(from, lk.FromSlot, to, lk.ToSlot); err != nil {
			return fmt.Errorf("link %s -> %s: %w", lk.From, lk.To, err)
		}
	}

	// Multiplex overrides may point at any node, so they are applied once
	// every node exists.
	for i, n := range root.Nodes {
		for _, mux := range n.Multiplex {
			src, err := resolve(mux.Source, "multiplex")
			if err != nil {
				return err
			}
			if mux.Slot < 0 || mux.Slot >= metanode.MaxInputs {
				return fmt.Errorf("node '%s': multiplex slot %d out of range", n.Name, mux.Slot)
			}
			m.SetMultiplexed(i, mux.Slot, src)
		}
	}
	m.SetIOPins(ioPins)
	m.SetParameterPins(paramPins)

	for _, r := range root.Rugs {
		if len(r.Position) != 2 || len(r.Size) != 2 {
			return fmt.Errorf("rug position and size need two components")
		}
		m.AddRug(graph.Rug{
			Pos:   graph.Vec2{X: float32(r.Position[0]), Y: float32(r.Position[1])},
			Size:  graph.Vec2{X: float32(r.Size[0]), Y: float32(r.Size[1])},
			Color: uint32(r.Color),
			Text:  r.Text,
		})
	}

	var tracks []graph.AnimTrack
	for _, t := range root.Tracks {
		node, err := resolve(t.Node, "track")
		if err != nil {
			return err
		}
		meta := m.Meta(node)
		p := meta.ParamIndex(t.Param)
		if p < 0 {
			return fmt.Errorf("track: node '%s' has no parameter '%s'", t.Node, t.Param)
		}
		typ := meta.Params[p].Type
		if !graph.Animatable(typ) {
			return fmt.Errorf("track: parameter '%s' of type %s cannot be animated", t.Param, typ)
		}
		track := graph.AnimTrack{NodeIndex: node, ParamIndex: p, Type: typ}
		for _, k := range t.Keys {
			text, err := exprText(k.Value)
			if err != nil {
				return fmt.Errorf("track %s.%s, frame %d: %w", t.Node, t.Param, k.Frame, err)
			}
			value, err := params.EncodeDefault(typ, text)
			if err != nil {
				return fmt.Errorf("track %s.%s, frame %d: %w", t.Node, t.Param, k.Frame, err)
			}
			track.SetValue(k.Frame, value)
		}
		tracks = append(tracks, track)
	}
	if len(tracks) > 0 {
		m.SetAnimTracks(tracks)
	}

	logger.Info("Project loaded.", "nodes", m.NodeCount(), "links", len(m.Links()),
		"rugs", len(m.Rugs()), "tracks", len(tracks))
	return nil
}

func decodeSampler(s *schema.ProjectSampler) (graph.InputSampler, error) {
	var out graph.InputSampler
	wu, err := parseName(wrapNames, s.WrapU, "wrap mode")
	if err != nil {
		return out, err
	}
	wv, err := parseName(wrapNames, s.WrapV, "wrap mode")
	if err != nil {
		return out, err
	}
	fmin, err := parseName(filterNames, s.FilterMin, "filter")
	if err != nil {
		return out, err
	}
	fmag, err := parseName(filterNames, s.FilterMag, "filter")
	if err != nil {
		return out, err
	}
	return graph.InputSampler{
		WrapU:     graph.WrapMode(wu),
		WrapV:     graph.WrapMode(wv),
		FilterMin: graph.FilterMode(fmin),
		FilterMag: graph.FilterMode(fmag),
	}, nil
}

// nodeName is the label a node is saved under.
func nodeName(m *graph.Model, i int) string {
	return fmt.Sprintf("%s_%d", strings.ToLower(m.Meta(i).Name), i)
}

// SaveProject writes m to path.
func (l *Loader) SaveProject(ctx context.Context, path string, m *graph.Model) error {
	if err := os.WriteFile(path, l.FormatProject(m), 0o644); err != nil {
		return fmt.Errorf("failed to write project: %w", err)
	}
	ctxlog.FromContext(ctx).Info("Project saved.", "path", path, "nodes", m.NodeCount())
	return nil
}

// FormatProject renders m as project source. Parameters are written in
// their text form, so loading the result reproduces the same blocks.
func (l *Loader) FormatProject(m *graph.Model) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	start, end := m.FrameRange()
	frames := body.AppendNewBlock("frames", nil).Body()
	frames.SetAttributeValue("start", cty.NumberIntVal(int64(start)))
	frames.SetAttributeValue("end", cty.NumberIntVal(int64(end)))

	for i, n := range m.Nodes() {
		meta := m.Meta(i)
		body.AppendNewline()
		nb := body.AppendNewBlock("node", []string{meta.Name, nodeName(m, i)}).Body()
		nb.SetAttributeValue("position", cty.TupleVal([]cty.Value{
			cty.NumberFloatVal(float64(n.Pos.X)), cty.NumberFloatVal(float64(n.Pos.Y)),
		}))
		nb.SetAttributeValue("start_frame", cty.NumberIntVal(int64(n.StartFrame)))
		nb.SetAttributeValue("end_frame", cty.NumberIntVal(int64(n.EndFrame)))
		if n.PinnedIO != 0 {
			nb.SetAttributeValue("pinned_io", cty.NumberIntVal(int64(n.PinnedIO)))
		}
		if n.PinnedParams != 0 {
			nb.SetAttributeValue("pinned_params", cty.NumberIntVal(int64(n.PinnedParams)))
		}

		pb := nb.AppendNewBlock("params", nil).Body()
		for p, mp := range meta.Params {
			v := typedValue(mp.Type, n.Params.Text(p))
			if v.IsNull() {
				continue
			}
			pb.SetAttributeValue(mp.Name, v)
		}

		for s, smp := range n.Samplers {
			if smp == (graph.InputSampler{}) {
				continue
			}
			sb := nb.AppendNewBlock("sampler", nil).Body()
			sb.SetAttributeValue("slot", cty.NumberIntVal(int64(s)))
			sb.SetAttributeValue("wrap_u", cty.StringVal(wrapNames[smp.WrapU]))
			sb.SetAttributeValue("wrap_v", cty.StringVal(wrapNames[smp.WrapV]))
			sb.SetAttributeValue("filter_min", cty.StringVal(filterNames[smp.FilterMin]))
			sb.SetAttributeValue("filter_mag", cty.StringVal(filterNames[smp.FilterMag]))
		}
		for s, src := range n.Multiplex {
			if src == graph.NoMultiplex {
				continue
			}
			mb := nb.AppendNewBlock("multiplex", nil).Body()
			mb.SetAttributeValue("slot", cty.NumberIntVal(int64(s)))
			mb.SetAttributeValue("source", cty.StringVal(nodeName(m, src)))
		}
	}

	for _, lk := range m.Links() {
		body.AppendNewline()
		lb := body.AppendNewBlock("link", nil).Body()
		lb.SetAttributeValue("from", cty.StringVal(nodeName(m, lk.InputNode)))
		lb.SetAttributeValue("from_slot", cty.NumberIntVal(int64(lk.InputSlot)))
		lb.SetAttributeValue("to", cty.StringVal(nodeName(m, lk.OutputNode)))
		lb.SetAttributeValue("to_slot", cty.NumberIntVal(int64(lk.OutputSlot)))
	}

	for _, r := range m.Rugs() {
		body.AppendNewline()
		rb := body.AppendNewBlock("rug", nil).Body()
		rb.SetAttributeValue("position", cty.TupleVal([]cty.Value{
			cty.NumberFloatVal(float64(r.Pos.X)), cty.NumberFloatVal(float64(r.Pos.Y)),
		}))
		rb.SetAttributeValue("size", cty.TupleVal([]cty.Value{
			cty.NumberFloatVal(float64(r.Size.X)), cty.NumberFloatVal(float64(r.Size.Y)),
		}))
		rb.SetAttributeValue("color", cty.NumberIntVal(int64(r.Color)))
		rb.SetAttributeValue("text", cty.StringVal(r.Text))
	}

	for _, t := range m.AnimTracks() {
		body.AppendNewline()
		tb := body.AppendNewBlock("track", nil).Body()
		tb.SetAttributeValue("node", cty.StringVal(nodeName(m, t.NodeIndex)))
		tb.SetAttributeValue("param", cty.StringVal(m.Meta(t.NodeIndex).Params[t.ParamIndex].Name))
		for _, k := range t.Keys {
			kb := tb.AppendNewBlock("key", nil).Body()
			kb.SetAttributeValue("frame", cty.NumberIntVal(int64(k.Frame)))
			kb.SetAttributeValue("value", typedValue(t.Type, params.FormatText(t.Type, k.Value)))
		}
	}
	return f.Bytes()
}
