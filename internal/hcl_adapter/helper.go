package hcl_adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/metanode"
	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/specialistvlad/texgridgo/internal/schema"
)

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder often populates optional fields with non-nil, zero-width
// expression objects, so a simple nil check is insufficient.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	logger := ctxlog.FromContext(ctx)

	if expr == nil {
		logger.Debug("Expression is nil, considering it undefined.", "attribute", attrName)
		return false
	}

	// A real attribute occupies bytes in the file, while a placeholder for an
	// omitted optional attribute has a zero-width range.
	exprRange := expr.Range()
	isDefined := exprRange.End.Byte > exprRange.Start.Byte

	logger.Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", exprRange.String(),
		"is_defined", isDefined,
	)

	return isDefined
}

// exprText evaluates a literal expression into parameter text.
func exprText(expr hcl.Expression) (string, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", diags
	}
	return valueText(val)
}

// translateNodeDefinition converts the HCL node schema into metadata.
func translateNodeDefinition(ctx context.Context, def *schema.NodeDefinition) (metanode.MetaNode, error) {
	logger := ctxlog.FromContext(ctx).With("nodeType", def.Name)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Translating node definition.")

	m := metanode.MetaNode{
		Name:         def.Name,
		Category:     def.Category,
		Description:  strings.TrimSpace(def.Description),
		HasUI:        def.HasUI,
		SaveTexture:  def.SaveTexture,
		Thumbnail:    def.Thumbnail,
		Experimental: def.Experimental,
	}
	for _, in := range def.Inputs {
		m.Inputs = append(m.Inputs, metanode.Slot{Name: in.Name, Type: in.Type})
	}
	for _, out := range def.Outputs {
		m.Outputs = append(m.Outputs, metanode.Slot{Name: out.Name, Type: out.Type})
	}
	for _, p := range def.Params {
		mp, err := translateParamDefinition(ctx, p)
		if err != nil {
			return metanode.MetaNode{}, fmt.Errorf("in node '%s', param '%s': %w", def.Name, p.Name, err)
		}
		m.Params = append(m.Params, mp)
	}
	return m, nil
}

// translateParamDefinition is a helper that processes a single HCL param
// block, handling its type and default value.
func translateParamDefinition(ctx context.Context, def *schema.ParamDefinition) (metanode.MetaParam, error) {
	typ, err := typeExprToParamType(ctx, def.Type)
	if err != nil {
		return metanode.MetaParam{}, err
	}
	p := metanode.MetaParam{
		Name:        def.Name,
		Type:        typ,
		Enum:        def.Enum,
		Hidden:      def.Hidden,
		Loop:        def.Loop,
		QuadSelect:  def.QuadSelect,
		Description: def.Description,
	}

	switch def.Control {
	case "", "edit":
		p.Control = metanode.ControlNumericEdit
	case "slider":
		p.Control = metanode.ControlSlider
	default:
		return metanode.MetaParam{}, fmt.Errorf("unknown control %q", def.Control)
	}
	copy(p.RangeMin[:], toFloat32(def.Min))
	copy(p.RangeMax[:], toFloat32(def.Max))

	text := ""
	if isExprDefined(ctx, def.Default, "default") {
		if text, err = exprText(def.Default); err != nil {
			return metanode.MetaParam{}, fmt.Errorf("invalid default value: %w", err)
		}
	}
	if typ.Size() > 0 {
		if p.Default, err = params.EncodeDefault(typ, text); err != nil {
			return metanode.MetaParam{}, fmt.Errorf("invalid default value: %w", err)
		}
	}
	return p, nil
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
