// This file contains the logic for parsing HCL parameter type expressions
// (e.g., `float4`, `filename_read`) into params.Type values.

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/zclconf/go-cty/cty"
)

// typeExprToParamType converts an HCL type expression into a parameter type.
// Both the bare keyword form (`type = float4`) and the quoted form
// (`type = "float4"`) are accepted.
func typeExprToParamType(ctx context.Context, expr hcl.Expression) (params.Type, error) {
	logger := ctxlog.FromContext(ctx)

	if !isExprDefined(ctx, expr, "type") {
		return params.Any, fmt.Errorf("parameter type is required")
	}

	switch v := expr.(type) {
	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return params.Any, fmt.Errorf("invalid type keyword: traversal path is not a single identifier")
		}
		rootName := v.Traversal.RootName()
		logger.Debug("Parsing type expression as a keyword.", "keyword", rootName)
		return params.ParseType(rootName)

	case *hclsyntax.TemplateExpr:
		val, diags := v.Value(nil)
		if diags.HasErrors() {
			return params.Any, fmt.Errorf("invalid type string: %w", diags)
		}
		if val.Type() != cty.String || val.IsNull() {
			return params.Any, fmt.Errorf("type string must be a literal")
		}
		logger.Debug("Parsing type expression as a string.", "name", val.AsString())
		return params.ParseType(val.AsString())

	case *hclsyntax.FunctionCallExpr:
		return params.Any, fmt.Errorf("type constructor %q is not supported for parameters", v.Name)

	default:
		return params.Any, fmt.Errorf("unsupported expression for type definition: %T", v)
	}
}
