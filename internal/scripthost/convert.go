package scripthost

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ToInterface converts a cty.Value into plain Go values that marshal to
// json: string, float64, bool, map[string]any and []any.
func ToInterface(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	if ty.IsPrimitiveType() {
		switch ty {
		case cty.String:
			return val.AsString(), nil
		case cty.Number:
			f, _ := val.AsBigFloat().Float64()
			return f, nil
		case cty.Bool:
			return val.True(), nil
		default:
			return nil, fmt.Errorf("unsupported primitive type: %s", ty.FriendlyName())
		}
	}
	if ty.IsObjectType() || ty.IsMapType() {
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			iv, err := ToInterface(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = iv
		}
		return out, nil
	}
	if ty.IsTupleType() || ty.IsListType() {
		out := []any{}
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			iv, err := ToInterface(v)
			if err != nil {
				return nil, err
			}
			out = append(out, iv)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported cty.Type for conversion: %s", ty.FriendlyName())
}

// FromInterface is the inverse of ToInterface.
func FromInterface(data any) (cty.Value, error) {
	if data == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	switch v := data.(type) {
	case string:
		return cty.StringVal(v), nil
	case float64:
		return cty.NumberFloatVal(v), nil
	case int:
		return cty.NumberIntVal(int64(v)), nil
	case bool:
		return cty.BoolVal(v), nil
	case map[string]any:
		attrs := make(map[string]cty.Value, len(v))
		for key, val := range v {
			cv, err := FromInterface(val)
			if err != nil {
				return cty.NilVal, err
			}
			attrs[key] = cv
		}
		return cty.ObjectVal(attrs), nil
	case []any:
		elems := make([]cty.Value, 0, len(v))
		for _, val := range v {
			cv, err := FromInterface(val)
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, cv)
		}
		return cty.TupleVal(elems), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported type for conversion to cty.Value: %T", v)
	}
}

// DecodeArgs converts json-decoded call arguments into typed Go values, one
// pointer per argument. Missing trailing arguments leave their target as is.
func DecodeArgs(args []any, targets ...any) error {
	if len(args) > len(targets) {
		return fmt.Errorf("got %d arguments, want at most %d", len(args), len(targets))
	}
	for i, a := range args {
		v, err := FromInterface(a)
		if err != nil {
			return fmt.Errorf("argument %d: %w", i, err)
		}
		if err := gocty.FromCtyValue(v, targets[i]); err != nil {
			return fmt.Errorf("argument %d: %w", i, err)
		}
	}
	return nil
}
