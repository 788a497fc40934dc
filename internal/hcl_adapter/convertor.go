package hcl_adapter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// valueText converts an HCL value into the text form parameter blocks parse.
// Strings are taken as is, numbers and bools are formatted, and lists or
// tuples become comma separated components.
func valueText(val cty.Value) (string, error) {
	if val.IsNull() || !val.IsKnown() {
		return "", fmt.Errorf("value must be known and not null")
	}
	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Bool:
		return strconv.FormatBool(val.True()), nil
	case ty == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		parts := make([]string, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			num, err := convert.Convert(elem, cty.Number)
			if err != nil {
				return "", fmt.Errorf("list element must be a number: %w", err)
			}
			s, err := valueText(num)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	}
	return "", fmt.Errorf("unsupported value of type %s", ty.FriendlyName())
}

// typedValue is the inverse of valueText for a parameter of type t: the
// value hclwrite emits for the parameter's text form.
func typedValue(t params.Type, text string) cty.Value {
	switch {
	case t.IsFilename():
		return cty.StringVal(text)
	case t == params.Bool:
		return cty.BoolVal(text == "true")
	}
	if text == "" {
		return cty.NilVal
	}
	parts := strings.Split(text, ",")
	nums := make([]cty.Value, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			// FormatText only emits numbers here.
			return cty.NilVal
		}
		nums = append(nums, cty.NumberFloatVal(f))
	}
	if len(nums) == 1 {
		return nums[0]
	}
	return cty.TupleVal(nums)
}
