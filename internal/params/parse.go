package params

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ParseText decodes text into dst according to t. dst must be t.Size() bytes.
// Unparseable numeric text leaves dst untouched and returns an error; callers
// that want the permissive behaviour simply ignore it.
func ParseText(t Type, text string, dst []byte) error {
	if len(dst) < t.Size() {
		return fmt.Errorf("destination too small for %s: %d < %d", t, len(dst), t.Size())
	}
	switch {
	case t.IsFilename():
		clear(dst[:FilenameSize])
		copy(dst, truncate(text, FilenameSize-1))
		return nil
	case t == Bool:
		v := uint32(0)
		if strings.EqualFold(strings.TrimSpace(text), "true") {
			v = 1
		}
		binary.LittleEndian.PutUint32(dst, v)
		return nil
	case t == Structure || t == ForceEvaluate || t == Any:
		return nil
	}

	values, err := parseNumbers(text)
	if err != nil {
		return err
	}

	switch t {
	case Ramp, Ramp4:
		if len(values) == 0 {
			writeIdentityRamp(t, dst)
			return nil
		}
	case Camera:
		if len(values) == 0 {
			DefaultCamera().encode(dst)
			return nil
		}
	}

	n := min(len(values), t.Components())
	for i := 0; i < n; i++ {
		v := values[i]
		if t.IsAngle() {
			v = v * math.Pi / 180
		}
		if t.IsFloat() {
			binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(float32(v)))
		} else {
			binary.LittleEndian.PutUint32(dst[i*4:], uint32(toInt32(v)))
		}
	}
	return nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// toInt32 saturates v to the int32 range. NaN reads as 0.
func toInt32(v float64) int32 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}

// FormatText is the inverse of ParseText.
func FormatText(t Type, src []byte) string {
	switch {
	case t.IsFilename():
		if i := bytes.IndexByte(src[:FilenameSize], 0); i >= 0 {
			return string(src[:i])
		}
		return string(src[:FilenameSize])
	case t == Bool:
		if binary.LittleEndian.Uint32(src) != 0 {
			return "true"
		}
		return "false"
	case t.Components() == 0:
		return ""
	}

	parts := make([]string, t.Components())
	for i := range parts {
		raw := binary.LittleEndian.Uint32(src[i*4:])
		if !t.IsFloat() {
			parts[i] = strconv.Itoa(int(int32(raw)))
			continue
		}
		f := float64(math.Float32frombits(raw))
		if t.IsAngle() {
			f = f * 180 / math.Pi
		}
		parts[i] = strconv.FormatFloat(f, 'g', -1, 32)
	}
	return strings.Join(parts, ",")
}

// parseNumbers reads a comma separated list of numbers by evaluating it as an
// HCL tuple.
func parseNumbers(text string) ([]float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	expr, diags := hclsyntax.ParseExpression([]byte("["+text+"]"), "parameter", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %q: %w", text, diags)
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to evaluate %q: %w", text, diags)
	}
	list, err := convert.Convert(val, cty.List(cty.Number))
	if err != nil {
		return nil, fmt.Errorf("%q is not a list of numbers: %w", text, err)
	}
	var out []float64
	if err := gocty.FromCtyValue(list, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", text, err)
	}
	return out, nil
}

func writeIdentityRamp(t Type, dst []byte) {
	clear(dst[:t.Size()])
	width := 2
	if t == Ramp4 {
		width = 4
	}
	for c := 0; c < width; c++ {
		binary.LittleEndian.PutUint32(dst[(width+c)*4:], math.Float32bits(1))
	}
}
