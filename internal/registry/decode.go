package registry

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"
	"strings"

	"github.com/specialistvlad/texgridgo/internal/params"
)

// ParamTag is the struct tag naming the parameter a field decodes from.
const ParamTag = "param"

// Decode copies the block's fields into the struct pointed to by out.
// Fields are matched by their `param:"name"` tag. string, bool and int
// fields go through the typed getters; anything else (float32, arrays,
// params.CameraValue) is read in the block's little endian layout.
func Decode(b *params.Block, out any) error {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("decode target must be a pointer to a struct, got %T", out)
	}
	v = v.Elem()
	t := v.Type()
	l := b.Layout()
	for i := range t.NumField() {
		sf := t.Field(i)
		name := tagName(sf)
		if name == "" {
			continue
		}
		idx := l.Index(name)
		if idx < 0 {
			return fmt.Errorf("field '%s': no parameter '%s'", sf.Name, name)
		}
		fv := v.Field(i)
		switch fv.Kind() {
		case reflect.String:
			fv.SetString(b.String(name))
		case reflect.Bool:
			fv.SetBool(b.Bool(name, false))
		case reflect.Int:
			fv.SetInt(int64(b.Int(name, 0)))
		default:
			if err := binary.Read(bytes.NewReader(b.FieldBytes(idx)), binary.LittleEndian, fv.Addr().Interface()); err != nil {
				return fmt.Errorf("field '%s': %w", sf.Name, err)
			}
		}
	}
	return nil
}

func tagName(sf reflect.StructField) string {
	if !sf.IsExported() {
		return ""
	}
	name := strings.Split(sf.Tag.Get(ParamTag), ",")[0]
	if name == "-" {
		return ""
	}
	return name
}
