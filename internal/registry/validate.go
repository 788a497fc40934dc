package registry

import (
	"context"
	"encoding/binary"
	"fmt"
	"reflect"
	"strings"

	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/metanode"
	"github.com/specialistvlad/texgridgo/internal/params"
)

// ValidateRegistry performs a strict parity check between manifests and Go
// code. For every native evaluator with a params struct it checks both the
// presence of parameters and the compatibility of their types.
func (r *Registry) ValidateRegistry(ctx context.Context, table *metanode.Table) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for name, native := range r.Natives {
		typ := table.Index(name)
		if typ < 0 {
			errs = append(errs, fmt.Sprintf("native '%s': no node type with this name in the library", name))
			continue
		}
		if native.NewParams == nil {
			continue
		}
		meta := table.Node(typ)

		structType := reflect.TypeOf(native.NewParams())
		if structType.Kind() != reflect.Pointer || structType.Elem().Kind() != reflect.Struct {
			errs = append(errs, fmt.Sprintf("native '%s': NewParams must return a pointer to a struct, got %s", name, structType))
			continue
		}
		structType = structType.Elem()

		goParams := make(map[string]reflect.StructField)
		for i := range structType.NumField() {
			field := structType.Field(i)
			if tag := tagName(field); tag != "" {
				goParams[tag] = field
			}
		}
		manifest := make(map[string]params.Type)
		for _, p := range meta.Params {
			manifest[p.Name] = p.Type
		}

		// Presence mismatches. Go may leave manifest params out, it only
		// reads what it needs.
		for tag := range goParams {
			if _, ok := manifest[tag]; !ok {
				errs = append(errs, fmt.Sprintf("native '%s': Go struct has field for parameter '%s' which is not declared in manifest", name, tag))
			}
		}
		for p := range manifest {
			if _, ok := goParams[p]; !ok {
				logger.Debug("Manifest parameter is not read by the native evaluator.", "nodeType", name, "param", p)
			}
		}

		// Type mismatches.
		for tag, field := range goParams {
			pt, ok := manifest[tag]
			if !ok {
				continue
			}
			if err := compatible(field.Type, pt); err != nil {
				errs = append(errs, fmt.Sprintf("native '%s', parameter '%s': %v", name, tag, err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func compatible(goType reflect.Type, pt params.Type) error {
	switch goType.Kind() {
	case reflect.String:
		if !pt.IsFilename() {
			return fmt.Errorf("string field needs a filename parameter, manifest has '%s'", pt)
		}
		return nil
	case reflect.Bool:
		if pt != params.Bool {
			return fmt.Errorf("bool field needs a bool parameter, manifest has '%s'", pt)
		}
		return nil
	case reflect.Int:
		if pt.IsFloat() || pt.Components() == 0 {
			return fmt.Errorf("int field needs an integer parameter, manifest has '%s'", pt)
		}
		return nil
	}
	size := binary.Size(reflect.Zero(goType).Interface())
	if size < 0 {
		return fmt.Errorf("type %s has no fixed size", goType)
	}
	if size != pt.Size() {
		return fmt.Errorf("type mismatch. Manifest type '%s' is %d bytes but Go type %s is %d bytes", pt, pt.Size(), goType, size)
	}
	return nil
}
