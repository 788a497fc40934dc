// Package scene loads sphere scenes from HCL files and renders them with a
// progressive path tracer.
//
// A scene file looks like:
//
//	background = [0.6, 0.7, 0.9]
//	samples    = 64
//
//	sphere "ground" {
//	  center = [0, -1000, 0]
//	  radius = 999
//	  color  = [0.5, 0.5, 0.5]
//	}
//
//	sphere "lamp" {
//	  center   = [0, 4, 2]
//	  radius   = 1
//	  emission = [8, 8, 8]
//	}
package scene

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/texgridgo/internal/ctxlog"
)

// Defaults applied when a file leaves them out.
const (
	DefaultSamples = 32
	DefaultBounces = 4
)

// Vec3 is a point, direction or color.
type Vec3 [3]float64

// Sphere is the only primitive.
type Sphere struct {
	Name     string
	Center   Vec3
	Radius   float64
	Color    Vec3
	Emission Vec3
}

// Scene is a loaded scene. It is immutable once loaded.
type Scene struct {
	Path       string
	Background Vec3
	Samples    int
	Bounces    int
	Spheres    []Sphere
}

type sphereBlock struct {
	Name     string    `hcl:"name,label"`
	Center   []float64 `hcl:"center"`
	Radius   float64   `hcl:"radius"`
	Color    []float64 `hcl:"color,optional"`
	Emission []float64 `hcl:"emission,optional"`
}

type fileRoot struct {
	Background []float64      `hcl:"background,optional"`
	Samples    *int           `hcl:"samples,optional"`
	Bounces    *int           `hcl:"bounces,optional"`
	Spheres    []*sphereBlock `hcl:"sphere,block"`
	Remain     hcl.Body       `hcl:",remain"`
}

// Load reads and decodes a scene file.
func Load(ctx context.Context, path string) (*Scene, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse scene %s: %w", path, diags)
	}
	s, err := decode(file.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode scene %s: %w", path, err)
	}
	s.Path = path
	ctxlog.FromContext(ctx).Debug("Scene loaded.", "path", path, "spheres", len(s.Spheres), "samples", s.Samples)
	return s, nil
}

// Parse decodes scene source held in memory.
func Parse(src []byte, filename string) (*Scene, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse scene %s: %w", filename, diags)
	}
	s, err := decode(file.Body)
	if err != nil {
		return nil, err
	}
	s.Path = filename
	return s, nil
}

func decode(body hcl.Body) (*Scene, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return nil, diags
	}

	s := &Scene{Samples: DefaultSamples, Bounces: DefaultBounces}
	var err error
	if s.Background, err = vec3("background", root.Background, Vec3{}); err != nil {
		return nil, err
	}
	if root.Samples != nil {
		if *root.Samples < 1 {
			return nil, fmt.Errorf("samples must be positive, got %d", *root.Samples)
		}
		s.Samples = *root.Samples
	}
	if root.Bounces != nil {
		s.Bounces = max(*root.Bounces, 1)
	}
	for _, b := range root.Spheres {
		sp := Sphere{Name: b.Name, Radius: b.Radius}
		if b.Radius <= 0 {
			return nil, fmt.Errorf("sphere %q: radius must be positive", b.Name)
		}
		if sp.Center, err = vec3("sphere "+b.Name+" center", b.Center, Vec3{}); err != nil {
			return nil, err
		}
		if sp.Color, err = vec3("sphere "+b.Name+" color", b.Color, Vec3{0.8, 0.8, 0.8}); err != nil {
			return nil, err
		}
		if sp.Emission, err = vec3("sphere "+b.Name+" emission", b.Emission, Vec3{}); err != nil {
			return nil, err
		}
		s.Spheres = append(s.Spheres, sp)
	}
	return s, nil
}

func vec3(what string, v []float64, def Vec3) (Vec3, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 3:
		return Vec3{v[0], v[1], v[2]}, nil
	}
	return Vec3{}, fmt.Errorf("%s needs 3 components, got %d", what, len(v))
}
