package params

import (
	"fmt"
	"strings"
)

// Type is the declared type of a single parameter field.
type Type int

// The order matches the persisted node libraries; do not reorder.
const (
	Float Type = iota
	Float2
	Float3
	Float4
	Color4
	Int
	Int2
	Ramp
	Angle
	Angle2
	Angle3
	Angle4
	Enum
	Structure
	FilenameRead
	FilenameWrite
	ForceEvaluate
	Bool
	Ramp4
	Camera
	Multiplexer
	Any
)

// FilenameSize is the fixed byte size of filename fields, NUL terminator included.
const FilenameSize = 1024

// RampPoints is the number of control points stored by Ramp and Ramp4 fields.
const RampPoints = 8

var typeNames = map[Type]string{
	Float:         "float",
	Float2:        "float2",
	Float3:        "float3",
	Float4:        "float4",
	Color4:        "color4",
	Int:           "int",
	Int2:          "int2",
	Ramp:          "ramp",
	Angle:         "angle",
	Angle2:        "angle2",
	Angle3:        "angle3",
	Angle4:        "angle4",
	Enum:          "enum",
	Structure:     "structure",
	FilenameRead:  "filename_read",
	FilenameWrite: "filename_write",
	ForceEvaluate: "force_evaluate",
	Bool:          "bool",
	Ramp4:         "ramp4",
	Camera:        "camera",
	Multiplexer:   "multiplexer",
	Any:           "any",
}

// String returns the manifest name of the type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// ParseType resolves a manifest type name such as "float4" or "filename_read".
func ParseType(name string) (Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return Any, fmt.Errorf("unknown parameter type %q", name)
}

// Size returns the number of bytes the type occupies in a parameter block.
func (t Type) Size() int {
	switch t {
	case Float, Angle:
		return 4
	case Float2, Angle2:
		return 8
	case Float3, Angle3:
		return 12
	case Float4, Angle4, Color4:
		return 16
	case Ramp:
		return 4 * 2 * RampPoints
	case Ramp4:
		return 4 * 4 * RampPoints
	case Int, Enum, Bool, Multiplexer:
		return 4
	case Int2:
		return 8
	case FilenameRead, FilenameWrite:
		return FilenameSize
	case Camera:
		return CameraSize
	case ForceEvaluate, Structure, Any:
		return 0
	}
	panic(fmt.Sprintf("params: size requested for unknown type %d", int(t)))
}

// Components returns how many scalar values the type holds.
func (t Type) Components() int {
	switch t {
	case Float, Angle, Int, Enum, Bool, Multiplexer:
		return 1
	case Float2, Angle2, Int2:
		return 2
	case Float3, Angle3:
		return 3
	case Float4, Angle4, Color4:
		return 4
	case Ramp:
		return 2 * RampPoints
	case Ramp4:
		return 4 * RampPoints
	case Camera:
		return CameraSize / 4
	}
	return 0
}

// IsFloat reports whether the components are stored as float32.
func (t Type) IsFloat() bool {
	switch t {
	case Float, Float2, Float3, Float4, Color4, Angle, Angle2, Angle3, Angle4, Ramp, Ramp4, Camera:
		return true
	}
	return false
}

// IsAngle reports whether text values are given in degrees and stored in radians.
func (t Type) IsAngle() bool {
	return t >= Angle && t <= Angle4
}

// IsFilename reports whether the field stores a NUL terminated path.
func (t Type) IsFilename() bool {
	return t == FilenameRead || t == FilenameWrite
}
