package params

import (
	"encoding/binary"
	"math"
)

// CameraSize is the encoded size of a Camera: four vec4.
const CameraSize = 64

// CameraValue is the value of a Camera field. Lens holds fov and the
// distance to target in its first two components.
type CameraValue struct {
	Position  [4]float32
	Direction [4]float32
	Up        [4]float32
	Lens      [4]float32
}

// DefaultCamera looks down +Z with +Y up.
func DefaultCamera() CameraValue {
	return CameraValue{
		Direction: [4]float32{0, 0, 1, 0},
		Up:        [4]float32{0, 1, 0, 0},
		Lens:      [4]float32{float32(math.Pi / 3), 1, 0, 0},
	}
}

// Component returns the i-th of the sixteen scalars, in field order.
func (c CameraValue) Component(i int) float32 {
	if i < 0 || i >= 16 {
		return 0
	}
	return c.vectors()[i/4][i%4]
}

// Lerp interpolates every component.
func (c CameraValue) Lerp(o CameraValue, t float32) CameraValue {
	var out CameraValue
	a, b, r := c.vectors(), o.vectors(), out.mutableVectors()
	for v := range a {
		for i := range a[v] {
			r[v][i] = a[v][i] + (b[v][i]-a[v][i])*t
		}
	}
	return out
}

func (c CameraValue) vectors() [4][4]float32 {
	return [4][4]float32{c.Position, c.Direction, c.Up, c.Lens}
}

func (c *CameraValue) mutableVectors() [4]*[4]float32 {
	return [4]*[4]float32{&c.Position, &c.Direction, &c.Up, &c.Lens}
}

func (c CameraValue) encode(dst []byte) {
	for v, vec := range c.vectors() {
		for i, f := range vec {
			binary.LittleEndian.PutUint32(dst[(v*4+i)*4:], math.Float32bits(f))
		}
	}
}

func decodeCamera(src []byte) CameraValue {
	var c CameraValue
	for v, vec := range c.mutableVectors() {
		for i := range vec {
			vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[(v*4+i)*4:]))
		}
	}
	return c
}
