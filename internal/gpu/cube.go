package gpu

import "math"

// Cube face order.
const (
	FacePosX = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

// CubeViewRotations are the per-face view rotations handed to programs
// through the evaluation info, column major.
var CubeViewRotations = [CubeFaces][16]float32{
	{0, 0, -1, 0, 0, 1, 0, 0, 1, 0, 0, 0, 0, 0, 0, 1},
	{0, 0, 1, 0, 0, 1, 0, 0, -1, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 0, 1, 0, 0, -1, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 0, -1, 0, 0, 1, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1},
	{-1, 0, 0, 0, 0, 1, 0, 0, 0, 0, -1, 0, 0, 0, 0, 1},
}

// FaceDirection returns the normalized direction through (u, v) of a cube
// face.
func FaceDirection(face int, u, v float32) [3]float32 {
	sc, tc := 2*u-1, 2*v-1
	var d [3]float32
	switch face {
	case FacePosX:
		d = [3]float32{1, -tc, -sc}
	case FaceNegX:
		d = [3]float32{-1, -tc, sc}
	case FacePosY:
		d = [3]float32{sc, 1, tc}
	case FaceNegY:
		d = [3]float32{sc, -1, -tc}
	case FacePosZ:
		d = [3]float32{sc, -tc, 1}
	default:
		d = [3]float32{-sc, -tc, -1}
	}
	return normalize(d)
}

// DirectionFace is the inverse of FaceDirection: the face a direction hits
// and the (u, v) on it.
func DirectionFace(d [3]float32) (face int, u, v float32) {
	ax, ay, az := abs32(d[0]), abs32(d[1]), abs32(d[2])
	var ma, sc, tc float32
	switch {
	case ax >= ay && ax >= az:
		ma = ax
		if d[0] > 0 {
			face, sc, tc = FacePosX, -d[2], -d[1]
		} else {
			face, sc, tc = FaceNegX, d[2], -d[1]
		}
	case ay >= az:
		ma = ay
		if d[1] > 0 {
			face, sc, tc = FacePosY, d[0], d[2]
		} else {
			face, sc, tc = FaceNegY, d[0], -d[2]
		}
	default:
		ma = az
		if d[2] > 0 {
			face, sc, tc = FacePosZ, d[0], -d[1]
		} else {
			face, sc, tc = FaceNegZ, -d[0], -d[1]
		}
	}
	if ma == 0 {
		return FacePosZ, 0.5, 0.5
	}
	return face, (sc/ma + 1) / 2, (tc/ma + 1) / 2
}

func normalize(d [3]float32) [3]float32 {
	l := float32(math.Sqrt(float64(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])))
	if l == 0 {
		return d
	}
	return [3]float32{d[0] / l, d[1] / l, d[2] / l}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
