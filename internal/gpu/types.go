package gpu

import (
	"errors"
	"image"
	"math/bits"

	"github.com/gogpu/gputypes"
)

var (
	// ErrUnknownTarget is returned for a TargetID the backend does not own.
	ErrUnknownTarget = errors.New("unknown render target")
	// ErrUnknownProgram is returned for a ProgramID the backend does not own.
	ErrUnknownProgram = errors.New("unknown program")
)

// TargetID identifies a render target. Zero is never a valid id.
type TargetID uint64

// ProgramID identifies a compiled program. Zero is never a valid id.
type ProgramID uint64

// CubeFaces is the face count of a cube target.
const CubeFaces = 6

// MaxInputs is the number of sampler slots of a draw.
const MaxInputs = 8

// TargetDescriptor describes a render target.
type TargetDescriptor struct {
	Width    int
	Height   int
	Cube     bool
	MipCount int
	Format   gputypes.TextureFormat
	Depth    bool
}

// Faces returns 6 for cube targets, 1 otherwise.
func (d TargetDescriptor) Faces() int {
	if d.Cube {
		return CubeFaces
	}
	return 1
}

// Mips returns the mip count, at least 1 and at most a full chain down to
// 1x1.
func (d TargetDescriptor) Mips() int {
	return min(max(d.MipCount, 1), MaxMips(d.Width, d.Height))
}

// MaxMips is the length of a full mip chain: floor(log2(max(w, h))) + 1.
func MaxMips(width, height int) int {
	return bits.Len(uint(max(width, height, 1)))
}

// Normalized fills in the defaults: RGBA8 and one mip. The mip count is
// clamped to what the size allows.
func (d TargetDescriptor) Normalized() TargetDescriptor {
	if d.Format == gputypes.TextureFormatUndefined {
		d.Format = gputypes.TextureFormatRGBA8Unorm
	}
	d.MipCount = d.Mips()
	return d
}

// Texture builds the gputypes descriptor of the color attachment.
func (d TargetDescriptor) Texture(label string) gputypes.TextureDescriptor {
	d = d.Normalized()
	return gputypes.TextureDescriptor{
		Label: label,
		Size: gputypes.Extent3D{
			Width:              uint32(d.Width),
			Height:             uint32(d.Height),
			DepthOrArrayLayers: uint32(d.Faces()),
		},
		MipLevelCount: uint32(d.MipCount),
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        d.Format,
		Usage: gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding |
			gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst,
	}
}

// ViewDimension is Cube for cube targets, 2D otherwise.
func (d TargetDescriptor) ViewDimension() gputypes.TextureViewDimension {
	if d.Cube {
		return gputypes.TextureViewDimensionCube
	}
	return gputypes.TextureViewDimension2D
}

// Sampler is how an input slot is read. Border clamps to transparent black
// outside [0,1]; gputypes has no border address mode.
type Sampler struct {
	AddressU gputypes.AddressMode
	AddressV gputypes.AddressMode
	Filter   gputypes.FilterMode
	Border   bool
}

// DefaultSampler repeats and filters linearly.
var DefaultSampler = Sampler{
	AddressU: gputypes.AddressModeRepeat,
	AddressV: gputypes.AddressModeRepeat,
	Filter:   gputypes.FilterModeLinear,
}

// Input binds a target to a sampler slot. A zero Target reads as black.
type Input struct {
	Target  TargetID
	Sampler Sampler
}

// VertexSpace selects how the quad is positioned.
type VertexSpace int

const (
	VertexSpaceUV VertexSpace = iota
	VertexSpaceWorld
)

// DrawCall renders one face and mip of a target with a program.
type DrawCall struct {
	Program     ProgramID
	Target      TargetID
	Face        int
	Mip         int
	Inputs      [MaxInputs]Input
	Uniforms    []byte
	Info        []byte
	Blend       BlendState
	Clear       bool
	VertexSpace VertexSpace
}

// ProgramSource is what CompileProgram consumes.
type ProgramSource struct {
	Name   string
	WGSL   string
	Kernel Kernel
}

// Backend is the render device the evaluation context draws through.
type Backend interface {
	CreateTarget(desc TargetDescriptor) (TargetID, error)
	DestroyTarget(id TargetID)
	HasTarget(id TargetID) bool
	Descriptor(id TargetID) (TargetDescriptor, bool)
	Upload(id TargetID, face, mip int, img *image.RGBA) error
	Readback(id TargetID, face, mip int) (*image.RGBA, error)
	GenerateMips(id TargetID) error

	CompileProgram(src ProgramSource) (ProgramID, error)
	DestroyProgram(id ProgramID)

	Draw(call DrawCall) error
}
