package gpu

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validWGSL = "@vertex\nfn main() -> @builtin(position) vec4<f32> {\n    return vec4<f32>(0.0, 0.0, 0.0, 1.0);\n}"

func solid(c Color) Kernel {
	return func(*Fragment) Color { return c }
}

func fakeCompiler(string) ([]byte, error) { return []byte{1, 2, 3, 4}, nil }

func pixel(t *testing.T, b *Software, id TargetID, face, x, y int) color.RGBA {
	t.Helper()
	img, err := b.Readback(id, face, 0)
	require.NoError(t, err)
	return img.RGBAAt(x, y)
}

func TestCompileProgram(t *testing.T) {
	b := NewSoftware()

	t.Run("valid wgsl", func(t *testing.T) {
		id, err := b.CompileProgram(ProgramSource{Name: "Fill", WGSL: validWGSL, Kernel: solid(Color{1, 0, 0, 1})})
		require.NoError(t, err)
		assert.NotZero(t, id)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := b.CompileProgram(ProgramSource{Name: "Broken", WGSL: "fn main( -> @builtin(position) vec4<f32> {", Kernel: solid(Color{})})
		assert.ErrorContains(t, err, "failed to compile program Broken")
	})

	t.Run("missing kernel", func(t *testing.T) {
		_, err := b.CompileProgram(ProgramSource{Name: "NoKernel", WGSL: validWGSL})
		assert.ErrorContains(t, err, "has no kernel")
	})

	t.Run("compiler override", func(t *testing.T) {
		calls := 0
		fb := NewSoftware(WithCompiler(func(string) ([]byte, error) {
			calls++
			return nil, errors.New("boom")
		}))
		_, err := fb.CompileProgram(ProgramSource{Name: "X", Kernel: solid(Color{})})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestTargets(t *testing.T) {
	b := NewSoftware(WithCompiler(fakeCompiler))

	_, err := b.CreateTarget(TargetDescriptor{Width: 0, Height: 4})
	assert.Error(t, err)

	id, err := b.CreateTarget(TargetDescriptor{Width: 8, Height: 4, Cube: true, MipCount: 3, Depth: true})
	require.NoError(t, err)
	desc, ok := b.Descriptor(id)
	require.True(t, ok)
	assert.Equal(t, gputypes.TextureFormatRGBA8Unorm, desc.Format)
	assert.Equal(t, CubeFaces, desc.Faces())

	img, err := b.Readback(id, FaceNegZ, 2)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 1), img.Rect)

	_, err = b.Readback(id, 6, 0)
	assert.Error(t, err)

	b.DestroyTarget(id)
	assert.False(t, b.HasTarget(id))
	_, err = b.Readback(id, 0, 0)
	assert.ErrorIs(t, err, ErrUnknownTarget)
	assert.Zero(t, b.Targets())
}

func TestTextureDescriptor(t *testing.T) {
	d := TargetDescriptor{Width: 64, Height: 32, Cube: true}
	tex := d.Texture("stage")
	assert.Equal(t, uint32(6), tex.Size.DepthOrArrayLayers)
	assert.Equal(t, uint32(1), tex.MipLevelCount)
	assert.True(t, tex.Usage.Contains(gputypes.TextureUsageRenderAttachment))
	assert.Equal(t, gputypes.TextureViewDimensionCube, d.ViewDimension())
}

func TestMipCountIsClamped(t *testing.T) {
	testCases := []struct {
		name          string
		width, height int
		mips          int
		want          int
	}{
		{"zero means one", 64, 64, 0, 1},
		{"negative", 64, 64, -3, 1},
		{"within chain", 64, 64, 4, 4},
		{"full chain", 64, 64, 7, 7},
		{"past 1x1", 64, 64, 8, 7},
		{"huge", 64, 64, 1 << 24, 7},
		{"wide", 100, 3, 1 << 10, 7},
		{"single pixel", 1, 1, 5, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := TargetDescriptor{Width: tc.width, Height: tc.height, Cube: true, MipCount: tc.mips}
			assert.Equal(t, tc.want, d.Normalized().MipCount)
			assert.Equal(t, tc.want, d.Mips())
		})
	}
}

func TestCreateTargetAllocatesClampedChain(t *testing.T) {
	b := NewSoftware(WithCompiler(fakeCompiler))
	id, err := b.CreateTarget(TargetDescriptor{Width: 64, Height: 64, Cube: true, MipCount: 1 << 24})
	require.NoError(t, err)

	desc, ok := b.Descriptor(id)
	require.True(t, ok)
	assert.Equal(t, 7, desc.MipCount)

	img, err := b.Readback(id, 5, 6)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1, 1), img.Rect)
	_, err = b.Readback(id, 5, 7)
	assert.Error(t, err)
}

func TestDrawAndBlend(t *testing.T) {
	b := NewSoftware(WithCompiler(fakeCompiler), WithWorkers(3))
	tgt, err := b.CreateTarget(TargetDescriptor{Width: 5, Height: 7})
	require.NoError(t, err)

	red, err := b.CompileProgram(ProgramSource{Name: "Red", Kernel: solid(Color{1, 0, 0, 1})})
	require.NoError(t, err)
	halfBlue, err := b.CompileProgram(ProgramSource{Name: "Blue", Kernel: solid(Color{0, 0, 1, 0.5})})
	require.NoError(t, err)

	require.NoError(t, b.Draw(DrawCall{Program: red, Target: tgt, Blend: ReplaceBlend}))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, pixel(t, b, tgt, 0, 4, 6))

	alpha := NewBlendState(int(BlendSrcAlpha), int(BlendOneMinusSrcAlpha))
	require.NoError(t, b.Draw(DrawCall{Program: halfBlue, Target: tgt, Blend: alpha}))
	got := pixel(t, b, tgt, 0, 2, 3)
	assert.InDelta(t, 128, int(got.R), 1)
	assert.InDelta(t, 128, int(got.B), 1)

	require.NoError(t, b.Draw(DrawCall{Program: halfBlue, Target: tgt, Blend: NewBlendState(99, -1), Clear: true}))
	assert.Equal(t, color.RGBA{0, 0, 255, 128}, pixel(t, b, tgt, 0, 0, 0))

	err = b.Draw(DrawCall{Program: 12345, Target: tgt})
	assert.ErrorIs(t, err, ErrUnknownProgram)
	err = b.Draw(DrawCall{Program: red, Target: 999})
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestBlendMapping(t *testing.T) {
	assert.Equal(t, ReplaceBlend, NewBlendState(-3, 15))
	assert.Equal(t, gputypes.BlendFactorSrcAlphaSaturated, BlendSrcAlphaSaturate.GPU())
	assert.Equal(t, gputypes.BlendFactorOneMinusConstant, BlendOneMinusConstantAlpha.GPU())
	assert.Equal(t, gputypes.BlendFactorUndefined, BlendFactor(40).GPU())
	assert.Equal(t, gputypes.BlendStateReplace(), ReplaceBlend.Descriptor())

	sat := BlendState{Src: BlendSrcAlphaSaturate, Dst: BlendZero}
	out := sat.Apply(Color{1, 1, 1, 0.8}, Color{0, 0, 0, 0.5})
	assert.InDelta(t, 0.5, out[0], 1e-6)
	assert.InDelta(t, 0.8, out[3], 1e-6)
}

func TestSamplingInputs(t *testing.T) {
	b := NewSoftware(WithCompiler(fakeCompiler))
	src, err := b.CreateTarget(TargetDescriptor{Width: 2, Height: 1})
	require.NoError(t, err)
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	img.SetRGBA(1, 0, color.RGBA{0, 255, 0, 255})
	require.NoError(t, b.Upload(src, 0, 0, img))

	dst, err := b.CreateTarget(TargetDescriptor{Width: 4, Height: 1})
	require.NoError(t, err)
	shift, err := b.CompileProgram(ProgramSource{Name: "Shift", Kernel: func(f *Fragment) Color {
		return f.Sample(0, f.UV[0]+0.5, f.UV[1])
	}})
	require.NoError(t, err)

	nearest := Sampler{AddressU: gputypes.AddressModeRepeat, AddressV: gputypes.AddressModeRepeat, Filter: gputypes.FilterModeNearest}
	call := DrawCall{Program: shift, Target: dst, Blend: ReplaceBlend}
	call.Inputs[0] = Input{Target: src, Sampler: nearest}
	require.NoError(t, b.Draw(call))
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, pixel(t, b, dst, 0, 0, 0))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, pixel(t, b, dst, 0, 3, 0), "repeat wraps")

	call.Inputs[0].Sampler = Sampler{Filter: gputypes.FilterModeNearest, Border: true}
	require.NoError(t, b.Draw(call))
	assert.Equal(t, color.RGBA{}, pixel(t, b, dst, 0, 3, 0), "border is transparent")

	call.Inputs[0].Sampler = Sampler{AddressU: gputypes.AddressModeClampToEdge, AddressV: gputypes.AddressModeClampToEdge, Filter: gputypes.FilterModeNearest}
	require.NoError(t, b.Draw(call))
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, pixel(t, b, dst, 0, 3, 0), "clamp holds the edge")

	call.Inputs[0] = Input{}
	require.NoError(t, b.Draw(call))
	assert.Equal(t, color.RGBA{}, pixel(t, b, dst, 0, 1, 0), "unbound input is black")

	call.Inputs[0] = Input{Target: dst}
	assert.ErrorContains(t, b.Draw(call), "cannot sample itself")
}

func TestWrap(t *testing.T) {
	mirror := gputypes.AddressModeMirrorRepeat
	for _, tc := range []struct{ in, want int }{{-1, 0}, {4, 3}, {5, 2}, {8, 0}, {-5, 3}} {
		got, ok := wrap(tc.in, 4, mirror, false)
		assert.True(t, ok)
		assert.Equal(t, tc.want, got, "mirror %d", tc.in)
	}
	got, _ := wrap(-3, 4, gputypes.AddressModeRepeat, false)
	assert.Equal(t, 1, got)
}

func TestCubeFaces(t *testing.T) {
	for face := range CubeFaces {
		for _, uv := range [][2]float32{{0.5, 0.5}, {0.2, 0.7}, {0.9, 0.1}} {
			f, u, v := DirectionFace(FaceDirection(face, uv[0], uv[1]))
			assert.Equal(t, face, f)
			assert.InDelta(t, uv[0], u, 1e-5)
			assert.InDelta(t, uv[1], v, 1e-5)
		}
	}
	assert.Equal(t, [3]float32{1, 0, 0}, FaceDirection(FacePosX, 0.5, 0.5))

	b := NewSoftware(WithCompiler(fakeCompiler))
	cube, err := b.CreateTarget(TargetDescriptor{Width: 2, Height: 2, Cube: true})
	require.NoError(t, err)
	faceColor, err := b.CompileProgram(ProgramSource{Name: "Face", Kernel: func(f *Fragment) Color {
		return Color{float32(f.Face) / 5, 0, 0, 1}
	}})
	require.NoError(t, err)
	for face := range CubeFaces {
		require.NoError(t, b.Draw(DrawCall{Program: faceColor, Target: cube, Face: face, Blend: ReplaceBlend}))
	}
	assert.Equal(t, uint8(204), pixel(t, b, cube, FacePosZ, 1, 1).R)
}

func TestDepthAndMips(t *testing.T) {
	b := NewSoftware(WithCompiler(fakeCompiler))
	tgt, err := b.CreateTarget(TargetDescriptor{Width: 4, Height: 4, Depth: true, MipCount: 2})
	require.NoError(t, err)

	near, err := b.CompileProgram(ProgramSource{Name: "Near", Kernel: func(f *Fragment) Color {
		f.Depth = 0.2
		return Color{1, 0, 0, 1}
	}})
	require.NoError(t, err)
	far, err := b.CompileProgram(ProgramSource{Name: "Far", Kernel: func(f *Fragment) Color {
		f.Depth = 0.8
		return Color{0, 1, 0, 1}
	}})
	require.NoError(t, err)

	require.NoError(t, b.Draw(DrawCall{Program: near, Target: tgt, Blend: ReplaceBlend, Clear: true}))
	require.NoError(t, b.Draw(DrawCall{Program: far, Target: tgt, Blend: ReplaceBlend}))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, pixel(t, b, tgt, 0, 1, 1), "farther fragment is discarded")

	require.NoError(t, b.Draw(DrawCall{Program: far, Target: tgt, Blend: ReplaceBlend, Clear: true}))
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, pixel(t, b, tgt, 0, 1, 1), "clear resets depth")

	require.NoError(t, b.GenerateMips(tgt))
	mip, err := b.Readback(tgt, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, mip.RGBAAt(0, 0))
}

func TestFragmentUniforms(t *testing.T) {
	f := Fragment{Uniforms: []byte{0, 0, 128, 63, 7, 0, 0, 0}}
	assert.Equal(t, float32(1), f.Float(0))
	assert.Equal(t, 7, f.Int(4))
	assert.Zero(t, f.Float(6))
}
