package gpu

import "github.com/gogpu/gputypes"

// BlendFactor is a blend factor in host API order.
type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendOneMinusSrcColor
	BlendDstColor
	BlendOneMinusDstColor
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstAlpha
	BlendOneMinusDstAlpha
	BlendConstantColor
	BlendOneMinusConstantColor
	BlendConstantAlpha
	BlendOneMinusConstantAlpha
	BlendSrcAlphaSaturate

	blendFactorCount
)

var gpuFactors = [blendFactorCount]gputypes.BlendFactor{
	gputypes.BlendFactorZero,
	gputypes.BlendFactorOne,
	gputypes.BlendFactorSrc,
	gputypes.BlendFactorOneMinusSrc,
	gputypes.BlendFactorDst,
	gputypes.BlendFactorOneMinusDst,
	gputypes.BlendFactorSrcAlpha,
	gputypes.BlendFactorOneMinusSrcAlpha,
	gputypes.BlendFactorDstAlpha,
	gputypes.BlendFactorOneMinusDstAlpha,
	gputypes.BlendFactorConstant,
	gputypes.BlendFactorOneMinusConstant,
	gputypes.BlendFactorConstant,
	gputypes.BlendFactorOneMinusConstant,
	gputypes.BlendFactorSrcAlphaSaturated,
}

// Valid reports whether f is one of the known factors.
func (f BlendFactor) Valid() bool {
	return f >= 0 && f < blendFactorCount
}

// GPU translates f to gputypes.
func (f BlendFactor) GPU() gputypes.BlendFactor {
	if !f.Valid() {
		return gputypes.BlendFactorUndefined
	}
	return gpuFactors[f]
}

// BlendState is the source and destination factor of a draw.
type BlendState struct {
	Src BlendFactor
	Dst BlendFactor
}

// ReplaceBlend writes the source as is.
var ReplaceBlend = BlendState{Src: BlendOne, Dst: BlendZero}

// NewBlendState builds a state from raw host values. Each factor that is out
// of range falls back to One for the source and Zero for the destination.
func NewBlendState(src, dst int) BlendState {
	s := ReplaceBlend
	if f := BlendFactor(src); f.Valid() {
		s.Src = f
	}
	if f := BlendFactor(dst); f.Valid() {
		s.Dst = f
	}
	return s
}

// Descriptor returns the gputypes blend state, same factors for color and
// alpha.
func (s BlendState) Descriptor() gputypes.BlendState {
	c := gputypes.BlendComponent{
		SrcFactor: s.Src.GPU(),
		DstFactor: s.Dst.GPU(),
		Operation: gputypes.BlendOperationAdd,
	}
	return gputypes.BlendState{Color: c, Alpha: c}
}

// blendConstant is the constant color. It is never set, so it stays zero.
var blendConstant = [4]float32{}

func factor(f BlendFactor, src, dst [4]float32, ch int) float32 {
	switch f {
	case BlendZero:
		return 0
	case BlendOne:
		return 1
	case BlendSrcColor:
		return src[ch]
	case BlendOneMinusSrcColor:
		return 1 - src[ch]
	case BlendDstColor:
		return dst[ch]
	case BlendOneMinusDstColor:
		return 1 - dst[ch]
	case BlendSrcAlpha:
		return src[3]
	case BlendOneMinusSrcAlpha:
		return 1 - src[3]
	case BlendDstAlpha:
		return dst[3]
	case BlendOneMinusDstAlpha:
		return 1 - dst[3]
	case BlendConstantColor:
		return blendConstant[ch]
	case BlendOneMinusConstantColor:
		return 1 - blendConstant[ch]
	case BlendConstantAlpha:
		return blendConstant[3]
	case BlendOneMinusConstantAlpha:
		return 1 - blendConstant[3]
	case BlendSrcAlphaSaturate:
		if ch == 3 {
			return 1
		}
		return min(src[3], 1-dst[3])
	}
	return 0
}

// Apply blends src over dst, per channel, clamped to [0,1].
func (s BlendState) Apply(src, dst [4]float32) [4]float32 {
	var out [4]float32
	for ch := range out {
		v := src[ch]*factor(s.Src, src, dst, ch) + dst[ch]*factor(s.Dst, src, dst, ch)
		out[ch] = min(max(v, 0), 1)
	}
	return out
}
