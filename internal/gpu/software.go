package gpu

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"runtime"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// Kernel shades one fragment. It runs concurrently for different rows and
// must not keep f.
type Kernel func(f *Fragment) Color

// Fragment is what a Kernel sees for one pixel.
type Fragment struct {
	X, Y          int
	Width, Height int
	// UV is the pixel centre in [0,1], v pointing down.
	UV   [2]float32
	Face int
	// Dir is the view direction of the pixel on cube targets.
	Dir      [3]float32
	Uniforms []byte
	Info     []byte
	// Depth is written to the depth plane when the target has one. Fragments
	// farther than the stored depth are discarded.
	Depth float32

	inputs *[MaxInputs]boundInput
}

type boundInput struct {
	target  *softTarget
	sampler Sampler
}

// Float reads the little endian float32 at byte offset off of the uniforms,
// 0 when out of range.
func (f *Fragment) Float(off int) float32 {
	if off < 0 || off+4 > len(f.Uniforms) {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(f.Uniforms[off:]))
}

// Int reads the little endian int32 at byte offset off of the uniforms.
func (f *Fragment) Int(off int) int {
	if off < 0 || off+4 > len(f.Uniforms) {
		return 0
	}
	return int(int32(binary.LittleEndian.Uint32(f.Uniforms[off:])))
}

// InfoInt reads the little endian int32 at byte offset off of the
// evaluation info.
func (f *Fragment) InfoInt(off int) int {
	if off < 0 || off+4 > len(f.Info) {
		return 0
	}
	return int(int32(binary.LittleEndian.Uint32(f.Info[off:])))
}

// Bound reports whether input slot has a target.
func (f *Fragment) Bound(slot int) bool {
	return f.inputs != nil && slot >= 0 && slot < MaxInputs && f.inputs[slot].target != nil
}

// InputSize returns the size of the target bound to slot.
func (f *Fragment) InputSize(slot int) (int, int) {
	if !f.Bound(slot) {
		return 0, 0
	}
	d := f.inputs[slot].target.desc
	return d.Width, d.Height
}

// Sample reads input slot at (u, v). Cube inputs are read on their +Z face.
func (f *Fragment) Sample(slot int, u, v float32) Color {
	if !f.Bound(slot) {
		return Color{}
	}
	in := f.inputs[slot]
	face := 0
	if in.target.desc.Cube {
		face = FacePosZ
	}
	return sample2D(in.target.levels[face][0], u, v, in.sampler)
}

// SampleCube reads a cube input in direction dir. 2D inputs are read as an
// equirectangular map.
func (f *Fragment) SampleCube(slot int, dir [3]float32) Color {
	if !f.Bound(slot) {
		return Color{}
	}
	in := f.inputs[slot]
	if !in.target.desc.Cube {
		d := normalize(dir)
		u := 0.5 + float32(math.Atan2(float64(d[0]), float64(d[2])))/(2*math.Pi)
		v := float32(math.Acos(float64(min(max(-d[1], -1), 1)))) / math.Pi
		return sample2D(in.target.levels[0][0], u, v, in.sampler)
	}
	face, u, v := DirectionFace(dir)
	return sample2D(in.target.levels[face][0], u, v, in.sampler)
}

type softTarget struct {
	desc   TargetDescriptor
	levels [][]*image.RGBA
	depth  [][]float32
}

// newSoftTarget allocates the layers and mips tex asks for.
func newSoftTarget(desc TargetDescriptor, tex gputypes.TextureDescriptor) *softTarget {
	t := &softTarget{desc: desc}
	for range tex.Size.DepthOrArrayLayers {
		mips := make([]*image.RGBA, tex.MipLevelCount)
		for m := range mips {
			w, h := max(int(tex.Size.Width)>>m, 1), max(int(tex.Size.Height)>>m, 1)
			mips[m] = image.NewRGBA(image.Rect(0, 0, w, h))
		}
		t.levels = append(t.levels, mips)
		if desc.Depth {
			t.depth = append(t.depth, clearedDepth(desc.Width*desc.Height))
		}
	}
	return t
}

func clearedDepth(n int) []float32 {
	d := make([]float32, n)
	for i := range d {
		d[i] = 1
	}
	return d
}

type softProgram struct {
	name   string
	spirv  []byte
	kernel Kernel
}

// Software is a CPU Backend. It is safe for concurrent use.
type Software struct {
	mu       sync.Mutex
	compile  func(string) ([]byte, error)
	workers  int
	nextID   uint64
	targets  map[TargetID]*softTarget
	programs map[ProgramID]*softProgram
}

// SoftwareOption configures a Software backend.
type SoftwareOption func(*Software)

// WithCompiler replaces naga.Compile.
func WithCompiler(fn func(string) ([]byte, error)) SoftwareOption {
	return func(s *Software) { s.compile = fn }
}

// WithWorkers bounds the goroutines of one Draw.
func WithWorkers(n int) SoftwareOption {
	return func(s *Software) { s.workers = max(n, 1) }
}

// NewSoftware creates an empty backend.
func NewSoftware(opts ...SoftwareOption) *Software {
	s := &Software{
		compile:  naga.Compile,
		workers:  runtime.GOMAXPROCS(0),
		targets:  make(map[TargetID]*softTarget),
		programs: make(map[ProgramID]*softProgram),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Software) CreateTarget(desc TargetDescriptor) (TargetID, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return 0, fmt.Errorf("invalid target size %dx%d", desc.Width, desc.Height)
	}
	desc = desc.Normalized()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := TargetID(s.nextID)
	s.targets[id] = newSoftTarget(desc, desc.Texture(fmt.Sprintf("target %d", id)))
	return id, nil
}

func (s *Software) DestroyTarget(id TargetID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.targets, id)
}

func (s *Software) HasTarget(id TargetID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.targets[id]
	return ok
}

func (s *Software) Descriptor(id TargetID) (TargetDescriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.targets[id]
	if !ok {
		return TargetDescriptor{}, false
	}
	return t.desc, true
}

// Targets returns the number of live targets.
func (s *Software) Targets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.targets)
}

func (s *Software) level(id TargetID, face, mip int) (*softTarget, *image.RGBA, error) {
	t, ok := s.targets[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownTarget, id)
	}
	if face < 0 || face >= len(t.levels) || mip < 0 || mip >= len(t.levels[face]) {
		return nil, nil, fmt.Errorf("target %d has no face %d mip %d", id, face, mip)
	}
	return t, t.levels[face][mip], nil
}

// Upload copies img into a level. A size mismatch is resampled.
func (s *Software) Upload(id TargetID, face, mip int, img *image.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, dst, err := s.level(id, face, mip)
	if err != nil {
		return err
	}
	if img.Rect.Size() == dst.Rect.Size() {
		xdraw.Copy(dst, image.Point{}, img, img.Rect, xdraw.Src, nil)
		return nil
	}
	xdraw.CatmullRom.Scale(dst, dst.Rect, img, img.Rect, xdraw.Src, nil)
	return nil
}

// Readback returns a copy of a level.
func (s *Software) Readback(id TargetID, face, mip int) (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, src, err := s.level(id, face, mip)
	if err != nil {
		return nil, err
	}
	out := image.NewRGBA(src.Rect)
	copy(out.Pix, src.Pix)
	return out, nil
}

// GenerateMips downsamples mip 0 of every face into the other levels.
func (s *Software) GenerateMips(id TargetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.targets[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTarget, id)
	}
	for _, mips := range t.levels {
		for m := 1; m < len(mips); m++ {
			xdraw.ApproxBiLinear.Scale(mips[m], mips[m].Rect, mips[m-1], mips[m-1].Rect, xdraw.Src, nil)
		}
	}
	return nil
}

// CompileProgram validates the WGSL source and binds its kernel.
func (s *Software) CompileProgram(src ProgramSource) (ProgramID, error) {
	if src.Kernel == nil {
		return 0, fmt.Errorf("program %s has no kernel", src.Name)
	}
	spirv, err := s.compile(src.WGSL)
	if err != nil {
		return 0, fmt.Errorf("failed to compile program %s: %w", src.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := ProgramID(s.nextID)
	s.programs[id] = &softProgram{name: src.Name, spirv: spirv, kernel: src.Kernel}
	return id, nil
}

func (s *Software) DestroyProgram(id ProgramID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.programs, id)
}

// Draw runs the program kernel over every pixel of the requested level,
// row bands in parallel.
func (s *Software) Draw(call DrawCall) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prog, ok := s.programs[call.Program]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownProgram, call.Program)
	}
	t, dst, err := s.level(call.Target, call.Face, call.Mip)
	if err != nil {
		return err
	}
	var inputs [MaxInputs]boundInput
	for i, in := range call.Inputs {
		if in.Target == 0 {
			continue
		}
		src, ok := s.targets[in.Target]
		if !ok {
			continue
		}
		if src == t {
			return fmt.Errorf("target %d cannot sample itself", call.Target)
		}
		inputs[i] = boundInput{target: src, sampler: in.Sampler}
	}

	var depth []float32
	if t.depth != nil && call.Mip == 0 {
		depth = t.depth[call.Face]
	}
	if call.Clear {
		clear(dst.Pix)
		if depth != nil {
			for i := range depth {
				depth[i] = 1
			}
		}
	}

	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	band := max((h+s.workers-1)/s.workers, 1)
	var g errgroup.Group
	g.SetLimit(s.workers)
	for y0 := 0; y0 < h; y0 += band {
		y1 := min(y0+band, h)
		g.Go(func() error {
			f := Fragment{Width: w, Height: h, Face: call.Face, Uniforms: call.Uniforms, Info: call.Info, inputs: &inputs}
			for y := y0; y < y1; y++ {
				for x := 0; x < w; x++ {
					f.X, f.Y = x, y
					f.UV = [2]float32{(float32(x) + 0.5) / float32(w), (float32(y) + 0.5) / float32(h)}
					if t.desc.Cube {
						f.Dir = FaceDirection(call.Face, f.UV[0], f.UV[1])
					}
					f.Depth = 0
					c := prog.kernel(&f)
					if depth != nil {
						if f.Depth > depth[y*w+x] {
							continue
						}
						depth[y*w+x] = f.Depth
					}
					storeColor(dst, x, y, call.Blend.Apply(c, loadColor(dst, x, y)))
				}
			}
			return nil
		})
	}
	return g.Wait()
}

var _ Backend = (*Software)(nil)
