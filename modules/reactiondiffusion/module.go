package reactiondiffusion

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/specialistvlad/texgridgo/internal/codec"
	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/graph"
	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/specialistvlad/texgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Params defines the parameters of the ReactionDiffusion node.
type Params struct {
	Size       int        `param:"size"`
	Feed       float32    `param:"feed"`
	Kill       float32    `param:"kill"`
	Boost      float32    `param:"boost"`
	Passes     int        `param:"passes"`
	Iterations int        `param:"iterations"`
	Color      [4]float32 `param:"color"`
}

// Diffusion rates of the two chemicals.
const (
	DiffuseU = 1.0
	DiffuseV = 0.5
)

// cellSize is the byte size of one compute buffer element: u and v as
// float32. Element 0 holds the header instead.
const cellSize = 8

// Edge returns the grid edge for the size enum.
func Edge(size int) int {
	return 256 << min(max(size, 0), 3)
}

// Grid is a square Gray-Scott field backed by a compute buffer.
type Grid struct {
	N   int
	buf []byte
}

func (g *Grid) header() []byte { return g.buf[:cellSize] }

// Pass is the number of completed passes.
func (g *Grid) Pass() int { return int(binary.LittleEndian.Uint32(g.header())) }

func (g *Grid) setPass(p int) { binary.LittleEndian.PutUint32(g.header(), uint32(p)) }

func (g *Grid) edge() int { return int(binary.LittleEndian.Uint32(g.header()[4:])) }

func (g *Grid) cell(i int) []byte { return g.buf[(i+1)*cellSize : (i+2)*cellSize] }

// At returns u and v of cell (x, y), wrapping at the borders.
func (g *Grid) At(x, y int) (float32, float32) {
	x = (x%g.N + g.N) % g.N
	y = (y%g.N + g.N) % g.N
	c := g.cell(y*g.N + x)
	return math.Float32frombits(binary.LittleEndian.Uint32(c)),
		math.Float32frombits(binary.LittleEndian.Uint32(c[4:]))
}

func (g *Grid) set(i int, u, v float32) {
	c := g.cell(i)
	binary.LittleEndian.PutUint32(c, math.Float32bits(u))
	binary.LittleEndian.PutUint32(c[4:], math.Float32bits(v))
}

// Reset fills the grid with u=1, v=0 and seeds a square of v in the middle.
func (g *Grid) Reset() {
	binary.LittleEndian.PutUint32(g.header()[4:], uint32(g.N))
	g.setPass(0)
	lo, hi := g.N/2-g.N/16, g.N/2+g.N/16
	for y := range g.N {
		for x := range g.N {
			if x >= lo && x < hi && y >= lo && y < hi {
				g.set(y*g.N+x, 0.5, 0.25)
			} else {
				g.set(y*g.N+x, 1, 0)
			}
		}
	}
}

// Step advances the field by one explicit Euler step.
func (g *Grid) Step(feed, kill float32) {
	next := make([][2]float32, g.N*g.N)
	for y := range g.N {
		for x := range g.N {
			u, v := g.At(x, y)
			var lu, lv float32
			for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				nu, nv := g.At(x+d[0], y+d[1])
				lu += nu
				lv += nv
			}
			lu -= 4 * u
			lv -= 4 * v
			uvv := u * v * v
			next[y*g.N+x] = [2]float32{
				clamp01(u + DiffuseU*lu*0.2 - uvv + feed*(1-u)),
				clamp01(v + DiffuseV*lv*0.2 + uvv - (feed+kill)*v),
			}
		}
	}
	for i, c := range next {
		g.set(i, c[0], c[1])
	}
}

// Image shades the field as color * (u - v).
func (g *Grid) Image(color [4]float32) codec.Image {
	img := codec.NewImage(g.N, g.N)
	rgba := img.Level(0, 0)
	for y := range g.N {
		for x := range g.N {
			u, v := g.At(x, y)
			t := clamp01(u - v)
			o := rgba.PixOffset(x, y)
			for k := range 3 {
				rgba.Pix[o+k] = uint8(clamp01(color[k]*t)*255 + 0.5)
			}
			rgba.Pix[o+3] = uint8(clamp01(color[3])*255 + 0.5)
		}
	}
	return img
}

func clamp01(f float32) float32 {
	return min(max(f, 0), 1)
}

// EvaluateReactionDiffusion runs one pass of iterations*boost steps and
// uploads the result. It stays dirty until every pass has run; a parameter
// change starts over.
func EvaluateReactionDiffusion(ctx context.Context, p *params.Block, info *registry.EvaluationInfo, host registry.Host) registry.Result {
	logger := ctxlog.FromContext(ctx)

	var in Params
	if err := registry.Decode(p, &in); err != nil {
		logger.Error("Failed to decode parameters.", "error", err)
		return registry.Error
	}
	n := Edge(in.Size)
	passes := max(in.Passes, 1)

	buf, err := host.AllocateComputeBuffer(info.TargetIndex, n*n+1, cellSize)
	if err != nil {
		logger.Error("Failed to allocate compute buffer.", "error", err)
		return registry.Error
	}
	g := &Grid{N: n, buf: buf}
	if info.DirtyMask&(graph.DirtyParameter|graph.DirtyAddedNode) != 0 || g.edge() != n {
		g.Reset()
	}
	if g.Pass() >= passes {
		return registry.OK
	}

	steps := int(float32(in.Iterations)*in.Boost + 0.5)
	for range steps {
		g.Step(in.Feed, in.Kill)
	}
	g.setPass(g.Pass() + 1)

	if err := host.SetEvaluationImage(info.TargetIndex, g.Image(in.Color)); err != nil {
		logger.Error("Failed to upload image.", "error", err)
		return registry.Error
	}
	host.SetProgress(info.TargetIndex, float32(g.Pass())/float32(passes))
	logger.Debug("Reaction diffusion pass done.", "pass", g.Pass(), "passes", passes, "steps", steps)
	if g.Pass() < passes {
		return registry.Dirty
	}
	return registry.OK
}

// Register registers the native evaluator.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNative("ReactionDiffusion", &registry.RegisteredNative{
		NewParams: func() any { return new(Params) },
		Fn:        EvaluateReactionDiffusion,
	})
}
