package scene

import (
	"context"
	"fmt"
	"image"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"

	"github.com/specialistvlad/texgridgo/internal/params"
	"golang.org/x/sync/errgroup"
)

// Service is what the evaluation context needs from a scene renderer.
type Service interface {
	LoadScene(ctx context.Context, path string) (*Scene, error)
	// Render adds one sample per pixel to the accumulation of (s, dst) and
	// writes the running average into dst. done is true once the scene's
	// sample count is reached.
	Render(s *Scene, cam params.CameraValue, dst *image.RGBA) (done bool, err error)
	// Forget drops the accumulation of dst.
	Forget(dst *image.RGBA)
}

type accumulation struct {
	scene   *Scene
	camera  params.CameraValue
	size    image.Point
	samples int
	sum     []Vec3
}

// Tracer is a progressive path tracer. Accumulations are keyed by the
// destination image and reset when the scene, camera or size changes.
type Tracer struct {
	mu      sync.Mutex
	accum   map[*image.RGBA]*accumulation
	workers int
}

// NewTracer creates a tracer.
func NewTracer() *Tracer {
	return &Tracer{accum: make(map[*image.RGBA]*accumulation), workers: runtime.GOMAXPROCS(0)}
}

func (t *Tracer) LoadScene(ctx context.Context, path string) (*Scene, error) {
	return Load(ctx, path)
}

func (t *Tracer) Forget(dst *image.RGBA) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.accum, dst)
}

// Samples returns how many samples dst has accumulated.
func (t *Tracer) Samples(dst *image.RGBA) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.accum[dst]; ok {
		return a.samples
	}
	return 0
}

func (t *Tracer) Render(s *Scene, cam params.CameraValue, dst *image.RGBA) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("no scene to render")
	}
	if dst == nil || dst.Rect.Empty() {
		return false, fmt.Errorf("render target is empty")
	}

	t.mu.Lock()
	a, ok := t.accum[dst]
	size := dst.Rect.Size()
	if !ok || a.scene != s || a.camera != cam || a.size != size {
		a = &accumulation{scene: s, camera: cam, size: size, sum: make([]Vec3, size.X*size.Y)}
		t.accum[dst] = a
	}
	t.mu.Unlock()

	if a.samples >= s.Samples {
		return true, nil
	}

	view := newView(cam, size)
	pass := uint64(a.samples)
	var g errgroup.Group
	g.SetLimit(t.workers)
	for y := 0; y < size.Y; y++ {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(pass, uint64(y)))
			for x := 0; x < size.X; x++ {
				u := (float64(x) + rng.Float64()) / float64(size.X)
				v := (float64(y) + rng.Float64()) / float64(size.Y)
				c := trace(s, view.origin, view.ray(u, v), rng)
				i := y*size.X + x
				a.sum[i] = a.sum[i].add(c)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	a.samples++
	a.resolve(dst)
	return a.samples >= s.Samples, nil
}

func (a *accumulation) resolve(dst *image.RGBA) {
	inv := 1 / float64(a.samples)
	for y := 0; y < a.size.Y; y++ {
		for x := 0; x < a.size.X; x++ {
			c := a.sum[y*a.size.X+x].scale(inv)
			o := dst.PixOffset(dst.Rect.Min.X+x, dst.Rect.Min.Y+y)
			for ch := range 3 {
				// gamma 2
				dst.Pix[o+ch] = uint8(math.Sqrt(min(max(c[ch], 0), 1))*255 + 0.5)
			}
			dst.Pix[o+3] = 255
		}
	}
}

type view struct {
	origin             Vec3
	forward, right, up Vec3
	halfW, halfH       float64
}

func newView(cam params.CameraValue, size image.Point) view {
	v := view{
		origin:  Vec3{float64(cam.Position[0]), float64(cam.Position[1]), float64(cam.Position[2])},
		forward: Vec3{float64(cam.Direction[0]), float64(cam.Direction[1]), float64(cam.Direction[2])}.norm(),
	}
	up := Vec3{float64(cam.Up[0]), float64(cam.Up[1]), float64(cam.Up[2])}
	v.right = v.forward.cross(up).norm()
	v.up = v.right.cross(v.forward)
	fov := float64(cam.Lens[0])
	if fov <= 0 || fov >= math.Pi {
		fov = math.Pi / 3
	}
	v.halfH = math.Tan(fov / 2)
	v.halfW = v.halfH * float64(size.X) / float64(size.Y)
	return v
}

// ray maps (u, v) in [0,1], v pointing down, to a world direction.
func (v view) ray(u, w float64) Vec3 {
	x := (2*u - 1) * v.halfW
	y := (1 - 2*w) * v.halfH
	return v.forward.add(v.right.scale(x)).add(v.up.scale(y)).norm()
}

func trace(s *Scene, origin, dir Vec3, rng *rand.Rand) Vec3 {
	throughput := Vec3{1, 1, 1}
	var radiance Vec3
	for bounce := 0; bounce < s.Bounces; bounce++ {
		hit, dist := -1, math.Inf(1)
		for i := range s.Spheres {
			if d := s.Spheres[i].hit(origin, dir); d > 0 && d < dist {
				hit, dist = i, d
			}
		}
		if hit < 0 {
			return radiance.add(throughput.mul(s.Background))
		}
		sp := &s.Spheres[hit]
		radiance = radiance.add(throughput.mul(sp.Emission))
		throughput = throughput.mul(sp.Color)

		origin = origin.add(dir.scale(dist))
		normal := origin.sub(sp.Center).norm()
		if normal.dot(dir) > 0 {
			normal = normal.scale(-1)
		}
		dir = cosineSample(normal, rng)
	}
	return radiance
}

func cosineSample(n Vec3, rng *rand.Rand) Vec3 {
	r1, r2 := 2*math.Pi*rng.Float64(), rng.Float64()
	r := math.Sqrt(r2)
	var a Vec3
	if math.Abs(n[0]) > 0.9 {
		a = Vec3{0, 1, 0}
	} else {
		a = Vec3{1, 0, 0}
	}
	t := a.cross(n).norm()
	b := n.cross(t)
	return t.scale(math.Cos(r1) * r).add(b.scale(math.Sin(r1) * r)).add(n.scale(math.Sqrt(1 - r2))).norm()
}

var _ Service = (*Tracer)(nil)
