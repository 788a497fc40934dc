package evalctx

import (
	"context"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/specialistvlad/texgridgo/internal/cache"
	"github.com/specialistvlad/texgridgo/internal/codec"
	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/specialistvlad/texgridgo/internal/graph"
	"github.com/specialistvlad/texgridgo/internal/job"
	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/specialistvlad/texgridgo/internal/registry"
	"github.com/specialistvlad/texgridgo/internal/scene"
	"github.com/specialistvlad/texgridgo/internal/stage"
)

var _ registry.Host = (*Context)(nil)

// ensureTarget gives st a target of the requested shape. The same shape is
// a no-op; anything else replaces the target.
func (c *Context) ensureTarget(st *stage.Stage, width, height int, cube bool, mips int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid target size %dx%d", width, height)
	}
	desc := gpu.TargetDescriptor{Width: width, Height: height, Cube: cube, MipCount: mips, Depth: st.DepthBuffer}
	changed, err := st.Target.Ensure(c.backend, desc)
	if err != nil {
		return fmt.Errorf("failed to allocate %dx%d target: %w", width, height, err)
	}
	if changed {
		if img, ok := c.renders[st.Generation]; ok {
			c.scenes.Forget(img)
			delete(c.renders, st.Generation)
		}
	}
	return nil
}

// --- Images ---

func (c *Context) ReadImage(ctx context.Context, path string) (codec.Image, error) {
	return c.codec.ReadImage(ctx, path)
}

func (c *Context) ReadImageAsync(ctx context.Context, target int, path string) error {
	if _, err := c.stage(target); err != nil {
		return err
	}
	c.Job(target, "read "+path, func(ctx context.Context) error {
		img, err := c.codec.ReadImage(ctx, path)
		if err != nil {
			return err
		}
		c.JobMain(ctx, target, func(target int) {
			if err := c.SetEvaluationImage(target, img); err != nil {
				ctxlog.FromContext(ctx).Error("Failed to upload image.", "path", path, "error", err)
			}
		})
		return nil
	})
	return nil
}

func (c *Context) WriteImage(ctx context.Context, target int, path string, format codec.Format, quality int) error {
	img, err := c.GetEvaluationImage(target)
	if err != nil {
		return err
	}
	return c.codec.WriteImage(ctx, path, img, format, quality)
}

func (c *Context) GetEvaluationImage(target int) (codec.Image, error) {
	st, err := c.stage(target)
	if err != nil {
		return codec.Image{}, err
	}
	if !st.Target.Valid() {
		return codec.Image{}, stage.ErrNoTarget
	}
	desc := st.Target.Desc
	img := codec.Image{
		Width:    desc.Width,
		Height:   desc.Height,
		Cube:     desc.Cube,
		MipCount: desc.Mips(),
		Levels:   make([][]*image.RGBA, desc.Faces()),
	}
	for f := range desc.Faces() {
		for m := range desc.Mips() {
			level, err := c.backend.Readback(st.Target.ID, f, m)
			if err != nil {
				return codec.Image{}, err
			}
			img.Levels[f] = append(img.Levels[f], level)
		}
	}
	return img, nil
}

// SetEvaluationImage replaces the target with img and marks the consumers
// dirty.
func (c *Context) SetEvaluationImage(target int, img codec.Image) error {
	st, err := c.stage(target)
	if err != nil {
		return err
	}
	if err := img.Validate(); err != nil {
		return err
	}
	if err := c.ensureTarget(st, img.Width, img.Height, img.Cube, img.MipCount); err != nil {
		return err
	}
	for f := range img.Faces() {
		for m := range min(max(img.MipCount, 1), st.Target.Desc.Mips()) {
			if err := c.backend.Upload(st.Target.ID, f, m, img.Level(f, m)); err != nil {
				return err
			}
		}
	}
	c.markDirty(target, graph.DirtyInput, true)
	return nil
}

// SetEvaluationImageCube uploads a 2D image into one face of a cube target,
// making the target a cube of the image's width if it is not one already.
func (c *Context) SetEvaluationImageCube(target int, img codec.Image, face int) error {
	st, err := c.stage(target)
	if err != nil {
		return err
	}
	if face < 0 || face >= gpu.CubeFaces {
		return fmt.Errorf("cube face %d out of range", face)
	}
	if img.Empty() {
		return fmt.Errorf("empty image for cube face %d", face)
	}
	mips := 1
	if st.Target.Valid() && st.Target.Desc.Cube && st.Target.Desc.Width == img.Width {
		mips = st.Target.Desc.Mips()
	}
	if err := c.ensureTarget(st, img.Width, img.Width, true, mips); err != nil {
		return err
	}
	for m := range min(mips, max(img.MipCount, 1)) {
		w, _ := codec.MipSize(img.Width, img.Width, m)
		if err := c.backend.Upload(st.Target.ID, face, m, codec.Resize(img.Level(0, m), w, w)); err != nil {
			return err
		}
	}
	c.markDirty(target, graph.DirtyInput, true)
	return nil
}

// SetThumbnailImage encodes img as the project thumbnail and stores it in
// the thumbnail cache.
func (c *Context) SetThumbnailImage(ctx context.Context, img codec.Image) error {
	data, err := c.codec.EncodeThumbnail(img)
	if err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	c.thumbnail = data
	if c.thumbName == "" {
		return nil
	}
	key := cache.Key(ThumbnailKey, c.thumbName)
	if err := c.thumbs.Set(ctx, key, data, c.thumbTTL); err != nil {
		return fmt.Errorf("failed to store thumbnail: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Thumbnail stored.", "key", key, "bytes", len(data))
	return nil
}

// Evaluate returns the current output of target scaled to width x height.
// A zero dimension keeps the target's. Only the first mip is returned.
func (c *Context) Evaluate(ctx context.Context, target, width, height int) (codec.Image, error) {
	img, err := c.GetEvaluationImage(target)
	if err != nil {
		return codec.Image{}, err
	}
	if width <= 0 {
		width = img.Width
	}
	if height <= 0 {
		height = img.Height
	}
	out := codec.Image{Width: width, Height: height, Cube: img.Cube, MipCount: 1, Levels: make([][]*image.RGBA, img.Faces())}
	for f := range img.Faces() {
		out.Levels[f] = []*image.RGBA{codec.Resize(img.Level(f, 0), width, height)}
	}
	return out, nil
}

// --- Target state ---

func (c *Context) GetEvaluationSize(target int) (int, int, error) {
	st, err := c.stage(target)
	if err != nil {
		return 0, 0, err
	}
	if !st.Target.Valid() {
		return 0, 0, stage.ErrNoTarget
	}
	return st.Target.Desc.Width, st.Target.Desc.Height, nil
}

func (c *Context) SetEvaluationSize(target, width, height int) error {
	st, err := c.stage(target)
	if err != nil {
		return err
	}
	return c.ensureTarget(st, width, height, false, 1)
}

func (c *Context) SetEvaluationCubeSize(target, faceSize, mipCount int) error {
	st, err := c.stage(target)
	if err != nil {
		return err
	}
	return c.ensureTarget(st, faceSize, faceSize, true, mipCount)
}

func (c *Context) SetBlendingMode(target, src, dst int) {
	if st := c.stages.At(target); st != nil {
		st.Blend = gpu.NewBlendState(src, dst)
	}
}

func (c *Context) EnableDepthBuffer(target int, enable bool) {
	st := c.stages.At(target)
	if st == nil || st.DepthBuffer == enable {
		return
	}
	st.DepthBuffer = enable
	if st.Target.Valid() {
		d := st.Target.Desc
		// The depth plane is part of the target shape.
		_ = c.ensureTarget(st, d.Width, d.Height, d.Cube, d.MipCount)
	}
}

func (c *Context) EnableFrameClear(target int, enable bool) {
	if st := c.stages.At(target); st != nil {
		st.ClearBuffer = enable
	}
}

func (c *Context) SetVertexSpace(target int, space gpu.VertexSpace) {
	if st := c.stages.At(target); st != nil {
		st.VertexSpace = space
	}
}

func (c *Context) SetProcessing(target, state int) {
	if st := c.stages.At(target); st != nil {
		st.Processing = state
	}
}

func (c *Context) SetProgress(target int, progress float32) {
	if st := c.stages.At(target); st != nil {
		st.Progress = min(max(progress, 0), 1)
	}
}

func (c *Context) AllocateComputeBuffer(target, count, size int) ([]byte, error) {
	st, err := c.stage(target)
	if err != nil {
		return nil, err
	}
	if count < 0 || size < 0 {
		return nil, fmt.Errorf("invalid compute buffer %d x %d", count, size)
	}
	return st.AllocateComputeBuffer(count, size), nil
}

func (c *Context) ComputeBuffer(target int) []byte {
	if st := c.stages.At(target); st != nil {
		return st.ComputeBuffer
	}
	return nil
}

// --- Scenes ---

func (c *Context) LoadScene(ctx context.Context, path string) (*scene.Scene, error) {
	return c.scenes.LoadScene(ctx, path)
}

func (c *Context) GetScene(target int) *scene.Scene {
	if st := c.stages.At(target); st != nil {
		return st.Scene
	}
	return nil
}

func (c *Context) SetScene(target int, s *scene.Scene) {
	st := c.stages.At(target)
	if st == nil || st.Scene == s {
		return
	}
	st.Scene = s
	c.markDirty(target, graph.DirtyInput, true)
}

// RenderScene adds one sample of target's scene and uploads the running
// image into the target.
func (c *Context) RenderScene(target int, cam params.CameraValue) (bool, error) {
	st, err := c.stage(target)
	if err != nil {
		return false, err
	}
	if st.Scene == nil {
		return false, fmt.Errorf("stage %d has no scene", target)
	}
	if !st.Target.Valid() {
		return false, stage.ErrNoTarget
	}
	w, h := st.Target.Desc.Width, st.Target.Desc.Height
	dst, ok := c.renders[st.Generation]
	if !ok || dst.Rect.Dx() != w || dst.Rect.Dy() != h {
		if ok {
			c.scenes.Forget(dst)
		}
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
		c.renders[st.Generation] = dst
	}
	done, err := c.scenes.Render(st.Scene, cam, dst)
	if err != nil {
		return false, err
	}
	if err := c.backend.Upload(st.Target.ID, 0, 0, dst); err != nil {
		return false, err
	}
	return done, nil
}

// --- Jobs ---

type generationKey struct{}

func generationFrom(ctx context.Context) (uint64, bool) {
	gen, ok := ctx.Value(generationKey{}).(uint64)
	return gen, ok
}

// Job runs fn on the worker pool with the target marked loading. The
// marker is cleared by a continuation queued after fn returns, whatever
// the outcome; a failed job does not dirty anything and leaves the
// progress where it was.
func (c *Context) Job(target int, name string, fn job.Func) {
	st := c.stages.At(target)
	if st == nil {
		return
	}
	gen := st.Generation
	if st.Processing == stage.Idle {
		st.Processing = stage.Loading
		st.Progress = 0
	}
	c.jobCount[gen]++

	c.jobs.Go(name, func(ctx context.Context) error {
		failed := true
		defer func() { c.jobs.Main(func() { c.finishJob(gen, failed) }) }()
		err := fn(context.WithValue(ctx, generationKey{}, gen))
		failed = err != nil
		return err
	})
}

func (c *Context) finishJob(gen uint64, failed bool) {
	if failed {
		c.jobFail[gen] = true
	}
	c.jobCount[gen]--
	if c.jobCount[gen] > 0 {
		return
	}
	failed = c.jobFail[gen]
	delete(c.jobCount, gen)
	delete(c.jobFail, gen)
	if _, st := c.stages.Find(gen); st != nil {
		st.Processing = stage.Idle
		if !failed {
			st.Progress = 1
		}
	}
}

func (c *Context) JobMain(ctx context.Context, target int, fn func(target int)) {
	gen, ok := generationFrom(ctx)
	if !ok {
		st := c.stages.At(target)
		if st == nil {
			return
		}
		gen = st.Generation
	}
	logger := ctxlog.FromContext(ctx)
	c.jobs.Main(func() {
		idx, st := c.stages.Find(gen)
		if st == nil {
			logger.Debug("Dropping continuation of a removed stage.", "target", target)
			return
		}
		fn(idx)
	})
}

// --- Media ---

// GetDecoder returns the decoder of target for path, reopening only when
// the path changed.
func (c *Context) GetDecoder(target int, path string) (codec.Decoder, error) {
	st, err := c.stage(target)
	if err != nil {
		return nil, err
	}
	if st.Decoder != nil && st.DecoderPath == path {
		return st.Decoder, nil
	}
	if st.Decoder != nil {
		_ = st.Decoder.Close()
		st.Decoder, st.DecoderPath = nil, ""
	}
	dec, err := c.codec.OpenDecoder(path)
	if err != nil {
		return nil, err
	}
	st.Decoder, st.DecoderPath = dec, path
	return dec, nil
}

// GetEncoder returns the encoder writing path, creating it on first use.
// Encoders are finished by Close.
func (c *Context) GetEncoder(path string, format codec.Format) (codec.Encoder, error) {
	if enc, ok := c.encoders[path]; ok {
		return enc, nil
	}
	enc, err := c.codec.CreateEncoder(path, format)
	if err != nil {
		return nil, err
	}
	c.encoders[path] = enc
	return enc, nil
}

// --- Drawing ---

// DrawProgram draws program into the target of info: every face of a cube
// target with that face's view rotation, or face 0 only in a ui pass.
// Mips below the first are generated from it.
func (c *Context) DrawProgram(ctx context.Context, info *registry.EvaluationInfo, program gpu.ProgramID, uniforms []byte) error {
	st, err := c.stage(info.TargetIndex)
	if err != nil {
		return err
	}
	if !st.Target.Valid() {
		if err := c.ensureTarget(st, c.defaultSize, c.defaultSize, false, 1); err != nil {
			return err
		}
	}

	call := gpu.DrawCall{
		Program:     program,
		Target:      st.Target.ID,
		Uniforms:    uniforms,
		Blend:       st.Blend,
		Clear:       st.ClearBuffer,
		VertexSpace: st.VertexSpace,
	}
	samplers := c.model.Node(info.TargetIndex).Samplers
	for slot, in := range info.InputIndices {
		src := c.stages.At(in)
		if in == registry.NoInput || src == nil || !src.Target.Valid() {
			continue
		}
		call.Inputs[slot] = gpu.Input{Target: src.Target.ID, Sampler: gpu.DefaultSampler}
		if slot < len(samplers) {
			call.Inputs[slot].Sampler = toSampler(samplers[slot])
		}
	}

	faces := st.Target.Desc.Faces()
	if info.UIPass {
		faces = 1
	}
	for face := range faces {
		faceInfo := *info
		faceInfo.Face = face
		faceInfo.MipCount = st.Target.Desc.Mips()
		if st.Target.Desc.Cube {
			faceInfo.ViewRot = gpu.CubeViewRotations[face]
		}
		call.Face = face
		call.Info = faceInfo.Bytes()
		if err := c.backend.Draw(call); err != nil {
			return fmt.Errorf("face %d: %w", face, err)
		}
	}
	if st.Target.Desc.Mips() > 1 {
		return c.backend.GenerateMips(st.Target.ID)
	}
	return nil
}

func toSampler(s graph.InputSampler) gpu.Sampler {
	out := gpu.Sampler{
		AddressU: toAddress(s.WrapU),
		AddressV: toAddress(s.WrapV),
		Filter:   gputypes.FilterModeLinear,
		Border:   s.WrapU == graph.WrapClampToBorder || s.WrapV == graph.WrapClampToBorder,
	}
	if s.FilterMag == graph.FilterNearest {
		out.Filter = gputypes.FilterModeNearest
	}
	return out
}

func toAddress(w graph.WrapMode) gputypes.AddressMode {
	switch w {
	case graph.WrapClampToEdge, graph.WrapClampToBorder:
		return gputypes.AddressModeClampToEdge
	case graph.WrapMirroredRepeat:
		return gputypes.AddressModeMirrorRepeat
	}
	return gputypes.AddressModeRepeat
}
