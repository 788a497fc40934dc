package registry

import (
	"context"

	"github.com/specialistvlad/texgridgo/internal/codec"
	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/specialistvlad/texgridgo/internal/job"
	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/specialistvlad/texgridgo/internal/scene"
)

// Host is the set of services an evaluator may call. Targets are stage
// indices as found in EvaluationInfo. Every method is safe to call from the
// goroutine running the pass; methods used from jobs say so.
type Host interface {
	// ReadImage decodes a file. Safe from jobs.
	ReadImage(ctx context.Context, path string) (codec.Image, error)
	// ReadImageAsync loads path in a job and uploads it into target when done.
	// The target is marked loading until then.
	ReadImageAsync(ctx context.Context, target int, path string) error
	// WriteImage reads back target and encodes it to path.
	WriteImage(ctx context.Context, target int, path string, format codec.Format, quality int) error

	GetEvaluationImage(target int) (codec.Image, error)
	SetEvaluationImage(target int, img codec.Image) error
	SetEvaluationImageCube(target int, img codec.Image, face int) error
	// SetThumbnailImage stores the encoded thumbnail of the project.
	SetThumbnailImage(ctx context.Context, img codec.Image) error
	// Evaluate renders target at width x height and returns the pixels.
	Evaluate(ctx context.Context, target, width, height int) (codec.Image, error)

	GetEvaluationSize(target int) (int, int, error)
	SetEvaluationSize(target, width, height int) error
	SetEvaluationCubeSize(target, faceSize, mipCount int) error
	SetBlendingMode(target, src, dst int)
	EnableDepthBuffer(target int, enable bool)
	EnableFrameClear(target int, enable bool)
	SetVertexSpace(target int, space gpu.VertexSpace)
	SetProcessing(target, state int)
	SetProgress(target int, progress float32)
	AllocateComputeBuffer(target, count, size int) ([]byte, error)
	ComputeBuffer(target int) []byte

	// LoadScene parses a scene file. Safe from jobs.
	LoadScene(ctx context.Context, path string) (*scene.Scene, error)
	GetScene(target int) *scene.Scene
	SetScene(target int, s *scene.Scene)
	// RenderScene adds one progressive sample of the target's scene and
	// reports whether the image has converged.
	RenderScene(target int, cam params.CameraValue) (bool, error)

	// Job runs fn on the worker pool. The target is marked loading until fn
	// returns and its continuations have run.
	Job(target int, name string, fn job.Func)
	// JobMain queues fn to run between passes on the evaluation goroutine.
	// fn receives the stage's index at that time, which may differ from
	// target if nodes were deleted. It is skipped if the stage is gone. From
	// a job, pass the job's ctx so the stage is the one the job was started
	// for. Safe from jobs.
	JobMain(ctx context.Context, target int, fn func(target int))

	GetDecoder(target int, path string) (codec.Decoder, error)
	GetEncoder(path string, format codec.Format) (codec.Encoder, error)

	// DrawProgram runs a compiled program over the target named by info.
	DrawProgram(ctx context.Context, info *EvaluationInfo, program gpu.ProgramID, uniforms []byte) error
}
