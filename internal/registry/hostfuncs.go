package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/texgridgo/internal/codec"
	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/specialistvlad/texgridgo/internal/scripthost"
)

// ErrUnknownHostFunction is returned when a script calls a name the engine
// does not expose.
var ErrUnknownHostFunction = errors.New("unknown host function")

// HostFunction replays one script call against the host.
type HostFunction func(ctx context.Context, host Host, info *EvaluationInfo, args []any) error

// HostFunctions maps the names scripts call to their implementation.
type HostFunctions map[string]HostFunction

// Call replays c.
func (h HostFunctions) Call(ctx context.Context, host Host, info *EvaluationInfo, c scripthost.Call) error {
	fn, ok := h[c.Name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHostFunction, c.Name)
	}
	if err := fn(ctx, host, info, c.Args); err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	return nil
}

// DefaultHostFunctions returns the functions exposed to scripts.
func DefaultHostFunctions() HostFunctions {
	return HostFunctions{
		"Log": func(ctx context.Context, _ Host, info *EvaluationInfo, args []any) error {
			var msg string
			if err := scripthost.DecodeArgs(args, &msg); err != nil {
				return err
			}
			ctxlog.FromContext(ctx).Info(msg, "target", info.TargetIndex)
			return nil
		},
		"ReadImage": func(ctx context.Context, host Host, _ *EvaluationInfo, args []any) error {
			var (
				path   string
				target int
			)
			if err := scripthost.DecodeArgs(args, &path, &target); err != nil {
				return err
			}
			img, err := host.ReadImage(ctx, path)
			if err != nil {
				return err
			}
			return host.SetEvaluationImage(target, img)
		},
		"ReadImageAsync": func(ctx context.Context, host Host, _ *EvaluationInfo, args []any) error {
			var (
				path   string
				target int
			)
			if err := scripthost.DecodeArgs(args, &path, &target); err != nil {
				return err
			}
			return host.ReadImageAsync(ctx, target, path)
		},
		"WriteImage": func(ctx context.Context, host Host, _ *EvaluationInfo, args []any) error {
			var (
				target  int
				path    string
				format  int
				quality = 90
			)
			if err := scripthost.DecodeArgs(args, &target, &path, &format, &quality); err != nil {
				return err
			}
			return host.WriteImage(ctx, target, path, codec.Format(format), quality)
		},
		"SetThumbnailImage": func(ctx context.Context, host Host, _ *EvaluationInfo, args []any) error {
			var target int
			if err := scripthost.DecodeArgs(args, &target); err != nil {
				return err
			}
			img, err := host.GetEvaluationImage(target)
			if err != nil {
				return err
			}
			return host.SetThumbnailImage(ctx, img)
		},
		"Evaluate": func(ctx context.Context, host Host, _ *EvaluationInfo, args []any) error {
			var input, width, height, target int
			if err := scripthost.DecodeArgs(args, &input, &width, &height, &target); err != nil {
				return err
			}
			img, err := host.Evaluate(ctx, input, width, height)
			if err != nil {
				return err
			}
			return host.SetEvaluationImage(target, img)
		},
		"SetEvaluationSize": func(_ context.Context, host Host, _ *EvaluationInfo, args []any) error {
			var target, width, height int
			if err := scripthost.DecodeArgs(args, &target, &width, &height); err != nil {
				return err
			}
			return host.SetEvaluationSize(target, width, height)
		},
		"SetEvaluationCubeSize": func(_ context.Context, host Host, _ *EvaluationInfo, args []any) error {
			var target, size int
			mips := 1
			if err := scripthost.DecodeArgs(args, &target, &size, &mips); err != nil {
				return err
			}
			return host.SetEvaluationCubeSize(target, size, mips)
		},
		"SetBlendingMode": func(_ context.Context, host Host, _ *EvaluationInfo, args []any) error {
			var target, src, dst int
			if err := scripthost.DecodeArgs(args, &target, &src, &dst); err != nil {
				return err
			}
			host.SetBlendingMode(target, src, dst)
			return nil
		},
		"EnableDepthBuffer": func(_ context.Context, host Host, _ *EvaluationInfo, args []any) error {
			var (
				target int
				enable bool
			)
			if err := scripthost.DecodeArgs(args, &target, &enable); err != nil {
				return err
			}
			host.EnableDepthBuffer(target, enable)
			return nil
		},
		"EnableFrameClear": func(_ context.Context, host Host, _ *EvaluationInfo, args []any) error {
			var (
				target int
				enable bool
			)
			if err := scripthost.DecodeArgs(args, &target, &enable); err != nil {
				return err
			}
			host.EnableFrameClear(target, enable)
			return nil
		},
		"SetVertexSpace": func(_ context.Context, host Host, _ *EvaluationInfo, args []any) error {
			var target, space int
			if err := scripthost.DecodeArgs(args, &target, &space); err != nil {
				return err
			}
			host.SetVertexSpace(target, gpu.VertexSpace(space))
			return nil
		},
		"LoadScene": func(ctx context.Context, host Host, _ *EvaluationInfo, args []any) error {
			var (
				path   string
				target int
			)
			if err := scripthost.DecodeArgs(args, &path, &target); err != nil {
				return err
			}
			s, err := host.LoadScene(ctx, path)
			if err != nil {
				return err
			}
			host.SetScene(target, s)
			return nil
		},
		"SetProcessing": func(_ context.Context, host Host, _ *EvaluationInfo, args []any) error {
			var target, state int
			if err := scripthost.DecodeArgs(args, &target, &state); err != nil {
				return err
			}
			host.SetProcessing(target, state)
			return nil
		},
		"SetProgress": func(_ context.Context, host Host, _ *EvaluationInfo, args []any) error {
			var (
				target   int
				progress float32
			)
			if err := scripthost.DecodeArgs(args, &target, &progress); err != nil {
				return err
			}
			host.SetProgress(target, progress)
			return nil
		},
		"AllocateComputeBuffer": func(_ context.Context, host Host, _ *EvaluationInfo, args []any) error {
			var target, count, size int
			if err := scripthost.DecodeArgs(args, &target, &count, &size); err != nil {
				return err
			}
			_, err := host.AllocateComputeBuffer(target, count, size)
			return err
		},
	}
}
