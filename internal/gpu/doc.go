// Package gpu defines the render backend the evaluation context draws
// through, and a Software implementation of it.
//
// A backend owns two kinds of resources, both addressed by opaque ids:
// render targets (2D or cube, with mips and an optional depth plane) and
// programs. A program is WGSL source compiled with naga; the Software
// backend validates the source that way and then runs the CPU Kernel
// registered alongside it for every fragment of a Draw.
//
//	b := gpu.NewSoftware()
//	prog, _ := b.CompileProgram(gpu.ProgramSource{Name: "Color", WGSL: src, Kernel: fill})
//	tgt, _ := b.CreateTarget(gpu.TargetDescriptor{Width: 256, Height: 256})
//	_ = b.Draw(gpu.DrawCall{Program: prog, Target: tgt, Blend: gpu.ReplaceBlend})
//
// Blend factors keep the host API order (Zero ... SrcAlphaSaturate) and are
// translated to gputypes for descriptor building.
package gpu
