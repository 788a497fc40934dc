package registry

import (
	"context"
	"testing"

	"github.com/specialistvlad/texgridgo/internal/codec"
	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/specialistvlad/texgridgo/internal/metanode"
	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/specialistvlad/texgridgo/internal/scripthost"
	"github.com/specialistvlad/texgridgo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validWGSL  = "@vertex\nfn main() -> @builtin(position) vec4<f32> {\n    return vec4<f32>(0.0, 0.0, 0.0, 1.0);\n}"
	brokenWGSL = "fn main( -> @builtin(position) vec4<f32> {"
)

func testTable(t *testing.T) *metanode.Table {
	t.Helper()
	out := []metanode.Slot{{Name: "out"}}
	in := []metanode.Slot{{Name: "in"}}
	table, err := metanode.NewTable([]metanode.MetaNode{
		{Name: "Crop", Inputs: in, Outputs: out, Params: []metanode.MetaParam{
			{Name: "quad", Type: params.Float4},
			{Name: "uiPass", Type: params.Bool},
		}},
		{Name: "Color", Outputs: out, Params: []metanode.MetaParam{{Name: "color", Type: params.Color4}}},
		{Name: "ImageRead", Outputs: out, Params: []metanode.MetaParam{
			{Name: "file", Type: params.FilenameRead},
			{Name: "mode", Type: params.Enum},
			{Name: "view", Type: params.Camera},
		}},
		{Name: "Broken", Inputs: in, Outputs: out},
	})
	require.NoError(t, err)
	return table
}

func okNative(context.Context, *params.Block, *EvaluationInfo, Host) Result { return OK }

func white() gpu.Kernel {
	return func(*gpu.Fragment) gpu.Color { return gpu.Color{1, 1, 1, 1} }
}

// fakeHost records what evaluators ask for. Unused methods panic through
// the nil embedded interface.
type fakeHost struct {
	Host
	sizes  map[int][2]int
	blends [][3]int
	draws  []gpu.ProgramID
	images map[int]codec.Image
}

func newFakeHost() *fakeHost {
	return &fakeHost{sizes: map[int][2]int{}, images: map[int]codec.Image{}}
}

func (h *fakeHost) GetEvaluationSize(target int) (int, int, error) {
	s := h.sizes[target]
	return s[0], s[1], nil
}

func (h *fakeHost) SetEvaluationSize(target, w, hh int) error {
	h.sizes[target] = [2]int{w, hh}
	return nil
}

func (h *fakeHost) SetBlendingMode(target, src, dst int) {
	h.blends = append(h.blends, [3]int{target, src, dst})
}

func (h *fakeHost) DrawProgram(_ context.Context, _ *EvaluationInfo, program gpu.ProgramID, _ []byte) error {
	h.draws = append(h.draws, program)
	return nil
}

func (h *fakeHost) Evaluate(_ context.Context, target, w, hh int) (codec.Image, error) {
	return codec.NewImage(w, hh), nil
}

func (h *fakeHost) SetEvaluationImage(target int, img codec.Image) error {
	h.images[target] = img
	return nil
}

func newInfo(target int) *EvaluationInfo {
	info := &EvaluationInfo{TargetIndex: target}
	for i := range info.InputIndices {
		info.InputIndices[i] = NoInput
	}
	return info
}

func TestRegisterDuplicates(t *testing.T) {
	r := New()
	r.RegisterNative("Crop", &RegisteredNative{Fn: okNative})
	r.RegisterProgram("Crop", validWGSL, white())
	r.RegisterScript("Crop.js", "return OK")

	assert.PanicsWithValue(t, "native evaluator with name 'Crop' already registered", func() {
		r.RegisterNative("Crop", &RegisteredNative{Fn: okNative})
	})
	assert.PanicsWithValue(t, "program source with name 'Crop.wgsl' already registered", func() {
		r.RegisterProgramSource("Crop.wgsl", validWGSL)
	})
	assert.PanicsWithValue(t, "kernel with name 'Crop' already registered", func() {
		r.RegisterKernel("Crop", white())
	})
	assert.PanicsWithValue(t, "script with name 'Crop.js' already registered", func() {
		r.RegisterScript("Crop.js", "")
	})
}

func TestLookup(t *testing.T) {
	sources := map[string]string{
		"b/Crop.wgsl":     "b",
		"a/Crop.wgsl":     "a",
		"a/CropMore.wgsl": "more",
		"Blend.wgsl":      "blend",
	}

	file, src, ok := lookup(sources, "Blend", ProgramSuffix)
	require.True(t, ok)
	assert.Equal(t, "Blend.wgsl", file)
	assert.Equal(t, "blend", src)

	file, src, ok = lookup(sources, "Crop", ProgramSuffix)
	require.True(t, ok)
	assert.Equal(t, "a/Crop.wgsl", file, "first match in sorted order")
	assert.Equal(t, "a", src)

	_, _, ok = lookup(sources, "More", ProgramSuffix)
	assert.False(t, ok, "suffix must match the whole base name")
	_, _, ok = lookup(sources, "Crop", ScriptSuffix)
	assert.False(t, ok)
}

func TestBind(t *testing.T) {
	// --- Arrange ---
	table := testTable(t)
	backend := gpu.NewSoftware()
	r := New()
	r.RegisterNative("Crop", &RegisteredNative{Fn: okNative})
	r.RegisterProgram("Crop", validWGSL, white())
	r.RegisterProgram("Color", validWGSL, white())
	r.RegisterProgram("Broken", brokenWGSL, white())
	r.RegisterNative("Broken", &RegisteredNative{Fn: okNative})
	r.RegisterScript("scripts/ImageRead.js", "return OK")
	r.RegisterNative("Ghost", &RegisteredNative{Fn: okNative})

	var logs testutil.SafeBuffer
	ctx := ctxlog.WithLogger(context.Background(), testutil.NewLogger(&logs))

	t.Run("without script host", func(t *testing.T) {
		// --- Act ---
		b := r.Bind(ctx, table, backend, nil)

		// --- Assert ---
		crop := b.For(table.Index("Crop"))
		assert.Equal(t, KindNative|KindGPU, crop.Mask)
		require.Len(t, crop.Evaluators, 2)
		assert.Equal(t, KindNative, crop.Evaluators[0].Kind(), "native runs before the program")
		assert.Equal(t, KindGPU, crop.Evaluators[1].Kind())

		assert.Equal(t, KindGPU, b.For(table.Index("Color")).Mask)
		assert.Equal(t, KindNative, b.For(table.Index("Broken")).Mask, "compile failure keeps the other variants")
		assert.Equal(t, Kind(0), b.For(table.Index("ImageRead")).Mask)
		assert.Empty(t, b.For(99).Evaluators)

		out := logs.String()
		assert.Contains(t, out, "Failed to compile program")
		assert.Contains(t, out, "nodeType=Broken")
		assert.Contains(t, out, "No script host configured")
		assert.Contains(t, out, "nodeType=Ghost")
	})

	t.Run("with script host", func(t *testing.T) {
		b := r.Bind(ctx, table, backend, scripthost.NewLocal())
		read := b.For(table.Index("ImageRead"))
		require.Len(t, read.Evaluators, 1)
		script, ok := read.Evaluators[0].(*ScriptedFunction)
		require.True(t, ok)
		assert.Equal(t, "scripts/ImageRead.js", script.File)
	})

	t.Run("remove", func(t *testing.T) {
		b := r.Bind(ctx, table, backend, nil)
		crop := b.For(table.Index("Crop"))
		prog := crop.Evaluators[1].(*GPUProgram).Program

		b.Remove(backend, table.Index("Crop"), KindGPU)
		assert.Equal(t, KindNative, crop.Mask)
		assert.Len(t, crop.Evaluators, 1)

		err := backend.Draw(gpu.DrawCall{Program: prog})
		assert.ErrorIs(t, err, gpu.ErrUnknownProgram)

		b.Release(backend)
		assert.Equal(t, Kind(0), b.For(table.Index("Color")).Mask)
	})
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "none", Kind(0).String())
	assert.Equal(t, "native|gpu", (KindNative | KindGPU).String())
	assert.Equal(t, "dirty", Dirty.String())
}

func TestNativeFunctionRecoversPanic(t *testing.T) {
	n := &NativeFunction{Name: "Boom", Fn: func(context.Context, *params.Block, *EvaluationInfo, Host) Result {
		panic("boom")
	}}
	table := testTable(t)
	assert.Equal(t, Error, n.Evaluate(context.Background(), table.NewBlock(0), newInfo(0), newFakeHost()))
}

func TestGPUProgramDraws(t *testing.T) {
	host := newFakeHost()
	g := &GPUProgram{Name: "Color", Program: 7}
	table := testTable(t)
	assert.Equal(t, OK, g.Evaluate(context.Background(), table.NewBlock(1), newInfo(0), host))
	assert.Equal(t, []gpu.ProgramID{7}, host.draws)
}

func TestEvaluationInfoBytes(t *testing.T) {
	info := newInfo(3)
	info.UIPass = true
	b := info.Bytes()
	assert.Len(t, b, 64+16+32+4*12)
	// TargetIndex follows ViewRot, Mouse and the input indices.
	assert.Equal(t, byte(3), b[112])
	assert.Equal(t, byte(0xff), b[80], "unbound inputs are -1")
	assert.Equal(t, byte(1), b[120])
}

func TestScriptedFunction(t *testing.T) {
	// --- Arrange ---
	table := testTable(t)
	block := table.NewBlock(table.Index("Crop"))
	block.SetParameter("quad", "0.25, 0, 0.75, 0.5")

	client := scripthost.NewLocal()
	client.Handle("Crop", func(_ context.Context, req scripthost.Request) (scripthost.Response, error) {
		size := req.InputSizes[0]
		quad := req.Params["quad"].([]any)
		w := int(float64(size[0]) * (quad[2].(float64) - quad[0].(float64)))
		h := int(float64(size[1]) * (quad[3].(float64) - quad[1].(float64)))
		target := req.Evaluation["targetIndex"]
		return scripthost.Response{Result: int(OK), Calls: []scripthost.Call{
			{Name: "SetEvaluationSize", Args: []any{target, float64(w), float64(h)}},
			{Name: "SetBlendingMode", Args: []any{target, float64(6), float64(7)}},
		}}, nil
	})
	s := &ScriptedFunction{Name: "Crop", Source: "...", Client: client}

	host := newFakeHost()
	host.sizes[0] = [2]int{200, 100}
	info := newInfo(1)
	info.InputIndices[0] = 0

	// --- Act ---
	res := s.Evaluate(context.Background(), block, info, host)

	// --- Assert ---
	require.Equal(t, OK, res)
	assert.Equal(t, [2]int{100, 50}, host.sizes[1])
	assert.Equal(t, [][3]int{{1, 6, 7}}, host.blends)

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, [2]int{}, reqs[0].InputSizes[1])
	assert.Equal(t, false, reqs[0].Params["uiPass"])

	t.Run("unknown host function", func(t *testing.T) {
		client.Handle("Crop", func(context.Context, scripthost.Request) (scripthost.Response, error) {
			return scripthost.Response{Calls: []scripthost.Call{{Name: "FormatDisk"}}}, nil
		})
		assert.Equal(t, Error, s.Evaluate(context.Background(), block, info, host))
	})

	t.Run("client error", func(t *testing.T) {
		s := &ScriptedFunction{Name: "Missing", Client: client}
		assert.Equal(t, Error, s.Evaluate(context.Background(), block, info, host))
	})

	t.Run("dirty passes through", func(t *testing.T) {
		client.Handle("Crop", func(context.Context, scripthost.Request) (scripthost.Response, error) {
			return scripthost.Response{Result: int(Dirty)}, nil
		})
		assert.Equal(t, Dirty, s.Evaluate(context.Background(), block, info, host))
	})
}

func TestHostFunctionsEvaluate(t *testing.T) {
	host := newFakeHost()
	err := DefaultHostFunctions().Call(context.Background(), host, newInfo(0), scripthost.Call{
		Name: "Evaluate",
		Args: []any{float64(0), float64(32), float64(16), float64(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, 32, host.images[2].Width)

	err = DefaultHostFunctions().Call(context.Background(), host, newInfo(0), scripthost.Call{
		Name: "SetEvaluationSize",
		Args: []any{"not a number"},
	})
	assert.ErrorContains(t, err, "SetEvaluationSize")

	err = DefaultHostFunctions().Call(context.Background(), host, newInfo(0), scripthost.Call{Name: "Nope"})
	assert.ErrorIs(t, err, ErrUnknownHostFunction)
}

type cropParams struct {
	Quad   [4]float32 `param:"quad"`
	UIPass bool       `param:"uiPass"`
}

type readParams struct {
	File string             `param:"file"`
	Mode int                `param:"mode"`
	View params.CameraValue `param:"view"`
}

func TestDecode(t *testing.T) {
	table := testTable(t)

	crop := table.NewBlock(table.Index("Crop"))
	crop.SetParameter("quad", "0.1, 0.2, 0.3, 0.4")
	crop.SetParameter("uiPass", "true")
	var cp cropParams
	require.NoError(t, Decode(crop, &cp))
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 0.4}, cp.Quad)
	assert.True(t, cp.UIPass)

	read := table.NewBlock(table.Index("ImageRead"))
	read.SetParameter("file", "in/a.png")
	read.SetParameter("mode", "2")
	read.SetParameter("view", "")
	var rp readParams
	require.NoError(t, Decode(read, &rp))
	assert.Equal(t, "in/a.png", rp.File)
	assert.Equal(t, 2, rp.Mode)
	assert.Equal(t, float32(1), rp.View.Direction[2])

	assert.ErrorContains(t, Decode(crop, cp), "pointer to a struct")
	assert.ErrorContains(t, Decode(crop, &rp), "no parameter 'file'")
}

func TestValidateRegistry(t *testing.T) {
	table := testTable(t)

	t.Run("matching", func(t *testing.T) {
		r := New()
		r.RegisterNative("Crop", &RegisteredNative{NewParams: func() any { return &cropParams{} }, Fn: okNative})
		r.RegisterNative("ImageRead", &RegisteredNative{NewParams: func() any { return &readParams{} }, Fn: okNative})
		r.RegisterNative("Color", &RegisteredNative{Fn: okNative})
		assert.NoError(t, r.ValidateRegistry(context.Background(), table))
	})

	t.Run("mismatches", func(t *testing.T) {
		type wrong struct {
			Quad  [3]float32 `param:"quad"`
			Extra float32    `param:"extra"`
		}
		type badRead struct {
			File int `param:"file"`
		}
		r := New()
		r.RegisterNative("Crop", &RegisteredNative{NewParams: func() any { return &wrong{} }, Fn: okNative})
		r.RegisterNative("ImageRead", &RegisteredNative{NewParams: func() any { return &badRead{} }, Fn: okNative})
		r.RegisterNative("Ghost", &RegisteredNative{Fn: okNative})

		err := r.ValidateRegistry(context.Background(), table)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parameter 'extra' which is not declared in manifest")
		assert.Contains(t, err.Error(), "Manifest type 'float4' is 16 bytes")
		assert.Contains(t, err.Error(), "int field needs an integer parameter")
		assert.Contains(t, err.Error(), "native 'Ghost': no node type")
	})
}
