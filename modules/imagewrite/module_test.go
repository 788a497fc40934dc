package imagewrite

import (
	"context"
	"testing"

	"github.com/specialistvlad/texgridgo/internal/codec"
	"github.com/specialistvlad/texgridgo/internal/params"
	"github.com/specialistvlad/texgridgo/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputSize(t *testing.T) {
	testCases := []struct {
		name  string
		mode  int
		size  [2]int32
		wantW int
		wantH int
	}{
		{"source", ModeSource, [2]int32{10, 10}, 400, 200},
		{"width keeps aspect", ModeWidth, [2]int32{100, 0}, 100, 50},
		{"height keeps aspect", ModeHeight, [2]int32{0, 100}, 200, 100},
		{"explicit size", ModeSize, [2]int32{64, 32}, 64, 32},
		{"never below one pixel", ModeSize, [2]int32{0, -3}, 1, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := OutputSize(tc.mode, tc.size, 400, 200)
			assert.Equal(t, tc.wantW, w)
			assert.Equal(t, tc.wantH, h)
		})
	}
}

type write struct {
	target  int
	path    string
	format  codec.Format
	quality int
}

type fakeHost struct {
	registry.Host
	evaluated [][3]int
	images    map[int]codec.Image
	writes    []write
}

func (h *fakeHost) GetEvaluationSize(int) (int, int, error) { return 400, 200, nil }

func (h *fakeHost) Evaluate(_ context.Context, target, w, hh int) (codec.Image, error) {
	h.evaluated = append(h.evaluated, [3]int{target, w, hh})
	return codec.NewImage(w, hh), nil
}

func (h *fakeHost) SetEvaluationImage(target int, img codec.Image) error {
	h.images[target] = img
	return nil
}

func (h *fakeHost) WriteImage(_ context.Context, target int, path string, format codec.Format, quality int) error {
	h.writes = append(h.writes, write{target, path, format, quality})
	return nil
}

func newBlock(t *testing.T, file string) *params.Block {
	t.Helper()
	b := params.NewBlock(params.NewLayout([]params.Field{
		{Name: "file", Type: params.FilenameWrite},
		{Name: "format", Type: params.Enum},
		{Name: "quality", Type: params.Int},
		{Name: "mode", Type: params.Enum},
		{Name: "size", Type: params.Int2},
	}))
	b.SetParameter("file", file)
	b.SetParameter("format", "1")
	b.SetParameter("quality", "80")
	b.SetParameter("mode", "1")
	b.SetParameter("size", "100,100")
	return b
}

func newInfo(target int, inputs ...int) *registry.EvaluationInfo {
	info := &registry.EvaluationInfo{TargetIndex: target}
	for i := range info.InputIndices {
		info.InputIndices[i] = registry.NoInput
	}
	copy(info.InputIndices[:], inputs)
	return info
}

func TestEvaluateImageWrite(t *testing.T) {
	ctx := context.Background()

	t.Run("skips unforced evaluations", func(t *testing.T) {
		host := &fakeHost{images: map[int]codec.Image{}}
		assert.Equal(t, registry.OK, EvaluateImageWrite(ctx, newBlock(t, "out.png"), newInfo(1, 0), host))
		assert.Empty(t, host.evaluated)
		assert.Empty(t, host.writes)
	})

	t.Run("renders and writes on forced evaluation", func(t *testing.T) {
		host := &fakeHost{images: map[int]codec.Image{}}
		info := newInfo(1, 0)
		info.ForcedDirty = true

		res := EvaluateImageWrite(ctx, newBlock(t, "out.png"), info, host)

		require.Equal(t, registry.OK, res)
		assert.Equal(t, [][3]int{{0, 100, 50}}, host.evaluated)
		assert.Equal(t, 100, host.images[1].Width)
		assert.Equal(t, []write{{1, "out.png", codec.Format(1), 80}}, host.writes)
	})

	t.Run("fails without a file", func(t *testing.T) {
		host := &fakeHost{images: map[int]codec.Image{}}
		info := newInfo(1, 0)
		info.ForcedDirty = true
		assert.Equal(t, registry.Error, EvaluateImageWrite(ctx, newBlock(t, ""), info, host))
		assert.Empty(t, host.writes)
	})

	t.Run("fails without an input", func(t *testing.T) {
		host := &fakeHost{images: map[int]codec.Image{}}
		info := newInfo(1)
		info.ForcedDirty = true
		assert.Equal(t, registry.Error, EvaluateImageWrite(ctx, newBlock(t, "out.png"), info, host))
	})
}
