package tile

import (
	"context"
	"testing"

	"github.com/specialistvlad/texgridgo/internal/registry"
	"github.com/specialistvlad/texgridgo/internal/scripthost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(input int, uiPass bool, repeat ...any) scripthost.Request {
	return scripthost.Request{
		Name:       "Tile",
		Params:     map[string]any{"repeat": repeat},
		Evaluation: map[string]any{"targetIndex": 4, "inputIndices": []int{input, -1}, "uiPass": uiPass},
		InputSizes: [][2]int{{100, 50}, {}},
	}
}

func TestScript(t *testing.T) {
	ctx := context.Background()

	t.Run("multiplies the input size", func(t *testing.T) {
		resp, err := Script(ctx, request(0, false, 2.0, 3.0))
		require.NoError(t, err)
		assert.Equal(t, int(registry.OK), resp.Result)
		require.Len(t, resp.Calls, 2)
		assert.Equal(t, "Log", resp.Calls[0].Name)
		assert.Equal(t, scripthost.Call{Name: "SetEvaluationSize", Args: []any{4, 200, 150}}, resp.Calls[1])
	})

	t.Run("clamps the repeat count", func(t *testing.T) {
		resp, err := Script(ctx, request(0, false, 0.0, 99.0))
		require.NoError(t, err)
		assert.Equal(t, []any{4, 100, 50 * MaxRepeat}, resp.Calls[1].Args)
	})

	t.Run("ui pass keeps the input size", func(t *testing.T) {
		resp, err := Script(ctx, request(0, true, 2.0, 2.0))
		require.NoError(t, err)
		assert.Equal(t, []scripthost.Call{{Name: "SetEvaluationSize", Args: []any{4, 100, 50}}}, resp.Calls)
	})

	t.Run("unconnected input makes no calls", func(t *testing.T) {
		resp, err := Script(ctx, request(-1, false, 2.0, 2.0))
		require.NoError(t, err)
		assert.Empty(t, resp.Calls)
	})
}
