package scripthost

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestConverters(t *testing.T) {
	val := cty.ObjectVal(map[string]cty.Value{
		"quad":  cty.TupleVal([]cty.Value{cty.NumberFloatVal(0.25), cty.NumberIntVal(1)}),
		"name":  cty.StringVal("crop"),
		"on":    cty.True,
		"empty": cty.NullVal(cty.String),
	})
	out, err := ToInterface(val)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"quad":  []any{0.25, 1.0},
		"name":  "crop",
		"on":    true,
		"empty": nil,
	}, out)

	back, err := FromInterface(out)
	require.NoError(t, err)
	assert.True(t, back.GetAttr("on").True())
	assert.Equal(t, "crop", back.GetAttr("name").AsString())

	_, err = FromInterface(struct{}{})
	assert.Error(t, err)
}

func TestDecodeArgs(t *testing.T) {
	var (
		target int
		width  int
		path   string
		on     bool
		scale  float32
	)
	err := DecodeArgs([]any{2.0, 512.0, "out.png", true, 0.5}, &target, &width, &path, &on, &scale)
	require.NoError(t, err)
	assert.Equal(t, 2, target)
	assert.Equal(t, 512, width)
	assert.Equal(t, "out.png", path)
	assert.True(t, on)
	assert.Equal(t, float32(0.5), scale)

	assert.Error(t, DecodeArgs([]any{1.5}, &target), "fractional int")
	assert.Error(t, DecodeArgs([]any{"x"}, &target), "string to int")
	assert.Error(t, DecodeArgs([]any{1.0, 2.0}, &target), "too many")

	width = 7
	require.NoError(t, DecodeArgs([]any{3.0}, &target, &width))
	assert.Equal(t, 7, width, "missing argument keeps its value")
}

func TestDecodeResponse(t *testing.T) {
	resp, err := decodeResponse(map[string]any{
		"id":     "abc",
		"result": 2.0,
		"calls":  []any{map[string]any{"name": "SetEvaluationSize", "args": []any{0.0, 64.0, 32.0}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.ID)
	assert.Equal(t, 2, resp.Result)
	require.Len(t, resp.Calls, 1)
	assert.Equal(t, []any{0.0, 64.0, 32.0}, resp.Calls[0].Args)

	resp, err = decodeResponse(`{"id":"x","result":1,"error":"boom"}`)
	require.NoError(t, err)
	assert.Equal(t, "boom", resp.Error)

	_, err = decodeResponse("not json")
	assert.Error(t, err)
}

func TestLocal(t *testing.T) {
	l := NewLocal()
	l.Handle("Crop", func(ctx context.Context, req Request) (Response, error) {
		return Response{Calls: []Call{{Name: "Log", Args: []any{req.Source}}}}, nil
	})

	resp, err := l.Evaluate(context.Background(), Request{ID: "1", Name: "Crop", Source: "src"})
	require.NoError(t, err)
	assert.Equal(t, "1", resp.ID)
	assert.Equal(t, []any{"src"}, resp.Calls[0].Args)

	_, err = l.Evaluate(context.Background(), Request{Name: "Missing"})
	assert.Error(t, err)
	assert.Len(t, l.Requests(), 2)
	assert.NoError(t, l.Close())
}

func TestDialUnreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = Dial(ctx, Options{URL: "http://" + addr + "/socket.io/"})
	assert.Error(t, err)

	_, err = Dial(ctx, Options{URL: "://bad"})
	assert.ErrorContains(t, err, "failed to parse URL")
}
