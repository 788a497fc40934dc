package app

import (
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/texgridgo/internal/evalctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, dir string) (project, out string) {
	t.Helper()
	out = filepath.Join(dir, "out.png")
	src := fmt.Sprintf(`
frames {
  start = 0
  end   = 1
}

node "Color" "red" {
  params {
    color = [1, 0, 0, 1]
  }
}

node "ImageWrite" "writer" {
  params {
    file   = %q
    format = 1
    mode   = 3
    size   = [32, 16]
  }
}

node "Thumbnail" "thumb" {
  params {}
}

link {
  from = "red"
  to   = "writer"
}

link {
  from = "red"
  to   = "thumb"
}
`, out)
	project = filepath.Join(dir, "project.hcl")
	require.NoError(t, os.WriteFile(project, []byte(src), 0o644))
	return project, out
}

func TestNewConfig(t *testing.T) {
	_, err := NewConfig(DefaultConfig())
	require.NoError(t, err)

	testCases := []struct {
		name   string
		modify func(c *Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
		{"workers", func(c *Config) { c.WorkerCount = -1 }},
		{"passes", func(c *Config) { c.MaxPasses = 0 }},
		{"port", func(c *Config) { c.HealthcheckPort = 70000 }},
		{"cache ttl", func(c *Config) { c.Cache.TTL = "soon" }},
		{"script timeout", func(c *Config) { c.ScriptHost.Timeout = "10 parsecs" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			_, err := NewConfig(cfg)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "texgrid.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
project    = "scene.hcl"
log_format = "json"
workers    = 2
frame_end  = 5

[cache]
backend = "file"
dir     = "/tmp/thumbs"
ttl     = "1h"

[script_host]
url = "ws://localhost:3000"
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "scene.hcl", cfg.ProjectPath)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel, "defaults are kept")
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 5, cfg.FrameEnd)
	assert.Equal(t, "file", cfg.Cache.Backend)
	assert.Equal(t, "1h", cfg.Cache.TTL)
	assert.Equal(t, "ws://localhost:3000", cfg.ScriptHost.URL)

	encoded, err := cfg.Encode()
	require.NoError(t, err)
	assert.Contains(t, encoded, `project = "scene.hcl"`)

	require.NoError(t, os.WriteFile(path, []byte("colour = 1\n"), 0o644))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "colour")

	_, err = LoadConfig(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestNewAppBindsLibrary(t *testing.T) {
	a, _ := SetupAppTest(t, DefaultConfig())

	table := a.Table()
	for _, name := range []string{"Crop", "Tile", "Blend", "Color", "ImageRead", "ImageWrite", "Thumbnail", "SceneLoader", "PathTracer", "ReactionDiffusion"} {
		typ := table.Index(name)
		require.GreaterOrEqual(t, typ, 0, name)
		assert.NotZero(t, a.Bindings().For(typ).Mask, "%s has no evaluator", name)
	}

	writers := writerTypes(table)
	assert.ElementsMatch(t, []int{table.Index("ImageWrite"), table.Index("Thumbnail")}, writers)
}

func TestRenderWritesImage(t *testing.T) {
	dir := t.TempDir()
	project, out := writeProject(t, dir)

	cfg := DefaultConfig()
	cfg.ProjectPath = project
	cfg.Synchronous = true
	cfg.Cache.Backend = "file"
	cfg.Cache.Dir = filepath.Join(dir, "cache")
	a, logs := SetupAppTest(t, cfg)

	res, err := a.Render(context.Background())
	require.NoError(t, err, logs.String())
	assert.Equal(t, 2, res.Frames)
	assert.NotEmpty(t, res.Thumbnail)
	assert.True(t, res.Status.Settled)
	assert.Equal(t, 1, res.Status.Frame)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())
	r, g, b, alpha := img.At(3, 3).RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0, 0xffff}, []uint32{r, g, b, alpha})
}

func TestRenderFrameOverride(t *testing.T) {
	project, _ := writeProject(t, t.TempDir())

	cfg := DefaultConfig()
	cfg.ProjectPath = project
	cfg.FrameStart = 3
	cfg.FrameEnd = 5
	a, _ := SetupAppTest(t, cfg)

	res, err := a.Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Frames)
	assert.Equal(t, 5, res.Status.Frame)
}

func TestRenderErrors(t *testing.T) {
	a, _ := SetupAppTest(t, DefaultConfig())
	_, err := a.Render(context.Background())
	assert.ErrorContains(t, err, "no project")

	cfg := DefaultConfig()
	cfg.ProjectPath = filepath.Join(t.TempDir(), "missing.hcl")
	a, _ = SetupAppTest(t, cfg)
	_, err = a.Render(context.Background())
	assert.Error(t, err)
}

func TestStatusEndpoint(t *testing.T) {
	a, _ := SetupAppTest(t, DefaultConfig())
	srv := httptest.NewServer(a.router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	a.status.Store(&evalctx.Status{Frame: 7, Passes: 3, Settled: true, Stages: []evalctx.StageStatus{{Index: 0, Type: "Color", Width: 256, Height: 256}}})
	resp, err = http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got evalctx.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 7, got.Frame)
	require.Len(t, got.Stages, 1)
	assert.Equal(t, "Color", got.Stages[0].Type)
}
