package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/texgridgo/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T) (dir, project, out string) {
	t.Helper()
	dir = t.TempDir()
	out = filepath.Join(dir, "out.png")
	src := fmt.Sprintf(`
frames {
  start = 0
  end   = 0
}

node "Color" "blue" {
  position = [0, 0]
  params {
    color = [0, 0, 1, 1]
  }
}

node "ImageWrite" "writer" {
  position = [40, 300]
  params {
    file = %q
    mode = 3
    size = [8, 8]
  }
}

link {
  from = "blue"
  to   = "writer"
}
`, out)
	project = filepath.Join(dir, "project.hcl")
	require.NoError(t, os.WriteFile(project, []byte(src), 0o644))
	return dir, project, out
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "expected an ExitError, got %v", err)
	assert.Equal(t, code, exitErr.Code)
}

func TestExecuteHelp(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "render")
}

func TestExecuteUsageErrors(t *testing.T) {
	_, project, _ := writeProject(t)

	testCases := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"render", "--this-is-not-a-valid-flag"}},
		{"no project", []string{"render"}},
		{"bad log level", []string{"render", "--log-level", "loud", project}},
		{"bad graph format", []string{"graph", "--format", "png", project}},
		{"missing config", []string{"nodes", "--config", "/does/not/exist.toml"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, tc.args...)
			requireExitCode(t, err, 2)
		})
	}
}

func TestNodes(t *testing.T) {
	out, _, err := execute(t, "nodes", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "CATEGORY")
	assert.Contains(t, out, "Crop")
	assert.Contains(t, out, "ReactionDiffusion")

	out, _, err = execute(t, "nodes", "--log-level", "error", "--category", "file")
	require.NoError(t, err)
	assert.Contains(t, out, "ImageWrite")
	assert.NotContains(t, out, "Crop")

	_, _, err = execute(t, "nodes", "--log-level", "error", "--category", "nothing")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	_, project, out := writeProject(t)

	stdout, logs, err := execute(t, "render", "--sync", project)
	require.NoError(t, err, logs)
	assert.Contains(t, stdout, "1 frame(s)")
	assert.Contains(t, stdout, "ImageWrite")
	assert.FileExists(t, out)
}

func TestRenderFromConfig(t *testing.T) {
	dir, project, out := writeProject(t)
	cfgPath := filepath.Join(dir, "texgrid.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf("project = %q\nsynchronous = true\nlog_format = \"json\"\n", project)), 0o644))

	stdout, logs, err := execute(t, "render", "-q", "--config", cfgPath)
	require.NoError(t, err, logs)
	assert.Empty(t, stdout)
	assert.Contains(t, logs, `"msg":`)
	assert.FileExists(t, out)
}

func TestGraph(t *testing.T) {
	dir, project, _ := writeProject(t)

	out, _, err := execute(t, "graph", "--log-level", "error", project)
	require.NoError(t, err)
	assert.Contains(t, out, "digraph G {")
	assert.Contains(t, out, `label="Color #0\norder: 0"`)
	assert.Contains(t, out, "n0 -> n1")

	dotFile := filepath.Join(dir, "graph.dot")
	_, _, err = execute(t, "graph", "--log-level", "error", "--positions", "-o", dotFile, project)
	require.NoError(t, err)
	data, err := os.ReadFile(dotFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `pos="40,-300!"`)
}

func TestLayout(t *testing.T) {
	dir, project, _ := writeProject(t)
	laid := filepath.Join(dir, "laid.hcl")

	out, _, err := execute(t, "layout", "--log-level", "error", "-o", laid, project)
	require.NoError(t, err)
	assert.Contains(t, out, "2 node(s)")

	data, err := os.ReadFile(laid)
	require.NoError(t, err)
	assert.Contains(t, string(data), `node "Color" "color_0"`)
}

func TestApplyFrameFlags(t *testing.T) {
	testCases := []struct {
		name       string
		args       []string
		start, end int
	}{
		{"none", nil, 0, -1},
		{"both", []string{"--start", "2", "--end", "5"}, 2, 5},
		{"start only", []string{"--start", "3"}, 3, 3},
		{"end only", []string{"--end", "4"}, 4, 4},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := newRenderCmd(&globalOpts{})
			require.NoError(t, cmd.ParseFlags(tc.args))
			var opts renderOpts
			opts.start, _ = cmd.Flags().GetInt("start")
			opts.end, _ = cmd.Flags().GetInt("end")

			cfg := app.DefaultConfig()
			applyFrameFlags(cmd, &cfg, opts)
			assert.Equal(t, tc.start, cfg.FrameStart)
			assert.Equal(t, tc.end, cfg.FrameEnd)
		})
	}
}
