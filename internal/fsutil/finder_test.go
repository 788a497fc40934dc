package fsutil

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	fsys := fstest.MapFS{
		"nodes/b.hcl":        {},
		"nodes/a.hcl":        {},
		"programs/Crop.wgsl": {},
		"scripts/Tile.js":    {},
		"README.md":          {},
	}

	t.Run("single extension", func(t *testing.T) {
		files, err := FindFilesByExtension(fsys, ".", ".hcl")
		require.NoError(t, err)
		assert.Equal(t, []string{"nodes/a.hcl", "nodes/b.hcl"}, files)
	})

	t.Run("several extensions", func(t *testing.T) {
		files, err := FindFilesByExtension(fsys, ".", ".wgsl", ".js")
		require.NoError(t, err)
		assert.Equal(t, []string{"programs/Crop.wgsl", "scripts/Tile.js"}, files)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := FindFilesByExtension(fsys, "nope", ".hcl")
		assert.Error(t, err)
	})

	t.Run("no extension panics", func(t *testing.T) {
		assert.Panics(t, func() { _, _ = FindFilesByExtension(fsys, ".") })
	})
}

func TestBase(t *testing.T) {
	assert.Equal(t, "Crop", Base("programs/Crop.wgsl", ".wgsl"))
	assert.Equal(t, "Crop.wgsl", Base("Crop.wgsl", ".js"))
}
