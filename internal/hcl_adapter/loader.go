package hcl_adapter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/fsutil"
	"github.com/specialistvlad/texgridgo/internal/metanode"
	"github.com/specialistvlad/texgridgo/internal/registry"
	"github.com/specialistvlad/texgridgo/internal/schema"
)

// Library file suffixes.
const (
	ManifestSuffix = ".hcl"
	ProgramSuffix  = registry.ProgramSuffix
	ScriptSuffix   = registry.ScriptSuffix
)

// Library is a loaded node library: the node type table plus the program
// and script sources shipped next to the manifests, keyed by their path.
type Library struct {
	Table    *metanode.Table
	Programs map[string]string
	Scripts  map[string]string
}

// Register adds the library's program and script sources to r. Kernels and
// native evaluators come from the Go modules.
func (l *Library) Register(r *registry.Registry) {
	for file, src := range l.Programs {
		r.RegisterProgramSource(file, src)
	}
	for file, src := range l.Scripts {
		r.RegisterScript(file, src)
	}
}

// Loader reads node libraries and projects.
type Loader struct{}

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Source is one library location. Name prefixes the keys of its program
// and script sources so that two sources may ship the same file name.
type Source struct {
	Name string
	FS   fs.FS
}

// DirSource is a Source reading a directory on disk.
func DirSource(dir string) Source {
	return Source{Name: dir, FS: os.DirFS(dir)}
}

// LoadLibrary walks every source. Manifests are decoded source by source in
// lexical path order; node types keep that order, which is also their type
// id. Directory sources that do not exist are skipped.
func (l *Loader) LoadLibrary(ctx context.Context, sources ...Source) (*Library, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL library loader started.", "source_count", len(sources))

	lib := &Library{
		Programs: make(map[string]string),
		Scripts:  make(map[string]string),
	}
	parser := hclparse.NewParser()
	var nodes []metanode.MetaNode

	for _, source := range sources {
		files, err := fsutil.FindFilesByExtension(source.FS, ".", ManifestSuffix, ProgramSuffix, ScriptSuffix)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Library source does not exist, skipping.", "source", source.Name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan library %s: %w", source.Name, err)
		}
		logger.Debug("Discovered library files.", "source", source.Name, "count", len(files))

		for _, file := range files {
			src, err := fs.ReadFile(source.FS, file)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", file, err)
			}
			key := path.Join(source.Name, file)
			switch path.Ext(file) {
			case ProgramSuffix:
				lib.Programs[key] = string(src)
				continue
			case ScriptSuffix:
				lib.Scripts[key] = string(src)
				continue
			}

			hclFile, diags := parser.ParseHCL(src, key)
			if diags.HasErrors() {
				return nil, fmt.Errorf("failed to parse HCL file %s: %w", key, diags)
			}
			var root schema.LibraryFile
			if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
				return nil, fmt.Errorf("failed to decode HCL file %s: %w", key, diags)
			}
			for _, def := range root.Nodes {
				m, err := translateNodeDefinition(ctx, def)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", key, err)
				}
				nodes = append(nodes, m)
			}
		}
	}

	table, err := metanode.NewTable(nodes)
	if err != nil {
		return nil, fmt.Errorf("invalid node library: %w", err)
	}
	lib.Table = table

	logger.Debug("HCL library loading complete.", "nodeTypes", table.Len(),
		"programs", len(lib.Programs), "scripts", len(lib.Scripts))
	return lib, nil
}
