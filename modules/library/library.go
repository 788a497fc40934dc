// Package library embeds the built-in node library: one manifest per node
// category, the WGSL programs and the scripts sent to the script host.
package library

import (
	"embed"

	"github.com/specialistvlad/texgridgo/internal/hcl_adapter"
)

//go:embed nodes programs scripts
var files embed.FS

// Name prefixes the source keys of the built-in library.
const Name = "builtin"

// Source returns the built-in library as a loader source.
func Source() hcl_adapter.Source {
	return hcl_adapter.Source{Name: Name, FS: files}
}
