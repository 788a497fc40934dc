package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// --- Library Manifest Schemas ---

// LibraryFile represents the top-level structure of a node library manifest.
// A library is any number of such files; node types keep the order in which
// they are found.
type LibraryFile struct {
	Nodes []*NodeDefinition `hcl:"node,block"`
	Body  hcl.Body          `hcl:",remain"`
}

// NodeDefinition represents a `node "<Type>"` block of a manifest.
type NodeDefinition struct {
	Name         string             `hcl:"type,label"`
	Category     string             `hcl:"category,optional"`
	Description  string             `hcl:"description,optional"`
	HasUI        bool               `hcl:"has_ui,optional"`
	SaveTexture  bool               `hcl:"save_texture,optional"`
	Thumbnail    bool               `hcl:"thumbnail,optional"`
	Experimental bool               `hcl:"experimental,optional"`
	Inputs       []*SlotDefinition  `hcl:"input,block"`
	Outputs      []*SlotDefinition  `hcl:"output,block"`
	Params       []*ParamDefinition `hcl:"param,block"`
}

// SlotDefinition represents an `input` or `output` block.
type SlotDefinition struct {
	Name string `hcl:"name,label"`
	Type string `hcl:"type,optional"`
}

// ParamDefinition represents a `param` block. Type is a bare keyword such as
// `float4` or `filename_read`; Default is any literal the parameter text
// parser accepts (a number, a string, a bool or a tuple of numbers).
type ParamDefinition struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Default     hcl.Expression `hcl:"default,optional"`
	Description string         `hcl:"description,optional"`
	Enum        []string       `hcl:"enum,optional"`
	Control     string         `hcl:"control,optional"`
	Min         []float64      `hcl:"min,optional"`
	Max         []float64      `hcl:"max,optional"`
	Hidden      bool           `hcl:"hidden,optional"`
	Loop        bool           `hcl:"loop,optional"`
	QuadSelect  bool           `hcl:"quad_select,optional"`
}

// --- Project Schemas ---

// ProjectFile represents a saved graph.
type ProjectFile struct {
	Frames *Frames         `hcl:"frames,block"`
	Nodes  []*ProjectNode  `hcl:"node,block"`
	Links  []*ProjectLink  `hcl:"link,block"`
	Rugs   []*ProjectRug   `hcl:"rug,block"`
	Tracks []*ProjectTrack `hcl:"track,block"`
	Body   hcl.Body        `hcl:",remain"`
}

// Frames is the document frame range.
type Frames struct {
	Start int `hcl:"start"`
	End   int `hcl:"end"`
}

// ProjectNode is one node instance. Name is unique within the file and is
// what links, multiplex overrides and tracks refer to.
type ProjectNode struct {
	Type         string              `hcl:"type,label"`
	Name         string              `hcl:"name,label"`
	Position     []float64           `hcl:"position,optional"`
	StartFrame   *int                `hcl:"start_frame,optional"`
	EndFrame     *int                `hcl:"end_frame,optional"`
	PinnedIO     int                 `hcl:"pinned_io,optional"`
	PinnedParams int                 `hcl:"pinned_params,optional"`
	Params       *ParamsBlock        `hcl:"params,block"`
	Samplers     []*ProjectSampler   `hcl:"sampler,block"`
	Multiplex    []*ProjectMultiplex `hcl:"multiplex,block"`
}

// ParamsBlock holds one attribute per parameter.
type ParamsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// ProjectSampler is the sampler of one input slot.
type ProjectSampler struct {
	Slot      int    `hcl:"slot"`
	WrapU     string `hcl:"wrap_u,optional"`
	WrapV     string `hcl:"wrap_v,optional"`
	FilterMin string `hcl:"filter_min,optional"`
	FilterMag string `hcl:"filter_mag,optional"`
}

// ProjectMultiplex overrides one input slot with another node's output.
type ProjectMultiplex struct {
	Slot   int    `hcl:"slot"`
	Source string `hcl:"source"`
}

// ProjectLink feeds output FromSlot of From into input ToSlot of To.
type ProjectLink struct {
	From     string `hcl:"from"`
	FromSlot int    `hcl:"from_slot,optional"`
	To       string `hcl:"to"`
	ToSlot   int    `hcl:"to_slot,optional"`
}

// ProjectRug is a comment box.
type ProjectRug struct {
	Position []float64 `hcl:"position"`
	Size     []float64 `hcl:"size"`
	Color    int       `hcl:"color,optional"`
	Text     string    `hcl:"text,optional"`
}

// ProjectTrack animates one parameter of a node.
type ProjectTrack struct {
	Node  string        `hcl:"node"`
	Param string        `hcl:"param"`
	Keys  []*ProjectKey `hcl:"key,block"`
}

// ProjectKey is one keyframe.
type ProjectKey struct {
	Frame int            `hcl:"frame"`
	Value hcl.Expression `hcl:"value"`
}
