package metanode

import (
	"fmt"

	"github.com/specialistvlad/texgridgo/internal/params"
)

// Slot limits shared with the graph pin bitmasks.
const (
	MaxInputs  = 8
	MaxOutputs = 8
	MaxParams  = 32
)

// ControlType selects the editing widget of a parameter.
type ControlType int

const (
	ControlNumericEdit ControlType = iota
	ControlSlider
)

// MetaParam is the static description of one parameter field.
type MetaParam struct {
	Name        string
	Type        params.Type
	Default     []byte
	Enum        []string
	Control     ControlType
	RangeMin    [2]float32
	RangeMax    [2]float32
	Hidden      bool
	Loop        bool
	QuadSelect  bool
	Description string
}

// Slot is a named input or output connector.
type Slot struct {
	Name string
	Type string
}

// MetaNode describes a node type.
type MetaNode struct {
	Name         string
	Category     string
	Description  string
	Params       []MetaParam
	Inputs       []Slot
	Outputs      []Slot
	HasUI        bool
	SaveTexture  bool
	Thumbnail    bool
	Experimental bool

	layout *params.Layout
}

// Layout returns the parameter block layout of the node type.
func (m *MetaNode) Layout() *params.Layout { return m.layout }

// ParamIndex resolves a parameter name, -1 when unknown.
func (m *MetaNode) ParamIndex(name string) int {
	return m.layout.Index(name)
}

// Validate checks the slot and parameter limits.
func (m *MetaNode) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("node type has no name")
	}
	if len(m.Inputs) > MaxInputs {
		return fmt.Errorf("node type '%s' declares %d inputs, limit is %d", m.Name, len(m.Inputs), MaxInputs)
	}
	if len(m.Outputs) > MaxOutputs {
		return fmt.Errorf("node type '%s' declares %d outputs, limit is %d", m.Name, len(m.Outputs), MaxOutputs)
	}
	if len(m.Params) > MaxParams {
		return fmt.Errorf("node type '%s' declares %d parameters, limit is %d", m.Name, len(m.Params), MaxParams)
	}
	seen := make(map[string]struct{}, len(m.Params))
	for _, p := range m.Params {
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("node type '%s' declares parameter '%s' twice", m.Name, p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.Default != nil && len(p.Default) != p.Type.Size() {
			return fmt.Errorf("node type '%s' parameter '%s' default is %d bytes, want %d",
				m.Name, p.Name, len(p.Default), p.Type.Size())
		}
	}
	return nil
}

func (m *MetaNode) buildLayout() {
	fields := make([]params.Field, len(m.Params))
	for i, p := range m.Params {
		fields[i] = params.Field{Name: p.Name, Type: p.Type, Default: p.Default}
	}
	m.layout = params.NewLayout(fields)
}
