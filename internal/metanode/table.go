package metanode

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/texgridgo/internal/params"
)

// Table is the read-only list of node types. The index of a type in the table
// is the type id stored in graph nodes.
type Table struct {
	nodes []*MetaNode
	index map[string]int
}

// NewTable validates the node types and freezes them. The input order is kept.
func NewTable(nodes []MetaNode) (*Table, error) {
	t := &Table{
		nodes: make([]*MetaNode, 0, len(nodes)),
		index: make(map[string]int, len(nodes)),
	}
	for i := range nodes {
		m := nodes[i]
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, dup := t.index[m.Name]; dup {
			return nil, fmt.Errorf("node type '%s' declared twice", m.Name)
		}
		m.buildLayout()
		t.index[m.Name] = len(t.nodes)
		t.nodes = append(t.nodes, &m)
	}
	return t, nil
}

// Len returns the number of node types.
func (t *Table) Len() int { return len(t.nodes) }

// Index returns the type id of a node type name, -1 when unknown.
func (t *Table) Index(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Node returns the metadata of a type id. It panics on an unknown id.
func (t *Table) Node(typ int) *MetaNode {
	if typ < 0 || typ >= len(t.nodes) {
		panic(fmt.Sprintf("metanode: node type %d out of range [0,%d)", typ, len(t.nodes)))
	}
	return t.nodes[typ]
}

// ParamIndex resolves a parameter name of a type, -1 when unknown.
func (t *Table) ParamIndex(typ int, name string) int {
	return t.Node(typ).ParamIndex(name)
}

// ParamOffset returns the byte offset of a parameter in the type's block.
func (t *Table) ParamOffset(typ, param int) int {
	return t.Node(typ).layout.Offset(param)
}

// ParamType returns the declared type of a parameter.
func (t *Table) ParamType(typ, param int) params.Type {
	return t.Node(typ).Params[param].Type
}

// ParamsSize returns the byte size of a type's parameter block.
func (t *Table) ParamsSize(typ int) int {
	return t.Node(typ).layout.Size()
}

// NewBlock allocates a parameter block with the type defaults.
func (t *Table) NewBlock(typ int) *params.Block {
	return params.NewBlock(t.Node(typ).layout)
}

// Names returns the type names sorted alphabetically.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.nodes))
	for _, n := range t.nodes {
		names = append(names, n.Name)
	}
	sort.Strings(names)
	return names
}

// Categories groups type names per category.
func (t *Table) Categories() map[string][]string {
	out := make(map[string][]string)
	for _, n := range t.nodes {
		out[n.Category] = append(out[n.Category], n.Name)
	}
	for _, v := range out {
		sort.Strings(v)
	}
	return out
}
