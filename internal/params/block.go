package params

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Field describes one parameter of a node type.
type Field struct {
	Name    string
	Type    Type
	Default []byte // encoded default, empty means zero
}

// Layout is the fixed byte layout shared by every block of one node type.
// It is immutable once built.
type Layout struct {
	fields  []Field
	offsets []int
	size    int
	index   map[string]int
}

// NewLayout precomputes offsets for the ordered fields.
func NewLayout(fields []Field) *Layout {
	l := &Layout{
		fields:  append([]Field(nil), fields...),
		offsets: make([]int, len(fields)),
		index:   make(map[string]int, len(fields)),
	}
	for i, f := range l.fields {
		l.offsets[i] = l.size
		l.size += f.Type.Size()
		if _, dup := l.index[f.Name]; !dup {
			l.index[f.Name] = i
		}
	}
	return l
}

// Len returns the number of fields.
func (l *Layout) Len() int { return len(l.fields) }

// Size returns the total byte size of a block.
func (l *Layout) Size() int { return l.size }

// Field returns the i-th field descriptor.
func (l *Layout) Field(i int) Field { return l.fields[i] }

// Offset returns the byte offset of the i-th field.
func (l *Layout) Offset(i int) int { return l.offsets[i] }

// Index resolves a field name, -1 when unknown.
func (l *Layout) Index(name string) int {
	if i, ok := l.index[name]; ok {
		return i
	}
	return -1
}

// Block is a node's parameter storage: a flat byte buffer laid out by its Layout.
type Block struct {
	layout *Layout
	data   []byte
}

// NewBlock allocates a block filled with the layout defaults.
func NewBlock(l *Layout) *Block {
	b := &Block{layout: l, data: make([]byte, l.size)}
	b.Reset()
	return b
}

// FromBytes builds a block from a raw dump. The dump is copied and padded or
// truncated to the layout size.
func FromBytes(l *Layout, dump []byte) *Block {
	b := &Block{layout: l, data: make([]byte, l.size)}
	copy(b.data, dump)
	return b
}

// Reset restores every field to its default.
func (b *Block) Reset() {
	clear(b.data)
	for i, f := range b.layout.fields {
		if len(f.Default) > 0 {
			copy(b.field(i), f.Default)
		}
	}
}

// Layout returns the block's layout.
func (b *Block) Layout() *Layout { return b.layout }

// Clone returns an independent copy. Camera fields are plain values inside
// the buffer, so a byte copy is a deep copy.
func (b *Block) Clone() *Block {
	if b == nil {
		return nil
	}
	return &Block{layout: b.layout, data: append([]byte(nil), b.data...)}
}

// Bytes returns a copy of the raw buffer.
func (b *Block) Bytes() []byte {
	return append([]byte(nil), b.data...)
}

// Equal compares layouts and contents.
func (b *Block) Equal(o *Block) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.layout == o.layout && bytes.Equal(b.data, o.data)
}

// CopyFrom overwrites the contents with another block of the same layout.
func (b *Block) CopyFrom(o *Block) {
	copy(b.data, o.data)
}

func (b *Block) field(i int) []byte {
	off := b.layout.offsets[i]
	return b.data[off : off+b.layout.fields[i].Type.Size()]
}

// FieldBytes returns a view of the i-th field, nil if out of range.
func (b *Block) FieldBytes(i int) []byte {
	if i < 0 || i >= len(b.layout.fields) {
		return nil
	}
	return b.field(i)
}

// SetParameter parses text into the named field. Unknown names and
// unparseable values are ignored; the return value reports whether the
// block changed.
func (b *Block) SetParameter(name, text string) bool {
	return b.SetParameterAt(b.layout.Index(name), text)
}

// SetParameterAt is SetParameter addressed by field index.
func (b *Block) SetParameterAt(i int, text string) bool {
	if i < 0 || i >= len(b.layout.fields) {
		return false
	}
	dst := b.field(i)
	before := append([]byte(nil), dst...)
	if err := ParseText(b.layout.fields[i].Type, text, dst); err != nil {
		copy(dst, before)
		return false
	}
	return !bytes.Equal(before, dst)
}

// Text formats the i-th field the way SetParameterAt reads it.
func (b *Block) Text(i int) string {
	if i < 0 || i >= len(b.layout.fields) {
		return ""
	}
	return FormatText(b.layout.fields[i].Type, b.field(i))
}

// ComponentValue returns one scalar of a field as float32. Non numeric
// fields report 0.
func (b *Block) ComponentValue(i, component int) float32 {
	if i < 0 || i >= len(b.layout.fields) {
		return 0
	}
	t := b.layout.fields[i].Type
	if component < 0 || component >= t.Components() {
		return 0
	}
	if t == Ramp || t == Ramp4 {
		return 0
	}
	raw := binary.LittleEndian.Uint32(b.field(i)[component*4:])
	if t.IsFloat() {
		return math.Float32frombits(raw)
	}
	return float32(int32(raw))
}

// Floats returns the float components of the named field.
func (b *Block) Floats(name string) []float32 {
	i := b.layout.Index(name)
	if i < 0 || !b.layout.fields[i].Type.IsFloat() {
		return nil
	}
	out := make([]float32, b.layout.fields[i].Type.Components())
	src := b.field(i)
	for c := range out {
		out[c] = math.Float32frombits(binary.LittleEndian.Uint32(src[c*4:]))
	}
	return out
}

// Float returns the first component of the named float field.
func (b *Block) Float(name string, def float32) float32 {
	if v := b.Floats(name); len(v) > 0 {
		return v[0]
	}
	return def
}

// SetFloats writes float components of the named field.
func (b *Block) SetFloats(name string, values ...float32) bool {
	i := b.layout.Index(name)
	if i < 0 || !b.layout.fields[i].Type.IsFloat() {
		return false
	}
	dst := b.field(i)
	for c := 0; c < min(len(values), b.layout.fields[i].Type.Components()); c++ {
		binary.LittleEndian.PutUint32(dst[c*4:], math.Float32bits(values[c]))
	}
	return true
}

// Ints returns the integer components of the named field.
func (b *Block) Ints(name string) []int {
	i := b.layout.Index(name)
	if i < 0 {
		return nil
	}
	t := b.layout.fields[i].Type
	if t.IsFloat() || t.Components() == 0 {
		return nil
	}
	out := make([]int, t.Components())
	src := b.field(i)
	for c := range out {
		out[c] = int(int32(binary.LittleEndian.Uint32(src[c*4:])))
	}
	return out
}

// Int returns the first component of an integer, enum or bool field.
func (b *Block) Int(name string, def int) int {
	if v := b.Ints(name); len(v) > 0 {
		return v[0]
	}
	return def
}

// SetInt writes the first component of an integer field.
func (b *Block) SetInt(name string, v int) bool {
	i := b.layout.Index(name)
	if i < 0 {
		return false
	}
	t := b.layout.fields[i].Type
	if t.IsFloat() || t.Components() == 0 {
		return false
	}
	binary.LittleEndian.PutUint32(b.field(i), uint32(int32(v)))
	return true
}

// Bool reads a bool field.
func (b *Block) Bool(name string, def bool) bool {
	i := b.layout.Index(name)
	if i < 0 || b.layout.fields[i].Type != Bool {
		return def
	}
	return binary.LittleEndian.Uint32(b.field(i)) != 0
}

// String reads a filename field.
func (b *Block) String(name string) string {
	i := b.layout.Index(name)
	if i < 0 || !b.layout.fields[i].Type.IsFilename() {
		return ""
	}
	return FormatText(b.layout.fields[i].Type, b.field(i))
}

// Camera returns the first camera field of the block.
func (b *Block) Camera() (CameraValue, bool) {
	for i, f := range b.layout.fields {
		if f.Type == Camera {
			return decodeCamera(b.field(i)), true
		}
	}
	return CameraValue{}, false
}

// SetCamera overwrites the first camera field.
func (b *Block) SetCamera(c CameraValue) bool {
	for i, f := range b.layout.fields {
		if f.Type == Camera {
			c.encode(b.field(i))
			return true
		}
	}
	return false
}

// EncodeDefault parses a manifest default into the encoded form stored in Field.Default.
func EncodeDefault(t Type, text string) ([]byte, error) {
	out := make([]byte, t.Size())
	if t == Camera && text == "" {
		DefaultCamera().encode(out)
		return out, nil
	}
	if err := ParseText(t, text, out); err != nil {
		return nil, fmt.Errorf("invalid default for %s: %w", t, err)
	}
	return out, nil
}
