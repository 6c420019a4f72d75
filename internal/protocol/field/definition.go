package field

import "github.com/danmuck/blockwire/internal/protocol/header"

// Definition describes one field of a schema. Definitions are created by a
// Builder and must not change once the schema is loaded; after that they
// can be read from any number of goroutines without locking.
type Definition struct {
	id          int
	name        string
	kind        Kind
	blockSize   int
	arrayLength int
	offset      int
	slot        int
	parent      *Definition

	children []*Definition
	fixed    []*Definition
	variable []*Definition
	byID     map[int]*Definition

	message   *header.Message
	group     *header.Group
	varLength *header.VarLength

	constKind  Kind
	constValue []byte
}

func (d *Definition) ID() int          { return d.id }
func (d *Definition) Name() string     { return d.name }
func (d *Definition) Kind() Kind       { return d.kind }
func (d *Definition) ArrayLength() int { return d.arrayLength }
func (d *Definition) Parent() *Definition {
	return d.parent
}

// BlockSize is the width of one element. For groups and messages it is the
// fixed block every row starts with.
func (d *Definition) BlockSize() int { return d.blockSize }

// Offset is the position of a fixed field inside its parent's fixed block.
// Group and raw fields have no schema offset and report 0.
func (d *Definition) Offset() int { return d.offset }

// Size is the footprint of a fixed field in its parent's block.
func (d *Definition) Size() int { return d.blockSize * d.arrayLength }

// Slot is the index of a group or raw field among its parent's variable
// children, -1 for everything else.
func (d *Definition) Slot() int { return d.slot }

// Children returns every child in declaration order.
func (d *Definition) Children() []*Definition { return d.children }

// Fixed returns the children stored in the fixed block.
func (d *Definition) Fixed() []*Definition { return d.fixed }

// Variable returns the group and raw children in wire order.
func (d *Definition) Variable() []*Definition { return d.variable }

// Child looks up a direct child by id.
func (d *Definition) Child(id int) (*Definition, bool) {
	c, ok := d.byID[id]
	return c, ok
}

// ChildByName looks up a direct child by name.
func (d *Definition) ChildByName(name string) (*Definition, bool) {
	for _, c := range d.children {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Lookup resolves a dotted path of child names.
func (d *Definition) Lookup(path ...string) (*Definition, bool) {
	cur := d
	for _, name := range path {
		next, ok := cur.ChildByName(name)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func (d *Definition) MessageHeader() *header.Message { return d.message }
func (d *Definition) GroupHeader() *header.Group     { return d.group }
func (d *Definition) VarLength() *header.VarLength   { return d.varLength }

// HeaderSize is the width of the header that precedes this field on the
// wire, 0 for fixed fields.
func (d *Definition) HeaderSize() int {
	switch d.kind {
	case Message:
		return d.message.Size()
	case Group:
		return d.group.Size()
	case Raw:
		return d.varLength.Size()
	}
	return 0
}

// EmptyRowSize is the size of a row with every nested group empty and every
// raw field zero length.
func (d *Definition) EmptyRowSize() int {
	n := d.blockSize
	for _, v := range d.variable {
		n += v.HeaderSize()
	}
	return n
}

// ConstKind is the literal kind of a constant field.
func (d *Definition) ConstKind() Kind { return d.constKind }

// ConstValue is the literal of a constant field. Callers must not modify it.
func (d *Definition) ConstValue() []byte { return d.constValue }

// Path returns the dotted name path from the message root.
func (d *Definition) Path() string {
	if d.parent == nil {
		return d.name
	}
	return d.parent.Path() + "." + d.name
}

// Owns reports whether f is read through rows of d: a direct fixed child, or
// a child of a composite that is a direct child of d.
func (d *Definition) Owns(f *Definition) bool {
	if f == nil || f.parent == nil {
		return false
	}
	if f.parent == d {
		return true
	}
	return f.parent.kind == Composite && f.parent.parent == d
}

// grow adds delta bytes to d's block and carries the change into the
// owning group when d is a composite.
func (d *Definition) grow(delta int) {
	d.blockSize += delta
	if d.kind != Composite || d.parent == nil {
		return
	}
	p := d.parent
	after := false
	for _, s := range p.fixed {
		if after {
			s.offset += delta
		}
		if s == d {
			after = true
		}
	}
	p.grow(delta)
}
