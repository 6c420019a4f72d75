package field

import (
	"fmt"

	"github.com/danmuck/blockwire/internal/protocol/header"
)

// Headers are the header codecs shared by every definition of one schema.
type Headers struct {
	Message   *header.Message
	Group     *header.Group
	VarLength *header.VarLength
}

// DefaultHeaders returns 16-bit unsigned headers throughout.
func DefaultHeaders() Headers {
	return Headers{
		Message:   header.DefaultMessage(),
		Group:     header.DefaultGroup(),
		VarLength: header.DefaultVarLength(),
	}
}

// Builder assembles definition trees for one schema. It is not safe for
// concurrent use; the trees it returns are read-only once building is done.
type Builder struct {
	headers Headers
}

// NewBuilder returns a builder; nil headers fall back to the defaults.
func NewBuilder(h Headers) *Builder {
	def := DefaultHeaders()
	if h.Message == nil {
		h.Message = def.Message
	}
	if h.Group == nil {
		h.Group = def.Group
	}
	if h.VarLength == nil {
		h.VarLength = def.VarLength
	}
	return &Builder{headers: h}
}

func (b *Builder) Headers() Headers { return b.headers }

// NewMessage creates the root definition of a message template.
func (b *Builder) NewMessage(templateID int, name string) *Definition {
	return &Definition{
		id:          templateID,
		name:        name,
		kind:        Message,
		arrayLength: 1,
		slot:        -1,
		byID:        make(map[int]*Definition),
		message:     b.headers.Message,
	}
}

// AddField appends a child to parent and lays it out.
func (b *Builder) AddField(parent *Definition, id int, name string, kind Kind, arrayLength int) (*Definition, error) {
	if kind == Constant {
		return nil, buildErr(parent, id, name, fmt.Errorf("%w: constants need a literal", ErrIllegalChildKind))
	}
	return b.add(parent, id, name, kind, arrayLength, KindInvalid, nil)
}

// AddConstant appends a constant child. Constants occupy no buffer space.
func (b *Builder) AddConstant(parent *Definition, id int, name string, kind Kind, value []byte) (*Definition, error) {
	if !kind.IsPrimitive() {
		return nil, buildErr(parent, id, name, fmt.Errorf("%w: constant of kind %s", ErrConstantValue, kind))
	}
	if kind != Char && kind != Byte && len(value) != kind.Size() {
		return nil, buildErr(parent, id, name, fmt.Errorf("%w: %s literal has %d bytes", ErrConstantValue, kind, len(value)))
	}
	lit := make([]byte, len(value))
	copy(lit, value)
	return b.add(parent, id, name, Constant, 1, kind, lit)
}

func (b *Builder) add(parent *Definition, id int, name string, kind Kind, arrayLength int, constKind Kind, lit []byte) (*Definition, error) {
	if parent == nil {
		return nil, buildErr(nil, id, name, fmt.Errorf("%w: missing parent", ErrIllegalChildKind))
	}
	if err := checkChild(parent, kind, arrayLength); err != nil {
		return nil, buildErr(parent, id, name, err)
	}
	if _, dup := parent.byID[id]; dup {
		return nil, buildErr(parent, id, name, ErrDuplicateFieldID)
	}

	d := &Definition{
		id:          id,
		name:        name,
		kind:        kind,
		arrayLength: arrayLength,
		slot:        -1,
		parent:      parent,
		byID:        make(map[int]*Definition),
		constKind:   constKind,
		constValue:  lit,
	}

	switch {
	case kind.IsFixed():
		d.offset = parent.blockSize
		if kind.IsPrimitive() {
			d.blockSize = kind.Size()
		}
		parent.fixed = append(parent.fixed, d)
		if d.Size() > 0 {
			parent.grow(d.Size())
		}
	case kind == Group:
		d.group = b.headers.Group
		d.slot = len(parent.variable)
		parent.variable = append(parent.variable, d)
	case kind == Raw:
		d.varLength = b.headers.VarLength
		d.slot = len(parent.variable)
		parent.variable = append(parent.variable, d)
	}

	parent.children = append(parent.children, d)
	parent.byID[id] = d
	return d, nil
}

func checkChild(parent *Definition, kind Kind, arrayLength int) error {
	if arrayLength < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidArrayLength, arrayLength)
	}
	switch parent.kind {
	case Message, Group:
	case Composite:
		if !kind.IsPrimitive() && kind != Constant {
			return fmt.Errorf("%w: %s inside composite", ErrIllegalChildKind, kind)
		}
	default:
		return fmt.Errorf("%w: %s cannot own children", ErrIllegalChildKind, parent.kind)
	}

	switch {
	case kind == Message || kind == KindInvalid:
		return fmt.Errorf("%w: %s", ErrIllegalChildKind, kind)
	case kind == Composite || kind.IsVariable():
		if arrayLength != 1 {
			return fmt.Errorf("%w: %s must have length 1, got %d", ErrInvalidArrayLength, kind, arrayLength)
		}
	}

	if n := len(parent.variable); n > 0 {
		last := parent.variable[n-1].kind
		if kind.IsFixed() {
			return fmt.Errorf("%w: %s after %s", ErrFieldOrder, kind, last)
		}
		if kind == Group && last == Raw {
			return fmt.Errorf("%w: group after raw", ErrFieldOrder)
		}
	}
	return nil
}

func buildErr(parent *Definition, id int, name string, err error) error {
	be := &BuildError{FieldID: id, Name: name, Err: err}
	if parent != nil {
		be.Parent = parent.Path()
	}
	return be
}
