package header

import (
	"encoding/binary"
	"fmt"
)

// Sub-field positions of the message header.
const (
	MessageBlockLength = iota
	MessageTemplateID
	MessageSchemaID
	MessageVersion
	messageFields
)

// Sub-field positions of the group header.
const (
	GroupBlockLength = iota
	GroupNumInGroup
	groupFields
)

// VarLengthLength is the only sub-field of the var-length header.
const (
	VarLengthLength = iota
	varLengthFields
)

// Message prefixes every encoded message.
type Message struct {
	Codec
}

// MessageFields are the values carried by a message header.
type MessageFields struct {
	BlockLength int
	TemplateID  int
	SchemaID    int
	Version     int
}

func NewMessage(blockLength, templateID, schemaID, version SubField) (*Message, error) {
	c, err := newFixed("message", messageFields, []SubField{blockLength, templateID, schemaID, version})
	if err != nil {
		return nil, err
	}
	return &Message{Codec: c}, nil
}

// DefaultMessage uses four unsigned 16-bit sub-fields.
func DefaultMessage() *Message {
	m, _ := NewMessage(U16("blockLength"), U16("templateId"), U16("schemaId"), U16("version"))
	return m
}

// Get decodes every sub-field of the header at offset.
func (m *Message) Get(buf []byte, order binary.ByteOrder, offset int) (MessageFields, error) {
	var out MessageFields
	var err error
	if out.BlockLength, err = m.Read(buf, order, offset, MessageBlockLength); err != nil {
		return MessageFields{}, err
	}
	if out.TemplateID, err = m.Read(buf, order, offset, MessageTemplateID); err != nil {
		return MessageFields{}, err
	}
	if out.SchemaID, err = m.Read(buf, order, offset, MessageSchemaID); err != nil {
		return MessageFields{}, err
	}
	if out.Version, err = m.Read(buf, order, offset, MessageVersion); err != nil {
		return MessageFields{}, err
	}
	return out, nil
}

// Check reports the first value of v that its sub-field cannot carry.
func (m *Message) Check(v MessageFields) error {
	for i, x := range [messageFields]int{v.BlockLength, v.TemplateID, v.SchemaID, v.Version} {
		if !m.Fits(i, x) {
			return fmt.Errorf("%w: %s=%d", ErrValueOutOfRange, m.Field(i).Name, x)
		}
	}
	return nil
}

// Put encodes every sub-field of the header at offset. Nothing is written
// unless every value fits.
func (m *Message) Put(buf []byte, order binary.ByteOrder, offset int, v MessageFields) error {
	if err := m.Check(v); err != nil {
		return err
	}
	if offset < 0 || offset+m.Size() > len(buf) {
		return ErrShortBuffer
	}
	if err := m.Write(buf, order, offset, MessageBlockLength, v.BlockLength); err != nil {
		return err
	}
	if err := m.Write(buf, order, offset, MessageTemplateID, v.TemplateID); err != nil {
		return err
	}
	if err := m.Write(buf, order, offset, MessageSchemaID, v.SchemaID); err != nil {
		return err
	}
	return m.Write(buf, order, offset, MessageVersion, v.Version)
}

// Group prefixes every repeating group.
type Group struct {
	Codec
}

func NewGroup(blockLength, numInGroup SubField) (*Group, error) {
	c, err := newFixed("group", groupFields, []SubField{blockLength, numInGroup})
	if err != nil {
		return nil, err
	}
	return &Group{Codec: c}, nil
}

// DefaultGroup uses two unsigned 16-bit sub-fields.
func DefaultGroup() *Group {
	g, _ := NewGroup(U16("blockLength"), U16("numInGroup"))
	return g
}

func (g *Group) BlockLength(buf []byte, order binary.ByteOrder, offset int) (int, error) {
	return g.Read(buf, order, offset, GroupBlockLength)
}

func (g *Group) NumInGroup(buf []byte, order binary.ByteOrder, offset int) (int, error) {
	return g.Read(buf, order, offset, GroupNumInGroup)
}

func (g *Group) SetBlockLength(buf []byte, order binary.ByteOrder, offset, v int) error {
	return g.Write(buf, order, offset, GroupBlockLength, v)
}

func (g *Group) SetNumInGroup(buf []byte, order binary.ByteOrder, offset, v int) error {
	return g.Write(buf, order, offset, GroupNumInGroup, v)
}

// VarLength prefixes every raw field.
type VarLength struct {
	Codec
}

func NewVarLength(length SubField) (*VarLength, error) {
	c, err := newFixed("var-length", varLengthFields, []SubField{length})
	if err != nil {
		return nil, err
	}
	return &VarLength{Codec: c}, nil
}

// DefaultVarLength uses one unsigned 16-bit length.
func DefaultVarLength() *VarLength {
	v, _ := NewVarLength(U16("length"))
	return v
}

func (v *VarLength) Length(buf []byte, order binary.ByteOrder, offset int) (int, error) {
	return v.Read(buf, order, offset, VarLengthLength)
}

func (v *VarLength) SetLength(buf []byte, order binary.ByteOrder, offset, n int) error {
	return v.Write(buf, order, offset, VarLengthLength, n)
}

// MaxLength is the largest length the header can describe.
func (v *VarLength) MaxLength() int {
	return v.Field(VarLengthLength).Max()
}
