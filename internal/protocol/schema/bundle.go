package schema

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/danmuck/blockwire/internal/protocol/field"
	"github.com/danmuck/blockwire/internal/protocol/header"
)

var (
	ErrNotMessage        = errors.New("schema: register requires a message definition")
	ErrForeignHeader     = errors.New("schema: message built with a foreign header")
	ErrDuplicateTemplate = errors.New("schema: duplicate template id")
)

// Bundle is everything the codec needs to know about one schema. It is built
// once and shared read-only by every engine that decodes the schema.
type Bundle struct {
	Name          string
	SchemaID      int
	Version       int
	Order         binary.ByteOrder
	MessageHeader *header.Message
	GroupHeader   *header.Group
	VarLength     *header.VarLength

	messages map[int]*field.Definition
}

// NewBundle creates an empty bundle using h for every header.
func NewBundle(schemaID, version int, order binary.ByteOrder, h field.Headers) *Bundle {
	if order == nil {
		order = binary.LittleEndian
	}
	b := field.NewBuilder(h).Headers()
	return &Bundle{
		SchemaID:      schemaID,
		Version:       version,
		Order:         order,
		MessageHeader: b.Message,
		GroupHeader:   b.Group,
		VarLength:     b.VarLength,
		messages:      make(map[int]*field.Definition),
	}
}

// Builder returns a definition builder bound to the bundle's headers.
func (b *Bundle) Builder() *field.Builder {
	return field.NewBuilder(field.Headers{
		Message:   b.MessageHeader,
		Group:     b.GroupHeader,
		VarLength: b.VarLength,
	})
}

// Register adds a message definition under its template id.
func (b *Bundle) Register(def *field.Definition) error {
	if def == nil || def.Kind() != field.Message {
		return ErrNotMessage
	}
	if def.MessageHeader() != b.MessageHeader {
		return fmt.Errorf("%w: %s", ErrForeignHeader, def.Name())
	}
	if _, dup := b.messages[def.ID()]; dup {
		return fmt.Errorf("%w: %d", ErrDuplicateTemplate, def.ID())
	}
	b.messages[def.ID()] = def
	return nil
}

// Message returns the definition registered for templateID.
func (b *Bundle) Message(templateID int) (*field.Definition, bool) {
	def, ok := b.messages[templateID]
	return def, ok
}

// MessageByName returns the first definition with the given name.
func (b *Bundle) MessageByName(name string) (*field.Definition, bool) {
	for _, id := range b.Templates() {
		if def := b.messages[id]; def.Name() == name {
			return def, true
		}
	}
	return nil, false
}

// Templates lists registered template ids in ascending order.
func (b *Bundle) Templates() []int {
	ids := make([]int, 0, len(b.messages))
	for id := range b.messages {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
