package codec

import (
	"fmt"

	"github.com/danmuck/blockwire/internal/protocol/field"
	"github.com/danmuck/blockwire/internal/protocol/header"
	"github.com/danmuck/blockwire/internal/protocol/instance"
	"github.com/danmuck/blockwire/internal/protocol/schema"
)

// Config tunes an Engine.
type Config struct {
	PoolCapacity int
}

func DefaultConfig() Config {
	return Config{PoolCapacity: instance.DefaultCapacity}
}

// Engine decodes and edits messages of one schema. Each engine owns its
// pool, so an engine must only be used by one goroutine at a time; callers
// that decode concurrently create one engine each. The bundle is shared.
type Engine struct {
	bundle *schema.Bundle
	pool   *instance.Pool
}

func NewEngine(bundle *schema.Bundle, cfg Config) *Engine {
	return &Engine{
		bundle: bundle,
		pool:   instance.NewPool(cfg.PoolCapacity),
	}
}

func (e *Engine) Bundle() *schema.Bundle { return e.bundle }
func (e *Engine) Pool() *instance.Pool   { return e.pool }

// Decode reads the message at offset, dispatching on the template id in its
// header. A header from another schema or an unregistered template yields
// recognized == false and no error. The returned tree is valid until the
// next Decode, DecodeTemplate, DecodeMessage or CreateEmpty on this engine.
func (e *Engine) Decode(buf []byte, offset int) (root *instance.Array, recognized bool, err error) {
	return e.decode(buf, offset, -1)
}

// DecodeTemplate is Decode restricted to one template id.
func (e *Engine) DecodeTemplate(templateID int, buf []byte, offset int) (*instance.Array, bool, error) {
	if templateID < 0 {
		return nil, false, nil
	}
	return e.decode(buf, offset, templateID)
}

func (e *Engine) decode(buf []byte, offset, want int) (*instance.Array, bool, error) {
	mh := e.bundle.MessageHeader
	if offset < 0 || offset+mh.Size() > len(buf) {
		return nil, false, fmt.Errorf("%w: message header at %d", ErrTruncatedMessage, offset)
	}
	h, err := mh.Get(buf, e.bundle.Order, offset)
	if err != nil {
		return nil, false, err
	}
	if h.SchemaID != e.bundle.SchemaID {
		return nil, false, nil
	}
	if want >= 0 && h.TemplateID != want {
		return nil, false, nil
	}
	def, ok := e.bundle.Message(h.TemplateID)
	if !ok {
		return nil, false, nil
	}
	root, err := e.DecodeMessage(def, buf, offset)
	if err != nil {
		return nil, true, err
	}
	return root, true, nil
}

// DecodeMessage decodes the message at offset against def without looking
// at the header's schema or template id.
func (e *Engine) DecodeMessage(def *field.Definition, buf []byte, offset int) (*instance.Array, error) {
	e.pool.ResetAll()
	return e.decodeRoot(def, buf, offset)
}

// CreateEmpty writes a fresh message header and an empty body at offset and
// returns the same tree a decode of those bytes would produce.
func (e *Engine) CreateEmpty(templateID int, buf []byte, offset int) (*instance.Array, error) {
	def, ok := e.bundle.Message(templateID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTemplate, templateID)
	}
	if err := checkEmptyHeaders(def); err != nil {
		return nil, err
	}
	mh := def.MessageHeader()
	hs := mh.Size()
	total := hs + def.EmptyRowSize()
	if offset < 0 || offset+total > len(buf) {
		return nil, fmt.Errorf("%w: need %d bytes at %d, capacity %d", ErrBufferOverflow, total, offset, len(buf))
	}

	fields := header.MessageFields{
		BlockLength: def.BlockSize(),
		TemplateID:  def.ID(),
		SchemaID:    e.bundle.SchemaID,
		Version:     e.bundle.Version,
	}
	if err := mh.Check(fields); err != nil {
		return nil, err
	}

	e.pool.ResetAll()
	order := e.bundle.Order
	clear(buf[offset : offset+total])
	if err := mh.Put(buf, order, offset, fields); err != nil {
		return nil, err
	}

	root := e.pool.Lease()
	root.Bind(def, buf, order, offset, nil, 0)
	idx := root.AppendRow(offset, offset+hs, def.BlockSize())
	end, err := e.initEmpty(root, idx, offset+hs+def.BlockSize())
	if err != nil {
		return nil, err
	}
	root.Row(idx).Size = end - (offset + hs)
	return root, nil
}

// MessageSize is the number of bytes the decoded message occupies,
// message header included.
func MessageSize(root *instance.Array) int {
	return root.Span()
}
