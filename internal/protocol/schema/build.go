package schema

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/danmuck/blockwire/internal/protocol/field"
	"github.com/danmuck/blockwire/internal/protocol/header"
)

// Build turns a decoded document into a bundle with every message
// registered.
func Build(doc *Document) (*Bundle, error) {
	if doc == nil || len(doc.Messages) == 0 {
		return nil, ErrNoMessages
	}
	order, err := parseByteOrder(doc.ByteOrder)
	if err != nil {
		return nil, err
	}
	h, err := doc.Headers.build()
	if err != nil {
		return nil, err
	}

	b := NewBundle(doc.SchemaID, doc.Version, order, h)
	b.Name = doc.Name
	fb := b.Builder()
	for _, m := range doc.Messages {
		def := fb.NewMessage(m.ID, m.Name)
		if err := addFields(fb, def, m.Fields, order); err != nil {
			var de *DocumentError
			if errors.As(err, &de) {
				return nil, err
			}
			return nil, &DocumentError{Message: m.Name, Err: err}
		}
		if err := b.Register(def); err != nil {
			return nil, &DocumentError{Message: m.Name, Err: err}
		}
	}
	return b, nil
}

func addFields(fb *field.Builder, parent *field.Definition, docs []FieldDoc, order binary.ByteOrder) error {
	for _, fd := range docs {
		if err := addField(fb, parent, fd, order); err != nil {
			return err
		}
	}
	return nil
}

func addField(fb *field.Builder, parent *field.Definition, fd FieldDoc, order binary.ByteOrder) error {
	kind, err := field.ParseKind(fd.Type)
	if err != nil {
		return fieldErr(parent, fd, err)
	}
	if kind == field.Constant {
		ck, err := field.ParseKind(fd.ConstType)
		if err != nil {
			return fieldErr(parent, fd, err)
		}
		lit, err := encodeConstant(ck, fd.Value, order)
		if err != nil {
			return fieldErr(parent, fd, err)
		}
		_, err = fb.AddConstant(parent, fd.ID, fd.Name, ck, lit)
		return err
	}

	length := fd.Length
	if length == 0 {
		length = 1
	}
	def, err := fb.AddField(parent, fd.ID, fd.Name, kind, length)
	if err != nil {
		return err
	}
	switch kind {
	case field.Group, field.Composite:
		return addFields(fb, def, fd.Fields, order)
	}
	if len(fd.Fields) > 0 {
		return fieldErr(parent, fd, fmt.Errorf("%w: %s", ErrNestedFields, kind))
	}
	return nil
}

func fieldErr(parent *field.Definition, fd FieldDoc, err error) error {
	name := fd.Name
	if parent != nil && parent.Kind() != field.Message {
		name = parent.Name() + "." + name
	}
	return &DocumentError{Message: messageOf(parent), Field: name, Err: err}
}

func messageOf(d *field.Definition) string {
	for d != nil && d.Parent() != nil {
		d = d.Parent()
	}
	if d == nil {
		return ""
	}
	return d.Name()
}

func parseByteOrder(raw string) (binary.ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "little", "little_endian", "le":
		return binary.LittleEndian, nil
	case "big", "big_endian", "be":
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrByteOrder, raw)
}

func (h HeadersDoc) build() (field.Headers, error) {
	var out field.Headers
	m := h.Message
	subs, err := subFields(
		[]string{"blockLength", "templateId", "schemaId", "version"},
		[]string{m.BlockLength, m.TemplateID, m.SchemaID, m.Version},
	)
	if err != nil {
		return out, err
	}
	if out.Message, err = header.NewMessage(subs[0], subs[1], subs[2], subs[3]); err != nil {
		return out, err
	}

	subs, err = subFields(
		[]string{"blockLength", "numInGroup"},
		[]string{h.Group.BlockLength, h.Group.NumInGroup},
	)
	if err != nil {
		return out, err
	}
	if out.Group, err = header.NewGroup(subs[0], subs[1]); err != nil {
		return out, err
	}

	subs, err = subFields([]string{"length"}, []string{h.VarLength.Length})
	if err != nil {
		return out, err
	}
	if out.VarLength, err = header.NewVarLength(subs[0]); err != nil {
		return out, err
	}
	return out, nil
}

func subFields(names, raws []string) ([]header.SubField, error) {
	out := make([]header.SubField, len(names))
	for i, raw := range raws {
		if strings.TrimSpace(raw) == "" {
			out[i] = header.U16(names[i])
			continue
		}
		kind, err := field.ParseKind(raw)
		if err != nil || !kind.IsInteger() {
			return nil, fmt.Errorf("%w: %s=%q", ErrHeaderWidth, names[i], raw)
		}
		out[i] = header.SubField{Name: names[i], Width: kind.Size(), Signed: !kind.IsUnsigned()}
	}
	return out, nil
}

// encodeConstant lays a document literal out the way the field would appear
// on the wire.
func encodeConstant(kind field.Kind, value any, order binary.ByteOrder) ([]byte, error) {
	if kind == field.Char || kind == field.Byte {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s wants a string, got %T", ErrConstant, kind, value)
		}
		return []byte(s), nil
	}

	lit := make([]byte, kind.Size())
	switch kind {
	case field.Float:
		f, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("%w: %v is not a number", ErrConstant, value)
		}
		order.PutUint32(lit, math.Float32bits(float32(f)))
		return lit, nil
	case field.Double:
		f, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("%w: %v is not a number", ErrConstant, value)
		}
		order.PutUint64(lit, math.Float64bits(f))
		return lit, nil
	}

	n, ok := toInt(value)
	if !ok || !intFits(kind, n) {
		return nil, fmt.Errorf("%w: %v does not fit %s", ErrConstant, value, kind)
	}
	switch kind.Size() {
	case 1:
		lit[0] = byte(n)
	case 2:
		order.PutUint16(lit, uint16(n))
	case 4:
		order.PutUint32(lit, uint32(n))
	case 8:
		order.PutUint64(lit, uint64(n))
	}
	return lit, nil
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int64(x), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func intFits(kind field.Kind, n int64) bool {
	bits := uint(kind.Size() * 8)
	if kind.IsUnsigned() {
		return n >= 0 && (bits == 64 || n < int64(1)<<bits)
	}
	if bits == 64 {
		return true
	}
	return n >= -(int64(1)<<(bits-1)) && n < int64(1)<<(bits-1)
}
