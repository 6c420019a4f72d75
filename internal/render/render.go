// Package render turns a decoded instance tree into plain values and
// encodes them for people and tools.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"

	"github.com/danmuck/blockwire/internal/protocol/codec"
	"github.com/danmuck/blockwire/internal/protocol/field"
	"github.com/danmuck/blockwire/internal/protocol/instance"
)

var ErrUnknownFormat = errors.New("render: unknown output format")

const (
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

// Message is the rendered form of one decoded message.
type Message struct {
	Template int            `json:"template" cbor:"template"`
	Name     string         `json:"name" cbor:"name"`
	Size     int            `json:"size" cbor:"size"`
	Body     map[string]any `json:"body" cbor:"body"`
}

var cborMode = mustCBORMode()

func mustCBORMode() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}

// Tree reads every field of a decoded message.
func Tree(root *instance.Array) (*Message, error) {
	if root == nil || root.Def() == nil || root.Def().Kind() != field.Message {
		return nil, fmt.Errorf("render: not a message root")
	}
	body, err := record(root, 0)
	if err != nil {
		return nil, err
	}
	return &Message{
		Template: root.Def().ID(),
		Name:     root.Def().Name(),
		Size:     codec.MessageSize(root),
		Body:     body,
	}, nil
}

func record(a *instance.Array, row int) (map[string]any, error) {
	v, err := codec.NewView(a, row)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(a.Def().Children()))
	for _, f := range a.Def().Fixed() {
		x, err := value(v, f)
		if err != nil {
			return nil, err
		}
		out[f.Name()] = x
	}
	for _, f := range a.Def().Variable() {
		child, err := v.Child(f)
		if err != nil {
			return nil, err
		}
		if f.Kind() == field.Raw {
			out[f.Name()] = rawValue(child.Bytes())
			continue
		}
		rows := make([]map[string]any, 0, child.Len())
		for i := 0; i < child.Len(); i++ {
			r, err := record(child, i)
			if err != nil {
				return nil, err
			}
			rows = append(rows, r)
		}
		out[f.Name()] = rows
	}
	return out, nil
}

func value(v codec.View, f *field.Definition) (any, error) {
	kind := f.Kind()
	if kind == field.Constant {
		kind = f.ConstKind()
	}
	switch {
	case kind == field.Composite:
		out := make(map[string]any, len(f.Children()))
		for _, c := range f.Children() {
			x, err := value(v, c)
			if err != nil {
				return nil, err
			}
			out[c.Name()] = x
		}
		return out, nil
	case kind == field.Char:
		return v.String(f)
	case kind == field.Byte:
		b, err := v.Bytes(f)
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), b...), nil
	}

	n := f.ArrayLength()
	if n == 1 {
		return scalar(v, f, kind, 0)
	}
	out := make([]any, n)
	for i := range out {
		x, err := scalar(v, f, kind, i)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

func scalar(v codec.View, f *field.Definition, kind field.Kind, i int) (any, error) {
	switch kind {
	case field.Uint64:
		return v.Uint64At(f, i)
	case field.Float:
		x, err := v.FloatAt(f, i)
		if err != nil {
			return nil, err
		}
		// shortest float32 text, so 35.9 does not render as 35.900001525878906
		return strconv.ParseFloat(strconv.FormatFloat(float64(x), 'g', -1, 32), 64)
	case field.Double:
		return v.DoubleAt(f, i)
	}
	return v.IntAt(f, i)
}

// rawValue keeps readable payloads readable.
func rawValue(b []byte) any {
	if utf8.Valid(b) && !strings.ContainsRune(string(b), 0) {
		return string(b)
	}
	return append([]byte(nil), b...)
}

// JSON encodes m, indented when indent is set.
func JSON(m *Message, indent bool) ([]byte, error) {
	if indent {
		return json.MarshalIndent(m, "", "  ")
	}
	return json.Marshal(m)
}

// CBOR encodes m with core deterministic encoding.
func CBOR(m *Message) ([]byte, error) {
	return cborMode.Marshal(m)
}

// Encode writes m to w in the named format.
func Encode(w io.Writer, format string, m *Message) error {
	var (
		out []byte
		err error
	)
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		out, err = JSON(m, true)
		if err == nil {
			out = append(out, '\n')
		}
	case FormatCBOR:
		out, err = CBOR(m)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", m.Name, err)
	}
	_, err = w.Write(out)
	return err
}
