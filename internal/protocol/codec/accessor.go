package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/danmuck/blockwire/internal/protocol/field"
	"github.com/danmuck/blockwire/internal/protocol/instance"
)

// View reads and writes the fields of one row. It holds the array and a row
// index, so it stays usable across edits that move the row.
type View struct {
	a   *instance.Array
	row int
}

// NewView binds a view to row i of a.
func NewView(a *instance.Array, i int) (View, error) {
	if a == nil || i < 0 || i >= a.Len() {
		return View{}, fmt.Errorf("%w: row %d", ErrIndexOutOfRange, i)
	}
	return View{a: a, row: i}, nil
}

// View binds a view to row i of a, which must belong to the tree this
// engine last decoded or created.
func (e *Engine) View(a *instance.Array, i int) (View, error) {
	return NewView(a, i)
}

func (v View) Array() *instance.Array { return v.a }
func (v View) Index() int             { return v.row }
func (v View) Row() *instance.Row     { return v.a.Row(v.row) }

func (v View) order() binary.ByteOrder { return v.a.Order() }

var errNilField = fmt.Errorf("%w: nil field", ErrFieldNotInGroup)

// owns reports whether rows of this view carry f.
func (v View) owns(f *field.Definition) error {
	if f == nil {
		return errNilField
	}
	if !v.a.Def().Owns(f) {
		return fmt.Errorf("%w: %s in %s", ErrFieldNotInGroup, f.Name(), v.a.Def().Path())
	}
	return nil
}

// element returns the bytes of element i of f, either from the buffer or
// from a constant's literal.
func (v View) element(f *field.Definition, i int, kind field.Kind) ([]byte, error) {
	if err := v.owns(f); err != nil {
		return nil, err
	}
	if f.Kind() == field.Constant {
		if f.ConstKind() != kind {
			return nil, fmt.Errorf("%w: %s is a %s constant, not %s", ErrKindMismatch, f.Name(), f.ConstKind(), kind)
		}
		w := kind.Size()
		lit := f.ConstValue()
		if i < 0 || (i+1)*w > len(lit) {
			return nil, fmt.Errorf("%w: %s[%d]", ErrIndexOutOfRange, f.Name(), i)
		}
		return lit[i*w : (i+1)*w], nil
	}
	return v.slot(f, i, kind)
}

// writable is element without the constant path.
func (v View) writable(f *field.Definition, i int, kind field.Kind) ([]byte, error) {
	if err := v.owns(f); err != nil {
		return nil, err
	}
	if f.Kind() == field.Constant {
		return nil, fmt.Errorf("%w: %s", ErrReadOnly, f.Name())
	}
	return v.slot(f, i, kind)
}

func (v View) slot(f *field.Definition, i int, kind field.Kind) ([]byte, error) {
	if f.Kind() != kind {
		return nil, fmt.Errorf("%w: %s is %s, not %s", ErrKindMismatch, f.Name(), f.Kind(), kind)
	}
	if i < 0 || i >= f.ArrayLength() {
		return nil, fmt.Errorf("%w: %s[%d]", ErrIndexOutOfRange, f.Name(), i)
	}
	at := v.fieldOffset(f) + i*kind.Size()
	return v.a.Buffer()[at : at+kind.Size()], nil
}

func (v View) fieldOffset(f *field.Definition) int {
	off := v.a.Row(v.row).ValueOffset + f.Offset()
	if p := f.Parent(); p != v.a.Def() {
		off += p.Offset()
	}
	return off
}

func (v View) Char(f *field.Definition) (byte, error) { return v.CharAt(f, 0) }
func (v View) CharAt(f *field.Definition, i int) (byte, error) {
	b, err := v.element(f, i, field.Char)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}
func (v View) SetChar(f *field.Definition, x byte) error { return v.SetCharAt(f, 0, x) }
func (v View) SetCharAt(f *field.Definition, i int, x byte) error {
	b, err := v.writable(f, i, field.Char)
	if err != nil {
		return err
	}
	b[0] = x
	return nil
}

func (v View) Byte(f *field.Definition) (byte, error) { return v.ByteAt(f, 0) }
func (v View) ByteAt(f *field.Definition, i int) (byte, error) {
	b, err := v.element(f, i, field.Byte)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}
func (v View) SetByte(f *field.Definition, x byte) error { return v.SetByteAt(f, 0, x) }
func (v View) SetByteAt(f *field.Definition, i int, x byte) error {
	b, err := v.writable(f, i, field.Byte)
	if err != nil {
		return err
	}
	b[0] = x
	return nil
}

func (v View) Int8(f *field.Definition) (int8, error) { return v.Int8At(f, 0) }
func (v View) Int8At(f *field.Definition, i int) (int8, error) {
	b, err := v.element(f, i, field.Int8)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}
func (v View) SetInt8(f *field.Definition, x int8) error { return v.SetInt8At(f, 0, x) }
func (v View) SetInt8At(f *field.Definition, i int, x int8) error {
	b, err := v.writable(f, i, field.Int8)
	if err != nil {
		return err
	}
	b[0] = byte(x)
	return nil
}

func (v View) Uint8(f *field.Definition) (uint8, error) { return v.Uint8At(f, 0) }
func (v View) Uint8At(f *field.Definition, i int) (uint8, error) {
	b, err := v.element(f, i, field.Uint8)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}
func (v View) SetUint8(f *field.Definition, x uint8) error { return v.SetUint8At(f, 0, x) }
func (v View) SetUint8At(f *field.Definition, i int, x uint8) error {
	b, err := v.writable(f, i, field.Uint8)
	if err != nil {
		return err
	}
	b[0] = x
	return nil
}

func (v View) Int16(f *field.Definition) (int16, error) { return v.Int16At(f, 0) }
func (v View) Int16At(f *field.Definition, i int) (int16, error) {
	b, err := v.element(f, i, field.Int16)
	if err != nil {
		return 0, err
	}
	return int16(v.order().Uint16(b)), nil
}
func (v View) SetInt16(f *field.Definition, x int16) error { return v.SetInt16At(f, 0, x) }
func (v View) SetInt16At(f *field.Definition, i int, x int16) error {
	b, err := v.writable(f, i, field.Int16)
	if err != nil {
		return err
	}
	v.order().PutUint16(b, uint16(x))
	return nil
}

func (v View) Uint16(f *field.Definition) (uint16, error) { return v.Uint16At(f, 0) }
func (v View) Uint16At(f *field.Definition, i int) (uint16, error) {
	b, err := v.element(f, i, field.Uint16)
	if err != nil {
		return 0, err
	}
	return v.order().Uint16(b), nil
}
func (v View) SetUint16(f *field.Definition, x uint16) error { return v.SetUint16At(f, 0, x) }
func (v View) SetUint16At(f *field.Definition, i int, x uint16) error {
	b, err := v.writable(f, i, field.Uint16)
	if err != nil {
		return err
	}
	v.order().PutUint16(b, x)
	return nil
}

func (v View) Int32(f *field.Definition) (int32, error) { return v.Int32At(f, 0) }
func (v View) Int32At(f *field.Definition, i int) (int32, error) {
	b, err := v.element(f, i, field.Int32)
	if err != nil {
		return 0, err
	}
	return int32(v.order().Uint32(b)), nil
}
func (v View) SetInt32(f *field.Definition, x int32) error { return v.SetInt32At(f, 0, x) }
func (v View) SetInt32At(f *field.Definition, i int, x int32) error {
	b, err := v.writable(f, i, field.Int32)
	if err != nil {
		return err
	}
	v.order().PutUint32(b, uint32(x))
	return nil
}

func (v View) Uint32(f *field.Definition) (uint32, error) { return v.Uint32At(f, 0) }
func (v View) Uint32At(f *field.Definition, i int) (uint32, error) {
	b, err := v.element(f, i, field.Uint32)
	if err != nil {
		return 0, err
	}
	return v.order().Uint32(b), nil
}
func (v View) SetUint32(f *field.Definition, x uint32) error { return v.SetUint32At(f, 0, x) }
func (v View) SetUint32At(f *field.Definition, i int, x uint32) error {
	b, err := v.writable(f, i, field.Uint32)
	if err != nil {
		return err
	}
	v.order().PutUint32(b, x)
	return nil
}

func (v View) Int64(f *field.Definition) (int64, error) { return v.Int64At(f, 0) }
func (v View) Int64At(f *field.Definition, i int) (int64, error) {
	b, err := v.element(f, i, field.Int64)
	if err != nil {
		return 0, err
	}
	return int64(v.order().Uint64(b)), nil
}
func (v View) SetInt64(f *field.Definition, x int64) error { return v.SetInt64At(f, 0, x) }
func (v View) SetInt64At(f *field.Definition, i int, x int64) error {
	b, err := v.writable(f, i, field.Int64)
	if err != nil {
		return err
	}
	v.order().PutUint64(b, uint64(x))
	return nil
}

func (v View) Uint64(f *field.Definition) (uint64, error) { return v.Uint64At(f, 0) }
func (v View) Uint64At(f *field.Definition, i int) (uint64, error) {
	b, err := v.element(f, i, field.Uint64)
	if err != nil {
		return 0, err
	}
	return v.order().Uint64(b), nil
}
func (v View) SetUint64(f *field.Definition, x uint64) error { return v.SetUint64At(f, 0, x) }
func (v View) SetUint64At(f *field.Definition, i int, x uint64) error {
	b, err := v.writable(f, i, field.Uint64)
	if err != nil {
		return err
	}
	v.order().PutUint64(b, x)
	return nil
}

func (v View) Float(f *field.Definition) (float32, error) { return v.FloatAt(f, 0) }
func (v View) FloatAt(f *field.Definition, i int) (float32, error) {
	b, err := v.element(f, i, field.Float)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v.order().Uint32(b)), nil
}
func (v View) SetFloat(f *field.Definition, x float32) error { return v.SetFloatAt(f, 0, x) }
func (v View) SetFloatAt(f *field.Definition, i int, x float32) error {
	b, err := v.writable(f, i, field.Float)
	if err != nil {
		return err
	}
	v.order().PutUint32(b, math.Float32bits(x))
	return nil
}

func (v View) Double(f *field.Definition) (float64, error) { return v.DoubleAt(f, 0) }
func (v View) DoubleAt(f *field.Definition, i int) (float64, error) {
	b, err := v.element(f, i, field.Double)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v.order().Uint64(b)), nil
}
func (v View) SetDouble(f *field.Definition, x float64) error { return v.SetDoubleAt(f, 0, x) }
func (v View) SetDoubleAt(f *field.Definition, i int, x float64) error {
	b, err := v.writable(f, i, field.Double)
	if err != nil {
		return err
	}
	v.order().PutUint64(b, math.Float64bits(x))
	return nil
}

// Int reads element i of any integer field widened into an int64. Unsigned
// values are masked to their width; uint64 keeps its bit pattern.
func (v View) Int(f *field.Definition) (int64, error) { return v.IntAt(f, 0) }
func (v View) IntAt(f *field.Definition, i int) (int64, error) {
	if f == nil {
		return 0, errNilField
	}
	kind := f.Kind()
	if kind == field.Constant {
		kind = f.ConstKind()
	}
	switch kind {
	case field.Int8:
		x, err := v.Int8At(f, i)
		return int64(x), err
	case field.Uint8:
		x, err := v.Uint8At(f, i)
		return int64(x) & 0xff, err
	case field.Int16:
		x, err := v.Int16At(f, i)
		return int64(x), err
	case field.Uint16:
		x, err := v.Uint16At(f, i)
		return int64(x) & 0xffff, err
	case field.Int32:
		x, err := v.Int32At(f, i)
		return int64(x), err
	case field.Uint32:
		x, err := v.Uint32At(f, i)
		return int64(x) & 0xffffffff, err
	case field.Int64:
		return v.Int64At(f, i)
	case field.Uint64:
		x, err := v.Uint64At(f, i)
		return int64(x), err
	}
	return 0, fmt.Errorf("%w: %s is %s, not an integer", ErrKindMismatch, f.Name(), kind)
}

// SetInt writes x into element i of any integer field after checking it
// fits the field's width.
func (v View) SetInt(f *field.Definition, x int64) error { return v.SetIntAt(f, 0, x) }
func (v View) SetIntAt(f *field.Definition, i int, x int64) error {
	if f == nil {
		return errNilField
	}
	kind := f.Kind()
	if kind == field.Constant {
		return fmt.Errorf("%w: %s", ErrReadOnly, f.Name())
	}
	if !intFits(kind, x) {
		return fmt.Errorf("%w: %d for %s %s", ErrValueOutOfRange, x, kind, f.Name())
	}
	switch kind {
	case field.Int8:
		return v.SetInt8At(f, i, int8(x))
	case field.Uint8:
		return v.SetUint8At(f, i, uint8(x))
	case field.Int16:
		return v.SetInt16At(f, i, int16(x))
	case field.Uint16:
		return v.SetUint16At(f, i, uint16(x))
	case field.Int32:
		return v.SetInt32At(f, i, int32(x))
	case field.Uint32:
		return v.SetUint32At(f, i, uint32(x))
	case field.Int64:
		return v.SetInt64At(f, i, x)
	case field.Uint64:
		return v.SetUint64At(f, i, uint64(x))
	}
	return fmt.Errorf("%w: %s is %s, not an integer", ErrKindMismatch, f.Name(), kind)
}

func intFits(kind field.Kind, x int64) bool {
	switch kind {
	case field.Int8:
		return x >= math.MinInt8 && x <= math.MaxInt8
	case field.Uint8:
		return x >= 0 && x <= math.MaxUint8
	case field.Int16:
		return x >= math.MinInt16 && x <= math.MaxInt16
	case field.Uint16:
		return x >= 0 && x <= math.MaxUint16
	case field.Int32:
		return x >= math.MinInt32 && x <= math.MaxInt32
	case field.Uint32:
		return x >= 0 && x <= math.MaxUint32
	case field.Uint64:
		return x >= 0
	}
	return true
}

// String reads a char array up to its first NUL.
func (v View) String(f *field.Definition) (string, error) {
	b, err := v.Bytes(f)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b), nil
}

// SetString writes s into a char array and NUL-pads the rest.
func (v View) SetString(f *field.Definition, s string) error {
	b, err := v.span(f, true)
	if err != nil {
		return err
	}
	if f.Kind() != field.Char {
		return fmt.Errorf("%w: %s is %s, not char", ErrKindMismatch, f.Name(), f.Kind())
	}
	if len(s) > len(b) {
		return fmt.Errorf("%w: %d > %d", ErrValueTooLong, len(s), len(b))
	}
	n := copy(b, s)
	clear(b[n:])
	return nil
}

// Bytes returns the whole array of a char or byte field, or a constant's
// literal. Buffer-backed slices alias the message.
func (v View) Bytes(f *field.Definition) ([]byte, error) {
	if f != nil && f.Kind() == field.Constant {
		if err := v.owns(f); err != nil {
			return nil, err
		}
		return f.ConstValue(), nil
	}
	return v.span(f, false)
}

// SetBytes copies p into a byte or char array and zero-pads the rest.
func (v View) SetBytes(f *field.Definition, p []byte) error {
	b, err := v.span(f, true)
	if err != nil {
		return err
	}
	if len(p) > len(b) {
		return fmt.Errorf("%w: %d > %d", ErrValueTooLong, len(p), len(b))
	}
	n := copy(b, p)
	clear(b[n:])
	return nil
}

func (v View) span(f *field.Definition, write bool) ([]byte, error) {
	if err := v.owns(f); err != nil {
		return nil, err
	}
	if write && f.Kind() == field.Constant {
		return nil, fmt.Errorf("%w: %s", ErrReadOnly, f.Name())
	}
	if f.Kind() != field.Char && f.Kind() != field.Byte {
		return nil, fmt.Errorf("%w: %s is %s, not char or byte", ErrKindMismatch, f.Name(), f.Kind())
	}
	at := v.fieldOffset(f)
	return v.a.Buffer()[at : at+f.Size()], nil
}

// Child returns the nested group or raw array of f in this row.
func (v View) Child(f *field.Definition) (*instance.Array, error) {
	if f == nil {
		return nil, errNilField
	}
	if f.Parent() != v.a.Def() || !f.Kind().IsVariable() {
		return nil, fmt.Errorf("%w: %s in %s", ErrFieldNotInGroup, f.Name(), v.a.Def().Path())
	}
	child := v.a.Row(v.row).Child(f.Slot())
	if child == nil {
		return nil, fmt.Errorf("%w: %s not decoded", ErrFieldNotInGroup, f.Name())
	}
	return child, nil
}

// Raw returns the bytes of raw field f in this row. The slice aliases the
// message.
func (v View) Raw(f *field.Definition) ([]byte, error) {
	if f == nil {
		return nil, errNilField
	}
	if f.Kind() != field.Raw {
		return nil, fmt.Errorf("%w: %s is %s, not raw", ErrKindMismatch, f.Name(), f.Kind())
	}
	child, err := v.Child(f)
	if err != nil {
		return nil, err
	}
	return child.Bytes(), nil
}
