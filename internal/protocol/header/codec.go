package header

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SubField is one integer slot of a header. Width is 1 or 2 bytes.
type SubField struct {
	Name   string
	Width  int
	Signed bool
}

func U8(name string) SubField  { return SubField{Name: name, Width: 1} }
func U16(name string) SubField { return SubField{Name: name, Width: 2} }
func I8(name string) SubField  { return SubField{Name: name, Width: 1, Signed: true} }
func I16(name string) SubField { return SubField{Name: name, Width: 2, Signed: true} }

// Min returns the smallest value the sub-field can carry.
func (f SubField) Min() int {
	if !f.Signed {
		return 0
	}
	switch f.Width {
	case 1:
		return math.MinInt8
	case 2:
		return math.MinInt16
	}
	return 0
}

// Max returns the largest value the sub-field can carry.
func (f SubField) Max() int {
	switch {
	case f.Width == 1 && f.Signed:
		return math.MaxInt8
	case f.Width == 1:
		return math.MaxUint8
	case f.Width == 2 && f.Signed:
		return math.MaxInt16
	case f.Width == 2:
		return math.MaxUint16
	}
	return 0
}

func (f SubField) validate() error {
	if f.Width != 1 && f.Width != 2 {
		return fmt.Errorf("%w: %s width=%d", ErrUnsupportedHeaderWidth, f.Name, f.Width)
	}
	return nil
}

// Codec reads and writes a fixed sequence of sub-fields. The zero value
// is an empty header of size 0.
type Codec struct {
	fields  []SubField
	offsets []int
	size    int
}

// NewCodec lays out fields back to back in declaration order.
func NewCodec(fields ...SubField) (Codec, error) {
	c := Codec{
		fields:  make([]SubField, len(fields)),
		offsets: make([]int, len(fields)),
	}
	for i, f := range fields {
		if err := f.validate(); err != nil {
			return Codec{}, err
		}
		c.fields[i] = f
		c.offsets[i] = c.size
		c.size += f.Width
	}
	return c, nil
}

// Size is the total header width in bytes.
func (c Codec) Size() int { return c.size }

// Len is the number of sub-fields.
func (c Codec) Len() int { return len(c.fields) }

// Field returns the i-th sub-field descriptor.
func (c Codec) Field(i int) SubField { return c.fields[i] }

// Read decodes sub-field index of the header starting at offset.
func (c Codec) Read(buf []byte, order binary.ByteOrder, offset, index int) (int, error) {
	if index < 0 || index >= len(c.fields) {
		return 0, ErrSubFieldIndex
	}
	f := c.fields[index]
	at := offset + c.offsets[index]
	if at < 0 || at+f.Width > len(buf) {
		return 0, ErrShortBuffer
	}
	switch f.Width {
	case 1:
		if f.Signed {
			return int(int8(buf[at])), nil
		}
		return int(buf[at]), nil
	case 2:
		v := order.Uint16(buf[at:])
		if f.Signed {
			return int(int16(v)), nil
		}
		return int(v), nil
	default:
		return 0, ErrUnsupportedHeaderWidth
	}
}

// Write encodes v into sub-field index of the header starting at offset.
func (c Codec) Write(buf []byte, order binary.ByteOrder, offset, index, v int) error {
	if index < 0 || index >= len(c.fields) {
		return ErrSubFieldIndex
	}
	f := c.fields[index]
	if v < f.Min() || v > f.Max() {
		return fmt.Errorf("%w: %s=%d", ErrValueOutOfRange, f.Name, v)
	}
	at := offset + c.offsets[index]
	if at < 0 || at+f.Width > len(buf) {
		return ErrShortBuffer
	}
	switch f.Width {
	case 1:
		buf[at] = byte(v)
	case 2:
		order.PutUint16(buf[at:], uint16(v))
	default:
		return ErrUnsupportedHeaderWidth
	}
	return nil
}

// Fits reports whether v can be stored in sub-field index.
func (c Codec) Fits(index, v int) bool {
	if index < 0 || index >= len(c.fields) {
		return false
	}
	f := c.fields[index]
	return v >= f.Min() && v <= f.Max()
}

func newFixed(name string, want int, fields []SubField) (Codec, error) {
	if len(fields) != want {
		return Codec{}, fmt.Errorf("%w: %s header wants %d, got %d", ErrSubFieldCount, name, want, len(fields))
	}
	return NewCodec(fields...)
}
