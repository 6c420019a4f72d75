package field

import (
	"fmt"
	"strings"
)

// Kind is the wire kind of a field definition.
type Kind uint8

const (
	KindInvalid Kind = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float
	Double
	Char
	Byte
	Raw
	Constant
	Composite
	Group
	Message
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	Int8:        "int8",
	Int16:       "int16",
	Int32:       "int32",
	Int64:       "int64",
	Uint8:       "uint8",
	Uint16:      "uint16",
	Uint32:      "uint32",
	Uint64:      "uint64",
	Float:       "float",
	Double:      "double",
	Char:        "char",
	Byte:        "byte",
	Raw:         "raw",
	Constant:    "constant",
	Composite:   "composite",
	Group:       "group",
	Message:     "message",
}

// Size returns the fixed wire width of one element. Kinds whose extent
// is only known at build or decode time report 0.
func (k Kind) Size() int {
	switch k {
	case Int8, Uint8, Char, Byte:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float:
		return 4
	case Int64, Uint64, Double:
		return 8
	default:
		return 0
	}
}

// IsPrimitive reports whether k is a fixed-width scalar kind.
func (k Kind) IsPrimitive() bool {
	return k.Size() > 0
}

// IsInteger reports whether k is a signed or unsigned integer kind.
func (k Kind) IsInteger() bool {
	switch k {
	case Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64:
		return true
	}
	return false
}

// IsUnsigned reports whether k is an unsigned integer kind.
func (k Kind) IsUnsigned() bool {
	switch k {
	case Uint8, Uint16, Uint32, Uint64:
		return true
	}
	return false
}

// IsFixed reports whether k lives in its parent's fixed block.
func (k Kind) IsFixed() bool {
	return k.IsPrimitive() || k == Composite || k == Constant
}

// IsVariable reports whether k follows the fixed block on the wire.
func (k Kind) IsVariable() bool {
	return k == Group || k == Raw
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a schema document type name onto a Kind.
func ParseKind(raw string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch name {
	case "u8":
		return Uint8, nil
	case "u16":
		return Uint16, nil
	case "u32":
		return Uint32, nil
	case "u64":
		return Uint64, nil
	case "i8":
		return Int8, nil
	case "i16":
		return Int16, nil
	case "i32":
		return Int32, nil
	case "i64":
		return Int64, nil
	case "float32":
		return Float, nil
	case "float64":
		return Double, nil
	case "data", "vardata":
		return Raw, nil
	}
	for k, n := range kindNames {
		if k != int(KindInvalid) && n == name {
			return Kind(k), nil
		}
	}
	return KindInvalid, fmt.Errorf("field: unknown kind %q", raw)
}
