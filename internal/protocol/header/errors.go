package header

import "errors"

var (
	ErrUnsupportedHeaderWidth = errors.New("header: unsupported sub-field width")
	ErrSubFieldCount          = errors.New("header: wrong sub-field count")
	ErrSubFieldIndex          = errors.New("header: sub-field index out of range")
	ErrShortBuffer            = errors.New("header: short buffer")
	ErrValueOutOfRange        = errors.New("header: value out of range")
)
