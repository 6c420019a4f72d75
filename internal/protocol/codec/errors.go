package codec

import "errors"

var (
	ErrTruncatedMessage = errors.New("codec: truncated message")
	ErrSchemaMismatch   = errors.New("codec: block length below schema block size")
	ErrBufferOverflow   = errors.New("codec: buffer overflow")
	ErrUnknownTemplate  = errors.New("codec: unknown template id")
	ErrFieldNotInGroup  = errors.New("codec: field not in group")
	ErrKindMismatch     = errors.New("codec: field kind mismatch")
	ErrIndexOutOfRange  = errors.New("codec: index out of range")
	ErrNotGroup         = errors.New("codec: array is not a group")
	ErrNotRaw           = errors.New("codec: array is not a raw field")
	ErrReadOnly         = errors.New("codec: constant fields are read-only")
	ErrValueTooLong     = errors.New("codec: value longer than field")
	ErrValueOutOfRange  = errors.New("codec: value out of range for field")
)
