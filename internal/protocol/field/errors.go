package field

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateFieldID   = errors.New("field: duplicate field id")
	ErrInvalidArrayLength = errors.New("field: invalid array length")
	ErrIllegalChildKind   = errors.New("field: illegal child kind")
	ErrFieldOrder         = errors.New("field: fixed fields must precede groups, groups must precede raw fields")
	ErrConstantValue      = errors.New("field: invalid constant value")
)

// BuildError reports a schema tree that cannot be built. It is fatal and
// only raised while a schema is being loaded.
type BuildError struct {
	Parent  string
	FieldID int
	Name    string
	Err     error
}

func (e *BuildError) Error() string {
	if e.Parent == "" {
		return fmt.Sprintf("field: build %s (id=%d): %v", e.Name, e.FieldID, e.Err)
	}
	return fmt.Sprintf("field: build %s.%s (id=%d): %v", e.Parent, e.Name, e.FieldID, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
