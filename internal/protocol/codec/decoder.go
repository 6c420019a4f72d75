package codec

import (
	"fmt"

	"github.com/danmuck/blockwire/internal/protocol/field"
	"github.com/danmuck/blockwire/internal/protocol/header"
	"github.com/danmuck/blockwire/internal/protocol/instance"
)

// decodeRoot walks the message left to right. Every offset is derived from
// the bytes physically before it, so the walk never backtracks.
func (e *Engine) decodeRoot(def *field.Definition, buf []byte, offset int) (*instance.Array, error) {
	order := e.bundle.Order
	mh := def.MessageHeader()
	hs := mh.Size()
	if offset < 0 || offset+hs > len(buf) {
		return nil, fmt.Errorf("%w: message header at %d", ErrTruncatedMessage, offset)
	}
	blockLength, err := mh.Read(buf, order, offset, header.MessageBlockLength)
	if err != nil {
		return nil, err
	}
	if blockLength < def.BlockSize() {
		return nil, fmt.Errorf("%w: %s block length %d < %d", ErrSchemaMismatch, def.Name(), blockLength, def.BlockSize())
	}
	value := offset + hs
	if value+blockLength > len(buf) {
		return nil, fmt.Errorf("%w: %s block ends at %d, capacity %d", ErrTruncatedMessage, def.Name(), value+blockLength, len(buf))
	}

	root := e.pool.Lease()
	root.Bind(def, buf, order, offset, nil, 0)
	root.SetRowBlockSize(blockLength)
	idx := root.AppendRow(offset, value, blockLength)
	cursor, err := e.decodeTrailing(root, idx, value+blockLength)
	if err != nil {
		return nil, err
	}
	root.Row(idx).Size = cursor - value
	return root, nil
}

// decodeTrailing decodes the groups and raw fields that follow the fixed
// block of row idx, starting at cursor, and returns the cursor after them.
func (e *Engine) decodeTrailing(a *instance.Array, idx, cursor int) (int, error) {
	var (
		child *instance.Array
		err   error
	)
	for _, def := range a.Def().Variable() {
		switch def.Kind() {
		case field.Group:
			child, cursor, err = e.decodeGroup(a, idx, def, cursor)
		case field.Raw:
			child, cursor, err = e.decodeRaw(a, idx, def, cursor)
		}
		if err != nil {
			return 0, err
		}
		a.AttachChild(idx, child)
	}
	return cursor, nil
}

func (e *Engine) decodeGroup(parent *instance.Array, parentRow int, def *field.Definition, cursor int) (*instance.Array, int, error) {
	buf := parent.Buffer()
	order := parent.Order()
	gh := def.GroupHeader()
	hs := gh.Size()
	if cursor+hs > len(buf) {
		return nil, 0, fmt.Errorf("%w: %s header at %d", ErrTruncatedMessage, def.Path(), cursor)
	}
	blockLength, err := gh.BlockLength(buf, order, cursor)
	if err != nil {
		return nil, 0, err
	}
	numRows, err := gh.NumInGroup(buf, order, cursor)
	if err != nil {
		return nil, 0, err
	}
	if numRows < 0 || blockLength < 0 {
		return nil, 0, fmt.Errorf("%w: %s header block=%d rows=%d", ErrSchemaMismatch, def.Path(), blockLength, numRows)
	}
	if numRows > 0 && blockLength < def.BlockSize() {
		return nil, 0, fmt.Errorf("%w: %s block length %d < %d", ErrSchemaMismatch, def.Path(), blockLength, def.BlockSize())
	}
	if cursor+hs+numRows*blockLength > len(buf) {
		return nil, 0, fmt.Errorf("%w: %s needs %d rows of %d bytes", ErrTruncatedMessage, def.Path(), numRows, blockLength)
	}

	a := e.pool.Lease()
	a.Bind(def, buf, order, cursor, parent, parentRow)
	if numRows > 0 {
		a.SetRowBlockSize(blockLength)
	}
	cursor += hs
	for i := 0; i < numRows; i++ {
		start := cursor
		if start+blockLength > len(buf) {
			return nil, 0, fmt.Errorf("%w: %s row %d at %d", ErrTruncatedMessage, def.Path(), i, start)
		}
		idx := a.AppendRow(start, start, blockLength)
		cursor, err = e.decodeTrailing(a, idx, start+blockLength)
		if err != nil {
			return nil, 0, err
		}
		a.Row(idx).Size = cursor - start
	}
	return a, cursor, nil
}

func (e *Engine) decodeRaw(parent *instance.Array, parentRow int, def *field.Definition, cursor int) (*instance.Array, int, error) {
	buf := parent.Buffer()
	order := parent.Order()
	vh := def.VarLength()
	hs := vh.Size()
	if cursor+hs > len(buf) {
		return nil, 0, fmt.Errorf("%w: %s length at %d", ErrTruncatedMessage, def.Path(), cursor)
	}
	length, err := vh.Length(buf, order, cursor)
	if err != nil {
		return nil, 0, err
	}
	if length < 0 {
		return nil, 0, fmt.Errorf("%w: %s length %d", ErrSchemaMismatch, def.Path(), length)
	}
	if cursor+hs+length > len(buf) {
		return nil, 0, fmt.Errorf("%w: %s needs %d bytes at %d", ErrTruncatedMessage, def.Path(), length, cursor+hs)
	}

	a := e.pool.Lease()
	a.Bind(def, buf, order, cursor, parent, parentRow)
	idx := a.AppendRow(cursor, cursor+hs, length)
	a.Row(idx).Size = length
	return a, cursor + hs + length, nil
}

// initEmpty writes the headers of empty nested groups and zero-length raw
// fields after the fixed block of row idx and attaches matching arrays. The
// region must already be zeroed. It returns the offset after the headers.
func (e *Engine) initEmpty(a *instance.Array, idx, cursor int) (int, error) {
	buf := a.Buffer()
	order := a.Order()
	for _, def := range a.Def().Variable() {
		child := e.pool.Lease()
		child.Bind(def, buf, order, cursor, a, idx)
		switch def.Kind() {
		case field.Group:
			if err := def.GroupHeader().SetBlockLength(buf, order, cursor, def.BlockSize()); err != nil {
				return 0, err
			}
		case field.Raw:
			hs := def.HeaderSize()
			child.AppendRow(cursor, cursor+hs, 0)
		}
		cursor += def.HeaderSize()
		a.AttachChild(idx, child)
	}
	return cursor, nil
}

// checkEmptyHeaders reports header values initEmpty could not write for a
// row of def.
func checkEmptyHeaders(def *field.Definition) error {
	for _, v := range def.Variable() {
		if v.Kind() != field.Group {
			continue
		}
		if !v.GroupHeader().Fits(header.GroupBlockLength, v.BlockSize()) {
			return fmt.Errorf("%w: %s block size %d", header.ErrValueOutOfRange, v.Path(), v.BlockSize())
		}
	}
	return nil
}
