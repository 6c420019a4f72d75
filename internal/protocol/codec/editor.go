package codec

import (
	"fmt"

	"github.com/danmuck/blockwire/internal/protocol/field"
	"github.com/danmuck/blockwire/internal/protocol/header"
	"github.com/danmuck/blockwire/internal/protocol/instance"
)

// Edits move bytes inside the buffer of an already decoded message and
// keep the instance tree in step. Every edit checks capacity and header
// ranges before touching a byte, so a failed edit leaves the buffer and the
// tree unchanged. The bytes between the end of the message and len(buf) are
// treated as free space.

// AddRow appends an empty row to a group.
func (e *Engine) AddRow(a *instance.Array) (*instance.Row, error) {
	if err := checkGroup(a); err != nil {
		return nil, err
	}
	return e.InsertRow(a, a.Len())
}

// InsertRow opens an empty row at index at. Nested groups of the new row
// are empty and nested raw fields have length 0. The returned row is valid
// until the next row change on a.
func (e *Engine) InsertRow(a *instance.Array, at int) (*instance.Row, error) {
	if err := checkGroup(a); err != nil {
		return nil, err
	}
	def := a.Def()
	n := a.Len()
	if at < 0 || at > n {
		return nil, fmt.Errorf("%w: insert at %d of %d rows", ErrIndexOutOfRange, at, n)
	}

	gh := def.GroupHeader()
	rowBlock := a.RowBlockSize()
	if n == 0 {
		rowBlock = def.BlockSize()
		if !gh.Fits(header.GroupBlockLength, rowBlock) {
			return nil, fmt.Errorf("%w: %s block size %d", header.ErrValueOutOfRange, def.Path(), rowBlock)
		}
	}
	if !gh.Fits(header.GroupNumInGroup, n+1) {
		return nil, fmt.Errorf("%w: %s row count %d", header.ErrValueOutOfRange, def.Path(), n+1)
	}
	if err := checkEmptyHeaders(def); err != nil {
		return nil, err
	}

	size := rowBlock + def.EmptyRowSize() - def.BlockSize()
	pos := a.Base() + a.HeaderSize()
	if at > 0 {
		pos = a.Row(at - 1).End()
	}
	if err := e.shift(a, pos, size); err != nil {
		return nil, err
	}

	buf := a.Buffer()
	order := a.Order()
	clear(buf[pos : pos+size])
	if err := gh.SetNumInGroup(buf, order, a.Base(), n+1); err != nil {
		return nil, err
	}
	if n == 0 {
		if err := gh.SetBlockLength(buf, order, a.Base(), rowBlock); err != nil {
			return nil, err
		}
		a.SetRowBlockSize(rowBlock)
	}

	r := a.InsertRow(at)
	r.Offset = pos
	r.ValueOffset = pos
	r.BlockSize = rowBlock
	a.ShiftRows(at+1, size)
	end, err := e.initEmpty(a, at, pos+rowBlock)
	if err != nil {
		return nil, err
	}
	r = a.Row(at)
	r.Size = end - pos
	cascade(a, size)
	return r, nil
}

// DeleteRow removes row index from a group and closes the gap.
func (e *Engine) DeleteRow(a *instance.Array, index int) error {
	if err := checkGroup(a); err != nil {
		return err
	}
	n := a.Len()
	if index < 0 || index >= n {
		return fmt.Errorf("%w: delete %d of %d rows", ErrIndexOutOfRange, index, n)
	}
	r := a.Row(index)
	size := r.Size
	if err := e.shift(a, r.End(), -size); err != nil {
		return err
	}
	if err := a.Def().GroupHeader().SetNumInGroup(a.Buffer(), a.Order(), a.Base(), n-1); err != nil {
		return err
	}
	a.RemoveRow(index)
	a.ShiftRows(index, -size)
	cascade(a, -size)
	return nil
}

// ResizeRaw changes the length of a raw field. Growing zero-fills the new
// tail; shrinking drops the trailing bytes.
func (e *Engine) ResizeRaw(a *instance.Array, newLength int) error {
	if a == nil || a.Def() == nil || a.Def().Kind() != field.Raw || a.Len() != 1 {
		return ErrNotRaw
	}
	vh := a.Def().VarLength()
	if newLength < 0 || newLength > vh.MaxLength() {
		return fmt.Errorf("%w: %s length %d", header.ErrValueOutOfRange, a.Def().Path(), newLength)
	}
	r := a.Row(0)
	delta := newLength - r.BlockSize
	if delta == 0 {
		return nil
	}
	tail := r.End()
	if err := e.shift(a, tail, delta); err != nil {
		return err
	}
	if delta > 0 {
		clear(a.Buffer()[tail : tail+delta])
	}
	if err := vh.SetLength(a.Buffer(), a.Order(), a.Base(), newLength); err != nil {
		return err
	}
	r.BlockSize = newLength
	r.Size = newLength
	cascade(a, delta)
	return nil
}

// SetRaw replaces the contents of a raw field.
func (e *Engine) SetRaw(a *instance.Array, data []byte) error {
	if err := e.ResizeRaw(a, len(data)); err != nil {
		return err
	}
	copy(a.Bytes(), data)
	return nil
}

// shift moves every byte from pos to the end of the message by delta. A
// negative delta drops the -delta bytes before pos and zeroes the vacated
// tail.
func (e *Engine) shift(a *instance.Array, pos, delta int) error {
	buf := a.Buffer()
	end := a.Root().End()
	if end+delta > len(buf) {
		return fmt.Errorf("%w: message end %d%+d exceeds capacity %d", ErrBufferOverflow, end, delta, len(buf))
	}
	if pos+delta < 0 || pos > end {
		return fmt.Errorf("%w: shift at %d", ErrIndexOutOfRange, pos)
	}
	copy(buf[pos+delta:end+delta], buf[pos:end])
	if delta < 0 {
		clear(buf[end+delta : end])
	}
	return nil
}

// cascade records that a now spans delta more bytes. Every ancestor row
// grows by delta and everything physically after a moves with it.
func cascade(a *instance.Array, delta int) {
	for child := a; child.Parent() != nil; child = child.Parent() {
		p := child.Parent()
		pr := child.ParentRow()
		row := p.Row(pr)
		row.Size += delta
		kids := row.Children()
		for s := child.Def().Slot() + 1; s < len(kids); s++ {
			kids[s].Shift(delta)
		}
		p.ShiftRows(pr+1, delta)
	}
}

func checkGroup(a *instance.Array) error {
	if a == nil || a.Def() == nil || a.Def().Kind() != field.Group {
		return ErrNotGroup
	}
	return nil
}
