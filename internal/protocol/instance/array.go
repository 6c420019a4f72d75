package instance

import (
	"encoding/binary"

	"github.com/danmuck/blockwire/internal/protocol/field"
)

// Row is one occurrence of a message, group row or raw field.
//
// Offset is where the row's bytes start; for the message root and raw
// fields that is the header start, for group rows it equals ValueOffset
// because the group header belongs to the array. Size is BlockSize plus the
// span of every nested child array.
type Row struct {
	Offset      int
	ValueOffset int
	BlockSize   int
	Size        int

	children []*Array
}

// End is the first byte after the row.
func (r *Row) End() int {
	return r.ValueOffset + r.Size
}

// Child returns the nested array stored under a definition slot.
func (r *Row) Child(slot int) *Array {
	if slot < 0 || slot >= len(r.children) {
		return nil
	}
	return r.children[slot]
}

// Children returns the nested arrays in wire order.
func (r *Row) Children() []*Array { return r.children }

// Array holds every row decoded for one definition at one parent
// occurrence. Arrays are owned by a Pool; the parent link is a plain
// back-reference.
type Array struct {
	def       *field.Definition
	buf       []byte
	order     binary.ByteOrder
	rows      []Row
	parent    *Array
	parentRow int
	base      int
	rowBlock  int
}

// Bind points a leased array at a definition and buffer position and drops
// any rows from a previous pass.
func (a *Array) Bind(def *field.Definition, buf []byte, order binary.ByteOrder, base int, parent *Array, parentRow int) {
	a.def = def
	a.buf = buf
	a.order = order
	a.base = base
	a.parent = parent
	a.parentRow = parentRow
	a.rowBlock = def.BlockSize()
	a.rows = a.rows[:0]
}

func (a *Array) Def() *field.Definition  { return a.def }
func (a *Array) Buffer() []byte          { return a.buf }
func (a *Array) Order() binary.ByteOrder { return a.order }
func (a *Array) Parent() *Array          { return a.parent }
func (a *Array) ParentRow() int          { return a.parentRow }
func (a *Array) Len() int                { return len(a.rows) }

// Base is the absolute offset of the array's header.
func (a *Array) Base() int { return a.base }

// Row returns row i. The pointer stays valid until rows are inserted into
// or removed from this array.
func (a *Array) Row(i int) *Row { return &a.rows[i] }

// RowBlockSize is the per-row block length declared on the wire, which may
// exceed the schema block size.
func (a *Array) RowBlockSize() int     { return a.rowBlock }
func (a *Array) SetRowBlockSize(n int) { a.rowBlock = n }

// HeaderSize is the width of the header at Base.
func (a *Array) HeaderSize() int { return a.def.HeaderSize() }

// Span is the number of bytes the array occupies, header included.
func (a *Array) Span() int {
	n := a.HeaderSize()
	for i := range a.rows {
		n += a.rows[i].Size
	}
	return n
}

// End is the first byte after the array.
func (a *Array) End() int { return a.base + a.Span() }

// Root returns the message array at the top of the tree.
func (a *Array) Root() *Array {
	cur := a
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Bytes returns the value bytes of a raw array. The slice aliases the
// buffer.
func (a *Array) Bytes() []byte {
	if a.def.Kind() != field.Raw || len(a.rows) == 0 {
		return nil
	}
	r := &a.rows[0]
	return a.buf[r.ValueOffset : r.ValueOffset+r.BlockSize]
}

// AppendRow adds a row at the end and returns its index.
func (a *Array) AppendRow(offset, valueOffset, blockSize int) int {
	n := len(a.rows)
	if n < cap(a.rows) {
		a.rows = a.rows[:n+1]
		r := &a.rows[n]
		*r = Row{Offset: offset, ValueOffset: valueOffset, BlockSize: blockSize, children: r.children[:0]}
	} else {
		a.rows = append(a.rows, Row{Offset: offset, ValueOffset: valueOffset, BlockSize: blockSize})
	}
	return n
}

// InsertRow opens an empty row at index at, moving later rows up.
func (a *Array) InsertRow(at int) *Row {
	n := len(a.rows)
	var spare []*Array
	if n < cap(a.rows) {
		a.rows = a.rows[:n+1]
		spare = a.rows[n].children
	} else {
		a.rows = append(a.rows, Row{})
	}
	copy(a.rows[at+1:], a.rows[at:n])
	a.rows[at] = Row{children: spare[:0]}
	for i := at + 1; i <= n; i++ {
		a.reparent(i)
	}
	return &a.rows[at]
}

// RemoveRow drops row at, moving later rows down. The freed slot is kept
// at the tail of the backing array for reuse.
func (a *Array) RemoveRow(at int) {
	n := len(a.rows)
	freed := a.rows[at].children
	for i := range freed {
		freed[i] = nil
	}
	copy(a.rows[at:], a.rows[at+1:])
	a.rows[n-1] = Row{children: freed[:0]}
	a.rows = a.rows[:n-1]
	for i := at; i < n-1; i++ {
		a.reparent(i)
	}
}

// AttachChild appends a nested array to row i. Children must be attached in
// slot order.
func (a *Array) AttachChild(i int, child *Array) {
	r := &a.rows[i]
	r.children = append(r.children, child)
}

// Shift moves every cached offset in the array and its subtree by delta.
func (a *Array) Shift(delta int) {
	a.base += delta
	a.ShiftRows(0, delta)
}

// ShiftRows moves rows from index from onward, with their subtrees, by delta.
func (a *Array) ShiftRows(from, delta int) {
	for i := from; i < len(a.rows); i++ {
		r := &a.rows[i]
		r.Offset += delta
		r.ValueOffset += delta
		for _, c := range r.children {
			c.Shift(delta)
		}
	}
}

func (a *Array) reparent(i int) {
	for _, c := range a.rows[i].children {
		c.parentRow = i
	}
}

func (a *Array) clear() {
	a.def = nil
	a.buf = nil
	a.order = nil
	a.parent = nil
	a.parentRow = 0
	a.base = 0
	a.rowBlock = 0
	a.rows = a.rows[:0]
}
