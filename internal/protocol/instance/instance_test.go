package instance

import (
	"encoding/binary"
	"testing"

	"github.com/danmuck/blockwire/internal/protocol/field"
)

func testGroup(t *testing.T) (*field.Definition, *field.Definition) {
	t.Helper()
	b := field.NewBuilder(field.Headers{})
	msg := b.NewMessage(1, "car")
	g, err := b.AddField(msg, 1, "legs", field.Group, 1)
	if err != nil {
		t.Fatalf("add group: %v", err)
	}
	inner, err := b.AddField(g, 1, "stops", field.Group, 1)
	if err != nil {
		t.Fatalf("add inner: %v", err)
	}
	return g, inner
}

func TestPoolGrowsByIncrementAndResets(t *testing.T) {
	p := NewPool(2)
	if p.Cap() != 2 {
		t.Fatalf("expected cap 2, got %d", p.Cap())
	}
	first := p.Lease()
	p.Lease()
	p.Lease()
	if p.Cap() != 4 || p.Leased() != 3 {
		t.Fatalf("expected cap 4 leased 3, got cap=%d leased=%d", p.Cap(), p.Leased())
	}
	p.ResetAll()
	if p.Leased() != 0 || p.Cap() != 4 {
		t.Fatalf("reset should keep storage: cap=%d leased=%d", p.Cap(), p.Leased())
	}
	if again := p.Lease(); again != first {
		t.Fatalf("expected the first node to be reused")
	}
}

func TestNewPoolDefaultCapacity(t *testing.T) {
	if p := NewPool(0); p.Cap() != DefaultCapacity {
		t.Fatalf("expected default capacity, got %d", p.Cap())
	}
}

func TestInsertAndRemoveRowsReparentChildren(t *testing.T) {
	groupDef, innerDef := testGroup(t)
	p := NewPool(8)
	buf := make([]byte, 64)
	a := p.Lease()
	a.Bind(groupDef, buf, binary.LittleEndian, 0, nil, 0)

	for i := 0; i < 3; i++ {
		idx := a.AppendRow(10*i, 10*i, 0)
		child := p.Lease()
		child.Bind(innerDef, buf, binary.LittleEndian, 10*i, a, idx)
		a.AttachChild(idx, child)
	}

	r := a.InsertRow(1)
	if r.Offset != 0 || len(r.Children()) != 0 {
		t.Fatalf("inserted row should be empty: %+v", r)
	}
	for i := 2; i < 4; i++ {
		if got := a.Row(i).Child(0).ParentRow(); got != i {
			t.Fatalf("row %d child parentRow=%d", i, got)
		}
	}

	a.RemoveRow(0)
	if a.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", a.Len())
	}
	if a.Row(1).Child(0).Base() != 10 || a.Row(1).Child(0).ParentRow() != 1 {
		t.Fatalf("unexpected child after remove: base=%d parentRow=%d", a.Row(1).Child(0).Base(), a.Row(1).Child(0).ParentRow())
	}
}

func TestShiftMovesSubtree(t *testing.T) {
	groupDef, innerDef := testGroup(t)
	p := NewPool(4)
	buf := make([]byte, 64)
	a := p.Lease()
	a.Bind(groupDef, buf, binary.LittleEndian, 4, nil, 0)
	idx := a.AppendRow(8, 8, 0)
	child := p.Lease()
	child.Bind(innerDef, buf, binary.LittleEndian, 8, a, idx)
	a.AttachChild(idx, child)

	a.Shift(5)
	if a.Base() != 9 || a.Row(0).Offset != 13 || child.Base() != 13 {
		t.Fatalf("unexpected shift: base=%d row=%d child=%d", a.Base(), a.Row(0).Offset, child.Base())
	}
	if child.Root() != a {
		t.Fatalf("expected root to be the outer array")
	}
}
