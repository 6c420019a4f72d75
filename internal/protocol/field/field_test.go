package field

import (
	"errors"
	"testing"
)

func TestKindSizes(t *testing.T) {
	cases := map[Kind]int{
		Int8: 1, Uint8: 1, Char: 1, Byte: 1,
		Int16: 2, Uint16: 2,
		Int32: 4, Uint32: 4, Float: 4,
		Int64: 8, Uint64: 8, Double: 8,
		Raw: 0, Constant: 0, Composite: 0, Group: 0, Message: 0,
	}
	for k, want := range cases {
		if got := k.Size(); got != want {
			t.Fatalf("%s: expected size %d, got %d", k, want, got)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"uint16", "U16", " u16 "} {
		k, err := ParseKind(name)
		if err != nil || k != Uint16 {
			t.Fatalf("parse %q: got %s, %v", name, k, err)
		}
	}
	if k, _ := ParseKind("DATA"); k != Raw {
		t.Fatalf("expected raw, got %s", k)
	}
	if _, err := ParseKind("uint128"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestOffsetsRunningSum(t *testing.T) {
	b := NewBuilder(Headers{})
	msg := b.NewMessage(1, "car")
	serial := mustAdd(t, b, msg, 1, "serial", Uint64, 1)
	year := mustAdd(t, b, msg, 2, "year", Uint16, 1)
	code := mustAdd(t, b, msg, 3, "code", Char, 6)
	flag, err := b.AddConstant(msg, 4, "flag", Uint8, []byte{9})
	if err != nil {
		t.Fatalf("add constant: %v", err)
	}

	if serial.Offset() != 0 || year.Offset() != 8 || code.Offset() != 10 {
		t.Fatalf("unexpected offsets: %d %d %d", serial.Offset(), year.Offset(), code.Offset())
	}
	if flag.Offset() != 16 || flag.Size() != 0 {
		t.Fatalf("constant should sit at the block end with no size: off=%d size=%d", flag.Offset(), flag.Size())
	}
	if msg.BlockSize() != 16 {
		t.Fatalf("expected block size 16, got %d", msg.BlockSize())
	}
	if msg.HeaderSize() != 8 {
		t.Fatalf("expected message header 8, got %d", msg.HeaderSize())
	}
}

func TestCompositeGrowsOwner(t *testing.T) {
	b := NewBuilder(Headers{})
	msg := b.NewMessage(1, "car")
	engine := mustAdd(t, b, msg, 1, "engine", Composite, 1)
	after := mustAdd(t, b, msg, 2, "after", Uint32, 1)
	if after.Offset() != 0 {
		t.Fatalf("expected offset 0 before composite grows, got %d", after.Offset())
	}

	capacity := mustAdd(t, b, engine, 1, "capacity", Uint16, 1)
	cylinders := mustAdd(t, b, engine, 2, "cylinders", Uint8, 1)

	if capacity.Offset() != 0 || cylinders.Offset() != 2 {
		t.Fatalf("unexpected composite offsets: %d %d", capacity.Offset(), cylinders.Offset())
	}
	if engine.BlockSize() != 3 {
		t.Fatalf("expected composite size 3, got %d", engine.BlockSize())
	}
	if after.Offset() != 3 {
		t.Fatalf("expected later sibling shifted to 3, got %d", after.Offset())
	}
	if msg.BlockSize() != 7 {
		t.Fatalf("expected message block 7, got %d", msg.BlockSize())
	}
	if !msg.Owns(cylinders) || !msg.Owns(after) {
		t.Fatalf("message should own direct and composite children")
	}
}

func TestVariableChildrenSlotsAndEmptySize(t *testing.T) {
	b := NewBuilder(Headers{})
	msg := b.NewMessage(1, "car")
	mustAdd(t, b, msg, 1, "speed", Uint16, 1)
	g := mustAdd(t, b, msg, 2, "fuelFigures", Group, 1)
	r := mustAdd(t, b, msg, 3, "make", Raw, 1)
	mustAdd(t, b, g, 1, "speed", Uint16, 1)
	mustAdd(t, b, g, 2, "mpg", Float, 1)
	desc := mustAdd(t, b, g, 3, "usageDescription", Raw, 1)

	if g.Slot() != 0 || r.Slot() != 1 || desc.Slot() != 0 {
		t.Fatalf("unexpected slots: %d %d %d", g.Slot(), r.Slot(), desc.Slot())
	}
	if g.BlockSize() != 6 {
		t.Fatalf("expected group block 6, got %d", g.BlockSize())
	}
	if g.EmptyRowSize() != 8 {
		t.Fatalf("expected empty group row 8, got %d", g.EmptyRowSize())
	}
	if msg.EmptyRowSize() != 2+4+2 {
		t.Fatalf("expected empty message body 8, got %d", msg.EmptyRowSize())
	}
	if got, ok := msg.Lookup("fuelFigures", "mpg"); !ok || got.Offset() != 2 {
		t.Fatalf("lookup failed: %v %v", got, ok)
	}
	if desc.Path() != "car.fuelFigures.usageDescription" {
		t.Fatalf("unexpected path %q", desc.Path())
	}
}

func TestBuildRejections(t *testing.T) {
	b := NewBuilder(Headers{})
	msg := b.NewMessage(1, "car")
	comp := mustAdd(t, b, msg, 1, "engine", Composite, 1)
	mustAdd(t, b, msg, 2, "speed", Uint16, 1)

	cases := []struct {
		name   string
		parent *Definition
		id     int
		kind   Kind
		length int
		want   error
	}{
		{"duplicate", msg, 2, Uint8, 1, ErrDuplicateFieldID},
		{"zero length", msg, 3, Uint8, 0, ErrInvalidArrayLength},
		{"composite array", msg, 4, Composite, 2, ErrInvalidArrayLength},
		{"group in composite", comp, 1, Group, 1, ErrIllegalChildKind},
		{"raw in composite", comp, 2, Raw, 1, ErrIllegalChildKind},
		{"nested message", msg, 5, Message, 1, ErrIllegalChildKind},
	}
	for _, tc := range cases {
		_, err := b.AddField(tc.parent, tc.id, tc.name, tc.kind, tc.length)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		var be *BuildError
		if !errors.As(err, &be) {
			t.Fatalf("%s: expected *BuildError, got %T", tc.name, err)
		}
	}
}

func TestBuildOrdering(t *testing.T) {
	b := NewBuilder(Headers{})
	msg := b.NewMessage(1, "car")
	mustAdd(t, b, msg, 1, "legs", Group, 1)
	if _, err := b.AddField(msg, 2, "late", Uint8, 1); !errors.Is(err, ErrFieldOrder) {
		t.Fatalf("expected ErrFieldOrder for fixed after group, got %v", err)
	}
	mustAdd(t, b, msg, 3, "note", Raw, 1)
	if _, err := b.AddField(msg, 4, "more", Group, 1); !errors.Is(err, ErrFieldOrder) {
		t.Fatalf("expected ErrFieldOrder for group after raw, got %v", err)
	}
	mustAdd(t, b, msg, 5, "note2", Raw, 1)
}

func TestConstantLiteralChecked(t *testing.T) {
	b := NewBuilder(Headers{})
	msg := b.NewMessage(1, "car")
	if _, err := b.AddConstant(msg, 1, "bad", Uint16, []byte{1}); !errors.Is(err, ErrConstantValue) {
		t.Fatalf("expected ErrConstantValue, got %v", err)
	}
	if _, err := b.AddField(msg, 2, "c", Constant, 1); !errors.Is(err, ErrIllegalChildKind) {
		t.Fatalf("expected ErrIllegalChildKind, got %v", err)
	}
	c, err := b.AddConstant(msg, 3, "maker", Char, []byte("Honda"))
	if err != nil {
		t.Fatalf("add char constant: %v", err)
	}
	if string(c.ConstValue()) != "Honda" || c.ConstKind() != Char {
		t.Fatalf("unexpected constant: %q %s", c.ConstValue(), c.ConstKind())
	}
}

func mustAdd(t *testing.T, b *Builder, parent *Definition, id int, name string, kind Kind, length int) *Definition {
	t.Helper()
	d, err := b.AddField(parent, id, name, kind, length)
	if err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
	return d
}
