package codec

import (
	"encoding/binary"
	"fmt"
	"strings"
	"testing"

	"github.com/danmuck/blockwire/internal/protocol/field"
	"github.com/danmuck/blockwire/internal/protocol/instance"
	"github.com/danmuck/blockwire/internal/protocol/schema"
)

// carSchema is template 1:
//
//	speed:uint16
//	fuelFigures{speed:uint16, mpg:float, usageDescription:raw}
type carSchema struct {
	bundle    *schema.Bundle
	msg       *field.Definition
	speed     *field.Definition
	fuel      *field.Definition
	fuelSpeed *field.Definition
	fuelMpg   *field.Definition
	fuelUsage *field.Definition
}

func newCarSchema(t *testing.T) carSchema {
	t.Helper()
	bundle := schema.NewBundle(7, 2, binary.LittleEndian, field.Headers{})
	b := bundle.Builder()
	s := carSchema{bundle: bundle, msg: b.NewMessage(1, "car")}
	s.speed = mustField(t, b, s.msg, 1, "speed", field.Uint16, 1)
	s.fuel = mustField(t, b, s.msg, 2, "fuelFigures", field.Group, 1)
	s.fuelSpeed = mustField(t, b, s.fuel, 1, "speed", field.Uint16, 1)
	s.fuelMpg = mustField(t, b, s.fuel, 2, "mpg", field.Float, 1)
	s.fuelUsage = mustField(t, b, s.fuel, 3, "usageDescription", field.Raw, 1)
	if err := bundle.Register(s.msg); err != nil {
		t.Fatalf("register: %v", err)
	}
	return s
}

// tripSchema is template 2 with two levels of nesting:
//
//	id:uint32
//	legs{leg:uint16, stops{code:uint32}, note:raw}
//	tail:raw
type tripSchema struct {
	bundle *schema.Bundle
	msg    *field.Definition
	id     *field.Definition
	legs   *field.Definition
	leg    *field.Definition
	stops  *field.Definition
	code   *field.Definition
	note   *field.Definition
	tail   *field.Definition
}

func newTripSchema(t *testing.T) tripSchema {
	t.Helper()
	bundle := schema.NewBundle(9, 1, binary.BigEndian, field.Headers{})
	b := bundle.Builder()
	s := tripSchema{bundle: bundle, msg: b.NewMessage(2, "trip")}
	s.id = mustField(t, b, s.msg, 1, "id", field.Uint32, 1)
	s.legs = mustField(t, b, s.msg, 2, "legs", field.Group, 1)
	s.tail = mustField(t, b, s.msg, 3, "tail", field.Raw, 1)
	s.leg = mustField(t, b, s.legs, 1, "leg", field.Uint16, 1)
	s.stops = mustField(t, b, s.legs, 2, "stops", field.Group, 1)
	s.note = mustField(t, b, s.legs, 3, "note", field.Raw, 1)
	s.code = mustField(t, b, s.stops, 1, "code", field.Uint32, 1)
	if err := bundle.Register(s.msg); err != nil {
		t.Fatalf("register: %v", err)
	}
	return s
}

func mustField(t *testing.T, b *field.Builder, parent *field.Definition, id int, name string, kind field.Kind, length int) *field.Definition {
	t.Helper()
	d, err := b.AddField(parent, id, name, kind, length)
	if err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
	return d
}

func mustView(t *testing.T, a *instance.Array, i int) View {
	t.Helper()
	v, err := NewView(a, i)
	if err != nil {
		t.Fatalf("view %d: %v", i, err)
	}
	return v
}

func mustChild(t *testing.T, v View, f *field.Definition) *instance.Array {
	t.Helper()
	c, err := v.Child(f)
	if err != nil {
		t.Fatalf("child %s: %v", f.Name(), err)
	}
	return c
}

// checkLayout verifies that cached offsets are contiguous and that every
// size is the sum of its parts.
func checkLayout(t *testing.T, a *instance.Array) {
	t.Helper()
	pos := a.Base() + a.HeaderSize()
	for i := 0; i < a.Len(); i++ {
		r := a.Row(i)
		if a.Def().Kind() == field.Group && r.Offset != pos {
			t.Fatalf("%s row %d: offset %d, want %d", a.Def().Path(), i, r.Offset, pos)
		}
		if r.ValueOffset != pos {
			t.Fatalf("%s row %d: value offset %d, want %d", a.Def().Path(), i, r.ValueOffset, pos)
		}
		want := r.BlockSize
		next := r.ValueOffset + r.BlockSize
		for _, c := range r.Children() {
			if c.Base() != next {
				t.Fatalf("%s: base %d, want %d", c.Def().Path(), c.Base(), next)
			}
			checkLayout(t, c)
			want += c.Span()
			next = c.End()
		}
		if r.Size != want {
			t.Fatalf("%s row %d: size %d, want %d", a.Def().Path(), i, r.Size, want)
		}
		pos = r.End()
	}
	if a.End() != pos {
		t.Fatalf("%s: end %d, want %d", a.Def().Path(), a.End(), pos)
	}
}

// dump renders every value of a tree as path=value lines.
func dump(t *testing.T, a *instance.Array) string {
	t.Helper()
	var sb strings.Builder
	dumpInto(t, &sb, a, a.Def().Name())
	return sb.String()
}

func dumpInto(t *testing.T, sb *strings.Builder, a *instance.Array, path string) {
	t.Helper()
	if a.Def().Kind() == field.Raw {
		fmt.Fprintf(sb, "%s=%q\n", path, a.Bytes())
		return
	}
	for i := 0; i < a.Len(); i++ {
		v := mustView(t, a, i)
		prefix := fmt.Sprintf("%s[%d]", path, i)
		for _, f := range a.Def().Fixed() {
			switch {
			case f.Kind().IsInteger():
				x, err := v.Int(f)
				if err != nil {
					t.Fatalf("read %s: %v", f.Name(), err)
				}
				fmt.Fprintf(sb, "%s.%s=%d\n", prefix, f.Name(), x)
			case f.Kind() == field.Float:
				x, err := v.Float(f)
				if err != nil {
					t.Fatalf("read %s: %v", f.Name(), err)
				}
				fmt.Fprintf(sb, "%s.%s=%g\n", prefix, f.Name(), x)
			}
		}
		for _, c := range v.Row().Children() {
			dumpInto(t, sb, c, prefix+"."+c.Def().Name())
		}
	}
}
