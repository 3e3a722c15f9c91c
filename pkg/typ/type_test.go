package typ

import (
	"testing"

	"github.com/oisee/irgraph/pkg/mode"
)

func TestStructLayoutNaturalAlignment(t *testing.T) {
	s := NewCompound(KindStruct, "pair")
	s.AddMember(NewEntity("b", NewPrimitive("byte", mode.Bs8)))
	s.AddMember(NewEntity("n", NewPrimitive("int32", mode.Is32)))
	s.DefaultLayoutCompoundType()

	if s.Members[0].Offset != 0 {
		t.Fatalf("expected first member at offset 0, got %d", s.Members[0].Offset)
	}
	if s.Members[1].Offset != 4 {
		t.Fatalf("expected second member padded to offset 4, got %d", s.Members[1].Offset)
	}
	if s.Size != 8 {
		t.Fatalf("expected struct size rounded up to 8, got %d", s.Size)
	}
}

func TestUnionOverlaysMembers(t *testing.T) {
	u := NewCompound(KindUnion, "u")
	u.AddMember(NewEntity("b", NewPrimitive("byte", mode.Bs8)))
	u.AddMember(NewEntity("n", NewPrimitive("int32", mode.Is32)))
	u.DefaultLayoutCompoundType()

	for _, m := range u.Members {
		if m.Offset != 0 {
			t.Fatalf("expected every union member at offset 0, got %d for %s", m.Offset, m.Name)
		}
	}
	if u.Size != 4 {
		t.Fatalf("expected union size to match the widest member, got %d", u.Size)
	}
}

func TestArrayLayoutRequiresBoundedDimensions(t *testing.T) {
	elem := NewPrimitive("int32", mode.Is32)
	lower, upper := int64(0), int64(3)
	arr := NewArray(elem, []Dimension{{Lower: &lower, Upper: &upper}})
	arr.FixArrayLayout()
	if arr.Layout != LayoutFixed {
		t.Fatalf("expected a fully-bounded array to fix its layout")
	}
	if arr.Size != 16 {
		t.Fatalf("expected 4 elements * 4 bytes = 16, got %d", arr.Size)
	}
}

func TestArrayLayoutStaysUndefinedWhenUnbounded(t *testing.T) {
	elem := NewPrimitive("int32", mode.Is32)
	arr := NewArray(elem, []Dimension{{Lower: nil, Upper: nil}})
	arr.FixArrayLayout()
	if arr.Layout != LayoutUndefined {
		t.Fatalf("expected an unbounded array to stay unfixed")
	}
}

func TestLinkerNamePrefersOwner(t *testing.T) {
	owner := NewCompound(KindClass, "Widget")
	e := NewEntity("count", NewPrimitive("int32", mode.Is32))
	owner.AddMember(e)
	if got := e.LinkerName(); got != "Widget.count" {
		t.Fatalf("expected owner-qualified linker name, got %q", got)
	}
}

func TestAddOverwriteIsBidirectional(t *testing.T) {
	base := NewEntity("draw", NewMethod(nil, nil, 0))
	override := NewEntity("draw", NewMethod(nil, nil, 0))
	override.AddOverwrite(base)

	if len(override.Overwrites) != 1 || override.Overwrites[0] != base {
		t.Fatalf("expected override.Overwrites to contain base")
	}
	if len(base.OverwrittenBy) != 1 || base.OverwrittenBy[0] != override {
		t.Fatalf("expected base.OverwrittenBy to contain override")
	}
}
