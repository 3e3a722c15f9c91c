package mode

import "testing"

func TestNewInternsByShape(t *testing.T) {
	a := New("a-name", SortInt, 48, false, ArithTwosComplement, false)
	b := New("b-name", SortInt, 48, false, ArithTwosComplement, false)
	if a != b {
		t.Fatalf("expected two Modes with the same shape to be the same pointer")
	}
	if a.Name != "a-name" {
		t.Fatalf("expected the first registration's Name to win, got %q", a.Name)
	}
}

func TestNewDistinguishesShape(t *testing.T) {
	if Is32 == Iu32 {
		t.Fatalf("expected signed and unsigned 32-bit modes to intern separately")
	}
	if Is32 == Hs16 {
		t.Fatalf("expected different bit widths to intern separately")
	}
}

func TestAlignDefaultsToOneBelowAByte(t *testing.T) {
	if B.Align != 1 {
		t.Fatalf("expected a sub-byte mode to align to 1, got %d", B.Align)
	}
}

func TestIsDataClassifiesSorts(t *testing.T) {
	for _, m := range []*Mode{B, Is32, F64, P} {
		if !m.IsData() {
			t.Fatalf("expected %s to be a data mode", m)
		}
	}
	for _, m := range []*Mode{X, M, T} {
		if m.IsData() {
			t.Fatalf("expected %s not to be a data mode", m)
		}
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	m := New("ext-test", SortInt, 40, true, ArithTwosComplement, false)
	if _, ok := m.Get("max"); ok {
		t.Fatalf("expected no cached value before Set")
	}
	m.Set("max", 42)
	v, ok := m.Get("max")
	if !ok || v.(int) != 42 {
		t.Fatalf("expected Get to return the value stashed by Set, got %v, %v", v, ok)
	}
}
