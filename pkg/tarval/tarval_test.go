package tarval

import (
	"testing"

	"github.com/oisee/irgraph/pkg/mode"
)

func TestAddWrapsModulo2Bits(t *testing.T) {
	m := mode.Is32
	a := FromInt64(m, 2147483647) // max int32
	b := FromInt64(m, 1)
	sum := Add(a, b)
	if sum.Int64() != -2147483648 {
		t.Fatalf("expected wraparound to min int32, got %d", sum.Int64())
	}
	if !sum.CarryOut() {
		t.Fatalf("expected carry/overflow flag set")
	}
}

func TestInternEquality(t *testing.T) {
	a := FromInt64(mode.Iu32, 7)
	b := FromInt64(mode.Iu32, 7)
	if a != b {
		t.Fatalf("equal tarvals must be pointer-identical")
	}
	if !Equal(a, b) {
		t.Fatalf("Equal must agree with identity")
	}
}

func TestCmpRelations(t *testing.T) {
	a := FromInt64(mode.Is32, 3)
	b := FromInt64(mode.Is32, 5)
	if Cmp(a, b) != Lt {
		t.Fatalf("expected Lt, got %v", Cmp(a, b))
	}
	if Cmp(b, a) != Gt {
		t.Fatalf("expected Gt, got %v", Cmp(b, a))
	}
	if Cmp(a, a) != Eq {
		t.Fatalf("expected Eq, got %v", Cmp(a, a))
	}
}

func TestDivByZeroIsBad(t *testing.T) {
	a := FromInt64(mode.Iu32, 10)
	zero := FromInt64(mode.Iu32, 0)
	r := Div(a, zero)
	if !r.IsBad() {
		t.Fatalf("expected Bad on division by zero")
	}
}

func TestShiftModuloShift(t *testing.T) {
	a := FromInt64(mode.Iu32, 1)
	r := Shl(a, 32) // Iu32 has ModuloShift=true, so 32 % 32 == 0
	if r.Int64() != 1 {
		t.Fatalf("expected modulo-shift to reduce amount, got %d", r.Int64())
	}
}

func TestConvTruncates(t *testing.T) {
	a := FromInt64(mode.Iu32, 0x1FF)
	r := Conv(a, mode.Bu8)
	if r.Int64() != 0xFF {
		t.Fatalf("expected truncation to 8 bits, got %x", r.Int64())
	}
}
