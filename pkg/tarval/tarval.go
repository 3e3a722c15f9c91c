// Package tarval implements target-accurate abstract values ("tarvals"):
// exact integer and float arithmetic under a given mode.Mode, with the
// interning discipline (equal tarvals are pointer-identical).
package tarval

import (
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/oisee/irgraph/pkg/mode"
)

// Tarval is an interned abstract value of a fixed Mode.
type Tarval struct {
	Mode *mode.Mode
	bits *big.Int // two's-complement bit pattern, always non-negative, < 2^Bits
	f    float64  // valid when Mode.Arithmetic == ArithIEEE754
	bad  bool     // the `bad` sentinel: mode mismatch / unsupported op
	// carry is set on the tarval most recently produced by an Add/Sub/Mul
	// carry-probing op; read immediately by range analyses.
	carry bool
}

var (
	internMu sync.Mutex
	interned = map[string]*Tarval{} // keyed by Mode.Name + normalized bit pattern
)

func internKey(m *mode.Mode, bits *big.Int, f float64, bad bool) string {
	if bad {
		return m.Name + "|bad"
	}
	if m.Arithmetic == mode.ArithIEEE754 {
		return fmt.Sprintf("%s|f:%x", m.Name, math.Float64bits(f))
	}
	return m.Name + "|i:" + bits.Text(16)
}

func intern(t *Tarval) *Tarval {
	k := internKey(t.Mode, t.bits, t.f, t.bad)
	internMu.Lock()
	defer internMu.Unlock()
	if existing, ok := interned[k]; ok {
		return existing
	}
	interned[k] = t
	return t
}

// Bad is the sentinel returned when an operation is ill-typed or
// overflows in a mode that does not support the result.
func Bad(m *mode.Mode) *Tarval {
	return intern(&Tarval{Mode: m, bits: big.NewInt(0), bad: true})
}

// IsBad reports whether t is the Bad sentinel.
func (t *Tarval) IsBad() bool { return t.bad }

// mask returns 2^bits - 1.
func mask(bits uint16) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	return m.Sub(m, big.NewInt(1))
}

// wrap reduces v into the two's-complement range of m by masking to
// m.Bits bits; the stored representation is always the unsigned
// bit pattern regardless of m.Signed.
func wrap(v *big.Int, m *mode.Mode) *big.Int {
	r := new(big.Int).And(v, mask(m.Bits))
	return r
}

// FromInt64 creates an interned integer tarval in mode m from a signed
// int64, wrapped into m's bit width.
func FromInt64(m *mode.Mode, v int64) *Tarval {
	if m.Sort != mode.SortInt && m.Sort != mode.SortBool && m.Sort != mode.SortRef {
		return Bad(m)
	}
	bits := wrap(big.NewInt(v), m)
	return intern(&Tarval{Mode: m, bits: bits})
}

// FromBigInt creates an interned integer tarval in mode m, wrapping v
// into m's bit width.
func FromBigInt(m *mode.Mode, v *big.Int) *Tarval {
	bits := wrap(v, m)
	return intern(&Tarval{Mode: m, bits: bits})
}

// FromFloat64 creates an interned float tarval in mode m.
func FromFloat64(m *mode.Mode, v float64) *Tarval {
	if m.Arithmetic != mode.ArithIEEE754 {
		return Bad(m)
	}
	if m.Bits == 32 {
		v = float64(float32(v))
	}
	return intern(&Tarval{Mode: m, bits: big.NewInt(0), f: v})
}

// signedValue reinterprets the stored unsigned bit pattern as signed
// two's-complement.
func (t *Tarval) signedValue() *big.Int {
	v := new(big.Int).Set(t.bits)
	top := new(big.Int).Lsh(big.NewInt(1), uint(t.Mode.Bits-1))
	if v.Cmp(top) >= 0 {
		full := new(big.Int).Lsh(big.NewInt(1), uint(t.Mode.Bits))
		v.Sub(v, full)
	}
	return v
}

// Int64 returns the value as an int64 (signed reinterpretation for
// integer modes; truncates float modes towards zero).
func (t *Tarval) Int64() int64 {
	if t.Mode.Arithmetic == mode.ArithIEEE754 {
		return int64(t.f)
	}
	if t.Mode.Signed {
		return t.signedValue().Int64()
	}
	return t.bits.Int64()
}

// Float64 returns the value as a float64.
func (t *Tarval) Float64() float64 {
	if t.Mode.Arithmetic == mode.ArithIEEE754 {
		return t.f
	}
	f := new(big.Float).SetInt(t.signedValueOrUnsigned())
	v, _ := f.Float64()
	return v
}

// CarryOut reports the carry/overflow flag produced by the last
// arithmetic op performed to produce t.
func (t *Tarval) CarryOut() bool { return t.carry }

func (t *Tarval) String() string {
	if t.bad {
		return "<bad:" + t.Mode.Name + ">"
	}
	if t.Mode.Arithmetic == mode.ArithIEEE754 {
		return fmt.Sprintf("%g:%s", t.f, t.Mode.Name)
	}
	if t.Mode.Signed {
		return fmt.Sprintf("%s:%s", t.signedValue().String(), t.Mode.Name)
	}
	return fmt.Sprintf("%s:%s", t.bits.String(), t.Mode.Name)
}

// sameMode requires both tarvals to share a mode, the binary-op
// contract every arithmetic helper below relies on; returns
// Bad(a.Mode) when they don't.
func sameMode(a, b *Tarval) (*mode.Mode, bool) {
	if a.Mode != b.Mode {
		return a.Mode, false
	}
	return a.Mode, true
}

func binOp(a, b *Tarval, intOp func(x, y *big.Int) (*big.Int, bool), floatOp func(x, y float64) float64) *Tarval {
	m, ok := sameMode(a, b)
	if !ok || a.bad || b.bad {
		return Bad(m)
	}
	if m.Arithmetic == mode.ArithIEEE754 {
		return FromFloat64(m, floatOp(a.f, b.f))
	}
	if intOp == nil {
		return Bad(m)
	}
	res, carry := intOp(a.signedValueOrUnsigned(), b.signedValueOrUnsigned())
	out := FromBigInt(m, res)
	out.carry = carry
	return out
}

// signedValueOrUnsigned returns the mathematical integer the bit
// pattern represents under this tarval's mode (signed or unsigned).
func (t *Tarval) signedValueOrUnsigned() *big.Int {
	if t.Mode.Signed {
		return t.signedValue()
	}
	return new(big.Int).Set(t.bits)
}

// Add returns a+b wrapped to their shared mode, with the carry probe
// set when the unbounded mathematical result did not fit.
func Add(a, b *Tarval) *Tarval {
	return binOp(a, b,
		func(x, y *big.Int) (*big.Int, bool) {
			r := new(big.Int).Add(x, y)
			return r, overflowsAfterWrap(r, a.Mode)
		},
		func(x, y float64) float64 { return x + y })
}

// Sub returns a-b.
func Sub(a, b *Tarval) *Tarval {
	return binOp(a, b,
		func(x, y *big.Int) (*big.Int, bool) {
			r := new(big.Int).Sub(x, y)
			return r, overflowsAfterWrap(r, a.Mode)
		},
		func(x, y float64) float64 { return x - y })
}

// Mul returns a*b.
func Mul(a, b *Tarval) *Tarval {
	return binOp(a, b,
		func(x, y *big.Int) (*big.Int, bool) {
			r := new(big.Int).Mul(x, y)
			return r, overflowsAfterWrap(r, a.Mode)
		},
		func(x, y float64) float64 { return x * y })
}

// Div returns a/b (truncating integer division; Bad on division by
// zero rather than panicking).
func Div(a, b *Tarval) *Tarval {
	if b.Mode.Arithmetic != mode.ArithIEEE754 && b.bits.Sign() == 0 {
		return Bad(a.Mode)
	}
	return binOp(a, b,
		func(x, y *big.Int) (*big.Int, bool) {
			if y.Sign() == 0 {
				return big.NewInt(0), true
			}
			return new(big.Int).Quo(x, y), false
		},
		func(x, y float64) float64 { return x / y })
}

// Mod returns a%b (truncated remainder, sign of dividend).
func Mod(a, b *Tarval) *Tarval {
	return binOp(a, b,
		func(x, y *big.Int) (*big.Int, bool) {
			if y.Sign() == 0 {
				return big.NewInt(0), true
			}
			return new(big.Int).Rem(x, y), false
		},
		func(x, y float64) float64 { return math.Mod(x, y) })
}

// And, Or, Eor are bitwise ops; they operate on the raw bit pattern
// and are undefined (Bad) for float modes.
func And(a, b *Tarval) *Tarval { return bitwise(a, b, (*big.Int).And) }
func Or(a, b *Tarval) *Tarval  { return bitwise(a, b, (*big.Int).Or) }
func Eor(a, b *Tarval) *Tarval { return bitwise(a, b, (*big.Int).Xor) }

func bitwise(a, b *Tarval, op func(z, x, y *big.Int) *big.Int) *Tarval {
	m, ok := sameMode(a, b)
	if !ok || a.bad || b.bad || m.Arithmetic == mode.ArithIEEE754 {
		return Bad(m)
	}
	r := op(new(big.Int), a.bits, b.bits)
	return FromBigInt(m, r)
}

// Not returns the bitwise complement of a within its mode's bit width.
func Not(a *Tarval) *Tarval {
	if a.bad || a.Mode.Arithmetic == mode.ArithIEEE754 {
		return Bad(a.Mode)
	}
	r := new(big.Int).Xor(a.bits, mask(a.Mode.Bits))
	return FromBigInt(a.Mode, r)
}

// Minus returns the arithmetic negation of a.
func Minus(a *Tarval) *Tarval {
	if a.bad {
		return Bad(a.Mode)
	}
	if a.Mode.Arithmetic == mode.ArithIEEE754 {
		return FromFloat64(a.Mode, -a.f)
	}
	return FromBigInt(a.Mode, new(big.Int).Neg(a.signedValueOrUnsigned()))
}

// Shl, Shr (logical), Shrs (arithmetic) honor the mode's ModuloShift
// flag: when set, the shift amount wraps modulo Bits before applying.
func Shl(a *Tarval, amount uint) *Tarval  { return shiftOp(a, amount, true, false) }
func Shr(a *Tarval, amount uint) *Tarval  { return shiftOp(a, amount, false, false) }
func Shrs(a *Tarval, amount uint) *Tarval { return shiftOp(a, amount, false, true) }

func shiftOp(a *Tarval, amount uint, left, arith bool) *Tarval {
	if a.bad || a.Mode.Arithmetic == mode.ArithIEEE754 {
		return Bad(a.Mode)
	}
	if a.Mode.ModuloShift {
		amount %= uint(a.Mode.Bits)
	} else if amount >= uint(a.Mode.Bits) {
		if left || !arith {
			return FromInt64(a.Mode, 0)
		}
	}
	var r *big.Int
	switch {
	case left:
		r = new(big.Int).Lsh(a.bits, amount)
	case arith:
		r = new(big.Int).Rsh(a.signedValueOrUnsigned(), amount)
	default:
		r = new(big.Int).Rsh(a.bits, amount)
	}
	return FromBigInt(a.Mode, r)
}

// Rotl rotates a left by amount bits within its mode's bit width.
func Rotl(a *Tarval, amount uint) *Tarval {
	if a.bad {
		return Bad(a.Mode)
	}
	amount %= uint(a.Mode.Bits)
	left := new(big.Int).Lsh(a.bits, amount)
	right := new(big.Int).Rsh(a.bits, uint(a.Mode.Bits)-amount)
	return FromBigInt(a.Mode, new(big.Int).Or(left, right))
}

// Conv converts a to Mode dst, preserving value when dst's range
// contains a's value, else truncating/sign-extending.
func Conv(a *Tarval, dst *mode.Mode) *Tarval {
	if a.bad {
		return Bad(dst)
	}
	if dst.Arithmetic == mode.ArithIEEE754 {
		return FromFloat64(dst, a.Float64())
	}
	if a.Mode.Arithmetic == mode.ArithIEEE754 {
		bi, _ := big.NewFloat(a.f).Int(nil)
		return FromBigInt(dst, bi)
	}
	return FromBigInt(dst, a.signedValueOrUnsigned())
}

func overflowsAfterWrap(unbounded *big.Int, m *mode.Mode) bool {
	lo, hi := rangeFor(m)
	return unbounded.Cmp(lo) < 0 || unbounded.Cmp(hi) > 0
}

func rangeFor(m *mode.Mode) (lo, hi *big.Int) {
	if m.Signed {
		hi = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(m.Bits-1)), big.NewInt(1))
		lo = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(m.Bits-1)))
		return lo, hi
	}
	lo = big.NewInt(0)
	hi = mask(m.Bits)
	return lo, hi
}

// Equal compares two tarvals. Since tarvals are interned, this is
// just pointer identity.
func Equal(a, b *Tarval) bool { return a == b }

// IsZero reports whether t is the additive identity of its mode.
func (t *Tarval) IsZero() bool {
	if t.bad {
		return false
	}
	if t.Mode.Arithmetic == mode.ArithIEEE754 {
		return t.f == 0
	}
	return t.bits.Sign() == 0
}

// IsOne reports whether t is the multiplicative identity of its mode.
func (t *Tarval) IsOne() bool {
	if t.bad {
		return false
	}
	if t.Mode.Arithmetic == mode.ArithIEEE754 {
		return t.f == 1
	}
	return t.signedValueOrUnsigned().Cmp(big.NewInt(1)) == 0
}

// PowerOfTwo reports whether t is a positive power of two (zero and
// negative values report false),
// returning its base-2 exponent. Used by the local optimizer's
// strength-reduction transform (Mul by a power of two -> Shl).
func (t *Tarval) PowerOfTwo() (shift uint, ok bool) {
	if t.bad || t.Mode.Arithmetic == mode.ArithIEEE754 {
		return 0, false
	}
	v := t.signedValueOrUnsigned()
	if v.Sign() <= 0 {
		return 0, false
	}
	if new(big.Int).And(v, new(big.Int).Sub(v, big.NewInt(1))).Sign() != 0 {
		return 0, false
	}
	return uint(v.BitLen() - 1), true
}

// Hash returns a value suitable for use as a hash-table key component;
// equal tarvals (by interning) always produce equal hashes.
func (t *Tarval) Hash() uint64 {
	h := uint64(14695981039346656037)
	mix := func(v uint64) {
		for i := 0; i < 8; i++ {
			h ^= v & 0xff
			h *= 1099511628211
			v >>= 8
		}
	}
	for _, c := range t.Mode.Name {
		mix(uint64(c))
	}
	if t.bad {
		mix(1)
		return h
	}
	if t.Mode.Arithmetic == mode.ArithIEEE754 {
		mix(math.Float64bits(t.f))
		return h
	}
	for _, w := range t.bits.Bits() {
		mix(uint64(w))
	}
	return h
}

// Cmp computes the relation between a and b.
func Cmp(a, b *Tarval) Relation {
	if a.Mode != b.Mode || a.bad || b.bad {
		return False
	}
	if a.Mode.Arithmetic == mode.ArithIEEE754 {
		if math.IsNaN(a.f) || math.IsNaN(b.f) {
			return Uo
		}
		switch {
		case a.f < b.f:
			return Lt
		case a.f > b.f:
			return Gt
		default:
			return Eq
		}
	}
	x, y := a.signedValueOrUnsigned(), b.signedValueOrUnsigned()
	switch x.Cmp(y) {
	case -1:
		return Lt
	case 1:
		return Gt
	default:
		return Eq
	}
}
