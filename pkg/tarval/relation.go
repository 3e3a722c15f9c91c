package tarval

// Relation is the 4-bit result of a comparison: the three ordered
// bits {less, greater, equal} plus an unordered bit, composed into
// the sixteen canonical relations below.
type Relation uint8

const (
	bitLess Relation = 1 << iota
	bitGreater
	bitEqual
	bitUnordered
)

// The sixteen canonical relations.
const (
	False Relation = 0
	Lt             = bitLess
	Gt             = bitGreater
	Eq             = bitEqual
	Lg             = bitLess | bitGreater
	Le             = bitLess | bitEqual
	Ge             = bitGreater | bitEqual
	Leg            = bitLess | bitGreater | bitEqual
	Uo             = bitUnordered
	Ue             = bitUnordered | bitEqual
	Ul             = bitUnordered | bitLess
	Ule            = bitUnordered | bitLess | bitEqual
	Ug             = bitUnordered | bitGreater
	Uge            = bitUnordered | bitGreater | bitEqual
	Ne             = bitUnordered | bitLess | bitGreater
	True           = bitUnordered | bitLess | bitGreater | bitEqual
)

// Holds reports whether every bit set in other is also set in r —
// i.e. whether a comparison result satisfying r also satisfies other.
func (r Relation) Holds(other Relation) bool { return r&other == other }

// Mirror returns r with its less/greater bits swapped, the relation
// that holds between b and a when r holds between a and b — used to
// canonicalize a Cmp whose operands get reordered.
func (r Relation) Mirror() Relation {
	m := r &^ (bitLess | bitGreater)
	if r&bitLess != 0 {
		m |= bitGreater
	}
	if r&bitGreater != 0 {
		m |= bitLess
	}
	return m
}

// Negate returns the logical complement of r over the full 4-bit
// relation space (e.g. Negate(Lt) == Uge: the result also carries the
// unordered bit, so it stays correct for float comparisons).
func (r Relation) Negate() Relation { return True &^ r }

func (r Relation) String() string {
	switch r {
	case False:
		return "false"
	case Lt:
		return "<"
	case Gt:
		return ">"
	case Eq:
		return "=="
	case Lg:
		return "<>"
	case Le:
		return "<="
	case Ge:
		return ">="
	case Leg:
		return "<=>"
	case Uo:
		return "unordered"
	case Ue:
		return "u=="
	case Ul:
		return "u<"
	case Ule:
		return "u<="
	case Ug:
		return "u>"
	case Uge:
		return "u>="
	case Ne:
		return "!="
	case True:
		return "true"
	default:
		return "?"
	}
}
