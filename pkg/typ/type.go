// Package typ models aggregate layout (Type) and named storage
// locations (Entity).
package typ

import "github.com/oisee/irgraph/pkg/mode"

// Kind discriminates the variants of Type.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindPointer
	KindArray
	KindStruct
	KindClass
	KindUnion
	KindMethod
	KindEnum
	KindUnknown
)

// LayoutState tracks whether a Type's size/offsets have been fixed.
type LayoutState uint8

const (
	LayoutUndefined LayoutState = iota
	LayoutFixed
)

// Dimension is one array dimension with optional bound expressions.
// Bound expressions are represented abstractly (front-end supplied)
// since the core does not evaluate them; nil means unbounded.
type Dimension struct {
	Lower, Upper *int64
}

// Type is one of a closed set of layout variants. Which fields are
// meaningful depends on Kind.
type Type struct {
	Kind Kind
	Name string

	Mode *mode.Mode // KindPrimitive

	PointsTo *Type // KindPointer

	Element    *Type       // KindArray
	Dimensions []Dimension // KindArray

	Members []*Entity // KindStruct / KindClass / KindUnion, ordered

	Params  []*Type // KindMethod
	Results []*Type // KindMethod
	CallConv uint32  // KindMethod, opaque calling-convention bits

	EnumValues []string // KindEnum

	Layout  LayoutState
	Size    uint64 // valid once Layout == LayoutFixed
	Align   uint64
	visited uint64
}

// NewPrimitive returns a primitive Type wrapping m, its layout already
// fixed at m's size.
func NewPrimitive(name string, m *mode.Mode) *Type {
	t := &Type{Kind: KindPrimitive, Name: name, Mode: m}
	t.Size = uint64(m.Bits) / 8
	t.Align = uint64(m.Align)
	t.Layout = LayoutFixed
	return t
}

// NewPointer returns a pointer-to-pointsTo Type.
func NewPointer(pointsTo *Type) *Type {
	return &Type{Kind: KindPointer, PointsTo: pointsTo, Layout: LayoutFixed, Size: 8, Align: 8}
}

// NewArray returns an array Type of element with the given dimensions.
// Layout is undefined until DefaultLayoutCompoundType-equivalent fixing
// (here: FixArrayLayout, since arrays are not struct-like).
func NewArray(element *Type, dims []Dimension) *Type {
	return &Type{Kind: KindArray, Element: element, Dimensions: dims, Layout: LayoutUndefined}
}

// FixArrayLayout fixes an array Type's size once all dimensions are
// bounded; it is a no-op if already fixed.
func (t *Type) FixArrayLayout() {
	if t.Kind != KindArray || t.Layout == LayoutFixed {
		return
	}
	count := uint64(1)
	for _, d := range t.Dimensions {
		if d.Lower == nil || d.Upper == nil {
			return // still unbounded; cannot fix
		}
		n := *d.Upper - *d.Lower + 1
		if n < 0 {
			n = 0
		}
		count *= uint64(n)
	}
	t.Size = count * t.Element.Size
	t.Align = t.Element.Align
	t.Layout = LayoutFixed
}

// NewCompound returns a new unfixed-layout struct/class/union Type.
func NewCompound(kind Kind, name string) *Type {
	return &Type{Kind: kind, Name: name, Layout: LayoutUndefined}
}

// AddMember appends e to t's member list; t must be a compound type
// with undefined layout (adding members after layout is fixed would
// leave already-computed entity offsets stale).
func (t *Type) AddMember(e *Entity) {
	e.Owner = t
	t.Members = append(t.Members, e)
}

// DefaultLayoutCompoundType fixes a struct/class/union's layout by
// summing members with natural alignment. Unions overlay every member
// at offset 0 and take the size/alignment of the
// widest member.
func (t *Type) DefaultLayoutCompoundType() {
	if t.Layout == LayoutFixed {
		return
	}
	switch t.Kind {
	case KindUnion:
		var size, align uint64
		for _, m := range t.Members {
			m.Offset = 0
			if m.Type.Size > size {
				size = m.Type.Size
			}
			if m.Type.Align > align {
				align = m.Type.Align
			}
		}
		if align == 0 {
			align = 1
		}
		t.Size = roundUp(size, align)
		t.Align = align
	default: // struct, class
		var offset, align uint64
		for _, m := range t.Members {
			a := m.Type.Align
			if a == 0 {
				a = 1
			}
			offset = roundUp(offset, a)
			m.Offset = offset
			offset += m.Type.Size
			if a > align {
				align = a
			}
		}
		if align == 0 {
			align = 1
		}
		t.Size = roundUp(offset, align)
		t.Align = align
	}
	t.Layout = LayoutFixed
}

func roundUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	rem := v % align
	if rem == 0 {
		return v
	}
	return v + (align - rem)
}

// NewMethod returns a method Type with the given parameter and result
// Types.
func NewMethod(params, results []*Type, callConv uint32) *Type {
	return &Type{Kind: KindMethod, Params: params, Results: results, CallConv: callConv, Layout: LayoutFixed}
}

// Unknown is the program-wide unknown-type sentinel (the `unknown`
// Kind).
var Unknown = &Type{Kind: KindUnknown, Name: "unknown", Layout: LayoutFixed}

// Visit marks t as visited in traversal generation gen and reports
// whether it was already marked in that generation.
func (t *Type) Visit(gen uint64) (alreadyVisited bool) {
	if t.visited == gen {
		return true
	}
	t.visited = gen
	return false
}
