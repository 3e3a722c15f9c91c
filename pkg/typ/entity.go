package typ

// Allocation classifies where an Entity's storage lives.
type Allocation uint8

const (
	AllocAutomatic Allocation = iota
	AllocStatic
)

// Visibility controls linker visibility of an Entity.
type Visibility uint8

const (
	VisLocal Visibility = iota
	VisExternalVisible
	VisExternalAllocated
)

// Variability describes whether an Entity's initial value may change.
type Variability uint8

const (
	VarUninitialized Variability = iota
	VarConstant
	VarInitialized
)

// Initializer is either a constant scalar or a path of sub-initializers
// for compound entities. Exactly one of Value/Path is set.
type Initializer struct {
	Value any // a *tarval.Tarval; typed any to avoid an import cycle
	Path  []*Initializer
}

// Entity is a named storage location or method belonging to an owner
// Type.
type Entity struct {
	Name        string
	linkerName  string // computed lazily by LinkerName
	Type        *Type
	Owner       *Type
	Allocation  Allocation
	Visibility  Visibility
	Variability Variability
	Volatile    bool
	Offset      uint64

	Initializer *Initializer

	// Graph is the associated procedure graph for a method Entity.
	// Typed any (a *graph.Graph) to avoid an import cycle between
	// pkg/typ and pkg/graph; pkg/graph type-asserts it back.
	Graph any

	// Inliner eligibility markers. NoInline and
	// AlwaysInline are mutually exclusive; with both set, NoInline wins:
	// inline.CanInline rejects the callee before Priority is consulted.
	NoInline     bool
	AlwaysInline bool
	NoReturn     bool

	Overwrites    []*Entity
	OverwrittenBy []*Entity
}

// NewEntity creates an Entity of the given name and type. It is not
// yet attached to an owner; call Type.AddMember or assign Owner
// directly for non-compound owners (e.g. a graph's frame type).
func NewEntity(name string, t *Type) *Entity {
	return &Entity{Name: name, Type: t, Variability: VarUninitialized}
}

// LinkerName computes (and caches) e's mangled linker name on demand.
// The mangling scheme here is a simple owner-qualified name; a real
// back end would substitute its own ABI-specific mangler.
func (e *Entity) LinkerName() string {
	if e.linkerName != "" {
		return e.linkerName
	}
	if e.Owner != nil && e.Owner.Name != "" {
		e.linkerName = e.Owner.Name + "." + e.Name
	} else {
		e.linkerName = e.Name
	}
	return e.linkerName
}

// AddOverwrite records that e overwrites base (e.g. virtual method
// override), maintaining both directions of the relation.
func (e *Entity) AddOverwrite(base *Entity) {
	e.Overwrites = append(e.Overwrites, base)
	base.OverwrittenBy = append(base.OverwrittenBy, e)
}
