package graph

import (
	"github.com/oisee/irgraph/pkg/tarval"
	"github.com/oisee/irgraph/pkg/typ"
)

// Per-opcode attribute payloads ("per-opcode attribute payload").
// Each op-specific constructor in construct.go fills one of
// these and stores it in Node.Attrs.

// ConstAttrs holds the value of a Const node.
type ConstAttrs struct {
	Val *tarval.Tarval
}

// ProjAttrs holds a Proj node's projection number.
type ProjAttrs struct {
	Num int
}

// CmpAttrs holds the relation a Cmp node tests for.
type CmpAttrs struct {
	Rel tarval.Relation
}

// ConfirmAttrs holds a Confirm node's asserted relation to its bound
// operand. Only Const bounds are handled by the core range lattice.
type ConfirmAttrs struct {
	Rel tarval.Relation
}

// SymConstAttrs names the Entity or Type a SymConst denotes.
type SymConstAttrs struct {
	Entity *typ.Entity
	Type   *typ.Type
}

// SelAttrs names the member Entity a Sel node addresses.
type SelAttrs struct {
	Entity *typ.Entity
}

// CallAttrs records a Call's statically-known callee, if any (an
// indirect call leaves Callee nil and reads it from In instead).
type CallAttrs struct {
	Callee     *typ.Entity
	NumResults int
}

// AllocAttrs records what Type an Alloc node allocates.
type AllocAttrs struct {
	Type *typ.Type
}

// SwitchAttrs records how many non-default cases a Switch has.
type SwitchAttrs struct {
	NumCases int
}

// NoInlineProperty-style per-graph attributes live on typ.Entity /
// Graph rather than a Node, since they describe the whole procedure
// (the can_inline checks).
