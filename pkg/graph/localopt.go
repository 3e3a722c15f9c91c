package graph

import (
	"github.com/oisee/irgraph/pkg/mode"
	"github.com/oisee/irgraph/pkg/opcode"
	"github.com/oisee/irgraph/pkg/tarval"
)

// optimizeNode is the local-optimizer entry point every constructor in
// construct.go funnels through. It runs, in order: identity
// simplification, constant folding, value numbering/CSE, then
// algebraic transforms — stopping at the first rule that applies and
// returning its result without re-running the pipeline on it (a
// constructor call already happens for every new node; chasing
// further rewrites here would just duplicate the worklist passes in
// pkg/cfopt and pkg/inline).
// Reoptimize re-runs the local-optimizer pipeline over n. Exported for
// the inliner, which wires spliced callee nodes verbatim (clone.go's
// CloneShell bypasses optimizeNode so cyclic operand lists can be
// filled in across two passes) and then gives each one a single
// optimize pass so constant arguments fold into the copied body.
func (g *Graph) Reoptimize(n *Node) *Node {
	return g.optimizeNode(n)
}

func (g *Graph) optimizeNode(n *Node) *Node {
	if r := g.equivalentNode(n); r != nil && r != n {
		g.Exchange(n, r)
		return r
	}

	if g.ConstFoldEnabled {
		if v := g.computedValue(n); v != nil {
			c := g.NewConst(n.Block, v)
			if c != n {
				g.Exchange(n, c)
			}
			return c
		}
	}

	if g.CSEEnabled {
		if existing := g.cseFind(n); existing != nil {
			return existing
		}
	}

	if r := g.transformNode(n); r != nil && r != n {
		g.Exchange(n, r)
		return r
	}

	if g.CSEEnabled {
		g.cseInsert(n)
	}
	return n
}

// optimizeInPlace re-runs the pipeline over every node already
// attached to block b, for use right after MatureImmBlock resolves
// that block's Phis: arguments that were Phi0 placeholders at
// construction time may have since collapsed, so nodes built against
// them can only simplify now, never regress. Block-local, not a
// whole-graph pass.
func (g *Graph) optimizeInPlace(b *Node) {
	if b.block == nil {
		return
	}
	for _, n := range append([]*Node(nil), b.block.users...) {
		if n == b || n.Op == opcode.OpPhi0 {
			continue
		}
		g.optimizeNode(n)
	}
}

// --- identity simplification ("equivalent_node") ---

func (g *Graph) equivalentNode(n *Node) *Node {
	switch n.Op {
	case opcode.OpAdd:
		if isConstZero(n.In[1]) {
			return n.In[0]
		}
		if isConstZero(n.In[0]) {
			return n.In[1]
		}
	case opcode.OpSub:
		if isConstZero(n.In[1]) {
			return n.In[0]
		}
		if n.In[0] == n.In[1] {
			return g.NewConst(n.Block, tarval.FromInt64(n.Mode, 0))
		}
	case opcode.OpMul:
		if isConstOne(n.In[1]) {
			return n.In[0]
		}
		if isConstOne(n.In[0]) {
			return n.In[1]
		}
		if isConstZero(n.In[1]) {
			return n.In[1]
		}
		if isConstZero(n.In[0]) {
			return n.In[0]
		}
	case opcode.OpOr, opcode.OpAnd:
		if n.In[0] == n.In[1] {
			return n.In[0]
		}
	case opcode.OpEor:
		if n.In[0] == n.In[1] {
			return g.NewConst(n.Block, tarval.FromInt64(n.Mode, 0))
		}
		if isConstZero(n.In[1]) {
			return n.In[0]
		}
	case opcode.OpShl, opcode.OpShr, opcode.OpShrs, opcode.OpRotl:
		if isConstZero(n.In[1]) {
			return n.In[0]
		}
	case opcode.OpNot:
		if n.In[0].Op == opcode.OpNot {
			return n.In[0].In[0]
		}
	case opcode.OpMinus:
		if n.In[0].Op == opcode.OpMinus {
			return n.In[0].In[0]
		}
	case opcode.OpConv:
		if n.In[0].Mode == n.Mode {
			return n.In[0]
		}
	case opcode.OpId:
		return n.In[0]
	case opcode.OpProj:
		if n.In[0].Op == opcode.OpTuple {
			idx := n.Attrs.(ProjAttrs).Num
			if idx < len(n.In[0].In) {
				return n.In[0].In[idx]
			}
		}
	case opcode.OpConfirm:
		// A Confirm whose bound is the unknown/Bad sentinel carries no
		// information; drop it ("Confirm with unknown bound is
		// equivalent to its value").
		if n.In[1] == n.Graph.Bad || n.In[1] == n.Graph.Unknown {
			return n.In[0]
		}
	}
	return nil
}

func isConstZero(n *Node) bool {
	return n.Op == opcode.OpConst && n.Attrs.(ConstAttrs).Val.IsZero()
}

func isConstOne(n *Node) bool {
	return n.Op == opcode.OpConst && n.Attrs.(ConstAttrs).Val.IsOne()
}

// --- constant folding ("computed_value") ---

func (g *Graph) computedValue(n *Node) *tarval.Tarval {
	isConst := func(i int) bool { return n.In[i].Op == opcode.OpConst }
	val := func(i int) *tarval.Tarval { return n.In[i].Attrs.(ConstAttrs).Val }

	shiftAmount := func(i int) uint { return uint(val(i).Int64()) }

	switch n.Op {
	case opcode.OpAdd:
		if isConst(0) && isConst(1) {
			return tarval.Add(val(0), val(1))
		}
	case opcode.OpSub:
		if isConst(0) && isConst(1) {
			return tarval.Sub(val(0), val(1))
		}
	case opcode.OpMul:
		if isConst(0) && isConst(1) {
			return tarval.Mul(val(0), val(1))
		}
	case opcode.OpAnd:
		if isConst(0) && isConst(1) {
			return tarval.And(val(0), val(1))
		}
	case opcode.OpOr:
		if isConst(0) && isConst(1) {
			return tarval.Or(val(0), val(1))
		}
	case opcode.OpEor:
		if isConst(0) && isConst(1) {
			return tarval.Eor(val(0), val(1))
		}
	case opcode.OpShl:
		if isConst(0) && isConst(1) {
			return tarval.Shl(val(0), shiftAmount(1))
		}
	case opcode.OpShr:
		if isConst(0) && isConst(1) {
			return tarval.Shr(val(0), shiftAmount(1))
		}
	case opcode.OpShrs:
		if isConst(0) && isConst(1) {
			return tarval.Shrs(val(0), shiftAmount(1))
		}
	case opcode.OpRotl:
		if isConst(0) && isConst(1) {
			return tarval.Rotl(val(0), shiftAmount(1))
		}
	case opcode.OpNot:
		if isConst(0) {
			return tarval.Not(val(0))
		}
	case opcode.OpMinus:
		if isConst(0) {
			return tarval.Minus(val(0))
		}
	case opcode.OpConv:
		if isConst(0) {
			return tarval.Conv(val(0), n.Mode)
		}
	case opcode.OpCmp:
		if isConst(0) && isConst(1) {
			rel := tarval.Cmp(val(0), val(1))
			if n.Attrs.(CmpAttrs).Rel.Holds(rel) {
				return tarval.FromInt64(mode.B, 1)
			}
			return tarval.FromInt64(mode.B, 0)
		}
	}
	return nil
}

// --- algebraic transforms ("transform_node") ---

func (g *Graph) transformNode(n *Node) *Node {
	switch n.Op {
	case opcode.OpMul:
		if c, x, ok := constAndOther(n); ok {
			if shift, ok := c.PowerOfTwo(); ok {
				return g.NewShl(n.Block, x, g.NewConst(n.Block, tarval.FromInt64(x.Mode, int64(shift))))
			}
		}
	case opcode.OpCmp:
		// Normalize Cmp(Const, x) to Cmp(x, Const) with the relation
		// mirrored, so CSE sees a canonical form regardless of operand
		// order ("canonicalize commutative-ish compares").
		if n.In[0].Op == opcode.OpConst && n.In[1].Op != opcode.OpConst {
			rel := n.Attrs.(CmpAttrs).Rel
			return g.NewCmp(n.Block, n.In[1], n.In[0], rel.Mirror())
		}
	case opcode.OpAnd, opcode.OpOr:
		// Boolean/Cond pair fusion: an And/Or of two Cmps sharing the
		// same operand pair collapses to a single Cmp. Tried before the
		// generic const-on-the-right
		// canonicalization below since it applies to a disjoint set of
		// operand shapes (two Cmps, not a Const operand).
		if r := g.fuseCmpPair(n); r != nil {
			return r
		}
		if n.In[0].Op == opcode.OpConst && n.In[1].Op != opcode.OpConst {
			return g.rebuildCommutative(n, n.In[1], n.In[0])
		}
	case opcode.OpAdd, opcode.OpEor:
		// Canonicalize commutative ops with exactly one Const operand to
		// (value, Const) order, matching the source's "move constants to
		// the right" normalization so CSE/identity rules need only one
		// operand-order case.
		if n.In[0].Op == opcode.OpConst && n.In[1].Op != opcode.OpConst {
			return g.rebuildCommutative(n, n.In[1], n.In[0])
		}
	}
	return nil
}

// fuseCmpPair implements Boolean/Cond pair fusion: when both operands
// of an And/Or are Cmps comparing the
// same pair of values, the pair collapses to one Cmp whose relation is
// the bitwise intersection (And) or union (Or) of the two relations —
// the pnc_lo/pnc_hi truth table — folding further to a Const when the
// combined relation is always-false or always-true.
func (g *Graph) fuseCmpPair(n *Node) *Node {
	a, b := n.In[0], n.In[1]
	if a.Op != opcode.OpCmp || b.Op != opcode.OpCmp {
		return nil
	}
	aRel, bRel := a.Attrs.(CmpAttrs).Rel, b.Attrs.(CmpAttrs).Rel

	var lhs, rhs *Node
	var combined tarval.Relation
	switch {
	case a.In[0] == b.In[0] && a.In[1] == b.In[1]:
		lhs, rhs = a.In[0], a.In[1]
		combined = combineRel(n.Op, aRel, bRel)
	case a.In[0] == b.In[1] && a.In[1] == b.In[0]:
		lhs, rhs = a.In[0], a.In[1]
		combined = combineRel(n.Op, aRel, bRel.Mirror())
	default:
		return nil
	}

	// Non-float compares are never unordered, so for them a relation
	// covering all of Lt, Eq and Gt is always true, and one covering
	// none of them is always false.
	if !lhs.Mode.IsFloat() {
		switch combined & tarval.Leg {
		case tarval.Leg:
			combined = tarval.True
		case tarval.False:
			combined = tarval.False
		}
	}

	switch combined {
	case tarval.False:
		return g.NewConst(n.Block, tarval.FromInt64(mode.B, 0))
	case tarval.True:
		return g.NewConst(n.Block, tarval.FromInt64(mode.B, 1))
	}
	return g.NewCmp(n.Block, lhs, rhs, combined)
}

func combineRel(op opcode.Op, x, y tarval.Relation) tarval.Relation {
	if op == opcode.OpAnd {
		return x & y
	}
	return x | y
}

func (g *Graph) rebuildCommutative(n *Node, a, b *Node) *Node {
	switch n.Op {
	case opcode.OpAdd:
		return g.NewAdd(n.Block, a, b)
	case opcode.OpAnd:
		return g.NewAnd(n.Block, a, b)
	case opcode.OpOr:
		return g.NewOr(n.Block, a, b)
	case opcode.OpEor:
		return g.NewEor(n.Block, a, b)
	}
	return n
}

func constAndOther(n *Node) (c *tarval.Tarval, other *Node, ok bool) {
	if n.In[0].Op == opcode.OpConst {
		return n.In[0].Attrs.(ConstAttrs).Val, n.In[1], true
	}
	if n.In[1].Op == opcode.OpConst {
		return n.In[1].Attrs.(ConstAttrs).Val, n.In[0], true
	}
	return nil, nil, false
}

// --- value numbering / CSE ---

func (g *Graph) cseKey(n *Node) uint64 {
	h := uint64(fnvOffset)
	h = fnvMix(h, uint64(n.Op))
	h = fnvMix(h, modeHash(n.Mode))
	h = fnvMix(h, nodePtrHash(n.Block))
	for _, in := range n.In {
		h = fnvMix(h, nodePtrHash(in))
	}
	h = fnvMix(h, attrsHash(n.Attrs))
	return h
}

const fnvOffset = 1469598103934665603
const fnvPrime = 1099511628211

func fnvMix(h, v uint64) uint64 {
	for i := 0; i < 8; i++ {
		h ^= v & 0xff
		h *= fnvPrime
		v >>= 8
	}
	return h
}

func nodePtrHash(n *Node) uint64 {
	if n == nil {
		return 0
	}
	return uint64(n.ID) + 1
}

func modeHash(m *mode.Mode) uint64 {
	if m == nil {
		return 0
	}
	h := uint64(fnvOffset)
	for _, c := range m.String() {
		h = fnvMix(h, uint64(c))
	}
	return h
}

func attrsHash(a any) uint64 {
	switch v := a.(type) {
	case nil:
		return 0
	case ConstAttrs:
		return fnvMix(fnvOffset, v.Val.Hash())
	case ProjAttrs:
		return fnvMix(fnvOffset, uint64(v.Num))
	case CmpAttrs:
		return fnvMix(fnvOffset, uint64(v.Rel))
	case ConfirmAttrs:
		return fnvMix(fnvOffset, uint64(v.Rel))
	case SelAttrs:
		return fnvMix(fnvOffset, strHash(v.Entity.Name))
	case CallAttrs:
		if v.Callee != nil {
			return fnvMix(fnvOffset, strHash(v.Callee.Name))
		}
		return fnvOffset
	case SwitchAttrs:
		return fnvMix(fnvOffset, uint64(v.NumCases))
	case SymConstAttrs:
		if v.Entity != nil {
			return fnvMix(fnvOffset, strHash(v.Entity.Name))
		}
		if v.Type != nil {
			return fnvMix(fnvOffset, strHash(v.Type.Name))
		}
		return fnvOffset
	case AllocAttrs:
		return fnvMix(fnvOffset, strHash(v.Type.Name))
	case LoadAttrs:
		return fnvMix(fnvOffset, modeHash(v.ResMode))
	default:
		return fnvOffset
	}
}

func strHash(s string) uint64 {
	h := uint64(fnvOffset)
	for _, c := range s {
		h = fnvMix(h, uint64(c))
	}
	return h
}

// cseNodesEqual reports whether a and b are structurally identical
// enough to be the same value: same op, mode, block, ins, and attrs.
// CSE never merges nodes with side effects that aren't already
// memory-ordered by their In[0] (Load/Store/Call/Div/Mod carry their
// incoming memory as an operand, so identical memory operands already
// imply a legal merge).
func cseNodesEqual(a, b *Node) bool {
	if a.Op != b.Op || a.Mode != b.Mode || a.Block != b.Block {
		return false
	}
	if len(a.In) != len(b.In) {
		return false
	}
	for i := range a.In {
		if a.In[i] != b.In[i] {
			return false
		}
	}
	return attrsEqual(a.Attrs, b.Attrs)
}

func attrsEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case ConstAttrs:
		bv, ok := b.(ConstAttrs)
		return ok && av.Val == bv.Val
	case ProjAttrs:
		bv, ok := b.(ProjAttrs)
		return ok && av.Num == bv.Num
	case CmpAttrs:
		bv, ok := b.(CmpAttrs)
		return ok && av.Rel == bv.Rel
	case ConfirmAttrs:
		bv, ok := b.(ConfirmAttrs)
		return ok && av.Rel == bv.Rel
	case SelAttrs:
		bv, ok := b.(SelAttrs)
		return ok && av.Entity == bv.Entity
	case CallAttrs:
		bv, ok := b.(CallAttrs)
		return ok && av.Callee == bv.Callee && av.NumResults == bv.NumResults
	case SwitchAttrs:
		bv, ok := b.(SwitchAttrs)
		return ok && av.NumCases == bv.NumCases
	case SymConstAttrs:
		bv, ok := b.(SymConstAttrs)
		return ok && av.Entity == bv.Entity && av.Type == bv.Type
	case AllocAttrs:
		bv, ok := b.(AllocAttrs)
		return ok && av.Type == bv.Type
	case LoadAttrs:
		bv, ok := b.(LoadAttrs)
		return ok && av.ResMode == bv.ResMode
	default:
		return false
	}
}

// cseEligible excludes ops the value-numbering table should never
// merge by structure alone: Phi (identity depends on block-local
// position, already handled in construct.go), and the control/effect
// ops whose identity is inherently positional. Load is eligible: its
// memory operand is In[0] like any other operand, so cseNodesEqual's
// In-slice comparison already requires two Loads to agree on the
// exact same incoming memory value before merging, which is what
// makes the merge legal (an intervening Store produces a new memory
// node, so a Load after it never matches one from before it). Store,
// Call, Alloc and Free are still excluded: they have no result worth
// deduplicating, or (Call) may have effects beyond their declared
// memory edge.
func cseEligible(op opcode.Op) bool {
	switch op {
	case opcode.OpPhi, opcode.OpPhi0, opcode.OpBlock, opcode.OpStart, opcode.OpEnd,
		opcode.OpJmp, opcode.OpCond, opcode.OpSwitch, opcode.OpReturn, opcode.OpRaise,
		opcode.OpStore, opcode.OpCall, opcode.OpAlloc, opcode.OpFree,
		opcode.OpSync, opcode.OpProj:
		return false
	}
	return true
}

func (g *Graph) cseFind(n *Node) *Node {
	if !cseEligible(n.Op) {
		return nil
	}
	key := g.cseKey(n)
	for _, cand := range g.cseTable[key] {
		if cand != n && cseNodesEqual(cand, n) {
			return cand
		}
	}
	return nil
}

func (g *Graph) cseInsert(n *Node) {
	if !cseEligible(n.Op) {
		return
	}
	key := g.cseKey(n)
	g.cseTable[key] = append(g.cseTable[key], n)
}
