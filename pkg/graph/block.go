package graph

import "github.com/oisee/irgraph/pkg/opcode"

// blockData holds the construction-time and steady-state bookkeeping
// for a Block node.
type blockData struct {
	// immature blocks have a growable pred array and accept new
	// cfg-preds via AddImmBlockPred; mature blocks have a frozen pred
	// array.
	immature bool

	// philist holds Phi0 placeholders awaiting resolution by
	// MatureImmBlock, along with the local-variable position each
	// placeholder was created for.
	philist []phiWait

	// varMap is this block's graph_arr: local variable index -> the
	// current SSA value for that index within this block. Index 0 is
	// reserved for the memory thread.
	varMap map[int]*Node

	// users is the block-edge reverse index: every node whose Block
	// field points at this block (the "block" edge kind).
	users []*Node
}

type phiWait struct {
	phi *Node
	pos int
}

// NewImmBlock creates a new immature Block in g with no predecessors
// yet.
func (g *Graph) NewImmBlock() *Node {
	b := g.allocNode(opcode.OpBlock, modeX())
	b.Block = b
	b.block = &blockData{immature: true, varMap: map[int]*Node{}}
	return b
}

// AddImmBlockPred appends a new cfg-pred control value (an X-mode
// value, typically a Jmp or Cond-Proj) to the immature block b. Panics
// if b is already matured: construction misuse is a programmer
// error.
func (g *Graph) AddImmBlockPred(b *Node, pred *Node) {
	if !b.IsBlock() {
		fatalMisuse("AddImmBlockPred", "target is not a Block")
	}
	if b.block == nil || !b.block.immature {
		fatalMisuse("AddImmBlockPred", "block %v is already matured", b)
	}
	g.appendIn(b, pred)

	// Growing a pred array invalidates any Phi0 already queued on this
	// block's phi-list: their arity must track the block's. Since
	// phi-list Phis are resolved only at mature time, we simply let
	// MatureImmBlock size them from the final pred
	// count; nothing to do here beyond recording the new pred.
}

// IsMatured reports whether b's predecessor arity is frozen.
func (b *Node) IsMatured() bool {
	return b.block != nil && !b.block.immature
}

// Preds returns b's current cfg predecessors (the X-mode values
// feeding it), i.e. b.In.
func (b *Node) Preds() []*Node { return b.In }

// PredArity returns the number of cfg predecessors b currently has.
func (b *Node) PredArity() int { return len(b.In) }

// MatureImmBlock freezes b's predecessor array and resolves every
// queued Phi0 by calling setPhiArguments. Maturing is idempotent.
func (g *Graph) MatureImmBlock(b *Node) {
	if !b.IsBlock() {
		fatalMisuse("MatureImmBlock", "target is not a Block")
	}
	if b.block == nil {
		fatalMisuse("MatureImmBlock", "block %v has no construction state", b)
	}
	if !b.block.immature {
		return // idempotent
	}
	b.block.immature = false

	phis := b.block.philist
	b.block.philist = nil
	for _, pw := range phis {
		// The placeholder may already have been superseded in varMap
		// (e.g. a sibling read collapsed it); only update if it is
		// still the installed value.
		resolved := g.setPhiArguments(pw.phi, pw.pos)
		if b.block.varMap[pw.pos] == pw.phi {
			b.block.varMap[pw.pos] = resolved
		}
	}

	g.optimizeInPlace(b)
}
