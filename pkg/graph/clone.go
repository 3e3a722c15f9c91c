package graph

// CloneShell allocates a structural copy of orig with no block and no
// operands yet, for the inliner's two-pass body copy: nodes are
// shelled first so operand lists that reference not-yet-
// copied nodes (loop back-edges reaching a Phi) can be filled in once
// every node in the callee body has a counterpart.
func (g *Graph) CloneShell(orig *Node) *Node {
	n := g.allocNode(orig.Op, orig.Mode)
	n.Attrs = orig.Attrs
	n.Debug = orig.Debug
	return n
}

// SetNodeBlock attaches a previously shelled node to block. Exported
// for the inliner, which builds shells before their block is known.
func (g *Graph) SetNodeBlock(n, block *Node) { n.SetBlock(block) }

// AppendIn appends operand to n's input list, maintaining def-use
// edges when active. Exported for the inliner's body-copy pass, which
// fills operand lists in a second pass once every shell exists.
func (g *Graph) AppendIn(n *Node, operand *Node) { g.appendIn(n, operand) }

// FinalizeClonedBlock freezes a block created to hold spliced callee
// code, without running the local optimizer over it the way
// MatureImmBlock does: the body copy is meant to be verbatim, so any
// further simplification is left to a subsequent pkg/cfopt or
// construction-time pass rather than happening mid-splice.
func (g *Graph) FinalizeClonedBlock(b *Node) {
	if !b.IsBlock() || b.block == nil {
		return
	}
	b.block.immature = false
	b.block.philist = nil
}
