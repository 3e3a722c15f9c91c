package graph

// ActivateEdges turns on def-use edge maintenance for the requested
// kinds and performs a bulk rebuild: clear every out-list, then walk
// every node's operands once, appending one edge record per slot, so
// no edge is ever both invalid and present.
func (g *Graph) ActivateEdges(normal, block bool) {
	if normal && !g.edgesActive.Normal {
		g.rebuildNormalEdges()
		g.edgesActive.Normal = true
	}
	if block && !g.edgesActive.Block {
		g.rebuildBlockEdges()
		g.edgesActive.Block = true
	}
}

// DeactivateEdges turns off edge maintenance. The inliner deactivates
// edges for both caller and callee after splicing;
// the next pass that needs them must re-activate.
func (g *Graph) DeactivateEdges() {
	g.edgesActive.Normal = false
	g.edgesActive.Block = false
}

// EdgesActive reports whether normal/block edges are currently
// maintained.
func (g *Graph) EdgesActive() (normal, block bool) {
	return g.edgesActive.Normal, g.edgesActive.Block
}

func (g *Graph) rebuildNormalEdges() {
	for _, n := range g.nodes {
		n.outs = nil
	}
	for _, n := range g.nodes {
		for pos, in := range n.In {
			if in == nil {
				continue
			}
			in.outs = append(in.outs, outEdge{user: n, pos: pos})
		}
	}
}

func (g *Graph) rebuildBlockEdges() {
	for _, n := range g.nodes {
		if n.IsBlock() && n.block != nil {
			n.block.users = nil
		}
	}
	for _, n := range g.nodes {
		if n.Block != nil && n.Block.block != nil {
			n.Block.block.users = append(n.Block.block.users, n)
		}
	}
}

// Out is one def-use edge viewed from the defining node: the node that
// uses it, and the slot it occupies in that user's In array.
type Out struct {
	User *Node
	Pos  int
}

// Outs returns n's current out-list. Valid only while normal edges are
// active; callers must check EdgesActive first.
func (n *Node) Outs() []Out {
	outs := make([]Out, 0, len(n.outs))
	for _, e := range n.outs {
		if e.pos >= 0 {
			outs = append(outs, Out{User: e.user, Pos: e.pos})
		}
	}
	return outs
}

// OutCount returns len(n.Outs()) without allocating.
func (n *Node) OutCount() int {
	c := 0
	for _, e := range n.outs {
		if e.pos >= 0 {
			c++
		}
	}
	return c
}

// BlockUsers returns the nodes whose Block field points at b (the
// block-edge kind). Valid only while block edges are active.
func (b *Node) BlockUsers() []*Node {
	if b.block == nil {
		return nil
	}
	return append([]*Node(nil), b.block.users...)
}

// SetIn rewrites n's operand at pos to newTgt, maintaining def-use
// edges when active: removing the (n,pos) record from the old
// target's out-list and inserting it into the new target's, per the
// edge notification contract.
func (g *Graph) SetIn(n *Node, pos int, newTgt *Node) {
	old := n.In[pos]
	n.In[pos] = newTgt
	if !g.edgesActive.Normal {
		return
	}
	if old != nil {
		old.removeOut(n, pos)
	}
	if newTgt != nil {
		newTgt.outs = append(newTgt.outs, outEdge{user: n, pos: pos})
	}
}

func (n *Node) removeOut(user *Node, pos int) {
	for i, e := range n.outs {
		if e.user == user && e.pos == pos {
			n.outs = append(n.outs[:i], n.outs[i+1:]...)
			return
		}
	}
}

// Exchange replaces every use of old with replacement (rewriting each
// user's In slot) and leaves old with no remaining normal-edge users.
// This is the primitive behind identity collapse, CSE, and CF
// simplification, mirroring the source's exchange().
func (g *Graph) Exchange(old, replacement *Node) {
	if old == replacement {
		return
	}
	if !g.edgesActive.Normal {
		// Fall back to a full scan; slower, but correct even before
		// edges are built.
		for _, n := range g.nodes {
			for i, in := range n.In {
				if in == old {
					n.In[i] = replacement
				}
			}
		}
		return
	}
	users := append([]outEdge(nil), old.outs...)
	for _, e := range users {
		if e.pos < 0 {
			continue
		}
		g.SetIn(e.user, e.pos, replacement)
	}
}
