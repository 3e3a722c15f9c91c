// Package pass provides the graph walker, the per-node resource
// reservation handles, and the pass scheduler: a generation-counter
// visitor replacing a reset pass between walks, typed scoped handles
// replacing an ad-hoc resource bitmask, and a scheduler that refuses
// to run a pass whose declared State precondition is unmet.
package pass

import "github.com/oisee/irgraph/pkg/graph"

// Walker performs a depth-first walk of every node reachable from a
// graph's End node, following operand (In) edges backward, visiting
// each node exactly once per Walk call via a fresh generation counter
// — no separate reset pass is needed between walks.
type Walker struct {
	g *graph.Graph
}

// NewWalker creates a Walker over g.
func NewWalker(g *graph.Graph) *Walker { return &Walker{g: g} }

// Walk visits every node reachable from g.End, calling pre before
// descending into a node's operands and post after. Either callback
// may be nil.
func (w *Walker) Walk(pre, post func(n *graph.Node)) {
	gen := w.g.NextVisitGen()
	var visit func(n *graph.Node)
	visit = func(n *graph.Node) {
		if n == nil || n.Visit(gen) {
			return
		}
		if pre != nil {
			pre(n)
		}
		if n.Block != nil {
			visit(n.Block)
		}
		for _, in := range n.In {
			visit(in)
		}
		if post != nil {
			post(n)
		}
	}
	visit(w.g.End)
	// Keep-alives on End (Anchor-style) can reference subgraphs no
	// regular operand chain reaches; walk them too.
	for _, in := range w.g.End.In {
		visit(in)
	}
}

// WalkBlocks visits every reachable Block node exactly once, calling
// fn with each.
func (w *Walker) WalkBlocks(fn func(b *graph.Node)) {
	w.Walk(func(n *graph.Node) {
		if n.IsBlock() {
			fn(n)
		}
	}, nil)
}

// Reachable returns the set of reachable nodes from g.End, keyed by
// NodeID, computed via one Walk.
func Reachable(g *graph.Graph) map[graph.NodeID]*graph.Node {
	out := map[graph.NodeID]*graph.Node{}
	NewWalker(g).Walk(func(n *graph.Node) { out[n.ID] = n }, nil)
	return out
}
