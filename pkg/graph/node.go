// Package graph implements the node/graph data model, the def-use
// edge mechanism, incremental SSA construction, and the local
// optimizer invoked at node construction time. These live in one
// component because their invariants are mutually dependent (CSE
// needs live edges, construction needs CSE, maturing a
// block needs both) — splitting them into separate packages would
// force either an import cycle or a public API wide enough to leak
// every internal invariant anyway.
package graph

import (
	"fmt"

	"github.com/oisee/irgraph/pkg/mode"
	"github.com/oisee/irgraph/pkg/opcode"
)

// NodeID is a stable, dense, per-graph node number.
type NodeID uint32

// Node is the atomic IR unit.
type Node struct {
	ID    NodeID
	Op    opcode.Op
	Mode  *mode.Mode
	Graph *Graph

	// Block is the controlling block (itself, for Block nodes).
	Block *Node

	// In holds operand slots 0..arity-1. Slot -1 (the controlling
	// block) is the Block field above, per the node-input convention.
	In []*Node

	Attrs any // per-opcode attribute payload

	visited uint64 // generation counter, see pkg/pass
	Link    any    // generic walker side-channel

	Debug string // optional debug-info string (source positions etc.)

	// block is non-nil only when Op == opcode.OpBlock; it holds the
	// construction-time Block bookkeeping.
	block *blockData

	// outs is this node's def-use out-list: the set of (user, pos)
	// pairs whose In[pos] == this node. Maintained lazily; valid only
	// while g.edgesActive is true.
	outs []outEdge
}

type outEdge struct {
	user *Node
	pos  int // -1 means the block slot
}

func (n *Node) String() string {
	return fmt.Sprintf("%s%d", n.Op, n.ID)
}

// IsBlock reports whether n is a Block node.
func (n *Node) IsBlock() bool { return n.Op == opcode.OpBlock }

// Arity returns the number of operand slots n currently has (not
// counting the block slot).
func (n *Node) Arity() int { return len(n.In) }

// In0..N convenience accessors are intentionally omitted; callers index
// n.In directly, matching how the source's node_in() macro is used
// throughout the reference implementation.

// SetBlock re-points n's controlling block, maintaining block-edge
// bookkeeping the same way SetIn maintains normal def-use edges.
func (n *Node) SetBlock(b *Node) {
	old := n.Block
	n.Block = b
	if n.Graph.edgesActive.Block {
		if old != nil {
			old.removeBlockUser(n)
		}
		if b != nil {
			b.addBlockUser(n)
		}
	}
}

func (n *Node) addBlockUser(user *Node) {
	if n.block == nil {
		return
	}
	n.block.users = append(n.block.users, user)
}

func (n *Node) removeBlockUser(user *Node) {
	if n.block == nil {
		return
	}
	for i, u := range n.block.users {
		if u == user {
			n.block.users = append(n.block.users[:i], n.block.users[i+1:]...)
			return
		}
	}
}

// Visit bumps n's visited counter to gen and reports whether it was
// already at gen (i.e. already visited in this traversal) — the
// "visitation counters" idiom.
func (n *Node) Visit(gen uint64) (alreadyVisited bool) {
	if n.visited == gen {
		return true
	}
	n.visited = gen
	return false
}

// Visited reports n's current visited generation, for callers that
// need to compare without mutating (e.g. the verifier).
func (n *Node) Visited() uint64 { return n.visited }
