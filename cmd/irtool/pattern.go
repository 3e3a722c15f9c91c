package main

import (
	"sort"

	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/opcode"
	"github.com/oisee/irgraph/pkg/pass"
	"github.com/oisee/irgraph/pkg/pattern"
)

// collectPattern reduces g to a Pattern by walking every reachable
// value node (blocks are structural, not part of the recorded shape)
// in NodeID order and emitting one opcode token per node, with Const
// operands folded into an adjacent TokIConst payload. This is the
// demo CLI's stand-in for a real frequency collector: a production
// build would accumulate these across many graphs and bump Counter on
// a repeat shape instead of recording every graph as its own Record.
func collectPattern(g *graph.Graph) pattern.Pattern {
	reachable := pass.Reachable(g)
	ids := make([]graph.NodeID, 0, len(reachable))
	for id, n := range reachable {
		if n.IsBlock() {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	p := make(pattern.Pattern, 0, len(ids))
	for _, id := range ids {
		n := reachable[id]
		p = append(p, pattern.Token{Kind: pattern.TokOp, Op: n.Op})
		if n.Op == opcode.OpConst {
			if attrs, ok := n.Attrs.(graph.ConstAttrs); ok {
				p = append(p, pattern.Token{Kind: pattern.TokIConst, Value: uint32(attrs.Val.Int64())})
			}
		}
	}
	return p
}
