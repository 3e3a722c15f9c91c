// Package cfopt implements the control-flow optimizer: dead-block
// elimination, empty-block merging under a dispensability test,
// Cond/Switch simplification, and End keep-alive cleanup. It operates
// on a matured, edge-activated graph.
package cfopt

import (
	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/opcode"
	"github.com/oisee/irgraph/pkg/pass"
)

// Optimize runs the control-flow optimizer to a fixed point: each
// iteration either removes at least one block/edge or fires a
// switch/Cond simplification, so the process always terminates: the
// graph is finite and every change strictly shrinks it.
func Optimize(g *graph.Graph) {
	g.ActivateEdges(true, true)
	for {
		changed := false
		changed = simplifyConds(g) || changed
		changed = pruneDeadPreds(g) || changed
		changed = mergeEmptyBlocks(g) || changed
		changed = removePointlessIfs(g) || changed
		changed = muxifyConds(g) || changed
		if !changed {
			break
		}
	}
	fixEndKeepAlives(g)
}

// blockSuccessors returns, for every reachable block, the blocks whose
// predecessor list contains a control value produced in that block.
func blockSuccessors(g *graph.Graph) map[*graph.Node][]*graph.Node {
	blocks := allBlocks(g)
	succ := map[*graph.Node][]*graph.Node{}
	for _, b := range blocks {
		for _, s := range blocks {
			for _, p := range s.Preds() {
				if p != nil && p.Block == b {
					succ[b] = append(succ[b], s)
					break
				}
			}
		}
	}
	return succ
}

func allBlocks(g *graph.Graph) []*graph.Node {
	var blocks []*graph.Node
	for _, n := range g.Nodes() {
		if n.IsBlock() {
			blocks = append(blocks, n)
		}
	}
	return blocks
}

// reachableBlocks computes, via forward cfg edges from StartBlock,
// the set of blocks any execution can actually reach.
func reachableBlocks(g *graph.Graph) map[*graph.Node]bool {
	succ := blockSuccessors(g)
	seen := map[*graph.Node]bool{g.StartBlock: true}
	work := []*graph.Node{g.StartBlock}
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		for _, s := range succ[b] {
			if !seen[s] {
				seen[s] = true
				work = append(work, s)
			}
		}
	}
	return seen
}

// pruneDeadPreds drops predecessor slots whose source block cannot
// execute, removing the matching operand from every Phi owned by the
// block, shrinking arity directly rather than installing Bad
// placeholders first: the effect on surviving Phis is identical, and
// it avoids a separate Bad-cleanup sweep.
func pruneDeadPreds(g *graph.Graph) bool {
	reach := reachableBlocks(g)
	changed := false
	for _, b := range allBlocks(g) {
		if b == g.StartBlock || !reach[b] {
			continue
		}
		keep := make([]bool, len(b.In))
		any := false
		for i, p := range b.In {
			dead := p == nil || p == g.Bad || (p.Block != nil && !reach[p.Block])
			keep[i] = !dead
			if dead {
				any = true
			}
		}
		if !any {
			continue
		}
		filterBlockPreds(g, b, keep)
		changed = true
	}
	return changed
}

// filterBlockPreds rewrites b's predecessor list to keep only the
// slots keep marks true, applying the identical filter to every Phi
// owned by b so Phi arity stays in lockstep with block arity.
func filterBlockPreds(g *graph.Graph, b *graph.Node, keep []bool) {
	newPreds := filterNodes(b.In, keep)
	b.In = newPreds
	for _, u := range b.BlockUsers() {
		if u.Op != opcode.OpPhi {
			continue
		}
		u.In = filterNodes(u.In, keep)
	}
}

func filterNodes(in []*graph.Node, keep []bool) []*graph.Node {
	out := make([]*graph.Node, 0, len(in))
	for i, n := range in {
		if i < len(keep) && keep[i] {
			out = append(out, n)
		}
	}
	return out
}

// simplifyConds folds a Cond whose selector is constant to a direct
// Jmp along the taken arm (the other arm's Proj becomes Bad, cleaned
// up by the next pruneDeadPreds iteration), and folds a Cond whose two
// arms both target the same block to a single Jmp. Also folds a
// Switch with zero real cases to a Jmp along its default arm.
func simplifyConds(g *graph.Graph) bool {
	changed := false
	for _, n := range g.Nodes() {
		switch n.Op {
		case opcode.OpCond:
			if simplifyCond(g, n) {
				changed = true
			}
		case opcode.OpSwitch:
			if simplifySwitch(g, n) {
				changed = true
			}
		}
	}
	return changed
}

func condProjs(g *graph.Graph, cond *graph.Node) (falseProj, trueProj *graph.Node) {
	for _, out := range findProjUsers(g, cond) {
		if out.Attrs.(graph.ProjAttrs).Num == 0 {
			falseProj = out
		} else {
			trueProj = out
		}
	}
	return
}

func findProjUsers(g *graph.Graph, n *graph.Node) []*graph.Node {
	var out []*graph.Node
	for _, c := range g.Nodes() {
		if c.Op == opcode.OpProj && len(c.In) > 0 && c.In[0] == n {
			out = append(out, c)
		}
	}
	return out
}

func simplifyCond(g *graph.Graph, cond *graph.Node) bool {
	f, t := condProjs(g, cond)
	if f == nil || t == nil {
		return false
	}
	if f.OutCount() == 0 && t.OutCount() == 0 {
		return false // both arms already rewired by an earlier iteration
	}
	selector := cond.In[0]
	if selector.Op == opcode.OpConst {
		taken, dead := t, f
		if selector.Attrs.(graph.ConstAttrs).Val.IsZero() {
			taken, dead = f, t
		}
		jmp := g.NewJmp(cond.Block)
		g.Exchange(taken, jmp)
		g.Exchange(dead, g.Bad)
		return true
	}
	if sameTarget(g, f, t) {
		jmp := g.NewJmp(cond.Block)
		g.Exchange(f, jmp)
		g.Exchange(t, g.Bad)
		return true
	}
	return false
}

func simplifySwitch(g *graph.Graph, sw *graph.Node) bool {
	attrs := sw.Attrs.(graph.SwitchAttrs)
	if attrs.NumCases != 0 {
		return false
	}
	projs := findProjUsers(g, sw)
	for _, p := range projs {
		if p.Attrs.(graph.ProjAttrs).Num == attrs.NumCases && p.OutCount() > 0 {
			jmp := g.NewJmp(sw.Block)
			g.Exchange(p, jmp)
			return true
		}
	}
	return false
}

// sameTarget reports whether both of a Cond's projections feed into
// the same successor block and that block has no Phis (a block with
// Phis is left to removePointlessIfs and muxifyConds, which compare
// the Phi operands).
func sameTarget(g *graph.Graph, f, t *graph.Node) bool {
	fb, ok1 := singleUserBlock(f)
	tb, ok2 := singleUserBlock(t)
	return ok1 && ok2 && fb == tb && len(phiUsers(fb)) == 0
}

func singleUserBlock(ctrl *graph.Node) (*graph.Node, bool) {
	for _, n := range ctrl.Graph.Nodes() {
		if n.IsBlock() {
			for _, p := range n.Preds() {
				if p == ctrl {
					return n, true
				}
			}
		}
	}
	return nil, false
}

// mergeEmptyBlocks collapses a block B whose only content is a single
// unconditional Jmp (no Phis, no side-effecting ops of its own) into
// its successor S, provided B is not a self-loop (the dispensability
// test). Only the single-predecessor case is handled; an empty block
// with more than one predecessor is left in place.
func mergeEmptyBlocks(g *graph.Graph) bool {
	changed := false
	for _, b := range allBlocks(g) {
		if b == g.StartBlock || b == g.EndBlock {
			continue
		}
		if !isEmptyForwardingBlock(b) {
			continue
		}
		jmp := soleJmp(b)
		if jmp == nil || jmp.OutCount() == 0 {
			continue // no Jmp, or b is already bypassed
		}
		if len(b.Preds()) != 1 {
			continue // general N-pred fusion not attempted here
		}
		pred := b.Preds()[0]
		if pred.Block == b {
			continue // self-loop: not dispensable
		}
		g.Exchange(jmp, pred)
		changed = true
	}
	return changed
}

// isEmptyForwardingBlock reports whether b's only block-users are
// itself and a single Jmp (no Phis, no other ops).
func isEmptyForwardingBlock(b *graph.Node) bool {
	users := b.BlockUsers()
	jmps := 0
	for _, u := range users {
		switch u.Op {
		case opcode.OpJmp:
			jmps++
		case opcode.OpPhi, opcode.OpPhi0:
			return false
		default:
			if u != b {
				return false
			}
		}
	}
	return jmps == 1
}

func soleJmp(b *graph.Node) *graph.Node {
	for _, u := range b.BlockUsers() {
		if u.Op == opcode.OpJmp {
			return u
		}
	}
	return nil
}

// removePointlessIfs detects a block with two cfg-preds that are both
// projections of the same Cond node, where every Phi the block owns
// takes an identical value on both of those preds, and collapses the
// pair to a single Jmp.
func removePointlessIfs(g *graph.Graph) bool {
	changed := false
	for _, b := range allBlocks(g) {
		preds := b.Preds()
		for i := 0; i < len(preds); i++ {
			for j := i + 1; j < len(preds); j++ {
				pi, pj := preds[i], preds[j]
				if pi.Op != opcode.OpProj || pj.Op != opcode.OpProj {
					continue
				}
				if len(pi.In) == 0 || len(pj.In) == 0 || pi.In[0] != pj.In[0] {
					continue
				}
				if pi.In[0].Op != opcode.OpCond {
					continue
				}
				if !phisAgree(b, i, j) {
					continue
				}
				keep := make([]bool, len(preds))
				for k := range keep {
					keep[k] = k != j
				}
				jmp := g.NewJmp(pi.In[0].Block)
				filterBlockPreds(g, b, keep)
				for idx, p := range b.In {
					if p == pi {
						b.In[idx] = jmp
					}
				}
				changed = true
			}
		}
	}
	return changed
}

func phisAgree(b *graph.Node, i, j int) bool {
	for _, u := range b.BlockUsers() {
		if u.Op != opcode.OpPhi {
			continue
		}
		if i >= len(u.In) || j >= len(u.In) || u.In[i] != u.In[j] {
			return false
		}
	}
	return true
}

// muxifyConds is removePointlessIfs's complement: it fires when a
// block's only two preds are the false/true projections of one Cond
// and the Phis the block owns disagree between the two arms (so
// removePointlessIfs can't collapse them), and replaces each such Phi
// with a Mux over the Cond's selector instead — trading the branch for
// a data select.
func muxifyConds(g *graph.Graph) bool {
	changed := false
	for _, b := range allBlocks(g) {
		if b == g.StartBlock {
			continue
		}
		preds := b.Preds()
		if len(preds) != 2 {
			continue
		}
		p0, p1 := preds[0], preds[1]
		if p0.Op != opcode.OpProj || p1.Op != opcode.OpProj {
			continue
		}
		if len(p0.In) == 0 || len(p1.In) == 0 || p0.In[0] != p1.In[0] {
			continue
		}
		cond := p0.In[0]
		if cond.Op != opcode.OpCond {
			continue
		}
		num0, num1 := p0.Attrs.(graph.ProjAttrs).Num, p1.Attrs.(graph.ProjAttrs).Num
		if num0 == num1 {
			continue
		}
		falseSlot, trueSlot := 0, 1
		if num0 != 0 {
			falseSlot, trueSlot = 1, 0
		}

		phis := phiUsers(b)
		if len(phis) == 0 {
			continue
		}
		if !phisDisagree(phis, falseSlot, trueSlot) {
			continue // identical on both arms: removePointlessIfs handles this
		}

		selector := cond.In[0]
		for _, phi := range phis {
			mux := g.NewMux(cond.Block, selector, phi.In[falseSlot], phi.In[trueSlot])
			g.Exchange(phi, mux)
		}
		jmp := g.NewJmp(cond.Block)
		g.Exchange(p0, jmp)
		g.Exchange(p1, g.Bad)
		changed = true
	}
	return changed
}

func phiUsers(b *graph.Node) []*graph.Node {
	var phis []*graph.Node
	for _, u := range b.BlockUsers() {
		if u.Op == opcode.OpPhi {
			phis = append(phis, u)
		}
	}
	return phis
}

func phisDisagree(phis []*graph.Node, i, j int) bool {
	for _, phi := range phis {
		if i >= len(phi.In) || j >= len(phi.In) || phi.In[i] != phi.In[j] {
			return true
		}
	}
	return false
}

// fixEndKeepAlives drops End's keep-alive references to nodes whose
// block can no longer execute.
func fixEndKeepAlives(g *graph.Graph) {
	reach := reachableBlocks(g)
	keep := make([]bool, len(g.End.In))
	any := false
	for i, n := range g.End.In {
		if n == nil || n.Block == nil || reach[n.Block] {
			keep[i] = true
			continue
		}
		any = true
	}
	if any {
		g.End.In = filterNodes(g.End.In, keep)
	}
}

// Pass wraps Optimize as a pkg/pass.Pass for use in a Scheduler
// pipeline. It requires edges active and invalidates doms (block
// structure may change).
var Pass = pass.Pass{
	Name:        "cfopt",
	Requires:    pass.EdgesActive,
	Invalidates: pass.DomsConsistent,
	Run: func(g *graph.Graph) error {
		Optimize(g)
		return nil
	},
}
