package inline

import (
	"fmt"

	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
	"github.com/oisee/irgraph/pkg/opcode"
	"github.com/oisee/irgraph/pkg/pass"
)

// InlineCall splices calleeGraph's body into g in place of call, via
// a three-phase algorithm: pre-call surgery (split the
// call's block so the callee's copied blocks graft in between),
// body copy (a verbatim structural copy of every callee node reachable
// from its End, remapped onto new nodes owned by g), and post-call
// stitching (a per-result Phi and a memory Phi collecting every Return,
// replacing the original Call's projections).
//
// call must belong to g, must be a direct Call (CallAttrs.Callee set),
// and callers should gate with CanInline first — InlineCall itself
// only checks the node's shape, not eligibility policy.
//
// Two simplifications from a full implementation, recorded here and in
// DESIGN.md: callee frames are not merged into the caller's frame (the
// callee's Frame node is rebound directly to the caller's, so Sel
// offsets addressing callee locals are only correct when the two frame
// types happen to agree), and a callee reachable via its exception
// (Raise) path is not rewired — the original Call's except projection
// is left dangling into Bad, so inlining a callee with a Raise is only
// safe when the caller does not observe that edge.
func InlineCall(g *graph.Graph, call *graph.Node, calleeGraph *graph.Graph) error {
	if call.Op != opcode.OpCall {
		return fmt.Errorf("inline: node %v is not a Call", call)
	}
	attrs, ok := call.Attrs.(graph.CallAttrs)
	if !ok {
		return fmt.Errorf("inline: Call %v has no CallAttrs", call)
	}
	if attrs.Callee == nil {
		return fmt.Errorf("inline: Call %v is indirect", call)
	}

	g.ActivateEdges(true, true)

	callBlock := call.Block
	mem, results, regular, _ := g.CallProjs(call)
	// CallProjs builds fresh projections (Proj is not CSE'd); move the
	// users of any projection the caller already had onto them.
	fresh := map[int]*graph.Node{0: mem, 1: regular, 2: results}
	for _, u := range call.Outs() {
		pa, ok := u.User.Attrs.(graph.ProjAttrs)
		if ok && fresh[pa.Num] != nil && fresh[pa.Num] != u.User {
			g.Exchange(u.User, fresh[pa.Num])
		}
	}
	args := call.In[1:] // In[0] is the memory operand; direct calls carry no calleePtr

	// --- pre-call surgery ---
	postBlock := g.NewImmBlock()
	for _, u := range regular.Outs() {
		g.SetIn(u.User, u.Pos, postBlock)
	}

	// --- body copy ---
	nodeMap := map[*graph.Node]*graph.Node{
		calleeGraph.StartBlock: callBlock,
		calleeGraph.Bad:        g.Bad,
		calleeGraph.Unknown:    g.Unknown,
		calleeGraph.InitialMem: call.In[0],
		calleeGraph.Frame:      g.Frame,
	}

	var blocks, values, returns []*graph.Node
	for _, n := range pass.Reachable(calleeGraph) {
		switch {
		case n == calleeGraph.Start || n == calleeGraph.End || n == calleeGraph.Args:
			continue
		case n == calleeGraph.EndBlock:
			continue
		case n == calleeGraph.StartBlock || n == calleeGraph.Bad || n == calleeGraph.Unknown,
			n == calleeGraph.InitialMem || n == calleeGraph.Frame:
			continue // already seeded into nodeMap above
		case isParamProj(n, calleeGraph):
			nodeMap[n] = paramArg(n, args)
		case n.Op == opcode.OpReturn:
			returns = append(returns, n)
		case n.IsBlock():
			blocks = append(blocks, n)
		default:
			values = append(values, n)
		}
	}

	for _, b := range blocks {
		nodeMap[b] = g.NewImmBlock()
	}
	for _, v := range values {
		nodeMap[v] = g.CloneShell(v)
	}

	resolve := func(n *graph.Node) *graph.Node {
		if n == nil {
			return nil
		}
		if mapped, ok := nodeMap[n]; ok {
			return mapped
		}
		return n
	}

	for _, v := range values {
		shell := nodeMap[v]
		g.SetNodeBlock(shell, resolve(v.Block))
		for _, in := range v.In {
			g.AppendIn(shell, resolve(in))
		}
	}
	for _, b := range blocks {
		nb := nodeMap[b]
		for _, pred := range b.In {
			g.AddImmBlockPred(nb, resolve(pred))
		}
	}
	for _, b := range blocks {
		g.FinalizeClonedBlock(nodeMap[b])
	}

	// A single best-effort optimize pass over the copied values: once
	// parameter reads are substituted with the call's actual arguments,
	// folding/CSE opportunities the callee's own construction couldn't
	// see become available. This is not a fixpoint — deeper chains are
	// left for a subsequent pkg/cfopt or construction-time pass.
	for _, v := range values {
		nodeMap[v] = g.Reoptimize(nodeMap[v])
	}

	// --- post-call stitching ---
	var memIns []*graph.Node
	resultIns := make([][]*graph.Node, attrs.NumResults)
	for _, ret := range returns {
		j := g.NewJmp(resolve(ret.Block))
		g.AddImmBlockPred(postBlock, j)
		memIns = append(memIns, resolve(ret.In[0]))
		for i := 0; i < attrs.NumResults; i++ {
			resultIns[i] = append(resultIns[i], resolve(ret.In[1+i]))
		}
	}
	g.FinalizeClonedBlock(postBlock)

	newMem := collapse(g, postBlock, mem.Mode, memIns)
	g.Exchange(mem, newMem)

	for _, u := range results.Outs() {
		projAttrs, ok := u.User.Attrs.(graph.ProjAttrs)
		if !ok || projAttrs.Num >= attrs.NumResults {
			continue
		}
		merged := collapse(g, postBlock, u.User.Mode, resultIns[projAttrs.Num])
		g.Exchange(u.User, merged)
	}

	g.Exchange(call, g.Bad)
	g.DeactivateEdges()
	return nil
}

// collapse returns ins[0] directly when there is exactly one Return,
// matching the single-pred identity-collapse the construction API
// already applies elsewhere; otherwise it builds an explicit Phi over
// postBlock (whose preds were just wired one-for-one with ins by the
// caller).
func collapse(g *graph.Graph, postBlock *graph.Node, m *mode.Mode, ins []*graph.Node) *graph.Node {
	if len(ins) == 1 {
		return ins[0]
	}
	return g.NewPhi(postBlock, m, ins)
}

func isParamProj(n *graph.Node, calleeGraph *graph.Graph) bool {
	if n.Op != opcode.OpProj || len(n.In) == 0 {
		return false
	}
	return n.In[0] == calleeGraph.Args
}

func paramArg(n *graph.Node, args []*graph.Node) *graph.Node {
	idx := n.Attrs.(graph.ProjAttrs).Num
	if idx < 0 || idx >= len(args) {
		return nil
	}
	return args[idx]
}
