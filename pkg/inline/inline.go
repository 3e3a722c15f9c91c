// Package inline implements procedure inlining: an
// eligibility test (CanInline), an execution-frequency-weighted
// benefit heuristic (Priority), and an iterative, priority-queue-
// driven global driver (InlineAll) built on top of the single-call
// splicing primitive in splice.go. Grounded on pkg/stoke/search.go's
// iterative best-first driver pattern, generalized from a cost-ordered
// mutation search to a benefit-ordered call-site search.
package inline

import (
	"container/heap"
	"math"

	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/opcode"
	"github.com/oisee/irgraph/pkg/pass"
	"github.com/oisee/irgraph/pkg/typ"
)

// CalleeLookup resolves a Call's statically-known callee Entity to the
// Graph implementing it. A Call whose Callee has no known Graph (an
// external declaration or an indirect call) is never a candidate.
type CalleeLookup func(e *typ.Entity) *graph.Graph

// CanInline reports whether call, sited in a graph implementing
// callerEntity, is eligible for inlining: self-
// recursion, a missing or noinline/noreturn-marked callee, or a callee
// whose body is unavailable all disqualify it outright. Variadic and
// address-taken-label complications are not modeled (this dialect has
// neither), so eligibility reduces to the recursion and property
// checks.
func CanInline(call *graph.Node, callerEntity *typ.Entity, lookup CalleeLookup) bool {
	if call.Op != opcode.OpCall {
		return false
	}
	attrs, ok := call.Attrs.(graph.CallAttrs)
	if !ok || attrs.Callee == nil {
		return false // indirect call: no statically-known body to splice
	}
	callee := attrs.Callee
	if callee == callerEntity {
		return false // no self-inlining
	}
	if callee.NoInline || callee.NoReturn {
		return false
	}
	calleeGraph := lookup(callee)
	if calleeGraph == nil {
		return false
	}
	if calleeGraph.Entity == callerEntity {
		return false // callee's body is the caller's own graph (self-recursion under another entity)
	}
	return true
}

// Sentinel and tuning constants for Priority: a sentinel of INT_MIN
// when noinline or noreturn applies, and a large bonus when
// always_inline is set.
const (
	PriorityNever = math.MinInt64

	baseBenefit       = 1000
	perParamCost      = 20
	singleCallerBonus = 2000
	singleBlockBonus  = 500
	leafBonus         = 300
	alwaysInlineBonus = math.MaxInt64 / 2
)

// Priority computes the inliner's benefit heuristic for a call of
// callee (whose body is calleeGraph), weighted by freq, the caller
// block's estimated execution frequency (callers with no profile data
// pass 1). Higher is more worth inlining.
func Priority(call *graph.Node, callee *typ.Entity, calleeGraph *graph.Graph, freq int64) int64 {
	if callee.AlwaysInline {
		return alwaysInlineBonus
	}
	if callee.NoInline || callee.NoReturn {
		return PriorityNever
	}
	numParams := len(call.In) - 1 // In[0] is the memory operand
	score := baseBenefit*freq - int64(numParams)*perParamCost

	blocks, calls := bodyShape(calleeGraph)
	if blocks == 1 {
		score += singleBlockBonus
	}
	if calls == 0 {
		score += leafBonus
	}
	return score
}

func bodyShape(g *graph.Graph) (blocks, calls int) {
	for _, n := range pass.Reachable(g) {
		switch {
		case n.IsBlock():
			blocks++
		case n.Op == opcode.OpCall:
			calls++
		}
	}
	return
}

// Candidate is one queued call site awaiting inlining.
type Candidate struct {
	Call        *graph.Node
	Caller      *graph.Graph
	Callee      *typ.Entity
	CalleeGraph *graph.Graph
	Priority    int64
}

// InlineAll runs the iterative, priority-driven global driver across
// every graph in graphs: while the queue is
// nonempty it pops the highest-priority remaining call site,
// recomputes its eligibility and benefit against the graph's current
// shape (a call scored before an earlier splice may have been spliced
// away itself, or its callee's body may have changed size), and
// inlines it if it still clears threshold and the total node growth
// across all graphs stays under maxGrowth. Every call site newly
// exposed inside the spliced-in body is pushed onto the same queue,
// scored at priority = (the triggering call site's own priority) ×
// (its freshly computed Priority), so a splice triggered by a hot call
// site propagates that heat into the calls it just exposed. It returns
// the number of call sites actually inlined.
func InlineAll(graphs []*graph.Graph, lookup CalleeLookup, threshold int64, maxGrowth int) int {
	callSites := countCallSites(graphs)

	pq := &candidateQueue{}
	heap.Init(pq)
	queued := map[*graph.Node]bool{}

	enqueue := func(g *graph.Graph, n *graph.Node, scale int64) {
		if n.Op != opcode.OpCall || queued[n] {
			return
		}
		if !CanInline(n, g.Entity, lookup) {
			return
		}
		attrs := n.Attrs.(graph.CallAttrs)
		calleeGraph := lookup(attrs.Callee)
		pr := Priority(n, attrs.Callee, calleeGraph, 1)
		if callSites[attrs.Callee] == 1 {
			pr += singleCallerBonus
		}
		if scale != 1 {
			pr *= scale
		}
		if pr < threshold {
			return
		}
		queued[n] = true
		heap.Push(pq, &Candidate{
			Call: n, Caller: g, Callee: attrs.Callee,
			CalleeGraph: calleeGraph, Priority: pr,
		})
	}

	for _, g := range graphs {
		for _, n := range pass.Reachable(g) {
			enqueue(g, n, 1)
		}
	}

	inlined, grown := 0, 0
	for pq.Len() > 0 && grown < maxGrowth {
		c := heap.Pop(pq).(*Candidate)
		delete(queued, c.Call)

		reach := pass.Reachable(c.Caller)
		if live, ok := reach[c.Call.ID]; !ok || live != c.Call || !CanInline(c.Call, c.Caller.Entity, lookup) {
			continue // spliced away, or no longer eligible, since it was queued
		}
		pr := Priority(c.Call, c.Callee, c.CalleeGraph, 1)
		if callSites[c.Callee] == 1 {
			pr += singleCallerBonus
		}
		if pr < threshold {
			continue
		}

		beforeCount := len(c.Caller.Nodes())
		if err := InlineCall(c.Caller, c.Call, c.CalleeGraph); err != nil {
			continue
		}
		inlined++
		grown += len(c.Caller.Nodes()) - beforeCount

		after := pass.Reachable(c.Caller)
		for id, n := range after {
			if _, existed := reach[id]; existed {
				continue
			}
			enqueue(c.Caller, n, pr)
		}
	}
	return inlined
}

func countCallSites(graphs []*graph.Graph) map[*typ.Entity]int {
	counts := map[*typ.Entity]int{}
	for _, g := range graphs {
		for _, n := range pass.Reachable(g) {
			if n.Op != opcode.OpCall {
				continue
			}
			if attrs, ok := n.Attrs.(graph.CallAttrs); ok && attrs.Callee != nil {
				counts[attrs.Callee]++
			}
		}
	}
	return counts
}

// candidateQueue is a max-heap on Priority.
type candidateQueue []*Candidate

func (q candidateQueue) Len() int            { return len(q) }
func (q candidateQueue) Less(i, j int) bool  { return q[i].Priority > q[j].Priority }
func (q candidateQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *candidateQueue) Push(x any)         { *q = append(*q, x.(*Candidate)) }
func (q *candidateQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
