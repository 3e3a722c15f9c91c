package inline

import (
	"testing"

	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
	"github.com/oisee/irgraph/pkg/opcode"
	"github.com/oisee/irgraph/pkg/pass"
	"github.com/oisee/irgraph/pkg/tarval"
	"github.com/oisee/irgraph/pkg/typ"
)

// buildDouble constructs a trivial single-block, single-result,
// single-parameter callee: double(x) { return x*2 }.
func buildDouble(prog *graph.Program) (*graph.Graph, *typ.Entity) {
	g := prog.NewGraph(nil)
	b := g.StartBlock
	x := g.NewProjN(g.Args, mode.Is32, 0)
	two := g.NewConst(b, tarval.FromInt64(mode.Is32, 2))
	doubled := g.NewMul(b, x, two)
	ret := g.NewReturn(b, g.InitialMem, doubled)
	g.End.In = append(g.End.In, ret)
	g.MatureImmBlock(g.EndBlock)

	e := typ.NewEntity("double", typ.NewMethod(
		[]*typ.Type{typ.NewPrimitive("int32", mode.Is32)},
		[]*typ.Type{typ.NewPrimitive("int32", mode.Is32)}, 0))
	e.Graph = g
	g.Entity = e
	return g, e
}

func lookupVia(e *typ.Entity) *graph.Graph {
	if e == nil || e.Graph == nil {
		return nil
	}
	return e.Graph.(*graph.Graph)
}

func TestCanInlineAcceptsDirectCall(t *testing.T) {
	prog := graph.NewProgram()
	calleeGraph, calleeEntity := buildDouble(prog)

	caller := prog.NewGraph(nil)
	b := caller.StartBlock
	arg := caller.NewConst(b, tarval.FromInt64(mode.Is32, 21))
	call := caller.NewCall(b, caller.InitialMem, calleeEntity, nil, []*graph.Node{arg}, 1)

	if !CanInline(call, caller.Entity, lookupVia) {
		t.Fatalf("expected direct call to a non-recursive callee to be inlinable")
	}
	_ = calleeGraph
}

func TestCanInlineRejectsSelfRecursion(t *testing.T) {
	prog := graph.NewProgram()
	g, e := buildDouble(prog)
	b := g.StartBlock
	call := g.NewCall(b, g.InitialMem, e, nil, []*graph.Node{g.NewConst(b, tarval.FromInt64(mode.Is32, 1))}, 1)
	if CanInline(call, g.Entity, lookupVia) {
		t.Fatalf("expected self-recursive call to be rejected")
	}
}

func TestCanInlineRejectsNoInline(t *testing.T) {
	prog := graph.NewProgram()
	_, calleeEntity := buildDouble(prog)
	calleeEntity.NoInline = true

	caller := prog.NewGraph(nil)
	b := caller.StartBlock
	call := caller.NewCall(b, caller.InitialMem, calleeEntity, nil,
		[]*graph.Node{caller.NewConst(b, tarval.FromInt64(mode.Is32, 1))}, 1)

	if CanInline(call, caller.Entity, lookupVia) {
		t.Fatalf("expected noinline callee to be rejected")
	}
}

func TestPriorityAlwaysInlineWins(t *testing.T) {
	prog := graph.NewProgram()
	calleeGraph, calleeEntity := buildDouble(prog)
	calleeEntity.AlwaysInline = true

	caller := prog.NewGraph(nil)
	b := caller.StartBlock
	call := caller.NewCall(b, caller.InitialMem, calleeEntity, nil,
		[]*graph.Node{caller.NewConst(b, tarval.FromInt64(mode.Is32, 1))}, 1)

	if got := Priority(call, calleeEntity, calleeGraph, 1); got != alwaysInlineBonus {
		t.Fatalf("expected always_inline sentinel priority, got %d", got)
	}
}

// TestInlineCallSpliceResult exercises the splicing algorithm end to
// end: after inlining double(21), the caller's Return should observe
// the folded constant 42 without any surviving Call node, i.e. P5
// (inlining preserves observable semantics) for this scenario.
func TestInlineCallSpliceResult(t *testing.T) {
	prog := graph.NewProgram()
	_, calleeEntity := buildDouble(prog)

	caller := prog.NewGraph(nil)
	calleeGraph := lookupVia(calleeEntity)
	b := caller.StartBlock
	arg := caller.NewConst(b, tarval.FromInt64(mode.Is32, 21))
	call := caller.NewCall(b, caller.InitialMem, calleeEntity, nil, []*graph.Node{arg}, 1)
	mem, results, _, _ := caller.CallProjs(call)
	res := caller.NewProjN(results, mode.Is32, 0)
	ret := caller.NewReturn(b, mem, res)
	caller.MatureImmBlock(caller.EndBlock)

	if err := InlineCall(caller, call, calleeGraph); err != nil {
		t.Fatalf("InlineCall: %v", err)
	}

	// res was exchanged away during splicing; read the Return's current
	// operand instead of the now-stale res pointer.
	got := ret.In[1]
	if got.Op != opcode.OpConst {
		t.Fatalf("expected the spliced body to fold to a Const, got %s", got.Op)
	}
	if v := got.Attrs.(graph.ConstAttrs).Val.Int64(); v != 42 {
		t.Fatalf("expected double(21) == 42, got %d", v)
	}
}

// TestInlineAllInlinesTransitivelyExposedCall builds outer -> middle ->
// double. middleGraph is never scanned directly, so the only call site
// InlineAll can see up front is outer's call to middle; middle's own
// call to double only becomes reachable once outer's splice copies
// middle's body in. Inlining that exposed copy requires the driver to
// re-queue calls found after each splice, not just score everything
// once at the start.
func TestInlineAllInlinesTransitivelyExposedCall(t *testing.T) {
	prog := graph.NewProgram()
	_, doubleEntity := buildDouble(prog)

	middleGraph := prog.NewGraph(nil)
	mb := middleGraph.StartBlock
	my := middleGraph.NewProjN(middleGraph.Args, mode.Is32, 0)
	mcall := middleGraph.NewCall(mb, middleGraph.InitialMem, doubleEntity, nil, []*graph.Node{my}, 1)
	mmem, mres, _, _ := middleGraph.CallProjs(mcall)
	mval := middleGraph.NewProjN(mres, mode.Is32, 0)
	mret := middleGraph.NewReturn(mb, mmem, mval)
	middleGraph.End.In = append(middleGraph.End.In, mret)
	middleGraph.MatureImmBlock(middleGraph.EndBlock)
	middleEntity := typ.NewEntity("middle", typ.NewMethod(
		[]*typ.Type{typ.NewPrimitive("int32", mode.Is32)},
		[]*typ.Type{typ.NewPrimitive("int32", mode.Is32)}, 0))
	middleEntity.Graph = middleGraph
	middleGraph.Entity = middleEntity

	outer := prog.NewGraph(nil)
	ob := outer.StartBlock
	arg := outer.NewConst(ob, tarval.FromInt64(mode.Is32, 5))
	ocall := outer.NewCall(ob, outer.InitialMem, middleEntity, nil, []*graph.Node{arg}, 1)
	omem, ores, _, _ := outer.CallProjs(ocall)
	oval := outer.NewProjN(ores, mode.Is32, 0)
	oret := outer.NewReturn(ob, omem, oval)
	outer.End.In = append(outer.End.In, oret)
	outer.MatureImmBlock(outer.EndBlock)

	// middleGraph is deliberately NOT passed to InlineAll: its call to
	// double must only become visible once outer's splice copies it in,
	// so inlining it at all requires the post-splice re-queue.
	n := InlineAll([]*graph.Graph{outer}, lookupVia, 0, 1000)
	if n != 2 {
		t.Fatalf("expected both the outer->middle call and the middle->double call it exposes to inline, got %d", n)
	}

	for _, nd := range pass.Reachable(outer) {
		if nd.Op == opcode.OpCall {
			t.Fatalf("expected no surviving Call node in outer after transitive inlining")
		}
	}
	if got := oret.In[1]; got.Op != opcode.OpConst || got.Attrs.(graph.ConstAttrs).Val.Int64() != 10 {
		t.Fatalf("expected outer's Return to fold to Const 10 (double(5)), got %v", got)
	}
}
