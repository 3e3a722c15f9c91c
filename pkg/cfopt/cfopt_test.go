package cfopt

import (
	"testing"

	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
	"github.com/oisee/irgraph/pkg/opcode"
	"github.com/oisee/irgraph/pkg/tarval"
)

func newTestGraph(t *testing.T) *graph.Graph {
	t.Helper()
	prog := graph.NewProgram()
	return prog.NewGraph(nil)
}

// TestEmptyBlockMerges builds entry -> mid -> tail, where mid has no
// content beyond its Jmp, and checks mid is spliced out.
func TestEmptyBlockMerges(t *testing.T) {
	g := newTestGraph(t)
	entry := g.StartBlock
	entryJmp := g.NewJmp(entry)

	mid := g.NewImmBlock()
	g.AddImmBlockPred(mid, entryJmp)
	g.MatureImmBlock(mid)
	midJmp := g.NewJmp(mid)

	tail := g.NewImmBlock()
	g.AddImmBlockPred(tail, midJmp)
	g.MatureImmBlock(tail)

	Optimize(g)

	for _, p := range tail.Preds() {
		if p != nil && p.Block == mid {
			t.Fatalf("expected tail's pred to bypass mid, still points at mid's Jmp")
		}
	}
}

// TestConstantCondFolds builds a Cond on a constant-true selector and
// checks the false arm is dropped.
func TestConstantCondFolds(t *testing.T) {
	g := newTestGraph(t)
	entry := g.StartBlock
	one := g.NewConst(entry, tarval.FromInt64(mode.B, 1))
	cond := g.NewCond(entry, one)
	f, tr := g.CondProjs(cond)

	thenB := g.NewImmBlock()
	g.AddImmBlockPred(thenB, tr)
	g.MatureImmBlock(thenB)

	elseB := g.NewImmBlock()
	g.AddImmBlockPred(elseB, f)
	g.MatureImmBlock(elseB)

	Optimize(g)

	for _, p := range elseB.Preds() {
		if p != nil && p.Op != opcode.OpBad {
			t.Fatalf("expected else arm's pred to become Bad, got %s", p.Op)
		}
	}
}

// TestCondWithDisagreeingPhiBecomesMux builds a Cond whose two arms
// feed directly into a join block (no content of their own beyond the
// branch), with a Phi that picks a different constant on each arm.
// Since the arms disagree, removePointlessIfs can't fire; muxifyConds
// should replace the Phi with a Mux over the Cond's selector instead.
func TestCondWithDisagreeingPhiBecomesMux(t *testing.T) {
	g := newTestGraph(t)
	entry := g.StartBlock
	sel := g.NewSymConst(entry, mode.B, nil, nil)
	cond := g.NewCond(entry, sel)
	f, tr := g.CondProjs(cond)

	join := g.NewImmBlock()
	g.AddImmBlockPred(join, f)
	g.AddImmBlockPred(join, tr)
	g.MatureImmBlock(join)

	falseVal := g.NewConst(entry, tarval.FromInt64(mode.Is32, 1))
	trueVal := g.NewConst(entry, tarval.FromInt64(mode.Is32, 2))
	phi := g.NewPhi(join, mode.Is32, []*graph.Node{falseVal, trueVal})
	ret := g.NewReturn(join, g.InitialMem, phi)
	g.End.In = append(g.End.In, ret)
	g.MatureImmBlock(g.EndBlock)

	Optimize(g)

	got := ret.In[1]
	if got.Op != opcode.OpMux {
		t.Fatalf("expected the disagreeing Phi to become a Mux, got %s", got.Op)
	}
	if got.In[0] != sel || got.In[1] != falseVal || got.In[2] != trueVal {
		t.Fatalf("expected Mux(selector, falseVal, trueVal), got operands %v", got.In)
	}
}
