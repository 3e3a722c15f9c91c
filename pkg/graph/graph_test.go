package graph

import (
	"testing"

	"github.com/oisee/irgraph/pkg/mode"
	"github.com/oisee/irgraph/pkg/opcode"
	"github.com/oisee/irgraph/pkg/tarval"
)

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	prog := NewProgram()
	return prog.NewGraph(nil)
}

func TestStraightLineConstFold(t *testing.T) {
	g := newTestGraph(t)
	b := g.StartBlock

	c2 := g.NewConst(b, tarval.FromInt64(mode.Is32, 2))
	c3 := g.NewConst(b, tarval.FromInt64(mode.Is32, 3))
	sum := g.NewAdd(b, c2, c3)

	if sum.Op != opcode.OpConst {
		t.Fatalf("expected Add(2,3) to fold to Const, got %s", sum.Op)
	}
	v := sum.Attrs.(ConstAttrs).Val
	if v.Int64() != 5 {
		t.Fatalf("expected 5, got %d", v.Int64())
	}
}

func TestIdentityAddZero(t *testing.T) {
	g := newTestGraph(t)
	b := g.StartBlock
	x := g.NewSymConst(b, mode.Is32, nil, nil)
	zero := g.NewConst(b, tarval.FromInt64(mode.Is32, 0))
	r := g.NewAdd(b, x, zero)
	if r != x {
		t.Fatalf("expected Add(x,0) to collapse to x, got %v", r)
	}
}

func TestCSEMergesIdenticalAdds(t *testing.T) {
	g := newTestGraph(t)
	b := g.StartBlock
	x := g.NewSymConst(b, mode.Is32, nil, nil)
	y := g.NewSymConst(b, mode.Is32, nil, nil)
	a1 := g.NewAdd(b, x, y)
	a2 := g.NewAdd(b, x, y)
	if a1 != a2 {
		t.Fatalf("expected identical Adds to CSE to the same node")
	}
}

// TestCSEMergesIdenticalLoads builds two Loads in the same block
// through the same memory and pointer at the same result mode: the
// second constructor call must return the first Load's node rather
// than a fresh one.
func TestCSEMergesIdenticalLoads(t *testing.T) {
	g := newTestGraph(t)
	b := g.StartBlock
	ptr := g.NewSymConst(b, mode.P, nil, nil)
	l1 := g.NewLoad(b, g.InitialMem, ptr, mode.Is32)
	l2 := g.NewLoad(b, g.InitialMem, ptr, mode.Is32)
	if l1 != l2 {
		t.Fatalf("expected identical Loads to CSE to the same node")
	}
}

// TestCSEKeepsLoadsWithDifferentResultModesDistinct guards the gate
// on cseEligible's Load case: same memory and pointer, different
// result mode, must not merge.
func TestCSEKeepsLoadsWithDifferentResultModesDistinct(t *testing.T) {
	g := newTestGraph(t)
	b := g.StartBlock
	ptr := g.NewSymConst(b, mode.P, nil, nil)
	l1 := g.NewLoad(b, g.InitialMem, ptr, mode.Is32)
	l2 := g.NewLoad(b, g.InitialMem, ptr, mode.Bu8)
	if l1 == l2 {
		t.Fatalf("expected Loads at different result modes to stay distinct")
	}
}

// TestCSEKeepsLoadsAfterInterveningStoreDistinct guards against CSE
// merging a Load that follows a Store past it: the Store produces a
// new memory value, so the post-Store Load's memory operand differs
// from the pre-Store Load's and the two must not merge.
func TestCSEKeepsLoadsAfterInterveningStoreDistinct(t *testing.T) {
	g := newTestGraph(t)
	b := g.StartBlock
	ptr := g.NewSymConst(b, mode.P, nil, nil)
	val := g.NewConst(b, tarval.FromInt64(mode.Is32, 7))
	l1 := g.NewLoad(b, g.InitialMem, ptr, mode.Is32)
	mem1, _ := g.LoadProjs(l1)
	store := g.NewStore(b, mem1, ptr, val)
	mem2 := g.StoreMem(store)
	l2 := g.NewLoad(b, mem2, ptr, mode.Is32)
	if l1 == l2 {
		t.Fatalf("expected Load after an intervening Store to stay distinct from the Load before it")
	}
}

// TestBoolPairFusionCollapsesAndOfCmps builds And(Cmp(x,y,Lt),
// Cmp(x,y,Eq)): the pnc_lo/pnc_hi fusion table intersects the two
// relations, Lt and Eq share no bit, so the pair is always false and
// collapses all the way to a Const 0.
func TestBoolPairFusionCollapsesAndOfCmps(t *testing.T) {
	g := newTestGraph(t)
	b := g.StartBlock
	x := g.NewSymConst(b, mode.Is32, nil, nil)
	y := g.NewSymConst(b, mode.Is32, nil, nil)
	lt := g.NewCmp(b, x, y, tarval.Lt)
	eq := g.NewCmp(b, x, y, tarval.Eq)
	and := g.NewAnd(b, lt, eq)

	if and.Op != opcode.OpConst {
		t.Fatalf("expected And(Lt,Eq) to fold to a Const (always false), got %s", and.Op)
	}
	if v := and.Attrs.(ConstAttrs).Val; v.Int64() != 0 {
		t.Fatalf("expected Const 0, got %d", v.Int64())
	}
}

// TestBoolPairFusionCollapsesOrOfCmpsToConst builds Or(Cmp(x,y,Lt),
// Cmp(x,y,Ge)), which is always true for integer operands, and checks
// it folds all the way to a Const 1.
func TestBoolPairFusionCollapsesOrOfCmpsToConst(t *testing.T) {
	g := newTestGraph(t)
	b := g.StartBlock
	x := g.NewSymConst(b, mode.Is32, nil, nil)
	y := g.NewSymConst(b, mode.Is32, nil, nil)
	lt := g.NewCmp(b, x, y, tarval.Lt)
	ge := g.NewCmp(b, x, y, tarval.Ge)
	or := g.NewOr(b, lt, ge)

	if or.Op != opcode.OpConst {
		t.Fatalf("expected Or(Lt,Ge) to fold to a Const (always true), got %s", or.Op)
	}
	if v := or.Attrs.(ConstAttrs).Val; v.Int64() != 1 {
		t.Fatalf("expected Const 1, got %d", v.Int64())
	}
}

// TestDiamondPhi builds an if/else diamond writing local 1 in both
// arms and reads it back in the join block, exercising the mature,
// multi-pred Phi-resolution path.
func TestDiamondPhi(t *testing.T) {
	g := newTestGraph(t)
	entry := g.StartBlock

	sel := g.NewSymConst(entry, mode.B, nil, nil)
	cond := g.NewCond(entry, sel)
	fProj, tProj := g.CondProjs(cond)

	thenB := g.NewImmBlock()
	g.AddImmBlockPred(thenB, tProj)
	g.MatureImmBlock(thenB)

	elseB := g.NewImmBlock()
	g.AddImmBlockPred(elseB, fProj)
	g.MatureImmBlock(elseB)

	one := g.NewConst(thenB, tarval.FromInt64(mode.Is32, 1))
	g.SetValue(thenB, 1, one)
	thenJmp := g.NewJmp(thenB)

	two := g.NewConst(elseB, tarval.FromInt64(mode.Is32, 2))
	g.SetValue(elseB, 1, two)
	elseJmp := g.NewJmp(elseB)

	join := g.NewImmBlock()
	g.AddImmBlockPred(join, thenJmp)
	g.AddImmBlockPred(join, elseJmp)
	g.MatureImmBlock(join)

	v := g.GetValue(join, 1, mode.Is32)
	if v.Op != opcode.OpPhi {
		t.Fatalf("expected join read of local 1 to produce a Phi, got %s", v.Op)
	}
	if len(v.In) != 2 {
		t.Fatalf("expected Phi arity 2, got %d", len(v.In))
	}
}

// TestRedundantPhiCollapses exercises the single-real-input +
// self-edge boundary case: a loop header Phi whose back-edge feeds
// its own value collapses to the entry value.
func TestRedundantPhiCollapses(t *testing.T) {
	g := newTestGraph(t)
	entry := g.StartBlock
	init := g.NewConst(entry, tarval.FromInt64(mode.Is32, 0))
	g.SetValue(entry, 1, init)
	entryJmp := g.NewJmp(entry)

	loop := g.NewImmBlock()
	g.AddImmBlockPred(loop, entryJmp)
	// Self-edge added before maturing, simulating a single-iteration
	// loop whose body never changes local 1.
	backEdge := g.NewJmp(loop)
	g.AddImmBlockPred(loop, backEdge)
	g.MatureImmBlock(loop)

	v := g.GetValue(loop, 1, mode.Is32)
	if v != init {
		t.Fatalf("expected degenerate Phi to collapse to entry value, got %v", v)
	}
}

func TestImmatureBlockQueuesPhi(t *testing.T) {
	g := newTestGraph(t)
	entry := g.StartBlock
	c := g.NewConst(entry, tarval.FromInt64(mode.Is32, 7))
	g.SetValue(entry, 1, c)
	jmp := g.NewJmp(entry)

	loop := g.NewImmBlock()
	g.AddImmBlockPred(loop, jmp)

	read := g.GetValue(loop, 1, mode.Is32)
	if read.Op != opcode.OpPhi0 {
		t.Fatalf("expected a Phi0 placeholder while block is immature, got %s", read.Op)
	}

	self := g.NewJmp(loop)
	g.AddImmBlockPred(loop, self)
	g.MatureImmBlock(loop)

	resolved := g.GetValue(loop, 1, mode.Is32)
	if resolved != c {
		// The placeholder should have collapsed to c once the single
		// real predecessor's value (c) was the only non-self input.
		t.Fatalf("expected placeholder read to resolve to entry constant, got %v", resolved)
	}
	_ = read
}
