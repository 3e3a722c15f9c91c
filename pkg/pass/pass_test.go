package pass

import (
	"bytes"
	"testing"

	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
	"github.com/oisee/irgraph/pkg/tarval"
)

func newTestGraph(t *testing.T) *graph.Graph {
	t.Helper()
	prog := graph.NewProgram()
	return prog.NewGraph(nil)
}

func TestReachableFindsReturn(t *testing.T) {
	g := newTestGraph(t)
	b := g.StartBlock
	c := g.NewConst(b, tarval.FromInt64(mode.Is32, 1))
	ret := g.NewReturn(b, g.InitialMem, c)
	g.End.In = append(g.End.In, ret)
	g.MatureImmBlock(g.EndBlock)

	found := Reachable(g)
	if _, ok := found[ret.ID]; !ok {
		t.Fatalf("expected Return to be reachable from End")
	}
	if _, ok := found[c.ID]; !ok {
		t.Fatalf("expected Return's Const operand to be reachable")
	}
}

func TestWalkBlocksVisitsEveryBlock(t *testing.T) {
	g := newTestGraph(t)
	entry := g.StartBlock
	jmp := g.NewJmp(entry)
	tail := g.NewImmBlock()
	g.AddImmBlockPred(tail, jmp)
	g.MatureImmBlock(tail)
	ret := g.NewReturn(tail, g.InitialMem)
	g.End.In = append(g.End.In, ret)
	g.MatureImmBlock(g.EndBlock)

	w := NewWalker(g)
	seen := map[*graph.Node]bool{}
	w.WalkBlocks(func(b *graph.Node) { seen[b] = true })
	if !seen[entry] || !seen[tail] {
		t.Fatalf("expected WalkBlocks to visit both entry and tail")
	}
}

func TestDumpVCGWritesNodeCount(t *testing.T) {
	g := newTestGraph(t)
	b := g.StartBlock
	c := g.NewConst(b, tarval.FromInt64(mode.Is32, 1))
	ret := g.NewReturn(b, g.InitialMem, c)
	g.End.In = append(g.End.In, ret)
	g.MatureImmBlock(g.EndBlock)

	var buf bytes.Buffer
	if err := DumpVCG(&buf, g); err != nil {
		t.Fatalf("DumpVCG: %v", err)
	}
	if buf.Len() == 0 || !bytes.Contains(buf.Bytes(), []byte("graph:")) {
		t.Fatalf("expected a VCG graph section, got: %s", buf.String())
	}
}

func TestResourceDoubleReserveByOtherHandlePanics(t *testing.T) {
	g := newTestGraph(t)
	h := Reserve(g, graph.ResourceVisited)
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected double-reservation of the same resource to panic")
		}
		h.Release()
	}()
	Reserve(g, graph.ResourceVisited)
}

func TestSchedulerRefusesUnmetPrecondition(t *testing.T) {
	g := newTestGraph(t)
	s := NewScheduler(Pass{
		Name:     "needs-edges",
		Requires: EdgesActive,
		Run:      func(g *graph.Graph) error { return nil },
	})
	if err := s.Run(g); err == nil {
		t.Fatalf("expected Scheduler to refuse a pass whose Requires state isn't met")
	}
}

func TestSchedulerRunsAndInvalidates(t *testing.T) {
	g := newTestGraph(t)
	g.ActivateEdges(true, true)
	ran := false
	s := NewScheduler(Pass{
		Name:        "clears-edges",
		Requires:    EdgesActive,
		Invalidates: EdgesActive,
		Run:         func(g *graph.Graph) error { ran = true; return nil },
	})
	if err := s.Run(g); err != nil {
		t.Fatalf("Scheduler.Run: %v", err)
	}
	if !ran {
		t.Fatalf("expected the pass to run")
	}
	if normal, _ := g.EdgesActive(); normal {
		t.Fatalf("expected Invalidates to deactivate edges")
	}
}
