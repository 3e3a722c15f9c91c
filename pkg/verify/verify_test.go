package verify

import (
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

func TestVerifyCleanGraph(t *testing.T) {
	g := newTestGraph(t)
	b := g.StartBlock
	c := g.NewConst(b, tarval.FromInt64(mode.Is32, 1))
	jmp := g.NewJmp(b)
	_ = c
	g.MatureImmBlock(g.EndBlock)
	g.End.In = append(g.End.In, jmp)

	r := Verify(g, Report)
	if !r.OK() {
		t.Fatalf("expected clean graph to verify OK, got: %s", r.String())
	}
}

// TestIdempotent exercises P4: running the verifier twice in a row
// yields identical reports and never mutates the graph.
func TestIdempotent(t *testing.T) {
	g := newTestGraph(t)
	b := g.StartBlock
	g.NewConst(b, tarval.FromInt64(mode.Is32, 1))

	first := Verify(g, Report)
	second := Verify(g, Report)
	if first.String() != second.String() {
		t.Fatalf("verifier not idempotent:\nfirst:\n%s\nsecond:\n%s", first.String(), second.String())
	}
}

func TestDiffRendersChange(t *testing.T) {
	before := &Report{Findings: []Finding{{Node: 1, Op: "Add", Msg: "bad arity"}}}
	after := &Report{}
	out, err := Diff(before, after, "before", "after")
	if err != nil {
		t.Fatalf("Diff error: %v", err)
	}
	if out == "" {
		t.Fatalf("expected non-empty diff between differing reports")
	}
}
