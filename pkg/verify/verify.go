// Package verify implements the graph post-condition predicate: for
// every reachable node it checks operand arity, mode conformance, Phi
// arity against block arity, Block/End predecessor shape, and
// memory-operation mode discipline. Strict mode aborts on the first
// violation; report mode collects structured findings and continues.
package verify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/oisee/irgraph/pkg/diag"
	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
	"github.com/oisee/irgraph/pkg/opcode"
	"github.com/oisee/irgraph/pkg/pass"
)

// Mode selects verifier strictness: four levels from off to strict.
type Mode int

const (
	Off Mode = iota
	Report
	On // strict: first violation panics
	ErrorOnly
)

// Finding is one verifier violation.
type Finding struct {
	Node graph.NodeID
	Op   string
	Msg  string
}

func (f Finding) String() string {
	return fmt.Sprintf("node %d (%s): %s", f.Node, f.Op, f.Msg)
}

// Report is the sorted, deterministic result of a Verify run — sorted
// so two runs over an unchanged graph produce byte-identical output,
// which is what makes P4 (verifier idempotence) and Diff meaningful.
type Report struct {
	Findings []Finding
}

// String renders the report as one finding per line, sorted by node
// ID so repeated runs are directly comparable.
func (r *Report) String() string {
	var b strings.Builder
	for _, f := range r.Findings {
		b.WriteString(f.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// OK reports whether the report is free of findings.
func (r *Report) OK() bool { return len(r.Findings) == 0 }

// Verify runs the verifier over every node reachable from g.End. In
// On mode the first violation is fatal (diag.Fatalf); in Report and
// ErrorOnly modes violations are collected into the returned Report
// and the walk continues. Off always returns an empty, OK report.
func Verify(g *graph.Graph, m Mode) *Report {
	r := &Report{}
	if m == Off {
		return r
	}

	for _, n := range pass.Reachable(g) {
		for _, msg := range checkNode(g, n) {
			f := Finding{Node: n.ID, Op: n.Op.String(), Msg: msg}
			if m == On {
				diag.Fatalf("verify.go", 0, "Verify", "%s", f.String())
			}
			r.Findings = append(r.Findings, f)
		}
	}

	sort.Slice(r.Findings, func(i, j int) bool {
		if r.Findings[i].Node != r.Findings[j].Node {
			return r.Findings[i].Node < r.Findings[j].Node
		}
		return r.Findings[i].Msg < r.Findings[j].Msg
	})
	return r
}

func checkNode(g *graph.Graph, n *graph.Node) []string {
	var msgs []string
	info := opcode.Lookup(n.Op)
	if info == nil {
		return []string{"no registered opcode.Info"}
	}

	if info.Arity != opcode.Dynamic && opcode.Arity(len(n.In)) != info.Arity {
		msgs = append(msgs, fmt.Sprintf("arity %d does not match opcode arity %d", len(n.In), info.Arity))
	}

	if n.IsBlock() {
		msgs = append(msgs, checkBlockPreds(n)...)
		return msgs
	}

	switch n.Op {
	case opcode.OpPhi:
		if g.Phase != graph.PhaseBuilding && n.Block.IsMatured() && len(n.In) != n.Block.PredArity() {
			msgs = append(msgs, fmt.Sprintf("Phi arity %d does not match block arity %d", len(n.In), n.Block.PredArity()))
		}
	case opcode.OpLoad, opcode.OpStore, opcode.OpCall, opcode.OpAlloc, opcode.OpFree, opcode.OpSync:
		msgs = append(msgs, checkMemoryOp(n)...)
	case opcode.OpEnd:
		msgs = append(msgs, checkEndPreds(n)...)
	}

	return msgs
}

// checkBlockPreds requires every predecessor of a Block to be X-mode
// or Bad.
func checkBlockPreds(b *graph.Node) []string {
	var msgs []string
	for i, p := range b.Preds() {
		if p == nil {
			msgs = append(msgs, fmt.Sprintf("pred %d is nil", i))
			continue
		}
		if p.Op == opcode.OpBad {
			continue
		}
		if p.Mode != mode.X {
			msgs = append(msgs, fmt.Sprintf("pred %d has mode %s, want X or Bad", i, p.Mode))
		}
	}
	return msgs
}

// checkEndPreds requires every End predecessor to be a Return, Raise,
// a fragile op, Bad, or a Tuple expanding to one of those.
func checkEndPreds(end *graph.Node) []string {
	var msgs []string
	for i, p := range end.In {
		if p == nil || isEndCompatible(p) {
			continue
		}
		msgs = append(msgs, fmt.Sprintf("keep-alive %d (%s) is not Return/Raise/fragile/Bad/Tuple", i, p.Op))
	}
	return msgs
}

func isEndCompatible(n *graph.Node) bool {
	switch n.Op {
	case opcode.OpReturn, opcode.OpRaise, opcode.OpBad, opcode.OpCall, opcode.OpLoad, opcode.OpStore, opcode.OpDiv, opcode.OpMod:
		return true
	case opcode.OpTuple:
		for _, in := range n.In {
			if !isEndCompatible(in) {
				return false
			}
		}
		return true
	}
	return false
}

// checkMemoryOp requires the node's memory-thread operand (always
// In[0] for these ops) to carry mode M.
func checkMemoryOp(n *graph.Node) []string {
	if len(n.In) == 0 {
		return []string{"memory op has no operands"}
	}
	if n.Op == opcode.OpSync {
		var msgs []string
		for i, in := range n.In {
			if in.Mode != mode.M {
				msgs = append(msgs, fmt.Sprintf("Sync operand %d has mode %s, want M", i, in.Mode))
			}
		}
		return msgs
	}
	if n.In[0].Mode != mode.M {
		return []string{fmt.Sprintf("memory operand has mode %s, want M", n.In[0].Mode)}
	}
	return nil
}

// Diff renders a unified diff between two verifier reports' String
// forms, letting a client comparing "before" and "after" pass output
// see a readable delta instead of two opaque dumps.
func Diff(before, after *Report, fromName, toName string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before.String()),
		B:        difflib.SplitLines(after.String()),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}
