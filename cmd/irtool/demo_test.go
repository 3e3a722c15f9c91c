package main

import (
	"bytes"
	"testing"

	"github.com/oisee/irgraph/pkg/inline"
	"github.com/oisee/irgraph/pkg/pass"
	"github.com/oisee/irgraph/pkg/verify"
)

func TestBuildDemoVerifiesClean(t *testing.T) {
	d := buildDemo()
	for _, g := range d.graphs() {
		if r := verify.Verify(g, verify.Report); !r.OK() {
			t.Fatalf("%s: expected a clean demo graph, got: %s", graphName(g), r.String())
		}
	}
}

func TestBuildDemoDumpsVCG(t *testing.T) {
	d := buildDemo()
	var buf bytes.Buffer
	for _, g := range d.graphs() {
		if err := pass.DumpVCG(&buf, g); err != nil {
			t.Fatalf("DumpVCG: %v", err)
		}
	}
	if buf.Len() == 0 {
		t.Fatalf("expected a non-empty VCG dump")
	}
}

func TestBuildDemoInlinesComputeCalls(t *testing.T) {
	d := buildDemo()
	n := inline.InlineAll(d.graphs(), d.lookup, 0, 1000)
	if n == 0 {
		t.Fatalf("expected at least one call site in compute to be inlined")
	}
	if r := verify.Verify(d.compute, verify.Report); !r.OK() {
		t.Fatalf("compute failed verification after inlining: %s", r.String())
	}
}

func TestCollectPatternIsNonEmpty(t *testing.T) {
	d := buildDemo()
	p := collectPattern(d.add)
	if len(p) == 0 {
		t.Fatalf("expected add's pattern to have at least one token")
	}
}
