package pass

import (
	"fmt"
	"io"

	"github.com/oisee/irgraph/pkg/graph"
)

// DumpVCG writes a node-count-annotated VCG (Visualization of
// Compiler Graphs) rendering of g to w: one graph{...} section with a
// node{} entry per reachable node and an edge{} entry per operand,
// grounded on the reference SSA sketch's Fprint-to-io.Writer style
// retrieved alongside this spec, adapted to this graph's Node/Block
// shape.
func DumpVCG(w io.Writer, g *graph.Graph) error {
	nodes := Reachable(g)
	fmt.Fprintf(w, "graph: { title: \"graph\"\n")
	fmt.Fprintf(w, "// %d reachable nodes\n", len(nodes))
	for _, n := range nodes {
		label := n.String()
		if n.IsBlock() {
			fmt.Fprintf(w, "node: { title: \"n%d\" label: \"%s\" color: lightyellow }\n", n.ID, label)
		} else {
			fmt.Fprintf(w, "node: { title: \"n%d\" label: \"%s\" }\n", n.ID, label)
		}
	}
	for _, n := range nodes {
		for pos, in := range n.In {
			if in == nil {
				continue
			}
			fmt.Fprintf(w, "edge: { sourcename: \"n%d\" targetname: \"n%d\" label: \"%d\" }\n", n.ID, in.ID, pos)
		}
		if n.Block != nil {
			fmt.Fprintf(w, "edge: { sourcename: \"n%d\" targetname: \"n%d\" label: \"block\" color: blue }\n", n.ID, n.Block.ID)
		}
	}
	fmt.Fprintf(w, "}\n")
	return nil
}
