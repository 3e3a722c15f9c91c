package pass

import "github.com/oisee/irgraph/pkg/graph"

// Handle is a scoped claim on one of a graph's per-node side channels
// (link word, visited counter, block-mark, Phi-list). It replaces an
// ad-hoc resource-mask bitfield with something a
// caller can defer-release; double-reservation of a channel already
// claimed is a fatal programmer error, enforced by graph.Graph.Reserve
// itself.
type Handle struct {
	g *graph.Graph
	r graph.Resource
}

// Reserve claims r on g for the caller's exclusive use. Release it
// (typically via defer) when the pass is done with it.
func Reserve(g *graph.Graph, r graph.Resource) Handle {
	g.Reserve(r)
	return Handle{g: g, r: r}
}

// Release frees the resource this handle claimed, allowing a later
// Reserve of the same channel to succeed.
func (h Handle) Release() { h.g.Release(h.r) }
