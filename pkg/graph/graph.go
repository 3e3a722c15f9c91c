package graph

import (
	"github.com/oisee/irgraph/pkg/diag"
	"github.com/oisee/irgraph/pkg/mode"
	"github.com/oisee/irgraph/pkg/opcode"
	"github.com/oisee/irgraph/pkg/typ"
)

// Phase names the lifecycle stage of a Graph.
type Phase uint8

const (
	PhaseBuilding Phase = iota
	PhaseHighLevel
	PhaseBackEnd
)

// OutsState / DomsState track whether cached analyses are valid.
type ConsistencyState uint8

const (
	StateNone ConsistencyState = iota
	StateConsistent
	StateInconsistent
)

// CalleeInfoState / TypeInfoState share the same three-value shape.
type InfoState = ConsistencyState

// Resource identifies a per-node side channel a pass must reserve
// before using.
type Resource uint8

const (
	ResourceLink Resource = 1 << iota
	ResourceVisited
	ResourcePhiList
	ResourceBlockMark
)

// Graph is one procedure graph: the anchors, arena, construction
// state and pass-consistency flags.
type Graph struct {
	Program *Program

	// Anchors.
	Start      *Node
	End        *Node
	StartBlock *Node
	EndBlock   *Node
	Frame      *Node
	Args       *Node
	InitialMem *Node
	NoMem      *Node
	Bad        *Node
	Unknown    *Node

	FrameType *typ.Type
	Entity    *typ.Entity // the method Entity this graph implements, if any

	// currentBlock is the construction cursor: new nodes without an
	// explicit block target attach here.
	currentBlock *Node

	Phase      Phase
	OutsState  ConsistencyState
	DomsState  ConsistencyState
	CalleeInfo InfoState
	TypeInfo   InfoState

	edgesActive struct{ Normal, Block bool }

	CSEEnabled      bool
	ConstFoldEnabled bool

	reserved Resource // currently-claimed per-node resources
	visitGen uint64   // bumped by NextVisitGen for walker generations

	nextID NodeID
	nodes  []*Node // the arena: every node ever allocated in this graph

	// cseTable is the value-numbering hash table, keyed by a structural
	// hash of (op, mode, ins, attrs).
	cseTable map[uint64][]*Node

	Reachable bool // not set by any pass in this module (cfopt computes reachability locally)
}

// NewGraph creates an empty procedure graph with Start/End anchors
// wired per the standard projection numbers, owned by prog.
func NewGraph(prog *Program, frameType *typ.Type) *Graph {
	g := &Graph{
		Program:          prog,
		FrameType:        frameType,
		CSEEnabled:       true,
		ConstFoldEnabled: true,
		cseTable:         map[uint64][]*Node{},
	}

	g.Bad = g.allocNode(opcode.OpBad, mode.BAD)
	g.Unknown = g.allocNode(opcode.OpUnknown, mode.ANY)

	g.StartBlock = g.NewImmBlock()
	g.MatureImmBlock(g.StartBlock) // Start block has 0 preds, matured immediately
	g.Bad.Block = g.StartBlock
	g.Unknown.Block = g.StartBlock

	g.Start = g.newNodeIn(g.StartBlock, opcode.OpStart, mode.T)
	g.InitialMem = g.newProj(g.Start, mode.M, 1)
	g.Frame = g.newProj(g.Start, mode.P, 2)
	g.Args = g.newProj(g.Start, mode.T, 3)

	g.EndBlock = g.NewImmBlock()
	g.End = g.newNodeIn(g.EndBlock, opcode.OpEnd, mode.X)

	g.currentBlock = g.StartBlock
	if frameType != nil {
		g.setValueRaw(g.StartBlock, 0, g.InitialMem)
	}
	return g
}

// SetCurrentBlock moves the construction cursor.
func (g *Graph) SetCurrentBlock(b *Node) { g.currentBlock = b }

// CurrentBlock returns the construction cursor.
func (g *Graph) CurrentBlock() *Node { return g.currentBlock }

// allocNode allocates a fresh Node from g's arena with a stable ID;
// nodes are never individually freed: a node dies only by all
// references ceasing, and reclamation happens when the whole arena
// is discarded.
func (g *Graph) allocNode(op opcode.Op, m *mode.Mode) *Node {
	n := &Node{ID: g.nextID, Op: op, Mode: m, Graph: g}
	g.nextID++
	g.nodes = append(g.nodes, n)
	return n
}

// newNodeIn allocates a node attached to block b with no operands yet;
// callers append operands via appendIn/SetIn.
func (g *Graph) newNodeIn(b *Node, op opcode.Op, m *mode.Mode) *Node {
	n := g.allocNode(op, m)
	n.SetBlock(b)
	return n
}

func (g *Graph) appendIn(n *Node, operand *Node) {
	pos := len(n.In)
	n.In = append(n.In, operand)
	if g.edgesActive.Normal && operand != nil {
		operand.outs = append(operand.outs, outEdge{user: n, pos: pos})
	}
}

// Nodes returns every node ever allocated in g, live or dead. Callers
// doing reachability-sensitive work should walk from Start instead
// (see pkg/pass.Walker); this is mainly for dump/verify tooling.
func (g *Graph) Nodes() []*Node { return g.nodes }

// NextVisitGen returns a visited-generation value guaranteed distinct
// from every prior call on g, for use with Node.Visit.
func (g *Graph) NextVisitGen() uint64 {
	g.visitGen++
	return g.visitGen
}

// Reserve claims r for the caller's exclusive use until Release is
// called. Double-reservation of a resource already claimed is a fatal
// programmer error: the single-threaded model relies on this
// discipline instead of locking.
func (g *Graph) Reserve(r Resource) {
	if g.reserved&r != 0 {
		diag.Fatalf("graph.go", 0, "Graph.Reserve", "resource %d already reserved", r)
	}
	g.reserved |= r
}

// Release frees r, allowing a later Reserve to succeed.
func (g *Graph) Release(r Resource) {
	g.reserved &^= r
}

func modeX() *mode.Mode { return mode.X }

func fatalMisuse(fn, format string, args ...any) {
	diag.Fatalf("graph.go", 0, fn, format, args...)
}
