// Package opcode is the operator registry: the closed enumeration of
// opcodes plus, per opcode, arity/flags/attribute-size and the hook
// pointers the rest of the engine dispatches through.
package opcode

// Op identifies an opcode. Core opcodes are a stable, process-wide
// enumeration; back-end dialects reserve a contiguous range above
// FirstDialectOp via NextDialectRange.
type Op uint16

// Arity is either a small fixed count or Dynamic for variable-arity
// opcodes (Phi, Call, Sync, Tuple-consuming End, ...).
type Arity int32

const Dynamic Arity = -1

// PinState controls whether a node may float (be reordered by
// scheduling) relative to its block's other nodes.
type PinState uint8

const (
	Floats PinState = iota
	Pinned
	ExcPinned // pinned only when it may raise an exception
)

// Flags are opcode-level boolean properties consulted by the local
// optimizer and CF optimizer.
type Flags uint32

const (
	FlagCommutative Flags = 1 << iota
	FlagMemoryOp
	FlagFragile // may raise an exception (Div, Mod, Load, Store, ...)
	FlagKeep    // End keeps this node alive even if otherwise unused
	FlagCfOp    // produces/consumes control flow (Jmp, Cond, Return, ...)
	FlagConstLike
	FlagReassociate
	FlagForking // Cond, Switch: produces multiple X-mode results
)

// Has reports whether all bits of want are set in f.
func (f Flags) Has(want Flags) bool { return f&want == want }

// Info is the per-opcode metadata record.
type Info struct {
	Op       Op
	Name     string
	Arity    Arity
	Pin      PinState
	Flags    Flags
	AttrSize uintptr

	// Hooks. Each is optional; nil means "no special behavior" and the
	// caller (pkg/graph's local optimizer, pkg/verify) supplies a
	// default. All hooks receive the node as `any` (a *graph.Node) to
	// avoid an import cycle between pkg/opcode and pkg/graph.
	EquivalentNode func(n any) any
	TransformNode  func(n any) any
	ComputedValue  func(n any) any // returns a *tarval.Tarval or nil
	Hash           func(n any) uint64
	AttrsEqual     func(a, b any) bool
	CopyAttr       func(dst, src any)
	Verify         func(n any) error
	Dump           func(n any) string
	MemoryIndex    func(n any) (int, bool)
	FragileIndices func(n any) []int
}

// Core opcodes.
const (
	OpStart Op = iota
	OpEnd
	OpBlock
	OpJmp
	OpCond
	OpSwitch
	OpReturn
	OpRaise
	OpConst
	OpSymConst
	OpSel
	OpCall
	OpLoad
	OpStore
	OpSync
	OpAlloc
	OpFree
	OpPhi
	OpProj
	OpTuple
	OpId
	OpBad
	OpUnknown
	OpAnchor

	OpAdd
	OpSub
	OpMul
	OpMulh
	OpDiv
	OpMod
	OpMinus
	OpAbs
	OpAnd
	OpOr
	OpEor
	OpNot
	OpShl
	OpShr
	OpShrs
	OpRotl
	OpCmp
	OpConv
	OpConfirm
	OpMux

	// Phi0 is the construction-time placeholder used while a block is
	// still immature; it never survives past mature/optimize and is not part of
	// the stable external enumeration, but is registered here so the
	// registry and verifier can recognize it uniformly.
	OpPhi0

	firstDialectOp
)

// FirstDialectOp is the first Op value a back-end dialect may claim.
const FirstDialectOp = firstDialectOp

var registry = map[Op]*Info{}

func register(i *Info) {
	registry[i.Op] = i
}

// Lookup returns the registered Info for op, or nil if unregistered.
func Lookup(op Op) *Info { return registry[op] }

// MustLookup returns the registered Info for op, panicking (a
// programmer error) if op was never registered.
func MustLookup(op Op) *Info {
	i := registry[op]
	if i == nil {
		panic("opcode: unregistered opcode " + op.String())
	}
	return i
}

func (op Op) String() string {
	if i := registry[op]; i != nil {
		return i.Name
	}
	return "Op(?)"
}

// nextDialectOp is bumped by NextDialectRange; guarded implicitly by
// registry mutation only happening during single-threaded
// initialization.
var nextDialectOp = firstDialectOp

// NextDialectRange reserves n contiguous Op values for a back-end
// dialect and returns the first one.
func NextDialectRange(n int) Op {
	first := nextDialectOp
	nextDialectOp += Op(n)
	return first
}

// IsDialectOp reports whether op falls in [first, first+n) as
// returned by a prior NextDialectRange(n) call starting at first.
func IsDialectOp(op, first Op, n int) bool {
	return op >= first && op < first+Op(n)
}

func init() {
	register(&Info{Op: OpStart, Name: "Start", Arity: 0, Pin: Pinned})
	register(&Info{Op: OpEnd, Name: "End", Arity: Dynamic, Pin: Pinned, Flags: FlagCfOp})
	register(&Info{Op: OpBlock, Name: "Block", Arity: Dynamic, Pin: Pinned, Flags: FlagCfOp})
	register(&Info{Op: OpJmp, Name: "Jmp", Arity: 0, Pin: Pinned, Flags: FlagCfOp})
	register(&Info{Op: OpCond, Name: "Cond", Arity: 1, Pin: Pinned, Flags: FlagCfOp | FlagForking})
	register(&Info{Op: OpSwitch, Name: "Switch", Arity: 1, Pin: Pinned, Flags: FlagCfOp | FlagForking})
	register(&Info{Op: OpReturn, Name: "Return", Arity: Dynamic, Pin: Pinned, Flags: FlagCfOp})
	register(&Info{Op: OpRaise, Name: "Raise", Arity: Dynamic, Pin: Pinned, Flags: FlagCfOp})
	register(&Info{Op: OpConst, Name: "Const", Arity: 0, Pin: Floats, Flags: FlagConstLike, AttrSize: 8})
	register(&Info{Op: OpSymConst, Name: "SymConst", Arity: 0, Pin: Floats, Flags: FlagConstLike})
	register(&Info{Op: OpSel, Name: "Sel", Arity: 1, Pin: Floats})
	register(&Info{Op: OpCall, Name: "Call", Arity: Dynamic, Pin: Pinned, Flags: FlagMemoryOp | FlagFragile})
	register(&Info{Op: OpLoad, Name: "Load", Arity: 2, Pin: ExcPinned, Flags: FlagMemoryOp | FlagFragile})
	register(&Info{Op: OpStore, Name: "Store", Arity: 3, Pin: ExcPinned, Flags: FlagMemoryOp | FlagFragile})
	register(&Info{Op: OpSync, Name: "Sync", Arity: Dynamic, Pin: Pinned, Flags: FlagMemoryOp})
	register(&Info{Op: OpAlloc, Name: "Alloc", Arity: 2, Pin: Pinned, Flags: FlagMemoryOp | FlagFragile})
	register(&Info{Op: OpFree, Name: "Free", Arity: 2, Pin: Pinned, Flags: FlagMemoryOp})
	register(&Info{Op: OpPhi, Name: "Phi", Arity: Dynamic, Pin: Pinned})
	register(&Info{Op: OpProj, Name: "Proj", Arity: 1, Pin: Floats})
	register(&Info{Op: OpTuple, Name: "Tuple", Arity: Dynamic, Pin: Floats})
	register(&Info{Op: OpId, Name: "Id", Arity: 1, Pin: Floats})
	register(&Info{Op: OpBad, Name: "Bad", Arity: 0, Pin: Floats})
	register(&Info{Op: OpUnknown, Name: "Unknown", Arity: 0, Pin: Floats, Flags: FlagConstLike})
	register(&Info{Op: OpAnchor, Name: "Anchor", Arity: Dynamic, Pin: Pinned, Flags: FlagKeep})

	register(&Info{Op: OpAdd, Name: "Add", Arity: 2, Pin: Floats, Flags: FlagCommutative | FlagReassociate})
	register(&Info{Op: OpSub, Name: "Sub", Arity: 2, Pin: Floats})
	register(&Info{Op: OpMul, Name: "Mul", Arity: 2, Pin: Floats, Flags: FlagCommutative | FlagReassociate})
	register(&Info{Op: OpMulh, Name: "Mulh", Arity: 2, Pin: Floats, Flags: FlagCommutative})
	register(&Info{Op: OpDiv, Name: "Div", Arity: 3, Pin: ExcPinned, Flags: FlagMemoryOp | FlagFragile})
	register(&Info{Op: OpMod, Name: "Mod", Arity: 3, Pin: ExcPinned, Flags: FlagMemoryOp | FlagFragile})
	register(&Info{Op: OpMinus, Name: "Minus", Arity: 1, Pin: Floats})
	register(&Info{Op: OpAbs, Name: "Abs", Arity: 1, Pin: Floats})
	register(&Info{Op: OpAnd, Name: "And", Arity: 2, Pin: Floats, Flags: FlagCommutative})
	register(&Info{Op: OpOr, Name: "Or", Arity: 2, Pin: Floats, Flags: FlagCommutative})
	register(&Info{Op: OpEor, Name: "Eor", Arity: 2, Pin: Floats, Flags: FlagCommutative})
	register(&Info{Op: OpNot, Name: "Not", Arity: 1, Pin: Floats})
	register(&Info{Op: OpShl, Name: "Shl", Arity: 2, Pin: Floats})
	register(&Info{Op: OpShr, Name: "Shr", Arity: 2, Pin: Floats})
	register(&Info{Op: OpShrs, Name: "Shrs", Arity: 2, Pin: Floats})
	register(&Info{Op: OpRotl, Name: "Rotl", Arity: 2, Pin: Floats})
	register(&Info{Op: OpCmp, Name: "Cmp", Arity: 2, Pin: Floats})
	register(&Info{Op: OpConv, Name: "Conv", Arity: 1, Pin: Floats})
	register(&Info{Op: OpConfirm, Name: "Confirm", Arity: 2, Pin: Pinned})
	register(&Info{Op: OpMux, Name: "Mux", Arity: 3, Pin: Floats})
	register(&Info{Op: OpPhi0, Name: "Phi0", Arity: Dynamic, Pin: Pinned})
}
