package graph

import (
	"github.com/oisee/irgraph/pkg/mode"
	"github.com/oisee/irgraph/pkg/opcode"
	"github.com/oisee/irgraph/pkg/tarval"
	"github.com/oisee/irgraph/pkg/typ"
)

// newValueNode is the universal node constructor: it allocates, wires
// inputs with edge tracking, and immediately runs the local-optimizer
// pipeline, which may return a different, pre-existing
// node. Every op-specific New* helper below funnels through this one
// function, matching the source's "every constructor ends by calling
// optimize" contract.
func (g *Graph) newValueNode(block *Node, op opcode.Op, m *mode.Mode, attrs any, ins ...*Node) *Node {
	n := g.allocNode(op, m)
	n.Attrs = attrs
	n.SetBlock(block)
	for _, in := range ins {
		g.appendIn(n, in)
	}
	return g.optimizeNode(n)
}

func (g *Graph) newProj(pred *Node, m *mode.Mode, num int) *Node {
	return g.newValueNode(pred.Block, opcode.OpProj, m, ProjAttrs{Num: num}, pred)
}

// --- SSA construction core ---

// setValueRaw installs value directly into block's variable
// environment without going through the read algorithm; used only for
// the graph's own bootstrap (seeding local 0, the memory thread, at
// the start block).
func (g *Graph) setValueRaw(block *Node, pos int, value *Node) {
	block.block.varMap[pos] = value
}

// SetValue records that, from this point forward in block, local
// variable pos holds value (set_value).
func (g *Graph) SetValue(block *Node, pos int, value *Node) {
	if !block.IsBlock() {
		fatalMisuse("SetValue", "target is not a Block")
	}
	block.block.varMap[pos] = value
}

// SetValueCur is SetValue against the construction cursor.
func (g *Graph) SetValueCur(pos int, value *Node) { g.SetValue(g.currentBlock, pos, value) }

// SetStore is SetValue for the distinguished memory-thread index 0.
func (g *Graph) SetStore(block *Node, mem *Node) { g.SetValue(block, 0, mem) }

// GetStore reads the current memory value in block.
func (g *Graph) GetStore(block *Node) *Node { return g.GetValue(block, 0, mode.M) }

// GetValue implements the three-way read algorithm: local hit,
// matured-block resolution (0/1/N preds), or immature
// placeholder-and-queue.
func (g *Graph) GetValue(block *Node, pos int, m *mode.Mode) *Node {
	if !block.IsBlock() {
		fatalMisuse("GetValue", "target is not a Block")
	}
	if v, ok := block.block.varMap[pos]; ok && v != nil {
		return v
	}

	if block.IsMatured() {
		preds := block.In
		switch len(preds) {
		case 0:
			if block == g.StartBlock {
				return g.Unknown
			}
			return g.Bad
		case 1:
			v := g.GetValue(preds[0].Block, pos, m)
			block.block.varMap[pos] = v
			return v
		default:
			phi := g.newPhi0(block, m)
			block.block.varMap[pos] = phi // breaks cycles
			resolved := g.setPhiArguments(phi, pos)
			if block.block.varMap[pos] == phi {
				block.block.varMap[pos] = resolved
			}
			return resolved
		}
	}

	// Immature: queue a placeholder for MatureImmBlock to resolve.
	phi := g.newPhi0(block, m)
	block.block.philist = append(block.block.philist, phiWait{phi: phi, pos: pos})
	block.block.varMap[pos] = phi
	return phi
}

// GetValueCur is GetValue against the construction cursor.
func (g *Graph) GetValueCur(pos int, m *mode.Mode) *Node {
	return g.GetValue(g.currentBlock, pos, m)
}

func (g *Graph) newPhi0(block *Node, m *mode.Mode) *Node {
	n := g.allocNode(opcode.OpPhi0, m)
	n.SetBlock(block)
	return n
}

// setPhiArguments fills phi's operands from its block's (now frozen)
// cfg-preds and attempts the identity collapse: a Phi whose non-self
// operands all coincide is replaced by that
// value. Returns the surviving node (phi itself, or the collapsed
// value).
func (g *Graph) setPhiArguments(phi *Node, pos int) *Node {
	block := phi.Block
	preds := block.In
	for _, predCtrl := range preds {
		v := g.GetValue(predCtrl.Block, pos, phi.Mode)
		g.appendIn(phi, v)
	}
	return g.tryRemoveUnnecessaryPhi(phi)
}

// tryRemoveUnnecessaryPhi collapses phi to its unique non-self operand
// when one exists ("Phi with one real input + one self-edge ->
// identity-collapses to the real input"). A Phi whose every operand
// is itself (an unreachable loop
// header) collapses to Bad.
func (g *Graph) tryRemoveUnnecessaryPhi(phi *Node) *Node {
	var unique *Node
	for _, in := range phi.In {
		if in == phi {
			continue
		}
		if unique == nil {
			unique = in
		} else if unique != in {
			return promotePhi(g, phi)
		}
	}
	if unique == nil {
		g.Exchange(phi, g.Bad)
		return g.Bad
	}
	g.Exchange(phi, unique)
	return unique
}

// promotePhi finalizes phi as a real Phi (as opposed to the Phi0
// construction placeholder) once it is known it cannot collapse, then
// runs it back through the optimizer in case CSE finds an existing
// equal Phi.
func promotePhi(g *Graph, phi *Node) *Node {
	phi.Op = opcode.OpPhi
	return g.optimizeNode(phi)
}

// NewPhi creates an explicit, fully-specified Phi (used by the
// inliner's post-call stitching, which knows its operands up front and
// does not go through the lazy read algorithm).
func (g *Graph) NewPhi(block *Node, m *mode.Mode, ins []*Node) *Node {
	return g.newValueNode(block, opcode.OpPhi, m, nil, ins...)
}

// --- Control flow ---

func (g *Graph) NewJmp(block *Node) *Node {
	return g.newValueNode(block, opcode.OpJmp, mode.X, nil)
}

func (g *Graph) NewCond(block *Node, selector *Node) *Node {
	n := g.newValueNode(block, opcode.OpCond, mode.T, nil, selector)
	return n
}

// CondProjs returns the false/true X-mode projections of a Cond node
// (false=0, true=1).
func (g *Graph) CondProjs(cond *Node) (falseProj, trueProj *Node) {
	return g.newProj(cond, mode.X, 0), g.newProj(cond, mode.X, 1)
}

func (g *Graph) NewSwitch(block *Node, selector *Node, numCases int) *Node {
	return g.newValueNode(block, opcode.OpSwitch, mode.T, SwitchAttrs{NumCases: numCases}, selector)
}

// SwitchProj returns the n-th case projection (or the default, at
// index numCases) of a Switch.
func (g *Graph) SwitchProj(sw *Node, n int) *Node {
	return g.newProj(sw, mode.X, n)
}

func (g *Graph) NewReturn(block *Node, mem *Node, results ...*Node) *Node {
	ins := append([]*Node{mem}, results...)
	return g.newValueNode(block, opcode.OpReturn, mode.X, nil, ins...)
}

func (g *Graph) NewRaise(block *Node, mem *Node, exc *Node) *Node {
	return g.newValueNode(block, opcode.OpRaise, mode.X, nil, mem, exc)
}

func (g *Graph) NewTuple(block *Node, ins ...*Node) *Node {
	return g.newValueNode(block, opcode.OpTuple, mode.T, nil, ins...)
}

// NewProjN is the public, generic Proj constructor for tuple-typed
// preds not covered by a dedicated helper (e.g. Call/Load/Store
// results).
func (g *Graph) NewProjN(pred *Node, m *mode.Mode, num int) *Node {
	return g.newProj(pred, m, num)
}

func (g *Graph) NewId(block *Node, operand *Node) *Node {
	return g.newValueNode(block, opcode.OpId, operand.Mode, nil, operand)
}

// --- Arithmetic & data ---

func (g *Graph) NewConst(block *Node, val *tarval.Tarval) *Node {
	return g.newValueNode(block, opcode.OpConst, val.Mode, ConstAttrs{Val: val})
}

func (g *Graph) NewSymConst(block *Node, m *mode.Mode, e *typ.Entity, t *typ.Type) *Node {
	return g.newValueNode(block, opcode.OpSymConst, m, SymConstAttrs{Entity: e, Type: t})
}

func (g *Graph) NewAdd(block, a, b *Node) *Node {
	return g.newValueNode(block, opcode.OpAdd, a.Mode, nil, a, b)
}
func (g *Graph) NewSub(block, a, b *Node) *Node {
	return g.newValueNode(block, opcode.OpSub, a.Mode, nil, a, b)
}
func (g *Graph) NewMul(block, a, b *Node) *Node {
	return g.newValueNode(block, opcode.OpMul, a.Mode, nil, a, b)
}
func (g *Graph) NewMulh(block, a, b *Node) *Node {
	return g.newValueNode(block, opcode.OpMulh, a.Mode, nil, a, b)
}
func (g *Graph) NewAnd(block, a, b *Node) *Node {
	return g.newValueNode(block, opcode.OpAnd, a.Mode, nil, a, b)
}
func (g *Graph) NewOr(block, a, b *Node) *Node {
	return g.newValueNode(block, opcode.OpOr, a.Mode, nil, a, b)
}
func (g *Graph) NewEor(block, a, b *Node) *Node {
	return g.newValueNode(block, opcode.OpEor, a.Mode, nil, a, b)
}
func (g *Graph) NewNot(block, a *Node) *Node {
	return g.newValueNode(block, opcode.OpNot, a.Mode, nil, a)
}
func (g *Graph) NewMinus(block, a *Node) *Node {
	return g.newValueNode(block, opcode.OpMinus, a.Mode, nil, a)
}
func (g *Graph) NewAbs(block, a *Node) *Node {
	return g.newValueNode(block, opcode.OpAbs, a.Mode, nil, a)
}
func (g *Graph) NewShl(block, a, b *Node) *Node {
	return g.newValueNode(block, opcode.OpShl, a.Mode, nil, a, b)
}
func (g *Graph) NewShr(block, a, b *Node) *Node {
	return g.newValueNode(block, opcode.OpShr, a.Mode, nil, a, b)
}
func (g *Graph) NewShrs(block, a, b *Node) *Node {
	return g.newValueNode(block, opcode.OpShrs, a.Mode, nil, a, b)
}
func (g *Graph) NewRotl(block, a, b *Node) *Node {
	return g.newValueNode(block, opcode.OpRotl, a.Mode, nil, a, b)
}
func (g *Graph) NewCmp(block, a, b *Node, rel tarval.Relation) *Node {
	return g.newValueNode(block, opcode.OpCmp, mode.B, CmpAttrs{Rel: rel}, a, b)
}
func (g *Graph) NewConv(block, a *Node, dst *mode.Mode) *Node {
	return g.newValueNode(block, opcode.OpConv, dst, nil, a)
}
func (g *Graph) NewConfirm(block, value, bound *Node, rel tarval.Relation) *Node {
	return g.newValueNode(block, opcode.OpConfirm, value.Mode, ConfirmAttrs{Rel: rel}, value, bound)
}
func (g *Graph) NewMux(block, selector, falseVal, trueVal *Node) *Node {
	return g.newValueNode(block, opcode.OpMux, trueVal.Mode, nil, selector, falseVal, trueVal)
}

// --- Memory ops ---

func (g *Graph) NewSel(block, frame *Node, e *typ.Entity) *Node {
	return g.newValueNode(block, opcode.OpSel, mode.P, SelAttrs{Entity: e}, frame)
}

// NewLoad creates a Load of mode m through ptr; returns the Tuple
// (M, X?, data) (M=0, X=1, res=2).
// The result mode is part of the node's attrs (set before the local
// optimizer runs, not tagged on after) so that two Loads agreeing on
// memory, pointer and result mode are CSE-eligible, while two Loads
// reading the same address at different result modes are not.
func (g *Graph) NewLoad(block, mem, ptr *Node, m *mode.Mode) *Node {
	return g.newValueNode(block, opcode.OpLoad, mode.T, LoadAttrs{ResMode: m}, mem, ptr)
}

// LoadAttrs carries the result mode a Load's data projection should
// take; Load's own Mode is T (tuple), so this is the only place that
// mode is recorded.
type LoadAttrs struct{ ResMode *mode.Mode }

// LoadProjs returns (mem, data) projections of a Load Tuple.
func (g *Graph) LoadProjs(load *Node) (mem, data *Node) {
	resMode := mode.P
	if la, ok := load.Attrs.(LoadAttrs); ok && la.ResMode != nil {
		resMode = la.ResMode
	}
	return g.newProj(load, mode.M, 0), g.newProj(load, resMode, 2)
}

// NewStore creates a Store of data through ptr; returns the Tuple
// (M, X?) (M=0, X=1).
func (g *Graph) NewStore(block, mem, ptr, data *Node) *Node {
	return g.newValueNode(block, opcode.OpStore, mode.T, nil, mem, ptr, data)
}

// StoreMem returns the memory projection of a Store Tuple.
func (g *Graph) StoreMem(store *Node) *Node { return g.newProj(store, mode.M, 0) }

func (g *Graph) NewSync(block *Node, mems ...*Node) *Node {
	return g.newValueNode(block, opcode.OpSync, mode.M, nil, mems...)
}

func (g *Graph) NewAlloc(block, mem *Node, t *typ.Type) *Node {
	return g.newValueNode(block, opcode.OpAlloc, mode.T, AllocAttrs{Type: t}, mem)
}

func (g *Graph) NewFree(block, mem, ptr *Node) *Node {
	return g.newValueNode(block, opcode.OpFree, mode.M, nil, mem, ptr)
}

// NewCall creates a Call of callee (nil for an indirect call reached
// through calleePtr) with the given memory and arguments. Returns the
// Tuple (M=0, X_regular=1, T_result=2, X_except=3).
func (g *Graph) NewCall(block, mem *Node, callee *typ.Entity, calleePtr *Node, args []*Node, numResults int) *Node {
	ins := make([]*Node, 0, 2+len(args))
	ins = append(ins, mem)
	if calleePtr != nil {
		ins = append(ins, calleePtr)
	}
	ins = append(ins, args...)
	return g.newValueNode(block, opcode.OpCall, mode.T, CallAttrs{Callee: callee, NumResults: numResults}, ins...)
}

// CallProjs returns the (mem, resultTuple, regularX, exceptX)
// projections of a Call Tuple.
func (g *Graph) CallProjs(call *Node) (mem, results, regular, except *Node) {
	return g.newProj(call, mode.M, 0),
		g.newProj(call, mode.T, 2),
		g.newProj(call, mode.X, 1),
		g.newProj(call, mode.X, 3)
}
