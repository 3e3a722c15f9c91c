package main

import (
	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
	"github.com/oisee/irgraph/pkg/tarval"
	"github.com/oisee/irgraph/pkg/typ"
)

// demoProgram is the fixture every subcommand operates on: there is no
// textual front end here, so the CLI
// plays the role the teacher's search package played for enumerate/
// target/stoke — a driver that builds graphs through the construction
// API directly and then runs passes over them.
type demoProgram struct {
	prog    *graph.Program
	add     *graph.Graph
	compute *graph.Graph
}

// buildDemo constructs two graphs: add(a, b) = a + b, and
// compute(n) = n > 0 ? add(n, 10) : add(n, -10). compute's two arms
// both call add with a constant second argument, so inline has
// something direct and non-recursive to splice,
// and verify/dump/pattern all have a non-trivial CFG and a Call to
// look at.
func buildDemo(opts ...graph.Option) *demoProgram {
	prog := graph.NewProgram(opts...)

	addGraph := prog.NewGraph(nil)
	addEntity := typ.NewEntity("add", typ.NewMethod(
		[]*typ.Type{typ.NewPrimitive("int32", mode.Is32), typ.NewPrimitive("int32", mode.Is32)},
		[]*typ.Type{typ.NewPrimitive("int32", mode.Is32)}, 0))
	addEntity.Graph = addGraph
	addGraph.Entity = addEntity
	prog.AddEntity(addEntity)
	{
		b := addGraph.StartBlock
		a := addGraph.NewProjN(addGraph.Args, mode.Is32, 0)
		y := addGraph.NewProjN(addGraph.Args, mode.Is32, 1)
		sum := addGraph.NewAdd(b, a, y)
		ret := addGraph.NewReturn(b, addGraph.InitialMem, sum)
		addGraph.End.In = append(addGraph.End.In, ret)
		addGraph.MatureImmBlock(addGraph.EndBlock)
	}

	computeGraph := prog.NewGraph(nil)
	computeEntity := typ.NewEntity("compute", typ.NewMethod(
		[]*typ.Type{typ.NewPrimitive("int32", mode.Is32)},
		[]*typ.Type{typ.NewPrimitive("int32", mode.Is32)}, 0))
	computeEntity.Graph = computeGraph
	computeGraph.Entity = computeEntity
	prog.AddEntity(computeEntity)
	{
		entry := computeGraph.StartBlock
		n := computeGraph.NewProjN(computeGraph.Args, mode.Is32, 0)
		zero := computeGraph.NewConst(entry, tarval.FromInt64(mode.Is32, 0))
		cmp := computeGraph.NewCmp(entry, n, zero, tarval.Gt)
		cond := computeGraph.NewCond(entry, cmp)
		falseProj, trueProj := computeGraph.CondProjs(cond)

		thenB := computeGraph.NewImmBlock()
		computeGraph.AddImmBlockPred(thenB, trueProj)
		computeGraph.MatureImmBlock(thenB)
		ten := computeGraph.NewConst(thenB, tarval.FromInt64(mode.Is32, 10))
		callThen := computeGraph.NewCall(thenB, computeGraph.InitialMem, addEntity, nil, []*graph.Node{n, ten}, 1)
		memThen, resThen, _, _ := computeGraph.CallProjs(callThen)
		valThen := computeGraph.NewProjN(resThen, mode.Is32, 0)
		retThen := computeGraph.NewReturn(thenB, memThen, valThen)

		elseB := computeGraph.NewImmBlock()
		computeGraph.AddImmBlockPred(elseB, falseProj)
		computeGraph.MatureImmBlock(elseB)
		negTen := computeGraph.NewConst(elseB, tarval.FromInt64(mode.Is32, -10))
		callElse := computeGraph.NewCall(elseB, computeGraph.InitialMem, addEntity, nil, []*graph.Node{n, negTen}, 1)
		memElse, resElse, _, _ := computeGraph.CallProjs(callElse)
		valElse := computeGraph.NewProjN(resElse, mode.Is32, 0)
		retElse := computeGraph.NewReturn(elseB, memElse, valElse)

		computeGraph.End.In = append(computeGraph.End.In, retThen, retElse)
		computeGraph.MatureImmBlock(computeGraph.EndBlock)
	}

	return &demoProgram{prog: prog, add: addGraph, compute: computeGraph}
}

// graphs returns every graph in construction order, the order cmd/
// irtool reports them in and the order the worker pool assigns indices
// to them.
func (d *demoProgram) graphs() []*graph.Graph {
	return []*graph.Graph{d.add, d.compute}
}

func (d *demoProgram) lookup(e *typ.Entity) *graph.Graph {
	if e == nil || e.Graph == nil {
		return nil
	}
	g, _ := e.Graph.(*graph.Graph)
	return g
}
