package pass

import (
	"fmt"

	"github.com/oisee/irgraph/pkg/graph"
)

// State is a bitmask of consistency flags: "outs-consistent",
// "doms-consistent", "edges-active". A Pass declares which it
// Requires before running; the Scheduler refuses to run a pass whose
// precondition isn't currently met rather than silently running it
// against stale analyses.
type State uint8

const (
	OutsConsistent State = 1 << iota
	DomsConsistent
	EdgesActive
)

// currentState reads g's actual consistency flags; there is no
// separately tracked scheduler-side copy to drift from the graph.
func currentState(g *graph.Graph) State {
	var s State
	if g.OutsState == graph.StateConsistent {
		s |= OutsConsistent
	}
	if g.DomsState == graph.StateConsistent {
		s |= DomsConsistent
	}
	if normal, _ := g.EdgesActive(); normal {
		s |= EdgesActive
	}
	return s
}

// Pass is one scheduled unit of work: a named transformation with
// declared pre/post-conditions over the graph's consistency State.
type Pass struct {
	Name        string
	Requires    State
	Invalidates State
	Run         func(g *graph.Graph) error
}

// Scheduler runs a fixed list of Passes in order, checking each one's
// Requires against the graph's current State before running it.
type Scheduler struct {
	passes []Pass
}

// NewScheduler creates a Scheduler that will run passes in the given
// order.
func NewScheduler(passes ...Pass) *Scheduler {
	return &Scheduler{passes: append([]Pass(nil), passes...)}
}

// Run executes every scheduled pass against g in order. It stops and
// returns an error at the first pass whose Requires state is not
// currently satisfied, or whose Run returns an error — the scheduler
// never silently runs a pass with an unmet precondition.
func (s *Scheduler) Run(g *graph.Graph) error {
	for _, p := range s.passes {
		have := currentState(g)
		if have&p.Requires != p.Requires {
			return fmt.Errorf("pass %q requires state %v, graph has %v", p.Name, p.Requires, have)
		}
		if err := p.Run(g); err != nil {
			return fmt.Errorf("pass %q: %w", p.Name, err)
		}
		if p.Invalidates&OutsConsistent != 0 {
			g.OutsState = graph.StateInconsistent
		}
		if p.Invalidates&DomsConsistent != 0 {
			g.DomsState = graph.StateInconsistent
		}
		if p.Invalidates&EdgesActive != 0 {
			g.DeactivateEdges()
		}
	}
	return nil
}
