package graph

import "github.com/oisee/irgraph/pkg/typ"

// Program is the process-wide container: the collection of all
// Graphs plus the global type/entity universe, the set of procedure
// graphs under construction or already optimized,
// together with the options new graphs inherit. pkg/program (the CLI
// driver layer) wraps a *Program with cobra/pflag plumbing; it does
// not define a competing type, since Graph already holds a direct
// *Program back-reference and a second definition would force an
// import cycle between the two packages.
type Program struct {
	Options Options

	graphs   []*Graph
	types    map[string]*typ.Type
	entities map[string]*typ.Entity
}

// Options are the process-wide optimizer switches (cse_enable,
// constant_folding_enable, and friends), set once via
// functional options and inherited by every Graph created afterward.
type Options struct {
	CSEEnabled       bool
	ConstFoldEnabled bool
	VerifyOnMature   bool
}

// Option configures a Program at construction time.
type Option func(*Options)

// WithCSE toggles value-numbering/CSE for graphs created under this
// Program.
func WithCSE(enabled bool) Option { return func(o *Options) { o.CSEEnabled = enabled } }

// WithConstantFolding toggles computed_value folding.
func WithConstantFolding(enabled bool) Option {
	return func(o *Options) { o.ConstFoldEnabled = enabled }
}

// WithVerifyOnMature sets Options.VerifyOnMature. The flag is only
// recorded: MatureImmBlock does not read it, so setting it does not
// run the verifier when a block matures.
func WithVerifyOnMature(enabled bool) Option {
	return func(o *Options) { o.VerifyOnMature = enabled }
}

func defaultOptions() Options {
	return Options{CSEEnabled: true, ConstFoldEnabled: true}
}

// NewProgram creates an empty Program, ready to hold graphs.
func NewProgram(opts ...Option) *Program {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Program{
		Options:  o,
		types:    map[string]*typ.Type{},
		entities: map[string]*typ.Entity{},
	}
}

// NewGraph creates a new procedure Graph owned by p, seeded from p's
// current Options, and registers it.
func (p *Program) NewGraph(frameType *typ.Type) *Graph {
	g := NewGraph(p, frameType)
	g.CSEEnabled = p.Options.CSEEnabled
	g.ConstFoldEnabled = p.Options.ConstFoldEnabled
	p.graphs = append(p.graphs, g)
	return g
}

// Graphs returns every Graph registered with p, in creation order.
func (p *Program) Graphs() []*Graph { return append([]*Graph(nil), p.graphs...) }

// AddType registers t under its name for later lookup (e.g. by the
// pattern-store loader, which resolves types by name on restore).
func (p *Program) AddType(t *typ.Type) { p.types[t.Name] = t }

// Type looks up a previously-registered Type by name.
func (p *Program) Type(name string) (*typ.Type, bool) { t, ok := p.types[name]; return t, ok }

// AddEntity registers e under its name.
func (p *Program) AddEntity(e *typ.Entity) { p.entities[e.Name] = e }

// Entity looks up a previously-registered Entity by name.
func (p *Program) Entity(name string) (*typ.Entity, bool) { e, ok := p.entities[name]; return e, ok }
