// Package program is the CLI-facing driver layer: it wires process-wide
// optimizer switches to pflag flags, and runs a pass pipeline over one
// or more independently-owned *graph.Graph values, in parallel when
// there is more than one (each Graph is self-contained, so graphs are
// the natural unit of concurrent work).
package program

import (
	"github.com/spf13/pflag"

	"github.com/oisee/irgraph/pkg/graph"
)

// Flags binds a graph.Options-shaped set of pflag flags to a FlagSet,
// the way cmd/z80opt wired search.Config/stoke.Config fields directly
// onto cobra command flags.
type Flags struct {
	CSE           bool
	ConstFold     bool
	VerifyOnMature bool
	Workers       int
}

// Register adds irgraph's process-wide switches to fs, returning a
// Flags whose fields are populated once fs.Parse has run.
func Register(fs *pflag.FlagSet) *Flags {
	f := &Flags{}
	fs.BoolVar(&f.CSE, "cse", true, "enable value-numbering/CSE in the local optimizer")
	fs.BoolVar(&f.ConstFold, "const-fold", true, "enable constant folding in the local optimizer")
	fs.BoolVar(&f.VerifyOnMature, "verify-on-mature", false, "set graph.Options.VerifyOnMature (recorded only; block maturing does not run the verifier)")
	fs.IntVar(&f.Workers, "workers", 0, "number of graphs to run the pass pipeline on concurrently (0 = GOMAXPROCS)")
	return f
}

// Options converts parsed Flags into graph.Options, ready to seed a
// new graph.Program.
func (f *Flags) Options() []graph.Option {
	return []graph.Option{
		graph.WithCSE(f.CSE),
		graph.WithConstantFolding(f.ConstFold),
		graph.WithVerifyOnMature(f.VerifyOnMature),
	}
}
