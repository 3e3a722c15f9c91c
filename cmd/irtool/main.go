package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oisee/irgraph/pkg/cfopt"
	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/inline"
	"github.com/oisee/irgraph/pkg/pass"
	"github.com/oisee/irgraph/pkg/pattern"
	"github.com/oisee/irgraph/pkg/program"
	"github.com/oisee/irgraph/pkg/verify"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "irtool",
		Short: "irgraph demo CLI — build, optimize, inline, verify, dump and pattern-store sample graphs",
	}

	flags := program.Register(rootCmd.PersistentFlags())

	buildDemoCmd := &cobra.Command{
		Use:   "build-demo",
		Short: "Build the demo add/compute graphs and report their shape",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := buildDemo(flags.Options()...)
			for _, g := range d.graphs() {
				fmt.Printf("%s: %d nodes\n", graphName(g), len(g.Nodes()))
			}
			return nil
		},
	}

	var optimizeVerbose bool
	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "Run the CF optimizer over the demo graphs",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := buildDemo(flags.Options()...)
			before := make([]*verify.Report, len(d.graphs()))
			for i, g := range d.graphs() {
				before[i] = verify.Verify(g, verify.Report)
			}

			runner := program.NewRunner(flags.Workers)
			errs := runner.Run(d.graphs(), []program.Stage{
				func(g *graph.Graph) error { cfopt.Optimize(g); return nil },
			}, optimizeVerbose)
			for i, err := range errs {
				if err != nil {
					return fmt.Errorf("%s: %w", graphName(d.graphs()[i]), err)
				}
			}

			for i, g := range d.graphs() {
				after := verify.Verify(g, verify.Report)
				diff, err := verify.Diff(before[i], after, "before", "after")
				if err != nil {
					return err
				}
				fmt.Printf("%s: %d nodes", graphName(g), len(g.Nodes()))
				if diff != "" {
					fmt.Printf(", verifier report changed:\n%s", diff)
				} else {
					fmt.Printf(", verifier report unchanged\n")
				}
			}
			return nil
		},
	}
	optimizeCmd.Flags().BoolVarP(&optimizeVerbose, "verbose", "v", false, "Print worker-pool progress")

	var inlineThreshold int64
	var inlineMaxGrowth int
	inlineCmd := &cobra.Command{
		Use:   "inline",
		Short: "Run the inliner over the demo graphs",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := buildDemo(flags.Options()...)
			n := inline.InlineAll(d.graphs(), d.lookup, inlineThreshold, inlineMaxGrowth)
			fmt.Printf("inlined %d call site(s)\n", n)
			for _, g := range d.graphs() {
				fmt.Printf("%s: %d nodes\n", graphName(g), len(g.Nodes()))
			}
			return nil
		},
	}
	inlineCmd.Flags().Int64Var(&inlineThreshold, "threshold", 0, "minimum Priority score a call site must clear")
	inlineCmd.Flags().IntVar(&inlineMaxGrowth, "max-growth", 1000, "total node-growth cap across all graphs")

	var verifyStrict bool
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the demo graphs and print any findings",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := buildDemo(flags.Options()...)
			m := verify.Report
			if verifyStrict {
				m = verify.On
			}
			failed := false
			for _, g := range d.graphs() {
				r := verify.Verify(g, m)
				if r.OK() {
					fmt.Printf("%s: OK\n", graphName(g))
					continue
				}
				failed = true
				fmt.Printf("%s: %d finding(s)\n%s", graphName(g), len(r.Findings), r.String())
			}
			if failed {
				return fmt.Errorf("verification found issues")
			}
			return nil
		},
	}
	verifyCmd.Flags().BoolVar(&verifyStrict, "strict", false, "abort on the first violation instead of collecting a report")

	var dumpOutput string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Write a VCG dump of the demo graphs",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := buildDemo(flags.Options()...)
			w := os.Stdout
			if dumpOutput != "" {
				f, err := os.Create(dumpOutput)
				if err != nil {
					return err
				}
				defer f.Close()
				for _, g := range d.graphs() {
					if err := pass.DumpVCG(f, g); err != nil {
						return err
					}
				}
				fmt.Printf("written to %s\n", dumpOutput)
				return nil
			}
			for _, g := range d.graphs() {
				if err := pass.DumpVCG(w, g); err != nil {
					return err
				}
			}
			return nil
		},
	}
	dumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", "", "Output file path (default: stdout)")

	var patternOutput string
	patternCmd := &cobra.Command{
		Use:   "pattern",
		Short: "Collect a pattern record per demo graph and report store statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := buildDemo(flags.Options()...)
			var records []pattern.Record
			for _, g := range d.graphs() {
				records = append(records, pattern.Record{Counter: 1, Pattern: collectPattern(g)})
			}

			data, err := pattern.Marshal(records)
			if err != nil {
				return err
			}
			if patternOutput != "" {
				if err := os.WriteFile(patternOutput, data, 0o644); err != nil {
					return err
				}
				fmt.Printf("written %d bytes to %s\n", len(data), patternOutput)
			}

			roundTripped, err := pattern.Unmarshal(data)
			if err != nil {
				return fmt.Errorf("pattern store round trip failed: %w", err)
			}
			for i, rec := range roundTripped {
				fmt.Printf("%s: counter=%d, %d token(s)\n", graphName(d.graphs()[i]), rec.Counter, len(rec.Pattern))
			}
			return nil
		},
	}
	patternCmd.Flags().StringVarP(&patternOutput, "output", "o", "", "Also write the FPS1 store to this file path")

	rootCmd.AddCommand(buildDemoCmd, optimizeCmd, inlineCmd, verifyCmd, dumpCmd, patternCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func graphName(g *graph.Graph) string {
	if g.Entity != nil {
		return g.Entity.Name
	}
	return "<anonymous>"
}
