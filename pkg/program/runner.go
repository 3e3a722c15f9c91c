package program

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oisee/irgraph/pkg/graph"
)

// Stage is one step of a per-graph pass pipeline (e.g. cfopt.Optimize
// wrapped to match this signature, inline.InlineAll scoped to a single
// graph, verify.Verify translated into an error).
type Stage func(g *graph.Graph) error

// Runner distributes a pipeline of Stages across a Program's graphs,
// grounded on pkg/search/worker.go's WorkerPool: a buffered channel of
// work items drained by a fixed goroutine pool, atomic progress
// counters, and a ticker-driven status line. The parallelism unit here
// is a whole *graph.Graph rather than a search task.
type Runner struct {
	NumWorkers int

	processed atomic.Int64
	failed    atomic.Int64
}

// NewRunner creates a Runner with numWorkers goroutines (GOMAXPROCS-
// equivalent if numWorkers <= 0).
func NewRunner(numWorkers int) *Runner {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &Runner{NumWorkers: numWorkers}
}

// Stats reports how many graphs have been processed and how many of
// those failed so far.
func (r *Runner) Stats() (processed, failed int64) {
	return r.processed.Load(), r.failed.Load()
}

// Run pushes every graph in graphs through stages, in order, reporting
// the first stage error per graph. Graphs run concurrently across
// r.NumWorkers goroutines; each graph is owned by exactly one
// goroutine at a time, so no locking is needed inside a Stage.
func (r *Runner) Run(graphs []*graph.Graph, stages []Stage, verbose bool) []error {
	total := int64(len(graphs))
	errs := make([]error, len(graphs))

	type job struct {
		idx int
		g   *graph.Graph
	}
	ch := make(chan job, len(graphs))
	for i, g := range graphs {
		ch <- job{idx: i, g: g}
	}
	close(ch)

	done := make(chan struct{})
	start := time.Now()
	if verbose {
		go r.reportProgress(total, start, done)
	}

	var wg sync.WaitGroup
	for i := 0; i < r.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range ch {
				var err error
				for _, stage := range stages {
					if err = stage(j.g); err != nil {
						break
					}
				}
				if err != nil {
					errs[j.idx] = err
					r.failed.Add(1)
				}
				r.processed.Add(1)
			}
		}()
	}
	wg.Wait()
	close(done)

	if verbose {
		elapsed := time.Since(start)
		fmt.Printf("  [%s] %d/%d graphs | %d failed | DONE\n",
			elapsed.Round(time.Second), r.processed.Load(), total, r.failed.Load())
	}
	return errs
}

func (r *Runner) reportProgress(total int64, start time.Time, done <-chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			elapsed := time.Since(start)
			p, f := r.Stats()
			pct := float64(p) / float64(total) * 100
			fmt.Printf("  [%s] %d/%d graphs (%.1f%%) | %d failed\n", elapsed.Round(time.Second), p, total, pct, f)
		}
	}
}
