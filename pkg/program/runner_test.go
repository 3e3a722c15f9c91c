package program

import (
	"errors"
	"testing"

	"github.com/oisee/irgraph/pkg/graph"
)

func newGraphs(t *testing.T, n int) []*graph.Graph {
	t.Helper()
	prog := graph.NewProgram()
	graphs := make([]*graph.Graph, n)
	for i := range graphs {
		graphs[i] = prog.NewGraph(nil)
	}
	return graphs
}

func TestRunnerRunsEveryGraph(t *testing.T) {
	graphs := newGraphs(t, 8)
	visited := make(chan *graph.Graph, len(graphs))

	r := NewRunner(4)
	errs := r.Run(graphs, []Stage{
		func(g *graph.Graph) error { visited <- g; return nil },
	}, false)

	for _, err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	close(visited)
	count := 0
	for range visited {
		count++
	}
	if count != len(graphs) {
		t.Fatalf("expected every graph to be visited, got %d/%d", count, len(graphs))
	}

	processed, failed := r.Stats()
	if processed != int64(len(graphs)) || failed != 0 {
		t.Fatalf("expected Stats() = (%d, 0), got (%d, %d)", len(graphs), processed, failed)
	}
}

func TestRunnerReportsPerGraphErrorInOrder(t *testing.T) {
	graphs := newGraphs(t, 3)
	failAt := graphs[1]
	boom := errors.New("boom")

	r := NewRunner(2)
	errs := r.Run(graphs, []Stage{
		func(g *graph.Graph) error {
			if g == failAt {
				return boom
			}
			return nil
		},
	}, false)

	if errs[0] != nil || errs[2] != nil {
		t.Fatalf("expected graphs 0 and 2 to succeed, got errs=%v", errs)
	}
	if !errors.Is(errs[1], boom) {
		t.Fatalf("expected graph 1's error to be boom, got %v", errs[1])
	}

	_, failed := r.Stats()
	if failed != 1 {
		t.Fatalf("expected 1 failure recorded, got %d", failed)
	}
}

func TestNewRunnerDefaultsWorkers(t *testing.T) {
	r := NewRunner(0)
	if r.NumWorkers <= 0 {
		t.Fatalf("expected NewRunner(0) to default NumWorkers to GOMAXPROCS, got %d", r.NumWorkers)
	}
}
