package crdt

import (
	"errors"
	"testing"

	"github.com/cshekharsharma/replicate/errs"
	"github.com/cshekharsharma/replicate/replicaid"
)

func TestDAG_LocalCycleRejected(t *testing.T) {
	g := NewDAG[string](replicaid.New())
	u := g.AddVertex("u", WallTs(1))
	v := g.AddVertex("v", WallTs(1))

	if _, err := g.AddEdge(u, v, 0, false, WallTs(2)); err != nil {
		t.Fatalf("expected u->v to succeed, got %v", err)
	}
	if _, err := g.AddEdge(v, u, 0, false, WallTs(3)); !errors.Is(err, errs.ErrCycleDetected) {
		t.Fatalf("expected CycleDetected for v->u, got %v", err)
	}
}

func TestDAG_TopologicalSort(t *testing.T) {
	g := NewDAG[string](replicaid.New())
	a := g.AddVertex("a", WallTs(1))
	b := g.AddVertex("b", WallTs(1))
	c := g.AddVertex("c", WallTs(1))
	g.AddEdge(a, b, 0, false, WallTs(2))
	g.AddEdge(b, c, 0, false, WallTs(2))

	order, ok := g.TopologicalSort()
	if !ok || len(order) != 3 {
		t.Fatalf("expected a valid topological order of 3, got %v ok=%v", order, ok)
	}
	pos := map[ElementID]int{}
	for i, id := range order {
		pos[id] = i
	}
	if pos[a] > pos[b] || pos[b] > pos[c] {
		t.Fatalf("expected a before b before c, got %v", order)
	}
}

func TestDAG_ShortestPath(t *testing.T) {
	g := NewDAG[string](replicaid.New())
	a := g.AddVertex("a", WallTs(1))
	b := g.AddVertex("b", WallTs(1))
	c := g.AddVertex("c", WallTs(1))
	g.AddEdge(a, b, 0, false, WallTs(2))
	g.AddEdge(b, c, 0, false, WallTs(2))
	g.AddEdge(a, c, 0, false, WallTs(2))

	path, ok := g.ShortestPath(a, c)
	if !ok || len(path) != 2 {
		t.Fatalf("expected direct a->c path of length 2, got %v ok=%v", path, ok)
	}
}

func TestDAG_MergeRepairsIntroducedCycle(t *testing.T) {
	ga := NewDAG[string](replicaid.New())
	gb := NewDAG[string](replicaid.New())

	u := ga.AddVertex("u", WallTs(1))
	v := ga.AddVertex("v", WallTs(1))
	gb.Merge(ga)

	ga.AddEdge(u, v, 0, false, WallTs(2))
	gb.AddEdge(v, u, 0, false, WallTs(3))

	ga.Merge(gb)

	order, ok := ga.TopologicalSort()
	if !ok {
		t.Fatalf("expected merge to repair the cycle, got order=%v", order)
	}
}
