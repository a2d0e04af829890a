package crdt

import (
	"testing"

	"github.com/cshekharsharma/replicate/replicaid"
)

func TestRemoveWinsSet_RemoveDiscardsValue(t *testing.T) {
	s := NewRemoveWinsSet[string](replicaid.New())
	id, _ := s.Add("secret", WallTs(1))
	s.Remove(id, WallTs(2))

	if _, ok := s.Get(id); ok {
		t.Fatal("expected removed element to be invisible")
	}

	recs := s.all()
	if len(recs) != 1 {
		t.Fatalf("expected tombstone retained for merge ties, got %d records", len(recs))
	}
	var zero string
	if recs[0].Value != zero {
		t.Fatalf("expected value physically discarded, got %q", recs[0].Value)
	}
}

func TestRemoveWinsSet_MergeConvergesAcrossReplicas(t *testing.T) {
	a := NewRemoveWinsSet[string](replicaid.New())
	b := NewRemoveWinsSet[string](replicaid.New())

	id, d := a.Add("x", WallTs(1))
	b.ApplyDelta(d)

	rd, _ := a.Remove(id, WallTs(2))
	b.ApplyDelta(rd)

	if _, ok := a.Get(id); ok {
		t.Fatal("expected a to no longer see x")
	}
	if _, ok := b.Get(id); ok {
		t.Fatal("expected b to no longer see x")
	}
}

func TestRemoveWinsList_OrderPreservedAfterRemoval(t *testing.T) {
	clock := replicaid.NewClock()
	l := NewRemoveWinsList[string](replicaid.New(), clock)
	id1, _ := l.Append("a", WallTs(1))
	l.Append("b", WallTs(2))
	l.Append("c", WallTs(3))
	l.Remove(id1, WallTs(4))

	vals := l.Values()
	if len(vals) != 2 || vals[0] != "b" || vals[1] != "c" {
		t.Fatalf("expected [b c], got %v", vals)
	}
}
