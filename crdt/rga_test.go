package crdt

import (
	"github.com/cshekharsharma/replicate/position"
	"github.com/cshekharsharma/replicate/replicaid"
	"testing"
)

func TestRGA_SequentialInsertsPreserveOrder(t *testing.T) {
	clock := replicaid.NewClock()
	r := NewRGA[rune](replicaid.New(), clock)

	d1 := r.Insert('a', position.Zero)
	d2 := r.Insert('b', d1.ID)
	r.Insert('c', d2.ID)

	vals := r.Values()
	if string(vals) != "abc" {
		t.Fatalf("expected abc, got %v", string(vals))
	}
}

func TestRGA_ConcurrentInsertsConverge(t *testing.T) {
	clockA := replicaid.NewClock()
	clockB := replicaid.NewClock()
	a := NewRGA[rune](replicaid.New(), clockA)
	b := NewRGA[rune](replicaid.New(), clockB)

	base := a.Insert('x', position.Zero)
	b.ApplyDelta(base)

	// concurrent insert after the same element on both replicas
	da := a.Insert('A', base.ID)
	db := b.Insert('B', base.ID)

	a.ApplyDelta(db)
	b.ApplyDelta(da)

	av := string(a.Values())
	bv := string(b.Values())
	if av != bv {
		t.Fatalf("replicas diverged: a=%q b=%q", av, bv)
	}
	if len(av) != 3 {
		t.Fatalf("expected 3 visible elements, got %d", len(av))
	}
}

func TestRGA_DeleteIsTombstoned(t *testing.T) {
	clock := replicaid.NewClock()
	r := NewRGA[rune](replicaid.New(), clock)
	d1 := r.Insert('a', position.Zero)
	r.Insert('b', d1.ID)
	r.Delete(d1.ID)

	if string(r.Values()) != "b" {
		t.Fatalf("expected b, got %q", string(r.Values()))
	}
}

func TestRGA_MergeBuffersOrphansUntilParentArrives(t *testing.T) {
	clockA := replicaid.NewClock()
	clockB := replicaid.NewClock()
	a := NewRGA[rune](replicaid.New(), clockA)
	b := NewRGA[rune](replicaid.New(), clockB)

	d1 := a.Insert('a', position.Zero)
	d2 := a.Insert('b', d1.ID)

	// deliver child before parent: must buffer, not drop
	b.ApplyDelta(d2)
	if string(b.Values()) != "" {
		t.Fatalf("expected nothing visible before parent arrives, got %q", string(b.Values()))
	}
	b.ApplyDelta(d1)
	if string(b.Values()) != "ab" {
		t.Fatalf("expected ab after parent arrives, got %q", string(b.Values()))
	}
}
