package crdt

import (
	"testing"

	"github.com/cshekharsharma/replicate/replicaid"
)

func TestGCounter_Convergence(t *testing.T) {
	a := NewGCounter(replicaid.New())
	b := NewGCounter(replicaid.New())

	a.Increment(2)
	b.Increment(1)

	a.Merge(b)
	b.Merge(a)

	if a.Value() != 3 || b.Value() != 3 {
		t.Fatalf("expected convergence at 3, got a=%d b=%d", a.Value(), b.Value())
	}

	a.Merge(b)
	if a.Value() != 3 {
		t.Fatalf("idempotency failed: expected 3, got %d", a.Value())
	}
}

func TestGCounter_HasConflictAlwaysFalse(t *testing.T) {
	a := NewGCounter(replicaid.New())
	b := NewGCounter(replicaid.New())
	a.Increment(5)
	b.Increment(5)
	if a.HasConflict(b) {
		t.Fatal("GCounter must never report a conflict")
	}
}

func TestGCounter_ApplyDeltaIsMax(t *testing.T) {
	r := replicaid.New()
	a := NewGCounter(r)
	a.Increment(10)
	a.ApplyDelta(GCounterDelta{Replica: r, Count: 3})
	if a.Value() != 10 {
		t.Fatalf("ApplyDelta must not move backwards, got %d", a.Value())
	}
	a.ApplyDelta(GCounterDelta{Replica: r, Count: 20})
	if a.Value() != 20 {
		t.Fatalf("expected 20, got %d", a.Value())
	}
}
