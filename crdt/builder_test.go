package crdt

import (
	"errors"
	"testing"

	"github.com/cshekharsharma/replicate/errs"
	"github.com/cshekharsharma/replicate/replicaid"
)

func TestCustomCRDT_DispatchesPerFieldStrategy(t *testing.T) {
	clock := replicaid.NewClock()
	a := NewCustomCRDT(replicaid.New(), clock)
	b := NewCustomCRDT(replicaid.New(), clock)

	if err := a.DefineField("title", StrategyLWW); err != nil {
		t.Fatalf("unexpected error defining field: %v", err)
	}
	if err := b.DefineField("title", StrategyLWW); err != nil {
		t.Fatalf("unexpected error defining field: %v", err)
	}
	if err := a.DefineField("votes", StrategyGCounter); err != nil {
		t.Fatalf("unexpected error defining field: %v", err)
	}
	if err := b.DefineField("votes", StrategyGCounter); err != nil {
		t.Fatalf("unexpected error defining field: %v", err)
	}

	fa, _ := a.Field("title")
	fa.LWW().Set([]byte("hello"), WallTs(1))
	fb, _ := b.Field("title")
	fb.LWW().Set([]byte("world"), WallTs(2))

	gva, _ := a.Field("votes")
	gva.GCounter().Increment(3)
	gvb, _ := b.Field("votes")
	gvb.GCounter().Increment(4)

	if err := a.Merge(b); err != nil {
		t.Fatalf("unexpected merge error: %v", err)
	}

	title, _ := a.Field("title")
	v, _ := title.LWW().Get()
	if string(v) != "world" {
		t.Fatalf("expected later LWW write to win, got %q", v)
	}

	votes, _ := a.Field("votes")
	if votes.GCounter().Value() != 7 {
		t.Fatalf("expected gcounter sum of 7, got %d", votes.GCounter().Value())
	}
}

func TestCustomCRDT_CrossStrategyMergeFails(t *testing.T) {
	clock := replicaid.NewClock()
	a := NewCustomCRDT(replicaid.New(), clock)
	b := NewCustomCRDT(replicaid.New(), clock)

	a.DefineField("field", StrategyLWW)
	b.DefineField("field", StrategyGCounter)

	if err := a.Merge(b); !errors.Is(err, errs.ErrStrategyMismatch) {
		t.Fatalf("expected StrategyMismatch, got %v", err)
	}
}

func TestCustomCRDT_RedefineSameStrategyIsNoop(t *testing.T) {
	clock := replicaid.NewClock()
	a := NewCustomCRDT(replicaid.New(), clock)
	if err := a.DefineField("f", StrategyLWW); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.DefineField("f", StrategyLWW); err != nil {
		t.Fatalf("expected redefining with the same strategy to be a no-op, got %v", err)
	}
	if err := a.DefineField("f", StrategyGCounter); !errors.Is(err, errs.ErrStrategyMismatch) {
		t.Fatalf("expected StrategyMismatch redefining with a different strategy, got %v", err)
	}
}
