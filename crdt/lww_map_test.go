package crdt

import (
	"testing"

	"github.com/cshekharsharma/replicate/replicaid"
)

func TestLwwMap_PerKeyMerge(t *testing.T) {
	a := NewLwwMap[string, int](replicaid.New())
	b := NewLwwMap[string, int](replicaid.New())

	a.Set("x", 1, WallTs(10))
	b.Set("y", 2, WallTs(10))
	b.Set("x", 9, WallTs(20))

	a.Merge(b)

	if v, ok := a.Get("x"); !ok || v != 9 {
		t.Fatalf("expected x=9, got %d ok=%v", v, ok)
	}
	if v, ok := a.Get("y"); !ok || v != 2 {
		t.Fatalf("expected y=2, got %d ok=%v", v, ok)
	}
}

func TestLwwMap_UnknownKeyAbsent(t *testing.T) {
	m := NewLwwMap[string, int](replicaid.New())
	if _, ok := m.Get("missing"); ok {
		t.Fatal("expected missing key to be absent")
	}
}

func TestLwwMap_ApplyDeltaRoundTrip(t *testing.T) {
	a := NewLwwMap[string, int](replicaid.New())
	b := NewLwwMap[string, int](replicaid.New())

	d := a.Set("k", 7, WallTs(1))
	b.ApplyDelta(d)

	if v, ok := b.Get("k"); !ok || v != 7 {
		t.Fatalf("expected k=7 after ApplyDelta, got %d ok=%v", v, ok)
	}
}
