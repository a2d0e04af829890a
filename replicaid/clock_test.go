package replicaid

import "testing"

func TestClock_Monotonic(t *testing.T) {
	c := NewClock()
	var prev Lamport
	for i := 0; i < 100; i++ {
		next := c.Tick()
		if next <= prev {
			t.Fatalf("clock not monotonic: prev=%d next=%d", prev, next)
		}
		prev = next
	}
}

func TestClock_RestoreNeverRewinds(t *testing.T) {
	c := NewClock()
	for i := 0; i < 10; i++ {
		c.Tick()
	}
	hwm := c.HighWaterMark()

	restored := RestoreClock(hwm)
	next := restored.Tick()
	if next <= hwm {
		t.Fatalf("restored clock rewound: hwm=%d next=%d", hwm, next)
	}
}

func TestClock_Observe(t *testing.T) {
	c := NewClock()
	c.Observe(50)
	if hwm := c.HighWaterMark(); hwm != 50 {
		t.Fatalf("expected hwm=50, got %d", hwm)
	}
	c.Observe(10) // must not rewind
	if hwm := c.HighWaterMark(); hwm != 50 {
		t.Fatalf("Observe rewound clock: got %d", hwm)
	}
	next := c.Tick()
	if next != 51 {
		t.Fatalf("expected tick to be 51, got %d", next)
	}
}
