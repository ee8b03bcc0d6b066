package warehouse

import "testing"

func TestSimpleCacheRegisterAndLookup(t *testing.T) {
	c := &SimpleCache[int]{itemIndices: make(map[string]int), maxCapacity: 4}

	idx, err := c.Register("a", 10)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if idx != 0 {
		t.Fatalf("got index %d, want 0", idx)
	}

	got, ok := c.GetIndex("a")
	if !ok || got != 0 {
		t.Fatalf("got (%d, %v), want (0, true)", got, ok)
	}
	if *c.GetItem(0) != 10 {
		t.Fatalf("got %d, want 10", *c.GetItem(0))
	}
}

func TestSimpleCacheRejectsOverCapacity(t *testing.T) {
	c := &SimpleCache[int]{itemIndices: make(map[string]int), maxCapacity: 1}
	if _, err := c.Register("a", 1); err != nil {
		t.Fatalf("Register a: %v", err)
	}
	if _, err := c.Register("b", 2); err == nil {
		t.Fatalf("expected an error once the cache is at capacity")
	}
}
