package warehouse

import "testing"

func TestEntityAllocatorAllocAndFree(t *testing.T) {
	a := NewEntityAllocator()
	e1 := a.Alloc()
	if e1.Id() != 1 || e1.Generation() != 0 {
		t.Fatalf("got %v, want id=1 generation=0", e1)
	}
	a.SetLocation(e1, EntityLocation{Archetype: 3, Index: 5})

	loc, ok := a.Get(e1)
	if !ok || loc.Archetype != 3 || loc.Index != 5 {
		t.Fatalf("got (%v, %v), want (3,5,true)", loc, ok)
	}

	if _, err := a.Free(e1); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if _, ok := a.Get(e1); ok {
		t.Fatalf("stale handle %v still resolves after Free", e1)
	}

	e2 := a.Alloc()
	if e2.Id() != e1.Id() {
		t.Fatalf("expected slot reuse, got id %d want %d", e2.Id(), e1.Id())
	}
	if e2.Generation() != e1.Generation()+1 {
		t.Fatalf("got generation %d, want %d", e2.Generation(), e1.Generation()+1)
	}
	if _, ok := a.Get(e1); ok {
		t.Fatalf("old handle %v resolves after slot reuse", e1)
	}
}

func TestEntityAllocatorReserveAndFlush(t *testing.T) {
	a := NewEntityAllocator()
	r := a.Reserve()
	if !a.meta[r.id-1].reserved {
		t.Fatalf("Reserve did not mark the slot reserved")
	}
	a.SetLocation(r, EntityLocation{Archetype: 1, Index: 0})
	a.Flush()
	if a.meta[r.id-1].reserved {
		t.Fatalf("Flush did not clear the reserved flag")
	}
}

func TestEntityAllocatorInvalidEntity(t *testing.T) {
	a := NewEntityAllocator()
	if _, ok := a.Get(Entity{id: 1}); ok {
		t.Fatalf("Get succeeded for an id never allocated")
	}
	if _, err := a.Free(Entity{id: 99}); err == nil {
		t.Fatalf("Free succeeded for an id never allocated")
	}
}
