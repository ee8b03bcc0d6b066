package warehouse

import "testing"

func TestFactoryNewComponentRoundTrips(t *testing.T) {
	w := Factory.NewWorld()
	pos := FactoryNewComponent[posVal](w)

	e, err := w.SpawnEmpty()
	if err != nil {
		t.Fatalf("SpawnEmpty: %v", err)
	}
	v := posVal{X: 7, Y: 8}
	if err := InsertComponent(w, e, &v); err != nil {
		t.Fatalf("InsertComponent: %v", err)
	}
	loc, _ := w.Location(e)
	arch := w.Archetype(loc.Archetype)
	if !pos.Check(arch) {
		t.Fatalf("Check reported false for an archetype carrying the component")
	}
	got, ok := pos.GetFromEntity(w, e)
	if !ok || got.X != 7 || got.Y != 8 {
		t.Fatalf("got (%v, %v), want ({7 8}, true)", got, ok)
	}
}

func TestFactoryNewCache(t *testing.T) {
	c := FactoryNewCache[int](2)
	idx, err := c.Register("a", 1)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got, ok := c.GetIndex("a"); !ok || got != idx {
		t.Fatalf("got (%d, %v), want (%d, true)", got, ok, idx)
	}
}
