package warehouse

import (
	"reflect"
	"testing"
)

func TestBundleRegistryGetOrInsertCaches(t *testing.T) {
	registry := NewRegistry()
	br := NewBundleRegistry()

	k1 := registry.DataKindIdFor(NewDataLayout[posVal](StorageTable))
	k2 := registry.DataKindIdFor(NewDataLayout[nameVal](StorageTable))

	var desc *kindPair[posVal, nameVal]
	descType := reflect.TypeOf(desc)
	first := br.GetOrInsert(descType, []DataKindId{k1, k2}, registry)
	second := br.GetOrInsert(descType, []DataKindId{k1, k2}, registry)
	if first.Id != second.Id {
		t.Fatalf("got ids %d and %d, want the same cached BundleId", first.Id, second.Id)
	}
	if len(first.Slots) != 2 {
		t.Fatalf("got %d slots, want 2", len(first.Slots))
	}
}

func TestBundleRegistryDuplicateKindPanics(t *testing.T) {
	registry := NewRegistry()
	br := NewBundleRegistry()
	k1 := registry.DataKindIdFor(NewDataLayout[posVal](StorageTable))

	var desc *kindPair[posVal, posVal]
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic on a bundle declaring the same kind twice")
		}
	}()
	br.GetOrInsert(reflect.TypeOf(desc), []DataKindId{k1, k1}, registry)
}

func TestSameSlotSetReachesSameArchetype(t *testing.T) {
	w := NewWorld()
	e1, err := w.Spawn(newKindPair(w, posVal{X: 1}, nameVal{S: "a"}))
	if err != nil {
		t.Fatalf("Spawn e1: %v", err)
	}
	loc1, _ := w.Location(e1)

	e2, err := w.SpawnEmpty()
	if err != nil {
		t.Fatalf("SpawnEmpty: %v", err)
	}
	if err := InsertComponent(w, e2, &posVal{X: 2}); err != nil {
		t.Fatalf("InsertComponent posVal on e2: %v", err)
	}
	if err := InsertComponent(w, e2, &nameVal{S: "b"}); err != nil {
		t.Fatalf("InsertComponent nameVal on e2: %v", err)
	}
	loc2, _ := w.Location(e2)

	if loc1.Archetype != loc2.Archetype {
		t.Fatalf("got archetypes %d and %d, want the same destination for the same slot set",
			loc1.Archetype, loc2.Archetype)
	}
}

func TestRemoveBundleFromArchetypeFailsOnAbsentSlot(t *testing.T) {
	w := NewWorld()
	e, err := w.Spawn(newKindPair(w, posVal{X: 1}, nameVal{S: "a"}))
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	var out heightVal
	removed, err := RemoveComponent(w, e, &out)
	if err != nil {
		t.Fatalf("RemoveComponent: %v", err)
	}
	if removed {
		t.Fatalf("RemoveComponent reported success for a slot the entity never had")
	}
	if pos, ok := GetComponent[posVal](w, e); !ok || pos.X != 1 {
		t.Fatalf("an invalid remove mutated unrelated state: (%v, %v)", pos, ok)
	}
}
