package warehouse

import (
	"testing"
	"unsafe"
)

type posVal struct{ X, Y int }
type nameVal struct{ S string }
type heightVal struct{ H float64 }
type childOfVal struct{ Rank int }

// kindPair is a minimal two-field BundleDescriptor for tests, standing in
// for the derive/codegen collaborator that would normally generate this
// glue; its DataKindIds are resolved against a specific world up front.
type kindPair[T1, T2 any] struct {
	k1, k2 DataKindId
	v1     T1
	v2     T2
}

func (p *kindPair[T1, T2]) Types() []DataKindId { return []DataKindId{p.k1, p.k2} }
func (p *kindPair[T1, T2]) Ptr(i int) unsafe.Pointer {
	if i == 0 {
		return unsafe.Pointer(&p.v1)
	}
	return unsafe.Pointer(&p.v2)
}

func newKindPair[T1, T2 any](w *World, v1 T1, v2 T2) *kindPair[T1, T2] {
	k1 := w.registry.DataKindIdFor(NewDataLayout[T1](StorageTable))
	k2 := w.registry.DataKindIdFor(NewDataLayout[T2](StorageTable))
	return &kindPair[T1, T2]{k1: k1, k2: k2, v1: v1, v2: v2}
}

func TestWorldSpawnWithComponents(t *testing.T) {
	w := NewWorld()
	desc := newKindPair(w, posVal{X: 1, Y: 2}, nameVal{S: "hero"})

	e, err := w.Spawn(desc)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	pos, ok := GetComponent[posVal](w, e)
	if !ok || pos.X != 1 || pos.Y != 2 {
		t.Fatalf("got (%v, %v), want ({1 2}, true)", pos, ok)
	}
	name, ok := GetComponent[nameVal](w, e)
	if !ok || name.S != "hero" {
		t.Fatalf("got (%v, %v), want ({hero}, true)", name, ok)
	}
}

func TestWorldInsertTriggersArchetypeMove(t *testing.T) {
	w := NewWorld()
	e, err := w.Spawn(newKindPair(w, posVal{X: 1}, nameVal{S: "a"}))
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	loc, _ := w.Location(e)
	startArch := loc.Archetype

	h := heightVal{H: 9.5}
	if err := InsertComponent(w, e, &h); err != nil {
		t.Fatalf("InsertComponent: %v", err)
	}
	loc, _ = w.Location(e)
	if loc.Archetype == startArch {
		t.Fatalf("expected archetype move after inserting a new component kind")
	}
	got, ok := GetComponent[heightVal](w, e)
	if !ok || got.H != 9.5 {
		t.Fatalf("got (%v, %v), want ({9.5}, true)", got, ok)
	}
	// original components survive the move
	if pos, ok := GetComponent[posVal](w, e); !ok || pos.X != 1 {
		t.Fatalf("posVal lost across archetype move: (%v, %v)", pos, ok)
	}
}

func TestWorldRemoveBundleStrict(t *testing.T) {
	w := NewWorld()
	e, err := w.Spawn(newKindPair(w, posVal{X: 3}, nameVal{S: "b"}))
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	var out nameVal
	removed, err := RemoveComponent(w, e, &out)
	if err != nil {
		t.Fatalf("RemoveComponent: %v", err)
	}
	if !removed || out.S != "b" {
		t.Fatalf("got (%v, %v), want (true, {b})", removed, out)
	}
	if _, ok := GetComponent[nameVal](w, e); ok {
		t.Fatalf("nameVal still present after strict remove")
	}
	if pos, ok := GetComponent[posVal](w, e); !ok || pos.X != 3 {
		t.Fatalf("posVal lost by an unrelated remove: (%v, %v)", pos, ok)
	}
}

func TestWorldDespawnLogsRemovalAndStalesHandle(t *testing.T) {
	w := NewWorld()
	e, err := w.Spawn(newKindPair(w, posVal{X: 5}, nameVal{S: "c"}))
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	dataId := w.registry.DataKindIdFor(NewDataLayout[posVal](StorageTable))
	posKind, ok := w.registry.ComponentKindFor(dataId)
	if !ok {
		t.Fatalf("ComponentKindFor: no folded relation for posVal kind")
	}

	if err := w.Despawn(e); err != nil {
		t.Fatalf("Despawn: %v", err)
	}
	if w.Contains(e) {
		t.Fatalf("entity still resolves after Despawn")
	}
	if _, ok := GetComponent[posVal](w, e); ok {
		t.Fatalf("stale handle resolved a component after Despawn")
	}

	removedLog := w.DrainRemoved(posKind, NullEntity, false)
	found := false
	for _, re := range removedLog {
		if re == e {
			found = true
		}
	}
	if !found {
		t.Fatalf("despawned entity missing from removed-component log for posVal")
	}
}

func TestWorldRelationInsertAndGetDoesNotCascadeOnTargetDespawn(t *testing.T) {
	w := NewWorld()
	parent, err := w.Spawn(newKindPair(w, posVal{X: 0}, nameVal{S: "parent"}))
	if err != nil {
		t.Fatalf("Spawn parent: %v", err)
	}
	child, err := w.SpawnEmpty()
	if err != nil {
		t.Fatalf("SpawnEmpty: %v", err)
	}

	kind := w.registry.NewRelationKind(NewDataLayout[childOfVal](StorageTable))
	val := childOfVal{Rank: 1}
	if err := w.InsertRelation(child, kind, parent, unsafe.Pointer(&val)); err != nil {
		t.Fatalf("InsertRelation: %v", err)
	}

	ptr, _, ok := w.GetRelation(child, kind, parent)
	if !ok {
		t.Fatalf("GetRelation: relation not found right after insert")
	}
	if (*childOfVal)(ptr).Rank != 1 {
		t.Fatalf("got rank %d, want 1", (*childOfVal)(ptr).Rank)
	}

	if err := w.Despawn(parent); err != nil {
		t.Fatalf("Despawn parent: %v", err)
	}
	if !w.Contains(child) {
		t.Fatalf("despawning the relation target despawned the child too")
	}
	if _, _, ok := w.GetRelation(child, kind, parent); !ok {
		t.Fatalf("relation to a despawned target vanished instead of staying stale")
	}
}

func TestWorldTableGrowthProgression(t *testing.T) {
	w := NewWorld()
	var tableId TableId
	for i := 0; i < 200; i++ {
		v := i
		e, err := w.SpawnEmpty()
		if err != nil {
			t.Fatalf("SpawnEmpty #%d: %v", i, err)
		}
		if err := InsertComponent(w, e, &v); err != nil {
			t.Fatalf("InsertComponent #%d: %v", i, err)
		}
		if i == 0 {
			loc, _ := w.Location(e)
			tableId = w.Archetype(loc.Archetype).TableId()
		}
	}
	tbl := w.Table(tableId)
	if tbl.Len() != 200 {
		t.Fatalf("got table len %d, want 200", tbl.Len())
	}
	if tbl.Capacity() != 256 {
		t.Fatalf("got table capacity %d, want 256", tbl.Capacity())
	}
}
