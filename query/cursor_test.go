package query_test

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/hollowforge/warehouse"
	"github.com/hollowforge/warehouse/query"
)

func TestCursorIteratesMatchingEntitiesAndReleasesLock(t *testing.T) {
	w := warehouse.NewWorld()
	posKind := w.Registry().GetOrInsertComponentKind(warehouse.NewDataLayout[position](warehouse.StorageTable))

	want := map[warehouse.Entity]bool{}
	for i := 0; i < 3; i++ {
		e, err := w.SpawnEmpty()
		if err != nil {
			t.Fatalf("SpawnEmpty #%d: %v", i, err)
		}
		p := position{X: i}
		if err := warehouse.InsertComponent(w, e, &p); err != nil {
			t.Fatalf("InsertComponent #%d: %v", i, err)
		}
		want[e] = true
	}

	q := query.New()
	node := q.And(query.Component(posKind))
	cur := query.NewCursor(w, node, 0)

	got := map[warehouse.Entity]bool{}
	for row, arch := range cur.Entities() {
		got[arch.Entities()[row]] = true
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entities, want %d", len(got), len(want))
	}
	for e := range want {
		if !got[e] {
			t.Fatalf("cursor missed entity %v", e)
		}
	}

	if w.Locked() {
		t.Fatalf("cursor left the world locked after a fully drained iteration")
	}
}

func TestCursorDeferredStructuralOpsDuringIteration(t *testing.T) {
	w := warehouse.NewWorld()
	posKind := w.Registry().GetOrInsertComponentKind(warehouse.NewDataLayout[position](warehouse.StorageTable))

	e, err := w.SpawnEmpty()
	if err != nil {
		t.Fatalf("SpawnEmpty: %v", err)
	}
	p := position{X: 1}
	if err := warehouse.InsertComponent(w, e, &p); err != nil {
		t.Fatalf("InsertComponent: %v", err)
	}

	q := query.New()
	node := q.And(query.Component(posKind))
	cur := query.NewCursor(w, node, 0)
	cur.Initialize()

	if !w.Locked() {
		t.Fatalf("Initialize didn't acquire the cursor's structural lock")
	}

	if err := w.Despawn(e); !errors.As(err, new(warehouse.LockedStorageError)) {
		t.Fatalf("got %v, want LockedStorageError from a direct mutator while locked", err)
	}

	v := velocity{X: 5}
	velKind := w.Registry().DataKindIdFor(warehouse.NewDataLayout[velocity](warehouse.StorageTable))
	w.EnqueueInsertBundle(e, newSingleComponentDescriptor(velKind, unsafe.Pointer(&v)))

	if _, ok := warehouse.GetComponent[velocity](w, e); ok {
		t.Fatalf("a structural op applied immediately while the world was locked")
	}

	cur.Reset()
	if w.Locked() {
		t.Fatalf("Reset didn't release the lock")
	}
	if _, ok := warehouse.GetComponent[velocity](w, e); !ok {
		t.Fatalf("deferred insert never applied after the lock was released")
	}
}

// singleComponentDescriptor adapts one raw pointer into the minimal
// BundleDescriptor surface, mirroring what a derive/codegen collaborator
// would generate for a one-field bundle.
type singleComponentDescriptor struct {
	kind warehouse.DataKindId
	ptr  unsafe.Pointer
}

func newSingleComponentDescriptor(kind warehouse.DataKindId, ptr unsafe.Pointer) *singleComponentDescriptor {
	return &singleComponentDescriptor{kind: kind, ptr: ptr}
}

func (d *singleComponentDescriptor) Types() []warehouse.DataKindId {
	return []warehouse.DataKindId{d.kind}
}

func (d *singleComponentDescriptor) Ptr(int) unsafe.Pointer { return d.ptr }
