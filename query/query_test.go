package query_test

import (
	"testing"

	"github.com/hollowforge/warehouse"
	"github.com/hollowforge/warehouse/query"
)

type position struct{ X, Y int }
type velocity struct{ X, Y int }
type tag struct{}

func TestQueryAndMatchesArchetypesCarryingAllTerms(t *testing.T) {
	w := warehouse.NewWorld()
	posKind := w.Registry().GetOrInsertComponentKind(warehouse.NewDataLayout[position](warehouse.StorageTable))
	velKind := w.Registry().GetOrInsertComponentKind(warehouse.NewDataLayout[velocity](warehouse.StorageTable))

	e, err := w.SpawnEmpty()
	if err != nil {
		t.Fatalf("SpawnEmpty: %v", err)
	}
	p := position{X: 1}
	if err := warehouse.InsertComponent(w, e, &p); err != nil {
		t.Fatalf("InsertComponent position: %v", err)
	}
	v := velocity{X: 2}
	if err := warehouse.InsertComponent(w, e, &v); err != nil {
		t.Fatalf("InsertComponent velocity: %v", err)
	}
	loc, _ := w.Location(e)
	archBoth := w.Archetype(loc.Archetype)

	q := query.New()
	node := q.And(query.Component(posKind), query.Component(velKind))

	if !node.Evaluate(archBoth) {
		t.Fatalf("And(pos,vel) didn't match an archetype carrying both")
	}
	if node.Evaluate(w.Archetype(0)) {
		t.Fatalf("And(pos,vel) matched the reserved empty archetype")
	}
}

func TestQueryNotExcludesMatchingArchetypes(t *testing.T) {
	w := warehouse.NewWorld()
	tagKind := w.Registry().GetOrInsertComponentKind(warehouse.NewDataLayout[tag](warehouse.StorageTable))

	withTag, err := w.SpawnEmpty()
	if err != nil {
		t.Fatalf("SpawnEmpty: %v", err)
	}
	var tg tag
	if err := warehouse.InsertComponent(w, withTag, &tg); err != nil {
		t.Fatalf("InsertComponent tag: %v", err)
	}
	loc, _ := w.Location(withTag)
	archWithTag := w.Archetype(loc.Archetype)

	q := query.New()
	node := q.Not(query.Component(tagKind))

	if node.Evaluate(archWithTag) {
		t.Fatalf("Not(tag) matched an archetype that has the tag")
	}
	if !node.Evaluate(w.Archetype(0)) {
		t.Fatalf("Not(tag) rejected the empty archetype, which lacks the tag")
	}
}

func TestQueryOrMatchesEitherTerm(t *testing.T) {
	w := warehouse.NewWorld()
	posKind := w.Registry().GetOrInsertComponentKind(warehouse.NewDataLayout[position](warehouse.StorageTable))
	velKind := w.Registry().GetOrInsertComponentKind(warehouse.NewDataLayout[velocity](warehouse.StorageTable))

	e, err := w.SpawnEmpty()
	if err != nil {
		t.Fatalf("SpawnEmpty: %v", err)
	}
	p := position{X: 1}
	if err := warehouse.InsertComponent(w, e, &p); err != nil {
		t.Fatalf("InsertComponent: %v", err)
	}
	loc, _ := w.Location(e)
	archPosOnly := w.Archetype(loc.Archetype)

	q := query.New()
	node := q.Or(query.Component(posKind), query.Component(velKind))

	if !node.Evaluate(archPosOnly) {
		t.Fatalf("Or(pos,vel) didn't match an archetype carrying pos alone")
	}
	if node.Evaluate(w.Archetype(0)) {
		t.Fatalf("Or(pos,vel) matched the empty archetype")
	}
}
