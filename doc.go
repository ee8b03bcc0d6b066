/*
Package warehouse is the storage core of an Entity-Component-System: the
generational entity allocator, the archetype/table/column storage model,
the archetype graph with cached bundle transitions, and the
relation/resource slot model. Query planning, system scheduling, and bundle
codegen are external collaborators built against this package's exported
introspection (see the sibling query package).

Core Concepts:

  - Entity: an (id, generation) handle for a logical object.
  - Slot: a (RelationKindId, optional target Entity) column position.
  - Archetype: the set of entities sharing the same slots.
  - Table: the columnar storage shared by every archetype with the same
    table-backed slots.
  - Bundle: an ordered group of components inserted or removed together.

Basic Usage:

	w := warehouse.NewWorld()
	pos := warehouse.RegisterComponent[Position](w, warehouse.StorageTable)
	vel := warehouse.RegisterComponent[Velocity](w, warehouse.StorageTable)

	e, _ := w.Spawn(bundlePosVel{Position{X: 1}, Velocity{X: 2}})

	if p, ok := warehouse.GetComponent[Position](w, e); ok {
		p.X += 1
	}
	_ = pos
	_ = vel

Warehouse is the storage core of the Bappa Framework's ECS but also works
as a standalone library.
*/
package warehouse
