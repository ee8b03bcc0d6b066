package warehouse

import (
	"reflect"
	"unsafe"

	"github.com/TheBitDrifter/mask"
)

// World owns every arena a running simulation needs: the registry, tables,
// archetypes, bundle cache, entity allocator, the sparse-set slots (which
// live outside any table), the removed-components log, and the reentrant
// structural lock plus its deferred operation queue (spec.md §9's "no
// ownership cycle" design note — everything below is arena-owned and
// referenced by id, never by pointer, except where Go idiom requires it).
type World struct {
	registry   *Registry
	tables     *Tables
	archetypes *Archetypes
	bundles    *BundleRegistry
	entities   *EntityAllocator

	sparseSets map[Slot]*ComponentSparseSet
	removedLog map[Slot][]Entity

	tick Tick

	locks   mask.Mask256
	opQueue worldOperationsQueue
}

// NewWorld creates an empty world: the reserved empty and resource
// archetypes already exist (spec.md §3 invariant 6).
func NewWorld() *World {
	tables := NewTables()
	return &World{
		registry:   NewRegistry(),
		tables:     tables,
		archetypes: NewArchetypes(tables.Get(0).Id()),
		bundles:    NewBundleRegistry(),
		entities:   NewEntityAllocator(),
		sparseSets: make(map[Slot]*ComponentSparseSet),
		removedLog: make(map[Slot][]Entity),
	}
}

// Registry exposes the world's type/relation-kind registry.
func (w *World) Registry() *Registry { return w.registry }

// Tick returns the current global tick.
func (w *World) Tick() Tick { return w.tick }

// AdvanceTick advances and returns the global tick, stamped onto every
// subsequent insert/mutate until the next advance (spec.md §4.12).
func (w *World) AdvanceTick() Tick {
	w.tick++
	return w.tick
}

// CheckChangeTicks sweeps every column and sparse set, clamping any tick
// that has grown too old relative to the current tick (spec.md §4.12),
// using Config.maxChangeAgeTicks as the clamp threshold. Must be called
// periodically by the host application; the core never calls it implicitly.
func (w *World) CheckChangeTicks() {
	maxAge := Config.maxChangeAgeTicks
	w.tables.checkChangeTicks(w.tick, maxAge)
	for _, ss := range w.sparseSets {
		ss.checkChangeTicks(w.tick, maxAge)
	}
	for _, col := range w.archetypes.Resource().uniqueComponents {
		col.checkChangeTicks(w.tick, maxAge)
	}
}

// ArchetypeGeneration returns the monotonically increasing archetype count
// external query planners key their cached state on (spec.md §6).
func (w *World) ArchetypeGeneration() int { return w.archetypes.Generation() }

// Archetype returns the archetype by id, for introspection by an external
// collaborator.
func (w *World) Archetype(id ArchetypeId) *Archetype { return w.archetypes.Get(id) }

// Table returns the table by id.
func (w *World) Table(id TableId) *Table { return w.tables.Get(id) }

// Location returns e's current archetype/index, or false if e is stale.
func (w *World) Location(e Entity) (EntityLocation, bool) { return w.entities.Get(e) }

// Contains reports whether e refers to a live entity.
func (w *World) Contains(e Entity) bool { return w.entities.Contains(e) }

// DrainRemoved empties and returns the removed-components log for a slot
// (spec.md §6's "Removed-components log"), for an external observer to
// react to each tick.
func (w *World) DrainRemoved(kind RelationKindId, target Entity, hasTarget bool) []Entity {
	slot := Slot{Kind: kind, Target: target, HasTarget: hasTarget}
	log := w.removedLog[slot]
	delete(w.removedLog, slot)
	return log
}

func (w *World) sparseSetFor(slot Slot) *ComponentSparseSet {
	ss, ok := w.sparseSets[slot]
	if !ok {
		ss = NewComponentSparseSet(w.registry.RelationLayout(slot.Kind))
		w.sparseSets[slot] = ss
	}
	return ss
}

// Locked reports whether any structural lock bit is currently held.
func (w *World) Locked() bool { return !w.locks.IsEmpty() }

// AddLock marks a structural lock bit (e.g. held by an in-flight query
// iteration). While any bit is held, Enqueue* operations defer instead of
// mutating immediately.
func (w *World) AddLock(bit uint32) { w.locks.Mark(bit) }

// RemoveLock releases a lock bit and, if no bits remain held, drains and
// applies every deferred operation.
func (w *World) RemoveLock(bit uint32) error {
	w.locks.Unmark(bit)
	if w.locks.IsEmpty() {
		return w.opQueue.ProcessAll(w)
	}
	return nil
}

// Enqueue defers op until the world is fully unlocked.
func (w *World) Enqueue(op WorldOperation) { w.opQueue.Enqueue(op) }

// SpawnEmpty allocates a fresh entity in the reserved empty archetype.
// Fails with LockedStorageError if the world is structurally locked (e.g.
// mid query-iteration); use EnqueueSpawn to defer instead.
func (w *World) SpawnEmpty() (Entity, error) {
	if w.Locked() {
		return NullEntity, LockedStorageError{}
	}
	e := w.entities.Alloc()
	emptyArch := w.archetypes.Empty()
	emptyTable := w.tables.Get(emptyArch.tableId)
	row := emptyTable.Allocate(e, w.tick)
	idx := emptyArch.pushEntity(e, row)
	w.entities.SetLocation(e, EntityLocation{Archetype: emptyArch.id, Index: idx})
	return e, nil
}

// Spawn allocates a fresh entity and immediately inserts desc's bundle.
func (w *World) Spawn(desc BundleDescriptor) (Entity, error) {
	e, err := w.SpawnEmpty()
	if err != nil {
		return NullEntity, err
	}
	if err := w.InsertBundle(e, desc); err != nil {
		return e, err
	}
	return e, nil
}

// InsertBundle implements insert_bundle (spec.md §4.9): resolves the
// destination archetype via the cached add_bundle transition and streams
// desc's values into it, moving the entity's row if necessary. Fails with
// LockedStorageError if the world is structurally locked; use
// EnqueueInsertBundle to defer instead.
func (w *World) InsertBundle(e Entity, desc BundleDescriptor) error {
	if w.Locked() {
		return LockedStorageError{}
	}
	loc, ok := w.entities.Get(e)
	if !ok {
		return InvalidEntityError{Entity: e}
	}
	info := w.bundles.GetOrInsert(reflect.TypeOf(desc), desc.Types(), w.registry)
	return w.applyInsert(e, loc, info, desc)
}

func (w *World) applyInsert(e Entity, loc EntityLocation, info BundleInfo, desc BundleDescriptor) error {
	srcArch := w.archetypes.Get(loc.Archetype)
	dstId, status := w.archetypes.AddBundleToArchetype(loc.Archetype, info.Id, info.Slots, w.tables, w.registry)
	dstArch := w.archetypes.Get(dstId)

	if dstId == loc.Archetype {
		row := srcArch.entityTableRows[loc.Index]
		tbl := w.tables.Get(srcArch.tableId)
		for i, slot := range info.Slots {
			w.writeSlot(srcArch, tbl, slot, e, row, status[i], desc.Ptr(i))
		}
		return nil
	}

	srcTable := w.tables.Get(srcArch.tableId)
	dstTable := w.tables.Get(dstArch.tableId)
	row := srcArch.entityTableRows[loc.Index]

	var newRow int
	if srcArch.tableId == dstArch.tableId {
		newRow = row
		res := srcArch.SwapRemove(loc.Index)
		w.fixupArchetypeSwap(loc.Archetype, loc.Index, res)
	} else {
		nr, swapped, hasSwapped := srcTable.MoveToSupersetUnchecked(row, dstTable)
		newRow = nr
		res := srcArch.SwapRemove(loc.Index)
		w.fixupArchetypeSwap(loc.Archetype, loc.Index, res)
		w.fixupTableSwap(row, swapped, hasSwapped)
	}

	newIdx := dstArch.pushEntity(e, newRow)
	w.entities.SetLocation(e, EntityLocation{Archetype: dstId, Index: newIdx})

	for i, slot := range info.Slots {
		w.writeSlot(dstArch, dstTable, slot, e, newRow, status[i], desc.Ptr(i))
	}
	return nil
}

// writeSlot stamps one bundle value into its destination slot, choosing
// between a table column and the global sparse set by storage class, and
// between Initialize/Replace by bundle status for table columns (spec.md
// §4.9 step 3/5).
func (w *World) writeSlot(arch *Archetype, tbl *Table, slot Slot, e Entity, row int, status BundleStatus, src unsafe.Pointer) {
	stype, ok := arch.GetStorageType(slot.Kind, slot.Target, slot.HasTarget)
	if !ok {
		panic("warehouse: bundle slot missing from its own destination archetype")
	}
	if stype == StorageSparseSet {
		w.sparseSetFor(slot).Insert(e, src, w.tick)
		return
	}
	col, ok := tbl.GetColumn(slot)
	if !ok {
		panic("warehouse: table slot missing its column")
	}
	col.GrowToRow(row)
	if status == ComponentAdded {
		col.Initialize(row, src, w.tick)
	} else {
		col.Replace(row, src, w.tick)
	}
}

// RemoveBundle implements strict remove_bundle (spec.md §4.10): if every
// slot in desc is present on e, each value is extracted into desc (the
// caller takes ownership) and the entity moves to the archetype lacking
// those slots; returns false with no change if any requested slot is
// absent. Fails with LockedStorageError if the world is structurally
// locked; use EnqueueRemoveBundle to defer instead.
func (w *World) RemoveBundle(e Entity, desc BundleDescriptor) (bool, error) {
	if w.Locked() {
		return false, LockedStorageError{}
	}
	loc, ok := w.entities.Get(e)
	if !ok {
		return false, InvalidEntityError{Entity: e}
	}
	info := w.bundles.GetOrInsert(reflect.TypeOf(desc), desc.Types(), w.registry)
	dstId, ok := w.archetypes.RemoveBundleFromArchetype(loc.Archetype, info.Id, info.Slots, w.tables, w.registry)
	if !ok {
		return false, nil
	}
	w.extractAndMove(e, loc, info, desc, dstId, true)
	return true, nil
}

// RemoveBundleIntersection implements remove_bundle_intersection (spec.md
// §4.10): always succeeds, silently skipping any requested slot e doesn't
// have. The removed values are dropped in place, not handed back: desc
// only supplies the bundle's kinds, and its buffers are left untouched.
// Fails with LockedStorageError if the world is structurally locked.
func (w *World) RemoveBundleIntersection(e Entity, desc BundleDescriptor) error {
	if w.Locked() {
		return LockedStorageError{}
	}
	loc, ok := w.entities.Get(e)
	if !ok {
		return InvalidEntityError{Entity: e}
	}
	info := w.bundles.GetOrInsert(reflect.TypeOf(desc), desc.Types(), w.registry)
	dstId := w.archetypes.RemoveBundleIntersectionFromArchetype(loc.Archetype, info.Id, info.Slots, w.tables, w.registry)
	w.extractAndMove(e, loc, info, desc, dstId, false)
	return nil
}

// extractAndMove is the shared remove path for both RemoveBundle (strict,
// which hands every value to the caller via desc) and
// RemoveBundleIntersection (which silently skips absent slots). It appends
// to the removed-log for every slot actually present, then moves the row.
func (w *World) extractAndMove(e Entity, loc EntityLocation, info BundleInfo, desc BundleDescriptor, dstId ArchetypeId, strict bool) {
	srcArch := w.archetypes.Get(loc.Archetype)
	dstArch := w.archetypes.Get(dstId)
	srcTable := w.tables.Get(srcArch.tableId)
	row := srcArch.entityTableRows[loc.Index]

	for i, slot := range info.Slots {
		if !srcArch.Contains(slot.Kind, slot.Target, slot.HasTarget) {
			continue
		}
		w.removedLog[slot] = append(w.removedLog[slot], e)
		stype, _ := srcArch.GetStorageType(slot.Kind, slot.Target, slot.HasTarget)
		if stype != StorageSparseSet {
			if strict {
				col, _ := srcTable.GetColumn(slot)
				copyBytes(desc.Ptr(i), col.GetUnchecked(row), w.registry.RelationLayout(slot.Kind).Size)
			}
			continue
		}
		ss := w.sparseSetFor(slot)
		if strict {
			ptr, _ := ss.RemoveAndForget(e)
			copyBytes(desc.Ptr(i), ptr, w.registry.RelationLayout(slot.Kind).Size)
		} else {
			ss.Remove(e)
		}
	}

	dstTable := w.tables.Get(dstArch.tableId)
	var newRow int
	if srcArch.tableId == dstArch.tableId {
		newRow = row
		res := srcArch.SwapRemove(loc.Index)
		w.fixupArchetypeSwap(loc.Archetype, loc.Index, res)
	} else {
		var nr int
		var swapped Entity
		var hasSwapped bool
		if strict {
			nr, swapped, hasSwapped = srcTable.MoveToAndForgetMissingUnchecked(row, dstTable, w.tick)
		} else {
			nr, swapped, hasSwapped = srcTable.MoveToAndDropMissingUnchecked(row, dstTable, w.tick)
		}
		newRow = nr
		res := srcArch.SwapRemove(loc.Index)
		w.fixupArchetypeSwap(loc.Archetype, loc.Index, res)
		w.fixupTableSwap(row, swapped, hasSwapped)
	}

	newIdx := dstArch.pushEntity(e, newRow)
	w.entities.SetLocation(e, EntityLocation{Archetype: dstId, Index: newIdx})
}

// Despawn removes e entirely: every slot it carries is logged as removed,
// sparse-set values are dropped explicitly, the table row is dropped, and
// the id is recycled with a bumped generation (spec.md §4.11). Fails with
// LockedStorageError if the world is structurally locked; use
// EnqueueDespawn to defer instead.
func (w *World) Despawn(e Entity) error {
	if w.Locked() {
		return LockedStorageError{}
	}
	loc, ok := w.entities.Get(e)
	if !ok {
		return InvalidEntityError{Entity: e}
	}
	arch := w.archetypes.Get(loc.Archetype)
	arch.Components(func(kind RelationKindId, target Entity, hasTarget bool) bool {
		slot := Slot{Kind: kind, Target: target, HasTarget: hasTarget}
		w.removedLog[slot] = append(w.removedLog[slot], e)
		if stype, _ := arch.GetStorageType(kind, target, hasTarget); stype == StorageSparseSet {
			w.sparseSetFor(slot).Remove(e)
		}
		return true
	})

	tbl := w.tables.Get(arch.tableId)
	row := arch.entityTableRows[loc.Index]
	swapped, hasSwapped := tbl.SwapRemoveUnchecked(row)
	res := arch.SwapRemove(loc.Index)
	w.fixupArchetypeSwap(loc.Archetype, loc.Index, res)
	w.fixupTableSwap(row, swapped, hasSwapped)

	_, err := w.entities.Free(e)
	return err
}

func (w *World) fixupArchetypeSwap(archId ArchetypeId, idx int, res swapRemoveResult) {
	if res.hasSwapped {
		w.entities.SetLocation(res.swappedEntity, EntityLocation{Archetype: archId, Index: idx})
	}
}

func (w *World) fixupTableSwap(row int, swapped Entity, hasSwapped bool) {
	if !hasSwapped {
		return
	}
	if sloc, ok := w.entities.Get(swapped); ok {
		w.archetypes.Get(sloc.Archetype).setEntityTableRow(sloc.Index, row)
	}
}

// singlePtrDescriptor adapts one raw pointer to the BundleDescriptor
// surface, for the single-slot paths (relations, generic Insert/RemoveComponent).
type singlePtrDescriptor struct{ ptr unsafe.Pointer }

func (d singlePtrDescriptor) Types() []DataKindId    { return nil }
func (d singlePtrDescriptor) Ptr(int) unsafe.Pointer { return d.ptr }

// InsertRelation attaches value (of relation kind) to e, parameterized by
// target (spec.md §8 scenario 5). value must point to a live value of
// kind's registered layout. Fails with LockedStorageError if the world is
// structurally locked.
func (w *World) InsertRelation(e Entity, kind RelationKindId, target Entity, value unsafe.Pointer) error {
	if w.Locked() {
		return LockedStorageError{}
	}
	loc, ok := w.entities.Get(e)
	if !ok {
		return InvalidEntityError{Entity: e}
	}
	info := w.bundles.GetRelationBundle(kind, target)
	return w.applyInsert(e, loc, info, singlePtrDescriptor{ptr: value})
}

// GetRelation returns a pointer to e's (kind, target) relation value and
// its ticks, if present.
func (w *World) GetRelation(e Entity, kind RelationKindId, target Entity) (unsafe.Pointer, *ComponentTicks, bool) {
	loc, ok := w.entities.Get(e)
	if !ok {
		return nil, nil, false
	}
	arch := w.archetypes.Get(loc.Archetype)
	slot := WithTarget(kind, target)
	stype, ok := arch.GetStorageType(kind, target, true)
	if !ok {
		return nil, nil, false
	}
	if stype == StorageSparseSet {
		ptr, ticks, ok := w.sparseSetFor(slot).GetWithTicks(e)
		return ptr, ticks, ok
	}
	tbl := w.tables.Get(arch.tableId)
	col, ok := tbl.GetColumn(slot)
	if !ok {
		return nil, nil, false
	}
	row := arch.entityTableRows[loc.Index]
	return col.GetUnchecked(row), col.GetTicksUnchecked(row), true
}

// RemoveRelation removes e's (kind, target) relation, if present, copying
// its value into out first. Fails with LockedStorageError if the world is
// structurally locked.
func (w *World) RemoveRelation(e Entity, kind RelationKindId, target Entity, out unsafe.Pointer) (bool, error) {
	if w.Locked() {
		return false, LockedStorageError{}
	}
	loc, ok := w.entities.Get(e)
	if !ok {
		return false, InvalidEntityError{Entity: e}
	}
	info := w.bundles.GetRelationBundle(kind, target)
	dstId, ok := w.archetypes.RemoveBundleFromArchetype(loc.Archetype, info.Id, info.Slots, w.tables, w.registry)
	if !ok {
		return false, nil
	}
	w.extractAndMove(e, loc, info, singlePtrDescriptor{ptr: out}, dstId, true)
	return true, nil
}

// InsertComponent registers T's layout on first use and inserts value onto
// e as a single-slot bundle. Fails with LockedStorageError if the world is
// structurally locked.
func InsertComponent[T any](w *World, e Entity, value *T) error {
	if w.Locked() {
		return LockedStorageError{}
	}
	loc, ok := w.entities.Get(e)
	if !ok {
		return InvalidEntityError{Entity: e}
	}
	layout := NewDataLayout[T](StorageTable)
	dataId := w.registry.DataKindIdFor(layout)
	info := w.bundles.GetOrInsert(layout.GoType, []DataKindId{dataId}, w.registry)
	return w.applyInsert(e, loc, info, singlePtrDescriptor{ptr: unsafe.Pointer(value)})
}

// RemoveComponent removes T from e, copying its value into out (if non-nil)
// before the removal. Returns false if e doesn't carry T. Fails with
// LockedStorageError if the world is structurally locked.
func RemoveComponent[T any](w *World, e Entity, out *T) (bool, error) {
	if w.Locked() {
		return false, LockedStorageError{}
	}
	loc, ok := w.entities.Get(e)
	if !ok {
		return false, InvalidEntityError{Entity: e}
	}
	layout := NewDataLayout[T](StorageTable)
	dataId := w.registry.DataKindIdFor(layout)
	info := w.bundles.GetOrInsert(layout.GoType, []DataKindId{dataId}, w.registry)
	dstId, ok := w.archetypes.RemoveBundleFromArchetype(loc.Archetype, info.Id, info.Slots, w.tables, w.registry)
	if !ok {
		return false, nil
	}
	var scratch T
	if out == nil {
		out = &scratch
	}
	w.extractAndMove(e, loc, info, singlePtrDescriptor{ptr: unsafe.Pointer(out)}, dstId, true)
	return true, nil
}

// GetComponent returns a pointer to e's T component, if present. The
// pointer aliases live storage and is invalidated by any subsequent
// structural mutation of e's archetype.
func GetComponent[T any](w *World, e Entity) (*T, bool) {
	loc, ok := w.entities.Get(e)
	if !ok {
		return nil, false
	}
	var zero T
	t := reflect.TypeOf(zero)
	dataId, ok := w.registry.TypeIdToDataKindId(t)
	if !ok {
		return nil, false
	}
	kind, ok := w.registry.ComponentKindFor(dataId)
	if !ok {
		return nil, false
	}
	arch := w.archetypes.Get(loc.Archetype)
	slot := NoTarget(kind)
	stype, ok := arch.GetStorageType(kind, NullEntity, false)
	if !ok {
		return nil, false
	}
	if stype == StorageSparseSet {
		ptr, ok := w.sparseSetFor(slot).Get(e)
		if !ok {
			return nil, false
		}
		return (*T)(ptr), true
	}
	tbl := w.tables.Get(arch.tableId)
	col, ok := tbl.GetColumn(slot)
	if !ok {
		return nil, false
	}
	return (*T)(col.GetUnchecked(arch.entityTableRows[loc.Index])), true
}

// InsertResource stores value in the reserved resource archetype's
// singleton column for T, creating it on first use.
func InsertResource[T any](w *World, value *T) {
	layout := NewDataLayout[T](StorageTable)
	kind := w.registry.GetOrInsertResourceKind(layout)
	res := w.archetypes.Resource()
	col, exists := res.uniqueComponents[kind]
	if !exists {
		col = NewColumn(layout, 1)
		col.PushUninit(w.tick)
		res.uniqueComponents[kind] = col
	}
	src := unsafe.Pointer(value)
	if !exists {
		col.Initialize(0, src, w.tick)
	} else {
		col.Replace(0, src, w.tick)
	}
}

// GetResource returns a pointer to the registered T resource, if any.
func GetResource[T any](w *World) (*T, bool) {
	var zero T
	t := reflect.TypeOf(zero)
	dataId, ok := w.registry.TypeIdToDataKindId(t)
	if !ok {
		return nil, false
	}
	kind, ok := w.registry.ResourceKindFor(dataId)
	if !ok {
		return nil, false
	}
	col, ok := w.archetypes.Resource().uniqueComponents[kind]
	if !ok {
		return nil, false
	}
	return (*T)(col.GetUnchecked(0)), true
}
