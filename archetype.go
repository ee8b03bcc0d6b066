package warehouse

// ComponentStatus records, per slot in an AddBundleEdge, whether that slot
// was newly introduced at the destination archetype (Added) or already
// present at the source (Mutated) — used at write time to choose between
// Column.Initialize and Column.Replace (spec.md §4.7).
type ComponentStatus uint8

const (
	ComponentAdded ComponentStatus = iota
	ComponentMutated
)

// archComponentInfo is the per-slot bookkeeping an archetype keeps for
// fast introspection: its storage class and its globally-unique
// ArchetypeComponentId.
type archComponentInfo struct {
	storage              StorageType
	archetypeComponentId ArchetypeComponentId
}

// Archetype is a group of entities sharing the same multiset of
// (RelationKindId, optional target) slots (spec.md §3).
type Archetype struct {
	id      ArchetypeId
	tableId TableId

	entities        []Entity
	entityTableRows []int

	tableSlots     []Slot // sorted
	sparseSetSlots []Slot // sorted

	components map[RelationKindId]archComponentInfo            // no-target slots
	relations  map[RelationKindId]map[Entity]archComponentInfo // target-bearing slots

	uniqueComponents map[RelationKindId]*Column // resource archetype only

	edges edges
}

// newArchetype builds an archetype from its sorted slot partition, handing
// out a contiguous range of ArchetypeComponentId starting at *nextCompId.
func newArchetype(id ArchetypeId, tableId TableId, tableSlots, sparseSetSlots []Slot, registry *Registry, nextCompId *ArchetypeComponentId) *Archetype {
	a := &Archetype{
		id:             id,
		tableId:        tableId,
		tableSlots:     tableSlots,
		sparseSetSlots: sparseSetSlots,
		components:     make(map[RelationKindId]archComponentInfo),
		relations:      make(map[RelationKindId]map[Entity]archComponentInfo),
		edges:          newEdges(),
	}
	assign := func(s Slot) {
		info := archComponentInfo{
			storage:              registry.RelationLayout(s.Kind).Storage,
			archetypeComponentId: *nextCompId,
		}
		*nextCompId++
		if !s.HasTarget {
			a.components[s.Kind] = info
			return
		}
		byTarget, ok := a.relations[s.Kind]
		if !ok {
			byTarget = make(map[Entity]archComponentInfo)
			a.relations[s.Kind] = byTarget
		}
		byTarget[s.Target] = info
	}
	for _, s := range tableSlots {
		assign(s)
	}
	for _, s := range sparseSetSlots {
		assign(s)
	}
	return a
}

// Id returns the archetype's identity.
func (a *Archetype) Id() ArchetypeId { return a.id }

// TableId returns the backing table id.
func (a *Archetype) TableId() TableId { return a.tableId }

// Entities returns the entities belonging to this archetype, in row order.
func (a *Archetype) Entities() []Entity { return a.entities }

// EntityTableRows returns, parallel to Entities(), each entity's row index
// in the backing table.
func (a *Archetype) EntityTableRows() []int { return a.entityTableRows }

// Len returns the number of entities in this archetype.
func (a *Archetype) Len() int { return len(a.entities) }

// TableSlots returns the sorted table-backed slot list.
func (a *Archetype) TableSlots() []Slot { return a.tableSlots }

// SparseSetSlots returns the sorted sparse-set-backed slot list.
func (a *Archetype) SparseSetSlots() []Slot { return a.sparseSetSlots }

// Contains reports whether the archetype has a slot for (kind, target).
func (a *Archetype) Contains(kind RelationKindId, target Entity, hasTarget bool) bool {
	_, ok := a.lookup(kind, target, hasTarget)
	return ok
}

// GetStorageType returns the storage class for a slot, if present.
func (a *Archetype) GetStorageType(kind RelationKindId, target Entity, hasTarget bool) (StorageType, bool) {
	info, ok := a.lookup(kind, target, hasTarget)
	if !ok {
		return 0, false
	}
	return info.storage, true
}

// GetArchetypeComponentId returns the ArchetypeComponentId for a slot, if
// present.
func (a *Archetype) GetArchetypeComponentId(kind RelationKindId, target Entity, hasTarget bool) (ArchetypeComponentId, bool) {
	info, ok := a.lookup(kind, target, hasTarget)
	if !ok {
		return 0, false
	}
	return info.archetypeComponentId, true
}

func (a *Archetype) lookup(kind RelationKindId, target Entity, hasTarget bool) (archComponentInfo, bool) {
	if !hasTarget {
		info, ok := a.components[kind]
		return info, ok
	}
	byTarget, ok := a.relations[kind]
	if !ok {
		return archComponentInfo{}, false
	}
	info, ok := byTarget[target]
	return info, ok
}

// Components yields every (kind, target, hasTarget) slot this archetype
// advertises. Order is fixed per spec.md §9's FIXME(Relationships): table
// slots first, then sparse-set slots, each lexicographically sorted.
func (a *Archetype) Components(yield func(kind RelationKindId, target Entity, hasTarget bool) bool) {
	for _, s := range a.tableSlots {
		if !yield(s.Kind, s.Target, s.HasTarget) {
			return
		}
	}
	for _, s := range a.sparseSetSlots {
		if !yield(s.Kind, s.Target, s.HasTarget) {
			return
		}
	}
}

// pushEntity appends e at table row tableRow and returns its new index
// within the archetype.
func (a *Archetype) pushEntity(e Entity, tableRow int) int {
	idx := len(a.entities)
	a.entities = append(a.entities, e)
	a.entityTableRows = append(a.entityTableRows, tableRow)
	return idx
}

// swapRemoveResult mirrors bevy's ArchetypeSwapRemoveResult: the table row
// that was vacated, and whichever entity got swapped into the removed
// archetype index (if any).
type swapRemoveResult struct {
	tableRow      int
	swappedEntity Entity
	hasSwapped    bool
}

// SwapRemove removes the entry at index, swapping the last entity into its
// place if index wasn't already last. Returns the table row the removed
// entity occupied and, if another entity was moved to close the gap, that
// entity (spec.md §4.7).
func (a *Archetype) SwapRemove(index int) swapRemoveResult {
	last := len(a.entities) - 1
	tableRow := a.entityTableRows[index]
	res := swapRemoveResult{tableRow: tableRow}
	if index != last {
		a.entities[index] = a.entities[last]
		a.entityTableRows[index] = a.entityTableRows[last]
		res.swappedEntity = a.entities[index]
		res.hasSwapped = true
	}
	a.entities = a.entities[:last]
	a.entityTableRows = a.entityTableRows[:last]
	return res
}

// setEntityTableRow updates the table-row mapping for the entity at
// archetype index idx — used when a swap in the backing table (not the
// archetype) moves a different entity into a row this archetype still
// references.
func (a *Archetype) setEntityTableRow(idx, row int) {
	a.entityTableRows[idx] = row
}
