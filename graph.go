package warehouse

// BundleStatus records, per slot of a bundle, whether inserting that bundle
// at a particular source archetype introduces the slot fresh (Added) or
// finds it already present (Mutated) — spec.md §4.7.
type BundleStatus = ComponentStatus

// addBundleEdge caches the outcome of add_bundle_to_archetype for one
// (source archetype, bundle) pair.
type addBundleEdge struct {
	destination ArchetypeId
	status      []BundleStatus
}

// removeBundleEdge caches remove_bundle. An entry exists once the edge has
// been computed; ok is false when the removal is invalid because a slot is
// absent (destination then stays ArchetypeId(0)).
type removeBundleEdge struct {
	destination ArchetypeId
	ok          bool
}

// edges holds one archetype's cached bundle transitions, keyed by BundleId.
// Sparse by construction: most archetypes only ever see a handful of
// distinct bundles applied to them.
type edges struct {
	addBundle             map[BundleId]addBundleEdge
	removeBundle          map[BundleId]removeBundleEdge
	removeBundleIntersect map[BundleId]ArchetypeId
}

func newEdges() edges {
	return edges{
		addBundle:             make(map[BundleId]addBundleEdge),
		removeBundle:          make(map[BundleId]removeBundleEdge),
		removeBundleIntersect: make(map[BundleId]ArchetypeId),
	}
}

func (e *edges) getAddBundle(id BundleId) (addBundleEdge, bool) {
	v, ok := e.addBundle[id]
	return v, ok
}

func (e *edges) setAddBundle(id BundleId, dst ArchetypeId, status []BundleStatus) {
	e.addBundle[id] = addBundleEdge{destination: dst, status: status}
}

func (e *edges) getRemoveBundle(id BundleId) (removeBundleEdge, bool) {
	v, ok := e.removeBundle[id]
	return v, ok
}

func (e *edges) setRemoveBundle(id BundleId, dst ArchetypeId, ok bool) {
	e.removeBundle[id] = removeBundleEdge{destination: dst, ok: ok}
}

func (e *edges) getRemoveBundleIntersection(id BundleId) (ArchetypeId, bool) {
	v, ok := e.removeBundleIntersect[id]
	return v, ok
}

func (e *edges) setRemoveBundleIntersection(id BundleId, dst ArchetypeId) {
	e.removeBundleIntersect[id] = dst
}

// archetypeIdentity is the lookup key for Archetypes.byIdentity: the
// canonical signature over the archetype's full (sorted) slot partition.
// Unlike a table's signature (table-backed slots only), this also folds in
// sparse-set slots, since two archetypes can share a table but differ in
// which optional components they carry (spec.md §3 invariant 5).
func archetypeIdentity(tableSlots, sparseSetSlots []Slot) string {
	return signature(tableSlots) + "/" + signature(sparseSetSlots)
}

// Archetypes owns every Archetype in a World, plus the reserved empty (id
// 0) and resource (id 1) archetypes, which are constructed but never
// inserted into the identity map (spec.md §3 invariant 6).
type Archetypes struct {
	list       []*Archetype
	byIdentity map[string]ArchetypeId
	nextId     ArchetypeId
	nextCompId ArchetypeComponentId
}

// NewArchetypes builds the reserved empty and resource archetypes and an
// otherwise-empty registry.
func NewArchetypes(emptyTableId TableId) *Archetypes {
	as := &Archetypes{byIdentity: make(map[string]ArchetypeId)}
	empty := newArchetype(0, emptyTableId, nil, nil, nil, &as.nextCompId)
	as.list = append(as.list, empty)
	resource := &Archetype{
		id:               1,
		tableId:          emptyTableId,
		components:       make(map[RelationKindId]archComponentInfo),
		relations:        make(map[RelationKindId]map[Entity]archComponentInfo),
		uniqueComponents: make(map[RelationKindId]*Column),
		edges:            newEdges(),
	}
	as.list = append(as.list, resource)
	as.nextId = 2
	return as
}

// Get returns the archetype for id.
func (as *Archetypes) Get(id ArchetypeId) *Archetype { return as.list[id] }

// Empty returns the reserved empty archetype.
func (as *Archetypes) Empty() *Archetype { return as.list[0] }

// Resource returns the reserved resource archetype.
func (as *Archetypes) Resource() *Archetype { return as.list[1] }

// Generation returns the monotonically increasing archetype count, used by
// query planners to detect when cached planning state must be rebuilt
// (spec.md §6).
func (as *Archetypes) Generation() int { return len(as.list) }

// GetIdOrInsert looks up (or builds) the archetype matching the given
// sorted table/sparse-set slot partition, keyed by the partition's identity
// signature. tableSlots and sparseSetSlots must already be sorted.
func (as *Archetypes) GetIdOrInsert(tableId TableId, tableSlots, sparseSetSlots []Slot, registry *Registry) ArchetypeId {
	key := archetypeIdentity(tableSlots, sparseSetSlots)
	if id, ok := as.byIdentity[key]; ok {
		return id
	}
	id := as.nextId
	as.nextId++
	a := newArchetype(id, tableId, tableSlots, sparseSetSlots, registry, &as.nextCompId)
	as.list = append(as.list, a)
	as.byIdentity[key] = id
	return id
}

// unionSlots merges base with add, skipping slots base already has. The
// result is re-sorted. bundleStatus reports, in add's original order,
// whether each bundle slot landed as Added (new to base) or Mutated
// (already present).
func unionSlots(base, add []Slot) (merged []Slot, bundleStatus []BundleStatus) {
	merged = append([]Slot(nil), base...)
	bundleStatus = make([]BundleStatus, len(add))
	has := make(map[Slot]bool, len(base))
	for _, s := range base {
		has[s] = true
	}
	for i, s := range add {
		if has[s] {
			bundleStatus[i] = ComponentMutated
			continue
		}
		merged = append(merged, s)
		has[s] = true
		bundleStatus[i] = ComponentAdded
	}
	sortSlots(merged)
	return merged, bundleStatus
}

// intersectRemove returns base with every slot in remove dropped, plus
// whether every slot in remove was actually present in base.
func intersectRemove(base, remove []Slot) (result []Slot, allPresent bool) {
	removeSet := make(map[Slot]bool, len(remove))
	for _, s := range remove {
		removeSet[s] = true
	}
	allPresent = true
	for _, s := range remove {
		if !contains(base, s) {
			allPresent = false
		}
	}
	for _, s := range base {
		if !removeSet[s] {
			result = append(result, s)
		}
	}
	return result, allPresent
}

func contains(slots []Slot, s Slot) bool {
	for _, x := range slots {
		if x == s {
			return true
		}
	}
	return false
}

// partition splits a sorted slot list back into its table-backed and
// sparse-set-backed sublists, preserving order.
func partition(slots []Slot, registry *Registry) (tableSlots, sparseSetSlots []Slot) {
	for _, s := range slots {
		if registry.RelationLayout(s.Kind).Storage == StorageSparseSet {
			sparseSetSlots = append(sparseSetSlots, s)
		} else {
			tableSlots = append(tableSlots, s)
		}
	}
	return tableSlots, sparseSetSlots
}

// AddBundleToArchetype resolves (and caches) the destination archetype and
// per-slot BundleStatus for inserting bundleSlots (in their canonical
// bundle order) onto an entity currently in src (spec.md §4.7/§4.9).
func (as *Archetypes) AddBundleToArchetype(src ArchetypeId, bundleId BundleId, bundleSlots []Slot, tables *Tables, registry *Registry) (ArchetypeId, []BundleStatus) {
	srcArch := as.list[src]
	if cached, ok := srcArch.edges.getAddBundle(bundleId); ok {
		return cached.destination, cached.status
	}
	allSlots := append(append([]Slot(nil), srcArch.tableSlots...), srcArch.sparseSetSlots...)
	merged, status := unionSlots(allSlots, bundleSlots)
	tableSlots, sparseSetSlots := partition(merged, registry)
	tableId := tables.GetIdOrInsert(tableSlots, registry)
	dst := as.GetIdOrInsert(tableId, tableSlots, sparseSetSlots, registry)
	srcArch.edges.setAddBundle(bundleId, dst, status)
	return dst, status
}

// RemoveBundleFromArchetype resolves (and caches) the strict-remove
// destination: ok is false if any requested slot is absent, per spec.md
// §4.7/§4.10.
func (as *Archetypes) RemoveBundleFromArchetype(src ArchetypeId, bundleId BundleId, bundleSlots []Slot, tables *Tables, registry *Registry) (ArchetypeId, bool) {
	srcArch := as.list[src]
	if cached, ok := srcArch.edges.getRemoveBundle(bundleId); ok {
		return cached.destination, cached.ok
	}
	allSlots := append(append([]Slot(nil), srcArch.tableSlots...), srcArch.sparseSetSlots...)
	remaining, allPresent := intersectRemove(allSlots, bundleSlots)
	if !allPresent {
		srcArch.edges.setRemoveBundle(bundleId, 0, false)
		return 0, false
	}
	tableSlots, sparseSetSlots := partition(remaining, registry)
	tableId := tables.GetIdOrInsert(tableSlots, registry)
	dst := as.GetIdOrInsert(tableId, tableSlots, sparseSetSlots, registry)
	srcArch.edges.setRemoveBundle(bundleId, dst, true)
	return dst, true
}

// RemoveBundleIntersectionFromArchetype resolves (and caches) the
// intersection-remove destination, which always succeeds, silently
// skipping any requested slot the source archetype doesn't have
// (spec.md §4.7/§4.10).
func (as *Archetypes) RemoveBundleIntersectionFromArchetype(src ArchetypeId, bundleId BundleId, bundleSlots []Slot, tables *Tables, registry *Registry) ArchetypeId {
	srcArch := as.list[src]
	if dst, ok := srcArch.edges.getRemoveBundleIntersection(bundleId); ok {
		return dst
	}
	allSlots := append(append([]Slot(nil), srcArch.tableSlots...), srcArch.sparseSetSlots...)
	remaining, _ := intersectRemove(allSlots, bundleSlots)
	tableSlots, sparseSetSlots := partition(remaining, registry)
	tableId := tables.GetIdOrInsert(tableSlots, registry)
	dst := as.GetIdOrInsert(tableId, tableSlots, sparseSetSlots, registry)
	srcArch.edges.setRemoveBundleIntersection(bundleId, dst)
	return dst
}
