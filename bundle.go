package warehouse

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/TheBitDrifter/bark"
)

// BundleDescriptor is the surface a derive/codegen collaborator (or a
// hand-written caller) must implement to stream a bundle's values into the
// storage layer without the core copy-constructing or cloning anything —
// spec.md §6's "Bundle surface".
type BundleDescriptor interface {
	// Types returns the ordered list of data kinds this bundle carries.
	// Order is load-bearing: it is the order pointers are streamed in and
	// out.
	Types() []DataKindId
	// Ptr returns a pointer to the i'th component's value, in Types() order.
	Ptr(i int) unsafe.Pointer
}

// BundleInfo is the canonicalized, ordered description of a bundle: one
// Slot per component, in the order values will be streamed. Static bundles
// (GetOrInsert) have only HasTarget == false slots; relation bundles
// (GetRelationBundle) have a single target-bearing slot.
type BundleInfo struct {
	Id    BundleId
	Slots []Slot
}

// BundleRegistry canonicalizes static typed bundles (by Go type identity of
// the bundle descriptor) and relation bundles (by (RelationKindId, target))
// to stable BundleIds, per spec.md §4.8.
type BundleRegistry struct {
	byType     map[reflect.Type]BundleInfo
	static     []BundleInfo
	byRelation map[relationBundleKey]BundleId
	relations  map[BundleId]BundleInfo
	nextId     BundleId
}

type relationBundleKey struct {
	kind   RelationKindId
	target Entity
}

// NewBundleRegistry creates an empty bundle registry.
func NewBundleRegistry() *BundleRegistry {
	return &BundleRegistry{
		byType:     make(map[reflect.Type]BundleInfo),
		byRelation: make(map[relationBundleKey]BundleId),
		relations:  make(map[BundleId]BundleInfo),
	}
}

// GetOrInsert canonicalizes a static typed bundle, keyed by the Go type of
// the descriptor value itself. kinds must be the registry-resolved
// DataKindId for each of descType's fields, in streaming order, and must
// contain no duplicates — a bundle naming the same component twice is a
// programmer error (spec.md §4.8, §7).
func (br *BundleRegistry) GetOrInsert(descType reflect.Type, kinds []DataKindId, registry *Registry) BundleInfo {
	if info, ok := br.byType[descType]; ok {
		return info
	}
	seen := make(map[DataKindId]bool, len(kinds))
	slots := make([]Slot, len(kinds))
	for i, k := range kinds {
		if seen[k] {
			panic(bark.AddTrace(fmt.Errorf(
				"warehouse: bundle %v declares component kind %d more than once", descType, k)))
		}
		seen[k] = true
		layout := registry.DataLayoutOf(k)
		slots[i] = NoTarget(registry.GetOrInsertComponentKind(layout))
	}
	info := BundleInfo{Id: br.nextId, Slots: slots}
	br.nextId++
	br.byType[descType] = info
	br.static = append(br.static, info)
	return info
}

// GetRelationBundle canonicalizes a single-slot relation bundle for
// (kind, target), creating it on first sight.
func (br *BundleRegistry) GetRelationBundle(kind RelationKindId, target Entity) BundleInfo {
	key := relationBundleKey{kind: kind, target: target}
	if id, ok := br.byRelation[key]; ok {
		return br.relations[id]
	}
	info := BundleInfo{Id: br.nextId, Slots: []Slot{WithTarget(kind, target)}}
	br.nextId++
	br.byRelation[key] = info.Id
	br.relations[info.Id] = info
	return info
}

// GetRelationBundleId returns the BundleId previously assigned to
// (kind, target), if any (spec.md §7's "get_relation_bundle_id miss" is
// the ok==false case).
func (br *BundleRegistry) GetRelationBundleId(kind RelationKindId, target Entity) (BundleId, bool) {
	id, ok := br.byRelation[relationBundleKey{kind: kind, target: target}]
	return id, ok
}
