package warehouse

import (
	"fmt"
	"reflect"

	"github.com/TheBitDrifter/bark"
)

// relationKindInfo is the registry's record for one RelationKindId.
type relationKindInfo struct {
	layout         DataLayout
	typeToken      reflect.Type
	targetIsEntity bool
}

// Registry assigns stable, dense integer identifiers to two orthogonal
// concepts: data kinds (opaque component payload layouts) and relation
// kinds (roles like HasComponent/HasResource, or user-defined relations).
// It also maps external static-type tokens to those ids. Per spec.md §4.2,
// re-registering a type token with a mismatching layout is a programmer
// error and panics.
type Registry struct {
	dataLayouts []DataLayout
	dataByType  map[reflect.Type]DataKindId

	relationKinds  []relationKindInfo
	relationByType map[reflect.Type]RelationKindId

	// componentRelation folds a DataKindId into its HasComponent(T)
	// relation kind, created lazily on first reference.
	componentRelation map[DataKindId]RelationKindId
	// resourceRelation folds a DataKindId into its HasResource(T) relation
	// kind, created lazily on first reference.
	resourceRelation map[DataKindId]RelationKindId

	// namedDataKinds backs runtime (scripting) registration of kinds that
	// carry no static Go type token, dedup'd by name instead (spec.md §9's
	// "the core must also accept runtime-registered kinds").
	namedDataKinds Cache[DataLayout]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		dataByType:        make(map[reflect.Type]DataKindId),
		relationByType:    make(map[reflect.Type]RelationKindId),
		componentRelation: make(map[DataKindId]RelationKindId),
		resourceRelation:  make(map[DataKindId]RelationKindId),
		namedDataKinds:    &SimpleCache[DataLayout]{itemIndices: make(map[string]int), maxCapacity: 1 << 20},
	}
}

// RegisterNamedDataKind registers (or looks up) an anonymous data kind by
// name rather than by Go type token, for callers with no static type to
// key on (e.g. a scripting layer describing its own value shapes).
func (r *Registry) RegisterNamedDataKind(name string, layout DataLayout) (DataKindId, error) {
	if idx, ok := r.namedDataKinds.GetIndex(name); ok {
		return DataKindId(idx), nil
	}
	idx, err := r.namedDataKinds.Register(name, layout)
	if err != nil {
		return 0, err
	}
	id := r.newAnonymousDataKind(layout)
	if int(id) != idx {
		panic("warehouse: named data kind index diverged from data kind id")
	}
	return id, nil
}

// DataKindIdFor returns the DataKindId for layout's Go type, registering it
// on first sight. Panics if the type token was already registered with a
// different layout — a broken invariant, not a recoverable condition.
func (r *Registry) DataKindIdFor(layout DataLayout) DataKindId {
	if layout.GoType == nil {
		return r.newAnonymousDataKind(layout)
	}
	if id, ok := r.dataByType[layout.GoType]; ok {
		existing := r.dataLayouts[id]
		if existing.Size != layout.Size || existing.Align != layout.Align {
			panic(bark.AddTrace(fmt.Errorf(
				"data kind %v already registered with a different layout", layout.GoType)))
		}
		return id
	}
	id := DataKindId(len(r.dataLayouts))
	r.dataLayouts = append(r.dataLayouts, layout)
	r.dataByType[layout.GoType] = id
	return id
}

// newAnonymousDataKind registers a kind with no static Go type token, e.g.
// one created at runtime by a scripting layer. Never deduplicated by type.
func (r *Registry) newAnonymousDataKind(layout DataLayout) DataKindId {
	id := DataKindId(len(r.dataLayouts))
	r.dataLayouts = append(r.dataLayouts, layout)
	return id
}

// DataLayoutOf returns the layout registered for a data kind.
func (r *Registry) DataLayoutOf(id DataKindId) DataLayout {
	return r.dataLayouts[id]
}

// TypeIdToDataKindId returns the DataKindId registered for a Go type, if any.
func (r *Registry) TypeIdToDataKindId(t reflect.Type) (DataKindId, bool) {
	id, ok := r.dataByType[t]
	return id, ok
}

// GetOrInsertComponentKind returns the RelationKindId representing
// "HasComponent(T)" for a data kind, creating it on first reference. Plain
// components use this relation kind with Slot.HasTarget == false.
func (r *Registry) GetOrInsertComponentKind(layout DataLayout) RelationKindId {
	dataId := r.DataKindIdFor(layout)
	if kind, ok := r.componentRelation[dataId]; ok {
		return kind
	}
	kind := r.newRelationKindInfo(relationKindInfo{layout: layout, typeToken: layout.GoType, targetIsEntity: false})
	r.componentRelation[dataId] = kind
	return kind
}

// GetOrInsertResourceKind returns the RelationKindId representing
// "HasResource(T)" for a data kind, creating it on first reference.
func (r *Registry) GetOrInsertResourceKind(layout DataLayout) RelationKindId {
	dataId := r.DataKindIdFor(layout)
	if kind, ok := r.resourceRelation[dataId]; ok {
		return kind
	}
	kind := r.newRelationKindInfo(relationKindInfo{layout: layout, typeToken: layout.GoType, targetIsEntity: false})
	r.resourceRelation[dataId] = kind
	return kind
}

// ComponentKindFor returns the HasComponent(T) relation kind already
// folded for dataId, if one has been created.
func (r *Registry) ComponentKindFor(dataId DataKindId) (RelationKindId, bool) {
	kind, ok := r.componentRelation[dataId]
	return kind, ok
}

// ResourceKindFor returns the HasResource(T) relation kind already folded
// for dataId, if one has been created.
func (r *Registry) ResourceKindFor(dataId DataKindId) (RelationKindId, bool) {
	kind, ok := r.resourceRelation[dataId]
	return kind, ok
}

// NewRelationKind registers a user-defined, target-bearing relation (e.g.
// ChildOf) with the given payload layout. If typeToken is non-nil and was
// already registered, the existing kind is returned provided the layout
// matches; a mismatch is a programmer error and panics.
func (r *Registry) NewRelationKind(layout DataLayout) RelationKindId {
	if layout.GoType != nil {
		if kind, ok := r.relationByType[layout.GoType]; ok {
			existing := r.relationKinds[kind].layout
			if existing.Size != layout.Size || existing.Align != layout.Align {
				panic(bark.AddTrace(fmt.Errorf(
					"relation kind %v already registered with a different layout", layout.GoType)))
			}
			return kind
		}
	}
	kind := r.newRelationKindInfo(relationKindInfo{layout: layout, typeToken: layout.GoType, targetIsEntity: true})
	if layout.GoType != nil {
		r.relationByType[layout.GoType] = kind
	}
	return kind
}

func (r *Registry) newRelationKindInfo(info relationKindInfo) RelationKindId {
	id := RelationKindId(len(r.relationKinds))
	r.relationKinds = append(r.relationKinds, info)
	return id
}

// RelationLayout returns the payload layout for a relation kind.
func (r *Registry) RelationLayout(id RelationKindId) DataLayout {
	return r.relationKinds[id].layout
}

// RelationTargetIsEntity reports whether a relation kind is target-bearing
// (a user relation) as opposed to folded (HasComponent/HasResource).
func (r *Registry) RelationTargetIsEntity(id RelationKindId) bool {
	return r.relationKinds[id].targetIsEntity
}

// RelationCount returns the number of distinct relation kinds registered.
func (r *Registry) RelationCount() int {
	return len(r.relationKinds)
}
