package warehouse

import (
	"reflect"
	"unsafe"
)

// DataKindId is a dense, stable identifier for a registered component
// payload layout (e.g. the user type Position).
type DataKindId uint32

// RelationKindId is a dense, stable identifier for a relation role: either
// a folded HasComponent(T)/HasResource(T) kind, or a user-defined relation
// such as ChildOf.
type RelationKindId uint32

// ArchetypeId identifies an archetype. Id 0 is always the reserved empty
// archetype, id 1 is always the reserved resource archetype.
type ArchetypeId uint32

// TableId identifies a table (a row-major set of Columns sharing a row
// layout).
type TableId uint32

// BundleId identifies a canonicalized, ordered component/relation group.
type BundleId uint32

// ArchetypeComponentId is globally unique per (archetype, slot). It is the
// atom an external scheduler uses to compute read/write conflict sets.
type ArchetypeComponentId uint32

// Tick is a monotonic counter advanced once per logical world step, used
// for change detection.
type Tick uint32

// StorageType is the column backing class for a relation kind. Fixed at
// relation-kind creation time; every slot of a given kind uses the same
// storage class.
type StorageType uint8

const (
	// StorageTable stores the relation kind's values in dense table
	// Columns, shared by every archetype with the same table-backed slots.
	StorageTable StorageType = iota
	// StorageSparseSet stores the relation kind's values in a global
	// entity-keyed sparse set, for optional/rarely-present data.
	StorageSparseSet
)

func (s StorageType) String() string {
	switch s {
	case StorageTable:
		return "Table"
	case StorageSparseSet:
		return "SparseSet"
	default:
		return "Unknown"
	}
}

// DataLayout is a static, type-erased description of an opaque value: its
// size, alignment, an optional drop hook, a debug name, an optional Go type
// token (present for statically-known component types; absent for kinds
// created anonymously, e.g. from a scripting layer), and the preferred
// storage class.
type DataLayout struct {
	Size    uintptr
	Align   uintptr
	Drop    func(unsafe.Pointer)
	Name    string
	GoType  reflect.Type
	Storage StorageType
}

// NewDataLayout builds a DataLayout for a statically-known Go type T.
func NewDataLayout[T any](storage StorageType) DataLayout {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		// T is an interface type instantiated with a nil value; fall back
		// to the zero-size/interface case rather than panicking here.
		t = reflect.TypeOf((*T)(nil)).Elem()
	}
	return DataLayout{
		Size:    t.Size(),
		Align:   uintptr(t.Align()),
		Drop:    dropFor(t),
		Name:    t.String(),
		GoType:  t,
		Storage: storage,
	}
}

// dropFor returns a drop hook that clears any pointers embedded in T so the
// garbage collector doesn't see stale references once a row has been
// swap-removed. Types with no pointers get a nil hook (no-op).
func dropFor(t reflect.Type) func(unsafe.Pointer) {
	if !hasPointers(t) {
		return nil
	}
	sz := t.Size()
	return func(p unsafe.Pointer) {
		dst := unsafe.Slice((*byte)(p), sz)
		for i := range dst {
			dst[i] = 0
		}
	}
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface, reflect.Slice, reflect.String, reflect.UnsafePointer:
		return true
	case reflect.Array:
		return hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
