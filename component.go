package warehouse

// ComponentMeta names a registered component type T and its folded
// HasComponent(T) relation kind, so callers can pass it around instead of
// re-resolving the kind by reflection on every access.
type ComponentMeta[T any] struct {
	Kind RelationKindId
}

// RegisterComponent resolves (creating on first use) T's HasComponent
// relation kind with the given storage class. Re-registering T with the
// same storage class is a no-op; the registry's usual mismatched-layout
// panic applies if T was previously registered with an incompatible shape.
func RegisterComponent[T any](w *World, storage StorageType) ComponentMeta[T] {
	layout := NewDataLayout[T](storage)
	return ComponentMeta[T]{Kind: w.registry.GetOrInsertComponentKind(layout)}
}

// RegisterResource resolves T's HasResource relation kind.
func RegisterResource[T any](w *World, storage StorageType) ComponentMeta[T] {
	layout := NewDataLayout[T](storage)
	return ComponentMeta[T]{Kind: w.registry.GetOrInsertResourceKind(layout)}
}
