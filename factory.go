package warehouse

// factory implements the factory pattern for warehouse components.
type factory struct{}

// Factory is the global factory instance for creating warehouse components.
var Factory factory

// NewWorld creates a new, empty World.
func (f factory) NewWorld() *World {
	return NewWorld()
}

// FactoryNewComponent registers T on w (table-backed by default) and
// returns an AccessibleComponent handle for it.
func FactoryNewComponent[T any](w *World) AccessibleComponent[T] {
	return NewAccessibleComponent[T](w, StorageTable)
}

// FactoryNewSparseComponent registers T on w as sparse-set-backed.
func FactoryNewSparseComponent[T any](w *World) AccessibleComponent[T] {
	return NewAccessibleComponent[T](w, StorageSparseSet)
}

// FactoryNewCache creates a new Cache with the specified capacity.
func FactoryNewCache[T any](cap int) Cache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: cap,
	}
}
