package warehouse

import "github.com/TheBitDrifter/bark"

// AccessibleComponent wraps a ComponentMeta with direct row-level access,
// for callers (typically the query collaborator) that already know which
// archetype/table row they're looking at and want to skip the per-access
// registry lookup GetComponent does.
type AccessibleComponent[T any] struct {
	ComponentMeta[T]
}

// NewAccessibleComponent registers T (if not already) and returns a handle
// for direct row access.
func NewAccessibleComponent[T any](w *World, storage StorageType) AccessibleComponent[T] {
	return AccessibleComponent[T]{ComponentMeta: RegisterComponent[T](w, storage)}
}

// Check reports whether arch carries this component at all.
func (c AccessibleComponent[T]) Check(arch *Archetype) bool {
	return arch.Contains(c.Kind, NullEntity, false)
}

// GetFromRow returns a pointer to the component's value at row within tbl,
// for the table-backed case. Unchecked: caller must have verified Check
// and that the slot is table-backed.
func (c AccessibleComponent[T]) GetFromRow(tbl *Table, row int) *T {
	col, ok := tbl.GetColumn(NoTarget(c.Kind))
	if !ok {
		panic(bark.AddTrace(ComponentNotFoundError{Kind: c.Kind}))
	}
	return (*T)(col.GetUnchecked(row))
}

// GetFromEntity resolves e's location and returns a pointer to its T value,
// or nil if e doesn't carry T. It delegates to GetComponent, so it resolves
// T through the registry just as GetComponent does.
func (c AccessibleComponent[T]) GetFromEntity(w *World, e Entity) (*T, bool) {
	return GetComponent[T](w, e)
}
