package warehouse

import "fmt"

// LockedStorageError is returned when a structural mutation is attempted
// directly (not enqueued) while the world is locked (e.g. mid-iteration).
type LockedStorageError struct{}

func (e LockedStorageError) Error() string {
	return "storage is currently locked"
}

// InvalidEntityError is returned when an entity handle's generation does
// not match the allocator's current generation for its id (stale handle).
type InvalidEntityError struct {
	Entity Entity
}

func (e InvalidEntityError) Error() string {
	return fmt.Sprintf("invalid entity: %v", e.Entity)
}

// ComponentNotFoundError reports that an accessor targeted a slot absent
// from the entity or table row it was given. AccessibleComponent.GetFromRow
// panics with it (wrapped by bark.AddTrace) rather than returning it.
type ComponentNotFoundError struct {
	Kind RelationKindId
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("slot does not exist on entity: kind %d", e.Kind)
}
