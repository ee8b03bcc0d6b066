package warehouse

// WorldOperation is a structural mutation deferred because the world was
// locked when the caller issued it (e.g. mid query-iteration), per the
// EnqueueX / Lock / Unlock pattern (spec.md §5 "no operation in the core
// suspends"; deferral is how that rule composes with an external iterator
// holding a lock bit).
type WorldOperation interface {
	Apply(*World) error
}

// worldOperationsQueue buffers WorldOperations while locked and drains them
// in submission order once the last lock bit is released.
type worldOperationsQueue struct {
	operations []WorldOperation
}

func (q *worldOperationsQueue) Enqueue(op WorldOperation) {
	q.operations = append(q.operations, op)
}

// ProcessAll applies every queued operation, in order, clearing the queue
// as it goes. If w is locked again partway through (an operation itself
// re-locks), remaining operations stay queued for the next unlock.
func (q *worldOperationsQueue) ProcessAll(w *World) error {
	for len(q.operations) > 0 {
		if w.Locked() {
			return nil
		}
		op := q.operations[0]
		q.operations = q.operations[1:]
		if err := op.Apply(w); err != nil {
			return err
		}
	}
	return nil
}

// spawnOperation defers Spawn; out, if non-nil, receives the new entity
// once applied.
type spawnOperation struct {
	desc BundleDescriptor
	out  *Entity
}

func (op spawnOperation) Apply(w *World) error {
	e, err := w.Spawn(op.desc)
	if op.out != nil {
		*op.out = e
	}
	return err
}

// despawnOperation defers Despawn.
type despawnOperation struct {
	entity Entity
}

func (op despawnOperation) Apply(w *World) error { return w.Despawn(op.entity) }

// insertBundleOperation defers InsertBundle.
type insertBundleOperation struct {
	entity Entity
	desc   BundleDescriptor
}

func (op insertBundleOperation) Apply(w *World) error { return w.InsertBundle(op.entity, op.desc) }

// removeBundleOperation defers strict RemoveBundle, discarding the
// extracted values (a deferred remove has no synchronous caller left to
// hand them to).
type removeBundleOperation struct {
	entity Entity
	desc   BundleDescriptor
}

func (op removeBundleOperation) Apply(w *World) error {
	_, err := w.RemoveBundle(op.entity, op.desc)
	return err
}

// EnqueueSpawn defers a Spawn until the world unlocks. out, if non-nil, is
// populated with the resulting entity once the operation applies.
func (w *World) EnqueueSpawn(desc BundleDescriptor, out *Entity) {
	w.Enqueue(spawnOperation{desc: desc, out: out})
}

// EnqueueDespawn defers a Despawn until the world unlocks.
func (w *World) EnqueueDespawn(e Entity) {
	w.Enqueue(despawnOperation{entity: e})
}

// EnqueueInsertBundle defers an InsertBundle until the world unlocks.
func (w *World) EnqueueInsertBundle(e Entity, desc BundleDescriptor) {
	w.Enqueue(insertBundleOperation{entity: e, desc: desc})
}

// EnqueueRemoveBundle defers a strict RemoveBundle until the world unlocks.
func (w *World) EnqueueRemoveBundle(e Entity, desc BundleDescriptor) {
	w.Enqueue(removeBundleOperation{entity: e, desc: desc})
}
