package warehouse

import "unsafe"

// ComponentSparseSet is a dense value array plus a sparse entity→dense-index
// lookup, for optional or rarely-present data (spec.md §4.5). Unlike a
// Column, a sparse set is not partitioned by archetype — every archetype
// whose identity includes a given sparse-set slot shares the same
// ComponentSparseSet instance for that slot.
type ComponentSparseSet struct {
	dense         *BlobVec
	ticks         []ComponentTicks
	denseEntities []Entity
	sparse        map[uint32]int // entity id -> dense index
}

// NewComponentSparseSet creates an empty sparse set for layout.
func NewComponentSparseSet(layout DataLayout) *ComponentSparseSet {
	return &ComponentSparseSet{
		dense:  NewBlobVec(layout, 0),
		sparse: make(map[uint32]int),
	}
}

// Len returns the number of entities currently present in the set.
func (s *ComponentSparseSet) Len() int { return s.dense.Len() }

// Insert writes src for e. If e is already present its value is replaced
// in place and only the changed tick is stamped; otherwise a new dense
// slot is appended and both added/changed ticks are stamped.
func (s *ComponentSparseSet) Insert(e Entity, src unsafe.Pointer, tick Tick) {
	if idx, ok := s.sparse[e.id]; ok {
		if s.dense.layout.Drop != nil {
			s.dense.layout.Drop(s.dense.GetUnchecked(idx))
		}
		s.dense.SetUnchecked(idx, src)
		s.ticks[idx].Changed = tick
		return
	}
	row := s.dense.PushUninit()
	s.dense.SetUnchecked(row, src)
	s.ticks = append(s.ticks, NewComponentTicks(tick))
	s.denseEntities = append(s.denseEntities, e)
	s.sparse[e.id] = row
}

// Get returns a pointer to e's value, or (nil, false) if absent.
func (s *ComponentSparseSet) Get(e Entity) (unsafe.Pointer, bool) {
	idx, ok := s.sparse[e.id]
	if !ok {
		return nil, false
	}
	return s.dense.GetUnchecked(idx), true
}

// GetWithTicks returns a pointer to e's value and its ticks cell.
func (s *ComponentSparseSet) GetWithTicks(e Entity) (unsafe.Pointer, *ComponentTicks, bool) {
	idx, ok := s.sparse[e.id]
	if !ok {
		return nil, nil, false
	}
	return s.dense.GetUnchecked(idx), &s.ticks[idx], true
}

// Remove drops e's value (if present) and compacts the dense arrays.
// Returns whether e was present.
func (s *ComponentSparseSet) Remove(e Entity) bool {
	idx, ok := s.sparse[e.id]
	if !ok {
		return false
	}
	s.dense.SwapRemoveDrop(idx)
	s.compact(e, idx)
	return true
}

// RemoveAndForget removes e's value without dropping it, handing the
// caller a pointer valid until the next mutation of this sparse set.
func (s *ComponentSparseSet) RemoveAndForget(e Entity) (unsafe.Pointer, bool) {
	idx, ok := s.sparse[e.id]
	if !ok {
		return nil, false
	}
	ptr := s.dense.SwapRemoveForget(idx)
	s.compact(e, idx)
	return ptr, true
}

// compact removes the bookkeeping for idx (already removed from s.dense)
// and fixes up whichever entity got swapped into idx.
func (s *ComponentSparseSet) compact(e Entity, idx int) {
	last := len(s.denseEntities) - 1
	delete(s.sparse, e.id)
	if idx != last {
		moved := s.denseEntities[last]
		s.denseEntities[idx] = moved
		s.ticks[idx] = s.ticks[last]
		s.sparse[moved.id] = idx
	}
	s.denseEntities = s.denseEntities[:last]
	s.ticks = s.ticks[:last]
}

// checkChangeTicks clamps every cell's ticks, per spec.md §4.12.
func (s *ComponentSparseSet) checkChangeTicks(current Tick, maxAge int32) {
	for i := range s.ticks {
		s.ticks[i].checkTicks(current, maxAge)
	}
}
