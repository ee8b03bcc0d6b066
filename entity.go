package warehouse

import "github.com/TheBitDrifter/bark"

// Entity is an opaque (id, generation) handle for a logical object. Two
// entities are equal iff both fields match; an entity handle is valid iff
// its generation equals the allocator's current generation for its id.
type Entity struct {
	id         uint32
	generation uint32
}

// NullEntity is the zero-value entity, never returned by Alloc.
var NullEntity = Entity{}

// Id returns the entity's dense slot index (1-based; 0 is never allocated).
func (e Entity) Id() uint32 { return e.id }

// Generation returns the entity's allocation generation.
func (e Entity) Generation() uint32 { return e.generation }

func (e Entity) String() string {
	return "Entity(" + uitoa(e.id) + "v" + uitoa(e.generation) + ")"
}

func uitoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// EntityLocation pinpoints where an entity's row currently lives. The
// allocator's invariant is: archetypes[loc.Archetype].entities[loc.Index]
// always equals the entity that owns this location.
type EntityLocation struct {
	Archetype ArchetypeId
	Index     int
}

// invalidLocation marks a freed or not-yet-flushed slot.
var invalidLocation = EntityLocation{Archetype: ArchetypeId(^uint32(0)), Index: -1}

type entityMeta struct {
	generation uint32
	location   EntityLocation
	// reserved marks a slot that was handed out by Reserve but has not yet
	// been resolved by Flush; structural reads must not touch it.
	reserved bool
}

// EntityAllocator is a generational entity id allocator with free-list
// reuse, per spec.md §4.1. It owns no archetype/table data itself — only
// the id/generation/location bookkeeping.
type EntityAllocator struct {
	meta     []entityMeta
	freeList []uint32 // 0-based slot indices available for reuse
	pending  []uint32 // slots reserved but not yet flushed
}

// NewEntityAllocator creates an empty allocator.
func NewEntityAllocator() *EntityAllocator {
	return &EntityAllocator{}
}

// Alloc allocates a fresh entity, reusing a freed slot (with an incremented
// generation) if one is available.
func (a *EntityAllocator) Alloc() Entity {
	if n := len(a.freeList); n > 0 {
		idx := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		a.meta[idx].reserved = false
		return Entity{id: idx + 1, generation: a.meta[idx].generation}
	}
	idx := uint32(len(a.meta))
	a.meta = append(a.meta, entityMeta{generation: 0, location: invalidLocation})
	return Entity{id: idx + 1, generation: 0}
}

// Reserve allocates an entity id without resolving its location. Flush
// must be called before any structural read of a reserved entity is made
// (query/iteration code must not observe a half-initialized row).
func (a *EntityAllocator) Reserve() Entity {
	e := a.Alloc()
	a.meta[e.id-1].reserved = true
	a.pending = append(a.pending, e.id-1)
	return e
}

// Flush clears the reserved flag for every entity handed out by Reserve
// since the last Flush. The caller is responsible for having given each of
// them a real EntityLocation via SetLocation first.
func (a *EntityAllocator) Flush() {
	for _, idx := range a.pending {
		a.meta[idx].reserved = false
	}
	a.pending = a.pending[:0]
}

// Free recycles an entity's id slot, bumping its generation so stale
// handles are rejected, and returns the location it last occupied (if any)
// so the caller can finish tearing the entity down. Returns InvalidEntityError
// if the handle is already stale.
func (a *EntityAllocator) Free(e Entity) (EntityLocation, error) {
	m, err := a.checked(e)
	if err != nil {
		return EntityLocation{}, err
	}
	loc := m.location
	idx := e.id - 1
	a.meta[idx].generation++
	a.meta[idx].location = invalidLocation
	a.meta[idx].reserved = false
	a.freeList = append(a.freeList, idx)
	return loc, nil
}

// Get returns the current location of a live entity, or false if the
// handle is stale (generation mismatch) or out of range.
func (a *EntityAllocator) Get(e Entity) (EntityLocation, bool) {
	m, err := a.checked(e)
	if err != nil {
		return EntityLocation{}, false
	}
	return m.location, true
}

// SetLocation overwrites the stored location for a live entity. Panics
// (programmer error) if the handle is stale — callers must already know
// the entity is alive by this point.
func (a *EntityAllocator) SetLocation(e Entity, loc EntityLocation) {
	m, err := a.checked(e)
	if err != nil {
		panic(bark.AddTrace(err))
	}
	m.location = loc
}

// Contains reports whether e refers to a live (non-stale) entity.
func (a *EntityAllocator) Contains(e Entity) bool {
	_, err := a.checked(e)
	return err == nil
}

func (a *EntityAllocator) checked(e Entity) (*entityMeta, error) {
	if e.id == 0 || int(e.id-1) >= len(a.meta) {
		return nil, InvalidEntityError{Entity: e}
	}
	m := &a.meta[e.id-1]
	if m.generation != e.generation {
		return nil, InvalidEntityError{Entity: e}
	}
	return m, nil
}

// Len returns the number of id slots ever allocated (including freed ones).
func (a *EntityAllocator) Len() int { return len(a.meta) }
