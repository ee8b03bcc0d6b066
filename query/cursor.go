package query

import (
	"iter"

	"github.com/hollowforge/warehouse"
)

// Cursor iterates the entities of every archetype matching a Node, holding
// a structural lock on the world for the duration so a concurrent
// insert/remove/despawn defers instead of invalidating the iteration
// (mirrors warehouse's Enqueue* deferral contract).
type Cursor struct {
	world   *warehouse.World
	node    Node
	lockBit uint32

	matched      []warehouse.ArchetypeId
	generation   int
	storageIndex int
	entityIndex  int
	remaining    int
	initialized  bool
}

// NewCursor builds a cursor over node's matches in w. lockBit identifies
// this cursor's structural-lock bit; distinct concurrently-open cursors on
// the same world must use distinct bits (warehouse.World.AddLock/RemoveLock
// take a mask.Mask256 bit index).
func NewCursor(w *warehouse.World, node Node, lockBit uint32) *Cursor {
	return &Cursor{world: w, node: node, lockBit: lockBit}
}

// Initialize locks the world and scans every archetype for matches. Safe to
// call more than once; subsequent calls are no-ops until Reset.
func (c *Cursor) Initialize() {
	if c.initialized {
		return
	}
	c.world.AddLock(c.lockBit)
	c.generation = c.world.ArchetypeGeneration()
	c.matched = c.matched[:0]
	for id := 2; id < c.generation; id++ { // skip reserved empty(0)/resource(1)
		arch := c.world.Archetype(warehouse.ArchetypeId(id))
		if c.node.Evaluate(arch) {
			c.matched = append(c.matched, warehouse.ArchetypeId(id))
		}
	}
	if len(c.matched) > 0 {
		c.remaining = c.world.Archetype(c.matched[0]).Len()
	}
	c.initialized = true
}

// Next advances to the next matching entity, returning false once
// exhausted (and releasing the lock).
func (c *Cursor) Next() bool {
	if !c.initialized {
		c.Initialize()
	}
	if c.entityIndex < c.remaining {
		c.entityIndex++
		return true
	}
	return c.advance()
}

func (c *Cursor) advance() bool {
	for c.storageIndex < len(c.matched)-1 {
		c.storageIndex++
		c.entityIndex = 0
		c.remaining = c.world.Archetype(c.matched[c.storageIndex]).Len()
		if c.entityIndex < c.remaining {
			c.entityIndex++
			return true
		}
	}
	c.Reset()
	return false
}

// Reset clears iteration state and releases the cursor's lock bit. Next
// call to Next/Initialize starts a fresh scan (picking up any archetypes
// created since, since queries cache nothing beyond one Initialize pass).
func (c *Cursor) Reset() {
	c.storageIndex = 0
	c.entityIndex = 0
	c.remaining = 0
	c.matched = c.matched[:0]
	c.initialized = false
	c.world.RemoveLock(c.lockBit)
}

// CurrentArchetype returns the archetype the cursor is currently within.
func (c *Cursor) CurrentArchetype() *warehouse.Archetype {
	return c.world.Archetype(c.matched[c.storageIndex])
}

// CurrentEntity returns the entity at the cursor's current position.
func (c *Cursor) CurrentEntity() warehouse.Entity {
	return c.CurrentArchetype().Entities()[c.entityIndex-1]
}

// CurrentTableRow returns the table-row index backing the cursor's current
// position, for use with warehouse.Table.GetColumn-based accessors.
func (c *Cursor) CurrentTableRow() int {
	return c.CurrentArchetype().EntityTableRows()[c.entityIndex-1]
}

// Entities yields (row-in-archetype, archetype) for every match, and
// releases the lock when the iteration ends (whether drained or the
// consumer stops early).
func (c *Cursor) Entities() iter.Seq2[int, *warehouse.Archetype] {
	return func(yield func(int, *warehouse.Archetype) bool) {
		c.Initialize()
		for c.storageIndex < len(c.matched) {
			arch := c.world.Archetype(c.matched[c.storageIndex])
			c.remaining = arch.Len()
			for c.entityIndex < c.remaining {
				if !yield(c.entityIndex, arch) {
					c.Reset()
					return
				}
				c.entityIndex++
			}
			c.entityIndex = 0
			c.storageIndex++
		}
		c.Reset()
	}
}

// TotalMatched scans (if not already scanned) and returns the total entity
// count across every matching archetype, then resets.
func (c *Cursor) TotalMatched() int {
	c.Initialize()
	total := 0
	for _, id := range c.matched {
		total += c.world.Archetype(id).Len()
	}
	c.Reset()
	return total
}
