package warehouse

import "unsafe"

// ComponentTicks tracks when a value was added and when it was last
// changed, in units of the world's global Tick counter.
type ComponentTicks struct {
	Added   Tick
	Changed Tick
}

// NewComponentTicks stamps both added and changed to the given tick (used
// on initial insert).
func NewComponentTicks(tick Tick) ComponentTicks {
	return ComponentTicks{Added: tick, Changed: tick}
}

// isNewerThan implements the spec's wrapping_sub + signed-cast comparison
// so stale ticks don't falsely compare "newer" after u32 wraparound.
func isNewerThan(tick, lastRun Tick) bool {
	return int32(tick-lastRun) > 0
}

// IsAdded reports whether this cell was added after lastRun (as of now).
func (c ComponentTicks) IsAdded(lastRun, now Tick) bool {
	return isNewerThan(minTick(c.Added, now), lastRun)
}

// IsChanged reports whether this cell was changed after lastRun.
func (c ComponentTicks) IsChanged(lastRun, now Tick) bool {
	return isNewerThan(minTick(c.Changed, now), lastRun)
}

func minTick(a, b Tick) Tick {
	if int32(a-b) > 0 {
		return b
	}
	return a
}

// checkTicks clamps a stale tick to current-maxAge so that no future
// wrapping_sub comparison can overflow the signed range, per spec.md §4.12.
func (c *ComponentTicks) checkTicks(current Tick, maxAge int32) {
	c.Added = clampTick(c.Added, current, maxAge)
	c.Changed = clampTick(c.Changed, current, maxAge)
}

func clampTick(tick, current Tick, maxAge int32) Tick {
	age := current - tick // wrapping subtraction
	if int32(age) > maxAge {
		return current - Tick(maxAge)
	}
	return tick
}

// MaxChangeAgeTicks is the default largest age (in ticks) a ComponentTicks
// value may have before CheckChangeTicks clamps it, per spec.md §4.12 (kept
// below 2^31 with headroom for a frame's worth of advancement). Config.
// maxChangeAgeTicks starts at this value but can be overridden.
const MaxChangeAgeTicks int32 = (1 << 31) - 1 - (1 << 16)

// Column stores N values laid out per a relation kind's DataLayout plus N
// ComponentTicks. Column.ticks.len() always equals the BlobVec's Len().
type Column struct {
	data  *BlobVec
	ticks []ComponentTicks
}

// NewColumn creates an empty column for layout with room for capacity rows.
func NewColumn(layout DataLayout, capacity int) *Column {
	return &Column{
		data:  NewBlobVec(layout, capacity),
		ticks: make([]ComponentTicks, 0, capacity),
	}
}

// Len returns the number of rows currently stored.
func (c *Column) Len() int { return c.data.Len() }

// Capacity returns the number of rows the column can hold without growing.
func (c *Column) Capacity() int { return c.data.Capacity() }

// Reserve grows the column (data + ticks) to hold at least n rows.
func (c *Column) Reserve(n int) {
	c.data.Reserve(n)
	if cap(c.ticks) < n {
		grown := make([]ComponentTicks, len(c.ticks), n)
		copy(grown, c.ticks)
		c.ticks = grown
	}
}

// PushUninit grows the column by one uninitialized row, stamping its
// ticks, and returns the new row index. The caller must still write the
// value via SetUnchecked.
func (c *Column) PushUninit(tick Tick) int {
	row := c.data.PushUninit()
	c.ticks = append(c.ticks, NewComponentTicks(tick))
	return row
}

// Initialize writes a freshly-moved-in value at row and stamps both added
// and changed ticks — used when bundle_status[i] == ComponentAdded.
func (c *Column) Initialize(row int, src unsafe.Pointer, tick Tick) {
	c.data.SetUnchecked(row, src)
	c.ticks[row] = NewComponentTicks(tick)
}

// Replace overwrites the value at row (dropping the old one first) and
// stamps only the changed tick, preserving added — used when
// bundle_status[i] == ComponentMutated.
func (c *Column) Replace(row int, src unsafe.Pointer, tick Tick) {
	if c.data.layout.Drop != nil {
		c.data.layout.Drop(c.data.GetUnchecked(row))
	}
	c.data.SetUnchecked(row, src)
	c.ticks[row].Changed = tick
}

// GetUnchecked returns a pointer to the value at row.
func (c *Column) GetUnchecked(row int) unsafe.Pointer {
	return c.data.GetUnchecked(row)
}

// GetTicksUnchecked returns a pointer to the ticks cell for row.
func (c *Column) GetTicksUnchecked(row int) *ComponentTicks {
	return &c.ticks[row]
}

// SwapRemoveUnchecked drops the value at row and removes its tick entry,
// compacting the column by swapping the last row into its place.
func (c *Column) SwapRemoveUnchecked(row int) {
	c.data.SwapRemoveDrop(row)
	c.removeTick(row)
}

// MoveResult carries the scratch pointer/ticks produced by a forget-style
// removal, for the caller to write elsewhere.
type MoveResult struct {
	Value unsafe.Pointer
	Ticks ComponentTicks
}

// SwapRemoveAndForgetUnchecked removes the value at row without dropping
// it, returning it (and its ticks) so the caller can move it into another
// column.
func (c *Column) SwapRemoveAndForgetUnchecked(row int) MoveResult {
	ptr := c.data.SwapRemoveForget(row)
	ticks := c.ticks[row]
	c.removeTick(row)
	return MoveResult{Value: ptr, Ticks: ticks}
}

// SwapRemoveForgetDiscard compacts away the value at row without invoking
// the drop hook and without handing the value to anyone — used when a
// column is absent at a move's destination but the caller has already
// copied the value out by some other means (e.g. take_entity_data reading
// it before the move), so no further Drop/Forget handoff is needed.
func (c *Column) SwapRemoveForgetDiscard(row int) {
	c.data.SwapRemoveForget(row)
	c.removeTick(row)
}

func (c *Column) removeTick(row int) {
	last := len(c.ticks) - 1
	if row != last {
		c.ticks[row] = c.ticks[last]
	}
	c.ticks = c.ticks[:last]
}

// checkChangeTicks clamps every cell's ticks, per spec.md §4.12.
func (c *Column) checkChangeTicks(current Tick, maxAge int32) {
	for i := range c.ticks {
		c.ticks[i].checkTicks(current, maxAge)
	}
}
