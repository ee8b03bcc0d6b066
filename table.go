package warehouse

// Table is a row-major set of Columns sharing the same entity row layout.
// All Columns in a table have equal length; row i across all columns
// belongs to entities[i] (spec.md §3, invariant 3).
type Table struct {
	id         TableId
	slots      []Slot // sorted; one Column per slot
	columns    map[Slot]*Column
	entities   []Entity
	growAmount int
}

// NewTable builds a table with one Column per slot (slots must already be
// sorted — callers go through Tables.GetIdOrInsert, which sorts).
func NewTable(id TableId, slots []Slot, registry *Registry, growAmount int) *Table {
	if growAmount <= 0 {
		growAmount = Config.tableGrowAmount
	}
	t := &Table{
		id:         id,
		slots:      slots,
		columns:    make(map[Slot]*Column, len(slots)),
		growAmount: growAmount,
	}
	for _, s := range slots {
		t.columns[s] = NewColumn(registry.RelationLayout(s.Kind), 0)
	}
	return t
}

// Id returns the table's identity.
func (t *Table) Id() TableId { return t.id }

// Len returns the number of rows (entities) currently stored.
func (t *Table) Len() int { return len(t.entities) }

// Capacity returns the table's current row capacity.
func (t *Table) Capacity() int { return cap(t.entities) }

// Entities returns the row→entity mapping.
func (t *Table) Entities() []Entity { return t.entities }

// Slots returns the table's sorted slot list.
func (t *Table) Slots() []Slot { return t.slots }

// GetColumn returns the column for slot, if present.
func (t *Table) GetColumn(slot Slot) (*Column, bool) {
	c, ok := t.columns[slot]
	return c, ok
}

// HasColumn reports whether slot has a column in this table.
func (t *Table) HasColumn(slot Slot) bool {
	_, ok := t.columns[slot]
	return ok
}

// ColumnsOfKind iterates every (target, column) pair for a relation kind,
// letting a caller walk all targets of a user relation.
func (t *Table) ColumnsOfKind(kind RelationKindId, yield func(target Entity, hasTarget bool, col *Column) bool) {
	for _, s := range t.slots {
		if s.Kind != kind {
			continue
		}
		if !yield(s.Target, s.HasTarget, t.columns[s]) {
			return
		}
	}
}

// reserveCapacity grows every column plus the entities slice to the next
// grow_amount boundary able to hold at least required rows (spec.md §4.6).
func (t *Table) reserveCapacity(required int) {
	if required <= cap(t.entities) {
		return
	}
	boundary := ((required + t.growAmount - 1) / t.growAmount) * t.growAmount
	grown := make([]Entity, len(t.entities), boundary)
	copy(grown, t.entities)
	t.entities = grown
	for _, col := range t.columns {
		col.Reserve(boundary)
	}
}

// Reserve grows capacity to hold at least n more rows than currently
// stored.
func (t *Table) Reserve(n int) {
	t.reserveCapacity(len(t.entities) + n)
}

// Allocate grows every column by one uninitialized row and appends e to
// the entity list, returning the new row index. The caller MUST write
// every column before releasing the write (spec.md §4.6).
func (t *Table) Allocate(e Entity, tick Tick) int {
	t.reserveCapacity(len(t.entities) + 1)
	row := len(t.entities)
	t.entities = append(t.entities, e)
	for _, s := range t.slots {
		got := t.columns[s].PushUninit(tick)
		if got != row {
			// Columns and the entity list are maintained in lockstep by
			// construction; divergence here means an invariant was broken
			// elsewhere (e.g. a column mutated outside Table methods).
			panic("warehouse: table column row desynchronized from entity row")
		}
	}
	return row
}

// SwapRemoveUnchecked drops every column's value at row and removes the
// entity row, swapping the last row into row's place if row wasn't
// already last. Returns the entity that was moved into row, if any.
func (t *Table) SwapRemoveUnchecked(row int) (swapped Entity, hasSwapped bool) {
	last := len(t.entities) - 1
	for _, s := range t.slots {
		t.columns[s].SwapRemoveUnchecked(row)
	}
	if row != last {
		t.entities[row] = t.entities[last]
		swapped, hasSwapped = t.entities[row], true
	}
	t.entities = t.entities[:last]
	return swapped, hasSwapped
}

// swapRemoveRaw performs the same row compaction as SwapRemoveUnchecked
// but without touching columns — used by the move_to_* family, which
// drains/moves column values first and then discards the now-empty row.
func (t *Table) swapRemoveRaw(row int) (swapped Entity, hasSwapped bool) {
	last := len(t.entities) - 1
	if row != last {
		t.entities[row] = t.entities[last]
		swapped, hasSwapped = t.entities[row], true
	}
	t.entities = t.entities[:last]
	return swapped, hasSwapped
}

// MoveToAndForgetMissingUnchecked moves row from t into dst. For every
// column dst also has, the value+ticks are moved across; columns present
// only in t are compacted away WITHOUT invoking their drop hook — the
// caller (strict remove) must already have copied those values out via
// take_entity_data before calling this, so no value is lost.
func (t *Table) MoveToAndForgetMissingUnchecked(row int, dst *Table, tick Tick) (newRow int, swapped Entity, hasSwapped bool) {
	newRow = dst.allocateRowOnly(t.entities[row])
	for _, s := range t.slots {
		src := t.columns[s]
		if dc, ok := dst.columns[s]; ok {
			mr := src.SwapRemoveAndForgetUnchecked(row)
			dc.GrowToRow(newRow)
			dc.data.SetUnchecked(newRow, mr.Value)
			dc.ticks[newRow] = mr.Ticks
		} else {
			src.SwapRemoveForgetDiscard(row)
		}
	}
	swapped, hasSwapped = t.swapRemoveRaw(row)
	return newRow, swapped, hasSwapped
}

// MoveToAndDropMissingUnchecked is MoveToAndForgetMissingUnchecked's
// sibling for intersection-remove: columns missing at dst have their
// source value dropped rather than forgotten.
func (t *Table) MoveToAndDropMissingUnchecked(row int, dst *Table, tick Tick) (newRow int, swapped Entity, hasSwapped bool) {
	newRow = dst.allocateRowOnly(t.entities[row])
	for _, s := range t.slots {
		src := t.columns[s]
		if dc, ok := dst.columns[s]; ok {
			mr := src.SwapRemoveAndForgetUnchecked(row)
			dc.GrowToRow(newRow)
			dc.data.SetUnchecked(newRow, mr.Value)
			dc.ticks[newRow] = mr.Ticks
		} else {
			src.SwapRemoveUnchecked(row) // drops
		}
	}
	swapped, hasSwapped = t.swapRemoveRaw(row)
	return newRow, swapped, hasSwapped
}

// MoveToSupersetUnchecked moves row from t into dst, which MUST have a
// superset of t's columns. Every source value is moved across; dst's
// extra columns are left for the caller to initialize.
func (t *Table) MoveToSupersetUnchecked(row int, dst *Table) (newRow int, swapped Entity, hasSwapped bool) {
	newRow = dst.allocateRowOnly(t.entities[row])
	for _, s := range t.slots {
		src := t.columns[s]
		dc := dst.columns[s] // precondition: always present
		mr := src.SwapRemoveAndForgetUnchecked(row)
		dc.GrowToRow(newRow)
		dc.data.SetUnchecked(newRow, mr.Value)
		dc.ticks[newRow] = mr.Ticks
	}
	swapped, hasSwapped = t.swapRemoveRaw(row)
	return newRow, swapped, hasSwapped
}

// allocateRowOnly appends e to the entity list (growing capacity as
// needed) without touching columns — the move_to_* family writes columns
// directly since it already holds the moved values.
func (t *Table) allocateRowOnly(e Entity) int {
	t.reserveCapacity(len(t.entities) + 1)
	row := len(t.entities)
	t.entities = append(t.entities, e)
	return row
}

// GrowToRow ensures the column has a (possibly uninitialized) slot at
// row, growing its length if row wasn't already covered by a prior
// PushUninit in the same Allocate batch. Used by the move_to_* family,
// which writes directly into a destination row index obtained from the
// entity list rather than via PushUninit.
func (c *Column) GrowToRow(row int) {
	for c.data.Len() <= row {
		c.data.PushUninit()
		c.ticks = append(c.ticks, ComponentTicks{})
	}
}

// checkChangeTicks clamps ticks on every column in the table.
func (t *Table) checkChangeTicks(current Tick, maxAge int32) {
	for _, col := range t.columns {
		col.checkChangeTicks(current, maxAge)
	}
}
