package warehouse

// Tables owns every Table in a World, identified by the hash (here, a
// canonical string signature) of its sorted slot list.
type Tables struct {
	list    []*Table
	byShape map[string]TableId
	nextId  TableId
}

// NewTables creates an empty Tables registry with the reserved empty table
// (id 0, no columns) pre-created.
func NewTables() *Tables {
	ts := &Tables{byShape: make(map[string]TableId)}
	empty := NewTable(0, nil, nil, Config.tableGrowAmount)
	ts.list = append(ts.list, empty)
	ts.nextId = 1
	return ts
}

// Get returns the table for id.
func (ts *Tables) Get(id TableId) *Table { return ts.list[id] }

// GetIdOrInsert looks up the table matching slots (sorted copy taken
// internally) by shape, constructing a new one on first sight.
func (ts *Tables) GetIdOrInsert(slots []Slot, registry *Registry) TableId {
	sorted := append([]Slot(nil), slots...)
	sortSlots(sorted)
	key := signature(sorted)
	if id, ok := ts.byShape[key]; ok {
		return id
	}
	id := ts.nextId
	ts.nextId++
	t := NewTable(id, sorted, registry, Config.tableGrowAmount)
	ts.list = append(ts.list, t)
	ts.byShape[key] = id
	return id
}

// Len returns the number of tables, including the reserved empty table.
func (ts *Tables) Len() int { return len(ts.list) }

// checkChangeTicks clamps ticks on every table.
func (ts *Tables) checkChangeTicks(current Tick, maxAge int32) {
	for _, t := range ts.list {
		t.checkChangeTicks(current, maxAge)
	}
}
