package warehouse

// Config holds global configuration for the storage core.
var Config config = config{
	tableGrowAmount:    defaultTableGrowAmount,
	maxChangeAgeTicks:  MaxChangeAgeTicks,
}

const defaultTableGrowAmount = 64

type config struct {
	// tableGrowAmount is the row-count boundary tables/columns grow to
	// (spec.md §4.6): capacity = ceil(required/tableGrowAmount)*tableGrowAmount.
	tableGrowAmount int
	// maxChangeAgeTicks bounds how stale a ComponentTicks value may get
	// before CheckChangeTicks clamps it (spec.md §4.12).
	maxChangeAgeTicks int32
}

// SetTableGrowAmount overrides the default row-growth boundary for newly
// created tables. Existing tables keep the growth amount they were built
// with.
func (c *config) SetTableGrowAmount(n int) {
	if n <= 0 {
		return
	}
	c.tableGrowAmount = n
}

// SetMaxChangeAgeTicks overrides the clamp threshold CheckChangeTicks uses.
func (c *config) SetMaxChangeAgeTicks(n int32) {
	if n <= 0 {
		return
	}
	c.maxChangeAgeTicks = n
}
