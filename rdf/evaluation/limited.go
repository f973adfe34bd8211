package evaluation

import "sync/atomic"

// collectionBudget caps the number of solutions buffered at once across
// all operators of a strategy. A nil budget is unlimited.
type collectionBudget struct {
	max  int64
	used atomic.Int64
}

func newCollectionBudget(max int64) *collectionBudget {
	if max <= 0 {
		return nil
	}
	return &collectionBudget{max: max}
}

// reserve claims n slots or fails with ErrCollectionSizeExceeded.
func (b *collectionBudget) reserve(n int64) error {
	if b == nil {
		return nil
	}
	if b.used.Add(n) > b.max {
		b.used.Add(-n)
		return ErrCollectionSizeExceeded
	}
	return nil
}

func (b *collectionBudget) release(n int64) {
	if b == nil || n == 0 {
		return
	}
	b.used.Add(-n)
}

// claim tracks the slots one operator holds so they can be returned when
// it is closed.
type claim struct {
	budget *collectionBudget
	held   int64
}

func (c *claim) add(n int64) error {
	if err := c.budget.reserve(n); err != nil {
		return err
	}
	c.held += n
	return nil
}

func (c *claim) releaseAll() {
	c.budget.release(c.held)
	c.held = 0
}

// drop returns n of the held slots.
func (c *claim) drop(n int64) {
	if n > c.held {
		n = c.held
	}
	c.budget.release(n)
	c.held -= n
}
