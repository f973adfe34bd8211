package evaluation

import "errors"

// Iterator is a lazy, finite, non-restartable sequence of solutions. After
// Next returns false, Err reports the failure that ended the sequence, if
// any. Close is idempotent and must be called on every exit path; it
// releases children, goroutines and temporary storage.
type Iterator interface {
	Next() bool
	Solution() Solution
	Err() error
	Close() error
}

// producer is the step function behind a cursor. produce returns the next
// solution, or ok=false once exhausted; release frees its resources.
type producer interface {
	produce() (sol Solution, ok bool, err error)
	release() error
}

// cursor adapts a producer to Iterator. It releases the producer as soon
// as the sequence ends so nested iterators free their resources early.
type cursor struct {
	p       producer
	current Solution
	err     error
	done    bool
	closed  bool
}

func newCursor(p producer) *cursor {
	return &cursor{p: p}
}

func (c *cursor) Next() bool {
	if c.done {
		return false
	}
	sol, ok, err := c.p.produce()
	if err != nil || !ok {
		c.done = true
		c.current = Solution{}
		c.err = err
		if cerr := c.Close(); c.err == nil {
			c.err = cerr
		}
		return false
	}
	c.current = sol
	return true
}

func (c *cursor) Solution() Solution { return c.current }

func (c *cursor) Err() error { return c.err }

func (c *cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.done = true
	return c.p.release()
}

// SliceIterator iterates over an in-memory list of solutions.
type SliceIterator struct {
	solutions []Solution
	pos       int
	current   Solution
}

func NewSliceIterator(solutions ...Solution) *SliceIterator {
	return &SliceIterator{solutions: solutions}
}

func (it *SliceIterator) Next() bool {
	if it.pos >= len(it.solutions) {
		return false
	}
	it.current = it.solutions[it.pos]
	it.pos++
	return true
}

func (it *SliceIterator) Solution() Solution { return it.current }
func (it *SliceIterator) Err() error         { return nil }

func (it *SliceIterator) Close() error {
	it.pos = len(it.solutions)
	return nil
}

// EmptyIterator returns an iterator with no solutions.
func EmptyIterator() Iterator { return NewSliceIterator() }

// SingletonIterator returns an iterator over exactly sol.
func SingletonIterator(sol Solution) Iterator { return NewSliceIterator(sol) }

// CountingIterator wraps an iterator and tracks solution count without
// buffering.
type CountingIterator struct {
	inner   Iterator
	count   int
	done    bool
	onClose func(count int, err error)
}

func NewCountingIterator(inner Iterator) *CountingIterator {
	return &CountingIterator{inner: inner}
}

func (i *CountingIterator) Next() bool {
	hasNext := i.inner.Next()
	if hasNext {
		i.count++
	} else {
		i.done = true
	}
	return hasNext
}

func (i *CountingIterator) Solution() Solution { return i.inner.Solution() }
func (i *CountingIterator) Err() error         { return i.inner.Err() }

func (i *CountingIterator) Close() error {
	err := i.inner.Close()
	if i.onClose != nil {
		report := i.inner.Err()
		if report == nil {
			report = err
		}
		i.onClose(i.count, report)
		i.onClose = nil
	}
	return err
}

// Count returns the number of solutions seen so far.
func (i *CountingIterator) Count() int { return i.count }

// IsDone returns true if iteration has completed.
func (i *CountingIterator) IsDone() bool { return i.done }

// Collect drains it into a slice and closes it.
func Collect(it Iterator) ([]Solution, error) {
	var out []Solution
	for it.Next() {
		out = append(out, it.Solution())
	}
	err := it.Err()
	if cerr := it.Close(); err == nil {
		err = cerr
	}
	return out, err
}

// closeAll closes every non-nil iterator and joins their errors.
func closeAll(its ...Iterator) error {
	var errs []error
	for _, it := range its {
		if it != nil {
			if err := it.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
