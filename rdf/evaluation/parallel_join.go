package evaluation

import (
	"fmt"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ansell/openrdf-sesame-sub015/rdf/algebra"
)

// parallelCursor evaluates the right-hand side of a join for each left
// solution on a background task, and streams the resulting iterators one
// after another. Output keeps the left order and the solutions of each left
// solution contiguous.
//
// Next and Close must be called from the consuming goroutine.
type parallelCursor struct {
	strategy *Strategy
	left     Iterator
	right    func(Solution) (Iterator, error)
	queue    *iteratorQueue
	done     chan struct{}
	grace    time.Duration

	current  Iterator
	sol      Solution
	err      error
	finished bool
	closed   atomic.Bool
	// started is claimed by whichever of run and Close comes first. An
	// executor may hold a task back, and Close must not wait for one that
	// has not begun.
	started atomic.Bool
}

func newParallelCursor(s *Strategy, left Iterator, right func(Solution) (Iterator, error)) *parallelCursor {
	c := &parallelCursor{
		strategy: s,
		left:     left,
		right:    right,
		queue:    newIteratorQueue(s.opts.QueueCapacity),
		done:     make(chan struct{}),
		grace:    s.opts.CloseGracePeriod,
	}
	s.opts.Executor.Go(c.run)
	return c
}

// run is the background task. It does nothing if Close came first.
func (c *parallelCursor) run() {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	defer close(c.done)
	defer func() {
		c.queue.done()
		if c.queue.stopped() {
			c.queue.drain()
		}
	}()
	defer c.left.Close()
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("parallel join task panicked")
			c.queue.toss(evalError("parallel join", fmt.Errorf("task panicked: %v", r)))
		}
	}()

	for !c.closed.Load() && c.left.Next() {
		it, err := c.right(c.left.Solution())
		if err != nil {
			c.queue.toss(err)
			return
		}
		if !c.queue.put(it) {
			it.Close()
			return
		}
	}
	if err := c.left.Err(); err != nil {
		c.queue.toss(err)
	}
}

func (c *parallelCursor) Next() bool {
	if c.finished {
		return false
	}
	for {
		if c.current != nil {
			if c.current.Next() {
				c.sol = c.current.Solution()
				return true
			}
			err := c.current.Err()
			if cerr := c.current.Close(); err == nil {
				err = cerr
			}
			c.current = nil
			if err != nil {
				c.finish(err)
				return false
			}
		}

		item, ok := c.queue.take()
		switch {
		case !ok:
			c.finish(nil)
			return false
		case item.err != nil:
			c.finish(item.err)
			return false
		}
		c.current = item.iter
	}
}

func (c *parallelCursor) finish(err error) {
	c.finished = true
	c.sol = Solution{}
	if cerr := c.Close(); err == nil {
		err = cerr
	}
	if c.err == nil {
		c.err = err
	}
}

func (c *parallelCursor) Solution() Solution { return c.sol }

func (c *parallelCursor) Err() error { return c.err }

// Close stops the background task and waits for it up to the configured
// grace period, then closes every iterator still queued. A task the
// executor has not started yet is cancelled and the left iterator is
// closed here.
func (c *parallelCursor) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.finished = true
	c.queue.stopNow()

	if c.started.CompareAndSwap(false, true) {
		err := c.left.Close()
		c.queue.done()
		close(c.done)
		return err
	}

	timer := time.NewTimer(c.grace)
	defer timer.Stop()
	select {
	case <-c.done:
	case <-timer.C:
		log.WithField("grace", c.grace).Warn("parallel join task still running after close")
		c.strategy.ctx.CloseGraceLapsed(c.grace)
	}

	err := c.queue.drain()
	if c.current != nil {
		if cerr := c.current.Close(); err == nil {
			err = cerr
		}
		c.current = nil
	}
	return err
}

// Done is closed once the background task has exited.
func (c *parallelCursor) Done() <-chan struct{} { return c.done }

// ParallelJoinCursor is a join whose right-hand side is evaluated ahead of
// the consumer.
type ParallelJoinCursor struct {
	*parallelCursor
}

func NewParallelJoinCursor(s *Strategy, left Iterator, right algebra.TupleExpr) *ParallelJoinCursor {
	return &ParallelJoinCursor{newParallelCursor(s, left, func(sol Solution) (Iterator, error) {
		return s.Evaluate(right, sol)
	})}
}

// ParallelLeftJoinCursor is the optional counterpart of ParallelJoinCursor.
// Each left solution yields its joined right solutions that satisfy the
// condition, or itself when there are none. It is only correct for well
// designed left joins.
type ParallelLeftJoinCursor struct {
	*parallelCursor
}

func NewParallelLeftJoinCursor(s *Strategy, left Iterator, lj *algebra.LeftJoin, scope []string) *ParallelLeftJoinCursor {
	return &ParallelLeftJoinCursor{newParallelCursor(s, left, func(sol Solution) (Iterator, error) {
		right, err := s.Evaluate(lj.Right, sol)
		if err != nil {
			return nil, err
		}
		filtered := mapIterator(right, func(r Solution) (Solution, bool, error) {
			ok, err := s.conditionHolds(lj.Condition, r, scope)
			return r, ok, err
		})
		return NewAlternativeCursor(filtered, func() Iterator { return SingletonIterator(sol) }), nil
	})}
}

// NewAlternativeCursor yields the solutions of primary, or, if primary is
// empty, those of the iterator built by alternative on first use.
func NewAlternativeCursor(primary Iterator, alternative func() Iterator) Iterator {
	return newCursor(&alternativeProducer{current: primary, alternative: alternative})
}

type alternativeProducer struct {
	current     Iterator
	alternative func() Iterator
	seen        bool
}

func (a *alternativeProducer) produce() (Solution, bool, error) {
	if a.current.Next() {
		a.seen = true
		return a.current.Solution(), true, nil
	}
	if err := a.current.Err(); err != nil {
		return Solution{}, false, err
	}
	if a.seen || a.alternative == nil {
		return Solution{}, false, nil
	}
	if err := a.current.Close(); err != nil {
		return Solution{}, false, err
	}
	a.current = a.alternative()
	a.alternative = nil
	return a.produce()
}

func (a *alternativeProducer) release() error {
	return a.current.Close()
}
