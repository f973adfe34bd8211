package evaluation

import "sync"

type queueItem struct {
	iter Iterator
	err  error
}

// iteratorQueue hands right-hand iterators from a background task to the
// consumer of a parallel cursor. It holds at most capacity items; an error
// is delivered in order after the iterators queued before it.
type iteratorQueue struct {
	items    chan queueItem
	stop     chan struct{}
	stopOnce sync.Once
}

func newIteratorQueue(capacity int) *iteratorQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &iteratorQueue{
		items: make(chan queueItem, capacity),
		stop:  make(chan struct{}),
	}
}

// put blocks until there is room. It returns false once the queue is
// stopped, in which case the caller still owns it.
func (q *iteratorQueue) put(it Iterator) bool {
	if q.stopped() {
		return false
	}
	select {
	case q.items <- queueItem{iter: it}:
		return true
	case <-q.stop:
		return false
	}
}

// toss reports a failure of the producer.
func (q *iteratorQueue) toss(err error) {
	if q.stopped() {
		return
	}
	select {
	case q.items <- queueItem{err: err}:
	case <-q.stop:
	}
}

// done marks the end of input. Only the producer calls it, once.
func (q *iteratorQueue) done() {
	close(q.items)
}

// take waits for the next item. ok is false at the end of input or after
// stopNow.
func (q *iteratorQueue) take() (item queueItem, ok bool) {
	select {
	case item, ok = <-q.items:
		return item, ok
	case <-q.stop:
		return queueItem{}, false
	}
}

func (q *iteratorQueue) stopNow() {
	q.stopOnce.Do(func() { close(q.stop) })
}

func (q *iteratorQueue) stopped() bool {
	select {
	case <-q.stop:
		return true
	default:
	}
	return false
}

// drain closes every queued iterator without waiting for more.
func (q *iteratorQueue) drain() error {
	var pending []Iterator
	for {
		select {
		case item, ok := <-q.items:
			if !ok {
				return closeAll(pending...)
			}
			if item.iter != nil {
				pending = append(pending, item.iter)
			}
		default:
			return closeAll(pending...)
		}
	}
}
