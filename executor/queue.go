package executor

import "sync"

// fifo is the shared task queue behind the single-thread, fixed and cached
// policies: an ordered, optionally bounded sequence of pending tasks with a
// wake signal for parked workers.
//
// wake carries at most one pending signal; a worker that pops an item
// re-signals when items remain, so one push can fan out to several parked
// workers without a broadcast.
type fifo[R any] struct {
	mu     sync.Mutex
	items  []*submittedTask[R]
	bound  int // 0 = unbounded
	closed bool
	wake   chan struct{}
	done   chan struct{} // closed when the queue stops accepting tasks
}

func newFIFO[R any](bound int) *fifo[R] {
	return &fifo[R]{
		bound: bound,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// push appends a task. It fails with ErrExecutorClosed after close and with
// ErrPoolExhausted when a bound is configured and reached; it never blocks.
func (q *fifo[R]) push(st *submittedTask[R]) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrExecutorClosed
	}
	if q.bound > 0 && len(q.items) >= q.bound {
		q.mu.Unlock()
		return ErrPoolExhausted
	}
	q.items = append(q.items, st)
	q.mu.Unlock()

	q.signal()
	return nil
}

// pop removes and returns the oldest task, if any.
func (q *fifo[R]) pop() (*submittedTask[R], bool) {
	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return nil, false
	}
	st := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	more := len(q.items) > 0
	q.mu.Unlock()

	if more {
		q.signal()
	}
	return st, true
}

func (q *fifo[R]) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *fifo[R]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// close stops intake. Queued tasks stay in place for workers to drain.
func (q *fifo[R]) close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.done)
	}
	q.mu.Unlock()
}
