package executor

import "sync/atomic"

const (
	cacheLinePadding       = 64
	defaultDequeueCapacity = 256
)

// wsDeque is the per-worker double-ended queue of the work-stealing pool.
// The owning worker pushes and pops at the tail (LIFO, for cache locality);
// thieves pop at the head (FIFO) via CAS, so a steal contends with the victim
// only when a single element remains.
//
// Every index is accessed atomically: thieves read tail concurrently with the
// owner's stores. Capacity and mask are derived from the ring snapshot itself,
// so a consumer never pairs a grown ring with a stale mask. The ring length is
// always a power of 2.
type wsDeque[R any] struct {
	// Ring buffer of tasks, swapped atomically on growth.
	ring atomic.Pointer[[]*submittedTask[R]]

	// Head index, advanced by thieves. Padded against false sharing with the
	// owner-side tail.
	_    [cacheLinePadding]byte
	head atomic.Int64
	_    [cacheLinePadding - 8]byte

	// Tail index. Stored only by the owning worker, loaded by thieves.
	tail atomic.Int64
}

func newWSDeque[R any](capacity int) *wsDeque[R] {
	if capacity <= 0 {
		capacity = defaultDequeueCapacity
	}

	capacity = nextPowerOfTwo(capacity)
	ring := make([]*submittedTask[R], capacity)

	dq := &wsDeque[R]{}
	dq.ring.Store(&ring)
	return dq
}

// pushBack appends at the tail. Owner-only.
func (w *wsDeque[R]) pushBack(t *submittedTask[R]) {
	tail := w.tail.Load()
	head := w.head.Load()
	ring := *w.ring.Load()

	if tail-head >= int64(len(ring)) {
		ring = w.grow(head, tail)
	}

	ring[tail&int64(len(ring)-1)] = t
	w.tail.Store(tail + 1)
}

// grow doubles the ring. Owner-only; thieves keep reading the old ring until
// the atomic pointer swap, which preserves every unconsumed slot.
func (w *wsDeque[R]) grow(head, tail int64) []*submittedTask[R] {
	old := *w.ring.Load()
	newRing := make([]*submittedTask[R], len(old)<<1)

	for i := head; i < tail; i++ {
		newRing[i&int64(len(newRing)-1)] = old[i&int64(len(old)-1)]
	}

	w.ring.Store(&newRing)
	return newRing
}

// popBack removes from the tail. Owner-only; the CAS on the last element
// arbitrates against a concurrent steal.
func (w *wsDeque[R]) popBack() *submittedTask[R] {
	tail := w.tail.Load() - 1
	w.tail.Store(tail)

	head := w.head.Load()
	if head > tail {
		w.tail.Store(head)
		return nil
	}

	ring := *w.ring.Load()
	t := ring[tail&int64(len(ring)-1)]

	if head == tail {
		if !w.head.CompareAndSwap(head, head+1) {
			t = nil
		}
		w.tail.Store(head + 1)
	}

	return t
}

// popFront removes from the head. Safe for any goroutine; returns nil when
// the deque is empty or the CAS loses to a competing consumer.
func (w *wsDeque[R]) popFront() *submittedTask[R] {
	head := w.head.Load()
	tail := w.tail.Load()

	if head >= tail {
		return nil
	}

	ring := *w.ring.Load()
	t := ring[head&int64(len(ring)-1)]

	if !w.head.CompareAndSwap(head, head+1) {
		return nil
	}

	return t
}

func (w *wsDeque[R]) len() int {
	head := w.head.Load()
	tail := w.tail.Load()
	return int(tail - head)
}

// nextPowerOfTwo returns the next power of 2 >= n.
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	if n&(n-1) == 0 {
		return n
	}
	power := 1
	for power < n {
		power *= 2
	}
	return power
}
