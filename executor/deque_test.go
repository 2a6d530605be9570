package executor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

func dequeTask(id int) *submittedTask[int] {
	return newSubmitted(NewTask(KindCPUBound, func(ctx context.Context) (int, error) {
		return id, nil
	}))
}

func runDequeTask(t *testing.T, st *submittedTask[int]) int {
	t.Helper()
	v, err := st.task.body(context.Background())
	if err != nil {
		t.Fatalf("task body failed: %v", err)
	}
	return v
}

func TestWSDeque_OwnerLIFO(t *testing.T) {
	dq := newWSDeque[int](8)

	for i := range 5 {
		dq.pushBack(dequeTask(i))
	}

	for want := 4; want >= 0; want-- {
		st := dq.popBack()
		if st == nil {
			t.Fatalf("deque empty, expected task %d", want)
		}
		if got := runDequeTask(t, st); got != want {
			t.Fatalf("expected %d from tail, got %d", want, got)
		}
	}
	if dq.popBack() != nil {
		t.Error("empty deque returned a task")
	}
}

func TestWSDeque_ThiefFIFO(t *testing.T) {
	dq := newWSDeque[int](8)

	for i := range 5 {
		dq.pushBack(dequeTask(i))
	}

	for want := range 5 {
		st := dq.popFront()
		if st == nil {
			t.Fatalf("deque empty, expected task %d", want)
		}
		if got := runDequeTask(t, st); got != want {
			t.Fatalf("expected %d from head, got %d", want, got)
		}
	}
	if dq.popFront() != nil {
		t.Error("empty deque returned a task")
	}
}

func TestWSDeque_GrowsPastInitialCapacity(t *testing.T) {
	dq := newWSDeque[int](2)

	const n = 100
	for i := range n {
		dq.pushBack(dequeTask(i))
	}
	if dq.len() != n {
		t.Fatalf("expected length %d after growth, got %d", n, dq.len())
	}

	for want := range n {
		st := dq.popFront()
		if st == nil {
			t.Fatalf("lost task %d during growth", want)
		}
		if got := runDequeTask(t, st); got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
}

func TestWSDeque_ConcurrentStealNoLossNoDup(t *testing.T) {
	const total = 10_000
	const thieves = 4

	dq := newWSDeque[int](64)
	seen := make([]atomic.Int32, total)

	var consumed atomic.Int64
	var wg sync.WaitGroup

	take := func(st *submittedTask[int]) {
		v, _ := st.task.body(context.Background())
		seen[v].Add(1)
		consumed.Add(1)
	}

	done := make(chan struct{})
	for range thieves {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if st := dq.popFront(); st != nil {
					take(st)
					continue
				}
				select {
				case <-done:
					// Final sweep: the owner has stopped, anything left is ours.
					if st := dq.popFront(); st != nil {
						take(st)
						continue
					}
					return
				default:
				}
			}
		}()
	}

	// The owner interleaves pushes with tail pops, racing the thieves.
	for i := range total {
		dq.pushBack(dequeTask(i))
		if i%3 == 0 {
			if st := dq.popBack(); st != nil {
				take(st)
			}
		}
	}
	for {
		st := dq.popBack()
		if st == nil {
			break
		}
		take(st)
	}
	close(done)
	wg.Wait()

	// Drain stragglers left by a losing CAS on the final element.
	for {
		st := dq.popFront()
		if st == nil {
			break
		}
		take(st)
	}

	if got := consumed.Load(); got != total {
		t.Fatalf("expected %d tasks consumed, got %d", total, got)
	}
	for i := range seen {
		if n := seen[i].Load(); n != 1 {
			t.Fatalf("task %d consumed %d times", i, n)
		}
	}
}

func TestWSDeque_GrowthUnderConcurrentSteal(t *testing.T) {
	// A tiny initial ring forces repeated growth while thieves are mid-steal,
	// so a thief holding a pre-growth ring snapshot must still index it
	// correctly and lose its CAS cleanly when the owner wins.
	const total = 5_000
	const thieves = 3

	dq := newWSDeque[int](2)
	seen := make([]atomic.Int32, total)
	var consumed atomic.Int64

	var wg sync.WaitGroup
	done := make(chan struct{})
	for range thieves {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if st := dq.popFront(); st != nil {
					v, _ := st.task.body(context.Background())
					seen[v].Add(1)
					consumed.Add(1)
					continue
				}
				select {
				case <-done:
					return
				default:
				}
			}
		}()
	}

	for i := range total {
		dq.pushBack(dequeTask(i))
	}
	// Owner drains whatever the thieves have not taken.
	for {
		st := dq.popBack()
		if st == nil && dq.len() == 0 {
			break
		}
		if st != nil {
			v, _ := st.task.body(context.Background())
			seen[v].Add(1)
			consumed.Add(1)
		}
	}
	close(done)
	wg.Wait()

	if got := consumed.Load(); got != total {
		t.Fatalf("expected %d tasks consumed, got %d", total, got)
	}
	for i := range seen {
		if n := seen[i].Load(); n != 1 {
			t.Fatalf("task %d consumed %d times", i, n)
		}
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]int{
		-1:  1,
		0:   1,
		1:   1,
		2:   2,
		3:   4,
		5:   8,
		64:  64,
		100: 128,
	}
	for in, want := range cases {
		if got := nextPowerOfTwo(in); got != want {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", in, got, want)
		}
	}
}
