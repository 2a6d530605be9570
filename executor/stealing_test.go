package executor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/exekit/exekit/future"
)

func TestWorkStealing_ManyTasks(t *testing.T) {
	const n = 500

	pool := NewWorkStealing[int](4)
	defer func() { _ = pool.Shutdown(true) }()

	var sum atomic.Int64
	futures := make([]*future.Future[int], 0, n)

	for i := range n {
		f, err := pool.Submit(NewTask(KindCPUBound, func(ctx context.Context) (int, error) {
			sum.Add(int64(i))
			return i, nil
		}))
		if err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
		futures = append(futures, f)
	}

	results, err := future.All(futures...).Await(10 * time.Second)
	if err != nil {
		t.Fatalf("tasks failed: %v", err)
	}
	for i, v := range results {
		if v != i {
			t.Fatalf("result %d: expected %d, got %d", i, i, v)
		}
	}

	// Every body ran exactly once.
	want := int64(n * (n - 1) / 2)
	if got := sum.Load(); got != want {
		t.Errorf("expected sum %d, got %d", want, got)
	}
}

func TestWorkStealing_LongTaskDoesNotStarvePeers(t *testing.T) {
	pool := NewWorkStealing[int](4)
	defer func() { _ = pool.Shutdown(true) }()

	blocker, err := pool.Submit(NewTask(KindCPUBound, func(ctx context.Context) (int, error) {
		time.Sleep(600 * time.Millisecond)
		return -1, nil
	}))
	if err != nil {
		t.Fatalf("submit blocker failed: %v", err)
	}

	shorts := make([]*future.Future[int], 0, 9)
	for i := range 9 {
		f, err := pool.Submit(NewTask(KindCPUBound, func(ctx context.Context) (int, error) {
			time.Sleep(5 * time.Millisecond)
			return i, nil
		}))
		if err != nil {
			t.Fatalf("submit short %d failed: %v", i, err)
		}
		shorts = append(shorts, f)
	}

	// The remaining workers must finish the short tasks long before the
	// blocker releases its slot.
	start := time.Now()
	if _, err := future.All(shorts...).Await(2 * time.Second); err != nil {
		t.Fatalf("short tasks failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed >= 500*time.Millisecond {
		t.Errorf("short tasks took %v, starved behind the long task", elapsed)
	}

	if _, err := blocker.Await(2 * time.Second); err != nil {
		t.Fatalf("blocker failed: %v", err)
	}
}

func TestWorkStealing_ShutdownDrain(t *testing.T) {
	pool := NewWorkStealing[int](2)

	futures := make([]*future.Future[int], 0, 40)
	for i := range 40 {
		f, err := pool.Submit(NewTask(KindCPUBound, func(ctx context.Context) (int, error) {
			time.Sleep(time.Millisecond)
			return i, nil
		}))
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}
		futures = append(futures, f)
	}

	if err := pool.Shutdown(true); err != nil {
		t.Fatalf("drain shutdown failed: %v", err)
	}

	for i, f := range futures {
		v, err, ready := f.TryGet()
		if !ready {
			t.Fatalf("task %d not finished after drain", i)
		}
		if err != nil || v != i {
			t.Errorf("task %d: got (%d, %v)", i, v, err)
		}
	}

	if _, err := pool.Submit(NewTask(KindCPUBound, func(ctx context.Context) (int, error) {
		return 0, nil
	})); !errors.Is(err, ErrExecutorClosed) {
		t.Errorf("expected ErrExecutorClosed after shutdown, got %v", err)
	}
}

func TestWorkStealing_DefaultParallelism(t *testing.T) {
	pool := NewWorkStealing[int](0)
	defer func() { _ = pool.Shutdown(false) }()

	if pool.WorkerCount() <= 0 {
		t.Errorf("expected positive default parallelism, got %d", pool.WorkerCount())
	}
}
