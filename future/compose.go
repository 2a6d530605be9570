package future

import (
	"errors"
	"sync/atomic"
)

// ErrNoFutures is returned by FirstCompleted when called with no futures.
var ErrNoFutures = errors.New("future: no futures to wait on")

// Outcome is the per-child result reported by AllSettled.
type Outcome[T any] struct {
	Value T
	Err   error
}

// All returns a composite future that resolves to the results of all input
// futures, in input index order, regardless of the order in which they
// complete. It fails as soon as any child fails (short-circuit policy):
// remaining children keep running, but their outcomes no longer affect the
// composite. Use AllSettled to collect every outcome instead.
//
// With no input futures the composite resolves immediately to an empty slice.
func All[T any](futures ...*Future[T]) *Future[[]T] {
	p := NewPromise[[]T]()
	n := len(futures)
	if n == 0 {
		_ = p.Resolve([]T{})
		return p.Future()
	}

	results := make([]T, n)
	var remaining atomic.Int64
	remaining.Store(int64(n))

	for i, f := range futures {
		f.OnComplete(func(v T, err error) {
			if err != nil {
				// First failure wins; later transitions lose the race and
				// return ErrAlreadyResolved, which is the intended outcome.
				_ = p.Fail(err)
				return
			}
			results[i] = v
			if remaining.Add(-1) == 0 {
				_ = p.Resolve(results)
			}
		})
	}
	return p.Future()
}

// AllSettled returns a composite future that waits for every child and
// resolves to their outcomes in input index order. It never fails: per-child
// failures are reported in the corresponding Outcome (collect-all policy).
func AllSettled[T any](futures ...*Future[T]) *Future[[]Outcome[T]] {
	p := NewPromise[[]Outcome[T]]()
	n := len(futures)
	if n == 0 {
		_ = p.Resolve([]Outcome[T]{})
		return p.Future()
	}

	outcomes := make([]Outcome[T], n)
	var remaining atomic.Int64
	remaining.Store(int64(n))

	for i, f := range futures {
		f.OnComplete(func(v T, err error) {
			outcomes[i] = Outcome[T]{Value: v, Err: err}
			if remaining.Add(-1) == 0 {
				_ = p.Resolve(outcomes)
			}
		})
	}
	return p.Future()
}

// FirstCompleted returns a future that adopts the outcome of whichever input
// future reaches a terminal state first, value or error alike. With no input
// futures it fails immediately with ErrNoFutures.
func FirstCompleted[T any](futures ...*Future[T]) *Future[T] {
	p := NewPromise[T]()
	if len(futures) == 0 {
		_ = p.Fail(ErrNoFutures)
		return p.Future()
	}

	for _, f := range futures {
		f.OnComplete(func(v T, err error) {
			if err != nil {
				_ = p.Fail(err)
				return
			}
			_ = p.Resolve(v)
		})
	}
	return p.Future()
}
