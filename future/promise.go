package future

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrAlreadyResolved is returned when a Promise is resolved or failed a
	// second time. The second transition is a programmer error and is
	// reported, never silently dropped; the first outcome stays in place.
	ErrAlreadyResolved = errors.New("future: promise already resolved")

	// ErrAwaitTimeout is returned by Await when the deadline elapses before
	// the future reaches a terminal state. The future itself is untouched and
	// can still be awaited or observed afterwards.
	ErrAwaitTimeout = errors.New("future: await timeout")
)

// cell is the shared completion state behind a Promise/Future pair.
// It transitions from pending to terminal exactly once; done is closed at
// transition time, after value and err have been written.
type cell[T any] struct {
	done      chan struct{}
	value     T
	err       error
	mu        sync.Mutex // guards completed + callbacks
	completed bool
	callbacks []func(T, error)
}

func newCell[T any]() *cell[T] {
	return &cell[T]{done: make(chan struct{})}
}

// complete performs the single pending->terminal transition.
func (c *cell[T]) complete(v T, err error) error {
	c.mu.Lock()
	if c.completed {
		c.mu.Unlock()
		return ErrAlreadyResolved
	}
	c.value = v
	c.err = err
	c.completed = true
	cbs := c.callbacks
	c.callbacks = nil
	close(c.done)
	c.mu.Unlock()

	// Continuations run on the resolving goroutine, outside the lock so that
	// a callback may itself register further callbacks or await other futures.
	for _, cb := range cbs {
		runCallback(cb, v, err)
	}
	return nil
}

// runCallback invokes a continuation with panic containment: a panicking
// continuation must not take down the resolving worker or skip its peers.
func runCallback[T any](cb func(T, error), v T, err error) {
	defer func() {
		_ = recover()
	}()
	cb(v, err)
}

// Promise is the write-once producer side of a Future.
type Promise[T any] struct {
	c *cell[T]
}

// NewPromise creates a pending Promise.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{c: newCell[T]()}
}

// Future returns the read side of the promise. All futures returned from the
// same promise observe the same completion.
func (p *Promise[T]) Future() *Future[T] {
	return &Future[T]{c: p.c}
}

// Resolve transitions the promise to Resolved with the given value.
// It returns ErrAlreadyResolved if the promise is already terminal.
func (p *Promise[T]) Resolve(v T) error {
	return p.c.complete(v, nil)
}

// Fail transitions the promise to Failed with the given error.
// It returns ErrAlreadyResolved if the promise is already terminal.
func (p *Promise[T]) Fail(err error) error {
	var zero T
	return p.c.complete(zero, err)
}

// Future is a read-only handle to a value or error that becomes available at
// most once.
type Future[T any] struct {
	c *cell[T]
}

// Completed returns a future that is already resolved with v.
func Completed[T any](v T) *Future[T] {
	p := NewPromise[T]()
	_ = p.Resolve(v)
	return p.Future()
}

// Failed returns a future that is already failed with err.
func Failed[T any](err error) *Future[T] {
	p := NewPromise[T]()
	_ = p.Fail(err)
	return p.Future()
}

// Done returns a channel that is closed once the future is terminal.
func (f *Future[T]) Done() <-chan struct{} {
	return f.c.done
}

// Get blocks the calling goroutine until the future is terminal and returns
// its outcome. Only the caller suspends; no pool worker is parked on its
// behalf.
func (f *Future[T]) Get() (T, error) {
	<-f.c.done
	return f.c.value, f.c.err
}

// Await blocks until the future is terminal or the timeout elapses.
// On timeout it returns ErrAwaitTimeout without mutating the future: the
// underlying task keeps running and a later Await or Get may still observe
// the result. A timeout of zero or less waits indefinitely.
func (f *Future[T]) Await(timeout time.Duration) (T, error) {
	if timeout <= 0 {
		return f.Get()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.c.done:
		return f.c.value, f.c.err
	case <-timer.C:
		var zero T
		return zero, ErrAwaitTimeout
	}
}

// GetContext blocks until the future is terminal or ctx is done, returning
// ctx.Err() in the latter case.
func (f *Future[T]) GetContext(ctx context.Context) (T, error) {
	select {
	case <-f.c.done:
		return f.c.value, f.c.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryGet polls the future without blocking. The third return reports whether
// the future was terminal; when false the other returns are zero values.
func (f *Future[T]) TryGet() (T, error, bool) {
	select {
	case <-f.c.done:
		return f.c.value, f.c.err, true
	default:
		var zero T
		return zero, nil, false
	}
}

// OnComplete registers a continuation invoked exactly once with the future's
// outcome. Continuations registered while pending run on the goroutine that
// performs the resolving transition, in no guaranteed order relative to each
// other. If the future is already terminal, the continuation runs
// synchronously on the calling goroutine before OnComplete returns.
func (f *Future[T]) OnComplete(fn func(T, error)) {
	if fn == nil {
		panic("future: OnComplete callback cannot be nil")
	}

	f.c.mu.Lock()
	if !f.c.completed {
		f.c.callbacks = append(f.c.callbacks, fn)
		f.c.mu.Unlock()
		return
	}
	v, err := f.c.value, f.c.err
	f.c.mu.Unlock()
	runCallback(fn, v, err)
}
