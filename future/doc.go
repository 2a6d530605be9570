// Package future provides a write-once Promise/Future pair for communicating
// the result of deferred work between goroutines.
//
// A Promise is the producer side: it is resolved with a value or failed with
// an error exactly once. A Future is the consumer side: it can be awaited
// (with or without a timeout), polled, or observed through completion
// callbacks. The package also provides composition over multiple futures:
// All, AllSettled and FirstCompleted.
//
// # Basic Usage
//
//	p := future.NewPromise[int]()
//	go func() {
//	    p.Resolve(compute())
//	}()
//	v, err := p.Future().Await(time.Second)
//
// # Completion Callbacks
//
// OnComplete registers a continuation that fires exactly once. If the future
// is still pending, the continuation runs on whichever goroutine performs the
// resolving transition. If the future is already terminal, it runs
// synchronously on the registering goroutine. Callers must not assume a fixed
// execution goroutine for continuations.
package future
