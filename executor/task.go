package executor

import (
	"context"
	"time"

	"github.com/exekit/exekit/future"
)

// Kind declares how a task's body behaves so it can be routed to a pool
// suited for it. Routing is by declared kind only: the runtime does not
// detect blocking behavior, and a mis-declared task silently degrades the
// throughput of whatever pool it lands on.
type Kind int

const (
	// KindCPUBound marks a task that keeps a core busy for its whole body.
	KindCPUBound Kind = iota

	// KindBlocking marks a task whose body parks its worker in the OS
	// (sleep, synchronous I/O) without consuming CPU.
	KindBlocking

	// KindAsyncCallback marks a task whose body only registers a platform
	// callback and returns; the result arrives later via that callback.
	KindAsyncCallback
)

func (k Kind) String() string {
	switch k {
	case KindCPUBound:
		return "cpu_bound"
	case KindBlocking:
		return "blocking"
	case KindAsyncCallback:
		return "async_callback"
	default:
		return "unknown"
	}
}

// Task is a unit of deferred work with a declared kind. A task is created by
// the caller, owned by the executor queue until dequeued, and owned by the
// executing worker until its promise is resolved.
type Task[R any] struct {
	kind        Kind
	body        func(context.Context) (R, error)
	start       func(context.Context, func(R, error))
	submittedAt time.Time
}

// NewTask creates a task whose body runs to completion on a worker and whose
// return resolves the task's future.
func NewTask[R any](kind Kind, body func(context.Context) (R, error)) *Task[R] {
	if body == nil {
		panic("executor: task body cannot be nil")
	}
	return &Task[R]{kind: kind, body: body}
}

// NewCallbackTask creates a KindAsyncCallback task. The worker invokes start,
// which registers a platform callback (timer, I/O completion) and returns;
// the task's future resolves when complete is invoked. Only the first call to
// complete takes effect.
func NewCallbackTask[R any](start func(ctx context.Context, complete func(R, error))) *Task[R] {
	if start == nil {
		panic("executor: task start func cannot be nil")
	}
	return &Task[R]{kind: KindAsyncCallback, start: start}
}

// Kind returns the declared kind of the task.
func (t *Task[R]) Kind() Kind { return t.kind }

// SubmittedAt returns the time the task was accepted by an executor, for
// queuing-delay diagnostics. Zero until the task has been submitted.
func (t *Task[R]) SubmittedAt() time.Time { return t.submittedAt }

// submittedTask binds a queued task to the promise its execution resolves.
type submittedTask[R any] struct {
	task    *Task[R]
	promise *future.Promise[R]
}

func newSubmitted[R any](t *Task[R]) *submittedTask[R] {
	t.submittedAt = time.Now()
	return &submittedTask[R]{
		task:    t,
		promise: future.NewPromise[R](),
	}
}
