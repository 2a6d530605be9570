// Package sched provides the scheduler facade: a single entry point that
// routes tasks to the executor configured for their declared kind and
// composes the returned futures.
//
// The facade exists to keep blocking work away from CPU-bound work. A
// blocking body parks its worker thread without consuming CPU; left on the
// CPU pool it starves the tasks queued behind it. Routing is by declared kind
// only — the runtime does not detect blocking behavior, and a mis-declared
// task silently degrades whichever pool it lands on.
//
// A Scheduler is an explicit capability object: call sites hold a reference
// and pass it along rather than relying on any ambient or thread-local
// default, so the pool a task lands on is always visible in the code.
package sched

import (
	"runtime"
	"time"

	"github.com/exekit/exekit/executor"
	"github.com/exekit/exekit/future"
	"github.com/sirupsen/logrus"
)

// Scheduler routes tasks by kind onto dedicated executors and never runs a
// task body itself. Defaults:
//
//   - KindCPUBound → work-stealing pool sized to runtime.NumCPU();
//     oversubscribing CPU-bound work only adds context-switch and
//     cache-locality loss.
//   - KindBlocking → cached pool, 30s idle timeout, capped at 64 workers;
//     blocking threads park in the OS, so the pool is sized to the expected
//     concurrent blocking-call count, never unbounded.
//   - KindAsyncCallback → single-thread pool; callback registration is cheap
//     and an event-loop style runner keeps registrations ordered.
type Scheduler[R any] struct {
	cpu      executor.Executor[R]
	blocking executor.Executor[R]
	callback executor.Executor[R]
	log      logrus.FieldLogger
}

// Option configures a Scheduler.
type Option[R any] func(*Scheduler[R])

// WithCPUExecutor replaces the pool serving KindCPUBound tasks.
func WithCPUExecutor[R any](e executor.Executor[R]) Option[R] {
	return func(s *Scheduler[R]) {
		if e != nil {
			s.cpu = e
		}
	}
}

// WithBlockingExecutor replaces the pool serving KindBlocking tasks.
func WithBlockingExecutor[R any](e executor.Executor[R]) Option[R] {
	return func(s *Scheduler[R]) {
		if e != nil {
			s.blocking = e
		}
	}
}

// WithCallbackExecutor replaces the pool serving KindAsyncCallback tasks.
func WithCallbackExecutor[R any](e executor.Executor[R]) Option[R] {
	return func(s *Scheduler[R]) {
		if e != nil {
			s.callback = e
		}
	}
}

// WithLogger sets the logger used for routing diagnostics.
func WithLogger[R any](log logrus.FieldLogger) Option[R] {
	return func(s *Scheduler[R]) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a scheduler with default pools for any kind not overridden.
func New[R any](opts ...Option[R]) *Scheduler[R] {
	s := &Scheduler[R]{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(s)
	}

	if s.cpu == nil {
		s.cpu = executor.NewWorkStealing[R](runtime.NumCPU(),
			executor.WithName("cpu"), executor.WithLogger(s.log))
	}
	if s.blocking == nil {
		s.blocking = executor.NewCached[R](30*time.Second,
			executor.WithName("blocking"), executor.WithWorkerCap(64),
			executor.WithLogger(s.log))
	}
	if s.callback == nil {
		s.callback = executor.NewSingleThread[R](
			executor.WithName("callback"), executor.WithLogger(s.log))
	}
	return s
}

// Submit routes the task to the executor configured for its kind and returns
// the pending future bound to its outcome. Submission never blocks.
func (s *Scheduler[R]) Submit(t *executor.Task[R]) (*future.Future[R], error) {
	return s.executorFor(t.Kind()).Submit(t)
}

// ExecutorFor exposes the executor serving a kind, for direct pool-level
// operations and diagnostics.
func (s *Scheduler[R]) ExecutorFor(kind executor.Kind) executor.Executor[R] {
	return s.executorFor(kind)
}

func (s *Scheduler[R]) executorFor(kind executor.Kind) executor.Executor[R] {
	switch kind {
	case executor.KindBlocking:
		return s.blocking
	case executor.KindAsyncCallback:
		return s.callback
	default:
		return s.cpu
	}
}

// All submits every task and returns a composite future that resolves to the
// results in submission order, failing short-circuit on the first task
// failure. A submission rejection fails the composite immediately; tasks
// already submitted keep running.
func (s *Scheduler[R]) All(tasks ...*executor.Task[R]) *future.Future[[]R] {
	futures := make([]*future.Future[R], 0, len(tasks))
	for _, t := range tasks {
		f, err := s.Submit(t)
		if err != nil {
			futures = append(futures, future.Failed[R](err))
			continue
		}
		futures = append(futures, f)
	}
	return future.All(futures...)
}

// AllSettled submits every task and returns a composite future that waits for
// every outcome, in submission order. It never fails: per-task failures,
// including submission rejections, are reported in the corresponding Outcome.
func (s *Scheduler[R]) AllSettled(tasks ...*executor.Task[R]) *future.Future[[]future.Outcome[R]] {
	futures := make([]*future.Future[R], 0, len(tasks))
	for _, t := range tasks {
		f, err := s.Submit(t)
		if err != nil {
			futures = append(futures, future.Failed[R](err))
			continue
		}
		futures = append(futures, f)
	}
	return future.AllSettled(futures...)
}

// FirstCompleted submits every task and returns a future that adopts the
// outcome of whichever finishes first.
func (s *Scheduler[R]) FirstCompleted(tasks ...*executor.Task[R]) *future.Future[R] {
	futures := make([]*future.Future[R], 0, len(tasks))
	for _, t := range tasks {
		f, err := s.Submit(t)
		if err != nil {
			futures = append(futures, future.Failed[R](err))
			continue
		}
		futures = append(futures, f)
	}
	return future.FirstCompleted(futures...)
}

// Shutdown shuts down every distinct pool. With drain it waits for each
// pool's queued and running tasks. The first error encountered is returned,
// but every pool is shut down regardless.
func (s *Scheduler[R]) Shutdown(drain bool) error {
	var first error
	seen := map[executor.Executor[R]]bool{}
	for _, e := range []executor.Executor[R]{s.cpu, s.blocking, s.callback} {
		if seen[e] {
			continue
		}
		seen[e] = true
		if err := e.Shutdown(drain); err != nil && first == nil {
			first = err
		}
	}
	return first
}
