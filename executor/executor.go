package executor

import (
	"context"
	"runtime"
	"time"

	"github.com/exekit/exekit/future"
)

// Executor accepts tasks and runs them according to a pool policy.
//
// Submit enqueues the task and returns immediately with a pending future
// bound to the task's eventual outcome; it never blocks the submitting
// goroutine. It returns ErrExecutorClosed after Shutdown and ErrPoolExhausted
// when a configured bound rejects the task.
//
// Shutdown stops intake. With drain=true it waits for queued and running
// tasks to finish (bounded by WithShutdownTimeout); with drain=false it
// returns immediately and in-flight tasks race with teardown — their outcome
// is unspecified.
type Executor[R any] interface {
	Submit(task *Task[R]) (*future.Future[R], error)
	Shutdown(drain bool) error
	WorkerCount() int
}

// runTask is the task-execution boundary shared by every pool policy. It
// records queue wait, applies rate limiting and hooks, catches panics, and
// resolves the task's promise. An error never escapes to the worker loop.
func runTask[R any](ctx context.Context, cfg *config, st *submittedTask[R]) {
	t := st.task
	cfg.metrics.RecordQueueWait(cfg.name, t.kind, time.Since(t.submittedAt))

	if cfg.limiter != nil {
		if err := cfg.limiter.Wait(ctx); err != nil {
			_ = st.promise.Fail(err)
			return
		}
	}

	if cfg.beforeTask != nil {
		cfg.beforeTask(t.kind)
	}

	start := time.Now()
	var err error
	if t.start != nil {
		err = runCallbackTask(ctx, cfg, st)
	} else {
		var v R
		v, err = invoke(ctx, cfg, t.body)
		if err != nil {
			_ = st.promise.Fail(err)
		} else {
			_ = st.promise.Resolve(v)
		}
	}
	d := time.Since(start)

	cfg.metrics.RecordTaskDuration(cfg.name, t.kind, d)
	if cfg.afterTask != nil {
		cfg.afterTask(t.kind, d, err)
	}
}

// invoke runs a task body with panic recovery. A panic becomes a *PanicError
// carrying the stack trace; the worker loop never sees it.
func invoke[R any](ctx context.Context, cfg *config, body func(context.Context) (R, error)) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			perr := &PanicError{Value: r, Stack: buf[:n]}
			cfg.metrics.RecordTaskPanic(cfg.name)
			cfg.log.WithField("pool", cfg.name).Errorf("recovered task panic: %v\n%s", r, buf[:n])
			err = perr
		}
	}()
	return body(ctx)
}

// runCallbackTask invokes the registration func of a KindAsyncCallback task.
// The worker is released as soon as registration returns; the promise
// resolves whenever the platform callback fires. A panic during registration
// fails the promise like any other body panic.
func runCallbackTask[R any](ctx context.Context, cfg *config, st *submittedTask[R]) error {
	complete := func(v R, err error) {
		if err != nil {
			_ = st.promise.Fail(err)
			return
		}
		_ = st.promise.Resolve(v)
	}

	_, err := invoke(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		st.task.start(ctx, complete)
		return struct{}{}, nil
	})
	if err != nil {
		_ = st.promise.Fail(err)
	}
	return err
}

// waitUntil blocks until done is closed or the timeout elapses. A timeout of
// zero or less waits forever.
func waitUntil(done <-chan struct{}, timeout time.Duration) error {
	if timeout <= 0 {
		<-done
		return nil
	}
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}
