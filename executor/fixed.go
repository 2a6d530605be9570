package executor

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/exekit/exekit/future"
	"golang.org/x/sync/errgroup"
)

// Fixed is a pool of exactly n workers contending on one shared FIFO queue.
// The worker count never changes during normal operation. The queue is
// unbounded by default; WithQueueBound turns overload into ErrPoolExhausted
// instead of unbounded accumulation.
//
// Contention on the shared queue scales with n: for CPU-bound work, sizing
// beyond the core count degrades throughput rather than improving it.
type Fixed[R any] struct {
	cfg     *config
	queue   *fifo[R]
	n       int
	cancel  context.CancelFunc
	done    chan struct{}
	closing atomic.Bool
}

// NewFixed creates and starts a fixed pool of n workers. n <= 0 defaults to
// runtime.GOMAXPROCS(0).
func NewFixed[R any](n int, opts ...Option) *Fixed[R] {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	cfg := newConfig("fixed", opts...)
	ctx, cancel := context.WithCancel(context.Background())

	f := &Fixed[R]{
		cfg:    cfg,
		queue:  newFIFO[R](cfg.queueBound),
		n:      n,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	var g errgroup.Group
	for i := range n {
		g.Go(func() error {
			f.worker(ctx, i)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(f.done)
	}()

	cfg.metrics.RecordWorkerCount(cfg.name, n)
	return f
}

// Submit enqueues the task and returns its future without blocking.
func (f *Fixed[R]) Submit(t *Task[R]) (*future.Future[R], error) {
	st := newSubmitted(t)
	if err := f.queue.push(st); err != nil {
		f.cfg.metrics.RecordTaskRejected(f.cfg.name, rejectReason(err))
		return nil, err
	}
	f.cfg.metrics.RecordQueueDepth(f.cfg.name, f.queue.len())
	return st.promise.Future(), nil
}

// Shutdown stops intake. With drain it waits for queued and running tasks,
// bounded by WithShutdownTimeout.
func (f *Fixed[R]) Shutdown(drain bool) error {
	if !f.closing.CompareAndSwap(false, true) {
		return ErrExecutorClosed
	}
	f.queue.close()
	if !drain {
		f.cancel()
		return nil
	}
	err := waitUntil(f.done, f.cfg.shutdownTimeout)
	f.cancel()
	return err
}

// WorkerCount returns the configured worker count.
func (f *Fixed[R]) WorkerCount() int { return f.n }

func (f *Fixed[R]) worker(ctx context.Context, id int) {
	log := f.cfg.log.WithField("pool", f.cfg.name).WithField("worker", id)
	log.Debug("worker started")
	defer log.Debug("worker stopped")

	for {
		if st, ok := f.queue.pop(); ok {
			runTask(ctx, f.cfg, st)
			continue
		}

		select {
		case <-f.queue.wake:
		case <-f.queue.done:
			f.drain(ctx)
			return
		case <-ctx.Done():
			return
		}
	}
}

func (f *Fixed[R]) drain(ctx context.Context) {
	for {
		st, ok := f.queue.pop()
		if !ok {
			return
		}
		runTask(ctx, f.cfg, st)
	}
}

func rejectReason(err error) string {
	switch err {
	case ErrExecutorClosed:
		return "closed"
	case ErrPoolExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}
