package executor

import (
	"context"
	"sync/atomic"

	"github.com/exekit/exekit/future"
)

// SingleThread runs every task sequentially on one dedicated worker, in
// strict submission order. Its queue is unbounded by default: submissions are
// never rejected, tasks simply accumulate, so sustained overload grows memory
// without limit. Use WithQueueBound to trade accumulation for rejection.
type SingleThread[R any] struct {
	cfg     *config
	queue   *fifo[R]
	cancel  context.CancelFunc
	stopped chan struct{}
	closing atomic.Bool
}

// NewSingleThread creates the pool and starts its dedicated worker.
func NewSingleThread[R any](opts ...Option) *SingleThread[R] {
	cfg := newConfig("single", opts...)
	ctx, cancel := context.WithCancel(context.Background())

	s := &SingleThread[R]{
		cfg:     cfg,
		queue:   newFIFO[R](cfg.queueBound),
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
	go s.runLoop(ctx)

	cfg.metrics.RecordWorkerCount(cfg.name, 1)
	return s
}

// Submit enqueues the task and returns its future without blocking. Tasks
// run in the exact order they were submitted.
func (s *SingleThread[R]) Submit(t *Task[R]) (*future.Future[R], error) {
	st := newSubmitted(t)
	if err := s.queue.push(st); err != nil {
		s.cfg.metrics.RecordTaskRejected(s.cfg.name, rejectReason(err))
		return nil, err
	}
	s.cfg.metrics.RecordQueueDepth(s.cfg.name, s.queue.len())
	return st.promise.Future(), nil
}

// Shutdown stops intake; with drain it waits for the queue to empty and the
// running task to finish.
func (s *SingleThread[R]) Shutdown(drain bool) error {
	if !s.closing.CompareAndSwap(false, true) {
		return ErrExecutorClosed
	}
	s.queue.close()
	if !drain {
		s.cancel()
		return nil
	}
	err := waitUntil(s.stopped, s.cfg.shutdownTimeout)
	s.cancel()
	return err
}

// WorkerCount always returns 1.
func (s *SingleThread[R]) WorkerCount() int { return 1 }

func (s *SingleThread[R]) runLoop(ctx context.Context) {
	defer close(s.stopped)

	log := s.cfg.log.WithField("pool", s.cfg.name)
	log.Debug("worker started")
	defer log.Debug("worker stopped")

	for {
		if st, ok := s.queue.pop(); ok {
			runTask(ctx, s.cfg, st)
			continue
		}

		select {
		case <-s.queue.wake:
		case <-s.queue.done:
			for {
				st, ok := s.queue.pop()
				if !ok {
					return
				}
				runTask(ctx, s.cfg, st)
			}
		case <-ctx.Done():
			return
		}
	}
}
