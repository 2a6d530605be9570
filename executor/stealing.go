package executor

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/exekit/exekit/future"
	"golang.org/x/sync/errgroup"
)

const (
	batchTakeSize    = 8
	maxStealAttempts = 8
)

// WorkStealing keeps `parallelism` units of work in flight with minimal
// central contention. Each worker owns a local deque drained LIFO for cache
// locality; submissions land in a shared injection queue from which workers
// move batches into their local deques; an idle worker steals FIFO from the
// head of a peer's deque, probing peers round-robin from a randomized start
// and never blocking on an empty victim.
//
// A long blocking task still occupies its worker slot for its whole duration,
// so this policy is unsuitable for mixed blocking/CPU workloads; declare
// blocking tasks as KindBlocking and route them to a separate pool.
type WorkStealing[R any] struct {
	cfg         *config
	queue       *fifo[R] // injection queue; local deque pushes stay owner-only
	locals      []*wsDeque[R]
	parallelism int
	stealSeed   atomic.Uint64
	cancel      context.CancelFunc
	done        chan struct{}
	closing     atomic.Bool
}

// NewWorkStealing creates and starts a work-stealing pool. parallelism <= 0
// defaults to runtime.NumCPU(), the natural size for CPU-bound work.
func NewWorkStealing[R any](parallelism int, opts ...Option) *WorkStealing[R] {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	cfg := newConfig("work_stealing", opts...)
	ctx, cancel := context.WithCancel(context.Background())

	p := &WorkStealing[R]{
		cfg:         cfg,
		queue:       newFIFO[R](cfg.queueBound),
		locals:      make([]*wsDeque[R], parallelism),
		parallelism: parallelism,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	for i := range parallelism {
		p.locals[i] = newWSDeque[R](cfg.localQueueSize)
	}

	var g errgroup.Group
	for i := range parallelism {
		g.Go(func() error {
			p.worker(ctx, i)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(p.done)
	}()

	cfg.metrics.RecordWorkerCount(cfg.name, parallelism)
	return p
}

// Submit enqueues the task into the injection queue without blocking.
func (p *WorkStealing[R]) Submit(t *Task[R]) (*future.Future[R], error) {
	st := newSubmitted(t)
	if err := p.queue.push(st); err != nil {
		p.cfg.metrics.RecordTaskRejected(p.cfg.name, rejectReason(err))
		return nil, err
	}
	p.cfg.metrics.RecordQueueDepth(p.cfg.name, p.queue.len())
	return st.promise.Future(), nil
}

// Shutdown stops intake; with drain, workers empty their local deques and the
// injection queue before exiting.
func (p *WorkStealing[R]) Shutdown(drain bool) error {
	if !p.closing.CompareAndSwap(false, true) {
		return ErrExecutorClosed
	}
	p.queue.close()
	if !drain {
		p.cancel()
		return nil
	}
	err := waitUntil(p.done, p.cfg.shutdownTimeout)
	p.cancel()
	return err
}

// WorkerCount returns the configured parallelism.
func (p *WorkStealing[R]) WorkerCount() int { return p.parallelism }

// worker follows the work-stealing loop: local work, then the injection
// queue, then stealing, then backoff.
func (p *WorkStealing[R]) worker(ctx context.Context, id int) {
	log := p.cfg.log.WithField("pool", p.cfg.name).WithField("worker", id)
	log.Debug("worker started")
	defer log.Debug("worker stopped")

	local := p.locals[id]
	missCount := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.queue.done:
			p.drain(ctx, local)
			return
		default:
		}

		if t := local.popBack(); t != nil {
			runTask(ctx, p.cfg, t)
			missCount = 0
			continue
		}

		if st, ok := p.queue.pop(); ok {
			// Take a batch along: amortizes injection-queue contention and
			// gives peers something to steal while we run the first task.
			for range batchTakeSize - 1 {
				extra, ok := p.queue.pop()
				if !ok {
					break
				}
				local.pushBack(extra)
			}
			runTask(ctx, p.cfg, st)
			missCount = 0
			continue
		}

		if t := p.steal(id); t != nil {
			runTask(ctx, p.cfg, t)
			missCount = 0
			continue
		}

		missCount++
		p.backoff(missCount)
	}
}

// steal probes peers round-robin from a randomized start, taking from the
// head of a victim's deque. An empty victim moves the probe on without
// blocking.
func (p *WorkStealing[R]) steal(thiefID int) *submittedTask[R] {
	n := p.parallelism
	if n <= 1 {
		return nil
	}

	attempts := min(n-1, maxStealAttempts)
	start := int(p.stealSeed.Add(1) % uint64(n))

	for i := range attempts {
		victimID := (start + i) % n
		if victimID == thiefID {
			continue
		}
		if t := p.locals[victimID].popFront(); t != nil {
			return t
		}
	}
	return nil
}

// backoff keeps idle workers from busy-waiting: spin first for bursty
// arrivals, then yield, then sleep with exponential growth up to 5ms.
func (p *WorkStealing[R]) backoff(missCount int) {
	switch {
	case missCount <= 20:
		return

	case missCount <= 30:
		runtime.Gosched()

	default:
		sleepTime := 50 * time.Microsecond
		for i := 30; i < missCount && sleepTime < 5*time.Millisecond; i++ {
			sleepTime *= 2
		}
		if sleepTime > 5*time.Millisecond {
			sleepTime = 5 * time.Millisecond
		}
		time.Sleep(sleepTime)
	}
}

// drain empties the local deque and the injection queue during shutdown. The
// injection queue is shared, so concurrent draining workers split it between
// them.
func (p *WorkStealing[R]) drain(ctx context.Context, local *wsDeque[R]) {
	for {
		t := local.popBack()
		if t == nil {
			break
		}
		runTask(ctx, p.cfg, t)
	}
	for {
		st, ok := p.queue.pop()
		if !ok {
			return
		}
		runTask(ctx, p.cfg, st)
	}
}
