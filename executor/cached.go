package executor

import (
	"context"
	"sync"
	"time"

	"github.com/exekit/exekit/future"
	"github.com/sirupsen/logrus"
)

// Cached is an elastic pool: it starts with zero workers, grows by one on
// every submission that finds no idle worker (up to WithWorkerCap, if set),
// and retires workers that sit idle past idleTimeout. With both a worker cap
// and a queue bound exhausted, Submit rejects with ErrPoolExhausted.
//
// Cached pools suit blocking workloads: parked threads cost almost no CPU, so
// the pool is sized to the expected concurrent blocking-call count. Running
// one without a cap risks unbounded growth under load spikes.
type Cached[R any] struct {
	cfg         *config
	queue       *fifo[R]
	idleTimeout time.Duration
	cancel      context.CancelFunc
	ctx         context.Context

	mu      sync.Mutex // guards workers, idle and the grow/retire decisions
	workers int
	idle    int
	wg      sync.WaitGroup
	done    chan struct{}
	closing bool
}

// NewCached creates a cached pool. Workers idle past idleTimeout retire;
// idleTimeout <= 0 defaults to 30 seconds.
func NewCached[R any](idleTimeout time.Duration, opts ...Option) *Cached[R] {
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Second
	}
	cfg := newConfig("cached", opts...)
	ctx, cancel := context.WithCancel(context.Background())

	return &Cached[R]{
		cfg:         cfg,
		queue:       newFIFO[R](0), // bound enforced in Submit, under c.mu
		idleTimeout: idleTimeout,
		cancel:      cancel,
		ctx:         ctx,
		done:        make(chan struct{}),
	}
}

// Submit enqueues the task, growing the pool by one worker when no idle
// worker is available and the cap allows it. It never blocks.
func (c *Cached[R]) Submit(t *Task[R]) (*future.Future[R], error) {
	st := newSubmitted(t)

	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		c.cfg.metrics.RecordTaskRejected(c.cfg.name, "closed")
		return nil, ErrExecutorClosed
	}

	grow := false
	if c.idle == 0 {
		if c.cfg.workerCap == 0 || c.workers < c.cfg.workerCap {
			grow = true
			c.workers++
			c.wg.Add(1)
		} else if c.cfg.queueBound > 0 && c.queue.len() >= c.cfg.queueBound {
			// Cap and bound both exhausted: reject synchronously rather than
			// queue past the configured limits.
			c.mu.Unlock()
			c.cfg.metrics.RecordTaskRejected(c.cfg.name, "exhausted")
			return nil, ErrPoolExhausted
		}
	}

	// Push while holding c.mu so a retiring worker's empty-queue check can
	// never interleave between our idle-count read and the enqueue.
	if err := c.queue.push(st); err != nil {
		if grow {
			c.workers--
			c.wg.Done()
		}
		c.mu.Unlock()
		c.cfg.metrics.RecordTaskRejected(c.cfg.name, rejectReason(err))
		return nil, err
	}
	workers := c.workers
	c.mu.Unlock()

	if grow {
		go c.worker(workers - 1)
		c.cfg.metrics.RecordWorkerCount(c.cfg.name, workers)
	}
	c.cfg.metrics.RecordQueueDepth(c.cfg.name, c.queue.len())
	return st.promise.Future(), nil
}

// Shutdown stops intake; with drain it waits for all live workers to finish
// the queued and running work.
func (c *Cached[R]) Shutdown(drain bool) error {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return ErrExecutorClosed
	}
	c.closing = true
	c.mu.Unlock()

	c.queue.close()
	go func() {
		c.wg.Wait()
		close(c.done)
	}()

	if !drain {
		c.cancel()
		return nil
	}
	err := waitUntil(c.done, c.cfg.shutdownTimeout)
	c.cancel()
	return err
}

// WorkerCount returns the number of currently live workers.
func (c *Cached[R]) WorkerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workers
}

func (c *Cached[R]) worker(id int) {
	defer c.wg.Done()

	log := c.cfg.log.WithField("pool", c.cfg.name).WithField("worker", id)
	log.Debug("worker started")

	idleTimer := time.NewTimer(c.idleTimeout)
	defer idleTimer.Stop()

	for {
		if st, ok := c.queue.pop(); ok {
			runTask(c.ctx, c.cfg, st)
			continue
		}

		c.mu.Lock()
		c.idle++
		c.mu.Unlock()

		if !idleTimer.Stop() {
			select {
			case <-idleTimer.C:
			default:
			}
		}
		idleTimer.Reset(c.idleTimeout)

		select {
		case <-c.queue.wake:
			c.mu.Lock()
			c.idle--
			c.mu.Unlock()

		case <-idleTimer.C:
			// Re-check the queue under c.mu: a submission that saw this
			// worker as idle may have just enqueued without growing.
			c.mu.Lock()
			if c.queue.len() > 0 {
				c.idle--
				c.mu.Unlock()
				continue
			}
			c.idle--
			c.workers--
			workers := c.workers
			c.mu.Unlock()
			c.cfg.metrics.RecordWorkerCount(c.cfg.name, workers)
			log.Debug("worker retired after idle timeout")
			return

		case <-c.queue.done:
			c.mu.Lock()
			c.idle--
			c.mu.Unlock()
			c.drainAndExit(log)
			return

		case <-c.ctx.Done():
			c.mu.Lock()
			c.idle--
			c.workers--
			workers := c.workers
			c.mu.Unlock()
			c.cfg.metrics.RecordWorkerCount(c.cfg.name, workers)
			log.Debug("worker stopped")
			return
		}
	}
}

func (c *Cached[R]) drainAndExit(log logrus.FieldLogger) {
	for {
		st, ok := c.queue.pop()
		if !ok {
			break
		}
		runTask(c.ctx, c.cfg, st)
	}
	c.mu.Lock()
	c.workers--
	workers := c.workers
	c.mu.Unlock()
	c.cfg.metrics.RecordWorkerCount(c.cfg.name, workers)
	log.Debug("worker stopped")
}
