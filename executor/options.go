package executor

import (
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Option is a functional option for configuring an executor.
type Option func(*config)

type config struct {
	name            string
	queueBound      int
	workerCap       int
	localQueueSize  int
	shutdownTimeout time.Duration
	limiter         *rate.Limiter
	log             logrus.FieldLogger
	metrics         Metrics
	beforeTask      func(Kind)
	afterTask       func(Kind, time.Duration, error)
}

func newConfig(name string, opts ...Option) *config {
	cfg := &config{
		name:           name,
		localQueueSize: 256,
		log:            logrus.StandardLogger(),
		metrics:        nopMetrics{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithName sets the pool name used in logs and metrics labels.
func WithName(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.name = name
		}
	}
}

// WithQueueBound bounds the number of queued (not yet running) tasks.
// Submissions beyond the bound are rejected with ErrPoolExhausted.
// Zero (the default) means unbounded.
func WithQueueBound(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.queueBound = n
		}
	}
}

// WithWorkerCap caps the worker count of a cached pool. Zero means no cap,
// which risks unbounded thread creation under load spikes; production cached
// pools should always set one. Ignored by the other policies.
func WithWorkerCap(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.workerCap = n
		}
	}
}

// WithShutdownTimeout bounds how long a draining Shutdown waits for in-flight
// work. Zero (the default) waits forever.
func WithShutdownTimeout(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.shutdownTimeout = d
		}
	}
}

// WithRateLimit throttles task execution to tasksPerSecond with the given
// burst. Workers wait on the limiter before running each task body.
func WithRateLimit(tasksPerSecond float64, burst int) Option {
	return func(cfg *config) {
		if tasksPerSecond > 0 && burst > 0 {
			cfg.limiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}

// WithLogger sets the logger for worker lifecycle and panic reporting.
// Defaults to logrus.StandardLogger().
func WithLogger(log logrus.FieldLogger) Option {
	return func(cfg *config) {
		if log != nil {
			cfg.log = log
		}
	}
}

// WithMetrics sets the metrics sink for the pool. Defaults to a no-op.
func WithMetrics(m Metrics) Option {
	return func(cfg *config) {
		if m != nil {
			cfg.metrics = m
		}
	}
}

// WithBeforeTask registers a hook invoked on the worker goroutine immediately
// before each task body runs.
func WithBeforeTask(fn func(kind Kind)) Option {
	return func(cfg *config) {
		cfg.beforeTask = fn
	}
}

// WithAfterTask registers a hook invoked on the worker goroutine after each
// task body finishes, with the body's duration and outcome.
func WithAfterTask(fn func(kind Kind, d time.Duration, err error)) Option {
	return func(cfg *config) {
		cfg.afterTask = fn
	}
}

// WithLocalQueueSize sets the initial capacity of each work-stealing worker's
// local deque. Ignored by the other policies.
func WithLocalQueueSize(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.localQueueSize = n
		}
	}
}
