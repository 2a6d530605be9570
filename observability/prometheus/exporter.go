// Package prometheus adapts executor.Metrics to Prometheus collectors.
package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/exekit/exekit/executor"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter implements executor.Metrics on Prometheus collectors.
type MetricsExporter struct {
	taskDurationSeconds *prom.HistogramVec
	queueWaitSeconds    *prom.HistogramVec
	taskPanicTotal      *prom.CounterVec
	taskRejectedTotal   *prom.CounterVec
	queueDepth          *prom.GaugeVec
	workerCount         *prom.GaugeVec
}

var _ executor.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers the collectors. A nil registerer
// falls back to the default one; an empty namespace falls back to "exekit".
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "exekit"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Task body execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"pool", "kind"})
	waitVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "queue_wait_seconds",
		Help:      "Time tasks spend queued before a worker picks them up.",
		Buckets:   buckets,
	}, []string{"pool", "kind"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of task panics recovered at the execution boundary.",
	}, []string{"pool"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_rejected_total",
		Help:      "Total number of rejected submissions.",
	}, []string{"pool", "reason"})
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Queue depth observed after a submission.",
	}, []string{"pool"})
	workerCountVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "worker_count",
		Help:      "Current worker count per pool.",
	}, []string{"pool"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if waitVec, err = registerCollector(reg, waitVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if queueDepthVec, err = registerCollector(reg, queueDepthVec); err != nil {
		return nil, err
	}
	if workerCountVec, err = registerCollector(reg, workerCountVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		taskDurationSeconds: durationVec,
		queueWaitSeconds:    waitVec,
		taskPanicTotal:      panicVec,
		taskRejectedTotal:   rejectedVec,
		queueDepth:          queueDepthVec,
		workerCount:         workerCountVec,
	}, nil
}

// RecordQueueWait records time spent queued.
func (m *MetricsExporter) RecordQueueWait(pool string, kind executor.Kind, wait time.Duration) {
	if m == nil {
		return
	}
	m.queueWaitSeconds.WithLabelValues(normalizeLabel(pool), kind.String()).Observe(wait.Seconds())
}

// RecordTaskDuration records task body duration.
func (m *MetricsExporter) RecordTaskDuration(pool string, kind executor.Kind, d time.Duration) {
	if m == nil {
		return
	}
	m.taskDurationSeconds.WithLabelValues(normalizeLabel(pool), kind.String()).Observe(d.Seconds())
}

// RecordTaskPanic records a recovered task panic.
func (m *MetricsExporter) RecordTaskPanic(pool string) {
	if m == nil {
		return
	}
	m.taskPanicTotal.WithLabelValues(normalizeLabel(pool)).Inc()
}

// RecordTaskRejected records a rejected submission.
func (m *MetricsExporter) RecordTaskRejected(pool string, reason string) {
	if m == nil {
		return
	}
	m.taskRejectedTotal.WithLabelValues(normalizeLabel(pool), normalizeLabel(reason)).Inc()
}

// RecordQueueDepth records observed queue depth.
func (m *MetricsExporter) RecordQueueDepth(pool string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(normalizeLabel(pool)).Set(float64(depth))
}

// RecordWorkerCount records the live worker count.
func (m *MetricsExporter) RecordWorkerCount(pool string, count int) {
	if m == nil {
		return
	}
	m.workerCount.WithLabelValues(normalizeLabel(pool)).Set(float64(count))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
