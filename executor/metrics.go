package executor

import "time"

// Metrics receives execution events from a pool. Implementations must be safe
// for concurrent use; all methods are called from worker and submitter
// goroutines. The observability/prometheus package provides an adapter.
type Metrics interface {
	// RecordQueueWait records how long a task sat queued before a worker
	// picked it up.
	RecordQueueWait(pool string, kind Kind, wait time.Duration)

	// RecordTaskDuration records the wall-clock duration of a task body.
	// For callback tasks this covers the registration call only.
	RecordTaskDuration(pool string, kind Kind, d time.Duration)

	// RecordTaskPanic records a panic recovered at the execution boundary.
	RecordTaskPanic(pool string)

	// RecordTaskRejected records a submission rejected by a bound or by
	// shutdown.
	RecordTaskRejected(pool string, reason string)

	// RecordQueueDepth records the queue depth observed after a submission.
	RecordQueueDepth(pool string, depth int)

	// RecordWorkerCount records the worker count after a spawn or retire.
	RecordWorkerCount(pool string, count int)
}

type nopMetrics struct{}

func (nopMetrics) RecordQueueWait(string, Kind, time.Duration)    {}
func (nopMetrics) RecordTaskDuration(string, Kind, time.Duration) {}
func (nopMetrics) RecordTaskPanic(string)                         {}
func (nopMetrics) RecordTaskRejected(string, string)              {}
func (nopMetrics) RecordQueueDepth(string, int)                   {}
func (nopMetrics) RecordWorkerCount(string, int)                  {}
