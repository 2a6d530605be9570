// Package executor provides task executors backed by four pool policies:
// single-thread, fixed-size, cached (elastic) and work-stealing.
//
// Tasks declare a Kind (CPU-bound, blocking, async-callback) and a body;
// Submit enqueues the task and immediately returns a future bound to its
// eventual outcome. Every policy shares one execution boundary: panics are
// caught and stored as the task's failure, queue wait and duration are
// reported to the configured Metrics sink, and optional hooks and rate
// limiting wrap each body.
//
// Choosing a policy:
//
//   - NewSingleThread: strict FIFO, one dedicated worker.
//   - NewFixed: n workers on a shared queue; size to the core count for
//     CPU-bound work.
//   - NewCached: elastic workers with an idle timeout; cap it and use it for
//     blocking work.
//   - NewWorkStealing: per-worker deques with stealing; the highest-throughput
//     choice for many small CPU-bound tasks.
//
// Scheduling overhead (enqueue, dispatch, context switch) is fixed per task:
// a task body must outlast that overhead by a comfortable margin before any
// pool beats plain sequential execution. The margin varies per deployment and
// must be measured, not assumed.
package executor
