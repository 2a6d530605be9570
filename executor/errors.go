package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrExecutorClosed is returned by Submit after Shutdown has been called.
	ErrExecutorClosed = errors.New("executor: closed")

	// ErrPoolExhausted is returned synchronously by Submit when a configured
	// queue bound (and, for cached pools, the worker cap) leaves no room for
	// the task. Tasks are never silently queued past a configured bound.
	ErrPoolExhausted = errors.New("executor: pool exhausted")

	// ErrShutdownTimeout is returned by a draining Shutdown whose configured
	// timeout elapsed before all in-flight work finished.
	ErrShutdownTimeout = errors.New("executor: shutdown timeout reached")
)

// PanicError is the failure stored in a task's future when its body panics.
// The panic is caught at the task-execution boundary so a single task can
// never take a worker down with it.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("executor: task panic: %v", e.Value)
}
