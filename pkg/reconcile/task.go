package reconcile

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Task runs a single AI merge in its own goroutine. The caller polls for the
// result and may stop polling at any time; the goroutine then finishes in the
// background and its result is dropped.
type Task struct {
	done chan struct{}
	text string
	err  error
}

// StartTask runs fn in a new goroutine. fn gets a context that is not
// cancelled when ctx is, so detaching never interrupts a request in flight.
// A positive timeout bounds fn's context.
// A positive timeout bounds that context. A panic in fn is returned as an
// error.
func StartTask(ctx context.Context, timeout time.Duration, fn func(context.Context) (string, error)) *Task {
	t := &Task{done: make(chan struct{})}
	detached := context.WithoutCancel(ctx)
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		detached, cancel = context.WithTimeout(detached, timeout)
	}

	go func() {
		defer close(t.done)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				t.err = errors.Errorf("merge task panicked: %v", r)
			}
		}()
		t.text, t.err = fn(detached)
	}()
	return t
}

// Poll waits up to timeout for the task and reports whether it finished.
func (t *Task) Poll(timeout time.Duration) bool {
	select {
	case <-t.done:
		return true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-t.done:
		return true
	case <-timer.C:
		return false
	}
}

// Result blocks until the task finishes and returns its output.
func (t *Task) Result() (string, error) {
	<-t.done
	return t.text, t.err
}
