package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Task represents a fire-and-forget unit of execution that can be asked to
// stop before it completes. The zero value is not usable; create tasks with
// Spawn.
type Task struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Spawn starts fn in its own goroutine and returns a handle for it
// immediately. The function receives a context derived from ctx that is
// canceled when Cancel is called; cooperative functions should observe it at
// their suspension points.
//
// If the handle is canceled (or ctx was already canceled) before the
// goroutine gets scheduled, fn never runs and the task completes with the
// context error.
func Spawn(ctx context.Context, fn func(context.Context) error) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		defer cancel()

		// Early exit prevents executing fn when cancellation raced ahead of
		// the goroutine being scheduled.
		select {
		case <-ctx.Done():
			t.err = ctx.Err()
			return
		default:
		}

		t.err = fn(ctx)
	}()

	return t
}

// ID returns the unique identifier assigned to the task at spawn time.
func (t *Task) ID() string {
	return t.id
}

// Cancel requests the task to stop and returns without waiting for it to do
// so. Cancel is safe to call multiple times and after completion.
func (t *Task) Cancel() {
	t.cancel()
}

// Alive reports whether the task has not yet completed. A canceled task stays
// alive until its function observes the cancellation and returns.
func (t *Task) Alive() bool {
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// Done returns a channel that is closed when the task completes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Await blocks until the task completes and returns the error produced by its
// function, or the context error if the task was canceled before execution.
func (t *Task) Await() error {
	<-t.done
	return t.err
}

// AwaitWithTimeout waits for the task to complete. If the timeout elapses
// first it returns ErrTimeout; the task keeps running.
func (t *Task) AwaitWithTimeout(timeout time.Duration) error {
	select {
	case <-t.done:
		return t.err
	case <-time.After(timeout):
		return ErrTimeout
	}
}
