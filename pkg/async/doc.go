// Package async provides a minimal cancellable task primitive: a closure
// spawned on its own goroutine together with an opaque handle that supports
// best-effort cancellation and completion queries.
//
// The central type is Task. Spawn starts the supplied function immediately
// and returns without blocking; the caller may then request cancellation with
// Cancel, poll liveness with Alive, or block on completion with Await or
// AwaitWithTimeout. Cancellation is cooperative: the function receives a
// context that is canceled by Cancel and is expected to observe it at its
// blocking points. Spawn guarantees that a task canceled before its goroutine
// is scheduled never executes the function at all.
//
// # Usage
//
//	task := async.Spawn(ctx, func(ctx context.Context) error {
//	    select {
//	    case <-time.After(time.Second):
//	        return nil
//	    case <-ctx.Done():
//	        return ctx.Err()
//	    }
//	})
//
//	// later, possibly from another goroutine:
//	task.Cancel()
//
// The package does not wait for canceled tasks, recover panics, or limit
// concurrency; callers that need those guarantees should wrap the spawned
// function accordingly.
package async
