// Package statemachine implements a behavior-driven finite state machine:
// callers register named states with optional behavior callbacks, then drive
// the machine through transitions, and the machine guarantees that at most
// one behavior task is active at any instant — changing state cleanly
// preempts the previous behavior.
//
// Unlike an event/transition FSM, this machine has no transition table.
// ChangeState accepts any registered state; the interesting part is the
// behavior lifecycle. While the machine is running, the current state's
// behavior executes on its own goroutine with a context that is canceled the
// moment the machine leaves the state, stops, or is destroyed. Behaviors
// receive the machine itself and typically drive the next transition, which
// makes the package a natural fit for actor-style AI loops (idle, patrol,
// chase, ...), connection lifecycles, and similar always-doing-something
// actors.
//
// # Usage
//
//	m := statemachine.New()
//	defer m.Destroy()
//
//	m.Define("idle", func(ctx context.Context, m *statemachine.Machine) error {
//	    select {
//	    case <-time.After(3 * time.Second):
//	        m.ChangeState("walk")
//	        return nil
//	    case <-ctx.Done():
//	        return ctx.Err()
//	    }
//	})
//	m.Define("walk", walkBehavior)
//
//	m.ChangeState("idle")
//	m.Start()
//
// # Semantics worth knowing
//
// ChangeState is the single validation gate: it returns false for an
// unregistered state and mutates nothing. Every other management operation
// (DisableDefinition, DestroyDefinition, ChangeDefinition, ...) silently
// no-ops on unknown states. Behavior failures — returned errors and panics
// alike — are caught at the task boundary and logged, never surfaced to the
// caller that triggered the transition.
//
// Cancellation is cooperative and best-effort: the machine cancels the
// behavior's context and moves on without waiting. A behavior that never
// yields simply keeps its goroutine until it returns on its own; writing
// behaviors that watch ctx is the caller's responsibility.
//
// Transitions are observable through Subscribe, which taps a broadcast feed
// of Transition values; WithNotifier swaps the in-memory feed for another
// transport. Machines can also be built declaratively from YAML topology
// documents with FromYAML, binding behaviors by name.
//
// A machine must be torn down with Destroy when its actor goes away,
// otherwise the transition feed and a lingering behavior task may leak.
package statemachine
