package statemachine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/fsmkit/pkg/async"
	"github.com/dmitrymomot/fsmkit/pkg/broadcast"
)

// Behavior is the callback attached to a state. It runs on its own goroutine
// while the state is active and receives the owning machine, so it may drive
// further transitions itself. The context is canceled when the machine leaves
// the state (or stops); cooperative behaviors observe it at their blocking
// points. A returned error or panic is logged at the task boundary and never
// propagates to the code that triggered the transition.
type Behavior func(ctx context.Context, m *Machine) error

// Transition describes a completed state change. From is empty when the
// machine had no current state before the change.
type Transition struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Machine is a behavior-driven finite state machine for a single logical
// actor. States are registered with Define and selected with ChangeState;
// while the machine is running, the current state's behavior executes as a
// cancellable background task, and at most one behavior task is ever active
// per machine.
//
// All methods are safe for concurrent use: behaviors run on their own
// goroutines and commonly re-enter the machine to transition onward, so
// access is serialized internally. Competing transitions resolve
// last-writer-wins.
type Machine struct {
	mu             sync.Mutex
	defs           map[string]*definition
	current        string // "" means no state selected
	running        bool
	active         *async.Task
	resume         clockwork.Timer // pending Pause resume, nil when none
	clock          clockwork.Clock
	logger         *slog.Logger
	notifier       broadcast.Broadcaster[Transition]
	notifierBuffer int
}

const defaultNotifierBuffer = 16

// New creates a machine with an empty state registry, no current state, and
// not running. Call Define to register states, ChangeState to select one, and
// Start to begin executing behaviors.
func New(opts ...Option) *Machine {
	m := &Machine{
		defs:           make(map[string]*definition),
		clock:          clockwork.NewRealClock(),
		logger:         slog.Default(),
		notifierBuffer: defaultNotifierBuffer,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.notifier == nil {
		m.notifier = broadcast.NewMemory[Transition](m.notifierBuffer)
	}
	return m
}

// ChangeState makes state the current state and reports whether it succeeded.
// It returns false without touching anything when state is not registered;
// this is the only validation the machine performs. On success the previous
// definition's running flag is cleared, any active behavior task is canceled,
// and — when the machine is running — the new state is activated. The change
// is published on the transition feed either way. Selecting a state while
// stopped just retargets what Start will activate.
func (m *Machine) ChangeState(state string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.defs[state]; !ok {
		return false
	}

	from := m.current
	if from != "" {
		if prev, ok := m.defs[from]; ok {
			prev.running = false
		}
	}
	if m.active != nil {
		m.active.Cancel()
		m.active = nil
	}

	m.current = state
	m.activate(state)
	_ = m.notifier.Publish(context.Background(), Transition{From: from, To: state})
	return true
}

// Start begins executing behaviors. When a current state is already selected
// and its definition exists and is enabled, its behavior launches
// immediately. Calling Start on a running machine is a no-op.
func (m *Machine) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true
	if m.resume != nil {
		// A manual Start during a pause window supersedes the scheduled
		// resume; the timer must not fire against a later-destroyed machine.
		m.resume.Stop()
		m.resume = nil
	}
	if m.current != "" {
		m.activate(m.current)
	}
}

// Stop halts behavior execution: the active task is canceled and the current
// definition's running flag is cleared. The current state and the registry
// are untouched, so a later Start resumes the same state. Calling Stop on a
// stopped machine is a no-op.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

// Pause stops the machine immediately and schedules a Start once d has
// elapsed on the machine's clock. It returns without waiting; the state
// resumed is whatever the current state is when the timer fires. Calling
// Pause on a stopped machine is a no-op.
func (m *Machine) Pause(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.stopLocked()
	m.resume = m.clock.AfterFunc(d, m.Start)
}

// Destroy tears the machine down: it stops execution, cancels a pending
// Pause resume, closes the transition feed, and clears the registry and the
// current state. Destroy is idempotent.
func (m *Machine) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
	if m.resume != nil {
		m.resume.Stop()
		m.resume = nil
	}
	_ = m.notifier.Close()
	m.defs = make(map[string]*definition)
	m.current = ""
}

// Subscribe returns a subscriber observing every successful ChangeState. The
// subscription is released when ctx is canceled. After Destroy the returned
// subscriber is already closed.
func (m *Machine) Subscribe(ctx context.Context) broadcast.Subscriber[Transition] {
	return m.notifier.Subscribe(ctx)
}

// Current returns the name of the current state, or "" when none is
// selected.
func (m *Machine) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Running reports whether the machine is executing transitions.
func (m *Machine) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// stopLocked is Stop without the lock; callers hold m.mu.
func (m *Machine) stopLocked() {
	if !m.running {
		return
	}
	m.running = false
	if m.active != nil {
		m.active.Cancel()
		m.active = nil
	}
	if def, ok := m.defs[m.current]; ok {
		def.running = false
	}
}

// activate runs the activation protocol for state; callers hold m.mu. It is
// the single code path that launches behavior tasks: ChangeState and Start
// both route through it. Nothing happens while the machine is stopped, or
// when the definition is missing or disabled. A definition without a
// behavior is marked running but launches no task.
func (m *Machine) activate(state string) {
	if !m.running {
		return
	}
	def, ok := m.defs[state]
	if !ok || def.disabled {
		return
	}
	def.running = true
	if def.behavior == nil {
		return
	}
	if m.active != nil {
		m.active.Cancel()
		m.active = nil
	}
	m.active = m.launch(state, def.behavior)
}

// launch spawns the behavior task for state. The task boundary recovers
// panics and logs failures; cancellation is not a failure.
func (m *Machine) launch(state string, behavior Behavior) *async.Task {
	return async.Spawn(context.Background(), func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("behavior panicked: %v", r)
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Error("state behavior failed",
					slog.String("state", state),
					slog.Any("error", err))
			}
		}()
		return behavior(ctx, m)
	})
}
