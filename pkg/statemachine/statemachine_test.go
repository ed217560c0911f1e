package statemachine_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmkit/pkg/logger"
	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

// blocking returns a behavior that signals its launch on started and then
// waits for cancellation.
func blocking(started chan string, name string) statemachine.Behavior {
	return func(ctx context.Context, m *statemachine.Machine) error {
		started <- name
		<-ctx.Done()
		return ctx.Err()
	}
}

func awaitLaunch(t *testing.T, started chan string, want string) {
	t.Helper()
	select {
	case got := <-started:
		require.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatalf("behavior %q never launched", want)
	}
}

func TestChangeState_UnregisteredState(t *testing.T) {
	t.Parallel()

	m := statemachine.New()
	t.Cleanup(m.Destroy)

	m.Define("idle", nil)
	require.True(t, m.ChangeState("idle"))

	assert.False(t, m.ChangeState("missing"))
	assert.Equal(t, "idle", m.Current(), "failed transition must not move the machine")
}

func TestChangeState_UpdatesRunningFlags(t *testing.T) {
	t.Parallel()

	started := make(chan string, 4)
	m := statemachine.New()
	t.Cleanup(m.Destroy)

	m.Define("idle", blocking(started, "idle"))
	m.Define("walk", blocking(started, "walk"))
	m.Start()

	require.True(t, m.ChangeState("idle"))
	awaitLaunch(t, started, "idle")
	assert.Equal(t, "idle", m.Current())
	assert.True(t, m.DefinitionIsRunning("idle"))
	assert.False(t, m.DefinitionIsRunning("walk"))

	require.True(t, m.ChangeState("walk"))
	awaitLaunch(t, started, "walk")
	assert.Equal(t, "walk", m.Current())
	assert.True(t, m.DefinitionIsRunning("walk"))
	assert.False(t, m.DefinitionIsRunning("idle"))
}

func TestChangeState_WhileStoppedRetargetsOnly(t *testing.T) {
	t.Parallel()

	started := make(chan string, 1)
	m := statemachine.New()
	t.Cleanup(m.Destroy)

	m.Define("idle", blocking(started, "idle"))

	require.True(t, m.ChangeState("idle"))
	assert.Equal(t, "idle", m.Current())
	assert.False(t, m.DefinitionIsRunning("idle"), "no activation while stopped")

	m.Start()
	awaitLaunch(t, started, "idle")
	assert.True(t, m.DefinitionIsRunning("idle"))
}

func TestChangeState_AtMostOneBehaviorActive(t *testing.T) {
	t.Parallel()

	var active, maxActive atomic.Int32
	behavior := func(ctx context.Context, m *statemachine.Machine) error {
		n := active.Add(1)
		for {
			prev := maxActive.Load()
			if n <= prev || maxActive.CompareAndSwap(prev, n) {
				break
			}
		}
		<-ctx.Done()
		active.Add(-1)
		return ctx.Err()
	}

	m := statemachine.New()
	t.Cleanup(m.Destroy)

	states := []string{"a", "b", "c"}
	for _, s := range states {
		m.Define(s, behavior)
	}
	m.Start()

	for i := range 60 {
		require.True(t, m.ChangeState(states[i%len(states)]))
	}
	m.Stop()

	require.Eventually(t, func() bool { return active.Load() == 0 }, time.Second, 5*time.Millisecond)
	assert.LessOrEqual(t, maxActive.Load(), int32(1), "two behaviors overlapped")
}

func TestChangeState_RapidFireSupersedesPendingActivation(t *testing.T) {
	t.Parallel()

	var aRan atomic.Bool
	started := make(chan string, 1)

	m := statemachine.New()
	t.Cleanup(m.Destroy)

	m.Define("a", func(ctx context.Context, m *statemachine.Machine) error {
		// Runs only if the spawn escaped pre-cancellation; if it did, the
		// context must already be canceled by the follow-up transition.
		aRan.Store(true)
		return ctx.Err()
	})
	m.Define("b", blocking(started, "b"))
	m.Start()

	require.True(t, m.ChangeState("a"))
	require.True(t, m.ChangeState("b"))

	awaitLaunch(t, started, "b")
	assert.True(t, m.DefinitionIsRunning("b"))
	assert.False(t, m.DefinitionIsRunning("a"))
	if aRan.Load() {
		// Tolerated scheduling race: a's goroutine won the race to start,
		// but it observed a canceled context immediately.
		t.Log("a began executing before cancellation landed; context was already canceled")
	}
}

func TestDisabledDefinition_TransitionWithoutActivation(t *testing.T) {
	t.Parallel()

	var ran atomic.Bool
	m := statemachine.New()
	t.Cleanup(m.Destroy)

	m.Define("sleep", func(ctx context.Context, m *statemachine.Machine) error {
		ran.Store(true)
		return nil
	})
	m.DisableDefinition("sleep")
	m.Start()

	require.True(t, m.ChangeState("sleep"))
	assert.Equal(t, "sleep", m.Current())
	assert.False(t, m.DefinitionIsRunning("sleep"))

	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran.Load(), "disabled behavior must not launch")

	// Re-enabling applies to future activations.
	m.ReEnableDefinition("sleep")
	require.True(t, m.ChangeState("sleep"))
	require.Eventually(t, func() bool { return ran.Load() }, time.Second, 5*time.Millisecond)
}

func TestStopStart_RelaunchesCurrentState(t *testing.T) {
	t.Parallel()

	var launches atomic.Int32
	m := statemachine.New()
	t.Cleanup(m.Destroy)

	m.Define("idle", func(ctx context.Context, m *statemachine.Machine) error {
		launches.Add(1)
		<-ctx.Done()
		return ctx.Err()
	})
	m.Start()
	require.True(t, m.ChangeState("idle"))
	require.Eventually(t, func() bool { return launches.Load() == 1 }, time.Second, 5*time.Millisecond)

	m.Stop()
	assert.False(t, m.Running())
	assert.False(t, m.DefinitionIsRunning("idle"))
	assert.Equal(t, "idle", m.Current(), "stop must not clear the current state")

	m.Start()
	require.Eventually(t, func() bool { return launches.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.True(t, m.DefinitionIsRunning("idle"))
}

func TestPause_ResumesAfterDuration(t *testing.T) {
	t.Parallel()

	fake := clockwork.NewFakeClock()
	var launches atomic.Int32

	m := statemachine.New(statemachine.WithClock(fake))
	t.Cleanup(m.Destroy)

	m.Define("idle", func(ctx context.Context, m *statemachine.Machine) error {
		launches.Add(1)
		<-ctx.Done()
		return ctx.Err()
	})
	m.Start()
	require.True(t, m.ChangeState("idle"))
	require.Eventually(t, func() bool { return launches.Load() == 1 }, time.Second, 5*time.Millisecond)

	m.Pause(5 * time.Second)
	assert.False(t, m.Running(), "pause stops immediately")
	assert.False(t, m.DefinitionIsRunning("idle"))

	fake.Advance(4 * time.Second)
	assert.False(t, m.Running(), "must not resume early")

	fake.Advance(time.Second)
	require.Eventually(t, func() bool { return m.Running() }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return launches.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "idle", m.Current(), "resume does not re-select the state")
}

func TestPause_NoOpWhenStopped(t *testing.T) {
	t.Parallel()

	fake := clockwork.NewFakeClock()
	m := statemachine.New(statemachine.WithClock(fake))
	t.Cleanup(m.Destroy)

	m.Pause(time.Second)
	fake.Advance(2 * time.Second)

	assert.False(t, m.Running())
}

func TestDestroy_Idempotent(t *testing.T) {
	t.Parallel()

	started := make(chan string, 1)
	m := statemachine.New()

	m.Define("idle", blocking(started, "idle"))
	m.Start()
	require.True(t, m.ChangeState("idle"))
	awaitLaunch(t, started, "idle")

	m.Destroy()
	m.Destroy()

	assert.Equal(t, "", m.Current())
	assert.False(t, m.Running())
	assert.False(t, m.ChangeState("idle"), "registry is cleared on destroy")
	assert.False(t, m.DefinitionIsRunning("idle"))

	sub := m.Subscribe(context.Background())
	_, ok := <-sub.Receive()
	assert.False(t, ok, "transition feed is closed after destroy")
}

func TestDestroy_WithLiveSubscriberContext(t *testing.T) {
	t.Parallel()

	m := statemachine.New()
	m.Define("idle", nil)

	// The subscription's context stays alive; Destroy must still be able to
	// close the feed and return.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := m.Subscribe(ctx)

	destroyed := make(chan struct{})
	go func() {
		m.Destroy()
		close(destroyed)
	}()

	select {
	case <-destroyed:
	case <-time.After(2 * time.Second):
		t.Fatal("Destroy blocked releasing the transition feed")
	}

	_, ok := <-sub.Receive()
	assert.False(t, ok, "subscriber is closed by destroy")
}

func TestStart_DuringPauseWindowSupersedesResume(t *testing.T) {
	t.Parallel()

	fake := clockwork.NewFakeClock()
	m := statemachine.New(statemachine.WithClock(fake))

	m.Define("idle", nil)
	m.Start()
	require.True(t, m.ChangeState("idle"))

	m.Pause(5 * time.Second)
	require.False(t, m.Running())

	// Manual restart inside the pause window must also retire the scheduled
	// resume, or it would later fire against a destroyed machine.
	m.Start()
	require.True(t, m.Running())

	m.Destroy()
	fake.Advance(5 * time.Second)

	// Give a stale timer callback (if any survived) time to land.
	time.Sleep(50 * time.Millisecond)
	assert.False(t, m.Running(), "stale resume timer restarted a destroyed machine")
}

func TestBehaviorError_IsLoggedNotPropagated(t *testing.T) {
	t.Parallel()

	var buf syncBuffer
	log := logger.New(logger.WithTextFormatter(), logger.WithOutput(&buf))

	m := statemachine.New(statemachine.WithLogger(log))
	t.Cleanup(m.Destroy)

	m.Define("broken", func(ctx context.Context, m *statemachine.Machine) error {
		return errors.New("actuator offline")
	})
	m.Define("idle", nil)
	m.Start()

	require.True(t, m.ChangeState("broken"))
	require.Eventually(t, func() bool {
		return bytes.Contains(buf.Bytes(), []byte("actuator offline"))
	}, time.Second, 5*time.Millisecond)

	// Failure is confined to the task; the machine keeps operating. The
	// failed definition's running flag intentionally stays set.
	assert.True(t, m.DefinitionIsRunning("broken"))
	assert.True(t, m.ChangeState("idle"))
}

func TestBehaviorPanic_IsRecoveredAndLogged(t *testing.T) {
	t.Parallel()

	var buf syncBuffer
	log := logger.New(logger.WithTextFormatter(), logger.WithOutput(&buf))

	m := statemachine.New(statemachine.WithLogger(log))
	t.Cleanup(m.Destroy)

	m.Define("faulty", func(ctx context.Context, m *statemachine.Machine) error {
		panic("nil actor handle")
	})
	m.Define("idle", nil)
	m.Start()

	require.True(t, m.ChangeState("faulty"))
	require.Eventually(t, func() bool {
		return bytes.Contains(buf.Bytes(), []byte("behavior panicked"))
	}, time.Second, 5*time.Millisecond)

	assert.True(t, m.ChangeState("idle"), "machine survives a panicking behavior")
}

func TestSubscribe_ObservesTransitions(t *testing.T) {
	t.Parallel()

	m := statemachine.New()
	t.Cleanup(m.Destroy)

	m.Define("idle", nil)
	m.Define("walk", nil)

	sub := m.Subscribe(context.Background())

	require.True(t, m.ChangeState("idle"))
	require.True(t, m.ChangeState("walk"))

	want := []statemachine.Transition{
		{From: "", To: "idle"},
		{From: "idle", To: "walk"},
	}
	for _, w := range want {
		select {
		case got := <-sub.Receive():
			assert.Equal(t, w, got)
		case <-time.After(time.Second):
			t.Fatalf("missed transition %+v", w)
		}
	}
}

func TestBehaviorDrivenTransitions(t *testing.T) {
	t.Parallel()

	// idle hands off to walk from inside its own behavior task.
	started := make(chan string, 2)
	m := statemachine.New()
	t.Cleanup(m.Destroy)

	m.Define("idle", func(ctx context.Context, m *statemachine.Machine) error {
		started <- "idle"
		m.ChangeState("walk")
		<-ctx.Done()
		return ctx.Err()
	})
	m.Define("walk", blocking(started, "walk"))
	m.Start()

	require.True(t, m.ChangeState("idle"))
	awaitLaunch(t, started, "idle")
	awaitLaunch(t, started, "walk")

	assert.Equal(t, "walk", m.Current())
	assert.True(t, m.DefinitionIsRunning("walk"))
	assert.False(t, m.DefinitionIsRunning("idle"))
}

// syncBuffer is a bytes.Buffer safe for concurrent writers; behavior tasks
// log from their own goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}
