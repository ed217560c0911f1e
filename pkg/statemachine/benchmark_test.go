package statemachine_test

import (
	"context"
	"testing"

	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

func BenchmarkChangeState_NoBehavior(b *testing.B) {
	m := statemachine.New()
	defer m.Destroy()

	m.Define("a", nil)
	m.Define("b", nil)
	m.Start()

	states := [2]string{"a", "b"}

	i := 0
	for b.Loop() {
		m.ChangeState(states[i&1])
		i++
	}
}

func BenchmarkChangeState_WithBehavior(b *testing.B) {
	m := statemachine.New()
	defer m.Destroy()

	behavior := func(ctx context.Context, m *statemachine.Machine) error {
		<-ctx.Done()
		return ctx.Err()
	}
	m.Define("a", behavior)
	m.Define("b", behavior)
	m.Start()

	states := [2]string{"a", "b"}

	i := 0
	for b.Loop() {
		m.ChangeState(states[i&1])
		i++
	}
}

func BenchmarkDefinitionIsRunning(b *testing.B) {
	m := statemachine.New()
	defer m.Destroy()

	m.Define("a", nil)
	m.Start()
	m.ChangeState("a")

	for b.Loop() {
		m.DefinitionIsRunning("a")
	}
}
