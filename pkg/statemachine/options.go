package statemachine

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/fsmkit/pkg/broadcast"
)

// Option configures a machine during construction.
type Option func(*Machine)

// WithLogger sets the logger used to report behavior failures. Nil loggers
// are ignored, keeping the default.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock sets the clock used to schedule Pause resumption. Tests inject a
// fake clock here to drive Pause deterministically.
func WithClock(c clockwork.Clock) Option {
	return func(m *Machine) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithNotifier replaces the in-memory transition feed, e.g. with a
// Redis-backed broadcaster so observers in other processes can follow the
// machine. The machine closes the notifier on Destroy.
func WithNotifier(b broadcast.Broadcaster[Transition]) Option {
	return func(m *Machine) {
		if b != nil {
			m.notifier = b
		}
	}
}

// WithNotifierBuffer sets the per-subscriber buffer of the default in-memory
// transition feed. Ignored when WithNotifier is used.
func WithNotifierBuffer(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.notifierBuffer = n
		}
	}
}
