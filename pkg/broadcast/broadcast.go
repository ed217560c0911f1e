package broadcast

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Subscriber receives values published on a Broadcaster.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// ID returns the unique identifier assigned at subscription time.
	ID() string

	// Receive returns the channel values are delivered on. The channel is
	// closed when the subscriber or its broadcaster is closed.
	Receive() <-chan T

	// Close releases the subscription. Close is idempotent.
	Close() error
}

// Broadcaster delivers each published value to every active subscriber.
// Implementations should favor dropping values for slow consumers over
// blocking the publisher.
type Broadcaster[T any] interface {
	// Subscribe registers a new subscriber. The subscription is released
	// automatically when ctx is canceled. Subscribing to a closed
	// broadcaster yields an already-closed subscriber.
	Subscribe(ctx context.Context) Subscriber[T]

	// Publish delivers v to all active subscribers without blocking on any
	// of them.
	Publish(ctx context.Context, v T) error

	// Close shuts the broadcaster down and closes every subscriber.
	// Close is idempotent.
	Close() error
}

type subscriber[T any] struct {
	id     string
	ch     chan T
	closed bool
	mu     sync.RWMutex
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{
		id: uuid.NewString(),
		ch: make(chan T, bufferSize),
	}
}

func (s *subscriber[T]) ID() string {
	return s.id
}

func (s *subscriber[T]) Receive() <-chan T {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

// send delivers v without blocking. It reports false when the subscriber is
// closed or its buffer is full, signaling the caller to evict it.
func (s *subscriber[T]) send(v T) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- v:
		return true
	default:
		return false
	}
}
