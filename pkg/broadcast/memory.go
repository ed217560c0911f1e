package broadcast

import (
	"context"
	"sync"
)

// Memory is an in-process Broadcaster. Publishing never blocks: a subscriber
// whose buffer is full misses the value and is evicted. All methods are safe
// for concurrent use.
type Memory[T any] struct {
	subscribers map[*subscriber[T]]struct{}
	bufferSize  int
	closed      bool
	done        chan struct{}
	mu          sync.RWMutex
	cleanupWg   sync.WaitGroup
}

// NewMemory creates an in-memory broadcaster whose subscribers each get a
// channel buffered to bufferSize. A minimum of 1 is enforced so sends stay
// non-blocking.
func NewMemory[T any](bufferSize int) *Memory[T] {
	return &Memory[T]{
		subscribers: make(map[*subscriber[T]]struct{}),
		bufferSize:  max(bufferSize, 1),
		done:        make(chan struct{}),
	}
}

// Subscribe registers a subscriber that receives every subsequently published
// value. It is released when ctx is canceled or its Close is called. When the
// broadcaster is already closed the returned subscriber is closed too.
func (b *Memory[T]) Subscribe(ctx context.Context) Subscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := newSubscriber[T](b.bufferSize)
	if b.closed {
		_ = sub.Close()
		return sub
	}
	b.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		b.cleanupWg.Add(1)
		go func() {
			defer b.cleanupWg.Done()
			// Close must be able to reap this goroutine even while the
			// subscriber's context is still alive.
			select {
			case <-ctx.Done():
				b.unsubscribe(sub)
			case <-b.done:
			}
		}()
	}

	return sub
}

// Publish delivers v to every active subscriber. Subscribers that cannot keep
// up are dropped rather than slowing the publisher down; Publish still
// returns nil in that case.
func (b *Memory[T]) Publish(ctx context.Context, v T) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	for sub := range b.subscribers {
		if !sub.send(v) {
			// Evict asynchronously so a slow consumer cannot stall the
			// publish path on the write lock.
			go b.unsubscribe(sub)
		}
	}

	return nil
}

// Close shuts the broadcaster down, closing every subscriber. Safe to call
// multiple times.
func (b *Memory[T]) Close() error {
	b.mu.Lock()

	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)

	for sub := range b.subscribers {
		_ = sub.Close()
	}
	clear(b.subscribers)
	b.mu.Unlock()

	// Settle in-flight eviction goroutines before returning.
	b.cleanupWg.Wait()

	return nil
}

func (b *Memory[T]) unsubscribe(sub *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	_ = sub.Close()
}
