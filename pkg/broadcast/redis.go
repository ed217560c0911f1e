package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis is a Broadcaster backed by Redis pub/sub, allowing observers in other
// processes to follow the feed. Values are JSON-encoded on the wire, so T
// must marshal cleanly. The client is injected by the host application, which
// stays responsible for its lifecycle.
type Redis[T any] struct {
	client     redis.UniversalClient
	channel    string
	bufferSize int
	closed     bool
	mu         sync.Mutex
	subs       map[string]*redisSubscriber[T]
}

type redisSubscriber[T any] struct {
	id        string
	pubsub    *redis.PubSub
	ch        chan T
	closeOnce sync.Once
	owner     *Redis[T]
}

// NewRedis creates a Redis-backed broadcaster publishing on the given pub/sub
// channel name. Each subscriber decodes messages into its own buffered
// channel of size bufferSize (minimum 1); values that do not decode into T
// are skipped.
func NewRedis[T any](client redis.UniversalClient, channel string, bufferSize int) *Redis[T] {
	return &Redis[T]{
		client:     client,
		channel:    channel,
		bufferSize: max(bufferSize, 1),
		subs:       make(map[string]*redisSubscriber[T]),
	}
}

// Subscribe opens a dedicated Redis subscription for the caller. The
// subscription is released when ctx is canceled or Close is called on the
// returned subscriber. Subscribing after Close yields a closed subscriber.
func (b *Redis[T]) Subscribe(ctx context.Context) Subscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &redisSubscriber[T]{
		id:    uuid.NewString(),
		ch:    make(chan T, b.bufferSize),
		owner: b,
	}
	if b.closed {
		sub.closeOnce.Do(func() { close(sub.ch) })
		return sub
	}

	sub.pubsub = b.client.Subscribe(ctx, b.channel)
	b.subs[sub.id] = sub

	go sub.pump()

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			_ = sub.Close()
		}()
	}

	return sub
}

// Publish JSON-encodes v and publishes it on the configured channel.
func (b *Redis[T]) Publish(ctx context.Context, v T) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.mu.Unlock()

	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	return nil
}

// Close releases every subscription. The injected Redis client is left open.
// Safe to call multiple times.
func (b *Redis[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := make([]*redisSubscriber[T], 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	clear(b.subs)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.release()
	}
	return nil
}

func (b *Redis[T]) forget(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// pump decodes wire messages into the typed channel until the Redis
// subscription is closed.
func (s *redisSubscriber[T]) pump() {
	for msg := range s.pubsub.Channel() {
		var v T
		if err := json.Unmarshal([]byte(msg.Payload), &v); err != nil {
			continue
		}
		select {
		case s.ch <- v:
		default:
			// Slow consumer: drop rather than stall the pump.
		}
	}
	s.closeOnce.Do(func() { close(s.ch) })
}

func (s *redisSubscriber[T]) ID() string {
	return s.id
}

func (s *redisSubscriber[T]) Receive() <-chan T {
	return s.ch
}

func (s *redisSubscriber[T]) Close() error {
	s.owner.forget(s.id)
	s.release()
	return nil
}

// release tears the Redis subscription down; closing pubsub ends pump, which
// closes the typed channel.
func (s *redisSubscriber[T]) release() {
	if s.pubsub != nil {
		_ = s.pubsub.Close()
		return
	}
	s.closeOnce.Do(func() { close(s.ch) })
}
