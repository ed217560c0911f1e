// Package broadcast provides a small typed publish/subscribe primitive: a
// Broadcaster fans each published value out to every active Subscriber.
//
// Two implementations are included. Memory keeps everything in-process and
// never blocks the publisher: a subscriber whose buffer is full simply misses
// the value and is evicted. Redis carries the feed over Redis pub/sub with
// JSON encoding so observers in other processes can follow it; the Redis
// client is injected and owned by the host application.
//
// Subscriptions are context-scoped: when the context passed to Subscribe is
// canceled the subscription is released automatically. Close on either a
// subscriber or a broadcaster is idempotent, and subscribing to a closed
// broadcaster returns an already-closed subscriber rather than an error,
// which keeps shutdown paths free of special cases.
//
// # Usage
//
//	feed := broadcast.NewMemory[string](16)
//	defer feed.Close()
//
//	sub := feed.Subscribe(ctx)
//	go func() {
//	    for v := range sub.Receive() {
//	        fmt.Println("got:", v)
//	    }
//	}()
//
//	_ = feed.Publish(ctx, "hello")
//
// Delivery is best-effort by design: this package favors a live publisher
// over a complete history, so it is a notification channel, not a queue.
package broadcast
