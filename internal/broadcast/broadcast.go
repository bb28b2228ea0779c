// Package broadcast fans values out to independent subscribers without
// ever blocking the publisher. Each subscriber has a bounded backlog;
// when it is full the oldest undelivered value is dropped to make room.
package broadcast

import (
	"sync"
	"sync/atomic"
)

// DefaultBacklog is the number of undelivered values kept per subscriber.
const DefaultBacklog = 8

// Broadcaster distributes values to all current subscribers.
type Broadcaster[T any] struct {
	mu      sync.Mutex
	backlog int
	subs    map[*Subscription[T]]struct{}
	closed  bool
}

// Subscription is one subscriber's stream. Values arrive on C in
// publish order; C is closed when the subscription is cancelled or the
// broadcaster is closed.
type Subscription[T any] struct {
	ch      chan T
	owner   *Broadcaster[T]
	dropped atomic.Uint64
}

// New returns a Broadcaster with the given per-subscriber backlog.
// A backlog below 1 uses DefaultBacklog.
func New[T any](backlog int) *Broadcaster[T] {
	if backlog < 1 {
		backlog = DefaultBacklog
	}

	return &Broadcaster[T]{
		backlog: backlog,
		subs:    make(map[*Subscription[T]]struct{}),
	}
}

// Subscribe registers a subscriber that receives values published from
// now on. Subscribing to a closed broadcaster returns an already closed
// subscription.
func (b *Broadcaster[T]) Subscribe() *Subscription[T] {
	s := &Subscription[T]{
		ch:    make(chan T, b.backlog),
		owner: b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(s.ch)
		return s
	}
	b.subs[s] = struct{}{}

	return s
}

// Publish delivers v to every subscriber and returns the number of
// subscribers it was offered to. It never blocks on a slow subscriber.
func (b *Broadcaster[T]) Publish(v T) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0
	}
	for s := range b.subs {
		s.offer(v)
	}

	return len(b.subs)
}

// Subscribers returns the number of registered subscribers.
func (b *Broadcaster[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subs)
}

// Close closes every subscription. Later publishes are ignored.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		close(s.ch)
		delete(b.subs, s)
	}
}

// offer is called with the owner's lock held, so there is exactly one
// sender per channel at a time. The receiver may drain concurrently,
// which only makes room; the loop ends after at most one eviction.
func (s *Subscription[T]) offer(v T) {
	for {
		select {
		case s.ch <- v:
			return
		default:
		}

		select {
		case <-s.ch:
			s.dropped.Add(1)
		default:
		}
	}
}

// C returns the receive side of the stream.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Dropped returns how many values were evicted before this subscriber
// read them.
func (s *Subscription[T]) Dropped() uint64 {
	return s.dropped.Load()
}

// Cancel unregisters the subscription and closes C. Values still
// buffered remain readable. Cancel is idempotent.
func (s *Subscription[T]) Cancel() {
	b := s.owner
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[s]; !ok {
		return
	}
	delete(b.subs, s)
	close(s.ch)
}
