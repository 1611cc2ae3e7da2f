// Package events provides a simple publish-subscribe event bus for SSE delivery.
package events

import "sync"

const subBufferSize = 8

// Bus is a non-blocking publish-subscribe event bus.
// Subscribers that are slow to consume events will have events dropped rather
// than blocking publishers.
type Bus[T any] struct {
	mu   sync.Mutex
	subs map[string]chan T
}

// NewBus creates a new event bus.
func NewBus[T any]() *Bus[T] {
	return &Bus[T]{
		subs: make(map[string]chan T),
	}
}

// Subscribe creates a new subscription with the given ID.
// The returned channel will receive published events.
// Call Unsubscribe when done to clean up.
func (b *Bus[T]) Subscribe(id string) <-chan T {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan T, subBufferSize)
	b.subs[id] = ch
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus[T]) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish sends an event to all subscribers.
// If a subscriber's channel is full, the event is dropped (non-blocking).
func (b *Bus[T]) Publish(ev T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Drop if subscriber is slow
		}
	}
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus[T]) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
