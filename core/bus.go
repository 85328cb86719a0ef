package core

import (
	"sync"
)

// Handler receives events published on a Bus.
type Handler func(Event)

type subscription struct {
	id      int
	handler Handler
}

// Bus is a synchronous publish/subscribe channel for lifecycle and delegation
// events. Handlers run inline in subscription order on the emitting goroutine.
// A panicking handler is recovered and skipped so later handlers still run and
// the panic never reaches the emitter.
//
// A Bus is process-wide shared state: Subscribe/Emit are safe for concurrent
// use from any number of goroutines.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID int
}

// NewBus constructs an empty event bus.
func NewBus() *Bus { return &Bus{} }

// Subscribe registers a handler and returns an unsubscribe function. Calling
// the returned function removes the handler; further calls are no-ops.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscription{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i], b.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Emit publishes an event of the given type to every currently subscribed
// handler, stamping the timestamp at emission time. It returns the emitted
// event for correlation.
func (b *Bus) Emit(eventType string, data map[string]any) Event {
	ev := NewEvent(eventType, data)

	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(s.handler, ev)
	}

	return ev
}

// deliver runs a single handler, isolating panics from the emitter and from
// sibling handlers.
func (b *Bus) deliver(h Handler, ev Event) {
	defer func() {
		_ = recover()
	}()
	h(ev)
}

// SubscriberCount reports the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
