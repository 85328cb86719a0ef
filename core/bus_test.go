package core

import (
	"sync"
	"testing"
	"time"
)

func TestBus_EmitDeliversInSubscriptionOrder(t *testing.T) {
	b := NewBus()
	var got []int
	b.Subscribe(func(Event) { got = append(got, 1) })
	b.Subscribe(func(Event) { got = append(got, 2) })
	b.Subscribe(func(Event) { got = append(got, 3) })

	b.Emit(EventStatus, map[string]any{"state": "running"})

	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("expected handlers in subscription order, got %v", got)
	}
}

func TestBus_PanickingHandlerDoesNotBlockLaterHandlers(t *testing.T) {
	b := NewBus()
	b.Subscribe(func(Event) { panic("boom") })
	delivered := false
	b.Subscribe(func(Event) { delivered = true })

	// Must not panic the emitter.
	b.Emit(EventDelegateStart, nil)

	if !delivered {
		t.Fatal("handler subscribed after a panicking handler was not invoked")
	}
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus()
	count := 0
	unsub := b.Subscribe(func(Event) { count++ })

	b.Emit(EventStatus, nil)
	unsub()
	unsub() // idempotent
	b.Emit(EventStatus, nil)

	if count != 1 {
		t.Fatalf("expected exactly one delivery, got %d", count)
	}
	if b.SubscriberCount() != 0 {
		t.Fatalf("expected no remaining subscribers, got %d", b.SubscriberCount())
	}
}

func TestBus_TimestampWithinEmissionWindow(t *testing.T) {
	b := NewBus()
	var stamped time.Time
	b.Subscribe(func(ev Event) { stamped = ev.Timestamp })

	before := time.Now().UTC()
	ev := b.Emit(EventToolCall, map[string]any{"tool": "route_to_agent"})
	after := time.Now().UTC()

	if stamped.Before(before) || stamped.After(after) {
		t.Fatalf("timestamp %v outside emission window [%v, %v]", stamped, before, after)
	}
	if ev.Timestamp != stamped {
		t.Fatal("returned event does not match delivered event")
	}
	if ev.ID == "" || ev.Type != EventToolCall {
		t.Fatalf("event not stamped correctly: %+v", ev)
	}
}

func TestBus_ConcurrentSubscribeEmit(t *testing.T) {
	b := NewBus()
	var mu sync.Mutex
	seen := 0
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsub := b.Subscribe(func(Event) {
				mu.Lock()
				seen++
				mu.Unlock()
			})
			b.Emit(EventStatus, nil)
			unsub()
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if seen == 0 {
		t.Fatal("expected at least some deliveries under concurrency")
	}
}
