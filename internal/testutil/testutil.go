// Package testutil contains helpers shared across package tests: an event
// recorder for asserting bus traffic and a fluent conversation builder. They
// are intentionally minimal and not intended for production usage.
package testutil

import (
	"sync"

	"github.com/agentrelay/agentrelay/core"
)

// EventRecorder captures bus events for later assertions. Safe for use with
// concurrently-emitting fan-out tests.
type EventRecorder struct {
	mu     sync.Mutex
	events []core.Event
}

// Record is a core.Handler suitable for Bus.Subscribe.
func (r *EventRecorder) Record(ev core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a snapshot of everything recorded so far.
func (r *EventRecorder) Events() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Event, len(r.events))
	copy(out, r.events)
	return out
}

// ByType returns recorded events of one type, in emission order.
func (r *EventRecorder) ByType(eventType string) []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.Event
	for _, ev := range r.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// Types returns the recorded event types, in emission order.
func (r *EventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

// ConversationBuilder constructs message sequences for compaction and runner
// tests. Roles alternate user/assistant unless set explicitly.
type ConversationBuilder struct {
	msgs []core.Message
}

// NewConversationBuilder creates an empty builder.
func NewConversationBuilder() *ConversationBuilder { return &ConversationBuilder{} }

// User appends a user message (chainable).
func (b *ConversationBuilder) User(content string) *ConversationBuilder {
	b.msgs = append(b.msgs, core.NewMessage(core.RoleUser, content))
	return b
}

// Assistant appends an assistant message (chainable).
func (b *ConversationBuilder) Assistant(content string) *ConversationBuilder {
	b.msgs = append(b.msgs, core.NewMessage(core.RoleAssistant, content))
	return b
}

// Turns appends alternating user/assistant messages from the given contents.
func (b *ConversationBuilder) Turns(contents ...string) *ConversationBuilder {
	for i, content := range contents {
		if i%2 == 0 {
			b.User(content)
		} else {
			b.Assistant(content)
		}
	}
	return b
}

// Build returns the accumulated messages.
func (b *ConversationBuilder) Build() []core.Message { return b.msgs }

// Seed appends the accumulated messages to a conversation store.
func (b *ConversationBuilder) Seed(store core.ConversationStore, id string) error {
	for _, m := range b.msgs {
		if err := store.AppendMessage(id, m); err != nil {
			return err
		}
	}
	return nil
}
