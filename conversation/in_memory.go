// Package conversation provides conversation store implementations. The
// in-memory store backs tests and demo setups; production deployments plug in
// their own core.ConversationStore.
package conversation

import (
	"sync"

	"github.com/agentrelay/agentrelay/core"
)

// InMemoryStore is a volatile ConversationStore implementation storing
// conversations in a process local map. It is safe for concurrent access and
// best suited for tests or ephemeral demo servers. Each returned conversation
// is cloned to prevent external mutation of internal state.
type InMemoryStore struct {
	mu            sync.Mutex
	conversations map[string]*core.Conversation
}

// NewInMemoryStore constructs an empty in-memory conversation store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{conversations: make(map[string]*core.Conversation)}
}

// Get returns an existing conversation (clone) or creates a new one lazily.
func (s *InMemoryStore) Get(id string) (*core.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(id).Clone(), nil
}

// Create forces the creation (or reset) of a conversation with the given id.
func (s *InMemoryStore) Create(id string) (*core.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := core.NewConversation(id)
	s.conversations[id] = conv
	return conv.Clone(), nil
}

// AppendMessage adds a message to an existing or newly created conversation.
func (s *InMemoryStore) AppendMessage(id string, m core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(id).Append(m)
	return nil
}

// ReplaceMessages atomically swaps the stored transcript.
func (s *InMemoryStore) ReplaceMessages(id string, msgs []core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(id).Replace(msgs)
	return nil
}

// ClearMessages removes all messages while keeping the conversation.
func (s *InMemoryStore) ClearMessages(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(id).Replace(nil)
	return nil
}

// getOrCreateLocked allocates and stores a new conversation when absent;
// caller must already hold the lock.
func (s *InMemoryStore) getOrCreateLocked(id string) *core.Conversation {
	conv, ok := s.conversations[id]
	if !ok {
		conv = core.NewConversation(id)
		s.conversations[id] = conv
	}
	return conv
}
