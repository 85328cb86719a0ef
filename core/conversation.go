package core

import (
	"sync"
	"time"
)

// Message roles used in conversation transcripts.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single conversation entry.
type Message struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewMessage creates a message with a fresh ID and the current UTC timestamp.
func NewMessage(role, content string) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// Conversation is an ordered message transcript. It is safe for concurrent
// access; accessors return defensive copies so callers can never mutate
// internal state.
type Conversation struct {
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
	mu       sync.RWMutex
}

// NewConversation creates an empty conversation with the given ID.
func NewConversation(id string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{ID: id, Messages: []Message{}, Created: now, Updated: now}
}

// Append adds a message to the transcript updating the Updated timestamp.
func (c *Conversation) Append(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Messages = append(c.Messages, m)
	c.Updated = time.Now().UTC()
}

// GetMessages returns a copy of the full transcript.
func (c *Conversation) GetMessages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	return msgs
}

// Len returns the current number of messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Messages)
}

// Replace swaps the entire transcript for msgs.
func (c *Conversation) Replace(msgs []Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Messages = make([]Message, len(msgs))
	copy(c.Messages, msgs)
	c.Updated = time.Now().UTC()
}

// Clone returns a deep copy of the conversation safe for independent mutation.
func (c *Conversation) Clone() *Conversation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clone := &Conversation{ID: c.ID, Messages: make([]Message, len(c.Messages)), Created: c.Created, Updated: c.Updated}
	copy(clone.Messages, c.Messages)
	return clone
}

// ConversationStore persists conversations and their evolving transcripts.
// Implementations must tolerate concurrent access. A replace operation is
// expected to be atomic: readers observe either the old or the new transcript,
// never a partial mix.
type ConversationStore interface {
	// Get returns the conversation, creating it lazily when absent.
	Get(id string) (*Conversation, error)
	// Create forces creation (or reset) of a conversation with the given id.
	Create(id string) (*Conversation, error)
	// AppendMessage adds a message to an existing or newly created conversation.
	AppendMessage(id string, m Message) error
	// ReplaceMessages atomically swaps the stored transcript.
	ReplaceMessages(id string, msgs []Message) error
	// ClearMessages removes all messages while keeping the conversation.
	ClearMessages(id string) error
}
