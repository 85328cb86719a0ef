// Package prompt provides prompt store implementations backing the
// registry's system prompt overrides.
package prompt

import (
	"sync"
	"time"

	"github.com/agentrelay/agentrelay/registry"
)

// InMemoryStore is a volatile PromptStore keeping overrides in a process
// local map. Suited for tests and single-process deployments.
type InMemoryStore struct {
	mu        sync.Mutex
	overrides map[string]registry.PromptOverride
}

// NewInMemoryStore constructs an empty in-memory prompt store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{overrides: make(map[string]registry.PromptOverride)}
}

// LoadOverrides returns a snapshot of all stored overrides.
func (s *InMemoryStore) LoadOverrides() (map[string]registry.PromptOverride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]registry.PromptOverride, len(s.overrides))
	for name, ov := range s.overrides {
		out[name] = ov
	}
	return out, nil
}

// SaveOverride stores or replaces the override for an agent.
func (s *InMemoryStore) SaveOverride(name, prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[name] = registry.PromptOverride{Prompt: prompt, UpdatedAt: time.Now().UTC()}
	return nil
}

// DeleteOverride removes the override for an agent, if any.
func (s *InMemoryStore) DeleteOverride(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, name)
	return nil
}
