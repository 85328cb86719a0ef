package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentrelay/agentrelay/core"
	"github.com/agentrelay/agentrelay/tool"
)

// TokenUsage captures token usage statistics for a generation.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates usage from another sample. Provider adapters call it once
// per round trip of the tool loop so the final response reports the full cost.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// Request captures the normalized generation input produced by executors and
// orchestrators. History carries prior conversation turns; Query is the
// message being answered.
type Request struct {
	SystemPrompt string
	Query        string
	History      []core.Message
	Tools        []tool.Tool
	Model        string // optional per-request model id, provider default when empty
}

// Response is the final generation result. Providers run their tool loop
// internally, so Text is always a terminal answer and ToolsUsed lists the
// tools invoked along the way in call order.
type Response struct {
	Text      string
	ToolsUsed []string
	Usage     TokenUsage
}

// Engine is the minimal interface required to drive generation. Implementations
// are responsible for executing any tool calls the model requests and feeding
// results back until the model produces a final text answer.
type Engine interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// MockEngine is a lightweight in-memory Engine useful for tests & examples.
type MockEngine struct {
	mu        sync.Mutex
	responses map[string]string
	calls     []Request

	// GenerateFunc, when set, fully replaces the canned-response behavior.
	// Tests use it to drive tool calls or simulate provider failures that
	// depend on the request.
	GenerateFunc func(ctx context.Context, req Request) (*Response, error)

	// Err, when set, is returned from every Generate call.
	Err error
}

// NewMockEngine constructs a MockEngine with no canned responses.
func NewMockEngine() *MockEngine {
	return &MockEngine{responses: make(map[string]string)}
}

// AddResponse registers a deterministic canned completion for a query.
func (m *MockEngine) AddResponse(query, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[query] = response
}

// Generate implements Engine.
func (m *MockEngine) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	fn := m.GenerateFunc
	err := m.Err
	canned, ok := m.responses[req.Query]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		canned = fmt.Sprintf("Mock response to: %s", req.Query)
	}
	return &Response{Text: canned}, nil
}

// Calls returns a copy of all requests seen so far.
func (m *MockEngine) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Generate invocations.
func (m *MockEngine) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
