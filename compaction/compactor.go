// Package compaction keeps stored conversations within a token budget by
// replacing an older message prefix with a single synthesized summary while
// preserving the most recent messages verbatim. Compaction is all-or-nothing:
// a failed summary generation leaves the stored transcript untouched.
package compaction

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentrelay/agentrelay/core"
	"github.com/agentrelay/agentrelay/logging"
	"github.com/agentrelay/agentrelay/model"
	"github.com/agentrelay/agentrelay/tokenizer"
)

// SummaryMarker prefixes every compaction summary message. External consumers
// rely on the literal string to recognize synthesized history.
const SummaryMarker = "Previous conversation summary:"

const (
	// DefaultTokenLimit is the transcript size above which compaction triggers.
	DefaultTokenLimit = 80000
	// DefaultPreserveTokens bounds the recent suffix kept verbatim.
	DefaultPreserveTokens = 8000
)

// summaryPrompt instructs the model how to compress the transcript. Concrete
// identifiers must survive compression; secret values must not.
const summaryPrompt = `Summarize the conversation transcript below for use as replacement context in a continuing conversation.

Preserve verbatim: decisions made, file paths, environment variable names, and relationships between components. Exclude secret values such as passwords and API key values, even if they appear in the transcript.

Begin your output with the exact line "` + SummaryMarker + `"`

// Config controls compaction behavior.
type Config struct {
	// Enabled gates the whole mechanism. When false NeedsCompaction always
	// reports false regardless of transcript size.
	Enabled bool `yaml:"enabled"`
	// TokenLimit is the estimated-token threshold that triggers compaction.
	TokenLimit int `yaml:"token_limit"`
	// PreserveTokens is the budget for the recent suffix kept verbatim.
	PreserveTokens int `yaml:"preserve_tokens"`
	// Model optionally overrides the engine's default model for summary calls.
	Model string `yaml:"model"`
}

// DefaultConfig returns the standard budgets with compaction enabled.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		TokenLimit:     DefaultTokenLimit,
		PreserveTokens: DefaultPreserveTokens,
	}
}

// Result reports what a compaction run did.
type Result struct {
	SummarizedCount int
	PreservedCount  int
	NewMessages     []core.Message
}

// Options configure a Compactor beyond its required collaborators.
type Options struct {
	Config  Config
	Counter tokenizer.Counter
	Logger  logging.Logger
}

// Compactor rewrites over-budget conversations in a store.
type Compactor struct {
	engine  model.Engine
	store   core.ConversationStore
	counter tokenizer.Counter
	cfg     Config
	logger  logging.Logger
}

// New creates a Compactor. The default counter is the character-count
// estimator; pass a tokenizer.TiktokenCounter for exact counts.
func New(engine model.Engine, store core.ConversationStore, optFns ...func(o *Options)) *Compactor {
	opts := Options{
		Config:  DefaultConfig(),
		Counter: tokenizer.NewEstimator(),
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Config.TokenLimit <= 0 {
		opts.Config.TokenLimit = DefaultTokenLimit
	}
	if opts.Config.PreserveTokens <= 0 {
		opts.Config.PreserveTokens = DefaultPreserveTokens
	}
	return &Compactor{
		engine:  engine,
		store:   store,
		counter: opts.Counter,
		cfg:     opts.Config,
		logger:  opts.Logger,
	}
}

// NeedsCompaction reports whether the conversation's estimated token count
// exceeds the configured limit. Pure predicate, no side effects.
func (c *Compactor) NeedsCompaction(conv *core.Conversation) bool {
	if !c.cfg.Enabled || conv == nil {
		return false
	}
	return c.counter.CountMessages(conv.GetMessages()) > c.cfg.TokenLimit
}

// Compact splits the stored transcript into an older prefix and a recent
// suffix fitting the preserve budget, summarizes the prefix with a single
// generation call, and atomically replaces the transcript with the summary
// message followed by the preserved suffix. When everything already fits the
// preserve budget it returns immediately with SummarizedCount zero and no
// store mutation or model call.
//
// The load, summarize, replace sequence is not atomic: the caller must not
// append to the conversation while Compact is in flight, or the interleaved
// message is lost by the replace. The runner satisfies this by compacting
// before dispatching each turn.
func (c *Compactor) Compact(ctx context.Context, conversationID string) (*Result, error) {
	conv, err := c.store.Get(conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", conversationID, err)
	}
	msgs := conv.GetMessages()
	prefix, suffix := c.split(msgs)
	if len(prefix) == 0 {
		return &Result{PreservedCount: len(suffix), NewMessages: msgs}, nil
	}

	resp, err := c.engine.Generate(ctx, model.Request{
		SystemPrompt: summaryPrompt,
		Query:        renderTranscript(prefix),
		Model:        c.cfg.Model,
	})
	if err != nil {
		c.logger.Error("Compaction failed", "conversation_id", conversationID, "error", err.Error())
		return nil, fmt.Errorf("compaction summary failed: %w", err)
	}

	summary := strings.TrimSpace(resp.Text)
	if !strings.HasPrefix(summary, SummaryMarker) {
		summary = SummaryMarker + "\n" + summary
	}
	summaryMsg := core.NewMessage(core.RoleSystem, summary)
	summaryMsg.Metadata = map[string]any{"compacted": true, "summarized_count": len(prefix)}

	newMsgs := make([]core.Message, 0, len(suffix)+1)
	newMsgs = append(newMsgs, summaryMsg)
	newMsgs = append(newMsgs, suffix...)

	if err := c.store.ReplaceMessages(conversationID, newMsgs); err != nil {
		return nil, fmt.Errorf("replace messages for %s: %w", conversationID, err)
	}

	c.logger.Info("Compaction complete",
		"conversation_id", conversationID,
		"summarized", len(prefix),
		"preserved", len(suffix))
	return &Result{
		SummarizedCount: len(prefix),
		PreservedCount:  len(suffix),
		NewMessages:     newMsgs,
	}, nil
}

// split walks messages newest-first, keeping messages in the preserve suffix
// while their cumulative estimated tokens fit the budget. The most recent
// message is always preserved even when it alone exceeds the budget.
func (c *Compactor) split(msgs []core.Message) (prefix, suffix []core.Message) {
	cut := len(msgs)
	used := 0
	for i := len(msgs) - 1; i >= 0; i-- {
		cost := c.counter.CountMessages(msgs[i : i+1])
		if used+cost > c.cfg.PreserveTokens {
			if cut == len(msgs) {
				cut = i
			}
			break
		}
		used += cost
		cut = i
	}
	return msgs[:cut], msgs[cut:]
}

func renderTranscript(msgs []core.Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}
