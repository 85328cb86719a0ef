// Package tokenizer provides token counting for compaction decisions. The
// default Estimator uses a characters-per-token heuristic that needs no
// vocabulary data; TiktokenCounter gives exact counts for models with a known
// tiktoken encoding and falls back to estimation when the encoding cannot be
// initialized.
package tokenizer

import (
	"github.com/agentrelay/agentrelay/core"
)

// Per-message metadata overhead (role, framing tokens).
const messageOverhead = 4

// Counter counts tokens in text and conversation messages.
type Counter interface {
	Count(text string) int
	CountMessages(msgs []core.Message) int
}

// EstimatorOptions configure the heuristic counter.
type EstimatorOptions struct {
	// CharsPerToken is the average character count per token. The default of
	// 4 matches typical English text on BPE vocabularies.
	CharsPerToken float64
}

// Estimator approximates token counts from character counts. It never fails
// and needs no external data, which makes it the safe default for admission
// style checks where an overestimate is preferable to an error.
type Estimator struct {
	charsPerToken float64
}

// NewEstimator creates an Estimator with the default ratio of 4 characters
// per token.
func NewEstimator(optFns ...func(o *EstimatorOptions)) *Estimator {
	opts := EstimatorOptions{CharsPerToken: 4}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.CharsPerToken <= 0 {
		opts.CharsPerToken = 4
	}
	return &Estimator{charsPerToken: opts.CharsPerToken}
}

// Count implements Counter.
func (e *Estimator) Count(text string) int {
	if text == "" {
		return 0
	}
	return int(float64(len(text))/e.charsPerToken) + 1
}

// CountMessages implements Counter, adding a small fixed overhead per message
// for role and framing.
func (e *Estimator) CountMessages(msgs []core.Message) int {
	total := 0
	for _, m := range msgs {
		total += messageOverhead
		total += e.Count(m.Content)
	}
	return total
}
