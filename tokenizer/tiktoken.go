package tokenizer

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/agentrelay/agentrelay/core"
)

// modelEncodings maps model name prefixes to their tiktoken encoding.
// Ordered most specific first so prefix matching is deterministic.
var modelEncodings = []struct {
	prefix   string
	encoding string
}{
	{"gpt-4o-mini", "o200k_base"},
	{"gpt-4o", "o200k_base"},
	{"gpt-4-turbo", "cl100k_base"},
	{"gpt-4", "cl100k_base"},
	{"gpt-3.5-turbo", "cl100k_base"},
}

const defaultEncoding = "cl100k_base"

// EncodingForModel resolves the tiktoken encoding name for a model id,
// matching by prefix and defaulting to cl100k_base for unknown models.
func EncodingForModel(model string) string {
	for _, e := range modelEncodings {
		if strings.HasPrefix(model, e.prefix) {
			return e.encoding
		}
	}
	return defaultEncoding
}

// TiktokenCounter counts tokens with a tiktoken encoding. Initialization is
// lazy because loading an encoding may fetch vocabulary data; when it fails
// the counter degrades to heuristic estimation instead of returning errors.
type TiktokenCounter struct {
	encoding string
	fallback *Estimator

	once    sync.Once
	enc     *tiktoken.Tiktoken
	initErr error
}

// NewTiktokenCounter creates a counter for the given model id.
func NewTiktokenCounter(model string) *TiktokenCounter {
	return &TiktokenCounter{
		encoding: EncodingForModel(model),
		fallback: NewEstimator(),
	}
}

func (t *TiktokenCounter) init() bool {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = err
			return
		}
		t.enc = enc
	})
	return t.initErr == nil
}

// Count implements Counter.
func (t *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	if !t.init() {
		return t.fallback.Count(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

// CountMessages implements Counter.
func (t *TiktokenCounter) CountMessages(msgs []core.Message) int {
	if !t.init() {
		return t.fallback.CountMessages(msgs)
	}
	total := 0
	for _, m := range msgs {
		total += messageOverhead
		total += len(t.enc.Encode(m.Content, nil, nil))
	}
	return total
}
