package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentrelay/agentrelay/core"
)

func TestEstimator_Count(t *testing.T) {
	e := NewEstimator()

	assert.Equal(t, 0, e.Count(""))
	assert.Equal(t, 2, e.Count("four"))             // 4/4 + 1
	assert.Equal(t, 26, e.Count(strings.Repeat("a", 100))) // 100/4 + 1
}

func TestEstimator_CountGrowsWithLength(t *testing.T) {
	e := NewEstimator()
	short := e.Count("hello")
	long := e.Count(strings.Repeat("hello ", 100))
	assert.Greater(t, long, short)
}

func TestEstimator_CustomRatio(t *testing.T) {
	e := NewEstimator(func(o *EstimatorOptions) { o.CharsPerToken = 2 })
	assert.Equal(t, 51, e.Count(strings.Repeat("a", 100)))

	// Invalid ratios fall back to the default.
	e = NewEstimator(func(o *EstimatorOptions) { o.CharsPerToken = -1 })
	assert.Equal(t, 26, e.Count(strings.Repeat("a", 100)))
}

func TestEstimator_CountMessagesIncludesOverhead(t *testing.T) {
	e := NewEstimator()
	msgs := []core.Message{
		core.NewMessage(core.RoleUser, strings.Repeat("a", 40)),
		core.NewMessage(core.RoleAssistant, strings.Repeat("b", 40)),
	}
	// Two messages: 2 * (4 overhead + 11 content tokens).
	assert.Equal(t, 30, e.CountMessages(msgs))
	assert.Equal(t, 0, e.CountMessages(nil))
}

func TestEncodingForModel(t *testing.T) {
	assert.Equal(t, "o200k_base", EncodingForModel("gpt-4o"))
	assert.Equal(t, "o200k_base", EncodingForModel("gpt-4o-2024-08-06"))
	assert.Equal(t, "cl100k_base", EncodingForModel("gpt-4"))
	assert.Equal(t, "cl100k_base", EncodingForModel("claude-3-5-sonnet"))
}

func TestTiktokenCounter_EmptyText(t *testing.T) {
	c := NewTiktokenCounter("gpt-4o")
	assert.Equal(t, 0, c.Count(""))
}
