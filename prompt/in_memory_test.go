package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentrelay/agentrelay/registry"
)

var _ registry.PromptStore = (*InMemoryStore)(nil)

func TestInMemoryStore_RoundTrip(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.SaveOverride("weather", "You are a meteorologist."))
	require.NoError(t, store.SaveOverride("news", "You are an editor."))

	overrides, err := store.LoadOverrides()
	require.NoError(t, err)
	require.Len(t, overrides, 2)
	assert.Equal(t, "You are a meteorologist.", overrides["weather"].Prompt)
	assert.False(t, overrides["weather"].UpdatedAt.IsZero())

	require.NoError(t, store.DeleteOverride("weather"))
	overrides, err = store.LoadOverrides()
	require.NoError(t, err)
	assert.Len(t, overrides, 1)
}

func TestInMemoryStore_SnapshotIsolated(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.SaveOverride("weather", "v1"))

	snapshot, err := store.LoadOverrides()
	require.NoError(t, err)
	snapshot["weather"] = registry.PromptOverride{Prompt: "mutated"}

	fresh, err := store.LoadOverrides()
	require.NoError(t, err)
	assert.Equal(t, "v1", fresh["weather"].Prompt)
}
