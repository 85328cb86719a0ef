package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentrelay/agentrelay/core"
)

var _ core.ConversationStore = (*InMemoryStore)(nil)

func TestInMemoryStore_GetCreatesLazily(t *testing.T) {
	store := NewInMemoryStore()

	conv, err := store.Get("c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", conv.ID)
	assert.Equal(t, 0, conv.Len())
}

func TestInMemoryStore_AppendAndGet(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.AppendMessage("c1", core.NewMessage(core.RoleUser, "hello")))
	require.NoError(t, store.AppendMessage("c1", core.NewMessage(core.RoleAssistant, "hi")))

	conv, err := store.Get("c1")
	require.NoError(t, err)
	msgs := conv.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, core.RoleAssistant, msgs[1].Role)
}

func TestInMemoryStore_ReturnedConversationIsClone(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.AppendMessage("c1", core.NewMessage(core.RoleUser, "hello")))

	conv, err := store.Get("c1")
	require.NoError(t, err)
	conv.Append(core.NewMessage(core.RoleUser, "mutated externally"))

	fresh, err := store.Get("c1")
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Len())
}

func TestInMemoryStore_ReplaceAndClear(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.AppendMessage("c1", core.NewMessage(core.RoleUser, "old")))

	require.NoError(t, store.ReplaceMessages("c1", []core.Message{
		core.NewMessage(core.RoleSystem, "summary"),
	}))
	conv, err := store.Get("c1")
	require.NoError(t, err)
	require.Equal(t, 1, conv.Len())
	assert.Equal(t, "summary", conv.GetMessages()[0].Content)

	require.NoError(t, store.ClearMessages("c1"))
	conv, err = store.Get("c1")
	require.NoError(t, err)
	assert.Equal(t, 0, conv.Len())
}

func TestInMemoryStore_CreateResets(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.AppendMessage("c1", core.NewMessage(core.RoleUser, "old")))

	conv, err := store.Create("c1")
	require.NoError(t, err)
	assert.Equal(t, 0, conv.Len())
}
