package core

import (
	"testing"
)

func TestConversation_AppendAndDefensiveCopies(t *testing.T) {
	c := NewConversation("conv-1")
	c.Append(NewMessage(RoleUser, "hello"))
	c.Append(NewMessage(RoleAssistant, "hi there"))

	msgs := c.GetMessages()
	if len(msgs) != 2 || msgs[0].Role != RoleUser || msgs[1].Role != RoleAssistant {
		t.Fatalf("unexpected transcript: %+v", msgs)
	}

	// Mutating the returned slice must not affect internal state.
	msgs[0].Content = "tampered"
	if c.GetMessages()[0].Content != "hello" {
		t.Fatal("internal transcript mutated through returned copy")
	}
}

func TestConversation_Replace(t *testing.T) {
	c := NewConversation("conv-2")
	c.Append(NewMessage(RoleUser, "a"))
	c.Append(NewMessage(RoleUser, "b"))

	summary := NewMessage(RoleSystem, "Previous conversation summary: a and b")
	c.Replace([]Message{summary})

	if c.Len() != 1 || c.GetMessages()[0].Role != RoleSystem {
		t.Fatalf("replace did not swap transcript: %+v", c.GetMessages())
	}
}

func TestConversation_Clone(t *testing.T) {
	c := NewConversation("conv-3")
	c.Append(NewMessage(RoleUser, "x"))

	clone := c.Clone()
	clone.Append(NewMessage(RoleUser, "y"))

	if c.Len() != 1 || clone.Len() != 2 {
		t.Fatalf("clone not independent: orig=%d clone=%d", c.Len(), clone.Len())
	}
}

func TestNewMessage_StampsIDAndTime(t *testing.T) {
	m := NewMessage(RoleUser, "q")
	if m.ID == "" || m.Timestamp.IsZero() {
		t.Fatalf("message not initialized: %+v", m)
	}
}
