package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentrelay/agentrelay/core"
	"github.com/agentrelay/agentrelay/tool"
)

func TestMockEngine_CannedAndDefaultResponses(t *testing.T) {
	eng := NewMockEngine()
	eng.AddResponse("weather in Paris", "Sunny, 21C")

	resp, err := eng.Generate(context.Background(), Request{Query: "weather in Paris"})
	require.NoError(t, err)
	assert.Equal(t, "Sunny, 21C", resp.Text)

	resp, err = eng.Generate(context.Background(), Request{Query: "unknown"})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: unknown", resp.Text)

	assert.Equal(t, 2, eng.CallCount())
	calls := eng.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "weather in Paris", calls[0].Query)
}

func TestMockEngine_ErrInjection(t *testing.T) {
	eng := NewMockEngine()
	eng.Err = errors.New("provider down")

	_, err := eng.Generate(context.Background(), Request{Query: "hi"})
	require.Error(t, err)
	assert.Equal(t, 1, eng.CallCount())
}

func TestMockEngine_GenerateFuncOverrides(t *testing.T) {
	eng := NewMockEngine()
	eng.GenerateFunc = func(_ context.Context, req Request) (*Response, error) {
		return &Response{Text: "custom:" + req.Query, ToolsUsed: []string{"echo"}}, nil
	}

	resp, err := eng.Generate(context.Background(), Request{Query: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "custom:hi", resp.Text)
	assert.Equal(t, []string{"echo"}, resp.ToolsUsed)
}

func echoTool(t *testing.T) tool.Tool {
	t.Helper()
	return tool.NewFunctionTool("echo", "echoes input", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
		"required": []string{"text"},
	}, func(_ context.Context, args map[string]any) (any, error) {
		return args["text"], nil
	})
}

func TestExecuteToolCall_RunsToolAndEmitsEvents(t *testing.T) {
	bus := core.NewBus()
	var events []core.Event
	bus.Subscribe(func(ev core.Event) { events = append(events, ev) })

	dc := core.NewDelegationContext("root", bus)
	ctx := core.WithDelegation(context.Background(), dc)

	out := ExecuteToolCall(ctx, []tool.Tool{echoTool(t)}, "echo", `{"text":"hello"}`)
	assert.Equal(t, "hello", out)

	require.Len(t, events, 2)
	assert.Equal(t, core.EventToolCall, events[0].Type)
	assert.Equal(t, "echo", events[0].Data["tool"])
	assert.Equal(t, core.EventToolResult, events[1].Type)
	assert.Equal(t, "hello", events[1].Data["result"])
}

func TestExecuteToolCall_UnknownTool(t *testing.T) {
	out := ExecuteToolCall(context.Background(), nil, "missing", "{}")
	assert.Equal(t, "Error: unknown tool missing", out)
}

func TestExecuteToolCall_ToolErrorFoldedIntoResult(t *testing.T) {
	failing := tool.NewFunctionTool("boom", "always fails", map[string]any{"type": "object"},
		func(_ context.Context, _ map[string]any) (any, error) {
			return nil, errors.New("exploded")
		})

	out := ExecuteToolCall(context.Background(), []tool.Tool{failing}, "boom", "")
	assert.Contains(t, out, "exploded")
}

func TestExecuteToolCall_InvalidArguments(t *testing.T) {
	out := ExecuteToolCall(context.Background(), []tool.Tool{echoTool(t)}, "echo", "{not json")
	assert.Contains(t, out, "invalid arguments")
}

func TestExecuteToolCall_MarshalsStructuredResults(t *testing.T) {
	structured := tool.NewFunctionTool("report", "returns a map", map[string]any{"type": "object"},
		func(_ context.Context, _ map[string]any) (any, error) {
			return map[string]any{"ok": true}, nil
		})

	out := ExecuteToolCall(context.Background(), []tool.Tool{structured}, "report", "")
	assert.JSONEq(t, `{"ok":true}`, out)
}

func TestTokenUsage_Add(t *testing.T) {
	var u TokenUsage
	u.Add(TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})
	u.Add(TokenUsage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5})
	assert.Equal(t, TokenUsage{PromptTokens: 13, CompletionTokens: 7, TotalTokens: 20}, u)
}
