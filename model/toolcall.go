package model

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentrelay/agentrelay/core"
	"github.com/agentrelay/agentrelay/tool"
)

// LookupTool finds a tool by name within a request's tool set.
func LookupTool(tools []tool.Tool, name string) (tool.Tool, bool) {
	for _, t := range tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// ExecuteToolCall runs the named tool with JSON-encoded arguments and returns
// the stringified output. Tool failures are folded into the returned string so
// provider adapters can feed them back to the model instead of aborting the
// whole generation. When the ambient event bus is present, a tool:call event
// is emitted before execution and a tool:result event after.
func ExecuteToolCall(ctx context.Context, tools []tool.Tool, name, argsJSON string) string {
	bus, hasBus := core.EventBusFromContext(ctx)

	args := map[string]any{}
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return fmt.Sprintf("Error: invalid arguments for tool %s: %v", name, err)
		}
	}

	if hasBus {
		bus.Emit(core.EventToolCall, map[string]any{
			"tool": name,
			"args": args,
		})
	}

	result := runTool(ctx, tools, name, args)

	if hasBus {
		bus.Emit(core.EventToolResult, map[string]any{
			"tool":   name,
			"result": result,
		})
	}
	return result
}

func runTool(ctx context.Context, tools []tool.Tool, name string, args map[string]any) string {
	t, ok := LookupTool(tools, name)
	if !ok {
		return fmt.Sprintf("Error: unknown tool %s", name)
	}
	out, err := t.Call(ctx, args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	switch v := out.(type) {
	case string:
		return v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
