// Package tool implements the function / tool calling subsystem that lets
// agents invoke structured capabilities (APIs, computations, side effects)
// with schema validated arguments and consistent error handling.
package tool

import (
	"context"
	"fmt"

	"github.com/agentrelay/agentrelay/internal/util"
)

// Tool defines the interface for extending agent capabilities with external functions.
//
// Tools are attached to agent definitions in the registry and exposed to the
// generation engine, which invokes them during a turn. The context passed to
// Call carries the ambient delegation scope, so tools that delegate further
// (such as the orchestrator routing tools) observe the current chain and
// depth without explicit plumbing.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Handle errors gracefully
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	// Names should follow function naming conventions (snake_case recommended).
	Name() string

	// Description returns a human-readable description of what this tool does.
	// It is provided to the model to help it decide when to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]any

	// Call executes the tool with parsed arguments. ctx carries cancellation
	// plus the ambient delegation scope when invoked inside a delegation.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
