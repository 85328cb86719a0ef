package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}
}

func TestFunctionTool_CallSuccess(t *testing.T) {
	sum := NewFunctionTool("calculate_sum", "Calculate the sum of two numbers", sumSchema(),
		func(_ context.Context, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		})

	assert.Equal(t, "calculate_sum", sum.Name())
	assert.NotEmpty(t, sum.Description())

	result, err := sum.Call(context.Background(), map[string]any{"a": 1.5, "b": 2.5})
	require.NoError(t, err)
	assert.Equal(t, 4.0, result)
}

func TestFunctionTool_MissingRequiredArgument(t *testing.T) {
	sum := NewFunctionTool("calculate_sum", "sum", sumSchema(),
		func(_ context.Context, args map[string]any) (any, error) { return nil, nil })

	_, err := sum.Call(context.Background(), map[string]any{"a": 1.0})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	assert.Equal(t, "calculate_sum", toolErr.Tool)
}

func TestFunctionTool_WrongArgumentType(t *testing.T) {
	sum := NewFunctionTool("calculate_sum", "sum", sumSchema(),
		func(_ context.Context, args map[string]any) (any, error) { return nil, nil })

	_, err := sum.Call(context.Background(), map[string]any{"a": "one", "b": 2.0})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestFunctionTool_ExecutionErrorWrapped(t *testing.T) {
	failing := NewFunctionTool("boom", "always fails", map[string]any{"type": "object"},
		func(_ context.Context, _ map[string]any) (any, error) {
			return nil, errors.New("upstream unavailable")
		})

	_, err := failing.Call(context.Background(), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
	assert.Contains(t, toolErr.Message, "upstream unavailable")
}

func TestFunctionTool_ToolErrorPassedThrough(t *testing.T) {
	custom := NewToolError("custom", "rate limited", "RATE_LIMIT")
	failing := NewFunctionTool("custom", "custom errors", map[string]any{"type": "object"},
		func(_ context.Context, _ map[string]any) (any, error) { return nil, custom })

	_, err := failing.Call(context.Background(), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Same(t, custom, toolErr)
}

func TestNewFunctionToolFromStruct_SchemaDerivation(t *testing.T) {
	type args struct {
		City string `json:"city" description:"City name"`
		Days int    `json:"days,omitempty"`
	}

	weather := NewFunctionToolFromStruct("get_weather", "Get a forecast", args{},
		func(_ context.Context, a map[string]any) (any, error) { return "sunny", nil })

	schema := weather.Parameters()
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "city")
	assert.Contains(t, props, "days")

	// Omitempty fields are not required.
	required, _ := schema["required"].([]string)
	assert.Contains(t, required, "city")
	assert.NotContains(t, required, "days")
}
