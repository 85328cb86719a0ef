// Package openai provides a generation engine backed by the OpenAI Chat
// Completions API. It runs the function/tool calling loop internally,
// adapting normalized requests into the SDK's message format and back.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/agentrelay/agentrelay/core"
	"github.com/agentrelay/agentrelay/model"
)

// Options configure the OpenAI engine.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	MaxToolIterations   int
}

// Engine wraps the OpenAI Chat Completions API behind the generic
// model.Engine interface.
type Engine struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI engine using the official client.
func New(optFns ...func(o *Options)) *Engine {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI engine from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		MaxToolIterations:   10,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{client: client, opts: opts}
}

// Generate implements model.Engine. It calls the Chat Completions API until
// the model stops requesting tool calls, executing each requested tool and
// feeding results back as tool messages.
func (e *Engine) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               e.resolveModel(req.Model),
		Temperature:         openai.Float(e.opts.Temperature),
		MaxCompletionTokens: openai.Int(e.opts.MaxCompletionTokens),
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req)
	}

	var toolsUsed []string
	var usage model.TokenUsage

	for i := 0; i < e.opts.MaxToolIterations; i++ {
		resp, err := e.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("openai api error: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("no choices returned")
		}
		usage.Add(model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		})

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return &model.Response{
				Text:      msg.Content,
				ToolsUsed: toolsUsed,
				Usage:     usage,
			}, nil
		}

		toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
		for j, tc := range msg.ToolCalls {
			toolCalls[j] = openai.ChatCompletionMessageToolCallParam{
				ID:   tc.ID,
				Type: "function",
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			}
		}
		params.Messages = append(
			params.Messages,
			openai.ChatCompletionMessageParamUnion{OfAssistant: &openai.ChatCompletionAssistantMessageParam{
				Role:      "assistant",
				ToolCalls: toolCalls,
			}},
		)

		for _, tc := range msg.ToolCalls {
			out := model.ExecuteToolCall(ctx, req.Tools, tc.Function.Name, tc.Function.Arguments)
			toolsUsed = append(toolsUsed, tc.Function.Name)
			params.Messages = append(params.Messages, openai.ToolMessage(out, tc.ID))
		}
	}

	return nil, fmt.Errorf("tool iteration limit reached after %d rounds", e.opts.MaxToolIterations)
}

func (e *Engine) resolveModel(override string) string {
	if override != "" {
		return override
	}
	return e.opts.Model
}

// buildMessages converts conversation history plus the current query into
// OpenAI chat messages. The system prompt leads when present.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.History {
		if m.Content == "" {
			continue
		}
		switch m.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case core.RoleUser:
			messages = append(messages, openai.UserMessage(m.Content))
		case core.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		}
	}
	messages = append(messages, openai.UserMessage(req.Query))
	return messages
}

// buildTools converts tools to OpenAI tool definitions.
func buildTools(req model.Request) []openai.ChatCompletionToolParam {
	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, t := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name(),
				Description: openai.String(t.Description()),
				Parameters:  t.Parameters(),
			},
		}
	}
	return tools
}
