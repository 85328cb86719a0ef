// Package anthropic provides a generation engine backed by the Anthropic
// Claude Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/agentrelay/agentrelay/core"
	"github.com/agentrelay/agentrelay/model"
)

// Options configures the Anthropic engine (model id, temperature, max tokens,
// API key, tool loop bound). Extend via functional options to preserve
// stability.
type Options struct {
	Model             anthropic.Model
	Temperature       float64
	MaxTokens         int64
	APIKey            string
	MaxToolIterations int
}

// Engine wraps the Anthropic Messages API behind the generic model.Engine
// interface, running the tool-use loop internally.
type Engine struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic engine using the official client.
func New(optFns ...func(o *Options)) *Engine {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Engine{client: &client, opts: opts}
}

// NewFromClient creates a new Anthropic engine from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Engine {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:             anthropic.ModelClaude3_5Sonnet20241022,
		Temperature:       0.7,
		MaxTokens:         4096,
		MaxToolIterations: 10,
	}
}

// Generate implements model.Engine. It drives the Messages API until the
// model stops requesting tools, executing each requested tool and feeding
// results back as tool_result blocks.
func (e *Engine) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	params := anthropic.MessageNewParams{
		Model:       e.resolveModel(req.Model),
		Messages:    buildMessages(req),
		MaxTokens:   e.opts.MaxTokens,
		Temperature: anthropic.Float(e.opts.Temperature),
	}
	if blocks := buildSystem(req); len(blocks) > 0 {
		params.System = blocks
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req)
	}

	var toolsUsed []string
	var usage model.TokenUsage

	for i := 0; i < e.opts.MaxToolIterations; i++ {
		resp, err := e.client.Messages.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("anthropic api error: %w", err)
		}
		usage.Add(model.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		})

		var text strings.Builder
		var assistantBlocks []anthropic.ContentBlockParamUnion
		type toolUse struct {
			id, name string
			input    any
			argsJSON string
		}
		var calls []toolUse

		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				textBlock := block.AsText()
				if textBlock.Text != "" {
					text.WriteString(textBlock.Text)
					assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(textBlock.Text))
				}
			case "tool_use":
				toolBlock := block.AsToolUse()
				args := ""
				if toolBlock.Input != nil {
					if argsBytes, err := json.Marshal(toolBlock.Input); err == nil {
						args = string(argsBytes)
					}
				}
				calls = append(calls, toolUse{
					id:       toolBlock.ID,
					name:     toolBlock.Name,
					input:    toolBlock.Input,
					argsJSON: args,
				})
				assistantBlocks = append(assistantBlocks, anthropic.NewToolUseBlock(
					toolBlock.ID,
					toolBlock.Input,
					toolBlock.Name,
				))
			}
		}

		if len(calls) == 0 {
			return &model.Response{
				Text:      text.String(),
				ToolsUsed: toolsUsed,
				Usage:     usage,
			}, nil
		}

		var results []anthropic.ContentBlockParamUnion
		for _, c := range calls {
			out := model.ExecuteToolCall(ctx, req.Tools, c.name, c.argsJSON)
			toolsUsed = append(toolsUsed, c.name)
			results = append(results, anthropic.NewToolResultBlock(c.id, out, false))
		}

		params.Messages = append(params.Messages, anthropic.NewAssistantMessage(assistantBlocks...))
		params.Messages = append(params.Messages, anthropic.NewUserMessage(results...))
	}

	return nil, fmt.Errorf("tool iteration limit reached after %d rounds", e.opts.MaxToolIterations)
}

func (e *Engine) resolveModel(override string) anthropic.Model {
	if override != "" {
		return anthropic.Model(override)
	}
	return e.opts.Model
}

// buildSystem assembles the system blocks: the request's system prompt
// followed by any system-role history content, such as a stored conversation
// summary. The Messages API accepts system content only through the top-level
// system field, never inside the message list.
func buildSystem(req model.Request) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	if req.SystemPrompt != "" {
		blocks = append(blocks, anthropic.TextBlockParam{Text: req.SystemPrompt})
	}
	for _, m := range req.History {
		if m.Role == core.RoleSystem && m.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: m.Content})
		}
	}
	return blocks
}

// buildMessages converts conversation history plus the current query into
// Anthropic message params. System roles travel via the system blocks and
// tool roles are transient, so both are skipped here.
func buildMessages(req model.Request) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	for _, m := range req.History {
		if m.Content == "" {
			continue
		}
		switch m.Role {
		case core.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case core.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Query)))
	return messages
}

// buildTools converts tools to Anthropic tool format.
func buildTools(req model.Request) []anthropic.ToolUnionParam {
	anthropicTools := make([]anthropic.ToolUnionParam, len(req.Tools))

	for i, t := range req.Tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if params := t.Parameters(); params != nil {
			if properties, exists := params["properties"]; exists {
				inputSchema.Properties = properties
			}
			if required, exists := params["required"]; exists {
				inputSchema.Required = requiredStrings(required)
			}
		}
		anthropicTools[i] = anthropic.ToolUnionParamOfTool(inputSchema, t.Name())
	}
	return anthropicTools
}

func requiredStrings(required any) []string {
	switch v := required.(type) {
	case []string:
		return v
	case []any:
		var out []string
		for _, r := range v {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
