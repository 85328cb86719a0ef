// Package executor runs delegated agent calls. Every call passes an ordered
// sequence of admission checks (unknown target, orchestrator target, tool-less
// target, depth limit, self- and circular delegation, guard veto) before any
// event is emitted or the generation engine invoked. Failures are soft: they
// are encoded into the returned TaskResult rather than raised, so a fan-out
// over many agents always yields one result per task.
package executor

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/agentrelay/agentrelay/core"
	"github.com/agentrelay/agentrelay/logging"
	"github.com/agentrelay/agentrelay/model"
	"github.com/agentrelay/agentrelay/registry"
)

// DefaultMaxDepth bounds delegation chain length.
const DefaultMaxDepth = 3

// summaryLimit caps the response excerpt carried on delegate:end events.
const summaryLimit = 200

// Options configure an Executor.
type Options struct {
	// MaxDepth is the delegation depth limit. Defaults to DefaultMaxDepth.
	MaxDepth int
	// Bus receives lifecycle events for calls that start outside any
	// delegation scope. Inside a scope the ambient bus wins.
	Bus *core.Bus
	// Logger for delegation outcomes.
	Logger logging.Logger
}

// Executor runs delegated tasks against registered agents.
type Executor struct {
	reg      *registry.Registry
	engine   model.Engine
	maxDepth int
	bus      *core.Bus
	logger   logging.Logger
}

// New creates an Executor over a registry and generation engine.
func New(reg *registry.Registry, engine model.Engine, optFns ...func(o *Options)) *Executor {
	opts := Options{
		MaxDepth: DefaultMaxDepth,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Executor{
		reg:      reg,
		engine:   engine,
		maxDepth: opts.MaxDepth,
		bus:      opts.Bus,
		logger:   opts.Logger,
	}
}

// MaxDepth returns the configured delegation depth limit.
func (e *Executor) MaxDepth() int { return e.maxDepth }

// ExecuteTask runs one delegated call to the named agent. It never returns an
// error: admission refusals and engine failures are folded into the result.
// delegate:start is emitted only after all admission checks pass, and
// delegate:end exactly once afterwards regardless of outcome.
func (e *Executor) ExecuteTask(ctx context.Context, target, query string) core.TaskResult {
	return e.ExecuteConversationTask(ctx, target, query, nil)
}

// ExecuteConversationTask is ExecuteTask with prior conversation history
// threaded into the generation request. Delegated sub-calls use ExecuteTask
// directly; conversational entry points pass the stored transcript so the
// agent sees earlier turns.
func (e *Executor) ExecuteConversationTask(
	ctx context.Context,
	target, query string,
	history []core.Message,
) core.TaskResult {
	result := core.TaskResult{Agent: target, Query: query}
	dc, _ := core.DelegationFromContext(ctx)

	def, admErr := e.admit(ctx, dc, target, query)
	if admErr != nil {
		e.logger.Warn("Delegation refused",
			"agent", target, "kind", string(admErr.Kind), "reason", admErr.Message)
		result.Result = core.TaskOutput{Response: admErr.Message, Err: admErr.Message}
		return result
	}

	from := "user"
	if dc != nil {
		from = dc.Last()
	}
	bus := e.resolveBus(dc)

	var next *core.DelegationContext
	if dc != nil {
		next = dc.Extend(target)
	} else {
		next = core.NewDelegationContext(target, bus)
	}
	ctx = core.WithDelegation(ctx, next)

	if bus != nil {
		bus.Emit(core.EventDelegateStart, map[string]any{
			"from":  from,
			"to":    target,
			"query": query,
		})
	}

	start := time.Now()
	var output core.TaskOutput
	defer func() {
		if bus != nil {
			data := map[string]any{"from": from, "to": target}
			if output.Err != "" {
				data["error"] = output.Err
			} else {
				data["summary"] = truncate(output.Response, summaryLimit)
			}
			bus.Emit(core.EventDelegateEnd, data)
		}
	}()

	prompt, _ := e.reg.ResolvedPrompt(target)
	resp, err := e.engine.Generate(ctx, model.Request{
		SystemPrompt: prompt,
		Query:        query,
		History:      history,
		Tools:        def.Tools,
	})
	if err != nil {
		e.logger.Error("Delegated generation failed",
			"agent", target, "duration", time.Since(start).String(), "error", err.Error())
		output = core.TaskOutput{
			Response: fmt.Sprintf("Task execution failed: %v", err),
			Err:      err.Error(),
		}
	} else {
		e.logger.Info("Delegation complete",
			"agent", target, "duration", time.Since(start).String(), "tools_used", len(resp.ToolsUsed))
		output = core.TaskOutput{Response: resp.Text, ToolsUsed: resp.ToolsUsed}
	}

	result.Result = output
	return result
}

func (e *Executor) resolveBus(dc *core.DelegationContext) *core.Bus {
	if dc != nil && dc.Bus != nil {
		return dc.Bus
	}
	return e.bus
}

// truncate shortens s to at most limit bytes, backing off to the nearest
// rune boundary so the result stays valid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + "..."
}
