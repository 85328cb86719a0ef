// Package orchestrator implements the routing meta-agent. An orchestrator
// never answers domain questions itself: it carries two built-in routing
// tools, one for direct single delegation and one for concurrent fan-out,
// and lets the generation engine decide which specialists to involve. All
// delegated calls run through the task executor under a delegation context
// rooted at the orchestrator, so depth limits and cycle checks apply to
// every hop.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentrelay/agentrelay/core"
	"github.com/agentrelay/agentrelay/executor"
	"github.com/agentrelay/agentrelay/logging"
	"github.com/agentrelay/agentrelay/model"
	"github.com/agentrelay/agentrelay/registry"
)

// Per-turn status values emitted on the event bus.
const (
	StatusPlanning       = "PLANNING"
	StatusExecutingTasks = "EXECUTING_TASKS"
	StatusSynthesizing   = "SYNTHESIZING"
	StatusCompleted      = "COMPLETED"
	StatusFailed         = "FAILED"
)

const defaultSystemPrompt = `You are an orchestrator. You never answer domain questions yourself. For a question one specialist can answer, call route_to_agent. For a question spanning several specialists, call create_task with one task per specialist, then synthesize a single answer from the collected results.`

// Options configure an orchestrator.
type Options struct {
	// Description registered alongside the orchestrator's definition.
	Description string
	// SystemPrompt replaces the built-in routing prompt when set.
	SystemPrompt string
	// AllowedAgents restricts routing targets. Empty means every
	// non-orchestrator tool-bearing agent registered at call time.
	AllowedAgents []string
	// Autonomous controls execution: true routes and executes immediately,
	// false produces a routing plan and stops short of executing it.
	Autonomous bool
	// Model optionally overrides the engine's default model.
	Model string
	// Bus receives lifecycle and status events.
	Bus *core.Bus
	// Logger for orchestration outcomes.
	Logger logging.Logger
}

// Orchestrator routes queries to specialist agents via the task executor.
type Orchestrator struct {
	name   string
	reg    *registry.Registry
	exec   *executor.Executor
	engine model.Engine
	opts   Options
}

// New creates an orchestrator and registers it under the given name. The
// registered definition carries the routing tools and the orchestrator flag,
// which makes the agent ineligible as a delegation target.
func New(
	name string,
	reg *registry.Registry,
	exec *executor.Executor,
	engine model.Engine,
	optFns ...func(o *Options),
) *Orchestrator {
	opts := Options{
		Autonomous: true,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = defaultSystemPrompt
	}

	o := &Orchestrator{
		name:   name,
		reg:    reg,
		exec:   exec,
		engine: engine,
		opts:   opts,
	}

	reg.Register(registry.Definition{
		Name:          name,
		Description:   opts.Description,
		SystemPrompt:  opts.SystemPrompt,
		Tools:         o.routingTools(),
		Orchestrator:  true,
		AllowedAgents: opts.AllowedAgents,
		Autonomous:    opts.Autonomous,
	})
	return o
}

// Name returns the orchestrator's registered agent name.
func (o *Orchestrator) Name() string { return o.name }

// Respond handles one orchestrator turn. It seeds a fresh delegation context
// rooted at the orchestrator, lets the engine plan via the routing tools, and
// returns the synthesized answer. Non-autonomous orchestrators return a plan
// without executing any delegation.
func (o *Orchestrator) Respond(ctx context.Context, query string, history []core.Message) (*model.Response, error) {
	dc := core.NewDelegationContext(o.name, o.opts.Bus)
	ctx = core.WithDelegation(ctx, dc)

	o.emitStatus(StatusPlanning, nil)

	req := model.Request{
		SystemPrompt: o.buildSystemPrompt(),
		Query:        query,
		History:      history,
		Model:        o.opts.Model,
	}
	if o.opts.Autonomous {
		req.Tools = o.routingTools()
	} else {
		req.SystemPrompt += "\n\nDo not execute anything. Respond with the routing plan you would follow: which agents you would involve, with what queries, and why."
	}

	resp, err := o.engine.Generate(ctx, req)
	if err != nil {
		o.opts.Logger.Error("Orchestration failed", "orchestrator", o.name, "error", err.Error())
		o.emitStatus(StatusFailed, map[string]any{"error": err.Error()})
		return nil, fmt.Errorf("orchestrator %s: %w", o.name, err)
	}

	o.emitStatus(StatusCompleted, map[string]any{"tools_used": len(resp.ToolsUsed)})
	return resp, nil
}

// Targets returns the agent names this orchestrator may route to. With no
// allow-list it discovers every current specialist dynamically, so agents
// registered after the orchestrator are still eligible.
func (o *Orchestrator) Targets() []string {
	if len(o.opts.AllowedAgents) > 0 {
		return append([]string(nil), o.opts.AllowedAgents...)
	}
	specialists := o.reg.Specialists()
	names := make([]string, len(specialists))
	for i, def := range specialists {
		names[i] = def.Name
	}
	return names
}

func (o *Orchestrator) allowed(agent string) bool {
	for _, name := range o.Targets() {
		if name == agent {
			return true
		}
	}
	return false
}

func (o *Orchestrator) buildSystemPrompt() string {
	var b strings.Builder
	b.WriteString(o.opts.SystemPrompt)
	b.WriteString("\n\nAvailable agents:\n")
	for _, name := range o.Targets() {
		def, ok := o.reg.Get(name)
		if !ok {
			continue
		}
		b.WriteString("- ")
		b.WriteString(def.Name)
		if def.Description != "" {
			b.WriteString(": ")
			b.WriteString(def.Description)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (o *Orchestrator) emitStatus(state string, extra map[string]any) {
	if o.opts.Bus == nil {
		return
	}
	data := map[string]any{"agent": o.name, "state": state}
	for k, v := range extra {
		data[k] = v
	}
	o.opts.Bus.Emit(core.EventStatus, data)
}
