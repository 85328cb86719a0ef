// Package agentrelay provides a high-level façade over the delegation engine
// (registry, executor, orchestrators, compaction & logging) enabling rapid
// construction of multi-agent routing systems. Most applications interact
// with this package by:
//  1. Creating an AgentRelay via New() (optionally overriding default in-memory services)
//  2. Registering one or more specialist agents and orchestrators
//  3. Driving conversational turns via Converse, observing lifecycle events via Subscribe
//
// The façade wires the runner, executor and compactor together while keeping
// setup ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply durable store
// implementations and a structured logger.
package agentrelay

import (
	"context"

	"github.com/agentrelay/agentrelay/compaction"
	"github.com/agentrelay/agentrelay/conversation"
	"github.com/agentrelay/agentrelay/core"
	"github.com/agentrelay/agentrelay/executor"
	"github.com/agentrelay/agentrelay/logging"
	"github.com/agentrelay/agentrelay/model"
	"github.com/agentrelay/agentrelay/orchestrator"
	"github.com/agentrelay/agentrelay/registry"
	"github.com/agentrelay/agentrelay/runner"
)

// Options configures the AgentRelay instance.
type Options struct {
	// MaxDelegationDepth bounds delegation chain length.
	MaxDelegationDepth int

	// Compaction configures the conversation compactor. Disabled keeps
	// transcripts unmodified regardless of size.
	Compaction compaction.Config

	// Stores (defaults to in-memory implementations if not provided)
	ConversationStore core.ConversationStore
	PromptStore       registry.PromptStore

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgentRelay is the high-level façade aggregating registry, executor,
// compactor and runner behind one event bus.
type AgentRelay struct {
	opts   Options
	engine model.Engine
	bus    *core.Bus
	reg    *registry.Registry
	exec   *executor.Executor
	runner *runner.Runner
}

// New creates a new AgentRelay around a generation engine with optional
// overrides. Any unset service is initialized with an in-memory
// implementation.
func New(engine model.Engine, optFns ...func(o *Options)) *AgentRelay {
	opts := Options{
		MaxDelegationDepth: executor.DefaultMaxDepth,
		Compaction:         compaction.DefaultConfig(),
		ConversationStore:  conversation.NewInMemoryStore(),
		Logger:             logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	bus := core.NewBus()

	reg := registry.New(func(o *registry.Options) {
		o.PromptStore = opts.PromptStore
		o.Logger = opts.Logger
	})

	exec := executor.New(reg, engine, func(o *executor.Options) {
		o.MaxDepth = opts.MaxDelegationDepth
		o.Bus = bus
		o.Logger = opts.Logger
	})

	var comp *compaction.Compactor
	if opts.Compaction.Enabled {
		comp = compaction.New(engine, opts.ConversationStore, func(o *compaction.Options) {
			o.Config = opts.Compaction
			o.Logger = opts.Logger
		})
	}

	run := runner.New(reg, exec, engine, func(o *runner.Options) {
		o.ConversationStore = opts.ConversationStore
		o.Compactor = comp
		o.Bus = bus
		o.Logger = opts.Logger
	})

	return &AgentRelay{
		opts:   opts,
		engine: engine,
		bus:    bus,
		reg:    reg,
		exec:   exec,
		runner: run,
	}
}

// RegisterAgent adds a specialist agent definition to the registry.
// Registration is an idempotent upsert by name.
func (r *AgentRelay) RegisterAgent(def registry.Definition) { r.reg.Register(def) }

// NewOrchestrator creates, registers and attaches an orchestrator. The first
// orchestrator created becomes the default handler for unaddressed turns.
func (r *AgentRelay) NewOrchestrator(name string, optFns ...func(o *orchestrator.Options)) *orchestrator.Orchestrator {
	fns := append([]func(o *orchestrator.Options){func(o *orchestrator.Options) {
		o.Bus = r.bus
		o.Logger = r.opts.Logger
	}}, optFns...)
	o := orchestrator.New(name, r.reg, r.exec, r.engine, fns...)
	r.runner.AttachOrchestrator(o)
	return o
}

// Converse runs one conversational turn. An empty agentName dispatches to the
// default orchestrator, falling back to the first registered specialist.
func (r *AgentRelay) Converse(ctx context.Context, conversationID, agentName, query string) (*runner.Result, error) {
	return r.runner.Converse(ctx, conversationID, agentName, query)
}

// ExecuteTask runs one delegated call directly through the task executor.
func (r *AgentRelay) ExecuteTask(ctx context.Context, agentName, query string) core.TaskResult {
	return r.exec.ExecuteTask(ctx, agentName, query)
}

// Subscribe registers an event handler on the shared bus and returns an
// unsubscribe func.
func (r *AgentRelay) Subscribe(h core.Handler) func() { return r.bus.Subscribe(h) }

// Registry exposes the underlying agent registry for prompt override
// administration.
func (r *AgentRelay) Registry() *registry.Registry { return r.reg }

// StartWarmup loads prompt overrides in a supervised background goroutine.
func (r *AgentRelay) StartWarmup() <-chan struct{} { return r.runner.StartWarmup() }
