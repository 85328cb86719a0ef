package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentrelay/agentrelay/compaction"
	"github.com/agentrelay/agentrelay/conversation"
	"github.com/agentrelay/agentrelay/core"
	"github.com/agentrelay/agentrelay/executor"
	"github.com/agentrelay/agentrelay/logging"
	"github.com/agentrelay/agentrelay/model"
	"github.com/agentrelay/agentrelay/orchestrator"
	"github.com/agentrelay/agentrelay/registry"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// ConversationStore persists transcripts. Defaults to in-memory.
	ConversationStore core.ConversationStore
	// Compactor rewrites over-budget conversations before each turn.
	// Nil disables compaction.
	Compactor *compaction.Compactor
	// Bus receives lifecycle events for turns.
	Bus *core.Bus
	// Logger for turn outcomes.
	Logger logging.Logger
}

// Result is the outcome of one conversational turn.
type Result struct {
	// Agent that handled the turn.
	Agent string
	// Response text returned to the user.
	Response string
	// ToolsUsed lists tools invoked during the turn, in call order.
	ToolsUsed []string
	// Err carries a soft failure encoded by the executor, empty on success.
	Err string
}

// Runner coordinates conversational turns: compacts oversized history,
// resolves the target agent, dispatches to an orchestrator or specialist,
// and persists the exchange. Public methods are safe for concurrent use.
type Runner struct {
	reg    *registry.Registry
	exec   *executor.Executor
	engine model.Engine

	store     core.ConversationStore
	compactor *compaction.Compactor
	bus       *core.Bus
	logger    logging.Logger

	mu            sync.RWMutex
	orchestrators map[string]*orchestrator.Orchestrator
	attachOrder   []string
}

// New constructs a Runner with optional overrides.
func New(
	reg *registry.Registry,
	exec *executor.Executor,
	engine model.Engine,
	optFns ...func(o *Options),
) *Runner {
	opts := Options{
		ConversationStore: conversation.NewInMemoryStore(),
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		reg:           reg,
		exec:          exec,
		engine:        engine,
		store:         opts.ConversationStore,
		compactor:     opts.Compactor,
		bus:           opts.Bus,
		logger:        opts.Logger,
		orchestrators: make(map[string]*orchestrator.Orchestrator),
	}
}

// AttachOrchestrator makes an orchestrator dispatchable by name. The first
// attached orchestrator becomes the default turn handler when no agent is
// named.
func (r *Runner) AttachOrchestrator(o *orchestrator.Orchestrator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orchestrators[o.Name()]; !exists {
		r.attachOrder = append(r.attachOrder, o.Name())
	}
	r.orchestrators[o.Name()] = o
}

// StartWarmup loads prompt overrides in a supervised background goroutine.
// A failed load is logged and the registry falls back to default prompts;
// the returned channel closes when warm-up finishes either way.
func (r *Runner) StartWarmup() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := r.reg.WarmOverrides(); err != nil {
			r.logger.Error("Prompt override warm-up failed, using defaults", "error", err.Error())
			return
		}
		r.logger.Info("Prompt overrides loaded")
	}()
	return done
}

// Converse handles one turn of the named conversation. An empty agentName
// resolves to the first attached orchestrator, falling back to the first
// registered tool-bearing specialist. Orchestrator failures propagate as
// errors; specialist admission refusals come back as a soft Result.Err.
func (r *Runner) Converse(ctx context.Context, conversationID, agentName, query string) (*Result, error) {
	if r.compactor != nil {
		r.maybeCompact(ctx, conversationID)
	}

	conv, err := r.store.Get(conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", conversationID, err)
	}
	history := conv.GetMessages()

	target, err := r.resolveTarget(agentName)
	if err != nil {
		return nil, err
	}

	var result *Result
	if o := r.orchestratorFor(target); o != nil {
		resp, err := o.Respond(ctx, query, history)
		if err != nil {
			return nil, err
		}
		result = &Result{Agent: target, Response: resp.Text, ToolsUsed: resp.ToolsUsed}
	} else {
		if def, ok := r.reg.Get(target); ok && def.Orchestrator {
			return nil, fmt.Errorf("orchestrator %s is not attached to this runner", target)
		}
		res := r.exec.ExecuteConversationTask(ctx, target, query, history)
		result = &Result{
			Agent:     target,
			Response:  res.Result.Response,
			ToolsUsed: res.Result.ToolsUsed,
			Err:       res.Result.Err,
		}
	}

	r.persistTurn(conversationID, query, result)
	return result, nil
}

// Subscribe registers a handler on the runner's event bus and returns an
// unsubscribe func. Returns a no-op when the runner has no bus.
func (r *Runner) Subscribe(h core.Handler) func() {
	if r.bus == nil {
		return func() {}
	}
	return r.bus.Subscribe(h)
}

func (r *Runner) maybeCompact(ctx context.Context, conversationID string) {
	conv, err := r.store.Get(conversationID)
	if err != nil {
		r.logger.Warn("Compaction check skipped", "conversation_id", conversationID, "error", err.Error())
		return
	}
	if !r.compactor.NeedsCompaction(conv) {
		return
	}
	if _, err := r.compactor.Compact(ctx, conversationID); err != nil {
		// Store is untouched on failure; the turn proceeds with full history.
		r.logger.Error("Compaction failed", "conversation_id", conversationID, "error", err.Error())
	}
}

func (r *Runner) resolveTarget(agentName string) (string, error) {
	if agentName != "" {
		if _, ok := r.reg.Get(agentName); !ok {
			return "", fmt.Errorf("unknown agent: %s", agentName)
		}
		return agentName, nil
	}

	r.mu.RLock()
	defaultOrch := ""
	if len(r.attachOrder) > 0 {
		defaultOrch = r.attachOrder[0]
	}
	r.mu.RUnlock()
	if defaultOrch != "" {
		return defaultOrch, nil
	}

	if def, ok := r.reg.DefaultSpecialist(); ok {
		return def.Name, nil
	}
	return "", fmt.Errorf("no dispatchable agents registered")
}

func (r *Runner) orchestratorFor(name string) *orchestrator.Orchestrator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.orchestrators[name]
}

func (r *Runner) persistTurn(conversationID, query string, result *Result) {
	if err := r.store.AppendMessage(conversationID, core.NewMessage(core.RoleUser, query)); err != nil {
		r.logger.Warn("Failed to persist user message", "conversation_id", conversationID, "error", err.Error())
		return
	}
	reply := core.NewMessage(core.RoleAssistant, result.Response)
	reply.Metadata = map[string]any{"agent": result.Agent}
	if len(result.ToolsUsed) > 0 {
		reply.Metadata["tools_used"] = result.ToolsUsed
	}
	if err := r.store.AppendMessage(conversationID, reply); err != nil {
		r.logger.Warn("Failed to persist assistant message", "conversation_id", conversationID, "error", err.Error())
	}
}
