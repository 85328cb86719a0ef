// Package registry maintains the process-wide catalog of agent definitions
// plus their resolved system prompts. Registration happens at setup time;
// lookups are concurrent-read-safe and hot on the delegation path.
package registry

import (
	"sync"

	"github.com/agentrelay/agentrelay/logging"
	"github.com/agentrelay/agentrelay/tool"
)

// Definition describes a registered agent. Definitions are value types; the
// registry stores them by unique name with last-write-wins upsert semantics.
type Definition struct {
	// Name is the unique agent identifier used as delegation target.
	Name string
	// Description is surfaced to orchestrators when discovering specialists.
	Description string
	// SystemPrompt is the default prompt used when no override is set.
	SystemPrompt string
	// Tools is the agent's capability set. An agent with no tools cannot be
	// a delegation target.
	Tools []tool.Tool
	// Orchestrator marks routing/fan-out agents. Orchestrators can never be
	// delegation targets themselves.
	Orchestrator bool
	// AllowedAgents optionally restricts an orchestrator's routing targets.
	// Empty means every non-orchestrator agent is discoverable at call time.
	AllowedAgents []string
	// Guard, when set, is consulted before any execution on behalf of this
	// agent. A veto unconditionally blocks the call.
	Guard Guard
	// Format is an optional output format preference ("text", "json", ...).
	Format string
	// Autonomous controls orchestrator behavior: true executes routed tasks
	// immediately, false stops after producing a plan.
	Autonomous bool
}

// HasTools reports whether the definition carries at least one tool.
func (d Definition) HasTools() bool { return len(d.Tools) > 0 }

// Options configures a Registry.
type Options struct {
	// PromptStore supplies persisted prompt overrides. May be nil.
	PromptStore PromptStore
	// Logger receives warm-up and override diagnostics.
	Logger logging.Logger
}

// Registry is the name -> definition map shared by all concurrent requests.
// Register/SetPromptOverride are expected at setup or administration time but
// tolerate concurrent readers at any point.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]Definition
	order []string

	store  PromptStore
	logger logging.Logger

	loadOnce  sync.Once
	overrides map[string]PromptOverride
}

// New constructs an empty registry with optional overrides.
func New(optFns ...func(o *Options)) *Registry {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{
		defs:      map[string]Definition{},
		store:     opts.PromptStore,
		logger:    opts.Logger,
		overrides: map[string]PromptOverride{},
	}
}

// Register upserts a definition by name. Re-registering an existing name
// replaces the definition but keeps its original registration position.
func (r *Registry) Register(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.defs[def.Name] = def
}

// Get returns the definition for name and whether it exists.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// List returns a snapshot of all definitions in registration order.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.defs))
	for _, name := range r.order {
		defs = append(defs, r.defs[name])
	}
	return defs
}

// OrchestratorNames returns the names of all registered orchestrators.
func (r *Registry) OrchestratorNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for _, name := range r.order {
		if r.defs[name].Orchestrator {
			names = append(names, name)
		}
	}
	return names
}

// Specialists returns every non-orchestrator, tool-bearing definition in
// registration order. This is the dynamic discovery set orchestrators see
// when no allow-list is configured.
func (r *Registry) Specialists() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var defs []Definition
	for _, name := range r.order {
		def := r.defs[name]
		if !def.Orchestrator && def.HasTools() {
			defs = append(defs, def)
		}
	}
	return defs
}

// DefaultSpecialist returns the first registered non-orchestrator agent with
// tools. It exists for converse-style entry points that omit a target name;
// the registration-order dependence is deliberate but worth knowing about
// when registration order is not fixed.
func (r *Registry) DefaultSpecialist() (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.order {
		def := r.defs[name]
		if !def.Orchestrator && def.HasTools() {
			return def, true
		}
	}
	return Definition{}, false
}
