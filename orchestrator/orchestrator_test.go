package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentrelay/agentrelay/core"
	"github.com/agentrelay/agentrelay/executor"
	"github.com/agentrelay/agentrelay/internal/testutil"
	"github.com/agentrelay/agentrelay/model"
	"github.com/agentrelay/agentrelay/registry"
	"github.com/agentrelay/agentrelay/tool"
)

func specialistTool(name string) tool.Tool {
	return tool.NewFunctionTool(name, "stub", map[string]any{"type": "object"},
		func(_ context.Context, _ map[string]any) (any, error) { return "ok", nil })
}

func newFixture(eng model.Engine, bus *core.Bus) (*registry.Registry, *executor.Executor) {
	reg := registry.New()
	reg.Register(registry.Definition{
		Name:         "weather",
		Description:  "Weather forecasts",
		SystemPrompt: "You report weather.",
		Tools:        []tool.Tool{specialistTool("forecast")},
	})
	reg.Register(registry.Definition{
		Name:         "news",
		Description:  "News headlines",
		SystemPrompt: "You report news.",
		Tools:        []tool.Tool{specialistTool("headlines")},
	})
	exec := executor.New(reg, eng, func(o *executor.Options) { o.Bus = bus })
	return reg, exec
}

// isOrchestratorTurn reports whether a mock engine request carries the
// routing tools, distinguishing orchestrator turns from delegated specialist
// turns that share the same engine.
func isOrchestratorTurn(req model.Request) bool {
	for _, t := range req.Tools {
		if t.Name() == RouteToAgentTool {
			return true
		}
	}
	return false
}

func TestNew_RegistersOrchestratorDefinition(t *testing.T) {
	eng := model.NewMockEngine()
	reg, exec := newFixture(eng, nil)

	New("main", reg, exec, eng)

	def, ok := reg.Get("main")
	require.True(t, ok)
	assert.True(t, def.Orchestrator)
	require.Len(t, def.Tools, 2)
	assert.Equal(t, RouteToAgentTool, def.Tools[0].Name())
	assert.Equal(t, CreateTaskTool, def.Tools[1].Name())

	res := exec.ExecuteTask(context.Background(), "main", "q")
	assert.Contains(t, res.Result.Response, "orchestrator")
}

func TestRespond_RouteToSingleSpecialist(t *testing.T) {
	eng := model.NewMockEngine()
	eng.GenerateFunc = func(ctx context.Context, req model.Request) (*model.Response, error) {
		if !isOrchestratorTurn(req) {
			return &model.Response{Text: "Sunny in Rome"}, nil
		}
		out := model.ExecuteToolCall(ctx, req.Tools, RouteToAgentTool,
			`{"agent":"weather","query":"forecast for Rome"}`)
		return &model.Response{Text: out, ToolsUsed: []string{RouteToAgentTool}}, nil
	}
	reg, exec := newFixture(eng, nil)
	o := New("main", reg, exec, eng)

	resp, err := o.Respond(context.Background(), "what is the weather in Rome?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Sunny in Rome", resp.Text)
	assert.Equal(t, []string{RouteToAgentTool}, resp.ToolsUsed)
}

func TestRespond_FanOutAggregatesResults(t *testing.T) {
	eng := model.NewMockEngine()
	var mu sync.Mutex
	chains := map[string][]string{}
	eng.GenerateFunc = func(ctx context.Context, req model.Request) (*model.Response, error) {
		if !isOrchestratorTurn(req) {
			if dc, ok := core.DelegationFromContext(ctx); ok {
				mu.Lock()
				chains[req.Query] = append([]string(nil), dc.Chain...)
				mu.Unlock()
			}
			return &model.Response{Text: "answer to " + req.Query}, nil
		}
		out := model.ExecuteToolCall(ctx, req.Tools, CreateTaskTool,
			`{"tasks":[{"agent":"weather","query":"w"},{"agent":"news","query":"n"}]}`)
		return &model.Response{Text: "synthesis of:\n" + out, ToolsUsed: []string{CreateTaskTool}}, nil
	}
	reg, exec := newFixture(eng, nil)
	o := New("main", reg, exec, eng)

	resp, err := o.Respond(context.Background(), "brief me", nil)
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "### weather")
	assert.Contains(t, resp.Text, "answer to w")
	assert.Contains(t, resp.Text, "### news")
	assert.Contains(t, resp.Text, "answer to n")

	assert.Equal(t, []string{"main", "weather"}, chains["w"])
	assert.Equal(t, []string{"main", "news"}, chains["n"])
}

func TestRoutingTools_RejectDisallowedAgents(t *testing.T) {
	eng := model.NewMockEngine()
	reg, exec := newFixture(eng, nil)
	o := New("main", reg, exec, eng, func(opts *Options) {
		opts.AllowedAgents = []string{"weather"}
	})

	route := o.routeToAgentTool()
	_, err := route.Call(context.Background(), map[string]any{
		"agent": "news",
		"query": "headlines",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an allowed routing target")

	create := o.createTaskTool()
	_, err = create.Call(context.Background(), map[string]any{
		"tasks": []any{map[string]any{"agent": "news", "query": "headlines"}},
	})
	require.Error(t, err)
}

func TestTargets_DynamicDiscoveryPicksUpLateRegistrations(t *testing.T) {
	eng := model.NewMockEngine()
	reg, exec := newFixture(eng, nil)
	o := New("main", reg, exec, eng)

	assert.Equal(t, []string{"weather", "news"}, o.Targets())

	reg.Register(registry.Definition{
		Name:  "sports",
		Tools: []tool.Tool{specialistTool("scores")},
	})
	assert.Equal(t, []string{"weather", "news", "sports"}, o.Targets())
}

func TestRespond_NonAutonomousPlansWithoutExecuting(t *testing.T) {
	eng := model.NewMockEngine()
	var sawTools int
	eng.GenerateFunc = func(_ context.Context, req model.Request) (*model.Response, error) {
		sawTools = len(req.Tools)
		assert.Contains(t, req.SystemPrompt, "Do not execute")
		return &model.Response{Text: "Plan: route to weather"}, nil
	}
	reg, exec := newFixture(eng, nil)
	o := New("main", reg, exec, eng, func(opts *Options) { opts.Autonomous = false })

	resp, err := o.Respond(context.Background(), "weather?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Plan: route to weather", resp.Text)
	assert.Equal(t, 0, sawTools, "planning turn carries no routing tools")
	assert.Equal(t, 1, eng.CallCount(), "no delegated executions")
}

func TestRespond_EmitsStatusAndDelegationEvents(t *testing.T) {
	bus := core.NewBus()
	rec := &testutil.EventRecorder{}
	bus.Subscribe(rec.Record)

	eng := model.NewMockEngine()
	eng.GenerateFunc = func(ctx context.Context, req model.Request) (*model.Response, error) {
		if !isOrchestratorTurn(req) {
			return &model.Response{Text: "fine"}, nil
		}
		out := model.ExecuteToolCall(ctx, req.Tools, CreateTaskTool,
			`{"tasks":[{"agent":"weather","query":"w"}]}`)
		return &model.Response{Text: out}, nil
	}
	reg, exec := newFixture(eng, bus)
	o := New("main", reg, exec, eng, func(opts *Options) { opts.Bus = bus })

	_, err := o.Respond(context.Background(), "brief me", nil)
	require.NoError(t, err)

	var statuses []string
	var delegateFrom string
	for _, ev := range rec.Events() {
		switch ev.Type {
		case core.EventStatus:
			statuses = append(statuses, ev.Data["state"].(string))
		case core.EventDelegateStart:
			delegateFrom = ev.Data["from"].(string)
		}
	}

	assert.Equal(t, []string{
		StatusPlanning,
		StatusExecutingTasks,
		StatusSynthesizing,
		StatusCompleted,
	}, statuses)
	assert.Equal(t, "main", delegateFrom, "delegation originates from the orchestrator")
}

func TestRespond_EngineFailureEmitsFailedStatus(t *testing.T) {
	bus := core.NewBus()
	rec := &testutil.EventRecorder{}
	bus.Subscribe(rec.Record)

	eng := model.NewMockEngine()
	eng.Err = errors.New("provider down")
	reg, exec := newFixture(eng, bus)
	o := New("main", reg, exec, eng, func(opts *Options) { opts.Bus = bus })

	_, err := o.Respond(context.Background(), "brief me", nil)
	require.Error(t, err)

	var statuses []string
	for _, ev := range rec.ByType(core.EventStatus) {
		statuses = append(statuses, ev.Data["state"].(string))
	}
	require.Equal(t, []string{StatusPlanning, StatusFailed}, statuses,
		"observers see a terminal transition even on failure")

	failed := rec.ByType(core.EventStatus)[1]
	assert.Contains(t, failed.Data["error"], "provider down")
}

func TestBuildSystemPrompt_ListsAgentDescriptions(t *testing.T) {
	eng := model.NewMockEngine()
	reg, exec := newFixture(eng, nil)
	o := New("main", reg, exec, eng)

	prompt := o.buildSystemPrompt()
	assert.Contains(t, prompt, "weather: Weather forecasts")
	assert.Contains(t, prompt, "news: News headlines")
}
