package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentrelay/agentrelay/executor"
	"github.com/agentrelay/agentrelay/tool"
)

// Routing tool names, stable because models are prompted with them.
const (
	RouteToAgentTool = "route_to_agent"
	CreateTaskTool   = "create_task"
)

func (o *Orchestrator) routingTools() []tool.Tool {
	return []tool.Tool{o.routeToAgentTool(), o.createTaskTool()}
}

// routeToAgentTool delegates the query to exactly one specialist and returns
// its result as the tool output. Admission refusals come back as text, so
// the model can recover by picking a different agent.
func (o *Orchestrator) routeToAgentTool() tool.Tool {
	return tool.NewFunctionTool(
		RouteToAgentTool,
		"Delegate the query to exactly one specialist agent and return its answer.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"agent": map[string]any{
					"type":        "string",
					"description": "Name of the specialist agent to route to.",
				},
				"query": map[string]any{
					"type":        "string",
					"description": "The query to forward, verbatim or rephrased.",
				},
			},
			"required": []string{"agent", "query"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			agent, _ := args["agent"].(string)
			query, _ := args["query"].(string)
			if !o.allowed(agent) {
				return nil, fmt.Errorf("agent %s is not an allowed routing target (allowed: %s)",
					agent, strings.Join(o.Targets(), ", "))
			}
			res := o.exec.ExecuteTask(ctx, agent, query)
			return res.Result.Response, nil
		},
	)
}

// createTaskTool fans the request out to one or more specialists
// concurrently, collects every result, and returns the aggregate for the
// model to synthesize.
func (o *Orchestrator) createTaskTool() tool.Tool {
	return tool.NewFunctionTool(
		CreateTaskTool,
		"Spawn one or more independent sub-tasks, run them concurrently, and return all results.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"tasks": map[string]any{
					"type":        "array",
					"description": "Sub-tasks to run, one per specialist.",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"agent": map[string]any{"type": "string"},
							"query": map[string]any{"type": "string"},
						},
						"required": []string{"agent", "query"},
					},
				},
			},
			"required": []string{"tasks"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			tasks, err := o.parseTasks(args)
			if err != nil {
				return nil, err
			}
			o.emitStatus(StatusExecutingTasks, map[string]any{"count": len(tasks)})

			results := o.exec.ExecuteTasks(ctx, tasks)

			o.emitStatus(StatusSynthesizing, map[string]any{"count": len(results)})
			var b strings.Builder
			for i, res := range results {
				if i > 0 {
					b.WriteString("\n\n")
				}
				fmt.Fprintf(&b, "### %s\n", res.Agent)
				if res.Failed() {
					fmt.Fprintf(&b, "Failed: %s", res.Result.Err)
					continue
				}
				b.WriteString(res.Result.Response)
			}
			return b.String(), nil
		},
	)
}

func (o *Orchestrator) parseTasks(args map[string]any) ([]executor.TaskRequest, error) {
	raw, ok := args["tasks"].([]any)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("tasks must be a non-empty array")
	}
	tasks := make([]executor.TaskRequest, 0, len(raw))
	for i, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("task %d must be an object with agent and query", i)
		}
		agent, _ := m["agent"].(string)
		query, _ := m["query"].(string)
		if agent == "" || query == "" {
			return nil, fmt.Errorf("task %d must set both agent and query", i)
		}
		if !o.allowed(agent) {
			return nil, fmt.Errorf("agent %s is not an allowed routing target (allowed: %s)",
				agent, strings.Join(o.Targets(), ", "))
		}
		tasks = append(tasks, executor.TaskRequest{Agent: agent, Query: query})
	}
	return tasks, nil
}
