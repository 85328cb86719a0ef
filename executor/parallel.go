package executor

import (
	"context"
	"sync"

	"github.com/agentrelay/agentrelay/core"
)

// TaskRequest names one delegated sub-task for fan-out execution.
type TaskRequest struct {
	Agent string `json:"agent"`
	Query string `json:"query"`
}

// ExecuteTasks runs the given tasks concurrently, each under its own
// delegation context derived independently from the ambient one, and returns
// results in task order. Siblings share no mutable state; a refusal or
// failure in one task never affects the others.
func (e *Executor) ExecuteTasks(ctx context.Context, tasks []TaskRequest) []core.TaskResult {
	results := make([]core.TaskResult, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task TaskRequest) {
			defer wg.Done()
			results[i] = e.ExecuteTask(ctx, task.Agent, task.Query)
		}(i, task)
	}
	wg.Wait()
	return results
}
