// Package runner implements the conversational entry point for AgentRelay.
//
// The Runner coordinates one turn at a time: it compacts over-budget history
// before the turn, resolves which agent should answer (an attached
// orchestrator by default, else the first registered tool-bearing
// specialist), dispatches through the orchestrator or the task executor, and
// persists the user/assistant exchange in the conversation store.
//
// Prompt override warm-up runs as a supervised background task via
// StartWarmup: a failed load is logged and the registry serves default
// prompts instead of failing requests.
package runner
