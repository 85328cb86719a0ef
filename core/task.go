package core

// TaskOutput is the inner result of a delegated execution. Soft admission
// failures are encoded in Response (and mirrored in Err); they are never
// surfaced as raised errors.
type TaskOutput struct {
	Response  string   `json:"response"`
	ToolsUsed []string `json:"tools_used"`
	Err       string   `json:"error,omitempty"`
}

// TaskResult is the uniform outcome of one delegated call.
type TaskResult struct {
	Agent  string     `json:"agent"`
	Query  string     `json:"query"`
	Result TaskOutput `json:"result"`
}

// Failed reports whether the execution ended in any failure mode.
func (r TaskResult) Failed() bool { return r.Result.Err != "" }
