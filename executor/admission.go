package executor

import (
	"context"
	"fmt"

	"github.com/agentrelay/agentrelay/core"
	"github.com/agentrelay/agentrelay/registry"
)

// AdmissionKind classifies why a delegation was refused.
type AdmissionKind string

const (
	KindUnknownAgent       AdmissionKind = "unknown_agent"
	KindOrchestratorTarget AdmissionKind = "orchestrator_target"
	KindUnsupportedAgent   AdmissionKind = "unsupported_agent"
	KindDepthExceeded      AdmissionKind = "depth_exceeded"
	KindSelfDelegation     AdmissionKind = "self_delegation"
	KindCircularDelegation AdmissionKind = "circular_delegation"
	KindGuardRejected      AdmissionKind = "guard_rejected"
)

// AdmissionError describes a refused delegation. It is soft by design: the
// executor folds it into the task result instead of returning it to callers.
type AdmissionError struct {
	Kind    AdmissionKind
	Agent   string
	Message string
}

func (e *AdmissionError) Error() string { return e.Message }

func admissionError(kind AdmissionKind, agent, format string, args ...any) *AdmissionError {
	return &AdmissionError{Kind: kind, Agent: agent, Message: fmt.Sprintf(format, args...)}
}

// admit runs the ordered admission checks for delegating to target with the
// given query under the (possibly absent) ambient delegation context. It is
// side effect free: no event is emitted and no engine call made before every
// check passes.
func (e *Executor) admit(
	ctx context.Context,
	dc *core.DelegationContext,
	target, query string,
) (registry.Definition, *AdmissionError) {
	def, ok := e.reg.Get(target)
	if !ok {
		return def, admissionError(KindUnknownAgent, target, "Unknown agent: %s", target)
	}
	if def.Orchestrator {
		return def, admissionError(KindOrchestratorTarget, target,
			"Agent %s is an orchestrator and cannot be a delegation target", target)
	}
	if !def.HasTools() {
		return def, admissionError(KindUnsupportedAgent, target,
			"Agent %s does not support task execution", target)
	}
	if dc != nil {
		if dc.Depth >= e.maxDepth {
			return def, admissionError(KindDepthExceeded, target,
				"Delegation depth limit reached (max %d, chain: %s)", e.maxDepth, dc.ChainString())
		}
		if dc.Last() == target {
			return def, admissionError(KindSelfDelegation, target,
				"Self-delegation blocked: %s cannot delegate to itself", target)
		}
		if dc.InChain(target) {
			return def, admissionError(KindCircularDelegation, target,
				"Circular delegation blocked: %s already appears in chain %s", target, dc.ChainString())
		}
	}
	if def.Guard != nil {
		decision := def.Guard(ctx, query, target)
		if !decision.Allowed {
			return def, admissionError(KindGuardRejected, target, "Guard blocked: %s", decision.Reason)
		}
	}
	return def, nil
}
