package registry

import "context"

// Decision is a guard's verdict on a pending execution.
type Decision struct {
	Allowed bool
	Reason  string
}

// Guard is a pre-execution admission hook that may veto a delegation before
// any model invocation. Guards may block (network calls, policy services);
// they receive the caller's context for cancellation.
type Guard func(ctx context.Context, query, agentName string) Decision

// Allow is a Decision permitting execution.
func Allow() Decision { return Decision{Allowed: true} }

// Deny is a Decision blocking execution with the given reason.
func Deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }
