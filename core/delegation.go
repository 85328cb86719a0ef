package core

import (
	"context"
	"slices"
	"strings"
)

// DelegationContext carries the ambient per-call-chain state of a delegation:
// the ordered chain of agent names from the top-level orchestrator down to the
// current call, the recursion depth, and the event bus scoped to this chain.
//
// Contexts are immutable after construction. Each nested delegation derives a
// fresh context via Extend rather than mutating its parent, so concurrent
// sibling delegations never share mutable state. A DelegationContext is
// discarded when its call returns; outside any delegation scope there is none.
type DelegationContext struct {
	Chain []string
	Depth int
	Bus   *Bus
}

// NewDelegationContext creates the root context an orchestrator seeds when it
// begins delegating: a chain containing only the orchestrator itself.
func NewDelegationContext(root string, bus *Bus) *DelegationContext {
	return &DelegationContext{Chain: []string{root}, Depth: 1, Bus: bus}
}

// Extend derives the context for a nested call to target: a copied chain with
// target appended and depth incremented. The receiver is left untouched.
func (d *DelegationContext) Extend(target string) *DelegationContext {
	chain := make([]string, 0, len(d.Chain)+1)
	chain = append(chain, d.Chain...)
	chain = append(chain, target)
	return &DelegationContext{Chain: chain, Depth: d.Depth + 1, Bus: d.Bus}
}

// Last returns the most recent chain entry, or "" for an empty chain.
func (d *DelegationContext) Last() string {
	if len(d.Chain) == 0 {
		return ""
	}
	return d.Chain[len(d.Chain)-1]
}

// InChain reports whether name appears anywhere in the chain.
func (d *DelegationContext) InChain(name string) bool {
	return slices.Contains(d.Chain, name)
}

// ChainString renders the chain as "a -> b -> c" for diagnostics.
func (d *DelegationContext) ChainString() string {
	return strings.Join(d.Chain, " -> ")
}

type delegationKey struct{}

// WithDelegation returns a context carrying dc as the ambient delegation
// scope. The value survives every goroutine hop and suspension point the
// context is threaded through.
func WithDelegation(ctx context.Context, dc *DelegationContext) context.Context {
	return context.WithValue(ctx, delegationKey{}, dc)
}

// DelegationFromContext returns the ambient delegation context, or false when
// called outside any delegation scope.
func DelegationFromContext(ctx context.Context) (*DelegationContext, bool) {
	dc, ok := ctx.Value(delegationKey{}).(*DelegationContext)
	return dc, ok
}

// EventBusFromContext returns the bus scoped to the ambient delegation, or
// false when there is no active delegation or the delegation carries no bus.
func EventBusFromContext(ctx context.Context) (*Bus, bool) {
	dc, ok := DelegationFromContext(ctx)
	if !ok || dc.Bus == nil {
		return nil, false
	}
	return dc.Bus, true
}
