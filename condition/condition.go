// Package condition provides the gate-2 predicate of the eligibility
// filter: a small, pure, side-effect-free check of whether a trigger is
// allowed to run at all, independent of timing or concurrency.
package condition

import (
	"context"

	"github.com/teranos/cadence/flow"
)

// Evaluator is the condition evaluator contract (§4.D / §6). It must not
// block on I/O or mutate state; a trigger that needs to consult external
// state belongs behind PollingTriggerDeclaration.Evaluate, not here.
type Evaluator interface {
	IsValid(ctx context.Context, t flow.TriggerDeclaration, f flow.Flow) bool
}

// Predicate adapts a plain function to an Evaluator.
type Predicate func(ctx context.Context, t flow.TriggerDeclaration, f flow.Flow) bool

// IsValid calls the underlying function.
func (p Predicate) IsValid(ctx context.Context, t flow.TriggerDeclaration, f flow.Flow) bool {
	return p(ctx, t, f)
}

// AlwaysValid is an Evaluator that admits every trigger, useful as a
// default when the embedder defines no disable/pause mechanism.
var AlwaysValid Evaluator = Predicate(func(context.Context, flow.TriggerDeclaration, flow.Flow) bool {
	return true
})

// Disabled is a declaration-level opt-out a concrete trigger kind may
// implement to be excluded regardless of any other condition.
type Disabled interface {
	Disabled() bool
}

// NotDisabled is an Evaluator that rejects any declaration implementing
// Disabled and reporting true, and otherwise defers to the given
// Evaluator (or admits, if next is nil).
func NotDisabled(next Evaluator) Evaluator {
	return Predicate(func(ctx context.Context, t flow.TriggerDeclaration, f flow.Flow) bool {
		if d, ok := t.(Disabled); ok && d.Disabled() {
			return false
		}
		if next == nil {
			return true
		}
		return next.IsValid(ctx, t, f)
	})
}
