// Package flow defines the catalog-facing view of a workflow definition and
// the triggers it declares. The scheduler treats a Flow as opaque beyond
// its identity and trigger list; concrete trigger kinds (cron, filesystem
// watch, webhook, ...) are external collaborators supplied by the embedder.
package flow

import (
	"context"
	"time"

	"github.com/teranos/cadence/execution"
	"github.com/teranos/cadence/trigger"
)

// Flow is opaque to the scheduler beyond namespace, id, revision, and its
// (possibly empty) ordered sequence of trigger declarations.
type Flow struct {
	Namespace string
	ID        string
	Revision  int
	Triggers  []TriggerDeclaration
}

// RunContext is produced fresh for each evaluation by a RunContextFactory.
// It is opaque to the scheduler; concrete trigger kinds downcast it to
// whatever flow-derived state they need.
type RunContext interface{}

// TriggerDeclaration is a trigger as declared on a flow. Only a subset of
// declarations are polling triggers (see PollingTriggerDeclaration).
type TriggerDeclaration interface {
	ID() string
}

// PollingTriggerDeclaration is a TriggerDeclaration the scheduler may
// periodically evaluate. NextDate and Evaluate are the only points where
// user code runs.
type PollingTriggerDeclaration interface {
	TriggerDeclaration

	// Interval is the minimum poll spacing for this trigger.
	Interval() time.Duration

	// NextDate is a pure function returning the next firing instant. It may
	// consult the last-fire record if one exists; last is nil on first sight.
	NextDate(last *trigger.Record) time.Time

	// Evaluate may be expensive and may fail. It returns a non-nil execution
	// to signal "fire now", or (nil, nil) to signal "not yet".
	Evaluate(ctx context.Context, runCtx RunContext, tc trigger.Context) (*execution.Execution, error)
}

// AsPolling narrows a TriggerDeclaration to a PollingTriggerDeclaration, the
// gate-1 check of the eligibility filter.
func AsPolling(d TriggerDeclaration) (PollingTriggerDeclaration, bool) {
	p, ok := d.(PollingTriggerDeclaration)
	return p, ok
}

// Listener is the flow catalog view: a cheap, O(#flows) read of the current
// snapshot of flows, called once per scheduler tick.
type Listener interface {
	Flows(ctx context.Context) ([]Flow, error)
}

// RunContextFactory produces a RunContext for one (flow, trigger) pair.
// It is not cached across evaluations because triggers may consume
// flow-derived state that changes between ticks.
type RunContextFactory interface {
	Of(ctx context.Context, f Flow, t TriggerDeclaration) (RunContext, error)
}

// NilRunContextFactory produces an empty RunContext, suitable for trigger
// kinds (like the file-backed interval trigger) that need no flow-derived
// state at evaluation time.
type NilRunContextFactory struct{}

// Of always returns a nil RunContext.
func (NilRunContextFactory) Of(ctx context.Context, f Flow, t TriggerDeclaration) (RunContext, error) {
	return nil, nil
}
