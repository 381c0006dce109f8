package trigger

import "time"

// Context is the value passed to a trigger's Evaluate call: everything it
// needs to know about where and when it is being asked to run.
type Context struct {
	Namespace    string
	FlowID       string
	FlowRevision int
	TriggerID    string
	Date         time.Time
}

// UID returns the trigger's stable identity, excluding flow revision.
func (c Context) UID() UID {
	return UID{Namespace: c.Namespace, FlowID: c.FlowID, TriggerID: c.TriggerID}
}
