package trigger

import "time"

// Record is the durable per-trigger snapshot of the most recent admission
// or fire. At most one record exists per UID; saves replace in place.
type Record struct {
	Namespace    string
	FlowID       string
	FlowRevision int
	TriggerID    string
	Date         time.Time
	ExecutionID  *string
}

// UID returns the record's stable identity.
func (r Record) UID() UID {
	return UID{Namespace: r.Namespace, FlowID: r.FlowID, TriggerID: r.TriggerID}
}

// Equivalent reports whether two records carry the same observable state,
// ignoring nothing — used by round-trip tests (save then findLast).
func (r Record) Equivalent(other Record) bool {
	if r.Namespace != other.Namespace || r.FlowID != other.FlowID ||
		r.FlowRevision != other.FlowRevision || r.TriggerID != other.TriggerID {
		return false
	}
	if !r.Date.Equal(other.Date) {
		return false
	}
	switch {
	case r.ExecutionID == nil && other.ExecutionID == nil:
		return true
	case r.ExecutionID == nil || other.ExecutionID == nil:
		return false
	default:
		return *r.ExecutionID == *other.ExecutionID
	}
}
