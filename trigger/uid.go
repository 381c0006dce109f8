// Package trigger defines the stable identity and durable record of a
// polling trigger, independent of the flow catalog that declares it.
package trigger

import "fmt"

// UID is the stable identity of a trigger: (namespace, flowId, triggerId).
// Flow revision is deliberately excluded so a record survives flow edits.
type UID struct {
	Namespace string
	FlowID    string
	TriggerID string
}

// String renders the uid in a log-friendly, stable form.
func (u UID) String() string {
	return fmt.Sprintf("%s.%s.%s", u.Namespace, u.FlowID, u.TriggerID)
}
