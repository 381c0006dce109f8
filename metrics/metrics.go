// Package metrics is the scheduler's metrics surface: counters, timers,
// and gauges tagged by trigger uid, namespace, and flow id. Mirrors the
// package-level SchedulerJobsPending/SchedulerJobsScheduled style of
// dispatch-job counters, but expressed as an injectable registry instead
// of package globals so tests can substitute a no-op implementation.
package metrics

import "time"

// Counter is a monotonically increasing value, e.g. scheduler.trigger.count.
type Counter interface {
	Inc()
	Add(delta float64)
}

// Timer records durations, e.g. scheduler.evaluate.duration.
type Timer interface {
	Record(d time.Duration)
}

// Gauge is a point-in-time value that can move in either direction, e.g.
// scheduler.evaluate.running.count.
type Gauge interface {
	Set(v float64)
	Inc()
	Dec()
}

// Registry produces named, tagged instruments. Tags are passed as
// alternating key/value pairs, consistent with the logging package's
// variadic Infow-style field convention.
type Registry interface {
	Counter(name string, tags ...string) Counter
	Timer(name string, tags ...string) Timer
	Gauge(name string, initial float64, tags ...string) Gauge
}

// Standard instrument names used by the scheduler (§6 "Persisted state
// layout, metric names").
const (
	MetricEvaluateDuration     = "scheduler.evaluate.duration"
	MetricEvaluateRunningCount = "scheduler.evaluate.running.count"
	MetricTriggerCount         = "scheduler.trigger.count"
)
