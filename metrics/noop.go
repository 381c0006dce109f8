package metrics

import "time"

// NoopRegistry discards every measurement. Used by tests and by
// embedders that have not wired a meter provider.
type NoopRegistry struct{}

func (NoopRegistry) Counter(string, ...string) Counter      { return noopCounter{} }
func (NoopRegistry) Timer(string, ...string) Timer          { return noopTimer{} }
func (NoopRegistry) Gauge(string, float64, ...string) Gauge { return noopGauge{} }

type noopCounter struct{}

func (noopCounter) Inc()        {}
func (noopCounter) Add(float64) {}

type noopTimer struct{}

func (noopTimer) Record(time.Duration) {}

type noopGauge struct{}

func (noopGauge) Set(float64) {}
func (noopGauge) Inc()        {}
func (noopGauge) Dec()        {}
