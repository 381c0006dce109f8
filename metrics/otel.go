package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/teranos/cadence/errors"
)

// OtelRegistry adapts an otel/metric.Meter to the Registry contract.
// Instruments are created lazily and cached by name; each call returns a
// handle that carries its own tags as the attribute set, so repeated
// Counter/Timer/Gauge calls for the same name reuse one instrument.
type OtelRegistry struct {
	meter metric.Meter

	mu        instrumentCache
	counters  map[string]metric.Int64Counter
	timers    map[string]metric.Float64Histogram
	gauges    map[string]metric.Float64Gauge
}

type instrumentCache struct{ guard chan struct{} }

func newInstrumentCache() instrumentCache {
	c := instrumentCache{guard: make(chan struct{}, 1)}
	c.guard <- struct{}{}
	return c
}

func (c instrumentCache) lock()   { <-c.guard }
func (c instrumentCache) unlock() { c.guard <- struct{}{} }

// NewOtelRegistry builds a Registry backed by the given meter, obtained
// from an otel/sdk/metric.MeterProvider configured by the embedder.
func NewOtelRegistry(meter metric.Meter) *OtelRegistry {
	return &OtelRegistry{
		meter:    meter,
		mu:       newInstrumentCache(),
		counters: make(map[string]metric.Int64Counter),
		timers:   make(map[string]metric.Float64Histogram),
		gauges:   make(map[string]metric.Float64Gauge),
	}
}

func attrsFromTags(tags []string) attribute.Set {
	kvs := make([]attribute.KeyValue, 0, len(tags)/2)
	for i := 0; i+1 < len(tags); i += 2 {
		kvs = append(kvs, attribute.String(tags[i], tags[i+1]))
	}
	return attribute.NewSet(kvs...)
}

// Counter returns a Counter instrument for name, creating it on first use.
func (r *OtelRegistry) Counter(name string, tags ...string) Counter {
	r.mu.lock()
	c, ok := r.counters[name]
	if !ok {
		var err error
		c, err = r.meter.Int64Counter(name)
		if err != nil {
			r.mu.unlock()
			panic(errors.Wrapf(err, "create counter instrument %s", name))
		}
		r.counters[name] = c
	}
	r.mu.unlock()

	return &otelCounter{counter: c, attrs: attrsFromTags(tags)}
}

// Timer returns a Timer instrument for name, backed by a histogram of
// durations in milliseconds.
func (r *OtelRegistry) Timer(name string, tags ...string) Timer {
	r.mu.lock()
	h, ok := r.timers[name]
	if !ok {
		var err error
		h, err = r.meter.Float64Histogram(name, metric.WithUnit("ms"))
		if err != nil {
			r.mu.unlock()
			panic(errors.Wrapf(err, "create histogram instrument %s", name))
		}
		r.timers[name] = h
	}
	r.mu.unlock()

	return &otelTimer{histogram: h, attrs: attrsFromTags(tags)}
}

// Gauge returns a Gauge instrument for name. initial is recorded
// immediately on creation.
func (r *OtelRegistry) Gauge(name string, initial float64, tags ...string) Gauge {
	r.mu.lock()
	g, ok := r.gauges[name]
	if !ok {
		var err error
		g, err = r.meter.Float64Gauge(name)
		if err != nil {
			r.mu.unlock()
			panic(errors.Wrapf(err, "create gauge instrument %s", name))
		}
		r.gauges[name] = g
	}
	r.mu.unlock()

	gauge := &otelGauge{gauge: g, attrs: attrsFromTags(tags)}
	gauge.Set(initial)
	return gauge
}

type otelCounter struct {
	counter metric.Int64Counter
	attrs   attribute.Set
}

func (c *otelCounter) Inc()              { c.Add(1) }
func (c *otelCounter) Add(delta float64) { c.counter.Add(context.Background(), int64(delta), metric.WithAttributeSet(c.attrs)) }

type otelTimer struct {
	histogram metric.Float64Histogram
	attrs     attribute.Set
}

func (t *otelTimer) Record(d time.Duration) {
	t.histogram.Record(context.Background(), float64(d.Milliseconds()), metric.WithAttributeSet(t.attrs))
}

type otelGauge struct {
	gauge metric.Float64Gauge
	attrs attribute.Set
	value float64
}

func (g *otelGauge) Set(v float64) {
	g.value = v
	g.gauge.Record(context.Background(), v, metric.WithAttributeSet(g.attrs))
}

func (g *otelGauge) Inc() { g.Set(g.value + 1) }
func (g *otelGauge) Dec() { g.Set(g.value - 1) }
