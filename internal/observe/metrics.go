// Package observe exports capture statistics as OpenTelemetry metrics,
// scraped through a Prometheus bridge.
//
// The capture callback never records metrics itself. Every instrument here
// is observable: the SDK pulls a [capture.Stats] snapshot at collection time,
// so the real-time path only ever touches its own atomics.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/metric"

	"github.com/olivier-w/specterm/internal/capture"
)

// meterName is the instrumentation scope name used for all specterm metrics.
const meterName = "github.com/olivier-w/specterm"

// StatsFunc returns the current capture counters.
type StatsFunc func() capture.Stats

// Metrics holds the observable instruments and their callback registration.
type Metrics struct {
	Frames       metric.Int64ObservableCounter
	Events       metric.Int64ObservableCounter
	DroppedRows  metric.Int64ObservableCounter
	Overflows    metric.Int64ObservableCounter
	Underflows   metric.Int64ObservableCounter
	Fault        metric.Int64ObservableGauge
	CallbackLast metric.Float64ObservableGauge
	CallbackMax  metric.Float64ObservableGauge
	registration metric.Registration
}

// NewMetrics creates the instruments on mp and registers a callback that
// reads stats on every collection.
func NewMetrics(mp metric.MeterProvider, stats StatsFunc) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Counters.
	if met.Frames, err = m.Int64ObservableCounter("specterm.frames",
		metric.WithDescription("Audio buffers transformed into rows."),
	); err != nil {
		return nil, err
	}
	if met.Events, err = m.Int64ObservableCounter("specterm.events",
		metric.WithDescription("Rows containing an event-band cell."),
	); err != nil {
		return nil, err
	}
	if met.DroppedRows, err = m.Int64ObservableCounter("specterm.rows.dropped",
		metric.WithDescription("Rows replaced before the renderer took them."),
	); err != nil {
		return nil, err
	}
	if met.Overflows, err = m.Int64ObservableCounter("specterm.input.overflows",
		metric.WithDescription("Buffers the backend flagged as input overflow."),
	); err != nil {
		return nil, err
	}
	if met.Underflows, err = m.Int64ObservableCounter("specterm.input.underflows",
		metric.WithDescription("Buffers the backend flagged as input underflow."),
	); err != nil {
		return nil, err
	}

	// Gauges.
	if met.Fault, err = m.Int64ObservableGauge("specterm.fault",
		metric.WithDescription("Latched capture fault code; 0 when healthy."),
	); err != nil {
		return nil, err
	}
	if met.CallbackLast, err = m.Float64ObservableGauge("specterm.callback.duration.last",
		metric.WithDescription("Duration of the most recent capture callback."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if met.CallbackMax, err = m.Float64ObservableGauge("specterm.callback.duration.max",
		metric.WithDescription("Longest capture callback so far."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	met.registration, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		st := stats()
		o.ObserveInt64(met.Frames, int64(st.Frames))
		o.ObserveInt64(met.Events, int64(st.Events))
		o.ObserveInt64(met.DroppedRows, int64(st.Dropped))
		o.ObserveInt64(met.Overflows, int64(st.Overflows))
		o.ObserveInt64(met.Underflows, int64(st.Underflows))
		o.ObserveInt64(met.Fault, int64(st.Fault))
		o.ObserveFloat64(met.CallbackLast, st.LastCallback.Seconds())
		o.ObserveFloat64(met.CallbackMax, st.MaxCallback.Seconds())
		return nil
	},
		met.Frames, met.Events, met.DroppedRows, met.Overflows, met.Underflows,
		met.Fault, met.CallbackLast, met.CallbackMax,
	)
	if err != nil {
		return nil, err
	}
	return met, nil
}

// Close unregisters the collection callback.
func (m *Metrics) Close() error {
	return m.registration.Unregister()
}
