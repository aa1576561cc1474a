package otel

import (
	"context"
	"errors"
	"fmt"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goSession.MetricsSnapshot
	AuditDropped() uint64
}

// postureSource is the optional capability behind the session posture
// gauges; a full manager has it, plain snapshot sources do not.
type postureSource interface {
	Introspect() goSession.SessionReport
}

type observedCounter struct {
	id         goSession.MetricID
	instrument metric.Int64ObservableCounter
}

// observedLatency publishes one histogram family as a single bucket
// gauge, the buckets distinguished by their le attribute, plus a count
// gauge.
type observedLatency struct {
	id     goSession.MetricID
	bucket metric.Int64ObservableGauge
	count  metric.Int64ObservableGauge
	le     []metric.ObserveOption
}

type observedPosture struct {
	gauge metric.Int64ObservableGauge
	value func(goSession.SessionReport) int64
}

type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
	latencies    []observedLatency
	postures     []observedPosture
	auditDropped metric.Int64ObservableCounter
}

func NewOTelExporter(meter metric.Meter, manager *goSession.Manager) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, manager)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &OTelExporter{
		source:   source,
		counters: make([]observedCounter, 0, len(internaldefs.CounterDefs)),
	}

	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		bucket, err := meter.Int64ObservableGauge(def.Name+"_bucket", metric.WithDescription("Cumulative bucket count by le."))
		if err != nil {
			return nil, fmt.Errorf("create histogram bucket gauge %s: %w", def.Name, err)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", def.Name, err)
		}
		le := make([]metric.ObserveOption, len(internaldefs.HistogramLe))
		for i, bound := range internaldefs.HistogramLe {
			le[i] = metric.WithAttributes(attribute.String("le", bound))
		}
		exporter.latencies = append(exporter.latencies, observedLatency{id: def.ID, bucket: bucket, count: count, le: le})
		observables = append(observables, bucket, count)
	}

	auditDropped, err := meter.Int64ObservableCounter(
		"gosession_audit_dropped_total",
		metric.WithDescription("Dropped audit events due to dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	exporter.auditDropped = auditDropped
	observables = append(observables, auditDropped)

	ps, hasPosture := source.(postureSource)
	if hasPosture {
		for _, def := range internaldefs.PostureDefs {
			gauge, err := meter.Int64ObservableGauge(def.Name, metric.WithDescription(def.Help))
			if err != nil {
				return nil, fmt.Errorf("create posture gauge %s: %w", def.Name, err)
			}
			exporter.postures = append(exporter.postures, observedPosture{gauge: gauge, value: def.Value})
			observables = append(observables, gauge)
		}
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := exporter.source.MetricsSnapshot()
		for _, c := range exporter.counters {
			observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
		}
		for _, l := range exporter.latencies {
			cumulative := internaldefs.Cumulative(snapshot.Histograms[l.id])
			for i, opt := range l.le {
				observer.ObserveInt64(l.bucket, int64(cumulative[i]), opt)
			}
			observer.ObserveInt64(l.count, int64(cumulative[len(cumulative)-1]))
		}
		observer.ObserveInt64(exporter.auditDropped, int64(exporter.source.AuditDropped()))
		if hasPosture {
			report := ps.Introspect()
			for _, g := range exporter.postures {
				observer.ObserveInt64(g.gauge, g.value(report))
			}
		}
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
