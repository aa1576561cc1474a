// Package otel provides OpenTelemetry metric exporter bindings for goSession
// counters and histograms.
//
// [NewOTelExporter] registers Int64ObservableCounter instruments for each goSession
// metric, one bucket gauge per histogram with the boundary carried in the le
// attribute, and session posture gauges when the source supports introspection.
// A single callback reads [goSession.Manager.MetricsSnapshot] on each collection
// cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate session state.
package otel
