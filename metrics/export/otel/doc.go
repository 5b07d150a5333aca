// Package otel provides OpenTelemetry metric exporter bindings for tokengate
// counters.
//
// [NewOTelExporter] registers an Int64ObservableCounter instrument for each
// tokengate metric plus the audit-drop counter. A single callback reads
// [tokengate.Engine.MetricsSnapshot] on each collection cycle, so collection
// cost is a handful of atomic loads.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
