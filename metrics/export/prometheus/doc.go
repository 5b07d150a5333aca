// Package prometheus renders tokengate metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] accepts a [tokengate.Engine] and exposes an
// [http.Handler] that renders every tokengate counter plus the
// audit-drop counter. Counter names are prefixed tokengate_*_total.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate engine state.
package prometheus
