// Package observability provides an OpenTelemetry-based metrics extension
// for the store. The MetricsExtension implements lifecycle hooks to record
// system-wide counters for dispatches, state changes, and effect task
// launches and cancellations.
//
// For per-effect tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
