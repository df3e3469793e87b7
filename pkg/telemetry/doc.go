// Package telemetry provides structured logging, Prometheus metrics, and
// OpenTelemetry tracing for the autoflow rule runner.
//
// All three collaborators are optional: a nil *Metrics or *Tracer is a no-op,
// so the engine can run fully instrumented or completely bare.
package telemetry
