// Package telemetry provides OpenTelemetry initialization and helpers
// for tracing the upload, extraction and transcription pipeline.
//
// Traces and logs are exported over OTLP HTTP when an endpoint is configured;
// otherwise the global no-op providers stay in place.
package telemetry
