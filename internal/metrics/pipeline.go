package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter("transcriptor/pipeline")

	// Upload metrics
	UploadsTotal metric.Int64Counter
	UploadBytes  metric.Int64Histogram

	// Pipeline stage metrics (extract, transcribe)
	StageDuration metric.Float64Histogram

	// External API metrics
	ExternalAPICallsTotal metric.Int64Counter
	ExternalAPIDuration   metric.Float64Histogram

	// Provider fallback metrics
	ProviderFallbackTotal metric.Int64Counter
)

func Init() error {
	var err error

	UploadsTotal, err = meter.Int64Counter(
		"transcription.uploads.total",
		metric.WithDescription("Total number of uploads by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	UploadBytes, err = meter.Int64Histogram(
		"transcription.upload.size",
		metric.WithDescription("Declared size of accepted uploads"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(1<<20, 5<<20, 10<<20, 25<<20, 50<<20),
	)
	if err != nil {
		return err
	}

	StageDuration, err = meter.Float64Histogram(
		"transcription.stage.duration",
		metric.WithDescription("Duration of pipeline stages"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return err
	}

	ExternalAPICallsTotal, err = meter.Int64Counter(
		"external.api.calls.total",
		metric.WithDescription("Total number of external API calls"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	ExternalAPIDuration, err = meter.Float64Histogram(
		"external.api.duration",
		metric.WithDescription("Duration of external API calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30, 60),
	)
	if err != nil {
		return err
	}

	ProviderFallbackTotal, err = meter.Int64Counter(
		"provider.fallback.total",
		metric.WithDescription("Total number of provider fallback events"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	return nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordUpload counts an upload by outcome ("accepted", "rejected", "completed", "failed").
func RecordUpload(ctx context.Context, outcome string, size int64) {
	if UploadsTotal == nil {
		return
	}
	UploadsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if outcome == "accepted" && UploadBytes != nil {
		UploadBytes.Record(ctx, size)
	}
}

// RecordStage records how long a pipeline stage took and whether it failed.
func RecordStage(ctx context.Context, stage string, start time.Time, err error) {
	if StageDuration == nil {
		return
	}
	StageDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status(err)),
	))
}

// RecordExternalCall records one call to a remote transcription API.
func RecordExternalCall(ctx context.Context, provider string, start time.Time, err error) {
	if ExternalAPICallsTotal == nil || ExternalAPIDuration == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("provider", provider)}
	ExternalAPIDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
	ExternalAPICallsTotal.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("status", status(err)))...))
}

// RecordFallback counts a switch from the primary to the secondary provider.
func RecordFallback(ctx context.Context, primary, secondary string) {
	if ProviderFallbackTotal == nil {
		return
	}
	ProviderFallbackTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("primary", primary),
		attribute.String("secondary", secondary),
	))
}
