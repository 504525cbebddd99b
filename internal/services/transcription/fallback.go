package transcription

import (
	"context"
	"log/slog"

	"github.com/socialchef/transcriptor/internal/errors"
	"github.com/socialchef/transcriptor/internal/metrics"
)

// FallbackProvider implements the Provider interface with fallback logic
type FallbackProvider struct {
	primary       Provider
	secondary     Provider
	primaryName   string
	secondaryName string
}

// NewFallbackProvider creates a new fallback provider
func NewFallbackProvider(primary, secondary Provider) *FallbackProvider {
	return &FallbackProvider{
		primary:   primary,
		secondary: secondary,
	}
}

func (f *FallbackProvider) named(primary, secondary string) *FallbackProvider {
	f.primaryName = primary
	f.secondaryName = secondary
	return f
}

// Transcribe tries the primary provider first, falls back to secondary on 5xx errors
func (f *FallbackProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	result, err := f.primary.Transcribe(ctx, audioPath)
	if err == nil {
		return result, nil
	}

	if !isRetryableError(err) {
		slog.InfoContext(ctx, "Primary provider failed with non-retryable error, not attempting fallback",
			"error", err.Error(),
			"audio_path", audioPath)
		return "", err
	}

	slog.InfoContext(ctx, "Primary provider failed with retryable error, attempting fallback",
		"primary_error", err.Error(),
		"audio_path", audioPath)
	metrics.RecordFallback(ctx, f.primaryName, f.secondaryName)

	result, fallbackErr := f.secondary.Transcribe(ctx, audioPath)
	if fallbackErr != nil {
		slog.ErrorContext(ctx, "Both primary and secondary providers failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
			"audio_path", audioPath)
		return "", errors.NewTranscriptionError(
			"both primary and secondary providers failed",
			"PROVIDER_FALLBACK_FAILED",
			fallbackErr,
		)
	}

	slog.InfoContext(ctx, "Fallback provider succeeded",
		"primary_error", err.Error(),
		"audio_path", audioPath)
	return result, nil
}
