package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/socialchef/transcriptor/internal/cache"
	"github.com/socialchef/transcriptor/internal/config"
	"github.com/socialchef/transcriptor/internal/errors"
)

// Model hands out the process-wide Provider, building it on first use.
type Model interface {
	Get(ctx context.Context) (Provider, error)
}

// NewModel returns the lazily-initialized Model Instance for cfg.
// Nothing is resolved until the first Get.
func NewModel(cfg *config.Config) *cache.Resource[Provider] {
	name := cfg.Transcription.Provider
	if cfg.Transcription.Model != "" {
		name += ":" + cfg.Transcription.Model
	}
	return cache.NewResource[Provider](name, func(ctx context.Context) (Provider, error) {
		provider, err := NewProvider(cfg)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load transcription model", "model", name, "error", err)
			return nil, err
		}
		slog.InfoContext(ctx, "Transcription model loaded", "model", name)
		return provider, nil
	})
}

// NewProvider creates a new transcription provider based on the configuration
// It can optionally wrap the provider in a fallback wrapper if enabled
func NewProvider(cfg *config.Config) (Provider, error) {
	t := cfg.Transcription

	primary, err := newProvider(ProviderType(strings.ToLower(t.Provider)), t.Model, cfg)
	if err != nil {
		return nil, err
	}
	if !t.FallbackEnabled {
		return primary, nil
	}

	// The configured model name belongs to the primary provider
	secondary, err := newProvider(ProviderType(strings.ToLower(t.FallbackProvider)), "", cfg)
	if err != nil {
		return nil, err
	}
	return NewFallbackProvider(primary, secondary).named(t.Provider, t.FallbackProvider), nil
}

func newProvider(kind ProviderType, model string, cfg *config.Config) (Provider, error) {
	switch kind {
	case ProviderWhisper, "":
		provider, err := NewWhisperProvider(cfg.Media.WhisperPath, model)
		if err != nil {
			return nil, errors.NewTranscriptionError("failed to load whisper model", "MODEL_LOAD_ERROR", err)
		}
		return provider, nil
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.OpenAIKey, model), nil
	case ProviderGroq:
		return NewGroqProvider(cfg.GroqKey, model), nil
	default:
		return nil, errors.NewTranscriptionError(fmt.Sprintf("unknown transcription provider %q", kind), "MODEL_LOAD_ERROR", nil)
	}
}

// isRetryableError checks if an error is retryable (5xx errors)
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := errors.As(err); ok {
		return appErr.IsRetryable()
	}
	return false
}
