package transcription

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/socialchef/transcriptor/internal/errors"
	"github.com/socialchef/transcriptor/internal/httpclient"
	"github.com/socialchef/transcriptor/internal/metrics"
)

// OpenAIProvider implements the Provider interface for OpenAI
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a new OpenAI transcription provider
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = httpclient.NewInstrumentedClient(httpclient.TranscriptionTimeout)
	return newOpenAIProviderWithConfig(cfg, model)
}

func newOpenAIProviderWithConfig(cfg openai.ClientConfig, model string) *OpenAIProvider {
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Transcribe transcribes an audio file using OpenAI's transcription API
func (p *OpenAIProvider) Transcribe(ctx context.Context, audioPath string) (text string, err error) {
	start := time.Now()
	defer func() { metrics.RecordExternalCall(ctx, "openai", start, err) }()

	resp, err := p.client.CreateTranscription(httpclient.WithProvider(ctx, "OpenAI"), openai.AudioRequest{
		Model:    p.model,
		FilePath: audioPath,
	})
	if err != nil {
		return "", mapOpenAIError(err)
	}
	return resp.Text, nil
}

// mapOpenAIError keeps the upstream status so the fallback logic can act on it
func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		return errors.NewUpstreamError(
			fmt.Sprintf("OpenAI API error (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message),
			"OPENAI_API_HTTP_ERROR",
			apiErr.HTTPStatusCode,
		)
	}

	var reqErr *openai.RequestError
	if stderrors.As(err, &reqErr) {
		return errors.NewUpstreamError(
			fmt.Sprintf("OpenAI API error (status %d): %v", reqErr.HTTPStatusCode, reqErr.Err),
			"OPENAI_API_HTTP_ERROR",
			reqErr.HTTPStatusCode,
		)
	}

	return errors.NewTranscriptionError("failed to call OpenAI transcription API", "OPENAI_API_ERROR", err)
}
