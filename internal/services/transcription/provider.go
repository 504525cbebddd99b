package transcription

import (
	"context"
)

type ProviderType string

const (
	ProviderWhisper ProviderType = "whisper"
	ProviderGroq    ProviderType = "groq"
	ProviderOpenAI  ProviderType = "openai"
)

// Provider turns a waveform file into plain text. Language is always left to
// the model's own detection.
type Provider interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// transcriptionResponse is the {"text": ...} body returned by the speech APIs
type transcriptionResponse struct {
	Text string `json:"text"`
}
