package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/socialchef/transcriptor/internal/errors"
	"github.com/socialchef/transcriptor/internal/httpclient"
	"github.com/socialchef/transcriptor/internal/metrics"
)

// DefaultGroqModel is Groq's hosted whisper model.
const DefaultGroqModel = "whisper-large-v3-turbo"

// GroqProvider implements the Provider interface for Groq
type GroqProvider struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
}

// NewGroqProvider creates a new Groq transcription provider
func NewGroqProvider(apiKey, model string) *GroqProvider {
	if model == "" {
		model = DefaultGroqModel
	}
	return &GroqProvider{
		apiKey:     apiKey,
		model:      model,
		httpClient: httpclient.NewInstrumentedClient(httpclient.TranscriptionTimeout),
		baseURL:    "https://api.groq.com/openai/v1",
	}
}

// Transcribe transcribes an audio file using Groq's transcription API
func (p *GroqProvider) Transcribe(ctx context.Context, audioPath string) (text string, err error) {
	start := time.Now()
	defer func() { metrics.RecordExternalCall(ctx, "groq", start, err) }()

	audioFile, err := os.Open(audioPath)
	if err != nil {
		return "", errors.NewTranscriptionError("failed to open audio file", "AUDIO_FILE_ERROR", err)
	}
	defer audioFile.Close()

	// Stream the multipart body through a pipe to avoid buffering the audio in memory
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
		if err == nil {
			_, err = io.Copy(part, audioFile)
		}
		if err == nil {
			err = writer.WriteField("model", p.model)
		}
		if err == nil {
			err = writer.WriteField("response_format", "json")
		}
		if err == nil {
			err = writer.Close()
		}
		pw.CloseWithError(err)
	}()

	groqReq, err := http.NewRequestWithContext(httpclient.WithProvider(ctx, "Groq"), http.MethodPost, p.baseURL+"/audio/transcriptions", pr)
	if err != nil {
		pr.Close()
		return "", errors.NewTranscriptionError("failed to create Groq request", "GROQ_REQUEST_ERROR", err)
	}

	groqReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	groqReq.Header.Set("Content-Type", writer.FormDataContentType())

	groqResp, err := p.httpClient.Do(groqReq)
	if err != nil {
		pr.Close()
		return "", errors.NewTranscriptionError("failed to call Groq transcription API", "GROQ_API_ERROR", err)
	}
	defer groqResp.Body.Close()

	respBody, err := io.ReadAll(groqResp.Body)
	if err != nil {
		return "", errors.NewTranscriptionError("failed to read Groq response", "READ_RESPONSE_ERROR", err)
	}

	if groqResp.StatusCode != http.StatusOK {
		return "", errors.NewUpstreamError(
			fmt.Sprintf("Groq API error (status %d): %s", groqResp.StatusCode, string(respBody)),
			"GROQ_API_HTTP_ERROR",
			groqResp.StatusCode,
		)
	}

	var transResp transcriptionResponse
	if err := json.Unmarshal(respBody, &transResp); err != nil {
		return "", errors.NewTranscriptionError("failed to parse Groq response", "PARSE_RESPONSE_ERROR", err)
	}

	return transResp.Text, nil
}
