package transcription

import (
	"context"
	"errors"
	"net/http"
	"testing"

	apperrors "github.com/socialchef/transcriptor/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	args := m.Called(ctx, audioPath)
	return args.String(0), args.Error(1)
}

func TestProviderInterface(t *testing.T) {
	var _ Provider = &MockProvider{}
	var _ Provider = &WhisperProvider{}
	var _ Provider = &GroqProvider{}
	var _ Provider = &OpenAIProvider{}
	var _ Provider = &FallbackProvider{}
}

func TestFallbackProvider_PrimarySucceeds(t *testing.T) {
	primary := new(MockProvider)
	secondary := new(MockProvider)
	primary.On("Transcribe", mock.Anything, "/tmp/audio.wav").Return("hola mundo", nil)

	result, err := NewFallbackProvider(primary, secondary).Transcribe(context.Background(), "/tmp/audio.wav")

	require.NoError(t, err)
	assert.Equal(t, "hola mundo", result)
	secondary.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
}

func TestFallbackProvider_RetryableFailure(t *testing.T) {
	primary := new(MockProvider)
	secondary := new(MockProvider)
	primary.On("Transcribe", mock.Anything, "/tmp/audio.wav").
		Return("", apperrors.NewUpstreamError("Groq API error (status 503)", "GROQ_API_HTTP_ERROR", http.StatusServiceUnavailable))
	secondary.On("Transcribe", mock.Anything, "/tmp/audio.wav").Return("from secondary", nil)

	result, err := NewFallbackProvider(primary, secondary).Transcribe(context.Background(), "/tmp/audio.wav")

	require.NoError(t, err)
	assert.Equal(t, "from secondary", result)
	primary.AssertExpectations(t)
	secondary.AssertExpectations(t)
}

func TestFallbackProvider_NonRetryableFailure(t *testing.T) {
	primary := new(MockProvider)
	secondary := new(MockProvider)
	upstream := apperrors.NewUpstreamError("Groq API error (status 429)", "GROQ_API_HTTP_ERROR", http.StatusTooManyRequests)
	primary.On("Transcribe", mock.Anything, mock.Anything).Return("", upstream)

	_, err := NewFallbackProvider(primary, secondary).Transcribe(context.Background(), "/tmp/audio.wav")

	require.ErrorIs(t, err, upstream)
	secondary.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
}

func TestFallbackProvider_PlainErrorIsNotRetried(t *testing.T) {
	primary := new(MockProvider)
	secondary := new(MockProvider)
	primary.On("Transcribe", mock.Anything, mock.Anything).Return("", errors.New("boom"))

	_, err := NewFallbackProvider(primary, secondary).Transcribe(context.Background(), "/tmp/audio.wav")

	require.Error(t, err)
	secondary.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
}

func TestFallbackProvider_BothFail(t *testing.T) {
	primary := new(MockProvider)
	secondary := new(MockProvider)
	primary.On("Transcribe", mock.Anything, mock.Anything).
		Return("", apperrors.NewUpstreamError("OpenAI API error", "OPENAI_API_HTTP_ERROR", http.StatusBadGateway))
	secondary.On("Transcribe", mock.Anything, mock.Anything).
		Return("", apperrors.NewUpstreamError("Groq API error", "GROQ_API_HTTP_ERROR", http.StatusInternalServerError))

	_, err := NewFallbackProvider(primary, secondary).Transcribe(context.Background(), "/tmp/audio.wav")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "both primary and secondary providers failed")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "PROVIDER_FALLBACK_FAILED", appErr.Code())
}
