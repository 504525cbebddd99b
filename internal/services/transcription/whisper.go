package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/socialchef/transcriptor/internal/errors"
)

// DefaultWhisperModel is the local model size used when none is configured.
const DefaultWhisperModel = "base"

// WhisperProvider implements Provider with the local openai-whisper CLI.
type WhisperProvider struct {
	binary string
	model  string
}

// NewWhisperProvider resolves the whisper binary and returns a provider bound to model.
func NewWhisperProvider(binary, model string) (*WhisperProvider, error) {
	if binary == "" {
		binary = "whisper"
	}
	if model == "" {
		model = DefaultWhisperModel
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("whisper CLI not available: %w", err)
	}
	return &WhisperProvider{binary: resolved, model: model}, nil
}

// Model returns the whisper model name passed to the CLI.
func (p *WhisperProvider) Model() string {
	return p.model
}

// Transcribe runs whisper on audioPath and returns the plain text output.
// The CLI output directory is created next to the audio so it shares its lifetime.
func (p *WhisperProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return "", errors.NewTranscriptionError("failed to open audio file", "AUDIO_FILE_ERROR", err)
	}

	outDir, err := os.MkdirTemp(filepath.Dir(audioPath), "whisper-*")
	if err != nil {
		return "", errors.NewTranscriptionError("failed to create whisper output dir", "WHISPER_OUTPUT_ERROR", err)
	}
	defer os.RemoveAll(outDir)

	args := []string{
		audioPath,
		"--model", p.model,
		"--output_dir", outDir,
		"--output_format", "txt",
		"--verbose", "False",
	}

	start := time.Now()
	slog.DebugContext(ctx, "Running whisper CLI", "model", p.model, "audio_path", audioPath)
	cmd := exec.CommandContext(ctx, p.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if detail := lastLine(string(output)); detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return "", errors.NewTranscriptionError("whisper CLI failed", "WHISPER_CLI_ERROR", err)
	}
	slog.DebugContext(ctx, "Whisper CLI finished", "model", p.model, "duration", time.Since(start))

	// whisper writes <audio basename>.txt
	base := filepath.Base(audioPath)
	txtFile := filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".txt")

	content, err := os.ReadFile(txtFile)
	if err != nil {
		return "", errors.NewTranscriptionError("failed to read whisper output file", "WHISPER_OUTPUT_ERROR", err)
	}

	return strings.TrimSpace(string(content)), nil
}
