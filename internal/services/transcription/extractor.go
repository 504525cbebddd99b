package transcription

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/socialchef/transcriptor/internal/errors"
)

// Waveform format handed to every provider: mono 16 kHz signed 16-bit PCM WAV.
const (
	AudioSampleRate = "16000"
	AudioChannels   = "1"
	AudioCodec      = "pcm_s16le"
)

// Extractor demuxes the full audio track of a video into a waveform file.
type Extractor interface {
	Extract(ctx context.Context, videoPath, audioPath string) error
}

// FFmpegExtractor implements Extractor with the ffmpeg binary.
type FFmpegExtractor struct {
	binary string
}

// NewFFmpegExtractor returns an extractor that runs binary ("ffmpeg" when empty).
func NewFFmpegExtractor(binary string) *FFmpegExtractor {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegExtractor{binary: binary}
}

// Check reports whether the ffmpeg binary can be found.
func (e *FFmpegExtractor) Check() error {
	if _, err := exec.LookPath(e.binary); err != nil {
		return fmt.Errorf("ffmpeg not available: %w", err)
	}
	return nil
}

// Extract writes the whole audio track of videoPath to audioPath.
// ffmpeg is always waited on, so no decoder or file handle outlives the call.
// A failed run leaves no partial audioPath behind.
func (e *FFmpegExtractor) Extract(ctx context.Context, videoPath, audioPath string) error {
	cmd := exec.CommandContext(ctx, e.binary,
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", AudioCodec,
		"-ar", AudioSampleRate,
		"-ac", AudioChannels,
		"-f", "wav",
		audioPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(audioPath)
		if detail := lastLine(stderr.String()); detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return errors.NewExtractionError("failed to extract audio with FFmpeg", "AUDIO_EXTRACTION_ERROR", err)
	}
	return nil
}

// lastLine returns the last non-empty line of s, which is where ffmpeg puts the reason.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
