package transcription

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/socialchef/transcriptor/internal/errors"
	"github.com/socialchef/transcriptor/internal/logger"
	"github.com/socialchef/transcriptor/internal/metrics"
	"github.com/socialchef/transcriptor/internal/telemetry"
	"github.com/socialchef/transcriptor/internal/validation"
	"github.com/socialchef/transcriptor/internal/workspace"
)

// Workspace file names. The video name is fixed whatever the upload's
// extension; ffmpeg probes the container from its content.
const (
	videoFileName = "video.mp4"
	audioFileName = "audio.wav"
)

// Result is the outcome of one successful pipeline run.
type Result struct {
	ID      string
	Text    string
	Elapsed time.Duration
}

// Pipeline turns one uploaded video into its transcription.
type Pipeline struct {
	extractor Extractor
	model     Model
	tempDir   string
}

// NewPipeline wires an extractor and the shared model. Workspaces are created
// under tempDir, or the OS temp dir when it is empty.
func NewPipeline(extractor Extractor, model Model, tempDir string) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		model:     model,
		tempDir:   tempDir,
	}
}

// Run stores the upload in a private workspace, extracts its audio and
// transcribes it. The workspace is removed before Run returns, whatever the
// outcome. Errors are always *errors.AppError.
func (p *Pipeline) Run(ctx context.Context, upload validation.Upload) (*Result, error) {
	if err := validation.Validate(upload); err != nil {
		return nil, err
	}

	start := time.Now()
	id := uuid.New().String()

	ctx, span := telemetry.Tracer("transcriptor/pipeline").Start(ctx, "pipeline.Run",
		trace.WithAttributes(
			attribute.String("upload.id", id),
			attribute.String("upload.filename", upload.Filename),
			attribute.Int64("upload.size", upload.Size),
		),
	)
	defer span.End()

	log := slog.With("upload_id", id, "filename", upload.Filename)
	if attr := logger.WithTraceContext(ctx); !attr.Equal(slog.Attr{}) {
		log = log.With(attr)
	}

	ws, err := workspace.New(p.tempDir, id[:8])
	if err != nil {
		return nil, failSpan(span, errors.NewInternalError("failed to prepare workspace", "WORKSPACE_ERROR", err))
	}
	defer ws.Close()

	videoPath, written, err := ws.WriteFile(videoFileName, upload.Content)
	if err != nil {
		return nil, failSpan(span, errors.NewInternalError("failed to store upload", "WORKSPACE_ERROR", err))
	}
	log.DebugContext(ctx, "Upload stored", "path", videoPath, "bytes", written)

	audioPath := ws.Path(audioFileName)
	if err := p.extract(ctx, videoPath, audioPath); err != nil {
		log.ErrorContext(ctx, "Audio extraction failed", "error", err)
		return nil, failSpan(span, err)
	}

	text, err := p.transcribe(ctx, audioPath)
	if err != nil {
		log.ErrorContext(ctx, "Transcription failed", "error", err)
		return nil, failSpan(span, err)
	}

	elapsed := time.Since(start)
	log.InfoContext(ctx, "Transcription completed",
		"chars", len(text),
		"duration_ms", elapsed.Milliseconds())

	return &Result{ID: id, Text: text, Elapsed: elapsed}, nil
}

func (p *Pipeline) extract(ctx context.Context, videoPath, audioPath string) (err error) {
	ctx, span := telemetry.Tracer("transcriptor/pipeline").Start(ctx, "pipeline.extract")
	defer span.End()

	start := time.Now()
	defer func() { metrics.RecordStage(ctx, "extract", start, err) }()

	if err = p.extractor.Extract(ctx, videoPath, audioPath); err != nil {
		if _, ok := errors.As(err); !ok {
			err = errors.NewExtractionError("failed to extract audio with FFmpeg", "AUDIO_EXTRACTION_ERROR", err)
		}
		return failSpan(span, err)
	}
	return nil
}

func (p *Pipeline) transcribe(ctx context.Context, audioPath string) (text string, err error) {
	ctx, span := telemetry.Tracer("transcriptor/pipeline").Start(ctx, "pipeline.transcribe")
	defer span.End()

	start := time.Now()
	defer func() { metrics.RecordStage(ctx, "transcribe", start, err) }()

	provider, err := p.model.Get(ctx)
	if err != nil {
		if _, ok := errors.As(err); !ok {
			err = errors.NewTranscriptionError("failed to load transcription model", "MODEL_LOAD_ERROR", err)
		}
		return "", failSpan(span, err)
	}

	text, err = provider.Transcribe(ctx, audioPath)
	if err != nil {
		if _, ok := errors.As(err); !ok {
			err = errors.NewTranscriptionError("failed to transcribe audio", "TRANSCRIPTION_ERROR", err)
		}
		return "", failSpan(span, err)
	}
	span.SetAttributes(attribute.Int("transcription.chars", len(text)))
	return text, nil
}

func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
