package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/socialchef/transcriptor/internal/errors"
	"github.com/socialchef/transcriptor/internal/metrics"
	"github.com/socialchef/transcriptor/internal/middleware"
	"github.com/socialchef/transcriptor/internal/sentry"
	"github.com/socialchef/transcriptor/internal/services/transcription"
	"github.com/socialchef/transcriptor/internal/validation"
)

// DownloadFilename is the name offered for the transcription file.
const DownloadFilename = "transcripcion.txt"

// downloadField is the hidden form field carrying the base64 transcription.
const downloadField = "transcription"

type pageData struct {
	MaxLabel string
	MaxBytes int64
	Accept   string

	Filename string
	Done     bool
	Text     string
	Encoded  string

	Error      string
	Suggestion string
}

func (s *Server) newPage() pageData {
	return pageData{
		MaxLabel: validation.MaxUploadLabel(),
		MaxBytes: validation.MaxUploadSize,
		Accept:   validation.AcceptAttribute(),
	}
}

func (s *Server) HandleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, s.newPage())
}

func (s *Server) HandleUpload(w http.ResponseWriter, r *http.Request) {
	page := s.newPage()

	result, filename, err := s.transcribe(r)
	page.Filename = filename
	if err != nil {
		appErr := toAppError(err)
		if appErr.Type == errors.ErrorTypeValidation {
			page.Error = appErr.Message
		} else {
			page.Error = failureMessage(appErr)
		}
		page.Suggestion = appErr.RecoverySuggestion()
		s.render(w, r, appErr.StatusCode, page)
		return
	}

	page.Done = true
	page.Text = result.Text
	page.Encoded = base64.StdEncoding.EncodeToString([]byte(result.Text))
	s.render(w, r, http.StatusOK, page)
}

func (s *Server) HandleDownload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	text, err := base64.StdEncoding.DecodeString(r.PostFormValue(downloadField))
	if err != nil {
		http.Error(w, "Invalid transcription", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+DownloadFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(text)))
	w.WriteHeader(http.StatusOK)
	w.Write(text)
}

type TranscriptionResponse struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Provider   string `json:"provider"`
	Filename   string `json:"filename"`
	DurationMS int64  `json:"duration_ms"`
}

type ErrorResponse struct {
	Error *errors.AppError `json:"error"`
}

func (s *Server) HandleAPITranscribe(w http.ResponseWriter, r *http.Request) {
	result, _, err := s.transcribe(r)
	if err != nil {
		appErr := toAppError(err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(appErr.StatusCode)
		json.NewEncoder(w).Encode(ErrorResponse{Error: appErr})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TranscriptionResponse{
		ID:         result.ID,
		Text:       result.Text,
		Provider:   s.modelName,
		Filename:   DownloadFilename,
		DurationMS: result.Elapsed.Milliseconds(),
	})
}

// transcribe validates the upload in r and runs it through the pipeline.
// The pipeline is detached from the request so a client that goes away does
// not abort a run half way.
func (s *Server) transcribe(r *http.Request) (*transcription.Result, string, error) {
	ctx := r.Context()
	log := middleware.Logger(ctx)

	upload, cleanup, err := s.readUpload(r)
	defer cleanup()
	if err != nil {
		metrics.RecordUpload(ctx, "rejected", r.ContentLength)
		log.InfoContext(ctx, "Upload rejected", "error", err.Error())
		return nil, upload.Filename, err
	}

	metrics.RecordUpload(ctx, "accepted", upload.Size)
	log.InfoContext(ctx, "Processing upload", "filename", upload.Filename, "size", upload.Size)

	result, err := s.pipeline.Run(context.WithoutCancel(ctx), upload)
	if err != nil {
		metrics.RecordUpload(ctx, "failed", upload.Size)
		sentry.CaptureError(ctx, err)
		log.ErrorContext(ctx, "Upload failed", "filename", upload.Filename, "error", err.Error())
		return nil, upload.Filename, err
	}
	metrics.RecordUpload(ctx, "completed", upload.Size)
	return result, upload.Filename, nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.page.Execute(w, page); err != nil {
		middleware.Logger(r.Context()).ErrorContext(r.Context(), "Failed to render page", "error", err)
	}
}

// stageMessages names the failed stage on the result page.
var stageMessages = map[errors.ErrorType]string{
	errors.ErrorTypeExtraction:    "no se pudo extraer el audio del video",
	errors.ErrorTypeTranscription: "no se pudo transcribir el audio",
	errors.ErrorTypeInternal:      "error interno del servidor",
}

// failureMessage describes a processing failure in Spanish, followed by the
// technical detail of the error and its cause.
func failureMessage(appErr *errors.AppError) string {
	stage, ok := stageMessages[appErr.Type]
	if !ok {
		stage = stageMessages[errors.ErrorTypeInternal]
	}
	return "Error durante el procesamiento: " + stage + " (" + appErr.Error() + ")"
}

func toAppError(err error) *errors.AppError {
	if appErr, ok := errors.As(err); ok {
		return appErr
	}
	return errors.NewInternalError("unexpected error", "INTERNAL_ERROR", err)
}
