package api

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/riandyrn/otelchi"
	otelchimetric "github.com/riandyrn/otelchi/metric"
	"go.opentelemetry.io/otel"

	"github.com/socialchef/transcriptor/internal/config"
	"github.com/socialchef/transcriptor/internal/middleware"
	"github.com/socialchef/transcriptor/internal/sentry"
	"github.com/socialchef/transcriptor/internal/services/transcription"
	"github.com/socialchef/transcriptor/internal/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

// formOverhead is the slack allowed on top of the file size for multipart
// boundaries and headers.
const formOverhead int64 = 1 << 20

// Transcriber runs one upload through extraction and transcription.
type Transcriber interface {
	Run(ctx context.Context, upload validation.Upload) (*transcription.Result, error)
}

type Server struct {
	cfg       *config.Config
	pipeline  Transcriber
	modelName string
	page      *template.Template
	maxBody   int64
}

func NewServer(cfg *config.Config, pipeline Transcriber, modelName string) *Server {
	return &Server{
		cfg:       cfg,
		pipeline:  pipeline,
		modelName: modelName,
		page:      template.Must(template.ParseFS(templateFS, "templates/index.html")),
		maxBody:   validation.MaxUploadSize + formOverhead,
	}
}

// Routes builds the HTTP handler for the whole service.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(sentry.HTTPMiddleware)
	r.Use(otelchi.Middleware(s.cfg.ServiceName,
		otelchi.WithChiRoutes(r),
		otelchi.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
	))

	// HTTP metrics
	metricCfg := otelchimetric.NewBaseConfig(s.cfg.ServiceName, otelchimetric.WithMeterProvider(otel.GetMeterProvider()))
	r.Use(otelchimetric.NewRequestDurationMillis(metricCfg))
	r.Use(otelchimetric.NewRequestInFlight(metricCfg))
	r.Use(otelchimetric.NewResponseSizeBytes(metricCfg))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/", s.HandleIndex)
	r.With(middleware.LimitBody(s.maxBody)).Post("/", s.HandleUpload)
	r.With(middleware.LimitBody(s.maxBody)).Post("/download", s.HandleDownload)

	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
			ExposedHeaders: []string{middleware.RequestIDHeader},
		}))
		r.Use(middleware.LimitBody(s.maxBody))
		r.Post("/api/transcriptions", s.HandleAPITranscribe)
		r.Options("/api/transcriptions", func(w http.ResponseWriter, r *http.Request) {})
	})

	return r
}
