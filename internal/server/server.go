package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yuin/goldmark"

	"github.com/joseph-ayodele/mediscan/constants"
	"github.com/joseph-ayodele/mediscan/internal/chat"
	"github.com/joseph-ayodele/mediscan/internal/common"
	"github.com/joseph-ayodele/mediscan/internal/extract"
	"github.com/joseph-ayodele/mediscan/internal/observability"
	"github.com/joseph-ayodele/mediscan/internal/pipeline"
	"github.com/joseph-ayodele/mediscan/internal/repository"
)

// Analyzer is satisfied by *pipeline.Processor.
type Analyzer interface {
	Analyze(ctx context.Context, doc extract.Document) (*pipeline.Analysis, error)
}

// Exporter is satisfied by *export.Service.
type Exporter interface {
	RecordsXLSX(ctx context.Context) ([]byte, error)
}

type Config struct {
	UploadDir      string
	MaxUploadBytes int64 // default 16 MiB
	SecureCookie   bool
}

type Server struct {
	cfg       Config
	analyzer  Analyzer
	store     repository.RecordStore
	exporter  Exporter
	sessions  *chat.Manager
	tokens    *chat.TokenSigner
	responder chat.Responder
	metrics   *observability.Metrics
	markdown  goldmark.Markdown
	logger    *slog.Logger
	now       func() time.Time
}

type Deps struct {
	Analyzer  Analyzer
	Store     repository.RecordStore
	Exporter  Exporter
	Sessions  *chat.Manager
	Tokens    *chat.TokenSigner
	Responder chat.Responder
	Metrics   *observability.Metrics
}

func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = constants.MaxUploadBytes
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "./uploads"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		analyzer:  deps.Analyzer,
		store:     deps.Store,
		exporter:  deps.Exporter,
		sessions:  deps.Sessions,
		tokens:    deps.Tokens,
		responder: deps.Responder,
		metrics:   deps.Metrics,
		markdown:  goldmark.New(),
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)
		r.Post("/upload", s.handleUpload)
		r.Post("/chat/send", s.handleChatSend)
		r.Post("/chat/clear", s.handleChatClear)
	})
	r.Get("/prescriptions", s.handleListRecords)
	r.Get("/prescriptions.xlsx", s.handleExportRecords)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

// logRequests tags the context with chi's request id and logs one line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(common.WithRequestID(r.Context(), reqID)))
		s.logger.Info("http.request",
			"req_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}
