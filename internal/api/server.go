package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dgallion1/docthemes/internal/chunkstore"
	"github.com/dgallion1/docthemes/internal/config"
	"github.com/dgallion1/docthemes/internal/ingest"
	"github.com/dgallion1/docthemes/internal/llm"
	"github.com/dgallion1/docthemes/internal/pipeline"
)

// Querier answers queries.
type Querier interface {
	Run(ctx context.Context, query string) (*pipeline.Result, error)
}

// Ingester queues uploads and reports their progress.
type Ingester interface {
	Submit(job *ingest.Job) error
	Job(id string) *ingest.Job
	Forget(documentID string)
}

// Deps are the services behind the routes. Cache and Stats are optional.
type Deps struct {
	Pipeline Querier
	Ingestor Ingester
	Store    chunkstore.Store
	Cache    ingest.Invalidator
	LLM      llm.Client
	Stats    *llm.LLMStats
}

// Server is the HTTP API server for docthemes.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/query", s.handleQuery)

		r.Post("/api/documents/upload", s.handleUpload)
		r.Post("/api/documents/text", s.handleUploadText)
		r.Get("/api/documents", s.handleListDocuments)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)

		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
