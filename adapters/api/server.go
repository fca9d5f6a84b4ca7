package api

import (
	"net/http"
	"time"

	"gocnwi/app"
	"gocnwi/domain/sample"
	"gocnwi/internal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultMaxBodyBytes bounds request bodies when Options leaves it unset
const DefaultMaxBodyBytes = 64 << 20

// Options configures the HTTP server
type Options struct {
	// Samples supplies the label field and exclusions a request does not override
	Samples        sample.Options
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// Server exposes the analysis services over HTTP
type Server struct {
	router       chi.Router
	separability *app.SeparabilityService
	accuracy     *app.AccuracyService
	reports      *app.ReportService
	options      Options
	logger       *internal.Logger
}

// NewServer creates the HTTP server and registers its routes
func NewServer(sep *app.SeparabilityService, acc *app.AccuracyService, reports *app.ReportService, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{
		router:       chi.NewRouter(),
		separability: sep,
		accuracy:     acc,
		reports:      reports,
		options:      opts,
		logger:       internal.DefaultLogger.With("api"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// WithLogger replaces the server's logger
func (s *Server) WithLogger(logger *internal.Logger) *Server {
	s.logger = logger
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	if s.options.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.options.RequestTimeout))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/separability", s.handleSeparability)
		r.Post("/accuracy", s.handleAccuracy)

		r.Get("/reports", s.handleListReports)
		r.Get("/reports/{id}", s.handleGetReport)
		r.Get("/reports/{id}/html", s.handleReportHTML)
		r.Delete("/reports/{id}", s.handleDeleteReport)
	})
}
