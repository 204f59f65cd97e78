package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"pitchcraft/auth"
	"pitchcraft/logger"
	"pitchcraft/pipeline"
)

// Config holds the HTTP listener settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	GenerateTimeout time.Duration
	CORSOrigins     []string
}

// Server exposes the pitch pipeline over HTTP.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	service    *pipeline.Service
	identity   auth.Provider
	config     Config
}

func New(service *pipeline.Service, identity auth.Provider, cfg Config) (*Server, error) {
	if service == nil {
		return nil, errors.New("pitch service required")
	}
	if identity == nil {
		return nil, errors.New("identity provider required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = 90 * time.Second
	}

	s := &Server{
		router:   chi.NewRouter(),
		service:  service,
		identity: identity,
		config:   cfg,
	}
	s.setupMiddleware()
	s.setupRoutes()

	// WriteTimeout stays zero unless configured: it would cut off the
	// event stream.
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)

	if len(s.config.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", auth.OwnerHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(s.identity, func(w http.ResponseWriter, _ *http.Request, err error) {
			respondError(w, err)
		}))
		r.Route("/pitches", func(r chi.Router) {
			r.Get("/", s.handleListPitches)
			r.Post("/", s.handleCreatePitch)
			r.Get("/stream", s.handleStreamPitches)
			r.Get("/{id}", s.handleGetPitch)
			r.Get("/{id}/landing", s.handleLanding)
		})
	})
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	logger.Info("starting HTTP server", "addr", s.httpServer.Addr, "schema", string(s.service.Schema()))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// Router returns the chi router instance (useful for testing)
func (s *Server) Router() http.Handler {
	return s.router
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
