// Package httpapi exposes the answer pipeline over a JSON HTTP API
// built on gin.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// Metrics records HTTP telemetry and serves the scrape endpoint.
type Metrics interface {
	ObserveHTTP(method, path string, status int, d time.Duration)
	Handler() http.Handler
}

// Check reports whether one dependency is ready.
type Check func(ctx context.Context) error

// Ports contains the services the API calls.
type Ports struct {
	Query     driving.QueryService
	Documents driving.DocumentService

	// Metrics is optional. Nil disables /metrics.
	Metrics Metrics

	// Checks back /ready, keyed by component name.
	Checks map[string]Check
}

// Config holds server options.
type Config struct {
	Address        string
	AllowedOrigins []string

	// MaxUploadBytes caps multipart bodies. Zero means no limit.
	MaxUploadBytes int64

	// QueryTimeout bounds each /query request. Zero means no deadline.
	QueryTimeout time.Duration
}

// Server is the HTTP API.
type Server struct {
	ports  *Ports
	cfg    Config
	engine *gin.Engine
}

// NewServer creates an HTTP server with routes and middleware installed.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if ports == nil || ports.Query == nil || ports.Documents == nil {
		return nil, errors.New("query and document services are required")
	}
	if cfg.Address == "" {
		cfg.Address = ":8000"
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{ports: ports, cfg: cfg, engine: gin.New()}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupMiddleware() {
	s.engine.Use(recovery())
	s.engine.Use(requestID())
	s.engine.Use(corsMiddleware(s.cfg.AllowedOrigins))
	s.engine.Use(tracing())
	s.engine.Use(accessLog(s.ports.Metrics))
}

func (s *Server) setupRoutes() {
	h := &handlers{ports: s.ports, maxUpload: s.cfg.MaxUploadBytes, queryTimeout: s.cfg.QueryTimeout}

	s.engine.GET("/health", h.health)
	s.engine.GET("/ready", h.ready)
	if s.ports.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.ports.Metrics.Handler()))
	}

	s.engine.POST("/query", h.query)
	s.engine.POST("/upload", h.upload)
	s.engine.GET("/documents", h.listDocuments)
	s.engine.GET("/documents/:id", h.getDocument)
	s.engine.DELETE("/documents/:id", h.deleteDocument)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", s.cfg.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP API")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
