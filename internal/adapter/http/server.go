package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/ernestobalbinse/HurriAid/internal/domain"
	"github.com/ernestobalbinse/HurriAid/internal/pipeline"
	"github.com/ernestobalbinse/HurriAid/internal/rumor"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Assessor runs assessments and exposes the current advisory.
type Assessor interface {
	Assess(ctx context.Context, req pipeline.AssessRequest) domain.Assessment
	LoadAdvisory(ctx context.Context, offline bool) (domain.Advisory, error)
	CheckReadiness(ctx context.Context) error
}

// RumorChecker checks blocks of rumor claims.
type RumorChecker interface {
	Check(ctx context.Context, req rumor.Request) (domain.RumorReport, error)
}

// Server exposes the HurriAid API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	assessor   Assessor
	rumors     RumorChecker
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API routes and /healthz, /readyz, and /metrics.
func NewServer(addr string, assessor Assessor, rumors RumorChecker, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       10 * time.Second,
			// Assessments make several model calls, each with its own retries.
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		engine:   engine,
		assessor: assessor,
		rumors:   rumors,
		logger:   logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	s.engine.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(s.assessor)))
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/api/v1")
	v1.POST("/assessments", s.handleAssess)
	v1.GET("/advisory", s.handleAdvisory)
	v1.POST("/rumors/check", s.handleRumorCheck)
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
