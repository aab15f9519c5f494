package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stringer07/factor-mining/internal/config"
	"github.com/stringer07/factor-mining/internal/factor"
	"github.com/stringer07/factor-mining/internal/factor/technical"
	"github.com/stringer07/factor-mining/internal/logger"
	"github.com/stringer07/factor-mining/internal/market/kline"
	"github.com/stringer07/factor-mining/internal/middleware"
	"github.com/stringer07/factor-mining/internal/monitoring"
)

// Server represents the API server
type Server struct {
	config     *config.Config
	router     *gin.Engine
	httpServer *http.Server
	handlers   *Handlers
	metrics    *monitoring.Metrics
}

// Handlers contains all API handlers
type Handlers struct {
	Evaluation *EvaluationHandler
	Factor     *FactorHandler
}

// NewServer creates a new API server
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	metrics := monitoring.NewMetrics()

	registry := factor.NewRegistry()
	technical.RegisterDefaults(registry)
	metrics.SetRegisteredFactors(registry.Len())

	source := kline.NewCSVSource(cfg.Data.CSVDir)

	server := &Server{
		config:  cfg,
		router:  router,
		metrics: metrics,
	}

	server.handlers = &Handlers{
		Evaluation: NewEvaluationHandler(source, registry, cfg.Evaluation.ToAnalysis(), metrics),
		Factor:     NewFactorHandler(registry),
	}

	server.setupRoutes()

	return server, nil
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID())
	s.router.Use(gin.Logger())
	s.router.Use(middleware.ErrorHandler())
	if s.config.RateLimit.Enabled {
		s.router.Use(middleware.RateLimit(
			float64(s.config.RateLimit.RequestsPerSecond),
			s.config.RateLimit.Burst,
		))
	}
	s.router.Use(s.metrics.MetricsMiddleware())

	if s.config.Monitoring.PrometheusEnabled {
		s.router.GET(s.config.Monitoring.PrometheusPath, gin.WrapH(s.metrics.Handler()))
	}

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"name":    s.config.App.Name,
			"version": s.config.App.Version,
		})
	})

	v1 := s.router.Group("/api/v1")
	v1.Use(middleware.HandleError)
	{
		evaluation := v1.Group("/evaluation")
		{
			evaluation.POST("/run", s.handlers.Evaluation.Run)
			evaluation.POST("/ic_analysis", s.handlers.Evaluation.ICAnalysis)
			evaluation.POST("/backtest/quantile", s.handlers.Evaluation.QuantileBacktest)
		}

		factors := v1.Group("/factors")
		{
			factors.GET("", s.handlers.Factor.List)
		}
	}
}

// Router exposes the underlying handler, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	logger.Info("Starting API server",
		"host", s.config.Server.Host,
		"port", s.config.Server.Port,
	)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	logger.Info("Shutting down server")
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("Server stopped gracefully")
	return nil
}
