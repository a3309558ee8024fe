// Package api provides the gin HTTP surface over the orchestration core
// (spec §6's External Interfaces), grounded on
// codeready-toolchain-tarsy/pkg/api/server.go's route-registration shape
// translated from echo into gin, since this module's dependency set
// commits to gin-gonic/gin rather than echo.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aegis-sec/aegis/pkg/config"
	"github.com/aegis-sec/aegis/pkg/core"
)

// Server is the HTTP API server.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	cfg        *config.Config
	core       *core.Core
	events     *eventBridge
}

// NewServer builds a Server with every route registered.
func NewServer(cfg *config.Config, c *core.Core) *Server {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery(), requestLogger())

	s := &Server{
		engine: e,
		cfg:    cfg,
		core:   c,
		events: newEventBridge(c.Bus),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.Use(securityHeaders())

	s.engine.GET("/health", s.healthHandler)
	s.engine.POST("/auth/login", s.loginHandler)

	v1 := s.engine.Group("/api/v1", s.authMiddleware())
	v1.POST("/process", s.processHandler)
	v1.POST("/query", s.queryKnowledgeHandler)
	v1.POST("/ingest", s.ingestHandler)

	mission := v1.Group("/learn-mode")
	mission.POST("/missions", s.startMissionHandler)
	mission.POST("/missions/:id/step", s.submitStepHandler)
	mission.POST("/missions/:id/feedback", s.provideFeedbackHandler)
	mission.GET("/concepts/:label", s.explainConceptHandler)

	v1.GET("/health/report", s.healthReportHandler)
	v1.POST("/health/heal", s.triggerSelfHealingHandler)

	v1.GET("/ws", s.wsHandler)
}

// Start runs the HTTP server on cfg.API.ListenAddr (blocking).
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.API.ListenAddr,
		Handler: s.engine,
	}
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"durationMs", time.Since(start).Milliseconds())
	}
}
