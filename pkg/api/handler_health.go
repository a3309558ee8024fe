package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// healthHandler handles GET /health. Unauthenticated and minimal, matching
// codeready-toolchain-tarsy/pkg/api/handler_health.go's rationale for not
// gating process liveness behind a login.
func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	result := s.core.HealthCheck(ctx)
	status := http.StatusOK
	if result.Overall == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, healthCheckResponse{Status: result.Overall})
}

// healthReportHandler handles GET /api/v1/health/report (spec §6:
// healthReport(), Markdown).
func (s *Server) healthReportHandler(c *gin.Context) {
	if !requirePermission(c, "health", "read") {
		return
	}
	c.String(http.StatusOK, s.core.HealthReport(c.Request.Context()))
}

// triggerSelfHealingHandler handles POST /api/v1/health/heal (spec §6:
// triggerSelfHealing()).
func (s *Server) triggerSelfHealingHandler(c *gin.Context) {
	if !requirePermission(c, "health", "heal") {
		return
	}
	if err := s.core.TriggerSelfHealing(c.Request.Context()); err != nil {
		writeCoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
