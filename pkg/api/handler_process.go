package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aegis-sec/aegis/pkg/core"
	"github.com/aegis-sec/aegis/pkg/planner"
)

// processHandler handles POST /api/v1/process (spec §6: process).
func (s *Server) processHandler(c *gin.Context) {
	if !requirePermission(c, "process", "execute") {
		return
	}

	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := s.core.Process(c.Request.Context(), req.Input, core.ProcessOptions{
		Mode:          req.Mode,
		ApprovalToken: req.ApprovalToken,
		Strategy:      planner.Strategy(req.Strategy),
	})
	if err != nil {
		writeCoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
