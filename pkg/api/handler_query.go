package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aegis-sec/aegis/pkg/core"
)

// queryKnowledgeHandler handles POST /api/v1/query (spec §6:
// queryKnowledge).
func (s *Server) queryKnowledgeHandler(c *gin.Context) {
	if !requirePermission(c, "knowledge", "query") {
		return
	}

	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := s.core.QueryKnowledge(c.Request.Context(), req.Query, core.QueryOptions{
		UseCache:   req.UseCache,
		Debug:      req.Debug,
		Category:   req.Category,
		Difficulty: req.Difficulty,
		K:          req.K,
	})
	if err != nil && !result.Degraded {
		writeCoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
