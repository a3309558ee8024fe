package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ingestHandler handles POST /api/v1/ingest (spec §6: ingest).
func (s *Server) ingestHandler(c *gin.Context) {
	if !requirePermission(c, "memory", "ingest") {
		return
	}

	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := s.core.Ingest(c.Request.Context(), req.DocPath)
	if err != nil {
		writeCoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
