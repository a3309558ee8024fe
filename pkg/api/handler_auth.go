package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// loginHandler handles POST /auth/login, issuing a bearer session token on
// success (spec §4.12).
func (s *Server) loginHandler(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	token, err := s.core.Login(c.Request.Context(), req.Username, req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		writeCoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token})
}
