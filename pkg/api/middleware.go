package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aegis-sec/aegis/pkg/audit"
)

// securityHeaders sets standard response headers, grounded on
// codeready-toolchain-tarsy/pkg/api/middleware.go's securityHeaders.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		c.Next()
	}
}

const ctxUserKey = "aegis.user"

// authMiddleware validates the bearer session token issued by /auth/login
// and attaches the resolved audit.User to the request context, so handlers
// can run audit.CheckPermission before invoking pkg/core operations (spec
// §4.12).
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(c, http.StatusUnauthorized, "MISSING_BEARER_TOKEN", "missing or malformed Authorization header")
			c.Abort()
			return
		}

		user, err := s.core.AuthenticatedUser(token)
		if err != nil {
			writeError(c, http.StatusUnauthorized, "INVALID_SESSION", "session token is invalid or expired")
			c.Abort()
			return
		}

		c.Set(ctxUserKey, user)
		c.Next()
	}
}

// requirePermission aborts with 403 unless the authenticated user's
// permission set authorizes (resource, action).
func requirePermission(c *gin.Context, resource, action string) bool {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		writeError(c, http.StatusUnauthorized, "MISSING_BEARER_TOKEN", "no authenticated user on request")
		c.Abort()
		return false
	}
	user := v.(audit.User)
	if !audit.CheckPermission(user.Permissions, resource, action, nil) {
		writeError(c, http.StatusForbidden, "PERMISSION_DENIED", "user lacks permission for "+action+" on "+resource)
		c.Abort()
		return false
	}
	return true
}
