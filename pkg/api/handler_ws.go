package api

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// wsHandler upgrades the connection and registers it with the event
// bridge for push delivery of agent.response / health.check.completed,
// grounded on codeready-toolchain-tarsy/pkg/api/handler_ws.go's
// coder/websocket upgrade shape.
func (s *Server) wsHandler(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		// Origin validation deferred: aegisd has no configured allowlist of
		// dashboard origins yet. Revisit before exposing this outside a
		// trusted network.
		InsecureSkipVerify: true,
	})
	if err != nil {
		writeError(c, http.StatusBadRequest, "WS_UPGRADE_FAILED", err.Error())
		return
	}

	id := uuid.NewString()
	s.events.register(id, conn)
	defer s.events.unregister(id)

	ctx := c.Request.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		}
	}
}
