package handler

import (
	"net/http"

	"regimath/backend/internal/chathub"
	"regimath/backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// ServeWebSocket upgrades an authenticated request to a websocket bound to
// the session identity. Requests without a session get 401 and no socket.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	identity, err := h.Sessions.FromRequest(c.Request)
	if err != nil {
		log := logger.Ctx(c.Request.Context())
		log.Debug().Err(err).Msg("websocket rejected")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(logger.FieldUserID, identity.ID)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the error response.
		log := logger.Ctx(c.Request.Context())
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := chathub.NewWebSocketClient(identity, conn, h.Hub)
	h.Hub.Register(client)
	client.Run()
}
