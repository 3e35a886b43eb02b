package handler

import (
	"net/http"

	"regimath/backend/internal/logger"
	"regimath/backend/internal/session"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// RequireSession rejects requests without a valid session.
func (h *Handler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := h.Sessions.FromRequest(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(identityKey, identity)
		c.Set(logger.FieldUserID, identity.ID)
		c.Next()
	}
}

func identityFrom(c *gin.Context) session.Identity {
	v, _ := c.Get(identityKey)
	identity, _ := v.(session.Identity)
	return identity
}
