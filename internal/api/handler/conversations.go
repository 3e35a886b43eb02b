package handler

import (
	"net/http"
	"sort"

	"regimath/backend/internal/logger"
	"regimath/backend/internal/models"
	"regimath/backend/internal/room"

	"github.com/gin-gonic/gin"
)

type conversation struct {
	Room         string          `json:"room"`
	PartnerID    string          `json:"partnerId"`
	MessageCount int             `json:"messageCount"`
	LastMessage  *models.Message `json:"lastMessage,omitempty"`
}

// Conversations lists the caller's two-party rooms, most recent first.
func (h *Handler) Conversations(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.Ctx(ctx)
	identity := identityFrom(c)

	rooms, err := h.Index.RoomsOf(ctx, identity.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	out := make([]conversation, 0, len(rooms))
	for _, roomID := range rooms {
		partner := room.Partner(roomID, identity.ID)
		if partner == "" {
			continue
		}
		history, err := h.History.HistoryOf(ctx, roomID)
		if err != nil {
			log.Error().Err(err).Str(logger.FieldRoomID, roomID).Msg("failed to load history")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		conv := conversation{Room: roomID, PartnerID: partner, MessageCount: len(history)}
		if len(history) > 0 {
			last := history[len(history)-1]
			conv.LastMessage = &last
		}
		out = append(out, conv)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return lastTime(out[i]) > lastTime(out[j])
	})
	c.JSON(http.StatusOK, gin.H{"conversations": out})
}

func lastTime(c conversation) int64 {
	if c.LastMessage == nil {
		return 0
	}
	return c.LastMessage.Time
}

// RoomMessages returns a room's history to its members. Everyone else gets
// 404, whether or not the room exists.
func (h *Handler) RoomMessages(c *gin.Context) {
	ctx := c.Request.Context()
	roomID := c.Param("room")
	identity := identityFrom(c)

	if !room.IsMember(roomID, identity.ID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	history, err := h.History.HistoryOf(ctx, roomID)
	if err != nil {
		log := logger.Ctx(ctx)
		log.Error().Err(err).Str(logger.FieldRoomID, roomID).Msg("failed to load history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, models.RoomHistory{Room: roomID, Messages: history})
}
