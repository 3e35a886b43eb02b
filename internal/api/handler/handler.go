package handler

import (
	"context"
	"net/http"
	"net/url"

	"regimath/backend/internal/chathub"
	"regimath/backend/internal/payment"
	"regimath/backend/internal/session"
	"regimath/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// PaymentRelay handles provider webhooks.
type PaymentRelay interface {
	HandleNotification(ctx context.Context, n payment.Notification) (payment.Result, error)
}

// Handler serves the HTTP surface of the chat backend.
type Handler struct {
	Hub      *chathub.ManagerService
	Sessions *session.Codec
	Relay    PaymentRelay
	History  storage.History
	Index    storage.RoomIndex

	upgrader websocket.Upgrader
}

// NewHandler builds the handler. Websocket upgrades are accepted from
// siteURL's origin and from clients that send no Origin header.
func NewHandler(hub *chathub.ManagerService, sessions *session.Codec, relay PaymentRelay, history storage.History, index storage.RoomIndex, siteURL string) *Handler {
	h := &Handler{
		Hub:      hub,
		Sessions: sessions,
		Relay:    relay,
		History:  history,
		Index:    index,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     sameOrigin(siteURL),
	}
	return h
}

// RegisterRoutes mounts every route on r.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/ws", h.ServeWebSocket)

	r.POST(payment.WebhookPath, h.PaymentWebhook)
	r.POST("/webhook/mercadopago", h.PaymentWebhook)

	api := r.Group("/api", h.RequireSession())
	api.GET("/conversations", h.Conversations)
	api.GET("/rooms/:room/messages", h.RoomMessages)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func sameOrigin(siteURL string) func(r *http.Request) bool {
	site, err := url.Parse(siteURL)
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if err != nil {
			return false
		}
		o, perr := url.Parse(origin)
		if perr != nil {
			return false
		}
		return o.Scheme == site.Scheme && o.Host == site.Host
	}
}
