package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"regimath/backend/internal/logger"
	"regimath/backend/internal/payment"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 64 << 10

type webhookBody struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
	Data  struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// PaymentWebhook relays a provider notification. It answers 200 when the
// notification was handled or deliberately ignored, 400 when it is
// malformed and 500 when a retry may succeed.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	log := logger.Ctx(c.Request.Context())

	n, err := parseNotification(c)
	if err != nil {
		log.Warn().Err(err).Msg("malformed payment webhook")
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed notification"})
		return
	}

	res, err := h.Relay.HandleNotification(c.Request.Context(), n)
	switch {
	case errors.Is(err, payment.ErrInvalidNotification):
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed notification"})
	case errors.Is(err, payment.ErrPaymentNotFound):
		log.Warn().Err(err).Str(logger.FieldPaymentID, n.PaymentID).Msg("notified payment not found")
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	case err != nil:
		log.Error().Err(err).Str(logger.FieldPaymentID, n.PaymentID).Msg("payment webhook failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	case res.Ignored:
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "accepted"})
	}
}

// parseNotification reads the JSON body and falls back to the query string
// form (type or topic, data.id or id).
func parseNotification(c *gin.Context) (payment.Notification, error) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		return payment.Notification{}, err
	}

	var n payment.Notification
	if len(bytes.TrimSpace(raw)) > 0 {
		var body webhookBody
		if err := json.Unmarshal(raw, &body); err != nil {
			return payment.Notification{}, err
		}
		n.Type = firstNonEmpty(body.Type, body.Topic)
		n.PaymentID = strings.Trim(string(body.Data.ID), `"`)
	}

	if n.Type == "" {
		n.Type = firstNonEmpty(c.Query("type"), c.Query("topic"))
	}
	if n.PaymentID == "" || n.PaymentID == "null" {
		n.PaymentID = firstNonEmpty(c.Query("data.id"), c.Query("id"))
	}
	if n.Type == "" {
		return payment.Notification{}, errors.New("notification type missing")
	}
	return n, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
