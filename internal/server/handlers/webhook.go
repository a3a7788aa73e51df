package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvanosdol88/teller-codex10-9A/pkg/signature"
)

type WebhookHandler struct {
	verifier *signature.Verifier
	logger   zerolog.Logger
}

func NewWebhookHandler(verifier *signature.Verifier, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		logger:   logger,
	}
}

type webhookEvent struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// HandleTellerWebhook verifies the Teller-Signature header against the
// raw body before any processing. Verification failures answer 401 with
// no detail about which check failed.
func (h *WebhookHandler) HandleTellerWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "failed to read request body",
		})
		return
	}

	if err := h.verifier.Verify(c.GetHeader("Teller-Signature"), body); err != nil {
		h.logger.Warn().Err(err).Msg("Rejected webhook delivery")
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Unauthorized",
			"message": "invalid webhook signature",
		})
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "malformed webhook body",
		})
		return
	}

	h.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Str("event_timestamp", event.Timestamp).
		Msg("Received Teller webhook")

	c.JSON(http.StatusOK, gin.H{
		"ok": true,
		"id": uuid.NewString(),
	})
}
