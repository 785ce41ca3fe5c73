package api

import (
	"errors"
	"log/slog"
	"net/http"

	"classcribe/internal/clients/payment"
	"classcribe/internal/pkg/errs"
	"classcribe/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	paymentCommands commands.PaymentCommands
}

func NewWebhookHandler(paymentCommands commands.PaymentCommands) *WebhookHandler {
	return &WebhookHandler{paymentCommands: paymentCommands}
}

// HandlePaymentEvent receives payment provider webhook deliveries
// @Summary      Payment webhook
// @Description  Verify and apply a payment event to the credit ledger exactly once
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Payment-Signature header string true "HMAC-SHA256 signature of the raw body"
// @Success      200 {object} map[string]any
// @Failure      400 {object} map[string]string
// @Failure      500 {object} map[string]string
// @Router       /webhooks/payment [post]
func (h *WebhookHandler) HandlePaymentEvent(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable request body"})
		return
	}

	signature := c.GetHeader(payment.SignatureHeader)
	if signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing signature"})
		return
	}

	result, err := h.paymentCommands.Reconcile(c.Request.Context(), body, signature)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidSignature):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		case errors.Is(err, errs.ErrMalformedEvent):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed event"})
		case errors.Is(err, errs.ErrUnknownPayer):
			// Acknowledge so the provider stops redelivering an event we can
			// never apply.
			slog.Warn("payment event for unknown user acknowledged")
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		default:
			// Transient failure: the provider retries and idempotency absorbs
			// the redelivery.
			slog.Error("failed to reconcile payment event", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process event"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  string(result.Outcome),
		"balance": result.Balance,
	})
}
