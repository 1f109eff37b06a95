package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v72/webhook"

	"controlia/internal/services"
)

// Stripe recommends capping webhook bodies at 64KB.
const maxWebhookBody = 65536

// WebhookHandler receives payment-processor events. Signature
// verification is mandatory: nothing is parsed or mutated before the
// signature checks out.
type WebhookHandler struct {
	billingService *services.BillingService
	webhookSecret  string
	logger         *logrus.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(billingService *services.BillingService, webhookSecret string, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{billingService: billingService, webhookSecret: webhookSecret, logger: logger}
}

// HandleStripe verifies and applies one webhook delivery
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		RespondValidation(c, "Falha ao ler o evento de pagamento")
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		h.logger.WithError(err).Warn("Webhook signature verification failed")
		RespondValidation(c, "Assinatura do evento inválida")
		return
	}

	if err := h.billingService.HandleEvent(c.Request.Context(), event); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
