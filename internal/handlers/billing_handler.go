package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"controlia/internal/middleware"
	"controlia/internal/services"
)

// BillingHandler starts checkout sessions (admin).
type BillingHandler struct {
	billingService *services.BillingService
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billingService *services.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// Checkout creates a subscription checkout session for a plan and
// returns the hosted payment URL.
func (h *BillingHandler) Checkout(c *gin.Context) {
	var body struct {
		PlanID string `json:"planoId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondValidation(c, "Plano é obrigatório")
		return
	}
	planID, err := uuid.Parse(body.PlanID)
	if err != nil {
		RespondValidation(c, "Identificador de plano inválido")
		return
	}

	url, err := h.billingService.CreateCheckoutSession(c.Request.Context(), middleware.CurrentProfile(c), middleware.CurrentTenant(c), planID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
