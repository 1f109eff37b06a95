package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"controlia/internal/middleware"
	"controlia/internal/models"
	"controlia/internal/services"
)

// PlanHandler lists plans for tenants and manages them for masters.
type PlanHandler struct {
	planService *services.PlanService
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(planService *services.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// List returns plans open for signup
func (h *PlanHandler) List(c *gin.Context) {
	plans, err := h.planService.List(c.Request.Context(), true)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"planos": plans})
}

// ListAll returns every plan including inactive ones (master)
func (h *PlanHandler) ListAll(c *gin.Context) {
	plans, err := h.planService.List(c.Request.Context(), false)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"planos": plans})
}

// Create inserts a plan (master)
func (h *PlanHandler) Create(c *gin.Context) {
	var plan models.Plan
	if err := c.ShouldBindJSON(&plan); err != nil {
		RespondValidation(c, "Dados de plano inválidos")
		return
	}
	if err := h.planService.Create(c.Request.Context(), middleware.CurrentProfile(c).ID, &plan); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// Update changes a plan (master)
func (h *PlanHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondValidation(c, "Identificador de plano inválido")
		return
	}
	var plan models.Plan
	if err := c.ShouldBindJSON(&plan); err != nil {
		RespondValidation(c, "Dados de plano inválidos")
		return
	}
	plan.ID = id
	if err := h.planService.Update(c.Request.Context(), middleware.CurrentProfile(c).ID, &plan); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// Delete removes a plan (master); blocked while tenants use it
func (h *PlanHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondValidation(c, "Identificador de plano inválido")
		return
	}
	if err := h.planService.Delete(c.Request.Context(), middleware.CurrentProfile(c).ID, id); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Plano removido"})
}
