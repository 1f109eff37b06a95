package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"controlia/internal/middleware"
	"controlia/internal/services"
)

// ProfileHandler manages collaborator accounts within the caller's
// tenant (admin routes).
type ProfileHandler struct {
	profileService *services.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// List returns the tenant's profiles
func (h *ProfileHandler) List(c *gin.Context) {
	profiles, err := h.profileService.List(c.Request.Context(), middleware.CurrentTenant(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"usuarios": profiles})
}

// Create adds a collaborator, enforcing the plan's user quota
func (h *ProfileHandler) Create(c *gin.Context) {
	var req services.ProfileCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidation(c, "Dados de usuário inválidos")
		return
	}
	profile, err := h.profileService.Create(c.Request.Context(), middleware.CurrentProfile(c), middleware.CurrentTenant(c), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

// Update changes a collaborator's profile
func (h *ProfileHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondValidation(c, "Identificador de usuário inválido")
		return
	}
	var req services.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidation(c, "Dados de usuário inválidos")
		return
	}
	profile, err := h.profileService.Update(c.Request.Context(), middleware.CurrentProfile(c), middleware.CurrentTenant(c), id, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Delete removes a collaborator
func (h *ProfileHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondValidation(c, "Identificador de usuário inválido")
		return
	}
	if err := h.profileService.Delete(c.Request.Context(), middleware.CurrentProfile(c), middleware.CurrentTenant(c), id); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Usuário removido"})
}
