package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"controlia/internal/middleware"
	"controlia/internal/models"
	"controlia/internal/services"
)

// TenantHandler covers both the admin's own-company settings routes
// and the master platform routes under /api/admin/empresas.
type TenantHandler struct {
	tenantService *services.TenantService
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(tenantService *services.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// GetOwn returns the caller's company with its plan
func (h *TenantHandler) GetOwn(c *gin.Context) {
	tenant, err := h.tenantService.Get(c.Request.Context(), middleware.CurrentTenant(c).ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// UpdateOwn lets an admin change their own company's settings,
// including the LLM API key and system context.
func (h *TenantHandler) UpdateOwn(c *gin.Context) {
	var req services.TenantUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidation(c, "Dados de empresa inválidos")
		return
	}
	// Plan changes go through billing, not the settings form.
	req.PlanID = nil

	tenant, err := h.tenantService.Update(c.Request.Context(), middleware.CurrentProfile(c).ID, middleware.CurrentTenant(c).ID, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// List returns a page of all tenants (master)
func (h *TenantHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	tenants, total, err := h.tenantService.List(c.Request.Context(), page, pageSize)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"empresas": tenants,
		"total":    total,
		"page":     page,
	})
}

// Get returns any tenant by id (master)
func (h *TenantHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondValidation(c, "Identificador de empresa inválido")
		return
	}
	tenant, err := h.tenantService.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// Create inserts a tenant directly (master)
func (h *TenantHandler) Create(c *gin.Context) {
	var tenant models.Tenant
	if err := c.ShouldBindJSON(&tenant); err != nil {
		RespondValidation(c, "Dados de empresa inválidos")
		return
	}
	if err := h.tenantService.Create(c.Request.Context(), middleware.CurrentProfile(c).ID, &tenant); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

// Update changes any tenant's settings (master)
func (h *TenantHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondValidation(c, "Identificador de empresa inválido")
		return
	}
	var req services.TenantUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidation(c, "Dados de empresa inválidos")
		return
	}
	tenant, err := h.tenantService.Update(c.Request.Context(), middleware.CurrentProfile(c).ID, id, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// UpdateStatus changes a tenant's lifecycle status (master)
func (h *TenantHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondValidation(c, "Identificador de empresa inválido")
		return
	}
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondValidation(c, "Status é obrigatório")
		return
	}
	if err := h.tenantService.UpdateStatus(c.Request.Context(), middleware.CurrentProfile(c).ID, id, body.Status); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status atualizado"})
}

// Delete removes a tenant (master); blocked while profiles exist
func (h *TenantHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondValidation(c, "Identificador de empresa inválido")
		return
	}
	if err := h.tenantService.Delete(c.Request.Context(), middleware.CurrentProfile(c).ID, id); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Empresa removida"})
}
