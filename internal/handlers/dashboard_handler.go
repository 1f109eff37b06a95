package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"controlia/internal/middleware"
	"controlia/internal/services"
)

// DashboardHandler serves aggregate views and the quota snapshot.
type DashboardHandler struct {
	dashboardService *services.DashboardService
	usageService     *services.UsageService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService, usageService *services.UsageService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, usageService: usageService}
}

// Tenant returns the caller's company dashboard
func (h *DashboardHandler) Tenant(c *gin.Context) {
	dashboard, err := h.dashboardService.ForTenant(c.Request.Context(), middleware.CurrentTenant(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// Platform returns the platform-wide dashboard (master)
func (h *DashboardHandler) Platform(c *gin.Context) {
	dashboard, err := h.dashboardService.ForPlatform(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// Limits returns the tenant's three quota checks in one call
func (h *DashboardHandler) Limits(c *gin.Context) {
	ctx := c.Request.Context()
	tenant := middleware.CurrentTenant(c)

	users, err := h.usageService.CheckUserLimit(ctx, tenant)
	if err != nil {
		RespondError(c, err)
		return
	}
	agents, err := h.usageService.CheckAgentLimit(ctx, tenant)
	if err != nil {
		RespondError(c, err)
		return
	}
	messages, err := h.usageService.CheckMessageLimit(ctx, tenant)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"usuarios":  users,
		"agentes":   agents,
		"mensagens": messages,
	})
}

// UsageHistory returns the tenant's recent monthly usage rows
func (h *DashboardHandler) UsageHistory(c *gin.Context) {
	records, err := h.usageService.History(c.Request.Context(), middleware.CurrentTenant(c).ID, 12)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uso": records})
}
