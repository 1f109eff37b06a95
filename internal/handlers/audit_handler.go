package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"controlia/internal/middleware"
	"controlia/internal/services"
)

// AuditHandler exposes the audit trail to admins and masters.
type AuditHandler struct {
	auditService *services.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// ListTenant returns the caller's company audit trail (admin)
func (h *AuditHandler) ListTenant(c *gin.Context) {
	page, pageSize := pagination(c)
	entries, total, err := h.auditService.ListForTenant(c.Request.Context(), middleware.CurrentTenant(c).ID, page, pageSize)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auditoria": entries, "total": total, "page": page})
}

// ListAll returns the platform-wide audit trail (master)
func (h *AuditHandler) ListAll(c *gin.Context) {
	page, pageSize := pagination(c)
	entries, total, err := h.auditService.ListAll(c.Request.Context(), page, pageSize)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auditoria": entries, "total": total, "page": page})
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return page, pageSize
}
