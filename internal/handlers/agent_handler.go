package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"controlia/internal/middleware"
	"controlia/internal/models"
	"controlia/internal/services"
)

// AgentHandler manages a tenant's AI agents. Listing is open to every
// role; mutations sit behind the admin guard in the router.
type AgentHandler struct {
	agentService *services.AgentService
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(agentService *services.AgentService) *AgentHandler {
	return &AgentHandler{agentService: agentService}
}

// List returns the tenant's agents; admins also see inactive ones
func (h *AgentHandler) List(c *gin.Context) {
	profile := middleware.CurrentProfile(c)
	includeInactive := models.RoleAtLeast(profile.Role, models.RoleAdmin)

	agents, err := h.agentService.List(c.Request.Context(), middleware.CurrentTenant(c), includeInactive)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agentes": agents})
}

// Get returns a single agent
func (h *AgentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondValidation(c, "Identificador de agente inválido")
		return
	}
	agent, err := h.agentService.Get(c.Request.Context(), middleware.CurrentTenant(c), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

// Create adds an agent (admin)
func (h *AgentHandler) Create(c *gin.Context) {
	var req services.AgentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidation(c, "Nome e prompt base são obrigatórios")
		return
	}
	agent, err := h.agentService.Create(c.Request.Context(), middleware.CurrentProfile(c), middleware.CurrentTenant(c), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, agent)
}

// Update changes an agent (admin)
func (h *AgentHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondValidation(c, "Identificador de agente inválido")
		return
	}
	var req services.AgentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidation(c, "Dados de agente inválidos")
		return
	}
	agent, err := h.agentService.Update(c.Request.Context(), middleware.CurrentProfile(c), middleware.CurrentTenant(c), id, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

// Delete removes an agent (admin)
func (h *AgentHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondValidation(c, "Identificador de agente inválido")
		return
	}
	if err := h.agentService.Delete(c.Request.Context(), middleware.CurrentProfile(c), middleware.CurrentTenant(c), id); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Agente removido"})
}
