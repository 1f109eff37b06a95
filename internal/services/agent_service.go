package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"controlia/internal/models"
	"controlia/internal/repository"
)

// AgentCreateRequest is the admin payload for creating an agent
type AgentCreateRequest struct {
	Name        string `json:"nome" binding:"required"`
	Description string `json:"descricao"`
	BasePrompt  string `json:"promptBase" binding:"required"`
	Popular     bool   `json:"popular"`
}

// AgentUpdateRequest carries agent fields an admin may change. Nil
// means keep.
type AgentUpdateRequest struct {
	Name        *string `json:"nome"`
	Description *string `json:"descricao"`
	BasePrompt  *string `json:"promptBase"`
	Active      *bool   `json:"ativo"`
	Popular     *bool   `json:"popular"`
}

// AgentService manages a tenant's AI agents.
type AgentService struct {
	agentRepo    *repository.AgentRepository
	usageService *UsageService
	auditService *AuditService
	logger       *logrus.Logger
}

// NewAgentService creates a new agent service
func NewAgentService(
	agentRepo *repository.AgentRepository,
	usageService *UsageService,
	auditService *AuditService,
	logger *logrus.Logger,
) *AgentService {
	return &AgentService{
		agentRepo:    agentRepo,
		usageService: usageService,
		auditService: auditService,
		logger:       logger,
	}
}

// List returns the tenant's agents. Collaborators see only active
// agents; admins see all.
func (s *AgentService) List(ctx context.Context, tenant *models.Tenant, includeInactive bool) ([]models.Agent, error) {
	return s.agentRepo.List(ctx, repository.ForTenant(tenant.ID), !includeInactive)
}

// Get retrieves one of the tenant's agents
func (s *AgentService) Get(ctx context.Context, tenant *models.Tenant, agentID uuid.UUID) (*models.Agent, error) {
	agent, err := s.agentRepo.GetByID(ctx, repository.ForTenant(tenant.ID), agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, &NotFoundError{Message: "Agente não encontrado"}
	}
	return agent, nil
}

// Create adds an agent, enforcing the plan's agent quota
func (s *AgentService) Create(ctx context.Context, actor *models.Profile, tenant *models.Tenant, req AgentCreateRequest) (*models.Agent, error) {
	limit, err := s.usageService.CheckAgentLimit(ctx, tenant)
	if err != nil {
		return nil, err
	}
	if !limit.Allowed {
		return nil, &QuotaError{Message: "Limite de agentes do plano atingido"}
	}

	agent := &models.Agent{
		TenantID:    tenant.ID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		BasePrompt:  strings.TrimSpace(req.BasePrompt),
		Active:      true,
		Popular:     req.Popular,
	}
	if agent.Name == "" || agent.BasePrompt == "" {
		return nil, &ValidationError{Message: "Nome e prompt base são obrigatórios"}
	}
	if err := s.agentRepo.Create(ctx, agent); err != nil {
		return nil, err
	}
	s.auditService.Record(ctx, &tenant.ID, &actor.ID, "agente.criado", "agente", agent.ID.String(), map[string]interface{}{
		"nome": agent.Name,
	})
	return agent, nil
}

// Update changes one of the tenant's agents
func (s *AgentService) Update(ctx context.Context, actor *models.Profile, tenant *models.Tenant, agentID uuid.UUID, req AgentUpdateRequest) (*models.Agent, error) {
	agent, err := s.Get(ctx, tenant, agentID)
	if err != nil {
		return nil, err
	}

	changed := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, &ValidationError{Message: "Nome do agente é obrigatório"}
		}
		agent.Name = name
		changed["nome"] = agent.Name
	}
	if req.Description != nil {
		agent.Description = strings.TrimSpace(*req.Description)
		changed["descricao"] = agent.Description
	}
	if req.BasePrompt != nil {
		prompt := strings.TrimSpace(*req.BasePrompt)
		if prompt == "" {
			return nil, &ValidationError{Message: "Prompt base é obrigatório"}
		}
		agent.BasePrompt = prompt
		changed["prompt_base"] = "atualizado"
	}
	if req.Active != nil {
		agent.Active = *req.Active
		changed["ativo"] = agent.Active
	}
	if req.Popular != nil {
		agent.Popular = *req.Popular
		changed["popular"] = agent.Popular
	}

	if err := s.agentRepo.Update(ctx, agent); err != nil {
		return nil, err
	}
	s.auditService.Record(ctx, &tenant.ID, &actor.ID, "agente.atualizado", "agente", agent.ID.String(), changed)
	return agent, nil
}

// Delete removes one of the tenant's agents
func (s *AgentService) Delete(ctx context.Context, actor *models.Profile, tenant *models.Tenant, agentID uuid.UUID) error {
	agent, err := s.Get(ctx, tenant, agentID)
	if err != nil {
		return err
	}
	if err := s.agentRepo.Delete(ctx, repository.ForTenant(tenant.ID), agentID); err != nil {
		return err
	}
	s.auditService.Record(ctx, &tenant.ID, &actor.ID, "agente.removido", "agente", agentID.String(), map[string]interface{}{
		"nome": agent.Name,
	})
	return nil
}
