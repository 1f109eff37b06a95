package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"controlia/internal/models"
)

// AgentRepository handles AI agent (agente) database operations.
// Every read and write is tenant-scoped.
type AgentRepository struct {
	db *gorm.DB
}

// NewAgentRepository creates a new agent repository
func NewAgentRepository(db *gorm.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

// GetByID retrieves an agent belonging to the scope's tenant
func (r *AgentRepository) GetByID(ctx context.Context, scope Scope, agentID uuid.UUID) (*models.Agent, error) {
	var agent models.Agent
	if err := scope.apply(r.db.WithContext(ctx)).First(&agent, "id = ?", agentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return &agent, nil
}

// List returns a tenant's agents. When activeOnly is set, inactive
// agents are filtered out (the shape normal users see).
func (r *AgentRepository) List(ctx context.Context, scope Scope, activeOnly bool) ([]models.Agent, error) {
	var agents []models.Agent
	query := scope.apply(r.db.WithContext(ctx)).Order("popular DESC, created_at ASC")
	if activeOnly {
		query = query.Where("ativo = ?", true)
	}
	if err := query.Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	return agents, nil
}

// Create inserts a new agent
func (r *AgentRepository) Create(ctx context.Context, agent *models.Agent) error {
	if err := r.db.WithContext(ctx).Create(agent).Error; err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	return nil
}

// Update persists agent changes
func (r *AgentRepository) Update(ctx context.Context, agent *models.Agent) error {
	agent.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(agent).Error; err != nil {
		return fmt.Errorf("failed to update agent: %w", err)
	}
	return nil
}

// Delete removes an agent from the scope's tenant
func (r *AgentRepository) Delete(ctx context.Context, scope Scope, agentID uuid.UUID) error {
	result := scope.apply(r.db.WithContext(ctx)).Delete(&models.Agent{}, "id = ?", agentID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete agent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("agent not found: %s", agentID)
	}
	return nil
}

// CountByTenant returns how many agents a tenant has
func (r *AgentRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Agent{}).Where("empresa_id = ?", tenantID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count agents: %w", err)
	}
	return count, nil
}
