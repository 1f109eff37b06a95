package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"controlia/internal/models"
	"controlia/internal/repository"
)

// PlanService manages subscription plans (master only).
type PlanService struct {
	planRepo     *repository.PlanRepository
	tenantRepo   *repository.TenantRepository
	auditService *AuditService
	logger       *logrus.Logger
}

// NewPlanService creates a new plan service
func NewPlanService(
	planRepo *repository.PlanRepository,
	tenantRepo *repository.TenantRepository,
	auditService *AuditService,
	logger *logrus.Logger,
) *PlanService {
	return &PlanService{
		planRepo:     planRepo,
		tenantRepo:   tenantRepo,
		auditService: auditService,
		logger:       logger,
	}
}

// Get retrieves a plan by ID
func (s *PlanService) Get(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, &NotFoundError{Message: "Plano não encontrado"}
	}
	return plan, nil
}

// List returns plans; activeOnly restricts to plans open for signup
func (s *PlanService) List(ctx context.Context, activeOnly bool) ([]models.Plan, error) {
	return s.planRepo.List(ctx, activeOnly)
}

// Create inserts a new plan
func (s *PlanService) Create(ctx context.Context, actorID uuid.UUID, plan *models.Plan) error {
	plan.Name = strings.TrimSpace(plan.Name)
	if plan.Name == "" {
		return &ValidationError{Message: "Nome do plano é obrigatório"}
	}
	if plan.MonthlyPrice < 0 {
		return &ValidationError{Message: "Preço mensal inválido"}
	}
	if err := s.planRepo.Create(ctx, plan); err != nil {
		return err
	}
	s.auditService.Record(ctx, nil, &actorID, "plano.criado", "plano", plan.ID.String(), map[string]interface{}{
		"nome": plan.Name,
	})
	return nil
}

// Update persists plan changes
func (s *PlanService) Update(ctx context.Context, actorID uuid.UUID, plan *models.Plan) error {
	existing, err := s.Get(ctx, plan.ID)
	if err != nil {
		return err
	}
	plan.CreatedAt = existing.CreatedAt
	if plan.MonthlyPrice < 0 {
		return &ValidationError{Message: "Preço mensal inválido"}
	}
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return err
	}
	s.auditService.Record(ctx, nil, &actorID, "plano.atualizado", "plano", plan.ID.String(), map[string]interface{}{
		"nome": plan.Name,
	})
	return nil
}

// Delete removes a plan. Refused while any tenant is assigned to it.
func (s *PlanService) Delete(ctx context.Context, actorID, planID uuid.UUID) error {
	plan, err := s.Get(ctx, planID)
	if err != nil {
		return err
	}
	assigned, err := s.tenantRepo.CountByPlan(ctx, planID)
	if err != nil {
		return err
	}
	if assigned > 0 {
		return &ValidationError{Message: "Existem empresas usando este plano"}
	}
	if err := s.planRepo.Delete(ctx, planID); err != nil {
		return err
	}
	s.auditService.Record(ctx, nil, &actorID, "plano.removido", "plano", planID.String(), map[string]interface{}{
		"nome": plan.Name,
	})
	return nil
}
