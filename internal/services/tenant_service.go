package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"controlia/internal/llm"
	"controlia/internal/models"
	"controlia/internal/nats"
)

var validTenantStatuses = map[string]bool{
	models.TenantStatusActive:    true,
	models.TenantStatusSuspended: true,
	models.TenantStatusBanned:    true,
	models.TenantStatusOverdue:   true,
}

// TenantUpdateRequest carries the tenant fields an admin may change
// on their own company, or a master on any company. Nil means keep.
type TenantUpdateRequest struct {
	Name          *string    `json:"nome"`
	Email         *string    `json:"email"`
	Phone         *string    `json:"telefone"`
	LLMAPIKey     *string    `json:"apiKeyLlm"`
	SystemContext *string    `json:"contextoIa"`
	PlanID        *uuid.UUID `json:"planoId"`
}

// TenantStore is the tenant persistence surface the service needs.
// *repository.TenantRepository satisfies it.
type TenantStore interface {
	GetWithPlan(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error)
	List(ctx context.Context, page, pageSize int) ([]models.Tenant, int64, error)
	Create(ctx context.Context, tenant *models.Tenant) error
	Update(ctx context.Context, tenant *models.Tenant) error
	UpdateStatus(ctx context.Context, tenantID uuid.UUID, status string) error
	Delete(ctx context.Context, tenantID uuid.UUID) error
}

// ProfileCounter reports how many profiles a tenant still has.
type ProfileCounter interface {
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// PlanGetter resolves plan assignments.
type PlanGetter interface {
	GetByID(ctx context.Context, planID uuid.UUID) (*models.Plan, error)
}

// AuditRecorder appends audit entries; *AuditService satisfies it.
type AuditRecorder interface {
	Record(ctx context.Context, tenantID, actorID *uuid.UUID, action, entity, entityID string, details map[string]interface{})
}

// TenantService manages tenant lifecycle and settings.
type TenantService struct {
	tenantRepo   TenantStore
	profileRepo  ProfileCounter
	planRepo     PlanGetter
	auditService AuditRecorder
	events       *nats.Client
	logger       *logrus.Logger
}

// NewTenantService creates a new tenant service
func NewTenantService(
	tenantRepo TenantStore,
	profileRepo ProfileCounter,
	planRepo PlanGetter,
	auditService AuditRecorder,
	events *nats.Client,
	logger *logrus.Logger,
) *TenantService {
	return &TenantService{
		tenantRepo:   tenantRepo,
		profileRepo:  profileRepo,
		planRepo:     planRepo,
		auditService: auditService,
		events:       events,
		logger:       logger,
	}
}

// Get retrieves a tenant with its plan
func (s *TenantService) Get(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.tenantRepo.GetWithPlan(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, &NotFoundError{Message: "Empresa não encontrada"}
	}
	return tenant, nil
}

// List returns a page of tenants (master only)
func (s *TenantService) List(ctx context.Context, page, pageSize int) ([]models.Tenant, int64, error) {
	return s.tenantRepo.List(ctx, page, pageSize)
}

// Create inserts a tenant (master creating companies directly)
func (s *TenantService) Create(ctx context.Context, actorID uuid.UUID, tenant *models.Tenant) error {
	tenant.Name = strings.TrimSpace(tenant.Name)
	if tenant.Name == "" {
		return &ValidationError{Message: "Nome da empresa é obrigatório"}
	}
	if tenant.Status == "" {
		tenant.Status = models.TenantStatusActive
	}
	if !validTenantStatuses[tenant.Status] {
		return &ValidationError{Message: "Status de empresa inválido"}
	}
	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return err
	}
	s.auditService.Record(ctx, &tenant.ID, &actorID, "empresa.criada", "empresa", tenant.ID.String(), map[string]interface{}{
		"nome": tenant.Name,
	})
	return nil
}

// Update applies tenant settings changes and audits them
func (s *TenantService) Update(ctx context.Context, actorID, tenantID uuid.UUID, req TenantUpdateRequest) (*models.Tenant, error) {
	tenant, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	changed := map[string]interface{}{}
	if req.Name != nil {
		tenant.Name = strings.TrimSpace(*req.Name)
		changed["nome"] = tenant.Name
	}
	if req.Email != nil {
		tenant.Email = strings.ToLower(strings.TrimSpace(*req.Email))
		changed["email"] = tenant.Email
	}
	if req.Phone != nil {
		tenant.Phone = strings.TrimSpace(*req.Phone)
		changed["telefone"] = tenant.Phone
	}
	if req.LLMAPIKey != nil {
		key := strings.TrimSpace(*req.LLMAPIKey)
		if key != "" {
			if _, err := llm.DetectProvider(key); err != nil {
				return nil, &ValidationError{Message: "Chave de API não reconhecida"}
			}
		}
		tenant.LLMAPIKey = key
		// Never log or audit the key itself.
		changed["api_key_llm"] = "atualizada"
	}
	if req.SystemContext != nil {
		tenant.SystemContext = *req.SystemContext
		changed["contexto_ia"] = "atualizado"
	}
	if req.PlanID != nil {
		plan, err := s.planRepo.GetByID(ctx, *req.PlanID)
		if err != nil {
			return nil, err
		}
		if plan == nil {
			return nil, &NotFoundError{Message: "Plano não encontrado"}
		}
		tenant.PlanID = req.PlanID
		changed["plano_id"] = plan.ID.String()
	}

	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, err
	}
	s.auditService.Record(ctx, &tenant.ID, &actorID, "empresa.atualizada", "empresa", tenant.ID.String(), changed)
	return s.Get(ctx, tenantID)
}

// UpdateStatus changes a tenant's lifecycle status, audits it, and
// publishes an event.
func (s *TenantService) UpdateStatus(ctx context.Context, actorID, tenantID uuid.UUID, status string) error {
	if !validTenantStatuses[status] {
		return &ValidationError{Message: "Status de empresa inválido"}
	}
	tenant, err := s.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	previous := tenant.Status
	if err := s.tenantRepo.UpdateStatus(ctx, tenantID, status); err != nil {
		return err
	}

	s.auditService.Record(ctx, &tenantID, &actorID, "empresa.status", "empresa", tenantID.String(), map[string]interface{}{
		"de":   previous,
		"para": status,
	})
	s.events.Publish(nats.SubjectTenantStatusChanged, map[string]interface{}{
		"empresa_id": tenantID,
		"de":         previous,
		"para":       status,
	})
	s.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"from":      previous,
		"to":        status,
	}).Info("Tenant status changed")
	return nil
}

// Delete removes a tenant. Refused while any profile row references
// it; companies are suspended via status, not deleted.
func (s *TenantService) Delete(ctx context.Context, actorID, tenantID uuid.UUID) error {
	tenant, err := s.Get(ctx, tenantID)
	if err != nil {
		return err
	}

	profiles, err := s.profileRepo.CountByTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if profiles > 0 {
		return &ValidationError{Message: "Exclua os usuários da empresa antes de removê-la"}
	}

	if err := s.tenantRepo.Delete(ctx, tenantID); err != nil {
		return err
	}
	s.auditService.Record(ctx, &tenantID, &actorID, "empresa.removida", "empresa", tenantID.String(), map[string]interface{}{
		"nome": tenant.Name,
	})
	return nil
}
