package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"controlia/internal/models"
	"controlia/internal/repository"
)

// ProfileCreateRequest is an admin creating a collaborator account
// inside their own tenant.
type ProfileCreateRequest struct {
	Name     string `json:"nome" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"senha" binding:"required,min=8"`
	Role     string `json:"role"`
}

// ProfileUpdateRequest carries profile fields an admin may change.
// Nil means keep.
type ProfileUpdateRequest struct {
	Name     *string `json:"nome"`
	Role     *string `json:"role"`
	Status   *string `json:"status"`
	Password *string `json:"senha"`
}

// ProfileService manages profiles within a tenant.
type ProfileService struct {
	profileRepo  *repository.ProfileRepository
	usageService *UsageService
	auditService *AuditService
	logger       *logrus.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(
	profileRepo *repository.ProfileRepository,
	usageService *UsageService,
	auditService *AuditService,
	logger *logrus.Logger,
) *ProfileService {
	return &ProfileService{
		profileRepo:  profileRepo,
		usageService: usageService,
		auditService: auditService,
		logger:       logger,
	}
}

// List returns the tenant's profiles
func (s *ProfileService) List(ctx context.Context, tenant *models.Tenant) ([]models.Profile, error) {
	return s.profileRepo.List(ctx, repository.ForTenant(tenant.ID))
}

// Create adds a collaborator to the tenant, enforcing the plan's user
// quota. Admins cannot mint roles above their own.
func (s *ProfileService) Create(ctx context.Context, actor *models.Profile, tenant *models.Tenant, req ProfileCreateRequest) (*models.Profile, error) {
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if models.RoleLevel(role) < 0 {
		return nil, &ValidationError{Message: "Papel de usuário inválido"}
	}
	if models.RoleLevel(role) > models.RoleLevel(actor.Role) {
		return nil, &PermissionError{Message: "Permissão insuficiente"}
	}

	limit, err := s.usageService.CheckUserLimit(ctx, tenant)
	if err != nil {
		return nil, err
	}
	if !limit.Allowed {
		return nil, &QuotaError{Message: "Limite de usuários do plano atingido"}
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.profileRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &ConflictError{Message: "E-mail já cadastrado"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{
		TenantID:     tenant.ID,
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       models.ProfileStatusActive,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}

	s.auditService.Record(ctx, &tenant.ID, &actor.ID, "perfil.criado", "perfil", profile.ID.String(), map[string]interface{}{
		"email": profile.Email,
		"role":  profile.Role,
	})
	return profile, nil
}

// Update changes a collaborator's profile within the actor's tenant
func (s *ProfileService) Update(ctx context.Context, actor *models.Profile, tenant *models.Tenant, profileID uuid.UUID, req ProfileUpdateRequest) (*models.Profile, error) {
	profile, err := s.profileRepo.GetScoped(ctx, repository.ForTenant(tenant.ID), profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, &NotFoundError{Message: "Usuário não encontrado"}
	}

	changed := map[string]interface{}{}
	if req.Name != nil {
		profile.Name = strings.TrimSpace(*req.Name)
		changed["nome"] = profile.Name
	}
	if req.Role != nil {
		if models.RoleLevel(*req.Role) < 0 {
			return nil, &ValidationError{Message: "Papel de usuário inválido"}
		}
		if models.RoleLevel(*req.Role) > models.RoleLevel(actor.Role) {
			return nil, &PermissionError{Message: "Permissão insuficiente"}
		}
		profile.Role = *req.Role
		changed["role"] = profile.Role
	}
	if req.Status != nil {
		if *req.Status != models.ProfileStatusActive && *req.Status != models.ProfileStatusInactive {
			return nil, &ValidationError{Message: "Status de usuário inválido"}
		}
		if profile.ID == actor.ID && *req.Status == models.ProfileStatusInactive {
			return nil, &ValidationError{Message: "Não é possível desativar a própria conta"}
		}
		profile.Status = *req.Status
		changed["status"] = profile.Status
	}
	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < 8 {
			return nil, &ValidationError{Message: "Senha deve ter ao menos 8 caracteres"}
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		profile.PasswordHash = string(hash)
		changed["senha"] = "alterada"
	}

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	s.auditService.Record(ctx, &tenant.ID, &actor.ID, "perfil.atualizado", "perfil", profile.ID.String(), changed)
	return profile, nil
}

// Delete removes a collaborator from the actor's tenant
func (s *ProfileService) Delete(ctx context.Context, actor *models.Profile, tenant *models.Tenant, profileID uuid.UUID) error {
	if profileID == actor.ID {
		return &ValidationError{Message: "Não é possível remover a própria conta"}
	}
	profile, err := s.profileRepo.GetScoped(ctx, repository.ForTenant(tenant.ID), profileID)
	if err != nil {
		return err
	}
	if profile == nil {
		return &NotFoundError{Message: "Usuário não encontrado"}
	}
	if models.RoleLevel(profile.Role) > models.RoleLevel(actor.Role) {
		return &PermissionError{Message: "Permissão insuficiente"}
	}
	if err := s.profileRepo.Delete(ctx, repository.ForTenant(tenant.ID), profileID); err != nil {
		return err
	}
	s.auditService.Record(ctx, &tenant.ID, &actor.ID, "perfil.removido", "perfil", profileID.String(), map[string]interface{}{
		"email": profile.Email,
	})
	return nil
}
