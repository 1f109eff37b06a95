package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"controlia/internal/models"
	"controlia/internal/redis"
	"controlia/internal/repository"
)

// LimitCheck is the result of comparing current usage against a plan
// quota. A nil Limit means the plan is unlimited for that resource.
type LimitCheck struct {
	Allowed bool  `json:"permitido"`
	Used    int64 `json:"usado"`
	Limit   *int  `json:"limite"`
}

// UsageService enforces plan quotas and accumulates monthly usage.
type UsageService struct {
	usageRepo   *repository.UsageRepository
	profileRepo *repository.ProfileRepository
	agentRepo   *repository.AgentRepository
	cache       *redis.Client
	logger      *logrus.Logger
}

// NewUsageService creates a new usage service
func NewUsageService(
	usageRepo *repository.UsageRepository,
	profileRepo *repository.ProfileRepository,
	agentRepo *repository.AgentRepository,
	cache *redis.Client,
	logger *logrus.Logger,
) *UsageService {
	return &UsageService{
		usageRepo:   usageRepo,
		profileRepo: profileRepo,
		agentRepo:   agentRepo,
		cache:       cache,
		logger:      logger,
	}
}

// CheckUserLimit reports whether the tenant may add another profile
func (s *UsageService) CheckUserLimit(ctx context.Context, tenant *models.Tenant) (*LimitCheck, error) {
	count, err := s.profileRepo.CountByTenant(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	return check(count, planLimit(tenant, func(p *models.Plan) *int { return p.MaxUsers })), nil
}

// CheckAgentLimit reports whether the tenant may add another agent
func (s *UsageService) CheckAgentLimit(ctx context.Context, tenant *models.Tenant) (*LimitCheck, error) {
	count, err := s.agentRepo.CountByTenant(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	return check(count, planLimit(tenant, func(p *models.Plan) *int { return p.MaxAgents })), nil
}

// CheckMessageLimit reports whether the tenant may send another chat
// message this month. Reads the authoritative database counter.
func (s *UsageService) CheckMessageLimit(ctx context.Context, tenant *models.Tenant) (*LimitCheck, error) {
	var used int64
	record, err := s.usageRepo.GetMonth(ctx, tenant.ID, models.CurrentMonth())
	if err != nil {
		return nil, err
	}
	if record != nil {
		used = int64(record.MessagesUsed)
	}
	return check(used, planLimit(tenant, func(p *models.Plan) *int { return p.MonthlyMessageLimit })), nil
}

// TrackChatTurn accounts one completed chat turn: a single atomic
// database increment plus a best-effort cache mirror.
func (s *UsageService) TrackChatTurn(ctx context.Context, tenantID uuid.UUID, tokens int64) error {
	month := models.CurrentMonth()
	if err := s.usageRepo.Increment(ctx, tenantID, month, 1, tokens); err != nil {
		return err
	}
	s.cache.MirrorUsage(ctx, tenantID, month, 1)
	return nil
}

// CurrentMonthUsage returns the tenant's usage row for this month,
// or a zeroed record when none exists yet.
func (s *UsageService) CurrentMonthUsage(ctx context.Context, tenantID uuid.UUID) (*models.UsageRecord, error) {
	month := models.CurrentMonth()
	record, err := s.usageRepo.GetMonth(ctx, tenantID, month)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = &models.UsageRecord{TenantID: tenantID, Month: month}
	}
	return record, nil
}

// History returns the tenant's recent monthly usage rows
func (s *UsageService) History(ctx context.Context, tenantID uuid.UUID, months int) ([]models.UsageRecord, error) {
	return s.usageRepo.ListByTenant(ctx, tenantID, months)
}

// planLimit extracts a quota field from the tenant's plan. Nil when
// no plan is assigned or the plan leaves the resource unlimited.
func planLimit(tenant *models.Tenant, field func(*models.Plan) *int) *int {
	if tenant.Plan == nil {
		return nil
	}
	return field(tenant.Plan)
}

func check(used int64, limit *int) *LimitCheck {
	allowed := limit == nil || used < int64(*limit)
	return &LimitCheck{Allowed: allowed, Used: used, Limit: limit}
}
