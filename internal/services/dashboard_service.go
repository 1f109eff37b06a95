package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"controlia/internal/models"
	"controlia/internal/repository"
)

// TenantDashboard aggregates a tenant's current numbers for the
// company dashboard.
type TenantDashboard struct {
	Users         int64       `json:"usuarios"`
	Agents        int64       `json:"agentes"`
	Conversations int64       `json:"conversas"`
	Month         string      `json:"mes_referencia"`
	MessagesUsed  int         `json:"mensagens_usadas"`
	TokensUsed    int64       `json:"tokens_usados"`
	MessageLimit  *LimitCheck `json:"limite_mensagens"`
}

// PlatformDashboard aggregates platform-wide numbers for master users.
type PlatformDashboard struct {
	Tenants        int64            `json:"empresas"`
	TenantsByState map[string]int64 `json:"empresas_por_status"`
	Profiles       int64            `json:"usuarios"`
	Month          string           `json:"mes_referencia"`
	MessagesTotal  int64            `json:"mensagens_mes"`
	TokensTotal    int64            `json:"tokens_mes"`
}

// DashboardService builds aggregate views; it reuses the repositories
// and quota checkers rather than keeping state of its own.
type DashboardService struct {
	tenantRepo       *repository.TenantRepository
	profileRepo      *repository.ProfileRepository
	agentRepo        *repository.AgentRepository
	conversationRepo *repository.ConversationRepository
	usageRepo        *repository.UsageRepository
	usageService     *UsageService
	logger           *logrus.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	tenantRepo *repository.TenantRepository,
	profileRepo *repository.ProfileRepository,
	agentRepo *repository.AgentRepository,
	conversationRepo *repository.ConversationRepository,
	usageRepo *repository.UsageRepository,
	usageService *UsageService,
	logger *logrus.Logger,
) *DashboardService {
	return &DashboardService{
		tenantRepo:       tenantRepo,
		profileRepo:      profileRepo,
		agentRepo:        agentRepo,
		conversationRepo: conversationRepo,
		usageRepo:        usageRepo,
		usageService:     usageService,
		logger:           logger,
	}
}

// ForTenant builds the company dashboard
func (s *DashboardService) ForTenant(ctx context.Context, tenant *models.Tenant) (*TenantDashboard, error) {
	users, err := s.profileRepo.CountByTenant(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	agents, err := s.agentRepo.CountByTenant(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	conversations, err := s.conversationRepo.CountByTenant(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	usage, err := s.usageService.CurrentMonthUsage(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	limit, err := s.usageService.CheckMessageLimit(ctx, tenant)
	if err != nil {
		return nil, err
	}

	return &TenantDashboard{
		Users:         users,
		Agents:        agents,
		Conversations: conversations,
		Month:         usage.Month,
		MessagesUsed:  usage.MessagesUsed,
		TokensUsed:    usage.TokensUsed,
		MessageLimit:  limit,
	}, nil
}

// ForPlatform builds the master dashboard
func (s *DashboardService) ForPlatform(ctx context.Context) (*PlatformDashboard, error) {
	tenants, err := s.tenantRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	byStatus := map[string]int64{}
	for _, status := range []string{
		models.TenantStatusActive,
		models.TenantStatusSuspended,
		models.TenantStatusBanned,
		models.TenantStatusOverdue,
	} {
		count, err := s.tenantRepo.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		byStatus[status] = count
	}

	profiles, err := s.profileRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}

	month := models.CurrentMonth()
	messages, tokens, err := s.usageRepo.TotalsForMonth(ctx, month)
	if err != nil {
		return nil, err
	}

	return &PlatformDashboard{
		Tenants:        tenants,
		TenantsByState: byStatus,
		Profiles:       profiles,
		Month:          month,
		MessagesTotal:  messages,
		TokensTotal:    tokens,
	}, nil
}
