package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"controlia/internal/models"
	"controlia/internal/repository"
)

// AuditService records administrative actions. The trail is
// append-only; failures are logged but never fail the caller's
// operation.
type AuditService struct {
	auditRepo *repository.AuditRepository
	logger    *logrus.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo *repository.AuditRepository, logger *logrus.Logger) *AuditService {
	return &AuditService{auditRepo: auditRepo, logger: logger}
}

// Record appends an audit entry. tenantID and actorID may be nil for
// platform-level or system-originated actions.
func (s *AuditService) Record(ctx context.Context, tenantID, actorID *uuid.UUID, action, entity, entityID string, details map[string]interface{}) {
	payload, err := models.NewJSONB(details)
	if err != nil {
		s.logger.WithError(err).WithField("action", action).Error("Failed to encode audit details")
		payload = nil
	}
	entry := &models.AuditLog{
		TenantID: tenantID,
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Details:  payload,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.WithError(err).WithField("action", action).Error("Failed to record audit entry")
	}
}

// ListForTenant returns a tenant's audit trail page
func (s *AuditService) ListForTenant(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]models.AuditLog, int64, error) {
	return s.auditRepo.ListByTenant(ctx, tenantID, page, pageSize)
}

// ListAll returns the platform-wide audit trail page
func (s *AuditService) ListAll(ctx context.Context, page, pageSize int) ([]models.AuditLog, int64, error) {
	return s.auditRepo.ListAll(ctx, page, pageSize)
}
