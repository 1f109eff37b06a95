package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"controlia/internal/models"
)

// AuditRepository handles audit log (auditoria) persistence.
type AuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts an audit entry
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}
	return nil
}

// ListByTenant returns a tenant's audit trail, newest first
func (r *AuditRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]models.AuditLog, int64, error) {
	var entries []models.AuditLog
	var total int64

	base := r.db.WithContext(ctx).Model(&models.AuditLog{}).Where("empresa_id = ?", tenantID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	query := r.db.WithContext(ctx).
		Where("empresa_id = ?", tenantID).
		Order("created_at DESC")
	if pageSize > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, total, nil
}

// ListAll returns the platform-wide audit trail, newest first
func (r *AuditRepository) ListAll(ctx context.Context, page, pageSize int) ([]models.AuditLog, int64, error) {
	var entries []models.AuditLog
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	query := r.db.WithContext(ctx).Order("created_at DESC")
	if pageSize > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, total, nil
}
