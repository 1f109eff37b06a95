package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"controlia/internal/models"
)

// UsageRepository handles monthly usage counter (uso_recursos)
// operations. The database row is the authoritative counter.
type UsageRepository struct {
	db *gorm.DB
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// GetMonth retrieves a tenant's usage row for a month key ("2006-01").
// Returns nil when the tenant has no usage yet that month.
func (r *UsageRepository) GetMonth(ctx context.Context, tenantID uuid.UUID, month string) (*models.UsageRecord, error) {
	var record models.UsageRecord
	err := r.db.WithContext(ctx).
		Where("empresa_id = ? AND mes_referencia = ?", tenantID, month).
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get usage record: %w", err)
	}
	return &record, nil
}

// Increment adds to a tenant's monthly counters in a single atomic
// statement. Concurrent chat turns racing on the same month never lose
// updates: the insert upserts on (empresa_id, mes_referencia) and the
// update arm adds to the stored values server-side.
func (r *UsageRepository) Increment(ctx context.Context, tenantID uuid.UUID, month string, messages int, tokens int64) error {
	record := models.UsageRecord{
		TenantID:     tenantID,
		Month:        month,
		MessagesUsed: messages,
		TokensUsed:   tokens,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "empresa_id"}, {Name: "mes_referencia"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"mensagens_usadas": gorm.Expr("uso_recursos.mensagens_usadas + ?", messages),
			"tokens_usados":    gorm.Expr("uso_recursos.tokens_usados + ?", tokens),
			"updated_at":       time.Now(),
		}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

// ListByTenant returns a tenant's usage history, newest month first
func (r *UsageRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.UsageRecord, error) {
	var records []models.UsageRecord
	query := r.db.WithContext(ctx).
		Where("empresa_id = ?", tenantID).
		Order("mes_referencia DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}
	return records, nil
}

// TotalsForMonth sums messages and tokens across all tenants for a
// month (master dashboard).
func (r *UsageRepository) TotalsForMonth(ctx context.Context, month string) (int64, int64, error) {
	var totals struct {
		Messages int64
		Tokens   int64
	}
	err := r.db.WithContext(ctx).Model(&models.UsageRecord{}).
		Select("COALESCE(SUM(mensagens_usadas), 0) AS messages, COALESCE(SUM(tokens_usados), 0) AS tokens").
		Where("mes_referencia = ?", month).
		Scan(&totals).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum usage totals: %w", err)
	}
	return totals.Messages, totals.Tokens, nil
}
