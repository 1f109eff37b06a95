package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"controlia/internal/models"
)

// PlanRepository handles subscription plan (plano) database operations.
// Plans are platform-level rows managed by master users.
type PlanRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// GetByID retrieves a plan by ID
func (r *PlanRepository) GetByID(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.WithContext(ctx).First(&plan, "id = ?", planID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return &plan, nil
}

// GetByStripePriceID resolves a plan from a payment-processor price id
func (r *PlanRepository) GetByStripePriceID(ctx context.Context, priceID string) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.WithContext(ctx).First(&plan, "stripe_price_id = ?", priceID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get plan by price id: %w", err)
	}
	return &plan, nil
}

// List returns all plans, cheapest first
func (r *PlanRepository) List(ctx context.Context, activeOnly bool) ([]models.Plan, error) {
	var plans []models.Plan
	query := r.db.WithContext(ctx).Order("preco_mensal ASC")
	if activeOnly {
		query = query.Where("ativo = ?", true)
	}
	if err := query.Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// Create inserts a new plan
func (r *PlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	if err := r.db.WithContext(ctx).Create(plan).Error; err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

// Update persists plan changes
func (r *PlanRepository) Update(ctx context.Context, plan *models.Plan) error {
	plan.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(plan).Error; err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	return nil
}

// Delete removes a plan row. Callers must have verified that no
// tenant is assigned to it.
func (r *PlanRepository) Delete(ctx context.Context, planID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.Plan{}, "id = ?", planID).Error; err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	return nil
}
