package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"controlia/internal/models"
)

func intPtr(v int) *int { return &v }

func TestCheckAgainstLimit(t *testing.T) {
	tests := []struct {
		name    string
		used    int64
		limit   *int
		allowed bool
	}{
		{"under limit", 4, intPtr(5), true},
		{"one below the ceiling is the last allowed", 4, intPtr(5), true},
		{"at limit rejected", 5, intPtr(5), false},
		{"over limit rejected", 6, intPtr(5), false},
		{"zero limit rejects everything", 0, intPtr(0), false},
		{"nil limit is unlimited", 1_000_000, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := check(tt.used, tt.limit)
			assert.Equal(t, tt.allowed, result.Allowed)
			assert.Equal(t, tt.used, result.Used)
			assert.Equal(t, tt.limit, result.Limit)
		})
	}
}

func TestPlanLimitWithoutPlan(t *testing.T) {
	tenant := &models.Tenant{}
	limit := planLimit(tenant, func(p *models.Plan) *int { return p.MaxUsers })
	assert.Nil(t, limit)
}

func TestPlanLimitReadsPlanField(t *testing.T) {
	tenant := &models.Tenant{
		Plan: &models.Plan{
			MaxUsers:            intPtr(3),
			MaxAgents:           intPtr(2),
			MonthlyMessageLimit: nil,
		},
	}

	assert.Equal(t, intPtr(3), planLimit(tenant, func(p *models.Plan) *int { return p.MaxUsers }))
	assert.Equal(t, intPtr(2), planLimit(tenant, func(p *models.Plan) *int { return p.MaxAgents }))
	assert.Nil(t, planLimit(tenant, func(p *models.Plan) *int { return p.MonthlyMessageLimit }))
}
